package contentapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Connect opens a PostgreSQL connection pool and verifies connectivity.
func Connect(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	if dsn == "" {
		return nil, fmt.Errorf("database DSN must not be empty")
	}

	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse pgx config: %w", err)
	}
	cfg.MaxConnLifetime = 1 * time.Hour
	cfg.MaxConnIdleTime = 15 * time.Minute
	cfg.HealthCheckPeriod = 30 * time.Second

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pgx pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}

type pgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

var _ pgxPool = (*pgxpool.Pool)(nil)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS content_entries (
    id           BIGSERIAL PRIMARY KEY,
    content_type TEXT        NOT NULL,
    document_id  TEXT        NOT NULL UNIQUE,
    attributes   JSONB       NOT NULL DEFAULT '{}'::jsonb,
    created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS content_entries_type_idx ON content_entries (content_type, id);
`

// PostgresStore keeps entries in a single JSONB table.
type PostgresStore struct {
	pool   pgxPool
	newDoc func() string
}

// NewPostgresStore wraps a pgx pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool, newDoc: uuid.NewString}
}

// Migrate creates the schema when missing.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("migrate content schema: %w", err)
	}
	return nil
}

// List implements Store.
func (s *PostgresStore) List(ctx context.Context, typ string) ([]Entry, error) {
	if _, ok := LookupType(typ); !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownType, typ)
	}
	rows, err := s.pool.Query(ctx, `
        SELECT id, document_id, attributes, created_at, updated_at
        FROM content_entries
        WHERE content_type = $1
        ORDER BY id
    `, typ)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", typ, err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		entry := Entry{Type: typ}
		var attrs []byte
		if err := rows.Scan(&entry.ID, &entry.DocumentID, &attrs, &entry.CreatedAt, &entry.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan %s row: %w", typ, err)
		}
		if entry.Attributes, err = decodeAttributes(attrs); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", typ, err)
	}
	return entries, nil
}

// Get implements Store.
func (s *PostgresStore) Get(ctx context.Context, typ string, id int64) (Entry, error) {
	if _, ok := LookupType(typ); !ok {
		return Entry{}, fmt.Errorf("%w: %s", ErrUnknownType, typ)
	}
	row := s.pool.QueryRow(ctx, `
        SELECT id, document_id, attributes, created_at, updated_at
        FROM content_entries
        WHERE content_type = $1 AND id = $2
    `, typ, id)

	entry := Entry{Type: typ}
	var attrs []byte
	if err := row.Scan(&entry.ID, &entry.DocumentID, &attrs, &entry.CreatedAt, &entry.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Entry{}, ErrNotFound
		}
		return Entry{}, fmt.Errorf("get %s %d: %w", typ, id, err)
	}
	var err error
	if entry.Attributes, err = decodeAttributes(attrs); err != nil {
		return Entry{}, err
	}
	return entry, nil
}

// Create implements Store. Replacing a single type happens in the same
// statement as the insert.
func (s *PostgresStore) Create(ctx context.Context, typ string, attrs map[string]any) (Entry, error) {
	ct, ok := LookupType(typ)
	if !ok {
		return Entry{}, fmt.Errorf("%w: %s", ErrUnknownType, typ)
	}
	normalized, err := normalizeAttributes(attrs)
	if err != nil {
		return Entry{}, err
	}
	payload, err := json.Marshal(normalized)
	if err != nil {
		return Entry{}, fmt.Errorf("encode %s attributes: %w", typ, err)
	}

	entry := Entry{Type: typ, DocumentID: s.newDoc(), Attributes: normalized}
	row := s.pool.QueryRow(ctx, `
        WITH removed AS (
            DELETE FROM content_entries WHERE $4::boolean AND content_type = $1
        )
        INSERT INTO content_entries (content_type, document_id, attributes)
        VALUES ($1, $2, $3)
        RETURNING id, created_at, updated_at
    `, typ, entry.DocumentID, payload, ct.Single)
	if err := row.Scan(&entry.ID, &entry.CreatedAt, &entry.UpdatedAt); err != nil {
		return Entry{}, fmt.Errorf("insert %s: %w", typ, err)
	}
	return entry, nil
}

// Reset implements Store.
func (s *PostgresStore) Reset(ctx context.Context, typ string) error {
	if _, ok := LookupType(typ); !ok {
		return fmt.Errorf("%w: %s", ErrUnknownType, typ)
	}
	if _, err := s.pool.Exec(ctx, `DELETE FROM content_entries WHERE content_type = $1`, typ); err != nil {
		return fmt.Errorf("reset %s: %w", typ, err)
	}
	return nil
}

func decodeAttributes(raw []byte) (map[string]any, error) {
	attrs := map[string]any{}
	if len(raw) == 0 {
		return attrs, nil
	}
	if err := json.Unmarshal(raw, &attrs); err != nil {
		return nil, fmt.Errorf("decode attributes: %w", err)
	}
	return attrs, nil
}
