package contentapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned when no entry matches the lookup.
	ErrNotFound = errors.New("contentapi: entry not found")
	// ErrUnknownType is returned for content types outside the registry.
	ErrUnknownType = errors.New("contentapi: unknown content type")
)

// ContentType describes one API resource.
type ContentType struct {
	Name   string
	Single bool
	// Media lists relation fields expanded by populate.
	Media []string
	// Public types are readable through GET.
	Public bool
}

const (
	TypeContacts    = "contacts"
	TypeUploadFiles = "upload-files"
)

var contentTypes = []ContentType{
	{Name: "band-info", Single: true, Media: []string{"image"}, Public: true},
	{Name: "services", Public: true},
	{Name: "social-medias", Public: true},
	{Name: "gallery-items", Media: []string{"media"}, Public: true},
	{Name: "contact-info", Single: true, Public: true},
	{Name: "timeline-events", Public: true},
	{Name: "band-members", Media: []string{"photo"}, Public: true},
	{Name: "site-setting", Single: true, Media: []string{"heroImage"}, Public: true},
	{Name: TypeContacts},
	{Name: TypeUploadFiles},
}

// LookupType returns the registered content type named name.
func LookupType(name string) (ContentType, bool) {
	for _, ct := range contentTypes {
		if ct.Name == name {
			return ct, true
		}
	}
	return ContentType{}, false
}

// Entry is one stored content record with a free-form attribute bag.
type Entry struct {
	ID         int64
	DocumentID string
	Type       string
	Attributes map[string]any
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Store persists content entries.
type Store interface {
	// List returns entries of typ in insertion order.
	List(ctx context.Context, typ string) ([]Entry, error)
	Get(ctx context.Context, typ string, id int64) (Entry, error)
	// Create stores a new entry. Single types keep only the latest entry.
	Create(ctx context.Context, typ string, attrs map[string]any) (Entry, error)
	// Reset removes every entry of typ.
	Reset(ctx context.Context, typ string) error
}

// normalizeAttributes deep-copies attrs into their JSON representation so
// both stores hand out identical shapes (numbers as float64, dates as strings).
func normalizeAttributes(attrs map[string]any) (map[string]any, error) {
	if attrs == nil {
		return map[string]any{}, nil
	}
	raw, err := json.Marshal(attrs)
	if err != nil {
		return nil, fmt.Errorf("contentapi: encode attributes: %w", err)
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("contentapi: decode attributes: %w", err)
	}
	return out, nil
}

// MemoryStore keeps entries in process memory.
type MemoryStore struct {
	mu      sync.RWMutex
	nextID  int64
	entries map[string][]Entry
	now     func() time.Time
	newDoc  func() string
}

// NewMemoryStore builds an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string][]Entry),
		now:     func() time.Time { return time.Now().UTC() },
		newDoc:  uuid.NewString,
	}
}

// List implements Store.
func (s *MemoryStore) List(_ context.Context, typ string) ([]Entry, error) {
	if _, ok := LookupType(typ); !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownType, typ)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Entry, len(s.entries[typ]))
	for i, e := range s.entries[typ] {
		out[i] = cloneEntry(e)
	}
	return out, nil
}

// Get implements Store.
func (s *MemoryStore) Get(_ context.Context, typ string, id int64) (Entry, error) {
	if _, ok := LookupType(typ); !ok {
		return Entry{}, fmt.Errorf("%w: %s", ErrUnknownType, typ)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, e := range s.entries[typ] {
		if e.ID == id {
			return cloneEntry(e), nil
		}
	}
	return Entry{}, ErrNotFound
}

// Create implements Store.
func (s *MemoryStore) Create(_ context.Context, typ string, attrs map[string]any) (Entry, error) {
	ct, ok := LookupType(typ)
	if !ok {
		return Entry{}, fmt.Errorf("%w: %s", ErrUnknownType, typ)
	}
	normalized, err := normalizeAttributes(attrs)
	if err != nil {
		return Entry{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	now := s.now()
	entry := Entry{
		ID:         s.nextID,
		DocumentID: s.newDoc(),
		Type:       typ,
		Attributes: normalized,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if ct.Single {
		s.entries[typ] = []Entry{entry}
	} else {
		s.entries[typ] = append(s.entries[typ], entry)
	}
	return cloneEntry(entry), nil
}

// Reset implements Store.
func (s *MemoryStore) Reset(_ context.Context, typ string) error {
	if _, ok := LookupType(typ); !ok {
		return fmt.Errorf("%w: %s", ErrUnknownType, typ)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, typ)
	return nil
}

func cloneEntry(e Entry) Entry {
	e.Attributes = cloneMap(e.Attributes)
	return e
}

func cloneMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		switch typed := v.(type) {
		case map[string]any:
			out[k] = cloneMap(typed)
		case []any:
			out[k] = cloneSlice(typed)
		default:
			out[k] = v
		}
	}
	return out
}

func cloneSlice(s []any) []any {
	out := make([]any, len(s))
	for i, v := range s {
		switch typed := v.(type) {
		case map[string]any:
			out[i] = cloneMap(typed)
		case []any:
			out[i] = cloneSlice(typed)
		default:
			out[i] = v
		}
	}
	return out
}
