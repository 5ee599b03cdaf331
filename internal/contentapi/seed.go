package contentapi

import (
	"context"
	"fmt"
	"os"
	"sort"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Seed maps a content type name to a single attribute bag or a list of them.
type Seed map[string]any

// LoadSeed reads a YAML seed file.
func LoadSeed(path string) (Seed, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("contentapi: read seed %s: %w", path, err)
	}
	// yaml.v3 reuses a named map type for nested mappings, so decode into a
	// plain map and convert only the top level.
	var doc map[string]any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("contentapi: parse seed %s: %w", path, err)
	}
	seed := Seed(doc)
	if err := seed.validate(); err != nil {
		return nil, fmt.Errorf("contentapi: seed %s: %w", path, err)
	}
	return seed, nil
}

func (s Seed) validate() error {
	for name, value := range s {
		ct, ok := LookupType(name)
		if !ok || !ct.Public {
			return fmt.Errorf("%w: %s", ErrUnknownType, name)
		}
		if _, err := seedEntries(ct, value); err != nil {
			return err
		}
	}
	return nil
}

// Apply replaces the stored content of every type present in the seed.
// Types absent from the seed are left untouched.
func (s Seed) Apply(ctx context.Context, store Store, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		ct, ok := LookupType(name)
		if !ok || !ct.Public {
			return fmt.Errorf("%w: %s", ErrUnknownType, name)
		}
		entries, err := seedEntries(ct, s[name])
		if err != nil {
			return err
		}
		if err := store.Reset(ctx, name); err != nil {
			return err
		}
		for _, attrs := range entries {
			if _, err := store.Create(ctx, name, attrs); err != nil {
				return err
			}
		}
		logger.Debug("seeded content type", zap.String("type", name), zap.Int("entries", len(entries)))
	}
	return nil
}

func seedEntries(ct ContentType, value any) ([]map[string]any, error) {
	if attrs, ok := attributeBag(value); ok {
		if !ct.Single {
			return nil, fmt.Errorf("%s is a collection and needs a list", ct.Name)
		}
		return []map[string]any{attrs}, nil
	}
	switch typed := value.(type) {
	case nil:
		return nil, nil
	case []any:
		if ct.Single {
			return nil, fmt.Errorf("%s is a single type and needs a mapping", ct.Name)
		}
		out := make([]map[string]any, 0, len(typed))
		for i, item := range typed {
			attrs, ok := attributeBag(item)
			if !ok {
				return nil, fmt.Errorf("%s[%d] is not a mapping", ct.Name, i)
			}
			out = append(out, attrs)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%s has unsupported value %T", ct.Name, value)
	}
}

// attributeBag accepts a decoded mapping whether or not it carries the Seed
// type, as happens when a Seed is built in code.
func attributeBag(value any) (map[string]any, bool) {
	switch typed := value.(type) {
	case map[string]any:
		return typed, true
	case Seed:
		return map[string]any(typed), true
	}
	return nil, false
}
