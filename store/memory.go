package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Memory keeps documents in process memory. Contents are lost on exit.
type Memory struct {
	mu          sync.RWMutex
	collections map[string]*memCollection
}

type memCollection struct {
	uniqueField string
	keys        map[string]struct{}
	docs        []*encoded
}

func NewMemory() *Memory {
	return &Memory{collections: make(map[string]*memCollection)}
}

func (m *Memory) Available() bool { return true }

func (m *Memory) collection(name string) *memCollection {
	c, ok := m.collections[name]
	if !ok {
		c = &memCollection{keys: make(map[string]struct{})}
		m.collections[name] = c
	}
	return c
}

func (m *Memory) InsertOne(ctx context.Context, collection string, doc any) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", unavailable("insert", err)
	}

	enc, err := encode(doc)
	if err != nil {
		return "", err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	c := m.collection(collection)
	for _, d := range c.docs {
		if d.id == enc.id {
			return "", fmt.Errorf("store: insert into %s: %w", collection, ErrDuplicate)
		}
	}
	if key := enc.uniqueKey(c.uniqueField); key != nil {
		if _, taken := c.keys[*key]; taken {
			return "", fmt.Errorf("store: insert into %s: %w", collection, ErrDuplicate)
		}
		c.keys[*key] = struct{}{}
	}
	c.docs = append(c.docs, enc)

	return enc.id.Hex(), nil
}

func (m *Memory) FindOne(ctx context.Context, collection string, filter Filter, out any) error {
	if err := ctx.Err(); err != nil {
		return unavailable("find", err)
	}

	f, err := normalizeFilter(filter)
	if err != nil {
		return err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	c, ok := m.collections[collection]
	if !ok {
		return ErrNotFound
	}
	for _, d := range c.docs {
		ok, err := matches(d.body, f)
		if err != nil {
			return err
		}
		if ok {
			return decode(d.body, out)
		}
	}
	return ErrNotFound
}

func (m *Memory) ListCollections(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, unavailable("list collections", err)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, 0, len(m.collections))
	for name := range m.collections {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (m *Memory) EnsureUniqueIndex(ctx context.Context, collection, field string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	c := m.collection(collection)
	if c.uniqueField == field {
		return nil
	}
	if c.uniqueField != "" {
		return fmt.Errorf("store: %s already unique on %q", collection, c.uniqueField)
	}

	keys := make(map[string]struct{}, len(c.docs))
	for _, d := range c.docs {
		if key := d.uniqueKey(field); key != nil {
			if _, taken := keys[*key]; taken {
				return fmt.Errorf("store: index %s.%s: %w", collection, field, ErrDuplicate)
			}
			keys[*key] = struct{}{}
		}
	}
	c.uniqueField, c.keys = field, keys
	return nil
}

func (m *Memory) Close(context.Context) error { return nil }
