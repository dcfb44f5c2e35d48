package schema

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

const idIndexName = "_id_"

type memCollection struct {
	indexes []IndexInfo
	docs    []map[string]interface{}
}

func newMemCollection() *memCollection {
	return &memCollection{indexes: []IndexInfo{{Name: idIndexName, Spec: IndexSpec{Field: "_id", Unique: true}}}}
}

func (c *memCollection) index(name string) (IndexInfo, bool) {
	for _, ix := range c.indexes {
		if ix.Name == name {
			return ix, true
		}
	}
	return IndexInfo{}, false
}

// MemoryCatalog is an in-memory Catalog used for tests and dry runs. It
// mirrors the server behaviour that matters here: the implicit _id index,
// idempotent index creation and unique constraint enforcement.
type MemoryCatalog struct {
	mu          sync.RWMutex
	collections map[string]*memCollection
}

func NewMemoryCatalog() *MemoryCatalog {
	return &MemoryCatalog{collections: make(map[string]*memCollection)}
}

func (m *MemoryCatalog) CollectionExists(_ context.Context, name string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.collections[name]
	return ok, nil
}

func (m *MemoryCatalog) CreateCollection(_ context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.collections[name]; ok {
		return fmt.Errorf("%s: %w", name, ErrCollectionExists)
	}
	m.collections[name] = newMemCollection()
	return nil
}

func (m *MemoryCatalog) EnsureIndexes(_ context.Context, collection string, specs []IndexSpec) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	col, ok := m.collections[collection]
	if !ok {
		// the server creates the collection implicitly on first index build
		col = newMemCollection()
		m.collections[collection] = col
	}
	names := make([]string, 0, len(specs))
	for _, s := range specs {
		if existing, ok := col.index(s.Name()); ok {
			if !existing.Spec.Equivalent(s) {
				return names, &IndexError{Collection: collection, Index: s.Name(), Err: ErrIndexConflict}
			}
			names = append(names, s.Name())
			continue
		}
		if s.Unique {
			if v, dup := firstDuplicate(col.docs, s.Field); dup {
				return names, &IndexError{
					Collection: collection,
					Index:      s.Name(),
					Err:        fmt.Errorf("%w: %s=%v", ErrDuplicateKey, s.Field, v),
				}
			}
		}
		col.indexes = append(col.indexes, IndexInfo{Name: s.Name(), Spec: s})
		names = append(names, s.Name())
	}
	return names, nil
}

func (m *MemoryCatalog) ListIndexes(_ context.Context, collection string) ([]IndexInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	col, ok := m.collections[collection]
	if !ok {
		return nil, fmt.Errorf("list indexes: collection %s not found", collection)
	}
	out := make([]IndexInfo, len(col.indexes))
	copy(out, col.indexes)
	return out, nil
}

func (m *MemoryCatalog) ListCollections(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.collections))
	for name := range m.collections {
		out = append(out, name)
	}
	sort.Strings(out)
	return out, nil
}

func (m *MemoryCatalog) Ping(context.Context) error { return nil }

// Insert stores doc in collection, enforcing every unique index. A missing
// field counts as null, as it does on the server.
func (m *MemoryCatalog) Insert(_ context.Context, collection string, doc map[string]interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	col, ok := m.collections[collection]
	if !ok {
		col = newMemCollection()
		m.collections[collection] = col
	}
	for _, ix := range col.indexes {
		if !ix.Spec.Unique || ix.Name == idIndexName {
			continue
		}
		want := keyOf(doc[ix.Spec.Field])
		for _, existing := range col.docs {
			if keyOf(existing[ix.Spec.Field]) == want {
				return fmt.Errorf("insert into %s: %w: index %s %s=%v", collection, ErrDuplicateKey, ix.Name, ix.Spec.Field, doc[ix.Spec.Field])
			}
		}
	}
	cp := make(map[string]interface{}, len(doc))
	for k, v := range doc {
		cp[k] = v
	}
	col.docs = append(col.docs, cp)
	return nil
}

// Count returns the number of documents stored in collection.
func (m *MemoryCatalog) Count(collection string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if col, ok := m.collections[collection]; ok {
		return len(col.docs)
	}
	return 0
}

func keyOf(v interface{}) string {
	return fmt.Sprintf("%T:%v", v, v)
}

func firstDuplicate(docs []map[string]interface{}, field string) (interface{}, bool) {
	seen := make(map[string]struct{}, len(docs))
	for _, d := range docs {
		k := keyOf(d[field])
		if _, ok := seen[k]; ok {
			return d[field], true
		}
		seen[k] = struct{}{}
	}
	return nil, false
}
