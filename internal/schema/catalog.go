package schema

import "context"

// IndexInfo is an index as reported by a catalog.
type IndexInfo struct {
	Name string
	Spec IndexSpec
}

// Catalog is the structural surface of a database: collections and indexes.
// Implementations must be safe to call repeatedly with the same definitions.
type Catalog interface {
	CollectionExists(ctx context.Context, name string) (bool, error)
	// CreateCollection returns an error wrapping ErrCollectionExists when the
	// collection is already present.
	CreateCollection(ctx context.Context, name string) error
	// EnsureIndexes creates the given indexes, returning their names in order.
	EnsureIndexes(ctx context.Context, collection string, specs []IndexSpec) ([]string, error)
	ListIndexes(ctx context.Context, collection string) ([]IndexInfo, error)
	ListCollections(ctx context.Context) ([]string, error)
	Ping(ctx context.Context) error
}
