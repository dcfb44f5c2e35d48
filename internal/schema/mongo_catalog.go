package schema

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// server error codes
const (
	codeNamespaceExists       = 48
	codeIndexOptionsConflict  = 85
	codeIndexKeySpecsConflict = 86
)

// MongoCatalog implements Catalog on a MongoDB database.
type MongoCatalog struct {
	db *mongo.Database
}

func NewMongoCatalog(db *mongo.Database) *MongoCatalog {
	return &MongoCatalog{db: db}
}

// Database returns the underlying database handle.
func (m *MongoCatalog) Database() *mongo.Database { return m.db }

func (m *MongoCatalog) CollectionExists(ctx context.Context, name string) (bool, error) {
	names, err := m.db.ListCollectionNames(ctx, bson.D{{Key: "name", Value: name}})
	if err != nil {
		return false, fmt.Errorf("list collections: %w", err)
	}
	return len(names) > 0, nil
}

func (m *MongoCatalog) CreateCollection(ctx context.Context, name string) error {
	err := m.db.CreateCollection(ctx, name)
	if err == nil {
		return nil
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && ce.Code == codeNamespaceExists {
		return fmt.Errorf("%s: %w", name, ErrCollectionExists)
	}
	return fmt.Errorf("create collection %s: %w", name, err)
}

func (m *MongoCatalog) EnsureIndexes(ctx context.Context, collection string, specs []IndexSpec) ([]string, error) {
	col := m.db.Collection(collection)
	names := make([]string, 0, len(specs))
	for _, s := range specs {
		opts := options.Index().SetName(s.Name())
		if s.Unique {
			opts.SetUnique(true)
		}
		if s.ExpireAfter > 0 {
			opts.SetExpireAfterSeconds(int32(s.ExpireAfter / time.Second))
		}
		model := mongo.IndexModel{Keys: bson.D{{Key: s.Field, Value: 1}}, Options: opts}
		name, err := col.Indexes().CreateOne(ctx, model)
		if err != nil {
			var ce mongo.CommandError
			if errors.As(err, &ce) && (ce.Code == codeIndexOptionsConflict || ce.Code == codeIndexKeySpecsConflict) {
				err = fmt.Errorf("%w: %v", ErrIndexConflict, err)
			}
			return names, &IndexError{Collection: collection, Index: s.Name(), Err: err}
		}
		names = append(names, name)
	}
	return names, nil
}

func (m *MongoCatalog) ListIndexes(ctx context.Context, collection string) ([]IndexInfo, error) {
	specs, err := m.db.Collection(collection).Indexes().ListSpecifications(ctx)
	if err != nil {
		return nil, fmt.Errorf("list indexes on %s: %w", collection, err)
	}
	out := make([]IndexInfo, 0, len(specs))
	for _, s := range specs {
		info := IndexInfo{Name: s.Name}
		elems, err := s.KeysDocument.Elements()
		if err != nil {
			return nil, fmt.Errorf("decode index keys %s: %w", s.Name, err)
		}
		if len(elems) > 0 {
			info.Spec.Field = elems[0].Key()
		}
		if s.Unique != nil {
			info.Spec.Unique = *s.Unique
		}
		if s.ExpireAfterSeconds != nil {
			info.Spec.ExpireAfter = time.Duration(*s.ExpireAfterSeconds) * time.Second
		}
		out = append(out, info)
	}
	return out, nil
}

func (m *MongoCatalog) ListCollections(ctx context.Context) ([]string, error) {
	names, err := m.db.ListCollectionNames(ctx, bson.D{})
	if err != nil {
		return nil, fmt.Errorf("list collections: %w", err)
	}
	sort.Strings(names)
	return names, nil
}

func (m *MongoCatalog) Ping(ctx context.Context) error {
	return m.db.Client().Ping(ctx, nil)
}
