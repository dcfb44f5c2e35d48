package schema

import (
	"context"
	"errors"
	"fmt"

	"github.com/dataharvester/dataharvester/backend/go-services/pkg/logger"
	"github.com/dataharvester/dataharvester/backend/go-services/pkg/metrics"
)

var log = logger.Named("schema")

// CollectionResult describes what happened to one collection.
type CollectionResult struct {
	Name    string   `json:"name"`
	Stage   string   `json:"stage"`
	Created bool     `json:"created"`
	Indexes []string `json:"indexes"`
}

// Initializer establishes the baseline schema on a Catalog. It never reads
// or writes documents.
type Initializer struct {
	catalog Catalog
	opts    Options
}

func NewInitializer(c Catalog, opts Options) *Initializer {
	return &Initializer{catalog: c, opts: opts}
}

// Options returns the options the initializer was built with.
func (i *Initializer) Options() Options { return i.opts }

// InitializeBaseSchema creates the projects collection with its unique name
// index and created_at index. Existing duplicate names make the unique index
// build fail; that error is returned as-is.
func (i *Initializer) InitializeBaseSchema(ctx context.Context) ([]CollectionResult, error) {
	specs := BaseCollections(i.opts)
	out := make([]CollectionResult, 0, len(specs))
	for _, s := range specs {
		res, err := i.apply(ctx, s)
		if err != nil {
			return out, fmt.Errorf("initialize base schema: %w", err)
		}
		out = append(out, res)
	}
	return out, nil
}

// CreateProjectCollections creates {project}_raw, {project}_cleaned and
// {project}_processed with their indexes. The name is validated before any
// database call.
func (i *Initializer) CreateProjectCollections(ctx context.Context, project string) ([]CollectionResult, error) {
	specs, err := ProjectCollections(project)
	if err != nil {
		metrics.SchemaErrors.WithLabelValues(errorKind(err)).Inc()
		return nil, err
	}
	out := make([]CollectionResult, 0, len(specs))
	for _, s := range specs {
		res, err := i.apply(ctx, s)
		if err != nil {
			return out, fmt.Errorf("create project collections %q: %w", project, err)
		}
		out = append(out, res)
	}
	log.Infof("project %q ready: %d collections", project, len(out))
	return out, nil
}

func (i *Initializer) apply(ctx context.Context, s CollectionSpec) (CollectionResult, error) {
	res := CollectionResult{Name: s.Name, Stage: s.Stage}
	created, err := i.ensureCollection(ctx, s.Name)
	if err != nil {
		metrics.SchemaErrors.WithLabelValues(errorKind(err)).Inc()
		return res, err
	}
	res.Created = created
	if created {
		metrics.CollectionsCreated.WithLabelValues(s.Stage).Inc()
	}
	names, err := i.catalog.EnsureIndexes(ctx, s.Name, s.Indexes)
	res.Indexes = names
	if err != nil {
		metrics.SchemaErrors.WithLabelValues(errorKind(err)).Inc()
		log.Errorf("index build failed on %s: %v", s.Name, err)
		return res, err
	}
	metrics.IndexesEnsured.WithLabelValues(s.Stage).Add(float64(len(names)))
	log.Debugf("collection %s: created=%v indexes=%v", s.Name, created, names)
	return res, nil
}

// ensureCollection is check-then-create; an "already exists" reply from a
// concurrent creator is treated as success.
func (i *Initializer) ensureCollection(ctx context.Context, name string) (bool, error) {
	exists, err := i.catalog.CollectionExists(ctx, name)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}
	if err := i.catalog.CreateCollection(ctx, name); err != nil {
		if errors.Is(err, ErrCollectionExists) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
