package projects

import (
	"context"

	"github.com/dataharvester/dataharvester/backend/go-services/internal/schema"
	"github.com/dataharvester/dataharvester/backend/go-services/pkg/metrics"
)

// Provisioner creates the per-project collection triple.
type Provisioner interface {
	CreateProjectCollections(ctx context.Context, project string) ([]schema.CollectionResult, error)
}

// Service registers project namespaces: it provisions their collections and
// records them in the projects collection.
type Service struct {
	repo        Repository
	provisioner Provisioner
}

func NewService(r Repository, p Provisioner) *Service {
	return &Service{repo: r, provisioner: p}
}

// Register provisions the collections for name and stores the project
// document. Provisioning runs first and is idempotent, so registering an
// existing name leaves the schema intact and returns ErrProjectExists.
func (s *Service) Register(ctx context.Context, name string) (*Project, []schema.CollectionResult, error) {
	if err := schema.ValidateProjectName(name); err != nil {
		return nil, nil, err
	}
	results, err := s.provisioner.CreateProjectCollections(ctx, name)
	if err != nil {
		return nil, results, err
	}
	p := &Project{Name: name, Collections: collectionNames(results)}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, results, err
	}
	metrics.ProjectsRegistered.Inc()
	return p, results, nil
}

// Provision re-applies the collection triple of an already registered project.
func (s *Service) Provision(ctx context.Context, name string) ([]schema.CollectionResult, error) {
	if _, err := s.repo.GetByName(ctx, name); err != nil {
		return nil, err
	}
	return s.provisioner.CreateProjectCollections(ctx, name)
}

func (s *Service) Get(ctx context.Context, name string) (*Project, error) {
	return s.repo.GetByName(ctx, name)
}

func (s *Service) List(ctx context.Context) ([]*Project, error) {
	return s.repo.List(ctx)
}

func collectionNames(results []schema.CollectionResult) []string {
	out := make([]string, 0, len(results))
	for _, r := range results {
		out = append(out, r.Name)
	}
	return out
}
