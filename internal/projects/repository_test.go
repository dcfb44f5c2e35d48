package projects

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dataharvester/dataharvester/backend/go-services/internal/database"
	"github.com/dataharvester/dataharvester/backend/go-services/internal/schema"
)

// Runs against a live server only when MONGODB_TEST_URI is set.
func TestMongoRepository_Integration(t *testing.T) {
	uri := os.Getenv("MONGODB_TEST_URI")
	if uri == "" {
		t.Skip("MONGODB_TEST_URI not set")
	}
	ctx := context.Background()
	dbName := fmt.Sprintf("projects_repo_test_%d", time.Now().UnixNano())
	db, closeFn, err := database.OpenDatabase(ctx, uri, dbName, 10*time.Second)
	require.NoError(t, err)
	defer closeFn()
	defer func() { _ = db.Drop(ctx) }()

	_, err = schema.NewInitializer(schema.NewMongoCatalog(db), schema.Options{}).InitializeBaseSchema(ctx)
	require.NoError(t, err)

	repo := NewMongoRepository(db.Collection(schema.ProjectsCollection))
	first := &Project{Name: "acme", Collections: []string{"acme_raw", "acme_cleaned", "acme_processed"}}
	require.NoError(t, repo.Create(ctx, first))
	require.False(t, first.ID.IsZero())

	err = repo.Create(ctx, &Project{Name: "acme"})
	require.ErrorIs(t, err, ErrProjectExists)

	require.NoError(t, repo.Create(ctx, &Project{Name: "globex"}))

	got, err := repo.GetByName(ctx, "acme")
	require.NoError(t, err)
	require.Equal(t, first.ID, got.ID)
	require.Equal(t, first.Collections, got.Collections)

	_, err = repo.GetByName(ctx, "ghost")
	require.ErrorIs(t, err, ErrNotFound)

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, "acme", list[0].Name)
	require.Equal(t, "globex", list[1].Name)
}
