package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dataharvester/dataharvester/backend/go-services/internal/projects"
	"github.com/dataharvester/dataharvester/backend/go-services/internal/schema"
)

func newProjectRouter(t *testing.T) (*gin.Engine, *schema.MemoryCatalog) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	cat := schema.NewMemoryCatalog()
	ini := schema.NewInitializer(cat, schema.Options{})
	_, err := ini.InitializeBaseSchema(context.Background())
	require.NoError(t, err)

	g := gin.New()
	RegisterProjectRoutes(g.Group("/api/v1"), projects.NewService(projects.NewMemoryRepository(), ini), ini.Options())
	return g, cat
}

func do(g *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	g.ServeHTTP(w, req)
	return w
}

func TestProjectRoutes_Lifecycle(t *testing.T) {
	g, cat := newProjectRouter(t)

	w := do(g, http.MethodPost, "/api/v1/projects", `{"name":"acme"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created struct {
		Project     projects.Project          `json:"project"`
		Collections []schema.CollectionResult `json:"collections"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, "acme", created.Project.Name)
	require.Len(t, created.Collections, 3)
	assert.True(t, created.Collections[0].Created)

	cols, err := cat.ListCollections(context.Background())
	require.NoError(t, err)
	assert.Contains(t, cols, "acme_raw")

	w = do(g, http.MethodPost, "/api/v1/projects", `{"name":"acme"}`)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = do(g, http.MethodGet, "/api/v1/projects/acme", "")
	require.Equal(t, http.StatusOK, w.Code)
	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "acme", got["name"])

	w = do(g, http.MethodGet, "/api/v1/projects", "")
	require.Equal(t, http.StatusOK, w.Code)
	var list []map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Len(t, list, 1)

	w = do(g, http.MethodPost, "/api/v1/projects/acme/collections", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"created":false`)
}

func TestProjectRoutes_Errors(t *testing.T) {
	g, _ := newProjectRouter(t)

	assert.Equal(t, http.StatusBadRequest, do(g, http.MethodPost, "/api/v1/projects", `{}`).Code)
	assert.Equal(t, http.StatusBadRequest, do(g, http.MethodPost, "/api/v1/projects", `{"name":"bad name"}`).Code)
	assert.Equal(t, http.StatusNotFound, do(g, http.MethodGet, "/api/v1/projects/ghost", "").Code)
	assert.Equal(t, http.StatusNotFound, do(g, http.MethodPost, "/api/v1/projects/ghost/collections", "").Code)
}

func TestSchemaPlanRoute(t *testing.T) {
	g, _ := newProjectRouter(t)

	w := do(g, http.MethodGet, "/api/v1/schema?project=acme&project=globex", "")
	require.Equal(t, http.StatusOK, w.Code)
	var plan struct {
		Collections []schema.CollectionSpec `json:"collections"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &plan))
	require.Len(t, plan.Collections, 7)
	assert.Equal(t, "acme_raw", plan.Collections[1].Name)

	assert.Equal(t, http.StatusBadRequest, do(g, http.MethodGet, "/api/v1/schema?project=%24bad", "").Code)
}

type brokenService struct{ ProjectService }

func (brokenService) List(context.Context) ([]*projects.Project, error) {
	return nil, errors.New("socket closed")
}

func TestProjectRoutes_InternalError(t *testing.T) {
	g := gin.New()
	RegisterProjectRoutes(g.Group("/api/v1"), brokenService{}, schema.Options{})
	w := do(g, http.MethodGet, "/api/v1/projects", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "socket closed")
}

type pingFunc func(context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestHealthRoutes(t *testing.T) {
	var down bool
	g := gin.New()
	RegisterHealthRoutes(g, pingFunc(func(context.Context) error {
		if down {
			return errors.New("no reachable servers")
		}
		return nil
	}), time.Now())

	assert.Equal(t, http.StatusOK, do(g, http.MethodGet, "/health", "").Code)
	assert.Equal(t, http.StatusOK, do(g, http.MethodGet, "/ready", "").Code)
	down = true
	w := do(g, http.MethodGet, "/ready", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "not_ready")
}
