package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dataharvester/dataharvester/backend/go-services/internal/projects"
	"github.com/dataharvester/dataharvester/backend/go-services/internal/schema"
	"github.com/dataharvester/dataharvester/backend/go-services/pkg/logger"
)

// ProjectService is what the project routes need from projects.Service.
type ProjectService interface {
	Register(ctx context.Context, name string) (*projects.Project, []schema.CollectionResult, error)
	Provision(ctx context.Context, name string) ([]schema.CollectionResult, error)
	Get(ctx context.Context, name string) (*projects.Project, error)
	List(ctx context.Context) ([]*projects.Project, error)
}

// RegisterProjectRoutes mounts the project administration API on rg.
func RegisterProjectRoutes(rg *gin.RouterGroup, svc ProjectService, opts schema.Options) {
	rg.GET("/projects", func(c *gin.Context) {
		list, err := svc.List(c.Request.Context())
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, list)
	})

	rg.POST("/projects", func(c *gin.Context) {
		var req struct {
			Name string `json:"name" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		p, results, err := svc.Register(c.Request.Context(), req.Name)
		if err != nil {
			writeError(c, err)
			return
		}
		logger.Infof("project %q registered by %s", p.Name, c.GetString("subject"))
		c.JSON(http.StatusCreated, gin.H{"project": p, "collections": results})
	})

	rg.GET("/projects/:name", func(c *gin.Context) {
		p, err := svc.Get(c.Request.Context(), c.Param("name"))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, p)
	})

	rg.POST("/projects/:name/collections", func(c *gin.Context) {
		results, err := svc.Provision(c.Request.Context(), c.Param("name"))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"collections": results})
	})

	rg.GET("/schema", func(c *gin.Context) {
		specs, err := schema.Plan(c.QueryArray("project"), opts)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"collections": specs})
	})
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, schema.ErrInvalidProjectName):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, projects.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, projects.ErrProjectExists), schema.IsDuplicateKey(err):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		logger.Errorf("%s %s: %v", c.Request.Method, c.FullPath(), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
