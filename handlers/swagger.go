package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterSwagger registers minimal Swagger/OpenAPI endpoints for the admin API.
// - GET /swagger/index.html  -> a small HTML page that loads the OpenAPI JSON
// - GET /swagger/doc.json    -> machine-readable OpenAPI JSON
func RegisterSwagger(rg *gin.Engine) {
	rg.GET("/swagger/index.html", func(c *gin.Context) {
		c.Header("Content-Type", "text/html; charset=utf-8")
		c.String(http.StatusOK, swaggerHTML)
	})

	rg.GET("/swagger/doc.json", func(c *gin.Context) {
		c.Data(http.StatusOK, "application/json; charset=utf-8", []byte(swaggerJSON))
	})
}

const swaggerHTML = `<!doctype html>
<html>
  <head>
    <meta charset="utf-8" />
    <title>dataharvester schema-init - Swagger</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@4/swagger-ui.css" />
  </head>
  <body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@4/swagger-ui-bundle.js"></script>
    <script>
      window.ui = SwaggerUIBundle({
        url: '/swagger/doc.json',
        dom_id: '#swagger-ui',
      })
    </script>
  </body>
</html>`

const swaggerJSON = `{
  "openapi": "3.0.0",
  "info": { "title": "dataharvester-schema-init", "version": "v0.1.0" },
  "components": { "securitySchemes": { "bearer": { "type": "http", "scheme": "bearer", "bearerFormat": "JWT" } } },
  "paths": {
    "/api/v1/projects": {
      "get": { "summary": "List registered projects", "security": [{"bearer": []}], "responses": { "200": { "description": "projects" } } },
      "post": {
        "summary": "Register a project and create its raw/cleaned/processed collections",
        "security": [{"bearer": []}],
        "requestBody": { "content": { "application/json": { "schema": {"type":"object","required":["name"],"properties":{"name":{"type":"string"}}}}}},
        "responses": { "201": { "description": "registered" }, "400": { "description": "invalid name" }, "409": { "description": "already registered" } }
      }
    },
    "/api/v1/projects/{name}": {
      "get": { "summary": "Get a project", "security": [{"bearer": []}], "responses": { "200": { "description": "project" }, "404": { "description": "not found" } } }
    },
    "/api/v1/projects/{name}/collections": {
      "post": { "summary": "Re-apply collections and indexes for a project", "security": [{"bearer": []}], "responses": { "200": { "description": "collections" }, "404": { "description": "not found" } } }
    },
    "/api/v1/schema": {
      "get": { "summary": "Declared collections and indexes", "security": [{"bearer": []}], "parameters": [{"name":"project","in":"query","schema":{"type":"array","items":{"type":"string"}}}], "responses": { "200": { "description": "plan" } } }
    },
    "/health": { "get": { "summary": "Liveness check", "responses": { "200": { "description": "healthy" } } } },
    "/ready": { "get": { "summary": "Readiness check", "responses": { "200": { "description": "ready" }, "503": { "description": "not ready" } } } },
    "/metrics": { "get": { "summary": "Prometheus metrics", "responses": { "200": { "description": "metrics" } } } }
  }
}`
