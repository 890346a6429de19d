package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterSwagger registers minimal Swagger/OpenAPI endpoints for the SIRET API.
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
    <title>SIRET API — Swagger</title>
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
  "info": { "title": "siret-api", "version": "v1.0.0" },
  "components": {
    "schemas": {
      "Message": { "type": "object", "properties": { "message": { "type": "string" } } },
      "Record": { "type": "object", "required": ["siret"], "properties": { "_id": { "type": "string" }, "siret": { "type": "integer" } }, "additionalProperties": true },
      "AuditEntry": { "type": "object", "properties": { "id": { "type": "string" }, "action": { "type": "string", "enum": ["GET", "POST", "PUT", "DELETE"] }, "siret": {}, "timestamp": { "type": "string", "format": "date-time" } } }
    },
    "parameters": {
      "SiretID": { "name": "siret_id", "in": "path", "required": true, "schema": { "type": "string" }, "description": "base-10 integer" }
    }
  },
  "paths": {
    "/siret": {
      "get": { "summary": "List every record (not audited)", "responses": { "200": { "description": "records", "content": { "application/json": { "schema": { "type": "array", "items": { "$ref": "#/components/schemas/Record" } } } } } } },
      "post": {
        "summary": "Create a record",
        "requestBody": { "content": { "application/json": { "schema": { "$ref": "#/components/schemas/Record" } } } },
        "responses": { "201": { "description": "created" }, "400": { "description": "siret missing or body not a JSON object" } }
      }
    },
    "/siret/{siret_id}": {
      "parameters": [ { "$ref": "#/components/parameters/SiretID" } ],
      "get": { "summary": "Read one record", "responses": { "200": { "description": "record" }, "400": { "description": "invalid siret" }, "404": { "description": "not found" } } },
      "put": {
        "summary": "Merge fields into a record",
        "requestBody": { "content": { "application/json": { "schema": { "type": "object", "additionalProperties": true } } } },
        "responses": { "200": { "description": "updated" }, "400": { "description": "invalid siret or body" }, "404": { "description": "not found" } }
      },
      "delete": { "summary": "Delete a record", "responses": { "200": { "description": "deleted" }, "400": { "description": "invalid siret" }, "404": { "description": "not found" } } }
    },
    "/siret/{siret_id}/audit": {
      "parameters": [ { "$ref": "#/components/parameters/SiretID" } ],
      "get": { "summary": "Audit entries for a siret", "responses": { "200": { "description": "entries", "content": { "application/json": { "schema": { "type": "array", "items": { "$ref": "#/components/schemas/AuditEntry" } } } } }, "400": { "description": "invalid siret" } } }
    },
    "/health": { "get": { "summary": "Liveness check", "responses": { "200": { "description": "healthy" } } } },
    "/ready": { "get": { "summary": "Readiness check", "responses": { "200": { "description": "ready" }, "503": { "description": "not ready" } } } },
    "/metrics": { "get": { "summary": "Prometheus metrics", "responses": { "200": { "description": "metrics" } } } }
  }
}`
