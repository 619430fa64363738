package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const openapiJSON = `{
  "openapi": "3.0.3",
  "info": {"title": "Portal Vitalício API", "version": "1.0.0"},
  "servers": [{"url": "/"}],
  "tags": [
    {"name": "auth", "description": "Session"},
    {"name": "materials", "description": "Catalog"},
    {"name": "settings", "description": "Hero settings and uploads"},
    {"name": "system", "description": "Sync status and notifications"}
  ],
  "security": [{"bearerAuth": []}],
  "components": {
    "securitySchemes": {
      "bearerAuth": {"type": "http", "scheme": "bearer", "bearerFormat": "JWT"}
    },
    "schemas": {
      "Error": {"type": "object", "properties": {"error": {"type": "string"}, "kind": {"type": "string"}}},
      "Credentials": {"type": "object", "required": ["email", "password"], "properties": {"email": {"type": "string"}, "password": {"type": "string"}, "name": {"type": "string"}}},
      "AuthResponse": {"type": "object", "properties": {"user": {"$ref": "#/components/schemas/User"}, "token": {"type": "string", "description": "Send as Authorization: Bearer <token>"}}},
      "User": {"type": "object", "properties": {"id": {"type": "string"}, "name": {"type": "string"}, "email": {"type": "string"}, "isAdmin": {"type": "boolean"}}},
      "MaterialDraft": {"type": "object", "required": ["title"], "properties": {"title": {"type": "string"}, "type": {"type": "string", "enum": ["curso", "ebook"]}, "category": {"type": "string"}, "description": {"type": "string"}, "imageUrl": {"type": "string"}, "videoUrl": {"type": "string"}}},
      "Comment": {"type": "object", "properties": {"id": {"type": "string"}, "userName": {"type": "string"}, "text": {"type": "string"}, "createdAt": {"type": "string", "format": "date-time"}}},
      "Material": {"allOf": [{"$ref": "#/components/schemas/MaterialDraft"}, {"type": "object", "properties": {"id": {"type": "string"}, "views": {"type": "integer"}, "gradient": {"type": "string"}, "readBy": {"type": "array", "items": {"type": "string"}}, "comments": {"type": "array", "items": {"$ref": "#/components/schemas/Comment"}}}}]},
      "Settings": {"type": "object", "properties": {"heroTitle": {"type": "string"}, "heroSubtitle": {"type": "string"}, "heroImageUrl": {"type": "string"}, "heroButtonText": {"type": "string"}, "heroButtonLink": {"type": "string"}}}
    }
  },
  "paths": {
    "/api/auth/login": {"post": {"tags": ["auth"], "summary": "Sign in", "security": [], "requestBody": {"content": {"application/json": {"schema": {"$ref": "#/components/schemas/Credentials"}}}}, "responses": {"200": {"description": "Signed in", "content": {"application/json": {"schema": {"$ref": "#/components/schemas/AuthResponse"}}}}, "401": {"description": "Bad credentials"}}}},
    "/api/auth/register": {"post": {"tags": ["auth"], "summary": "Create an account and sign in", "security": [], "requestBody": {"content": {"application/json": {"schema": {"$ref": "#/components/schemas/Credentials"}}}}, "responses": {"200": {"description": "Registered", "content": {"application/json": {"schema": {"$ref": "#/components/schemas/AuthResponse"}}}}, "401": {"description": "Email already in use"}}}},
    "/api/auth/logout": {"post": {"tags": ["auth"], "summary": "Sign out and revoke the token", "responses": {"200": {"description": "Signed out"}, "401": {"description": "Missing or invalid token"}}}},
    "/api/auth/session": {"get": {"tags": ["auth"], "summary": "User behind the bearer token", "security": [{}, {"bearerAuth": []}], "responses": {"200": {"description": "User or null"}}}},
    "/api/materials": {
      "get": {"tags": ["materials"], "summary": "Filtered catalog", "parameters": [{"name": "search", "in": "query", "schema": {"type": "string"}}, {"name": "category", "in": "query", "schema": {"type": "string", "default": "Todos"}}, {"name": "tab", "in": "query", "schema": {"type": "string", "default": "todos"}}], "responses": {"200": {"description": "Visible materials"}}},
      "post": {"tags": ["materials"], "summary": "Publish a material (admin)", "requestBody": {"content": {"application/json": {"schema": {"$ref": "#/components/schemas/MaterialDraft"}}}}, "responses": {"201": {"description": "Created"}, "400": {"description": "Missing title"}}}
    },
    "/api/materials/{id}": {
      "get": {"tags": ["materials"], "summary": "One material", "parameters": [{"name": "id", "in": "path", "required": true, "schema": {"type": "string"}}], "responses": {"200": {"description": "Material"}, "404": {"description": "Not found"}}},
      "put": {"tags": ["materials"], "summary": "Update a material (admin)", "parameters": [{"name": "id", "in": "path", "required": true, "schema": {"type": "string"}}], "responses": {"200": {"description": "Updated"}}},
      "delete": {"tags": ["materials"], "summary": "Delete a material (admin)", "parameters": [{"name": "id", "in": "path", "required": true, "schema": {"type": "string"}}, {"name": "confirm", "in": "query", "required": true, "schema": {"type": "boolean"}}], "responses": {"200": {"description": "Deleted"}, "428": {"description": "Not confirmed"}}}
    },
    "/api/materials/{id}/view": {"post": {"tags": ["materials"], "summary": "Count a view", "parameters": [{"name": "id", "in": "path", "required": true, "schema": {"type": "string"}}], "responses": {"202": {"description": "Counted locally"}}}},
    "/api/materials/{id}/read": {"post": {"tags": ["materials"], "summary": "Mark as read", "parameters": [{"name": "id", "in": "path", "required": true, "schema": {"type": "string"}}], "responses": {"200": {"description": "Marked"}}}},
    "/api/materials/{id}/comments": {"post": {"tags": ["materials"], "summary": "Comment", "parameters": [{"name": "id", "in": "path", "required": true, "schema": {"type": "string"}}], "responses": {"201": {"description": "Comment thread"}, "400": {"description": "Blank text"}}}},
    "/api/settings": {
      "get": {"tags": ["settings"], "summary": "Hero settings", "responses": {"200": {"description": "Settings"}}},
      "put": {"tags": ["settings"], "summary": "Save hero settings (admin)", "requestBody": {"content": {"application/json": {"schema": {"$ref": "#/components/schemas/Settings"}}}}, "responses": {"200": {"description": "Saved"}}}
    },
    "/api/uploads": {"post": {"tags": ["settings"], "summary": "Upload a cover or hero image (admin)", "parameters": [{"name": "target", "in": "query", "schema": {"type": "string", "enum": ["material", "settings"]}}], "requestBody": {"content": {"multipart/form-data": {"schema": {"type": "object", "properties": {"file": {"type": "string", "format": "binary"}}}}}}, "responses": {"201": {"description": "Public URL"}, "403": {"description": "Storage policy rejected the upload"}, "413": {"description": "File larger than the limit"}}}},
    "/api/notifications": {"get": {"tags": ["system"], "summary": "Live toasts", "responses": {"200": {"description": "Toasts in push order"}}}},
    "/api/status": {"get": {"tags": ["system"], "summary": "Store sync status", "responses": {"200": {"description": "Status"}}}},
    "/api/refresh": {"post": {"tags": ["system"], "summary": "Refresh catalog and settings", "responses": {"200": {"description": "Refreshed"}, "503": {"description": "Catalog unavailable"}}}}
  }
}`

// RegisterDocs serves the API description at /openapi.json and a Swagger UI
// page at /docs.
func RegisterDocs(r *gin.Engine) {
	r.GET("/", func(c *gin.Context) { c.Redirect(http.StatusFound, "/docs") })
	r.GET("/openapi.json", func(c *gin.Context) {
		c.Data(http.StatusOK, "application/json; charset=utf-8", []byte(openapiJSON))
	})
	r.GET("/docs", func(c *gin.Context) {
		c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(swaggerHTML))
	})
}

const swaggerHTML = `<!doctype html>
<html>
<head>
  <meta charset="utf-8"/>
  <title>Portal Vitalício API</title>
  <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css" />
</head>
<body style="margin:0">
  <div id="swagger-ui"></div>
  <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js" crossorigin></script>
  <script>
    window.ui = SwaggerUIBundle({url: '/openapi.json', dom_id: '#swagger-ui'});
  </script>
</body>
</html>`
