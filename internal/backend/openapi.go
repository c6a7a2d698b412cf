package backend

import (
	"fmt"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/morezero/course-recommender/pkg/db"
)

// openAPI3 types for describing the operations served by the API.
type openAPI3Spec struct {
	OpenAPI string                      `json:"openapi"`
	Info    openAPI3Info                `json:"info"`
	Paths   map[string]openAPI3PathItem `json:"paths"`
}

type openAPI3Info struct {
	Title   string `json:"title"`
	Version string `json:"version"`
}

type openAPI3PathItem struct {
	Get *openAPI3Operation `json:"get,omitempty"`
}

type openAPI3Operation struct {
	OperationID string                      `json:"operationId"`
	Summary     string                      `json:"summary"`
	Parameters  []openAPI3Parameter         `json:"parameters"`
	Responses   map[string]openAPI3Response `json:"responses"`
}

type openAPI3Parameter struct {
	Name     string                 `json:"name"`
	In       string                 `json:"in"`
	Required bool                   `json:"required"`
	Schema   map[string]interface{} `json:"schema"`
}

type openAPI3Response struct {
	Description string `json:"description"`
}

// buildOpenAPISpec describes one GET path per procedure.
func buildOpenAPISpec(procs []db.Procedure, version string) *openAPI3Spec {
	paths := make(map[string]openAPI3PathItem, len(procs))
	for _, p := range procs {
		params := make([]openAPI3Parameter, len(p.Params))
		for i, pp := range p.Params {
			params[i] = openAPI3Parameter{
				Name:     pp.Name,
				In:       "query",
				Required: true,
				Schema:   map[string]interface{}{"type": schemaType(pp.Kind)},
			}
		}
		paths["/"+p.Operation] = openAPI3PathItem{
			Get: &openAPI3Operation{
				OperationID: p.Operation,
				Summary:     fmt.Sprintf("Calls %s", p.Function),
				Parameters:  params,
				Responses: map[string]openAPI3Response{
					"200": {Description: `{"data": [...]} with one object per row`},
					"422": {Description: "Missing or invalid parameter"},
					"500": {Description: "Database failure"},
				},
			},
		}
	}
	return &openAPI3Spec{
		OpenAPI: "3.0.0",
		Info:    openAPI3Info{Title: "Course Recommender API", Version: version},
		Paths:   paths,
	}
}

func schemaType(k db.ParamKind) string {
	if k == db.ParamInt {
		return "integer"
	}
	return "string"
}

func (a *API) handleOpenAPI(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "public, max-age=60")
	writeJSON(w, http.StatusOK, buildOpenAPISpec(db.Procedures, a.version))
}

// swaggerUIPage embeds Swagger UI from a CDN and points it at /openapi.json.
var swaggerUIPage = template.Must(template.New("swagger").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <title>{{.Title}}</title>
  <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css">
</head>
<body>
  <div id="swagger-ui"></div>
  <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
  <script>
    window.onload = function() {
      SwaggerUIBundle({ url: "{{.SpecURL}}", dom_id: "#swagger-ui" });
    };
  </script>
</body>
</html>
`))

func (a *API) handleDocs(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	data := map[string]string{"Title": "Course Recommender API", "SpecURL": "/openapi.json"}
	if err := swaggerUIPage.Execute(w, data); err != nil {
		slog.Error(fmt.Sprintf("%s - docs template execute: %v", logPrefix, err))
	}
}
