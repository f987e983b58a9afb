package api

import (
	"bytes"
	"fmt"
	"html/template"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Docs serves the API reference. Everything is rendered once at construction.
type Docs struct {
	page     []byte
	specJSON []byte
}

// NewDocs renders the Swagger UI page and the JSON form of the embedded document.
func NewDocs() (*Docs, error) {
	doc, err := GetSwagger()
	if err != nil {
		return nil, err
	}

	specJSON, err := doc.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("failed to encode openapi document: %w", err)
	}

	var page bytes.Buffer
	err = swaggerPage.Execute(&page, struct {
		Title   string
		Version string
		SpecURL string
	}{
		Title:   doc.Info.Title,
		Version: doc.Info.Version,
		SpecURL: "/docs/openapi",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to render docs page: %w", err)
	}

	return &Docs{page: page.Bytes(), specJSON: specJSON}, nil
}

// Register mounts the unauthenticated documentation routes:
//
//	GET /                  redirect to /docs
//	GET /docs              Swagger UI
//	GET /docs/openapi      OpenAPI document as JSON
//	GET /docs/openapi.yaml OpenAPI document as written
func (d *Docs) Register(r chi.Router) {
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/docs", http.StatusFound)
	})
	r.Route("/docs", func(r chi.Router) {
		r.Get("/", d.serve("text/html; charset=utf-8", d.page))
		r.Get("/openapi", d.serve("application/json", d.specJSON))
		r.Get("/openapi.yaml", d.serve("application/yaml", openapiYAML))
	})
}

func (d *Docs) serve(contentType string, body []byte) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", contentType)
		_, _ = w.Write(body) //nolint:errcheck // client went away
	}
}

var swaggerPage = template.Must(template.New("docs").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>{{.Title}} {{.Version}}</title>
  <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css">
</head>
<body style="margin:0">
  <div id="swagger-ui"></div>
  <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
  <script>
    window.ui = SwaggerUIBundle({
      url: {{.SpecURL}},
      dom_id: "#swagger-ui",
      persistAuthorization: true,
      tryItOutEnabled: true
    });
  </script>
</body>
</html>
`))
