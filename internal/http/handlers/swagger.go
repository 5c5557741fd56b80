package handlers

import (
	_ "embed"
	"html/template"
	"net/http"

	"github.com/gin-gonic/gin"
)

//go:embed openapi.yaml
var openAPIDocument []byte

var docsPage = template.Must(template.New("docs").Parse(`<!doctype html>
<html lang="en">
<head>
  <meta charset="utf-8">
  <title>rxtrack API</title>
  <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css">
</head>
<body>
  <div id="swagger-ui"></div>
  <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
  <script>
    window.ui = SwaggerUIBundle({ url: {{.SpecURL}}, dom_id: "#swagger-ui", deepLinking: true });
  </script>
</body>
</html>`))

// DocsHandler serves the embedded OpenAPI document and a Swagger UI page that renders it.
type DocsHandler struct {
	specURL string
}

func NewDocsHandler(specURL string) *DocsHandler {
	return &DocsHandler{specURL: specURL}
}

func (h *DocsHandler) UI(ctx *gin.Context) {
	ctx.Header("Content-Type", "text/html; charset=utf-8")
	ctx.Status(http.StatusOK)
	if err := docsPage.Execute(ctx.Writer, struct{ SpecURL string }{h.specURL}); err != nil {
		_ = ctx.Error(err)
	}
}

func (h *DocsHandler) Spec(ctx *gin.Context) {
	ctx.Data(http.StatusOK, "application/yaml", openAPIDocument)
}
