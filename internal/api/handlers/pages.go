package handlers

import (
	"embed"
	"html/template"
)

//go:embed templates/*.tmpl
var pageFS embed.FS

// PageTemplates parses the HTML pages served by the dashboard. The result is
// installed on the router with SetHTMLTemplate.
func PageTemplates() *template.Template {
	return template.Must(template.New("pages").ParseFS(pageFS, "templates/*.tmpl"))
}

// Page names passed to gin's c.HTML.
const (
	pageAnalysis    = "analysis"
	pageResults     = "results"
	pageAPIResponse = "api-response"
	pageHistory     = "history"
)
