package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var sections = template.Must(template.New("sections").ParseFS(templateFS, "templates/*.tmpl"))

// fill executes the named section template into container id. Containers
// the variant lacks are skipped without executing anything.
func fill(doc *Document, id, name string, data any) error {
	if !doc.Has(id) {
		return nil
	}
	var buf bytes.Buffer
	if err := sections.ExecuteTemplate(&buf, name, data); err != nil {
		return fmt.Errorf("failed to render %s: %w", id, err)
	}
	doc.Set(id, template.HTML(buf.String()))
	return nil
}

// placeholder writes a muted notice into id.
func placeholder(doc *Document, id, text string) error {
	return fill(doc, id, "placeholder", text)
}

// warning writes an alert-style notice into id.
func warning(doc *Document, id, text string) error {
	return fill(doc, id, "warning", text)
}
