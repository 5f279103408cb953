package render

import (
	"html/template"
)

// Document is one page variant being filled by section renderers. Content is
// keyed by container id; ids outside the variant are silently dropped.
type Document struct {
	layout  *Layout
	content map[string]template.HTML
}

// Container is a filled slot ready for the page template.
type Container struct {
	ID      string
	Title   string
	Content template.HTML
}

// Panel is a tab's containers in layout order.
type Panel struct {
	TabID      string
	Label      string
	Containers []Container
}

func NewDocument(layout *Layout) *Document {
	return &Document{layout: layout, content: make(map[string]template.HTML)}
}

// Variant returns the layout name.
func (d *Document) Variant() string {
	return d.layout.Name
}

func (d *Document) Title() string {
	return d.layout.Title
}

func (d *Document) Layout() *Layout {
	return d.layout
}

// Has reports whether the variant includes id.
func (d *Document) Has(id string) bool {
	return d.layout.HasContainer(id)
}

// Set replaces the content of container id. It reports false, and does
// nothing, when the variant has no such container.
func (d *Document) Set(id string, html template.HTML) bool {
	if !d.Has(id) {
		return false
	}
	d.content[id] = html
	return true
}

// Content returns what has been rendered into id so far.
func (d *Document) Content(id string) template.HTML {
	return d.content[id]
}

// Filled counts the containers that have content.
func (d *Document) Filled() int {
	return len(d.content)
}

// Panels returns the top-level tabs with their filled containers.
func (d *Document) Panels() []Panel {
	return d.panels(d.layout.Tabs)
}

// SubPanels returns the data-lineage sub-tabs with their filled containers.
func (d *Document) SubPanels() []Panel {
	return d.panels(d.layout.SubTabs)
}

func (d *Document) panels(group []TabLayout) []Panel {
	out := make([]Panel, 0, len(group))
	for _, tab := range group {
		p := Panel{TabID: tab.ID, Label: tab.Label}
		for _, c := range tab.Containers {
			p.Containers = append(p.Containers, Container{ID: c.ID, Title: c.Title, Content: d.content[c.ID]})
		}
		out = append(out, p)
	}
	return out
}
