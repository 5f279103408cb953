package render

import (
	_ "embed"
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/irfndi/timeseries-dashboard/internal/tabs"
)

//go:embed layouts.yaml
var embeddedLayouts []byte

// Layouts is the set of page variants a results page can be rendered as.
type Layouts struct {
	Variants map[string]*Layout `yaml:"variants"`
}

// Layout describes one page variant: its tabs and the containers each one hosts.
type Layout struct {
	Name    string      `yaml:"-"`
	Title   string      `yaml:"title"`
	Tabs    []TabLayout `yaml:"tabs"`
	SubTabs []TabLayout `yaml:"sub_tabs"`

	containers map[string]bool
}

type TabLayout struct {
	ID         string            `yaml:"id"`
	Label      string            `yaml:"label"`
	Containers []ContainerLayout `yaml:"containers"`
}

type ContainerLayout struct {
	ID    string `yaml:"id"`
	Title string `yaml:"title"`
}

// LoadLayouts parses the layouts bundled with the binary.
func LoadLayouts() (*Layouts, error) {
	return ParseLayouts(embeddedLayouts)
}

// ParseLayouts decodes and validates a layouts document. Container ids must
// be unique within a variant.
func ParseLayouts(data []byte) (*Layouts, error) {
	var ls Layouts
	if err := yaml.Unmarshal(data, &ls); err != nil {
		return nil, fmt.Errorf("failed to parse layouts: %w", err)
	}
	if len(ls.Variants) == 0 {
		return nil, fmt.Errorf("layouts define no variants")
	}

	for name, layout := range ls.Variants {
		if layout == nil || len(layout.Tabs) == 0 {
			return nil, fmt.Errorf("layout %q has no tabs", name)
		}
		layout.Name = name
		layout.containers = make(map[string]bool)
		for _, group := range [][]TabLayout{layout.Tabs, layout.SubTabs} {
			for _, tab := range group {
				if tab.ID == "" {
					return nil, fmt.Errorf("layout %q has a tab without an id", name)
				}
				for _, c := range tab.Containers {
					if layout.containers[c.ID] {
						return nil, fmt.Errorf("layout %q repeats container %q", name, c.ID)
					}
					layout.containers[c.ID] = true
				}
			}
		}
	}
	return &ls, nil
}

// Variant returns the named layout.
func (ls *Layouts) Variant(name string) (*Layout, bool) {
	l, ok := ls.Variants[name]
	return l, ok
}

// Names returns the variant names in sorted order.
func (ls *Layouts) Names() []string {
	names := make([]string, 0, len(ls.Variants))
	for name := range ls.Variants {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// HasContainer reports whether the variant includes the container id.
func (l *Layout) HasContainer(id string) bool {
	return l.containers[id]
}

// TabSet builds a fresh tab set for one page render.
func (l *Layout) TabSet() *tabs.TabSet {
	top := make([]tabs.Tab, 0, len(l.Tabs))
	for _, t := range l.Tabs {
		top = append(top, tabs.Tab{ID: t.ID, Label: t.Label})
	}
	sub := make([]tabs.Tab, 0, len(l.SubTabs))
	for _, t := range l.SubTabs {
		sub = append(sub, tabs.Tab{ID: t.ID, Label: t.Label, Parent: tabs.DataLineage})
	}
	return tabs.NewTabSet(top, sub)
}
