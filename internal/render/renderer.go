// Package render turns ProcessedResults into HTML fragments for the
// containers of a results page variant.
package render

import (
	"errors"
	"fmt"
	"time"

	"github.com/irfndi/timeseries-dashboard/internal/config"
	"github.com/irfndi/timeseries-dashboard/internal/models"
)

// Renderer fills the containers of one dashboard section. Renderers never
// modify processed or raw, and rendering twice yields the same document.
type Renderer interface {
	Name() string
	Render(doc *Document, processed *models.ProcessedResults, raw *models.RawResponse) error
}

// Options carries presentation policy shared by the renderers.
type Options struct {
	MaxDisplayRows          int
	PairwiseStrongPercent   float64
	PairwiseModeratePercent float64
	TotalHighPercent        float64
	TotalModeratePercent    float64
	// ExportPath prefixes the dataset key in CSV export links.
	ExportPath string
	// Location is used for execution timestamps without a zone.
	Location *time.Location
}

func DefaultOptions() Options {
	return Options{
		MaxDisplayRows:          100,
		PairwiseStrongPercent:   25,
		PairwiseModeratePercent: 10,
		TotalHighPercent:        50,
		TotalModeratePercent:    25,
		ExportPath:              "/results/export/",
		Location:                time.UTC,
	}
}

// OptionsFromConfig applies the render section of the configuration over
// the defaults.
func OptionsFromConfig(cfg config.RenderConfig) Options {
	opts := DefaultOptions()
	if cfg.MaxDisplayRows > 0 {
		opts.MaxDisplayRows = cfg.MaxDisplayRows
	}
	if cfg.PairwiseStrongPercent > 0 {
		opts.PairwiseStrongPercent = cfg.PairwiseStrongPercent
	}
	if cfg.PairwiseModeratePercent > 0 {
		opts.PairwiseModeratePercent = cfg.PairwiseModeratePercent
	}
	if cfg.TotalHighPercent > 0 {
		opts.TotalHighPercent = cfg.TotalHighPercent
	}
	if cfg.TotalModeratePercent > 0 {
		opts.TotalModeratePercent = cfg.TotalModeratePercent
	}
	return opts
}

// NewRenderers returns every section renderer in page order.
func NewRenderers(opts Options) []Renderer {
	return []Renderer{
		&OverviewRenderer{},
		&ExecutionConfigRenderer{opts: opts},
		&DataLineageRenderer{},
		&StatisticalTestsRenderer{},
		&ModelsRenderer{},
		&SpilloverRenderer{opts: opts},
		&RawDataRenderer{opts: opts},
	}
}

// RenderAll runs the renderers in order. A failing section does not stop
// the others; all failures are returned together.
func RenderAll(doc *Document, processed *models.ProcessedResults, raw *models.RawResponse, renderers []Renderer) error {
	if processed == nil {
		processed = &models.ProcessedResults{}
	}
	var errs []error
	for _, r := range renderers {
		if err := r.Render(doc, processed, raw); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", r.Name(), err))
		}
	}
	return errors.Join(errs...)
}
