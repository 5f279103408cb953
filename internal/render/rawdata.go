package render

import (
	"github.com/irfndi/timeseries-dashboard/internal/models"
)

// RawDataRenderer shows each dataset as a table capped at MaxDisplayRows,
// with a link to the unbounded CSV export.
type RawDataRenderer struct {
	opts Options
}

func (r *RawDataRenderer) Name() string { return "raw-data" }

// TableID is the container a dataset's table is rendered into.
func TableID(datasetKey string) string {
	return datasetSlug(datasetKey) + "-table"
}

// ExportID is the id of a dataset's CSV export button.
func ExportID(datasetKey string) string {
	return "export-" + datasetShort(datasetKey) + "-csv"
}

func (r *RawDataRenderer) Render(doc *Document, processed *models.ProcessedResults, _ *models.RawResponse) error {
	for _, key := range models.DatasetKeys {
		id := TableID(key)
		table := processed.RawData[key]
		if table.Empty() {
			if err := placeholder(doc, id, "No data available."); err != nil {
				return err
			}
			continue
		}
		if err := fill(doc, id, "raw-table", r.view(key, table)); err != nil {
			return err
		}
	}
	return nil
}

type rawTableView struct {
	ExportID  string
	ExportURL string
	Headers   []string
	Rows      [][]string
	More      int
	Shown     int
}

func (r *RawDataRenderer) view(key string, table *models.Table) rawTableView {
	limit := r.opts.MaxDisplayRows
	if limit <= 0 {
		limit = DefaultOptions().MaxDisplayRows
	}
	shown := table.Rows
	if len(shown) > limit {
		shown = shown[:limit]
	}

	v := rawTableView{
		ExportID:  ExportID(key),
		ExportURL: r.opts.ExportPath + key,
		Headers:   table.Headers,
		Rows:      make([][]string, 0, len(shown)),
		More:      len(table.Rows) - len(shown),
		Shown:     limit,
	}
	for _, row := range shown {
		cells := make([]string, len(row))
		for i, cell := range row {
			cells[i] = models.CellText(cell)
		}
		v.Rows = append(v.Rows, cells)
	}
	return v
}
