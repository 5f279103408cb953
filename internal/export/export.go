// Package export produces the downloadable forms of a results payload:
// per-dataset CSV files and the pretty-printed API response.
package export

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/irfndi/timeseries-dashboard/internal/models"
)

// ErrNoData is returned when a table has no headers or no rows.
var ErrNoData = errors.New("no data available to export")

// CSV encodes table as a header line followed by one line per row. Row
// cells are always quoted; header names only when they need it.
func CSV(table *models.Table) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, table); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteCSV streams the CSV encoding of table to w.
func WriteCSV(w io.Writer, table *models.Table) error {
	if table.Empty() {
		return ErrNoData
	}

	header := make([]string, len(table.Headers))
	for i, h := range table.Headers {
		header[i] = quoteIfNeeded(h)
	}
	if _, err := io.WriteString(w, strings.Join(header, ",")+"\n"); err != nil {
		return err
	}

	cells := make([]string, 0, len(table.Headers))
	for _, row := range table.Rows {
		cells = cells[:0]
		for _, cell := range row {
			cells = append(cells, quote(models.CellText(cell)))
		}
		if _, err := io.WriteString(w, strings.Join(cells, ",")+"\n"); err != nil {
			return err
		}
	}
	return nil
}

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

func quoteIfNeeded(s string) string {
	if strings.ContainsAny(s, ",\"\r\n") {
		return quote(s)
	}
	return s
}

// CSVFilename names a dataset export, e.g. returns_data_2024-05-17.csv.
func CSVFilename(datasetKey string, now time.Time) string {
	return datasetKey + "_" + now.UTC().Format("2006-01-02") + ".csv"
}

// JSONFilename names an API response download,
// e.g. api_response_2024-05-17_09_30_15_UTC.json.
func JSONFilename(now time.Time) string {
	return "api_response_" + now.UTC().Format("2006-01-02_15_04_05") + "_UTC.json"
}

// PrettyJSON returns the full raw response indented by two spaces, keys in
// the order the backend sent them.
func PrettyJSON(raw *models.RawResponse) ([]byte, error) {
	if raw == nil {
		return nil, ErrNoData
	}
	return raw.Indented()
}
