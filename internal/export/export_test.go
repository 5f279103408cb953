package export

import (
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/irfndi/timeseries-dashboard/internal/models"
)

func TestCSV_Format(t *testing.T) {
	table := &models.Table{
		Headers: []string{"date", "AAPL"},
		Rows: [][]any{
			{"2024-01-02", json.Number("185.64")},
			{"2024-01-03", nil},
		},
	}

	out, err := CSV(table)
	require.NoError(t, err)
	assert.Equal(t, "date,AAPL\n\"2024-01-02\",\"185.64\"\n\"2024-01-03\",\"\"\n", string(out))
}

func TestCSV_QuotesEmbeddedQuotesAndCommas(t *testing.T) {
	table := &models.Table{
		Headers: []string{"label", "note, extra"},
		Rows:    [][]any{{`say "hi"`, "a,b"}},
	}

	out, err := CSV(table)
	require.NoError(t, err)

	records, err := csv.NewReader(strings.NewReader(string(out))).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"label", "note, extra"},
		{`say "hi"`, "a,b"},
	}, records)
}

func TestCSV_RoundTripsEveryRow(t *testing.T) {
	rows := make([][]any, 250)
	for i := range rows {
		rows[i] = []any{json.Number(strings.Repeat("1", i%5+1))}
	}
	out, err := CSV(&models.Table{Headers: []string{"x"}, Rows: rows})
	require.NoError(t, err)

	records, err := csv.NewReader(strings.NewReader(string(out))).ReadAll()
	require.NoError(t, err)
	assert.Len(t, records, 251, "export is not capped like the display")
}

func TestCSV_NoData(t *testing.T) {
	for _, table := range []*models.Table{nil, {}, {Headers: []string{"a"}}} {
		_, err := CSV(table)
		assert.ErrorIs(t, err, ErrNoData)
	}
}

func TestFilenames(t *testing.T) {
	now := time.Date(2024, 5, 17, 23, 30, 15, 0, time.FixedZone("X", -3*3600))

	assert.Equal(t, "returns_data_2024-05-18.csv", CSVFilename("returns_data", now))
	assert.Equal(t, "api_response_2024-05-18_02_30_15_UTC.json", JSONFilename(now))
}

func TestPrettyJSON(t *testing.T) {
	raw, err := models.ParseRawResponse([]byte(`{"b":1,"a":[1,2]}`))
	require.NoError(t, err)

	out, err := PrettyJSON(raw)
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"b\": 1,\n  \"a\": [\n    1,\n    2\n  ]\n}", string(out))

	_, err = PrettyJSON(nil)
	assert.ErrorIs(t, err, ErrNoData)
}
