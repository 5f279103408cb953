package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func f64(v float64) *float64 { return &v }

func TestParseRawResponse_KeepsFirstRowColumnOrder(t *testing.T) {
	payload := []byte(`{
		"returns_data": [{"date": "2024-01-02", "MSFT": 0.01, "AAPL": -0.02}],
		"symbols": ["MSFT", "AAPL"]
	}`)

	raw, err := ParseRawResponse(payload)
	require.NoError(t, err)

	assert.Equal(t, []string{"date", "MSFT", "AAPL"}, raw.Columns(DatasetReturns))
	assert.Nil(t, raw.Columns(DatasetOriginal))

	rows := AsSlice(raw.Fields[DatasetReturns])
	require.Len(t, rows, 1)
	assert.Equal(t, json.Number("0.01"), AsMap(rows[0])["MSFT"])
}

func TestParseRawResponse_RejectsNonObjects(t *testing.T) {
	for _, input := range []string{`not json`, `null`, `[1,2]`, `{"a":1} {"b":2}`} {
		_, err := ParseRawResponse([]byte(input))
		assert.Error(t, err, input)
	}
}

func TestRawResponse_IndentedKeepsOriginalOrder(t *testing.T) {
	raw, err := ParseRawResponse([]byte(`{"zeta":1,"alpha":{"b":2,"a":3}}`))
	require.NoError(t, err)

	out, err := raw.Indented()
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"zeta\": 1,\n  \"alpha\": {\n    \"b\": 2,\n    \"a\": 3\n  }\n}", string(out))
}

func TestNewRawResponse_ColumnsFallBackToSortedKeys(t *testing.T) {
	raw := NewRawResponse(map[string]any{
		DatasetOriginal: []any{map[string]any{"b": 1, "a": 2}},
	})
	assert.Equal(t, []string{"a", "b"}, raw.Columns(DatasetOriginal))

	data, err := raw.JSON()
	require.NoError(t, err)
	assert.JSONEq(t, `{"original_data":[{"a":2,"b":1}]}`, string(data))
}

func TestRawResponse_GetTreatsNullAsAbsent(t *testing.T) {
	raw := NewRawResponse(map[string]any{"execution_configuration": nil, "symbols": []any{"A"}})

	_, ok := raw.Get("execution_configuration")
	assert.False(t, ok)
	_, ok = raw.Object("symbols")
	assert.False(t, ok)

	var nilRaw *RawResponse
	_, ok = nilRaw.Get("symbols")
	assert.False(t, ok)
}

func TestStationarityResult_PassesAt(t *testing.T) {
	res := &StationarityResult{
		ADFStatistic: f64(-3.5),
		CriticalValues: map[string]*float64{
			"1%":  f64(-3.43),
			"5%":  f64(-2.86),
			"10%": f64(-2.57),
		},
	}

	for _, level := range SignificanceLevels {
		pass, known := res.PassesAt(level)
		assert.True(t, known, level)
		assert.True(t, pass, level)
	}

	weak := &StationarityResult{ADFStatistic: f64(-2.9), CriticalValues: res.CriticalValues}
	pass, _ := weak.PassesAt("1%")
	assert.False(t, pass)
	pass, _ = weak.PassesAt("5%")
	assert.True(t, pass)

	equal := &StationarityResult{ADFStatistic: f64(-2.86), CriticalValues: res.CriticalValues}
	pass, _ = equal.PassesAt("5%")
	assert.False(t, pass, "equality is not a rejection")

	_, known := (&StationarityResult{}).PassesAt("5%")
	assert.False(t, known)
}

func TestTable_Empty(t *testing.T) {
	var nilTable *Table
	assert.True(t, nilTable.Empty())
	assert.True(t, (&Table{Headers: []string{"a"}}).Empty())
	assert.False(t, (&Table{Headers: []string{"a"}, Rows: [][]any{{"1"}}}).Empty())
}

func TestIsDatasetKey(t *testing.T) {
	assert.True(t, IsDatasetKey("pre_garch_data"))
	assert.False(t, IsDatasetKey("garch_data"))
}

func TestValueHelpers(t *testing.T) {
	doc := map[string]any{
		"a": map[string]any{"b": map[string]any{"c": json.Number("1.5")}},
		"s": "text",
		"n": nil,
	}

	v, ok := Lookup(doc, "a", "b", "c")
	require.True(t, ok)
	f, ok := AsFloat(v)
	assert.True(t, ok)
	assert.Equal(t, 1.5, f)

	_, ok = Lookup(doc, "a", "x")
	assert.False(t, ok)
	_, ok = Lookup(doc, "n")
	assert.False(t, ok)
	_, ok = Lookup(doc, "s", "deeper")
	assert.False(t, ok)

	_, ok = AsFloat("3.2")
	assert.False(t, ok, "strings are not numbers")
	assert.Nil(t, FloatPtr(nil))

	n, ok := AsInt(json.Number("42"))
	assert.True(t, ok)
	assert.Equal(t, 42, n)

	list, ok := StringList([]any{"ARIMA", 3, "GARCH"})
	assert.True(t, ok)
	assert.Equal(t, []string{"ARIMA", "GARCH"}, list)
}

func TestTruthy(t *testing.T) {
	assert.False(t, Truthy(nil))
	assert.False(t, Truthy(""))
	assert.False(t, Truthy(json.Number("0")))
	assert.False(t, Truthy(false))
	assert.True(t, Truthy(json.Number("0.5")))
	assert.True(t, Truthy("x"))
	assert.True(t, Truthy(map[string]any{}))
}

func TestCellText(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{nil, ""},
		{"AAPL", "AAPL"},
		{json.Number("101.250"), "101.250"},
		{true, "true"},
		{0.5, "0.5"},
		{[]any{"a"}, `["a"]`},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CellText(tt.in))
	}
}
