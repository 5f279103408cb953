package render

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/irfndi/timeseries-dashboard/internal/models"
)

func f64(v float64) *float64 { return &v }

func newDocument(t *testing.T, variant string) *Document {
	t.Helper()
	layouts, err := LoadLayouts()
	require.NoError(t, err)
	layout, ok := layouts.Variant(variant)
	require.True(t, ok, variant)
	return NewDocument(layout)
}

func content(doc *Document, id string) string {
	return string(doc.Content(id))
}

func TestLoadLayouts(t *testing.T) {
	layouts, err := LoadLayouts()
	require.NoError(t, err)
	assert.Equal(t, []string{"compact", "full"}, layouts.Names())

	full, _ := layouts.Variant("full")
	assert.True(t, full.HasContainer("original-data-table"))
	assert.True(t, full.HasContainer("pre-garch-data-plot"))

	compact, _ := layouts.Variant("compact")
	assert.False(t, compact.HasContainer("original-data-table"))
	assert.True(t, compact.HasContainer("total-spillover-container"))

	set := full.TabSet()
	assert.Equal(t, "overview", set.ActiveID(""))
	assert.Equal(t, "price-data", set.ActiveID("data-lineage"))
}

func TestParseLayouts_Rejects(t *testing.T) {
	_, err := ParseLayouts([]byte("variants: {}"))
	assert.Error(t, err)

	dup := `
variants:
  broken:
    tabs:
      - id: overview
        containers:
          - {id: a}
          - {id: a}
`
	_, err = ParseLayouts([]byte(dup))
	assert.ErrorContains(t, err, `repeats container "a"`)

	_, err = ParseLayouts([]byte("variants: [1, 2"))
	assert.Error(t, err)
}

func TestDocument_SetSkipsUnknownContainers(t *testing.T) {
	doc := newDocument(t, "compact")
	assert.False(t, doc.Set("original-data-table", "<p>x</p>"))
	assert.Empty(t, doc.Content("original-data-table"))
	assert.Equal(t, 0, doc.Filled())
	assert.True(t, doc.Set("executive-summary-content", "<p>x</p>"))
	assert.Equal(t, "<p>x</p>", content(doc, "executive-summary-content"))
	assert.Equal(t, 1, doc.Filled())
}

func TestRenderAll_EmptyPayloadWritesPlaceholders(t *testing.T) {
	doc := newDocument(t, "full")
	err := RenderAll(doc, &models.ProcessedResults{}, models.NewRawResponse(nil), NewRenderers(DefaultOptions()))
	require.NoError(t, err)

	for _, id := range executionConfigIDs {
		assert.Contains(t, content(doc, id), "Configuration data not available", id)
	}
	assert.Contains(t, content(doc, stationarityID), "No stationarity test results available.")
	assert.Contains(t, content(doc, arimaStatisticsID), "No ARIMA model statistics available.")
	assert.Contains(t, content(doc, arimaResultsID), "No ARIMA results available.")
	assert.Contains(t, content(doc, garchResultsID), "No GARCH results available.")
	assert.Contains(t, content(doc, varResultsID), "VAR model results not available.")
	assert.Contains(t, content(doc, grangerCausalityID), "No Granger causality results available.")
	assert.Contains(t, content(doc, "original-data-table"), "No data available.")

	for _, panel := range append(doc.Panels(), doc.SubPanels()...) {
		for _, c := range panel.Containers {
			assert.NotEmpty(t, c.Content, c.ID)
		}
	}
}

func TestRenderAll_NilProcessedAndCompactVariant(t *testing.T) {
	doc := newDocument(t, "compact")
	require.NoError(t, RenderAll(doc, nil, nil, NewRenderers(DefaultOptions())))
	assert.Contains(t, content(doc, "executive-summary-content"), "Overview data not available.")
	assert.Empty(t, content(doc, "original-data-table"))
}

func sampleResults() *models.ProcessedResults {
	return &models.ProcessedResults{
		Overview: &models.Overview{
			ExecutiveSummary: &models.ExecutiveSummary{
				SymbolsAnalyzed: 2,
				SymbolsList:     "AAPL, MSFT",
				KeyFindings:     []string{"ARIMA forecasts are available"},
			},
			KeyInsights:     []string{},
			AnalysisSummary: &models.AnalysisSummary{DataPoints: 30, ModelsFitted: []string{"ARIMA", "GARCH"}},
		},
		StatisticalTests: &models.StatisticalTests{
			Stationarity: map[string]*models.StationarityResult{
				"AAPL": {
					ADFStatistic:   f64(-2.9),
					PValue:         f64(0.04),
					IsStationary:   true,
					CriticalValues: map[string]*float64{"1%": f64(-3.43), "5%": f64(-2.86), "10%": f64(-2.57)},
				},
			},
			SeriesStatistics: map[string]*models.SeriesStatistics{
				"AAPL": {N: f64(30), Mean: f64(0.00123456789), Skew: f64(-0.5)},
			},
		},
		Models: &models.Models{
			ARIMA: map[string]map[string]any{
				"AAPL": {
					"summary_stats": map[string]any{"aic": 101.5, "bic": 105.25},
					"summary":       map[string]any{"model_specification": "ARIMA(1,1,1)", "sample_size": 29.0},
					"forecast": map[string]any{
						"point_forecasts":      []any{1.0, 2.0, 3.0, 4.0, 5.0},
						"forecast_method":      "analytical",
						"confidence_intervals": map[string]any{"lower": []any{0.5}},
					},
					"interpretation": map[string]any{
						"executive_summary": map[string]any{"bottom_line": "Prices drift upward"},
						"key_findings":      map[string]any{"forecast_trend": "up"},
						"business_context":  map[string]any{"what_is_arima": strings.Repeat("a", 200)},
					},
				},
			},
			GARCH: map[string]map[string]any{
				"AAPL": {
					"fitted_model": "   Constant Mean - GARCH Model Results\nDep. Variable: y",
					"forecast":     []any{0.1, 0.2, 0.123456789},
				},
			},
		},
		SpilloverAnalysis: &models.SpilloverAnalysis{
			TotalSpillover: &models.TotalSpillover{Index: 0.4213, Interpretation: "Moderate interconnection"},
			DirectionalSpillover: map[string]*models.DirectionalSpillover{
				"AAPL": {To: 0.3, From: 0.1},
				"MSFT": {To: 0.1, From: 0.3},
			},
			PairwiseSpilloverTable: []models.PairwiseSpillover{
				{From: "AAPL", To: "MSFT", RSquared: f64(0.3)},
			},
		},
	}
}

func TestRenderAll_Idempotent(t *testing.T) {
	processed := sampleResults()
	renderers := NewRenderers(DefaultOptions())

	doc := newDocument(t, "full")
	require.NoError(t, RenderAll(doc, processed, nil, renderers))
	first := fmt.Sprint(doc.content)

	require.NoError(t, RenderAll(doc, processed, nil, renderers))
	assert.Equal(t, first, fmt.Sprint(doc.content))
	assert.Len(t, processed.Models.ARIMA["AAPL"], 4, "input is not modified")
}

func TestOverviewRenderer(t *testing.T) {
	doc := newDocument(t, "full")
	require.NoError(t, (&OverviewRenderer{}).Render(doc, sampleResults(), nil))

	summary := content(doc, executiveSummaryID)
	assert.Contains(t, summary, "<strong>Analysis Date:</strong> Unknown")
	assert.Contains(t, summary, "<li>ARIMA forecasts are available</li>")
	assert.Contains(t, content(doc, keyInsightsID), "No specific insights available.")
	assert.Contains(t, content(doc, analysisSummaryID), "ARIMA, GARCH")
	assert.NotContains(t, content(doc, analysisSummaryID), "Tests Performed")
}

func TestStatisticalTestsRenderer(t *testing.T) {
	doc := newDocument(t, "full")
	require.NoError(t, (&StatisticalTestsRenderer{}).Render(doc, sampleResults(), nil))

	card := content(doc, stationarityID)
	assert.Contains(t, card, ">Stationary<")
	assert.Contains(t, card, "-2.9000")
	assert.Contains(t, card, "<strong>1%:</strong> Fail")
	assert.Contains(t, card, "<strong>5%:</strong> Pass")

	stats := content(doc, seriesStatisticsID)
	assert.Contains(t, stats, "<td>30</td>")
	assert.Contains(t, stats, "<td>0.001235</td>")
	assert.Contains(t, stats, "<td>-0.5000</td>")
	assert.Contains(t, stats, "<td>N/A</td>")
}

func TestStatisticalTestsRenderer_SymbolsInSortedOrder(t *testing.T) {
	doc := newDocument(t, "full")
	results := &models.ProcessedResults{
		StatisticalTests: &models.StatisticalTests{
			Stationarity: map[string]*models.StationarityResult{
				"ZM":   {PValue: f64(0.2)},
				"AAPL": {PValue: f64(0.01), IsStationary: true},
				"MSFT": {PValue: f64(0.03), IsStationary: true},
			},
		},
	}

	for i := 0; i < 5; i++ {
		require.NoError(t, (&StatisticalTestsRenderer{}).Render(doc, results, nil))
		card := content(doc, stationarityID)
		aapl, msft, zm := strings.Index(card, "AAPL"), strings.Index(card, "MSFT"), strings.Index(card, "ZM")
		require.True(t, aapl >= 0 && msft >= 0 && zm >= 0)
		assert.Less(t, aapl, msft)
		assert.Less(t, msft, zm)
	}
}

func TestModelsRenderer_ARIMACard(t *testing.T) {
	doc := newDocument(t, "full")
	require.NoError(t, (&ModelsRenderer{}).Render(doc, sampleResults(), nil))

	stats := content(doc, arimaStatisticsID)
	assert.Contains(t, stats, "<td>101.5000</td>")
	assert.Contains(t, stats, "<td>N/A</td>")

	card := content(doc, arimaResultsID)
	assert.Contains(t, card, "ARIMA Model - AAPL")
	assert.Contains(t, card, "<code>ARIMA(1,1,1)</code>")
	assert.Contains(t, card, "5 forecast points (analytical)")
	assert.Contains(t, card, "Includes confidence intervals")
	assert.Contains(t, card, "Step 3: 3.000000")
	assert.NotContains(t, card, "Step 4")
	assert.Contains(t, card, "... and 2 more")
	assert.Contains(t, card, "No parameters available")
	assert.Contains(t, card, "No significance data available")
	assert.Contains(t, card, "<strong>Ljung-Box Test:</strong> See full summary")
	assert.Contains(t, card, "Prices drift upward")
	assert.Contains(t, card, "No impact assessment")
	assert.Contains(t, card, strings.Repeat("a", 150)+"...")
	assert.NotContains(t, card, strings.Repeat("a", 151))

	garch := content(doc, garchResultsID)
	assert.Contains(t, garch, "<code>Constant Mean - GARCH Model Results</code>")
	assert.Contains(t, garch, "3 volatility forecast points")
	assert.Contains(t, garch, "Latest forecast: 0.123457")
}

func TestARIMACard_StringSummaryAndParameters(t *testing.T) {
	card := buildARIMACard("MSFT", map[string]any{
		"parameters":             map[string]any{"ar.L1": 0.51234, "ma.L1": "bad"},
		"parameter_pvalues":      map[string]any{"ar.L1": 0.01, "ma.L1": 0.6},
		"parameter_significance": map[string]any{"ar.L1": "Significant", "ma.L1": "Not significant"},
		"forecast":               []any{1.5},
		"interpretation":         map[string]any{"executive_summary": "  short text "},
	})

	assert.Equal(t, "Model specification not available", card.Spec)
	assert.Equal(t, []labeled{{"ar.L1", "0.5123"}, {"ma.L1", "N/A"}}, card.Params)
	require.Len(t, card.Significance, 2)
	assert.False(t, card.Significance[0].Weak)
	assert.True(t, card.Significance[1].Weak)
	assert.Equal(t, "1 forecast points", card.ForecastInfo)
	require.NotNil(t, card.Interpretation)
	assert.Equal(t, "short text", card.Interpretation.Text)
}

func TestGARCHLabel(t *testing.T) {
	tests := []struct {
		name   string
		result map[string]any
		want   string
	}{
		{"structured", map[string]any{"model_specification": "GARCH(2,1)", "fitted_model": "GARCH(1,1)"}, "GARCH(2,1)"},
		{"order in text", map[string]any{"fitted_model": "Vol Model: GARCH(1,2) fitted"}, "GARCH(1,2)"},
		{"header line", map[string]any{"fitted_model": "intro\n  GARCH Model Results  \n"}, "GARCH Model Results"},
		{"constant variance", map[string]any{"fitted_model": "Constant Variance"}, "GARCH Model"},
		{"no header", map[string]any{"fitted_model": "Dep. Variable: y"}, "GARCH(1,1)"},
		{"missing", map[string]any{}, "Model specification not available"},
		{"not text", map[string]any{"fitted_model": 3.0}, "Model specification not available"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, garchLabel(tt.result))
		})
	}
}

func TestModelsRenderer_VAR(t *testing.T) {
	doc := newDocument(t, "full")
	processed := &models.ProcessedResults{Models: &models.Models{VAR: map[string]any{
		"selected_lag": 2.0,
		"ic_used":      "aic",
		"fevd_matrix": map[string]any{
			"AAPL": map[string]any{"AAPL": 0.8, "MSFT": 0.2},
			"MSFT": map[string]any{"AAPL": 0.3, "MSFT": 0.7},
		},
	}}}
	require.NoError(t, (&ModelsRenderer{}).Render(doc, processed, nil))

	panel := content(doc, varResultsID)
	assert.Contains(t, panel, "<strong>Selected Lag:</strong> 2")
	assert.Contains(t, panel, "<strong>Information Criterion:</strong> aic")
	assert.Contains(t, panel, "<th>AAPL</th><th>MSFT</th>")
	assert.Contains(t, panel, "<td>0.3000</td>")
}

func TestSpilloverRenderer(t *testing.T) {
	doc := newDocument(t, "full")
	r := &SpilloverRenderer{opts: DefaultOptions()}
	require.NoError(t, r.Render(doc, sampleResults(), nil))

	total := content(doc, totalSpilloverID)
	assert.Contains(t, total, "42.1%")
	assert.Contains(t, total, "text-warning")
	assert.Contains(t, total, ">Moderate<")

	directional := content(doc, directionalSpilloverID)
	assert.Contains(t, directional, `<td class="text-success">20.00%</td>`)
	assert.Contains(t, directional, `<td class="text-danger">-20.00%</td>`)

	assert.Contains(t, content(doc, netSpilloverID), "No net spillover data available.")

	pairwise := content(doc, pairwiseSpilloverID)
	assert.Contains(t, pairwise, "<td>0.3000</td><td>30.00%</td><td>None</td>")
	assert.Contains(t, pairwise, `class="text-success">Strong<`)

	assert.Contains(t, content(doc, grangerCausalityID), "No Granger causality results available.")
}

func TestSpilloverTiers(t *testing.T) {
	r := &SpilloverRenderer{opts: DefaultOptions()}

	assert.Equal(t, TierStrong, r.Strength(25.01))
	assert.Equal(t, TierModerate, r.Strength(25))
	assert.Equal(t, TierModerate, r.Strength(10.5))
	assert.Equal(t, TierWeak, r.Strength(10))

	assert.Equal(t, TierHigh, r.Severity(50.5))
	assert.Equal(t, TierModerate, r.Severity(50))
	assert.Equal(t, TierLow, r.Severity(25))

	custom := DefaultOptions()
	custom.TotalHighPercent = 30
	assert.Equal(t, TierHigh, (&SpilloverRenderer{opts: custom}).Severity(42))
}

func TestSpilloverRenderer_Granger(t *testing.T) {
	doc := newDocument(t, "full")
	processed := &models.ProcessedResults{SpilloverAnalysis: &models.SpilloverAnalysis{
		GrangerCausality: &models.GrangerCausality{
			CausalityResults: map[string]*models.GrangerResult{
				"AAPL->MSFT": {Causality1Pct: false, Causality5Pct: true, MinPValue: f64(0.0234)},
			},
			Metadata: map[string]any{"max_lag": 5.0},
		},
	}}
	require.NoError(t, (&SpilloverRenderer{opts: DefaultOptions()}).Render(doc, processed, nil))

	out := content(doc, grangerCausalityID)
	assert.Contains(t, out, "AAPL-&gt;MSFT")
	assert.Contains(t, out, "<td>0.0234</td>")
	assert.Contains(t, out, "<strong>Max Lag:</strong> 5")
	assert.Contains(t, out, "<strong>Pairs Tested:</strong> N/A")
	assert.Contains(t, content(doc, totalSpilloverID), "Total spillover index not available.")
}

func TestRawDataRenderer_TruncatesDisplay(t *testing.T) {
	rows := make([][]any, 105)
	for i := range rows {
		rows[i] = []any{fmt.Sprintf("2024-01-%03d", i), i}
	}
	processed := &models.ProcessedResults{RawData: map[string]*models.Table{
		models.DatasetPreGARCH: {Headers: []string{"date", "AAPL"}, Rows: rows},
	}}

	doc := newDocument(t, "full")
	require.NoError(t, (&RawDataRenderer{opts: DefaultOptions()}).Render(doc, processed, nil))

	out := content(doc, "pre-garch-data-table")
	assert.Contains(t, out, `id="export-pre-garch-csv"`)
	assert.Contains(t, out, `href="/results/export/pre_garch_data"`)
	assert.Contains(t, out, "2024-01-099")
	assert.NotContains(t, out, "2024-01-100")
	assert.Contains(t, out, "... 5 more rows (showing first 100)")
	assert.Contains(t, out, `colspan="2"`)
	assert.Contains(t, content(doc, "original-data-table"), "No data available.")
}

func TestDatasetIDs(t *testing.T) {
	assert.Equal(t, "original-data-table", TableID(models.DatasetOriginal))
	assert.Equal(t, "export-original-csv", ExportID(models.DatasetOriginal))
	assert.Equal(t, "export-post-garch-csv", ExportID(models.DatasetPostGARCH))
}

func TestExecutionConfigRenderer(t *testing.T) {
	raw := models.NewRawResponse(map[string]any{
		"execution_configuration": map[string]any{
			"data_source": map[string]any{
				"source_type":             "synthetic",
				"symbols":                 []any{"GME", "BYND"},
				"synthetic_anchor_prices": map[string]any{"GME": 150.0, "BYND": 30.0},
				"synthetic_random_seed":   42.0,
			},
			"model_configurations": map[string]any{
				"arima_params": map[string]any{"p": 1.0, "d": 0.0, "q": 1.0, "enabled": true},
			},
			"execution_metadata": map[string]any{
				"execution_timestamp":    "2024-05-17T09:30:15Z",
				"execution_time_seconds": 12.345,
			},
		},
	})

	doc := newDocument(t, "full")
	r := &ExecutionConfigRenderer{opts: DefaultOptions()}
	require.NoError(t, r.Render(doc, &models.ProcessedResults{}, raw))

	ds := content(doc, dataSourceConfigID)
	assert.Contains(t, ds, "GME, BYND")
	assert.Contains(t, ds, "BYND: $30")
	assert.Contains(t, ds, "<strong>Random Seed:</strong> 42")
	assert.Contains(t, ds, "N/A to N/A")

	assert.Contains(t, content(doc, arimaConfigID), "ARIMA(1, 0, 1)")
	assert.Contains(t, content(doc, garchConfigID), configUnavailable)

	meta := content(doc, executionMetadataID)
	assert.Contains(t, meta, "2024-05-17 09:30:15 UTC")
	assert.Contains(t, meta, "12.35s")
	assert.Contains(t, meta, "<strong>API Version:</strong> <span class=\"badge bg-secondary\">N/A</span>")
}

func TestFormatTimestamp(t *testing.T) {
	est := time.FixedZone("EST", -5*3600)

	assert.Equal(t, "N/A", formatTimestamp("", time.UTC))
	assert.Equal(t, "2024-05-17 04:30:15 EST", formatTimestamp("2024-05-17T09:30:15Z", est))
	assert.Equal(t, "2024-05-17 09:30:15 UTC", formatTimestamp("2024-05-17T09:30:15.123456", nil))
	assert.Equal(t, "yesterday", formatTimestamp("yesterday", time.UTC))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "héllo...", truncate("héllo wörld", 5))
}
