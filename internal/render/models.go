package render

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/irfndi/timeseries-dashboard/internal/models"
)

const (
	arimaStatisticsID = "arima-statistics-container"
	arimaResultsID    = "arima-results-container"
	garchResultsID    = "garch-results-container"
	varResultsID      = "var-results-container"

	shownForecasts = 3
	aboutARIMALen  = 150
)

var garchOrderPattern = regexp.MustCompile(`GARCH\(\d+,\d+\)`)

// ModelsRenderer shows the ARIMA statistics table, per-symbol ARIMA and
// GARCH cards and the VAR panel.
type ModelsRenderer struct{}

func (r *ModelsRenderer) Name() string { return "models" }

func (r *ModelsRenderer) Render(doc *Document, processed *models.ProcessedResults, _ *models.RawResponse) error {
	m := processed.Models
	if m == nil {
		m = &models.Models{}
	}
	if err := r.arimaStatistics(doc, m.ARIMA); err != nil {
		return err
	}
	if err := r.arimaResults(doc, m.ARIMA); err != nil {
		return err
	}
	if err := r.garchResults(doc, m.GARCH); err != nil {
		return err
	}
	return r.varResults(doc, m.VAR)
}

func (r *ModelsRenderer) arimaStatistics(doc *Document, arima map[string]map[string]any) error {
	var rows []seriesRow
	for _, sym := range models.SortedKeys(arima) {
		stats := models.AsMap(arima[sym]["summary_stats"])
		if stats == nil {
			continue
		}
		rows = append(rows, seriesRow{
			Symbol: sym,
			Cells: []string{
				fixed(stats["aic"], 4),
				fixed(stats["bic"], 4),
				fixed(stats["hqic"], 4),
				fixed(stats["log_likelihood"], 4),
			},
		})
	}
	if len(rows) == 0 {
		return placeholder(doc, arimaStatisticsID, "No ARIMA model statistics available.")
	}
	return fill(doc, arimaStatisticsID, "arima-statistics", rows)
}

type significanceRow struct {
	Param  string
	PValue string
	Label  string
	Weak   bool
}

type arimaInterpretation struct {
	Text           string
	BottomLine     string
	BusinessImpact string
	Recommendation string
	Findings       []labeled
	About          string
}

type arimaCard struct {
	Symbol         string
	Spec           string
	Stats          []labeled
	Params         []labeled
	Significance   []significanceRow
	ForecastInfo   string
	HasIntervals   bool
	Residuals      []labeled
	LjungBox       string
	JarqueBera     string
	Forecasts      []labeled
	MoreForecasts  int
	Interpretation *arimaInterpretation
}

func (r *ModelsRenderer) arimaResults(doc *Document, arima map[string]map[string]any) error {
	if len(arima) == 0 {
		return warning(doc, arimaResultsID, "No ARIMA results available.")
	}
	cards := make([]arimaCard, 0, len(arima))
	for _, sym := range models.SortedKeys(arima) {
		cards = append(cards, buildARIMACard(sym, arima[sym]))
	}
	return fill(doc, arimaResultsID, "arima-results", cards)
}

func buildARIMACard(symbol string, result map[string]any) arimaCard {
	summary := models.AsMap(result["summary"])
	card := arimaCard{Symbol: symbol, Spec: "Model specification not available"}

	if spec := models.TextOf(result["model_specification"]); spec != "" {
		card.Spec = spec
	} else if spec := models.TextOf(summary["model_specification"]); spec != "" {
		card.Spec = spec
	}

	card.Stats = []labeled{
		{"Sample Size", truthyTextOr(summary["sample_size"], notAvailable)},
		{"Log Likelihood", fixed(summary["log_likelihood"], 4)},
		{"AIC", fixed(summary["aic"], 4)},
		{"BIC", fixed(summary["bic"], 4)},
		{"HQIC", fixed(summary["hqic"], 4)},
	}

	// Parameters, p-values and significance all come from the same source.
	source := summary
	if _, ok := result["parameters"]; ok && result["parameters"] != nil {
		source = result
	}
	params := models.AsMap(source["parameters"])
	for _, name := range models.SortedKeys(params) {
		card.Params = append(card.Params, labeled{Label: name, Value: fixed(params[name], 4)})
	}
	pvalues := models.AsMap(source["parameter_pvalues"])
	significance := models.AsMap(source["parameter_significance"])
	if len(pvalues) > 0 && len(significance) > 0 {
		for _, name := range models.SortedKeys(pvalues) {
			label := textOr(significance[name], notAvailable)
			card.Significance = append(card.Significance, significanceRow{
				Param:  name,
				PValue: fixed(pvalues[name], 4),
				Label:  label,
				Weak:   label == "Not significant",
			})
		}
	}

	card.ForecastInfo = "No forecast available"
	var points []any
	switch forecast := result["forecast"].(type) {
	case map[string]any:
		points = models.AsSlice(forecast["point_forecasts"])
		if len(points) > 0 {
			card.ForecastInfo = strconv.Itoa(len(points)) + " forecast points"
			if method := models.TextOf(forecast["forecast_method"]); method != "" {
				card.ForecastInfo += " (" + method + ")"
			}
		}
		card.HasIntervals = models.Truthy(forecast["confidence_intervals"])
	case []any:
		points = forecast
		if len(points) > 0 {
			card.ForecastInfo = strconv.Itoa(len(points)) + " forecast points"
		}
	}
	for i, p := range points {
		if i == shownForecasts {
			card.MoreForecasts = len(points) - shownForecasts
			break
		}
		card.Forecasts = append(card.Forecasts, labeled{Label: "Step " + strconv.Itoa(i+1), Value: fixed(p, 6)})
	}

	residuals := models.AsMap(result["residual_statistics"])
	if residuals == nil {
		residuals = models.AsMap(summary["residual_statistics"])
	}
	card.Residuals = []labeled{
		{"Mean", fixed(residuals["mean"], 4)},
		{"Variance", fixed(residuals["variance"], 4)},
		{"Min", fixed(residuals["min"], 4)},
		{"Max", fixed(residuals["max"], 4)},
		{"Autocorr Lag1", fixed(residuals["autocorrelation_lag1"], 4)},
	}
	card.LjungBox = truthyTextOr(residuals["ljung_box_test"], "See full summary")
	card.JarqueBera = truthyTextOr(residuals["jarque_bera_test"], "See full summary")

	card.Interpretation = arimaInterpretationOf(models.AsMap(result["interpretation"]))
	return card
}

func arimaInterpretationOf(interp map[string]any) *arimaInterpretation {
	switch es := interp["executive_summary"].(type) {
	case string:
		if strings.TrimSpace(es) == "" {
			return nil
		}
		return &arimaInterpretation{Text: strings.TrimSpace(es)}
	case map[string]any:
		out := &arimaInterpretation{
			BottomLine:     truthyTextOr(es["bottom_line"], "No summary available"),
			BusinessImpact: truthyTextOr(es["business_impact"], "No impact assessment"),
			Recommendation: truthyTextOr(es["recommendation"], "No recommendations"),
		}
		findings := models.AsMap(interp["key_findings"])
		for _, f := range []labeled{
			{"Trend", "forecast_trend"},
			{"Performance", "model_performance"},
			{"Statistics", "forecast_statistics"},
		} {
			if text := models.TextOf(findings[f.Value]); text != "" {
				out.Findings = append(out.Findings, labeled{Label: f.Label, Value: text})
			}
		}
		if about, ok := models.Lookup(interp, "business_context", "what_is_arima"); ok {
			out.About = truncate(models.TextOf(about), aboutARIMALen)
		}
		return out
	default:
		return nil
	}
}

type garchCard struct {
	Symbol         string
	Spec           string
	Params         []labeled
	FitStats       []labeled
	VolatilityInfo string
	LatestForecast string
	Interpretation string
}

func (r *ModelsRenderer) garchResults(doc *Document, garch map[string]map[string]any) error {
	if len(garch) == 0 {
		return warning(doc, garchResultsID, "No GARCH results available.")
	}
	cards := make([]garchCard, 0, len(garch))
	for _, sym := range models.SortedKeys(garch) {
		cards = append(cards, buildGARCHCard(sym, garch[sym]))
	}
	return fill(doc, garchResultsID, "garch-results", cards)
}

func buildGARCHCard(symbol string, result map[string]any) garchCard {
	card := garchCard{Symbol: symbol, Spec: garchLabel(result)}

	card.VolatilityInfo = "No volatility forecast available"
	switch forecast := result["forecast"].(type) {
	case []any:
		if len(forecast) > 0 {
			card.VolatilityInfo = strconv.Itoa(len(forecast)) + " volatility forecast points"
			card.LatestForecast = fixed(forecast[len(forecast)-1], 6)
		}
	case map[string]any:
		if models.Truthy(forecast["volatility_forecast"]) {
			card.VolatilityInfo = "Volatility forecast available"
		}
	}

	summary := models.AsMap(result["model_summary"])
	params := models.AsMap(summary["parameters"])
	for _, name := range models.SortedKeys(params) {
		card.Params = append(card.Params, labeled{Label: name, Value: fixed(params[name], 4)})
	}
	if fit := models.AsMap(summary["fit_statistics"]); fit != nil {
		card.FitStats = []labeled{
			{"Log Likelihood", fixed(fit["log_likelihood"], 4)},
			{"AIC", fixed(fit["aic"], 4)},
		}
	}

	switch interp := result["interpretation"].(type) {
	case string:
		card.Interpretation = strings.TrimSpace(interp)
	case map[string]any:
		if es, ok := interp["executive_summary"]; ok && models.Truthy(es) {
			card.Interpretation = jsonText(es)
		}
	}
	return card
}

// garchLabel names the fitted model. A structured model_specification wins;
// otherwise the fitted_model summary text is scanned for the first line that
// looks like a model header. A summary with no such line is assumed to be
// GARCH(1,1).
func garchLabel(result map[string]any) string {
	if spec := models.TextOf(result["model_specification"]); spec != "" {
		return spec
	}
	text, ok := result["fitted_model"].(string)
	if !ok || text == "" {
		return "Model specification not available"
	}
	for _, line := range strings.Split(text, "\n") {
		if !strings.Contains(line, "GARCH") && !strings.Contains(line, "Constant Variance") && !strings.Contains(line, "Model:") {
			continue
		}
		if m := garchOrderPattern.FindString(line); m != "" {
			return m
		}
		if strings.Contains(line, "GARCH") {
			return strings.TrimSpace(line)
		}
		return "GARCH Model"
	}
	return "GARCH(1,1)"
}

type fevdTable struct {
	Columns []string
	Rows    []seriesRow
}

func (r *ModelsRenderer) varResults(doc *Document, v map[string]any) error {
	if len(v) == 0 {
		return placeholder(doc, varResultsID, "VAR model results not available.")
	}

	view := struct {
		Summary        []labeled
		FEVD           fevdTable
		Interpretation string
	}{
		Summary: []labeled{
			{"Selected Lag", textOr(firstOf(v, "selected_lag", "lag_order"), notAvailable)},
			{"Information Criterion", textOr(firstOf(v, "ic_used", "information_criterion"), notAvailable)},
		},
		FEVD: fevdOf(models.AsMap(v["fevd_matrix"])),
	}
	if interp, ok := v["interpretation"]; ok && interp != nil {
		view.Interpretation = jsonText(interp)
	}
	return fill(doc, varResultsID, "var-results", view)
}

func firstOf(m map[string]any, keys ...string) any {
	for _, k := range keys {
		if v, ok := m[k]; ok && v != nil {
			return v
		}
	}
	return nil
}

// fevdOf flattens {target: {source: share}} into a square table. Columns
// are the union of sources.
func fevdOf(matrix map[string]any) fevdTable {
	var t fevdTable
	seen := map[string]bool{}
	for _, target := range models.SortedKeys(matrix) {
		for source := range models.AsMap(matrix[target]) {
			seen[source] = true
		}
	}
	t.Columns = models.SortedKeys(seen)
	for _, target := range models.SortedKeys(matrix) {
		row := models.AsMap(matrix[target])
		if row == nil {
			continue
		}
		cells := make([]string, 0, len(t.Columns))
		for _, col := range t.Columns {
			cells = append(cells, fixed(row[col], 4))
		}
		t.Rows = append(t.Rows, seriesRow{Symbol: target, Cells: cells})
	}
	return t
}
