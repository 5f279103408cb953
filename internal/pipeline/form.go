package pipeline

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/irfndi/timeseries-dashboard/internal/models"
	"github.com/irfndi/timeseries-dashboard/internal/utils"
)

// Form field defaults applied when the analysis form leaves a field empty.
const (
	DefaultSourceType       = "synthetic"
	DefaultScalingMethod    = "standardize"
	DefaultGARCHDist        = "t"
	DefaultSpilloverMethod  = "diebold_yilmaz"
	DefaultLagSelection     = "aic"
	DefaultARIMASteps       = 10
	DefaultGARCHSteps       = 3
	DefaultForecastHorizon  = 5
	DefaultMaxLags          = 10
	DefaultGrangerSignLevel = 0.05
)

// ParseForm builds a pipeline request from the analysis form submission.
func ParseForm(form url.Values) (*models.PipelineRequest, error) {
	p := formParser{form: form}

	symbols := splitList(firstNonEmpty(form, "synthetic_symbols", "symbols", "manual_symbol"))
	if len(symbols) == 0 {
		return nil, utils.NewFieldError("symbols", "at least one symbol is required")
	}

	var prices []float64
	for _, s := range splitList(form.Get("synthetic_anchor_prices")) {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, utils.NewFieldError("synthetic_anchor_prices", "%q is not a number", s)
		}
		prices = append(prices, v)
	}
	anchors := make(map[string]float64, len(prices))
	for i := 0; i < len(symbols) && i < len(prices); i++ {
		anchors[symbols[i]] = prices[i]
	}

	req := &models.PipelineRequest{
		SourceType:            p.text(sourceField(form), DefaultSourceType),
		Symbols:               symbols,
		SyntheticAnchorPrices: anchors,
		DataStartDate:         strings.TrimSpace(form.Get("data_start_date")),
		DataEndDate:           strings.TrimSpace(form.Get("data_end_date")),
		ScalingMethod:         p.text("scaling_method", DefaultScalingMethod),
		ARIMAParams: models.ARIMAParams{
			P:             p.integer("arima_p", 1),
			D:             p.integer("arima_d", 1),
			Q:             p.integer("arima_q", 1),
			ForecastSteps: p.integer("arima_forecast_steps", DefaultARIMASteps),
		},
		GARCHParams: models.GARCHParams{
			P:             p.integer("garch_p", 1),
			Q:             p.integer("garch_q", 1),
			Dist:          p.text("garch_dist", DefaultGARCHDist),
			ForecastSteps: DefaultGARCHSteps,
		},
		SpilloverEnabled: form.Get("enable_spillover") == "on",
		SpilloverParams: models.SpilloverParams{
			Method:                   p.text("spillover_method", DefaultSpilloverMethod),
			ForecastHorizon:          p.integer("forecast_horizon", DefaultForecastHorizon),
			VARLagSelectionMethod:    p.text("var_lag_selection_method", DefaultLagSelection),
			MaxLags:                  p.integer("max_lags", DefaultMaxLags),
			GrangerSignificanceLevel: p.number("granger_significance_level", DefaultGrangerSignLevel),
			IncludeGranger:           form.Get("include_granger") == "on",
			IncludeFEVDDetails:       form.Get("include_fevd_details") == "on",
		},
	}
	if p.err != nil {
		return nil, p.err
	}
	return req, nil
}

// formParser keeps the first conversion error so fields can be read in one pass.
type formParser struct {
	form url.Values
	err  error
}

func (p *formParser) text(field, fallback string) string {
	if v := strings.TrimSpace(p.form.Get(field)); v != "" {
		return v
	}
	return fallback
}

func (p *formParser) integer(field string, fallback int) int {
	raw := strings.TrimSpace(p.form.Get(field))
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		if p.err == nil {
			p.err = utils.NewFieldError(field, "%q is not a non-negative integer", raw)
		}
		return fallback
	}
	return v
}

func (p *formParser) number(field string, fallback float64) float64 {
	raw := strings.TrimSpace(p.form.Get(field))
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		if p.err == nil {
			p.err = utils.NewFieldError(field, "%q is not a number", raw)
		}
		return fallback
	}
	return v
}

// sourceField picks the data source field; the dashboard form posts the
// radio group name, API clients the backend field name.
func sourceField(form url.Values) string {
	if strings.TrimSpace(form.Get("source_actual_or_synthetic_data")) == "" && form.Has("data_source") {
		return "data_source"
	}
	return "source_actual_or_synthetic_data"
}

func firstNonEmpty(form url.Values, fields ...string) string {
	for _, f := range fields {
		if v := strings.TrimSpace(form.Get(f)); v != "" {
			return v
		}
	}
	return ""
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
