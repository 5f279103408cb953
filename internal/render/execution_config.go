package render

import (
	"strings"
	"time"

	"github.com/irfndi/timeseries-dashboard/internal/models"
	"github.com/irfndi/timeseries-dashboard/internal/utils"
)

const (
	dataSourceConfigID     = "data-source-config-content"
	dataProcessingConfigID = "data-processing-config-content"
	arimaConfigID          = "arima-config-content"
	garchConfigID          = "garch-config-content"
	spilloverConfigID      = "spillover-config-content"
	executionMetadataID    = "execution-metadata-content"

	configUnavailable = "Configuration data not available"
)

var executionConfigIDs = []string{
	dataSourceConfigID,
	dataProcessingConfigID,
	arimaConfigID,
	garchConfigID,
	spilloverConfigID,
	executionMetadataID,
}

// ExecutionConfigRenderer describes how the run was configured. It reads
// execution_configuration straight from the raw response.
type ExecutionConfigRenderer struct {
	opts Options
}

func (r *ExecutionConfigRenderer) Name() string { return "execution-config" }

func (r *ExecutionConfigRenderer) Render(doc *Document, _ *models.ProcessedResults, raw *models.RawResponse) error {
	cfg, ok := raw.Object("execution_configuration")
	if !ok {
		for _, id := range executionConfigIDs {
			if err := placeholder(doc, id, configUnavailable); err != nil {
				return err
			}
		}
		return nil
	}

	steps := []func(*Document, map[string]any) error{
		r.dataSource,
		r.dataProcessing,
		r.arima,
		r.garch,
		r.spillover,
		r.metadata,
	}
	for _, step := range steps {
		if err := step(doc, cfg); err != nil {
			return err
		}
	}
	return nil
}

func (r *ExecutionConfigRenderer) dataSource(doc *Document, cfg map[string]any) error {
	ds := models.AsMap(cfg["data_source"])
	if ds == nil {
		return placeholder(doc, dataSourceConfigID, configUnavailable)
	}

	symbols := notAvailable
	if list, ok := ds["symbols"].([]any); ok {
		parts := make([]string, 0, len(list))
		for _, s := range list {
			parts = append(parts, models.TextOf(s))
		}
		symbols = strings.Join(parts, ", ")
	}

	view := struct {
		SourceType   string
		StartDate    string
		EndDate      string
		Symbols      string
		Synthetic    bool
		AnchorPrices []labeled
		RandomSeed   string
	}{
		SourceType: textOr(ds["source_type"], notAvailable),
		StartDate:  textOr(ds["start_date"], notAvailable),
		EndDate:    textOr(ds["end_date"], notAvailable),
		Symbols:    symbols,
		RandomSeed: textOr(ds["synthetic_random_seed"], notAvailable),
	}

	if models.TextOf(ds["source_type"]) == "synthetic" && models.Truthy(ds["synthetic_anchor_prices"]) {
		view.Synthetic = true
		prices := models.AsMap(ds["synthetic_anchor_prices"])
		for _, sym := range models.SortedKeys(prices) {
			view.AnchorPrices = append(view.AnchorPrices, labeled{Label: sym, Value: models.TextOf(prices[sym])})
		}
	}
	return fill(doc, dataSourceConfigID, "data-source-config", view)
}

func (r *ExecutionConfigRenderer) dataProcessing(doc *Document, cfg map[string]any) error {
	dp := models.AsMap(cfg["data_processing"])
	if dp == nil {
		return placeholder(doc, dataProcessingConfigID, configUnavailable)
	}
	view := struct {
		ScalingMethod         string
		MissingValuesEnabled  bool
		MissingValuesStrategy string
		StationarityEnabled   bool
		PValueThreshold       string
	}{
		ScalingMethod:         textOr(dp["scaling_method"], notAvailable),
		MissingValuesEnabled:  models.Truthy(dp["missing_values_enabled"]),
		MissingValuesStrategy: textOr(dp["missing_values_strategy"], notAvailable),
		StationarityEnabled:   models.Truthy(dp["stationarity_test_enabled"]),
		PValueThreshold:       textOr(dp["stationarity_test_p_value_threshold"], notAvailable),
	}
	return fill(doc, dataProcessingConfigID, "data-processing-config", view)
}

func (r *ExecutionConfigRenderer) arima(doc *Document, cfg map[string]any) error {
	v, ok := models.Lookup(cfg, "model_configurations", "arima_params")
	params := models.AsMap(v)
	if !ok || params == nil {
		return placeholder(doc, arimaConfigID, configUnavailable)
	}
	view := struct {
		P, D, Q       string
		ForecastSteps string
		Enabled       bool
	}{
		P:             textOr(params["p"], notAvailable),
		D:             textOr(params["d"], notAvailable),
		Q:             textOr(params["q"], notAvailable),
		ForecastSteps: textOr(params["forecast_steps"], notAvailable),
		Enabled:       models.Truthy(params["enabled"]),
	}
	return fill(doc, arimaConfigID, "arima-config", view)
}

func (r *ExecutionConfigRenderer) garch(doc *Document, cfg map[string]any) error {
	v, ok := models.Lookup(cfg, "model_configurations", "garch_params")
	params := models.AsMap(v)
	if !ok || params == nil {
		return placeholder(doc, garchConfigID, configUnavailable)
	}
	view := struct {
		P, Q             string
		Dist             string
		ForecastSteps    string
		VolatilityFormat string
		Enabled          bool
		ResidualsAsInput bool
	}{
		P:                textOr(params["p"], notAvailable),
		Q:                textOr(params["q"], notAvailable),
		Dist:             textOr(params["dist"], notAvailable),
		ForecastSteps:    textOr(params["forecast_steps"], notAvailable),
		VolatilityFormat: textOr(params["volatility_format"], notAvailable),
		Enabled:          models.Truthy(params["enabled"]),
		ResidualsAsInput: models.Truthy(params["residuals_as_input"]),
	}
	return fill(doc, garchConfigID, "garch-config", view)
}

func (r *ExecutionConfigRenderer) spillover(doc *Document, cfg map[string]any) error {
	sc := models.AsMap(cfg["spillover_configuration"])
	if sc == nil {
		return placeholder(doc, spilloverConfigID, configUnavailable)
	}

	view := struct {
		Enabled        bool
		Params         []labeled
		GrangerEnabled bool
		GrangerParams  []labeled
	}{
		Enabled:        models.Truthy(sc["spillover_enabled"]),
		GrangerEnabled: models.Truthy(sc["granger_causality_enabled"]),
	}

	if params := models.AsMap(sc["spillover_params"]); view.Enabled && params != nil {
		view.Params = []labeled{
			{"Method", textOr(params["method"], notAvailable)},
			{"Forecast Horizon", textOr(params["forecast_horizon"], notAvailable)},
			{"Max Lags", textOr(params["max_lags"], notAvailable)},
			{"VAR Lag Selection", textOr(params["var_lag_selection_method"], notAvailable)},
			{"Granger Significance", textOr(params["granger_significance_level"], notAvailable)},
		}
	}
	if view.GrangerEnabled {
		view.GrangerParams = []labeled{
			{"Max Lag", textOr(sc["granger_causality_max_lag"], notAvailable)},
			{"Analysis Method", textOr(sc["spillover_analysis_method"], notAvailable)},
			{"Forecast Horizon", textOr(sc["spillover_forecast_horizon"], notAvailable)},
			{"VAR Max Lags", textOr(sc["var_max_lags"], notAvailable)},
		}
	}
	return fill(doc, spilloverConfigID, "spillover-config", view)
}

func (r *ExecutionConfigRenderer) metadata(doc *Document, cfg map[string]any) error {
	meta := models.AsMap(cfg["execution_metadata"])
	if meta == nil {
		return placeholder(doc, executionMetadataID, configUnavailable)
	}

	duration := notAvailable
	if secs, ok := models.AsFloat(meta["execution_time_seconds"]); ok && secs != 0 {
		duration = utils.ToFixed(secs, 2) + "s"
	}

	view := struct {
		Timestamp           string
		Duration            string
		ConfigurationSource string
		APIVersion          string
		PipelineVersion     string
	}{
		Timestamp:           formatTimestamp(models.TextOf(meta["execution_timestamp"]), r.opts.Location),
		Duration:            duration,
		ConfigurationSource: textOr(meta["configuration_source"], notAvailable),
		APIVersion:          textOr(meta["api_version"], notAvailable),
		PipelineVersion:     textOr(meta["pipeline_version"], notAvailable),
	}
	return fill(doc, executionMetadataID, "execution-metadata", view)
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
}

// formatTimestamp renders an ISO timestamp as "2006-01-02 15:04:05 MST" in
// loc. Timestamps without a zone are read as loc. Unparseable input is
// shown unchanged.
func formatTimestamp(ts string, loc *time.Location) string {
	if ts == "" {
		return notAvailable
	}
	if loc == nil {
		loc = time.UTC
	}
	for _, layout := range timestampLayouts {
		t, err := time.ParseInLocation(layout, ts, loc)
		if err == nil {
			return t.In(loc).Format("2006-01-02 15:04:05 MST")
		}
	}
	return ts
}
