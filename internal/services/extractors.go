package services

import "github.com/irfndi/timeseries-dashboard/internal/models"

// Extractor inspects one location of a loosely typed payload and reports
// whether an object was found there.
type Extractor func(root map[string]any) (map[string]any, bool)

// PathExtractor matches when the value at path is a JSON object.
func PathExtractor(path ...string) Extractor {
	return func(root map[string]any) (map[string]any, bool) {
		v, ok := models.Lookup(root, path...)
		if !ok {
			return nil, false
		}
		m, ok := v.(map[string]any)
		return m, ok
	}
}

// FirstMatch tries each extractor in order and returns the first match.
func FirstMatch(root map[string]any, chain []Extractor) (map[string]any, bool) {
	for _, extract := range chain {
		if m, ok := extract(root); ok {
			return m, true
		}
	}
	return nil, false
}

// ModelExtractors lists where per-symbol results of model ("arima" or
// "garch") have been seen, most specific first. The last entry treats the
// whole <model>_results object as the per-symbol mapping.
func ModelExtractors(model string) []Extractor {
	key := model + "_results"
	nested := "all_symbols_" + model
	return []Extractor{
		PathExtractor(key, "results", nested),
		PathExtractor(key, nested),
		PathExtractor(key),
	}
}

// StationarityExtractors unwraps all_symbols_stationarity, once more when
// the backend nested it under its own name.
var StationarityExtractors = []Extractor{
	PathExtractor("stationarity_results", "all_symbols_stationarity", "all_symbols_stationarity"),
	PathExtractor("stationarity_results", "all_symbols_stationarity"),
}

// ShimModelExtractors locate <model>_results.results for the models
// compatibility bridge, preferring the copy inside processed_results.
func ShimModelExtractors(model string) []Extractor {
	key := model + "_results"
	return []Extractor{
		PathExtractor("processed_results", key, "results"),
		PathExtractor(key, "results"),
	}
}
