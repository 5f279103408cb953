package services

import (
	"strings"

	"github.com/irfndi/timeseries-dashboard/internal/models"
)

// Decoders turning loosely typed payload sections into ProcessedResults
// parts. A value of the wrong type reads as absent; none of them fail.

func decodeOverview(m map[string]any) *models.Overview {
	ov := &models.Overview{}
	if es := models.AsMap(m["executive_summary"]); es != nil {
		ov.ExecutiveSummary = decodeExecutiveSummary(es)
	}
	if as := models.AsMap(m["analysis_summary"]); as != nil {
		ov.AnalysisSummary = decodeAnalysisSummary(as)
	}
	if insights, ok := models.StringList(m["key_insights"]); ok {
		ov.KeyInsights = insights
	}
	ov.Filename, _ = models.AsString(m["filename"])
	return ov
}

func decodeExecutiveSummary(m map[string]any) *models.ExecutiveSummary {
	es := &models.ExecutiveSummary{}
	es.SymbolsAnalyzed, _ = models.AsInt(m["symbols_analyzed"])
	switch list := m["symbols_list"].(type) {
	case string:
		es.SymbolsList = list
	case []any:
		names, _ := models.StringList(list)
		es.SymbolsList = strings.Join(names, ", ")
	}
	es.AnalysisDate = models.TextOf(m["analysis_date"])
	es.KeyFindings, _ = models.StringList(m["key_findings"])
	return es
}

func decodeAnalysisSummary(m map[string]any) *models.AnalysisSummary {
	as := &models.AnalysisSummary{}
	as.DataPoints, _ = models.AsInt(m["data_points"])
	as.ModelsFitted, _ = models.StringList(m["models_fitted"])
	as.TestsPerformed, _ = models.StringList(m["tests_performed"])
	return as
}

func decodeStatisticalTests(stationarity, seriesStats map[string]any) *models.StatisticalTests {
	st := &models.StatisticalTests{
		Stationarity:     make(map[string]*models.StationarityResult, len(stationarity)),
		SeriesStatistics: make(map[string]*models.SeriesStatistics, len(seriesStats)),
	}
	for symbol, v := range stationarity {
		if res := models.AsMap(v); res != nil {
			st.Stationarity[symbol] = decodeStationarity(res)
		}
	}
	for symbol, v := range seriesStats {
		if stats := models.AsMap(v); stats != nil {
			st.SeriesStatistics[symbol] = decodeSeriesStatistics(stats)
		}
	}
	return st
}

func decodeStationarity(m map[string]any) *models.StationarityResult {
	res := &models.StationarityResult{
		ADFStatistic:   models.FloatPtr(m["adf_statistic"]),
		PValue:         models.FloatPtr(m["p_value"]),
		IsStationary:   models.AsBool(m["is_stationary"]),
		Interpretation: m["interpretation"],
	}
	if cv := models.AsMap(m["critical_values"]); cv != nil {
		res.CriticalValues = make(map[string]*float64, len(cv))
		for level, v := range cv {
			res.CriticalValues[level] = models.FloatPtr(v)
		}
	}
	return res
}

func decodeSeriesStatistics(m map[string]any) *models.SeriesStatistics {
	return &models.SeriesStatistics{
		N:                models.FloatPtr(m["n"]),
		Mean:             models.FloatPtr(m["mean"]),
		Median:           models.FloatPtr(m["median"]),
		Min:              models.FloatPtr(m["min"]),
		Max:              models.FloatPtr(m["max"]),
		Std:              models.FloatPtr(m["std"]),
		Var:              models.FloatPtr(m["var"]),
		Skew:             models.FloatPtr(m["skew"]),
		Kurt:             models.FloatPtr(m["kurt"]),
		AnnualizedVol:    models.FloatPtr(m["annualized_vol"]),
		AnnualizedReturn: models.FloatPtr(m["annualized_return"]),
		SharpeApprox:     models.FloatPtr(m["sharpe_approx"]),
	}
}

// decodeSymbolMap keeps the entries of m whose values are objects.
func decodeSymbolMap(m map[string]any) map[string]map[string]any {
	out := make(map[string]map[string]any, len(m))
	for symbol, v := range m {
		if res := models.AsMap(v); res != nil {
			out[symbol] = res
		}
	}
	return out
}

func decodeModels(m map[string]any) *models.Models {
	return &models.Models{
		ARIMA: decodeSymbolMap(models.AsMap(m["arima"])),
		GARCH: decodeSymbolMap(models.AsMap(m["garch"])),
		VAR:   models.AsMap(m["var"]),
	}
}

func decodeSpillover(m map[string]any) *models.SpilloverAnalysis {
	sa := &models.SpilloverAnalysis{}

	if total := models.AsMap(m["total_spillover"]); total != nil {
		if _, ok := total["index"]; ok && total["index"] != nil {
			idx, _ := models.AsFloat(total["index"])
			sa.TotalSpillover = &models.TotalSpillover{
				Index:          idx,
				Interpretation: models.TextOf(total["interpretation"]),
			}
		}
	}

	if dir := models.AsMap(m["directional_spillover"]); dir != nil {
		sa.DirectionalSpillover = make(map[string]*models.DirectionalSpillover, len(dir))
		for symbol, v := range dir {
			entry := models.AsMap(v)
			if entry == nil {
				continue
			}
			to, _ := models.AsFloat(entry["to"])
			from, _ := models.AsFloat(entry["from"])
			sa.DirectionalSpillover[symbol] = &models.DirectionalSpillover{To: to, From: from}
		}
	}

	if net := models.AsMap(m["net_spillover"]); net != nil {
		sa.NetSpillover = make(map[string]float64, len(net))
		for symbol, v := range net {
			if f, ok := models.AsFloat(v); ok {
				sa.NetSpillover[symbol] = f
			}
		}
	}

	if rows, ok := m["pairwise_spillover_table"].([]any); ok {
		sa.PairwiseSpilloverTable = make([]models.PairwiseSpillover, 0, len(rows))
		for _, v := range rows {
			row := models.AsMap(v)
			if row == nil {
				continue
			}
			sa.PairwiseSpilloverTable = append(sa.PairwiseSpilloverTable, models.PairwiseSpillover{
				From:                models.TextOf(row["from"]),
				To:                  models.TextOf(row["to"]),
				RSquared:            models.FloatPtr(row["r_squared"]),
				RSquaredPercent:     models.FloatPtr(row["r_squared_percent"]),
				SignificantLagsText: models.TextOf(row["significant_lags_text"]),
				Strength:            models.TextOf(row["strength"]),
			})
		}
	}

	sa.GrangerCausality = decodeGranger(models.AsMap(m["granger_causality"]))
	return sa
}

// decodeGranger returns nil for an absent or empty object.
func decodeGranger(m map[string]any) *models.GrangerCausality {
	if len(m) == 0 {
		return nil
	}
	gc := &models.GrangerCausality{Metadata: models.AsMap(m["metadata"])}
	if results := models.AsMap(m["causality_results"]); results != nil {
		gc.CausalityResults = make(map[string]*models.GrangerResult, len(results))
		for relationship, v := range results {
			res := models.AsMap(v)
			if res == nil {
				continue
			}
			minP, _ := models.Lookup(res, "significance_summary", "min_p_value")
			gc.CausalityResults[relationship] = &models.GrangerResult{
				Causality1Pct: models.AsBool(res["causality_1pct"]),
				Causality5Pct: models.AsBool(res["causality_5pct"]),
				MinPValue:     models.FloatPtr(minP),
			}
		}
	}
	return gc
}

func decodeLineage(m map[string]any) *models.DataLineage {
	dl := &models.DataLineage{}
	for _, v := range models.AsSlice(m["pipeline_stages"]) {
		stage := models.AsMap(v)
		if stage == nil {
			continue
		}
		count, _ := models.AsInt(stage["record_count"])
		dl.PipelineStages = append(dl.PipelineStages, models.PipelineStage{
			Name:          models.TextOf(stage["name"]),
			DataAvailable: models.AsBool(stage["data_available"]),
			RecordCount:   count,
		})
	}
	if sets := models.AsMap(m["data_sets"]); sets != nil {
		dl.DataSets = decodeTables(sets)
	}
	return dl
}

func decodeTables(m map[string]any) map[string]*models.Table {
	out := make(map[string]*models.Table, len(m))
	for key, v := range m {
		if t := decodeTable(models.AsMap(v)); t != nil {
			out[key] = t
		}
	}
	return out
}

func decodeTable(m map[string]any) *models.Table {
	if m == nil {
		return nil
	}
	headerValues, ok := m["headers"].([]any)
	if !ok {
		return nil
	}
	t := &models.Table{Headers: make([]string, 0, len(headerValues))}
	for _, h := range headerValues {
		t.Headers = append(t.Headers, models.CellText(h))
	}
	for _, r := range models.AsSlice(m["rows"]) {
		if cells, ok := r.([]any); ok {
			t.Rows = append(t.Rows, cells)
		}
	}
	return t
}
