package services

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/irfndi/timeseries-dashboard/internal/models"
	"github.com/irfndi/timeseries-dashboard/internal/utils"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Columns that never name a symbol when symbols are derived from headers.
var nonSymbolColumns = map[string]bool{"index": true, "timestamp": true, "date": true}

// Normalizer turns a backend payload into ProcessedResults. The backend's
// own processed_results are preferred; otherwise the results are derived
// from the raw sections.
type Normalizer struct {
	now    func() time.Time
	logger *slog.Logger
}

// NormalizerOption configures a Normalizer.
type NormalizerOption func(*Normalizer)

// WithClock replaces time.Now for the overview's analysis date.
func WithClock(now func() time.Time) NormalizerOption {
	return func(n *Normalizer) { n.now = now }
}

func NewNormalizer(logger *slog.Logger, opts ...NormalizerOption) *Normalizer {
	if logger == nil {
		logger = slog.Default()
	}
	n := &Normalizer{
		now:    time.Now,
		logger: logger,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Normalize never fails: missing or malformed optional fields degrade to
// empty collections, zero values or nil sections.
func (n *Normalizer) Normalize(raw *models.RawResponse) *models.ProcessedResults {
	if raw == nil {
		raw = models.NewRawResponse(nil)
	}
	if processed, ok := raw.Object("processed_results"); ok {
		n.logger.Debug("Using server-processed results")
		return n.fromServer(raw, processed)
	}
	n.logger.Debug("Server-processed results not available, deriving from raw sections")
	return n.fromRaw(raw)
}

func (n *Normalizer) fromServer(raw *models.RawResponse, processed map[string]any) *models.ProcessedResults {
	out := &models.ProcessedResults{}

	if ov := models.AsMap(processed["overview"]); ov != nil {
		out.Overview = decodeOverview(ov)
	}
	if st := models.AsMap(processed["statistical_tests"]); st != nil {
		out.StatisticalTests = decodeStatisticalTests(
			models.AsMap(st["stationarity"]),
			models.AsMap(st["series_statistics"]),
		)
	}
	if m := models.AsMap(processed["models"]); m != nil {
		out.Models = decodeModels(m)
	} else {
		out.Models = n.modelsShim(raw, processed)
	}
	if sa := models.AsMap(processed["spillover_analysis"]); sa != nil {
		out.SpilloverAnalysis = decodeSpillover(sa)
	}
	if dl := models.AsMap(processed["data_lineage"]); dl != nil {
		out.DataLineage = decodeLineage(dl)
	}
	if rd := models.AsMap(processed["raw_data"]); rd != nil {
		out.RawData = decodeTables(rd)
	}
	return out
}

// modelsShim bridges older API versions that returned model results next to
// processed_results instead of inside processed_results.models.
func (n *Normalizer) modelsShim(raw *models.RawResponse, processed map[string]any) *models.Models {
	_, inProcessed := processed["arima_results"]
	_, arima := raw.Get("arima_results")
	_, garch := raw.Get("garch_results")
	_, varRes := raw.Get("var_results")
	if !inProcessed && !arima && !garch && !varRes {
		return nil
	}

	root := raw.Fields
	arimaMap, _ := FirstMatch(root, ShimModelExtractors("arima"))
	garchMap, _ := FirstMatch(root, ShimModelExtractors("garch"))
	varMap, _ := raw.Object("var_results")

	n.logger.Debug("Synthesized models section from legacy result keys")
	return &models.Models{
		ARIMA: decodeSymbolMap(arimaMap),
		GARCH: decodeSymbolMap(garchMap),
		VAR:   varMap,
	}
}

func (n *Normalizer) fromRaw(raw *models.RawResponse) *models.ProcessedResults {
	root := raw.Fields

	// Stationarity.
	stationarity, _ := FirstMatch(root, StationarityExtractors)
	seriesStats, _ := models.Lookup(root, "stationarity_results", "series_stats")
	tests := decodeStatisticalTests(stationarity, models.AsMap(seriesStats))

	// Spillover. Granger results are taken whether or not spillover_results exists.
	spillover := n.spilloverFromRaw(raw)

	// Models.
	mdl := &models.Models{
		ARIMA: map[string]map[string]any{},
		GARCH: map[string]map[string]any{},
	}
	if m, ok := FirstMatch(root, ModelExtractors("arima")); ok {
		mdl.ARIMA = decodeSymbolMap(m)
	}
	if m, ok := FirstMatch(root, ModelExtractors("garch")); ok {
		mdl.GARCH = decodeSymbolMap(m)
	}
	mdl.VAR, _ = raw.Object("var_results")

	rawData := n.tablesFromRaw(raw)
	lineage := &models.DataLineage{
		PipelineStages: n.stagesFromRaw(raw),
		DataSets:       rawData,
	}

	symbols := n.symbolsFromRaw(raw)

	return &models.ProcessedResults{
		Overview:          n.synthesizeOverview(raw, symbols, tests, mdl, spillover),
		StatisticalTests:  tests,
		Models:            mdl,
		SpilloverAnalysis: spillover,
		DataLineage:       lineage,
		RawData:           rawData,
	}
}

func (n *Normalizer) spilloverFromRaw(raw *models.RawResponse) *models.SpilloverAnalysis {
	loose := map[string]any{}
	if sr, ok := raw.Object("spillover_results"); ok {
		if idx, ok := sr["total_spillover_index"]; ok && idx != nil {
			interp := sr["total_spillover_interpretation"]
			if interp == nil {
				interp = ""
			}
			loose["total_spillover"] = map[string]any{"index": idx, "interpretation": interp}
		}
		for _, key := range []string{"directional_spillover", "net_spillover", "pairwise_spillover_table"} {
			if v, ok := sr[key]; ok {
				loose[key] = v
			}
		}
	}
	if gc, ok := raw.Object("granger_causality_results"); ok {
		loose["granger_causality"] = gc
	}
	return decodeSpillover(loose)
}

// tablesFromRaw flattens each non-empty dataset into headers taken from its
// first row and rows in header order. Missing and null cells become "".
func (n *Normalizer) tablesFromRaw(raw *models.RawResponse) map[string]*models.Table {
	out := map[string]*models.Table{}
	for _, key := range models.DatasetKeys {
		v, _ := raw.Get(key)
		records, ok := v.([]any)
		if !ok || len(records) == 0 {
			continue
		}
		headers := raw.Columns(key)
		table := &models.Table{Headers: headers, Rows: make([][]any, 0, len(records))}
		for _, rec := range records {
			row := models.AsMap(rec)
			cells := make([]any, len(headers))
			for i, h := range headers {
				if cell, ok := row[h]; ok && cell != nil {
					cells[i] = cell
				} else {
					cells[i] = ""
				}
			}
			table.Rows = append(table.Rows, cells)
		}
		out[key] = table
	}
	return out
}

// stagesFromRaw lists all five datasets in pipeline order, available or not.
func (n *Normalizer) stagesFromRaw(raw *models.RawResponse) []models.PipelineStage {
	stages := make([]models.PipelineStage, 0, len(models.DatasetKeys))
	for _, key := range models.DatasetKeys {
		v, _ := raw.Get(key)
		records, _ := v.([]any)
		stages = append(stages, models.PipelineStage{
			Name:          StageName(key),
			DataAvailable: len(records) > 0,
			RecordCount:   len(records),
		})
	}
	return stages
}

// StageName turns a dataset key into its display name, e.g.
// "pre_garch_data" -> "Pre Garch Data".
func StageName(key string) string {
	// Casers keep state and are not shared between goroutines.
	return cases.Title(language.English).String(strings.ReplaceAll(key, "_", " "))
}

func (n *Normalizer) symbolsFromRaw(raw *models.RawResponse) []string {
	v, _ := raw.Get("symbols")
	if symbols, ok := models.StringList(v); ok && len(symbols) > 0 {
		return symbols
	}

	orig, _ := raw.Get(models.DatasetOriginal)
	if len(models.AsSlice(orig)) == 0 {
		return []string{}
	}
	symbols := []string{}
	for _, col := range raw.Columns(models.DatasetOriginal) {
		if !nonSymbolColumns[strings.ToLower(col)] {
			symbols = append(symbols, col)
		}
	}
	return symbols
}

func (n *Normalizer) synthesizeOverview(
	raw *models.RawResponse,
	symbols []string,
	tests *models.StatisticalTests,
	mdl *models.Models,
	spillover *models.SpilloverAnalysis,
) *models.Overview {
	hasStationarity := len(tests.Stationarity) > 0
	hasGranger := spillover.GrangerCausality != nil
	hasSpilloverIndex := spillover.TotalSpillover != nil

	findings := []string{fmt.Sprintf("Analysis completed for %d symbols", len(symbols))}
	if hasStationarity {
		findings = append(findings, "Stationarity tests completed")
	} else {
		findings = append(findings, "No stationarity tests available")
	}
	if hasSpilloverIndex {
		findings = append(findings, "Total spillover index: "+utils.Percent(spillover.TotalSpillover.Index, 1))
	} else {
		findings = append(findings, "No spillover analysis available")
	}
	findings = dropNoFindings(findings)

	insights := []string{"Time series analysis pipeline executed"}
	if hasGranger {
		insights = append(insights, "Granger causality relationships detected")
	}
	if len(mdl.ARIMA) > 0 {
		insights = append(insights, "ARIMA models fitted")
	}
	if len(mdl.GARCH) > 0 {
		insights = append(insights, "GARCH models fitted")
	}

	fitted := []string{}
	if len(mdl.ARIMA) > 0 {
		fitted = append(fitted, "ARIMA")
	}
	if len(mdl.GARCH) > 0 {
		fitted = append(fitted, "GARCH")
	}
	if len(mdl.VAR) > 0 {
		fitted = append(fitted, "VAR")
	}

	performed := []string{}
	if hasStationarity {
		performed = append(performed, "Stationarity Tests")
	}
	if hasGranger {
		performed = append(performed, "Granger Causality")
	}
	if hasSpilloverIndex {
		performed = append(performed, "Spillover Analysis")
	}

	orig, _ := raw.Get(models.DatasetOriginal)

	return &models.Overview{
		ExecutiveSummary: &models.ExecutiveSummary{
			SymbolsAnalyzed: len(symbols),
			SymbolsList:     strings.Join(symbols, ", "),
			AnalysisDate:    n.now().UTC().Format("2006-01-02T15:04:05.000Z"),
			KeyFindings:     findings,
		},
		KeyInsights: insights,
		AnalysisSummary: &models.AnalysisSummary{
			DataPoints:     len(models.AsSlice(orig)),
			ModelsFitted:   fitted,
			TestsPerformed: performed,
		},
	}
}

// dropNoFindings removes every finding containing the literal "No ".
// The negative templates rely on this; it also drops any positive finding
// that happens to contain the substring.
func dropNoFindings(findings []string) []string {
	out := findings[:0]
	for _, f := range findings {
		if !strings.Contains(f, "No ") {
			out = append(out, f)
		}
	}
	return out
}
