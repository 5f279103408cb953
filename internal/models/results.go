package models

// Dataset keys in fixed pipeline order.
const (
	DatasetOriginal  = "original_data"
	DatasetReturns   = "returns_data"
	DatasetScaled    = "scaled_data"
	DatasetPreGARCH  = "pre_garch_data"
	DatasetPostGARCH = "post_garch_data"
)

// DatasetKeys lists the five raw datasets in pipeline order.
var DatasetKeys = []string{DatasetOriginal, DatasetReturns, DatasetScaled, DatasetPreGARCH, DatasetPostGARCH}

// IsDatasetKey reports whether key names one of the five raw datasets.
func IsDatasetKey(key string) bool {
	for _, k := range DatasetKeys {
		if k == key {
			return true
		}
	}
	return false
}

// ProcessedResults is the canonical shape every section renderer reads.
// A nil section means the payload carried nothing for it.
type ProcessedResults struct {
	Overview          *Overview          `json:"overview,omitempty"`
	StatisticalTests  *StatisticalTests  `json:"statistical_tests,omitempty"`
	Models            *Models            `json:"models,omitempty"`
	SpilloverAnalysis *SpilloverAnalysis `json:"spillover_analysis,omitempty"`
	DataLineage       *DataLineage       `json:"data_lineage,omitempty"`
	RawData           map[string]*Table  `json:"raw_data,omitempty"`
}

type Overview struct {
	ExecutiveSummary *ExecutiveSummary `json:"executive_summary,omitempty"`
	AnalysisSummary  *AnalysisSummary  `json:"analysis_summary,omitempty"`
	// KeyInsights is nil when the payload has no insights list at all.
	KeyInsights []string `json:"key_insights,omitempty"`
	Filename    string   `json:"filename,omitempty"`
}

type ExecutiveSummary struct {
	SymbolsAnalyzed int      `json:"symbols_analyzed"`
	SymbolsList     string   `json:"symbols_list"`
	AnalysisDate    string   `json:"analysis_date"`
	KeyFindings     []string `json:"key_findings"`
}

type AnalysisSummary struct {
	DataPoints     int      `json:"data_points"`
	ModelsFitted   []string `json:"models_fitted"`
	TestsPerformed []string `json:"tests_performed"`
}

type StatisticalTests struct {
	Stationarity     map[string]*StationarityResult `json:"stationarity,omitempty"`
	SeriesStatistics map[string]*SeriesStatistics   `json:"series_statistics,omitempty"`
}

// StationarityResult is one symbol's ADF outcome. Nil numbers were absent or non-numeric.
type StationarityResult struct {
	ADFStatistic   *float64            `json:"adf_statistic,omitempty"`
	PValue         *float64            `json:"p_value,omitempty"`
	IsStationary   bool                `json:"is_stationary"`
	CriticalValues map[string]*float64 `json:"critical_values,omitempty"`
	Interpretation any                 `json:"interpretation,omitempty"`
}

// SignificanceLevels are the critical-value keys in display order.
var SignificanceLevels = []string{"1%", "5%", "10%"}

// PassesAt reports whether the ADF statistic rejects a unit root at level,
// i.e. the statistic is strictly below the critical value. The second
// return is false when either number is missing.
func (s *StationarityResult) PassesAt(level string) (pass bool, known bool) {
	if s == nil || s.ADFStatistic == nil {
		return false, false
	}
	cv, ok := s.CriticalValues[level]
	if !ok || cv == nil {
		return false, false
	}
	return *s.ADFStatistic < *cv, true
}

type SeriesStatistics struct {
	N                *float64 `json:"n,omitempty"`
	Mean             *float64 `json:"mean,omitempty"`
	Median           *float64 `json:"median,omitempty"`
	Min              *float64 `json:"min,omitempty"`
	Max              *float64 `json:"max,omitempty"`
	Std              *float64 `json:"std,omitempty"`
	Var              *float64 `json:"var,omitempty"`
	Skew             *float64 `json:"skew,omitempty"`
	Kurt             *float64 `json:"kurt,omitempty"`
	AnnualizedVol    *float64 `json:"annualized_vol,omitempty"`
	AnnualizedReturn *float64 `json:"annualized_return,omitempty"`
	SharpeApprox     *float64 `json:"sharpe_approx,omitempty"`
}

// Models keeps per-symbol ARIMA and GARCH results loosely typed; their
// sub-shape differs between backend versions and renderers inspect it.
type Models struct {
	ARIMA map[string]map[string]any `json:"arima,omitempty"`
	GARCH map[string]map[string]any `json:"garch,omitempty"`
	VAR   map[string]any            `json:"var,omitempty"`
}

type SpilloverAnalysis struct {
	TotalSpillover         *TotalSpillover                  `json:"total_spillover,omitempty"`
	DirectionalSpillover   map[string]*DirectionalSpillover `json:"directional_spillover,omitempty"`
	NetSpillover           map[string]float64               `json:"net_spillover,omitempty"`
	PairwiseSpilloverTable []PairwiseSpillover              `json:"pairwise_spillover_table,omitempty"`
	GrangerCausality       *GrangerCausality                `json:"granger_causality,omitempty"`
}

type TotalSpillover struct {
	// Index is a fraction; 0.42 renders as 42.0%.
	Index          float64 `json:"index"`
	Interpretation string  `json:"interpretation"`
}

type DirectionalSpillover struct {
	To   float64 `json:"to"`
	From float64 `json:"from"`
}

type PairwiseSpillover struct {
	From                string   `json:"from"`
	To                  string   `json:"to"`
	RSquared            *float64 `json:"r_squared,omitempty"`
	RSquaredPercent     *float64 `json:"r_squared_percent,omitempty"`
	SignificantLagsText string   `json:"significant_lags_text"`
	Strength            string   `json:"strength"`
}

type GrangerCausality struct {
	CausalityResults map[string]*GrangerResult `json:"causality_results,omitempty"`
	Metadata         map[string]any            `json:"metadata,omitempty"`
}

type GrangerResult struct {
	Causality1Pct bool     `json:"causality_1pct"`
	Causality5Pct bool     `json:"causality_5pct"`
	MinPValue     *float64 `json:"min_p_value,omitempty"`
}

type DataLineage struct {
	PipelineStages []PipelineStage   `json:"pipeline_stages"`
	DataSets       map[string]*Table `json:"data_sets,omitempty"`
}

type PipelineStage struct {
	Name          string `json:"name"`
	DataAvailable bool   `json:"data_available"`
	RecordCount   int    `json:"record_count"`
}

// Table is a raw dataset flattened to headers and rows in header order.
type Table struct {
	Headers []string `json:"headers"`
	Rows    [][]any  `json:"rows"`
}

// Empty reports whether the table has nothing to show or export.
func (t *Table) Empty() bool {
	return t == nil || len(t.Headers) == 0 || len(t.Rows) == 0
}
