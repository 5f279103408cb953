package render

import (
	"github.com/irfndi/timeseries-dashboard/internal/models"
)

const (
	stationarityID     = "stationarity-results-container"
	seriesStatisticsID = "series-statistics-container"
)

// StatisticalTestsRenderer shows the ADF stationarity cards and the
// descriptive statistics table.
type StatisticalTestsRenderer struct{}

func (r *StatisticalTestsRenderer) Name() string { return "statistical-tests" }

func (r *StatisticalTestsRenderer) Render(doc *Document, processed *models.ProcessedResults, _ *models.RawResponse) error {
	tests := processed.StatisticalTests
	if tests == nil {
		tests = &models.StatisticalTests{}
	}
	if err := r.stationarity(doc, tests.Stationarity); err != nil {
		return err
	}
	return r.seriesStatistics(doc, tests.SeriesStatistics)
}

type stationarityCard struct {
	Symbol         string
	Stationary     bool
	ADFStatistic   string
	PValue         string
	Critical5      string
	Levels         []labeled
	Interpretation string
}

func (r *StatisticalTestsRenderer) stationarity(doc *Document, results map[string]*models.StationarityResult) error {
	var cards []stationarityCard
	for _, sym := range models.SortedKeys(results) {
		res := results[sym]
		if res == nil {
			continue
		}
		card := stationarityCard{
			Symbol:       sym,
			Stationary:   res.IsStationary,
			ADFStatistic: fixed(res.ADFStatistic, 4),
			PValue:       fixed(res.PValue, 4),
			Critical5:    fixed(res.CriticalValues["5%"], 4),
		}
		for _, level := range models.SignificanceLevels {
			outcome := notAvailable
			if pass, known := res.PassesAt(level); known {
				outcome = "Fail"
				if pass {
					outcome = "Pass"
				}
			}
			card.Levels = append(card.Levels, labeled{Label: level, Value: outcome})
		}
		if res.Interpretation != nil {
			card.Interpretation = jsonText(res.Interpretation)
		}
		cards = append(cards, card)
	}

	if len(cards) == 0 {
		return placeholder(doc, stationarityID, "No stationarity test results available.")
	}
	return fill(doc, stationarityID, "stationarity", cards)
}

type seriesRow struct {
	Symbol string
	Cells  []string
}

func (r *StatisticalTestsRenderer) seriesStatistics(doc *Document, stats map[string]*models.SeriesStatistics) error {
	var rows []seriesRow
	for _, sym := range models.SortedKeys(stats) {
		s := stats[sym]
		if s == nil {
			continue
		}
		count := notAvailable
		if s.N != nil && *s.N != 0 {
			count = fixed(s.N, 0)
		}
		rows = append(rows, seriesRow{
			Symbol: sym,
			Cells: []string{
				count,
				fixed(s.Mean, 6),
				fixed(s.Median, 6),
				fixed(s.Min, 6),
				fixed(s.Max, 6),
				fixed(s.Std, 6),
				fixed(s.Var, 6),
				fixed(s.Skew, 4),
				fixed(s.Kurt, 4),
				fixed(s.AnnualizedVol, 4),
				fixed(s.AnnualizedReturn, 4),
				fixed(s.SharpeApprox, 4),
			},
		})
	}

	if len(rows) == 0 {
		return placeholder(doc, seriesStatisticsID, "No series statistics available.")
	}
	return fill(doc, seriesStatisticsID, "series-statistics", rows)
}
