package render

import (
	"strings"

	"github.com/irfndi/timeseries-dashboard/internal/models"
)

const (
	executiveSummaryID = "executive-summary-content"
	keyInsightsID      = "key-insights-content"
	analysisSummaryID  = "analysis-summary-content"
)

// OverviewRenderer fills the executive summary, key insights and analysis
// summary cards.
type OverviewRenderer struct{}

func (r *OverviewRenderer) Name() string { return "overview" }

func (r *OverviewRenderer) Render(doc *Document, processed *models.ProcessedResults, _ *models.RawResponse) error {
	ov := processed.Overview
	if ov == nil {
		for _, id := range []string{executiveSummaryID, keyInsightsID, analysisSummaryID} {
			if err := placeholder(doc, id, "Overview data not available."); err != nil {
				return err
			}
		}
		return nil
	}

	if err := r.executiveSummary(doc, ov.ExecutiveSummary); err != nil {
		return err
	}
	if len(ov.KeyInsights) == 0 {
		if err := placeholder(doc, keyInsightsID, "No specific insights available."); err != nil {
			return err
		}
	} else if err := fill(doc, keyInsightsID, "key-insights", ov.KeyInsights); err != nil {
		return err
	}
	return r.analysisSummary(doc, ov.AnalysisSummary)
}

func (r *OverviewRenderer) executiveSummary(doc *Document, es *models.ExecutiveSummary) error {
	if es == nil {
		return placeholder(doc, executiveSummaryID, "Executive summary not available.")
	}
	view := struct {
		SymbolsAnalyzed int
		AnalysisDate    string
		SymbolsList     string
		KeyFindings     []string
	}{
		SymbolsAnalyzed: es.SymbolsAnalyzed,
		AnalysisDate:    textOr(es.AnalysisDate, "Unknown"),
		SymbolsList:     textOr(es.SymbolsList, "None"),
		KeyFindings:     es.KeyFindings,
	}
	return fill(doc, executiveSummaryID, "executive-summary", view)
}

func (r *OverviewRenderer) analysisSummary(doc *Document, as *models.AnalysisSummary) error {
	if as == nil {
		return placeholder(doc, analysisSummaryID, "Analysis summary not available.")
	}
	view := struct {
		DataPoints     int
		ModelsFitted   string
		TestsPerformed string
	}{
		DataPoints:     as.DataPoints,
		ModelsFitted:   strings.Join(as.ModelsFitted, ", "),
		TestsPerformed: strings.Join(as.TestsPerformed, ", "),
	}
	return fill(doc, analysisSummaryID, "analysis-summary", view)
}
