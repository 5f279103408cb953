package render

import (
	"github.com/irfndi/timeseries-dashboard/internal/models"
	"github.com/irfndi/timeseries-dashboard/internal/utils"
)

const (
	totalSpilloverID       = "total-spillover-container"
	directionalSpilloverID = "directional-spillover-container"
	netSpilloverID         = "net-spillover-container"
	pairwiseSpilloverID    = "pairwise-spillover-container"
	grangerCausalityID     = "granger-causality-container"
)

// Tier names used for spillover strength and severity.
const (
	TierStrong   = "Strong"
	TierModerate = "Moderate"
	TierWeak     = "Weak"
	TierHigh     = "High"
	TierLow      = "Low"
)

// SpilloverRenderer shows the Diebold-Yilmaz spillover tables and the
// Granger causality results.
type SpilloverRenderer struct {
	opts Options
}

func (r *SpilloverRenderer) Name() string { return "spillover-analysis" }

func (r *SpilloverRenderer) Render(doc *Document, processed *models.ProcessedResults, _ *models.RawResponse) error {
	sp := processed.SpilloverAnalysis
	if sp == nil {
		for _, id := range []string{totalSpilloverID, directionalSpilloverID, netSpilloverID, pairwiseSpilloverID} {
			if err := placeholder(doc, id, "Spillover analysis not available."); err != nil {
				return err
			}
		}
		return placeholder(doc, grangerCausalityID, "No Granger causality results available.")
	}

	steps := []func(*Document, *models.SpilloverAnalysis) error{
		r.total,
		r.directional,
		r.net,
		r.pairwise,
		r.granger,
	}
	for _, step := range steps {
		if err := step(doc, sp); err != nil {
			return err
		}
	}
	return nil
}

// Severity classifies a total spillover index given as a percentage.
func (r *SpilloverRenderer) Severity(percent float64) string {
	switch {
	case percent > r.opts.TotalHighPercent:
		return TierHigh
	case percent > r.opts.TotalModeratePercent:
		return TierModerate
	default:
		return TierLow
	}
}

// Strength classifies a pairwise R² given as a percentage.
func (r *SpilloverRenderer) Strength(percent float64) string {
	switch {
	case percent > r.opts.PairwiseStrongPercent:
		return TierStrong
	case percent > r.opts.PairwiseModeratePercent:
		return TierModerate
	default:
		return TierWeak
	}
}

func (r *SpilloverRenderer) total(doc *Document, sp *models.SpilloverAnalysis) error {
	if sp.TotalSpillover == nil {
		return placeholder(doc, totalSpilloverID, "Total spillover index not available.")
	}
	ts := sp.TotalSpillover
	severity := r.Severity(ts.Index * 100)

	textClass, badgeClass := "text-success", "bg-success"
	switch severity {
	case TierHigh:
		textClass, badgeClass = "text-danger", "bg-danger"
	case TierModerate:
		textClass, badgeClass = "text-warning", "bg-warning"
	}

	view := struct {
		Percent        string
		Width          string
		Severity       string
		TextClass      string
		BadgeClass     string
		Interpretation string
	}{
		Percent:        utils.Percent(ts.Index, 1),
		Width:          utils.ToFixed(clamp(ts.Index*100, 0, 100), 1),
		Severity:       severity,
		TextClass:      textClass,
		BadgeClass:     badgeClass,
		Interpretation: ts.Interpretation,
	}
	return fill(doc, totalSpilloverID, "total-spillover", view)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func (r *SpilloverRenderer) directional(doc *Document, sp *models.SpilloverAnalysis) error {
	if len(sp.DirectionalSpillover) == 0 {
		return placeholder(doc, directionalSpilloverID, "No directional spillover data available.")
	}

	type row struct {
		Symbol   string
		To       string
		From     string
		Net      string
		NetClass string
	}
	var rows []row
	for _, sym := range models.SortedKeys(sp.DirectionalSpillover) {
		dir := sp.DirectionalSpillover[sym]
		if dir == nil {
			continue
		}
		net, ok := sp.NetSpillover[sym]
		if !ok {
			net = dir.To - dir.From
		}
		netClass := "text-muted"
		if net > 0 {
			netClass = "text-success"
		} else if net < 0 {
			netClass = "text-danger"
		}
		rows = append(rows, row{
			Symbol:   sym,
			To:       utils.Percent(dir.To, 2),
			From:     utils.Percent(dir.From, 2),
			Net:      utils.Percent(net, 2),
			NetClass: netClass,
		})
	}
	return fill(doc, directionalSpilloverID, "directional-spillover", rows)
}

func (r *SpilloverRenderer) net(doc *Document, sp *models.SpilloverAnalysis) error {
	if len(sp.NetSpillover) == 0 {
		return placeholder(doc, netSpilloverID, "No net spillover data available.")
	}
	return placeholder(doc, netSpilloverID, "Net spillover visualization placeholder")
}

func (r *SpilloverRenderer) pairwise(doc *Document, sp *models.SpilloverAnalysis) error {
	if len(sp.PairwiseSpilloverTable) == 0 {
		return placeholder(doc, pairwiseSpilloverID, "No pairwise spillover data available.")
	}

	type row struct {
		From            string
		To              string
		RSquared        string
		RSquaredPercent string
		Lags            string
		Strength        string
		StrengthClass   string
	}
	rows := make([]row, 0, len(sp.PairwiseSpilloverTable))
	for _, p := range sp.PairwiseSpilloverTable {
		percent := p.RSquaredPercent
		if percent == nil && p.RSquared != nil {
			v := *p.RSquared * 100
			percent = &v
		}

		strength := p.Strength
		if percent != nil {
			strength = r.Strength(*percent)
		}
		if strength == "" {
			strength = notAvailable
		}
		class := "text-muted"
		switch strength {
		case TierStrong:
			class = "text-success"
		case TierModerate:
			class = "text-warning"
		}

		pct := notAvailable
		if percent != nil {
			pct = utils.ToFixed(*percent, 2) + "%"
		}
		rows = append(rows, row{
			From:            p.From,
			To:              p.To,
			RSquared:        fixed(p.RSquared, 4),
			RSquaredPercent: pct,
			Lags:            textOr(p.SignificantLagsText, "None"),
			Strength:        strength,
			StrengthClass:   class,
		})
	}
	return fill(doc, pairwiseSpilloverID, "pairwise-spillover", rows)
}

func (r *SpilloverRenderer) granger(doc *Document, sp *models.SpilloverAnalysis) error {
	gc := sp.GrangerCausality
	if gc == nil || (len(gc.CausalityResults) == 0 && len(gc.Metadata) == 0) {
		return placeholder(doc, grangerCausalityID, "No Granger causality results available.")
	}

	type row struct {
		Relationship string
		At1Pct       bool
		At5Pct       bool
		MinPValue    string
	}
	view := struct {
		Rows     []row
		Metadata []labeled
	}{}
	for _, rel := range models.SortedKeys(gc.CausalityResults) {
		res := gc.CausalityResults[rel]
		if res == nil {
			continue
		}
		view.Rows = append(view.Rows, row{
			Relationship: rel,
			At1Pct:       res.Causality1Pct,
			At5Pct:       res.Causality5Pct,
			MinPValue:    fixed(res.MinPValue, 4),
		})
	}
	if len(gc.Metadata) > 0 {
		view.Metadata = []labeled{
			{"Max Lag", truthyTextOr(gc.Metadata["max_lag"], notAvailable)},
			{"Pairs Tested", truthyTextOr(gc.Metadata["n_pairs_tested"], notAvailable)},
		}
	}
	return fill(doc, grangerCausalityID, "granger-causality", view)
}
