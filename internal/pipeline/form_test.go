package pipeline

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/irfndi/timeseries-dashboard/internal/models"
	"github.com/irfndi/timeseries-dashboard/internal/utils"
)

func TestParseForm_Defaults(t *testing.T) {
	req, err := ParseForm(url.Values{"symbols": {" AAPL, MSFT ,"}})
	require.NoError(t, err)

	assert.Equal(t, "synthetic", req.SourceType)
	assert.Equal(t, []string{"AAPL", "MSFT"}, req.Symbols)
	assert.Empty(t, req.SyntheticAnchorPrices)
	assert.Equal(t, "standardize", req.ScalingMethod)
	assert.Equal(t, models.ARIMAParams{P: 1, D: 1, Q: 1, ForecastSteps: 10}, req.ARIMAParams)
	assert.Equal(t, models.GARCHParams{P: 1, Q: 1, Dist: "t", ForecastSteps: 3}, req.GARCHParams)
	assert.False(t, req.SpilloverEnabled)
	assert.Equal(t, models.SpilloverParams{
		Method:                   "diebold_yilmaz",
		ForecastHorizon:          5,
		VARLagSelectionMethod:    "aic",
		MaxLags:                  10,
		GrangerSignificanceLevel: 0.05,
	}, req.SpilloverParams)
}

func TestParseForm_FullSubmission(t *testing.T) {
	form := url.Values{
		"source_actual_or_synthetic_data": {"actual_yfinance"},
		"synthetic_symbols":               {"GME,BYND"},
		"synthetic_anchor_prices":         {"150, 30.5, 99"},
		"data_start_date":                 {"2023-01-01"},
		"arima_p":                         {"2"},
		"arima_d":                         {"0"},
		"garch_dist":                      {"normal"},
		"enable_spillover":                {"on"},
		"include_granger":                 {"on"},
		"granger_significance_level":      {"0.01"},
		"max_lags":                        {"4"},
	}
	req, err := ParseForm(form)
	require.NoError(t, err)

	assert.Equal(t, "actual_yfinance", req.SourceType)
	assert.Equal(t, map[string]float64{"GME": 150, "BYND": 30.5}, req.SyntheticAnchorPrices)
	assert.Equal(t, "2023-01-01", req.DataStartDate)
	assert.Equal(t, 2, req.ARIMAParams.P)
	assert.Equal(t, 0, req.ARIMAParams.D)
	assert.Equal(t, "normal", req.GARCHParams.Dist)
	assert.True(t, req.SpilloverEnabled)
	assert.True(t, req.SpilloverParams.IncludeGranger)
	assert.False(t, req.SpilloverParams.IncludeFEVDDetails)
	assert.Equal(t, 0.01, req.SpilloverParams.GrangerSignificanceLevel)
	assert.Equal(t, 4, req.SpilloverParams.MaxLags)
}

func TestParseForm_ManualSymbolFallback(t *testing.T) {
	req, err := ParseForm(url.Values{"manual_symbol": {"TSLA"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"TSLA"}, req.Symbols)
}

func TestParseForm_DataSourceRadio(t *testing.T) {
	req, err := ParseForm(url.Values{"manual_symbol": {"SPY"}, "data_source": {"actual_yfinance"}})
	require.NoError(t, err)
	assert.Equal(t, "actual_yfinance", req.SourceType)

	req, err = ParseForm(url.Values{
		"manual_symbol":                   {"SPY"},
		"data_source":                     {"actual_yfinance"},
		"source_actual_or_synthetic_data": {"synthetic"},
	})
	require.NoError(t, err)
	assert.Equal(t, "synthetic", req.SourceType)
}

func TestParseForm_Rejects(t *testing.T) {
	tests := []struct {
		name  string
		form  url.Values
		field string
	}{
		{"no symbols", url.Values{"symbols": {" , "}}, "symbols"},
		{"bad price", url.Values{"symbols": {"A"}, "synthetic_anchor_prices": {"abc"}}, "synthetic_anchor_prices"},
		{"bad int", url.Values{"symbols": {"A"}, "arima_p": {"x"}}, "arima_p"},
		{"negative", url.Values{"symbols": {"A"}, "max_lags": {"-1"}}, "max_lags"},
		{"bad float", url.Values{"symbols": {"A"}, "granger_significance_level": {"five"}}, "granger_significance_level"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseForm(tt.form)
			require.Error(t, err)
			assert.True(t, utils.IsValidationError(err))

			var verr *utils.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}
