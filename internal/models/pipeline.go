package models

import (
	"time"

	"github.com/google/uuid"
)

// PipelineRequest is the body posted to the backend's run_pipeline endpoint.
type PipelineRequest struct {
	SourceType            string             `json:"source_actual_or_synthetic_data"`
	Symbols               []string           `json:"symbols"`
	SyntheticAnchorPrices map[string]float64 `json:"synthetic_anchor_prices"`
	DataStartDate         string             `json:"data_start_date,omitempty"`
	DataEndDate           string             `json:"data_end_date,omitempty"`
	ScalingMethod         string             `json:"scaling_method"`
	ARIMAParams           ARIMAParams        `json:"arima_params"`
	GARCHParams           GARCHParams        `json:"garch_params"`
	SpilloverEnabled      bool               `json:"spillover_enabled"`
	SpilloverParams       SpilloverParams    `json:"spillover_params"`
}

type ARIMAParams struct {
	P             int `json:"p"`
	D             int `json:"d"`
	Q             int `json:"q"`
	ForecastSteps int `json:"forecast_steps"`
}

type GARCHParams struct {
	P             int    `json:"p"`
	Q             int    `json:"q"`
	Dist          string `json:"dist"`
	ForecastSteps int    `json:"forecast_steps"`
}

type SpilloverParams struct {
	Method                   string  `json:"method"`
	ForecastHorizon          int     `json:"forecast_horizon"`
	WindowSize               *int    `json:"window_size"`
	VARLagSelectionMethod    string  `json:"var_lag_selection_method"`
	MaxLags                  int     `json:"max_lags"`
	GrangerSignificanceLevel float64 `json:"granger_significance_level"`
	IncludeGranger           bool    `json:"include_granger"`
	IncludeFEVDDetails       bool    `json:"include_fevd_details"`
}

// AnalysisRun is a persisted pipeline response.
type AnalysisRun struct {
	ID           uuid.UUID `json:"id" db:"id"`
	SessionID    string    `json:"-" db:"session_id"`
	Symbols      []string  `json:"symbols" db:"symbols"`
	IsStationary bool      `json:"is_stationary" db:"is_stationary"`
	ARIMASummary string    `json:"arima_summary" db:"arima_summary"`
	GARCHSummary string    `json:"garch_summary" db:"garch_summary"`
	RawResponse  []byte    `json:"-" db:"raw_response"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}
