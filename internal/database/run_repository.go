package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/irfndi/timeseries-dashboard/internal/models"
	"github.com/jackc/pgx/v5"
)

// ErrRunNotFound is returned when a run does not exist for the session.
var ErrRunNotFound = errors.New("analysis run not found")

const createRunsTable = `
	CREATE TABLE IF NOT EXISTS analysis_runs (
		id UUID PRIMARY KEY,
		session_id TEXT NOT NULL,
		symbols TEXT[] NOT NULL DEFAULT '{}',
		is_stationary BOOLEAN NOT NULL DEFAULT false,
		arima_summary TEXT NOT NULL DEFAULT '',
		garch_summary TEXT NOT NULL DEFAULT '',
		raw_response JSONB NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_analysis_runs_session_created
		ON analysis_runs (session_id, created_at DESC);
`

// RunRepository persists pipeline responses so a session can revisit them.
type RunRepository struct {
	pool DatabasePool
}

func NewRunRepository(pool DatabasePool) *RunRepository {
	return &RunRepository{pool: pool}
}

// EnsureSchema creates the analysis_runs table when missing.
func (r *RunRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, createRunsTable); err != nil {
		return fmt.Errorf("failed to create analysis_runs table: %w", err)
	}
	return nil
}

// Create inserts run, assigning an id when it has none, and fills CreatedAt.
func (r *RunRepository) Create(ctx context.Context, run *models.AnalysisRun) error {
	if run.ID == uuid.Nil {
		run.ID = uuid.New()
	}
	if run.Symbols == nil {
		run.Symbols = []string{}
	}

	query := `
		INSERT INTO analysis_runs (id, session_id, symbols, is_stationary, arima_summary, garch_summary, raw_response)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at
	`
	err := r.pool.QueryRow(ctx, query,
		run.ID, run.SessionID, run.Symbols, run.IsStationary,
		run.ARIMASummary, run.GARCHSummary, run.RawResponse,
	).Scan(&run.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert analysis run: %w", err)
	}
	return nil
}

// ListBySession returns the newest runs first, without their payloads.
func (r *RunRepository) ListBySession(ctx context.Context, sessionID string, limit int) ([]models.AnalysisRun, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `
		SELECT id, symbols, is_stationary, arima_summary, garch_summary, created_at
		FROM analysis_runs
		WHERE session_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	rows, err := r.pool.Query(ctx, query, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list analysis runs: %w", err)
	}
	defer rows.Close()

	var runs []models.AnalysisRun
	for rows.Next() {
		run := models.AnalysisRun{SessionID: sessionID}
		if err := rows.Scan(&run.ID, &run.Symbols, &run.IsStationary, &run.ARIMASummary, &run.GARCHSummary, &run.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan analysis run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate analysis runs: %w", err)
	}
	return runs, nil
}

// GetForSession loads a run with its payload. Runs of other sessions are not visible.
func (r *RunRepository) GetForSession(ctx context.Context, id uuid.UUID, sessionID string) (*models.AnalysisRun, error) {
	query := `
		SELECT id, symbols, is_stationary, arima_summary, garch_summary, raw_response, created_at
		FROM analysis_runs
		WHERE id = $1 AND session_id = $2
	`
	run := models.AnalysisRun{SessionID: sessionID}
	err := r.pool.QueryRow(ctx, query, id, sessionID).Scan(
		&run.ID, &run.Symbols, &run.IsStationary, &run.ARIMASummary, &run.GARCHSummary, &run.RawResponse, &run.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get analysis run: %w", err)
	}
	return &run, nil
}
