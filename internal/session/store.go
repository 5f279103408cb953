// Package session keeps per-visitor values (the stored analysis payload and
// the iteration hand-off) on the server, keyed by the session cookie id.
package session

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/irfndi/timeseries-dashboard/internal/models"
)

// Well-known keys.
const (
	KeyAnalysisResults = "analysisResults"
	KeyIterationConfig = "analysisIterationConfig"
)

// ErrNoSession is returned when an operation is attempted without a session id.
var ErrNoSession = errors.New("session id is required")

// Store is a string key-value store scoped to a session.
type Store interface {
	// Get returns the value and whether it was present.
	Get(ctx context.Context, sid, key string) (string, bool, error)
	// Set writes a value, resetting the session's expiry.
	Set(ctx context.Context, sid, key, value string) error
	// Remove deletes a value. Removing an absent key is not an error.
	Remove(ctx context.Context, sid, key string) error
	// Take returns and deletes a value in one step, so only one caller
	// ever receives it.
	Take(ctx context.Context, sid, key string) (string, bool, error)
}

// StatsReporter is implemented by stores that count their traffic.
type StatsReporter interface {
	Stats() Stats
}

// Stats counts store traffic.
type Stats struct {
	Hits    int64     `json:"hits"`
	Misses  int64     `json:"misses"`
	Sets    int64     `json:"sets"`
	Removes int64     `json:"removes"`
	Since   time.Time `json:"since"`
}

// LoadRawResponse reads and parses the stored analysis payload. An absent
// value and an unparseable one both report false; parse failures are only
// logged at debug level.
func LoadRawResponse(ctx context.Context, store Store, sid string, logger *slog.Logger) (*models.RawResponse, bool) {
	if logger == nil {
		logger = slog.Default()
	}

	value, ok, err := store.Get(ctx, sid, KeyAnalysisResults)
	if err != nil {
		logger.Warn("Failed to read stored analysis results", "error", err)
		return nil, false
	}
	if !ok || value == "" {
		return nil, false
	}

	raw, err := models.ParseRawResponse([]byte(value))
	if err != nil {
		logger.Debug("Error parsing stored results", "error", err)
		return nil, false
	}
	return raw, true
}

// SaveRawResponse stores a backend payload as the session's current results.
func SaveRawResponse(ctx context.Context, store Store, sid string, payload []byte) error {
	return store.Set(ctx, sid, KeyAnalysisResults, string(payload))
}
