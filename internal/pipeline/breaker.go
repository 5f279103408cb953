package pipeline

import (
	"errors"
	"log/slog"
	"sync"
	"time"
)

// ErrCircuitOpen is returned without contacting the backend while the
// breaker is open.
var ErrCircuitOpen = errors.New("pipeline backend unavailable, circuit breaker is open")

// BreakerState represents the current state of the circuit breaker.
type BreakerState int

const (
	Closed BreakerState = iota
	Open
	HalfOpen
)

func (s BreakerState) String() string {
	switch s {
	case Closed:
		return "closed"
	case Open:
		return "open"
	case HalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// BreakerConfig holds configuration for the circuit breaker.
type BreakerConfig struct {
	FailureThreshold int           // consecutive failures before opening
	SuccessThreshold int           // successes needed to close from half-open
	Timeout          time.Duration // time to wait before trying half-open
	MaxRequests      int           // trial requests allowed in flight while half-open
}

// BreakerStats holds statistics for the circuit breaker.
type BreakerStats struct {
	TotalRequests      int64     `json:"total_requests"`
	SuccessfulRequests int64     `json:"successful_requests"`
	FailedRequests     int64     `json:"failed_requests"`
	RejectedRequests   int64     `json:"rejected_requests"`
	LastFailureTime    time.Time `json:"last_failure_time"`
	LastSuccessTime    time.Time `json:"last_success_time"`
	StateChanges       int64     `json:"state_changes"`
}

// Breaker stops forwarding runs to a backend that keeps failing. The lock
// is never held while a run is in flight.
type Breaker struct {
	name   string
	config BreakerConfig
	logger *slog.Logger
	now    func() time.Time

	mu              sync.Mutex
	state           BreakerState
	failureCount    int
	successCount    int
	inFlight        int
	lastStateChange time.Time
	stats           BreakerStats
}

// NewBreaker creates a breaker, filling zero config values with defaults.
func NewBreaker(name string, config BreakerConfig, logger *slog.Logger) *Breaker {
	if config.FailureThreshold <= 0 {
		config.FailureThreshold = 5
	}
	if config.SuccessThreshold <= 0 {
		config.SuccessThreshold = 1
	}
	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}
	if config.MaxRequests <= 0 {
		config.MaxRequests = 1
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Breaker{
		name:            name,
		config:          config,
		logger:          logger.With("circuit_breaker", name),
		now:             time.Now,
		state:           Closed,
		lastStateChange: time.Now(),
	}
}

// Allow reserves a slot for one request. Every successful Allow must be
// followed by exactly one Record.
func (b *Breaker) Allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.stats.TotalRequests++

	switch b.state {
	case Open:
		if b.now().Sub(b.lastStateChange) < b.config.Timeout {
			b.stats.RejectedRequests++
			return ErrCircuitOpen
		}
		b.setState(HalfOpen)
		b.successCount = 0
	case HalfOpen:
		if b.inFlight >= b.config.MaxRequests {
			b.stats.RejectedRequests++
			return ErrCircuitOpen
		}
	}

	b.inFlight++
	return nil
}

// Record reports the outcome of a request admitted by Allow.
func (b *Breaker) Record(success bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.inFlight > 0 {
		b.inFlight--
	}
	now := b.now()

	if success {
		b.stats.SuccessfulRequests++
		b.stats.LastSuccessTime = now
		switch b.state {
		case Closed:
			b.failureCount = 0
		case HalfOpen:
			b.successCount++
			if b.successCount >= b.config.SuccessThreshold {
				b.setState(Closed)
				b.failureCount = 0
				b.successCount = 0
			}
		}
		return
	}

	b.stats.FailedRequests++
	b.stats.LastFailureTime = now
	b.failureCount++

	switch b.state {
	case Closed:
		if b.failureCount >= b.config.FailureThreshold {
			b.setState(Open)
		}
	case HalfOpen:
		// Any failure while half-open reopens the circuit.
		b.setState(Open)
		b.successCount = 0
	}
	b.logger.Warn("Pipeline backend request failed",
		"state", b.state.String(),
		"failure_count", b.failureCount,
	)
}

// setState changes the breaker state. Callers hold b.mu.
func (b *Breaker) setState(newState BreakerState) {
	if b.state == newState {
		return
	}
	oldState := b.state
	b.state = newState
	b.lastStateChange = b.now()
	b.stats.StateChanges++

	b.logger.Info("Circuit breaker state changed",
		"old_state", oldState.String(),
		"new_state", newState.String(),
		"failure_count", b.failureCount,
	)
}

// State returns the current state of the breaker.
func (b *Breaker) State() BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Stats returns a copy of the current statistics.
func (b *Breaker) Stats() BreakerStats {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.stats
}

// Reset manually returns the breaker to the closed state.
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.setState(Closed)
	b.failureCount = 0
	b.successCount = 0
	b.inFlight = 0
	b.logger.Info("Circuit breaker manually reset")
}
