package database

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/sirupsen/logrus"
)

// RetryPolicy defines retry behavior for connection attempts.
type RetryPolicy struct {
	MaxRetries    int
	InitialDelay  time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64
	JitterEnabled bool
}

// DefaultRetryPolicy is used when connecting to the session store at startup.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries:    3,
		InitialDelay:  200 * time.Millisecond,
		MaxDelay:      2 * time.Second,
		BackoffFactor: 2.0,
		JitterEnabled: true,
	}
}

// ExecuteWithRetry runs operation until it succeeds, the policy is
// exhausted or ctx ends, returning the last error.
func ExecuteWithRetry(ctx context.Context, policy RetryPolicy, logger *logrus.Logger, name string, operation func(context.Context) error) error {
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	delay := policy.InitialDelay
	var lastErr error
	for attempt := 0; attempt <= policy.MaxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := operation(ctx)
		if err == nil {
			if attempt > 0 {
				logger.WithFields(logrus.Fields{
					"operation": name,
					"attempts":  attempt + 1,
				}).Info("Operation recovered after retry")
			}
			return nil
		}
		lastErr = err

		if attempt == policy.MaxRetries {
			break
		}
		logger.WithFields(logrus.Fields{
			"operation": name,
			"attempt":   attempt + 1,
			"error":     err.Error(),
		}).Warn("Operation failed, retrying")

		wait := delay
		if policy.JitterEnabled && wait > 0 {
			wait += time.Duration(rand.Int64N(int64(wait)/2 + 1))
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}

		delay = time.Duration(float64(delay) * policy.BackoffFactor)
		if policy.MaxDelay > 0 && delay > policy.MaxDelay {
			delay = policy.MaxDelay
		}
	}
	return lastErr
}
