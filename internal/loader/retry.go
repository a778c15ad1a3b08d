package loader

import (
	"context"
	"errors"
	"io/fs"
	"time"
)

// RetryPolicy bounds retries of transient load failures.
// Validation and check outcomes are deterministic and never retried; only the
// read of the artifact is.
type RetryPolicy struct {
	MaxAttempts int           // total attempts, including the first
	BaseDelay   time.Duration // delay before the second attempt
	MaxDelay    time.Duration // cap for exponential growth
}

// DefaultRetryPolicy is used by batch verification.
var DefaultRetryPolicy = RetryPolicy{
	MaxAttempts: 3,
	BaseDelay:   50 * time.Millisecond,
	MaxDelay:    time.Second,
}

// Backoff returns the delay before attempt n (n >= 1 is the first retry):
// BaseDelay * 2^(n-1), capped at MaxDelay.
func (p RetryPolicy) Backoff(n int) time.Duration {
	if n < 1 {
		return 0
	}
	shift := n - 1
	if shift > 30 {
		shift = 30
	}
	d := p.BaseDelay * time.Duration(int64(1)<<shift)
	if p.MaxDelay > 0 && (d > p.MaxDelay || d < 0) {
		d = p.MaxDelay
	}
	return d
}

// IsTransient reports whether a load failure may succeed on retry.
// Missing files, directories, permission errors and parse errors are final.
func IsTransient(err error) bool {
	var le *LoadError
	if !errors.As(err, &le) {
		return false
	}
	if le.Code != ErrCodeUnreadable || le.Err == nil {
		return false
	}
	return !errors.Is(le.Err, fs.ErrPermission) && !errors.Is(le.Err, fs.ErrNotExist)
}

// LoadWithRetry loads path, retrying transient failures per policy.
// Returns the last error when attempts are exhausted or ctx is done.
func LoadWithRetry(ctx context.Context, path string, policy RetryPolicy) (*Artifact, error) {
	return loadWithRetry(ctx, path, policy, Load)
}

func loadWithRetry(ctx context.Context, path string, policy RetryPolicy, load func(string) (*Artifact, error)) (*Artifact, error) {
	attempts := policy.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			timer := time.NewTimer(policy.Backoff(attempt))
			select {
			case <-ctx.Done():
				timer.Stop()
				return nil, errors.Join(lastErr, ctx.Err())
			case <-timer.C:
			}
		}

		art, err := load(path)
		if err == nil {
			return art, nil
		}
		lastErr = err
		if !IsTransient(err) {
			return nil, err
		}
	}
	return nil, lastErr
}
