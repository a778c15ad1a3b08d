package loader

import (
	"context"
	"errors"
	"io/fs"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errFlaky = errors.New("resource temporarily unavailable")

func TestBackoff(t *testing.T) {
	p := RetryPolicy{MaxAttempts: 5, BaseDelay: 10 * time.Millisecond, MaxDelay: 50 * time.Millisecond}

	assert.Equal(t, time.Duration(0), p.Backoff(0))
	assert.Equal(t, 10*time.Millisecond, p.Backoff(1))
	assert.Equal(t, 20*time.Millisecond, p.Backoff(2))
	assert.Equal(t, 40*time.Millisecond, p.Backoff(3))
	assert.Equal(t, 50*time.Millisecond, p.Backoff(4), "capped")
	assert.Equal(t, 50*time.Millisecond, p.Backoff(100), "no overflow")
}

func TestIsTransient(t *testing.T) {
	assert.True(t, IsTransient(&LoadError{Code: ErrCodeUnreadable, Err: errFlaky}))
	assert.False(t, IsTransient(&LoadError{Code: ErrCodeNotFound, Err: fs.ErrNotExist}))
	assert.False(t, IsTransient(&LoadError{Code: ErrCodeUnreadable, Err: fs.ErrPermission}))
	assert.False(t, IsTransient(&LoadError{Code: ErrCodeUnreadable}), "directories are final")
	assert.False(t, IsTransient(&ParseError{Code: ErrCodeMalformed}))
	assert.False(t, IsTransient(errFlaky))
}

func TestLoadWithRetryRecovers(t *testing.T) {
	calls := 0
	load := func(path string) (*Artifact, error) {
		calls++
		if calls < 3 {
			return nil, &LoadError{Code: ErrCodeUnreadable, Path: path, Err: errFlaky}
		}
		return &Artifact{Path: path}, nil
	}

	policy := RetryPolicy{MaxAttempts: 3, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond}
	art, err := loadWithRetry(context.Background(), "p.json", policy, load)
	require.NoError(t, err)
	assert.Equal(t, "p.json", art.Path)
	assert.Equal(t, 3, calls)
}

func TestLoadWithRetryExhausted(t *testing.T) {
	calls := 0
	load := func(path string) (*Artifact, error) {
		calls++
		return nil, &LoadError{Code: ErrCodeUnreadable, Path: path, Err: errFlaky}
	}

	policy := RetryPolicy{MaxAttempts: 2, BaseDelay: time.Millisecond}
	_, err := loadWithRetry(context.Background(), "p.json", policy, load)
	require.Error(t, err)
	assert.True(t, IsLoadError(err))
	assert.Equal(t, 2, calls)
}

func TestLoadWithRetryDoesNotRetryParseErrors(t *testing.T) {
	calls := 0
	load := func(path string) (*Artifact, error) {
		calls++
		return nil, &ParseError{Code: ErrCodeMalformed, Path: path}
	}

	_, err := loadWithRetry(context.Background(), "p.json", DefaultRetryPolicy, load)
	require.Error(t, err)
	assert.True(t, IsParseError(err))
	assert.Equal(t, 1, calls)
}

func TestLoadWithRetryContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	load := func(path string) (*Artifact, error) {
		cancel()
		return nil, &LoadError{Code: ErrCodeUnreadable, Path: path, Err: errFlaky}
	}

	policy := RetryPolicy{MaxAttempts: 5, BaseDelay: time.Hour}
	_, err := loadWithRetry(ctx, "p.json", policy, load)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.True(t, IsLoadError(err))
}

func TestLoadWithRetryMissingFile(t *testing.T) {
	_, err := LoadWithRetry(context.Background(), "/nonexistent/proof.json", DefaultRetryPolicy)
	var le *LoadError
	require.ErrorAs(t, err, &le)
	assert.True(t, le.NotFound())
}
