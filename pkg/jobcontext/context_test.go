package jobcontext

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastPolicy(attempts int) Policy {
	return Policy{
		Timeout:         time.Second,
		MaxAttempts:     attempts,
		InitialInterval: time.Millisecond,
		MaxInterval:     2 * time.Millisecond,
	}
}

func TestBegin_Metadata(t *testing.T) {
	ctx, cancel := Begin(context.Background(), "sweep", fastPolicy(1))
	defer cancel()

	md := FromContext(ctx)
	assert.NotEqual(t, uuid.Nil, md.JobID)
	assert.Equal(t, "sweep", md.JobType)
	assert.Zero(t, md.Attempt)
	assert.False(t, md.StartTime.IsZero())

	_, hasDeadline := ctx.Deadline()
	assert.True(t, hasDeadline)
}

func TestFromContext_OutsideJob(t *testing.T) {
	md := FromContext(context.Background())
	assert.Equal(t, uuid.Nil, md.JobID)
	assert.Empty(t, md.JobType)
}

func TestRun_RetriesTransientErrors(t *testing.T) {
	ctx, cancel := Begin(context.Background(), "sweep", fastPolicy(3))
	defer cancel()

	var seen []int
	err := Run(ctx, fastPolicy(3), func(ctx context.Context) error {
		seen = append(seen, Attempt(ctx))
		if len(seen) < 3 {
			return errors.New("dial tcp: connection refused")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2}, seen)
}

func TestRun_GivesUpAfterMaxAttempts(t *testing.T) {
	calls := 0
	err := Run(context.Background(), fastPolicy(2), func(context.Context) error {
		calls++
		return errors.New("database is locked")
	})
	require.Error(t, err)
	assert.Equal(t, 2, calls)
	assert.Contains(t, err.Error(), "max attempts (2) exceeded")
}

func TestRun_StopsOnPermanentError(t *testing.T) {
	boom := errors.New("no such table: meetings")
	calls := 0
	err := Run(context.Background(), fastPolicy(5), func(context.Context) error {
		calls++
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)
}

func TestRun_RecoversPanics(t *testing.T) {
	calls := 0
	err := Run(context.Background(), fastPolicy(3), func(context.Context) error {
		calls++
		panic("nil map")
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "panic recovered: nil map")
	assert.Equal(t, 1, calls)
}

func TestRun_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := Run(ctx, fastPolicy(3), func(context.Context) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(errors.New("read: connection reset by peer")))
	assert.True(t, IsRetryable(errors.New("ERROR: could not serialize access (SQLSTATE 40001)")))
	assert.False(t, IsRetryable(errors.New("record not found")))
	assert.False(t, IsRetryable(context.DeadlineExceeded))
	assert.False(t, IsRetryable(nil))
}
