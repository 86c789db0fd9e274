// Package jobcontext runs background maintenance jobs with a deadline,
// per-attempt metadata and retries of transient failures.
package jobcontext

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
)

type contextKey string

var (
	keyJobID     contextKey = "job_id"
	keyJobType   contextKey = "job_type"
	keyAttempt   contextKey = "attempt"
	keyStartTime contextKey = "job_start_time"
)

// Metadata describes the job running under a context
type Metadata struct {
	JobID     uuid.UUID
	JobType   string
	Attempt   int
	StartTime time.Time
}

// Policy bounds one job run
type Policy struct {
	Timeout         time.Duration
	MaxAttempts     int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// DefaultPolicy allows three attempts within five minutes
func DefaultPolicy() Policy {
	return Policy{
		Timeout:         5 * time.Minute,
		MaxAttempts:     3,
		InitialInterval: 5 * time.Second,
		MaxInterval:     time.Minute,
	}
}

// Begin derives a job context from parent carrying a fresh job id and
// the policy timeout
func Begin(parent context.Context, jobType string, policy Policy) (context.Context, context.CancelFunc) {
	ctx, cancel := parent, context.CancelFunc(func() {})
	if policy.Timeout > 0 {
		ctx, cancel = context.WithTimeout(parent, policy.Timeout)
	}
	ctx = context.WithValue(ctx, keyJobID, uuid.New())
	ctx = context.WithValue(ctx, keyJobType, jobType)
	ctx = context.WithValue(ctx, keyAttempt, 0)
	ctx = context.WithValue(ctx, keyStartTime, time.Now())
	return ctx, cancel
}

// Run executes fn until it succeeds, fails with a non-retryable error or
// runs out of attempts. Panics are recovered and end the run.
func Run(ctx context.Context, policy Policy, fn func(context.Context) error) error {
	attempts := policy.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	bo := backoff.NewExponentialBackOff()
	if policy.InitialInterval > 0 {
		bo.InitialInterval = policy.InitialInterval
	}
	if policy.MaxInterval > 0 {
		bo.MaxInterval = policy.MaxInterval
	}
	bo.MaxElapsedTime = 0

	attempt := 0
	op := func() (err error) {
		if ctx.Err() != nil {
			return backoff.Permanent(fmt.Errorf("context cancelled before job execution: %w", ctx.Err()))
		}
		attemptCtx := context.WithValue(ctx, keyAttempt, attempt)
		attempt++

		defer func() {
			if p := recover(); p != nil {
				err = backoff.Permanent(fmt.Errorf("panic recovered: %v", p))
			}
		}()

		err = fn(attemptCtx)
		if err != nil && !IsRetryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}

	policyBackOff := backoff.WithContext(backoff.WithMaxRetries(bo, uint64(attempts-1)), ctx)
	if err := backoff.Retry(op, policyBackOff); err != nil {
		if attempt >= attempts && IsRetryable(err) {
			return fmt.Errorf("max attempts (%d) exceeded: %w", attempts, err)
		}
		return err
	}
	return nil
}

// FromContext extracts the job metadata, zero-valued outside a job
func FromContext(ctx context.Context) Metadata {
	var md Metadata
	md.JobID, _ = ctx.Value(keyJobID).(uuid.UUID)
	md.JobType, _ = ctx.Value(keyJobType).(string)
	md.Attempt, _ = ctx.Value(keyAttempt).(int)
	md.StartTime, _ = ctx.Value(keyStartTime).(time.Time)
	return md
}

// Attempt returns the zero-based attempt number of the running job
func Attempt(ctx context.Context) int {
	n, _ := ctx.Value(keyAttempt).(int)
	return n
}

// IsRetryable reports whether err looks transient: lost connections,
// lock contention and overloaded upstreams
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if errors.Is(err, driver.ErrBadConn) {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, s := range []string{
		"connection refused",
		"connection reset",
		"broken pipe",
		"i/o timeout",
		"no such host",
		"database is locked",
		"deadlock",
		"40001", // serialization_failure
		"40p01", // deadlock_detected
		"too many requests",
		"service unavailable",
		"temporary failure",
		"try again",
	} {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}
