package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// statusError is returned by HTTP collaborators for non-2xx responses
type statusError struct {
	Service string
	Status  int
	Body    string
}

func (e *statusError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("%s returned status %d: %s", e.Service, e.Status, e.Body)
	}
	return fmt.Sprintf("%s returned status %d", e.Service, e.Status)
}

// retryable reports whether an HTTP status is worth another attempt
func retryable(status int) bool {
	return status == http.StatusTooManyRequests || status >= 500
}

func newBackOff(maxElapsed time.Duration) *backoff.ExponentialBackOff {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 200 * time.Millisecond
	bo.MaxInterval = 5 * time.Second
	bo.MaxElapsedTime = 20 * time.Second
	if maxElapsed > 0 {
		bo.MaxElapsedTime = maxElapsed
	}
	return bo
}

// withRetry runs fn until it succeeds, returns a permanent error, the
// backoff gives up or ctx is done. Only transient HTTP failures are retried.
func withRetry(ctx context.Context, maxElapsed time.Duration, fn func() error) error {
	op := func() error {
		err := fn()
		if err == nil {
			return nil
		}
		var se *statusError
		if errors.As(err, &se) && !retryable(se.Status) {
			return backoff.Permanent(err)
		}
		if ctx.Err() != nil {
			return backoff.Permanent(ctx.Err())
		}
		return err
	}
	return backoff.Retry(op, backoff.WithContext(newBackOff(maxElapsed), ctx))
}
