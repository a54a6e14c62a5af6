// Package retry runs provider calls under a bounded retry-with-backoff policy.
package retry

import (
	"context"
	"errors"
	"time"

	goretry "github.com/sethvargo/go-retry"
)

// Outcome classifies how a retried call ended.
type Outcome int

const (
	// Succeeded means the call returned without error.
	Succeeded Outcome = iota
	// Exhausted means every attempt failed with a retryable error.
	Exhausted
	// Aborted means the call failed with a permanent error or the context ended.
	Aborted
)

func (o Outcome) String() string {
	switch o {
	case Succeeded:
		return "succeeded"
	case Exhausted:
		return "exhausted"
	default:
		return "aborted"
	}
}

// Result is the typed result of Policy.Do.
type Result struct {
	Outcome  Outcome
	Attempts int
	Err      error
}

// OK reports whether the call succeeded.
func (r Result) OK() bool {
	return r.Outcome == Succeeded
}

// Policy bounds the number of retries and the delay between attempts.
// Each attempt runs under its own Timeout when one is set.
type Policy struct {
	MaxRetries uint64
	Base       time.Duration
	Max        time.Duration
	Timeout    time.Duration
}

// DefaultPolicy is used when a client is built without an explicit policy.
var DefaultPolicy = Policy{
	MaxRetries: 3,
	Base:       500 * time.Millisecond,
	Max:        10 * time.Second,
	Timeout:    15 * time.Second,
}

// retryableError marks a failure worth another attempt.
type retryableError struct {
	err error
}

func (e *retryableError) Error() string { return e.err.Error() }
func (e *retryableError) Unwrap() error { return e.err }

// Retryable marks err as worth another attempt.
func Retryable(err error) error {
	if err == nil {
		return nil
	}
	return &retryableError{err: err}
}

// Do runs fn until it succeeds, returns a permanent error, or the retries run out.
// fn signals a transient failure by returning Retryable(err).
func (p Policy) Do(ctx context.Context, fn func(ctx context.Context) error) Result {
	base := p.Base
	if base <= 0 {
		base = DefaultPolicy.Base
	}
	backoff := goretry.NewExponential(base)
	if p.Max > 0 {
		backoff = goretry.WithCappedDuration(p.Max, backoff)
	}
	backoff = goretry.WithMaxRetries(p.MaxRetries, backoff)

	attempts := 0
	lastRetryable := false
	err := goretry.Do(ctx, backoff, func(ctx context.Context) error {
		attempts++
		callCtx := ctx
		if p.Timeout > 0 {
			var cancel context.CancelFunc
			callCtx, cancel = context.WithTimeout(ctx, p.Timeout)
			defer cancel()
		}
		err := fn(callCtx)
		var re *retryableError
		if errors.As(err, &re) {
			lastRetryable = true
			return goretry.RetryableError(re.err)
		}
		if err != nil && errors.Is(callCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			lastRetryable = true
			return goretry.RetryableError(err)
		}
		lastRetryable = false
		return err
	})

	switch {
	case err == nil:
		return Result{Outcome: Succeeded, Attempts: attempts}
	case lastRetryable && ctx.Err() == nil:
		return Result{Outcome: Exhausted, Attempts: attempts, Err: err}
	default:
		return Result{Outcome: Aborted, Attempts: attempts, Err: err}
	}
}
