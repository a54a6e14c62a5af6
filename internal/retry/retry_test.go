package retry_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/ndewijer/invest-tracker/internal/retry"
)

var fast = retry.Policy{MaxRetries: 3, Base: time.Millisecond, Max: 2 * time.Millisecond}

// TestPolicyDo covers the three outcomes of a retried call.
//
// WHY: provider clients decide between "skip ticker" and "abort" from the
// Outcome, so the classification must be exact.
func TestPolicyDo(t *testing.T) {
	t.Run("succeeds after transient failures", func(t *testing.T) {
		calls := 0
		res := fast.Do(context.Background(), func(context.Context) error {
			calls++
			if calls < 3 {
				return retry.Retryable(errors.New("503"))
			}
			return nil
		})

		assert.True(t, res.OK())
		assert.Equal(t, 3, res.Attempts)
		assert.NoError(t, res.Err)
	})

	t.Run("exhausts bounded retries", func(t *testing.T) {
		transient := errors.New("503")
		res := fast.Do(context.Background(), func(context.Context) error {
			return retry.Retryable(transient)
		})

		assert.Equal(t, retry.Exhausted, res.Outcome)
		assert.Equal(t, 4, res.Attempts)
		assert.ErrorIs(t, res.Err, transient)
	})

	t.Run("permanent error aborts immediately", func(t *testing.T) {
		permanent := errors.New("400")
		res := fast.Do(context.Background(), func(context.Context) error {
			return permanent
		})

		assert.Equal(t, retry.Aborted, res.Outcome)
		assert.Equal(t, 1, res.Attempts)
		assert.ErrorIs(t, res.Err, permanent)
	})

	t.Run("per-call timeout is retried", func(t *testing.T) {
		p := fast
		p.Timeout = 5 * time.Millisecond
		calls := 0
		res := p.Do(context.Background(), func(ctx context.Context) error {
			calls++
			if calls == 1 {
				<-ctx.Done()
				return ctx.Err()
			}
			return nil
		})

		assert.True(t, res.OK())
		assert.Equal(t, 2, res.Attempts)
	})

	t.Run("cancelled context aborts", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		res := fast.Do(ctx, func(context.Context) error {
			return retry.Retryable(errors.New("503"))
		})

		assert.Equal(t, retry.Aborted, res.Outcome)
	})
}
