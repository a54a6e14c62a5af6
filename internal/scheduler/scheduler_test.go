package scheduler_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ndewijer/invest-tracker/internal/model"
	"github.com/ndewijer/invest-tracker/internal/scheduler"
)

type fakeRefresher struct {
	mu       sync.Mutex
	calls    int
	reports  []model.RefreshReport
	err      error
	deadline bool
}

func (f *fakeRefresher) RefreshAll(ctx context.Context) ([]model.RefreshReport, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	_, f.deadline = ctx.Deadline()
	return f.reports, f.err
}

func (f *fakeRefresher) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// TestScheduler_AddJob covers cron registration.
//
// WHY: the refresh schedule comes from the environment; an expression the parser
// rejects must fail at startup instead of silently never running.
func TestScheduler_AddJob(t *testing.T) {
	t.Run("accepts six-field expressions", func(t *testing.T) {
		// Setup
		s := scheduler.New(zerolog.Nop())
		job := scheduler.NewRefreshJob(&fakeRefresher{}, 0, zerolog.Nop())

		// Execute
		err := s.AddJob("0 30 18 * * *", job)

		// Assert
		require.NoError(t, err)
		assert.Equal(t, 1, s.Entries())
	})

	t.Run("rejects five-field expressions", func(t *testing.T) {
		s := scheduler.New(zerolog.Nop())
		job := scheduler.NewRefreshJob(&fakeRefresher{}, 0, zerolog.Nop())

		err := s.AddJob("30 18 * * *", job)

		assert.Error(t, err)
		assert.Equal(t, 0, s.Entries())
	})

	t.Run("runs on schedule", func(t *testing.T) {
		// Setup
		refresher := &fakeRefresher{}
		s := scheduler.New(zerolog.Nop())
		require.NoError(t, s.AddJob("@every 1s", scheduler.NewRefreshJob(refresher, time.Minute, zerolog.Nop())))

		// Execute
		s.Start()
		defer s.Stop()

		// Assert
		assert.Eventually(t, func() bool { return refresher.Calls() > 0 }, 3*time.Second, 50*time.Millisecond)
	})
}

// TestRefreshJob_Run covers the job body.
//
// WHY: per-account failures must surface as the job error so the scheduler logs
// them, while a timeout must bound a run stuck on a slow provider.
func TestRefreshJob_Run(t *testing.T) {
	t.Run("returns the refresher error", func(t *testing.T) {
		// Setup
		failure := errors.New("account a: boom")
		refresher := &fakeRefresher{
			reports: []model.RefreshReport{{AccountID: "b", RowsWritten: 3}},
			err:     failure,
		}
		job := scheduler.NewRefreshJob(refresher, 0, zerolog.Nop())

		// Execute
		err := job.Run()

		// Assert
		assert.ErrorIs(t, err, failure)
		assert.Equal(t, 1, refresher.Calls())
		assert.False(t, refresher.deadline)
	})

	t.Run("applies the timeout", func(t *testing.T) {
		refresher := &fakeRefresher{}
		job := scheduler.NewRefreshJob(refresher, time.Minute, zerolog.Nop())

		require.NoError(t, scheduler.New(zerolog.Nop()).RunNow(job))

		assert.True(t, refresher.deadline)
		assert.Equal(t, "refresh_accounts", job.Name())
	})
}
