package scheduler

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/ndewijer/invest-tracker/internal/model"
)

// Refresher refreshes every account.
type Refresher interface {
	RefreshAll(ctx context.Context) ([]model.RefreshReport, error)
}

// RefreshJob brings every account's history up to date.
type RefreshJob struct {
	refresher Refresher
	timeout   time.Duration
	log       zerolog.Logger
}

// NewRefreshJob creates the refresh job. A run is cancelled after timeout;
// zero means no limit.
func NewRefreshJob(refresher Refresher, timeout time.Duration, log zerolog.Logger) *RefreshJob {
	return &RefreshJob{
		refresher: refresher,
		timeout:   timeout,
		log:       log.With().Str("job", "refresh_accounts").Logger(),
	}
}

// Name returns the job name.
func (j *RefreshJob) Name() string {
	return "refresh_accounts"
}

// Run refreshes all accounts and logs a summary per account. Errors of individual
// accounts are returned joined after every account was attempted.
func (j *RefreshJob) Run() error {
	ctx := context.Background()
	if j.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.timeout)
		defer cancel()
	}

	start := time.Now()
	reports, err := j.refresher.RefreshAll(ctx)
	for _, r := range reports {
		j.log.Info().
			Str("account_id", r.AccountID).
			Str("previous_state", r.PreviousState.State.String()).
			Int("rows", r.RowsWritten).
			Int("tickers_ok", r.Succeeded()).
			Int("tickers_failed", r.Failed()).
			Msg("account refreshed")
	}
	j.log.Info().
		Int("accounts", len(reports)).
		Dur("duration", time.Since(start)).
		Msg("refresh run finished")
	return err
}
