package app_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ndewijer/invest-tracker/internal/app"
	"github.com/ndewijer/invest-tracker/internal/config"
)

// TestNew covers wiring from a config.
//
// WHY: the server and the CLI share this constructor; a missing schedule file must
// not stop either, while a broken one must.
func TestNew(t *testing.T) {
	ctx := context.Background()
	newConfig := func(t *testing.T, bondFile string) *config.Config {
		t.Helper()
		dir := t.TempDir()
		return &config.Config{
			Database: config.DatabaseConfig{Path: filepath.Join(dir, "data", "tracker.db")},
			Refresh:  config.RefreshConfig{Workers: 2},
			Providers: config.ProvidersConfig{
				Retries:       1,
				BondRatesFile: bondFile,
			},
		}
	}

	t.Run("builds without a bond file", func(t *testing.T) {
		// Setup
		cfg := newConfig(t, filepath.Join(t.TempDir(), "missing.yaml"))

		// Execute
		a, err := app.New(ctx, cfg, zerolog.Nop())

		// Assert
		require.NoError(t, err)
		t.Cleanup(func() { a.Close() })
		assert.NoError(t, a.System.CheckHealth(ctx))
		accounts, err := a.Accounts.GetAccounts(ctx)
		require.NoError(t, err)
		assert.Empty(t, accounts)
	})

	t.Run("loads the bond file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bonds.yaml")
		require.NoError(t, os.WriteFile(path, []byte("series:\n  - series: EDO0132\n    rates: [0.068, 0.0275]\n"), 0o600))
		cfg := newConfig(t, path)

		a, err := app.New(ctx, cfg, zerolog.Nop())

		require.NoError(t, err)
		t.Cleanup(func() { a.Close() })
		series, err := a.Bonds.GetSeries(ctx)
		require.NoError(t, err)
		require.Len(t, series, 1)
		assert.Equal(t, "EDO0132", series[0].Series)
	})

	t.Run("rejects a broken bond file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bonds.yaml")
		require.NoError(t, os.WriteFile(path, []byte("series: [\n"), 0o600))

		_, err := app.New(ctx, newConfig(t, path), zerolog.Nop())

		assert.ErrorContains(t, err, "bond rates")
	})
}
