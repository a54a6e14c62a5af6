package database_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ndewijer/invest-tracker/internal/database"
)

// TestOpen verifies that a fresh file database comes up fully migrated.
//
// WHY: the server and CLI both rely on Open to create the schema; a missing
// table would only surface on the first refresh run.
func TestOpen(t *testing.T) {
	t.Run("creates schema", func(t *testing.T) {
		// Setup
		path := filepath.Join(t.TempDir(), "tracker.db")

		// Execute
		db, err := database.Open(path)
		require.NoError(t, err)
		t.Cleanup(func() { db.Close() })

		// Assert
		for _, table := range []string{"account", "ledger_transaction", "price_history", "exchange_rate", "bond_rate", "account_history", "account_history_ticker", "provider_coverage"} {
			var name string
			err := db.QueryRow("SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?", table).Scan(&name)
			assert.NoError(t, err, table)
		}
		assert.NoError(t, database.HealthCheck(context.Background(), db))

		version, pending, err := database.SchemaVersion(context.Background(), db)
		require.NoError(t, err)
		assert.Equal(t, int64(2), version)
		assert.False(t, pending)
	})

	t.Run("migrate is idempotent", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "tracker.db")
		db, err := database.Open(path)
		require.NoError(t, err)
		t.Cleanup(func() { db.Close() })

		assert.NoError(t, database.Migrate(context.Background(), db))
	})
}
