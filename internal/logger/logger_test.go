package logger_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ndewijer/invest-tracker/internal/logger"
)

func TestNew(t *testing.T) {
	t.Run("writes JSON with component field", func(t *testing.T) {
		var buf bytes.Buffer
		log := logger.Component(logger.New(logger.Config{Level: "debug", Output: &buf}), "refresh")

		log.Info().Str("account", "a1").Msg("done")

		var entry map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
		assert.Equal(t, "refresh", entry["component"])
		assert.Equal(t, "a1", entry["account"])
		assert.Equal(t, "info", entry["level"])
	})

	t.Run("level filters lower entries", func(t *testing.T) {
		var buf bytes.Buffer
		log := logger.New(logger.Config{Level: "warn", Output: &buf})

		log.Info().Msg("hidden")

		assert.Empty(t, buf.String())
	})

	t.Run("unknown level falls back to info", func(t *testing.T) {
		var buf bytes.Buffer
		log := logger.New(logger.Config{Level: "loud", Output: &buf})

		log.Debug().Msg("hidden")
		log.Info().Msg("shown")

		assert.Contains(t, buf.String(), "shown")
		assert.NotContains(t, buf.String(), "hidden")
	})
}
