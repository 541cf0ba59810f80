package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimeframe(t *testing.T) {
	t.Run("minutes", func(t *testing.T) {
		d, err := ParseTimeframe("15m")
		require.NoError(t, err)
		assert.Equal(t, 15*time.Minute, d)
	})

	t.Run("hours", func(t *testing.T) {
		d, err := ParseTimeframe("4h")
		require.NoError(t, err)
		assert.Equal(t, 4*time.Hour, d)
	})

	t.Run("days", func(t *testing.T) {
		d, err := ParseTimeframe("1d")
		require.NoError(t, err)
		assert.Equal(t, 24*time.Hour, d)
	})

	t.Run("trims and lowercases", func(t *testing.T) {
		d, err := ParseTimeframe(" 1H ")
		require.NoError(t, err)
		assert.Equal(t, time.Hour, d)
	})

	t.Run("rejects garbage", func(t *testing.T) {
		for _, label := range []string{"", "h", "0m", "-5m", "1w", "m15"} {
			_, err := ParseTimeframe(label)
			assert.Error(t, err, "label %q", label)
		}
	})
}

func TestFormatTimeframe(t *testing.T) {
	t.Run("round trips the common labels", func(t *testing.T) {
		for _, label := range []string{"1m", "15m", "1h", "4h", "1d", "7d"} {
			d, err := ParseTimeframe(label)
			require.NoError(t, err)
			assert.Equal(t, label, FormatTimeframe(d))
		}
	})

	t.Run("ninety minutes stays in minutes", func(t *testing.T) {
		assert.Equal(t, "90m", FormatTimeframe(90*time.Minute))
	})
}
