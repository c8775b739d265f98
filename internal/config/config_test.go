package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robalobadob/numberduel/apps/go-server/internal/game"
)

func TestFromEnv_Defaults(t *testing.T) {
	for _, k := range []string{"PORT", "MIN_NUMBER", "MAX_NUMBER", "MAX_ATTEMPTS", "THINK_DELAY_MS", "REDIS_ADDR"} {
		t.Setenv(k, "")
	}
	c, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, "5175", c.Port)
	assert.Equal(t, game.Config{Min: 1, Max: 100, MaxAttempts: 12}, c.DefaultRound)
	assert.Equal(t, time.Second, c.ThinkDelay)
	assert.Equal(t, 24*time.Hour, c.TokenTTL)
	assert.Empty(t, c.RedisAddr)
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("MIN_NUMBER", "-10")
	t.Setenv("MAX_NUMBER", "10")
	t.Setenv("MAX_ATTEMPTS", "4")
	t.Setenv("THINK_DELAY_MS", "0")
	t.Setenv("GUESS_RATE_LIMIT", "nope")

	c, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, "9000", c.Port)
	assert.Equal(t, game.Config{Min: -10, Max: 10, MaxAttempts: 4}, c.DefaultRound)
	assert.Equal(t, time.Duration(0), c.ThinkDelay)
	assert.Equal(t, 60, c.GuessRateLimit)
}

func TestFromEnv_InvalidRound(t *testing.T) {
	t.Setenv("MIN_NUMBER", "50")
	t.Setenv("MAX_NUMBER", "50")
	_, err := FromEnv()
	require.ErrorIs(t, err, game.ErrInvalidConfiguration)
}
