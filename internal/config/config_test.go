package config

import (
	"os"
	"testing"

	"github.com/calvinwijaya/blackjack-table/internal/game"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"PORT", "DB_DRIVER", "DB_DSN", "FRONTEND_URL", "LOG_LEVEL", "DECKS", "PENETRATION", "HIT_SOFT_17", "MIN_BET", "MAX_BET"} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(nil)
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "sqlite3", cfg.DBDriver)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, game.DefaultRules(), cfg.Rules)
}

func TestLoadEnvAndFlags(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9000")
	t.Setenv("DECKS", "2")
	t.Setenv("HIT_SOFT_17", "true")
	t.Setenv("PENETRATION", "0.5")
	t.Setenv("LOG_LEVEL", "")

	cfg, err := Load([]string{"-min-bet", "25", "-port", "9100", "-db-driver="})
	require.NoError(t, err)
	assert.Equal(t, "9100", cfg.Port)
	assert.Equal(t, "", cfg.DBDriver)
	assert.Equal(t, 2, cfg.Rules.DeckCount)
	assert.True(t, cfg.Rules.DealerHitsSoft17)
	assert.Equal(t, 0.5, cfg.Rules.Penetration)
	assert.Equal(t, 25, cfg.Rules.MinBet)
	assert.Equal(t, "info", cfg.LogLevel, "empty variables keep the default")
}

func TestLoadWithoutDatabase(t *testing.T) {
	clearEnv(t)
	t.Setenv("DB_DRIVER", "none")
	cfg, err := Load(nil)
	require.NoError(t, err)
	assert.Equal(t, "", cfg.DBDriver)
}

func TestLoadErrors(t *testing.T) {
	clearEnv(t)
	t.Setenv("DECKS", "six")
	_, err := Load(nil)
	assert.ErrorContains(t, err, "environment")
	assert.ErrorContains(t, err, "six")

	t.Setenv("DECKS", "6")
	t.Setenv("HIT_SOFT_17", "sometimes")
	_, err = Load(nil)
	assert.ErrorContains(t, err, "sometimes")
	t.Setenv("HIT_SOFT_17", "")

	_, err = Load([]string{"-penetration", "1.5"})
	assert.ErrorIs(t, err, game.ErrInvalidConfig)

	_, err = Load([]string{"-db-driver", "mysql"})
	assert.Error(t, err)
}
