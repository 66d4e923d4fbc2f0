package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mcdev12/twinflash/go/internal/game/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "twinflash.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"PORT", "RESULTS_URL", "GAME_MODE", "NATS_URL", "DB_ENABLED"} {
		t.Setenv(key, "")
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, session.DefaultConfig(), cfg.Session())
	assert.Equal(t, session.ModeUniform, cfg.Mode())
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.False(t, cfg.NATS.Enabled)
	assert.False(t, cfg.Database.Enabled)
}

func TestLoad_File(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
game:
  show_delay_ms: 150
  hide_delay_ms: 3000
  mode: cross
server:
  port: 9090
nats:
  enabled: true
  stream: GAMES
database:
  enabled: true
  batch_size: 10
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	sc := cfg.Session()
	assert.Equal(t, 150*time.Millisecond, sc.ShowDelay)
	assert.Equal(t, session.DefaultActivateDelay, sc.ActivateDelay)
	assert.Equal(t, 3*time.Second, sc.HideDelay)
	assert.Equal(t, session.ModeCross, cfg.Mode())
	assert.Equal(t, 9090, cfg.Server.Port)

	js := cfg.JetStream()
	assert.Equal(t, "GAMES", js.StreamName)
	assert.Equal(t, "twinflash.events", js.SubjectPrefix)

	relay := cfg.Relay()
	assert.Equal(t, int32(10), relay.BatchSize)
	assert.Equal(t, 5*time.Second, relay.PollInterval)
}

func TestLoad_MissingDefaultFile(t *testing.T) {
	clearEnv(t)
	t.Chdir(t.TempDir())

	cfg, err := Load(DefaultPath)
	require.NoError(t, err)
	assert.Equal(t, session.DefaultConfig(), cfg.Session())
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("PORT", "7000")
	t.Setenv("GAME_MODE", "CROSS")
	t.Setenv("NATS_URL", "nats://example:4222")
	t.Setenv("DB_ENABLED", "true")

	cfg, err := Load(writeConfig(t, "server:\n  port: 9090\n"))
	require.NoError(t, err)
	assert.Equal(t, 7000, cfg.Server.Port)
	assert.Equal(t, session.ModeCross, cfg.Mode())
	assert.True(t, cfg.NATS.Enabled)
	assert.Equal(t, "nats://example:4222", cfg.JetStream().URL)
	assert.True(t, cfg.Database.Enabled)
}

func TestLoad_Invalid(t *testing.T) {
	clearEnv(t)
	tests := []struct {
		name string
		body string
		err  error
	}{
		{"bad mode", "game:\n  mode: diagonal\n", session.ErrInvalidMode},
		{"zero delay", "game:\n  hide_delay_ms: 0\n", session.ErrInvalidConfig},
		{"bad port", "server:\n  port: 70000\n", nil},
		{"bad yaml", "game: [", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			require.Error(t, err)
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
			}
		})
	}
}

func TestGetEnvAsInt(t *testing.T) {
	t.Setenv("TWINFLASH_TEST_INT", "not a number")
	assert.Equal(t, 3, getEnvAsInt("TWINFLASH_TEST_INT", 3))
	t.Setenv("TWINFLASH_TEST_INT", "12")
	assert.Equal(t, 12, getEnvAsInt("TWINFLASH_TEST_INT", 3))
}
