package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, "app:\n  name: test\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "test", cfg.App.Name)
	assert.Equal(t, ":3000", cfg.HTTP.Addr)
	assert.Equal(t, 15*time.Second, cfg.HTTP.HeartbeatInterval)
	assert.Equal(t, 1500*time.Millisecond, cfg.Sim.StepDelay)
	assert.Equal(t, 5*time.Second, cfg.Sim.RecoveryDelay)
	assert.True(t, cfg.NATS.Embedded)
	assert.Empty(t, cfg.Schedules)
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
http:
  addr: ":8080"
sim:
  step_delay: 250ms
nats:
  embedded: false
  url: nats://mesh:4222
schedules:
  - name: hourly-drill
    expression: "0 0 * * * *"
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, 250*time.Millisecond, cfg.Sim.StepDelay)
	assert.False(t, cfg.NATS.Embedded)
	assert.Equal(t, "nats://mesh:4222", cfg.NATS.URL)
	require.Len(t, cfg.Schedules, 1)
	assert.Equal(t, "hourly-drill", cfg.Schedules[0].Name)
}

func TestLoadEnvOverride(t *testing.T) {
	path := writeConfig(t, "http:\n  addr: \":8080\"\n")
	t.Setenv("AMBER_HTTP_ADDR", ":9090")
	t.Setenv("AMBER_SIM_RECOVERY_DELAY", "2s")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.HTTP.Addr)
	assert.Equal(t, 2*time.Second, cfg.Sim.RecoveryDelay)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := writeConfig(t, "sim:\n  recovery_delay: 0s\n")
	_, err = Load(path)
	assert.ErrorContains(t, err, "recovery_delay")

	path = writeConfig(t, "schedules:\n  - name: broken\n")
	_, err = Load(path)
	assert.ErrorContains(t, err, "expression is required")
}
