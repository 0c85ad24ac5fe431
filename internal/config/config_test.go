package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "INFO", cfg.Log.Level)
	assert.Equal(t, int32(10), cfg.DB.MaxConns)
	assert.Equal(t, "*/1 * * * *", cfg.Scheduler.Pattern)
	assert.Equal(t, 60*time.Second, cfg.Agent.Timeout)
	assert.Equal(t, 10*time.Minute, cfg.Runner.RunTimeout)
	assert.Equal(t, 1, cfg.Runner.WorkspaceParallelism)
	assert.Empty(t, cfg.RabbitMQ.URL)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("CONVEYOR_SCHEDULER_PATTERN", "*/5 * * * *")
	t.Setenv("CONVEYOR_RUNNER_MAX_CONCURRENCY", "4")
	t.Setenv("CONVEYOR_AGENT_TIMEOUT", "15s")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "*/5 * * * *", cfg.Scheduler.Pattern)
	assert.Equal(t, 4, cfg.Runner.MaxConcurrency)
	assert.Equal(t, 15*time.Second, cfg.Agent.Timeout)
}

func TestLoad_LegacyEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("DB_URL", "postgresql://legacy@localhost/db")
	t.Setenv("NESTBOX_AI_INSTANCE_IP", "http://agents.local/")
	t.Setenv("NESTBOX_AI_INSTANCE_API_KEY", "secret")
	t.Setenv("NESTBOX_AI_AGENT_CRON_PATTERN", "@every 30s")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "postgresql://legacy@localhost/db", cfg.DB.URL)
	assert.Equal(t, "http://agents.local", cfg.Agent.BaseURL)
	assert.Equal(t, "secret", cfg.Agent.APIKey)
	assert.Equal(t, "@every 30s", cfg.Scheduler.Pattern)
}

func TestLoad_PrefixedEnvWinsOverLegacy(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("DB_URL", "postgresql://legacy@localhost/db")
	t.Setenv("CONVEYOR_DB_URL", "postgresql://new@localhost/db")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "postgresql://new@localhost/db", cfg.DB.URL)
}

func TestLoad_File(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "conveyor.yaml")
	data := []byte(`
scheduler:
  pattern: "0 * * * *"
  auto_start: true
runner:
  workspace_parallelism: 3
`)
	require.NoError(t, os.WriteFile(path, data, 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "0 * * * *", cfg.Scheduler.Pattern)
	assert.True(t, cfg.Scheduler.AutoStart)
	assert.Equal(t, 3, cfg.Runner.WorkspaceParallelism)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	t.Chdir(t.TempDir())
	cfg, err := Load("")
	require.NoError(t, err)

	cfg.Runner.WorkspaceParallelism = 0
	assert.Error(t, cfg.Validate())

	cfg.Runner.WorkspaceParallelism = 1
	cfg.Scheduler.Timezone = "Mars/Olympus"
	assert.Error(t, cfg.Validate())
}
