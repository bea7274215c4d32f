package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"SERVER_PORT", "API_BASE_URL", "SESSION_SECRET", "SESSION_NAME", "GIN_MODE", "SESSION_MAX_AGE"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("SESSION_SECRET", "test-secret")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, "http://localhost:8000", cfg.APIBaseURL)
	assert.Equal(t, "console_session", cfg.SessionName)
	assert.Equal(t, 7*24*60*60, cfg.SessionMaxAge)
	assert.Equal(t, "test-secret", cfg.SessionSecret)
}

func TestLoad_MissingSecretFails(t *testing.T) {
	clearEnv(t)

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SESSION_SECRET")
}

func TestLoad_YAMLFile(t *testing.T) {
	clearEnv(t)
	path := writeConfigFile(t, `
server_port: "9090"
api_base_url: http://records.internal:8000
session_secret: file-secret
session_name: my_session
session_max_age: 3600
gin_mode: release
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.ServerPort)
	assert.Equal(t, "http://records.internal:8000", cfg.APIBaseURL)
	assert.Equal(t, "file-secret", cfg.SessionSecret)
	assert.Equal(t, "my_session", cfg.SessionName)
	assert.Equal(t, 3600, cfg.SessionMaxAge)
	assert.Equal(t, "release", cfg.GinMode)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	clearEnv(t)
	path := writeConfigFile(t, `
server_port: "9090"
session_secret: file-secret
`)
	t.Setenv("SERVER_PORT", "7000")
	t.Setenv("SESSION_SECRET", "env-secret")
	t.Setenv("SESSION_MAX_AGE", "120")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "7000", cfg.ServerPort)
	assert.Equal(t, "env-secret", cfg.SessionSecret)
	assert.Equal(t, 120, cfg.SessionMaxAge)
}

func TestLoad_MissingFileIsSkipped(t *testing.T) {
	clearEnv(t)
	t.Setenv("SESSION_SECRET", "test-secret")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.ServerPort)
}

func TestLoad_BadYAMLFails(t *testing.T) {
	clearEnv(t)
	path := writeConfigFile(t, "server_port: [not: valid")

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_InvalidMaxAgeFails(t *testing.T) {
	clearEnv(t)
	t.Setenv("SESSION_SECRET", "test-secret")
	t.Setenv("SESSION_MAX_AGE", "soon")

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SESSION_MAX_AGE")
}
