package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFlagSet(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("config", "", "")
	registerConfigFlags(fs)
	require.NoError(t, fs.Parse(args))
	return fs
}

func writeConfigFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "authd.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDaemonConfigDefaults(t *testing.T) {
	cfg, err := loadDaemonConfig("", newFlagSet(t))
	require.NoError(t, err)
	assert.Equal(t, defaultDaemonConfig(), cfg)
	assert.Equal(t, 10*time.Minute, cfg.SweepInterval)
	assert.Equal(t, 24*time.Hour, cfg.SessionTTL)
}

func TestLoadDaemonConfigLayering(t *testing.T) {
	path := writeConfigFile(t, `
listen: 0.0.0.0:9000
data_dir: /from/file
session_ttl: 2h
lock_timeout: 3s
cookie_secure: false
`)
	t.Setenv("AUTHD_DATA_DIR", "/from/env")
	t.Setenv("AUTHD_SESSION_TTL", "90m")

	cfg, err := loadDaemonConfig(path, newFlagSet(t, "--session-ttl=30m"))
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:9000", cfg.Listen, "file value kept when env and flags are silent")
	assert.Equal(t, 3*time.Second, cfg.LockTimeout)
	assert.False(t, cfg.CookieSecure)
	assert.Equal(t, "/from/env", cfg.DataDir, "env overrides file")
	assert.Equal(t, 30*time.Minute, cfg.SessionTTL, "changed flag overrides env")
}

func TestLoadDaemonConfigUnchangedFlagsDoNotOverride(t *testing.T) {
	t.Setenv("AUTHD_LISTEN", "127.0.0.1:7000")

	cfg, err := loadDaemonConfig("", newFlagSet(t, "--metrics=false"))
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:7000", cfg.Listen)
	assert.False(t, cfg.Metrics)
}

func TestLoadDaemonConfigErrors(t *testing.T) {
	_, err := loadDaemonConfig(filepath.Join(t.TempDir(), "missing.yaml"), nil)
	assert.Error(t, err)

	t.Setenv("AUTHD_SESSION_TTL", "not-a-duration")
	_, err = loadDaemonConfig("", nil)
	assert.Error(t, err)
}

func TestEngineConfigMapping(t *testing.T) {
	d := defaultDaemonConfig()
	d.DataDir = t.TempDir()
	d.RedisAddr = "127.0.0.1:6379"
	d.IPThrottle = true
	d.AuditLog = "-"

	cfg, err := d.engineConfig()
	require.NoError(t, err)
	assert.Equal(t, d.DataDir, cfg.Storage.DataDir)
	assert.True(t, cfg.Security.EnableLoginThrottle)
	assert.True(t, cfg.Security.EnableIPThrottle)
	assert.True(t, cfg.Audit.Enabled)
	assert.True(t, cfg.Metrics.EnableLatencyHistograms)

	d.SessionTTL = 0
	_, err = d.engineConfig()
	assert.Error(t, err)

	d = defaultDaemonConfig()
	d.DataDir = ""
	_, err = d.engineConfig()
	assert.Error(t, err)
}
