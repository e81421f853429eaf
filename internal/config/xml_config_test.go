package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_WritesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.xml")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "<PLCAssistant>")

	assert.Equal(t, 8090, cfg.Server.Port)
	assert.Equal(t, filepath.Join(dir, "data"), cfg.GetDataDir())
	assert.Equal(t, filepath.Join(dir, "data", "snapshot.duckdb"), cfg.Storage.SnapshotPath)
	assert.Empty(t, cfg.Storage.WatchDirectory)
	assert.Equal(t, 5*time.Second, cfg.GatewayTimeout())
	assert.Equal(t, 5, cfg.Search.DefaultMaxResults)
}

func TestLoadConfig_ReadsFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.xml")
	xml := `<?xml version="1.0" encoding="UTF-8"?>
<PLCAssistant>
  <Server><Port>9100</Port><BindAddress>127.0.0.1</BindAddress></Server>
  <Storage><DataDirectory>/srv/plc</DataDirectory><WatchDirectory>exports</WatchDirectory></Storage>
  <Gateway><BaseURL>http://gw:5000</BaseURL><Transport>msgpack</Transport><TimeoutSeconds>2</TimeoutSeconds></Gateway>
  <Advanced><LogFormat>json</LogFormat></Advanced>
</PLCAssistant>`
	require.NoError(t, os.WriteFile(path, []byte(xml), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9100", cfg.GetServerAddr())
	assert.Equal(t, "/srv/plc", cfg.GetDataDir())
	assert.Equal(t, filepath.Join(dir, "exports"), cfg.Storage.WatchDirectory)
	assert.Equal(t, "msgpack", cfg.Gateway.Transport)
	assert.Equal(t, "json", cfg.Advanced.LogFormat)
	// Elements missing from the file keep their defaults.
	assert.Equal(t, 30, cfg.Search.ContextLines)
	assert.Equal(t, "info", cfg.Advanced.LogLevel)
}

func TestLoadConfig_EnvironmentOverrides(t *testing.T) {
	t.Setenv("PORT", "7000")
	t.Setenv("DATA_DIR", "/tmp/plc-data")
	t.Setenv("PLC_GATEWAY_URL", "http://override:5000")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "config.xml"))
	require.NoError(t, err)
	assert.Equal(t, 7000, cfg.Server.Port)
	assert.Equal(t, "/tmp/plc-data", cfg.GetDataDir())
	assert.Equal(t, "http://override:5000", cfg.Gateway.BaseURL)
}

func TestLoadConfig_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.xml")
	require.NoError(t, os.WriteFile(path, []byte("<PLCAssistant><Server>"), 0644))
	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestAllowedExtensions(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Import.AllowedFileTypes = " .CSV, yaml ,,.txt"
	assert.Equal(t, []string{".csv", ".yaml", ".txt"}, cfg.AllowedExtensions())
}

func TestEnsureDirectories(t *testing.T) {
	dir := t.TempDir()
	cfg := DefaultConfig()
	cfg.resolvePaths(dir)
	require.NoError(t, cfg.EnsureDirectories())

	for _, d := range []string{cfg.GetDataDir(), cfg.GetUploadDir()} {
		info, err := os.Stat(d)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
		assert.True(t, strings.HasPrefix(d, dir))
	}
}
