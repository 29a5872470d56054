package commons

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"foodstand/internal/config"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, config.DriverSQLite, cfg.Database.Driver)
	assert.Equal(t, []string{"pain", "baguette", "bun"}, cfg.Stand.OptionalTokens)
	assert.Equal(t, 5*time.Second, cfg.Order.TxTimeout)
}

func TestLoadConfig_FileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 8080
database:
  driver: mysql
  host: db
order:
  txTimeout: 2s
  allowOversell: true
stand:
  optionalTokens: [wrap]
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, config.DriverMySQL, cfg.Database.Driver)
	assert.Equal(t, "db", cfg.Database.Host)
	assert.Equal(t, 3306, cfg.Database.Port, "untouched keys keep their default")
	assert.Equal(t, 2*time.Second, cfg.Order.TxTimeout)
	assert.True(t, cfg.Order.AllowOversell)
	assert.Equal(t, []string{"wrap"}, cfg.Stand.OptionalTokens)
}

func TestLoadConfig_EnvWinsOverFile(t *testing.T) {
	path := writeConfig(t, "server:\n  port: 8080\nlog:\n  level: debug\n")
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("STAND_OPTIONAL_TOKENS", "pita, naan")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, []string{"pita", "naan"}, cfg.Stand.OptionalTokens)
}

func TestLoadConfig_InvalidYAML(t *testing.T) {
	path := writeConfig(t, "server: [")

	_, err := LoadConfig(path)
	assert.Error(t, err)
}
