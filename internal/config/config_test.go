package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "blackjack.hcl")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadMissingFileYieldsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.hcl"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadFullConfig(t *testing.T) {
	path := writeConfig(t, `
server {
  url             = "http://example.test:8080"
  request_timeout = 10
}

table {
  starting_chips = 5000
  game_id        = "resume-me"
}

ui {
  log_level  = "debug"
  log_file   = "bj.log"
  commentary = true
}
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "http://example.test:8080", cfg.Server.URL)
	assert.Equal(t, 10, cfg.Server.RequestTimeout)
	assert.Equal(t, 5000, cfg.Table.StartingChips)
	assert.Equal(t, "resume-me", cfg.Table.GameID)
	assert.Equal(t, "debug", cfg.UI.LogLevel)
	assert.True(t, cfg.UI.Commentary)
}

func TestLoadLayersDefaults(t *testing.T) {
	path := writeConfig(t, `
server {
  url = "http://example.test:8080"
}

table {}

ui {}
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "http://example.test:8080", cfg.Server.URL)
	assert.Equal(t, 30, cfg.Server.RequestTimeout)
	assert.Equal(t, 1000, cfg.Table.StartingChips)
	assert.Equal(t, "warn", cfg.UI.LogLevel)
	assert.NotEmpty(t, cfg.UI.PrefsDir)
	assert.NotEmpty(t, cfg.UI.HistoryDB)
}

func TestLoadMalformedFile(t *testing.T) {
	path := writeConfig(t, `server { url = `)
	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	cfg = Default()
	cfg.Server.URL = ""
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Server.RequestTimeout = 0
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Table.StartingChips = -100
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.UI.LogLevel = "loud"
	assert.Error(t, cfg.Validate())

	for _, level := range []string{"debug", "info", "warn", "error"} {
		cfg = Default()
		cfg.UI.LogLevel = level
		assert.NoError(t, cfg.Validate(), level)
	}
}
