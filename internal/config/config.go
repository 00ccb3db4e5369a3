// Package config loads the client configuration from an HCL file.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
)

// Config is the complete client configuration.
type Config struct {
	Server ServerSettings `hcl:"server,block"`
	Table  TableSettings  `hcl:"table,block"`
	UI     UISettings     `hcl:"ui,block"`
}

// ServerSettings contains table server connection settings.
type ServerSettings struct {
	URL            string `hcl:"url"`
	RequestTimeout int    `hcl:"request_timeout,optional"` // seconds
}

// TableSettings contains per-game settings.
type TableSettings struct {
	StartingChips int    `hcl:"starting_chips,optional"`
	GameID        string `hcl:"game_id,optional"` // resume a prior game
}

// UISettings contains user interface settings.
type UISettings struct {
	LogLevel   string `hcl:"log_level,optional"`
	LogFile    string `hcl:"log_file,optional"`
	PrefsDir   string `hcl:"prefs_dir,optional"`
	HistoryDB  string `hcl:"history_db,optional"`
	Commentary bool   `hcl:"commentary,optional"`
}

// Default returns the stock configuration.
func Default() *Config {
	return &Config{
		Server: ServerSettings{
			URL:            "http://localhost:5000",
			RequestTimeout: 30,
		},
		Table: TableSettings{
			StartingChips: 1000,
		},
		UI: UISettings{
			LogLevel:   "warn",
			LogFile:    "blackjack-tui.log",
			PrefsDir:   defaultStateDir("prefs"),
			HistoryDB:  filepath.Join(defaultStateDir(""), "history.db"),
			Commentary: true,
		},
	}
}

func defaultStateDir(sub string) string {
	base, err := os.UserConfigDir()
	if err != nil {
		base = "."
	}
	return filepath.Join(base, "blackjack-tui", sub)
}

// Load reads configuration from filename, layering defaults under any
// values the file omits. A missing file yields the defaults.
func Load(filename string) (*Config, error) {
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return Default(), nil
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("parse config: %s", diags.Error())
	}

	var cfg Config
	diags = gohcl.DecodeBody(file.Body, nil, &cfg)
	if diags.HasErrors() {
		return nil, fmt.Errorf("decode config: %s", diags.Error())
	}

	defaults := Default()
	if cfg.Server.URL == "" {
		cfg.Server.URL = defaults.Server.URL
	}
	if cfg.Server.RequestTimeout == 0 {
		cfg.Server.RequestTimeout = defaults.Server.RequestTimeout
	}
	if cfg.Table.StartingChips == 0 {
		cfg.Table.StartingChips = defaults.Table.StartingChips
	}
	if cfg.UI.LogLevel == "" {
		cfg.UI.LogLevel = defaults.UI.LogLevel
	}
	if cfg.UI.LogFile == "" {
		cfg.UI.LogFile = defaults.UI.LogFile
	}
	if cfg.UI.PrefsDir == "" {
		cfg.UI.PrefsDir = defaults.UI.PrefsDir
	}
	if cfg.UI.HistoryDB == "" {
		cfg.UI.HistoryDB = defaults.UI.HistoryDB
	}

	return &cfg, nil
}

// Validate checks the configuration for usable values.
func (c *Config) Validate() error {
	if c.Server.URL == "" {
		return fmt.Errorf("server URL is required")
	}
	if c.Server.RequestTimeout <= 0 {
		return fmt.Errorf("request timeout must be positive")
	}
	if c.Table.StartingChips <= 0 {
		return fmt.Errorf("starting chips must be positive")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.UI.LogLevel] {
		return fmt.Errorf("invalid log level: %s", c.UI.LogLevel)
	}

	return nil
}
