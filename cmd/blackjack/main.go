package main

import (
	"fmt"
	"io"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/log"

	"blackjack-tui/internal/config"
)

// version is set by ldflags during build
var version = "dev"

type CLI struct {
	Version  kong.VersionFlag `short:"v" help:"Show version"`
	Config   string           `short:"c" default:"blackjack.hcl" help:"Path to HCL configuration file"`
	Server   string           `short:"s" help:"Server URL (overrides config)"`
	LogLevel string           `short:"l" help:"Log level (overrides config)"`
	LogFile  string           `help:"Log file path (overrides config)"`

	Play  PlayCmd  `cmd:"" default:"withargs" help:"Sit down at the table (interactive)"`
	Auto  AutoCmd  `cmd:"" help:"Run a headless auto-play batch"`
	State StateCmd `cmd:"" help:"Print the current game snapshot"`
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("blackjack"),
		kong.Description("Terminal client for the blackjack table server"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Vars{
			"version": version,
		},
	)
	err := ctx.Run(&cli)
	ctx.FatalIfErrorf(err)
}

// loadConfig reads the HCL file and applies command-line overrides.
func loadConfig(cli *CLI) (*config.Config, error) {
	cfg, err := config.Load(cli.Config)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	if cli.Server != "" {
		cfg.Server.URL = cli.Server
	}
	if cli.LogLevel != "" {
		cfg.UI.LogLevel = cli.LogLevel
	}
	if cli.LogFile != "" {
		cfg.UI.LogFile = cli.LogFile
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func newLogger(w io.Writer, level string) *log.Logger {
	logger := log.New(w)
	switch level {
	case "debug":
		logger.SetLevel(log.DebugLevel)
	case "info":
		logger.SetLevel(log.InfoLevel)
	case "warn":
		logger.SetLevel(log.WarnLevel)
	case "error":
		logger.SetLevel(log.ErrorLevel)
	default:
		logger.SetLevel(log.InfoLevel)
	}
	return logger
}
