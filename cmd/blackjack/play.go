package main

import (
	"context"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/coder/quartz"

	"blackjack-tui/internal/api"
	"blackjack-tui/internal/heckler"
	"blackjack-tui/internal/history"
	"blackjack-tui/internal/prefs"
	"blackjack-tui/internal/sequencer"
	"blackjack-tui/internal/session"
	"blackjack-tui/internal/tui"
)

// PlayCmd runs the interactive table screen.
type PlayCmd struct {
	Chips int `help:"Starting chips for a fresh game (overrides config)"`
}

func (p *PlayCmd) Run(cli *CLI) error {
	cfg, err := loadConfig(cli)
	if err != nil {
		return err
	}
	if p.Chips > 0 {
		cfg.Table.StartingChips = p.Chips
	}

	// Log to file; the TUI owns the terminal.
	logFile, err := os.OpenFile(cfg.UI.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o666)
	if err != nil {
		return fmt.Errorf("opening log file: %w", err)
	}
	defer func() { _ = logFile.Close() }()
	logger := newLogger(logFile, cfg.UI.LogLevel)

	logger.Info("Starting blackjack client",
		"server", cfg.Server.URL,
		"config", cli.Config)

	prefStore := prefs.NewStore(cfg.UI.PrefsDir, logger)
	preferences := prefStore.Load()

	hist, err := history.Open(cfg.UI.HistoryDB)
	if err != nil {
		logger.Warn("History unavailable", "error", err)
		hist = nil
	} else {
		defer func() { _ = hist.Close() }()
	}

	client := api.NewClient(cfg.Server.URL, time.Duration(cfg.Server.RequestTimeout)*time.Second, logger)
	sess := session.New(client, logger)
	if cfg.Table.GameID != "" {
		sess.AdoptGame(cfg.Table.GameID)
	}

	seq := sequencer.New(quartz.NewReal(),
		time.Duration(preferences.Dealer.HitDelayMS)*time.Millisecond, logger)

	heckle := heckler.New(time.Now().UnixNano())
	if !cfg.UI.Commentary {
		preferences.Voice.Enabled = false
	}

	// Sit down before handing the terminal to the TUI so the first
	// frame already shows a table.
	if _, err := sess.StartNewGame(context.Background(), cfg.Table.StartingChips); err != nil {
		return fmt.Errorf("connecting to table: %w", err)
	}

	model := tui.New(sess, seq, heckle, hist, prefStore, preferences, logger)
	model.AddLogEntry("=== Blackjack ===")
	model.AddLogEntry("Connected to " + cfg.Server.URL)
	model.AddLogEntry("Type help for commands.")
	model.AddLogEntry("")

	program := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("running TUI: %w", err)
	}
	return nil
}
