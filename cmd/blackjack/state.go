package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"blackjack-tui/internal/api"
)

// StateCmd polls the current snapshot for a game and prints it, for
// resyncing or debugging against a live server.
type StateCmd struct {
	GameID string `arg:"" help:"Game identifier to query"`
}

func (s *StateCmd) Run(cli *CLI) error {
	cfg, err := loadConfig(cli)
	if err != nil {
		return err
	}

	logger := newLogger(os.Stderr, cfg.UI.LogLevel)
	client := api.NewClient(cfg.Server.URL, time.Duration(cfg.Server.RequestTimeout)*time.Second, logger)

	resp, err := client.GameState(context.Background(), s.GameID)
	if err != nil {
		return fmt.Errorf("fetching state: %w", err)
	}
	if resp.Snapshot == nil {
		return fmt.Errorf("server returned no snapshot")
	}

	out, err := json.MarshalIndent(resp.Snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}
	fmt.Println(string(out))
	return nil
}
