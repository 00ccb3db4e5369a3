package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"blackjack-tui/internal/api"
	"blackjack-tui/internal/session"
)

// AutoCmd runs a server-driven batch of rounds without the TUI and
// reports progress until the batch completes.
type AutoCmd struct {
	Rounds    int    `default:"10" help:"Rounds to play"`
	Bet       int    `default:"25" help:"Bet per round"`
	Insurance string `default:"never" enum:"always,never" help:"Insurance decision for the batch"`
	Chips     int    `help:"Starting chips for a fresh game (overrides config)"`
	Interval  int    `default:"500" help:"Poll interval in milliseconds"`
}

func (a *AutoCmd) Run(cli *CLI) error {
	cfg, err := loadConfig(cli)
	if err != nil {
		return err
	}
	if a.Chips > 0 {
		cfg.Table.StartingChips = a.Chips
	}

	logger := newLogger(os.Stderr, cfg.UI.LogLevel)

	client := api.NewClient(cfg.Server.URL, time.Duration(cfg.Server.RequestTimeout)*time.Second, logger)
	sess := session.New(client, logger)
	if cfg.Table.GameID != "" {
		sess.AdoptGame(cfg.Table.GameID)
	}

	ctx := context.Background()

	resp, err := sess.StartNewGame(ctx, cfg.Table.StartingChips)
	if err != nil {
		return fmt.Errorf("connecting to table: %w", err)
	}
	start := resp.Snapshot.Player.Chips
	logger.Info("Starting auto play",
		"rounds", a.Rounds, "bet", a.Bet, "balance", start)

	if _, err := sess.StartAutoPlay(ctx, api.AutoPlayConfig{
		Rounds:        a.Rounds,
		BetPerRound:   a.Bet,
		InsuranceMode: a.Insurance,
	}); err != nil {
		return fmt.Errorf("starting auto play: %w", err)
	}

	updates := make(chan *api.Snapshot, 16)
	g, gctx := errgroup.WithContext(ctx)

	// Poll until the server reports the batch finished.
	g.Go(func() error {
		defer close(updates)
		ticker := time.NewTicker(time.Duration(a.Interval) * time.Millisecond)
		defer ticker.Stop()

		for {
			select {
			case <-gctx.Done():
				return gctx.Err()
			case <-ticker.C:
			}

			resp, err := sess.Resync(gctx)
			if err != nil {
				return fmt.Errorf("polling state: %w", err)
			}
			snap := resp.Snapshot
			if snap == nil {
				continue
			}

			select {
			case updates <- snap:
			case <-gctx.Done():
				return gctx.Err()
			}
			if !snap.Auto.Active {
				return nil
			}
		}
	})

	// Report progress as rounds settle.
	g.Go(func() error {
		lastPlayed := -1
		for snap := range updates {
			if snap.Auto.RoundsPlayed != lastPlayed {
				lastPlayed = snap.Auto.RoundsPlayed
				logger.Info("Progress",
					"played", snap.Auto.RoundsPlayed,
					"remaining", snap.Auto.RoundsRemaining,
					"balance", snap.Player.Chips)
			}
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}

	final := sess.Snapshot()
	if final == nil {
		return fmt.Errorf("no final state received")
	}
	net := final.Player.Chips - start
	sign := "+"
	if net < 0 {
		sign, net = "-", -net
	}
	fmt.Printf("Auto play finished: %d rounds, balance $%d (%s$%d)\n",
		final.Auto.RoundsPlayed, final.Player.Chips, sign, net)
	return nil
}
