// Package history keeps a durable ledger of settled rounds and
// insurance side bets for the history panel.
package history

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Entry kinds. Insurance settlements are recorded separately from the
// round they occurred in.
const (
	KindRound     = "round"
	KindInsurance = "insurance"
)

// Entry is one settled ledger line.
type Entry struct {
	ID        int64
	GameID    string
	Kind      string
	Result    string
	Bet       int
	Profit    int
	CreatedAt time.Time
}

// Store is the sqlite-backed ledger.
type Store struct {
	*sql.DB
}

// Open opens (and if needed initializes) the ledger at path. Pass
// ":memory:" for an ephemeral store.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}

	if err := createTables(db); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db}, nil
}

func createTables(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS entries (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			game_id TEXT NOT NULL,
			kind TEXT NOT NULL,
			result TEXT NOT NULL,
			bet INTEGER NOT NULL,
			profit INTEGER NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("create history tables: %w", err)
	}
	return nil
}

// RecordRound appends a settled round.
func (s *Store) RecordRound(gameID, result string, bet, profit int) error {
	_, err := s.Exec(
		"INSERT INTO entries (game_id, kind, result, bet, profit) VALUES (?, ?, ?, ?, ?)",
		gameID, KindRound, result, bet, profit,
	)
	if err != nil {
		return fmt.Errorf("record round: %w", err)
	}
	return nil
}

// RecordInsurance appends an insurance settlement as its own entry,
// distinct from the round's win/loss line.
func (s *Store) RecordInsurance(gameID string, bet, profit int) error {
	result := "insurance_loss"
	if profit > 0 {
		result = "insurance_win"
	}
	_, err := s.Exec(
		"INSERT INTO entries (game_id, kind, result, bet, profit) VALUES (?, ?, ?, ?, ?)",
		gameID, KindInsurance, result, bet, profit,
	)
	if err != nil {
		return fmt.Errorf("record insurance: %w", err)
	}
	return nil
}

// Recent returns up to limit entries for a game, newest first.
func (s *Store) Recent(gameID string, limit int) ([]Entry, error) {
	rows, err := s.Query(
		`SELECT id, game_id, kind, result, bet, profit, created_at
		 FROM entries WHERE game_id = ?
		 ORDER BY id DESC LIMIT ?`,
		gameID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.GameID, &e.Kind, &e.Result, &e.Bet, &e.Profit, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan history entry: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// NetProfit sums profit across every entry for a game.
func (s *Store) NetProfit(gameID string) (int, error) {
	var net sql.NullInt64
	err := s.QueryRow(
		"SELECT SUM(profit) FROM entries WHERE game_id = ?", gameID,
	).Scan(&net)
	if err != nil {
		return 0, fmt.Errorf("sum history profit: %w", err)
	}
	return int(net.Int64), nil
}
