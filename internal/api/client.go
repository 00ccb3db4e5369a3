package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

// APIError is a well-formed non-success response from the server. The
// server still returns a snapshot alongside most errors so the client
// can stay in sync.
type APIError struct {
	Endpoint string
	Message  string
	Status   int
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Endpoint, e.Message)
}

// DecodeError is a response body that was not valid JSON. Treated as a
// server fault and surfaced to the user without retry.
type DecodeError struct {
	Endpoint string
	Err      error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("%s: malformed response: %v", e.Endpoint, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Response is the common envelope every endpoint returns.
type Response struct {
	Success      bool      `json:"success"`
	Message      string    `json:"message"`
	Error        string    `json:"error"`
	GameID       string    `json:"game_id"`
	Snapshot     *Snapshot `json:"game_state"`
	Bust         bool      `json:"bust"`
	Charlie      bool      `json:"charlie"`
	GameOver     bool      `json:"game_over"`
	DealerPeeked bool      `json:"dealer_peeked"`
}

// AutoPlayConfig configures a server-driven batch of rounds.
type AutoPlayConfig struct {
	Rounds        int    `json:"rounds"`
	BetPerRound   int    `json:"bet_per_round"`
	InsuranceMode string `json:"insurance_mode"` // "always", "never"
}

// Client speaks the table server's HTTP JSON API. All state lives
// server-side; every call returns a full snapshot.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *log.Logger
}

// NewClient creates an API client for the given server base URL.
func NewClient(baseURL string, timeout time.Duration, logger *log.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		logger:  logger.WithPrefix("api"),
	}
}

// NewGame creates a game, or re-opens an existing one when gameID is
// non-empty so the balance persists across rounds.
func (c *Client) NewGame(ctx context.Context, gameID string, startingChips int) (*Response, error) {
	body := map[string]any{}
	if gameID != "" {
		body["game_id"] = gameID
	}
	if startingChips > 0 {
		body["starting_chips"] = startingChips
	}
	return c.post(ctx, "new_game", body)
}

// PlaceBet stakes amount on the next round.
func (c *Client) PlaceBet(ctx context.Context, gameID string, amount int) (*Response, error) {
	return c.post(ctx, "bet", map[string]any{"game_id": gameID, "amount": amount})
}

// Deal deals the initial cards for the round.
func (c *Client) Deal(ctx context.Context, gameID string) (*Response, error) {
	return c.post(ctx, "deal", map[string]any{"game_id": gameID})
}

// Hit draws one card for the active hand.
func (c *Client) Hit(ctx context.Context, gameID string) (*Response, error) {
	return c.post(ctx, "hit", map[string]any{"game_id": gameID})
}

// Stand ends the active hand. The server resolves the dealer's entire
// play before responding.
func (c *Client) Stand(ctx context.Context, gameID string) (*Response, error) {
	return c.post(ctx, "stand", map[string]any{"game_id": gameID})
}

// DoubleDown doubles the bet and draws exactly one card.
func (c *Client) DoubleDown(ctx context.Context, gameID string) (*Response, error) {
	return c.post(ctx, "double_down", map[string]any{"game_id": gameID})
}

// Split splits a pair into two hands.
func (c *Client) Split(ctx context.Context, gameID string) (*Response, error) {
	return c.post(ctx, "split", map[string]any{"game_id": gameID})
}

// Surrender forfeits half the bet on an untouched two-card hand.
func (c *Client) Surrender(ctx context.Context, gameID string) (*Response, error) {
	return c.post(ctx, "surrender", map[string]any{"game_id": gameID})
}

// Insurance answers a pending insurance or even-money offer.
func (c *Client) Insurance(ctx context.Context, gameID string, accept bool) (*Response, error) {
	return c.post(ctx, "insurance", map[string]any{"game_id": gameID, "decision": accept})
}

// AutoPlay starts a server-driven batch of rounds.
func (c *Client) AutoPlay(ctx context.Context, gameID string, cfg AutoPlayConfig) (*Response, error) {
	return c.post(ctx, "auto_play", map[string]any{
		"game_id":        gameID,
		"rounds":         cfg.Rounds,
		"bet_per_round":  cfg.BetPerRound,
		"insurance_mode": cfg.InsuranceMode,
	})
}

// GameState polls the current snapshot for resync.
func (c *Client) GameState(ctx context.Context, gameID string) (*Response, error) {
	endpoint := "game_state"
	u := fmt.Sprintf("%s/api/%s?game_id=%s", c.baseURL, endpoint, url.QueryEscape(gameID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", endpoint, err)
	}
	return c.do(endpoint, req)
}

func (c *Client) post(ctx context.Context, endpoint string, body map[string]any) (*Response, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("%s: encode request: %w", endpoint, err)
	}

	u := fmt.Sprintf("%s/api/%s", c.baseURL, endpoint)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", endpoint, err)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(endpoint, req)
}

// do issues the request and decodes the envelope. This is the single
// boundary where network failures, non-success responses and malformed
// bodies are caught and logged before being returned to the caller.
func (c *Client) do(endpoint string, req *http.Request) (*Response, error) {
	c.logger.Debug("Request", "endpoint", endpoint)

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Error("Request failed", "endpoint", endpoint, "error", err)
		return nil, fmt.Errorf("%s: %w", endpoint, err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		c.logger.Error("Read failed", "endpoint", endpoint, "error", err)
		return nil, fmt.Errorf("%s: read response: %w", endpoint, err)
	}

	var out Response
	if err := json.Unmarshal(raw, &out); err != nil {
		c.logger.Error("Malformed response", "endpoint", endpoint, "status", resp.StatusCode, "error", err)
		return nil, &DecodeError{Endpoint: endpoint, Err: err}
	}

	if out.Snapshot != nil {
		out.Snapshot.Normalize()
	}

	if !out.Success {
		msg := out.Error
		if msg == "" {
			msg = fmt.Sprintf("server error (HTTP %d)", resp.StatusCode)
		}
		c.logger.Warn("Server rejected request", "endpoint", endpoint, "error", msg)
		return &out, &APIError{Endpoint: endpoint, Message: msg, Status: resp.StatusCode}
	}

	c.logger.Debug("Response", "endpoint", endpoint, "status", resp.StatusCode)
	return &out, nil
}
