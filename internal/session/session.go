// Package session owns the client side of a game: the current game id,
// the locally tracked bet, and the single in-flight action guard. All
// authoritative state stays server-side; the session only replaces its
// snapshot wholesale from each response.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"

	"blackjack-tui/internal/api"
)

// Action names every state-changing request a player can make.
type Action string

const (
	ActionHit       Action = "hit"
	ActionStand     Action = "stand"
	ActionDouble    Action = "double"
	ActionSplit     Action = "split"
	ActionSurrender Action = "surrender"
	ActionInsureYes Action = "insure"
	ActionInsureNo  Action = "decline insurance"
)

var (
	// ErrActionInFlight means a previous action has not resolved yet.
	ErrActionInFlight = errors.New("action already in flight")
	// ErrNoGame means no game has been started.
	ErrNoGame = errors.New("no active game")
	// ErrWrongPhase means the snapshot phase forbids the action.
	ErrWrongPhase = errors.New("action not valid in current phase")
	// ErrInvalidBet means local validation rejected the bet before any
	// request was sent.
	ErrInvalidBet = errors.New("invalid bet")
)

// API is the server surface the session needs. *api.Client satisfies
// it; tests substitute a stub.
type API interface {
	NewGame(ctx context.Context, gameID string, startingChips int) (*api.Response, error)
	PlaceBet(ctx context.Context, gameID string, amount int) (*api.Response, error)
	Deal(ctx context.Context, gameID string) (*api.Response, error)
	Hit(ctx context.Context, gameID string) (*api.Response, error)
	Stand(ctx context.Context, gameID string) (*api.Response, error)
	DoubleDown(ctx context.Context, gameID string) (*api.Response, error)
	Split(ctx context.Context, gameID string) (*api.Response, error)
	Surrender(ctx context.Context, gameID string) (*api.Response, error)
	Insurance(ctx context.Context, gameID string, accept bool) (*api.Response, error)
	AutoPlay(ctx context.Context, gameID string, cfg api.AutoPlayConfig) (*api.Response, error)
	GameState(ctx context.Context, gameID string) (*api.Response, error)
}

// Session mediates every state-changing request for one game.
type Session struct {
	api    API
	logger *log.Logger

	mu              sync.Mutex
	gameID          string
	snapshot        *api.Snapshot
	pending         bool
	latestSeq       uint64
	appliedSeq      uint64
	chipValue       int
	betAccum        int
	roundStart      int
	balanceAfterBet int
}

// New creates a session backed by the given API.
func New(a API, logger *log.Logger) *Session {
	return &Session{
		api:       a,
		logger:    logger.WithPrefix("session"),
		chipValue: 25,
	}
}

// GameID returns the current game identifier, empty before StartNewGame.
func (s *Session) GameID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gameID
}

// Pending reports whether an action is in flight.
func (s *Session) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending
}

// Snapshot returns the latest applied snapshot, nil before the first
// response.
func (s *Session) Snapshot() *api.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot
}

// BalanceAfterBet returns the balance observed right after the stake
// was deducted, used for end-of-round settlement display.
func (s *Session) BalanceAfterBet() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.balanceAfterBet
}

// RoundStartBalance returns the balance observed just before the round's
// bet was placed.
func (s *Session) RoundStartBalance() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.roundStart
}

// StartNewGame starts a round. An existing game id is reused so the
// balance persists; on failure prior state is left untouched.
func (s *Session) StartNewGame(ctx context.Context, startingBalance int) (*api.Response, error) {
	seq, err := s.begin()
	if err != nil {
		return nil, err
	}
	defer s.end()

	s.mu.Lock()
	gameID := s.gameID
	s.mu.Unlock()

	resp, err := s.api.NewGame(ctx, gameID, startingBalance)
	if err != nil {
		s.logger.Error("New game failed", "error", err)
		return resp, err
	}

	s.mu.Lock()
	if resp.GameID != "" {
		s.gameID = resp.GameID
	} else if resp.Snapshot != nil && resp.Snapshot.GameID != "" {
		s.gameID = resp.Snapshot.GameID
	}
	s.betAccum = 0
	s.mu.Unlock()

	s.apply(seq, resp)
	return resp, nil
}

// AdoptGame resumes a known game id, e.g. from configuration.
func (s *Session) AdoptGame(gameID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gameID = gameID
}

// Reset abandons the current game so the next StartNewGame creates a
// fresh one, e.g. for a bankroll reset.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gameID = ""
	s.snapshot = nil
	s.betAccum = 0
}

// ChipValue returns the currently selected chip denomination.
func (s *Session) ChipValue() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.chipValue
}

// SelectChip sets the chip denomination used by AddChip.
func (s *Session) SelectChip(value int) {
	if value <= 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chipValue = value
}

// PendingBet returns the locally accumulated, unconfirmed bet.
func (s *Session) PendingBet() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.betAccum
}

// AddChip adds the selected chip to the local bet. The accumulated bet
// never exceeds the table maximum or the current balance.
func (s *Session) AddChip() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.snapshot == nil || s.snapshot.Phase != api.PhaseBetting {
		return false
	}
	next := s.betAccum + s.chipValue
	if next > s.snapshot.Limits.MaxBet || next > s.snapshot.Player.Chips {
		return false
	}
	s.betAccum = next
	return true
}

// ClearBet resets the local bet selection.
func (s *Session) ClearBet() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.betAccum = 0
}

// PlaceBet validates amount locally and, only if valid, confirms it
// with the server. Validation failures send no request and mutate
// nothing: the amount must be positive, within the table limits, and
// covered by the balance.
func (s *Session) PlaceBet(ctx context.Context, amount int) (*api.Response, error) {
	s.mu.Lock()
	snap := s.snapshot
	if snap == nil {
		s.mu.Unlock()
		return nil, ErrNoGame
	}
	if amount <= 0 || amount < snap.Limits.MinBet || amount > snap.Limits.MaxBet || amount > snap.Player.Chips {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: $%d (limits $%d-$%d, balance $%d)",
			ErrInvalidBet, amount, snap.Limits.MinBet, snap.Limits.MaxBet, snap.Player.Chips)
	}
	s.roundStart = snap.Player.Chips
	s.mu.Unlock()

	seq, err := s.begin()
	if err != nil {
		return nil, err
	}
	defer s.end()

	resp, err := s.api.PlaceBet(ctx, s.GameID(), amount)
	s.apply(seq, resp)
	if err != nil {
		return resp, err
	}

	s.mu.Lock()
	s.betAccum = 0
	if resp.Snapshot != nil {
		s.balanceAfterBet = resp.Snapshot.Player.Chips
	}
	s.mu.Unlock()
	return resp, nil
}

// Deal requests the initial cards once a bet is confirmed.
func (s *Session) Deal(ctx context.Context) (*api.Response, error) {
	seq, err := s.beginPhase(api.PhaseBetting)
	if err != nil {
		return nil, err
	}
	defer s.end()

	resp, err := s.api.Deal(ctx, s.GameID())
	s.apply(seq, resp)
	return resp, err
}

// PerformAction issues one player action. It is rejected immediately,
// with no request sent, when a prior action is outstanding, when no
// game exists, or when the snapshot phase does not permit the action.
// The pending flag is cleared on every exit path.
func (s *Session) PerformAction(ctx context.Context, action Action) (*api.Response, error) {
	seq, err := s.beginAction(action)
	if err != nil {
		return nil, err
	}
	defer s.end()

	gameID := s.GameID()

	var resp *api.Response
	switch action {
	case ActionHit:
		resp, err = s.api.Hit(ctx, gameID)
	case ActionStand:
		resp, err = s.api.Stand(ctx, gameID)
	case ActionDouble:
		resp, err = s.api.DoubleDown(ctx, gameID)
	case ActionSplit:
		resp, err = s.api.Split(ctx, gameID)
	case ActionSurrender:
		resp, err = s.api.Surrender(ctx, gameID)
	case ActionInsureYes:
		resp, err = s.api.Insurance(ctx, gameID, true)
	case ActionInsureNo:
		resp, err = s.api.Insurance(ctx, gameID, false)
	default:
		return nil, fmt.Errorf("unknown action %q", action)
	}

	s.apply(seq, resp)
	if err != nil {
		s.logger.Warn("Action failed", "action", action, "error", err)
	}
	return resp, err
}

// StartAutoPlay hands the table to the server's batch mode.
func (s *Session) StartAutoPlay(ctx context.Context, cfg api.AutoPlayConfig) (*api.Response, error) {
	seq, err := s.begin()
	if err != nil {
		return nil, err
	}
	defer s.end()

	resp, err := s.api.AutoPlay(ctx, s.GameID(), cfg)
	s.apply(seq, resp)
	return resp, err
}

// Resync polls the server for the current snapshot. It does not take
// the pending flag: resync is a read, not an action.
func (s *Session) Resync(ctx context.Context) (*api.Response, error) {
	gameID := s.GameID()
	if gameID == "" {
		return nil, ErrNoGame
	}

	s.mu.Lock()
	s.latestSeq++
	seq := s.latestSeq
	s.mu.Unlock()

	resp, err := s.api.GameState(ctx, gameID)
	s.apply(seq, resp)
	return resp, err
}

// begin takes the pending flag and stamps a new request sequence
// number. Each response carries its request's number back to apply,
// which drops anything older than the newest issued request.
func (s *Session) begin() (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending {
		return 0, ErrActionInFlight
	}
	s.pending = true
	s.latestSeq++
	return s.latestSeq, nil
}

func (s *Session) beginPhase(phase string) (uint64, error) {
	s.mu.Lock()
	if s.gameID == "" {
		s.mu.Unlock()
		return 0, ErrNoGame
	}
	if s.snapshot == nil || s.snapshot.Phase != phase {
		s.mu.Unlock()
		return 0, ErrWrongPhase
	}
	s.mu.Unlock()
	return s.begin()
}

func (s *Session) beginAction(action Action) (uint64, error) {
	s.mu.Lock()
	if s.gameID == "" {
		s.mu.Unlock()
		return 0, ErrNoGame
	}
	snap := s.snapshot
	valid := false
	if snap != nil {
		switch action {
		case ActionInsureYes, ActionInsureNo:
			valid = snap.DecisionPending()
		default:
			valid = snap.Phase == api.PhasePlayerTurn && !snap.DecisionPending() && !snap.Auto.Active
		}
	}
	s.mu.Unlock()
	if !valid {
		return 0, ErrWrongPhase
	}
	return s.begin()
}

func (s *Session) end() {
	s.mu.Lock()
	s.pending = false
	s.mu.Unlock()
}

// apply replaces the local snapshot wholesale. Responses from requests
// older than the newest issued one are discarded so a stale response
// can never overwrite fresher state.
func (s *Session) apply(seq uint64, resp *api.Response) {
	if resp == nil || resp.Snapshot == nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if seq < s.latestSeq || seq <= s.appliedSeq {
		s.logger.Debug("Discarding stale response", "seq", seq, "latest", s.latestSeq)
		return
	}
	s.appliedSeq = seq
	s.snapshot = resp.Snapshot
}
