// Package heckler produces the table-talk commentary lines shown in
// the log. Purely cosmetic; remarks are derived from snapshot
// transitions and can be switched off via the voice preferences.
package heckler

import (
	"math/rand"

	"blackjack-tui/internal/api"
)

var (
	bustLines = []string{
		"The house thanks you for your generosity.",
		"That's one way to cool off a hot shoe.",
		"Twenty-two is a great number. In roulette.",
	}
	blackjackLines = []string{
		"Somebody check this player's sleeves.",
		"Natural. The dealer is not amused.",
		"Twenty-one on the button. Drinks are on you.",
	}
	riskyHitLines = []string{
		"Hitting on that? Bold strategy.",
		"The basic strategy card is crying somewhere.",
		"Feeling lucky, are we?",
	}
	insuranceLines = []string{
		"Insurance is just a side bet with better marketing.",
		"The ace winks at you. Don't wink back.",
	}
	bigWinLines = []string{
		"Doubled and delivered. The pit boss noticed.",
		"That's how you press an edge.",
	}
)

// Heckler emits commentary. A fixed seed makes the line choice
// deterministic for tests.
type Heckler struct {
	rng     *rand.Rand
	enabled bool
}

// New creates a heckler seeded for line selection.
func New(seed int64) *Heckler {
	return &Heckler{rng: rand.New(rand.NewSource(seed)), enabled: true}
}

// SetEnabled toggles commentary without losing rng state.
func (h *Heckler) SetEnabled(enabled bool) {
	h.enabled = enabled
}

// Remark inspects a snapshot transition and returns a line, or "" when
// the heckler has nothing to say.
func (h *Heckler) Remark(prev, next *api.Snapshot) string {
	if !h.enabled || next == nil {
		return ""
	}

	hand := next.CurrentHand()

	switch {
	case hand != nil && hand.IsBust && !handWasBust(prev):
		return h.pick(bustLines)
	case hand != nil && hand.IsBlackjack && next.Phase == api.PhaseGameOver && !handWasBlackjack(prev):
		return h.pick(blackjackLines)
	case next.InsuranceOffered && (prev == nil || !prev.InsuranceOffered):
		return h.pick(insuranceLines)
	case riskyHit(prev, next):
		return h.pick(riskyHitLines)
	case bigWin(prev, next):
		return h.pick(bigWinLines)
	}
	return ""
}

func (h *Heckler) pick(lines []string) string {
	return lines[h.rng.Intn(len(lines))]
}

func handWasBust(prev *api.Snapshot) bool {
	if prev == nil {
		return false
	}
	hand := prev.CurrentHand()
	return hand != nil && hand.IsBust
}

func handWasBlackjack(prev *api.Snapshot) bool {
	if prev == nil {
		return false
	}
	hand := prev.CurrentHand()
	return hand != nil && hand.IsBlackjack
}

// riskyHit detects a card taken on a hard seventeen or better.
func riskyHit(prev, next *api.Snapshot) bool {
	if prev == nil || next == nil {
		return false
	}
	if prev.Phase != api.PhasePlayerTurn || next.Phase != api.PhasePlayerTurn {
		return false
	}
	ph, nh := prev.CurrentHand(), next.CurrentHand()
	if ph == nil || nh == nil || len(nh.Cards) != len(ph.Cards)+1 {
		return false
	}
	return ph.Value >= 17 && !isSoft(ph)
}

// isSoft reports whether an ace is still counted as eleven.
func isSoft(h *api.Hand) bool {
	hard := 0
	aces := 0
	for _, c := range h.Cards {
		if c.Rank == "A" {
			aces++
			hard++
		} else {
			hard += c.Value
		}
	}
	return aces > 0 && hard+10 == h.Value
}

// bigWin detects a doubled-down hand that won.
func bigWin(prev, next *api.Snapshot) bool {
	if prev == nil || next.Phase != api.PhaseGameOver || next.Result != api.ResultWin {
		return false
	}
	hand := next.CurrentHand()
	return hand != nil && hand.IsDoubledDown
}
