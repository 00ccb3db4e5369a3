// Package view projects server snapshots into display state. Project
// is a pure function: no I/O, no mutation of the snapshot, identical
// input yields identical output.
package view

import (
	"fmt"
	"strings"

	"blackjack-tui/internal/api"
)

// HiddenCard is the rendering of a face-down card.
const HiddenCard = "[??]"

// Buttons is the enablement state of every player control.
type Buttons struct {
	Deal      bool
	Hit       bool
	Stand     bool
	Double    bool
	Split     bool
	Surrender bool
	NewRound  bool
}

// DealerView is the dealer's rendered hand.
type DealerView struct {
	Cards    []string
	Value    string
	Revealed bool
}

// HandView is one rendered player hand.
type HandView struct {
	Cards  []string
	Value  string
	Bet    int
	Active bool
	Tags   []string
}

// Projection is everything the screen needs, derived from one snapshot.
type Projection struct {
	Phase           string
	Balance         int
	DeckRemaining   int
	Limits          api.TableLimits
	Dealer          DealerView
	Hands           []HandView
	ActiveHand      int
	Buttons         Buttons
	Signage         string
	InsurancePrompt bool
	EvenMoneyPrompt bool
	AutoActive      bool
	Stats           api.Stats
}

// Project derives the full display state from a snapshot. The active
// hand index is clamped to the last valid hand; a snapshot can report
// an out-of-range index transiently after a bust retires the hand.
func Project(s *api.Snapshot) Projection {
	p := Projection{
		Phase:           s.Phase,
		Balance:         s.Player.Chips,
		DeckRemaining:   s.DeckRemaining,
		Limits:          s.Limits,
		InsurancePrompt: s.InsuranceOffered,
		EvenMoneyPrompt: s.EvenMoneyOffered,
		AutoActive:      s.Auto.Active,
		Stats:           s.Player.Stats,
	}

	p.ActiveHand = clampIndex(s.Player.CurrentHandIndex, len(s.Player.Hands))

	p.Dealer = projectDealer(&s.Dealer)

	for i := range s.Player.Hands {
		h := &s.Player.Hands[i]
		hv := HandView{
			Cards:  cardStrings(h.Cards),
			Value:  handValue(h.Cards, h.Value),
			Bet:    h.Bet,
			Active: i == p.ActiveHand && s.Phase == api.PhasePlayerTurn,
		}
		if h.IsBlackjack {
			hv.Tags = append(hv.Tags, "BLACKJACK")
		}
		if h.IsBust {
			hv.Tags = append(hv.Tags, "BUST")
		}
		if h.IsFiveCardWin {
			hv.Tags = append(hv.Tags, "5-CARD CHARLIE")
		}
		if h.IsDoubledDown {
			hv.Tags = append(hv.Tags, "DOUBLED")
		}
		if h.IsSurrendered {
			hv.Tags = append(hv.Tags, "SURRENDERED")
		}
		p.Hands = append(p.Hands, hv)
	}

	p.Buttons = deriveButtons(s, p.ActiveHand)
	p.Signage = signage(s)

	return p
}

func clampIndex(i, n int) int {
	if n == 0 {
		return 0
	}
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

func projectDealer(d *api.DealerState) DealerView {
	dv := DealerView{Revealed: !d.HoleCardHidden}

	if d.HoleCardHidden && len(d.FullHand) > 0 {
		dv.Cards = append(dv.Cards, HiddenCard)
		dv.Cards = append(dv.Cards, cardStrings(d.FullHand[1:])...)
		if d.Value != nil {
			dv.Value = fmt.Sprintf("%d + ?", *d.Value)
		} else {
			dv.Value = "?"
		}
		return dv
	}

	dv.Cards = cardStrings(d.FullHand)
	if d.FullValue != nil {
		dv.Value = fmt.Sprintf("%d", *d.FullValue)
	}
	if d.IsBust {
		dv.Value += " BUST"
	} else if d.IsBlackjack {
		dv.Value += " BLACKJACK"
	}
	return dv
}

func cardStrings(cards []api.Card) []string {
	out := make([]string, 0, len(cards))
	for _, c := range cards {
		out = append(out, c.String())
	}
	return out
}

// handValue renders a hand total, showing both soft and hard totals
// when an ace is still counted as eleven, e.g. "7/17".
func handValue(cards []api.Card, value int) string {
	if len(cards) == 0 {
		return ""
	}
	hard := 0
	aces := 0
	for _, c := range cards {
		if c.Rank == "A" {
			aces++
			hard++
		} else {
			hard += c.Value
		}
	}
	if aces > 0 && hard+10 == value && value <= 21 {
		return fmt.Sprintf("%d/%d", hard, value)
	}
	return fmt.Sprintf("%d", value)
}

// deriveButtons applies the enablement rules. Every action control is
// off while an insurance or even-money decision is pending, while auto
// mode is active, and once the round has ended.
func deriveButtons(s *api.Snapshot, active int) Buttons {
	b := Buttons{}

	if s.Auto.Active || s.DecisionPending() {
		return b
	}

	switch s.Phase {
	case api.PhaseBetting:
		if h := s.CurrentHand(); h != nil && h.Bet > 0 {
			b.Deal = true
		}
	case api.PhasePlayerTurn:
		if len(s.Player.Hands) == 0 {
			return b
		}
		h := &s.Player.Hands[active]

		b.Hit = true
		b.Stand = true
		b.Double = h.CanDoubleDown && len(h.Cards) == 2 && s.Player.Chips >= h.Bet
		b.Split = h.CanSplit && s.Player.Chips >= h.Bet
		b.Surrender = len(s.Player.Hands) == 1 &&
			len(h.Cards) == 2 &&
			!h.IsSplit && !h.IsDoubledDown && !h.IsSurrendered
	case api.PhaseGameOver:
		b.NewRound = true
	}

	return b
}

func signage(s *api.Snapshot) string {
	if s.Phase != api.PhaseGameOver {
		return ""
	}
	switch s.Result {
	case api.ResultBlackjack:
		return "BLACKJACK!"
	case api.ResultWin:
		return "YOU WIN"
	case api.ResultLoss:
		return "DEALER WINS"
	case api.ResultPush:
		return "PUSH"
	case api.ResultSurrender:
		return "SURRENDERED"
	default:
		return strings.ToUpper(s.Result)
	}
}
