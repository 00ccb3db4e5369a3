package tui

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"blackjack-tui/internal/api"
	"blackjack-tui/internal/view"
)

func TestViewBeforeFirstWindowSize(t *testing.T) {
	m := newTestModel(t, newScriptedAPI())
	assert.Equal(t, "Loading...", m.View())
}

func TestViewShowsTableAndSidebar(t *testing.T) {
	m := newTestModel(t, newScriptedAPI())
	m.width = 120
	m.height = 40

	out := m.View()
	assert.Contains(t, out, "Dealer:")
	assert.Contains(t, out, "Balance: $1000")
	assert.Contains(t, out, "BLACKJACK")
}

func dealerTurnModel(t *testing.T) *Model {
	t.Helper()
	stub := newScriptedAPI()
	m := newTestModel(t, stub)

	stub.set("bet", response(&api.Snapshot{
		Phase: api.PhaseBetting,
		Player: api.PlayerState{
			Chips: 900,
			Hands: []api.Hand{{Bet: 100}},
		},
	}))
	runCommand(t, m, "bet 100")

	stub.set("deal", response(&api.Snapshot{
		Phase: api.PhasePlayerTurn,
		Player: api.PlayerState{
			Chips: 900,
			Hands: []api.Hand{{
				Cards: []api.Card{card("9", 9), card("8", 8)},
				Value: 17,
				Bet:   100,
			}},
		},
		Dealer: api.DealerState{
			Hand:           []api.Card{card("7", 7)},
			FullHand:       []api.Card{card("K", 10), card("7", 7)},
			Value:          intp(7),
			HoleCardHidden: true,
		},
	}))
	runCommand(t, m, "deal")
	return m
}

func TestRenderDealerHidesHoleCard(t *testing.T) {
	m := dealerTurnModel(t)

	out := m.renderDealer(m.sess.Snapshot())
	assert.Contains(t, out, view.HiddenCard)
	assert.Contains(t, out, "7♠")
	assert.NotContains(t, out, "K♠")
	assert.Contains(t, out, "(7 showing)")
}

func TestRenderDealerLagsBehindSnapshot(t *testing.T) {
	m := dealerTurnModel(t)

	// The snapshot has revealed the hole card, but the flip step has not
	// played yet: keep it face-down on screen.
	snap := m.sess.Snapshot()
	snap.Dealer.HoleCardHidden = false
	snap.Dealer.FullValue = intp(17)

	out := m.renderDealer(snap)
	assert.Contains(t, out, view.HiddenCard)
	assert.NotContains(t, out, "(17)")

	m.holeShown = true
	out = m.renderDealer(snap)
	assert.Contains(t, out, "K♠")
	assert.Contains(t, out, "(17)")
}

func TestTablePaneActions(t *testing.T) {
	m := dealerTurnModel(t)
	out := m.renderTablePane()
	assert.Contains(t, out, "[hit]")
	assert.Contains(t, out, "[stand]")
	assert.Contains(t, out, "► Hand:")
}

func TestSignageWaitsForReveal(t *testing.T) {
	stub := newScriptedAPI()
	m := newTestModel(t, stub)

	snap := &api.Snapshot{
		Phase:  api.PhaseGameOver,
		Result: api.ResultWin,
		Player: api.PlayerState{
			Chips: 1100,
			Hands: []api.Hand{{
				Cards: []api.Card{card("K", 10), card("9", 9)},
				Value: 19,
				Bet:   100,
			}},
		},
		Dealer: api.DealerState{
			FullHand:  []api.Card{card("K", 10), card("8", 8)},
			FullValue: intp(18),
		},
	}
	snap.Normalize()
	stub.set("game_state", response(snap))

	// Pull the finished state without marking the round settled.
	cmd := m.dispatch("resync")
	m.Update(cmd())
	m.roundRecorded = false

	out := m.renderTablePane()
	assert.NotContains(t, out, "YOU WIN")

	m.roundRecorded = true
	out = m.renderTablePane()
	assert.Contains(t, out, "YOU WIN")
}
