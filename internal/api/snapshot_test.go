package api

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCardString(t *testing.T) {
	assert.Equal(t, "A♠", Card{Suit: "spades", Rank: "A"}.String())
	assert.Equal(t, "10♥", Card{Suit: "hearts", Rank: "10"}.String())
	assert.Equal(t, "K♦", Card{Suit: "diamonds", Rank: "K"}.String())
	assert.Equal(t, "2♣", Card{Suit: "clubs", Rank: "2"}.String())
}

func TestCardIsRed(t *testing.T) {
	assert.True(t, Card{Suit: "hearts"}.IsRed())
	assert.True(t, Card{Suit: "diamonds"}.IsRed())
	assert.False(t, Card{Suit: "spades"}.IsRed())
	assert.False(t, Card{Suit: "clubs"}.IsRed())
}

func TestNormalizeDefaults(t *testing.T) {
	var s Snapshot
	s.Normalize()

	assert.Equal(t, PhaseBetting, s.Phase)
	assert.Equal(t, DefaultMinBet, s.Limits.MinBet)
	assert.Equal(t, DefaultMaxBet, s.Limits.MaxBet)
	assert.NotNil(t, s.Dealer.Hand)
	assert.NotNil(t, s.Dealer.FullHand)
	assert.Equal(t, 0, s.Player.CurrentHandIndex)
}

func TestNormalizeClampsHandIndex(t *testing.T) {
	s := Snapshot{
		Player: PlayerState{
			Hands:            []Hand{{}, {}},
			CurrentHandIndex: 5,
		},
	}
	s.Normalize()
	assert.Equal(t, 1, s.Player.CurrentHandIndex)

	s.Player.CurrentHandIndex = -2
	s.Normalize()
	assert.Equal(t, 0, s.Player.CurrentHandIndex)
}

func TestNormalizeInvertedLimits(t *testing.T) {
	s := Snapshot{Limits: TableLimits{MinBet: 100, MaxBet: 50}}
	s.Normalize()
	assert.Equal(t, 100, s.Limits.MinBet)
	assert.Equal(t, 100, s.Limits.MaxBet)
}

func TestCurrentHand(t *testing.T) {
	var s Snapshot
	assert.Nil(t, s.CurrentHand())

	s.Player.Hands = []Hand{{Bet: 25}, {Bet: 50}}
	s.Player.CurrentHandIndex = 1
	h := s.CurrentHand()
	assert.Equal(t, 50, h.Bet)

	// Out of range without Normalize still never panics.
	s.Player.CurrentHandIndex = 9
	assert.Equal(t, 50, s.CurrentHand().Bet)
}

func TestTotalBetIncludesInsurance(t *testing.T) {
	s := Snapshot{
		Player:       PlayerState{Hands: []Hand{{Bet: 100}, {Bet: 100}}},
		InsuranceBet: 50,
	}
	assert.Equal(t, 250, s.TotalBet())
}

func TestDecisionPending(t *testing.T) {
	var s Snapshot
	assert.False(t, s.DecisionPending())
	s.InsuranceOffered = true
	assert.True(t, s.DecisionPending())
	s.InsuranceOffered = false
	s.EvenMoneyOffered = true
	assert.True(t, s.DecisionPending())
}
