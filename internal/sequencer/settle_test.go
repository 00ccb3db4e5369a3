package sequencer

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"blackjack-tui/internal/api"
)

func TestExpectedProfit(t *testing.T) {
	cases := []struct {
		result string
		bet    int
		want   int
	}{
		{api.ResultWin, 100, 100},
		{api.ResultBlackjack, 100, 150},
		{api.ResultBlackjack, 25, 37}, // 3:2 floored to whole chips
		{api.ResultPush, 100, 0},
		{api.ResultLoss, 100, -100},
		{api.ResultSurrender, 100, -50},
		{api.ResultSurrender, 25, -13}, // half rounded up
		{"", 100, -100},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, ExpectedProfit(tc.result, tc.bet),
			"%s bet=%d", tc.result, tc.bet)
	}
}

func TestSettleConsistent(t *testing.T) {
	// Bet $100 from $1000, blackjack settles at $1150.
	s := Settle(api.ResultBlackjack, 100, 900, 1150)
	assert.Equal(t, 150, s.Profit)
	assert.Equal(t, 150, s.Delta)
	assert.True(t, s.Consistent)

	// Loss: stake gone, balance stays at the post-bet level.
	s = Settle(api.ResultLoss, 100, 900, 900)
	assert.Equal(t, -100, s.Profit)
	assert.Equal(t, -100, s.Delta)
	assert.True(t, s.Consistent)

	// Push returns the stake.
	s = Settle(api.ResultPush, 100, 900, 1000)
	assert.Equal(t, 0, s.Profit)
	assert.True(t, s.Consistent)
}

func TestSettleInconsistent(t *testing.T) {
	// Server paid a win like a push; the mismatch is surfaced, not hidden.
	s := Settle(api.ResultWin, 100, 900, 1000)
	assert.Equal(t, 100, s.Profit)
	assert.Equal(t, 0, s.Delta)
	assert.False(t, s.Consistent)
}

func TestInsuranceProfit(t *testing.T) {
	assert.Equal(t, 100, InsuranceProfit(50, true))
	assert.Equal(t, -50, InsuranceProfit(50, false))
}

func TestFormatProfit(t *testing.T) {
	assert.Equal(t, "+$150", FormatProfit(150))
	assert.Equal(t, "-$25", FormatProfit(-25))
	assert.Equal(t, "+$0", FormatProfit(0))
}
