package sequencer

import (
	"fmt"

	"blackjack-tui/internal/api"
)

// Settlement is the computed end-of-round result for display. Profit is
// derived mathematically from the bet and the declared outcome, then
// checked against the balance delta the server actually applied.
type Settlement struct {
	Result     string
	Bet        int
	Profit     int
	Delta      int
	Consistent bool
}

// ExpectedProfit computes the net profit for a declared outcome: a win
// pays even money, a blackjack pays 3:2 floored to a whole chip, a push
// returns the stake, a surrender forfeits half the stake rounded up.
func ExpectedProfit(result string, bet int) int {
	switch result {
	case api.ResultWin:
		return bet
	case api.ResultBlackjack:
		return bet * 3 / 2
	case api.ResultPush:
		return 0
	case api.ResultSurrender:
		return -((bet + 1) / 2)
	default:
		return -bet
	}
}

// Settle computes the round settlement. balanceAfterBet is the balance
// observed right after the stake was deducted; balanceSettled the
// balance after the server applied payouts.
func Settle(result string, bet, balanceAfterBet, balanceSettled int) Settlement {
	expected := ExpectedProfit(result, bet)
	delta := balanceSettled - (balanceAfterBet + bet)

	return Settlement{
		Result:     result,
		Bet:        bet,
		Profit:     expected,
		Delta:      delta,
		Consistent: expected == delta,
	}
}

// InsuranceProfit computes the net result of an insurance side bet,
// which pays 2:1 when the dealer has blackjack.
func InsuranceProfit(bet int, dealerBlackjack bool) int {
	if dealerBlackjack {
		return bet * 2
	}
	return -bet
}

// FormatProfit renders a signed dollar amount, e.g. "+$150" or "-$25".
func FormatProfit(profit int) string {
	if profit < 0 {
		return fmt.Sprintf("-$%d", -profit)
	}
	return fmt.Sprintf("+$%d", profit)
}
