package sequencer

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blackjack-tui/internal/api"
)

func testLogger() *log.Logger {
	return log.New(io.Discard)
}

func dealerHand(cards ...api.Card) *api.DealerState {
	return &api.DealerState{FullHand: cards}
}

var (
	holeCard = api.Card{Suit: "spades", Rank: "K", Value: 10}
	upCard   = api.Card{Suit: "hearts", Rank: "7", Value: 7}
	drawCard = api.Card{Suit: "clubs", Rank: "5", Value: 5}
)

func TestPlanHoleFlipThenDraws(t *testing.T) {
	d := dealerHand(holeCard, upCard, drawCard)

	steps := Plan(2, false, d)
	require.Len(t, steps, 3)
	assert.Equal(t, Step{Kind: RevealHole, Card: holeCard, Index: 0}, steps[0])
	assert.Equal(t, Step{Kind: RevealDraw, Card: drawCard, Index: 2}, steps[1])
	assert.Equal(t, RevealDone, steps[2].Kind)
}

func TestPlanHoleAlreadyShown(t *testing.T) {
	d := dealerHand(holeCard, upCard, drawCard)

	steps := Plan(2, true, d)
	require.Len(t, steps, 2)
	assert.Equal(t, RevealDraw, steps[0].Kind)
	assert.Equal(t, 2, steps[0].Index)
	assert.Equal(t, RevealDone, steps[1].Kind)
}

func TestPlanHoleStillHidden(t *testing.T) {
	d := dealerHand(holeCard, upCard)
	d.HoleCardHidden = true

	steps := Plan(2, false, d)
	require.Len(t, steps, 1)
	assert.Equal(t, RevealDone, steps[0].Kind)
}

func TestPlanNothingNew(t *testing.T) {
	d := dealerHand(holeCard, upCard)

	steps := Plan(2, true, d)
	require.Len(t, steps, 1)
	assert.Equal(t, RevealDone, steps[0].Kind)
}

func TestPlanNegativeShownCount(t *testing.T) {
	d := dealerHand(holeCard, upCard)

	steps := Plan(-1, true, d)
	require.Len(t, steps, 3)
	assert.Equal(t, 0, steps[0].Index)
	assert.Equal(t, 1, steps[1].Index)
}

func TestRunSkipDelaysEmitsInline(t *testing.T) {
	s := New(quartz.NewMock(t), time.Second, testLogger())
	steps := Plan(1, false, dealerHand(holeCard, upCard, drawCard))

	var got []Step
	s.Run(context.Background(), steps, true, func(st Step) {
		got = append(got, st)
	})
	assert.Equal(t, steps, got)
}

func TestRunZeroDelayEmitsInline(t *testing.T) {
	s := New(quartz.NewMock(t), 0, testLogger())
	steps := Plan(1, false, dealerHand(holeCard, upCard))

	var got []Step
	s.Run(context.Background(), steps, false, func(st Step) {
		got = append(got, st)
	})
	assert.Equal(t, steps, got)
}

func TestRunPacesSteps(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	mockClock := quartz.NewMock(t)
	trap := mockClock.Trap().NewTimer()
	defer trap.Close()

	delay := 300 * time.Millisecond
	s := New(mockClock, delay, testLogger())

	steps := Plan(1, false, dealerHand(holeCard, upCard, drawCard))
	require.Len(t, steps, 3)

	got := make(chan Step, len(steps))
	s.Run(ctx, steps, false, func(st Step) { got <- st })

	first := <-got
	assert.Equal(t, RevealHole, first.Kind)

	for i := 1; i < len(steps); i++ {
		call := trap.MustWait(ctx)
		call.Release(ctx)
		mockClock.Advance(delay).MustWait(ctx)
		st := <-got
		assert.Equal(t, steps[i], st)
	}

	s.Wait()
}

func TestNewRunCancelsPrevious(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	mockClock := quartz.NewMock(t)
	trap := mockClock.Trap().NewTimer()
	defer trap.Close()

	s := New(mockClock, time.Second, testLogger())

	steps := Plan(1, false, dealerHand(holeCard, upCard, drawCard))
	got := make(chan Step, len(steps))
	s.Run(ctx, steps, false, func(st Step) { got <- st })

	first := <-got
	assert.Equal(t, RevealHole, first.Kind)

	// Block the old run at its first timer, then start a new sequence.
	call := trap.MustWait(ctx)
	call.Release(ctx)

	var second []Step
	s.Run(ctx, []Step{{Kind: RevealDone}}, true, func(st Step) {
		second = append(second, st)
	})
	s.Wait()

	assert.Equal(t, []Step{{Kind: RevealDone}}, second)
	select {
	case st := <-got:
		t.Fatalf("cancelled sequence emitted %v", st)
	default:
	}
}

func TestCancelStopsSequence(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	mockClock := quartz.NewMock(t)
	trap := mockClock.Trap().NewTimer()
	defer trap.Close()

	s := New(mockClock, time.Second, testLogger())

	steps := Plan(1, false, dealerHand(holeCard, upCard, drawCard))
	got := make(chan Step, len(steps))
	s.Run(ctx, steps, false, func(st Step) { got <- st })

	<-got
	call := trap.MustWait(ctx)
	call.Release(ctx)

	s.Cancel()
	s.Wait()

	select {
	case st := <-got:
		t.Fatalf("cancelled sequence emitted %v", st)
	default:
	}
}

func TestSetDelayAppliesToNextRun(t *testing.T) {
	s := New(quartz.NewMock(t), time.Second, testLogger())
	s.SetDelay(0)

	steps := Plan(1, false, dealerHand(holeCard, upCard))
	var got []Step
	s.Run(context.Background(), steps, false, func(st Step) {
		got = append(got, st)
	})
	assert.Equal(t, steps, got, "zero delay runs inline")
}
