// Package sequencer paces the reveal of dealer cards after an action
// resolves. The server plays the dealer's whole hand synchronously, so
// the client re-introduces the table rhythm: flip the hole card, then
// show each drawn card one delay apart. A new sequence always cancels
// the one before it.
package sequencer

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"blackjack-tui/internal/api"
)

// StepKind identifies what a reveal step shows.
type StepKind int

const (
	// RevealHole flips the dealer's face-down card.
	RevealHole StepKind = iota
	// RevealDraw shows one dealer card drawn during dealer play.
	RevealDraw
	// RevealDone marks the end of the sequence.
	RevealDone
)

// Step is one unit of the reveal sequence.
type Step struct {
	Kind  StepKind
	Card  api.Card
	Index int
}

// Plan computes the finite reveal sequence between what the screen
// already shows and what the new snapshot contains. shownCards is the
// number of dealer cards currently rendered, holeShown whether the hole
// card is already face-up. The final step is always RevealDone.
func Plan(shownCards int, holeShown bool, d *api.DealerState) []Step {
	var steps []Step

	if !holeShown && !d.HoleCardHidden && len(d.FullHand) > 0 {
		steps = append(steps, Step{Kind: RevealHole, Card: d.FullHand[0], Index: 0})
	}

	if shownCards < 0 {
		shownCards = 0
	}
	for i := shownCards; i < len(d.FullHand); i++ {
		steps = append(steps, Step{Kind: RevealDraw, Card: d.FullHand[i], Index: i})
	}

	return append(steps, Step{Kind: RevealDone})
}

// Sequencer runs reveal sequences one at a time. Starting a run cancels
// any sequence still in flight, so stale animations never overlap new
// state.
type Sequencer struct {
	clock  quartz.Clock
	delay  time.Duration
	logger *log.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a sequencer that waits delay between reveal steps.
func New(clock quartz.Clock, delay time.Duration, logger *log.Logger) *Sequencer {
	return &Sequencer{
		clock:  clock,
		delay:  delay,
		logger: logger.WithPrefix("sequencer"),
	}
}

// SetDelay changes the per-step delay for subsequent runs.
func (s *Sequencer) SetDelay(delay time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delay = delay
}

// Run plays steps, calling emit for each one. When skipDelays is true
// (auto mode, or a zero delay) every step is emitted immediately. The
// sequence runs on its own goroutine; Run returns at once.
func (s *Sequencer) Run(ctx context.Context, steps []Step, skipDelays bool, emit func(Step)) {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	delay := s.delay
	s.mu.Unlock()

	if skipDelays || delay <= 0 {
		for _, step := range steps {
			if runCtx.Err() != nil {
				return
			}
			emit(step)
		}
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for i, step := range steps {
			if runCtx.Err() != nil {
				s.logger.Debug("Reveal sequence cancelled", "at", i, "of", len(steps))
				return
			}
			emit(step)
			if i == len(steps)-1 {
				return
			}

			timer := s.clock.NewTimer(delay)
			select {
			case <-timer.C:
			case <-runCtx.Done():
				timer.Stop()
				s.logger.Debug("Reveal sequence cancelled", "at", i, "of", len(steps))
				return
			}
		}
	}()
}

// Cancel stops any in-flight sequence.
func (s *Sequencer) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

// Wait blocks until the current sequence goroutine exits. Test helper.
func (s *Sequencer) Wait() {
	s.wg.Wait()
}
