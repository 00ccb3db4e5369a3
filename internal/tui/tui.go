// Package tui is the terminal table screen: a game log, a sidebar with
// balances and history, and a command line for actions. All game state
// comes from the server through the session; the screen only decides
// how much of it has been revealed so far.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"blackjack-tui/internal/api"
	"blackjack-tui/internal/heckler"
	"blackjack-tui/internal/history"
	"blackjack-tui/internal/prefs"
	"blackjack-tui/internal/sequencer"
	"blackjack-tui/internal/session"
	"blackjack-tui/internal/view"
)

// actionResultMsg carries a resolved server request back to Update.
type actionResultMsg struct {
	action string
	resp   *api.Response
	err    error
}

// revealMsg is one step of the dealer reveal sequence.
type revealMsg struct {
	step sequencer.Step
}

// autoPollMsg triggers a resync while auto mode runs server-side.
type autoPollMsg struct{}

// autoPollInterval paces resyncs during server-driven batch play.
const autoPollInterval = 500 * time.Millisecond

func delayDuration(ms int) time.Duration {
	return time.Duration(ms) * time.Millisecond
}

// Model is the Bubble Tea model for the blackjack table.
type Model struct {
	sess      *session.Session
	seq       *sequencer.Sequencer
	heckle    *heckler.Heckler
	hist      *history.Store
	prefStore *prefs.Store
	pref      prefs.Preferences
	logger    *log.Logger

	logViewport  viewport.Model
	commandInput textinput.Model

	gameLog []string
	events  chan tea.Msg

	// Reveal state: how much of the dealer's snapshot hand is on
	// screen. Lags the snapshot while a sequence plays out.
	shownDealer int
	holeShown   bool

	insProfit     int
	insRecorded   bool
	roundRecorded bool
	lastSnapshot  *api.Snapshot

	status      string
	quitting    bool
	width       int
	height      int
	initialized bool
	focusedPane int // 0 = log, 1 = input
}

// New creates the table model.
func New(sess *session.Session, seq *sequencer.Sequencer, heckle *heckler.Heckler,
	hist *history.Store, prefStore *prefs.Store, pref prefs.Preferences, logger *log.Logger) *Model {

	vp := viewport.New(10, 5)
	vp.SetContent("")

	ti := textinput.New()
	ti.Placeholder = "bet 25, deal, hit, stand, double, split, help..."
	ti.Focus()
	ti.CharLimit = 100
	ti.Width = 100
	ti.Prompt = "> "

	m := &Model{
		sess:         sess,
		seq:          seq,
		heckle:       heckle,
		hist:         hist,
		prefStore:    prefStore,
		pref:         pref,
		logger:       logger.WithPrefix("tui"),
		logViewport:  vp,
		commandInput: ti,
		events:       make(chan tea.Msg, 64),
		focusedPane:  1,
	}
	m.heckle.SetEnabled(pref.Voice.Enabled)
	return m
}

// Init starts the event listener.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.listenEvents())
}

// listenEvents forwards sequencer and background events into Update.
func (m *Model) listenEvents() tea.Cmd {
	return func() tea.Msg {
		return <-m.events
	}
}

// Update handles messages.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			m.quitting = true
			m.seq.Cancel()
			return m, tea.Sequence(tea.ClearScreen, tea.Quit)
		case "tab":
			if m.focusedPane == 0 {
				m.focusedPane = 1
				m.commandInput.Focus()
			} else {
				m.focusedPane = 0
				m.commandInput.Blur()
			}
		case "enter":
			if m.focusedPane == 1 {
				input := strings.TrimSpace(m.commandInput.Value())
				m.commandInput.SetValue("")
				if cmd := m.dispatch(input); cmd != nil {
					cmds = append(cmds, cmd)
				}
			}
		case "up", "k":
			if m.focusedPane == 0 {
				m.logViewport.LineUp(1)
			}
		case "down", "j":
			if m.focusedPane == 0 {
				m.logViewport.LineDown(1)
			}
		}

	case actionResultMsg:
		if cmd := m.handleActionResult(msg); cmd != nil {
			cmds = append(cmds, cmd)
		}

	case revealMsg:
		if cmd := m.handleReveal(msg.step); cmd != nil {
			cmds = append(cmds, cmd)
		}
		cmds = append(cmds, m.listenEvents())

	case autoPollMsg:
		cmds = append(cmds, m.runRequest("resync", func(ctx context.Context) (*api.Response, error) {
			return m.sess.Resync(ctx)
		}))
	}

	var cmd tea.Cmd
	if m.focusedPane == 1 {
		m.commandInput, cmd = m.commandInput.Update(msg)
		cmds = append(cmds, cmd)
	}
	m.logViewport, cmd = m.logViewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// dispatch parses a typed command and returns the command to run it.
func (m *Model) dispatch(input string) tea.Cmd {
	parts := strings.Fields(strings.ToLower(input))
	if len(parts) == 0 {
		return nil
	}
	cmd, args := parts[0], parts[1:]

	switch cmd {
	case "help", "?":
		m.showHelp()
	case "quit", "exit":
		m.quitting = true
		m.seq.Cancel()
		return tea.Sequence(tea.ClearScreen, tea.Quit)

	case "new", "next":
		return m.runRequest("new", func(ctx context.Context) (*api.Response, error) {
			return m.sess.StartNewGame(ctx, 0)
		})
	case "reset":
		amount := m.pref.Bankroll.ResetAmount
		m.sess.Reset()
		return m.runRequest("reset", func(ctx context.Context) (*api.Response, error) {
			return m.sess.StartNewGame(ctx, amount)
		})

	case "chip":
		if len(args) == 1 {
			if v, err := strconv.Atoi(args[0]); err == nil {
				m.sess.SelectChip(v)
				m.status = fmt.Sprintf("Chip value $%d", v)
				return nil
			}
		}
		m.status = "usage: chip <value>"
	case "add":
		if m.sess.AddChip() {
			m.status = fmt.Sprintf("Bet $%d", m.sess.PendingBet())
		} else {
			m.status = "Cannot add chip (table max or balance reached)"
		}
	case "clear":
		m.sess.ClearBet()
		m.status = "Bet cleared"

	case "bet":
		amount := m.sess.PendingBet()
		if len(args) == 1 {
			v, err := strconv.Atoi(args[0])
			if err != nil {
				m.status = "usage: bet <amount>"
				return nil
			}
			amount = v
		}
		if amount == 0 {
			amount = m.pref.Betting.DefaultBet
		}
		return m.runRequest("bet", func(ctx context.Context) (*api.Response, error) {
			return m.sess.PlaceBet(ctx, amount)
		})

	case "deal":
		return m.runRequest("deal", func(ctx context.Context) (*api.Response, error) {
			return m.sess.Deal(ctx)
		})

	case "hit", "stand", "double", "split", "surrender":
		action := session.Action(cmd)
		return m.runRequest(cmd, func(ctx context.Context) (*api.Response, error) {
			return m.sess.PerformAction(ctx, action)
		})

	case "insurance", "insure", "yes", "no":
		accept := cmd == "yes" || cmd == "insurance" || cmd == "insure"
		if len(args) == 1 {
			accept = args[0] == "yes" || args[0] == "y"
		}
		action := session.ActionInsureNo
		if accept {
			action = session.ActionInsureYes
		}
		return m.runRequest("insurance", func(ctx context.Context) (*api.Response, error) {
			return m.sess.PerformAction(ctx, action)
		})

	case "auto":
		cfg := api.AutoPlayConfig{
			Rounds:        m.pref.Auto.Rounds,
			BetPerRound:   m.pref.Auto.BetPerRound,
			InsuranceMode: m.pref.Auto.InsuranceMode,
		}
		if len(args) >= 1 {
			if v, err := strconv.Atoi(args[0]); err == nil {
				cfg.Rounds = v
			}
		}
		if len(args) >= 2 {
			if v, err := strconv.Atoi(args[1]); err == nil {
				cfg.BetPerRound = v
			}
		}
		return m.runRequest("auto", func(ctx context.Context) (*api.Response, error) {
			return m.sess.StartAutoPlay(ctx, cfg)
		})

	case "resync":
		return m.runRequest("resync", func(ctx context.Context) (*api.Response, error) {
			return m.sess.Resync(ctx)
		})

	case "history":
		m.showHistory()

	case "set":
		m.applySetting(args)

	default:
		m.status = fmt.Sprintf("Unknown command %q (try help)", cmd)
	}
	return nil
}

// runRequest issues one server request off the update loop.
func (m *Model) runRequest(action string, fn func(context.Context) (*api.Response, error)) tea.Cmd {
	return func() tea.Msg {
		resp, err := fn(context.Background())
		return actionResultMsg{action: action, resp: resp, err: err}
	}
}

// handleActionResult applies a resolved request to the screen.
func (m *Model) handleActionResult(msg actionResultMsg) tea.Cmd {
	prev := m.lastSnapshot

	if msg.err != nil {
		m.showError(msg)
		if msg.resp == nil || msg.resp.Snapshot == nil {
			return nil
		}
	}

	snap := m.sess.Snapshot()
	if snap == nil {
		return nil
	}
	m.lastSnapshot = snap

	switch msg.action {
	case "new", "reset":
		m.resetRoundDisplay()
		m.addLog(fmt.Sprintf("New round. Balance $%d. Table $%d-$%d.",
			snap.Player.Chips, snap.Limits.MinBet, snap.Limits.MaxBet))
		m.status = "Place your bet"
	case "bet":
		if msg.err == nil {
			m.addLog(fmt.Sprintf("Bet $%d placed.", snap.TotalBet()))
			m.status = "Deal when ready"
		}
	case "deal":
		m.shownDealer = len(snap.Dealer.FullHand)
		m.holeShown = false
		if h := snap.CurrentHand(); h != nil {
			m.addLog(fmt.Sprintf("You are dealt %s.", strings.Join(cardNames(h.Cards), " ")))
		}
		if len(snap.Dealer.FullHand) > 1 {
			m.addLog(fmt.Sprintf("Dealer shows %s.", snap.Dealer.FullHand[1]))
		}
		if msg.resp != nil && msg.resp.DealerPeeked {
			m.addLog("Dealer peeks at the hole card...")
		}
	case "hit", "stand", "double", "split", "surrender":
		if msg.resp != nil && msg.resp.Message != "" {
			m.addLog(msg.resp.Message)
		}
	case "insurance":
		m.recordInsurance(msg)
	}

	if line := m.heckle.Remark(prev, snap); line != "" {
		m.addLog(HecklerStyle.Render(line))
	}

	// When the server has already resolved dealer play, pace the
	// reveal instead of showing everything at once.
	if needsReveal(snap) && !m.roundRecorded {
		steps := sequencer.Plan(m.shownDealer, m.holeShown, &snap.Dealer)
		skip := snap.Auto.Active || m.pref.Dealer.HitDelayMS == 0
		m.seq.Run(context.Background(), steps, skip, func(step sequencer.Step) {
			m.events <- revealMsg{step}
		})
	}

	if snap.Auto.Active {
		return tea.Tick(autoPollInterval, func(time.Time) tea.Msg { return autoPollMsg{} })
	}
	return nil
}

func cardNames(cards []api.Card) []string {
	out := make([]string, 0, len(cards))
	for _, c := range cards {
		out = append(out, c.String())
	}
	return out
}

// needsReveal reports whether the snapshot contains dealer state the
// screen has not shown yet.
func needsReveal(s *api.Snapshot) bool {
	return s.Phase == api.PhaseDealerTurn || s.Phase == api.PhaseGameOver
}

// handleReveal advances the dealer display one step.
func (m *Model) handleReveal(step sequencer.Step) tea.Cmd {
	switch step.Kind {
	case sequencer.RevealHole:
		m.holeShown = true
		m.addLog(fmt.Sprintf("Dealer reveals %s.", step.Card))
	case sequencer.RevealDraw:
		if step.Index+1 > m.shownDealer {
			m.shownDealer = step.Index + 1
			m.addLog(fmt.Sprintf("Dealer draws %s.", step.Card))
		}
	case sequencer.RevealDone:
		m.endRound()
	}
	return nil
}

// endRound settles the finished round: computes the expected profit
// from the bet and outcome, checks it against the actual balance
// delta, records history, and posts the result banner.
func (m *Model) endRound() {
	snap := m.sess.Snapshot()
	if snap == nil || snap.Phase != api.PhaseGameOver || m.roundRecorded {
		return
	}
	m.roundRecorded = true

	totalBet := snap.TotalBet() - snap.InsuranceBet
	roundStart := m.sess.RoundStartBalance()
	settled := snap.Player.Chips
	if m.insRecorded {
		// Insurance already has its own ledger entry; keep it out of
		// the round's consistency check.
		settled -= m.insProfit
	}

	st := sequencer.Settle(snap.Result, totalBet, roundStart-totalBet, settled)
	if !st.Consistent {
		m.logger.Warn("Settlement mismatch",
			"result", st.Result, "expected", st.Profit, "actual", st.Delta)
	}

	banner := view.Project(snap).Signage
	m.addLog(SignageStyle.Render(fmt.Sprintf("%s %s", banner, sequencer.FormatProfit(st.Profit))))
	m.status = "Round over. Type new to continue."

	if m.hist != nil {
		if err := m.hist.RecordRound(snap.GameID, snap.Result, totalBet, st.Profit); err != nil {
			m.logger.Warn("Cannot record round", "error", err)
		}
	}
}

// recordInsurance settles the insurance side bet the moment the dealer
// peek resolves it, as a ledger entry distinct from the round result.
func (m *Model) recordInsurance(msg actionResultMsg) {
	if msg.err != nil || msg.resp == nil || msg.resp.Snapshot == nil || m.insRecorded {
		return
	}
	snap := msg.resp.Snapshot
	if snap.InsuranceBet <= 0 || !msg.resp.DealerPeeked {
		return
	}

	profit := sequencer.InsuranceProfit(snap.InsuranceBet, snap.Dealer.IsBlackjack)
	m.insProfit = profit
	m.insRecorded = true
	m.addLog(fmt.Sprintf("Insurance settles %s.", sequencer.FormatProfit(profit)))

	if m.hist != nil {
		if err := m.hist.RecordInsurance(snap.GameID, snap.InsuranceBet, profit); err != nil {
			m.logger.Warn("Cannot record insurance", "error", err)
		}
	}
}

func (m *Model) resetRoundDisplay() {
	m.seq.Cancel()
	m.shownDealer = 0
	m.holeShown = false
	m.insProfit = 0
	m.insRecorded = false
	m.roundRecorded = false
}

func (m *Model) showError(msg actionResultMsg) {
	var apiErr *api.APIError
	switch {
	case errors.Is(msg.err, session.ErrActionInFlight):
		m.status = "Hold on, previous action still resolving"
	case errors.Is(msg.err, session.ErrNoGame):
		m.status = "No game yet. Type new to start."
	case errors.Is(msg.err, session.ErrWrongPhase):
		m.status = "That action is not available right now"
	case errors.Is(msg.err, session.ErrInvalidBet):
		m.status = msg.err.Error()
	case errors.As(msg.err, &apiErr):
		m.status = "Server: " + apiErr.Message
	default:
		m.status = "Connection trouble: " + msg.err.Error()
	}
	m.logger.Warn("Action error", "action", msg.action, "error", msg.err)
}

func (m *Model) showHelp() {
	for _, line := range []string{
		"Commands:",
		"  new            start a round (reuses your balance)",
		"  bet <n>        place a bet   |  chip <n> / add / clear  build one",
		"  deal           deal the cards",
		"  hit stand double split surrender",
		"  yes / no       answer an insurance or even-money offer",
		"  auto [rounds [bet]]   server-driven batch play",
		"  history        recent results   |  resync  re-pull state",
		"  set <name> <value>    delay, bet, bankroll, soft17, voice, voicerate",
		"  reset          new game at the bankroll reset amount",
	} {
		m.addLog(line)
	}
}

func (m *Model) showHistory() {
	if m.hist == nil {
		m.status = "History unavailable"
		return
	}
	entries, err := m.hist.Recent(m.sess.GameID(), 10)
	if err != nil {
		m.status = "History unavailable"
		m.logger.Warn("Cannot read history", "error", err)
		return
	}
	if len(entries) == 0 {
		m.addLog("No rounds recorded yet.")
		return
	}
	m.addLog("Recent rounds:")
	for _, e := range entries {
		m.addLog(fmt.Sprintf("  %-9s %-14s bet $%-5d %s",
			e.Kind, e.Result, e.Bet, sequencer.FormatProfit(e.Profit)))
	}
}

// applySetting updates one preference, clamps it, persists the group
// and applies it live.
func (m *Model) applySetting(args []string) {
	if len(args) != 2 {
		m.status = "usage: set <delay|bet|bankroll|soft17|voice|voicerate> <value>"
		return
	}
	name, raw := args[0], args[1]

	switch name {
	case "delay":
		n := prefs.NormalizeInt(raw, prefs.MinDealerDelayMS, prefs.MaxDealerDelayMS, m.pref.Dealer.HitDelayMS)
		m.pref.Dealer.HitDelayMS = n.Value
		m.seq.SetDelay(delayDuration(n.Value))
		m.status = settingStatus("dealer delay", fmt.Sprintf("%dms", n.Value), n.ClampedToMin, n.ClampedToMax)
	case "bet":
		n := prefs.NormalizeInt(raw, prefs.MinDefaultBet, prefs.MaxDefaultBet, m.pref.Betting.DefaultBet)
		m.pref.Betting.DefaultBet = n.Value
		m.status = settingStatus("default bet", fmt.Sprintf("$%d", n.Value), n.ClampedToMin, n.ClampedToMax)
	case "bankroll":
		n := prefs.NormalizeInt(raw, prefs.MinBankroll, prefs.MaxBankroll, m.pref.Bankroll.ResetAmount)
		m.pref.Bankroll.ResetAmount = n.Value
		m.status = settingStatus("bankroll reset", fmt.Sprintf("$%d", n.Value), n.ClampedToMin, n.ClampedToMax)
	case "soft17":
		m.pref.Dealer.HitSoft17 = raw == "on" || raw == "true" || raw == "yes"
		m.status = fmt.Sprintf("Dealer hits soft 17: %v", m.pref.Dealer.HitSoft17)
	case "voice":
		m.pref.Voice.Enabled = raw == "on" || raw == "true" || raw == "yes"
		m.heckle.SetEnabled(m.pref.Voice.Enabled)
		m.status = fmt.Sprintf("Commentary: %v", m.pref.Voice.Enabled)
	case "voicerate":
		n := prefs.NormalizeFloat(raw, prefs.MinVoiceRate, prefs.MaxVoiceRate, m.pref.Voice.Rate)
		m.pref.Voice.Rate = n.Value
		m.status = settingStatus("voice rate", fmt.Sprintf("%.1f", n.Value), n.ClampedToMin, n.ClampedToMax)
	default:
		m.status = fmt.Sprintf("Unknown setting %q", name)
		return
	}

	if m.prefStore != nil {
		m.prefStore.Save(m.pref)
	}
}

func settingStatus(name, value string, clampedMin, clampedMax bool) string {
	switch {
	case clampedMin:
		return fmt.Sprintf("%s raised to minimum: %s", name, value)
	case clampedMax:
		return fmt.Sprintf("%s capped at maximum: %s", name, value)
	default:
		return fmt.Sprintf("%s set to %s", name, value)
	}
}

// AddLogEntry appends a line to the game log, e.g. the welcome text.
func (m *Model) AddLogEntry(entry string) {
	m.addLog(entry)
}

// addLog appends a line to the game log and scrolls to it.
func (m *Model) addLog(entry string) {
	m.gameLog = append(m.gameLog, entry)
	m.logViewport.SetContent(strings.Join(m.gameLog, "\n"))
	if m.logViewport.Height > 0 && m.logViewport.Width > 0 {
		m.logViewport.GotoBottom()
	}
}

// GameLog returns the accumulated log lines. Test helper.
func (m *Model) GameLog() []string {
	out := make([]string, len(m.gameLog))
	copy(out, m.gameLog)
	return out
}
