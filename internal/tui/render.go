package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"blackjack-tui/internal/api"
	"blackjack-tui/internal/view"
)

// View renders the table screen: log pane plus sidebar on top, table
// and command pane below.
func (m *Model) View() string {
	if m.quitting {
		return ""
	}
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	tableContent := m.renderTablePane()
	tableHeight := lipgloss.Height(tableContent)
	tableWidth := m.width - 2
	if tableWidth < 1 {
		tableWidth = 1
	}

	tableStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#04B575")).
		Width(tableWidth)
	tablePane := tableStyle.Render(tableContent)

	sidebarContent := m.renderSidebarPane()
	sidebarWidth := 28
	if w := lipgloss.Width(sidebarContent); w > sidebarWidth {
		sidebarWidth = w
	}
	sidebarHeight := m.height - tableHeight - 6
	if sidebarHeight < 1 {
		sidebarHeight = 1
	}

	sidebarPane := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#626262")).
		Width(sidebarWidth).
		Height(sidebarHeight).
		Render(sidebarContent)

	logWidth := m.width - sidebarWidth - 6
	if logWidth < 1 {
		logWidth = 1
	}
	m.logViewport.Width = logWidth
	m.logViewport.Height = sidebarHeight

	if !m.initialized && logWidth > 1 && sidebarHeight > 1 {
		m.logViewport.GotoBottom()
		m.initialized = true
	}

	logStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#626262")).
		Width(logWidth).
		Height(sidebarHeight)
	if m.focusedPane == 0 {
		logStyle = logStyle.BorderForeground(lipgloss.Color("#04B575"))
	}
	logPane := logStyle.Render(m.logViewport.View())

	topRow := lipgloss.JoinHorizontal(lipgloss.Top, logPane, sidebarPane)
	return lipgloss.JoinVertical(lipgloss.Top, topRow, tablePane)
}

// renderTablePane shows the dealer, the hands, the result banner and
// the command input.
func (m *Model) renderTablePane() string {
	var b strings.Builder

	snap := m.sess.Snapshot()
	if snap == nil {
		b.WriteString(InfoStyle.Render("No game. Type new to sit down."))
		b.WriteString("\n")
	} else {
		p := view.Project(snap)

		b.WriteString(HandInfoStyle.Render("Dealer: "))
		b.WriteString(m.renderDealer(snap))
		b.WriteString("\n")

		for i, h := range p.Hands {
			label := "Hand"
			if len(p.Hands) > 1 {
				label = fmt.Sprintf("Hand %d", i+1)
			}
			marker := "  "
			if h.Active {
				marker = "► "
			}
			line := fmt.Sprintf("%s%s: %s  (%s)  $%d", marker, label,
				m.renderCards(h.Cards), h.Value, h.Bet)
			if len(h.Tags) > 0 {
				line += "  " + WarningStyle.Render(strings.Join(h.Tags, " "))
			}
			b.WriteString(line)
			b.WriteString("\n")
		}

		if pending := m.sess.PendingBet(); pending > 0 && snap.Phase == api.PhaseBetting {
			b.WriteString(InfoStyle.Render(fmt.Sprintf("Stacking $%d (chip $%d)", pending, m.sess.ChipValue())))
			b.WriteString("\n")
		}

		// Signage only once the reveal sequence has caught up.
		if p.Signage != "" && m.roundRecorded {
			b.WriteString(SignageStyle.Render(p.Signage))
			b.WriteString("\n")
		}
		if p.InsurancePrompt {
			b.WriteString(WarningStyle.Render("Insurance? yes / no"))
			b.WriteString("\n")
		}
		if p.EvenMoneyPrompt {
			b.WriteString(WarningStyle.Render("Even money? yes / no"))
			b.WriteString("\n")
		}
		if p.AutoActive {
			b.WriteString(InfoStyle.Render(fmt.Sprintf("Auto play: %d rounds remaining", snap.Auto.RoundsRemaining)))
			b.WriteString("\n")
		}

		b.WriteString(m.renderAvailableActions(p))
		b.WriteString("\n")
	}

	if m.status != "" {
		b.WriteString(InfoStyle.Render(m.status))
		b.WriteString("\n")
	}

	b.WriteString(m.commandInput.View())
	b.WriteString("\n")
	b.WriteString(InfoStyle.Render("Tab to scroll log • Enter to submit • Ctrl+C to quit"))
	return b.String()
}

// renderDealer shows only the dealer cards the reveal sequence has
// disclosed so far; the hole card stays face-down until its flip step.
func (m *Model) renderDealer(snap *api.Snapshot) string {
	cards := snap.Dealer.FullHand
	if len(cards) == 0 {
		return InfoStyle.Render("(no cards)")
	}

	shown := m.shownDealer
	if shown > len(cards) {
		shown = len(cards)
	}
	if shown < 2 && len(cards) >= 2 {
		shown = 2
	}

	var parts []string
	for i := 0; i < shown; i++ {
		if i == 0 && !m.holeShown && snap.Dealer.HoleCardHidden {
			parts = append(parts, HiddenCardStyle.Render(view.HiddenCard))
			continue
		}
		if i == 0 && !m.holeShown && !snap.Dealer.HoleCardHidden {
			// Snapshot has revealed the hole card but the flip step
			// has not played yet.
			parts = append(parts, HiddenCardStyle.Render(view.HiddenCard))
			continue
		}
		parts = append(parts, m.renderCard(cards[i]))
	}

	out := "[" + strings.Join(parts, " ") + "]"
	if m.holeShown && snap.Dealer.FullValue != nil && shown == len(cards) {
		out += fmt.Sprintf("  (%d)", *snap.Dealer.FullValue)
		if snap.Dealer.IsBust {
			out += " " + ErrorStyle.Render("BUST")
		} else if snap.Dealer.IsBlackjack {
			out += " " + WarningStyle.Render("BLACKJACK")
		}
	} else if snap.Dealer.Value != nil {
		out += fmt.Sprintf("  (%d showing)", *snap.Dealer.Value)
	}
	return out
}

func (m *Model) renderCard(c api.Card) string {
	if c.IsRed() {
		return RedCardStyle.Render(c.String())
	}
	return BlackCardStyle.Render(c.String())
}

func (m *Model) renderCards(cards []string) string {
	return "[" + strings.Join(cards, " ") + "]"
}

// renderAvailableActions lists the enabled controls for the phase.
func (m *Model) renderAvailableActions(p view.Projection) string {
	var actions []string

	if p.Buttons.Deal {
		actions = append(actions, SuccessStyle.Render("[deal]"))
	}
	if p.Buttons.Hit {
		actions = append(actions, SuccessStyle.Render("[hit]"))
	}
	if p.Buttons.Stand {
		actions = append(actions, SuccessStyle.Render("[stand]"))
	}
	if p.Buttons.Double {
		actions = append(actions, WarningStyle.Render("[double]"))
	}
	if p.Buttons.Split {
		actions = append(actions, WarningStyle.Render("[split]"))
	}
	if p.Buttons.Surrender {
		actions = append(actions, ErrorStyle.Render("[surrender]"))
	}
	if p.Buttons.NewRound {
		actions = append(actions, SuccessStyle.Render("[new]"))
	}
	if p.InsurancePrompt || p.EvenMoneyPrompt {
		actions = append(actions, WarningStyle.Render("[yes]"), WarningStyle.Render("[no]"))
	}
	if p.Phase == api.PhaseBetting && !p.Buttons.Deal {
		actions = append(actions, SuccessStyle.Render("[bet <amount>]"))
	}

	if len(actions) == 0 {
		return InfoStyle.Render("Waiting...")
	}
	return ActionsStyle.Render("Actions: " + strings.Join(actions, " "))
}

// renderSidebarPane shows balances, limits, shoe depth and stats.
func (m *Model) renderSidebarPane() string {
	var b strings.Builder

	b.WriteString(TitleStyle.Render(" BLACKJACK "))
	b.WriteString("\n\n")

	snap := m.sess.Snapshot()
	if snap == nil {
		b.WriteString(InfoStyle.Render("Not seated"))
		return b.String()
	}

	b.WriteString(WarningStyle.Render(fmt.Sprintf("Balance: $%d", snap.Player.Chips)))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("Table: $%d - $%d", snap.Limits.MinBet, snap.Limits.MaxBet))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("Shoe: %d cards", snap.DeckRemaining))
	b.WriteString("\n\n")

	s := snap.Player.Stats
	b.WriteString(InfoStyle.Render("Session:"))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("  W %d / L %d / BJ %d", s.TotalWins, s.TotalLosses, s.TotalBlackjacks))
	b.WriteString("\n")

	if m.hist != nil {
		if net, err := m.hist.NetProfit(snap.GameID); err == nil {
			b.WriteString(fmt.Sprintf("  Net: %s", formatNet(net)))
			b.WriteString("\n")
		}
	}

	return b.String()
}

func formatNet(net int) string {
	if net < 0 {
		return fmt.Sprintf("-$%d", -net)
	}
	return fmt.Sprintf("+$%d", net)
}
