package client

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/cardmasters/kachuful/internal/deck"
	"github.com/cardmasters/kachuful/internal/game"
	"github.com/cardmasters/kachuful/internal/server"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	hostStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	turnStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("82"))
	redStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	blackStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	dimStyle    = lipgloss.NewStyle().Faint(true)
	errorStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
	winnerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("220"))
	chatStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
)

// RenderCard renders one card with suit coloring.
func RenderCard(c deck.VisibleCard) string {
	text := fmt.Sprintf("%s%s", c.Rank.Label(), c.Suit.Symbol())
	if c.Suit.IsRed() {
		return redStyle.Render(text)
	}
	return blackStyle.Render(text)
}

// RenderHand renders the player's hand with playable cards highlighted and
// numbered for selection.
func RenderHand(hand server.HandUpdatePayload) string {
	playable := make(map[string]bool, len(hand.PlayableCardIDs))
	for _, id := range hand.PlayableCardIDs {
		playable[id] = true
	}

	parts := make([]string, 0, len(hand.Cards))
	for i, c := range hand.Cards {
		card := fmt.Sprintf("[%d]%s", i+1, RenderCard(c))
		if !playable[c.ID] {
			card = dimStyle.Render(fmt.Sprintf("[%d]%s%s", i+1, c.Rank.Label(), c.Suit.Symbol()))
		}
		parts = append(parts, card)
	}
	return labelStyle.Render("Your hand: ") + strings.Join(parts, " ")
}

// RenderLobby renders the lobby roster.
func RenderLobby(state server.GameState) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("Lobby %s", state.LobbyCode)))
	b.WriteString(labelStyle.Render(fmt.Sprintf("  (%d/%d players, %s)\n", len(state.Players), state.MaxPlayers, state.Status)))

	for _, p := range state.Players {
		line := fmt.Sprintf("  %s %s", p.Avatar, p.Name)
		if p.IsHost {
			line += hostStyle.Render(" (host)")
		}
		if p.Status == server.PlayerReady {
			line += labelStyle.Render(" ready")
		}
		if p.Status == server.PlayerDisconnected {
			line = dimStyle.Render(line + " (disconnected)")
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}

// RenderTable renders the in-game table: round, trump, trick, and the
// per-player bids, tricks and scores.
func RenderTable(state server.GameState, selfID string) string {
	var b strings.Builder

	trump := "none"
	if state.Trump != nil {
		trump = state.Trump.Symbol()
	}
	b.WriteString(titleStyle.Render(fmt.Sprintf("Round %d", state.Round)))
	b.WriteString(labelStyle.Render(fmt.Sprintf("  hand size %d, trump %s, phase %s\n", state.HandSize, trump, state.Phase)))

	if len(state.CurrentTrick) > 0 {
		plays := make([]string, 0, len(state.CurrentTrick))
		for _, tp := range state.CurrentTrick {
			plays = append(plays, fmt.Sprintf("%s:%s", shortName(state, tp.PlayerID), RenderCard(tp.Card)))
		}
		b.WriteString(labelStyle.Render("On the table: "))
		b.WriteString(strings.Join(plays, "  "))
		b.WriteString("\n")
	}

	for _, p := range state.Players {
		bid := "-"
		if p.Bid != nil {
			bid = fmt.Sprintf("%d", *p.Bid)
		}
		line := fmt.Sprintf("  %s %-12s bid %s, tricks %d, score %d", p.Avatar, p.Name, bid, p.TricksWon, p.Score)
		switch {
		case p.ID == state.CurrentTurn:
			line = turnStyle.Render(line + "  ← to act")
		case p.ID == selfID:
			line += labelStyle.Render("  (you)")
		case p.Status == server.PlayerDisconnected:
			line = dimStyle.Render(line)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	if state.LastTrickWinner != "" && state.Phase == game.PhaseRoundEnd {
		b.WriteString(dimStyle.Render(fmt.Sprintf("  last trick: %s\n", shortName(state, state.LastTrickWinner))))
	}
	return b.String()
}

// RenderGameEnd renders the final standings.
func RenderGameEnd(ended server.GameEndedPayload) string {
	var b strings.Builder
	b.WriteString(winnerStyle.Render("Game over!\n"))
	for _, fs := range ended.FinalScores {
		line := fmt.Sprintf("  %-12s %d", fs.Name, fs.Score)
		if fs.ID == ended.Winner {
			line = winnerStyle.Render(line + "  🏆")
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}

// RenderError renders a server error line.
func RenderError(message string) string {
	return errorStyle.Render("✗ " + message)
}

// RenderChat renders a chat line.
func RenderChat(chat server.ChatPayload) string {
	return chatStyle.Render(fmt.Sprintf("%s: %s", chat.PlayerName, chat.Message))
}

// FormatLobbyCode renders a lobby code with the letters and digits split,
// ABC-234 style, for reading out loud.
func FormatLobbyCode(code string) string {
	if len(code) != 6 {
		return code
	}
	return code[:3] + "-" + code[3:]
}

func shortName(state server.GameState, playerID string) string {
	for _, p := range state.Players {
		if p.ID == playerID {
			return p.Name
		}
	}
	return playerID
}
