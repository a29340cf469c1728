package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

func helpBar(items []string) string {
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color("8")).
		Align(lipgloss.Center).
		Render(strings.Join(items, " • "))
}
