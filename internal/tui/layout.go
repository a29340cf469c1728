package tui

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var menuLabels = []string{"Items", "Fetch"}

func pageLayout(content string) string {
	return lipgloss.NewStyle().
		Padding(0, 1).
		Render(content)
}

func renderMenu(active int, width int) string {
	divider := strings.Repeat("─", max(0, width))

	styled := make([]string, 0, len(menuLabels))
	for index, label := range menuLabels {
		style := lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
		if active == index {
			style = lipgloss.NewStyle().Foreground(lipgloss.Color("15")).Underline(true)
		}
		entry := style.Render(label + " [" + strconv.Itoa(index+1) + "]")
		if index != len(menuLabels)-1 {
			entry += " | "
		}
		styled = append(styled, entry)
	}

	menu := lipgloss.JoinHorizontal(lipgloss.Left, styled...)
	return lipgloss.JoinVertical(lipgloss.Left, menu, divider)
}
