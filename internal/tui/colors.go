package tui

import (
	"github.com/charmbracelet/lipgloss"

	"streamliner/internal/item"
)

func lightBlue() lipgloss.Color {
	return lipgloss.Color("#87CEEB")
}

func darkBlue() lipgloss.Color {
	return lipgloss.Color("#4682B4")
}

// sourceColor tints the source column per provider.
func sourceColor(src item.Source) lipgloss.Color {
	switch src {
	case item.GitHubIssue, item.GitHubRelease:
		return lipgloss.Color("#A371F7")
	case item.GitLabIssue, item.GitLabMR:
		return lipgloss.Color("#FC6D26")
	case item.RSS, item.Atom:
		return lipgloss.Color("#F5A623")
	}
	return lipgloss.Color("8")
}
