package tui

import (
	"fmt"
	"strings"

	textinput "github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type fetchPage struct {
	width      int
	height     int
	err        error
	loading    bool
	fetchInput textinput.Model
}

func newFetchPage() fetchPage {
	return fetchPage{fetchInput: initializeInput()}
}

func (m fetchPage) Init() tea.Cmd {
	return nil
}

func (m fetchPage) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.Type == tea.KeyEnter && m.fetchInput.Focused() {
			return m.submit()
		}
		if msg.Type == tea.KeyTab && !m.fetchInput.Focused() {
			m.fetchInput.Focus()
			return m, nil
		}
		switch msg.String() {
		case "esc":
			if m.fetchInput.Focused() {
				m.fetchInput.Blur()
				return m, nil
			}
			return m, tea.Quit
		case "1":
			if !m.fetchInput.Focused() {
				return m, func() tea.Msg { return goToTableMsg{} }
			}
		}
		var cmd tea.Cmd
		m.fetchInput, cmd = m.fetchInput.Update(msg)
		return m, cmd
	case goToFetchMsg:
		m.fetchInput.Focus()
		return m, nil
	case fetchRequestMsg:
		m.loading = true
		m.err = nil
		return m, nil
	case itemsLoadedMsg:
		m.loading = false
		m.err = msg.err
		return m, nil
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	}

	return m, nil
}

func (m fetchPage) submit() (fetchPage, tea.Cmd) {
	url := strings.TrimSpace(m.fetchInput.Value())
	if url == "" {
		m.err = fmt.Errorf("please enter a URL")
		return m, nil
	}
	m.err = nil
	return m, func() tea.Msg { return fetchRequestMsg{url: url} }
}

func initializeInput() textinput.Model {
	input := textinput.New()
	input.Prompt = ""
	input.Placeholder = "https://github.com/owner/repo"
	input.Width = 50
	return input
}

func (m fetchPage) View() string {
	instructions := lipgloss.NewStyle().
		MarginTop(min(m.height/4, 10)).
		MarginBottom(2).
		Render("Enter a repository, feed or page URL to fetch its items")

	borderColor := lipgloss.Color("8")
	if m.fetchInput.Focused() {
		borderColor = lipgloss.Color("15")
	}
	input := lipgloss.NewStyle().
		Width(50).
		Border(lipgloss.NormalBorder()).
		BorderForeground(borderColor).
		Render(m.fetchInput.View())

	var help string
	if m.fetchInput.Focused() {
		help = helpBar([]string{"Enter: fetch", "Esc: unfocus input"})
	} else {
		help = helpBar([]string{"1: go to items", "Tab: focus input", "Esc: quit"})
	}

	var status string
	switch {
	case m.loading:
		status = lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Render("Fetching...")
	case m.err != nil:
		status = lipgloss.NewStyle().
			Foreground(lipgloss.Color("1")).
			Render(fmt.Sprintf("Error while fetching: %v", m.err))
	}

	content := lipgloss.JoinVertical(
		lipgloss.Center,
		renderMenu(1, m.width),
		instructions,
		input,
		status,
		lipgloss.NewStyle().MarginTop(2).Render(help),
	)
	return pageLayout(content)
}
