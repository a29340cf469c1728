package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
)

type detailPage struct {
	width        int
	height       int
	viewport     viewport.Model
	selectedItem *itemDetail
}

func (m detailPage) Init() tea.Cmd {
	return nil
}

func (m detailPage) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, func() tea.Msg { return goToTableMsg{} }
		case "k", "up":
			m.viewport.ScrollUp(1)
		case "j", "down":
			m.viewport.ScrollDown(1)
		case "g":
			m.viewport.GotoTop()
		case "G":
			m.viewport.GotoBottom()
		}
		return m, nil
	case tea.WindowSizeMsg:
		m.width = msg.Width - 4
		m.height = msg.Height - 4
		if m.selectedItem != nil {
			m.viewport = setupViewport(m.width, m.height, m.selectedItem)
		}
		return m, nil
	case goToDetailMsg:
		m.selectedItem = msg.item
		m.viewport = setupViewport(m.width, m.height, m.selectedItem)
		return m, nil
	}

	return m, nil
}

func (m detailPage) View() string {
	if m.selectedItem == nil {
		return "No item selected"
	}

	title := m.selectedItem.title
	if title == "" {
		title = "No title"
	}
	textWidth := max(20, m.width-8)

	titleRendered := lipgloss.NewStyle().
		Foreground(darkBlue()).
		Bold(true).
		MarginBottom(1).
		Width(textWidth).
		Render(title)

	url := m.selectedItem.url
	if url == "" {
		url = "Not available"
	}
	urlRendered := lipgloss.NewStyle().
		Foreground(lightBlue()).
		Italic(true).
		MarginBottom(1).
		Width(textWidth).
		Render("URL: " + url)

	metaRendered := lipgloss.NewStyle().
		Foreground(lipgloss.Color("8")).
		MarginBottom(1).
		Render(fmt.Sprintf("Source: %s • Date: %s",
			m.selectedItem.source, formatDate(m.selectedItem.published, "2006-01-02 15:04")))

	percent := min(1, max(0, m.viewport.ScrollPercent()))
	scrollRendered := lipgloss.NewStyle().
		Foreground(lipgloss.Color("8")).
		Bold(true).
		Render(fmt.Sprintf("Scroll: %d%%", int(percent*100)))

	help := lipgloss.NewStyle().MarginTop(1).
		Render(helpBar([]string{"j/k: scroll", "g/G: top/bottom", "esc/q: back"}))

	content := lipgloss.JoinVertical(lipgloss.Left,
		titleRendered,
		urlRendered,
		metaRendered,
		m.viewport.View(),
		scrollRendered,
		help)

	border := lipgloss.NewStyle().
		Border(lipgloss.ThickBorder()).
		BorderForeground(darkBlue())
	return pageLayout(border.Render(content))
}

func setupViewport(width, height int, selected *itemDetail) viewport.Model {
	contentWidth := max(20, width)
	vp := viewport.New(contentWidth, max(5, height-10))
	vp.SetContent(renderMarkdown(selected.content, contentWidth))
	return vp
}

// renderMarkdown styles content for the terminal, falling back to the raw
// text when glamour cannot render it.
func renderMarkdown(content string, width int) string {
	if strings.TrimSpace(content) == "" {
		return "No content available"
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithWordWrap(width),
		glamour.WithStandardStyle("dark"),
	)
	if err != nil {
		return content
	}
	rendered, err := r.Render(content)
	if err != nil {
		return content
	}
	return rendered
}
