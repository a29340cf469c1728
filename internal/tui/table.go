package tui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"streamliner/internal/item"
)

const defaultPageSize = 10

type tablePage struct {
	url   string
	items []item.Item
	table *table.Table

	ready        bool
	cursor       int
	currentPage  int
	pageSize     int
	width        int
	height       int
	tableWidth   int
	titleWidth   int
	sourceWidth  int
	dateWidth    int
	previewWidth int
}

func TablePage(url string, items []item.Item) tablePage {
	return tablePage{
		url:      url,
		items:    items,
		pageSize: defaultPageSize,
	}
}

// withItems replaces the listed items and resets the cursor.
func (m tablePage) withItems(url string, items []item.Item) tablePage {
	m.url = url
	m.items = items
	m.cursor = 0
	m.currentPage = 0
	if m.width > 0 {
		m.configureTable(m.width, m.height-4)
	}
	return m
}

func (m tablePage) totalPages() int {
	if m.pageSize <= 0 {
		return 0
	}
	return (len(m.items) + m.pageSize - 1) / m.pageSize
}

func (m tablePage) selected() (item.Item, bool) {
	idx := m.currentPage*m.pageSize + m.cursor
	if idx < 0 || idx >= len(m.items) {
		return item.Item{}, false
	}
	return m.items[idx], true
}

func (m tablePage) Init() tea.Cmd {
	return nil
}

func (m tablePage) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case " ", "enter":
			if it, ok := m.selected(); ok {
				detail := toItemDetail(it)
				return m, func() tea.Msg { return goToDetailMsg{item: detail} }
			}
			return m, nil
		case "2":
			return m, func() tea.Msg { return goToFetchMsg{} }
		case "r":
			if m.url != "" {
				url := m.url
				return m, func() tea.Msg { return fetchRequestMsg{url: url} }
			}
			return m, nil
		case "k", "up":
			if m.cursor > 0 {
				m.cursor--
			} else if m.currentPage > 0 {
				m.currentPage--
				m.cursor = m.pageSize - 1
			}
			m.updateTableRows()
			return m, nil
		case "j", "down":
			onPage := min(m.pageSize, len(m.items)-m.currentPage*m.pageSize)
			if m.cursor < onPage-1 {
				m.cursor++
			} else if m.currentPage < m.totalPages()-1 {
				m.currentPage++
				m.cursor = 0
			}
			m.updateTableRows()
			return m, nil
		case "g":
			m.currentPage = 0
			m.cursor = 0
			m.updateTableRows()
			return m, nil
		case "G":
			if len(m.items) == 0 {
				return m, nil
			}
			m.currentPage = m.totalPages() - 1
			m.cursor = len(m.items) - m.currentPage*m.pageSize - 1
			m.updateTableRows()
			return m, nil
		case "l":
			if m.currentPage < m.totalPages()-1 {
				m.currentPage++
				m.cursor = 0
				m.updateTableRows()
				return m, tea.ClearScreen
			}
			return m, nil
		case "h":
			if m.currentPage > 0 {
				m.currentPage--
				m.cursor = 0
				m.updateTableRows()
				return m, tea.ClearScreen
			}
			return m, nil
		}
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.configureTable(msg.Width, msg.Height-4)
		m.ready = true
		return m, tea.ClearScreen
	}

	return m, nil
}

func (m tablePage) View() string {
	if !m.ready {
		return "...Loading"
	}

	menu := renderMenu(0, m.tableWidth)
	if len(m.items) == 0 {
		msg := "No items. Press 2 to fetch a URL."
		if m.url != "" {
			msg = "No items found at " + m.url
		}
		return pageLayout(lipgloss.JoinVertical(lipgloss.Left, menu, msg))
	}

	header := lipgloss.NewStyle().Foreground(lipgloss.Color("8")).
		Render(truncateString(m.url, m.tableWidth))
	help := helpBar([]string{
		"j/k: move",
		"l/h: page",
		"g/G: home/end",
		"Space: details",
		"r: refresh",
		"q: quit",
	})
	return pageLayout(lipgloss.JoinVertical(lipgloss.Left, menu, header, m.table.Render(), help))
}

func (m *tablePage) updateTableRows() {
	if len(m.items) == 0 {
		return
	}

	headers := []string{
		truncateString("Title", m.titleWidth),
		truncateString("Source", m.sourceWidth),
		truncateString("Date", m.dateWidth),
		truncateString("Preview", m.previewWidth),
	}

	start := m.currentPage * m.pageSize
	end := min(start+m.pageSize, len(m.items))
	var rows [][]string
	var sources []item.Source
	for _, it := range m.items[start:end] {
		title := it.Title
		if title == "" {
			title = "No title"
		}
		body := strings.TrimPrefix(it.Content, it.Title)
		rows = append(rows, []string{
			truncateString(title, m.titleWidth),
			truncateString(string(it.Source), m.sourceWidth),
			truncateString(formatDate(it.Timestamp, "2006-01-02"), m.dateWidth),
			previewLine(body, m.previewWidth),
		})
		sources = append(sources, it.Source)
	}

	if len(rows) > 0 {
		m.cursor = max(0, min(m.cursor, len(rows)-1))
	}

	cursor := m.cursor
	headerStyle := lipgloss.NewStyle().
		Padding(0, 1).
		Bold(true).
		Foreground(darkBlue()).
		Align(lipgloss.Center)

	m.table = table.New().
		Width(m.tableWidth).
		Border(lipgloss.ThickBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(darkBlue())).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			if row == cursor {
				return lipgloss.NewStyle().
					Padding(0, 1).
					Background(lightBlue()).
					Foreground(lipgloss.Color("0"))
			}
			style := lipgloss.NewStyle().Padding(0, 1)
			if col == 1 && row >= 0 && row < len(sources) {
				style = style.Foreground(sourceColor(sources[row]))
			}
			return style
		})
}

// configureTable sizes the page and the columns to the terminal.
func (m *tablePage) configureTable(width, height int) {
	m.tableWidth = width - 2
	m.pageSize = max(5, height-6)
	if len(m.items) == 0 {
		return
	}

	if pages := m.totalPages(); m.currentPage >= pages {
		m.currentPage = pages - 1
	}
	if idx := m.currentPage*m.pageSize + m.cursor; idx >= len(m.items) {
		idx = len(m.items) - 1
		m.currentPage = idx / m.pageSize
		m.cursor = idx % m.pageSize
	}

	m.dateWidth = 10
	m.sourceWidth = 14
	// two border columns on each side plus three cells of padding per column
	borderPadding := 4 + 3*4
	remaining := max(0, width-m.dateWidth-m.sourceWidth-borderPadding)
	m.titleWidth = max(20, remaining*45/100)
	m.previewWidth = max(25, remaining-m.titleWidth)

	m.updateTableRows()
}
