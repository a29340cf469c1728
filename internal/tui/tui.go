// Package tui is an interactive browser for fetched items.
package tui

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"streamliner/internal/item"
)

const fetchTimeout = 2 * time.Minute

// Runner resolves a command and URL into items.
type Runner interface {
	Run(ctx context.Context, command, url string) (item.Envelope, error)
}

type viewMode int

const (
	tableView viewMode = iota
	fetchView
	detailView
)

type goToDetailMsg struct {
	item *itemDetail
}
type goToFetchMsg struct{}
type goToTableMsg struct{}

type fetchRequestMsg struct {
	url string
}

type itemsLoadedMsg struct {
	url   string
	items []item.Item
	err   error
}

type rootPage struct {
	ctx        context.Context
	runner     Runner
	startURL   string
	viewMode   viewMode
	detailPage detailPage
	tablePage  tablePage
	fetchPage  fetchPage
	err        error
}

func newRootPage(ctx context.Context, runner Runner, url string) rootPage {
	m := rootPage{
		ctx:       ctx,
		runner:    runner,
		startURL:  url,
		tablePage: TablePage(url, nil),
		fetchPage: newFetchPage(),
		viewMode:  fetchView,
	}
	if url == "" {
		m.fetchPage.fetchInput.Focus()
	} else {
		m.fetchPage.fetchInput.SetValue(url)
		m.fetchPage.loading = true
	}
	return m
}

// Run opens the browser. A non-empty url is fetched right away.
func Run(ctx context.Context, runner Runner, url string) error {
	p := tea.NewProgram(newRootPage(ctx, runner, url), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}

func (m rootPage) Init() tea.Cmd {
	if m.startURL == "" {
		return nil
	}
	return fetchCmd(m.ctx, m.runner, m.startURL)
}

func fetchCmd(ctx context.Context, runner Runner, url string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
		defer cancel()
		env, err := runner.Run(ctx, "get", url)
		return itemsLoadedMsg{url: url, items: env.Items, err: err}
	}
}

func (m rootPage) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.viewMode {
	case tableView:
		m.tablePage, cmd = update[tablePage](m.tablePage, msg)
	case detailView:
		m.detailPage, cmd = update[detailPage](m.detailPage, msg)
	case fetchView:
		m.fetchPage, cmd = update[fetchPage](m.fetchPage, msg)
	}

	switch msg := msg.(type) {
	case goToFetchMsg:
		m.viewMode = fetchView
		m.fetchPage, cmd = update[fetchPage](m.fetchPage, msg)
	case goToTableMsg:
		m.viewMode = tableView
	case goToDetailMsg:
		m.viewMode = detailView
		m.detailPage, cmd = update[detailPage](m.detailPage, msg)
	case fetchRequestMsg:
		m.viewMode = fetchView
		m.fetchPage, _ = update[fetchPage](m.fetchPage, msg)
		return m, fetchCmd(m.ctx, m.runner, msg.url)
	case itemsLoadedMsg:
		if m.viewMode != fetchView {
			m.fetchPage, _ = update[fetchPage](m.fetchPage, msg)
		}
		if msg.err != nil {
			m.viewMode = fetchView
			return m, nil
		}
		m.tablePage = m.tablePage.withItems(msg.url, msg.items)
		m.viewMode = tableView
		return m, tea.ClearScreen
	case tea.WindowSizeMsg:
		var cmds []tea.Cmd
		m.tablePage, cmd = update[tablePage](m.tablePage, msg)
		cmds = append(cmds, cmd)
		m.detailPage, cmd = update[detailPage](m.detailPage, msg)
		cmds = append(cmds, cmd)
		m.fetchPage, cmd = update[fetchPage](m.fetchPage, msg)
		cmds = append(cmds, cmd)
		return m, tea.Batch(cmds...)
	}

	return m, cmd
}

func (m rootPage) View() string {
	if m.err != nil {
		return fmt.Sprintf("Error: %v", m.err)
	}

	switch m.viewMode {
	case detailView:
		return m.detailPage.View()
	case fetchView:
		return m.fetchPage.View()
	case tableView:
		return m.tablePage.View()
	default:
		return "Unknown View"
	}
}

func update[T any](model tea.Model, msg tea.Msg) (T, tea.Cmd) {
	newModel, cmd := model.Update(msg)
	return newModel.(T), cmd
}
