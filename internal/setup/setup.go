package setup

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"streamliner/internal/config"
)

// Run executes the interactive setup flow:
// 1) greet
// 2) ask for forge tokens
// 3) ask for the archive location
// 4) ask for the optional digest model
// 5) write config and offer MCP client registration
func Run(ctx context.Context, cfgPath string, out io.Writer) error {
	cfgExists := fileExists(cfgPath)

	wiz := newWizardModel(cfgExists)
	p := tea.NewProgram(wiz, tea.WithContext(ctx))
	res, err := p.Run()
	if err != nil {
		return err
	}
	wm, ok := res.(*wizardModel)
	if !ok || wm.cancelled {
		return errors.New("setup cancelled")
	}

	if wm.override {
		if cfgExists {
			_ = config.BackupFile(cfgPath)
		}
		if err := config.WriteConfig(cfgPath, wm.userConfig()); err != nil {
			return err
		}
		fmt.Fprintf(out, "\nConfig written to %s\n", cfgPath)
	}

	maybeConfigureMCP(out, os.Stdin)

	fmt.Fprintln(out, "\nSetup complete!")
	fmt.Fprintf(out, "- Edit %s to refine settings\n", cfgPath)
	fmt.Fprintln(out, "- Run 'streamliner serve' to expose tools to your LLM via MCP")
	return nil
}

// -------------- Bubble Tea Wizard --------------
type wizardStep int

const (
	stepIntro wizardStep = iota
	stepConfigChoice
	stepGitHub
	stepGitLab
	stepArchive
	stepAI
	stepSummary
	stepDone
)

type inputField struct {
	input   textinput.Model
	focused bool
}

func newInputField(placeholder string, echo textinput.EchoMode) *inputField {
	in := textinput.New()
	in.Placeholder = placeholder
	in.EchoMode = echo
	if echo == textinput.EchoPassword {
		in.EchoCharacter = '•'
	}
	return &inputField{input: in}
}

func (f *inputField) focus() tea.Cmd {
	f.focused = true
	f.input.Focus()
	return nil
}

func (f *inputField) blur() {
	f.focused = false
	f.input.Blur()
}

func (f *inputField) value() string {
	return strings.TrimSpace(f.input.Value())
}

func (f *inputField) setValue(v string) {
	f.input.SetValue(v)
}

// inputGroup moves focus through its fields on Enter. done reports that
// Enter was pressed on the last field.
type inputGroup struct {
	fields  []*inputField
	current int
}

func newInputGroup(fields ...*inputField) *inputGroup {
	return &inputGroup{fields: fields}
}

func (g *inputGroup) focusFirst() tea.Cmd {
	for _, f := range g.fields {
		f.blur()
	}
	g.current = 0
	if len(g.fields) == 0 {
		return nil
	}
	return g.fields[0].focus()
}

func (g *inputGroup) update(msg tea.KeyMsg) (done bool, cmd tea.Cmd) {
	if len(g.fields) == 0 {
		return true, nil
	}
	if msg.Type == tea.KeyEnter {
		g.fields[g.current].blur()
		if g.current == len(g.fields)-1 {
			return true, nil
		}
		g.current++
		g.fields[g.current].focus()
		return false, nil
	}
	f := g.fields[g.current]
	f.input, cmd = f.input.Update(msg)
	return false, cmd
}

func (g *inputGroup) values() []string {
	out := make([]string, len(g.fields))
	for i, f := range g.fields {
		out[i] = f.value()
	}
	return out
}

func (g *inputGroup) view() string {
	views := make([]string, len(g.fields))
	for i, f := range g.fields {
		views[i] = f.input.View()
	}
	return strings.Join(views, "\n")
}

type wizardModel struct {
	step      wizardStep
	hasCfg    bool
	override  bool
	cancelled bool

	github  *inputGroup
	gitlab  *inputGroup
	archive *inputGroup
	ai      *inputGroup

	githubToken  string
	gitlabToken  string
	gitlabAPIURL string
	archivePath  string
	aiBaseURL    string
	aiModel      string
}

func newWizardModel(hasCfg bool) *wizardModel {
	return &wizardModel{
		step:   stepIntro,
		hasCfg: hasCfg,
		github: newInputGroup(newInputField("GitHub token (optional)", textinput.EchoPassword)),
		gitlab: newInputGroup(
			newInputField("GitLab token (optional)", textinput.EchoPassword),
			newInputField("GitLab API URL, e.g. https://gitlab.example.com/api/v4 (optional)", textinput.EchoNormal),
		),
		archive: newInputGroup(newInputField("~/.local/share/streamliner/archive.db (optional)", textinput.EchoNormal)),
		ai: newInputGroup(
			newInputField("OpenAI-compatible base URL, e.g. http://localhost:11434/v1/ (optional)", textinput.EchoNormal),
			newInputField("model name (optional)", textinput.EchoNormal),
		),
	}
}

func (m *wizardModel) Init() tea.Cmd { return nil }

func (m *wizardModel) typing() bool {
	switch m.step {
	case stepGitHub, stepGitLab, stepArchive, stepAI:
		return true
	}
	return false
}

func (m *wizardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	if key.Type == tea.KeyCtrlC || (!m.typing() && key.Type == tea.KeyRunes && strings.ToLower(string(key.Runes)) == "q") {
		m.cancelled = true
		return m, tea.Quit
	}

	switch m.step {
	case stepIntro:
		if key.Type == tea.KeyEnter {
			if m.hasCfg {
				m.step = stepConfigChoice
			} else {
				m.override = true
				m.enter(stepGitHub)
			}
		}
	case stepConfigChoice:
		if key.Type == tea.KeyRunes {
			switch strings.ToLower(string(key.Runes)) {
			case "o":
				m.override = true
				m.enter(stepGitHub)
			case "k":
				m.override = false
				m.step = stepSummary
			}
		}
	case stepGitHub:
		if done, cmd := m.github.update(key); !done {
			return m, cmd
		}
		m.githubToken = m.github.values()[0]
		m.enter(stepGitLab)
	case stepGitLab:
		if done, cmd := m.gitlab.update(key); !done {
			return m, cmd
		}
		v := m.gitlab.values()
		m.gitlabToken, m.gitlabAPIURL = v[0], strings.TrimRight(v[1], "/")
		m.enter(stepArchive)
	case stepArchive:
		if done, cmd := m.archive.update(key); !done {
			return m, cmd
		}
		m.archivePath = m.archive.values()[0]
		m.enter(stepAI)
	case stepAI:
		if done, cmd := m.ai.update(key); !done {
			return m, cmd
		}
		v := m.ai.values()
		m.aiBaseURL, m.aiModel = v[0], v[1]
		m.step = stepSummary
	case stepSummary:
		if key.Type == tea.KeyEnter {
			m.step = stepDone
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m *wizardModel) enter(step wizardStep) {
	m.step = step
	switch step {
	case stepGitHub:
		m.github.focusFirst()
	case stepGitLab:
		m.gitlab.focusFirst()
	case stepArchive:
		m.archive.focusFirst()
	case stepAI:
		m.ai.focusFirst()
	}
}

func (m *wizardModel) userConfig() config.UserConfig {
	uc := config.UserConfig{
		GitHubToken:  m.githubToken,
		GitLabToken:  m.gitlabToken,
		GitLabAPIURL: m.gitlabAPIURL,
		ArchivePath:  m.archivePath,
	}
	if m.aiBaseURL != "" || m.aiModel != "" {
		uc.AI = &config.AIConfig{BaseUrl: m.aiBaseURL, Model: m.aiModel}
	}
	return uc
}

func (m *wizardModel) View() string {
	b := &strings.Builder{}
	switch m.step {
	case stepIntro:
		fmt.Fprintln(b, "Welcome to streamliner setup!")
		fmt.Fprintln(b, "This wizard writes your tokens, archive location and digest model.")
		fmt.Fprintln(b, "\nPress Enter to begin · q to quit")
	case stepConfigChoice:
		fmt.Fprintln(b, "Found an existing config.")
		fmt.Fprintln(b, "Override it (will create a .bak) or keep it?")
		fmt.Fprintln(b, "[o] Override    [k] Keep existing")
	case stepGitHub:
		fmt.Fprintln(b, "Step 1 – GitHub")
		fmt.Fprintln(b, "A token raises the API rate limit. GITHUB_TOKEN is used when left empty.")
		fmt.Fprintln(b, m.github.view())
		fmt.Fprintln(b, "\nPress Enter to continue")
	case stepGitLab:
		fmt.Fprintln(b, "Step 2 – GitLab")
		fmt.Fprintln(b, "Token and API URL for private or self-hosted instances.")
		fmt.Fprintln(b, m.gitlab.view())
		fmt.Fprintln(b, "\nPress Enter to continue")
	case stepArchive:
		fmt.Fprintln(b, "Step 3 – Archive")
		fmt.Fprintln(b, "Every fetch is appended to this SQLite file. Leave empty to disable.")
		fmt.Fprintln(b, m.archive.view())
		fmt.Fprintln(b, "\nPress Enter to continue")
	case stepAI:
		fmt.Fprintln(b, "Step 4 – Digest model")
		fmt.Fprintln(b, "Used by 'streamliner digest'. Leave empty to skip.")
		fmt.Fprintln(b, m.ai.view())
		fmt.Fprintln(b, "\nPress Enter to continue")
	case stepSummary:
		fmt.Fprintln(b, "Summary")
		if m.override {
			fmt.Fprintf(b, "GitHub token: %s\n", setOrNot(m.githubToken))
			fmt.Fprintf(b, "GitLab token: %s\n", setOrNot(m.gitlabToken))
			if m.gitlabAPIURL != "" {
				fmt.Fprintf(b, "GitLab API: %s\n", m.gitlabAPIURL)
			}
			if m.archivePath != "" {
				fmt.Fprintf(b, "Archive: %s\n", m.archivePath)
			}
			if m.aiModel != "" {
				fmt.Fprintf(b, "Digest model: %s\n", m.aiModel)
			}
			fmt.Fprintln(b, "\nThe configuration file will be written.")
		} else {
			fmt.Fprintln(b, "Keeping existing config.")
		}
		fmt.Fprintln(b, "\nPress Enter to finish · q to cancel")
	case stepDone:
		fmt.Fprintln(b, "Finishing…")
	}
	return b.String()
}

func setOrNot(s string) string {
	if s == "" {
		return "not set"
	}
	return "set"
}

func fileExists(p string) bool {
	if p == "" {
		return false
	}
	_, err := os.Stat(p)
	return err == nil
}

func maybeConfigureMCP(out io.Writer, in io.Reader) {
	home, err := os.UserHomeDir()
	if err != nil {
		return
	}
	codexPath := filepath.Join(home, ".codex", "config.toml")
	if !fileExists(codexPath) || hasCodexEntry(codexPath) {
		return
	}
	if !askYesNo(out, in, "\nDetected ~/.codex/config.toml. Add the streamliner MCP server there? [y/N]: ") {
		return
	}
	exe, _ := os.Executable()
	_ = config.BackupFile(codexPath)
	if err := appendTomlMCP(codexPath, exe); err != nil {
		fmt.Fprintf(out, "Failed to update %s: %v\n", codexPath, err)
		return
	}
	fmt.Fprintln(out, "Added MCP server to ~/.codex/config.toml")
}

func hasCodexEntry(path string) bool {
	b, err := os.ReadFile(path)
	return err == nil && strings.Contains(string(b), "[mcp_servers.streamliner]")
}

func askYesNo(out io.Writer, in io.Reader, prompt string) bool {
	fmt.Fprint(out, prompt)
	s, _ := bufio.NewReader(in).ReadString('\n')
	s = strings.ToLower(strings.TrimSpace(s))
	return s == "y" || s == "yes"
}

func appendTomlMCP(path, exe string) error {
	snippet := fmt.Sprintf("\n[mcp_servers.streamliner]\ncommand = %q\nargs = [\"serve\"]\nenv = {}\n", exe)
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.WriteString(snippet)
	return err
}
