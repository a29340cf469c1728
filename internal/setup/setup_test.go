package setup

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

func TestInputField(t *testing.T) {
	t.Run("NewInputField", func(t *testing.T) {
		field := newInputField("test placeholder", textinput.EchoNormal)
		if field == nil {
			t.Fatal("expected non-nil field")
		}
		if field.input.Placeholder != "test placeholder" {
			t.Errorf("expected placeholder %q, got %q", "test placeholder", field.input.Placeholder)
		}
		if field.focused {
			t.Error("expected field to be unfocused initially")
		}
	})

	t.Run("FocusAndBlur", func(t *testing.T) {
		field := newInputField("test", textinput.EchoNormal)

		if cmd := field.focus(); cmd != nil {
			t.Error("expected nil command from focus")
		}
		if !field.focused || !field.input.Focused() {
			t.Error("expected field to be focused")
		}

		field.blur()
		if field.focused || field.input.Focused() {
			t.Error("expected field to be unfocused after blur")
		}
	})

	t.Run("Value", func(t *testing.T) {
		field := newInputField("test", textinput.EchoNormal)
		field.setValue("  test value  ")
		if actual := field.value(); actual != "test value" {
			t.Errorf("expected value %q, got %q", "test value", actual)
		}
	})

	t.Run("PasswordEcho", func(t *testing.T) {
		field := newInputField("password", textinput.EchoPassword)
		if field.input.EchoMode != textinput.EchoPassword {
			t.Error("expected password echo mode")
		}
		if field.input.EchoCharacter != '•' {
			t.Error("expected bullet echo character")
		}
	})
}

func TestInputGroup(t *testing.T) {
	t.Run("FocusFirst", func(t *testing.T) {
		field1 := newInputField("field1", textinput.EchoNormal)
		field2 := newInputField("field2", textinput.EchoNormal)
		field2.focus()

		group := newInputGroup(field1, field2)
		if cmd := group.focusFirst(); cmd != nil {
			t.Error("expected nil command from focusFirst")
		}
		if !field1.focused || field2.focused {
			t.Error("expected only the first field to be focused")
		}
		if group.current != 0 {
			t.Errorf("expected current field 0, got %d", group.current)
		}
	})

	t.Run("EnterAdvances", func(t *testing.T) {
		field1 := newInputField("field1", textinput.EchoNormal)
		field2 := newInputField("field2", textinput.EchoNormal)
		group := newInputGroup(field1, field2)
		group.focusFirst()

		done, _ := group.update(tea.KeyMsg{Type: tea.KeyEnter})
		if done || group.current != 1 || !field2.focused {
			t.Errorf("expected focus on second field, got current %d done %v", group.current, done)
		}
		done, _ = group.update(tea.KeyMsg{Type: tea.KeyEnter})
		if !done {
			t.Error("expected group done after the last field")
		}
	})

	t.Run("Values", func(t *testing.T) {
		field1 := newInputField("field1", textinput.EchoNormal)
		field1.setValue("value1")
		field2 := newInputField("field2", textinput.EchoNormal)
		field2.setValue("value2")

		values := newInputGroup(field1, field2).values()
		expected := []string{"value1", "value2"}
		if len(values) != len(expected) {
			t.Fatalf("expected %d values, got %d", len(expected), len(values))
		}
		for i, exp := range expected {
			if values[i] != exp {
				t.Errorf("expected value[%d] %q, got %q", i, exp, values[i])
			}
		}
	})
}

func send(m *wizardModel, msgs ...tea.KeyMsg) *wizardModel {
	for _, msg := range msgs {
		next, _ := m.Update(msg)
		m = next.(*wizardModel)
	}
	return m
}

func typed(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

var enter = tea.KeyMsg{Type: tea.KeyEnter}

func TestWizardModel_IntroStep(t *testing.T) {
	t.Run("IntroStepWithExistingConfig", func(t *testing.T) {
		wm := send(newWizardModel(true), enter)
		if wm.step != stepConfigChoice {
			t.Errorf("expected stepConfigChoice, got %v", wm.step)
		}
	})

	t.Run("IntroStepWithoutExistingConfig", func(t *testing.T) {
		wm := send(newWizardModel(false), enter)
		if wm.step != stepGitHub {
			t.Errorf("expected stepGitHub, got %v", wm.step)
		}
		if !wm.override {
			t.Error("expected override to be true")
		}
		if !wm.github.fields[0].focused {
			t.Error("expected GitHub token field focused")
		}
	})

	t.Run("GlobalQuit", func(t *testing.T) {
		next, cmd := newWizardModel(false).Update(tea.KeyMsg{Type: tea.KeyCtrlC})
		if cmd == nil {
			t.Error("expected quit command")
		}
		if !next.(*wizardModel).cancelled {
			t.Error("expected cancelled to be true")
		}
	})
}

func TestWizardModel_ConfigChoiceStep(t *testing.T) {
	t.Run("OverrideChoice", func(t *testing.T) {
		wm := send(newWizardModel(true), enter, typed("O"))
		if wm.step != stepGitHub || !wm.override {
			t.Errorf("expected override into stepGitHub, got %v override %v", wm.step, wm.override)
		}
	})

	t.Run("KeepChoice", func(t *testing.T) {
		wm := send(newWizardModel(true), enter, typed("k"))
		if wm.step != stepSummary || wm.override {
			t.Errorf("expected keep into stepSummary, got %v override %v", wm.step, wm.override)
		}
	})
}

func TestWizardModel_TypingDoesNotQuit(t *testing.T) {
	wm := send(newWizardModel(false), enter, typed("q"))
	if wm.cancelled {
		t.Fatal("expected q to be typed into the field")
	}
	if got := wm.github.fields[0].value(); got != "q" {
		t.Errorf("expected typed value %q, got %q", "q", got)
	}
}

func TestWizardModel_FullFlow(t *testing.T) {
	wm := send(newWizardModel(false),
		enter,
		typed("ghp_x"), enter,
		typed("glpat"), enter, typed("https://git.example.com/api/v4/"), enter,
		typed("/tmp/a.db"), enter,
		typed("http://localhost:11434/v1/"), enter, typed("llama3"), enter,
	)
	if wm.step != stepSummary {
		t.Fatalf("expected stepSummary, got %v", wm.step)
	}
	view := wm.View()
	if !strings.Contains(view, "GitHub token: set") || !strings.Contains(view, "Digest model: llama3") {
		t.Errorf("unexpected summary:\n%s", view)
	}

	uc := wm.userConfig()
	if uc.GitHubToken != "ghp_x" || uc.GitLabToken != "glpat" || uc.GitLabAPIURL != "https://git.example.com/api/v4" || uc.ArchivePath != "/tmp/a.db" {
		t.Errorf("unexpected user config %+v", uc)
	}
	if uc.AI == nil || uc.AI.Model != "llama3" || uc.AI.BaseUrl != "http://localhost:11434/v1/" {
		t.Errorf("unexpected AI config %+v", uc.AI)
	}

	next, cmd := wm.Update(enter)
	if cmd == nil || next.(*wizardModel).step != stepDone {
		t.Error("expected Enter on summary to finish")
	}
}

func TestWizardModel_EmptyAnswers(t *testing.T) {
	wm := send(newWizardModel(false), enter, enter, enter, enter, enter, enter, enter)
	if wm.step != stepSummary {
		t.Fatalf("expected stepSummary, got %v", wm.step)
	}
	if uc := wm.userConfig(); uc.AI != nil || uc.GitHubToken != "" {
		t.Errorf("expected empty config, got %+v", uc)
	}
}

func TestAppendTomlMCP(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("model = \"x\"\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if hasCodexEntry(path) {
		t.Fatal("expected no entry yet")
	}
	if err := appendTomlMCP(path, "/usr/local/bin/streamliner"); err != nil {
		t.Fatalf("append failed: %v", err)
	}
	b, _ := os.ReadFile(path)
	if !strings.Contains(string(b), `args = ["serve"]`) || !hasCodexEntry(path) {
		t.Errorf("unexpected file:\n%s", b)
	}
}

func TestAskYesNo(t *testing.T) {
	var out bytes.Buffer
	if !askYesNo(&out, strings.NewReader("Yes\n"), "? ") {
		t.Error("expected yes")
	}
	if askYesNo(&out, strings.NewReader("\n"), "? ") {
		t.Error("expected default no")
	}
	if out.String() != "? ? " {
		t.Errorf("expected prompts written, got %q", out.String())
	}
}
