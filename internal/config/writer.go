package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// UserConfig represents the user configuration collected during setup
type UserConfig struct {
	GitHubToken  string
	GitLabToken  string
	GitLabAPIURL string
	ArchivePath  string
	AI           *AIConfig
}

// WriteConfig writes the user configuration to path, creating its directory.
func WriteConfig(path string, uc UserConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	return os.WriteFile(path, []byte(Render(uc)), 0o600)
}

// Render produces the YAML text for uc. Empty sections are left out.
func Render(uc UserConfig) string {
	var sb strings.Builder
	sb.WriteString("# streamliner configuration\n")

	if strings.TrimSpace(uc.GitHubToken) != "" {
		sb.WriteString("github:\n")
		sb.WriteString(fmt.Sprintf("  token: %q\n", strings.TrimSpace(uc.GitHubToken)))
	}

	if strings.TrimSpace(uc.GitLabToken) != "" || strings.TrimSpace(uc.GitLabAPIURL) != "" {
		sb.WriteString("gitlab:\n")
		if v := strings.TrimSpace(uc.GitLabToken); v != "" {
			sb.WriteString(fmt.Sprintf("  token: %q\n", v))
		}
		if v := strings.TrimSpace(uc.GitLabAPIURL); v != "" {
			sb.WriteString(fmt.Sprintf("  api_url: %q\n", v))
		}
	}

	if strings.TrimSpace(uc.ArchivePath) != "" {
		sb.WriteString("archive:\n")
		sb.WriteString(fmt.Sprintf("  path: %q\n", strings.TrimSpace(uc.ArchivePath)))
	}

	if uc.AI != nil {
		sb.WriteString("ai:\n")
		if strings.TrimSpace(uc.AI.Model) != "" {
			sb.WriteString(fmt.Sprintf("  model: %q\n", uc.AI.Model))
		}
		if strings.TrimSpace(uc.AI.BaseUrl) != "" {
			sb.WriteString(fmt.Sprintf("  base_url: %q\n", uc.AI.BaseUrl))
		}
		if uc.AI.Stream {
			sb.WriteString("  stream: true\n")
		}
		if strings.TrimSpace(uc.AI.Prompt) != "" {
			sb.WriteString("  prompt: |\n")
			for _, line := range strings.Split(uc.AI.Prompt, "\n") {
				sb.WriteString("    " + line + "\n")
			}
		}
	}

	return sb.String()
}

// BackupFile creates a backup of the specified file with a timestamp
func BackupFile(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	ts := time.Now().Format("20060102-150405")
	bak := path + ".bak-" + ts
	return os.WriteFile(bak, b, 0o600)
}
