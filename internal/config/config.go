package config

import (
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"streamliner/internal/version"
)

type ConfigLoad func() (AppConfig, error)

func AppConfigLoader() ConfigLoad {
	return LoadAppConfig
}

// EnvConfigPath overrides the config file location.
const EnvConfigPath = "STREAMLINER_CONFIG"

const (
	DefaultGitHubAPI  = "https://api.github.com"
	DefaultTimeoutSec = 30
	DefaultMaxPages   = 1
)

// DefaultConfigPath returns $STREAMLINER_CONFIG or ~/.config/streamliner/config.yaml.
func DefaultConfigPath() (string, error) {
	if p := strings.TrimSpace(os.Getenv(EnvConfigPath)); p != "" {
		return ExpandPath(p), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "streamliner", "config.yaml"), nil
}

// ExpandPath expands leading ~ and environment variables in a filesystem path.
func ExpandPath(p string) string {
	if p == "" {
		return p
	}
	p = os.ExpandEnv(p)
	if strings.HasPrefix(p, "~") {
		if home, err := os.UserHomeDir(); err == nil {
			if p == "~" {
				p = home
			} else if strings.HasPrefix(p, "~/") {
				p = filepath.Join(home, p[2:])
			}
		}
	}
	return p
}

type ForgeConfig struct {
	Token string
	// APIURL is the REST root. Empty for GitLab means the request URL's host.
	APIURL string
}

type AIConfig struct {
	BaseUrl string
	Model   string
	APIKey  string
	Prompt  string
	Stream  bool
}

// AppConfig carries every setting the commands read.
type AppConfig struct {
	GitHub ForgeConfig
	GitLab ForgeConfig

	HTTPTimeoutSec int
	UserAgent      string
	MaxPages       int

	ArchivePath string
	AIConf      AIConfig
}

// Defaults is the configuration used when no file exists.
func Defaults() AppConfig {
	return AppConfig{
		GitHub:         ForgeConfig{APIURL: DefaultGitHubAPI},
		HTTPTimeoutSec: DefaultTimeoutSec,
		UserAgent:      "streamliner/" + version.Version,
		MaxPages:       DefaultMaxPages,
	}
}

// LoadAppConfig reads the default config file and applies environment
// overrides. A missing or unreadable file yields the defaults.
func LoadAppConfig() (AppConfig, error) {
	ac := Defaults()
	if cfgPath, err := DefaultConfigPath(); err == nil {
		ac, _ = LoadAppConfigFrom(cfgPath)
	}
	ApplyEnv(&ac, os.Getenv)
	return ac, nil
}

// LoadAppConfigFrom parses path on top of the defaults. Unknown keys and
// values of the wrong type are ignored.
func LoadAppConfigFrom(path string) (AppConfig, error) {
	ac := Defaults()
	b, err := os.ReadFile(path)
	if err != nil {
		return ac, err
	}
	var raw map[string]any
	if err := yaml.Unmarshal(b, &raw); err != nil {
		return ac, err
	}

	if gh, ok := raw["github"].(map[string]any); ok {
		readForge(gh, &ac.GitHub)
	}
	if gl, ok := raw["gitlab"].(map[string]any); ok {
		readForge(gl, &ac.GitLab)
	}
	if h, ok := raw["http"].(map[string]any); ok {
		if v, ok := positiveInt(h["timeout"]); ok {
			ac.HTTPTimeoutSec = v
		}
		if ua, ok := h["user_agent"].(string); ok && strings.TrimSpace(ua) != "" {
			ac.UserAgent = strings.TrimSpace(ua)
		}
	}
	if api, ok := raw["api"].(map[string]any); ok {
		if v, ok := positiveInt(api["max_pages"]); ok {
			ac.MaxPages = v
		}
	}
	if ar, ok := raw["archive"].(map[string]any); ok {
		if p, ok := ar["path"].(string); ok && strings.TrimSpace(p) != "" {
			ac.ArchivePath = ExpandPath(strings.TrimSpace(p))
		}
	}
	if ai, ok := raw["ai"].(map[string]any); ok {
		if baseUrl, ok := ai["base_url"].(string); ok {
			ac.AIConf.BaseUrl = baseUrl
		}
		if model, ok := ai["model"].(string); ok {
			ac.AIConf.Model = model
		}
		if key, ok := ai["api_key"].(string); ok {
			ac.AIConf.APIKey = key
		}
		if prompt, ok := ai["prompt"].(string); ok {
			ac.AIConf.Prompt = prompt
		}
		if stream, ok := ai["stream"].(bool); ok {
			ac.AIConf.Stream = stream
		}
	}
	return ac, nil
}

// ApplyEnv fills tokens and keys from the environment when the file left
// them empty.
func ApplyEnv(ac *AppConfig, getenv func(string) string) {
	if ac.GitHub.Token == "" {
		ac.GitHub.Token = strings.TrimSpace(getenv("GITHUB_TOKEN"))
	}
	if ac.GitLab.Token == "" {
		ac.GitLab.Token = strings.TrimSpace(getenv("GITLAB_TOKEN"))
	}
	if ac.AIConf.APIKey == "" {
		ac.AIConf.APIKey = strings.TrimSpace(getenv("OPENAI_API_KEY"))
	}
}

func readForge(m map[string]any, fc *ForgeConfig) {
	if tok, ok := m["token"].(string); ok {
		fc.Token = strings.TrimSpace(tok)
	}
	if u, ok := m["api_url"].(string); ok && strings.TrimSpace(u) != "" {
		fc.APIURL = strings.TrimRight(strings.TrimSpace(u), "/")
	}
}

func positiveInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, n > 0
	case float64:
		return int(n), int(n) > 0
	}
	return 0, false
}
