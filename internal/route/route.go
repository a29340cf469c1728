// Package route guesses which provider serves a URL from its host and path
// alone. It never looks at content.
package route

import (
	"net/url"
	"strings"
)

// Kind is a provider family.
type Kind int

const (
	HTTP Kind = iota
	GitHub
	GitLab
	Feed
)

// Command is the dispatcher command that handles the kind.
func (k Kind) Command() string {
	switch k {
	case GitHub:
		return "github"
	case GitLab:
		return "gitlab"
	case Feed:
		return "rss"
	case HTTP:
		return "http"
	}
	return "http"
}

func (k Kind) String() string {
	return k.Command()
}

// Classify applies the host and path rules in order; the first match wins
// and anything unmatched is HTTP. Any URL containing "feed" counts as a
// feed, so /feedback pages are misrouted too.
func Classify(rawURL string) Kind {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return HTTP
	}
	host := strings.ToLower(u.Hostname())

	switch {
	case strings.HasSuffix(host, "github.com"):
		return GitHub
	case strings.HasSuffix(host, "gitlab.com"):
		return GitLab
	}

	switch strings.ToLower(u.Scheme) {
	case "http", "https", "feed":
	default:
		return HTTP
	}
	path := strings.ToLower(u.Path)
	if strings.HasSuffix(path, ".xml") || strings.HasSuffix(path, ".rss") ||
		strings.Contains(strings.ToLower(rawURL), "feed") {
		return Feed
	}
	return HTTP
}
