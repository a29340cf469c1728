package provider

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/charmbracelet/log"

	"streamliner/internal/item"
	"streamliner/internal/logging"
)

const DefaultGitHubAPI = "https://api.github.com"

// GitHubRepo identifies a repository from a github.com URL.
type GitHubRepo struct {
	Owner string
	Name  string
}

// ParseGitHubRepo reads owner and repository from the first two path
// segments. It reports false when there are fewer than two.
func ParseGitHubRepo(rawURL string) (GitHubRepo, bool) {
	u, err := parseLoose(rawURL)
	if err != nil {
		return GitHubRepo{}, false
	}
	segs := segments(u)
	if len(segs) < 2 {
		return GitHubRepo{}, false
	}
	name := strings.TrimSuffix(segs[1], ".git")
	if name == "" {
		return GitHubRepo{}, false
	}
	return GitHubRepo{Owner: segs[0], Name: name}, true
}

// GitHub lists a repository's issues followed by its releases.
type GitHub struct {
	API     APIClient
	BaseURL string
	Logger  *log.Logger
}

func (g *GitHub) Items(ctx context.Context, rawURL string) ([]item.Item, error) {
	logger := logging.OrDiscard(g.Logger)

	repo, ok := ParseGitHubRepo(rawURL)
	if !ok {
		logger.Debug("no owner/repo in url", "url", rawURL)
		return []item.Item{}, nil
	}

	base := strings.TrimRight(cmp.Or(g.BaseURL, DefaultGitHubAPI), "/")
	prefix := fmt.Sprintf("%s/repos/%s/%s", base, url.PathEscape(repo.Owner), url.PathEscape(repo.Name))

	issues, err := g.API.Collection(ctx, prefix+"/issues")
	if err != nil {
		return nil, fmt.Errorf("fetching github issues for %s/%s: %w", repo.Owner, repo.Name, err)
	}
	releases, err := g.API.Collection(ctx, prefix+"/releases")
	if err != nil {
		return nil, fmt.Errorf("fetching github releases for %s/%s: %w", repo.Owner, repo.Name, err)
	}

	out := GitHubIssueItems(issues)
	out = append(out, GitHubReleaseItems(releases)...)
	logger.Debug("github items", "repo", repo.Owner+"/"+repo.Name, "issues", len(issues), "releases", len(releases), "items", len(out))
	return out, nil
}

// GitHubIssueItems maps issue records, dropping pull requests.
func GitHubIssueItems(raws []json.RawMessage) []item.Item {
	out := make([]item.Item, 0, len(raws))
	for _, r := range decodeRecords(raws) {
		if r.present("pull_request") {
			continue
		}
		out = append(out, item.Build(item.GitHubIssue, r, githubIssueFields))
	}
	return out
}

// GitHubReleaseItems maps release records.
func GitHubReleaseItems(raws []json.RawMessage) []item.Item {
	out := make([]item.Item, 0, len(raws))
	for _, r := range decodeRecords(raws) {
		out = append(out, item.Build(item.GitHubRelease, r, githubReleaseFields))
	}
	return out
}

func githubIssueFields(r record) item.Fields {
	return item.Fields{
		URL:           r.str("html_url"),
		Title:         r.str("title"),
		Body:          r.text("body"),
		Date:          r.str("created_at"),
		TitleFallback: "Issue",
	}
}

func githubReleaseFields(r record) item.Fields {
	return item.Fields{
		URL:           r.str("html_url"),
		Title:         r.str("name", "tag_name"),
		Body:          r.text("body"),
		Date:          r.str("published_at", "created_at"),
		TitleFallback: "Release",
	}
}
