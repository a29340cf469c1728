package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/charmbracelet/log"

	"streamliner/internal/item"
	"streamliner/internal/logging"
)

// GitLabProject identifies a project from a GitLab URL. Path is the full
// namespace/project path, subgroups included.
type GitLabProject struct {
	Scheme string
	Host   string
	Path   string
}

// ID is the URL-encoded path GitLab accepts in place of a numeric id.
func (p GitLabProject) ID() string {
	return url.PathEscape(p.Path)
}

// APIBase is the v4 API root on the project's own host.
func (p GitLabProject) APIBase() string {
	scheme := p.Scheme
	if scheme == "" || scheme == "feed" {
		scheme = "https"
	}
	return scheme + "://" + p.Host + "/api/v4"
}

// ParseGitLabProject takes every path segment up to the "-" separator GitLab
// puts before sub-pages (/-/issues, /-/tree/...). It reports false when
// fewer than two segments remain.
func ParseGitLabProject(rawURL string) (GitLabProject, bool) {
	u, err := parseLoose(rawURL)
	if err != nil {
		return GitLabProject{}, false
	}
	var parts []string
	for _, s := range segments(u) {
		if s == "-" {
			break
		}
		parts = append(parts, s)
	}
	if len(parts) < 2 {
		return GitLabProject{}, false
	}
	last := len(parts) - 1
	parts[last] = strings.TrimSuffix(parts[last], ".git")
	if parts[last] == "" {
		return GitLabProject{}, false
	}
	return GitLabProject{Scheme: u.Scheme, Host: u.Host, Path: strings.Join(parts, "/")}, true
}

// GitLab lists a project's issues followed by its merge requests. An empty
// BaseURL means the API on the request URL's host.
type GitLab struct {
	API     APIClient
	BaseURL string
	Logger  *log.Logger
}

func (g *GitLab) Items(ctx context.Context, rawURL string) ([]item.Item, error) {
	logger := logging.OrDiscard(g.Logger)

	project, ok := ParseGitLabProject(rawURL)
	if !ok {
		logger.Debug("no namespace/project in url", "url", rawURL)
		return []item.Item{}, nil
	}

	base := strings.TrimRight(g.BaseURL, "/")
	if base == "" {
		base = project.APIBase()
	}
	prefix := base + "/projects/" + project.ID()

	issues, err := g.API.Collection(ctx, prefix+"/issues")
	if err != nil {
		return nil, fmt.Errorf("fetching gitlab issues for %s: %w", project.Path, err)
	}
	mrs, err := g.API.Collection(ctx, prefix+"/merge_requests")
	if err != nil {
		return nil, fmt.Errorf("fetching gitlab merge requests for %s: %w", project.Path, err)
	}

	out := GitLabIssueItems(issues)
	out = append(out, GitLabMergeRequestItems(mrs)...)
	logger.Debug("gitlab items", "project", project.Path, "issues", len(issues), "merge_requests", len(mrs))
	return out, nil
}

// GitLabIssueItems maps issue records.
func GitLabIssueItems(raws []json.RawMessage) []item.Item {
	return gitlabItems(raws, item.GitLabIssue, "Issue")
}

// GitLabMergeRequestItems maps merge request records.
func GitLabMergeRequestItems(raws []json.RawMessage) []item.Item {
	return gitlabItems(raws, item.GitLabMR, "Merge request")
}

func gitlabItems(raws []json.RawMessage, src item.Source, fallback string) []item.Item {
	fields := func(r record) item.Fields {
		return item.Fields{
			URL:           r.str("web_url"),
			Title:         r.str("title"),
			Body:          r.text("description"),
			Date:          r.str("created_at"),
			TitleFallback: fallback,
		}
	}
	out := make([]item.Item, 0, len(raws))
	for _, r := range decodeRecords(raws) {
		out = append(out, item.Build(src, r, fields))
	}
	return out
}
