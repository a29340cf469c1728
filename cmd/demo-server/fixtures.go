package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

type article struct {
	title string
	paras []string
}

var articles = []article{
	{
		title: "Normalizing Release Notes Across Forges",
		paras: []string{
			"Every forge has its own idea of what a release looks like. One calls the headline a name, another only has a tag, and a third keeps the text in a description field that may be empty.",
			"Reading them side by side gets easier once everything shares one shape: a link, a title, some content and a timestamp. The rest is detail that a reader rarely needs on the first pass.",
			"The trick is deciding what to do when a field is missing. A sensible default beats an error, because one odd record should not hide the twenty good ones next to it.",
		},
	},
	{
		title: "Feeds Are Still the Best Inbox",
		paras: []string{
			"Syndication feeds never went away. They just stopped being fashionable, which made them quieter and more useful.",
			"A feed entry usually carries a short summary rather than the whole article. Treat it as a pointer and fetch the page when the summary is not enough.",
			"RSS and Atom disagree on almost every element name, so a reader has to check which one it is holding before looking for titles or links.",
		},
	},
	{
		title: "One Command, Many Sources",
		paras: []string{
			"A single entry point that guesses the provider from the URL saves a surprising amount of typing. It does not need to be clever, just predictable.",
			"When the guess is wrong the explicit commands are still there, and they always win over the heuristic.",
			"Predictable output matters more than clever input handling. Scripts downstream only care that the envelope looks the same every time.",
		},
	},
}

func published(i int) time.Time {
	return time.Date(2025, time.September, i+1, 9, 0, 0, 0, time.UTC)
}

func baseURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	return scheme + "://" + r.Host
}

// newHandler serves sample feeds, pages and forge API collections.
func newHandler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", homeHandler)
	mux.HandleFunc("GET /feed.xml", rssHandler)
	mux.HandleFunc("GET /atom.xml", atomHandler)
	mux.HandleFunc("GET /articles/{id}", articleHandler)
	mux.HandleFunc("GET /api/v3/repos/{owner}/{repo}/issues", githubIssuesHandler)
	mux.HandleFunc("GET /api/v3/repos/{owner}/{repo}/releases", githubReleasesHandler)
	mux.HandleFunc("GET /api/v4/projects/{id}/issues", gitlabIssuesHandler)
	mux.HandleFunc("GET /api/v4/projects/{id}/merge_requests", gitlabMergeRequestsHandler)
	return mux
}

func homeHandler(w http.ResponseWriter, r *http.Request) {
	base := baseURL(r)
	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n<html><head><title>streamliner demo server</title></head><body>\n")
	b.WriteString("<h1>streamliner demo server</h1>\n<ul>\n")
	for _, line := range []string{
		"streamliner rss " + base + "/feed.xml",
		"streamliner rss " + base + "/atom.xml",
		"streamliner http " + base + "/articles/1",
		"streamliner --config demo.yaml github " + base + "/acme/widget",
		"streamliner gitlab " + base + "/acme/widget",
	} {
		fmt.Fprintf(&b, "<li><code>%s</code></li>\n", line)
	}
	b.WriteString("</ul>\n<p>demo.yaml sets <code>github.api_url</code> to " + base + "/api/v3</p>\n</body></html>")
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(b.String()))
}

func rssHandler(w http.ResponseWriter, r *http.Request) {
	base := baseURL(r)
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="utf-8"?>
<rss version="2.0">
<channel>
<title>streamliner demo</title>
<link>` + base + `/</link>
<description>Sample entries for trying streamliner locally</description>
`)
	for i, a := range articles {
		fmt.Fprintf(&b, "<item>\n<title>%s</title>\n<link>%s/articles/%d</link>\n<pubDate>%s</pubDate>\n<description>%s</description>\n</item>\n",
			a.title, base, i+1, published(i).Format(time.RFC1123Z), a.paras[0])
	}
	b.WriteString("</channel>\n</rss>\n")
	w.Header().Set("Content-Type", "application/rss+xml; charset=utf-8")
	_, _ = w.Write([]byte(b.String()))
}

func atomHandler(w http.ResponseWriter, r *http.Request) {
	base := baseURL(r)
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="utf-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
<title>streamliner demo</title>
<link rel="self" href="` + base + `/atom.xml"/>
`)
	for i, a := range articles {
		fmt.Fprintf(&b, "<entry>\n<title>%s</title>\n<link rel=\"alternate\" href=\"%s/articles/%d\"/>\n<updated>%s</updated>\n<summary>%s</summary>\n</entry>\n",
			a.title, base, i+1, published(i).Format(time.RFC3339), a.paras[0])
	}
	b.WriteString("</feed>\n")
	w.Header().Set("Content-Type", "application/atom+xml; charset=utf-8")
	_, _ = w.Write([]byte(b.String()))
}

func articleHandler(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil || id < 1 || id > len(articles) {
		http.Error(w, fmt.Sprintf("Invalid article ID (use 1-%d)", len(articles)), http.StatusNotFound)
		return
	}
	a := articles[id-1]
	var b strings.Builder
	fmt.Fprintf(&b, "<!DOCTYPE html>\n<html lang=\"en\">\n<head><meta charset=\"UTF-8\"><title>%s</title></head>\n<body>\n<nav><a href=\"/\">Home</a></nav>\n<article>\n<h1>%s</h1>\n", a.title, a.title)
	for _, p := range a.paras {
		fmt.Fprintf(&b, "<p>%s</p>\n", p)
	}
	b.WriteString("</article>\n</body>\n</html>\n")
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(b.String()))
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// githubIssuesHandler returns two pages; the first links to the second and
// carries a pull request that clients are expected to drop.
func githubIssuesHandler(w http.ResponseWriter, r *http.Request) {
	repo := r.PathValue("owner") + "/" + r.PathValue("repo")
	web := baseURL(r) + "/" + repo
	if r.URL.Query().Get("page") == "2" {
		writeJSON(w, []map[string]any{
			{"html_url": web + "/issues/1", "title": "Crash on empty feed", "body": "Fetching an empty channel panics.", "created_at": "2025-09-01T08:00:00Z"},
		})
		return
	}
	next := *r.URL
	q := next.Query()
	q.Set("page", "2")
	next.RawQuery = q.Encode()
	w.Header().Set("Link", fmt.Sprintf("<%s%s>; rel=\"next\"", baseURL(r), next.RequestURI()))
	writeJSON(w, []map[string]any{
		{"html_url": web + "/issues/3", "title": "Support Atom enclosures", "body": "", "created_at": "2025-09-03T10:30:00Z"},
		{"html_url": web + "/pull/2", "title": "Add GitLab subgroups", "body": "Handles nested namespaces.", "created_at": "2025-09-02T12:00:00Z",
			"pull_request": map[string]any{"url": baseURL(r) + "/api/v3/repos/" + repo + "/pulls/2"}},
	})
}

func githubReleasesHandler(w http.ResponseWriter, r *http.Request) {
	web := baseURL(r) + "/" + r.PathValue("owner") + "/" + r.PathValue("repo")
	writeJSON(w, []map[string]any{
		{"html_url": web + "/releases/tag/v0.2.0", "name": "", "tag_name": "v0.2.0", "body": "Adds the get command.", "published_at": "2025-09-04T00:00:00Z"},
		{"html_url": web + "/releases/tag/v0.1.0", "name": "First release", "tag_name": "v0.1.0", "body": "Initial version.", "published_at": nil, "created_at": "2025-08-20T00:00:00Z"},
	})
}

func gitlabIssuesHandler(w http.ResponseWriter, r *http.Request) {
	web := baseURL(r) + "/" + r.PathValue("id")
	writeJSON(w, []map[string]any{
		{"web_url": web + "/-/issues/7", "title": "Document the archive", "description": "Explain the SQLite log.", "created_at": "2025-09-05T07:00:00Z"},
	})
}

func gitlabMergeRequestsHandler(w http.ResponseWriter, r *http.Request) {
	web := baseURL(r) + "/" + r.PathValue("id")
	writeJSON(w, []map[string]any{
		{"web_url": web + "/-/merge_requests/4", "title": "", "description": "Untitled change.", "created_at": "2025-09-06T07:00:00Z"},
	})
}
