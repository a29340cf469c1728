package server

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/charmbracelet/log"
	mcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"streamliner/internal/archive"
	"streamliner/internal/dispatch"
	"streamliner/internal/item"
	"streamliner/internal/logging"
	"streamliner/internal/route"
	"streamliner/internal/version"
)

const previewLen = 400

// Runner is the dispatcher surface the tools call into.
type Runner interface {
	Run(ctx context.Context, command, rawURL string) (item.Envelope, error)
}

type FetchItemsParams struct {
	Command        string `json:"command"`
	URL            string `json:"url"`
	IncludeContent *bool  `json:"include_content,omitempty"`
}

type ClassifyURLParams struct {
	URL string `json:"url"`
}

type ListHistoryParams struct {
	Hours          int     `json:"hours"`
	Source         *string `json:"source,omitempty"`
	Limit          *int    `json:"limit,omitempty"`
	IncludeContent bool    `json:"include_content"`
}

type Server struct {
	runner      Runner
	archivePath string
	logger      *log.Logger
}

// New builds the tool server. An empty archivePath disables list_history
// results but keeps the tool registered.
func New(runner Runner, archivePath string, logger *log.Logger) *Server {
	return &Server{runner: runner, archivePath: archivePath, logger: logging.OrDiscard(logger)}
}

// Run serves the tools over stdio until ctx is done or the client leaves.
func (s *Server) Run(ctx context.Context) error {
	server := mcp.NewServer(&mcp.Implementation{Name: "streamliner", Version: "v" + version.Version}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "fetch_items",
		Description: "Fetch normalized items. command is one of github, gitlab, rss, http or get (autodetect).",
	}, s.handleFetchItems)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "classify_url",
		Description: "Report which provider the get command would use for a URL",
	}, s.handleClassifyURL)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_history",
		Description: "List archived items from previous fetches",
	}, s.handleListHistory)

	return server.Run(ctx, &mcp.StdioTransport{})
}

func (s *Server) handleFetchItems(ctx context.Context, req *mcp.CallToolRequest, p FetchItemsParams) (*mcp.CallToolResult, any, error) {
	command := strings.TrimSpace(p.Command)
	if command == "" {
		command = "get"
	}
	env, err := s.runner.Run(ctx, command, p.URL)
	if err != nil {
		s.logger.Warn("fetch_items failed", "command", command, "url", p.URL, "err", err)
		resp := map[string]any{
			"ok":      false,
			"message": err.Error(),
		}
		if dispatch.IsInvocationError(err) {
			resp["hint"] = "Pass command (github, gitlab, rss, http or get) and a non-empty url."
		}
		return nil, resp, nil
	}

	items := env.Items
	if p.IncludeContent != nil && !*p.IncludeContent {
		items = previews(items)
	}
	return nil, map[string]any{"ok": true, "count": len(items), "items": items}, nil
}

func (s *Server) handleClassifyURL(ctx context.Context, req *mcp.CallToolRequest, p ClassifyURLParams) (*mcp.CallToolResult, any, error) {
	if strings.TrimSpace(p.URL) == "" {
		return nil, map[string]any{"ok": false, "message": dispatch.ErrMissingURL.Error()}, nil
	}
	kind := route.Classify(p.URL)
	return nil, map[string]any{"ok": true, "url": p.URL, "command": kind.Command()}, nil
}

// Returns archived items, respecting filtering parameters
func (s *Server) handleListHistory(ctx context.Context, req *mcp.CallToolRequest, p ListHistoryParams) (*mcp.CallToolResult, any, error) {
	if p.Hours <= 0 {
		p.Hours = 24
	}
	lim := 50
	if p.Limit != nil && *p.Limit > 0 {
		lim = *p.Limit
	}

	if strings.TrimSpace(s.archivePath) == "" {
		return nil, map[string]any{
			"ok":      false,
			"message": "Archiving is disabled",
			"hint":    "Set archive.path in the config file or pass --archive.",
		}, nil
	}
	if !fileExists(s.archivePath) {
		return nil, map[string]any{
			"ok":           false,
			"message":      fmt.Sprintf("Archive not found at %s", s.archivePath),
			"hint":         "Fetch something with --archive first.",
			"archive_path": s.archivePath,
		}, nil
	}
	db, err := archive.Open(s.archivePath)
	if err != nil {
		return nil, map[string]any{
			"ok":           false,
			"message":      "Failed opening the archive",
			"error":        err.Error(),
			"archive_path": s.archivePath,
		}, nil
	}
	defer db.Close()

	var src item.Source
	if p.Source != nil {
		if v := item.Source(strings.ToLower(strings.TrimSpace(*p.Source))); v.Valid() {
			src = v
		}
	}
	since := time.Now().Add(-time.Duration(p.Hours) * time.Hour)
	entries, err := archive.Recent(ctx, db, since, src, lim)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "no such table") {
			return nil, map[string]any{
				"ok":           false,
				"message":      "Archive is present but not initialized (missing tables)",
				"archive_path": s.archivePath,
			}, nil
		}
		return nil, map[string]any{
			"ok":           false,
			"message":      "Query failed while reading the archive",
			"error":        err.Error(),
			"archive_path": s.archivePath,
		}, nil
	}

	out := make([]map[string]any, 0, len(entries))
	for _, e := range entries {
		it := e.Item
		if !p.IncludeContent {
			it = preview(it)
		}
		out = append(out, map[string]any{
			"snapshot_id": e.SnapshotID,
			"command":     e.Command,
			"request_url": e.RequestURL,
			"fetched_at":  e.FetchedAt,
			"item":        it,
		})
	}
	return nil, map[string]any{"ok": true, "count": len(out), "items": out}, nil
}

func previews(items []item.Item) []item.Item {
	out := make([]item.Item, len(items))
	for i, it := range items {
		out[i] = preview(it)
	}
	return out
}

// preview shortens content to previewLen bytes, cutting on a rune boundary.
func preview(it item.Item) item.Item {
	if len(it.Content) <= previewLen {
		return it
	}
	cut := previewLen
	for cut > 0 && !utf8.RuneStart(it.Content[cut]) {
		cut--
	}
	it.Content = it.Content[:cut] + "..."
	return it
}

// Check if a file exists, validating the p search path
func fileExists(p string) bool {
	if p == "" {
		return false
	}
	if _, err := os.Stat(p); err == nil {
		return true
	}
	return false
}
