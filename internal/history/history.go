package history

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"streamliner/internal/archive"
	"streamliner/internal/item"
)

const previewLen = 400

// Run prints the items archived in the last hours, optionally restricted to
// one source tag.
func Run(ctx context.Context, w io.Writer, dbPath string, hours int, source string) error {
	if hours <= 0 {
		hours = 24
	}
	src := item.Source(strings.TrimSpace(source))
	if src != "" && !src.Valid() {
		return fmt.Errorf("unknown source %q", source)
	}

	if !fileExists(dbPath) {
		fmt.Fprintf(w, "Archive not found at %s\n", dbPath)
		fmt.Fprintln(w, "Hint: pass --archive or set archive.path in the config file, then fetch something.")
		return nil
	}

	db, err := archive.Open(dbPath)
	if err != nil {
		return fmt.Errorf("failed opening the archive: %w", err)
	}
	defer db.Close()

	since := time.Now().Add(-time.Duration(hours) * time.Hour)
	entries, err := archive.Recent(ctx, db, since, src, 0)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "no such table") {
			fmt.Fprintln(w, "Archive is present but not initialized (missing tables)")
			return nil
		}
		return fmt.Errorf("query failed while reading the archive: %w", err)
	}

	if len(entries) == 0 {
		fmt.Fprintf(w, "No items archived in the last %d hours.\n", hours)
		return nil
	}

	fmt.Fprintf(w, "Found %d items from the last %d hours:\n\n", len(entries), hours)
	for _, e := range entries {
		title := e.Item.Title
		if title == "" {
			title = "No title"
		}
		fmt.Fprintf(w, "Snapshot: %d (%s %s)\n", e.SnapshotID, e.Command, e.RequestURL)
		fmt.Fprintf(w, "Fetched: %s\n", e.FetchedAt.Local().Format("2006-01-02 15:04:05"))
		fmt.Fprintf(w, "Title: %s\n", title)
		fmt.Fprintf(w, "URL: %s\n", e.Item.URL)
		fmt.Fprintf(w, "Source: %s\n", e.Item.Source)
		if e.Item.Timestamp != nil {
			fmt.Fprintf(w, "Date: %s\n", e.Item.Timestamp.Local().Format("2006-01-02 15:04:05"))
		}
		fmt.Fprintf(w, "Preview: %s\n", Preview(e.Item.Content))
		fmt.Fprintln(w, strings.Repeat("-", 80))
	}
	return nil
}

// Preview flattens content to one line and cuts it at previewLen runes.
func Preview(content string) string {
	flat := strings.Join(strings.Fields(content), " ")
	runes := []rune(flat)
	if len(runes) > previewLen {
		return string(runes[:previewLen]) + "..."
	}
	return flat
}

func fileExists(path string) bool {
	if path == "" {
		return false
	}
	_, err := os.Stat(path)
	return err == nil
}
