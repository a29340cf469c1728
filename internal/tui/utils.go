package tui

import (
	"regexp"
	"strings"
	"time"

	"streamliner/internal/extract"
	"streamliner/internal/item"
)

type itemDetail struct {
	title     string
	url       string
	source    item.Source
	published *time.Time
	content   string
}

func toItemDetail(it item.Item) *itemDetail {
	return &itemDetail{
		title:     it.Title,
		url:       it.URL,
		source:    it.Source,
		published: it.Timestamp,
		content:   extract.Readable(it),
	}
}

func truncateString(s string, maxLen int) string {
	if maxLen <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}

func formatDate(t *time.Time, layout string) string {
	if t == nil {
		return "-"
	}
	return t.Local().Format(layout)
}

var (
	headingPattern = regexp.MustCompile(`(?m)^#{1,6}\s+`)
	boldPattern    = regexp.MustCompile(`\*\*([^*]+)\*\*`)
	linkPattern    = regexp.MustCompile(`\[([^\]]+)\]\([^\)]+\)`)
	tagPattern     = regexp.MustCompile(`<[^>]*>`)
)

// previewLine reduces content to its first meaningful line without markup.
func previewLine(content string, maxLen int) string {
	if strings.TrimSpace(content) == "" {
		return "No content"
	}
	preview := tagPattern.ReplaceAllString(content, " ")
	preview = headingPattern.ReplaceAllString(preview, "")
	preview = boldPattern.ReplaceAllString(preview, "$1")
	preview = linkPattern.ReplaceAllString(preview, "$1")

	for _, line := range strings.Split(preview, "\n") {
		line = strings.Join(strings.Fields(line), " ")
		if line != "" {
			return truncateString(line, maxLen)
		}
	}
	return "No preview available"
}
