package provider

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/net/html"

	"streamliner/internal/item"
	"streamliner/internal/logging"
)

var titlePattern = regexp.MustCompile(`(?is)<title[^>]*>(.*?)</title>`)

// Page fetches one web page and returns it as a single item whose content is
// the raw body.
type Page struct {
	Fetcher Fetcher
	Logger  *log.Logger
	// Now stamps the item; nil means time.Now.
	Now func() time.Time
}

func (p *Page) Items(ctx context.Context, rawURL string) ([]item.Item, error) {
	body, err := p.Fetcher.Fetch(ctx, rawURL)
	if err != nil {
		return nil, fmt.Errorf("fetching page %s: %w", rawURL, err)
	}
	now := time.Now()
	if p.Now != nil {
		now = p.Now()
	}

	content := string(body)
	title := PageTitle(content, rawURL)
	logging.OrDiscard(p.Logger).Debug("page fetched", "url", rawURL, "title", title, "bytes", len(body))

	return []item.Item{item.FromFields(item.HTTP, item.Fields{
		URL:           &rawURL,
		Title:         &title,
		Body:          &content,
		Time:          &now,
		TitleFallback: rawURL,
	})}, nil
}

// PageTitle returns the trimmed text of the first <title> element, or
// fallback when there is none.
func PageTitle(body, fallback string) string {
	m := titlePattern.FindStringSubmatch(body)
	if m == nil {
		return fallback
	}
	title := strings.TrimSpace(html.UnescapeString(m[1]))
	if title == "" {
		return fallback
	}
	return title
}
