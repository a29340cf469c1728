package provider

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"

	"streamliner/internal/feed"
	"streamliner/internal/item"
	"streamliner/internal/logging"
	"streamliner/internal/xmltree"
)

// Feed fetches an RSS or Atom document and maps its entries.
type Feed struct {
	Fetcher Fetcher
	Logger  *log.Logger
}

func (f *Feed) Items(ctx context.Context, rawURL string) ([]item.Item, error) {
	target := FeedTarget(rawURL)
	body, err := f.Fetcher.Fetch(ctx, target)
	if err != nil {
		return nil, fmt.Errorf("fetching feed %s: %w", target, err)
	}
	return FeedItems(body, target, f.Logger), nil
}

// FeedItems parses body and maps whatever entries it finds. Zero entries is
// a valid result and is only logged.
func FeedItems(body []byte, source string, logger *log.Logger) []item.Item {
	logger = logging.OrDiscard(logger)

	root, err := xmltree.Parse(bytes.NewReader(body))
	if err != nil {
		logger.Debug("feed parsed partially", "url", source, "err", err)
	}
	res := feed.Detect(root)
	if len(res.Entries) == 0 {
		logger.Info("no feed entries found", "url", source, "sniffed", feed.Sniff(body), "bytes", len(body))
		return []item.Item{}
	}
	logger.Debug("feed detected", "url", source, "format", res.Format, "entries", len(res.Entries))
	return feed.Items(res, source)
}

// FeedTarget rewrites the feed: pseudo-scheme into a fetchable URL.
func FeedTarget(rawURL string) string {
	rawURL = strings.TrimSpace(rawURL)
	lower := strings.ToLower(rawURL)
	switch {
	case strings.HasPrefix(lower, "feed://"):
		return "https://" + rawURL[len("feed://"):]
	case strings.HasPrefix(lower, "feed:http://"), strings.HasPrefix(lower, "feed:https://"):
		return rawURL[len("feed:"):]
	}
	return rawURL
}
