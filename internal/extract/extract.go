// Package extract turns summary items into full-text items by fetching the
// linked page and pulling out its main text.
package extract

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/charmbracelet/log"
	readability "github.com/go-shiori/go-readability"
	trafilatura "github.com/markusmobius/go-trafilatura"

	"streamliner/internal/item"
	"streamliner/internal/logging"
)

// minText is the shortest extractor output accepted as an article.
const minText = 100

// Fetcher downloads a URL and returns its body.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

type Extractor struct {
	Fetcher Fetcher
	Logger  *log.Logger
}

// MainText pulls the readable text out of an HTML page. It tries
// trafilatura, then readability, then a plain Markdown rendering.
func MainText(body []byte, pageURL string) string {
	if len(bytes.TrimSpace(body)) == 0 {
		return ""
	}
	base, _ := url.Parse(pageURL)

	res, err := trafilatura.Extract(bytes.NewReader(body), trafilatura.Options{
		OriginalURL:    base,
		EnableFallback: true,
		Focus:          trafilatura.Balanced,
	})
	if err == nil && res != nil {
		if txt := strings.TrimSpace(res.ContentText); len(txt) > minText {
			return txt
		}
	}

	art, err := readability.FromReader(bytes.NewReader(body), base)
	if err == nil {
		if txt := strings.TrimSpace(art.TextContent); len(txt) > minText {
			return txt
		}
	}

	return Markdown(string(body))
}

// Expand returns a copy of it with the linked page's main text as content.
// Items that do not need further processing, or have no URL, come back
// unchanged without any fetch.
func (e *Extractor) Expand(ctx context.Context, it item.Item) (item.Item, error) {
	if !it.NeedsFurtherProcessing || strings.TrimSpace(it.URL) == "" {
		return it, nil
	}
	body, err := e.Fetcher.Fetch(ctx, it.URL)
	if err != nil {
		return it, fmt.Errorf("fetching %s: %w", it.URL, err)
	}
	text := MainText(body, it.URL)
	if text == "" {
		logging.OrDiscard(e.Logger).Debug("no main text", "url", it.URL)
		return it, nil
	}
	it.Content = text
	it.NeedsFurtherProcessing = false
	return it, nil
}

// ExpandAll expands every item in order. A failed fetch keeps the summary
// and is logged; it never drops the item.
func (e *Extractor) ExpandAll(ctx context.Context, items []item.Item) []item.Item {
	logger := logging.OrDiscard(e.Logger)
	out := make([]item.Item, 0, len(items))
	for _, it := range items {
		if ctx.Err() != nil {
			out = append(out, it)
			continue
		}
		expanded, err := e.Expand(ctx, it)
		if err != nil {
			logger.Warn("expand failed", "url", it.URL, "err", err)
		}
		out = append(out, expanded)
	}
	return out
}

// Readable is the text a reader or a model should see for it. Raw page
// bodies are reduced to their main text; everything else is returned as is.
func Readable(it item.Item) string {
	if it.Source == item.HTTP {
		return MainText([]byte(it.Content), it.URL)
	}
	return it.Content
}
