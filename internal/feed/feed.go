// Package feed decides whether a parsed document is an RSS channel or an
// Atom feed and pulls its entries out.
package feed

import (
	"bytes"

	"github.com/mmcdole/gofeed"

	"streamliner/internal/item"
	"streamliner/internal/xmltree"
)

// Format is the detected document shape.
type Format string

const (
	FormatNone Format = ""
	FormatRSS  Format = "rss"
	FormatAtom Format = "atom"
)

// Result holds the detected format and its entry nodes in document order.
// A zero Result means nothing recognizable was found.
type Result struct {
	Format  Format
	Entries []*xmltree.Node
}

// Detect looks for rss > channel > item first and, only when that finds
// nothing, for feed > entry.
func Detect(root *xmltree.Node) Result {
	if entries := root.FindPath("rss", "channel", "item"); len(entries) > 0 {
		return Result{Format: FormatRSS, Entries: entries}
	}
	if entries := root.FindPath("feed", "entry"); len(entries) > 0 {
		return Result{Format: FormatAtom, Entries: entries}
	}
	return Result{}
}

// Items maps every detected entry to an Item. An untitled entry takes its
// link as title, or feedURL when it has no link either.
func Items(res Result, feedURL string) []item.Item {
	var (
		src     item.Source
		extract item.Extractor[*xmltree.Node]
	)
	switch res.Format {
	case FormatRSS:
		src, extract = item.RSS, RSSFields
	case FormatAtom:
		src, extract = item.Atom, AtomFields
	default:
		return []item.Item{}
	}

	out := make([]item.Item, 0, len(res.Entries))
	for _, e := range res.Entries {
		f := extract(e)
		if f.TitleFallback == "" {
			f.TitleFallback = feedURL
		}
		out = append(out, item.FromFields(src, f))
	}
	return out
}

// Namespaces whose elements count as the entry's own fields. Extension
// elements with the same local name (media:title, atom:link) are only used
// when the plain one is missing.
var (
	rssSpaces  = []string{""}
	atomSpaces = []string{"", "http://www.w3.org/2005/Atom", "http://purl.org/atom/ns#"}
)

// RSSFields reads an RSS <item>. Every field is optional.
func RSSFields(n *xmltree.Node) item.Fields {
	link := rssLink(n)
	return item.Fields{
		Title:         text(n.ChildIn("title", rssSpaces...)),
		URL:           link,
		Body:          text(n.ChildIn("description", rssSpaces...)),
		Date:          firstText(n.ChildIn("pubDate", rssSpaces...), n.Child("date")),
		TitleFallback: deref(link),
	}
}

// rssLink reads the link text, or the href of a link element that only
// carries one.
func rssLink(n *xmltree.Node) *string {
	l := n.ChildIn("link", rssSpaces...)
	if l == nil {
		return nil
	}
	if s := l.InnerText(); s != "" {
		return &s
	}
	if href, ok := l.Attr("href"); ok && href != "" {
		return &href
	}
	s := ""
	return &s
}

// AtomFields reads an Atom <entry>. Every field is optional.
func AtomFields(n *xmltree.Node) item.Fields {
	link := atomLink(n)
	return item.Fields{
		Title:         text(n.ChildIn("title", atomSpaces...)),
		URL:           link,
		Body:          firstText(n.ChildIn("summary", atomSpaces...), n.ChildIn("content", atomSpaces...)),
		Date:          firstText(n.ChildIn("updated", atomSpaces...), n.ChildIn("published", atomSpaces...)),
		TitleFallback: deref(link),
	}
}

// atomLink picks the first link without rel or with rel="alternate"; an
// entry that only has other rels (rel="self") falls back to its first
// link. It reads href and falls back to the element text.
func atomLink(entry *xmltree.Node) *string {
	links := entry.ChildrenIn("link", atomSpaces...)
	if len(links) == 0 {
		return nil
	}
	chosen := links[0]
	for _, l := range links {
		if rel, ok := l.Attr("rel"); !ok || rel == "alternate" {
			chosen = l
			break
		}
	}
	if href, ok := chosen.Attr("href"); ok && href != "" {
		return &href
	}
	return text(chosen)
}

func text(n *xmltree.Node) *string {
	if n == nil {
		return nil
	}
	s := n.InnerText()
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// firstText returns the text of the first node with non-blank content.
func firstText(nodes ...*xmltree.Node) *string {
	for _, n := range nodes {
		if s := n.InnerText(); s != "" {
			return &s
		}
	}
	return nil
}

// Sniff names the format gofeed would guess for raw bytes. It only feeds
// diagnostics when Detect comes back empty.
func Sniff(data []byte) string {
	switch gofeed.DetectFeedType(bytes.NewReader(data)) {
	case gofeed.FeedTypeRSS:
		return "rss"
	case gofeed.FeedTypeAtom:
		return "atom"
	case gofeed.FeedTypeJSON:
		return "json"
	default:
		return "unknown"
	}
}
