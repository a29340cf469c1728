package feed

import (
	"strings"
	"testing"

	"streamliner/internal/item"
	"streamliner/internal/xmltree"
)

func parse(t *testing.T, doc string) *xmltree.Node {
	t.Helper()
	root, err := xmltree.Parse(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	return root
}

const rssDoc = `<?xml version="1.0"?>
<rss version="2.0"><channel>
  <title>Blog</title>
  <item>
    <title>First</title>
    <link>https://example.com/1</link>
    <description>Short summary</description>
    <pubDate>Mon, 03 Jul 2023 10:00:00 GMT</pubDate>
  </item>
  <item>
    <title>Second</title>
    <pubDate>sometime last week</pubDate>
  </item>
  <item></item>
</channel></rss>`

const atomDoc = `<?xml version="1.0" encoding="utf-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <title>Atom</title>
  <entry>
    <title>A</title>
    <link href="https://x"/>
    <summary>sum</summary>
    <content>full</content>
    <updated>2023-07-03T10:00:00Z</updated>
  </entry>
  <entry>
    <title>B</title>
    <link>https://y</link>
    <content>only content</content>
  </entry>
</feed>`

func TestDetectRSS(t *testing.T) {
	res := Detect(parse(t, rssDoc))
	if res.Format != FormatRSS {
		t.Fatalf("expected rss, got %q", res.Format)
	}
	if len(res.Entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(res.Entries))
	}
}

func TestDetectRSSWinsOverAtom(t *testing.T) {
	// A document carrying both shapes at the top level.
	doc := `<rss><channel><item><title>r</title></item></channel></rss>`
	root := parse(t, doc)
	root.Children = append(root.Children, parse(t, atomDoc).Children...)

	res := Detect(root)
	if res.Format != FormatRSS {
		t.Fatalf("expected rss to win, got %q", res.Format)
	}
	if len(res.Entries) != 1 {
		t.Errorf("expected only the rss item, got %d entries", len(res.Entries))
	}
}

func TestDetectAtom(t *testing.T) {
	res := Detect(parse(t, atomDoc))
	if res.Format != FormatAtom {
		t.Fatalf("expected atom, got %q", res.Format)
	}
	if len(res.Entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(res.Entries))
	}
}

func TestDetectNeither(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{name: "html", doc: `<html><head><title>x</title></head><body/></html>`},
		{name: "empty channel", doc: `<rss><channel><title>x</title></channel></rss>`},
		{name: "feed without entries", doc: `<feed><title>x</title></feed>`},
		{name: "not xml", doc: `hello`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root, _ := xmltree.Parse(strings.NewReader(tt.doc))
			res := Detect(root)
			if res.Format != FormatNone || len(res.Entries) != 0 {
				t.Errorf("expected empty result, got %q with %d entries", res.Format, len(res.Entries))
			}
			if items := Items(res, "https://example.com/feed"); items == nil || len(items) != 0 {
				t.Errorf("expected empty non-nil items, got %v", items)
			}
		})
	}
}

func TestItemsRSS(t *testing.T) {
	items := Items(Detect(parse(t, rssDoc)), "https://example.com/feed")
	if len(items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(items))
	}

	first := items[0]
	if first.Source != item.RSS {
		t.Errorf("expected source rss, got %q", first.Source)
	}
	if first.URL != "https://example.com/1" {
		t.Errorf("expected link, got %q", first.URL)
	}
	if first.Content != "First\n\nShort summary" {
		t.Errorf("expected synthesized content, got %q", first.Content)
	}
	if !first.NeedsFurtherProcessing {
		t.Error("expected needs_further_processing")
	}
	if first.Timestamp == nil {
		t.Error("expected parsed pubDate")
	}

	second := items[1]
	if second.Content != "Second" {
		t.Errorf("expected title-only content, got %q", second.Content)
	}
	if second.Timestamp != nil {
		t.Errorf("expected nil timestamp for bad date, got %v", *second.Timestamp)
	}

	empty := items[2]
	if empty.URL != "" || empty.Title != "https://example.com/feed" || empty.Content != "https://example.com/feed" {
		t.Errorf("expected feed URL as title, got %+v", empty)
	}
}

func TestItemsAtom(t *testing.T) {
	items := Items(Detect(parse(t, atomDoc)), "https://example.com/atom")
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	if items[0].URL != "https://x" {
		t.Errorf("expected href link, got %q", items[0].URL)
	}
	if items[0].Content != "A\n\nsum" {
		t.Errorf("expected summary preferred, got %q", items[0].Content)
	}
	if items[0].Timestamp == nil {
		t.Error("expected parsed updated date")
	}
	if items[0].Source != item.Atom {
		t.Errorf("expected source atom, got %q", items[0].Source)
	}

	if items[1].URL != "https://y" {
		t.Errorf("expected text link, got %q", items[1].URL)
	}
	if items[1].Content != "B\n\nonly content" {
		t.Errorf("expected content fallback, got %q", items[1].Content)
	}
	if items[1].Timestamp != nil {
		t.Errorf("expected nil timestamp, got %v", *items[1].Timestamp)
	}
}

func TestAtomLinkPrefersAlternate(t *testing.T) {
	root := parse(t, `<feed><entry>
  <link rel="self" href="https://self"/>
  <link rel="alternate" href="https://alt"/>
</entry></feed>`)
	entries := Detect(root).Entries
	if got := AtomFields(entries[0]).URL; got == nil || *got != "https://alt" {
		t.Errorf("expected alternate link, got %v", got)
	}
}

func TestAtomFieldsFallbackToPublished(t *testing.T) {
	root := parse(t, `<feed><entry><published>2023-01-01T00:00:00Z</published></entry></feed>`)
	f := AtomFields(Detect(root).Entries[0])
	if f.Date == nil || *f.Date != "2023-01-01T00:00:00Z" {
		t.Errorf("expected published date, got %v", f.Date)
	}
	if f.Body != nil {
		t.Errorf("expected nil body, got %q", *f.Body)
	}
}

func TestNamespacedElementsDoNotShadowFields(t *testing.T) {
	root := parse(t, `<rss version="2.0" xmlns:media="http://search.yahoo.com/mrss/" xmlns:atom="http://www.w3.org/2005/Atom">
<channel><item>
  <media:title>Thumb caption</media:title>
  <title>Real</title>
  <atom:link rel="self" href="https://self"/>
  <link>https://real</link>
  <description>S</description>
</item></channel></rss>`)
	items := Items(Detect(root), "https://example.com/feed")
	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(items))
	}
	got := items[0]
	if got.Title != "Real" || got.URL != "https://real" || got.Content != "Real\n\nS" {
		t.Errorf("expected plain fields, got title %q url %q content %q", got.Title, got.URL, got.Content)
	}
}

func TestAtomEntryIgnoresExtensionTitle(t *testing.T) {
	root := parse(t, `<feed xmlns="http://www.w3.org/2005/Atom" xmlns:media="http://search.yahoo.com/mrss/">
<entry>
  <media:title>Caption</media:title>
  <title>Entry</title>
  <link href="https://entry"/>
</entry></feed>`)
	if got := AtomFields(Detect(root).Entries[0]).Title; got == nil || *got != "Entry" {
		t.Errorf("expected atom title, got %v", got)
	}
}

func TestUntitledEntries(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		title   string
		content string
	}{
		{
			name:    "rss without title or link",
			doc:     `<rss><channel><item><description>S</description></item></channel></rss>`,
			title:   "https://example.com/feed",
			content: "https://example.com/feed\n\nS",
		},
		{
			name:    "rss link as title",
			doc:     `<rss><channel><item><link>https://example.com/1</link><description>S</description></item></channel></rss>`,
			title:   "https://example.com/1",
			content: "https://example.com/1\n\nS",
		},
		{
			name:    "atom link as title",
			doc:     `<feed><entry><link href="https://example.com/2"/><summary>S</summary></entry></feed>`,
			title:   "https://example.com/2",
			content: "https://example.com/2\n\nS",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items := Items(Detect(parse(t, tt.doc)), "https://example.com/feed")
			if len(items) != 1 {
				t.Fatalf("expected 1 item, got %d", len(items))
			}
			if items[0].Title != tt.title {
				t.Errorf("expected title %q, got %q", tt.title, items[0].Title)
			}
			if items[0].Content != tt.content {
				t.Errorf("expected content %q, got %q", tt.content, items[0].Content)
			}
		})
	}
}

func TestAtomLinkSelfOnlyFallsBackToFirst(t *testing.T) {
	root := parse(t, `<feed><entry><link rel="self" href="https://self"/></entry></feed>`)
	if got := AtomFields(Detect(root).Entries[0]).URL; got == nil || *got != "https://self" {
		t.Errorf("expected first link, got %v", got)
	}
}

func TestSniff(t *testing.T) {
	if got := Sniff([]byte(rssDoc)); got != "rss" {
		t.Errorf("expected rss, got %q", got)
	}
	if got := Sniff([]byte(atomDoc)); got != "atom" {
		t.Errorf("expected atom, got %q", got)
	}
	if got := Sniff([]byte("plain")); got != "unknown" {
		t.Errorf("expected unknown, got %q", got)
	}
}
