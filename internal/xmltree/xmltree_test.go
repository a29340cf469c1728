package xmltree

import (
	"strings"
	"testing"
)

const sample = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Blog</title>
    <item><title>One</title><link>https://example.com/1</link></item>
    <item><title>Two</title><description><![CDATA[<p>Hi &amp; bye</p>]]></description></item>
  </channel>
</rss>`

func TestParseBuildsTree(t *testing.T) {
	root, err := Parse(strings.NewReader(sample))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if root.Tag != "" {
		t.Errorf("expected document root to have empty tag, got %q", root.Tag)
	}

	rss := root.Child("rss")
	if rss == nil {
		t.Fatal("expected rss element")
	}
	if v, ok := rss.Attr("version"); !ok || v != "2.0" {
		t.Errorf("expected version 2.0, got %q (present=%v)", v, ok)
	}

	items := root.FindPath("rss", "channel", "item")
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	if got := items[0].Child("title").InnerText(); got != "One" {
		t.Errorf("expected first title One, got %q", got)
	}
	if got := items[1].Child("description").InnerText(); got != "<p>Hi &amp; bye</p>" {
		t.Errorf("expected CDATA kept verbatim, got %q", got)
	}
}

func TestLookupsTolerateAbsence(t *testing.T) {
	var n *Node
	if n.Child("x") != nil {
		t.Error("expected nil child on nil node")
	}
	if n.ChildrenByTag("x") != nil {
		t.Error("expected nil children on nil node")
	}
	if n.FindPath("a", "b") != nil {
		t.Error("expected nil path on nil node")
	}
	if _, ok := n.Attr("href"); ok {
		t.Error("expected missing attr on nil node")
	}
	if n.InnerText() != "" {
		t.Error("expected empty text on nil node")
	}

	root, _ := Parse(strings.NewReader(sample))
	if got := root.FindPath("rss", "nothing", "item"); got != nil {
		t.Errorf("expected nil for missing level, got %d nodes", len(got))
	}
	if got := root.FindPath("feed", "entry"); got != nil {
		t.Errorf("expected nil for atom path on rss, got %d nodes", len(got))
	}
}

func TestTagMatchIgnoresCase(t *testing.T) {
	root, err := Parse(strings.NewReader(`<RSS><Channel><ITEM><pubdate>x</pubdate></ITEM></Channel></RSS>`))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	items := root.FindPath("rss", "channel", "item")
	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(items))
	}
	if items[0].Child("pubDate") == nil {
		t.Error("expected case-insensitive child match")
	}
}

func TestInnerTextIncludesDescendants(t *testing.T) {
	root, err := Parse(strings.NewReader(`<content type="xhtml"><div>Hello <b>there</b></div></content>`))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if got := root.Child("content").InnerText(); got != "Hello there" {
		t.Errorf("expected %q, got %q", "Hello there", got)
	}
}

func TestParseNonXMLDoesNotPanic(t *testing.T) {
	root, _ := Parse(strings.NewReader("this is not xml"))
	if root == nil {
		t.Fatal("expected a root even for garbage input")
	}
	if got := root.FindPath("rss", "channel", "item"); len(got) != 0 {
		t.Errorf("expected no items, got %d", len(got))
	}
}

func TestParseDecodesNamedEntities(t *testing.T) {
	root, err := Parse(strings.NewReader(`<p>A &amp; B&nbsp;C &eacute;t&eacute;</p>`))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if got := root.Child("p").InnerText(); got != "A & B\u00a0C été" {
		t.Errorf("expected entities decoded, got %q", got)
	}
}

func TestChildInPrefersNamespace(t *testing.T) {
	root, err := Parse(strings.NewReader(`<item xmlns:media="http://search.yahoo.com/mrss/">
  <media:title>Caption</media:title>
  <title>Real</title>
  <media:credit>Someone</media:credit>
</item>`))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	it := root.Child("item")

	if got := it.Child("title").InnerText(); got != "Caption" {
		t.Errorf("expected Child to take the first match, got %q", got)
	}
	if got := it.ChildIn("title", "").InnerText(); got != "Real" {
		t.Errorf("expected plain title, got %q", got)
	}
	if got := it.ChildIn("credit", "").InnerText(); got != "Someone" {
		t.Errorf("expected prefixed fallback when no plain element, got %q", got)
	}
	if it.ChildIn("missing", "") != nil {
		t.Error("expected nil for a missing tag")
	}
	if got := len(it.ChildrenIn("title", "http://search.yahoo.com/mrss/")); got != 1 {
		t.Errorf("expected one media title, got %d", got)
	}
}
