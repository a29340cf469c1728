package extract

import (
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/net/html"
)

var blankRuns = regexp.MustCompile(`\n{3,}`)

// skipped elements never contribute text.
var skipped = map[string]bool{
	"script": true, "style": true, "noscript": true, "head": true,
	"nav": true, "svg": true, "iframe": true, "form": true, "template": true,
}

// Markdown renders an HTML document or fragment as Markdown. It is the last
// resort when no readability extractor finds an article.
func Markdown(htmlStr string) string {
	if strings.TrimSpace(htmlStr) == "" {
		return ""
	}
	doc, err := html.Parse(strings.NewReader(htmlStr))
	if err != nil {
		return ""
	}

	root := findElement(doc, "body")
	if root == nil {
		root = doc
	}
	var w mdWriter
	out := w.children(root)
	out = blankRuns.ReplaceAllString(out, "\n\n")
	return strings.TrimSpace(out)
}

func findElement(n *html.Node, tag string) *html.Node {
	if n.Type == html.ElementNode && n.Data == tag {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, tag); found != nil {
			return found
		}
	}
	return nil
}

type mdWriter struct {
	inPre bool
}

func (w *mdWriter) node(n *html.Node) string {
	switch n.Type {
	case html.TextNode:
		if w.inPre {
			return n.Data
		}
		return collapseSpace(n.Data)
	case html.ElementNode:
		return w.element(n)
	case html.DocumentNode:
		return w.children(n)
	}
	return ""
}

func (w *mdWriter) children(n *html.Node) string {
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		b.WriteString(w.node(c))
	}
	return b.String()
}

func (w *mdWriter) element(n *html.Node) string {
	tag := strings.ToLower(n.Data)
	if skipped[tag] {
		return ""
	}

	switch tag {
	case "h1", "h2", "h3", "h4", "h5", "h6":
		level, _ := strconv.Atoi(tag[1:])
		content := strings.TrimSpace(w.children(n))
		if content == "" {
			return ""
		}
		return "\n\n" + strings.Repeat("#", level) + " " + content + "\n\n"
	case "p", "div", "section", "article", "main", "header", "footer", "aside", "figure":
		content := strings.TrimSpace(w.children(n))
		if content == "" {
			return ""
		}
		return "\n\n" + content + "\n\n"
	case "strong", "b":
		return wrap("**", w.children(n))
	case "em", "i":
		return wrap("*", w.children(n))
	case "a":
		content := strings.TrimSpace(w.children(n))
		href := attr(n, "href")
		if content == "" || href == "" || strings.HasPrefix(href, "javascript:") {
			return content
		}
		return "[" + content + "](" + href + ")"
	case "img":
		if alt := attr(n, "alt"); alt != "" {
			return "![" + alt + "](" + attr(n, "src") + ")"
		}
		return ""
	case "br":
		return "\n"
	case "hr":
		return "\n\n---\n\n"
	case "ul", "ol":
		return "\n\n" + w.list(n, tag == "ol") + "\n"
	case "code":
		if w.inPre {
			return w.children(n)
		}
		return wrap("`", w.children(n))
	case "pre":
		w.inPre = true
		content := w.children(n)
		w.inPre = false
		if strings.TrimSpace(content) == "" {
			return ""
		}
		return "\n\n```\n" + strings.Trim(content, "\n") + "\n```\n\n"
	case "blockquote":
		content := strings.TrimSpace(w.children(n))
		if content == "" {
			return ""
		}
		lines := strings.Split(content, "\n")
		for i, line := range lines {
			if strings.TrimSpace(line) == "" {
				lines[i] = ">"
			} else {
				lines[i] = "> " + strings.TrimSpace(line)
			}
		}
		return "\n\n" + strings.Join(lines, "\n") + "\n\n"
	}
	return w.children(n)
}

func (w *mdWriter) list(n *html.Node, ordered bool) string {
	var b strings.Builder
	idx := 0
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode || strings.ToLower(c.Data) != "li" {
			continue
		}
		content := strings.TrimSpace(blankRuns.ReplaceAllString(w.children(c), "\n\n"))
		if content == "" {
			continue
		}
		idx++
		marker := "- "
		if ordered {
			marker = strconv.Itoa(idx) + ". "
		}
		content = strings.ReplaceAll(content, "\n", "\n  ")
		b.WriteString(marker + content + "\n")
	}
	return b.String()
}

func wrap(mark, content string) string {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return content
	}
	return mark + trimmed + mark
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, key) {
			return strings.TrimSpace(a.Val)
		}
	}
	return ""
}

// collapseSpace folds whitespace runs to one space, keeping a single leading
// or trailing space so adjacent inline elements stay separated.
func collapseSpace(s string) string {
	if s == "" {
		return ""
	}
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return " "
	}
	out := strings.Join(fields, " ")
	if isSpace(s[0]) {
		out = " " + out
	}
	if isSpace(s[len(s)-1]) {
		out += " "
	}
	return out
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\n' || b == '\t' || b == '\r' || b == '\f'
}
