// Package xmltree parses XML into a loose tag tree. Lookups on the tree
// never fail: a missing node or attribute yields nil or the empty string.
package xmltree

import (
	"fmt"
	"io"
	"regexp"
	"slices"
	"strings"

	xpp "github.com/mmcdole/goxpp"
	"golang.org/x/net/html"
	"golang.org/x/net/html/charset"
)

// Node is one element. The document root has an empty Tag.
type Node struct {
	Tag      string
	Space    string
	Attrs    map[string]string
	Children []*Node
	Text     string
}

// Parse reads a document with a non-strict pull parser so unclosed tags,
// HTML entities and odd charsets do not stop it. Named HTML entities the
// XML decoder leaves alone (&nbsp;, &eacute;) are decoded in text while
// the five XML escapes inside CDATA stay as written. On a
// parse error the tree built so far is returned together with the error.
func Parse(r io.Reader) (*Node, error) {
	root := &Node{}
	stack := []*Node{root}
	p := xpp.NewXMLPullParser(r, false, charset.NewReaderLabel)

	for {
		ev, err := p.Next()
		if err != nil {
			return root, fmt.Errorf("parsing xml: %w", err)
		}
		switch ev {
		case xpp.StartTag:
			n := &Node{Tag: p.Name, Space: p.Space, Attrs: attrMap(p)}
			parent := stack[len(stack)-1]
			parent.Children = append(parent.Children, n)
			stack = append(stack, n)
		case xpp.EndTag:
			if len(stack) > 1 {
				stack = stack[:len(stack)-1]
			}
		case xpp.Text:
			cur := stack[len(stack)-1]
			cur.Text += unescapeNamed(p.Text)
		case xpp.EndDocument:
			return root, nil
		}
	}
}

var namedEntity = regexp.MustCompile(`&[A-Za-z][A-Za-z0-9]*;`)

func unescapeNamed(s string) string {
	if !strings.Contains(s, "&") {
		return s
	}
	return namedEntity.ReplaceAllStringFunc(s, func(ent string) string {
		switch ent {
		case "&amp;", "&lt;", "&gt;", "&quot;", "&apos;":
			return ent
		}
		return html.UnescapeString(ent)
	})
}

func attrMap(p *xpp.XMLPullParser) map[string]string {
	if len(p.Attrs) == 0 {
		return nil
	}
	m := make(map[string]string, len(p.Attrs))
	for _, a := range p.Attrs {
		if _, seen := m[a.Name.Local]; !seen {
			m[a.Name.Local] = a.Value
		}
	}
	return m
}

// Is reports whether the node has the given local tag name, ignoring case.
func (n *Node) Is(tag string) bool {
	return n != nil && strings.EqualFold(n.Tag, tag)
}

// Child returns the first direct child with the tag, or nil.
func (n *Node) Child(tag string) *Node {
	if n == nil {
		return nil
	}
	for _, c := range n.Children {
		if c.Is(tag) {
			return c
		}
	}
	return nil
}

// ChildIn returns the first direct child with the tag whose namespace is one
// of spaces. When no child qualifies it behaves like Child, so a prefixed
// element is only used when the plain one is missing.
func (n *Node) ChildIn(tag string, spaces ...string) *Node {
	if c := first(n.ChildrenIn(tag, spaces...)); c != nil {
		return c
	}
	return n.Child(tag)
}

// ChildrenIn returns the children with the tag whose namespace is one of
// spaces, or every child with the tag when none is.
func (n *Node) ChildrenIn(tag string, spaces ...string) []*Node {
	all := n.ChildrenByTag(tag)
	var out []*Node
	for _, c := range all {
		if slices.Contains(spaces, c.Space) {
			out = append(out, c)
		}
	}
	if len(out) == 0 {
		return all
	}
	return out
}

func first(nodes []*Node) *Node {
	if len(nodes) == 0 {
		return nil
	}
	return nodes[0]
}

// ChildrenByTag returns every direct child with the tag, in document order.
func (n *Node) ChildrenByTag(tag string) []*Node {
	if n == nil {
		return nil
	}
	var out []*Node
	for _, c := range n.Children {
		if c.Is(tag) {
			out = append(out, c)
		}
	}
	return out
}

// FindPath walks tag names level by level from n and returns every node
// matching the last name. A level with no match ends the walk with nil.
func (n *Node) FindPath(path ...string) []*Node {
	if n == nil {
		return nil
	}
	level := []*Node{n}
	for _, tag := range path {
		var next []*Node
		for _, node := range level {
			next = append(next, node.ChildrenByTag(tag)...)
		}
		if len(next) == 0 {
			return nil
		}
		level = next
	}
	return level
}

// Attr returns the attribute value and whether it was present.
func (n *Node) Attr(name string) (string, bool) {
	if n == nil || n.Attrs == nil {
		return "", false
	}
	v, ok := n.Attrs[name]
	return v, ok
}

// InnerText concatenates the text of n and all its descendants, trimmed.
func (n *Node) InnerText() string {
	if n == nil {
		return ""
	}
	var b strings.Builder
	n.writeText(&b)
	return strings.TrimSpace(b.String())
}

func (n *Node) writeText(b *strings.Builder) {
	b.WriteString(n.Text)
	for _, c := range n.Children {
		c.writeText(b)
	}
}
