// Package htmlquery implements harvest documents queried with XPath.
//
// Expressions are evaluated relative to the node they are applied to, so
// descendant searches should be written as ".//li" rather than "//li",
// which addresses the whole document.
package htmlquery

import (
	"io"
	"strings"

	"github.com/antchfx/htmlquery"
	"github.com/fwojciec/harvest"
	"golang.org/x/net/html"
)

// Ensure types implement the harvest interfaces at compile time.
var (
	_ harvest.Parser   = (*Parser)(nil)
	_ harvest.Document = (*Document)(nil)
	_ harvest.Node     = (*Node)(nil)
)

// Parser parses HTML into documents queried with XPath.
type Parser struct{}

// NewParser creates a new Parser.
func NewParser() *Parser {
	return &Parser{}
}

// Parse reads HTML from r.
func (p *Parser) Parse(r io.Reader) (harvest.Document, error) {
	root, err := htmlquery.Parse(r)
	if err != nil {
		return nil, harvest.Errorf(harvest.EINVALID, "failed to parse HTML: %v", err)
	}
	return NewDocument(root), nil
}

// ParseString parses an HTML string.
func ParseString(markup string) (*Document, error) {
	root, err := htmlquery.Parse(strings.NewReader(markup))
	if err != nil {
		return nil, harvest.Errorf(harvest.EINVALID, "failed to parse HTML: %v", err)
	}
	return NewDocument(root), nil
}

// Document wraps the root of a parsed html.Node tree.
type Document struct {
	Node
}

// NewDocument wraps an already parsed html.Node tree.
func NewDocument(root *html.Node) *Document {
	return &Document{Node: Node{n: root}}
}

// StripComments removes every comment node from the document.
func (d *Document) StripComments() int {
	return stripComments(d.n)
}

func stripComments(n *html.Node) int {
	removed := 0
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		if c.Type == html.CommentNode {
			n.RemoveChild(c)
			removed++
		} else {
			removed += stripComments(c)
		}
		c = next
	}
	return removed
}

// Node wraps an html.Node.
type Node struct {
	n *html.Node
}

// HTMLNode returns the underlying html.Node.
func (n *Node) HTMLNode() *html.Node {
	return n.n
}

// Find returns the first node selected by the XPath expression.
func (n *Node) Find(query string) (harvest.Node, error) {
	found, err := htmlquery.Query(n.n, query)
	if err != nil {
		return nil, harvest.Errorf(harvest.EINVALID, "invalid xpath %q: %v", query, err)
	}
	if found == nil {
		return nil, nil
	}
	return &Node{n: found}, nil
}

// FindAll returns every node selected by the XPath expression.
func (n *Node) FindAll(query string) ([]harvest.Node, error) {
	found, err := htmlquery.QueryAll(n.n, query)
	if err != nil {
		return nil, harvest.Errorf(harvest.EINVALID, "invalid xpath %q: %v", query, err)
	}

	nodes := make([]harvest.Node, 0, len(found))
	for _, f := range found {
		nodes = append(nodes, &Node{n: f})
	}
	return nodes, nil
}

// Text returns the combined text of the node and its descendants.
func (n *Node) Text() string {
	return htmlquery.InnerText(n.n)
}

// OwnText returns the combined text of the node's direct text children.
func (n *Node) OwnText() string {
	var sb strings.Builder
	for c := n.n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			sb.WriteString(c.Data)
		}
	}
	return sb.String()
}

// Attr returns the named attribute of the node.
func (n *Node) Attr(name string) (string, bool) {
	for _, a := range n.n.Attr {
		if a.Key == name {
			return a.Val, true
		}
	}
	return "", false
}

// Remove detaches every node selected by the XPath expression. Selected
// attributes and other nodes without a parent are skipped.
func (n *Node) Remove(query string) (int, error) {
	found, err := htmlquery.QueryAll(n.n, query)
	if err != nil {
		return 0, harvest.Errorf(harvest.EINVALID, "invalid xpath %q: %v", query, err)
	}

	removed := 0
	for _, f := range found {
		if f.Parent == nil || f == n.n {
			continue
		}
		f.Parent.RemoveChild(f)
		removed++
	}
	return removed, nil
}

// Render returns the node's outer HTML.
func (n *Node) Render() (string, error) {
	return htmlquery.OutputHTML(n.n, true), nil
}
