package goquery

import (
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"github.com/fwojciec/harvest"
	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/net/html"
)

// Ensure types implement the harvest interfaces at compile time.
var (
	_ harvest.Parser   = (*Parser)(nil)
	_ harvest.Document = (*Document)(nil)
	_ harvest.Node     = (*Node)(nil)
)

// selectorCacheSize bounds the number of compiled selectors kept in memory.
// Definitions are usually few and reused across many documents.
const selectorCacheSize = 512

var selectors = newSelectorCache(selectorCacheSize)

func newSelectorCache(size int) *lru.Cache[string, cascadia.Selector] {
	c, err := lru.New[string, cascadia.Selector](size)
	if err != nil {
		panic(err)
	}
	return c
}

// compile returns the compiled form of a CSS selector group.
func compile(query string) (cascadia.Selector, error) {
	if sel, ok := selectors.Get(query); ok {
		return sel, nil
	}

	sel, err := cascadia.Compile(query)
	if err != nil {
		return nil, harvest.Errorf(harvest.EINVALID, "invalid selector %q: %v", query, err)
	}
	selectors.Add(query, sel)
	return sel, nil
}

// Parser parses HTML into documents queried with CSS selectors.
type Parser struct{}

// NewParser creates a new Parser.
func NewParser() *Parser {
	return &Parser{}
}

// Parse reads HTML from r using the HTML5 parsing algorithm.
func (p *Parser) Parse(r io.Reader) (harvest.Document, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, harvest.Errorf(harvest.EINVALID, "failed to parse HTML: %v", err)
	}
	return NewDocument(doc), nil
}

// ParseString parses an HTML string.
func ParseString(markup string) (*Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil, harvest.Errorf(harvest.EINVALID, "failed to parse HTML: %v", err)
	}
	return NewDocument(doc), nil
}

// Document wraps a goquery document.
type Document struct {
	Node
	doc *goquery.Document
}

// NewDocument wraps an already parsed goquery document.
func NewDocument(doc *goquery.Document) *Document {
	return &Document{Node: Node{sel: doc.Selection}, doc: doc}
}

// NewDocumentFromNode wraps an already parsed html.Node tree.
func NewDocumentFromNode(root *html.Node) *Document {
	return NewDocument(goquery.NewDocumentFromNode(root))
}

// StripComments removes every comment node from the document.
func (d *Document) StripComments() int {
	removed := 0
	for _, root := range d.doc.Nodes {
		removed += stripComments(root)
	}
	return removed
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

// Node wraps a single-element goquery selection.
type Node struct {
	sel *goquery.Selection
}

// Selection returns the underlying goquery selection.
func (n *Node) Selection() *goquery.Selection {
	return n.sel
}

// Find returns the first descendant matching the CSS selector.
func (n *Node) Find(query string) (harvest.Node, error) {
	m, err := compile(query)
	if err != nil {
		return nil, err
	}

	sel := n.sel.FindMatcher(m).First()
	if sel.Length() == 0 {
		return nil, nil
	}
	return &Node{sel: sel}, nil
}

// FindAll returns every descendant matching the CSS selector.
func (n *Node) FindAll(query string) ([]harvest.Node, error) {
	m, err := compile(query)
	if err != nil {
		return nil, err
	}

	sel := n.sel.FindMatcher(m)
	nodes := make([]harvest.Node, 0, sel.Length())
	sel.Each(func(_ int, s *goquery.Selection) {
		nodes = append(nodes, &Node{sel: s})
	})
	return nodes, nil
}

// Text returns the combined text of the node and its descendants.
func (n *Node) Text() string {
	return n.sel.Text()
}

// OwnText returns the combined text of the node's direct text children.
func (n *Node) OwnText() string {
	var sb strings.Builder
	for _, node := range n.sel.Nodes {
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.TextNode {
				sb.WriteString(c.Data)
			}
		}
	}
	return sb.String()
}

// Attr returns the named attribute of the node.
func (n *Node) Attr(name string) (string, bool) {
	return n.sel.Attr(name)
}

// Remove detaches every descendant matching the CSS selector.
func (n *Node) Remove(query string) (int, error) {
	m, err := compile(query)
	if err != nil {
		return 0, err
	}

	sel := n.sel.FindMatcher(m)
	sel.Remove()
	return sel.Length(), nil
}

// Render returns the node's outer HTML.
func (n *Node) Render() (string, error) {
	return goquery.OuterHtml(n.sel)
}
