// Package etree implements harvest documents for XML, queried with etree
// element paths such as "./channel/item" or ".//title".
package etree

import (
	"io"
	"strings"

	"github.com/beevik/etree"
	"github.com/fwojciec/harvest"
	lru "github.com/hashicorp/golang-lru/v2"
)

// Ensure types implement the harvest interfaces at compile time.
var (
	_ harvest.Parser   = (*Parser)(nil)
	_ harvest.Document = (*Document)(nil)
	_ harvest.Node     = (*Node)(nil)
)

const pathCacheSize = 256

var paths = newPathCache(pathCacheSize)

func newPathCache(size int) *lru.Cache[string, etree.Path] {
	c, err := lru.New[string, etree.Path](size)
	if err != nil {
		panic(err)
	}
	return c
}

func compile(query string) (etree.Path, error) {
	if p, ok := paths.Get(query); ok {
		return p, nil
	}

	p, err := etree.CompilePath(query)
	if err != nil {
		return etree.Path{}, harvest.Errorf(harvest.EINVALID, "invalid path %q: %v", query, err)
	}
	paths.Add(query, p)
	return p, nil
}

// Parser parses XML documents.
type Parser struct{}

// NewParser creates a new Parser.
func NewParser() *Parser {
	return &Parser{}
}

// Parse reads an XML document from r.
func (p *Parser) Parse(r io.Reader) (harvest.Document, error) {
	doc := etree.NewDocument()
	if _, err := doc.ReadFrom(r); err != nil {
		return nil, harvest.Errorf(harvest.EINVALID, "failed to parse XML: %v", err)
	}
	return NewDocument(doc), nil
}

// ParseString parses an XML string.
func ParseString(markup string) (*Document, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromString(markup); err != nil {
		return nil, harvest.Errorf(harvest.EINVALID, "failed to parse XML: %v", err)
	}
	return NewDocument(doc), nil
}

// Document wraps an etree document.
type Document struct {
	Node
	doc *etree.Document
}

// NewDocument wraps an already parsed etree document.
func NewDocument(doc *etree.Document) *Document {
	return &Document{Node: Node{e: &doc.Element}, doc: doc}
}

// StripComments removes every comment from the document.
func (d *Document) StripComments() int {
	return stripComments(&d.doc.Element)
}

func stripComments(e *etree.Element) int {
	var comments []etree.Token
	removed := 0
	for _, t := range e.Child {
		switch t := t.(type) {
		case *etree.Comment:
			comments = append(comments, t)
		case *etree.Element:
			removed += stripComments(t)
		}
	}
	for _, c := range comments {
		e.RemoveChild(c)
	}
	return removed + len(comments)
}

// Render returns the whole document as XML.
func (d *Document) Render() (string, error) {
	return d.doc.WriteToString()
}

// Node wraps an etree element.
type Node struct {
	e *etree.Element
}

// Element returns the underlying etree element.
func (n *Node) Element() *etree.Element {
	return n.e
}

// Find returns the first element selected by the path.
func (n *Node) Find(query string) (harvest.Node, error) {
	p, err := compile(query)
	if err != nil {
		return nil, err
	}

	e := n.e.FindElementPath(p)
	if e == nil {
		return nil, nil
	}
	return &Node{e: e}, nil
}

// FindAll returns every element selected by the path.
func (n *Node) FindAll(query string) ([]harvest.Node, error) {
	p, err := compile(query)
	if err != nil {
		return nil, err
	}

	found := n.e.FindElementsPath(p)
	nodes := make([]harvest.Node, 0, len(found))
	for _, e := range found {
		nodes = append(nodes, &Node{e: e})
	}
	return nodes, nil
}

// Text returns the combined character data of the element and its
// descendants.
func (n *Node) Text() string {
	var sb strings.Builder
	writeText(&sb, n.e)
	return sb.String()
}

func writeText(sb *strings.Builder, e *etree.Element) {
	for _, t := range e.Child {
		switch t := t.(type) {
		case *etree.CharData:
			sb.WriteString(t.Data)
		case *etree.Element:
			writeText(sb, t)
		}
	}
}

// OwnText returns the combined character data directly inside the element.
func (n *Node) OwnText() string {
	var sb strings.Builder
	for _, t := range n.e.Child {
		if cd, ok := t.(*etree.CharData); ok {
			sb.WriteString(cd.Data)
		}
	}
	return sb.String()
}

// Attr returns the named attribute of the element.
func (n *Node) Attr(name string) (string, bool) {
	a := n.e.SelectAttr(name)
	if a == nil {
		return "", false
	}
	return a.Value, true
}

// Remove detaches every element selected by the path.
func (n *Node) Remove(query string) (int, error) {
	p, err := compile(query)
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, e := range n.e.FindElementsPath(p) {
		parent := e.Parent()
		if parent == nil || e == n.e {
			continue
		}
		parent.RemoveChild(e)
		removed++
	}
	return removed, nil
}

// Render returns the element's outer XML.
func (n *Node) Render() (string, error) {
	doc := etree.NewDocument()
	doc.SetRoot(n.e.Copy())
	return doc.WriteToString()
}
