package mock

import (
	"io"

	"github.com/fwojciec/harvest"
)

var _ harvest.Node = (*Node)(nil)

// Node is a mock implementation of harvest.Node.
type Node struct {
	FindFn    func(query string) (harvest.Node, error)
	FindAllFn func(query string) ([]harvest.Node, error)
	TextFn    func() string
	OwnTextFn func() string
	AttrFn    func(name string) (string, bool)
	RemoveFn  func(query string) (int, error)
	RenderFn  func() (string, error)
}

func (n *Node) Find(query string) (harvest.Node, error) {
	return n.FindFn(query)
}

func (n *Node) FindAll(query string) ([]harvest.Node, error) {
	return n.FindAllFn(query)
}

func (n *Node) Text() string {
	return n.TextFn()
}

func (n *Node) OwnText() string {
	return n.OwnTextFn()
}

func (n *Node) Attr(name string) (string, bool) {
	return n.AttrFn(name)
}

func (n *Node) Remove(query string) (int, error) {
	return n.RemoveFn(query)
}

func (n *Node) Render() (string, error) {
	return n.RenderFn()
}

var _ harvest.Document = (*Document)(nil)

// Document is a mock implementation of harvest.Document.
type Document struct {
	Node
	StripCommentsFn func() int
}

func (d *Document) StripComments() int {
	return d.StripCommentsFn()
}

var _ harvest.Parser = (*Parser)(nil)

// Parser is a mock implementation of harvest.Parser.
type Parser struct {
	ParseFn func(r io.Reader) (harvest.Document, error)
}

func (p *Parser) Parse(r io.Reader) (harvest.Document, error) {
	return p.ParseFn(r)
}
