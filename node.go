package harvest

import "io"

// Node is an element in a parsed document tree. Implementations resolve
// query expressions in their own dialect (CSS selectors, XPath, element
// paths); the extraction model never interprets queries itself.
type Node interface {
	// Find returns the first descendant matching query.
	// Returns a nil Node and no error if nothing matches.
	// Returns EINVALID if the query cannot be compiled.
	Find(query string) (Node, error)

	// FindAll returns all descendants matching query in document order.
	// Returns an empty slice if nothing matches.
	FindAll(query string) ([]Node, error)

	// Text returns the concatenated text of the node and all its descendants.
	Text() string

	// OwnText returns the concatenated text of the node's direct text
	// children, ignoring text inside descendant elements.
	OwnText() string

	// Attr returns the value of the named attribute and whether it exists.
	Attr(name string) (string, bool)

	// Remove detaches all descendants matching query from the tree and
	// returns how many were removed. This mutates the document.
	Remove(query string) (int, error)

	// Render returns the node's outer markup.
	Render() (string, error)
}

// Document is the root of a parsed document tree.
type Document interface {
	Node

	// StripComments removes all comment nodes from the tree and returns
	// the number removed.
	StripComments() int
}

// Parser turns raw markup into a navigable Document.
type Parser interface {
	Parse(r io.Reader) (Document, error)
}
