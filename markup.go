package harvest

import "regexp"

// whitespaceRe matches runs of whitespace, including Unicode spaces.
var whitespaceRe = regexp.MustCompile(`[\s\v\p{Z}\x{85}]+`)

// Markup is the result of a MarkupItem extraction. It is scoped to one
// extraction call and stays valid as long as the document it came from.
type Markup struct {
	node Node
}

// NewMarkup returns a Markup bound to node.
func NewMarkup(node Node) *Markup {
	return &Markup{node: node}
}

// Node returns the captured node.
func (m *Markup) Node() Node {
	if m == nil {
		return nil
	}
	return m.node
}

// Serialize returns the captured node's outer markup with every run of
// whitespace collapsed to a single space.
// Returns EINVALID if no node has been captured.
func (m *Markup) Serialize() (string, error) {
	s, err := m.render()
	if err != nil {
		return "", err
	}
	return whitespaceRe.ReplaceAllString(s, " "), nil
}

// Markdown converts the captured node's outer markup using c.
// Returns EINVALID if no node has been captured.
func (m *Markup) Markdown(c Converter) (string, error) {
	s, err := m.render()
	if err != nil {
		return "", err
	}
	return c.Convert(s)
}

func (m *Markup) render() (string, error) {
	if m == nil || m.node == nil {
		return "", Errorf(EINVALID, "markup not yet extracted")
	}
	return m.node.Render()
}

// Settle replaces every *Markup in v, including markup nested in records
// and sequences, with its string form. Markup is converted with c when c is
// non-nil and serialized otherwise. Records and sequences are updated in
// place.
func Settle(v any, c Converter) (any, error) {
	switch v := v.(type) {
	case *Markup:
		if c != nil {
			return v.Markdown(c)
		}
		return v.Serialize()
	case Record:
		for k, sub := range v {
			settled, err := Settle(sub, c)
			if err != nil {
				return nil, err
			}
			v[k] = settled
		}
	case []any:
		for i, sub := range v {
			settled, err := Settle(sub, c)
			if err != nil {
				return nil, err
			}
			v[i] = settled
		}
	}
	return v, nil
}
