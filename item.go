package harvest

import (
	"fmt"
	"maps"
	"strings"
)

// Kind identifies the value kind an Item produces.
type Kind string

// Supported value kinds.
const (
	KindString   Kind = "string"
	KindInteger  Kind = "integer"
	KindObject   Kind = "object"
	KindSequence Kind = "sequence"
	KindMarkup   Kind = "markup"
)

// Record is an extracted set of named values.
type Record map[string]any

// AttributeKind declares an attribute read by a SequenceItem and the kind
// its value is sanitized as.
type AttributeKind struct {
	Name string
	Kind Kind
}

// Item describes how one field is extracted relative to a scope node.
// Items are configuration: they hold no per-document state and may be
// shared by any number of schemas.
type Item interface {
	// Kind returns the kind of value the item produces.
	Kind() Kind

	// Query returns the item's query expression. Empty means the scope
	// node itself.
	Query() string

	// UseRoot reports whether the item is resolved against the whole
	// document instead of the schema container.
	UseRoot() bool

	// Translatable reports whether the field's value is subject to
	// localization.
	Translatable() bool

	// Extract resolves the item against scope and returns the sanitized
	// value. A nil scope yields the item's absent value. Unmatched queries
	// are not errors.
	Extract(scope Node) (any, error)
}

// ItemOption configures an Item at construction.
type ItemOption func(*itemOptions)

type itemOptions struct {
	useRoot      bool
	translatable bool
	recursive    bool
	sanitizer    Sanitizer
	attr         string
	remove       string
	attributes   []AttributeKind
	child        *Definition
}

// WithRoot resolves the item against the document root instead of the
// schema container.
func WithRoot() ItemOption {
	return func(o *itemOptions) { o.useRoot = true }
}

// Translatable marks the field for localization.
func Translatable() ItemOption {
	return func(o *itemOptions) { o.translatable = true }
}

// WithSanitizer replaces the item's default sanitizer.
func WithSanitizer(fn Sanitizer) ItemOption {
	return func(o *itemOptions) { o.sanitizer = fn }
}

// FromAttr reads the named attribute instead of text content.
// Applies to scalar items.
func FromAttr(name string) ItemOption {
	return func(o *itemOptions) { o.attr = name }
}

// Recursive includes the text of descendant elements.
// Applies to string items; integer items always read descendant text.
func Recursive() ItemOption {
	return func(o *itemOptions) { o.recursive = true }
}

// Removing strips descendants matching query from the matched element
// before it is returned. Applies to markup items.
func Removing(query string) ItemOption {
	return func(o *itemOptions) { o.remove = query }
}

// WithAttributes builds one record per matched element from the declared
// attributes. Applies to sequence items.
func WithAttributes(attrs ...AttributeKind) ItemOption {
	return func(o *itemOptions) { o.attributes = append(o.attributes, attrs...) }
}

// WithChild builds one record per matched element from the fields of def.
// Applies to sequence items.
func WithChild(def *Definition) ItemOption {
	return func(o *itemOptions) { o.child = def }
}

func newItemOptions(opts []ItemOption) *itemOptions {
	o := &itemOptions{}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func (o *itemOptions) base(kind Kind, query string, sanitizer Sanitizer) base {
	if o.sanitizer != nil {
		sanitizer = o.sanitizer
	}
	return base{
		kind:         kind,
		query:        query,
		useRoot:      o.useRoot,
		translatable: o.translatable,
		sanitize:     sanitizer,
	}
}

// base holds the configuration shared by all item variants.
type base struct {
	kind         Kind
	query        string
	useRoot      bool
	translatable bool
	sanitize     Sanitizer
}

func (b *base) Kind() Kind         { return b.kind }
func (b *base) Query() string      { return b.query }
func (b *base) UseRoot() bool      { return b.useRoot }
func (b *base) Translatable() bool { return b.translatable }

// matchOne returns the first match of the item's query within scope, or
// scope itself when the query is empty.
func (b *base) matchOne(scope Node) (Node, error) {
	if b.query == "" {
		return scope, nil
	}
	return scope.Find(b.query)
}

var (
	_ Item = (*ScalarItem)(nil)
	_ Item = (*ObjectItem)(nil)
	_ Item = (*SequenceItem)(nil)
	_ Item = (*MarkupItem)(nil)
)

// ScalarItem extracts a single string or integer.
type ScalarItem struct {
	base
	attr      string
	recursive bool
}

// NewStringItem returns an item extracting trimmed text from the first
// match of query. Only the element's own text is read unless Recursive is
// given. An empty query reads all text of the scope node itself.
func NewStringItem(query string, opts ...ItemOption) *ScalarItem {
	o := newItemOptions(opts)
	return &ScalarItem{
		base:      o.base(KindString, query, SanitizeString),
		attr:      o.attr,
		recursive: o.recursive,
	}
}

// NewIntegerItem returns an item extracting an integer from the text of
// the first match of query, including descendant text.
func NewIntegerItem(query string, opts ...ItemOption) *ScalarItem {
	o := newItemOptions(opts)
	return &ScalarItem{
		base:      o.base(KindInteger, query, SanitizeInteger),
		attr:      o.attr,
		recursive: true,
	}
}

// Attr returns the attribute the item reads, or "" for text content.
func (i *ScalarItem) Attr() string { return i.attr }

// Recursive reports whether descendant text is included.
func (i *ScalarItem) Recursive() bool { return i.recursive }

// Extract returns the sanitized value, or nil when the query has no match.
func (i *ScalarItem) Extract(scope Node) (any, error) {
	if scope == nil {
		return nil, nil
	}

	elem, err := i.matchOne(scope)
	if err != nil {
		return nil, err
	} else if elem == nil {
		return nil, nil
	}

	return i.sanitize(i.read(elem)), nil
}

func (i *ScalarItem) read(elem Node) any {
	if i.attr != "" {
		v, ok := elem.Attr(i.attr)
		if !ok {
			return nil
		}
		return v
	}
	if i.recursive || i.query == "" {
		return elem.Text()
	}
	return strings.TrimSpace(elem.OwnText())
}

// ObjectItem extracts the fields of a child definition against the same
// scope node and returns them as one Record. It has no query of its own.
type ObjectItem struct {
	base
	child       *Definition
	unsupported []string
}

// NewObjectItem returns an item delegating to the fields of child.
// Only WithRoot and Translatable apply; any other option is rejected when
// the enclosing Definition is built, as is an invalid child.
func NewObjectItem(child *Definition, opts ...ItemOption) *ObjectItem {
	o := newItemOptions(opts)
	return &ObjectItem{
		base:        o.base(KindObject, "", Identity),
		child:       child,
		unsupported: o.objectUnsupported(),
	}
}

// objectUnsupported names the options set in o that an ObjectItem ignores.
func (o *itemOptions) objectUnsupported() []string {
	var names []string
	if o.sanitizer != nil {
		names = append(names, "WithSanitizer")
	}
	if o.attr != "" {
		names = append(names, "FromAttr")
	}
	if o.recursive {
		names = append(names, "Recursive")
	}
	if o.remove != "" {
		names = append(names, "Removing")
	}
	if len(o.attributes) > 0 {
		names = append(names, "WithAttributes")
	}
	if o.child != nil {
		names = append(names, "WithChild")
	}
	return names
}

// Child returns the child definition.
func (i *ObjectItem) Child() *Definition { return i.child }

// Extract returns a Record holding every present child value. Values of
// child objects are merged into the result rather than nested. The result
// is empty when no child resolves.
func (i *ObjectItem) Extract(scope Node) (any, error) {
	if i.child == nil {
		return nil, Errorf(EINVALID, "object item has no child definition")
	}

	rec := Record{}
	for _, f := range i.child.fields {
		v, err := f.Item.Extract(scope)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", f.Name, err)
		}
		if !IsPresent(v) {
			continue
		}

		if sub, ok := v.(Record); ok && f.Item.Kind() == KindObject {
			maps.Copy(rec, sub)
			continue
		}
		rec[f.Name] = v
	}
	return rec, nil
}

// SequenceItem extracts one value per element matching its query.
type SequenceItem struct {
	base
	child      *Definition
	attributes []AttributeKind
}

// NewSequenceItem returns an item collecting every match of query. With
// WithChild each match becomes a Record of the child's fields; with
// WithAttributes each match becomes a Record of its attributes; otherwise
// each match contributes its sanitized text.
func NewSequenceItem(query string, opts ...ItemOption) *SequenceItem {
	o := newItemOptions(opts)
	return &SequenceItem{
		base:       o.base(KindSequence, query, Identity),
		child:      o.child,
		attributes: o.attributes,
	}
}

// Child returns the child definition, or nil.
func (i *SequenceItem) Child() *Definition { return i.child }

// Attributes returns the declared attribute kinds.
func (i *SequenceItem) Attributes() []AttributeKind { return i.attributes }

// Extract returns the collected values in document order. It never returns
// a nil slice. Records with any absent value are dropped.
func (i *SequenceItem) Extract(scope Node) (any, error) {
	out := []any{}
	if scope == nil {
		return out, nil
	}

	elems := []Node{scope}
	if i.query != "" {
		var err error
		if elems, err = scope.FindAll(i.query); err != nil {
			return nil, err
		}
	}

	for _, elem := range elems {
		var rec Record
		switch {
		case i.child != nil:
			var err error
			if rec, err = i.childRecord(elem); err != nil {
				return nil, err
			}
		case len(i.attributes) > 0:
			rec = i.attributeRecord(elem)
		default:
			out = append(out, i.sanitize(elem.Text()))
			continue
		}

		if isComplete(rec) {
			out = append(out, rec)
		}
	}
	return out, nil
}

// childRecord extracts every child field against elem. Object children are
// stored under their own key as a fresh Record holding the child's values.
func (i *SequenceItem) childRecord(elem Node) (Record, error) {
	rec := make(Record, len(i.child.fields))
	for _, f := range i.child.fields {
		v, err := f.Item.Extract(elem)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", f.Name, err)
		}

		if f.Item.Kind() == KindObject {
			nested := Record{}
			if sub, ok := v.(Record); ok {
				maps.Copy(nested, sub)
			}
			rec[f.Name] = nested
			continue
		}
		rec[f.Name] = v
	}
	return rec, nil
}

// attributeRecord reads each declared attribute present on elem. The
// element's text is added under "text" when at least one attribute exists.
func (i *SequenceItem) attributeRecord(elem Node) Record {
	rec := Record{}
	for _, a := range i.attributes {
		if v, ok := elem.Attr(a.Name); ok {
			rec[a.Name] = SanitizeKind(v, a.Kind)
		}
	}
	if len(rec) > 0 {
		rec["text"] = elem.Text()
	}
	return rec
}

// isComplete reports whether rec is non-empty and every value is present.
func isComplete(rec Record) bool {
	if len(rec) == 0 {
		return false
	}
	for _, v := range rec {
		if !IsPresent(v) {
			return false
		}
	}
	return true
}

// MarkupItem extracts an element as markup. The result is a *Markup bound
// to the matched node, passed through the item's sanitizer.
type MarkupItem struct {
	base
	remove string
}

// NewMarkupItem returns an item capturing the first match of query.
func NewMarkupItem(query string, opts ...ItemOption) *MarkupItem {
	o := newItemOptions(opts)
	return &MarkupItem{
		base:   o.base(KindMarkup, query, Identity),
		remove: o.remove,
	}
}

// RemoveQuery returns the query of descendants stripped before capture.
func (i *MarkupItem) RemoveQuery() string { return i.remove }

// Extract returns the sanitized *Markup, or nil when the query has no
// match. Descendants matching the removal query are detached from the
// document.
func (i *MarkupItem) Extract(scope Node) (any, error) {
	if scope == nil {
		return nil, nil
	}

	elem, err := i.matchOne(scope)
	if err != nil {
		return nil, err
	} else if elem == nil {
		return nil, nil
	}

	if i.remove != "" {
		if _, err := elem.Remove(i.remove); err != nil {
			return nil, err
		}
	}
	return i.sanitize(NewMarkup(elem)), nil
}
