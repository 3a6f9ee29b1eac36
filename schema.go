package harvest

import (
	"fmt"
	"io"
	"maps"
	"strings"

	"golang.org/x/sync/errgroup"
)

// Field binds a name to an Item.
type Field struct {
	Name string
	Item Item
}

// Definition is a named, ordered set of fields plus the container query
// that scopes them. A Definition is immutable once built and may be shared
// across any number of schemas and goroutines.
type Definition struct {
	name      string
	container string
	fields    []Field
	index     map[string]int
}

// NewDefinition validates fields and returns a Definition.
// Returns EINVALID for unnamed or duplicate fields, object items without a
// valid child definition or with options they ignore, sequence items
// combining a child definition with attribute kinds, and fields whose
// flattened record keys collide. Returns ENOTIMPLEMENTED for fields without an item.
func NewDefinition(name, container string, fields ...Field) (*Definition, error) {
	def := &Definition{
		name:      name,
		container: container,
		fields:    make([]Field, 0, len(fields)),
		index:     make(map[string]int, len(fields)),
	}

	for _, f := range fields {
		if f.Name == "" {
			return nil, Errorf(EINVALID, "%s: field name required", name)
		}
		if _, ok := def.index[f.Name]; ok {
			return nil, Errorf(EINVALID, "%s: duplicate field %q", name, f.Name)
		}
		if f.Item == nil {
			return nil, Errorf(ENOTIMPLEMENTED, "%s.%s: no item", name, f.Name)
		}
		if err := validateItem(f.Item); err != nil {
			return nil, Errorf(ErrorCode(err), "%s.%s: %s", name, f.Name, ErrorMessage(err))
		}

		def.index[f.Name] = len(def.fields)
		def.fields = append(def.fields, f)
	}

	owners := make(map[string]string, len(def.fields))
	for _, f := range def.fields {
		for _, key := range recordKeys(f) {
			if owner, ok := owners[key]; ok {
				return nil, Errorf(EINVALID, "%s.%s: key %q already produced by field %q", name, f.Name, key, owner)
			}
			owners[key] = f.Name
		}
	}

	return def, nil
}

// recordKeys returns the keys f contributes to a flattened record. Object
// fields contribute their child's keys instead of their own name.
func recordKeys(f Field) []string {
	obj, ok := f.Item.(*ObjectItem)
	if !ok {
		return []string{f.Name}
	}

	var keys []string
	for _, cf := range obj.child.fields {
		keys = append(keys, recordKeys(cf)...)
	}
	return keys
}

// MustDefinition is like NewDefinition but panics on error. It simplifies
// declaring definitions as package-level variables.
func MustDefinition(name, container string, fields ...Field) *Definition {
	def, err := NewDefinition(name, container, fields...)
	if err != nil {
		panic(err)
	}
	return def
}

func validateItem(item Item) error {
	switch item := item.(type) {
	case *ObjectItem:
		if !item.child.valid() {
			return Errorf(EINVALID, "object item requires a child definition built with NewDefinition")
		}
		if len(item.unsupported) > 0 {
			return Errorf(EINVALID, "object item does not support %s", strings.Join(item.unsupported, ", "))
		}
	case *SequenceItem:
		if item.child != nil && len(item.attributes) > 0 {
			return Errorf(EINVALID, "sequence item cannot combine a child definition with attributes")
		}
		if item.child != nil && !item.child.valid() {
			return Errorf(EINVALID, "sequence child must be built with NewDefinition")
		}
	}
	return nil
}

// valid reports whether d was built by NewDefinition.
func (d *Definition) valid() bool {
	return d != nil && d.index != nil
}

// Name returns the definition name.
func (d *Definition) Name() string { return d.name }

// Container returns the container query. Empty means the document root.
func (d *Definition) Container() string { return d.container }

// Fields returns the declared fields in declaration order.
func (d *Definition) Fields() []Field {
	return append([]Field(nil), d.fields...)
}

// Field returns the item declared under name.
func (d *Definition) Field(name string) (Item, bool) {
	i, ok := d.index[name]
	if !ok {
		return nil, false
	}
	return d.fields[i].Item, true
}

// TranslatableKeys returns the slash-delimited paths of all translatable
// fields, descending into child definitions breadth first. Fields with a
// child definition contribute their children's paths, never their own.
func (d *Definition) TranslatableKeys() []string {
	type entry struct {
		path string
		item Item
	}

	queue := make([]entry, 0, len(d.fields))
	for _, f := range d.fields {
		queue = append(queue, entry{path: f.Name, item: f.Item})
	}

	var keys []string
	for len(queue) > 0 {
		e := queue[0]
		queue = queue[1:]

		if child := childOf(e.item); child != nil {
			for _, f := range child.fields {
				queue = append(queue, entry{path: e.path + "/" + f.Name, item: f.Item})
			}
			continue
		}

		if e.item.Translatable() {
			keys = append(keys, "/"+e.path)
		}
	}
	return keys
}

// mutates reports whether extracting d detaches nodes from the document.
func (d *Definition) mutates() bool {
	for _, f := range d.fields {
		if m, ok := f.Item.(*MarkupItem); ok && m.remove != "" {
			return true
		}
		if child := childOf(f.Item); child != nil && child.mutates() {
			return true
		}
	}
	return false
}

func childOf(item Item) *Definition {
	if c, ok := item.(interface{ Child() *Definition }); ok {
		return c.Child()
	}
	return nil
}

// Extractor produces values from a single document.
type Extractor interface {
	// Extract returns the value of the named field.
	// Returns ENOTFOUND if the field is not declared.
	Extract(name string) (any, error)

	// ExtractAll returns a Record holding every declared field.
	ExtractAll() (Record, error)
}

var _ Extractor = (*Schema)(nil)

// SchemaOption configures a Schema.
type SchemaOption func(*Schema)

// KeepComments leaves comment nodes in the document.
func KeepComments() SchemaOption {
	return func(s *Schema) { s.keepComments = true }
}

// WithConcurrency extracts up to n fields in parallel in ExtractAll.
// Definitions that detach nodes are always extracted sequentially.
func WithConcurrency(n int) SchemaOption {
	return func(s *Schema) { s.concurrency = n }
}

// WithConverter renders markup values as Markdown in ExtractAll instead of
// collapsed markup.
func WithConverter(c Converter) SchemaOption {
	return func(s *Schema) { s.converter = c }
}

// Schema applies a Definition to one document. A Schema owns its document
// for the duration of an extraction and must not be used concurrently.
type Schema struct {
	def *Definition
	doc Document

	keepComments bool
	concurrency  int
	converter    Converter
}

// NewSchema binds def to an already parsed document. Comment nodes are
// stripped from the document unless KeepComments is given.
func NewSchema(def *Definition, doc Document, opts ...SchemaOption) *Schema {
	s := &Schema{def: def, doc: doc}
	for _, opt := range opts {
		opt(s)
	}

	if !s.keepComments {
		doc.StripComments()
	}
	return s
}

// Load parses raw markup with p and binds def to the resulting document.
func Load(p Parser, def *Definition, r io.Reader, opts ...SchemaOption) (*Schema, error) {
	doc, err := p.Parse(r)
	if err != nil {
		return nil, err
	}
	return NewSchema(def, doc, opts...), nil
}

// Definition returns the schema's definition.
func (s *Schema) Definition() *Definition { return s.def }

// Document returns the bound document.
func (s *Schema) Document() Document { return s.doc }

// Fields returns the declared fields in declaration order.
func (s *Schema) Fields() []Field { return s.def.Fields() }

// Extract returns the value of the named field resolved against the
// container, or the document root for root-scoped fields. Markup fields
// yield a *Markup.
func (s *Schema) Extract(name string) (any, error) {
	item, ok := s.def.Field(name)
	if !ok {
		return nil, Errorf(ENOTFOUND, "field %q not declared in %s", name, s.def.name)
	}

	scope := Node(s.doc)
	if !item.UseRoot() {
		container, err := s.container()
		if err != nil {
			return nil, err
		}
		scope = container
	}

	return item.Extract(scope)
}

// ExtractAll extracts every declared field into one flat Record. Values of
// object fields are merged into the record; every other field has an
// entry, nil included. Markup values are serialized.
func (s *Schema) ExtractAll() (Record, error) {
	container, err := s.container()
	if err != nil {
		return nil, err
	}

	fields := s.def.fields
	values := make([]any, len(fields))

	extract := func(i int) error {
		f := fields[i]
		scope := container
		if f.Item.UseRoot() {
			scope = s.doc
		}

		v, err := f.Item.Extract(scope)
		if err != nil {
			return fmt.Errorf("extract %s: %w", f.Name, err)
		}
		if values[i], err = s.settle(v); err != nil {
			return fmt.Errorf("serialize %s: %w", f.Name, err)
		}
		return nil
	}

	if s.concurrency > 1 && !s.def.mutates() {
		var g errgroup.Group
		g.SetLimit(s.concurrency)
		for i := range fields {
			g.Go(func() error { return extract(i) })
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	} else {
		for i := range fields {
			if err := extract(i); err != nil {
				return nil, err
			}
		}
	}

	rec := make(Record, len(fields))
	for i, f := range fields {
		if sub, ok := values[i].(Record); ok && f.Item.Kind() == KindObject {
			maps.Copy(rec, sub)
			continue
		}
		rec[f.Name] = values[i]
	}
	return rec, nil
}

// container resolves the container query. It returns a nil Node when the
// container does not match.
func (s *Schema) container() (Node, error) {
	if s.def.container == "" {
		return s.doc, nil
	}
	return s.doc.Find(s.def.container)
}

// settle replaces every *Markup in v with its string form.
func (s *Schema) settle(v any) (any, error) {
	return Settle(v, s.converter)
}
