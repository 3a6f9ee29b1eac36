// Package yaml loads harvest definitions from YAML documents.
//
// A definition lists its fields in order:
//
//	name: article
//	container: article.post
//	fields:
//	  - name: title
//	    query: h1
//	    translate: true
//	  - name: views
//	    kind: integer
//	    query: .views
//	  - name: tags
//	    kind: sequence
//	    query: a.tag
//	    sanitizer: string
//	  - name: meta
//	    kind: object
//	    child:
//	      fields:
//	        - name: author
//	          query: .author
//
// Kind defaults to string.
package yaml

import (
	"bytes"
	"errors"
	"io"

	"github.com/fwojciec/harvest"
	"gopkg.in/yaml.v3"
)

type definitionSpec struct {
	Name      string      `yaml:"name"`
	Container string      `yaml:"container"`
	Fields    []fieldSpec `yaml:"fields"`
}

type fieldSpec struct {
	Name       string          `yaml:"name"`
	Kind       string          `yaml:"kind"`
	Query      string          `yaml:"query"`
	Attr       string          `yaml:"attr"`
	Recursive  bool            `yaml:"recursive"`
	Root       bool            `yaml:"root"`
	Translate  bool            `yaml:"translate"`
	Remove     string          `yaml:"remove"`
	Sanitizer  string          `yaml:"sanitizer"`
	Attributes []attributeSpec `yaml:"attributes"`
	Child      *definitionSpec `yaml:"child"`
}

type attributeSpec struct {
	Name string `yaml:"name"`
	Kind string `yaml:"kind"`
}

var sanitizers = map[string]harvest.Sanitizer{
	"string":   harvest.SanitizeString,
	"integer":  harvest.SanitizeInteger,
	"identity": harvest.Identity,
}

// LoadDefinition decodes a single definition from r.
// Returns EINVALID for malformed YAML, unknown keys, kinds or sanitizers,
// and for any error reported by harvest.NewDefinition.
func LoadDefinition(r io.Reader) (*harvest.Definition, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var spec definitionSpec
	if err := dec.Decode(&spec); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, harvest.Errorf(harvest.EINVALID, "empty definition")
		}
		return nil, harvest.Errorf(harvest.EINVALID, "failed to decode definition: %v", err)
	}
	return build(&spec, spec.Name)
}

// DecodeDefinition decodes a single definition from data.
func DecodeDefinition(data []byte) (*harvest.Definition, error) {
	return LoadDefinition(bytes.NewReader(data))
}

func build(spec *definitionSpec, name string) (*harvest.Definition, error) {
	if spec.Name != "" {
		name = spec.Name
	}

	fields := make([]harvest.Field, 0, len(spec.Fields))
	for _, f := range spec.Fields {
		item, err := buildItem(f, name+"."+f.Name)
		if err != nil {
			return nil, err
		}
		fields = append(fields, harvest.Field{Name: f.Name, Item: item})
	}
	return harvest.NewDefinition(name, spec.Container, fields...)
}

func buildItem(f fieldSpec, path string) (harvest.Item, error) {
	var opts []harvest.ItemOption
	if f.Root {
		opts = append(opts, harvest.WithRoot())
	}
	if f.Translate {
		opts = append(opts, harvest.Translatable())
	}
	if f.Attr != "" {
		opts = append(opts, harvest.FromAttr(f.Attr))
	}
	if f.Recursive {
		opts = append(opts, harvest.Recursive())
	}
	if f.Remove != "" {
		opts = append(opts, harvest.Removing(f.Remove))
	}
	if f.Sanitizer != "" {
		s, ok := sanitizers[f.Sanitizer]
		if !ok {
			return nil, harvest.Errorf(harvest.EINVALID, "%s: unknown sanitizer %q", path, f.Sanitizer)
		}
		opts = append(opts, harvest.WithSanitizer(s))
	}

	switch kind := harvest.Kind(f.Kind); kind {
	case "", harvest.KindString:
		return harvest.NewStringItem(f.Query, opts...), nil

	case harvest.KindInteger:
		return harvest.NewIntegerItem(f.Query, opts...), nil

	case harvest.KindMarkup:
		return harvest.NewMarkupItem(f.Query, opts...), nil

	case harvest.KindObject:
		if f.Child == nil {
			return nil, harvest.Errorf(harvest.EINVALID, "%s: object field requires a child definition", path)
		}
		child, err := build(f.Child, f.Name)
		if err != nil {
			return nil, err
		}
		return harvest.NewObjectItem(child, opts...), nil

	case harvest.KindSequence:
		if f.Child != nil {
			child, err := build(f.Child, f.Name)
			if err != nil {
				return nil, err
			}
			opts = append(opts, harvest.WithChild(child))
		}
		for _, a := range f.Attributes {
			switch k := harvest.Kind(a.Kind); k {
			case "", harvest.KindString:
				opts = append(opts, harvest.WithAttributes(harvest.AttributeKind{Name: a.Name, Kind: harvest.KindString}))
			case harvest.KindInteger:
				opts = append(opts, harvest.WithAttributes(harvest.AttributeKind{Name: a.Name, Kind: k}))
			default:
				return nil, harvest.Errorf(harvest.EINVALID, "%s: unsupported attribute kind %q", path, a.Kind)
			}
		}
		return harvest.NewSequenceItem(f.Query, opts...), nil

	default:
		return nil, harvest.Errorf(harvest.EINVALID, "%s: unknown kind %q", path, f.Kind)
	}
}
