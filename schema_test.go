package harvest_test

import (
	"io"
	"strings"
	"testing"

	"github.com/fwojciec/harvest"
	"github.com/fwojciec/harvest/goquery"
	"github.com/fwojciec/harvest/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefinition(t *testing.T) {
	t.Parallel()

	t.Run("keeps fields in declaration order", func(t *testing.T) {
		t.Parallel()

		def, err := harvest.NewDefinition("post", "article",
			harvest.Field{Name: "b", Item: harvest.NewStringItem("b")},
			harvest.Field{Name: "a", Item: harvest.NewStringItem("a")},
		)

		require.NoError(t, err)
		fields := def.Fields()
		require.Len(t, fields, 2)
		assert.Equal(t, "b", fields[0].Name)
		assert.Equal(t, "a", fields[1].Name)
		assert.Equal(t, "article", def.Container())

		item, ok := def.Field("a")
		assert.True(t, ok)
		assert.Equal(t, "a", item.Query())
		_, ok = def.Field("c")
		assert.False(t, ok)
	})

	t.Run("returns EINVALID for duplicate field names", func(t *testing.T) {
		t.Parallel()

		_, err := harvest.NewDefinition("post", "",
			harvest.Field{Name: "a", Item: harvest.NewStringItem("a")},
			harvest.Field{Name: "a", Item: harvest.NewStringItem("b")},
		)

		require.Error(t, err)
		assert.Equal(t, harvest.EINVALID, harvest.ErrorCode(err))
	})

	t.Run("returns EINVALID for unnamed fields", func(t *testing.T) {
		t.Parallel()

		_, err := harvest.NewDefinition("post", "", harvest.Field{Item: harvest.NewStringItem("a")})

		require.Error(t, err)
		assert.Equal(t, harvest.EINVALID, harvest.ErrorCode(err))
	})

	t.Run("returns ENOTIMPLEMENTED for fields without an item", func(t *testing.T) {
		t.Parallel()

		_, err := harvest.NewDefinition("post", "", harvest.Field{Name: "a"})

		require.Error(t, err)
		assert.Equal(t, harvest.ENOTIMPLEMENTED, harvest.ErrorCode(err))
	})

	t.Run("returns EINVALID for object without child", func(t *testing.T) {
		t.Parallel()

		_, err := harvest.NewDefinition("post", "", harvest.Field{Name: "meta", Item: harvest.NewObjectItem(nil)})

		require.Error(t, err)
		assert.Equal(t, harvest.EINVALID, harvest.ErrorCode(err))
		assert.Contains(t, harvest.ErrorMessage(err), "post.meta")
	})

	t.Run("returns EINVALID for sequence with child and attributes", func(t *testing.T) {
		t.Parallel()

		child := harvest.MustDefinition("row", "", harvest.Field{Name: "x", Item: harvest.NewStringItem("x")})
		item := harvest.NewSequenceItem("tr",
			harvest.WithChild(child),
			harvest.WithAttributes(harvest.AttributeKind{Name: "id", Kind: harvest.KindString}),
		)

		_, err := harvest.NewDefinition("table", "", harvest.Field{Name: "rows", Item: item})

		require.Error(t, err)
		assert.Equal(t, harvest.EINVALID, harvest.ErrorCode(err))
	})

	t.Run("returns EINVALID for colliding flattened keys", func(t *testing.T) {
		t.Parallel()

		meta := harvest.MustDefinition("meta", "",
			harvest.Field{Name: "title", Item: harvest.NewStringItem(".meta-title")},
		)

		_, err := harvest.NewDefinition("page", "",
			harvest.Field{Name: "meta", Item: harvest.NewObjectItem(meta)},
			harvest.Field{Name: "title", Item: harvest.NewStringItem("h1")},
		)

		require.Error(t, err)
		assert.Equal(t, harvest.EINVALID, harvest.ErrorCode(err))
		assert.Contains(t, harvest.ErrorMessage(err), `key "title" already produced by field "meta"`)
	})

	t.Run("returns EINVALID for keys colliding through nested objects", func(t *testing.T) {
		t.Parallel()

		inner := harvest.MustDefinition("inner", "", harvest.Field{Name: "id", Item: harvest.NewIntegerItem(".id")})
		outer := harvest.MustDefinition("outer", "", harvest.Field{Name: "inner", Item: harvest.NewObjectItem(inner)})

		_, err := harvest.NewDefinition("page", "",
			harvest.Field{Name: "id", Item: harvest.NewIntegerItem("#id")},
			harvest.Field{Name: "outer", Item: harvest.NewObjectItem(outer)},
		)

		require.Error(t, err)
		assert.Equal(t, harvest.EINVALID, harvest.ErrorCode(err))
	})

	t.Run("returns EINVALID for options an object item ignores", func(t *testing.T) {
		t.Parallel()

		child := harvest.MustDefinition("meta", "", harvest.Field{Name: "x", Item: harvest.NewStringItem(".x")})

		for name, opt := range map[string]harvest.ItemOption{
			"WithSanitizer": harvest.WithSanitizer(harvest.SanitizeString),
			"FromAttr":      harvest.FromAttr("href"),
			"Recursive":     harvest.Recursive(),
			"Removing":      harvest.Removing("script"),
		} {
			_, err := harvest.NewDefinition("page", "", harvest.Field{Name: "meta", Item: harvest.NewObjectItem(child, opt)})

			require.Error(t, err, name)
			assert.Equal(t, harvest.EINVALID, harvest.ErrorCode(err), name)
			assert.Contains(t, harvest.ErrorMessage(err), name)
		}
	})

	t.Run("accepts root and translatable object items", func(t *testing.T) {
		t.Parallel()

		child := harvest.MustDefinition("meta", "", harvest.Field{Name: "x", Item: harvest.NewStringItem(".x")})

		_, err := harvest.NewDefinition("page", "",
			harvest.Field{Name: "meta", Item: harvest.NewObjectItem(child, harvest.WithRoot(), harvest.Translatable())},
		)

		require.NoError(t, err)
	})

	t.Run("MustDefinition panics on invalid fields", func(t *testing.T) {
		t.Parallel()

		assert.Panics(t, func() {
			harvest.MustDefinition("post", "", harvest.Field{Name: "a"})
		})
	})
}

func TestDefinition_TranslatableKeys(t *testing.T) {
	t.Parallel()

	t.Run("descends into child definitions", func(t *testing.T) {
		t.Parallel()

		def := harvest.MustDefinition("page", "",
			harvest.Field{Name: "title", Item: harvest.NewStringItem("h1", harvest.Translatable())},
			harvest.Field{Name: "meta", Item: harvest.NewObjectItem(harvest.MustDefinition("meta", "",
				harvest.Field{Name: "desc", Item: harvest.NewStringItem(".desc", harvest.Translatable())},
				harvest.Field{Name: "id", Item: harvest.NewIntegerItem(".id")},
			))},
		)

		assert.Equal(t, []string{"/title", "/meta/desc"}, def.TranslatableKeys())
	})

	t.Run("visits shallow paths before deep ones", func(t *testing.T) {
		t.Parallel()

		row := harvest.MustDefinition("row", "",
			harvest.Field{Name: "label", Item: harvest.NewStringItem(".label", harvest.Translatable())},
		)
		def := harvest.MustDefinition("page", "",
			harvest.Field{Name: "rows", Item: harvest.NewSequenceItem("tr", harvest.WithChild(row))},
			harvest.Field{Name: "heading", Item: harvest.NewStringItem("h2", harvest.Translatable())},
		)

		assert.Equal(t, []string{"/heading", "/rows/label"}, def.TranslatableKeys())
	})

	t.Run("treats sequences without child as leaves", func(t *testing.T) {
		t.Parallel()

		def := harvest.MustDefinition("page", "",
			harvest.Field{Name: "tags", Item: harvest.NewSequenceItem("a.tag", harvest.Translatable())},
			harvest.Field{Name: "body", Item: harvest.NewMarkupItem(".body")},
		)

		assert.Equal(t, []string{"/tags"}, def.TranslatableKeys())
	})

	t.Run("returns nil without translatable fields", func(t *testing.T) {
		t.Parallel()

		def := harvest.MustDefinition("page", "", harvest.Field{Name: "id", Item: harvest.NewIntegerItem(".id")})

		assert.Empty(t, def.TranslatableKeys())
	})
}

const pageHTML = `<html><head><link rel="canonical" href="https://example.com/p"></head><body>
<!-- tracking -->
<header><h1>Site</h1></header>
<article>
	<h1>Post</h1>
	<span class="x">X</span><span class="y">2</span>
	<ul><li>one</li><li>two</li></ul>
	<div class="body"><p>a   b</p><script>x()</script></div>
</article>
</body></html>`

func pageDefinition() *harvest.Definition {
	return harvest.MustDefinition("page", "article",
		harvest.Field{Name: "title", Item: harvest.NewStringItem("h1")},
		harvest.Field{Name: "canonical", Item: harvest.NewStringItem("link[rel=canonical]", harvest.FromAttr("href"), harvest.WithRoot())},
		harvest.Field{Name: "b", Item: harvest.NewObjectItem(harvest.MustDefinition("b", "",
			harvest.Field{Name: "x", Item: harvest.NewStringItem(".x")},
			harvest.Field{Name: "y", Item: harvest.NewIntegerItem(".y")},
		))},
		harvest.Field{Name: "items", Item: harvest.NewSequenceItem("li", harvest.WithSanitizer(harvest.SanitizeString))},
		harvest.Field{Name: "missing", Item: harvest.NewStringItem(".missing")},
		harvest.Field{Name: "body", Item: harvest.NewMarkupItem(".body", harvest.Removing("script"))},
	)
}

func TestSchema_Extract(t *testing.T) {
	t.Parallel()

	t.Run("resolves fields against the container", func(t *testing.T) {
		t.Parallel()

		s := harvest.NewSchema(pageDefinition(), parse(t, pageHTML))

		v, err := s.Extract("title")

		require.NoError(t, err)
		assert.Equal(t, "Post", v)
	})

	t.Run("resolves root fields against the document", func(t *testing.T) {
		t.Parallel()

		s := harvest.NewSchema(pageDefinition(), parse(t, pageHTML))

		v, err := s.Extract("canonical")

		require.NoError(t, err)
		assert.Equal(t, "https://example.com/p", v)
	})

	t.Run("returns markup for markup fields", func(t *testing.T) {
		t.Parallel()

		s := harvest.NewSchema(pageDefinition(), parse(t, pageHTML))

		v, err := s.Extract("body")

		require.NoError(t, err)
		m, ok := v.(*harvest.Markup)
		require.True(t, ok)
		html, err := m.Serialize()
		require.NoError(t, err)
		assert.Equal(t, `<div class="body"><p>a b</p></div>`, html)
	})

	t.Run("returns ENOTFOUND for undeclared fields", func(t *testing.T) {
		t.Parallel()

		s := harvest.NewSchema(pageDefinition(), parse(t, pageHTML))

		_, err := s.Extract("nope")

		require.Error(t, err)
		assert.Equal(t, harvest.ENOTFOUND, harvest.ErrorCode(err))
	})

	t.Run("returns absent values when the container does not match", func(t *testing.T) {
		t.Parallel()

		s := harvest.NewSchema(pageDefinition(), parse(t, `<div><h1>Elsewhere</h1><li>x</li></div>`))

		title, err := s.Extract("title")
		require.NoError(t, err)
		items, err := s.Extract("items")
		require.NoError(t, err)

		assert.Nil(t, title)
		assert.Equal(t, []any{}, items)
	})
}

func TestSchema_ExtractAll(t *testing.T) {
	t.Parallel()

	want := harvest.Record{
		"title":     "Post",
		"canonical": "https://example.com/p",
		"x":         "X",
		"y":         2,
		"items":     []any{"one", "two"},
		"missing":   nil,
		"body":      `<div class="body"><p>a b</p></div>`,
	}

	t.Run("returns one flat record", func(t *testing.T) {
		t.Parallel()

		rec, err := harvest.NewSchema(pageDefinition(), parse(t, pageHTML)).ExtractAll()

		require.NoError(t, err)
		assert.Equal(t, want, rec)
		assert.NotContains(t, rec, "b")
	})

	t.Run("flattens object fields into the top level", func(t *testing.T) {
		t.Parallel()

		def := harvest.MustDefinition("flat", "",
			harvest.Field{Name: "a", Item: harvest.NewStringItem(".a")},
			harvest.Field{Name: "b", Item: harvest.NewObjectItem(harvest.MustDefinition("b", "",
				harvest.Field{Name: "x", Item: harvest.NewStringItem(".x")},
				harvest.Field{Name: "y", Item: harvest.NewStringItem(".y")},
			))},
		)
		doc := parse(t, `<p class="a">A</p><p class="x">X</p><p class="y">Y</p>`)

		rec, err := harvest.NewSchema(def, doc).ExtractAll()

		require.NoError(t, err)
		keys := make([]string, 0, len(rec))
		for k := range rec {
			keys = append(keys, k)
		}
		assert.ElementsMatch(t, []string{"a", "x", "y"}, keys)
	})

	t.Run("returns the same record when repeated", func(t *testing.T) {
		t.Parallel()

		s := harvest.NewSchema(pageDefinition(), parse(t, pageHTML))

		first, err := s.ExtractAll()
		require.NoError(t, err)
		second, err := s.ExtractAll()
		require.NoError(t, err)

		assert.Equal(t, first, second)
	})

	t.Run("matches sequential extraction when concurrent", func(t *testing.T) {
		t.Parallel()

		def := harvest.MustDefinition("page", "article",
			harvest.Field{Name: "title", Item: harvest.NewStringItem("h1")},
			harvest.Field{Name: "x", Item: harvest.NewStringItem(".x")},
			harvest.Field{Name: "y", Item: harvest.NewIntegerItem(".y")},
			harvest.Field{Name: "items", Item: harvest.NewSequenceItem("li")},
			harvest.Field{Name: "body", Item: harvest.NewMarkupItem(".body p")},
		)

		sequential, err := harvest.NewSchema(def, parse(t, pageHTML)).ExtractAll()
		require.NoError(t, err)
		concurrent, err := harvest.NewSchema(def, parse(t, pageHTML), harvest.WithConcurrency(4)).ExtractAll()
		require.NoError(t, err)

		assert.Equal(t, sequential, concurrent)
	})

	t.Run("renders markup with the converter", func(t *testing.T) {
		t.Parallel()

		conv := &mock.Converter{
			ConvertFn: func(html string) (string, error) {
				return "md:" + html, nil
			},
		}
		def := harvest.MustDefinition("page", "", harvest.Field{Name: "body", Item: harvest.NewMarkupItem("p")})

		rec, err := harvest.NewSchema(def, parse(t, `<p>hi</p>`), harvest.WithConverter(conv)).ExtractAll()

		require.NoError(t, err)
		assert.Equal(t, "md:<p>hi</p>", rec["body"])
	})

	t.Run("settles markup nested in sequence records", func(t *testing.T) {
		t.Parallel()

		row := harvest.MustDefinition("row", "",
			harvest.Field{Name: "name", Item: harvest.NewStringItem("b")},
			harvest.Field{Name: "html", Item: harvest.NewMarkupItem("i")},
		)
		def := harvest.MustDefinition("page", "", harvest.Field{Name: "rows", Item: harvest.NewSequenceItem("li", harvest.WithChild(row))})

		rec, err := harvest.NewSchema(def, parse(t, `<ul><li><b>A</b><i>a  1</i></li></ul>`)).ExtractAll()

		require.NoError(t, err)
		assert.Equal(t, []any{harvest.Record{"name": "A", "html": "<i>a 1</i>"}}, rec["rows"])
	})

	t.Run("wraps item errors with the field name", func(t *testing.T) {
		t.Parallel()

		def := harvest.MustDefinition("page", "", harvest.Field{Name: "bad", Item: harvest.NewStringItem("p[")})

		_, err := harvest.NewSchema(def, parse(t, `<p>x</p>`)).ExtractAll()

		require.Error(t, err)
		assert.Equal(t, harvest.EINVALID, harvest.ErrorCode(err))
		assert.Contains(t, err.Error(), "extract bad")
	})
}

func TestNewSchema_Comments(t *testing.T) {
	t.Parallel()

	newDoc := func(stripped *int) *mock.Document {
		return &mock.Document{
			StripCommentsFn: func() int {
				*stripped++
				return 0
			},
		}
	}
	def := harvest.MustDefinition("page", "", harvest.Field{Name: "a", Item: harvest.NewStringItem("a")})

	t.Run("strips comments by default", func(t *testing.T) {
		t.Parallel()

		var stripped int
		harvest.NewSchema(def, newDoc(&stripped))

		assert.Equal(t, 1, stripped)
	})

	t.Run("keeps comments when asked", func(t *testing.T) {
		t.Parallel()

		var stripped int
		harvest.NewSchema(def, newDoc(&stripped), harvest.KeepComments())

		assert.Equal(t, 0, stripped)
	})

	t.Run("removes comment text from extracted values", func(t *testing.T) {
		t.Parallel()

		def := harvest.MustDefinition("page", "", harvest.Field{Name: "body", Item: harvest.NewMarkupItem("body")})

		rec, err := harvest.NewSchema(def, parse(t, pageHTML)).ExtractAll()

		require.NoError(t, err)
		assert.NotContains(t, rec["body"], "tracking")
	})
}

func TestLoad(t *testing.T) {
	t.Parallel()

	t.Run("parses and binds the document", func(t *testing.T) {
		t.Parallel()

		s, err := harvest.Load(goquery.NewParser(), pageDefinition(), strings.NewReader(pageHTML))
		require.NoError(t, err)

		v, err := s.Extract("title")

		require.NoError(t, err)
		assert.Equal(t, "Post", v)
		assert.Equal(t, "page", s.Definition().Name())
	})

	t.Run("returns parser errors", func(t *testing.T) {
		t.Parallel()

		p := &mock.Parser{
			ParseFn: func(_ io.Reader) (harvest.Document, error) {
				return nil, harvest.Errorf(harvest.EINVALID, "bad markup")
			},
		}

		_, err := harvest.Load(p, pageDefinition(), strings.NewReader(""))

		require.Error(t, err)
		assert.Equal(t, "bad markup", harvest.ErrorMessage(err))
	})
}
