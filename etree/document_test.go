package etree_test

import (
	"strings"
	"testing"

	"github.com/fwojciec/harvest"
	"github.com/fwojciec/harvest/etree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const feed = `<?xml version="1.0"?>
<rss>
	<!-- generated -->
	<channel>
		<title>Release notes</title>
		<item id="1"><title>First <em>post</em></title><views>1,024</views></item>
		<item id="2"><title>Second post</title><views>12</views></item>
	</channel>
</rss>`

func TestParser_Parse(t *testing.T) {
	t.Parallel()

	t.Run("parses XML", func(t *testing.T) {
		t.Parallel()

		doc, err := etree.NewParser().Parse(strings.NewReader(feed))

		require.NoError(t, err)
		node, err := doc.Find("./rss/channel/title")
		require.NoError(t, err)
		require.NotNil(t, node)
		assert.Equal(t, "Release notes", node.Text())
	})

	t.Run("returns EINVALID for malformed XML", func(t *testing.T) {
		t.Parallel()

		_, err := etree.NewParser().Parse(strings.NewReader(`<rss><channel></rss>`))

		require.Error(t, err)
		assert.Equal(t, harvest.EINVALID, harvest.ErrorCode(err))
	})
}

func TestNode_Find(t *testing.T) {
	t.Parallel()

	doc, err := etree.ParseString(feed)
	require.NoError(t, err)

	items, err := doc.FindAll("//item")
	require.NoError(t, err)
	require.Len(t, items, 2)

	title, err := items[0].Find("./title")
	require.NoError(t, err)
	require.NotNil(t, title)
	assert.Equal(t, "First post", title.Text())
	assert.Equal(t, "First ", title.OwnText())

	id, ok := items[1].Attr("id")
	assert.True(t, ok)
	assert.Equal(t, "2", id)

	missing, err := items[0].Find("./author")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestNode_FindInvalidPath(t *testing.T) {
	t.Parallel()

	doc, err := etree.ParseString(feed)
	require.NoError(t, err)

	_, err = doc.Find("//item[")

	require.Error(t, err)
	assert.Equal(t, harvest.EINVALID, harvest.ErrorCode(err))
}

func TestNode_RemoveAndRender(t *testing.T) {
	t.Parallel()

	doc, err := etree.ParseString(`<item><title>T</title><draft>x</draft></item>`)
	require.NoError(t, err)
	item, err := doc.Find("./item")
	require.NoError(t, err)

	removed, err := item.Remove("./draft")

	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	out, err := item.Render()
	require.NoError(t, err)
	assert.Equal(t, "<item><title>T</title></item>", out)
}

func TestDocument_StripComments(t *testing.T) {
	t.Parallel()

	doc, err := etree.ParseString(feed)
	require.NoError(t, err)

	assert.Equal(t, 1, doc.StripComments())
	out, err := doc.Render()
	require.NoError(t, err)
	assert.NotContains(t, out, "generated")
}
