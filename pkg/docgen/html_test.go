package docgen

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gcloudforge/docgen/pkg/docgen/ooxml"
)

func renderBlocks(t *testing.T, src string) []ooxml.Block {
	t.Helper()
	pkg := openTemplateBody(t, templateBody())
	c := NewComposer(pkg, nil, nil)
	blocks, err := c.renderHTML(context.Background(), src)
	require.NoError(t, err)
	return blocks
}

func blockText(b ooxml.Block) string {
	if p, ok := b.(*ooxml.Paragraph); ok {
		return p.Text()
	}
	return ""
}

func TestRenderHTML(t *testing.T) {
	tests := []struct {
		name  string
		src   string
		check func(t *testing.T, blocks []ooxml.Block)
	}{
		{
			name: "paragraphs",
			src:  "<p>first</p><p>second</p>",
			check: func(t *testing.T, blocks []ooxml.Block) {
				require.Len(t, blocks, 2)
				assert.Equal(t, "first", blockText(blocks[0]))
				assert.Equal(t, "second", blockText(blocks[1]))
			},
		},
		{
			name: "bold and italic runs",
			src:  "<p>plain <strong>bold</strong> and <em>italic</em></p>",
			check: func(t *testing.T, blocks []ooxml.Block) {
				require.Len(t, blocks, 1)
				runs := blocks[0].(*ooxml.Paragraph).Runs()
				require.Len(t, runs, 4)
				assert.Nil(t, runs[0].Properties)
				assert.True(t, runs[1].Properties.Bold)
				assert.True(t, runs[3].Properties.Italic)
			},
		},
		{
			name: "subheading",
			src:  "<h3>Implementation</h3>",
			check: func(t *testing.T, blocks []ooxml.Block) {
				require.Len(t, blocks, 1)
				p := blocks[0].(*ooxml.Paragraph)
				assert.Equal(t, "Heading3", p.StyleTag())
				assert.Equal(t, "Implementation", p.Text())
			},
		},
		{
			name: "bullet and numbered lists",
			src:  "<ul><li>one</li><li>two</li></ul><ol><li>first</li></ol>",
			check: func(t *testing.T, blocks []ooxml.Block) {
				require.Len(t, blocks, 3)
				assert.Equal(t, "ListBullet", blocks[0].(*ooxml.Paragraph).StyleTag())
				assert.Equal(t, "two", blockText(blocks[1]))
				assert.Equal(t, "ListNumber", blocks[2].(*ooxml.Paragraph).StyleTag())
			},
		},
		{
			name: "line break inside paragraph",
			src:  "<p>a<br>b</p>",
			check: func(t *testing.T, blocks []ooxml.Block) {
				require.Len(t, blocks, 1)
				out := string(ooxml.MarshalBlock(blocks[0]))
				assert.Contains(t, out, "<w:br/>")
			},
		},
		{
			name: "bare text",
			src:  "just text, no markup",
			check: func(t *testing.T, blocks []ooxml.Block) {
				require.Len(t, blocks, 1)
				assert.Equal(t, "just text, no markup", blockText(blocks[0]))
			},
		},
		{
			name: "unknown tag degrades to text",
			src:  "<xyz>hello</xyz>",
			check: func(t *testing.T, blocks []ooxml.Block) {
				require.NotEmpty(t, blocks)
				assert.Equal(t, "hello", blockText(blocks[0]))
			},
		},
		{
			name: "image becomes fallback reference without fetcher",
			src:  `<p>see <img src="https://example.com/x.png"> here</p>`,
			check: func(t *testing.T, blocks []ooxml.Block) {
				require.Len(t, blocks, 2)
				assert.Equal(t, "see  here", blockText(blocks[0]))
				assert.Equal(t, "[image: https://example.com/x.png]", blockText(blocks[1]))
			},
		},
		{
			name: "malformed markup never errors",
			src:  "<p>unclosed <strong>bold",
			check: func(t *testing.T, blocks []ooxml.Block) {
				require.NotEmpty(t, blocks)
				assert.Contains(t, blockText(blocks[0]), "unclosed")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, renderBlocks(t, tt.src))
		})
	}
}
