package docgen

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gcloudforge/docgen/pkg/docgen/ooxml"
)

func TestComposer_ReplaceTitle(t *testing.T) {
	t.Run("first top-level heading", func(t *testing.T) {
		pkg := openTemplateBody(t, templateBody())
		NewComposer(pkg, nil, nil).ReplaceTitle("Backup as a Service")

		title := pkg.Document.Body.Blocks[0].(*ooxml.Paragraph)
		assert.Equal(t, "Backup as a Service", title.Text())
		assert.Equal(t, "Heading1", title.StyleTag())
		runs := title.Runs()
		require.Len(t, runs, 1)
		assert.True(t, runs[0].Properties.Bold)
		assert.Equal(t, 48, runs[0].Properties.SizeHalfPts)
	})

	t.Run("placeholder fallback without heading", func(t *testing.T) {
		pkg := openTemplateBody(t, para("", "prefix Add Title suffix"))
		NewComposer(pkg, nil, nil).ReplaceTitle("Backup as a Service")
		assert.Equal(t, []string{"prefix Backup as a Service suffix"}, bodyTexts(pkg.Document.Body))
	})
}

func TestComposer_RemoveSections(t *testing.T) {
	pkg := openTemplateBody(t, templateBody())
	NewComposer(pkg, nil, nil).RemoveSections()

	texts := bodyTexts(pkg.Document.Body)
	for _, gone := range []string{
		"Short Service Description", "old description text",
		"Key Service Features", "old feature",
		"Key Service Benefits", "old benefit",
		"Service Definition", "old definition",
	} {
		assert.NotContains(t, texts, gone)
	}
	// Title, contents and closing block stay.
	assert.Contains(t, texts, "Contents")
	assert.Contains(t, texts, "About PA")
}

func TestComposer_ExtractAbout(t *testing.T) {
	t.Run("markers preferred over heading", func(t *testing.T) {
		pkg := openTemplateBody(t,
			para("", "{{ABOUT_PA_START}}")+
				para("", "marked closing")+
				para("", "{{ABOUT_PA_END}}")+
				para("Heading1", "About PA")+
				para("", "heading closing"))
		got := NewComposer(pkg, nil, nil).ExtractAbout()
		require.Len(t, got, 1)
		assert.Equal(t, "marked closing", got[0].(*ooxml.Paragraph).Text())
	})

	t.Run("heading fallback", func(t *testing.T) {
		pkg := openTemplateBody(t, templateBody())
		got := NewComposer(pkg, nil, nil).ExtractAbout()
		require.Len(t, got, 2)
		assert.Equal(t, "About PA", got[0].(*ooxml.Paragraph).Text())
	})

	t.Run("absent closing block", func(t *testing.T) {
		pkg := openTemplateBody(t, para("Heading1", "Title"))
		assert.Nil(t, NewComposer(pkg, nil, nil).ExtractAbout())
	})
}

func TestComposer_InsertContent(t *testing.T) {
	pkg := openTemplateBody(t, templateBody())
	c := NewComposer(pkg, nil, nil)
	c.RemoveSections()

	err := c.InsertContent(context.Background(), -1,
		"Backup as a Service",
		"A resilient backup platform.",
		[]string{"Fast restore", "Encrypted at rest"},
		[]string{"Lower cost"},
		[]ContentBlock{{Subtitle: "Approach", Content: "<p>We take backups <strong>seriously</strong>.</p>"}},
	)
	require.NoError(t, err)

	texts := bodyTexts(pkg.Document.Body)
	wantOrder := []string{
		"Backup as a Service",
		"Short Service Description",
		"A resilient backup platform.",
		"Key Service Features",
		"1. Fast restore",
		"2. Encrypted at rest",
		"Key Service Benefits",
		"1. Lower cost",
		"Service Definition",
		"Approach",
		"We take backups seriously.",
	}
	assertSubsequence(t, texts, wantOrder)
}

func TestComposer_NumberedList(t *testing.T) {
	pkg := openTemplateBody(t, templateBody())
	c := NewComposer(pkg, nil, nil)

	t.Run("ordinal formatting", func(t *testing.T) {
		blocks := c.numberedList([]string{"Fast restore"})
		require.Len(t, blocks, 1)
		p := blocks[0].(*ooxml.Paragraph)
		runs := p.Runs()
		require.Len(t, runs, 2)
		assert.Equal(t, "1. ", runs[0].Content[0].(*ooxml.Text).Content)
		assert.True(t, runs[0].Properties.Bold)
		assert.Equal(t, "C00000", runs[0].Properties.Color)
		assert.Equal(t, "Fast restore", runs[1].Content[0].(*ooxml.Text).Content)
		assert.Equal(t, "000000", runs[1].Properties.Color)
	})

	t.Run("caps at ten items", func(t *testing.T) {
		var items []string
		for i := 0; i < 14; i++ {
			items = append(items, fmt.Sprintf("item %d", i))
		}
		blocks := c.numberedList(items)
		assert.Len(t, blocks, 10)
		last := blocks[9].(*ooxml.Paragraph)
		assert.Equal(t, "10. item 9", last.Text())
	})
}

func TestComposer_AppendClosing(t *testing.T) {
	pkg := openTemplateBody(t, templateBody())
	c := NewComposer(pkg, nil, nil)
	about := c.ExtractAbout()
	require.NotEmpty(t, about)

	c.AppendClosing(about)

	blocks := pkg.Document.Body.Blocks
	n := len(blocks)
	// Closing block at the very end, preceded by a spacer and a
	// page-break paragraph.
	assert.Equal(t, "About PA closing text", blocks[n-1].(*ooxml.Paragraph).Text())
	assert.Equal(t, "About PA", blocks[n-2].(*ooxml.Paragraph).Text())
	assert.Equal(t, "", blocks[n-3].(*ooxml.Paragraph).Text())
	assert.True(t, blocks[n-4].(*ooxml.Paragraph).HasPageBreak())
}

func TestComposer_RenderBlock_Table(t *testing.T) {
	pkg := openTemplateBody(t, templateBody())
	c := NewComposer(pkg, nil, nil)

	blocks, err := c.renderBlock(context.Background(), ContentBlock{
		Subtitle: "Pricing tiers",
		Table:    [][]string{{"Tier", "Price"}, {"Basic", "100"}},
	})
	require.NoError(t, err)

	var tbl *ooxml.Table
	for _, blk := range blocks {
		if x, ok := blk.(*ooxml.Table); ok {
			tbl = x
		}
	}
	require.NotNil(t, tbl)
	require.Len(t, tbl.Rows, 2)
	assert.Equal(t, "Tier", tbl.Rows[0].Cells[0].Blocks[0].(*ooxml.Paragraph).Text())
	assert.Equal(t, "100", tbl.Rows[1].Cells[1].Blocks[0].(*ooxml.Paragraph).Text())
}

func TestComposer_ImageFallback(t *testing.T) {
	pkg := openTemplateBody(t, templateBody())
	c := NewComposer(pkg, nil, nil) // no fetcher configured

	blk := c.imageOrFallback(context.Background(), "https://example.com/a.png")
	p, ok := blk.(*ooxml.Paragraph)
	require.True(t, ok)
	assert.Equal(t, "[image: https://example.com/a.png]", p.Text())
}

func TestComposer_DataURIImage(t *testing.T) {
	pkg := openTemplateBody(t, templateBody())
	c := NewComposer(pkg, nil, NewImageFetcher(0))

	// 1x1 transparent PNG.
	src := "data:image/png;base64,iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAYAAAAfFcSJAAAADUlEQVR42mP8z8BQDwAEhQGAhKmMIQAAAABJRU5ErkJggg=="
	blk := c.imageOrFallback(context.Background(), src)
	p, ok := blk.(*ooxml.Paragraph)
	require.True(t, ok)
	assert.Empty(t, p.Text(), "drawing paragraph has no literal text")

	out := string(ooxml.MarshalBlock(p))
	assert.Contains(t, out, "<w:drawing>")
	assert.Contains(t, out, `cx="9525" cy="9525"`, "1x1 px maps to one EMU step per axis")

	_, ok = pkg.Part("word/media/image1.png")
	assert.True(t, ok)
}

// assertSubsequence checks that want appears within got in order.
func assertSubsequence(t *testing.T, got, want []string) {
	t.Helper()
	i := 0
	for _, g := range got {
		if i < len(want) && g == want[i] {
			i++
		}
	}
	require.Equal(t, len(want), i, "expected subsequence %v in %v", want, got)
}
