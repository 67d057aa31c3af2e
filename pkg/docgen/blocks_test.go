package docgen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gcloudforge/docgen/pkg/docgen/ooxml"
)

func TestFindHeading(t *testing.T) {
	pkg := openTemplateBody(t, templateBody())
	body := pkg.Document.Body

	tests := []struct {
		name   string
		substr string
		fold   bool
		found  bool
	}{
		{name: "exact match", substr: "Key Service Features", found: true},
		{name: "substring match", substr: "Service Features", found: true},
		{name: "case sensitive miss", substr: "key service features", found: false},
		{name: "case insensitive hit", substr: "key service features", fold: true, found: true},
		{name: "non-heading text never matches", substr: "old feature", found: false},
		{name: "absent heading", substr: "Pricing Overview", found: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var idx int
			if tt.fold {
				idx = FindHeadingFold(body, tt.substr)
			} else {
				idx = FindHeading(body, tt.substr)
			}
			assert.Equal(t, tt.found, idx != -1)
		})
	}
}

func TestRemoveHeadingBlock(t *testing.T) {
	t.Run("removes heading and its region", func(t *testing.T) {
		pkg := openTemplateBody(t, templateBody())
		body := pkg.Document.Body

		require.True(t, RemoveHeadingBlock(body, "Key Service Features"))
		texts := bodyTexts(body)
		assert.NotContains(t, texts, "Key Service Features")
		assert.NotContains(t, texts, "old feature")
		// The next section is untouched.
		assert.Contains(t, texts, "Key Service Benefits")
		assert.Contains(t, texts, "old benefit")
	})

	t.Run("region ends at same or higher level heading", func(t *testing.T) {
		body := openTemplateBody(t,
			para("Heading1", "Outer")+
				para("Heading2", "Sub A")+
				para("", "a text")+
				para("Heading3", "Sub A detail")+
				para("", "detail text")+
				para("Heading2", "Sub B")+
				para("", "b text"),
		).Document.Body

		require.True(t, RemoveHeadingBlock(body, "Sub A"))
		texts := bodyTexts(body)
		assert.Equal(t, []string{"Outer", "Sub B", "b text"}, texts)
	})

	t.Run("missing heading is a no-op", func(t *testing.T) {
		pkg := openTemplateBody(t, templateBody())
		before := len(pkg.Document.Body.Blocks)
		assert.False(t, RemoveHeadingBlock(pkg.Document.Body, "No Such Section"))
		assert.Equal(t, before, len(pkg.Document.Body.Blocks))
	})
}

func TestExtractHeadingBlock(t *testing.T) {
	pkg := openTemplateBody(t, templateBody())
	body := pkg.Document.Body

	got := ExtractHeadingBlock(body, "about pa")
	require.Len(t, got, 2)
	assert.Equal(t, "About PA", got[0].(*ooxml.Paragraph).Text())
	assert.Equal(t, "About PA closing text", got[1].(*ooxml.Paragraph).Text())
	assert.NotContains(t, bodyTexts(body), "About PA")
}

func TestExtractBlockByMarker(t *testing.T) {
	t.Run("marker paragraphs dropped, content kept", func(t *testing.T) {
		body := openTemplateBody(t,
			para("", "before")+
				para("", "{{ABOUT_PA_START}}")+
				para("Heading1", "About PA")+
				para("", "closing text")+
				para("", "{{ABOUT_PA_END}}")+
				para("", "after"),
		).Document.Body

		got := ExtractBlockByMarker(body, "{{ABOUT_PA_START}}", "{{ABOUT_PA_END}}")
		require.Len(t, got, 2)
		assert.Equal(t, "About PA", got[0].(*ooxml.Paragraph).Text())
		assert.Equal(t, "closing text", got[1].(*ooxml.Paragraph).Text())
		assert.Equal(t, []string{"before", "after"}, bodyTexts(body))
	})

	t.Run("inline marker scrubbed from kept paragraph", func(t *testing.T) {
		body := openTemplateBody(t,
			para("", "{{ABOUT_PA_START}}About PA intro")+
				para("", "{{ABOUT_PA_END}}"),
		).Document.Body

		got := ExtractBlockByMarker(body, "{{ABOUT_PA_START}}", "{{ABOUT_PA_END}}")
		require.Len(t, got, 1)
		assert.Equal(t, "About PA intro", got[0].(*ooxml.Paragraph).Text())
	})

	t.Run("missing end marker leaves body untouched", func(t *testing.T) {
		body := openTemplateBody(t,
			para("", "{{ABOUT_PA_START}}")+para("", "content"),
		).Document.Body
		before := len(body.Blocks)
		assert.Nil(t, ExtractBlockByMarker(body, "{{ABOUT_PA_START}}", "{{ABOUT_PA_END}}"))
		assert.Equal(t, before, len(body.Blocks))
	})
}
