package docgen

import (
	"archive/zip"
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gcloudforge/docgen/pkg/docgen/ooxml"
)

const fixtureHeader = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n" +
	`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main" ` +
	`xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships">`

func para(style, text string) string {
	props := ""
	if style != "" {
		props = `<w:pPr><w:pStyle w:val="` + style + `"/></w:pPr>`
	}
	return `<w:p>` + props + `<w:r><w:t>` + text + `</w:t></w:r></w:p>`
}

func tocFieldParagraph() string {
	return `<w:p>` +
		`<w:r><w:fldChar w:fldCharType="begin"/></w:r>` +
		`<w:r><w:instrText xml:space="preserve"> TOC \o "1-3" \h \z \u </w:instrText></w:r>` +
		`<w:r><w:fldChar w:fldCharType="separate"/></w:r>` +
		`<w:r><w:fldChar w:fldCharType="end"/></w:r>` +
		`<w:r><w:br w:type="page"/></w:r>` +
		`</w:p>`
}

// templateBody mirrors the layout of the production template: a title
// placeholder, a contents section with a resolved field, the rebuilt
// sections, and the closing block.
func templateBody() string {
	return para("Heading1", "ENTER SERVICE NAME HERE") +
		para("Heading1", "Contents") +
		tocFieldParagraph() +
		para("Heading2", "Short Service Description") +
		para("", "old description text") +
		para("Heading2", "Key Service Features") +
		para("", "old feature") +
		para("Heading2", "Key Service Benefits") +
		para("", "old benefit") +
		para("Heading2", "Service Definition") +
		para("", "old definition") +
		para("Heading1", "About PA") +
		para("", "About PA closing text")
}

func buildTemplate(t *testing.T, body string, extraParts map[string]string) []byte {
	t.Helper()
	parts := map[string]string{
		"[Content_Types].xml": `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
			`<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">` +
			`<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>` +
			`<Default Extension="xml" ContentType="application/xml"/>` +
			`<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>` +
			`</Types>`,
		"_rels/.rels": `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
			`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` +
			`<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/>` +
			`</Relationships>`,
		"word/_rels/document.xml.rels": `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
			`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` +
			`<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/styles" Target="styles.xml"/>` +
			`</Relationships>`,
		"word/styles.xml":   `<?xml version="1.0" encoding="UTF-8" standalone="yes"?><w:styles xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"></w:styles>`,
		"word/settings.xml": `<?xml version="1.0" encoding="UTF-8" standalone="yes"?><w:settings xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"></w:settings>`,
		"word/document.xml": fixtureHeader + "<w:body>" + body +
			`<w:sectPr><w:pgSz w:w="11906" w:h="16838"/></w:sectPr>` + "</w:body></w:document>",
	}
	for name, content := range extraParts {
		parts[name] = content
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, name := range []string{"[Content_Types].xml", "_rels/.rels", "word/document.xml", "word/_rels/document.xml.rels", "word/styles.xml", "word/settings.xml"} {
		fw, err := zw.Create(name)
		require.NoError(t, err)
		_, err = fw.Write([]byte(parts[name]))
		require.NoError(t, err)
		delete(parts, name)
	}
	for name, content := range parts {
		fw, err := zw.Create(name)
		require.NoError(t, err)
		_, err = fw.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func openTemplateBody(t *testing.T, body string) *ooxml.Package {
	t.Helper()
	pkg, err := ooxml.Open(buildTemplate(t, body, nil))
	require.NoError(t, err)
	return pkg
}

func bodyTexts(body *ooxml.Body) []string {
	var out []string
	for _, blk := range body.Blocks {
		if p, ok := blk.(*ooxml.Paragraph); ok {
			out = append(out, p.Text())
		}
	}
	return out
}
