package ooxml

// Builder helpers for programmatic node construction. Parsed nodes keep
// their raw properties; nodes built here use the typed fields only.

// NewParagraph returns a paragraph with the given style and a single text
// run. Empty text yields an empty paragraph.
func NewParagraph(style, text string) *Paragraph {
	p := &Paragraph{}
	if style != "" {
		p.Properties = &ParagraphProperties{Style: style}
	}
	if text != "" {
		p.AddRun(NewTextRun(text, nil))
	}
	return p
}

// NewTextRun returns a run holding a single text node.
func NewTextRun(text string, props *RunProperties) *Run {
	return &Run{
		Properties: props,
		Content:    []RunChild{&Text{Content: text}},
	}
}

// NewPageBreakRun returns a run holding an explicit page break.
func NewPageBreakRun() *Run {
	return &Run{Content: []RunChild{&Break{Type: "page"}}}
}

// AddRun appends a run to the paragraph.
func (p *Paragraph) AddRun(r *Run) *Paragraph {
	p.Children = append(p.Children, r)
	return p
}

// SetSpacingAfter sets spacing below the paragraph in points. A paragraph
// parsed from a template keeps its original properties untouched.
func (p *Paragraph) SetSpacingAfter(pts int) *Paragraph {
	if p.Properties == nil {
		p.Properties = &ParagraphProperties{}
	}
	if p.Properties.Raw == nil {
		p.Properties.SpacingAfterPts = pts
	}
	return p
}

// HasPageBreak reports whether any run in the paragraph contains an
// explicit page break.
func (p *Paragraph) HasPageBreak() bool {
	for _, run := range p.Runs() {
		for _, c := range run.Content {
			if br, ok := c.(*Break); ok && br.Type == "page" {
				return true
			}
		}
	}
	return false
}

// NewGridTable builds a table from a 2-D string grid using the Table Grid
// style with equal column widths.
func NewGridTable(grid [][]string) *Table {
	cols := 0
	for _, row := range grid {
		if len(row) > cols {
			cols = len(row)
		}
	}
	if cols == 0 {
		return &Table{}
	}

	tbl := &Table{
		PropertiesXML: []byte(`<w:tblPr><w:tblStyle w:val="TableGrid"/><w:tblW w:w="0" w:type="auto"/></w:tblPr>`),
	}
	gridXML := "<w:tblGrid>"
	for i := 0; i < cols; i++ {
		gridXML += `<w:gridCol/>`
	}
	gridXML += "</w:tblGrid>"
	tbl.GridXML = []byte(gridXML)

	for _, row := range grid {
		tr := TableRow{}
		for i := 0; i < cols; i++ {
			text := ""
			if i < len(row) {
				text = row[i]
			}
			tr.Cells = append(tr.Cells, TableCell{
				Blocks: []Block{NewParagraph("", text)},
			})
		}
		tbl.Rows = append(tbl.Rows, tr)
	}
	return tbl
}

// imageExtension maps a supported image MIME type to a filename extension.
func imageExtension(mimeType string) (string, error) {
	switch mimeType {
	case "image/png":
		return ".png", nil
	case "image/jpeg":
		return ".jpg", nil
	case "image/gif":
		return ".gif", nil
	case "image/bmp":
		return ".bmp", nil
	default:
		return "", errUnsupportedImage(mimeType)
	}
}

type errUnsupportedImage string

func (e errUnsupportedImage) Error() string {
	return "unsupported image type: " + string(e)
}
