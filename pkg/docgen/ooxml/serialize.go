package ooxml

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strconv"
)

// Marshal serializes the document back into main-body part bytes. The
// original document opening tag (with its namespace declarations) and the
// closing tags are reused verbatim; only body content is re-emitted.
func (d *Document) Marshal() []byte {
	var buf bytes.Buffer
	buf.Write(d.Header)
	for _, blk := range d.Body.Blocks {
		blk.writeTo(&buf)
	}
	if len(d.Body.SectPr) > 0 {
		buf.Write(d.Body.SectPr)
	}
	buf.Write(d.Trailer)
	return buf.Bytes()
}

func (r *RawBlock) writeTo(buf *bytes.Buffer) {
	buf.Write(r.XML)
}

func (n *RawNode) writeTo(buf *bytes.Buffer) {
	buf.Write(n.XML)
}

func (p *Paragraph) writeTo(buf *bytes.Buffer) {
	buf.WriteString("<w:p>")
	if p.Properties != nil {
		p.Properties.writeTo(buf)
	}
	for _, child := range p.Children {
		child.writeTo(buf)
	}
	buf.WriteString("</w:p>")
}

func (pp *ParagraphProperties) writeTo(buf *bytes.Buffer) {
	if pp.Raw != nil {
		buf.Write(pp.Raw)
		return
	}
	if pp.Style == "" && pp.SpacingAfterPts == 0 {
		return
	}
	buf.WriteString("<w:pPr>")
	if pp.Style != "" {
		buf.WriteString(`<w:pStyle w:val="`)
		writeEscaped(buf, pp.Style)
		buf.WriteString(`"/>`)
	}
	if pp.SpacingAfterPts > 0 {
		// w:spacing takes twentieths of a point
		buf.WriteString(`<w:spacing w:after="`)
		buf.WriteString(strconv.Itoa(pp.SpacingAfterPts * 20))
		buf.WriteString(`"/>`)
	}
	buf.WriteString("</w:pPr>")
}

func (r *Run) writeTo(buf *bytes.Buffer) {
	buf.WriteString("<w:r>")
	if r.Properties != nil {
		r.Properties.writeTo(buf)
	}
	for _, c := range r.Content {
		c.writeTo(buf)
	}
	buf.WriteString("</w:r>")
}

func (rp *RunProperties) writeTo(buf *bytes.Buffer) {
	if rp.Raw != nil {
		buf.Write(rp.Raw)
		return
	}
	if !rp.Bold && !rp.Italic && rp.Color == "" && rp.SizeHalfPts == 0 {
		return
	}
	buf.WriteString("<w:rPr>")
	if rp.Bold {
		buf.WriteString("<w:b/>")
	}
	if rp.Italic {
		buf.WriteString("<w:i/>")
	}
	if rp.Color != "" {
		buf.WriteString(`<w:color w:val="`)
		writeEscaped(buf, rp.Color)
		buf.WriteString(`"/>`)
	}
	if rp.SizeHalfPts > 0 {
		sz := strconv.Itoa(rp.SizeHalfPts)
		buf.WriteString(`<w:sz w:val="` + sz + `"/><w:szCs w:val="` + sz + `"/>`)
	}
	buf.WriteString("</w:rPr>")
}

func (t *Text) writeTo(buf *bytes.Buffer) {
	space := t.Space
	if space == "" && needsSpacePreserve(t.Content) {
		space = "preserve"
	}
	if space != "" {
		buf.WriteString(`<w:t xml:space="`)
		writeEscaped(buf, space)
		buf.WriteString(`">`)
	} else {
		buf.WriteString("<w:t>")
	}
	writeEscaped(buf, t.Content)
	buf.WriteString("</w:t>")
}

func (b *Break) writeTo(buf *bytes.Buffer) {
	if b.Type != "" {
		buf.WriteString(`<w:br w:type="`)
		writeEscaped(buf, b.Type)
		buf.WriteString(`"/>`)
		return
	}
	buf.WriteString("<w:br/>")
}

func (f *FieldChar) writeTo(buf *bytes.Buffer) {
	buf.WriteString(`<w:fldChar w:fldCharType="`)
	writeEscaped(buf, f.CharType)
	buf.WriteString(`"/>`)
}

func (i *InstrText) writeTo(buf *bytes.Buffer) {
	buf.WriteString(`<w:instrText xml:space="preserve">`)
	writeEscaped(buf, i.Content)
	buf.WriteString(`</w:instrText>`)
}

func (t *Table) writeTo(buf *bytes.Buffer) {
	buf.WriteString("<w:tbl>")
	if t.PropertiesXML != nil {
		buf.Write(t.PropertiesXML)
	}
	if t.GridXML != nil {
		buf.Write(t.GridXML)
	}
	for _, raw := range t.extra {
		buf.Write(raw)
	}
	for _, row := range t.Rows {
		buf.WriteString("<w:tr>")
		if row.PropertiesXML != nil {
			buf.Write(row.PropertiesXML)
		}
		for _, cell := range row.Cells {
			buf.WriteString("<w:tc>")
			if cell.PropertiesXML != nil {
				buf.Write(cell.PropertiesXML)
			}
			for _, blk := range cell.Blocks {
				blk.writeTo(buf)
			}
			buf.WriteString("</w:tc>")
		}
		buf.WriteString("</w:tr>")
	}
	buf.WriteString("</w:tbl>")
}

// MarshalBlock serializes a single block node; used by tests and by the
// region-isolation checks.
func MarshalBlock(b Block) []byte {
	var buf bytes.Buffer
	b.writeTo(&buf)
	return buf.Bytes()
}

func needsSpacePreserve(s string) bool {
	if s == "" {
		return false
	}
	return s[0] == ' ' || s[len(s)-1] == ' '
}

func writeEscaped(buf *bytes.Buffer, s string) {
	if err := xml.EscapeText(buf, []byte(s)); err != nil {
		// EscapeText only fails on writer errors; bytes.Buffer cannot.
		panic(fmt.Sprintf("ooxml: escape: %v", err))
	}
}
