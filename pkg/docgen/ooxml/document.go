// Package ooxml provides a typed, order-preserving view of the main body of
// a WordprocessingML package, plus the package-level read/write plumbing.
//
// The tree models only what composition needs to see: paragraphs with their
// style tag and runs, tables down to cell paragraphs, and field characters.
// Everything else (structured document tags, bookmarks, drawings, section
// properties) is carried as verbatim XML so an untouched node serializes to
// exactly the bytes it was parsed from.
package ooxml

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"regexp"
	"strings"
)

// Document is the parsed main-body part. Header holds everything up to and
// including the <w:body> opening tag (XML declaration, the <w:document>
// element with its namespace set); Trailer holds the closing tags. Only the
// body content between them is ever rewritten.
type Document struct {
	Header  []byte
	Trailer []byte
	Body    *Body
}

// Body is an ordered sequence of block nodes. The trailing section
// properties element is kept aside so appends land before it.
type Body struct {
	Blocks []Block
	SectPr []byte
}

// Block is a top-level node of the document body.
type Block interface {
	isBlock()
	writeTo(buf *bytes.Buffer)
}

// RawBlock preserves a body child the tree does not model (w:sdt,
// bookmarks, custom markup) byte-for-byte.
type RawBlock struct {
	XML []byte
}

func (*RawBlock) isBlock() {}

// Paragraph is a w:p element. Children preserves the original order of runs
// and any unmodeled paragraph content (hyperlinks, bookmarks, proofing
// marks).
type Paragraph struct {
	Properties *ParagraphProperties
	Children   []ParagraphChild
}

func (*Paragraph) isBlock() {}

// ParagraphChild is a direct child of a paragraph.
type ParagraphChild interface {
	isParagraphChild()
	writeTo(buf *bytes.Buffer)
}

// ParagraphProperties carries the style tag and spacing. When parsed from a
// template, Raw holds the original w:pPr bytes and wins on serialization;
// programmatically built paragraphs leave Raw nil and use the typed fields.
type ParagraphProperties struct {
	Style           string
	SpacingAfterPts int
	Raw             []byte
}

// RawNode preserves an unmodeled child of a paragraph or run verbatim.
type RawNode struct {
	XML []byte
}

func (*RawNode) isParagraphChild() {}
func (*RawNode) isRunChild()       {}

// Run is a w:r element.
type Run struct {
	Properties *RunProperties
	Content    []RunChild
}

func (*Run) isParagraphChild() {}

// RunChild is a direct child of a run.
type RunChild interface {
	isRunChild()
	writeTo(buf *bytes.Buffer)
}

// RunProperties carries the formatting subset the composer sets. Raw, when
// present, wins on serialization.
type RunProperties struct {
	Bold         bool
	Italic       bool
	Color        string
	SizeHalfPts  int
	Raw          []byte
}

// Text is a w:t node.
type Text struct {
	Space   string
	Content string
}

func (*Text) isRunChild() {}

// Break is a w:br node. Type is empty for a line break, "page" for an
// explicit page break.
type Break struct {
	Type string
}

func (*Break) isRunChild() {}

// FieldChar is a w:fldChar node; CharType is one of begin, separate, end.
type FieldChar struct {
	CharType string
}

func (*FieldChar) isRunChild() {}

// InstrText is a w:instrText node, the instruction of a complex field.
type InstrText struct {
	Content string
}

func (*InstrText) isRunChild() {}

// Table is a w:tbl element. Properties and Grid are kept raw; rows are
// parsed down to cell paragraphs so text walks can reach table content.
type Table struct {
	PropertiesXML []byte
	GridXML       []byte
	Rows          []TableRow
	extra         [][]byte
}

func (*Table) isBlock() {}

// TableRow is a w:tr element.
type TableRow struct {
	PropertiesXML []byte
	Cells         []TableCell
}

// TableCell is a w:tc element; its content is a nested block sequence.
type TableCell struct {
	PropertiesXML []byte
	Blocks        []Block
}

var pStyleRe = regexp.MustCompile(`w:pStyle[^>]*\bw:val="([^"]*)"`)

// ParseDocument parses the bytes of a main-body part (word/document.xml).
func ParseDocument(src []byte) (*Document, error) {
	open := bytes.Index(src, []byte("<w:body"))
	if open == -1 {
		return nil, fmt.Errorf("no w:body element found")
	}
	openEnd := bytes.IndexByte(src[open:], '>')
	if openEnd == -1 {
		return nil, fmt.Errorf("malformed w:body opening tag")
	}
	openEnd += open + 1

	close := bytes.LastIndex(src, []byte("</w:body>"))
	if close == -1 || close < openEnd {
		return nil, fmt.Errorf("no closing w:body tag found")
	}

	body, err := parseBodyContent(src[openEnd:close])
	if err != nil {
		return nil, err
	}

	doc := &Document{
		Header:  append([]byte(nil), src[:openEnd]...),
		Trailer: append([]byte(nil), src[close:]...),
		Body:    body,
	}
	return doc, nil
}

func parseBodyContent(inner []byte) (*Body, error) {
	dec := xml.NewDecoder(bytes.NewReader(inner))
	body := &Body{}

	for {
		off := dec.InputOffset()
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse body: %w", err)
		}
		se, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		switch se.Name.Local {
		case "p":
			para, err := parseParagraph(dec, inner)
			if err != nil {
				return nil, err
			}
			body.Blocks = append(body.Blocks, para)
		case "tbl":
			tbl, err := parseTable(dec, inner)
			if err != nil {
				return nil, err
			}
			body.Blocks = append(body.Blocks, tbl)
		case "sectPr":
			raw, err := captureRaw(dec, inner, off)
			if err != nil {
				return nil, err
			}
			body.SectPr = raw
		default:
			raw, err := captureRaw(dec, inner, off)
			if err != nil {
				return nil, err
			}
			body.Blocks = append(body.Blocks, &RawBlock{XML: raw})
		}
	}
	return body, nil
}

// captureRaw skips over the element whose start tag began at off and returns
// the verbatim source bytes of the whole element.
func captureRaw(dec *xml.Decoder, src []byte, off int64) ([]byte, error) {
	if err := dec.Skip(); err != nil {
		return nil, fmt.Errorf("failed to capture element: %w", err)
	}
	end := dec.InputOffset()
	return append([]byte(nil), src[off:end]...), nil
}

func parseParagraph(dec *xml.Decoder, src []byte) (*Paragraph, error) {
	para := &Paragraph{}
	for {
		off := dec.InputOffset()
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("failed to parse paragraph: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "pPr":
				raw, err := captureRaw(dec, src, off)
				if err != nil {
					return nil, err
				}
				props := &ParagraphProperties{Raw: raw}
				if m := pStyleRe.FindSubmatch(raw); m != nil {
					props.Style = string(m[1])
				}
				para.Properties = props
			case "r":
				run, err := parseRun(dec, src)
				if err != nil {
					return nil, err
				}
				para.Children = append(para.Children, run)
			default:
				raw, err := captureRaw(dec, src, off)
				if err != nil {
					return nil, err
				}
				para.Children = append(para.Children, &RawNode{XML: raw})
			}
		case xml.EndElement:
			return para, nil
		}
	}
}

func parseRun(dec *xml.Decoder, src []byte) (*Run, error) {
	run := &Run{}
	for {
		off := dec.InputOffset()
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("failed to parse run: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "rPr":
				raw, err := captureRaw(dec, src, off)
				if err != nil {
					return nil, err
				}
				run.Properties = &RunProperties{Raw: raw}
			case "t":
				text, err := parseText(dec, t)
				if err != nil {
					return nil, err
				}
				run.Content = append(run.Content, text)
			case "br":
				br := &Break{}
				for _, a := range t.Attr {
					if a.Name.Local == "type" {
						br.Type = a.Value
					}
				}
				if err := dec.Skip(); err != nil {
					return nil, err
				}
				run.Content = append(run.Content, br)
			case "fldChar":
				fc := &FieldChar{}
				for _, a := range t.Attr {
					if a.Name.Local == "fldCharType" {
						fc.CharType = a.Value
					}
				}
				if err := dec.Skip(); err != nil {
					return nil, err
				}
				run.Content = append(run.Content, fc)
			case "instrText":
				var sb strings.Builder
				if err := readCharData(dec, &sb); err != nil {
					return nil, err
				}
				run.Content = append(run.Content, &InstrText{Content: sb.String()})
			default:
				raw, err := captureRaw(dec, src, off)
				if err != nil {
					return nil, err
				}
				run.Content = append(run.Content, &RawNode{XML: raw})
			}
		case xml.EndElement:
			return run, nil
		}
	}
}

func parseText(dec *xml.Decoder, start xml.StartElement) (*Text, error) {
	text := &Text{}
	for _, a := range start.Attr {
		if a.Name.Local == "space" {
			text.Space = a.Value
		}
	}
	var sb strings.Builder
	if err := readCharData(dec, &sb); err != nil {
		return nil, err
	}
	text.Content = sb.String()
	return text, nil
}

// readCharData consumes tokens up to the current element's end tag,
// collecting character data.
func readCharData(dec *xml.Decoder, sb *strings.Builder) error {
	depth := 0
	for {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.CharData:
			if depth == 0 {
				sb.Write(t)
			}
		case xml.StartElement:
			depth++
		case xml.EndElement:
			if depth == 0 {
				return nil
			}
			depth--
		}
	}
}

func parseTable(dec *xml.Decoder, src []byte) (*Table, error) {
	tbl := &Table{}
	for {
		off := dec.InputOffset()
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("failed to parse table: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "tblPr":
				raw, err := captureRaw(dec, src, off)
				if err != nil {
					return nil, err
				}
				tbl.PropertiesXML = raw
			case "tblGrid":
				raw, err := captureRaw(dec, src, off)
				if err != nil {
					return nil, err
				}
				tbl.GridXML = raw
			case "tr":
				row, err := parseTableRow(dec, src)
				if err != nil {
					return nil, err
				}
				tbl.Rows = append(tbl.Rows, row)
			default:
				raw, err := captureRaw(dec, src, off)
				if err != nil {
					return nil, err
				}
				tbl.extra = append(tbl.extra, raw)
			}
		case xml.EndElement:
			return tbl, nil
		}
	}
}

func parseTableRow(dec *xml.Decoder, src []byte) (TableRow, error) {
	row := TableRow{}
	for {
		off := dec.InputOffset()
		tok, err := dec.Token()
		if err != nil {
			return row, fmt.Errorf("failed to parse table row: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "trPr":
				raw, err := captureRaw(dec, src, off)
				if err != nil {
					return row, err
				}
				row.PropertiesXML = raw
			case "tc":
				cell, err := parseTableCell(dec, src)
				if err != nil {
					return row, err
				}
				row.Cells = append(row.Cells, cell)
			default:
				if err := dec.Skip(); err != nil {
					return row, err
				}
			}
		case xml.EndElement:
			return row, nil
		}
	}
}

func parseTableCell(dec *xml.Decoder, src []byte) (TableCell, error) {
	cell := TableCell{}
	for {
		off := dec.InputOffset()
		tok, err := dec.Token()
		if err != nil {
			return cell, fmt.Errorf("failed to parse table cell: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "tcPr":
				raw, err := captureRaw(dec, src, off)
				if err != nil {
					return cell, err
				}
				cell.PropertiesXML = raw
			case "p":
				para, err := parseParagraph(dec, src)
				if err != nil {
					return cell, err
				}
				cell.Blocks = append(cell.Blocks, para)
			case "tbl":
				nested, err := parseTable(dec, src)
				if err != nil {
					return cell, err
				}
				cell.Blocks = append(cell.Blocks, nested)
			default:
				raw, err := captureRaw(dec, src, off)
				if err != nil {
					return cell, err
				}
				cell.Blocks = append(cell.Blocks, &RawBlock{XML: raw})
			}
		case xml.EndElement:
			return cell, nil
		}
	}
}

// StyleTag returns the paragraph's style name, or "" when unstyled.
func (p *Paragraph) StyleTag() string {
	if p.Properties == nil {
		return ""
	}
	return p.Properties.Style
}

// IsHeading reports whether the paragraph carries a Heading-family style.
func (p *Paragraph) IsHeading() bool {
	return strings.HasPrefix(p.StyleTag(), "Heading")
}

// Text returns the concatenated w:t content of the paragraph's runs.
func (p *Paragraph) Text() string {
	var sb strings.Builder
	for _, child := range p.Children {
		run, ok := child.(*Run)
		if !ok {
			continue
		}
		for _, c := range run.Content {
			if t, ok := c.(*Text); ok {
				sb.WriteString(t.Content)
			}
		}
	}
	return sb.String()
}

// Runs returns the typed runs of the paragraph in order.
func (p *Paragraph) Runs() []*Run {
	var runs []*Run
	for _, child := range p.Children {
		if run, ok := child.(*Run); ok {
			runs = append(runs, run)
		}
	}
	return runs
}

// InsertAfter inserts blocks immediately after index i. i == -1 prepends.
func (b *Body) InsertAfter(i int, blocks ...Block) {
	if len(blocks) == 0 {
		return
	}
	at := i + 1
	if at < 0 {
		at = 0
	}
	if at > len(b.Blocks) {
		at = len(b.Blocks)
	}
	out := make([]Block, 0, len(b.Blocks)+len(blocks))
	out = append(out, b.Blocks[:at]...)
	out = append(out, blocks...)
	out = append(out, b.Blocks[at:]...)
	b.Blocks = out
}

// RemoveRange removes blocks in [i, j).
func (b *Body) RemoveRange(i, j int) {
	if i < 0 {
		i = 0
	}
	if j > len(b.Blocks) {
		j = len(b.Blocks)
	}
	if i >= j {
		return
	}
	b.Blocks = append(b.Blocks[:i], b.Blocks[j:]...)
}

// ExtractRange detaches and returns blocks in [i, j).
func (b *Body) ExtractRange(i, j int) []Block {
	if i < 0 {
		i = 0
	}
	if j > len(b.Blocks) {
		j = len(b.Blocks)
	}
	if i >= j {
		return nil
	}
	out := append([]Block(nil), b.Blocks[i:j]...)
	b.Blocks = append(b.Blocks[:i], b.Blocks[j:]...)
	return out
}

// Append adds blocks at the end of the body content (before any trailing
// section properties, which are serialized separately).
func (b *Body) Append(blocks ...Block) {
	b.Blocks = append(b.Blocks, blocks...)
}

// EachParagraph visits every paragraph in the body, including paragraphs
// nested inside table cells, in document order.
func (b *Body) EachParagraph(fn func(*Paragraph)) {
	eachParagraphIn(b.Blocks, fn)
}

func eachParagraphIn(blocks []Block, fn func(*Paragraph)) {
	for _, blk := range blocks {
		switch el := blk.(type) {
		case *Paragraph:
			fn(el)
		case *Table:
			for _, row := range el.Rows {
				for _, cell := range row.Cells {
					eachParagraphIn(cell.Blocks, fn)
				}
			}
		}
	}
}
