package docgen

import (
	"bytes"
	"strings"

	"github.com/gcloudforge/docgen/pkg/docgen/ooxml"
)

const tocInstruction = ` TOC \o "1-3" \h \z \u `

// RefreshTOC removes any existing table-of-contents field from the body and
// inserts a fresh one at the position of the contents heading. It returns
// the index of the inserted field paragraph, or -1 when no contents heading
// exists and nothing was inserted.
//
// The field is left unresolved; pairing it with the package-level
// update-fields flag makes the next compliant renderer populate it. The
// field paragraph always ends with a page break so following content
// starts on a fresh page.
func RefreshTOC(body *ooxml.Body, contentsHeading string) int {
	removeExistingTOCFields(body)

	at := FindHeadingFold(body, contentsHeading)
	if at == -1 {
		return -1
	}
	field := buildTOCFieldParagraph(true)
	body.InsertAfter(at, field)
	return at + 1
}

// RebuildTOC re-runs the removal and insertion after composition so the
// field sits in its final position relative to the generated headings.
func RebuildTOC(body *ooxml.Body, contentsHeading string) {
	RefreshTOC(body, contentsHeading)
}

// removeExistingTOCFields strips every block that participates in a TOC
// complex field, along with structured-tag TOC containers.
func removeExistingTOCFields(body *ooxml.Body) {
	inField := false
	kept := body.Blocks[:0]
	for _, blk := range body.Blocks {
		switch el := blk.(type) {
		case *ooxml.Paragraph:
			begins, ends := fieldBoundaries(el)
			isTOC := inField || (begins && paragraphHasTOCInstr(el))
			if begins && !inField && paragraphHasTOCInstr(el) {
				inField = !ends
			} else if inField && ends {
				inField = false
			}
			if isTOC {
				continue
			}
		case *ooxml.RawBlock:
			if bytes.Contains(el.XML, []byte("instrText")) && bytes.Contains(el.XML, []byte(" TOC ")) {
				continue
			}
		}
		kept = append(kept, blk)
	}
	body.Blocks = kept
}

// fieldBoundaries reports whether the paragraph opens and/or closes a
// complex field.
func fieldBoundaries(p *ooxml.Paragraph) (begins, ends bool) {
	for _, run := range p.Runs() {
		for _, c := range run.Content {
			fc, ok := c.(*ooxml.FieldChar)
			if !ok {
				continue
			}
			switch fc.CharType {
			case "begin":
				begins = true
			case "end":
				ends = true
			}
		}
	}
	return begins, ends
}

func paragraphHasTOCInstr(p *ooxml.Paragraph) bool {
	for _, run := range p.Runs() {
		for _, c := range run.Content {
			if it, ok := c.(*ooxml.InstrText); ok {
				if strings.Contains(it.Content, "TOC") {
					return true
				}
			}
		}
	}
	return false
}

// buildTOCFieldParagraph assembles the four-run complex field that a
// renderer resolves into a table of contents. withPageBreak appends an
// explicit page break so following content starts on a new page.
func buildTOCFieldParagraph(withPageBreak bool) *ooxml.Paragraph {
	p := &ooxml.Paragraph{}
	p.AddRun(&ooxml.Run{Content: []ooxml.RunChild{&ooxml.FieldChar{CharType: "begin"}}})
	p.AddRun(&ooxml.Run{Content: []ooxml.RunChild{&ooxml.InstrText{Content: tocInstruction}}})
	p.AddRun(&ooxml.Run{Content: []ooxml.RunChild{&ooxml.FieldChar{CharType: "separate"}}})
	p.AddRun(&ooxml.Run{Content: []ooxml.RunChild{&ooxml.FieldChar{CharType: "end"}}})
	if withPageBreak {
		p.AddRun(ooxml.NewPageBreakRun())
	}
	return p
}
