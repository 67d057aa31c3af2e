package docgen

import (
	"bytes"
	"strings"

	"github.com/gcloudforge/docgen/pkg/docgen/ooxml"
)

// FindHeading returns the index of the first heading paragraph whose text
// contains the given substring, or -1. Matching is case-sensitive.
func FindHeading(body *ooxml.Body, substr string) int {
	for i, blk := range body.Blocks {
		p, ok := blk.(*ooxml.Paragraph)
		if !ok || !p.IsHeading() {
			continue
		}
		if strings.Contains(p.Text(), substr) {
			return i
		}
	}
	return -1
}

// FindHeadingFold is FindHeading with case-insensitive matching.
func FindHeadingFold(body *ooxml.Body, substr string) int {
	needle := strings.ToLower(substr)
	for i, blk := range body.Blocks {
		p, ok := blk.(*ooxml.Paragraph)
		if !ok || !p.IsHeading() {
			continue
		}
		if strings.Contains(strings.ToLower(p.Text()), needle) {
			return i
		}
	}
	return -1
}

// headingRegionEnd returns the index one past the last block belonging to
// the heading at start: content runs until the next heading of the same or
// higher level, or the end of the body.
func headingRegionEnd(body *ooxml.Body, start int) int {
	level := headingLevel(body.Blocks[start])
	for i := start + 1; i < len(body.Blocks); i++ {
		p, ok := body.Blocks[i].(*ooxml.Paragraph)
		if !ok || !p.IsHeading() {
			continue
		}
		if l := headingLevel(p); l > 0 && l <= level {
			return i
		}
	}
	return len(body.Blocks)
}

func headingLevel(blk ooxml.Block) int {
	p, ok := blk.(*ooxml.Paragraph)
	if !ok {
		return 0
	}
	style := p.StyleTag()
	if !strings.HasPrefix(style, "Heading") {
		return 0
	}
	switch style[len("Heading"):] {
	case "1":
		return 1
	case "2":
		return 2
	case "3":
		return 3
	case "4":
		return 4
	case "5":
		return 5
	default:
		return 0
	}
}

// RemoveHeadingBlock deletes the heading containing substr together with
// its whole region (everything up to the next heading of the same or
// higher level). It reports whether a region was removed.
func RemoveHeadingBlock(body *ooxml.Body, substr string) bool {
	start := FindHeading(body, substr)
	if start == -1 {
		return false
	}
	end := headingRegionEnd(body, start)
	body.RemoveRange(start, end)
	return true
}

// ExtractHeadingBlock detaches and returns the region of the heading
// containing substr, matched case-insensitively. Returns nil when the
// heading is absent.
func ExtractHeadingBlock(body *ooxml.Body, substr string) []ooxml.Block {
	start := FindHeadingFold(body, substr)
	if start == -1 {
		return nil
	}
	end := headingRegionEnd(body, start)
	return body.ExtractRange(start, end)
}

// ExtractBlockByMarker detaches the blocks delimited by a start and end
// marker text. The marker paragraphs themselves are dropped; when a marker
// sits inside an otherwise non-empty paragraph, that paragraph is kept with
// the marker text scrubbed. Returns nil when either marker is missing.
func ExtractBlockByMarker(body *ooxml.Body, startMarker, endMarker string) []ooxml.Block {
	start := findMarker(body, startMarker, 0)
	if start == -1 {
		return nil
	}
	end := findMarker(body, endMarker, start+1)
	if end == -1 {
		return nil
	}

	extracted := body.ExtractRange(start, end+1)
	var out []ooxml.Block
	for _, blk := range extracted {
		p, ok := blk.(*ooxml.Paragraph)
		if !ok {
			out = append(out, blk)
			continue
		}
		text := p.Text()
		if text == startMarker || text == endMarker {
			continue
		}
		if strings.Contains(text, startMarker) || strings.Contains(text, endMarker) {
			scrubMarker(p, startMarker)
			scrubMarker(p, endMarker)
		}
		out = append(out, blk)
	}
	return out
}

func findMarker(body *ooxml.Body, marker string, from int) int {
	for i := from; i < len(body.Blocks); i++ {
		switch blk := body.Blocks[i].(type) {
		case *ooxml.Paragraph:
			if strings.Contains(blk.Text(), marker) {
				return i
			}
		case *ooxml.RawBlock:
			if bytes.Contains(blk.XML, []byte(marker)) {
				return i
			}
		}
	}
	return -1
}

func scrubMarker(p *ooxml.Paragraph, marker string) {
	if marker == "" {
		return
	}
	for _, run := range p.Runs() {
		for _, c := range run.Content {
			if t, ok := c.(*ooxml.Text); ok {
				t.Content = strings.ReplaceAll(t.Content, marker, "")
			}
		}
	}
}
