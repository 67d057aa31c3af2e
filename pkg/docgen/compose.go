package docgen

import (
	"context"
	"fmt"

	"github.com/gcloudforge/docgen/pkg/docgen/ooxml"
	"github.com/gcloudforge/docgen/pkg/logger"
)

const (
	// accentColor paints list ordinals in the corporate red.
	accentColor = "C00000"

	// maxListItems caps each of the two key lists.
	maxListItems = 10

	titleSizeHalfPts = 48

	headingContents = "Contents"

	headingShortDescription = "Short Service Description"
	headingKeyFeatures      = "Key Service Features"
	headingKeyBenefits      = "Key Service Benefits"
	headingServiceDefn      = "Service Definition"
	headingAboutPA          = "About PA"

	aboutStartMarker = "{{ABOUT_PA_START}}"
	aboutEndMarker   = "{{ABOUT_PA_END}}"
)

// templateSections are the regions the composer rebuilds from scratch on
// every run.
var templateSections = []string{
	headingShortDescription,
	headingKeyFeatures,
	headingKeyBenefits,
	headingServiceDefn,
}

// ContentBlock is one rich subsection of the service definition.
type ContentBlock struct {
	Subtitle string     `json:"subtitle"`
	Content  string     `json:"content"`
	Images   []string   `json:"images"`
	Table    [][]string `json:"table"`
}

// Composer performs the in-document content assembly: retitling, section
// teardown and rebuild, list rendering, subsections, and the closing block.
type Composer struct {
	pkg     *ooxml.Package
	log     logger.Logger
	fetcher *ImageFetcher

	nextDocPrID int
}

// NewComposer builds a composer over an opened package. A nil fetcher
// disables remote image embedding (data URIs still work through it, so nil
// disables those too).
func NewComposer(pkg *ooxml.Package, log logger.Logger, fetcher *ImageFetcher) *Composer {
	if log == nil {
		log = logger.NewNop()
	}
	return &Composer{pkg: pkg, log: log, fetcher: fetcher, nextDocPrID: 1000}
}

// ReplaceTitle rewrites the first top-level heading to the service title as
// a single bold 24pt run. When the template carries no such heading the
// known title placeholders are replaced in place instead.
func (c *Composer) ReplaceTitle(title string) {
	for _, blk := range c.pkg.Document.Body.Blocks {
		p, ok := blk.(*ooxml.Paragraph)
		if !ok || p.StyleTag() != "Heading1" {
			continue
		}
		p.Children = []ooxml.ParagraphChild{
			ooxml.NewTextRun(title, &ooxml.RunProperties{Bold: true, SizeHalfPts: titleSizeHalfPts}),
		}
		return
	}
	c.log.Debug("no top-level heading found, replacing title placeholders instead")
	ServiceNamePlaceholders(title).ApplyToTree(c.pkg.Document.Body)
}

// RemoveSections deletes every template section region the composer will
// rebuild.
func (c *Composer) RemoveSections() {
	for _, h := range templateSections {
		if RemoveHeadingBlock(c.pkg.Document.Body, h) {
			c.log.Debug("removed template section", "heading", h)
		}
	}
}

// ExtractAbout detaches the closing block, preferring the explicit markers
// and falling back to the heading. Returns nil when the template has no
// closing block.
func (c *Composer) ExtractAbout() []ooxml.Block {
	if blocks := ExtractBlockByMarker(c.pkg.Document.Body, aboutStartMarker, aboutEndMarker); blocks != nil {
		return blocks
	}
	return ExtractHeadingBlock(c.pkg.Document.Body, headingAboutPA)
}

// InsertContent builds the full content block immediately after index at
// (normally the contents field paragraph). When at is -1 the content is
// appended at the end of the body instead.
func (c *Composer) InsertContent(ctx context.Context, at int, title, description string, features, benefits []string, blocks []ContentBlock) error {
	var out []ooxml.Block

	out = append(out, ooxml.NewParagraph("Heading1", title).SetSpacingAfter(16))

	out = append(out, ooxml.NewParagraph("Heading2", headingShortDescription).SetSpacingAfter(10))
	out = append(out, ooxml.NewParagraph("", description).SetSpacingAfter(16))

	out = append(out, ooxml.NewParagraph("Heading2", headingKeyFeatures).SetSpacingAfter(10))
	out = append(out, c.numberedList(features)...)
	out = append(out, ooxml.NewParagraph("", "").SetSpacingAfter(14))

	out = append(out, ooxml.NewParagraph("Heading2", headingKeyBenefits).SetSpacingAfter(8))
	out = append(out, c.numberedList(benefits)...)
	out = append(out, ooxml.NewParagraph("", "").SetSpacingAfter(16))

	if len(blocks) > 0 {
		out = append(out, ooxml.NewParagraph("Heading2", headingServiceDefn).SetSpacingAfter(6))
		for _, blk := range blocks {
			rendered, err := c.renderBlock(ctx, blk)
			if err != nil {
				return err
			}
			out = append(out, rendered...)
		}
	}

	if at < 0 {
		c.pkg.Document.Body.Append(out...)
	} else {
		c.pkg.Document.Body.InsertAfter(at, out...)
	}
	c.log.Debug("inserted content block",
		"features", len(features), "benefits", len(benefits), "subsections", len(blocks))
	return nil
}

// numberedList renders up to maxListItems entries as manually numbered
// paragraphs: a bold accent-colored ordinal run followed by a plain run.
func (c *Composer) numberedList(items []string) []ooxml.Block {
	if len(items) > maxListItems {
		c.log.Warn("list truncated", "given", len(items), "kept", maxListItems)
		items = items[:maxListItems]
	}
	out := make([]ooxml.Block, 0, len(items))
	for i, item := range items {
		p := &ooxml.Paragraph{}
		p.AddRun(ooxml.NewTextRun(fmt.Sprintf("%d. ", i+1), &ooxml.RunProperties{
			Bold:  true,
			Color: accentColor,
		}))
		p.AddRun(ooxml.NewTextRun(item, &ooxml.RunProperties{Color: "000000"}))
		p.SetSpacingAfter(4)
		out = append(out, p)
	}
	return out
}

// renderBlock renders one subsection: optional subtitle, HTML content,
// trailing images and an optional table.
func (c *Composer) renderBlock(ctx context.Context, blk ContentBlock) ([]ooxml.Block, error) {
	var out []ooxml.Block

	if blk.Subtitle != "" {
		out = append(out, ooxml.NewParagraph("Heading3", blk.Subtitle).SetSpacingAfter(6))
	}

	if blk.Content != "" {
		rendered, err := c.renderHTML(ctx, blk.Content)
		if err != nil {
			return nil, NewComposeError("html rendering", err)
		}
		out = append(out, rendered...)
		out = append(out, ooxml.NewParagraph("", ""))
	}

	for _, src := range blk.Images {
		out = append(out, c.imageOrFallback(ctx, src))
	}

	if len(blk.Table) > 0 {
		out = append(out, ooxml.NewGridTable(blk.Table))
		out = append(out, ooxml.NewParagraph("", ""))
	}
	return out, nil
}

// imageOrFallback embeds the image, degrading to a visible text reference
// when fetching or embedding fails. Image trouble never fails a document.
func (c *Composer) imageOrFallback(ctx context.Context, src string) ooxml.Block {
	if c.fetcher == nil {
		c.log.Warn("image skipped, no fetcher configured", "src", src)
		return ooxml.NewParagraph("", fmt.Sprintf("[image: %s]", src))
	}
	data, mime, err := c.fetcher.Fetch(ctx, src)
	if err != nil {
		c.log.Warn("image fetch failed", "src", src, "error", err)
		return ooxml.NewParagraph("", fmt.Sprintf("[image: %s]", src))
	}
	c.nextDocPrID++
	p, err := buildImageParagraph(c.pkg, data, mime, "embedded image", c.nextDocPrID)
	if err != nil {
		c.log.Warn("image embed failed", "src", src, "error", err)
		return ooxml.NewParagraph("", fmt.Sprintf("[image: %s]", src))
	}
	return p
}

// AppendClosing re-attaches the closing block at the end of the document.
// Two spacer paragraphs precede it, the second carrying an explicit page
// break, plus one spacer after the break, so the block starts cleanly on
// its own page.
func (c *Composer) AppendClosing(about []ooxml.Block) {
	if len(about) == 0 {
		return
	}
	body := c.pkg.Document.Body
	body.Append(ooxml.NewParagraph("", ""))
	brk := &ooxml.Paragraph{}
	brk.AddRun(ooxml.NewPageBreakRun())
	body.Append(brk)
	body.Append(ooxml.NewParagraph("", ""))
	body.Append(about...)
	c.log.Debug("appended closing block", "blocks", len(about))
}
