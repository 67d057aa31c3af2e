package docgen

import (
	"context"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/gcloudforge/docgen/pkg/docgen/ooxml"
)

// renderHTML converts a constrained HTML fragment into block nodes. The
// parser is tolerant: malformed markup never errors, and unknown elements
// degrade to plain paragraphs carrying their text content.
//
// Supported: p, strong/b, em/i, br, h3, ul, ol, li, img, and bare text.
func (c *Composer) renderHTML(ctx context.Context, src string) ([]ooxml.Block, error) {
	nodes, err := html.ParseFragment(strings.NewReader(src), &html.Node{
		Type:     html.ElementNode,
		Data:     "div",
		DataAtom: atom.Div,
	})
	if err != nil {
		// ParseFragment only fails on reader errors; a string reader
		// cannot produce one, but degrade to plain text regardless.
		return []ooxml.Block{ooxml.NewParagraph("", src)}, nil
	}

	var out []ooxml.Block
	for _, n := range nodes {
		out = append(out, c.renderTopLevel(ctx, n)...)
	}
	return out, nil
}

func (c *Composer) renderTopLevel(ctx context.Context, n *html.Node) []ooxml.Block {
	switch n.Type {
	case html.TextNode:
		text := strings.TrimSpace(n.Data)
		if text == "" {
			return nil
		}
		return []ooxml.Block{ooxml.NewParagraph("", text)}
	case html.ElementNode:
	default:
		return nil
	}

	switch n.DataAtom {
	case atom.P:
		return c.renderParagraphNode(ctx, n, "")
	case atom.H3:
		return c.renderParagraphNode(ctx, n, "Heading3")
	case atom.Ul:
		return c.renderList(ctx, n, "ListBullet")
	case atom.Ol:
		return c.renderList(ctx, n, "ListNumber")
	case atom.Br:
		return []ooxml.Block{ooxml.NewParagraph("", "")}
	case atom.Img:
		if src := attrValue(n, "src"); src != "" {
			return []ooxml.Block{c.imageOrFallback(ctx, src)}
		}
		return nil
	default:
		// Unknown element: keep the text, drop the markup.
		return c.renderParagraphNode(ctx, n, "")
	}
}

// renderParagraphNode flattens an element into one paragraph with styled
// runs. Nested images split out into their own paragraphs after it.
func (c *Composer) renderParagraphNode(ctx context.Context, n *html.Node, style string) []ooxml.Block {
	p := ooxml.NewParagraph(style, "")
	var trailing []ooxml.Block
	c.renderInline(ctx, n, p, inlineFormat{}, &trailing)
	if len(p.Children) == 0 && len(trailing) > 0 {
		return trailing
	}
	return append([]ooxml.Block{p}, trailing...)
}

type inlineFormat struct {
	bold   bool
	italic bool
}

func (c *Composer) renderInline(ctx context.Context, n *html.Node, p *ooxml.Paragraph, f inlineFormat, trailing *[]ooxml.Block) {
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		switch child.Type {
		case html.TextNode:
			if child.Data == "" {
				continue
			}
			p.AddRun(ooxml.NewTextRun(child.Data, runProps(f)))
		case html.ElementNode:
			switch child.DataAtom {
			case atom.Strong, atom.B:
				c.renderInline(ctx, child, p, inlineFormat{bold: true, italic: f.italic}, trailing)
			case atom.Em, atom.I:
				c.renderInline(ctx, child, p, inlineFormat{bold: f.bold, italic: true}, trailing)
			case atom.Br:
				p.AddRun(&ooxml.Run{Content: []ooxml.RunChild{&ooxml.Break{}}})
			case atom.Img:
				if src := attrValue(child, "src"); src != "" {
					*trailing = append(*trailing, c.imageOrFallback(ctx, src))
				}
			default:
				c.renderInline(ctx, child, p, f, trailing)
			}
		}
	}
}

func (c *Composer) renderList(ctx context.Context, n *html.Node, style string) []ooxml.Block {
	var out []ooxml.Block
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		if child.Type != html.ElementNode || child.DataAtom != atom.Li {
			continue
		}
		out = append(out, c.renderParagraphNode(ctx, child, style)...)
	}
	return out
}

func runProps(f inlineFormat) *ooxml.RunProperties {
	if !f.bold && !f.italic {
		return nil
	}
	return &ooxml.RunProperties{Bold: f.bold, Italic: f.italic}
}

func attrValue(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}
