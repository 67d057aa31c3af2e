package docgen

import (
	"bytes"
	"encoding/xml"
	"regexp"
	"sort"
	"strings"

	"github.com/gcloudforge/docgen/pkg/docgen/ooxml"
)

// PlaceholderMap holds marker-to-value replacements. Both passes apply the
// markers longest-first so a marker that is a prefix of another can never
// clobber it, and both passes are idempotent: once a marker is gone,
// reapplying the map is a no-op.
type PlaceholderMap map[string]string

// ServiceNamePlaceholders returns the replacement set that retitles a
// template: every known placeholder spelling maps to the service name.
func ServiceNamePlaceholders(serviceName string) PlaceholderMap {
	return PlaceholderMap{
		"ENTER SERVICE NAME HERE": serviceName,
		"Enter Service Name Here": serviceName,
		"enter service name here": serviceName,
		"Add Title":               serviceName,
		"{{SERVICE_NAME}}":        serviceName,
	}
}

// orderedPairs returns the map entries sorted by descending marker length,
// ties broken lexicographically for determinism.
func (m PlaceholderMap) orderedPairs() [][2]string {
	pairs := make([][2]string, 0, len(m))
	for k, v := range m {
		pairs = append(pairs, [2]string{k, v})
	}
	sort.Slice(pairs, func(i, j int) bool {
		if len(pairs[i][0]) != len(pairs[j][0]) {
			return len(pairs[i][0]) > len(pairs[j][0])
		}
		return pairs[i][0] < pairs[j][0]
	})
	return pairs
}

// textNodeRe matches a single text node of the main or drawing namespace in
// serialized form, capturing the opening tag, the content, and the closing
// tag. Content never contains '<' so the match cannot cross nodes.
var textNodeRe = regexp.MustCompile(`(<(?:w|a):t(?:\s[^>]*)?>)([^<]*)(</(?:w|a):t>)`)

// ApplyToTree resolves placeholders across the parsed body: typed text
// nodes directly, raw-XML children (drawings, text boxes, structured tags)
// through a text-node patch that leaves all markup untouched.
func (m PlaceholderMap) ApplyToTree(body *ooxml.Body) {
	if len(m) == 0 {
		return
	}
	pairs := m.orderedPairs()

	body.EachParagraph(func(p *ooxml.Paragraph) {
		for _, run := range p.Runs() {
			for _, c := range run.Content {
				switch n := c.(type) {
				case *ooxml.Text:
					n.Content = replaceOrdered(n.Content, pairs, false)
				case *ooxml.RawNode:
					n.XML = patchTextNodes(n.XML, pairs)
				}
			}
		}
		for _, child := range p.Children {
			if n, ok := child.(*ooxml.RawNode); ok {
				n.XML = patchTextNodes(n.XML, pairs)
			}
		}
	})
	for _, blk := range body.Blocks {
		if rb, ok := blk.(*ooxml.RawBlock); ok {
			rb.XML = patchTextNodes(rb.XML, pairs)
		}
	}
}

// PatchSerialized resolves placeholders in every word/*.xml part of an
// already-written package: headers, footers, footnotes and any other part
// the tree pass cannot see. Non-XML parts are never touched.
func (m PlaceholderMap) PatchSerialized(pkg *ooxml.Package) {
	if len(m) == 0 {
		return
	}
	pairs := m.orderedPairs()
	for _, name := range pkg.PartNames() {
		if !strings.HasPrefix(name, "word/") || !strings.HasSuffix(name, ".xml") {
			continue
		}
		data, ok := pkg.Part(name)
		if !ok {
			continue
		}
		patched := patchTextNodes(data, pairs)
		if !bytes.Equal(patched, data) {
			pkg.SetPart(name, patched)
		}
	}
}

// patchTextNodes rewrites the content of every text node in a serialized
// fragment, escaping replacement values.
func patchTextNodes(src []byte, pairs [][2]string) []byte {
	if !bytes.Contains(src, []byte(":t")) {
		return src
	}
	return textNodeRe.ReplaceAllFunc(src, func(node []byte) []byte {
		sub := textNodeRe.FindSubmatch(node)
		content := string(sub[2])
		replaced := replaceOrdered(content, pairs, true)
		if replaced == content {
			return node
		}
		out := append([]byte(nil), sub[1]...)
		out = append(out, []byte(replaced)...)
		out = append(out, sub[3]...)
		return out
	})
}

// replaceOrdered applies the pairs in order. With escape set, both marker
// and value are matched and written in serialized (entity-escaped) form, so
// patching raw XML content never introduces unescaped characters.
func replaceOrdered(s string, pairs [][2]string, escape bool) string {
	for _, kv := range pairs {
		marker, val := kv[0], kv[1]
		if escape {
			marker = escapeXML(marker)
			val = escapeXML(val)
		}
		if !strings.Contains(s, marker) {
			continue
		}
		s = strings.ReplaceAll(s, marker, val)
	}
	return s
}

func escapeXML(s string) string {
	var buf bytes.Buffer
	_ = xml.EscapeText(&buf, []byte(s))
	return buf.String()
}
