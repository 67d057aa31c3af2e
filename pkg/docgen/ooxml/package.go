package ooxml

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
)

const (
	documentPart     = "word/document.xml"
	settingsPart     = "word/settings.xml"
	relsPart         = "word/_rels/document.xml.rels"
	contentTypesPart = "[Content_Types].xml"

	imageRelationshipType    = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/image"
	settingsRelationshipType = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/settings"
)

// Package is an opened WordprocessingML archive. Parts are held as raw
// bytes in their original order; only parts explicitly mutated through the
// Package API are rewritten, everything else round-trips byte-identical.
type Package struct {
	names    []string
	parts    map[string][]byte
	Document *Document
}

// Open parses a package from its zip bytes. The archive must contain a
// main-body part.
func Open(data []byte) (*Package, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to read zip archive: %w", err)
	}

	pkg := &Package{parts: make(map[string][]byte)}
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("failed to open part %s: %w", f.Name, err)
		}
		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to read part %s: %w", f.Name, err)
		}
		pkg.names = append(pkg.names, f.Name)
		pkg.parts[f.Name] = content
	}

	body, ok := pkg.parts[documentPart]
	if !ok {
		return nil, fmt.Errorf("not a valid package: missing %s", documentPart)
	}
	doc, err := ParseDocument(body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", documentPart, err)
	}
	pkg.Document = doc
	return pkg, nil
}

// Part returns the raw bytes of a named part.
func (p *Package) Part(name string) ([]byte, bool) {
	b, ok := p.parts[name]
	return b, ok
}

// PartNames returns the part names in archive order.
func (p *Package) PartNames() []string {
	return append([]string(nil), p.names...)
}

// SetPart replaces a part's bytes, appending it to the archive when new.
func (p *Package) SetPart(name string, data []byte) {
	if _, ok := p.parts[name]; !ok {
		p.names = append(p.names, name)
	}
	p.parts[name] = data
}

// Write serializes the document tree into the main-body part and rebuilds
// the archive, copying every other part verbatim.
func (p *Package) Write() ([]byte, error) {
	p.parts[documentPart] = p.Document.Marshal()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, name := range p.names {
		fw, err := zw.Create(name)
		if err != nil {
			return nil, fmt.Errorf("failed to create part %s: %w", name, err)
		}
		if _, err := fw.Write(p.parts[name]); err != nil {
			return nil, fmt.Errorf("failed to write part %s: %w", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize archive: %w", err)
	}
	return buf.Bytes(), nil
}

var (
	mediaImageRe = regexp.MustCompile(`^word/media/image(\d+)\.`)
	relIDRe      = regexp.MustCompile(`Id="rId(\d+)"`)
)

// AddImage stores image bytes as a new media part, registers the content
// type and the document relationship, and returns the relationship ID for
// use in a drawing element.
func (p *Package) AddImage(data []byte, mimeType string) (string, error) {
	ext, err := imageExtension(mimeType)
	if err != nil {
		return "", err
	}

	// Next free media index
	maxImg := 0
	for name := range p.parts {
		if m := mediaImageRe.FindStringSubmatch(name); m != nil {
			if n, _ := strconv.Atoi(m[1]); n > maxImg {
				maxImg = n
			}
		}
	}
	mediaName := fmt.Sprintf("word/media/image%d%s", maxImg+1, ext)
	p.SetPart(mediaName, data)

	if err := p.ensureContentTypeDefault(strings.TrimPrefix(ext, "."), mimeType); err != nil {
		return "", err
	}

	relID, err := p.addRelationship(imageRelationshipType, strings.TrimPrefix(mediaName, "word/"))
	if err != nil {
		return "", err
	}
	return relID, nil
}

// addRelationship appends a relationship to the document's rels part and
// returns its allocated ID. The part is patched textually so unrelated
// entries keep their exact bytes.
func (p *Package) addRelationship(relType, target string) (string, error) {
	rels, ok := p.parts[relsPart]
	if !ok {
		rels = []byte(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n" +
			`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"></Relationships>`)
	}

	maxID := 0
	for _, m := range relIDRe.FindAllSubmatch(rels, -1) {
		if n, _ := strconv.Atoi(string(m[1])); n > maxID {
			maxID = n
		}
	}
	relID := fmt.Sprintf("rId%d", maxID+1)

	entry := fmt.Sprintf(`<Relationship Id=%q Type=%q Target=%q/>`, relID, relType, target)
	idx := bytes.LastIndex(rels, []byte("</Relationships>"))
	if idx == -1 {
		return "", fmt.Errorf("malformed relationships part")
	}
	patched := append([]byte(nil), rels[:idx]...)
	patched = append(patched, []byte(entry)...)
	patched = append(patched, rels[idx:]...)
	p.SetPart(relsPart, patched)
	return relID, nil
}

// ensureContentTypeDefault adds a Default extension mapping to
// [Content_Types].xml when it is not already declared.
func (p *Package) ensureContentTypeDefault(ext, mimeType string) error {
	ct, ok := p.parts[contentTypesPart]
	if !ok {
		return fmt.Errorf("package has no %s part", contentTypesPart)
	}
	if bytes.Contains(ct, []byte(fmt.Sprintf(`Extension="%s"`, ext))) {
		return nil
	}
	entry := fmt.Sprintf(`<Default Extension=%q ContentType=%q/>`, ext, mimeType)
	idx := bytes.LastIndex(ct, []byte("</Types>"))
	if idx == -1 {
		return fmt.Errorf("malformed %s part", contentTypesPart)
	}
	patched := append([]byte(nil), ct[:idx]...)
	patched = append(patched, []byte(entry)...)
	patched = append(patched, ct[idx:]...)
	p.SetPart(contentTypesPart, patched)
	return nil
}

var updateFieldsRe = regexp.MustCompile(`<w:updateFields[^>]*/>|<w:updateFields[^>]*>.*?</w:updateFields>`)

// EnableUpdateFields sets the settings-part flag that makes a compliant
// renderer recompute fields (the TOC in particular) on open. A missing
// settings part is synthesized and wired into the package.
func (p *Package) EnableUpdateFields() error {
	flag := []byte(`<w:updateFields w:val="true"/>`)

	settings, ok := p.parts[settingsPart]
	if !ok {
		settings = []byte(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n" +
			`<w:settings xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"></w:settings>`)
		if err := p.registerSettingsPart(); err != nil {
			return err
		}
	}

	settings = updateFieldsRe.ReplaceAll(settings, nil)
	open := bytes.Index(settings, []byte("<w:settings"))
	if open == -1 {
		return fmt.Errorf("malformed settings part")
	}
	openEnd := bytes.IndexByte(settings[open:], '>')
	if openEnd == -1 {
		return fmt.Errorf("malformed settings part")
	}
	at := open + openEnd + 1
	patched := append([]byte(nil), settings[:at]...)
	patched = append(patched, flag...)
	patched = append(patched, settings[at:]...)
	p.SetPart(settingsPart, patched)
	return nil
}

func (p *Package) registerSettingsPart() error {
	if _, err := p.addRelationship(settingsRelationshipType, "settings.xml"); err != nil {
		return err
	}
	ct, ok := p.parts[contentTypesPart]
	if !ok {
		return fmt.Errorf("package has no %s part", contentTypesPart)
	}
	if bytes.Contains(ct, []byte(`PartName="/word/settings.xml"`)) {
		return nil
	}
	entry := `<Override PartName="/word/settings.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.settings+xml"/>`
	idx := bytes.LastIndex(ct, []byte("</Types>"))
	if idx == -1 {
		return fmt.Errorf("malformed %s part", contentTypesPart)
	}
	patched := append([]byte(nil), ct[:idx]...)
	patched = append(patched, []byte(entry)...)
	patched = append(patched, ct[idx:]...)
	p.SetPart(contentTypesPart, patched)
	return nil
}
