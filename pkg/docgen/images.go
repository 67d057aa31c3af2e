package docgen

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"net/http"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-resty/resty/v2"

	"github.com/gcloudforge/docgen/pkg/docgen/ooxml"
)

const (
	emuPerPixel = 9525
	// maxWidthEMU is 576 px at 96 dpi, the usable width inside the
	// template's margins.
	maxWidthEMU = 5486400

	defaultImageTimeout = 15 * time.Second
)

// ImageFetcher retrieves image bytes from http(s) URLs and data URIs.
type ImageFetcher struct {
	client *resty.Client
}

// NewImageFetcher builds a fetcher with a bounded per-request timeout.
func NewImageFetcher(timeout time.Duration) *ImageFetcher {
	if timeout <= 0 {
		timeout = defaultImageTimeout
	}
	client := resty.New().
		SetTimeout(timeout).
		SetRetryCount(1)
	return &ImageFetcher{client: client}
}

// Fetch resolves src into image bytes and a MIME type. Supported schemes
// are data: and http(s).
func (f *ImageFetcher) Fetch(ctx context.Context, src string) ([]byte, string, error) {
	if strings.HasPrefix(src, "data:") {
		return parseDataURI(src)
	}
	if !strings.HasPrefix(src, "http://") && !strings.HasPrefix(src, "https://") {
		return nil, "", fmt.Errorf("unsupported image source %q", src)
	}

	resp, err := f.client.R().SetContext(ctx).Get(src)
	if err != nil {
		return nil, "", fmt.Errorf("failed to fetch image: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, "", fmt.Errorf("failed to fetch image: status %d", resp.StatusCode())
	}
	data := resp.Body()
	mime := strings.TrimSpace(strings.SplitN(resp.Header().Get("Content-Type"), ";", 2)[0])
	if mime == "" || mime == "application/octet-stream" {
		mime = mimetype.Detect(data).String()
	}
	return data, mime, nil
}

// parseDataURI decodes a base64 data URI of the form
// data:image/png;base64,....
func parseDataURI(uri string) ([]byte, string, error) {
	rest := strings.TrimPrefix(uri, "data:")
	semi := strings.Index(rest, ";base64,")
	if semi == -1 {
		return nil, "", fmt.Errorf("unsupported data URI encoding")
	}
	mime := rest[:semi]
	payload := rest[semi+len(";base64,"):]
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, "", fmt.Errorf("failed to decode data URI: %w", err)
	}
	if mime == "" {
		mime = mimetype.Detect(data).String()
	}
	return data, mime, nil
}

// imageDimensionsEMU measures the image and scales it to fit the usable
// page width, preserving aspect ratio. Undecodable images fall back to a
// fixed 300x200 px box.
func imageDimensionsEMU(data []byte) (cx, cy int64) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil || cfg.Width <= 0 || cfg.Height <= 0 {
		return 300 * emuPerPixel, 200 * emuPerPixel
	}
	cx = int64(cfg.Width) * emuPerPixel
	cy = int64(cfg.Height) * emuPerPixel
	if cx > maxWidthEMU {
		cy = cy * maxWidthEMU / cx
		cx = maxWidthEMU
	}
	return cx, cy
}

// buildImageParagraph embeds the image into the package and returns a
// centered paragraph holding the inline drawing. docPrID must be unique
// within the document; the composer allocates it.
func buildImageParagraph(pkg *ooxml.Package, data []byte, mime, altText string, docPrID int) (*ooxml.Paragraph, error) {
	relID, err := pkg.AddImage(data, mime)
	if err != nil {
		return nil, err
	}
	cx, cy := imageDimensionsEMU(data)

	drawing := fmt.Sprintf(
		`<w:drawing><wp:inline distT="0" distB="0" distL="0" distR="0" xmlns:wp="http://schemas.openxmlformats.org/drawingml/2006/wordprocessingDrawing">`+
			`<wp:extent cx="%d" cy="%d"/>`+
			`<wp:docPr id="%d" name=%q/>`+
			`<a:graphic xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main">`+
			`<a:graphicData uri="http://schemas.openxmlformats.org/drawingml/2006/picture">`+
			`<pic:pic xmlns:pic="http://schemas.openxmlformats.org/drawingml/2006/picture">`+
			`<pic:nvPicPr><pic:cNvPr id="%d" name=%q/><pic:cNvPicPr/></pic:nvPicPr>`+
			`<pic:blipFill><a:blip r:embed=%q xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships"/><a:stretch><a:fillRect/></a:stretch></pic:blipFill>`+
			`<pic:spPr><a:xfrm><a:off x="0" y="0"/><a:ext cx="%d" cy="%d"/></a:xfrm>`+
			`<a:prstGeom prst="rect"><a:avLst/></a:prstGeom></pic:spPr>`+
			`</pic:pic></a:graphicData></a:graphic></wp:inline></w:drawing>`,
		cx, cy, docPrID, altText, docPrID, altText, relID, cx, cy,
	)

	p := &ooxml.Paragraph{
		Properties: &ooxml.ParagraphProperties{
			Raw: []byte(`<w:pPr><w:jc w:val="center"/></w:pPr>`),
		},
	}
	p.Children = append(p.Children, &ooxml.Run{
		Content: []ooxml.RunChild{&ooxml.RawNode{XML: []byte(drawing)}},
	})
	return p, nil
}
