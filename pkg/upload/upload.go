// Package upload stores user-supplied files as addressable artifacts for
// later embedding in generated documents.
package upload

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"github.com/gcloudforge/docgen/pkg/storage"
)

const keyPrefix = "uploads/"

// Result describes a stored upload.
type Result struct {
	Key         string `json:"key"`
	ContentType string `json:"content_type"`
	Size        int    `json:"size"`
	IsImage     bool   `json:"is_image"`
}

// Store persists data under a fresh uploads key. declaredType is the
// client-claimed content type; it is trusted for the extension only when
// content sniffing agrees that the data is of that general kind.
func Store(ctx context.Context, backend storage.Backend, data []byte, declaredType string) (*Result, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty upload")
	}

	contentType := detectContentType(data, declaredType)
	key := keyPrefix + uuid.NewString() + extensionFor(contentType)
	if err := backend.Put(ctx, key, data); err != nil {
		return nil, fmt.Errorf("failed to store upload: %w", err)
	}
	return &Result{
		Key:         key,
		ContentType: contentType,
		Size:        len(data),
		IsImage:     strings.HasPrefix(contentType, "image/"),
	}, nil
}

// detectContentType resolves the effective content type: the declared type
// when it matches the sniffed family, otherwise what the bytes say.
func detectContentType(data []byte, declaredType string) string {
	declared := strings.TrimSpace(strings.SplitN(declaredType, ";", 2)[0])

	sniffed := strings.TrimSpace(strings.SplitN(http.DetectContentType(data), ";", 2)[0])
	if sniffed == "application/octet-stream" {
		// The stdlib sniffer covers a narrow set; fall back to the
		// extended detector.
		sniffed = mimetype.Detect(data).String()
	}
	if declared != "" && sameFamily(declared, sniffed) {
		return declared
	}
	return sniffed
}

func sameFamily(a, b string) bool {
	fa, _, _ := strings.Cut(a, "/")
	fb, _, _ := strings.Cut(b, "/")
	return fa == fb
}

func extensionFor(contentType string) string {
	if mt := mimetype.Lookup(contentType); mt != nil && mt.Extension() != "" {
		return mt.Extension()
	}
	return ".bin"
}
