package storage

import (
	"context"
	"fmt"
	"regexp"
	"strings"
)

// DocType identifies the artifact family within a service folder.
type DocType string

const (
	DocTypeServiceDescription DocType = "SERVICE DESC"
	DocTypePricingDocument    DocType = "Pricing Doc"
)

// ArtifactKey addresses one generated document inside the framework
// taxonomy. The same key structure is used across all backends.
type ArtifactKey struct {
	ServiceName      string
	DocType          DocType
	FrameworkVersion string
	Lot              string
	Draft            bool
}

var (
	unsafeFolderChars = regexp.MustCompile(`[^\w\s-]`)
	whitespaceRuns    = regexp.MustCompile(`\s+`)
)

// NormalizeServiceFolder converts a service name into a safe folder
// segment: unsafe characters stripped, whitespace collapsed, spaces turned
// into underscores.
func NormalizeServiceFolder(serviceName string) string {
	cleaned := unsafeFolderChars.ReplaceAllString(serviceName, "")
	cleaned = strings.TrimSpace(whitespaceRuns.ReplaceAllString(cleaned, " "))
	return strings.ReplaceAll(cleaned, " ", "_")
}

// Filename returns the display filename for the artifact. Unlike the
// folder segment it keeps the service name's spaces.
func (k ArtifactKey) Filename(ext string) string {
	name := fmt.Sprintf("PA GC%s %s %s", k.FrameworkVersion, k.DocType, k.ServiceName)
	if k.Draft {
		name += "_draft"
	}
	return name + "." + strings.TrimPrefix(ext, ".")
}

// FolderPrefix returns the key prefix of the artifact's service folder,
// with a trailing slash.
func (k ArtifactKey) FolderPrefix() string {
	return fmt.Sprintf("GCloud %s/PA Services/Cloud Support Services LOT %s/%s/",
		k.FrameworkVersion, k.Lot, NormalizeServiceFolder(k.ServiceName))
}

// Key returns the full storage key for the artifact with the given
// extension.
func (k ArtifactKey) Key(ext string) string {
	return k.FolderPrefix() + k.Filename(ext)
}

// Supersede removes artifacts made stale by publishing this key: the draft
// variant when publishing a final, and any earlier same-family files under
// the folder whose name differs from the one being written. Missing
// objects are not an error.
func (k ArtifactKey) Supersede(ctx context.Context, backend Backend, ext string) error {
	if k.Draft {
		return nil
	}
	current := k.Key(ext)

	draft := k
	draft.Draft = true
	if err := backend.Delete(ctx, draft.Key(ext)); err != nil && err != ErrNotFound {
		return fmt.Errorf("failed to remove stale draft: %w", err)
	}

	family := fmt.Sprintf("PA GC%s %s ", k.FrameworkVersion, k.DocType)
	keys, err := backend.List(ctx, k.FolderPrefix())
	if err != nil {
		return fmt.Errorf("failed to list service folder: %w", err)
	}
	for _, key := range keys {
		if key == current {
			continue
		}
		base := key[strings.LastIndex(key, "/")+1:]
		if !strings.HasPrefix(base, family) || !strings.HasSuffix(base, "."+strings.TrimPrefix(ext, ".")) {
			continue
		}
		if err := backend.Delete(ctx, key); err != nil && err != ErrNotFound {
			return fmt.Errorf("failed to remove superseded artifact %s: %w", key, err)
		}
	}
	return nil
}
