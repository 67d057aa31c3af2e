// Package docgen composes proposal documents by splicing structured content
// into a fixed corporate template while preserving everything else in the
// package byte-for-byte.
package docgen

import (
	"fmt"
	"strings"
)

// TemplateNotFoundError reports that no configured template source produced
// a template.
type TemplateNotFoundError struct {
	Candidates []string
}

func (e *TemplateNotFoundError) Error() string {
	if len(e.Candidates) == 0 {
		return "template not found: no sources configured"
	}
	return fmt.Sprintf("template not found, tried: %s", strings.Join(e.Candidates, ", "))
}

// NewTemplateNotFoundError creates a TemplateNotFoundError listing the
// candidate locations that were tried.
func NewTemplateNotFoundError(candidates []string) error {
	return &TemplateNotFoundError{Candidates: candidates}
}

// TemplateMalformedError reports that the template bytes could not be
// parsed as a structurally valid package.
type TemplateMalformedError struct {
	Source string
	Cause  error
}

func (e *TemplateMalformedError) Error() string {
	if e.Source != "" {
		return fmt.Sprintf("malformed template %q: %v", e.Source, e.Cause)
	}
	return fmt.Sprintf("malformed template: %v", e.Cause)
}

func (e *TemplateMalformedError) Unwrap() error {
	return e.Cause
}

// NewTemplateMalformedError creates a TemplateMalformedError.
func NewTemplateMalformedError(source string, cause error) error {
	return &TemplateMalformedError{Source: source, Cause: cause}
}

// ComposeError reports a failure in a named stage of the composition
// pipeline.
type ComposeError struct {
	Stage string
	Cause error
}

func (e *ComposeError) Error() string {
	return fmt.Sprintf("composition failed during %s: %v", e.Stage, e.Cause)
}

func (e *ComposeError) Unwrap() error {
	return e.Cause
}

// NewComposeError creates a ComposeError.
func NewComposeError(stage string, cause error) error {
	return &ComposeError{Stage: stage, Cause: cause}
}

// StorageWriteError reports a failed artifact publish. No partial artifact
// is left behind when this is returned.
type StorageWriteError struct {
	Key   string
	Cause error
}

func (e *StorageWriteError) Error() string {
	return fmt.Sprintf("failed to write artifact %q: %v", e.Key, e.Cause)
}

func (e *StorageWriteError) Unwrap() error {
	return e.Cause
}

// NewStorageWriteError creates a StorageWriteError.
func NewStorageWriteError(key string, cause error) error {
	return &StorageWriteError{Key: key, Cause: cause}
}

// IsTemplateNotFound checks whether err is a TemplateNotFoundError.
func IsTemplateNotFound(err error) bool {
	_, ok := err.(*TemplateNotFoundError)
	return ok
}
