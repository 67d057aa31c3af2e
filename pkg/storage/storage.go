// Package storage abstracts artifact persistence behind a small backend
// interface with local-filesystem, S3 and Azure Blob implementations, and
// owns the deterministic artifact addressing scheme.
package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get and Delete when the key does not exist.
var ErrNotFound = errors.New("object not found")

// Backend stores artifacts under slash-separated keys.
type Backend interface {
	// Put writes data under key, overwriting any existing object.
	Put(ctx context.Context, key string, data []byte) error
	// Get reads the object at key.
	Get(ctx context.Context, key string) ([]byte, error)
	// Exists reports whether an object is stored at key.
	Exists(ctx context.Context, key string) (bool, error)
	// List returns all keys with the given prefix.
	List(ctx context.Context, prefix string) ([]string, error)
	// Delete removes the object at key.
	Delete(ctx context.Context, key string) error
}
