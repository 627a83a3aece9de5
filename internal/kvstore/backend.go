// Package kvstore is the durable key/value store behind credentials and
// mission progress. It plays the role the browser's IndexedDB plays for the
// web client: opaque values under string keys, persisted across restarts.
//
// A Store is constructed explicitly and injected into repositories. The
// backend behind it is opened lazily on first use; if that fails the store
// degrades to soft failures instead of taking the process down.
package kvstore

import (
	"context"
	"errors"
)

// ErrUnavailable is returned by write operations when the backend could not
// be initialized. Reads never return it; they report the key as absent.
var ErrUnavailable = errors.New("kvstore: storage backend unavailable")

// errClosed marks a store that was closed before it was ever initialized.
var errClosed = errors.New("kvstore: store closed")

// Backend is a raw key/value backend. Keys and values arrive already
// encoded by the Store; backends never interpret them.
type Backend interface {
	// Get returns the stored value and whether the key exists.
	Get(ctx context.Context, key string) (string, bool, error)

	// Set upserts a value.
	Set(ctx context.Context, key, value string) error

	// Delete removes the given keys. Missing keys are not an error.
	Delete(ctx context.Context, keys ...string) error

	// Clear removes every key owned by this backend.
	Clear(ctx context.Context) error

	// Keys lists every stored key.
	Keys(ctx context.Context) ([]string, error)

	// Close releases connections held by the backend.
	Close() error
}

// Opener creates a backend. It is called at most once per Store.
type Opener func(ctx context.Context) (Backend, error)
