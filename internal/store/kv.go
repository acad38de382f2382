// Package store provides the durable key-value layer the session record and
// the media caches are persisted in. Every key carries a version that is
// bumped on each write, so callers can do optimistic read-modify-write.
package store

import (
	"context"
	"errors"
)

var ErrVersionConflict = errors.New("version conflict")

// AnyVersion disables the version check on Put.
const AnyVersion int64 = -1

// Entry is a stored value together with its version. A missing key has
// version 0.
type Entry struct {
	Value   []byte
	Version int64
}

type KV interface {
	// Get returns the entry for key. ok is false when the key does not exist.
	Get(ctx context.Context, key string) (entry Entry, ok bool, err error)

	// Put replaces the whole value for key. When expected is not AnyVersion it
	// must match the current version (0 for a missing key), otherwise
	// ErrVersionConflict is returned. The new version is returned.
	Put(ctx context.Context, key string, value []byte, expected int64) (int64, error)

	// Delete removes keys. Missing keys are not an error.
	Delete(ctx context.Context, keys ...string) error
}
