// Package store persists the single session credential held by the client.
//
// Every backend reads and writes through to its medium on each call. Nothing
// is cached in memory by the durable backends, so a credential removed by
// another process path is observed on the next Load.
package store

import (
	"context"
	"errors"
)

// DefaultKey is the logical slot that holds the current credential.
const DefaultKey = "token"

// ErrNotFound is returned by Load when no credential is stored.
var ErrNotFound = errors.New("credential not found")

// Store holds at most one opaque credential string.
type Store interface {
	// Save overwrites any stored credential.
	Save(ctx context.Context, credential string) error
	// Load returns the stored credential or ErrNotFound.
	Load(ctx context.Context) (string, error)
	// Clear removes the stored credential. Clearing an empty store is not an error.
	Clear(ctx context.Context) error
}

// IsNotFound reports whether err signals an absent credential.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
