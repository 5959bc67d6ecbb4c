package tokenstore

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Read when no value is stored under the key.
var ErrNotFound = errors.New("token not found")

// Storage reads, writes and deletes values in durable storage.
type Storage interface {
	// Read returns the value stored under key. Returns ErrNotFound if the key is missing or empty.
	Read(ctx context.Context, key string) (string, error)

	// Write persists value under key, overwriting any existing value.
	Write(ctx context.Context, key, value string) error

	// Delete removes the value stored under key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}
