// Package metadata is a small key/value store in the local database. It
// keeps client state that must survive restarts, such as the session token.
package metadata

import (
	"context"
)

type Repository interface {
	// Get returns common.ErrNotFound when key is absent.
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	// Delete removes every named key in one statement. Absent keys are
	// ignored.
	Delete(ctx context.Context, keys ...string) error
}
