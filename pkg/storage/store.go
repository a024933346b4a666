// Copyright © 2018 One Concern

package storage

import (
	"context"
)

// Store implementations know how to write payloads to a K/V model.
//
// Implementations are safe for concurrent use. Keys returned by Keys are sorted.
// Deleting a missing key is not an error. Getting a missing key returns status.ErrNotFound.
//
// Implementations never retry failed operations: retry policy belongs to the caller.
type Store interface {
	String() string
	Has(context.Context, string) (bool, error)
	Get(context.Context, string) ([]byte, error)
	Put(context.Context, string, []byte) error
	Delete(context.Context, string) error
	Keys(ctx context.Context, prefix string) ([]string, error)
	Clear(context.Context) error
	Sync(context.Context) error
	Close() error
}
