// Copyright © 2018 One Concern

// Package status declares error constants returned by
// implementations of the Store interface.
//
// NOTE: such constants are located in a separate package to avoid
// creating undue cyclical dependencies between pkg/storage and one
// of its implementations.
package status

import "github.com/oneconcern/modelstore/pkg/errors"

var (
	// Sentinel errors returned by implementations of the interface defined by storage

	// ErrNotFound indicates that the fetched key does not exist on storage
	ErrNotFound = errors.New("not found")

	// ErrEmptyKey indicates that an operation was attempted with an empty key
	ErrEmptyKey = errors.New("key is required")

	// ErrClosed indicates that the store has been closed
	ErrClosed = errors.New("store is closed")
)
