package model

import "github.com/oneconcern/modelstore/pkg/errors"

var (
	// ErrInvalidHash indicates a key that is not a well-formed object hash
	ErrInvalidHash = errors.New("invalid hash")

	// ErrInvalidName indicates a branch or project name with unsupported characters
	ErrInvalidName = errors.New("invalid name")

	// ErrMalformedObject indicates a stored object that does not have the expected shape
	ErrMalformedObject = errors.New("malformed object")
)
