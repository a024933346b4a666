package objectstore

import (
	"fmt"

	"github.com/oneconcern/modelstore/pkg/errors"
	"github.com/oneconcern/modelstore/pkg/model"
	"github.com/oneconcern/modelstore/pkg/storage/status"
)

var (
	// ErrNotFound is returned when loading a missing key. It is the storage sentinel, surfaced as is.
	ErrNotFound = status.ErrNotFound

	// ErrIntegrity indicates that some object content does not match its key
	ErrIntegrity = errors.New("integrity error")

	// ErrReservedKey indicates an attempt to save a plain object under a branch key
	ErrReservedKey = errors.New("reserved key")
)

// IntegrityError reports a mismatch between the key claimed for an object and the digest of its content.
//
// It matches both ErrIntegrity and model.ErrInvalidHash with errors.Is.
type IntegrityError struct {
	Key      string
	Computed model.Hash
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("%v: object claimed key %q but its content hashes to %q", ErrIntegrity, e.Key, e.Computed)
}

// Is ErrIntegrity or model.ErrInvalidHash
func (e *IntegrityError) Is(target error) bool {
	return target == ErrIntegrity || target == model.ErrInvalidHash
}
