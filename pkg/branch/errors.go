package branch

import (
	"github.com/oneconcern/modelstore/pkg/commitgraph"
	"github.com/oneconcern/modelstore/pkg/errors"
)

var (
	// ErrAlreadyExists is returned when creating a branch which exists
	ErrAlreadyExists = errors.New("branch already exists")

	// ErrBranchNotFound is returned when operating on a branch which does not exist
	ErrBranchNotFound = errors.New("branch not found")

	// ErrBranchDeleted is delivered to the subscribers of a branch when it is deleted
	ErrBranchDeleted = errors.New("branch deleted")

	// ErrStaleRead rejects an update which expected head is not the current head.
	// The caller should read the branch again and retry.
	ErrStaleRead = errors.New("stale read")

	// ErrNotFastForward rejects an update which new head does not descend from the current head
	ErrNotFastForward = errors.New("not a fast-forward")

	// ErrUnknownCommit rejects an update to a commit which is not in the store
	ErrUnknownCommit = commitgraph.ErrUnknownCommit
)

// IsRejection tells if an error is one of the expected outcomes of a contended update,
// as opposed to a storage failure
func IsRejection(err error) bool {
	return errors.Is(err, ErrStaleRead) || errors.Is(err, ErrNotFastForward) || errors.Is(err, ErrUnknownCommit)
}
