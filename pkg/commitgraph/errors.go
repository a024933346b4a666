package commitgraph

import "github.com/oneconcern/modelstore/pkg/errors"

var (
	// ErrUnknownCommit indicates a reference to a commit which is not in the store
	ErrUnknownCommit = errors.New("unknown commit")

	// ErrNotACommit indicates that a key refers to an object which is not a commit
	ErrNotACommit = errors.New("not a commit")

	// ErrNoCommonAncestor indicates two commits with disjoint histories
	ErrNoCommonAncestor = errors.New("no common ancestor")
)
