package core

import "github.com/oneconcern/modelstore/pkg/errors"

var (
	// ErrNoSuchPointer is returned when a pointer name is not defined on a node.
	// A pointer defined with no target is not an error.
	ErrNoSuchPointer = errors.New("no such pointer")

	// ErrNoSuchChild is returned when loading a child which does not exist
	ErrNoSuchChild = errors.New("no such child")

	// ErrInvalidPath is returned for malformed node paths
	ErrInvalidPath = errors.New("invalid node path")

	// ErrForeignNode is returned when relating nodes which belong to different trees
	ErrForeignNode = errors.New("nodes belong to different trees")

	// ErrMalformedNode is returned when a stored object does not look like a node
	ErrMalformedNode = errors.New("malformed node")
)
