// Package core is a tree of nodes persisted in the object store.
//
// Every node is an immutable data object once persisted: it holds attributes, registry
// entries, named pointers to other nodes of the same tree (by path), and the hashes of
// its children. Modifying a node marks it and its ancestors dirty, so that the next
// Persist writes new objects bottom-up and returns a new root hash.
//
// The Core API is composed of capability layers, each one decorating the previous one:
//
//	tree -> attributes -> pointers
//
// All operations are safe for concurrent use.
package core

import (
	"github.com/oneconcern/modelstore/pkg/objectstore"
	"go.uber.org/zap"
)

// Core exposes the node tree with all capabilities
type Core struct {
	*pointerLayer
}

// Option for the core
type Option func(*treeLayer)

// WithLogger sets a logger
func WithLogger(l *zap.Logger) Option {
	return func(t *treeLayer) {
		if l != nil {
			t.l = l
		}
	}
}

// New core over an object store
func New(objects *objectstore.Store, opts ...Option) *Core {
	tree := newTreeLayer(objects)
	for _, apply := range opts {
		apply(tree)
	}

	return &Core{
		pointerLayer: withPointers(withAttributes(tree)),
	}
}
