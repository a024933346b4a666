package core

import (
	"context"
	"sort"
)

// pointerLayer adds named pointers between nodes of the same tree.
//
// A pointer is stored as the path of its target. It may be defined with no target.
type pointerLayer struct {
	*attributeLayer
}

func withPointers(inner *attributeLayer) *pointerLayer {
	return &pointerLayer{attributeLayer: inner}
}

// SetPointer points a node to a target. A nil target defines the pointer with no target.
func (p *pointerLayer) SetPointer(n *Node, name string, target *Node) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var path *string
	if target != nil {
		if target.root() != n.root() {
			return ErrForeignNode.WrapMessage("pointer %q from %q", name, n.path())
		}
		s := target.path()
		path = &s
	}
	n.data.Ptr[name] = path
	n.markDirty()
	return nil
}

// DelPointer removes a pointer
func (p *pointerLayer) DelPointer(n *Node, name string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := n.data.Ptr[name]; ok {
		delete(n.data.Ptr, name)
		n.markDirty()
	}
}

// HasPointer tells if a pointer is defined, with or without a target
func (p *pointerLayer) HasPointer(n *Node, name string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := n.data.Ptr[name]
	return ok
}

// GetPointerPath returns the path of the target of a pointer. The boolean is false when the pointer has no target.
// An undefined pointer yields ErrNoSuchPointer.
func (p *pointerLayer) GetPointerPath(n *Node, name string) (string, bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	path, ok := n.data.Ptr[name]
	if !ok {
		return "", false, ErrNoSuchPointer.WrapMessage("%q on %q", name, n.path())
	}
	if path == nil {
		return "", false, nil
	}
	return *path, true, nil
}

// LoadPointer loads the target of a pointer.
//
// An undefined pointer yields ErrNoSuchPointer, while a pointer defined with no target yields a nil node.
func (p *pointerLayer) LoadPointer(ctx context.Context, n *Node, name string) (*Node, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	path, ok := n.data.Ptr[name]
	if !ok {
		return nil, ErrNoSuchPointer.WrapMessage("%q on %q", name, n.path())
	}
	if path == nil {
		return nil, nil
	}
	return p.loadByPath(ctx, n.root(), *path)
}

// GetPointerNames returns the sorted names of the pointers defined on a node
func (p *pointerLayer) GetPointerNames(n *Node) []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	names := make([]string, 0, len(n.data.Ptr))
	for name := range n.data.Ptr {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
