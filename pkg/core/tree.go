package core

import (
	"context"
	"strings"
	"sync"

	"github.com/oneconcern/modelstore/pkg/model"
	"github.com/oneconcern/modelstore/pkg/objectstore"
	"go.uber.org/zap"
)

// treeLayer knows about parents, children, paths and persistence
type treeLayer struct {
	mu      sync.Mutex
	objects *objectstore.Store
	l       *zap.Logger
}

func newTreeLayer(objects *objectstore.Store) *treeLayer {
	return &treeLayer{
		objects: objects,
		l:       zap.NewNop(),
	}
}

// CreateNode creates an empty node under parent. A nil parent creates a new root.
func (t *treeLayer) CreateNode(parent *Node) *Node {
	t.mu.Lock()
	defer t.mu.Unlock()

	n := &Node{
		parent: parent,
		data:   newNodeData(),
		kids:   make(map[string]*Node),
	}
	n.dirty = true
	if parent != nil {
		n.relid = parent.nextRelid()
		parent.kids[n.relid] = n
		parent.markDirty()
	}
	return n
}

// LoadRoot loads the root node of a persisted tree
func (t *treeLayer) LoadRoot(ctx context.Context, key model.Hash) (*Node, error) {
	o, err := t.objects.Load(ctx, key)
	if err != nil {
		return nil, err
	}
	data, err := decodeNodeData(o)
	if err != nil {
		return nil, err
	}
	return &Node{
		hash: key,
		data: data,
		kids: make(map[string]*Node),
	}, nil
}

// LoadChild loads a child by relid
func (t *treeLayer) LoadChild(ctx context.Context, parent *Node, relid string) (*Node, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.loadChild(ctx, parent, relid)
}

func (t *treeLayer) loadChild(ctx context.Context, parent *Node, relid string) (*Node, error) {
	if child, ok := parent.kids[relid]; ok {
		return child, nil
	}
	key, ok := parent.data.Children[relid]
	if !ok {
		return nil, ErrNoSuchChild.WrapMessage("%q under %q", relid, parent.path())
	}
	o, err := t.objects.Load(ctx, key)
	if err != nil {
		return nil, err
	}
	data, err := decodeNodeData(o)
	if err != nil {
		return nil, err
	}
	child := &Node{
		parent: parent,
		relid:  relid,
		hash:   key,
		data:   data,
		kids:   make(map[string]*Node),
	}
	parent.kids[relid] = child
	return child, nil
}

// LoadChildren loads all children of a node, ordered by relid
func (t *treeLayer) LoadChildren(ctx context.Context, parent *Node) ([]*Node, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	relids := parent.childRelids()
	children := make([]*Node, 0, len(relids))
	for _, relid := range relids {
		child, err := t.loadChild(ctx, parent, relid)
		if err != nil {
			return nil, err
		}
		children = append(children, child)
	}
	return children, nil
}

// LoadByPath loads a node from its path relative to root
func (t *treeLayer) LoadByPath(ctx context.Context, root *Node, path string) (*Node, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.loadByPath(ctx, root, path)
}

func (t *treeLayer) loadByPath(ctx context.Context, root *Node, path string) (*Node, error) {
	if path == "" {
		return root, nil
	}
	if !strings.HasPrefix(path, PathSeparator) {
		return nil, ErrInvalidPath.WrapMessage("%q", path)
	}
	n := root
	for _, relid := range strings.Split(path[1:], PathSeparator) {
		if relid == "" {
			return nil, ErrInvalidPath.WrapMessage("%q", path)
		}
		child, err := t.loadChild(ctx, n, relid)
		if err != nil {
			return nil, err
		}
		n = child
	}
	return n, nil
}

// GetChildrenRelids lists the relids of the children of a node, loaded or not
func (t *treeLayer) GetChildrenRelids(n *Node) []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return n.childRelids()
}

// GetParent of a node, nil for a root
func (t *treeLayer) GetParent(n *Node) *Node {
	return n.parent
}

// GetRoot of the tree a node belongs to
func (t *treeLayer) GetRoot(n *Node) *Node {
	return n.root()
}

// GetRelid of a node within its parent
func (t *treeLayer) GetRelid(n *Node) string {
	return n.relid
}

// GetLevel is the depth of a node: 0 for a root
func (t *treeLayer) GetLevel(n *Node) int {
	return n.level()
}

// GetStringPath of a node relative to its root, e.g. "/1/4"
func (t *treeLayer) GetStringPath(n *Node) string {
	return n.path()
}

// GetKey returns the hash of a node, or the zero hash if the node has changes which are not persisted
func (t *treeLayer) GetKey(n *Node) model.Hash {
	t.mu.Lock()
	defer t.mu.Unlock()
	if n.dirty {
		return ""
	}
	return n.hash
}

// IsDirty tells if a node has changes which are not persisted
func (t *treeLayer) IsDirty(n *Node) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return n.dirty
}

// Persist all changes of the tree and return the new hash of its root. Persisting a clean tree is a no-op.
func (t *treeLayer) Persist(ctx context.Context, n *Node) (model.Hash, error) {
	batch, err := t.Collect(n.root())
	if err != nil {
		return "", err
	}
	if err := batch.Save(ctx); err != nil {
		return "", err
	}
	return batch.Root, nil
}
