package core

import (
	"context"

	"github.com/oneconcern/modelstore/pkg/model"
	"go.uber.org/zap"
)

// Batch is a snapshot of the changed nodes of a tree, ready to be saved.
//
// Collecting a batch is purely in-memory, so that saving may run while the tree keeps changing.
type Batch struct {
	Root    model.Hash
	t       *treeLayer
	objects []model.DataObject
	nodes   []*Node
}

// Len is the number of objects to save
func (b *Batch) Len() int {
	return len(b.objects)
}

// Collect the changes of the tree rooted at n. Collected nodes are considered clean from now on.
func (t *treeLayer) Collect(n *Node) (*Batch, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	b := &Batch{t: t}
	root, err := t.collect(n, b)
	if err != nil {
		// put back the nodes collected so far
		for _, node := range b.nodes {
			node.markDirty()
		}
		return nil, err
	}
	b.Root = root
	return b, nil
}

// collect walks dirty nodes bottom-up and hashes them
func (t *treeLayer) collect(n *Node, b *Batch) (model.Hash, error) {
	if !n.dirty {
		return n.hash, nil
	}

	for relid, child := range n.kids {
		if !child.dirty {
			continue
		}
		key, err := t.collect(child, b)
		if err != nil {
			return "", err
		}
		n.data.Children[relid] = key
	}

	// snapshot: the batch must not share maps with the live node
	raw, err := model.CanonicalSerialize(n.data.object())
	if err != nil {
		return "", ErrMalformedNode.Wrap(err)
	}
	snapshot, err := model.DecodeObject(raw)
	if err != nil {
		return "", err
	}
	key, err := model.ComputeHash(snapshot)
	if err != nil {
		return "", ErrMalformedNode.Wrap(err)
	}

	n.hash = key
	n.dirty = false
	b.objects = append(b.objects, snapshot.WithID(key))
	b.nodes = append(b.nodes, n)
	return key, nil
}

// Save the batch. On failure, the collected nodes are marked dirty again.
func (b *Batch) Save(ctx context.Context) error {
	for i, o := range b.objects {
		if _, err := b.t.objects.Save(ctx, o); err != nil {
			b.t.mu.Lock()
			for _, n := range b.nodes[i:] {
				n.markDirty()
			}
			b.t.mu.Unlock()
			return err
		}
	}
	b.t.l.Debug("batch saved", zap.Int("objects", len(b.objects)), zap.Stringer("root", b.Root))
	return nil
}
