// Package branch coordinates concurrent updates of named branches.
//
// A branch is a mutable pointer to a commit. Its head only moves forward: an update is
// accepted when the caller read the current head (compare-and-swap) and the new head
// descends from it (fast-forward). Updates of the same branch are serialized, while
// different branches progress independently.
//
// Interested parties subscribe to a branch and get notified exactly once, on the next
// accepted update.
package branch

import (
	"context"
	"sort"
	"sync"

	"github.com/oneconcern/modelstore/pkg/commitgraph"
	"github.com/oneconcern/modelstore/pkg/errors"
	"github.com/oneconcern/modelstore/pkg/metrics"
	"github.com/oneconcern/modelstore/pkg/model"
	"github.com/oneconcern/modelstore/pkg/objectstore"
	"go.uber.org/zap"
)

// update outcomes, as reported in metrics
const (
	outcomeAccepted       = "accepted"
	outcomeReplay         = "replay"
	outcomeStaleRead      = "stale_read"
	outcomeUnknownCommit  = "unknown_commit"
	outcomeNotFastForward = "not_fast_forward"
	outcomeError          = "error"
)

// Coordinator of branches
type Coordinator struct {
	objects *objectstore.Store
	graph   *commitgraph.Graph
	l       *zap.Logger
	m       *metrics.M

	locks *keyedMutex

	mu     sync.Mutex
	nextID uint64
	subs   map[string][]*Subscription
}

// New branch coordinator
func New(objects *objectstore.Store, graph *commitgraph.Graph, opts ...Option) *Coordinator {
	c := &Coordinator{
		objects: objects,
		graph:   graph,
		l:       zap.NewNop(),
		m:       metrics.Discard(),
		locks:   newKeyedMutex(),
		subs:    make(map[string][]*Subscription),
	}
	for _, apply := range opts {
		apply(c)
	}
	return c
}

// Create a new branch, with no history unless WithHead is specified
func (c *Coordinator) Create(ctx context.Context, name string, opts ...CreateOption) (model.Branch, error) {
	if err := model.ValidateBranchName(name); err != nil {
		return model.Branch{}, err
	}
	var settings createSettings
	for _, apply := range opts {
		apply(&settings)
	}

	unlock := c.locks.Lock(name)
	defer unlock()

	exists, err := c.objects.HasBranch(ctx, name)
	if err != nil {
		return model.Branch{}, err
	}
	if exists {
		return model.Branch{}, ErrAlreadyExists.WrapMessage("%q", name)
	}

	if !settings.head.IsZero() {
		found, err := c.graph.Has(ctx, settings.head)
		if err != nil {
			return model.Branch{}, err
		}
		if !found {
			return model.Branch{}, ErrUnknownCommit.WrapMessage("%v", settings.head)
		}
	}

	b := model.Branch{Name: name, Head: settings.head}
	if err := c.objects.SaveBranch(ctx, b); err != nil {
		return model.Branch{}, err
	}
	c.l.Info("branch created", zap.String("branch", name), zap.Stringer("head", b.Head))
	return b, nil
}

// Get a branch
func (c *Coordinator) Get(ctx context.Context, name string) (model.Branch, error) {
	b, err := c.objects.LoadBranch(ctx, name)
	if err != nil {
		if errors.Is(err, objectstore.ErrNotFound) {
			return model.Branch{}, ErrBranchNotFound.WrapMessage("%q", name)
		}
		return model.Branch{}, err
	}
	return b, nil
}

// Head returns the current head of a branch. The zero hash means the branch has no history yet.
func (c *Coordinator) Head(ctx context.Context, name string) (model.Hash, error) {
	b, err := c.Get(ctx, name)
	if err != nil {
		return "", err
	}
	return b.Head, nil
}

// List all branches, sorted by name
func (c *Coordinator) List(ctx context.Context) ([]model.Branch, error) {
	names, err := c.objects.BranchNames(ctx)
	if err != nil {
		return nil, err
	}
	branches := make([]model.Branch, 0, len(names))
	for _, name := range names {
		b, err := c.objects.LoadBranch(ctx, name)
		if err != nil {
			if errors.Is(err, objectstore.ErrNotFound) {
				// deleted meanwhile
				continue
			}
			return nil, err
		}
		branches = append(branches, b)
	}
	sort.Slice(branches, func(i, j int) bool { return branches[i].Name < branches[j].Name })
	return branches, nil
}

// UpdateHead moves a branch from the expected head to a new head.
//
// A nil error means the update is accepted. Replaying an update which already took
// effect is accepted again, without notifying anyone. Otherwise the update is rejected with:
//   - ErrStaleRead when expected is not the current head
//   - ErrUnknownCommit when the new head is not a stored commit
//   - ErrNotFastForward when the new head does not descend from the current head
//
// Rejections are never retried here.
func (c *Coordinator) UpdateHead(ctx context.Context, name string, newHead, expected model.Hash) error {
	unlock := c.locks.Lock(name)
	fired, outcome, err := c.updateHead(ctx, name, newHead, expected)
	unlock()

	c.m.BranchUpdates.WithLabelValues(outcome).Inc()
	if err != nil {
		c.l.Debug("branch update rejected", zap.String("branch", name),
			zap.Stringer("new", newHead), zap.Stringer("expected", expected), zap.Error(err))
		return err
	}

	c.l.Debug("branch update accepted", zap.String("branch", name),
		zap.Stringer("new", newHead), zap.Stringer("expected", expected), zap.String("outcome", outcome))
	c.fire(fired, Event{Branch: model.Branch{Name: name, Head: newHead}})
	return nil
}

// updateHead runs with the branch locked and returns the subscribers to notify once unlocked
func (c *Coordinator) updateHead(ctx context.Context, name string, newHead, expected model.Hash) ([]*Subscription, string, error) {
	current, err := c.Get(ctx, name)
	if err != nil {
		return nil, outcomeError, err
	}

	if !newHead.IsZero() && current.Head == newHead {
		return nil, outcomeReplay, nil
	}

	if current.Head != expected {
		return nil, outcomeStaleRead, ErrStaleRead.WrapMessage("branch %q is at %q, not %q", name, current.Head, expected)
	}

	found, err := c.graph.Has(ctx, newHead)
	if err != nil {
		return nil, outcomeError, err
	}
	if !found {
		return nil, outcomeUnknownCommit, ErrUnknownCommit.WrapMessage("%q", newHead)
	}

	if !expected.IsZero() {
		isAncestor, err := c.graph.IsAncestor(ctx, expected, newHead)
		if err != nil {
			return nil, outcomeError, err
		}
		if !isAncestor {
			return nil, outcomeNotFastForward, ErrNotFastForward.WrapMessage("%q does not descend from %q", newHead, expected)
		}
	}

	if err := c.objects.SaveBranch(ctx, model.Branch{Name: name, Head: newHead}); err != nil {
		return nil, outcomeError, err
	}
	return c.detach(name), outcomeAccepted, nil
}

// Delete a branch. Pending subscribers are notified with ErrBranchDeleted.
func (c *Coordinator) Delete(ctx context.Context, name string) error {
	unlock := c.locks.Lock(name)
	b, err := c.Get(ctx, name)
	if err == nil {
		err = c.objects.RemoveBranch(ctx, name)
	}
	var fired []*Subscription
	if err == nil {
		fired = c.detach(name)
	}
	unlock()

	if err != nil {
		return err
	}
	c.l.Info("branch deleted", zap.String("branch", name), zap.Stringer("head", b.Head))
	c.fire(fired, Event{Branch: b, Err: ErrBranchDeleted.WrapMessage("%q", name)})
	return nil
}
