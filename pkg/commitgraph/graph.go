// Package commitgraph builds commit objects and answers ancestry queries over the commit DAG.
//
// The graph owns no state besides an in-memory cache of commits and a memo of
// ancestry checks: both are rebuilt from the object store when opened.
package commitgraph

import (
	"context"
	"sort"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru"
	"github.com/oneconcern/modelstore/pkg/errors"
	"github.com/oneconcern/modelstore/pkg/metrics"
	"github.com/oneconcern/modelstore/pkg/model"
	"github.com/oneconcern/modelstore/pkg/objectstore"
	"go.uber.org/zap"
)

// Graph of commits
type Graph struct {
	objects  *objectstore.Store
	l        *zap.Logger
	m        *metrics.M
	now      func() time.Time
	updater  []string
	memoSize int

	mu      sync.RWMutex
	commits map[model.Hash]*model.Commit
	memo    *lru.Cache
}

type ancestry struct {
	candidate, of model.Hash
}

// Open a commit graph over an object store, loading all known commits
func Open(ctx context.Context, objects *objectstore.Store, opts ...Option) (*Graph, error) {
	g := &Graph{
		objects:  objects,
		l:        zap.NewNop(),
		m:        metrics.Discard(),
		now:      time.Now,
		memoSize: defaultMemoSize,
		commits:  make(map[model.Hash]*model.Commit),
	}
	for _, apply := range opts {
		apply(g)
	}

	if g.memoSize > 0 {
		memo, err := lru.New(g.memoSize)
		if err != nil {
			return nil, err
		}
		g.memo = memo
	}

	if err := g.Refresh(ctx); err != nil {
		return nil, err
	}
	return g, nil
}

// Refresh reloads the commit cache from the object store
func (g *Graph) Refresh(ctx context.Context) error {
	objects, err := g.objects.Find(ctx, map[string]interface{}{model.TypeField: model.CommitType})
	if err != nil {
		return err
	}

	commits := make(map[model.Hash]*model.Commit, len(objects))
	for _, o := range objects {
		c, err := model.CommitFromObject(o)
		if err != nil {
			return err
		}
		commits[c.ID] = c
	}

	g.mu.Lock()
	g.commits = commits
	g.mu.Unlock()

	g.l.Debug("commit cache loaded", zap.Int("commits", len(commits)))
	return nil
}

// CreateCommit stores a new commit and returns its ID.
//
// All parents must already exist. The commit is stamped with the current time. No branch is modified.
func (g *Graph) CreateCommit(ctx context.Context, parents []model.Hash, root model.Hash, message string) (model.Hash, error) {
	if err := root.Validate(); err != nil {
		return "", err
	}
	for _, parent := range parents {
		found, err := g.Has(ctx, parent)
		if err != nil {
			return "", err
		}
		if !found {
			return "", ErrUnknownCommit.WrapMessage("parent %v", parent)
		}
	}

	commit, err := model.NewCommit(parents, root, g.updater, message, g.now())
	if err != nil {
		return "", err
	}
	o, err := commit.Object()
	if err != nil {
		return "", err
	}
	id, err := g.objects.Save(ctx, o)
	if err != nil {
		return "", err
	}

	g.remember(commit)
	g.m.CommitsCreated.Inc()
	g.l.Debug("commit created", zap.Stringer("commit", id), zap.Stringer("root", root), zap.Int("parents", len(parents)))
	return id, nil
}

// Load a commit
func (g *Graph) Load(ctx context.Context, id model.Hash) (*model.Commit, error) {
	g.mu.RLock()
	c, ok := g.commits[id]
	g.mu.RUnlock()
	if ok {
		return c, nil
	}

	o, err := g.objects.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	c, err = model.CommitFromObject(o)
	if err != nil {
		return nil, ErrNotACommit.Wrap(err)
	}
	g.remember(c)
	return c, nil
}

// Has tells if a commit exists
func (g *Graph) Has(ctx context.Context, id model.Hash) (bool, error) {
	if id.Validate() != nil {
		return false, nil
	}

	// the cache may outlive commits removed from the store
	g.mu.RLock()
	_, cached := g.commits[id]
	g.mu.RUnlock()
	if cached {
		found, err := g.objects.Has(ctx, id)
		if err != nil {
			return false, err
		}
		if !found {
			g.forget(id)
		}
		return found, nil
	}

	_, err := g.Load(ctx, id)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, objectstore.ErrNotFound), errors.Is(err, ErrNotACommit):
		return false, nil
	default:
		return false, err
	}
}

// IsAncestor tells if candidate is reachable by walking the parents of commit of.
//
// A commit is not its own ancestor.
func (g *Graph) IsAncestor(ctx context.Context, candidate, of model.Hash) (bool, error) {
	if candidate == of {
		return false, nil
	}

	key := ancestry{candidate: candidate, of: of}
	if g.memo != nil {
		if v, ok := g.memo.Get(key); ok {
			g.m.AncestryChecks.WithLabelValues("hit").Inc()
			return v.(bool), nil
		}
	}
	g.m.AncestryChecks.WithLabelValues("miss").Inc()

	found, err := g.walk(ctx, candidate, of)
	if err != nil {
		return false, err
	}

	// history is immutable: a result never goes stale
	if g.memo != nil {
		g.memo.Add(key, found)
	}
	return found, nil
}

// walk is a depth-first search over parents, with a visited set for merge-heavy histories
func (g *Graph) walk(ctx context.Context, candidate, of model.Hash) (bool, error) {
	start, err := g.Load(ctx, of)
	if err != nil {
		return false, err
	}

	visited := map[model.Hash]struct{}{of: {}}
	stack := []*model.Commit{start}
	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			return false, err
		}
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if current.HasParent(candidate) {
			return true, nil
		}

		// push in reverse, so that the first parent is visited first
		for i := len(current.Parents) - 1; i >= 0; i-- {
			parent := current.Parents[i]
			if _, seen := visited[parent]; seen {
				continue
			}
			visited[parent] = struct{}{}

			if g.memo != nil {
				if v, ok := g.memo.Get(ancestry{candidate: candidate, of: parent}); ok && v.(bool) {
					return true, nil
				}
			}

			c, err := g.Load(ctx, parent)
			if err != nil {
				return false, err
			}
			stack = append(stack, c)
		}
	}
	return false, nil
}

// History returns up to n commits reachable from commit from (included), newest first.
// A non-positive n returns the whole history.
func (g *Graph) History(ctx context.Context, from model.Hash, n int) ([]*model.Commit, error) {
	reachable, err := g.reachable(ctx, from)
	if err != nil {
		return nil, err
	}
	history := make([]*model.Commit, 0, len(reachable))
	for _, c := range reachable {
		history = append(history, c)
	}
	return newestFirst(history, n), nil
}

// Commits returns up to n known commits created strictly before some time, newest first.
// A non-positive n returns all of them.
func (g *Graph) Commits(_ context.Context, before time.Time, n int) ([]*model.Commit, error) {
	limit := before.UnixNano() / int64(time.Millisecond)

	g.mu.RLock()
	commits := make([]*model.Commit, 0, len(g.commits))
	for _, c := range g.commits {
		if c.Time < limit {
			commits = append(commits, c)
		}
	}
	g.mu.RUnlock()

	return newestFirst(commits, n), nil
}

// CommonAncestor returns the most recent commit reachable from both a and b (each commit included)
func (g *Graph) CommonAncestor(ctx context.Context, a, b model.Hash) (model.Hash, error) {
	fromA, err := g.reachable(ctx, a)
	if err != nil {
		return "", err
	}
	fromB, err := g.reachable(ctx, b)
	if err != nil {
		return "", err
	}

	var common []*model.Commit
	for id, c := range fromA {
		if _, ok := fromB[id]; ok {
			common = append(common, c)
		}
	}
	if len(common) == 0 {
		return "", ErrNoCommonAncestor.WrapMessage("%v and %v", a, b)
	}
	return newestFirst(common, 1)[0].ID, nil
}

func (g *Graph) reachable(ctx context.Context, from model.Hash) (map[model.Hash]*model.Commit, error) {
	start, err := g.Load(ctx, from)
	if err != nil {
		return nil, err
	}
	seen := map[model.Hash]*model.Commit{from: start}
	stack := []*model.Commit{start}
	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, parent := range current.Parents {
			if _, ok := seen[parent]; ok {
				continue
			}
			c, err := g.Load(ctx, parent)
			if err != nil {
				return nil, err
			}
			seen[parent] = c
			stack = append(stack, c)
		}
	}
	return seen, nil
}

func (g *Graph) remember(c *model.Commit) {
	g.mu.Lock()
	g.commits[c.ID] = c
	g.mu.Unlock()
}

// forget a commit no longer in the store, along with all memoized ancestry answers
func (g *Graph) forget(id model.Hash) {
	g.mu.Lock()
	delete(g.commits, id)
	g.mu.Unlock()
	if g.memo != nil {
		g.memo.Purge()
	}
	g.l.Warn("commit removed from store", zap.Stringer("commit", id))
}

// newestFirst sorts commits by decreasing time, then by id, and keeps at most n of them
func newestFirst(commits []*model.Commit, n int) []*model.Commit {
	sort.Slice(commits, func(i, j int) bool {
		if commits[i].Time != commits[j].Time {
			return commits[i].Time > commits[j].Time
		}
		return commits[i].ID < commits[j].ID
	})
	if n > 0 && len(commits) > n {
		commits = commits[:n]
	}
	return commits
}
