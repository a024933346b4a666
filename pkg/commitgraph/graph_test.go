package commitgraph

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/oneconcern/modelstore/pkg/metrics"
	"github.com/oneconcern/modelstore/pkg/model"
	"github.com/oneconcern/modelstore/pkg/objectstore"
	"github.com/oneconcern/modelstore/pkg/storage/memory"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2018, 6, 1, 12, 0, 0, 0, time.UTC)

// tickingClock advances by one second on each call
func tickingClock() func() time.Time {
	current := epoch
	return func() time.Time {
		current = current.Add(time.Second)
		return current
	}
}

func setupGraph(t testing.TB, opts ...Option) (*Graph, *objectstore.Store) {
	t.Helper()

	objects, err := objectstore.New(memory.New())
	require.NoError(t, err)
	g, err := Open(context.Background(), objects, append([]Option{WithClock(tickingClock())}, opts...)...)
	require.NoError(t, err)
	return g, objects
}

func root(s string) model.Hash {
	return model.Digest([]byte(s))
}

func TestCreateCommit(t *testing.T) {
	ctx := context.Background()
	g, objects := setupGraph(t, WithUpdater("alice"))

	c0, err := g.CreateCommit(ctx, nil, root("H0"), "initial")
	require.NoError(t, err)
	require.NoError(t, c0.Validate())

	o, err := objects.Load(ctx, c0)
	require.NoError(t, err)
	assert.Equal(t, "commit", o.Type())
	assert.Equal(t, root("H0").String(), o["root"])
	assert.Equal(t, []interface{}{}, o["parents"])
	assert.Equal(t, []interface{}{"alice"}, o["updater"])
	assert.Equal(t, "initial", o["message"])

	c, err := g.Load(ctx, c0)
	require.NoError(t, err)
	assert.True(t, c.IsRoot())
	assert.True(t, epoch.Add(time.Second).Equal(c.Timestamp()))

	c1, err := g.CreateCommit(ctx, []model.Hash{c0}, root("H1"), "second")
	require.NoError(t, err)
	c, err = g.Load(ctx, c1)
	require.NoError(t, err)
	assert.Equal(t, []model.Hash{c0}, c.Parents)

	has, err := g.Has(ctx, c1)
	require.NoError(t, err)
	assert.True(t, has)
}

func TestCreateCommitRejectsDanglingParent(t *testing.T) {
	ctx := context.Background()
	g, objects := setupGraph(t)

	_, err := g.CreateCommit(ctx, []model.Hash{root("nowhere")}, root("H0"), "dangling")
	assert.ErrorIs(t, err, ErrUnknownCommit)

	// an object which is not a commit is not a valid parent either
	notCommit, err := objects.Save(ctx, model.DataObject{"atr": map[string]interface{}{}})
	require.NoError(t, err)
	_, err = g.CreateCommit(ctx, []model.Hash{notCommit}, root("H0"), "dangling")
	assert.ErrorIs(t, err, ErrUnknownCommit)

	_, err = g.CreateCommit(ctx, nil, "not-a-hash", "bad root")
	assert.ErrorIs(t, err, model.ErrInvalidHash)

	_, err = g.Load(ctx, notCommit)
	assert.ErrorIs(t, err, ErrNotACommit)
}

func TestIsAncestor(t *testing.T) {
	ctx := context.Background()
	m := metrics.Discard()
	g, _ := setupGraph(t, WithMetrics(m))

	// c0 <- c1 <- c2 <- m3 -> b1 -> c0
	c0, err := g.CreateCommit(ctx, nil, root("0"), "c0")
	require.NoError(t, err)
	c1, err := g.CreateCommit(ctx, []model.Hash{c0}, root("1"), "c1")
	require.NoError(t, err)
	c2, err := g.CreateCommit(ctx, []model.Hash{c1}, root("2"), "c2")
	require.NoError(t, err)
	b1, err := g.CreateCommit(ctx, []model.Hash{c0}, root("b1"), "b1")
	require.NoError(t, err)
	m3, err := g.CreateCommit(ctx, []model.Hash{c2, b1}, root("3"), "merge")
	require.NoError(t, err)
	other, err := g.CreateCommit(ctx, nil, root("other"), "unrelated")
	require.NoError(t, err)

	for _, tc := range []struct {
		candidate, of model.Hash
		expected      bool
	}{
		{c0, c1, true},
		{c0, c2, true},
		{c1, c2, true},
		{b1, m3, true},
		{c0, m3, true},
		{c2, c1, false},
		{c1, b1, false},
		{b1, c2, false},
		{other, m3, false},
		{c2, c2, false},
		{c0, c0, false},
	} {
		found, err := g.IsAncestor(ctx, tc.candidate, tc.of)
		require.NoError(t, err)
		assert.Equalf(t, tc.expected, found, "IsAncestor(%s, %s)", tc.candidate, tc.of)
	}

	found, err := g.IsAncestor(ctx, c0, m3)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AncestryChecks.WithLabelValues("hit")))

	_, err = g.IsAncestor(ctx, c0, root("missing"))
	assert.ErrorIs(t, err, objectstore.ErrNotFound)
}

func TestIsAncestorWithoutMemo(t *testing.T) {
	ctx := context.Background()
	g, _ := setupGraph(t, WithMemoSize(0))
	rnd := rand.New(rand.NewSource(7))

	// random DAG, checked against a naive transitive closure
	ids := make([]model.Hash, 0, 40)
	ancestors := make(map[model.Hash]map[model.Hash]bool)
	for i := 0; i < 40; i++ {
		var parents []model.Hash
		if i > 0 {
			for _, p := range rnd.Perm(i)[:1+rnd.Intn(minInt(i, 3))] {
				parents = append(parents, ids[p])
			}
		}
		id, err := g.CreateCommit(ctx, parents, root(string(rune('a'+i))), "random")
		require.NoError(t, err)

		closure := make(map[model.Hash]bool)
		for _, p := range parents {
			closure[p] = true
			for a := range ancestors[p] {
				closure[a] = true
			}
		}
		ancestors[id] = closure
		ids = append(ids, id)
	}

	for _, of := range ids {
		for _, candidate := range ids {
			found, err := g.IsAncestor(ctx, candidate, of)
			require.NoError(t, err)
			assert.Equal(t, ancestors[of][candidate], found)
		}
	}
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func TestOpenRebuildsCache(t *testing.T) {
	ctx := context.Background()
	g, objects := setupGraph(t)

	c0, err := g.CreateCommit(ctx, nil, root("0"), "c0")
	require.NoError(t, err)
	c1, err := g.CreateCommit(ctx, []model.Hash{c0}, root("1"), "c1")
	require.NoError(t, err)
	_, err = objects.Save(ctx, model.DataObject{"type": "node"})
	require.NoError(t, err)

	reopened, err := Open(ctx, objects)
	require.NoError(t, err)
	commits, err := reopened.Commits(ctx, time.Now(), 0)
	require.NoError(t, err)
	require.Len(t, commits, 2)
	assert.Equal(t, c1, commits[0].ID)
	assert.Equal(t, c0, commits[1].ID)
}

func TestOpenIgnoresCorruptedNodes(t *testing.T) {
	ctx := context.Background()
	physical := memory.New()
	objects, err := objectstore.New(physical, objectstore.WithCacheSize(0))
	require.NoError(t, err)
	g, err := Open(ctx, objects)
	require.NoError(t, err)

	c0, err := g.CreateCommit(ctx, nil, root("0"), "c0")
	require.NoError(t, err)
	const corrupted = "#0000000000000000000000000000000000000000"
	require.NoError(t, physical.Put(ctx, corrupted, []byte(`{"_id":"`+corrupted+`","atr":{}}`)))

	reopened, err := Open(ctx, objects)
	require.NoError(t, err)
	has, err := reopened.Has(ctx, c0)
	require.NoError(t, err)
	assert.True(t, has)
}

func TestHasFollowsRemovals(t *testing.T) {
	ctx := context.Background()
	g, objects := setupGraph(t)

	c0, err := g.CreateCommit(ctx, nil, root("0"), "c0")
	require.NoError(t, err)
	c1, err := g.CreateCommit(ctx, []model.Hash{c0}, root("1"), "c1")
	require.NoError(t, err)
	ok, err := g.IsAncestor(ctx, c0, c1)
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, objects.Remove(ctx, c1.String()))
	has, err := g.Has(ctx, c1)
	require.NoError(t, err)
	assert.False(t, has)

	_, err = g.Load(ctx, c1)
	assert.ErrorIs(t, err, objectstore.ErrNotFound)

	has, err = g.Has(ctx, c0)
	require.NoError(t, err)
	assert.True(t, has)
}

func TestHistoryQueries(t *testing.T) {
	ctx := context.Background()
	g, _ := setupGraph(t)

	c0, err := g.CreateCommit(ctx, nil, root("0"), "c0")
	require.NoError(t, err)
	c1, err := g.CreateCommit(ctx, []model.Hash{c0}, root("1"), "c1")
	require.NoError(t, err)
	left, err := g.CreateCommit(ctx, []model.Hash{c1}, root("l"), "left")
	require.NoError(t, err)
	right, err := g.CreateCommit(ctx, []model.Hash{c1}, root("r"), "right")
	require.NoError(t, err)
	merge, err := g.CreateCommit(ctx, []model.Hash{left, right}, root("m"), "merge")
	require.NoError(t, err)

	history, err := g.History(ctx, merge, 0)
	require.NoError(t, err)
	var ids []model.Hash
	for _, c := range history {
		ids = append(ids, c.ID)
	}
	assert.Equal(t, []model.Hash{merge, right, left, c1, c0}, ids)

	history, err = g.History(ctx, left, 2)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, left, history[0].ID)
	assert.Equal(t, c1, history[1].ID)

	// commit times are epoch+1s ... epoch+5s
	commits, err := g.Commits(ctx, epoch.Add(3*time.Second), 0)
	require.NoError(t, err)
	require.Len(t, commits, 2)
	assert.Equal(t, c1, commits[0].ID)

	commits, err = g.Commits(ctx, epoch.Add(time.Hour), 1)
	require.NoError(t, err)
	require.Len(t, commits, 1)
	assert.Equal(t, merge, commits[0].ID)

	common, err := g.CommonAncestor(ctx, left, right)
	require.NoError(t, err)
	assert.Equal(t, c1, common)

	common, err = g.CommonAncestor(ctx, merge, left)
	require.NoError(t, err)
	assert.Equal(t, left, common)

	other, err := g.CreateCommit(ctx, nil, root("o"), "other")
	require.NoError(t, err)
	_, err = g.CommonAncestor(ctx, other, merge)
	assert.ErrorIs(t, err, ErrNoCommonAncestor)
}
