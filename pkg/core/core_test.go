package core

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/oneconcern/modelstore/pkg/model"
	"github.com/oneconcern/modelstore/pkg/objectstore"
	"github.com/oneconcern/modelstore/pkg/storage"
	"github.com/oneconcern/modelstore/pkg/storage/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupCore(t testing.TB) (*Core, *objectstore.Store, storage.Store) {
	t.Helper()

	physical := memory.New()
	objects, err := objectstore.New(physical)
	require.NoError(t, err)
	return New(objects), objects, physical
}

func TestTreePersistAndReload(t *testing.T) {
	ctx := context.Background()
	c, objects, _ := setupCore(t)

	root := c.CreateNode(nil)
	c.SetAttribute(root, "name", "ROOT")
	folder := c.CreateNode(root)
	c.SetAttribute(folder, "name", "folder")
	atom := c.CreateNode(folder)
	c.SetAttribute(atom, "name", "atom")
	c.SetAttribute(atom, "count", 3)
	c.SetRegistry(atom, "position", map[string]interface{}{"x": 10, "y": 20})
	other := c.CreateNode(root)

	assert.Equal(t, "/1", c.GetStringPath(folder))
	assert.Equal(t, "/1/1", c.GetStringPath(atom))
	assert.Equal(t, "/2", c.GetStringPath(other))
	assert.Equal(t, "", c.GetStringPath(root))
	assert.Equal(t, 2, c.GetLevel(atom))
	assert.Equal(t, folder, c.GetParent(atom))
	assert.Equal(t, root, c.GetRoot(atom))
	assert.Nil(t, c.GetParent(root))
	assert.True(t, c.IsDirty(root))
	assert.Zero(t, c.GetKey(root))

	require.NoError(t, c.SetPointer(atom, "base", other))
	require.NoError(t, c.SetPointer(atom, "nowhere", nil))

	key, err := c.Persist(ctx, atom)
	require.NoError(t, err)
	require.NoError(t, key.Validate())
	assert.Equal(t, key, c.GetKey(root))
	assert.False(t, c.IsDirty(atom))

	stored, err := objects.Load(ctx, key)
	require.NoError(t, err)
	assert.Contains(t, stored, "children")
	assert.Contains(t, stored, "atr")

	// a fresh core only knows the root hash
	fresh := New(objects)
	reloaded, err := fresh.LoadRoot(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "ROOT", fresh.GetAttributeString(reloaded, "name"))
	assert.Equal(t, []string{"1", "2"}, fresh.GetChildrenRelids(reloaded))

	a, err := fresh.LoadByPath(ctx, reloaded, "/1/1")
	require.NoError(t, err)
	assert.Equal(t, "atom", fresh.GetAttribute(a, "name"))
	assert.Equal(t, "3", fmt.Sprint(fresh.GetAttribute(a, "count")))
	assert.Equal(t, []string{"count", "name"}, fresh.GetAttributeNames(a))
	assert.Equal(t, []string{"position"}, fresh.GetRegistryNames(a))
	assert.Equal(t, key, fresh.GetKey(reloaded))

	target, err := fresh.LoadPointer(ctx, a, "base")
	require.NoError(t, err)
	assert.Equal(t, "/2", fresh.GetStringPath(target))

	target, err = fresh.LoadPointer(ctx, a, "nowhere")
	require.NoError(t, err)
	assert.Nil(t, target)
	assert.True(t, fresh.HasPointer(a, "nowhere"))

	_, err = fresh.LoadPointer(ctx, a, "undefined")
	assert.ErrorIs(t, err, ErrNoSuchPointer)
	assert.False(t, fresh.HasPointer(a, "undefined"))

	path, ok, err := fresh.GetPointerPath(a, "base")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "/2", path)
	_, ok, err = fresh.GetPointerPath(a, "nowhere")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, []string{"base", "nowhere"}, fresh.GetPointerNames(a))
}

func TestPersistIsIdempotent(t *testing.T) {
	ctx := context.Background()
	c, objects, _ := setupCore(t)

	root := c.CreateNode(nil)
	child := c.CreateNode(root)
	c.SetAttribute(child, "name", "x")

	first, err := c.Persist(ctx, root)
	require.NoError(t, err)
	count := func() int {
		all, err := objects.DumpAll(ctx)
		require.NoError(t, err)
		return len(all)
	}
	before := count()

	second, err := c.Persist(ctx, root)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, before, count())

	// same content, same hash
	c.SetAttribute(child, "name", "y")
	third, err := c.Persist(ctx, root)
	require.NoError(t, err)
	assert.NotEqual(t, first, third)
	c.SetAttribute(child, "name", "x")
	fourth, err := c.Persist(ctx, root)
	require.NoError(t, err)
	assert.Equal(t, first, fourth)
}

func TestLoadChildren(t *testing.T) {
	ctx := context.Background()
	c, _, _ := setupCore(t)

	root := c.CreateNode(nil)
	for i := 0; i < 12; i++ {
		c.SetAttribute(c.CreateNode(root), "index", i)
	}
	key, err := c.Persist(ctx, root)
	require.NoError(t, err)

	reloaded, err := c.LoadRoot(ctx, key)
	require.NoError(t, err)
	children, err := c.LoadChildren(ctx, reloaded)
	require.NoError(t, err)
	require.Len(t, children, 12)
	for i, child := range children {
		assert.Equal(t, fmt.Sprint(i+1), c.GetRelid(child))
		assert.Equal(t, fmt.Sprint(i), fmt.Sprint(c.GetAttribute(child, "index")))
	}

	// new children never reuse a relid
	added := c.CreateNode(reloaded)
	assert.Equal(t, "13", c.GetRelid(added))

	_, err = c.LoadChild(ctx, reloaded, "99")
	assert.ErrorIs(t, err, ErrNoSuchChild)
	_, err = c.LoadByPath(ctx, reloaded, "1")
	assert.ErrorIs(t, err, ErrInvalidPath)
	_, err = c.LoadByPath(ctx, reloaded, "/1//2")
	assert.ErrorIs(t, err, ErrInvalidPath)
}

func TestCollectSnapshot(t *testing.T) {
	ctx := context.Background()
	c, objects, _ := setupCore(t)

	root := c.CreateNode(nil)
	child := c.CreateNode(root)
	c.SetAttribute(child, "name", "before")

	batch, err := c.Collect(root)
	require.NoError(t, err)
	assert.Equal(t, 2, batch.Len())

	// changes made after collecting do not leak into the batch
	c.SetAttribute(child, "name", "after")
	require.NoError(t, batch.Save(ctx))

	snapshot := New(objects)
	n, err := snapshot.LoadRoot(ctx, batch.Root)
	require.NoError(t, err)
	loaded, err := snapshot.LoadChild(ctx, n, "1")
	require.NoError(t, err)
	assert.Equal(t, "before", snapshot.GetAttribute(loaded, "name"))

	assert.True(t, c.IsDirty(root))
	key, err := c.Persist(ctx, root)
	require.NoError(t, err)
	assert.NotEqual(t, batch.Root, key)
}

func TestFailedSaveMarksDirty(t *testing.T) {
	ctx := context.Background()
	c, _, physical := setupCore(t)

	root := c.CreateNode(nil)
	c.SetAttribute(c.CreateNode(root), "name", "x")

	batch, err := c.Collect(root)
	require.NoError(t, err)
	assert.False(t, c.IsDirty(root))

	require.NoError(t, physical.Close())
	require.Error(t, batch.Save(ctx))
	assert.True(t, c.IsDirty(root))
}

func TestForeignPointer(t *testing.T) {
	c, _, _ := setupCore(t)
	a := c.CreateNode(nil)
	b := c.CreateNode(nil)
	assert.ErrorIs(t, c.SetPointer(c.CreateNode(a), "base", b), ErrForeignNode)
}

func TestDeletions(t *testing.T) {
	ctx := context.Background()
	c, _, _ := setupCore(t)

	root := c.CreateNode(nil)
	c.SetAttribute(root, "name", "x")
	require.NoError(t, c.SetPointer(root, "self", root))
	key, err := c.Persist(ctx, root)
	require.NoError(t, err)

	c.DelAttribute(root, "missing")
	c.DelPointer(root, "missing")
	assert.False(t, c.IsDirty(root))

	c.DelAttribute(root, "name")
	c.DelPointer(root, "self")
	assert.Nil(t, c.GetAttribute(root, "name"))
	assert.False(t, c.HasPointer(root, "self"))
	changed, err := c.Persist(ctx, root)
	require.NoError(t, err)
	assert.NotEqual(t, key, changed)
}

func TestLoadRootErrors(t *testing.T) {
	ctx := context.Background()
	c, objects, _ := setupCore(t)

	_, err := c.LoadRoot(ctx, model.Digest([]byte("missing")))
	assert.ErrorIs(t, err, objectstore.ErrNotFound)

	notANode, err := objects.Save(ctx, model.DataObject{"type": "commit"})
	require.NoError(t, err)
	_, err = c.LoadRoot(ctx, notANode)
	assert.ErrorIs(t, err, ErrMalformedNode)
}

func TestConcurrentMutations(t *testing.T) {
	ctx := context.Background()
	c, _, _ := setupCore(t)

	root := c.CreateNode(nil)
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				n := c.CreateNode(root)
				c.SetAttribute(n, "worker", i)
				assert.NoError(t, c.SetPointer(n, "parent", root))
				if j%5 == 0 {
					_, err := c.Persist(ctx, root)
					assert.NoError(t, err)
				}
			}
		}(i)
	}
	wg.Wait()

	key, err := c.Persist(ctx, root)
	require.NoError(t, err)
	reloaded, err := c.LoadRoot(ctx, key)
	require.NoError(t, err)
	assert.Len(t, c.GetChildrenRelids(reloaded), 16*20)
}
