// Package storetest exercises any storage.Store against the behavior callers rely on.
package storetest

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/oneconcern/modelstore/pkg/storage"
	"github.com/oneconcern/modelstore/pkg/storage/status"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Factory builds a fresh, empty store for a single test
type Factory func(testing.TB) storage.Store

// Run runs the conformance tests
func Run(t *testing.T, factory Factory) {
	t.Run("has/get/put", func(t *testing.T) { testPutGet(t, factory(t)) })
	t.Run("missing key", func(t *testing.T) { testMissing(t, factory(t)) })
	t.Run("overwrite", func(t *testing.T) { testOverwrite(t, factory(t)) })
	t.Run("delete", func(t *testing.T) { testDelete(t, factory(t)) })
	t.Run("keys by prefix", func(t *testing.T) { testKeys(t, factory(t)) })
	t.Run("clear", func(t *testing.T) { testClear(t, factory(t)) })
	t.Run("concurrent puts", func(t *testing.T) { testConcurrent(t, factory(t)) })
	t.Run("closed", func(t *testing.T) { testClosed(t, factory(t)) })
}

func testPutGet(t *testing.T, store storage.Store) {
	defer store.Close()
	ctx := context.Background()

	has, err := store.Has(ctx, "#sixteentons")
	require.NoError(t, err)
	require.False(t, has)

	require.NoError(t, store.Put(ctx, "#sixteentons", []byte("this is the text")))
	require.NoError(t, store.Put(ctx, "*seventeentons", []byte("this is the text for another thing")))

	has, err = store.Has(ctx, "#sixteentons")
	require.NoError(t, err)
	require.True(t, has)

	b, err := store.Get(ctx, "#sixteentons")
	require.NoError(t, err)
	assert.Equal(t, "this is the text", string(b))

	b, err = store.Get(ctx, "*seventeentons")
	require.NoError(t, err)
	assert.Equal(t, "this is the text for another thing", string(b))

	require.NoError(t, store.Sync(ctx))
}

func testMissing(t *testing.T, store storage.Store) {
	defer store.Close()
	ctx := context.Background()

	_, err := store.Get(ctx, "#fifteentons")
	require.Error(t, err)
	assert.ErrorIs(t, err, status.ErrNotFound)

	// deleting a missing key is fine
	require.NoError(t, store.Delete(ctx, "#fifteentons"))
}

func testOverwrite(t *testing.T, store storage.Store) {
	defer store.Close()
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "*master", []byte("one")))
	require.NoError(t, store.Put(ctx, "*master", []byte("two, a little longer")))

	b, err := store.Get(ctx, "*master")
	require.NoError(t, err)
	assert.Equal(t, "two, a little longer", string(b))

	keys, err := store.Keys(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"*master"}, keys)
}

func testDelete(t *testing.T, store storage.Store) {
	defer store.Close()
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "#a", []byte("a")))
	require.NoError(t, store.Put(ctx, "#b", []byte("b")))
	require.NoError(t, store.Delete(ctx, "#a"))

	has, err := store.Has(ctx, "#a")
	require.NoError(t, err)
	assert.False(t, has)

	keys, err := store.Keys(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"#b"}, keys)
}

func testKeys(t *testing.T, store storage.Store) {
	defer store.Close()
	ctx := context.Background()

	for _, k := range []string{"#c1", "#a2", "*master", "#b3", "*dev", "#a1"} {
		require.NoError(t, store.Put(ctx, k, []byte(k)))
	}

	keys, err := store.Keys(ctx, "#")
	require.NoError(t, err)
	assert.Equal(t, []string{"#a1", "#a2", "#b3", "#c1"}, keys)

	keys, err = store.Keys(ctx, "#a")
	require.NoError(t, err)
	assert.Equal(t, []string{"#a1", "#a2"}, keys)

	keys, err = store.Keys(ctx, "*")
	require.NoError(t, err)
	assert.Equal(t, []string{"*dev", "*master"}, keys)

	keys, err = store.Keys(ctx, "#z")
	require.NoError(t, err)
	assert.Empty(t, keys)

	keys, err = store.Keys(ctx, "")
	require.NoError(t, err)
	assert.Len(t, keys, 6)
}

func testClear(t *testing.T, store storage.Store) {
	defer store.Close()
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "#a", []byte("a")))
	require.NoError(t, store.Put(ctx, "*b", []byte("b")))
	require.NoError(t, store.Clear(ctx))

	keys, err := store.Keys(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, keys)

	// the store remains usable
	require.NoError(t, store.Put(ctx, "#a", []byte("again")))
	b, err := store.Get(ctx, "#a")
	require.NoError(t, err)
	assert.Equal(t, "again", string(b))
}

func testConcurrent(t *testing.T, store storage.Store) {
	defer store.Close()
	ctx := context.Background()

	const workers = 16
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, store.Put(ctx, fmt.Sprintf("#k%02d", i), []byte(fmt.Sprintf("v%d", i))))
			assert.NoError(t, store.Put(ctx, "*shared", []byte(fmt.Sprintf("v%d", i))))
		}(i)
	}
	wg.Wait()

	keys, err := store.Keys(ctx, "#k")
	require.NoError(t, err)
	assert.Len(t, keys, workers)

	b, err := store.Get(ctx, "*shared")
	require.NoError(t, err)
	assert.Regexp(t, `^v\d+$`, string(b))
}

func testClosed(t *testing.T, store storage.Store) {
	ctx := context.Background()
	require.NoError(t, store.Put(ctx, "#a", []byte("a")))
	require.NoError(t, store.Close())

	_, err := store.Get(ctx, "#a")
	assert.Error(t, err)
}
