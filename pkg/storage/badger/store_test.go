package badger

import (
	"context"
	"testing"

	"github.com/oneconcern/modelstore/pkg/storage"
	"github.com/oneconcern/modelstore/pkg/storage/storetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBadgerInMemory(t *testing.T) {
	storetest.Run(t, func(tb testing.TB) storage.Store {
		store, err := New("", InMemory(true))
		require.NoError(tb, err)
		return store
	})
}

func TestBadgerOnDisk(t *testing.T) {
	storetest.Run(t, func(tb testing.TB) storage.Store {
		store, err := New(tb.TempDir())
		require.NoError(tb, err)
		return store
	})
}

func TestBadgerReopen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	store, err := New(dir)
	require.NoError(t, err)
	require.NoError(t, store.Put(ctx, "*master", []byte(`{"name":"master"}`)))
	require.NoError(t, store.Sync(ctx))
	require.NoError(t, store.Close())

	store, err = New(dir)
	require.NoError(t, err)
	defer store.Close()

	b, err := store.Get(ctx, "*master")
	require.NoError(t, err)
	assert.Equal(t, `{"name":"master"}`, string(b))
	assert.Equal(t, "badger@"+dir, store.String())
}
