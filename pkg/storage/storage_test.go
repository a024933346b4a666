package storage_test

import (
	"context"
	"testing"

	"github.com/oneconcern/modelstore/pkg/metrics"
	"github.com/oneconcern/modelstore/pkg/storage"
	"github.com/oneconcern/modelstore/pkg/storage/memory"
	"github.com/oneconcern/modelstore/pkg/storage/status"
	"github.com/oneconcern/modelstore/pkg/storage/storetest"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestNamespaceConformance(t *testing.T) {
	storetest.Run(t, func(testing.TB) storage.Store {
		return storage.Namespace(memory.New(), "proj")
	})
}

func TestNamespaceIsolation(t *testing.T) {
	ctx := context.Background()
	shared := memory.New()
	a := storage.Namespace(shared, "a")
	b := storage.Namespace(shared, "b")

	require.NoError(t, a.Put(ctx, "*master", []byte("a")))
	require.NoError(t, b.Put(ctx, "*master", []byte("b")))

	data, err := a.Get(ctx, "*master")
	require.NoError(t, err)
	assert.Equal(t, "a", string(data))

	keys, err := shared.Keys(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"a/*master", "b/*master"}, keys)

	keys, err = b.Keys(ctx, "*")
	require.NoError(t, err)
	assert.Equal(t, []string{"*master"}, keys)

	require.NoError(t, a.Clear(ctx))
	has, err := b.Has(ctx, "*master")
	require.NoError(t, err)
	assert.True(t, has)
	assert.Equal(t, "memory/b", b.String())

	assert.Equal(t, shared, storage.Namespace(shared, ""))
}

func TestInstrumented(t *testing.T) {
	ctx := context.Background()
	m := metrics.Discard()
	store := storage.Instrument(memory.New(), zaptest.NewLogger(t), m)

	require.NoError(t, store.Put(ctx, "#a", []byte("a")))
	_, err := store.Get(ctx, "#missing")
	require.ErrorIs(t, err, status.ErrNotFound)
	_, err = store.Get(ctx, "#a")
	require.NoError(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.StorageOps.WithLabelValues("memory", "put", metrics.ResultOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.StorageOps.WithLabelValues("memory", "get", metrics.ResultOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.StorageOps.WithLabelValues("memory", "get", metrics.ResultError)))
	assert.Equal(t, "memory", store.String())
}
