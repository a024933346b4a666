package memory

import (
	"context"
	"testing"

	"github.com/oneconcern/modelstore/pkg/storage"
	"github.com/oneconcern/modelstore/pkg/storage/status"
	"github.com/oneconcern/modelstore/pkg/storage/storetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	storetest.Run(t, func(testing.TB) storage.Store {
		return New()
	})
}

func TestGetReturnsCopy(t *testing.T) {
	ctx := context.Background()
	store := New()

	payload := []byte("immutable")
	require.NoError(t, store.Put(ctx, "#k", payload))
	payload[0] = 'X'

	b, err := store.Get(ctx, "#k")
	require.NoError(t, err)
	assert.Equal(t, "immutable", string(b))

	b[0] = 'Y'
	b, err = store.Get(ctx, "#k")
	require.NoError(t, err)
	assert.Equal(t, "immutable", string(b))
}

func TestEmptyKey(t *testing.T) {
	err := New().Put(context.Background(), "", []byte("x"))
	assert.ErrorIs(t, err, status.ErrEmptyKey)
}
