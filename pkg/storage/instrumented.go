// Copyright © 2018 One Concern

package storage

import (
	"context"
	"time"

	"github.com/oneconcern/modelstore/pkg/metrics"
	"go.uber.org/zap"
)

// Instrument decorates a store with debug logs and metrics
func Instrument(store Store, logger *zap.Logger, m *metrics.M) Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	if m == nil {
		m = metrics.Discard()
	}
	return &instrumentedStore{
		store: store,
		name:  store.String(),
		l:     logger.With(zap.String("store", store.String())),
		m:     m,
	}
}

type instrumentedStore struct {
	store Store
	name  string
	l     *zap.Logger
	m     *metrics.M
}

func (i *instrumentedStore) Has(ctx context.Context, key string) (has bool, err error) {
	defer i.m.StorageOp(i.name, "has", time.Now())(&err)
	i.l.Debug("storage has", zap.String("key", key))

	return i.store.Has(ctx, key)
}

func (i *instrumentedStore) Get(ctx context.Context, key string) (data []byte, err error) {
	defer i.m.StorageOp(i.name, "get", time.Now())(&err)
	i.l.Debug("storage get", zap.String("key", key))

	return i.store.Get(ctx, key)
}

func (i *instrumentedStore) Put(ctx context.Context, key string, data []byte) (err error) {
	defer i.m.StorageOp(i.name, "put", time.Now())(&err)
	i.l.Debug("storage put", zap.String("key", key), zap.Int("size", len(data)))

	return i.store.Put(ctx, key, data)
}

func (i *instrumentedStore) Delete(ctx context.Context, key string) (err error) {
	defer i.m.StorageOp(i.name, "delete", time.Now())(&err)
	i.l.Debug("storage delete", zap.String("key", key))

	return i.store.Delete(ctx, key)
}

func (i *instrumentedStore) Keys(ctx context.Context, prefix string) (keys []string, err error) {
	defer i.m.StorageOp(i.name, "keys", time.Now())(&err)
	i.l.Debug("storage keys", zap.String("prefix", prefix))

	return i.store.Keys(ctx, prefix)
}

func (i *instrumentedStore) Clear(ctx context.Context) (err error) {
	defer i.m.StorageOp(i.name, "clear", time.Now())(&err)
	i.l.Info("storage clear")

	return i.store.Clear(ctx)
}

func (i *instrumentedStore) Sync(ctx context.Context) (err error) {
	defer i.m.StorageOp(i.name, "sync", time.Now())(&err)
	i.l.Debug("storage sync")

	return i.store.Sync(ctx)
}

func (i *instrumentedStore) Close() error {
	return i.store.Close()
}

func (i *instrumentedStore) String() string {
	return i.store.String()
}
