// Package memory implements an in-memory storage.Store over an immutable radix tree.
package memory

import (
	"context"
	"sync"

	iradix "github.com/hashicorp/go-immutable-radix"
	"github.com/oneconcern/modelstore/pkg/storage"
	"github.com/oneconcern/modelstore/pkg/storage/status"
)

// New creates an empty in-memory store
func New() storage.Store {
	return &memStore{
		tree: iradix.New(),
	}
}

type memStore struct {
	mu     sync.RWMutex
	tree   *iradix.Tree
	closed bool
}

func (m *memStore) snapshot() (*iradix.Tree, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, status.ErrClosed
	}
	return m.tree, nil
}

func (m *memStore) update(fn func(*iradix.Txn)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return status.ErrClosed
	}
	txn := m.tree.Txn()
	fn(txn)
	m.tree = txn.Commit()
	return nil
}

func (m *memStore) Has(_ context.Context, key string) (bool, error) {
	tree, err := m.snapshot()
	if err != nil {
		return false, err
	}
	_, ok := tree.Get([]byte(key))
	return ok, nil
}

func (m *memStore) Get(_ context.Context, key string) ([]byte, error) {
	tree, err := m.snapshot()
	if err != nil {
		return nil, err
	}
	v, ok := tree.Get([]byte(key))
	if !ok {
		return nil, status.ErrNotFound
	}
	data := v.([]byte)
	return append([]byte(nil), data...), nil
}

func (m *memStore) Put(_ context.Context, key string, data []byte) error {
	if key == "" {
		return status.ErrEmptyKey
	}
	value := append([]byte(nil), data...)
	return m.update(func(txn *iradix.Txn) {
		txn.Insert([]byte(key), value)
	})
}

func (m *memStore) Delete(_ context.Context, key string) error {
	return m.update(func(txn *iradix.Txn) {
		txn.Delete([]byte(key))
	})
}

func (m *memStore) Keys(_ context.Context, prefix string) ([]string, error) {
	tree, err := m.snapshot()
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, tree.Len())
	// radix walks are ordered
	tree.Root().WalkPrefix([]byte(prefix), func(k []byte, _ interface{}) bool {
		keys = append(keys, string(k))
		return false
	})
	return keys, nil
}

func (m *memStore) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return status.ErrClosed
	}
	m.tree = iradix.New()
	return nil
}

func (m *memStore) Sync(_ context.Context) error {
	_, err := m.snapshot()
	return err
}

func (m *memStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func (m *memStore) String() string {
	return "memory"
}
