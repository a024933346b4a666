package storage

import (
	"context"
	"strings"
)

// NamespaceSeparator separates the project name from keys in a shared store
const NamespaceSeparator = "/"

// Namespace scopes a store to a project: keys are transparently prefixed with
// the project name, so several projects may share one physical database.
func Namespace(store Store, project string) Store {
	if project == "" {
		return store
	}
	return &namespaced{
		Store:  store,
		prefix: project + NamespaceSeparator,
	}
}

type namespaced struct {
	Store
	prefix string
}

func (n *namespaced) Has(ctx context.Context, key string) (bool, error) {
	return n.Store.Has(ctx, n.prefix+key)
}

func (n *namespaced) Get(ctx context.Context, key string) ([]byte, error) {
	return n.Store.Get(ctx, n.prefix+key)
}

func (n *namespaced) Put(ctx context.Context, key string, data []byte) error {
	return n.Store.Put(ctx, n.prefix+key, data)
}

func (n *namespaced) Delete(ctx context.Context, key string) error {
	return n.Store.Delete(ctx, n.prefix+key)
}

func (n *namespaced) Keys(ctx context.Context, prefix string) ([]string, error) {
	keys, err := n.Store.Keys(ctx, n.prefix+prefix)
	if err != nil {
		return nil, err
	}
	for i := range keys {
		keys[i] = strings.TrimPrefix(keys[i], n.prefix)
	}
	return keys, nil
}

// Clear only removes the keys of this namespace
func (n *namespaced) Clear(ctx context.Context) error {
	keys, err := n.Store.Keys(ctx, n.prefix)
	if err != nil {
		return err
	}
	for _, key := range keys {
		if err := n.Store.Delete(ctx, key); err != nil {
			return err
		}
	}
	return nil
}

func (n *namespaced) String() string {
	return n.Store.String() + NamespaceSeparator + strings.TrimSuffix(n.prefix, NamespaceSeparator)
}
