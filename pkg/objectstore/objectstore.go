// Package objectstore persists content-addressed data objects over a physical storage.Store.
//
// Every object is stored under the hash of its own canonical content. The store has no
// knowledge of commits: it only enforces that keys and contents agree.
//
// Branch records share the same keyspace, under keys prefixed with model.BranchPrefix.
// They are mutable and bypass hash verification.
package objectstore

import (
	"context"

	lru "github.com/hashicorp/golang-lru"
	"github.com/oneconcern/modelstore/pkg/metrics"
	"github.com/oneconcern/modelstore/pkg/model"
	"github.com/oneconcern/modelstore/pkg/storage"
	"go.uber.org/zap"
)

const defaultCacheSize = 4096

// Store is the content-addressed object store.
//
// Storage errors are returned unmodified. The store never retries.
type Store struct {
	store     storage.Store
	l         *zap.Logger
	m         *metrics.M
	cacheSize int
	verify    bool
	cache     *lru.Cache
}

// New object store on top of a physical store
func New(store storage.Store, opts ...Option) (*Store, error) {
	s := &Store{
		store:     store,
		l:         zap.NewNop(),
		m:         metrics.Discard(),
		cacheSize: defaultCacheSize,
		verify:    true,
	}
	for _, apply := range opts {
		apply(s)
	}

	if s.cacheSize > 0 {
		cache, err := lru.New(s.cacheSize)
		if err != nil {
			return nil, err
		}
		s.cache = cache
	}
	return s, nil
}

// String describes the underlying physical store
func (s *Store) String() string {
	return s.store.String()
}

// Load an object by its hash.
//
// A missing key yields ErrNotFound. An object which content does not match its key yields an *IntegrityError.
func (s *Store) Load(ctx context.Context, key model.Hash) (model.DataObject, error) {
	if err := key.Validate(); err != nil {
		return nil, err
	}
	if o, ok := s.cached(key); ok {
		return o, nil
	}

	data, err := s.store.Get(ctx, key.String())
	if err != nil {
		return nil, err
	}
	o, err := model.DecodeObject(data)
	if err != nil {
		return nil, err
	}
	if err := s.check(key, o); err != nil {
		return nil, err
	}

	s.m.ObjectsLoaded.Inc()
	s.remember(key, data)
	return o, nil
}

// Save an object and return its hash.
//
// When the object carries an identity field, it must match the hash of the content,
// otherwise the object is rejected with an *IntegrityError. Saving the same content twice is a no-op.
func (s *Store) Save(ctx context.Context, o model.DataObject) (model.Hash, error) {
	if o == nil {
		return "", model.ErrMalformedObject.WrapMessage("nil object")
	}
	claimed := o.ID()
	if model.IsBranchKey(claimed.String()) {
		return "", ErrReservedKey.WrapMessage("%q", claimed)
	}

	computed, err := model.ComputeHash(o)
	if err != nil {
		return "", model.ErrMalformedObject.Wrap(err)
	}
	if !claimed.IsZero() && claimed != computed {
		s.m.IntegrityErrors.Inc()
		return "", &IntegrityError{Key: claimed.String(), Computed: computed}
	}

	if s.cache != nil && s.cache.Contains(computed.String()) {
		return computed, nil
	}

	stored := o.WithID(computed)
	data, err := stored.Encode()
	if err != nil {
		return "", model.ErrMalformedObject.Wrap(err)
	}
	if err := s.store.Put(ctx, computed.String(), data); err != nil {
		return "", err
	}

	s.m.ObjectsSaved.Inc()
	s.remember(computed, data)
	return computed, nil
}

// Has tells if an object is present
func (s *Store) Has(ctx context.Context, key model.Hash) (bool, error) {
	if s.cache != nil && s.cache.Contains(key.String()) {
		return true, nil
	}
	return s.store.Has(ctx, key.String())
}

// Remove a key, be it an object or a branch record
func (s *Store) Remove(ctx context.Context, key string) error {
	if s.cache != nil {
		s.cache.Remove(key)
	}
	return s.store.Delete(ctx, key)
}

// RemoveAll objects and branches
func (s *Store) RemoveAll(ctx context.Context) error {
	if s.cache != nil {
		s.cache.Purge()
	}
	s.l.Info("removing all objects", zap.Stringer("store", s.store))
	return s.store.Clear(ctx)
}

// SearchByPrefix returns all keys starting with prefix, in sorted order
func (s *Store) SearchByPrefix(ctx context.Context, prefix string) ([]string, error) {
	return s.store.Keys(ctx, prefix)
}

// DumpAll returns every stored record, objects and branches, in key order
func (s *Store) DumpAll(ctx context.Context) ([]model.DataObject, error) {
	return s.Find(ctx, nil)
}

// Find all records which top-level fields equal the criteria, e.g. {"type": "commit"}.
//
// Only matching objects are checked for integrity. With some criteria, records which cannot
// be decoded are skipped, since their fields cannot be told.
func (s *Store) Find(ctx context.Context, criteria map[string]interface{}) ([]model.DataObject, error) {
	keys, err := s.store.Keys(ctx, "")
	if err != nil {
		return nil, err
	}

	result := make([]model.DataObject, 0, len(keys))
	for _, key := range keys {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		o, err := s.match(ctx, key, criteria)
		if err != nil {
			return nil, err
		}
		if o != nil {
			result = append(result, o)
		}
	}
	return result, nil
}

// match returns the record stored under key when it matches the criteria, or nil
func (s *Store) match(ctx context.Context, key string, criteria map[string]interface{}) (model.DataObject, error) {
	isObject := model.IsHashKey(key)
	if isObject {
		if o, ok := s.cached(model.Hash(key)); ok {
			if !o.Matches(criteria) {
				return nil, nil
			}
			return o, nil
		}
	}

	data, err := s.store.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	o, err := model.DecodeObject(data)
	if err != nil {
		if len(criteria) == 0 {
			return nil, err
		}
		s.l.Warn("skipping undecodable record", zap.String("key", key), zap.Error(err))
		return nil, nil
	}
	if !o.Matches(criteria) {
		return nil, nil
	}
	if !isObject {
		return o, nil
	}

	if err := s.check(model.Hash(key), o); err != nil {
		return nil, err
	}
	s.m.ObjectsLoaded.Inc()
	s.remember(model.Hash(key), data)
	return o, nil
}

// check the content of an object against its key, when verification is enabled
func (s *Store) check(key model.Hash, o model.DataObject) error {
	if !s.verify {
		return nil
	}
	computed, err := model.ComputeHash(o)
	if err != nil {
		return err
	}
	if computed != key {
		s.m.IntegrityErrors.Inc()
		ierr := &IntegrityError{Key: key.String(), Computed: computed}
		s.l.Error("corrupted object in store", zap.Error(ierr))
		return ierr
	}
	return nil
}

// Fsync flushes the physical store
func (s *Store) Fsync(ctx context.Context) error {
	return s.store.Sync(ctx)
}

// Close the physical store
func (s *Store) Close() error {
	return s.store.Close()
}

func (s *Store) cached(key model.Hash) (model.DataObject, bool) {
	if s.cache == nil {
		return nil, false
	}
	v, ok := s.cache.Get(key.String())
	if !ok {
		return nil, false
	}
	// the cache holds encoded payloads: callers may freely mutate what they get
	o, err := model.DecodeObject(v.([]byte))
	if err != nil {
		s.cache.Remove(key.String())
		return nil, false
	}
	s.m.CacheHits.Inc()
	return o, true
}

func (s *Store) remember(key model.Hash, data []byte) {
	if s.cache == nil {
		return
	}
	s.cache.Add(key.String(), data)
}
