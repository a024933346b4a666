// Package badger implements a storage.Store on top of an embedded badger database.
package badger

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v3"
	badgeroptions "github.com/dgraph-io/badger/v3/options"
	"github.com/oneconcern/modelstore/pkg/storage"
	"github.com/oneconcern/modelstore/pkg/storage/status"
	"go.uber.org/zap"
)

// Option configures the badger store
type Option func(*settings)

type settings struct {
	inMemory bool
	logger   *zap.Logger
}

// InMemory runs badger without touching the disk (useful for tests)
func InMemory(enabled bool) Option {
	return func(s *settings) {
		s.inMemory = enabled
	}
}

// WithLogger routes badger's own warnings and errors to a zap logger
func WithLogger(l *zap.Logger) Option {
	return func(s *settings) {
		if l != nil {
			s.logger = l
		}
	}
}

// New opens (or creates) a badger database at dir
func New(dir string, opts ...Option) (storage.Store, error) {
	s := settings{logger: zap.NewNop()}
	for _, apply := range opts {
		apply(&s)
	}

	options := badger.DefaultOptions(dir).
		WithLogger(zapAdapter{s.logger.Sugar()}).
		WithCompression(badgeroptions.ZSTD).
		WithNumVersionsToKeep(1)
	if s.inMemory {
		options = options.WithInMemory(true).WithDir("").WithValueDir("")
	}

	db, err := badger.Open(options)
	if err != nil {
		return nil, fmt.Errorf("opening badger db at %q: %w", dir, err)
	}
	return &kvBadger{DB: db, dir: dir, inMemory: s.inMemory}, nil
}

// kvBadger provides a storage.Store implementation based on dgraph-io/badger/v3
type kvBadger struct {
	*badger.DB
	dir      string
	inMemory bool
}

func rewriteError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, badger.ErrKeyNotFound):
		return status.ErrNotFound
	case errors.Is(err, badger.ErrEmptyKey):
		return status.ErrEmptyKey
	case errors.Is(err, badger.ErrDBClosed):
		return status.ErrClosed
	default:
		return err
	}
}

func (kv *kvBadger) Has(_ context.Context, key string) (bool, error) {
	err := kv.DB.View(func(txn *badger.Txn) error {
		_, e := txn.Get([]byte(key))

		return e
	})
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return false, nil
		}

		// some technical error occurred: interrupt
		return false, rewriteError(err)
	}

	return true, nil
}

func (kv *kvBadger) Get(_ context.Context, key string) ([]byte, error) {
	var value []byte
	err := kv.DB.View(func(txn *badger.Txn) error {
		item, e := txn.Get([]byte(key))
		if e != nil {
			return e
		}
		value, e = item.ValueCopy(nil)

		return e
	})

	return value, rewriteError(err)
}

func (kv *kvBadger) Put(_ context.Context, key string, data []byte) error {
	return rewriteError(kv.DB.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), data)
	}))
}

func (kv *kvBadger) Delete(_ context.Context, key string) error {
	return rewriteError(kv.DB.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	}))
}

func (kv *kvBadger) Keys(_ context.Context, prefix string) ([]string, error) {
	var keys []string
	err := kv.DB.View(func(txn *badger.Txn) error {
		iterator := txn.NewIterator(badger.IteratorOptions{
			PrefetchValues: false,
			Prefix:         []byte(prefix),
		})
		defer iterator.Close()

		for iterator.Rewind(); iterator.Valid(); iterator.Next() {
			keys = append(keys, string(iterator.Item().KeyCopy(nil)))
		}
		return nil
	})
	if err != nil {
		return nil, rewriteError(err)
	}
	return keys, nil
}

func (kv *kvBadger) Clear(_ context.Context) error {
	return rewriteError(kv.DB.DropAll())
}

func (kv *kvBadger) Sync(_ context.Context) error {
	if kv.inMemory {
		return nil
	}
	return rewriteError(kv.DB.Sync())
}

func (kv *kvBadger) Close() error {
	return kv.DB.Close()
}

func (kv *kvBadger) String() string {
	if kv.dir == "" {
		return "badger"
	}
	return "badger@" + kv.dir
}

// zapAdapter satisfies badger.Logger
type zapAdapter struct {
	l *zap.SugaredLogger
}

func (z zapAdapter) Errorf(f string, args ...interface{})   { z.l.Errorf(f, args...) }
func (z zapAdapter) Warningf(f string, args ...interface{}) { z.l.Warnf(f, args...) }
func (z zapAdapter) Infof(f string, args ...interface{})    { z.l.Debugf(f, args...) }
func (z zapAdapter) Debugf(f string, args ...interface{})   { z.l.Debugf(f, args...) }
