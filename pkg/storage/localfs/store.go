// Copyright © 2018 One Concern

// Package localfs implements a storage.Store on a local (afero) file system.
//
// Each key is stored as one file, named after the path-escaped key. Puts are atomic:
// payloads are written to a staging area first, then renamed into place.
package localfs

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/oneconcern/modelstore/pkg/storage"
	"github.com/oneconcern/modelstore/pkg/storage/status"
	"github.com/segmentio/ksuid"
	"github.com/spf13/afero"
)

const (
	nestedPutStageName = ".put-stage"
	fileMode           = 0600
	dirMode            = 0700
)

// Option configures the local file system store
type Option func(*localFS)

// WithCompression enables zstd compression of stored payloads
func WithCompression(enabled bool) Option {
	return func(l *localFS) {
		l.compress = enabled
	}
}

// New creates a new local file system backed storage model
func New(fs afero.Fs, opts ...Option) (storage.Store, error) {
	if fs == nil {
		fs = afero.NewBasePathFs(afero.NewOsFs(), filepath.Join(".modelstore", "objects"))
	}
	l := &localFS{fs: fs}
	for _, apply := range opts {
		apply(l)
	}

	// the staging area exists within the afero.Fs itself
	if err := fs.MkdirAll(nestedPutStageName, dirMode); err != nil {
		return nil, fmt.Errorf("ensuring put staging directory for %q: %v", nestedPutStageName, err)
	}

	if l.compress {
		c, err := newCompressor()
		if err != nil {
			return nil, fmt.Errorf("initializing compression: %v", err)
		}
		l.zstd = c
	}
	return l, nil
}

type localFS struct {
	fs       afero.Fs
	compress bool
	zstd     *compressor
	closed   atomic.Bool
}

func fileName(key string) (string, error) {
	if key == "" {
		return "", status.ErrEmptyKey
	}
	name := url.PathEscape(key)
	if name == nestedPutStageName || name == "." || name == ".." {
		return "", fmt.Errorf("key '%v' conflicts with reserved file name", key)
	}
	return name, nil
}

func (l *localFS) check() error {
	if l.closed.Load() {
		return status.ErrClosed
	}
	return nil
}

func (l *localFS) Has(_ context.Context, key string) (bool, error) {
	if err := l.check(); err != nil {
		return false, err
	}
	name, err := fileName(key)
	if err != nil {
		return false, err
	}
	fi, err := l.fs.Stat(name)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}

	return !fi.IsDir(), nil
}

func (l *localFS) Get(_ context.Context, key string) ([]byte, error) {
	if err := l.check(); err != nil {
		return nil, err
	}
	name, err := fileName(key)
	if err != nil {
		return nil, err
	}
	data, err := afero.ReadFile(l.fs, name)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, status.ErrNotFound
		}
		return nil, err
	}
	return l.zstd.decompress(data)
}

func (l *localFS) Put(_ context.Context, key string, data []byte) error {
	if err := l.check(); err != nil {
		return err
	}
	name, err := fileName(key)
	if err != nil {
		return err
	}

	if l.compress {
		data = l.zstd.compress(data)
	}

	// concurrent puts of the same key each get their own staging file
	putStageKey := filepath.Join(nestedPutStageName, ksuid.New().String())
	if err = afero.WriteFile(l.fs, putStageKey, data, fileMode); err != nil {
		return fmt.Errorf("write record for %q: %v", key, err)
	}
	if err = l.fs.Rename(putStageKey, name); err != nil {
		_ = l.fs.Remove(putStageKey)
		return fmt.Errorf("commit record for %q: %v", key, err)
	}
	return nil
}

func (l *localFS) Delete(_ context.Context, key string) error {
	if err := l.check(); err != nil {
		return err
	}
	name, err := fileName(key)
	if err != nil {
		return err
	}
	if err := l.fs.Remove(name); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing %q: %v", key, err)
	}
	return nil
}

func (l *localFS) Keys(_ context.Context, prefix string) ([]string, error) {
	if err := l.check(); err != nil {
		return nil, err
	}
	infos, err := afero.ReadDir(l.fs, ".")
	if err != nil {
		return nil, err
	}
	res := make([]string, 0, len(infos))
	for _, info := range infos {
		if info.IsDir() {
			continue
		}
		key, err := url.PathUnescape(info.Name())
		if err != nil {
			// not one of ours
			continue
		}
		if strings.HasPrefix(key, prefix) {
			res = append(res, key)
		}
	}
	sort.Strings(res)
	return res, nil
}

func (l *localFS) Clear(ctx context.Context) error {
	keys, err := l.Keys(ctx, "")
	if err != nil {
		return err
	}
	for _, key := range keys {
		if err := l.Delete(ctx, key); err != nil {
			return err
		}
	}
	return nil
}

func (l *localFS) Sync(_ context.Context) error {
	// puts are complete files once renamed
	return l.check()
}

func (l *localFS) Close() error {
	if l.closed.Swap(true) {
		return nil
	}
	l.zstd.close()
	return nil
}

func (l *localFS) String() string {
	const localfs = "localfs"
	switch fs := l.fs.(type) {
	case *afero.BasePathFs:
		pp, err := fs.RealPath("")
		if err != nil {
			return localfs
		}
		return localfs + "@" + pp
	default:
		return localfs
	}
}
