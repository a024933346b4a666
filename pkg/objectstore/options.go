package objectstore

import (
	"github.com/oneconcern/modelstore/pkg/metrics"
	"go.uber.org/zap"
)

// Option for the object store
type Option func(*Store)

// WithLogger sets a logger
func WithLogger(l *zap.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.l = l
		}
	}
}

// WithMetrics sets the metrics collectors
func WithMetrics(m *metrics.M) Option {
	return func(s *Store) {
		if m != nil {
			s.m = m
		}
	}
}

// WithCacheSize enables a read cache for up to size objects. A zero size disables the cache.
func WithCacheSize(size int) Option {
	return func(s *Store) {
		s.cacheSize = size
	}
}

// WithVerifyOnLoad tells the store to check the hash of objects read from storage (the default)
func WithVerifyOnLoad(enabled bool) Option {
	return func(s *Store) {
		s.verify = enabled
	}
}
