package commitgraph

import (
	"time"

	"github.com/oneconcern/modelstore/pkg/metrics"
	"go.uber.org/zap"
)

const defaultMemoSize = 8192

// Option for the commit graph
type Option func(*Graph)

// WithLogger sets a logger
func WithLogger(l *zap.Logger) Option {
	return func(g *Graph) {
		if l != nil {
			g.l = l
		}
	}
}

// WithMetrics sets the metrics collectors
func WithMetrics(m *metrics.M) Option {
	return func(g *Graph) {
		if m != nil {
			g.m = m
		}
	}
}

// WithClock overrides the time source used to stamp commits
func WithClock(now func() time.Time) Option {
	return func(g *Graph) {
		if now != nil {
			g.now = now
		}
	}
}

// WithUpdater sets the names recorded as updaters of new commits
func WithUpdater(updater ...string) Option {
	return func(g *Graph) {
		g.updater = updater
	}
}

// WithMemoSize bounds the number of memoized ancestry checks. A zero size disables memoization.
func WithMemoSize(size int) Option {
	return func(g *Graph) {
		g.memoSize = size
	}
}
