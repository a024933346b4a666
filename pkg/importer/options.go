package importer

import (
	"time"

	"github.com/oneconcern/modelstore/pkg/metrics"
	"go.uber.org/zap"
)

const (
	// DefaultCheckpointEvery is the number of nodes built between two intermediate persists
	DefaultCheckpointEvery = 5000

	// DefaultFanOut is the number of concurrent resolutions
	DefaultFanOut = 200

	// DefaultMaxDepth is the call depth past which continuations are queued
	DefaultMaxDepth = 50

	// DefaultReportInterval is the period of progress logs
	DefaultReportInterval = 5 * time.Second
)

// Option for the importer
type Option func(*Importer)

// WithLogger sets a logger
func WithLogger(l *zap.Logger) Option {
	return func(i *Importer) {
		if l != nil {
			i.l = l
		}
	}
}

// WithMetrics sets the metrics collectors
func WithMetrics(m *metrics.M) Option {
	return func(i *Importer) {
		if m != nil {
			i.m = m
		}
	}
}

// WithCheckpointEvery sets the number of built nodes which triggers an intermediate persist
func WithCheckpointEvery(n int) Option {
	return func(i *Importer) {
		if n > 0 {
			i.checkpointEvery = n
		}
	}
}

// WithFanOut sets the maximum number of concurrent resolutions
func WithFanOut(n int) Option {
	return func(i *Importer) {
		if n > 0 {
			i.fanOut = n
		}
	}
}

// WithMaxDepth sets the call depth past which the build defers work to its queue
func WithMaxDepth(n int) Option {
	return func(i *Importer) {
		if n > 0 {
			i.maxDepth = n
		}
	}
}

// WithReportInterval sets the period of progress logs
func WithReportInterval(d time.Duration) Option {
	return func(i *Importer) {
		if d > 0 {
			i.reportInterval = d
		}
	}
}
