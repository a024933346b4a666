package branch

import (
	"github.com/oneconcern/modelstore/pkg/metrics"
	"github.com/oneconcern/modelstore/pkg/model"
	"go.uber.org/zap"
)

// Option for the coordinator
type Option func(*Coordinator)

// WithLogger sets a logger
func WithLogger(l *zap.Logger) Option {
	return func(c *Coordinator) {
		if l != nil {
			c.l = l
		}
	}
}

// WithMetrics sets the metrics collectors
func WithMetrics(m *metrics.M) Option {
	return func(c *Coordinator) {
		if m != nil {
			c.m = m
		}
	}
}

// CreateOption customizes branch creation
type CreateOption func(*createSettings)

type createSettings struct {
	head model.Hash
}

// WithHead creates a branch pointing at an existing commit
func WithHead(commit model.Hash) CreateOption {
	return func(s *createSettings) {
		s.head = commit
	}
}

// SubscribeOption customizes a subscription
type SubscribeOption func(*subscribeSettings)

type subscribeSettings struct {
	lastSeen    model.Hash
	hasLastSeen bool
}

// WithLastSeen tells the head the subscriber last read. When the branch has
// moved since, the subscription fires immediately with the current head.
func WithLastSeen(head model.Hash) SubscribeOption {
	return func(s *subscribeSettings) {
		s.lastSeen = head
		s.hasLastSeen = true
	}
}
