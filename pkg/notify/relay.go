// Package notify relays branch updates to a message bus.
//
// Branch subscriptions are single-shot: the relay re-arms a subscription for each watched
// branch every time it fires, passing the head it just published as the last seen head,
// so that no update is lost between two subscriptions.
package notify

import (
	"context"
	"sort"
	"sync"

	"github.com/json-iterator/go"
	"github.com/oneconcern/modelstore/pkg/branch"
	"github.com/oneconcern/modelstore/pkg/errors"
	"github.com/oneconcern/modelstore/pkg/model"
	"go.uber.org/zap"
)

// DefaultSubjectPrefix for branch messages. Messages for branch b go to <prefix>.b
const DefaultSubjectPrefix = "modelstore.branches"

var (
	// ErrClosed is returned when watching with a closed relay
	ErrClosed = errors.New("relay is closed")

	json = jsoniter.ConfigCompatibleWithStandardLibrary
)

// Publisher sends a payload to a subject
type Publisher interface {
	Publish(subject string, data []byte) error
}

// Message published on branch events
type Message struct {
	model.BranchRecord
	Deleted bool `json:"deleted,omitempty"`
}

// Option for the relay
type Option func(*Relay)

// WithLogger sets a logger
func WithLogger(l *zap.Logger) Option {
	return func(r *Relay) {
		if l != nil {
			r.l = l
		}
	}
}

// WithSubjectPrefix sets the prefix of the subjects to publish to
func WithSubjectPrefix(prefix string) Option {
	return func(r *Relay) {
		if prefix != "" {
			r.prefix = prefix
		}
	}
}

// Relay publishes the updates of watched branches
type Relay struct {
	coord  *branch.Coordinator
	pub    Publisher
	l      *zap.Logger
	prefix string

	mu      sync.Mutex
	closed  bool
	watches map[string]*watch
}

// watch is the subscription currently armed for a branch. seq tells apart successive arms.
type watch struct {
	sub *branch.Subscription
	seq uint64
}

// New relay from a branch coordinator to a publisher
func New(coord *branch.Coordinator, pub Publisher, opts ...Option) *Relay {
	r := &Relay{
		coord:   coord,
		pub:     pub,
		l:       zap.NewNop(),
		prefix:  DefaultSubjectPrefix,
		watches: make(map[string]*watch),
	}
	for _, apply := range opts {
		apply(r)
	}
	return r
}

// Subject for the messages of a branch
func (r *Relay) Subject(name string) string {
	return r.prefix + "." + name
}

// Watch starts relaying the updates of a branch. Watching a branch twice is a no-op.
func (r *Relay) Watch(ctx context.Context, name string) error {
	head, err := r.coord.Head(ctx, name)
	if err != nil {
		return err
	}

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return ErrClosed
	}
	if _, ok := r.watches[name]; ok {
		r.mu.Unlock()
		return nil
	}
	r.watches[name] = &watch{}
	r.mu.Unlock()

	return r.arm(ctx, name, head)
}

// arm subscribes to the next update of a branch.
//
// The subscription may fire before Subscribe returns, so the lock is not held meanwhile.
func (r *Relay) arm(ctx context.Context, name string, lastSeen model.Hash) error {
	r.mu.Lock()
	w, ok := r.watches[name]
	if !ok {
		r.mu.Unlock()
		return nil
	}
	w.seq++
	seq := w.seq
	r.mu.Unlock()

	sub, err := r.coord.Subscribe(ctx, name, func(e branch.Event) {
		r.relay(name, e)
	}, branch.WithLastSeen(lastSeen))

	r.mu.Lock()
	defer r.mu.Unlock()
	current := r.watches[name] == w && w.seq == seq
	if err != nil {
		if current {
			delete(r.watches, name)
		}
		return err
	}
	switch {
	case current:
		w.sub = sub
	case r.watches[name] != w:
		// unwatched meanwhile
		sub.Cancel()
	}
	return nil
}

func (r *Relay) relay(name string, e branch.Event) {
	r.mu.Lock()
	_, watched := r.watches[name]
	watched = watched && !r.closed
	r.mu.Unlock()
	if !watched {
		return
	}

	msg := Message{BranchRecord: e.Branch.Record()}
	if e.Err != nil {
		msg.Deleted = true
	}
	r.publish(name, msg)

	if msg.Deleted {
		r.l.Info("branch deleted: stop watching", zap.String("branch", name))
		r.mu.Lock()
		delete(r.watches, name)
		r.mu.Unlock()
		return
	}
	if err := r.arm(context.Background(), name, e.Branch.Head); err != nil {
		r.l.Error("cannot watch branch", zap.String("branch", name), zap.Error(err))
	}
}

func (r *Relay) publish(name string, msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		r.l.Error("cannot encode branch message", zap.String("branch", name), zap.Error(err))
		return
	}
	if err := r.pub.Publish(r.Subject(name), data); err != nil {
		r.l.Warn("cannot publish branch message", zap.String("branch", name), zap.Error(err))
		return
	}
	r.l.Debug("published", zap.String("branch", name), zap.Stringer("head", msg.Branch().Head), zap.Bool("deleted", msg.Deleted))
}

// Unwatch stops relaying the updates of a branch. It returns false if the branch was not watched.
func (r *Relay) Unwatch(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.watches[name]
	if !ok {
		return false
	}
	delete(r.watches, name)
	if w.sub != nil {
		w.sub.Cancel()
	}
	return true
}

// Watched lists the branches being relayed, sorted
func (r *Relay) Watched() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.watches))
	for name := range r.watches {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Close cancels all subscriptions
func (r *Relay) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	for name, w := range r.watches {
		if w.sub != nil {
			w.sub.Cancel()
		}
		delete(r.watches, name)
	}
}
