package branch

import (
	"context"

	"github.com/oneconcern/modelstore/pkg/model"
	"go.uber.org/zap"
)

const (
	eventUpdated = "updated"
	eventDeleted = "deleted"
)

// Event delivered to a subscriber: the updated branch, or an error when the branch was deleted
type Event struct {
	Branch model.Branch
	Err    error
}

// Callback receiving a branch event
type Callback func(Event)

// Subscription is a single-shot registration on a branch
type Subscription struct {
	c        *Coordinator
	id       uint64
	name     string
	callback Callback
}

// Branch this subscription watches
func (s *Subscription) Branch() string {
	return s.name
}

// Cancel the subscription. It returns false if the subscription already fired or was cancelled.
func (s *Subscription) Cancel() bool {
	return s.c.cancel(s)
}

// Subscribe registers a callback, invoked exactly once on the next accepted update of the branch
// (or its deletion). Callbacks fire in registration order, after the update is persisted.
//
// With WithLastSeen, a branch which head already moved away from the last seen head fires
// immediately instead.
func (c *Coordinator) Subscribe(ctx context.Context, name string, callback Callback, opts ...SubscribeOption) (*Subscription, error) {
	var settings subscribeSettings
	for _, apply := range opts {
		apply(&settings)
	}

	unlock := c.locks.Lock(name)
	current, err := c.Get(ctx, name)
	if err != nil {
		unlock()
		return nil, err
	}

	c.mu.Lock()
	c.nextID++
	sub := &Subscription{c: c, id: c.nextID, name: name, callback: callback}
	stale := settings.hasLastSeen && settings.lastSeen != current.Head
	if !stale {
		c.subs[name] = append(c.subs[name], sub)
	}
	c.mu.Unlock()
	unlock()

	if stale {
		c.l.Debug("subscriber is behind: firing now", zap.String("branch", name),
			zap.Stringer("last_seen", settings.lastSeen), zap.Stringer("head", current.Head))
		c.fire([]*Subscription{sub}, Event{Branch: current})
	}
	return sub, nil
}

// Wait blocks until the branch moves away from lastSeen, is deleted, or the context is done
func (c *Coordinator) Wait(ctx context.Context, name string, lastSeen model.Hash) (model.Branch, error) {
	events := make(chan Event, 1)
	sub, err := c.Subscribe(ctx, name, func(e Event) { events <- e }, WithLastSeen(lastSeen))
	if err != nil {
		return model.Branch{}, err
	}

	select {
	case e := <-events:
		return e.Branch, e.Err
	case <-ctx.Done():
		if !sub.Cancel() {
			// fired meanwhile
			e := <-events
			return e.Branch, e.Err
		}
		return model.Branch{}, ctx.Err()
	}
}

// Pending returns the number of subscriptions waiting on a branch
func (c *Coordinator) Pending(name string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.subs[name])
}

func (c *Coordinator) detach(name string) []*Subscription {
	c.mu.Lock()
	defer c.mu.Unlock()
	subs := c.subs[name]
	delete(c.subs, name)
	return subs
}

func (c *Coordinator) cancel(s *Subscription) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	subs := c.subs[s.name]
	for i, sub := range subs {
		if sub.id != s.id {
			continue
		}
		remaining := append(subs[:i:i], subs[i+1:]...)
		if len(remaining) == 0 {
			delete(c.subs, s.name)
		} else {
			c.subs[s.name] = remaining
		}
		return true
	}
	return false
}

func (c *Coordinator) fire(subs []*Subscription, e Event) {
	event := eventUpdated
	if e.Err != nil {
		event = eventDeleted
	}
	for _, sub := range subs {
		c.m.Notifications.WithLabelValues(event).Inc()
		sub.callback(e)
	}
}
