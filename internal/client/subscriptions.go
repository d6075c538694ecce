package client

import (
	"sync"

	"main/pkg/exception"
)

// subscription is one long-lived streaming registration. The subscribe
// action is kept verbatim so it can be replayed after a reconnect.
type subscription struct {
	id        int64
	name      string
	subscribe func() error
	cancel    func() error
	callback  func(event any)
}

// subscriptionTable maps ids to push callbacks. Unlike requestTable
// entries, a subscription survives event delivery and only dies on an
// explicit unsubscribe.
type subscriptionTable struct {
	mu      sync.Mutex
	entries map[int64]*subscription
}

func newSubscriptionTable() *subscriptionTable {
	return &subscriptionTable{entries: make(map[int64]*subscription)}
}

func (t *subscriptionTable) add(sub *subscription) error {
	if sub.callback == nil {
		return exception.ErrNilCallback
	}
	t.mu.Lock()
	if _, exists := t.entries[sub.id]; exists {
		t.mu.Unlock()
		return exception.ErrDuplicateRequest
	}
	t.entries[sub.id] = sub
	t.mu.Unlock()
	return nil
}

// dispatch invokes the callback for id. Unknown ids are a benign no-op
// (late push after cancel).
func (t *subscriptionTable) dispatch(id int64, event any) bool {
	t.mu.Lock()
	sub, ok := t.entries[id]
	t.mu.Unlock()
	if !ok {
		return false
	}
	sub.callback(event)
	return true
}

func (t *subscriptionTable) has(id int64) bool {
	t.mu.Lock()
	_, ok := t.entries[id]
	t.mu.Unlock()
	return ok
}

// remove drops and returns the subscription for id.
func (t *subscriptionTable) remove(id int64) (*subscription, bool) {
	t.mu.Lock()
	sub, ok := t.entries[id]
	if ok {
		delete(t.entries, id)
	}
	t.mu.Unlock()
	return sub, ok
}

// snapshot returns the current subscriptions for replay.
func (t *subscriptionTable) snapshot() []*subscription {
	t.mu.Lock()
	subs := make([]*subscription, 0, len(t.entries))
	for _, sub := range t.entries {
		subs = append(subs, sub)
	}
	t.mu.Unlock()
	return subs
}

func (t *subscriptionTable) size() int {
	t.mu.Lock()
	n := len(t.entries)
	t.mu.Unlock()
	return n
}
