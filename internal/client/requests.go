package client

import (
	"context"
	"sync"
	"time"

	"main/internal/schema"
	"main/pkg/exception"
)

// outcome is the single terminal result of a pending request.
type outcome struct {
	value any
	err   error
}

// pending is one outstanding request: a partial-result accumulator plus a
// one-shot resolution channel its owner signals exactly once.
type pending struct {
	id      int64
	name    string
	timeout time.Duration
	partial []any
	done    chan outcome
}

// requestTable correlates request ids to pending requests. Dynamic ids
// decrement from schema.FirstDynamicReqID; reserved singleton ids are
// handed in by the caller.
type requestTable struct {
	mu      sync.Mutex
	nextID  int64
	entries map[int64]*pending
}

func newRequestTable() *requestTable {
	return &requestTable{
		nextID:  schema.FirstDynamicReqID,
		entries: make(map[int64]*pending),
	}
}

// nextRequestID returns a fresh id from the decrementing sequence.
func (t *requestTable) nextRequestID() int64 {
	t.mu.Lock()
	id := t.nextID
	t.nextID--
	t.mu.Unlock()
	return id
}

// create registers a pending request under id. A second create for an id
// still pending is a caller bug and is rejected.
func (t *requestTable) create(id int64, name string, timeout time.Duration) (*pending, error) {
	p := &pending{
		id:      id,
		name:    name,
		timeout: timeout,
		done:    make(chan outcome, 1),
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, exists := t.entries[id]; exists {
		return nil, exception.ErrDuplicateRequest
	}
	t.entries[id] = p
	return p, nil
}

// has reports whether id currently has a pending entry.
func (t *requestTable) has(id int64) bool {
	t.mu.Lock()
	_, ok := t.entries[id]
	t.mu.Unlock()
	return ok
}

// appendPartial accumulates one partial response item. Unknown ids are a
// benign no-op (the request may have timed out already).
func (t *requestTable) appendPartial(id int64, item any) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	p, ok := t.entries[id]
	if !ok {
		return false
	}
	p.partial = append(p.partial, item)
	return true
}

// resolve removes the entry and signals its waiter with value. A second
// resolve, or a resolve after timeout removal, is a no-op.
func (t *requestTable) resolve(id int64, value any) bool {
	return t.finish(id, outcome{value: value})
}

// resolveAccumulated resolves with everything appendPartial collected.
func (t *requestTable) resolveAccumulated(id int64) bool {
	t.mu.Lock()
	p, ok := t.entries[id]
	if !ok {
		t.mu.Unlock()
		return false
	}
	delete(t.entries, id)
	t.mu.Unlock()

	p.done <- outcome{value: p.partial}
	return true
}

// fail resolves the entry with an application-level error.
func (t *requestTable) fail(id int64, err error) bool {
	return t.finish(id, outcome{err: err})
}

func (t *requestTable) finish(id int64, out outcome) bool {
	t.mu.Lock()
	p, ok := t.entries[id]
	if !ok {
		t.mu.Unlock()
		return false
	}
	delete(t.entries, id)
	t.mu.Unlock()

	p.done <- out
	return true
}

// failAll fails every pending request, emptying the table. Used on reset
// so an in-flight request never outlives its connection.
func (t *requestTable) failAll(err error) int {
	t.mu.Lock()
	victims := make([]*pending, 0, len(t.entries))
	for id, p := range t.entries {
		victims = append(victims, p)
		delete(t.entries, id)
	}
	t.mu.Unlock()

	for _, p := range victims {
		p.done <- outcome{err: err}
	}
	return len(victims)
}

// remove drops the entry only if it is still this exact request; it
// returns false when a resolve already won.
func (t *requestTable) remove(p *pending) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	current, ok := t.entries[p.id]
	if !ok || current != p {
		return false
	}
	delete(t.entries, p.id)
	return true
}

// await blocks until the request resolves, its timeout elapses, or ctx is
// done. A timeout removes the entry so a late server answer is dropped.
func (t *requestTable) await(ctx context.Context, p *pending) (any, error) {
	var timeoutC <-chan time.Time
	if p.timeout > 0 {
		timer := time.NewTimer(p.timeout)
		defer timer.Stop()
		timeoutC = timer.C
	}

	select {
	case out := <-p.done:
		return out.value, out.err
	case <-timeoutC:
		if t.remove(p) {
			return nil, exception.ErrRequestTimeout
		}
		// A resolve slipped in before we removed the entry.
		out := <-p.done
		return out.value, out.err
	case <-ctx.Done():
		if t.remove(p) {
			return nil, ctx.Err()
		}
		out := <-p.done
		return out.value, out.err
	}
}

// size returns the number of pending entries.
func (t *requestTable) size() int {
	t.mu.Lock()
	n := len(t.entries)
	t.mu.Unlock()
	return n
}
