package bus

import "sync"

// Handler observes every published event.
type Handler func(Event)

// Feed fans one event stream out to zero or more handlers, invoked
// synchronously in registration order. Handlers must not block; anything
// slow should hop onto its own Queue.
type Feed struct {
	mu       sync.Mutex
	nextID   uint64
	handlers []feedEntry
}

type feedEntry struct {
	id uint64
	h  Handler
}

// NewFeed creates an empty feed.
func NewFeed() *Feed {
	return &Feed{}
}

// Attach registers a handler and returns its detach function.
func (f *Feed) Attach(h Handler) (detach func()) {
	if h == nil {
		return func() {}
	}
	f.mu.Lock()
	f.nextID++
	id := f.nextID
	f.handlers = append(f.handlers, feedEntry{id: id, h: h})
	f.mu.Unlock()

	return func() {
		f.mu.Lock()
		for i, entry := range f.handlers {
			if entry.id == id {
				f.handlers = append(f.handlers[:i], f.handlers[i+1:]...)
				break
			}
		}
		f.mu.Unlock()
	}
}

// Publish delivers the event to every attached handler.
func (f *Feed) Publish(e Event) {
	f.mu.Lock()
	snapshot := make([]feedEntry, len(f.handlers))
	copy(snapshot, f.handlers)
	f.mu.Unlock()

	for _, entry := range snapshot {
		entry.h(e)
	}
}

// Len returns the number of attached handlers.
func (f *Feed) Len() int {
	f.mu.Lock()
	n := len(f.handlers)
	f.mu.Unlock()
	return n
}
