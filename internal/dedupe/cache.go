// ABOUTME: Sliding window of recently seen inbound event ids
// ABOUTME: Drops events the transport redelivers after reconnects or sync retries

package dedupe

import (
	"container/list"
	"sync"
	"time"
)

// DefaultTTL is how long an event id is remembered.
const DefaultTTL = 10 * time.Minute

// DefaultMaxEntries bounds memory when traffic is heavy.
const DefaultMaxEntries = 50_000

type seenEvent struct {
	id string
	at time.Time
}

// Window remembers event ids for a fixed TTL. Entries are kept in arrival
// order, so expiry and eviction both work from the front of the list.
type Window struct {
	mu      sync.Mutex
	ttl     time.Duration
	max     int
	entries map[string]*list.Element
	order   *list.List
	now     func() time.Time

	stop     chan struct{}
	stopOnce sync.Once
}

// NewWindow creates a Window and starts a sweeper that drops expired ids
// once per TTL. Non-positive arguments select the defaults.
func NewWindow(ttl time.Duration, maxEntries int) *Window {
	return newWindow(ttl, maxEntries, time.Now)
}

func newWindow(ttl time.Duration, maxEntries int, now func() time.Time) *Window {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	w := &Window{
		ttl:     ttl,
		max:     maxEntries,
		entries: make(map[string]*list.Element),
		order:   list.New(),
		now:     now,
		stop:    make(chan struct{}),
	}
	go w.sweepLoop()
	return w
}

// Seen records id and reports whether it was already recorded within the TTL.
// A duplicate does not extend the original entry's lifetime.
func (w *Window) Seen(id string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := w.now()
	if el, ok := w.entries[id]; ok {
		if now.Sub(el.Value.(*seenEvent).at) < w.ttl {
			return true
		}
		w.order.Remove(el)
		delete(w.entries, id)
	}

	for len(w.entries) >= w.max {
		w.dropFront()
	}
	w.entries[id] = w.order.PushBack(&seenEvent{id: id, at: now})
	return false
}

// Forget removes id so a later Seen reports it as new.
func (w *Window) Forget(id string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if el, ok := w.entries[id]; ok {
		w.order.Remove(el)
		delete(w.entries, id)
	}
}

// Len returns the number of remembered ids, expired or not.
func (w *Window) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.entries)
}

// Close stops the sweeper. Safe to call more than once.
func (w *Window) Close() {
	w.stopOnce.Do(func() { close(w.stop) })
}

func (w *Window) sweepLoop() {
	ticker := time.NewTicker(w.ttl)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.sweep()
		case <-w.stop:
			return
		}
	}
}

// sweep drops expired ids from the front of the arrival list.
func (w *Window) sweep() {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := w.now()
	for front := w.order.Front(); front != nil; front = w.order.Front() {
		if now.Sub(front.Value.(*seenEvent).at) < w.ttl {
			return
		}
		w.dropFront()
	}
}

// dropFront must be called with mu held.
func (w *Window) dropFront() {
	front := w.order.Front()
	if front == nil {
		return
	}
	w.order.Remove(front)
	delete(w.entries, front.Value.(*seenEvent).id)
}
