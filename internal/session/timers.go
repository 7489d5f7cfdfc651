// ABOUTME: Idle timer manager with one restartable timer per conversation
// ABOUTME: Generations let an expiry callback detect that a newer message restarted its timer

package session

import (
	"sync"
	"time"
)

// ExpireFunc is called when a conversation has been idle for the full window.
// gen identifies the timer that fired; see IdleTimers.Current.
type ExpireFunc func(conversationID string, gen uint64)

type idleTimer struct {
	t   *time.Timer
	gen uint64
}

// IdleTimers schedules idle expiry per conversation.
type IdleTimers struct {
	mu       sync.Mutex
	window   time.Duration
	timers   map[string]*idleTimer
	nextGen  uint64
	onExpire ExpireFunc
}

// NewIdleTimers creates a manager that calls onExpire after window of silence.
func NewIdleTimers(window time.Duration, onExpire ExpireFunc) *IdleTimers {
	return &IdleTimers{
		window:   window,
		timers:   make(map[string]*idleTimer),
		onExpire: onExpire,
	}
}

// Reset cancels any running timer for conversationID and starts a new one.
func (it *IdleTimers) Reset(conversationID string) uint64 {
	it.mu.Lock()
	defer it.mu.Unlock()

	if old, ok := it.timers[conversationID]; ok {
		old.t.Stop()
	}

	it.nextGen++
	gen := it.nextGen
	it.timers[conversationID] = &idleTimer{
		gen: gen,
		t: time.AfterFunc(it.window, func() {
			it.onExpire(conversationID, gen)
		}),
	}
	return gen
}

// Current reports whether gen is still the live timer for conversationID.
func (it *IdleTimers) Current(conversationID string, gen uint64) bool {
	it.mu.Lock()
	defer it.mu.Unlock()
	t, ok := it.timers[conversationID]
	return ok && t.gen == gen
}

// Clear drops the timer entry if gen is still current. Used from the
// expiry callback, where the timer has already fired.
func (it *IdleTimers) Clear(conversationID string, gen uint64) {
	it.mu.Lock()
	defer it.mu.Unlock()
	if t, ok := it.timers[conversationID]; ok && t.gen == gen {
		delete(it.timers, conversationID)
	}
}

// Stop cancels and drops the timer for conversationID.
func (it *IdleTimers) Stop(conversationID string) {
	it.mu.Lock()
	defer it.mu.Unlock()
	if t, ok := it.timers[conversationID]; ok {
		t.t.Stop()
		delete(it.timers, conversationID)
	}
}

// StopAll cancels every timer.
func (it *IdleTimers) StopAll() {
	it.mu.Lock()
	defer it.mu.Unlock()
	for id, t := range it.timers {
		t.t.Stop()
		delete(it.timers, id)
	}
}

// Len returns the number of running timers.
func (it *IdleTimers) Len() int {
	it.mu.Lock()
	defer it.mu.Unlock()
	return len(it.timers)
}
