// ABOUTME: In-memory session repository keyed by conversation identifier
// ABOUTME: Each session is locked for exclusive use while a message or expiry is applied

package session

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Luk-bit/Facil-assim-food/internal/order"
)

// Session is one customer's conversation with the bot.
type Session struct {
	ID             string
	ConversationID string
	State          order.State
	Draft          order.Draft
	Completed      bool
	CreatedAt      time.Time
}

// New creates a fresh session at StateStart.
func New(conversationID string) *Session {
	return &Session{
		ID:             uuid.New().String(),
		ConversationID: conversationID,
		State:          order.StateStart,
		CreatedAt:      time.Now(),
	}
}

// Reset replaces s with a fresh session for the same conversation.
// The previous draft is discarded, never reused.
func (s *Session) Reset() {
	*s = *New(s.ConversationID)
}

type entry struct {
	mu   sync.Mutex
	sess *Session
}

// Repository holds at most one session per conversation identifier.
type Repository struct {
	mu      sync.Mutex
	entries map[string]*entry
}

// NewRepository creates an empty Repository.
func NewRepository() *Repository {
	return &Repository{
		entries: make(map[string]*entry),
	}
}

// Acquire returns the session for conversationID, creating it if absent.
// The session is held exclusively until release is called.
func (r *Repository) Acquire(conversationID string) (s *Session, release func()) {
	for {
		r.mu.Lock()
		e, ok := r.entries[conversationID]
		if !ok {
			e = &entry{sess: New(conversationID)}
			r.entries[conversationID] = e
		}
		r.mu.Unlock()

		e.mu.Lock()
		if r.isCurrent(conversationID, e) {
			return e.sess, e.mu.Unlock
		}
		// Removed while we waited; start over with a new entry
		e.mu.Unlock()
	}
}

// Remove locks the session for conversationID and passes it to visit.
// The session is deleted when visit returns true. Remove reports whether
// a session was deleted; it is a no-op when none exists.
func (r *Repository) Remove(conversationID string, visit func(*Session) bool) bool {
	r.mu.Lock()
	e, ok := r.entries[conversationID]
	r.mu.Unlock()
	if !ok {
		return false
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if !r.isCurrent(conversationID, e) {
		return false
	}
	if visit != nil && !visit(e.sess) {
		return false
	}

	r.mu.Lock()
	delete(r.entries, conversationID)
	r.mu.Unlock()
	return true
}

// Get returns a copy of the session, or false if none exists.
func (r *Repository) Get(conversationID string) (Session, bool) {
	r.mu.Lock()
	e, ok := r.entries[conversationID]
	r.mu.Unlock()
	if !ok {
		return Session{}, false
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if !r.isCurrent(conversationID, e) {
		return Session{}, false
	}
	s := *e.sess
	s.Draft = e.sess.Draft.Clone()
	return s, true
}

// Len returns the number of live sessions.
func (r *Repository) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

func (r *Repository) isCurrent(conversationID string, e *entry) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.entries[conversationID] == e
}
