// ABOUTME: Engine wiring inbound messages through timers, sessions, the machine and the finalizer
// ABOUTME: Messages for one conversation are handled in arrival order; conversations run concurrently

package bot

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/Luk-bit/Facil-assim-food/internal/session"
)

// idleNoticeTimeout bounds the inactivity notice send, which runs outside any request context.
const idleNoticeTimeout = 10 * time.Second

// Message is one inbound customer text.
type Message struct {
	ConversationID string
	// Contact is the customer's phone identity, stored with the order.
	Contact string
	Text    string
}

type queued struct {
	ctx context.Context
	msg Message
}

// Engine owns the sessions and idle timers.
type Engine struct {
	machine   *Machine
	finalizer *Finalizer
	notifier  Notifier
	sessions  *session.Repository
	timers    *session.IdleTimers
	logger    *slog.Logger

	mu     sync.Mutex
	queues map[string][]queued
	wg     sync.WaitGroup
}

// NewEngine creates an Engine that expires sessions after idleWindow of silence.
func NewEngine(machine *Machine, finalizer *Finalizer, notifier Notifier, idleWindow time.Duration, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	e := &Engine{
		machine:   machine,
		finalizer: finalizer,
		notifier:  notifier,
		sessions:  session.NewRepository(),
		logger:    logger.With("component", "engine"),
		queues:    make(map[string][]queued),
	}
	e.timers = session.NewIdleTimers(idleWindow, e.onIdle)
	return e
}

// HandleMessage processes one message synchronously. Empty text is ignored.
func (e *Engine) HandleMessage(ctx context.Context, msg Message) {
	text := strings.TrimSpace(msg.Text)
	if text == "" {
		return
	}

	s, release := e.sessions.Acquire(msg.ConversationID)
	defer release()

	// Restarted under the session lock so a firing timer can tell it was superseded
	e.timers.Reset(msg.ConversationID)

	from := s.State
	out := e.machine.Step(ctx, s, text)

	e.logger.Debug("message handled",
		"conversation_id", msg.ConversationID,
		"session_id", s.ID,
		"from", from.String(),
		"to", s.State.String(),
		"replies", len(out.Replies),
	)

	for _, r := range out.Replies {
		e.notifier.Deliver(ctx, msg.ConversationID, r)
	}

	if out.Finalize != nil {
		e.finalizer.Finalize(ctx, Handoff{
			ConversationID: msg.ConversationID,
			Contact:        msg.Contact,
			Draft:          *out.Finalize,
		})
	}
}

// Dispatch queues msg and returns immediately. Messages for the same
// conversation are handled one at a time in the order they were dispatched.
func (e *Engine) Dispatch(ctx context.Context, msg Message) {
	e.mu.Lock()
	defer e.mu.Unlock()

	// Queued work must survive the end of the sync loop so Close can drain it
	ctx = context.WithoutCancel(ctx)

	q, draining := e.queues[msg.ConversationID]
	e.queues[msg.ConversationID] = append(q, queued{ctx: ctx, msg: msg})
	if !draining {
		e.wg.Add(1)
		go e.drain(msg.ConversationID)
	}
}

func (e *Engine) drain(conversationID string) {
	defer e.wg.Done()
	for {
		e.mu.Lock()
		q := e.queues[conversationID]
		if len(q) == 0 {
			delete(e.queues, conversationID)
			e.mu.Unlock()
			return
		}
		next := q[0]
		e.queues[conversationID] = q[1:]
		e.mu.Unlock()

		e.HandleMessage(next.ctx, next.msg)
	}
}

// Wait blocks until every dispatched message has been handled.
func (e *Engine) Wait() {
	e.wg.Wait()
}

// Expire force-expires the session for conversationID now, as if its idle
// window had elapsed. It is a no-op when no session exists.
func (e *Engine) Expire(conversationID string) bool {
	e.timers.Stop(conversationID)
	return e.sessions.Remove(conversationID, func(s *session.Session) bool {
		e.closeIdle(s)
		return true
	})
}

func (e *Engine) onIdle(conversationID string, gen uint64) {
	e.sessions.Remove(conversationID, func(s *session.Session) bool {
		if !e.timers.Current(conversationID, gen) {
			// A message arrived after the timer fired
			return false
		}
		e.closeIdle(s)
		return true
	})
	e.timers.Clear(conversationID, gen)
}

func (e *Engine) closeIdle(s *session.Session) {
	e.logger.Info("session expired",
		"conversation_id", s.ConversationID,
		"session_id", s.ID,
		"state", s.State.String(),
		"completed", s.Completed,
	)
	if s.Completed {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), idleNoticeTimeout)
	defer cancel()
	e.notifier.Deliver(ctx, s.ConversationID, msgIdleClosed)
}

// ActiveSessions returns the number of live sessions.
func (e *Engine) ActiveSessions() int {
	return e.sessions.Len()
}

// Close waits for queued messages and cancels every idle timer.
// Sessions are not persisted.
func (e *Engine) Close() {
	e.wg.Wait()
	e.logger.Info("engine stopped",
		"active_sessions", e.sessions.Len(),
		"idle_timers", e.timers.Len(),
	)
	e.timers.StopAll()
}
