// ABOUTME: In-memory Sender that records messages for tests and dry runs
// ABOUTME: Per-conversation failures can be injected with Fail

package outbound

import (
	"context"
	"sync"
)

// Message is one recorded send.
type Message struct {
	ConversationID string
	Text           string
}

type failure struct {
	result Result
	err    error
}

// Recorder is a Sender that keeps every message it is given.
type Recorder struct {
	mu       sync.Mutex
	messages []Message
	failures map[string]failure
}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{failures: make(map[string]failure)}
}

// Fail makes sends to conversationID return result and err.
func (r *Recorder) Fail(conversationID string, result Result, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failures[conversationID] = failure{result: result, err: err}
}

// Send records the message and returns Delivered unless a failure was
// injected. A done context fails like a network send would, without recording.
func (r *Recorder) Send(ctx context.Context, conversationID, text string) (Result, error) {
	if err := ctx.Err(); err != nil {
		return TransportError, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, Message{ConversationID: conversationID, Text: text})
	if f, ok := r.failures[conversationID]; ok {
		return f.result, f.err
	}
	return Delivered, nil
}

// Messages returns every recorded message in send order.
func (r *Recorder) Messages() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Message(nil), r.messages...)
}

// TextsTo returns the texts sent to conversationID in send order.
func (r *Recorder) TextsTo(conversationID string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var texts []string
	for _, m := range r.messages {
		if m.ConversationID == conversationID {
			texts = append(texts, m.Text)
		}
	}
	return texts
}

// Reset forgets recorded messages.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = nil
}
