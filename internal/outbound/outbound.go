// ABOUTME: Outbound message gateway with tagged delivery results
// ABOUTME: Wraps a transport Sender and reports not-ready until one is attached

package outbound

import (
	"context"
	"errors"
	"log/slog"
	"sync"
)

// ErrNotReady is returned when no transport has been attached yet.
var ErrNotReady = errors.New("outbound gateway not ready")

// Result classifies the outcome of a send.
type Result int

const (
	// Delivered means the transport accepted the message.
	Delivered Result = iota
	// RecipientUnreachable means the recipient cannot receive messages from
	// the bot (not a contact, not joined). It is expected and non-fatal.
	RecipientUnreachable
	// TransportError covers every other failure.
	TransportError
)

func (r Result) String() string {
	switch r {
	case Delivered:
		return "delivered"
	case RecipientUnreachable:
		return "recipient_unreachable"
	case TransportError:
		return "transport_error"
	default:
		return "unknown"
	}
}

// Sender is a transport capable of delivering text to a conversation.
// Implementations return a Result for every call; err carries detail for
// non-Delivered results.
type Sender interface {
	Send(ctx context.Context, conversationID, text string) (Result, error)
}

// Gateway is the single outbound path shared by the conversation engine and
// the administrative API.
type Gateway struct {
	mu     sync.RWMutex
	sender Sender
	logger *slog.Logger
}

// NewGateway creates a Gateway with no transport attached.
func NewGateway(logger *slog.Logger) *Gateway {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gateway{logger: logger.With("component", "outbound")}
}

// Attach sets the transport. The gateway is ready from then on.
func (g *Gateway) Attach(s Sender) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.sender = s
}

// Ready reports whether a transport is attached.
func (g *Gateway) Ready() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.sender != nil
}

// Send delivers text to conversationID. It returns ErrNotReady (with
// TransportError) when no transport is attached.
func (g *Gateway) Send(ctx context.Context, conversationID, text string) (Result, error) {
	g.mu.RLock()
	sender := g.sender
	g.mu.RUnlock()

	if sender == nil {
		return TransportError, ErrNotReady
	}
	return sender.Send(ctx, conversationID, text)
}

// Deliver sends text and logs any failure at a severity matching its Result.
// It never returns an error; callers that need the outcome use Send.
func (g *Gateway) Deliver(ctx context.Context, conversationID, text string) Result {
	result, err := g.Send(ctx, conversationID, text)
	g.Log(conversationID, result, err)
	return result
}

// Log records a send outcome. Unreachable recipients are a warning, other
// failures an error.
func (g *Gateway) Log(conversationID string, result Result, err error) {
	switch result {
	case Delivered:
		g.logger.Debug("message delivered", "conversation_id", conversationID)
	case RecipientUnreachable:
		g.logger.Warn("message not delivered, recipient unreachable",
			"conversation_id", conversationID,
			"error", err,
		)
	default:
		g.logger.Error("message send failed",
			"conversation_id", conversationID,
			"result", result.String(),
			"error", err,
		)
	}
}
