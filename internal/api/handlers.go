// ABOUTME: HTTP handlers for the administrative API: health probes and send-message
// ABOUTME: Pushes operator messages through the same outbound gateway the bot replies with

package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Luk-bit/Facil-assim-food/internal/auth"
	"github.com/Luk-bit/Facil-assim-food/internal/outbound"
)

const (
	// maxBodyBytes bounds the send-message request body.
	maxBodyBytes = 64 << 10
	pingTimeout  = 2 * time.Second
)

// SendMessageRequest is the JSON request body for POST /send-message.
type SendMessageRequest struct {
	To      string `json:"to"`
	Message string `json:"message"`
}

// SendMessageResponse is the JSON response for a processed send.
type SendMessageResponse struct {
	Status string `json:"status"`
	Reason string `json:"reason,omitempty"`
}

const (
	statusSent         = "sent"
	statusNotDelivered = "not_delivered"
)

// handleHealth returns 200 OK if the server is alive.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// handleReady returns 200 OK once a messaging transport is attached and
// the database answers.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if !s.outbound.Ready() {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("messaging transport not ready"))
		return
	}
	if s.opts.Orders != nil {
		ctx, cancel := context.WithTimeout(r.Context(), pingTimeout)
		defer cancel()
		if err := s.opts.Orders.Ping(ctx); err != nil {
			s.logger.Warn("readiness check: database unreachable", "error", err)
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("database unavailable"))
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

// handleSendMessage delivers an arbitrary message to a room or contact.
//
// An unreachable recipient is not a server failure: it is reported with
// 200 and status "not_delivered" so callers can tell it apart from a
// transport outage (500) or a bot that has not finished starting (503).
func (s *Server) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	req, err := parseSendRequest(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		s.sendJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	if !s.outbound.Ready() {
		s.sendJSONError(w, http.StatusServiceUnavailable, "messaging transport not ready")
		return
	}

	caller := "anonymous"
	if c := auth.CallerFrom(r.Context()); c != nil {
		caller = c.Name
	}
	s.logger.Info("admin send requested", "to", req.To, "caller", caller)

	switch s.outbound.Deliver(r.Context(), req.To, req.Message) {
	case outbound.Delivered:
		s.sendJSON(w, http.StatusOK, SendMessageResponse{Status: statusSent})
	case outbound.RecipientUnreachable:
		s.sendJSON(w, http.StatusOK, SendMessageResponse{
			Status: statusNotDelivered,
			Reason: "recipient unreachable",
		})
	default:
		s.sendJSONError(w, http.StatusInternalServerError, "failed to send message")
	}
}

// parseSendRequest parses and validates a SendMessageRequest from the given reader.
func parseSendRequest(r io.Reader) (*SendMessageRequest, error) {
	var req SendMessageRequest
	if err := json.NewDecoder(r).Decode(&req); err != nil {
		return nil, errors.New("invalid JSON body")
	}

	req.To = strings.TrimSpace(req.To)
	if req.To == "" {
		return nil, errors.New("to is required")
	}
	if strings.TrimSpace(req.Message) == "" {
		return nil, errors.New("message is required")
	}

	return &req, nil
}

func (s *Server) sendJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Error("failed to encode response", "error", err)
	}
}

// sendJSONError writes a JSON error response.
func (s *Server) sendJSONError(w http.ResponseWriter, status int, message string) {
	s.sendJSON(w, status, map[string]string{"error": message})
}
