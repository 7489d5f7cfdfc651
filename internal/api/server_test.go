// ABOUTME: Tests for the administrative API handlers and server lifecycle
// ABOUTME: Drives the chi router with httptest against a recorded outbound gateway

package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Luk-bit/Facil-assim-food/internal/auth"
	"github.com/Luk-bit/Facil-assim-food/internal/outbound"
)

func silentLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type harness struct {
	gateway  *outbound.Gateway
	recorder *outbound.Recorder
	server   *Server
}

func newHarness(t *testing.T, verifier auth.TokenVerifier, attach bool) *harness {
	t.Helper()
	h := &harness{
		gateway:  outbound.NewGateway(silentLogger()),
		recorder: outbound.NewRecorder(),
	}
	if attach {
		h.gateway.Attach(h.recorder)
	}
	h.server = NewServer(Options{Addr: "127.0.0.1:0", Verifier: verifier}, h.gateway, silentLogger())
	return h
}

func (h *harness) do(method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.server.Routes().ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var out map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestHealth(t *testing.T) {
	h := newHarness(t, nil, false)
	rec := h.do(http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}

func TestReady(t *testing.T) {
	h := newHarness(t, nil, false)
	rec := h.do(http.MethodGet, "/health/ready", "", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	h.gateway.Attach(h.recorder)
	rec = h.do(http.MethodGet, "/health/ready", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSendMessage_Delivered(t *testing.T) {
	h := newHarness(t, nil, true)

	rec := h.do(http.MethodPost, "/send-message", `{"to":"5511988887777","message":"Your order is on the way"}`, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, map[string]string{"status": "sent"}, decode(t, rec))
	assert.Equal(t, []string{"Your order is on the way"}, h.recorder.TextsTo("5511988887777"))
}

func TestSendMessage_RecipientUnreachable(t *testing.T) {
	h := newHarness(t, nil, true)
	h.recorder.Fail("5500000000000", outbound.RecipientUnreachable, errors.New("not a contact"))

	rec := h.do(http.MethodPost, "/send-message", `{"to":"5500000000000","message":"hi"}`, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]string{
		"status": "not_delivered",
		"reason": "recipient unreachable",
	}, decode(t, rec))
}

func TestSendMessage_TransportError(t *testing.T) {
	h := newHarness(t, nil, true)
	h.recorder.Fail("!room:example.org", outbound.TransportError, errors.New("connection reset"))

	rec := h.do(http.MethodPost, "/send-message", `{"to":"!room:example.org","message":"hi"}`, "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "failed to send message", decode(t, rec)["error"])
}

func TestSendMessage_NotReady(t *testing.T) {
	h := newHarness(t, nil, false)

	rec := h.do(http.MethodPost, "/send-message", `{"to":"5511988887777","message":"hi"}`, "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "messaging transport not ready", decode(t, rec)["error"])
	assert.Empty(t, h.recorder.Messages())
}

func TestSendMessage_BadRequests(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"invalid json", `{"to":`, "invalid JSON body"},
		{"missing to", `{"message":"hi"}`, "to is required"},
		{"blank to", `{"to":"  ","message":"hi"}`, "to is required"},
		{"missing message", `{"to":"5511988887777"}`, "message is required"},
		{"blank message", `{"to":"5511988887777","message":"   "}`, "message is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, nil, true)
			rec := h.do(http.MethodPost, "/send-message", tt.body, "")
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, tt.want, decode(t, rec)["error"])
			assert.Empty(t, h.recorder.Messages())
		})
	}
}

func TestSendMessage_MethodNotAllowed(t *testing.T) {
	h := newHarness(t, nil, true)
	rec := h.do(http.MethodGet, "/send-message", "", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestSendMessage_RequiresBearerWhenConfigured(t *testing.T) {
	verifier, err := auth.NewJWTVerifier([]byte(strings.Repeat("k", auth.MinSecretLength)))
	require.NoError(t, err)
	token, err := verifier.Generate("ops", time.Hour)
	require.NoError(t, err)

	h := newHarness(t, verifier, true)
	body := `{"to":"5511988887777","message":"hi"}`

	rec := h.do(http.MethodPost, "/send-message", body, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = h.do(http.MethodPost, "/send-message", body, "not-a-jwt")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = h.do(http.MethodPost, "/send-message", body, token)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, h.recorder.Messages(), 1)

	// Health stays open
	rec = h.do(http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestServer_StartAndShutdown(t *testing.T) {
	h := newHarness(t, nil, true)
	require.NoError(t, h.server.Start(context.Background()))
	require.NotNil(t, h.server.Addr())

	resp, err := http.Get(fmt.Sprintf("http://%s/health", h.server.Addr().String()))
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, h.server.Shutdown(ctx))

	select {
	case err := <-h.server.Errors():
		t.Fatalf("unexpected server error: %v", err)
	default:
	}
}

func TestServer_StartFailsOnBadAddr(t *testing.T) {
	s := NewServer(Options{Addr: "256.0.0.1:bad"}, outbound.NewGateway(nil), silentLogger())
	assert.Error(t, s.Start(context.Background()))
	assert.Nil(t, s.Addr())
}

func TestResolveTailscaleAuthKey(t *testing.T) {
	t.Setenv("TS_AUTHKEY", "")
	_, err := resolveTailscaleAuthKey("")
	assert.Error(t, err)

	key, err := resolveTailscaleAuthKey("tskey-config")
	require.NoError(t, err)
	assert.Equal(t, "tskey-config", key)

	t.Setenv("TS_AUTHKEY", "tskey-env")
	key, err = resolveTailscaleAuthKey("")
	require.NoError(t, err)
	assert.Equal(t, "tskey-env", key)
}

func TestResolveTailscaleStateDir(t *testing.T) {
	dir, err := resolveTailscaleStateDir("/var/lib/facil/ts")
	require.NoError(t, err)
	assert.Equal(t, "/var/lib/facil/ts", dir)

	t.Setenv("XDG_DATA_HOME", "/data")
	dir, err = resolveTailscaleStateDir("")
	require.NoError(t, err)
	assert.Equal(t, "/data/facil/tailscale", dir)
}
