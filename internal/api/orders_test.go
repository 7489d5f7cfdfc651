// ABOUTME: Tests for the order endpoints and the database readiness check
// ABOUTME: Orders come from store.MockStore populated through InsertOrder

package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Luk-bit/Facil-assim-food/internal/auth"
	"github.com/Luk-bit/Facil-assim-food/internal/store"
)

func withOrders(t *testing.T, h *harness, orders OrderStore, verifier auth.TokenVerifier) {
	t.Helper()
	h.server = NewServer(Options{Addr: "127.0.0.1:0", Verifier: verifier, Orders: orders}, h.gateway, silentLogger())
}

func seedOrders(t *testing.T) *store.MockStore {
	t.Helper()
	st := store.NewMockStore()
	ctx := context.Background()
	cash := decimal.RequireFromString("20")

	for _, o := range []*store.Order{
		{ClientName: "Ana", Total: decimal.RequireFromString("17.5"), PaymentMethod: "cash", CashReceived: &cash, Change: decimal.RequireFromString("2.5"), Kind: "delivery"},
		{ClientName: "Bia", Total: decimal.RequireFromString("18.90"), PaymentMethod: "card", Kind: "pickup"},
		{ClientName: "Caio", Total: decimal.RequireFromString("6"), PaymentMethod: "instant-transfer", Kind: "delivery"},
	} {
		o.Status = "pending"
		o.Obs = "none"
		o.CreatedAt = time.Date(2026, 3, 14, 19, 30, 0, 0, time.UTC)
		_, err := st.InsertOrder(ctx, o)
		require.NoError(t, err)
	}
	return st
}

func TestReady_DatabaseDown(t *testing.T) {
	h := newHarness(t, nil, true)
	st := store.NewMockStore()
	withOrders(t, h, st, nil)

	rec := h.do(http.MethodGet, "/health/ready", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	st.PingErr = errors.New("database is locked")
	rec = h.do(http.MethodGet, "/health/ready", "", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "database unavailable", rec.Body.String())
}

func TestListOrders(t *testing.T) {
	h := newHarness(t, nil, true)
	withOrders(t, h, seedOrders(t), nil)

	rec := h.do(http.MethodGet, "/orders?limit=2", "", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var got []OrderResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 2)
	assert.Equal(t, "Caio", got[0].ClientName)
	assert.Equal(t, "Bia", got[1].ClientName)
	assert.Equal(t, "18.90", got[1].Total)
	assert.Nil(t, got[1].CashReceived)
	assert.Equal(t, "0.00", got[1].Change)
	assert.Equal(t, "pickup", got[1].Kind)

	rec = h.do(http.MethodGet, "/orders", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Len(t, got, 3)
}

func TestListOrders_Empty(t *testing.T) {
	h := newHarness(t, nil, true)
	withOrders(t, h, store.NewMockStore(), nil)

	rec := h.do(http.MethodGet, "/orders", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]", strings.TrimSpace(rec.Body.String()))
}

func TestListOrders_BadLimit(t *testing.T) {
	h := newHarness(t, nil, true)
	withOrders(t, h, seedOrders(t), nil)

	for _, limit := range []string{"0", "-3", "many"} {
		rec := h.do(http.MethodGet, "/orders?limit="+limit, "", "")
		assert.Equal(t, http.StatusBadRequest, rec.Code, limit)
	}
}

func TestGetOrder(t *testing.T) {
	h := newHarness(t, nil, true)
	withOrders(t, h, seedOrders(t), nil)

	rec := h.do(http.MethodGet, "/orders/1", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var got OrderResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, int64(1), got.ID)
	assert.Equal(t, "Ana", got.ClientName)
	assert.Equal(t, "17.50", got.Total)
	require.NotNil(t, got.CashReceived)
	assert.Equal(t, "20.00", *got.CashReceived)
	assert.Equal(t, "2.50", got.Change)
	assert.Equal(t, "none", got.Obs)

	rec = h.do(http.MethodGet, "/orders/99", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "order not found", decode(t, rec)["error"])

	rec = h.do(http.MethodGet, "/orders/abc", "", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestOrders_RequireBearerWhenConfigured(t *testing.T) {
	verifier, err := auth.NewJWTVerifier([]byte(strings.Repeat("k", auth.MinSecretLength)))
	require.NoError(t, err)
	token, err := verifier.Generate("ops", time.Hour)
	require.NoError(t, err)

	h := newHarness(t, nil, true)
	withOrders(t, h, seedOrders(t), verifier)

	rec := h.do(http.MethodGet, "/orders", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = h.do(http.MethodGet, "/orders/1", "", token)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestOrders_NotRoutedWithoutStore(t *testing.T) {
	h := newHarness(t, nil, true)
	rec := h.do(http.MethodGet, "/orders", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
