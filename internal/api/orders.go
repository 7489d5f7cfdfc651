// ABOUTME: Read-only order endpoints for operators
// ABOUTME: Lists recent wa_orders rows and fetches one by id

package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Luk-bit/Facil-assim-food/internal/store"
)

const (
	defaultOrderLimit = 20
	maxOrderLimit     = 100
)

// OrderStore is the slice of the store the API reads.
type OrderStore interface {
	Ping(ctx context.Context) error
	GetOrder(ctx context.Context, id int64) (*store.Order, error)
	ListOrders(ctx context.Context, limit int) ([]*store.Order, error)
}

// OrderResponse is the JSON form of one order. Money fields are strings
// with two decimals.
type OrderResponse struct {
	ID              int64     `json:"id"`
	EstablishmentID int64     `json:"estab_id"`
	ClientName      string    `json:"client_name"`
	Address         string    `json:"address"`
	Items           string    `json:"items"`
	Total           string    `json:"total"`
	PaymentMethod   string    `json:"payment_method"`
	CashReceived    *string   `json:"cash_received"`
	Change          string    `json:"change"`
	Obs             string    `json:"obs"`
	Status          string    `json:"status"`
	CreatedAt       time.Time `json:"created_at"`
	PhoneNumber     string    `json:"phone_number"`
	Kind            string    `json:"tipo"`
}

func toOrderResponse(o *store.Order) OrderResponse {
	resp := OrderResponse{
		ID:              o.ID,
		EstablishmentID: o.EstablishmentID,
		ClientName:      o.ClientName,
		Address:         o.Address,
		Items:           o.Items,
		Total:           o.Total.StringFixed(2),
		PaymentMethod:   o.PaymentMethod,
		Change:          o.Change.StringFixed(2),
		Obs:             o.Obs,
		Status:          o.Status,
		CreatedAt:       o.CreatedAt,
		PhoneNumber:     o.PhoneNumber,
		Kind:            o.Kind,
	}
	if o.CashReceived != nil {
		cash := o.CashReceived.StringFixed(2)
		resp.CashReceived = &cash
	}
	return resp
}

// handleListOrders returns the most recent orders, newest first.
// ?limit= defaults to 20 and is capped at 100.
func (s *Server) handleListOrders(w http.ResponseWriter, r *http.Request) {
	limit := defaultOrderLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			s.sendJSONError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxOrderLimit)
	}

	orders, err := s.opts.Orders.ListOrders(r.Context(), limit)
	if err != nil {
		s.logger.Error("failed to list orders", "error", err)
		s.sendJSONError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	resp := make([]OrderResponse, 0, len(orders))
	for _, o := range orders {
		resp = append(resp, toOrderResponse(o))
	}
	s.sendJSON(w, http.StatusOK, resp)
}

// handleGetOrder returns one order by id.
func (s *Server) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		s.sendJSONError(w, http.StatusBadRequest, "invalid order id")
		return
	}

	o, err := s.opts.Orders.GetOrder(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		s.sendJSONError(w, http.StatusNotFound, "order not found")
		return
	}
	if err != nil {
		s.logger.Error("failed to get order", "order_id", id, "error", err)
		s.sendJSONError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	s.sendJSON(w, http.StatusOK, toOrderResponse(o))
}
