// ABOUTME: Order finalizer: confirms the order to the customer and persists it
// ABOUTME: Notification and persistence are independent; neither failure reaches the caller

package bot

import (
	"context"
	"log/slog"
	"time"

	"github.com/Luk-bit/Facil-assim-food/internal/order"
	"github.com/Luk-bit/Facil-assim-food/internal/outbound"
	"github.com/Luk-bit/Facil-assim-food/internal/store"
)

// Notifier delivers a text and reports the tagged outcome. Failures are
// logged by the implementation.
type Notifier interface {
	Deliver(ctx context.Context, conversationID, text string) outbound.Result
}

// OrderWriter persists finalized orders.
type OrderWriter interface {
	InsertOrder(ctx context.Context, o *store.Order) (int64, error)
}

// Handoff is a finalized draft together with who placed it.
type Handoff struct {
	ConversationID string
	Contact        string
	Draft          order.Draft
}

// Finalizer commits finished orders.
type Finalizer struct {
	notifier Notifier
	orders   OrderWriter
	pricing  Pricing
	now      func() time.Time
	logger   *slog.Logger
}

// NewFinalizer creates a Finalizer.
func NewFinalizer(notifier Notifier, orders OrderWriter, pricing Pricing, logger *slog.Logger) *Finalizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Finalizer{
		notifier: notifier,
		orders:   orders,
		pricing:  pricing,
		now:      time.Now,
		logger:   logger.With("component", "finalizer"),
	}
}

// Finalize sends the confirmation and then inserts the order, regardless of
// whether the confirmation was delivered. It returns the new order id, or 0
// when the insert failed.
func (f *Finalizer) Finalize(ctx context.Context, h Handoff) int64 {
	result := f.notifier.Deliver(ctx, h.ConversationID,
		confirmationMessage(h.Draft, f.pricing.DeliveryFee, f.pricing.Currency))

	rec := f.record(h)
	id, err := f.orders.InsertOrder(ctx, rec)
	if err != nil {
		f.logger.Error("failed to save order",
			"conversation_id", h.ConversationID,
			"client_name", rec.ClientName,
			"total", rec.Total.StringFixed(2),
			"error", err,
		)
		return 0
	}

	f.logger.Info("order saved",
		"order_id", id,
		"conversation_id", h.ConversationID,
		"estab_id", rec.EstablishmentID,
		"total", rec.Total.StringFixed(2),
		"confirmation", result.String(),
	)
	return id
}

func (f *Finalizer) record(h Handoff) *store.Order {
	d := h.Draft

	rec := &store.Order{
		EstablishmentID: f.pricing.EstablishmentID,
		ClientName:      d.ClientName,
		Address:         d.Address,
		Items:           d.Items,
		Total:           d.Total,
		PaymentMethod:   string(d.Payment),
		Obs:             d.Note(),
		Status:          order.StatusPending,
		CreatedAt:       f.now(),
		PhoneNumber:     h.Contact,
		Kind:            string(d.Kind),
	}
	if d.CashReceived != nil {
		v := *d.CashReceived
		rec.CashReceived = &v
	}
	if d.Change != nil {
		rec.Change = *d.Change
	}
	if rec.Obs == "" {
		rec.Obs = order.ObsNone
	}
	if rec.Kind == "" {
		rec.Kind = string(order.KindDelivery)
	}
	return rec
}
