// ABOUTME: Conversation state machine for the ordering flow
// ABOUTME: Applies one inbound message to a session and returns replies and an optional order handoff

package bot

import (
	"context"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Luk-bit/Facil-assim-food/internal/catalog"
	"github.com/Luk-bit/Facil-assim-food/internal/order"
	"github.com/Luk-bit/Facil-assim-food/internal/session"
	"github.com/Luk-bit/Facil-assim-food/internal/store"
)

// MenuReader lists the current menu.
type MenuReader interface {
	List(ctx context.Context) ([]store.MenuItem, error)
}

// AddressReader looks up an establishment's street address.
type AddressReader interface {
	Address(ctx context.Context, establishmentID int64) (string, bool, error)
}

// Pricing holds the establishment-wide values the conversation needs.
type Pricing struct {
	EstablishmentID int64
	DeliveryFee     decimal.Decimal
	Currency        string
}

// Outcome is the result of one Step.
type Outcome struct {
	// Replies are sent to the customer in order.
	Replies []string
	// Finalize is set exactly once per order, on the transition to StateCompleted.
	Finalize *order.Draft
}

// Machine drives a session through the ordering states.
// It holds no per-conversation state; everything lives in the Session.
type Machine struct {
	menu      MenuReader
	addresses AddressReader
	pricing   Pricing
	logger    *slog.Logger
}

// NewMachine creates a Machine.
func NewMachine(menu MenuReader, addresses AddressReader, pricing Pricing, logger *slog.Logger) *Machine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Machine{
		menu:      menu,
		addresses: addresses,
		pricing:   pricing,
		logger:    logger.With("component", "machine"),
	}
}

// Step applies text to s. The caller must hold s exclusively.
//
// Invalid input produces exactly one re-prompt and leaves s untouched.
// Store failures produce one apology and also leave s untouched.
func (m *Machine) Step(ctx context.Context, s *session.Session, text string) Outcome {
	text = strings.TrimSpace(text)
	lower := strings.ToLower(text)

	switch s.State {
	case order.StateStart:
		s.State = order.StateAwaitName
		return reply(promptName)

	case order.StateAwaitName:
		if text == "" {
			return m.reprompt(s, repromptName)
		}
		s.Draft.ClientName = text
		s.Completed = false
		s.State = order.StateAwaitOrderType
		return reply(promptOrderType)

	case order.StateAwaitOrderType:
		return m.chooseOrderType(ctx, s, lower)

	case order.StateAwaitAddress:
		if text == "" {
			return m.reprompt(s, repromptAddress)
		}
		items, err := m.menu.List(ctx)
		if err != nil {
			return m.storeFault(s, "menu", err)
		}
		s.Draft.Address = text
		s.State = order.StateAwaitItems
		return reply(menuMessage(items, m.pricing.Currency))

	case order.StateAwaitItems:
		return m.selectItems(ctx, s, lower)

	case order.StateAwaitObservation:
		obs := text
		if lower == noNoteKeyword {
			obs = ""
		}
		s.Draft.Obs = &obs
		s.State = order.StateAwaitPaymentMethod
		return reply(promptPayment)

	case order.StateAwaitPaymentMethod:
		return m.choosePayment(s, lower)

	case order.StateAwaitCashAmount:
		amount, err := order.ParseAmount(text)
		if err != nil {
			return m.reprompt(s, repromptCash)
		}
		change := amount.Sub(s.Draft.Total)
		if change.IsNegative() {
			m.logger.Warn("cash tendered below total",
				"session_id", s.ID,
				"total", s.Draft.Total.StringFixed(2),
				"cash_received", amount.StringFixed(2),
			)
		}
		s.Draft.CashReceived = &amount
		s.Draft.Change = &change
		return m.complete(s)

	case order.StateCompleted:
		// The flag outlives the reset so idling before a new name stays silent
		s.Reset()
		s.Completed = true
		return reply(msgAlreadyPlaced)

	default:
		m.logger.Error("session in unknown state, restarting", "session_id", s.ID, "state", s.State.String())
		s.Reset()
		s.State = order.StateAwaitName
		return reply(promptName)
	}
}

func (m *Machine) chooseOrderType(ctx context.Context, s *session.Session, lower string) Outcome {
	switch {
	case strings.Contains(lower, "1"):
		// Both reads happen before any mutation so a failure leaves the step in place
		address, ok, err := m.addresses.Address(ctx, m.pricing.EstablishmentID)
		if err != nil {
			return m.storeFault(s, "establishment", err)
		}
		if !ok {
			address = addressUnavailable
		}
		items, err := m.menu.List(ctx)
		if err != nil {
			return m.storeFault(s, "menu", err)
		}
		s.Draft.Kind = order.KindPickup
		s.State = order.StateAwaitItems
		return reply(pickupMessage(address), menuMessage(items, m.pricing.Currency))

	case strings.Contains(lower, "2"):
		s.Draft.Kind = order.KindDelivery
		s.State = order.StateAwaitAddress
		return reply(promptAddress)

	default:
		return m.reprompt(s, repromptOrderType)
	}
}

func (m *Machine) selectItems(ctx context.Context, s *session.Session, lower string) Outcome {
	items, err := m.menu.List(ctx)
	if err != nil {
		return m.storeFault(s, "menu", err)
	}
	idx := catalog.Index(items)

	var lines []order.Line
	total := decimal.Zero
	for _, token := range strings.Split(lower, ",") {
		item, ok := idx[strings.TrimSpace(token)]
		if !ok {
			continue
		}
		lines = append(lines, order.Line{ID: item.ID, Name: item.Name, Price: item.Price})
		total = total.Add(item.Price)
	}
	if len(lines) == 0 {
		return m.reprompt(s, repromptItems)
	}

	if s.Draft.Kind == order.KindDelivery {
		total = total.Add(m.pricing.DeliveryFee)
	}

	s.Draft.Lines = lines
	s.Draft.Items = itemsText(lines, m.pricing.Currency)
	s.Draft.Total = total
	s.State = order.StateAwaitObservation
	return reply(summaryMessage(s.Draft, m.pricing.DeliveryFee, m.pricing.Currency))
}

func (m *Machine) choosePayment(s *session.Session, lower string) Outcome {
	switch {
	case strings.Contains(lower, "1"):
		s.Draft.Payment = order.PaymentCash
		s.State = order.StateAwaitCashAmount
		return reply(promptCash)
	case strings.Contains(lower, "2"):
		s.Draft.Payment = order.PaymentCard
	case strings.Contains(lower, "3"):
		s.Draft.Payment = order.PaymentInstantTransfer
	default:
		return m.reprompt(s, repromptPayment)
	}

	s.Draft.CashReceived = nil
	s.Draft.Change = nil
	return m.complete(s)
}

// complete moves s to StateCompleted and hands a copy of the draft off.
// The confirmation text is sent by the Finalizer, not here.
func (m *Machine) complete(s *session.Session) Outcome {
	s.State = order.StateCompleted
	s.Completed = true
	d := s.Draft.Clone()
	return Outcome{Finalize: &d}
}

func (m *Machine) reprompt(s *session.Session, text string) Outcome {
	m.logger.Debug("input rejected", "session_id", s.ID, "state", s.State.String())
	return reply(text)
}

func (m *Machine) storeFault(s *session.Session, what string, err error) Outcome {
	m.logger.Error("store read failed",
		"session_id", s.ID,
		"state", s.State.String(),
		"read", what,
		"error", err,
	)
	return reply(msgTemporaryFault)
}

func reply(texts ...string) Outcome {
	return Outcome{Replies: texts}
}
