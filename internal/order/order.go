// ABOUTME: Order draft and enumerations shared by the conversation flow and persistence
// ABOUTME: A Draft is filled step by step and handed off by value at finalization

package order

import (
	"slices"

	"github.com/shopspring/decimal"
)

// Kind is how the customer receives the order.
type Kind string

const (
	KindPickup   Kind = "pickup"
	KindDelivery Kind = "delivery"
)

// PaymentMethod is how the customer pays.
type PaymentMethod string

const (
	PaymentCash            PaymentMethod = "cash"
	PaymentCard            PaymentMethod = "card"
	PaymentInstantTransfer PaymentMethod = "instant-transfer"
)

// Label returns the customer-facing name of the payment method.
func (p PaymentMethod) Label() string {
	switch p {
	case PaymentCash:
		return "Cash"
	case PaymentCard:
		return "Card"
	case PaymentInstantTransfer:
		return "PIX (instant transfer)"
	default:
		return string(p)
	}
}

// Persisted column values for fields the bot does not own.
const (
	StatusPending = "pending"
	ObsNone       = "none"
)

// Line is one selected catalog item, priced at selection time.
type Line struct {
	ID    string
	Name  string
	Price decimal.Decimal
}

// Draft is the in-progress order attached to a session.
type Draft struct {
	ClientName string
	Kind       Kind
	Address    string

	// Lines, Items and Total are set together once item selection succeeds.
	Lines []Line
	Items string
	Total decimal.Decimal

	// Obs is nil until the note step; a non-nil empty string means "no note".
	Obs *string

	Payment PaymentMethod

	// CashReceived and Change are only set for cash payments.
	CashReceived *decimal.Decimal
	Change       *decimal.Decimal
}

// Clone returns a copy that shares no mutable state with d.
func (d Draft) Clone() Draft {
	c := d
	c.Lines = slices.Clone(d.Lines)
	if d.Obs != nil {
		obs := *d.Obs
		c.Obs = &obs
	}
	if d.CashReceived != nil {
		v := *d.CashReceived
		c.CashReceived = &v
	}
	if d.Change != nil {
		v := *d.Change
		c.Change = &v
	}
	return c
}

// Note returns the customer note, or "" when none was given.
func (d Draft) Note() string {
	if d.Obs == nil {
		return ""
	}
	return *d.Obs
}
