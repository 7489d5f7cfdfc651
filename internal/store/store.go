// ABOUTME: Store interface and data types for menu, establishment and order persistence
// ABOUTME: Defines MenuItem, Establishment, Order and the Store interface over the restaurant database

package store

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested entity does not exist
var ErrNotFound = errors.New("not found")

// MenuItem is an orderable catalog entry
type MenuItem struct {
	ID    string // as presented to the customer
	Name  string
	Price decimal.Decimal
}

// Establishment is the restaurant a bot identity belongs to
type Establishment struct {
	ID      int64
	Name    string
	Phone   string
	Address string
}

// Order is one row of the wa_orders table
type Order struct {
	ID              int64
	EstablishmentID int64
	ClientName      string
	Address         string
	Items           string
	Total           decimal.Decimal
	PaymentMethod   string
	CashReceived    *decimal.Decimal // nil for non-cash payments
	Change          decimal.Decimal
	Obs             string
	Status          string
	CreatedAt       time.Time
	PhoneNumber     string
	Kind            string // "pickup" or "delivery"
}

// Store defines the persistence operations the bot relies on
type Store interface {
	// Menu
	ListMenuItems(ctx context.Context) ([]MenuItem, error)

	// Establishments
	GetEstablishment(ctx context.Context, id int64) (*Establishment, error)
	GetEstablishmentByPhone(ctx context.Context, phone string) (*Establishment, error)

	// Orders
	InsertOrder(ctx context.Context, order *Order) (int64, error)
	GetOrder(ctx context.Context, id int64) (*Order, error)
	ListOrders(ctx context.Context, limit int) ([]*Order, error)

	// Ping verifies the database is reachable
	Ping(ctx context.Context) error

	// Close releases any resources held by the store
	Close() error
}
