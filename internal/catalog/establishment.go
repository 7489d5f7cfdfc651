// ABOUTME: Establishment resolution for the bot identity
// ABOUTME: Falls back to a configured establishment id when the identity has no record

package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Luk-bit/Facil-assim-food/internal/store"
)

// EstablishmentStore is the subset of store.Store the resolver needs.
type EstablishmentStore interface {
	GetEstablishment(ctx context.Context, id int64) (*store.Establishment, error)
	GetEstablishmentByPhone(ctx context.Context, phone string) (*store.Establishment, error)
}

// Resolver binds the bot to an establishment and reads its address.
type Resolver struct {
	store      EstablishmentStore
	fallbackID int64
	logger     *slog.Logger
}

// NewResolver creates a Resolver. fallbackID is used when no establishment
// is registered under the bot's identity.
func NewResolver(s EstablishmentStore, fallbackID int64, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		store:      s,
		fallbackID: fallbackID,
		logger:     logger.With("component", "catalog"),
	}
}

// Resolve returns the establishment id registered for identity.
// A missing record yields the fallback id; any other store failure is returned.
func (r *Resolver) Resolve(ctx context.Context, identity string) (int64, error) {
	if identity == "" {
		r.logger.Warn("bot identity unknown, using fallback establishment", "estab_id", r.fallbackID)
		return r.fallbackID, nil
	}

	e, err := r.store.GetEstablishmentByPhone(ctx, identity)
	if errors.Is(err, store.ErrNotFound) {
		r.logger.Warn("no establishment for bot identity, using fallback",
			"identity", identity,
			"estab_id", r.fallbackID,
		)
		return r.fallbackID, nil
	}
	if err != nil {
		return 0, fmt.Errorf("resolving establishment for %s: %w", identity, err)
	}

	r.logger.Info("bot bound to establishment", "identity", identity, "estab_id", e.ID)
	return e.ID, nil
}

// Address returns the street address of an establishment.
// ok is false when the establishment or its address is not registered.
func (r *Resolver) Address(ctx context.Context, id int64) (address string, ok bool, err error) {
	e, err := r.store.GetEstablishment(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("reading establishment %d: %w", id, err)
	}
	if e.Address == "" {
		return "", false, nil
	}
	return e.Address, true, nil
}
