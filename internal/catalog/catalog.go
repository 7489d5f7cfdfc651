// ABOUTME: Menu catalog reader backed by the store
// ABOUTME: Reads the menu table on every call so restaurant-side edits are visible immediately

package catalog

import (
	"context"
	"fmt"

	"github.com/Luk-bit/Facil-assim-food/internal/store"
)

// MenuStore is the subset of store.Store the catalog needs.
type MenuStore interface {
	ListMenuItems(ctx context.Context) ([]store.MenuItem, error)
}

// Catalog lists orderable items.
type Catalog struct {
	store MenuStore
}

// New creates a Catalog over the given store.
func New(s MenuStore) *Catalog {
	return &Catalog{store: s}
}

// List returns the current menu, ordered as the store orders it.
func (c *Catalog) List(ctx context.Context) ([]store.MenuItem, error) {
	items, err := c.store.ListMenuItems(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing menu: %w", err)
	}
	return items, nil
}

// Index maps item ids to items for selection lookups.
func Index(items []store.MenuItem) map[string]store.MenuItem {
	idx := make(map[string]store.MenuItem, len(items))
	for _, item := range items {
		idx[item.ID] = item
	}
	return idx
}
