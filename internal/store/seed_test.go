// ABOUTME: Test-only helpers that seed the restaurant-owned menu and estab tables
// ABOUTME: The bot never writes these tables in production; the point-of-sale app does

package store

import (
	"context"
	"fmt"
)

// CreateMenuItem inserts a menu row and sets item.ID to the generated id.
func (s *SQLiteStore) CreateMenuItem(ctx context.Context, item *MenuItem) error {
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO menu (name, price) VALUES (?, ?)`,
		item.Name,
		item.Price.InexactFloat64(),
	)
	if err != nil {
		return fmt.Errorf("inserting menu item: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("getting menu item id: %w", err)
	}
	item.ID = fmt.Sprintf("%d", id)
	return nil
}

// CreateEstablishment inserts an establishment and sets e.ID to the generated id.
func (s *SQLiteStore) CreateEstablishment(ctx context.Context, e *Establishment) error {
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO estab (name, phone, address) VALUES (?, ?, ?)`,
		e.Name, e.Phone, e.Address,
	)
	if err != nil {
		return fmt.Errorf("inserting establishment: %w", err)
	}

	e.ID, err = result.LastInsertId()
	if err != nil {
		return fmt.Errorf("getting establishment id: %w", err)
	}
	return nil
}
