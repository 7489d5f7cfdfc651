// ABOUTME: SQLite implementation of the Store interface using modernc.org/sqlite
// ABOUTME: Creates menu/estab/wa_orders tables if missing and migrates older wa_orders schemas

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements the Store interface using SQLite
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteStore opens the SQLite database at the given path.
// Missing tables are created and older schemas are migrated.
// Parent directories are created if needed.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	logger := slog.Default().With("component", "store")

	if path != ":memory:" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Every pooled connection to :memory: would get its own empty database
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	// The restaurant app writes to the same file
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	s := &SQLiteStore{
		db:     db,
		logger: logger,
	}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	if err := s.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	logger.Info("SQLite store initialized", "path", path)
	return s, nil
}

// createSchema creates the database tables if they don't exist
func (s *SQLiteStore) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS menu (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			price REAL NOT NULL DEFAULT 0
		);

		CREATE TABLE IF NOT EXISTS estab (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT,
			phone TEXT,
			address TEXT
		);

		CREATE INDEX IF NOT EXISTS idx_estab_phone ON estab(phone);

		CREATE TABLE IF NOT EXISTS wa_orders (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			estab_id INTEGER,
			client_name TEXT,
			address TEXT,
			items TEXT,
			total REAL,
			payment_method TEXT,
			cash_received REAL,
			change REAL,
			obs TEXT DEFAULT 'none',
			status TEXT DEFAULT 'pending',
			created_at TEXT,
			phone_number TEXT,
			tipo TEXT DEFAULT 'delivery'
		);

		CREATE INDEX IF NOT EXISTS idx_wa_orders_estab ON wa_orders(estab_id, created_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

// runMigrations adds columns that older wa_orders tables lack.
// These are idempotent - safe to run multiple times.
func (s *SQLiteStore) runMigrations() error {
	// SQLite doesn't support ADD COLUMN IF NOT EXISTS, so we check first
	migrations := []struct {
		check  string
		apply  string
		column string
	}{
		{
			check:  `SELECT 1 FROM pragma_table_info('wa_orders') WHERE name = 'tipo'`,
			apply:  `ALTER TABLE wa_orders ADD COLUMN tipo TEXT DEFAULT 'delivery'`,
			column: "tipo",
		},
		{
			check:  `SELECT 1 FROM pragma_table_info('wa_orders') WHERE name = 'phone_number'`,
			apply:  `ALTER TABLE wa_orders ADD COLUMN phone_number TEXT`,
			column: "phone_number",
		},
	}

	for _, m := range migrations {
		var exists int
		err := s.db.QueryRow(m.check).Scan(&exists)
		if err == nil {
			continue
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("checking %s column: %w", m.column, err)
		}
		if _, err := s.db.Exec(m.apply); err != nil {
			return fmt.Errorf("adding %s column to wa_orders: %w", m.column, err)
		}
		s.logger.Info("applied migration", "column", m.column, "table", "wa_orders")
	}

	return nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	s.logger.Info("closing SQLite store")
	return s.db.Close()
}

// Ping verifies the database is reachable.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// ListMenuItems returns every menu row ordered by id.
// It always reads the table so price edits made by the restaurant show up immediately.
func (s *SQLiteStore) ListMenuItems(ctx context.Context) ([]MenuItem, error) {
	query := `
		SELECT CAST(id AS TEXT), name, COALESCE(price, 0)
		FROM menu
		ORDER BY id
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying menu: %w", err)
	}
	defer rows.Close()

	var items []MenuItem
	for rows.Next() {
		var item MenuItem
		if err := rows.Scan(&item.ID, &item.Name, &item.Price); err != nil {
			return nil, fmt.Errorf("scanning menu item: %w", err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating menu: %w", err)
	}

	return items, nil
}

// GetEstablishment retrieves an establishment by ID.
// Returns ErrNotFound if it doesn't exist.
func (s *SQLiteStore) GetEstablishment(ctx context.Context, id int64) (*Establishment, error) {
	query := `
		SELECT id, COALESCE(name, ''), COALESCE(phone, ''), COALESCE(address, '')
		FROM estab
		WHERE id = ?
	`
	return s.scanEstablishment(s.db.QueryRowContext(ctx, query, id))
}

// GetEstablishmentByPhone retrieves the establishment bound to a bot phone identity.
// Returns ErrNotFound if no establishment has that phone.
func (s *SQLiteStore) GetEstablishmentByPhone(ctx context.Context, phone string) (*Establishment, error) {
	query := `
		SELECT id, COALESCE(name, ''), COALESCE(phone, ''), COALESCE(address, '')
		FROM estab
		WHERE phone = ?
		ORDER BY id
		LIMIT 1
	`
	return s.scanEstablishment(s.db.QueryRowContext(ctx, query, phone))
}

func (s *SQLiteStore) scanEstablishment(row *sql.Row) (*Establishment, error) {
	var e Establishment
	err := row.Scan(&e.ID, &e.Name, &e.Phone, &e.Address)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying establishment: %w", err)
	}
	return &e, nil
}

// InsertOrder appends an order row and returns its generated id.
func (s *SQLiteStore) InsertOrder(ctx context.Context, order *Order) (int64, error) {
	query := `
		INSERT INTO wa_orders (
			estab_id, client_name, address, items, total, payment_method,
			cash_received, change, obs, status, created_at, phone_number, tipo
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	var cashReceived any
	if order.CashReceived != nil {
		cashReceived = order.CashReceived.InexactFloat64()
	}

	result, err := s.db.ExecContext(ctx, query,
		order.EstablishmentID,
		order.ClientName,
		nullIfEmpty(order.Address),
		order.Items,
		order.Total.InexactFloat64(),
		order.PaymentMethod,
		cashReceived,
		order.Change.InexactFloat64(),
		order.Obs,
		order.Status,
		order.CreatedAt.UTC().Format(time.RFC3339),
		order.PhoneNumber,
		order.Kind,
	)
	if err != nil {
		return 0, fmt.Errorf("inserting order: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("getting order id: %w", err)
	}
	order.ID = id

	s.logger.Debug("inserted order", "id", id, "estab_id", order.EstablishmentID)
	return id, nil
}

const orderColumns = `
	id, COALESCE(estab_id, 0), COALESCE(client_name, ''), address, COALESCE(items, ''),
	COALESCE(total, 0), COALESCE(payment_method, ''), cash_received, COALESCE(change, 0),
	COALESCE(obs, 'none'), COALESCE(status, 'pending'), COALESCE(created_at, ''),
	COALESCE(phone_number, ''), COALESCE(tipo, 'delivery')
`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (*Order, error) {
	var o Order
	var address sql.NullString
	var cash decimal.NullDecimal
	var createdAtStr string

	err := row.Scan(
		&o.ID,
		&o.EstablishmentID,
		&o.ClientName,
		&address,
		&o.Items,
		&o.Total,
		&o.PaymentMethod,
		&cash,
		&o.Change,
		&o.Obs,
		&o.Status,
		&createdAtStr,
		&o.PhoneNumber,
		&o.Kind,
	)
	if err != nil {
		return nil, err
	}

	o.Address = address.String
	if cash.Valid {
		v := cash.Decimal
		o.CashReceived = &v
	}
	if createdAtStr != "" {
		o.CreatedAt, err = time.Parse(time.RFC3339, createdAtStr)
		if err != nil {
			return nil, fmt.Errorf("parsing created_at: %w", err)
		}
	}

	return &o, nil
}

// GetOrder retrieves an order by ID.
// Returns ErrNotFound if the order doesn't exist.
func (s *SQLiteStore) GetOrder(ctx context.Context, id int64) (*Order, error) {
	query := `SELECT ` + orderColumns + ` FROM wa_orders WHERE id = ?`

	o, err := scanOrder(s.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying order: %w", err)
	}
	return o, nil
}

// ListOrders returns the most recent orders, newest first.
func (s *SQLiteStore) ListOrders(ctx context.Context, limit int) ([]*Order, error) {
	if limit <= 0 {
		limit = 100
	}

	query := `SELECT ` + orderColumns + ` FROM wa_orders ORDER BY id DESC LIMIT ?`

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("querying orders: %w", err)
	}
	defer rows.Close()

	var orders []*Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning order: %w", err)
		}
		orders = append(orders, o)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating orders: %w", err)
	}

	return orders, nil
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
