// Package store provides persistent storage for the ordering bot using SQLite.
//
// # Tables
//
// The database is shared with the restaurant's point-of-sale app:
//
//   - menu: orderable items (id, name, price)
//   - estab: establishments (id, name, phone, address)
//   - wa_orders: orders committed by the bot
//
// The bot only reads menu and estab. It appends to wa_orders and never
// updates a row afterwards; status transitions belong to the restaurant app.
//
// # Schema
//
// Tables are created if missing, and columns added by later versions
// (tipo, phone_number) are migrated in place:
//
//	SELECT 1 FROM pragma_table_info('wa_orders') WHERE name = 'tipo'
//
// # Testing
//
// Use NewMockStore() for unit tests. It records inserted orders and can be
// told to fail menu reads or inserts.
//
// Use NewSQLiteStore(filepath.Join(t.TempDir(), "test.db")) for integration
// tests with real SQLite.
package store
