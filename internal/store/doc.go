// Package store provides durable snapshot storage for the record ledger.
//
// Two backends implement ledger.Store:
//   - SQLiteStore: one row per record in a local SQLite file
//   - BadgerStore: one JSON snapshot value in an embedded BadgerDB
//
// Both replace the whole snapshot on Save, inside a single transaction, so a
// reader never sees a half-written collection. Load returns records in the
// order they were saved.
//
// # Database Configuration (SQLite)
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// The snapshot codec in snapshot.go is shared by the Badger backend and by
// file export.
package store
