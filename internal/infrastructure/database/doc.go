// Package database provides SQLite connectivity for the Harvco platform.
//
// It manages the database connection (WAL mode, busy timeout, foreign
// keys), embedded schema migrations with per-migration transactions, and
// health checks. Both the API server and the ingestion service open the
// same database file; SQLite's single-writer model is handled by keeping
// the pool at one connection and relying on the busy timeout.
//
// All queries throughout the repositories use parameterised statements.
package database
