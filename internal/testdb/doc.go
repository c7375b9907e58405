// Package testdb provides helpers for tests that need a real PostgreSQL
// database: connecting, applying the embedded migrations, and isolating each
// test inside a rolled-back transaction.
package testdb
