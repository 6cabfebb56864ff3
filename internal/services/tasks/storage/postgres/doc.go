// Package postgres implements task tracker persistence over PostgreSQL using
// lib/pq. It mirrors the SQLite backend statement for statement.
package postgres
