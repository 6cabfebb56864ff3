// Package sqlite implements task tracker persistence over a single SQLite file.
package sqlite
