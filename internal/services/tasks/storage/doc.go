// Package storage defines the persistence contracts for accounts and tasks.
//
// Backends live in subpackages. Every task operation takes the owner's id and
// must treat a task owned by another user as absent.
package storage
