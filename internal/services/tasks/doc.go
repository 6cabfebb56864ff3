// Package tasks is the personal task tracker: accounts, bearer-token
// authentication, and per-user task lists behind a JSON API.
//
// Every task read or write is scoped by its owner, and a task owned by
// someone else is reported exactly like a task that does not exist.
//
// Subpackages:
//   - app: server wiring and lifecycle
//   - api/rest: HTTP routes, auth gate, and response envelopes
//   - service: account and task use cases returning domain error codes
//   - storage: persistence interfaces with SQLite and PostgreSQL backends
//   - user, task: input normalization and validation
//   - password, token: bcrypt hashing and JWT issuance/verification
//   - web: embedded browser client
package tasks
