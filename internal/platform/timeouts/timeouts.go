// Package timeouts defines shared timeout constants used across services.
package timeouts

import "time"

// ReadHeader limits how long an HTTP server waits for request headers.
const ReadHeader = 5 * time.Second

// Read limits how long an HTTP server spends reading a full request.
const Read = 15 * time.Second

// Write limits how long a handler may take to write its response.
const Write = 30 * time.Second

// Idle caps keep-alive connections between requests.
const Idle = 2 * time.Minute

// Shutdown limits how long an HTTP server waits for in-flight requests
// during graceful shutdown.
const Shutdown = 5 * time.Second

// DBPing caps the startup connectivity check against the database.
const DBPing = 5 * time.Second
