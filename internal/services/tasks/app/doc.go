// Package server wires the task tracker runtime: storage, services, the HTTP
// API and browser client, and an optional gRPC health endpoint.
package server
