// Package rest exposes accounts and tasks over JSON/HTTP.
//
// Responses always use the httpx envelope. Routes under /api/tasks and
// /api/auth/profile sit behind RequireAuth; everything else is public.
package rest
