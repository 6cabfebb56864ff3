// Package service holds the account and task use cases.
//
// Every failure returned here is either an *errors.Error with a code from
// the platform error package or an unexpected error that transports report
// as internal. Transports map codes to status; they never inspect messages.
package service
