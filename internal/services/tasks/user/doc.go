// Package user normalizes and validates account input before it reaches the
// credential store.
//
// Usernames are compared after NFC normalization so visually identical names
// cannot register twice; emails are lower-cased so login is case-insensitive.
package user
