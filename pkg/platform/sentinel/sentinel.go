// Package sentinel holds the storage-level facts that services translate into
// domain errors. Input validation uses pkg/domain-errors instead.
package sentinel

import "errors"

var (
	// ErrNotFound covers missing rows and handshake tokens that are unknown
	// or already consumed.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a handshake token is issued twice.
	ErrConflict = errors.New("conflict")
	// ErrExpired marks a handshake or session token past its TTL.
	ErrExpired = errors.New("expired")
)
