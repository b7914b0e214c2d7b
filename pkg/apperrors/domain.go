package apperrors

import (
	"net/http"
)

// Domain factories. Services wrap repository sentinel errors through these so
// the HTTP layer never has to know about gorm or repository internals.

// ErrNotFound converts a repository "record not found" into a 404.
func ErrNotFound(err error, domain string) *AppError {
	return Wrap(err, CodeNotFound, domain, "Resource not found", http.StatusNotFound)
}

// ErrInvalidTargeting rejects a broadcast whose recipient filter cannot be
// resolved (empty filter for a filtered recipient type, unknown type).
func ErrInvalidTargeting(message string) *AppError {
	return New(CodeInvalidTargeting, "broadcast", message, http.StatusBadRequest)
}

// ErrDirectoryUnavailable signals that the user directory could not be
// queried. Broadcast creation absorbs this into a failed broadcast record
// rather than surfacing it to the caller mid-flight.
func ErrDirectoryUnavailable(err error) *AppError {
	return Wrap(err, CodeDirectoryUnavailable, "directory", "User directory unavailable", http.StatusServiceUnavailable)
}

// ErrInvalidStatus guards the broadcast status machine: transitions only move
// forward, terminal states never change.
func ErrInvalidStatus(domain, message string) *AppError {
	return New(CodeInvalidStatus, domain, message, http.StatusConflict)
}
