package auth

import "errors"

var (
	// ErrUnauthorized is returned when a request carries no valid token.
	ErrUnauthorized = errors.New("auth: unauthorized")
	// ErrForbidden is returned when the caller's role is too low.
	ErrForbidden = errors.New("auth: forbidden")
	// ErrTenantMismatch indicates resource belongs to a different tenant.
	ErrTenantMismatch = errors.New("auth: tenant mismatch")
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("auth: resource not found")
)

// ErrInvalidToken is returned when a bearer token fails validation.
var ErrInvalidToken = errors.New("auth: invalid token")
