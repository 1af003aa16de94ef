package shared

import "errors"

var (
	// ErrInvalidCredentials indicates the backend refused the sign-in.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrCSRFTokenMissing occurs when CSRF token missing.
	ErrCSRFTokenMissing = errors.New("csrf token missing")
	// ErrCSRFTokenMismatch occurs when CSRF tokens do not match.
	ErrCSRFTokenMismatch = errors.New("csrf token mismatch")
	// ErrIdempotencyConflict indicates a key was already claimed.
	ErrIdempotencyConflict = errors.New("idempotent request already processed")
)
