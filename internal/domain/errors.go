package domain

import "errors"

var (
	// ErrUsernameTaken indicates another user already holds the username.
	ErrUsernameTaken = errors.New("username is taken")
	// ErrNotFound indicates the referenced user or session does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalidGeometry indicates a target that no launch speed can reach.
	ErrInvalidGeometry = errors.New("target unreachable at this angle and distance")
	// ErrStorage wraps failures of the underlying store.
	ErrStorage = errors.New("storage failure")

	ErrUnknownMode     = errors.New("unknown game mode")
	ErrInvalidUsername = errors.New("username must be 1-64 characters")
	ErrInvalidPassword = errors.New("password must be 1-72 bytes")
	ErrInvalidSpeed    = errors.New("speed must be a positive number")
	ErrInvalidQuestion = errors.New("no such question for this mode")
	ErrModeMismatch    = errors.New("operation not available in this game mode")
	ErrInvalidIdentity = errors.New("external identity has no issuer or subject")
)
