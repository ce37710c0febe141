package errors

import "errors"

// Common errors
var (
	ErrInvalidInput = errors.New("invalid input")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden access")
	ErrNotFound     = errors.New("resource not found")
)

// Auth errors
var (
	ErrOAuthDisabled   = errors.New("google login is not configured")
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionExpired  = errors.New("session expired")
	ErrUserNotActive   = errors.New("user is not active")
)

// Interaction errors
var (
	ErrNoContactsSelected = errors.New("select at least one contact")
	ErrUnknownContacts    = errors.New("one or more contacts do not exist")
)

// Analysis errors
var (
	ErrAnalysisQueueUnavailable = errors.New("analysis queue unavailable")
	ErrAnalysisExists           = errors.New("interaction already analysed")
)

// Sync errors
var (
	ErrNoGoogleAccount = errors.New("user has no connected google account")
)
