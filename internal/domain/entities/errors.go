package entities

import "errors"

// Domain errors
var (
	// User errors
	ErrUserNotFound = errors.New("user not found")
	ErrInvalidEmail = errors.New("invalid email")
	ErrInvalidName  = errors.New("invalid name")
	ErrInvalidRole  = errors.New("invalid role")

	// OAuth errors
	ErrOAuthStateMismatch = errors.New("oauth state mismatch")
	ErrNoGoogleToken      = errors.New("user has no google token")

	// Session errors
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionExpired  = errors.New("session expired")
	ErrInvalidToken    = errors.New("invalid token")

	// Contact errors
	ErrContactNotFound      = errors.New("contact not found")
	ErrEmailAddressNotFound = errors.New("email address not found")
	ErrInvalidContactStatus = errors.New("invalid contact status")

	// Interaction errors
	ErrInteractionNotFound = errors.New("interaction not found")
	ErrInvalidTitle        = errors.New("interaction title must be between 1 and 100 characters")
	ErrNoContacts          = errors.New("interaction needs at least one contact")

	// Analysis errors
	ErrAnalysisNotFound    = errors.New("analysis not found")
	ErrAnalysisJobNotFound = errors.New("analysis job not found")

	// Generic errors
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
)
