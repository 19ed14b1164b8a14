package domain

import "errors"

// Sentinel errors for domain operations
var (
	// ErrNoActiveProfile indicates an operation needs a loaded profile and none is loaded
	ErrNoActiveProfile = errors.New("no active profile")

	// ErrProfileMismatch indicates a mutation targeted a profile other than the active one
	ErrProfileMismatch = errors.New("profile is not the active profile")

	// ErrServerOffline indicates the tracking server is unreachable
	ErrServerOffline = errors.New("tracking server is unreachable")

	// ErrAuthFailed indicates authentication failed
	ErrAuthFailed = errors.New("authentication token is invalid")

	// ErrNotFound indicates the requested profile or content does not exist
	ErrNotFound = errors.New("not found")

	// ErrInvalidStatus indicates an unknown watch status
	ErrInvalidStatus = errors.New("invalid watch status")

	// ErrInvalidKind indicates an unknown content kind
	ErrInvalidKind = errors.New("invalid content kind")
)
