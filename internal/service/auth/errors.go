package auth

import (
	"errors"
	"strings"
)

var (
	// ErrSessionExpired is returned before any network call when the stored
	// token is missing, unreadable or past its exp claim.
	ErrSessionExpired = errors.New("Session expired. Please log in again.")
	// ErrRefreshFailed is returned when the backend refuses to refresh.
	ErrRefreshFailed = errors.New("Failed to refresh token. Please log in again.")
	// ErrNoAccessToken means the credential exchange succeeded without a token.
	ErrNoAccessToken = errors.New("No access token in response")
	// ErrNotAuthenticated is returned by operations that need a signed-in user.
	ErrNotAuthenticated = errors.New("not authenticated")
)

// LoginError carries the backend's explanation for a rejected login.
type LoginError struct {
	Status  int
	Message string
}

func (e *LoginError) Error() string {
	return e.Message
}

// ValidationError names the required user fields the backend left out.
type ValidationError struct {
	Missing []string
}

func (e *ValidationError) Error() string {
	return "Missing required user fields: " + strings.Join(e.Missing, ", ")
}
