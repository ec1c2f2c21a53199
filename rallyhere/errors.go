package rallyhere

import (
	"errors"
	"fmt"
	"net/http"
)

// Common errors
var (
	// ErrMissingCredentials indicates the client id or secret is not configured
	ErrMissingCredentials = errors.New("client credentials not configured")
	// ErrRateLimited indicates the retry budget ran out on rate-limited responses
	ErrRateLimited = errors.New("rate limit exceeded")
	// ErrInvalidRequest indicates a request that cannot be built, such as a
	// malformed URL. It is never retried.
	ErrInvalidRequest = errors.New("invalid request")
)

// ConfigurationError reports invalid client configuration. It is returned
// before any network access.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid configuration: %s: %s", e.Field, e.Reason)
}

// Is lets errors.Is match ErrMissingCredentials for missing client credentials.
func (e *ConfigurationError) Is(target error) bool {
	return target == ErrMissingCredentials && (e.Field == "client_id" || e.Field == "client_secret")
}

// AuthenticationError reports a failure to obtain an access token.
type AuthenticationError struct {
	StatusCode int
	Err        error
}

func (e *AuthenticationError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("authentication failed with status %d: %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("authentication failed: %v", e.Err)
}

func (e *AuthenticationError) Unwrap() error {
	return e.Err
}

// TransportError reports a failed HTTP exchange: a non-retryable status, an
// undecodable body, or network errors that outlasted the retry budget.
type TransportError struct {
	Method     string
	Endpoint   string
	StatusCode int
	Body       string
	Attempts   int
	Err        error
}

func (e *TransportError) Error() string {
	switch {
	case e.StatusCode != 0 && e.Err != nil:
		return fmt.Sprintf("%s %s: status %d: %v", e.Method, e.Endpoint, e.StatusCode, e.Err)
	case e.StatusCode != 0:
		return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Endpoint, e.StatusCode, e.Body)
	default:
		return fmt.Sprintf("%s %s failed after %d attempt(s): %v", e.Method, e.Endpoint, e.Attempts, e.Err)
	}
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsNotFound checks if the error indicates a not found response
func (e *TransportError) IsNotFound() bool {
	return e.StatusCode == http.StatusNotFound
}

// IsUnauthorized checks if the error indicates an authentication failure
func (e *TransportError) IsUnauthorized() bool {
	return e.StatusCode == http.StatusUnauthorized
}

// RateLimitExceededError reports that every attempt was answered with 429.
type RateLimitExceededError struct {
	Endpoint     string
	Attempts     int
	LastResponse *Response
}

func (e *RateLimitExceededError) Error() string {
	return fmt.Sprintf("%s: rate limit exceeded after %d attempt(s)", e.Endpoint, e.Attempts)
}

func (e *RateLimitExceededError) Unwrap() error {
	return ErrRateLimited
}

// PaginationError reports a page that could not be fetched. Items fetched
// before the failure are discarded.
type PaginationError struct {
	Endpoint string
	Page     int
	Fetched  int
	Err      error
}

func (e *PaginationError) Error() string {
	return fmt.Sprintf("%s: failed to fetch page %d after %d item(s): %v", e.Endpoint, e.Page, e.Fetched, e.Err)
}

func (e *PaginationError) Unwrap() error {
	return e.Err
}
