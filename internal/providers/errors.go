package providers

import (
	"errors"
	"fmt"
)

var ErrNotConfigured = errors.New("provider credentials missing")

// AuthError means the provider refused or failed to issue an access token.
type AuthError struct {
	Provider   string
	StatusCode int
	Err        error
}

func (e *AuthError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s auth: status %d: %v", e.Provider, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s auth: %v", e.Provider, e.Err)
}

func (e *AuthError) Unwrap() error { return e.Err }

// TransportError covers network failures, timeouts, non-2xx responses and
// undecodable response bodies.
type TransportError struct {
	Provider   string
	Op         string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s %s: status %d: %v", e.Provider, e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Provider, e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ParseError is a single malformed offer inside an otherwise valid batch.
type ParseError struct {
	Provider string
	Index    int
	Err      error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s offer %d: %v", e.Provider, e.Index, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }
