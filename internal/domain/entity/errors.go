package entity

import (
	"errors"
	"fmt"
)

// Precondition failures abort an operation before any work is done
var (
	ErrNoCredential        = errors.New("no conferencing credential stored, run a sync first")
	ErrNoRefreshToken      = errors.New("stored credential has no refresh token")
	ErrClientNotConfigured = errors.New("conferencing client credentials are not configured")
)

// ErrCredentialExpired is returned by the conferencing client when the
// remote API rejects the access token.
var ErrCredentialExpired = errors.New("conferencing credential expired")

// RemoteError is a non-2xx answer from a remote service
type RemoteError struct {
	StatusCode int
	Code       int64
	Message    string
}

func (e *RemoteError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("remote returned status %d (code %d): %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("remote returned status %d: %s", e.StatusCode, e.Message)
}

// NetworkError is a transport failure (timeout, refused connection...)
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}
