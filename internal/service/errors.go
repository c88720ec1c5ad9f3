package service

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrUnauthorized matches any failure caused by a missing or rejected credential.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrMissingCredential indicates that no token is stored.
	// It matches ErrUnauthorized.
	ErrMissingCredential = fmt.Errorf("%w: no authentication token found", ErrUnauthorized)

	// ErrInvalidArgument indicates a request that was rejected before any network call.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrMalformedResponse indicates a response body that could not be decoded.
	ErrMalformedResponse = errors.New("malformed response")

	// ErrMalformedToken indicates a bearer token that is not a decodable JWT.
	ErrMalformedToken = errors.New("failed to parse authentication token")
)

// RemoteError is a non-success response from the task API, or a success
// response whose body could not be decoded.
type RemoteError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *RemoteError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *RemoteError) Unwrap() error {
	return e.Err
}

// Is reports 401 and 403 responses as ErrUnauthorized.
func (e *RemoteError) Is(target error) bool {
	if target == ErrUnauthorized {
		return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
	}
	return false
}

// NewInvalidArgument returns an error matching ErrInvalidArgument with msg as its text.
func NewInvalidArgument(msg string) error {
	return &argumentError{msg: msg}
}

type argumentError struct {
	msg string
}

func (e *argumentError) Error() string { return e.msg }

func (e *argumentError) Unwrap() error { return ErrInvalidArgument }
