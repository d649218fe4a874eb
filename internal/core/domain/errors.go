package domain

import "errors"

// Domain errors - used across all layers
var (
	// ErrNotFound indicates the requested resource was not found
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates the input is invalid
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnauthorized indicates authentication failed or missing
	ErrUnauthorized = errors.New("unauthorized")

	// ErrTokenExpired indicates the auth token has expired
	ErrTokenExpired = errors.New("token expired")

	// ErrTokenInvalid indicates the auth token is malformed or invalid
	ErrTokenInvalid = errors.New("token invalid")

	// ErrServiceUnavailable indicates a backing service could not be reached
	ErrServiceUnavailable = errors.New("service unavailable")

	// ErrUpstream indicates the RAG engine answered with an error status
	ErrUpstream = errors.New("upstream error")
)
