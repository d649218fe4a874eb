package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		msg  string
	}{
		{"ErrNotFound", ErrNotFound, "not found"},
		{"ErrInvalidInput", ErrInvalidInput, "invalid input"},
		{"ErrUnauthorized", ErrUnauthorized, "unauthorized"},
		{"ErrTokenExpired", ErrTokenExpired, "token expired"},
		{"ErrTokenInvalid", ErrTokenInvalid, "token invalid"},
		{"ErrServiceUnavailable", ErrServiceUnavailable, "service unavailable"},
		{"ErrUpstream", ErrUpstream, "upstream error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Error() != tt.msg {
				t.Errorf("expected %q, got %q", tt.msg, tt.err.Error())
			}
		})
	}
}

func TestErrorsAreDistinct(t *testing.T) {
	allErrors := []error{
		ErrNotFound,
		ErrInvalidInput,
		ErrUnauthorized,
		ErrTokenExpired,
		ErrTokenInvalid,
		ErrServiceUnavailable,
		ErrUpstream,
	}

	for i, err1 := range allErrors {
		for j, err2 := range allErrors {
			if i != j && errors.Is(err1, err2) {
				t.Errorf("errors should be distinct: %v and %v", err1, err2)
			}
		}
	}
}

func TestErrorsIs_Wrapped(t *testing.T) {
	wrapped := fmt.Errorf("page_size 500: %w", ErrInvalidInput)
	if !errors.Is(wrapped, ErrInvalidInput) {
		t.Error("wrapped error should match ErrInvalidInput")
	}
	if errors.Is(wrapped, ErrNotFound) {
		t.Error("wrapped error should not match ErrNotFound")
	}
}
