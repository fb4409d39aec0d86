package client

import (
	"errors"
	"fmt"
	"testing"
)

func TestClassifyStatus(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		expected ErrorClass
	}{
		{name: "bad request", status: 400, expected: ErrorClassClient},
		{name: "unauthorized", status: 401, expected: ErrorClassClient},
		{name: "not found", status: 404, expected: ErrorClassClient},
		{name: "internal error", status: 500, expected: ErrorClassServer},
		{name: "bad gateway", status: 502, expected: ErrorClassServer},
		{name: "unexpected redirect", status: 302, expected: ErrorClassServer},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := classifyStatus(tt.status); got != tt.expected {
				t.Errorf("classifyStatus(%d) = %q, want %q", tt.status, got, tt.expected)
			}
		})
	}
}

func TestFetchError(t *testing.T) {
	tests := []struct {
		name     string
		err      *FetchError
		expected string
	}{
		{
			name: "error without wrapped error",
			err: &FetchError{
				StatusCode: 404,
				Class:      ErrorClassClient,
				Message:    "404 Not Found",
			},
			expected: "voog client error (status 404): 404 Not Found",
		},
		{
			name: "error with wrapped error",
			err: &FetchError{
				StatusCode: 0,
				Class:      ErrorClassNetwork,
				Message:    "request failed",
				Err:        errors.New("connection refused"),
			},
			expected: "voog network error (status 0): request failed: connection refused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestFetchError_Unwrap(t *testing.T) {
	baseErr := errors.New("base error")
	err := &FetchError{Class: ErrorClassDecode, Message: "decode items", Err: baseErr}

	if !errors.Is(err, baseErr) {
		t.Error("errors.Is should find the wrapped error")
	}

	wrapped := fmt.Errorf("fetch page 3: %w", err)
	if got := ClassOf(wrapped); got != ErrorClassDecode {
		t.Errorf("ClassOf() = %q, want %q", got, ErrorClassDecode)
	}
	if got := ClassOf(baseErr); got != "" {
		t.Errorf("ClassOf(plain error) = %q, want empty", got)
	}
}
