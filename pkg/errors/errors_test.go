package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotFound(t *testing.T) {
	err := NotFound("order", "abc-123")

	assert.Equal(t, "NOT_FOUND", err.Code)
	assert.Equal(t, "order with id abc-123 not found", err.Message)
	assert.Equal(t, http.StatusNotFound, err.Status)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestInvalidInput(t *testing.T) {
	err := InvalidInput("user_id must be a valid UUID")

	assert.Equal(t, "INVALID_INPUT", err.Code)
	assert.Equal(t, http.StatusBadRequest, err.Status)
	assert.True(t, errors.Is(err, ErrInvalidInput))
}

func TestInternal(t *testing.T) {
	cause := errors.New("connection reset")
	err := Internal(cause)

	assert.Equal(t, "INTERNAL_ERROR", err.Code)
	assert.Equal(t, http.StatusInternalServerError, err.Status)
	assert.True(t, errors.Is(err, cause))
}

func TestUnavailable(t *testing.T) {
	err := Unavailable("kafka brokers unreachable")

	assert.Equal(t, "SERVICE_UNAVAILABLE", err.Code)
	assert.Equal(t, http.StatusServiceUnavailable, err.Status)
	assert.True(t, errors.Is(err, ErrServiceUnavail))
}

func TestAppError_Error(t *testing.T) {
	withCause := Internal(errors.New("boom"))
	assert.Contains(t, withCause.Error(), "INTERNAL_ERROR")
	assert.Contains(t, withCause.Error(), "boom")

	withoutCause := &AppError{Code: "CONFLICT", Message: "already exists"}
	assert.Equal(t, "CONFLICT: already exists", withoutCause.Error())
}

func TestWrap(t *testing.T) {
	base := NotFound("user", "u-1")
	wrapped := Wrap(base, "confirm order")

	require.Error(t, wrapped)
	assert.Contains(t, wrapped.Error(), "confirm order")
	assert.True(t, errors.Is(wrapped, ErrNotFound))

	var appErr *AppError
	assert.True(t, errors.As(wrapped, &appErr))
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"app error", NotFound("order", "o-1"), http.StatusNotFound},
		{"wrapped app error", fmt.Errorf("ctx: %w", InvalidInput("bad")), http.StatusBadRequest},
		{"sentinel not found", ErrNotFound, http.StatusNotFound},
		{"sentinel invalid input", ErrInvalidInput, http.StatusBadRequest},
		{"sentinel conflict", ErrConflict, http.StatusConflict},
		{"sentinel unavailable", ErrServiceUnavail, http.StatusServiceUnavailable},
		{"unknown error", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.err))
		})
	}
}
