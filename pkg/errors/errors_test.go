package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_Error(t *testing.T) {
	err := &AppError{Code: "API_ERROR", Message: "variant out of stock"}
	assert.Equal(t, "API_ERROR: variant out of stock", err.Error())

	wrapped := &AppError{Code: "API_ERROR", Message: "variant out of stock", Err: errors.New("boom")}
	assert.Equal(t, "API_ERROR: variant out of stock: boom", wrapped.Error())
}

func TestAppError_Unwrap(t *testing.T) {
	inner := errors.New("inner")
	err := &AppError{Code: "X", Message: "y", Err: inner}
	assert.ErrorIs(t, err, inner)
}

func TestConstructors(t *testing.T) {
	tests := []struct {
		name     string
		err      *AppError
		sentinel error
		status   int
	}{
		{"NotFound", NotFound("address", "a1"), ErrNotFound, http.StatusNotFound},
		{"InvalidInput", InvalidInput("bad expiry"), ErrInvalidInput, http.StatusBadRequest},
		{"Unauthorized", Unauthorized("bad token"), ErrUnauthorized, http.StatusUnauthorized},
		{"Conflict", Conflict("submit in progress"), ErrConflict, http.StatusConflict},
		{"API", API(500, "backend exploded"), ErrAPI, http.StatusBadGateway},
		{"Network", Network(errors.New("dial tcp refused")), ErrNetwork, http.StatusBadGateway},
		{"StorageCorrupt", StorageCorrupt(errors.New("unexpected token")), ErrStorageCorrupt, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.err, tt.sentinel)
			assert.Equal(t, tt.status, tt.err.Status)
		})
	}
}

func TestAPI_EmptyMessage(t *testing.T) {
	err := API(503, "")
	assert.Contains(t, err.Message, "503")
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{ErrNotFound, http.StatusNotFound},
		{ErrInvalidInput, http.StatusBadRequest},
		{ErrUnauthorized, http.StatusUnauthorized},
		{ErrConflict, http.StatusConflict},
		{ErrNetwork, http.StatusBadGateway},
		{ErrAPI, http.StatusBadGateway},
		{errors.New("unknown"), http.StatusInternalServerError},
		{fmt.Errorf("wrapped: %w", ErrUnauthorized), http.StatusUnauthorized},
		{Unauthorized("pat revoked"), http.StatusUnauthorized},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.status, HTTPStatus(tt.err), "error: %v", tt.err)
	}
}

func TestWrap(t *testing.T) {
	err := Wrap(ErrAPI, "convert cart")
	assert.ErrorIs(t, err, ErrAPI)
	assert.Contains(t, err.Error(), "convert cart")
}
