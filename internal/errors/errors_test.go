package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"not found", NotFound("SME profile not found", nil), http.StatusNotFound},
		{"validation", ValidationError("bad", nil), http.StatusBadRequest},
		{"conflict", Conflict("exists", nil), http.StatusConflict},
		{"forbidden", Forbidden("no", nil), http.StatusForbidden},
		{"database", DatabaseError("insert failed", fmt.Errorf("boom")), http.StatusInternalServerError},
		{"plain error", fmt.Errorf("plain"), http.StatusInternalServerError},
		{"wrapped", fmt.Errorf("outer: %w", NotFound("x", nil)), http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, HTTPStatus(tt.err))
		})
	}
}

func TestAppErrorUnwrap(t *testing.T) {
	cause := fmt.Errorf("connection refused")
	err := DatabaseError("failed to append score", cause).WithOperation("Append")

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "Append", err.Operation)
	assert.Contains(t, err.Error(), "caused by: connection refused")
	assert.NotEmpty(t, err.File)
}

func TestPublicMessage(t *testing.T) {
	assert.Equal(t, "SME profile not found", PublicMessage(NotFound("SME profile not found", nil)))
	assert.Equal(t, "Internal server error", PublicMessage(fmt.Errorf("raw")))
}
