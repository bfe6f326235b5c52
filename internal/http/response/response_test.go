package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-playground/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/newsletter/internal/lib/apperr"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "validation", err: apperr.Validation("op", errors.New("bad")), want: http.StatusBadRequest},
		{name: "unauthorized", err: apperr.Unauthorized("op", "unknown token"), want: http.StatusUnauthorized},
		{name: "invalid credentials", err: apperr.InvalidCredentials("op", nil), want: http.StatusUnauthorized},
		{name: "unexpected", err: apperr.Unexpected("op", "db", nil), want: http.StatusInternalServerError},
		{name: "plain", err: errors.New("plain"), want: http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StatusFor(tt.err))
		})
	}
}

func TestWriteError_HidesUnexpectedDetails(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	WriteError(rec, req, apperr.Unexpected("op", "failed to insert new subscriber in the database", errors.New("pq: secret")))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	var got ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	assert.Equal(t, StatusError, got.Status)
	assert.Equal(t, "Internal Server Error", got.Error)
}

func TestWriteError_ShowsValidationMessage(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	WriteError(rec, req, apperr.Validation("op", errors.New("x is not a valid subscriber email")))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var got ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	assert.Equal(t, "x is not a valid subscriber email", got.Error)
}

func TestValidationError(t *testing.T) {
	type req struct {
		Title string `validate:"required"`
		New   string
		Check string `validate:"eqfield=New"`
	}
	err := validator.New().Struct(req{New: "a", Check: "b"})
	require.Error(t, err)

	got := ValidationError(err.(validator.ValidationErrors))
	assert.Equal(t, StatusError, got.Status)
	assert.Equal(t, "field Title is a required field, field Check must match New", got.Error)
}
