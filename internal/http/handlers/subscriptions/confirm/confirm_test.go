package confirm

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/newsletter/internal/lib/apperr"
)

type ServiceMock struct {
	mock.Mock
}

func (m *ServiceMock) Confirm(ctx context.Context, tokenRaw string) error {
	args := m.Called(ctx, tokenRaw)
	return args.Error(0)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestHandler_ServeHTTP(t *testing.T) {
	const token = "abcdefghijklmnopqrstuvwxy"

	tests := []struct {
		name           string
		target         string
		mockErr        error
		callsService   bool
		wantStatusCode int
	}{
		{
			name:           "confirmed",
			target:         "/subscriptions/confirm?subscription_token=" + token,
			callsService:   true,
			wantStatusCode: http.StatusOK,
		},
		{
			name:           "missing token",
			target:         "/subscriptions/confirm",
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name:           "malformed token",
			target:         "/subscriptions/confirm?subscription_token=" + token,
			mockErr:        apperr.Validation("op", errors.New("bad token")),
			callsService:   true,
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name:           "unknown token",
			target:         "/subscriptions/confirm?subscription_token=" + token,
			mockErr:        apperr.Unauthorized("op", "there is no subscriber associated with the provided token"),
			callsService:   true,
			wantStatusCode: http.StatusUnauthorized,
		},
		{
			name:           "storage failure",
			target:         "/subscriptions/confirm?subscription_token=" + token,
			mockErr:        apperr.Unexpected("op", "db", errors.New("down")),
			callsService:   true,
			wantStatusCode: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(ServiceMock)
			if tt.callsService {
				svc.On("Confirm", mock.Anything, token).Return(tt.mockErr).Once()
			}
			rec := httptest.NewRecorder()

			New(newNoopLogger(), svc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.target, nil))

			assert.Equal(t, tt.wantStatusCode, rec.Code)
			svc.AssertExpectations(t)
		})
	}
}
