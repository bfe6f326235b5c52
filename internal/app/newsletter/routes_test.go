package newsletter

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi"
	"github.com/stretchr/testify/assert"
)

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRegisterRoutes(t *testing.T) {
	tests := []struct {
		name         string
		adminEnabled bool
		method       string
		target       string
		wantStatus   int
	}{
		{name: "health check", method: http.MethodGet, target: "/health_check", wantStatus: http.StatusOK},
		{name: "metrics", method: http.MethodGet, target: "/metrics", wantStatus: http.StatusOK},
		{name: "confirm without token", method: http.MethodGet, target: "/subscriptions/confirm", wantStatus: http.StatusBadRequest},
		{name: "publish without credentials", method: http.MethodPost, target: "/newsletters", wantStatus: http.StatusUnauthorized},
		{name: "admin disabled", method: http.MethodGet, target: "/admin/dashboard", wantStatus: http.StatusNotFound},
		{name: "login disabled", method: http.MethodPost, target: "/login", wantStatus: http.StatusNotFound},
		{name: "admin without token", adminEnabled: true, method: http.MethodGet, target: "/admin/dashboard", wantStatus: http.StatusUnauthorized},
		{name: "wrong method", method: http.MethodGet, target: "/subscriptions", wantStatus: http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := chi.NewRouter()
			RegisterRoutes(r, newNoopLogger(), Services{AdminEnabled: tt.adminEnabled})

			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.target, nil))

			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}
