package newsletters

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/newsletter/internal/lib/apperr"
	"github.com/magabrotheeeer/newsletter/internal/models"
)

type DispatcherMock struct{ mock.Mock }

func (m *DispatcherMock) Dispatch(ctx context.Context, issue models.Issue) (bool, int, error) {
	args := m.Called(ctx, issue)
	return args.Bool(0), args.Int(1), args.Error(2)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestHandler_ServeHTTP(t *testing.T) {
	form := url.Values{"title": {"Title"}, "html_content": {"<p>hi</p>"}, "text_content": {"hi"}}
	issue := models.Issue{Title: "Title", HTML: "<p>hi</p>", Text: "hi"}

	tests := []struct {
		name           string
		form           url.Values
		callsDispatch  bool
		queued         bool
		dispatchErr    error
		wantStatusCode int
	}{
		{name: "queued", form: form, callsDispatch: true, queued: true, wantStatusCode: http.StatusAccepted},
		{name: "sent synchronously", form: form, callsDispatch: true, wantStatusCode: http.StatusOK},
		{
			name:           "missing text",
			form:           url.Values{"title": {"Title"}, "html_content": {"<p>hi</p>"}},
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name:           "dispatch failure",
			form:           form,
			callsDispatch:  true,
			dispatchErr:    apperr.Unexpected("op", "failed", errors.New("amqp")),
			wantStatusCode: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := new(DispatcherMock)
			if tt.callsDispatch {
				d.On("Dispatch", mock.Anything, issue).Return(tt.queued, 2, tt.dispatchErr).Once()
			}

			req := httptest.NewRequest(http.MethodPost, "/admin/newsletters", strings.NewReader(tt.form.Encode()))
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
			rec := httptest.NewRecorder()

			New(newNoopLogger(), d).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatusCode, rec.Code)
			d.AssertExpectations(t)
		})
	}
}
