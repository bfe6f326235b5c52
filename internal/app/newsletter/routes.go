// Package newsletter собирает HTTP-приложение сервиса рассылки.
package newsletter

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/magabrotheeeer/newsletter/internal/http/handlers/admin/dashboard"
	"github.com/magabrotheeeer/newsletter/internal/http/handlers/admin/logout"
	adminnewsletters "github.com/magabrotheeeer/newsletter/internal/http/handlers/admin/newsletters"
	"github.com/magabrotheeeer/newsletter/internal/http/handlers/admin/password"
	"github.com/magabrotheeeer/newsletter/internal/http/handlers/auth/login"
	"github.com/magabrotheeeer/newsletter/internal/http/handlers/health"
	"github.com/magabrotheeeer/newsletter/internal/http/handlers/newsletters/publish"
	"github.com/magabrotheeeer/newsletter/internal/http/handlers/subscriptions/confirm"
	"github.com/magabrotheeeer/newsletter/internal/http/handlers/subscriptions/subscribe"
	"github.com/magabrotheeeer/newsletter/internal/http/middlewarectx"
	"github.com/magabrotheeeer/newsletter/internal/services/auth"
	newsletterservice "github.com/magabrotheeeer/newsletter/internal/services/newsletter"
	"github.com/magabrotheeeer/newsletter/internal/services/subscription"
)

// Services сервисы, которые обслуживают маршруты.
type Services struct {
	Subscriptions *subscription.Service
	Broadcaster   *newsletterservice.Broadcaster
	Dispatcher    *newsletterservice.Dispatcher
	Auth          *auth.Service
	// AdminEnabled включает /login и группу /admin.
	AdminEnabled bool
}

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, s Services) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
	)

	r.Get("/health_check", health.New().ServeHTTP)
	r.Post("/subscriptions", subscribe.New(logger, s.Subscriptions).ServeHTTP)
	r.Get("/subscriptions/confirm", confirm.New(logger, s.Subscriptions).ServeHTTP)
	r.Post("/newsletters", publish.New(logger, s.Auth, s.Broadcaster).ServeHTTP)

	if s.AdminEnabled {
		r.Post("/login", login.New(logger, s.Auth).ServeHTTP)

		// Группа с JWT аутентификацией
		r.Route("/admin", func(r chi.Router) {
			r.Use(middlewarectx.JWTMiddleware(s.Auth, logger))
			r.Get("/dashboard", dashboard.New(logger, s.Auth).ServeHTTP)
			r.Post("/password", password.New(logger, s.Auth).ServeHTTP)
			r.Post("/newsletters", adminnewsletters.New(logger, s.Dispatcher).ServeHTTP)
			r.Post("/logout", logout.New(logger, s.Auth).ServeHTTP)
		})
	}

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
