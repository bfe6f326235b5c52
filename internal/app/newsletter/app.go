package newsletter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/streadway/amqp"

	// Регистрация swagger-документации.
	_ "github.com/magabrotheeeer/newsletter/docs"

	"github.com/magabrotheeeer/newsletter/internal/cache"
	"github.com/magabrotheeeer/newsletter/internal/config"
	"github.com/magabrotheeeer/newsletter/internal/lib/jwt"
	"github.com/magabrotheeeer/newsletter/internal/lib/mailtmpl"
	"github.com/magabrotheeeer/newsletter/internal/lib/password"
	"github.com/magabrotheeeer/newsletter/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/newsletter/internal/lib/sl"
	"github.com/magabrotheeeer/newsletter/internal/lib/workerpool"
	"github.com/magabrotheeeer/newsletter/internal/migrations"
	"github.com/magabrotheeeer/newsletter/internal/services/auth"
	newsletterservice "github.com/magabrotheeeer/newsletter/internal/services/newsletter"
	"github.com/magabrotheeeer/newsletter/internal/services/sender"
	"github.com/magabrotheeeer/newsletter/internal/services/subscription"
	"github.com/magabrotheeeer/newsletter/internal/storage"
)

// App HTTP-приложение сервиса рассылки.
type App struct {
	server *http.Server
	logger *slog.Logger
	db     *storage.Storage
	cache  *cache.Cache
	pool   *workerpool.Pool
	conn   *amqp.Connection
	ch     *amqp.Channel
}

// New подключается к зависимостям, применяет миграции и собирает маршруты.
//
// Redis нужен только для /admin и подключается, если задан jwt_secret_key.
// RabbitMQ необязателен: без него выпуски из /admin рассылаются синхронно.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	const op = "app.newsletter.New"

	policy, err := newsletterservice.ParseFailurePolicy(cfg.Newsletter.FailurePolicy)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	db, err := storage.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	app := &App{logger: logger, db: db}

	if err = migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
		app.close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	emailSender, err := sender.New(ctx, cfg.Email, logger)
	if err != nil {
		app.close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	templates, err := mailtmpl.New()
	if err != nil {
		app.close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	app.pool = workerpool.New(cfg.Auth.VerifyWorkers)

	adminEnabled := cfg.JWTSecretKey != ""
	var revoker auth.Revoker
	if adminEnabled {
		app.cache, err = cache.InitServer(ctx, cfg.RedisConnection)
		if err != nil {
			app.close()
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		revoker = app.cache
	} else {
		logger.Warn("jwt_secret_key is not set, admin routes are disabled")
	}

	jwtMaker := jwt.NewJWTMaker(cfg.JWTSecretKey, cfg.TokenTTL)
	authService := auth.New(db, password.Hasher{}, app.pool, jwtMaker, revoker, logger)
	if err := authService.EnsureOperator(ctx, cfg.Operator.Username, cfg.Operator.Password); err != nil {
		app.close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	broadcaster := newsletterservice.NewBroadcaster(db, emailSender, policy, logger)

	var queue newsletterservice.Queue
	if cfg.RabbitMQ.URL != "" {
		app.conn, err = rabbitmq.Connect(ctx, cfg.RabbitMQ.URL, cfg.RabbitMQ.MaxRetries, cfg.RabbitMQ.RetryDelay)
		if err != nil {
			app.close()
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		app.ch, err = rabbitmq.SetupChannel(app.conn, cfg.RabbitMQ.Queue)
		if err != nil {
			app.close()
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		queue = rabbitmq.NewPublisher(app.ch)
	}

	router := chi.NewRouter()
	RegisterRoutes(router, logger, Services{
		Subscriptions: subscription.NewService(db, emailSender, templates, cfg.BaseURL, logger),
		Broadcaster:   broadcaster,
		Dispatcher:    newsletterservice.NewDispatcher(queue, broadcaster, logger),
		Auth:          authService,
		AdminEnabled:  adminEnabled,
	})

	app.server = &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}
	return app, nil
}

// Run обслуживает запросы, пока не отменён ctx, после чего плавно
// останавливает сервер и закрывает соединения.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		a.close()
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		a.close()
		return err
	}
}

func (a *App) close() {
	if a.ch != nil {
		if err := a.ch.Close(); err != nil {
			a.logger.Error("failed to close channel", sl.Err(err))
		}
	}
	if a.conn != nil {
		if err := a.conn.Close(); err != nil {
			a.logger.Error("failed to close connection", sl.Err(err))
		}
	}
	if a.pool != nil {
		a.pool.Close()
	}
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.logger.Error("failed to close redis", sl.Err(err))
		}
	}
	if err := a.db.Close(); err != nil {
		a.logger.Error("failed to close database", sl.Err(err))
	}
}
