package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/evofit/internal/cache"
	"github.com/magabrotheeeer/evofit/internal/config"
	"github.com/magabrotheeeer/evofit/internal/grpc/client"
	"github.com/magabrotheeeer/evofit/internal/http/handlers/health"
	"github.com/magabrotheeeer/evofit/internal/http/middlewarectx"
	"github.com/magabrotheeeer/evofit/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/evofit/internal/lib/sl"
	"github.com/magabrotheeeer/evofit/internal/migrations"
	adminservices "github.com/magabrotheeeer/evofit/internal/services/admin"
	gateservices "github.com/magabrotheeeer/evofit/internal/services/gate"
	identityservices "github.com/magabrotheeeer/evofit/internal/services/identity"
	notifyservices "github.com/magabrotheeeer/evofit/internal/services/notification"
	subservices "github.com/magabrotheeeer/evofit/internal/services/subscription"
	"github.com/magabrotheeeer/evofit/internal/storage"
)

// App HTTP-приложение EvoFit.
type App struct {
	server     *http.Server
	logger     *slog.Logger
	db         *storage.Storage
	cache      *cache.Cache
	authClient *client.AuthClient
	conn       *amqp.Connection
	ch         *amqp.Channel
	identity   *identityservices.Gateway
}

// New поднимает зависимости и собирает маршруты.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	policy, err := subservices.ParseFailurePolicy(cfg.FailurePolicy)
	if err != nil {
		return nil, err
	}

	db, err := storage.New(ctx, cfg.StorageConnectionString)
	if err != nil {
		return nil, err
	}
	a := &App{logger: logger, db: db}

	if err = migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
		a.close()
		return nil, err
	}

	a.cache, err = cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		a.close()
		return nil, fmt.Errorf("cache not initialized: %w", err)
	}

	a.authClient, err = client.NewAuthClient(cfg.GRPCAuthAddress)
	if err != nil {
		a.close()
		return nil, err
	}

	a.conn, err = rabbitmq.Connect(ctx, cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		a.close()
		return nil, fmt.Errorf("failed to connect RabbitMQ: %w", err)
	}
	a.ch, err = rabbitmq.SetupChannel(a.conn, rabbitmq.GetNotificationQueues(), 0)
	if err != nil {
		a.close()
		return nil, fmt.Errorf("failed to setup RabbitMQ channel: %w", err)
	}

	subscriptionService := subservices.NewSubscriptionService(db, a.cache, cfg.SubscriptionTTL, logger)
	a.identity = identityservices.NewGateway(a.authClient, rabbitmq.NewNotificationPublisher(a.ch), cfg.NotifyTimeout, logger)
	gate := gateservices.NewGate(a.identity, subscriptionService, gateservices.Config{
		Policy:            policy,
		SupportContactURL: cfg.SupportContactURL,
		ExpiryWarningDays: cfg.ExpiryWarningDays,
	}, logger)

	router := chi.NewRouter()
	RegisterRoutes(router, logger, Services{
		Identity:      a.identity,
		Subscriptions: subscriptionService,
		Gate:          gate,
		Admin:         adminservices.NewConsole(subscriptionService, a.identity, logger),
		Notifications: notifyservices.NewFromConfig(cfg, a.authClient, logger),
		Limiter:       middlewarectx.NewIPLimiter(cfg.RateLimit, cfg.RateBurst),
		HealthChecks: map[string]health.Pinger{
			"postgres": db,
			"redis":    a.cache,
		},
	})

	a.server = &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}
	return a, nil
}

// Run запускает HTTP-сервер и останавливает его при отмене ctx.
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
		a.identity.Wait()
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
	if a.authClient != nil {
		if err := a.authClient.Close(); err != nil {
			a.logger.Error("failed to close auth client", sl.Err(err))
		}
	}
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.logger.Error("failed to close cache", sl.Err(err))
		}
	}
	if err := a.db.Close(); err != nil {
		a.logger.Error("failed to close storage", sl.Err(err))
	}
}
