// Package auth собирает gRPC-сервис идентификации.
package auth

import (
	"context"
	"fmt"
	"log/slog"
	"net"

	"google.golang.org/grpc"

	"github.com/magabrotheeeer/evofit/internal/cache"
	"github.com/magabrotheeeer/evofit/internal/config"
	"github.com/magabrotheeeer/evofit/internal/grpc/authrpc"
	"github.com/magabrotheeeer/evofit/internal/grpc/server"
	"github.com/magabrotheeeer/evofit/internal/lib/jwt"
	"github.com/magabrotheeeer/evofit/internal/lib/sl"
	"github.com/magabrotheeeer/evofit/internal/migrations"
	authservices "github.com/magabrotheeeer/evofit/internal/services/auth"
	"github.com/magabrotheeeer/evofit/internal/storage"
)

// App gRPC-приложение идентификации.
type App struct {
	grpcServer *grpc.Server
	listener   net.Listener
	logger     *slog.Logger
	db         *storage.Storage
	cache      *cache.Cache
}

// New поднимает хранилище, кеш отозванных токенов и gRPC-сервер.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	if cfg.JWTSecretKey == "" {
		return nil, fmt.Errorf("auth: jwt secret key is empty")
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

	jwtMaker := jwt.NewJWTMaker(cfg.JWTSecretKey, cfg.TokenTTL)
	authService := authservices.NewAuthService(db, a.cache, jwtMaker, cfg.AdminEmails)

	a.listener, err = net.Listen("tcp", cfg.GRPCAuthAddress)
	if err != nil {
		a.close()
		return nil, err
	}

	a.grpcServer = grpc.NewServer()
	authrpc.RegisterAuthServiceServer(a.grpcServer, server.NewAuthServer(authService, logger))

	return a, nil
}

// Run обслуживает gRPC до отмены ctx.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("Auth gRPC service listening on", slog.String("address", a.listener.Addr().String()))
		errCh <- a.grpcServer.Serve(a.listener)
	}()

	var err error
	select {
	case <-ctx.Done():
		a.logger.Info("shutting down auth service")
		a.grpcServer.GracefulStop()
	case err = <-errCh:
	}
	a.close()
	return err
}

func (a *App) close() {
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.logger.Error("failed to close redis", sl.Err(err))
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Error("failed to close storage", sl.Err(err))
		}
	}
}
