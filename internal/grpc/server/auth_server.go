// Package server реализует gRPC-сервер для сервиса идентификации.
//
// AuthServer принимает запросы evofit.auth.v1.AuthService, логирует операции
// и ошибки, делегирует бизнес-логику AuthService и переводит ошибки в коды gRPC.
package server

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/magabrotheeeer/evofit/internal/grpc/authrpc"
	"github.com/magabrotheeeer/evofit/internal/lib/sl"
	"github.com/magabrotheeeer/evofit/internal/models"
	authservices "github.com/magabrotheeeer/evofit/internal/services/auth"
	"github.com/magabrotheeeer/evofit/internal/storage"
)

// AuthServiceInterface бизнес-логика, которую обслуживает сервер.
type AuthServiceInterface interface {
	SignUp(ctx context.Context, email, password string, metadata map[string]string) (*models.User, error)
	SignIn(ctx context.Context, email, password string) (*models.Session, error)
	SignOut(ctx context.Context, token string) error
	Session(ctx context.Context, token string) (*models.Session, error)
	GetUserByID(ctx context.Context, userUID string) (*models.User, error)
	UpdateUser(ctx context.Context, token string, metadata map[string]string) (*models.User, error)
}

// AuthServer реализует authrpc.AuthServiceServer.
type AuthServer struct {
	authService AuthServiceInterface
	log         *slog.Logger
}

var _ authrpc.AuthServiceServer = (*AuthServer)(nil)

// NewAuthServer создает новый экземпляр AuthServer.
func NewAuthServer(authService AuthServiceInterface, logger *slog.Logger) *AuthServer {
	return &AuthServer{
		authService: authService,
		log:         logger,
	}
}

// SignUp создает нового пользователя.
func (s *AuthServer) SignUp(ctx context.Context, req *authrpc.SignUpRequest) (*authrpc.UserResponse, error) {
	const op = "server.SignUp"
	log := s.log.With(sl.Op(op), slog.String("email", req.Email))

	user, err := s.authService.SignUp(ctx, req.Email, req.Password, req.Metadata)
	if err != nil {
		return nil, s.toStatus(log, err)
	}
	log.Info("user signed up", slog.String("user_uid", user.UUID))
	return &authrpc.UserResponse{User: user}, nil
}

// SignIn проверяет пароль и выдаёт сессию.
func (s *AuthServer) SignIn(ctx context.Context, req *authrpc.SignInRequest) (*authrpc.SignInResponse, error) {
	const op = "server.SignIn"
	log := s.log.With(sl.Op(op), slog.String("email", req.Email))

	session, err := s.authService.SignIn(ctx, req.Email, req.Password)
	if err != nil {
		return nil, s.toStatus(log, err)
	}
	log.Info("user signed in", slog.String("user_uid", session.User.UUID))
	return &authrpc.SignInResponse{Session: session}, nil
}

// SignOut отзывает токен.
func (s *AuthServer) SignOut(ctx context.Context, req *authrpc.SignOutRequest) (*authrpc.SignOutResponse, error) {
	const op = "server.SignOut"
	if err := s.authService.SignOut(ctx, req.Token); err != nil {
		return nil, s.toStatus(s.log.With(sl.Op(op)), err)
	}
	return &authrpc.SignOutResponse{}, nil
}

// GetUser возвращает сессию владельца токена.
func (s *AuthServer) GetUser(ctx context.Context, req *authrpc.GetUserRequest) (*authrpc.GetUserResponse, error) {
	const op = "server.GetUser"
	session, err := s.authService.Session(ctx, req.Token)
	if err != nil {
		return nil, s.toStatus(s.log.With(sl.Op(op)), err)
	}
	return &authrpc.GetUserResponse{Session: session}, nil
}

// GetUserByID административный поиск пользователя.
func (s *AuthServer) GetUserByID(ctx context.Context, req *authrpc.GetUserByIDRequest) (*authrpc.UserResponse, error) {
	const op = "server.GetUserByID"
	user, err := s.authService.GetUserByID(ctx, req.ID)
	if err != nil {
		return nil, s.toStatus(s.log.With(sl.Op(op), slog.String("user_uid", req.ID)), err)
	}
	return &authrpc.UserResponse{User: user}, nil
}

// UpdateUser обновляет метаданные профиля.
func (s *AuthServer) UpdateUser(ctx context.Context, req *authrpc.UpdateUserRequest) (*authrpc.UserResponse, error) {
	const op = "server.UpdateUser"
	user, err := s.authService.UpdateUser(ctx, req.Token, req.Metadata)
	if err != nil {
		return nil, s.toStatus(s.log.With(sl.Op(op)), err)
	}
	return &authrpc.UserResponse{User: user}, nil
}

func (s *AuthServer) toStatus(log *slog.Logger, err error) error {
	switch {
	case errors.Is(err, authservices.ErrInvalidCredentials):
		log.Info("invalid credentials")
		return status.Error(codes.Unauthenticated, "invalid credentials")
	case errors.Is(err, authservices.ErrInvalidToken):
		return status.Error(codes.Unauthenticated, "invalid token")
	case errors.Is(err, storage.ErrUserExists):
		log.Info("user already exists")
		return status.Error(codes.AlreadyExists, "user already exists")
	case errors.Is(err, storage.ErrUserNotFound):
		return status.Error(codes.NotFound, "user not found")
	case errors.Is(err, authservices.ErrInvalidInput):
		log.Info("invalid input", sl.Err(err))
		return status.Error(codes.InvalidArgument, strings.TrimPrefix(err.Error(), authservices.ErrInvalidInput.Error()+": "))
	default:
		log.Error("request failed", sl.Err(err))
		return status.Error(codes.Internal, "internal error")
	}
}
