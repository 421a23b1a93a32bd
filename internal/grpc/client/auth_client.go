// Package client содержит gRPC-клиент сервиса идентификации.
// Коды статуса переводятся обратно в сигнальные ошибки пакета.
package client

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"

	"github.com/magabrotheeeer/evofit/internal/grpc/authrpc"
	"github.com/magabrotheeeer/evofit/internal/models"
)

var (
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrAlreadyExists   = errors.New("already exists")
	ErrNotFound        = errors.New("not found")
	ErrInvalidArgument = errors.New("invalid argument")
)

// AuthClient клиент сервиса идентификации.
type AuthClient struct {
	conn   *grpc.ClientConn
	client *authrpc.AuthServiceClient
}

// NewAuthClient создаёт клиент. Соединение устанавливается лениво при первом вызове.
func NewAuthClient(addr string, opts ...grpc.DialOption) (*AuthClient, error) {
	const op = "client.NewAuthClient"
	opts = append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	}, opts...)
	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &AuthClient{conn: conn, client: authrpc.NewAuthServiceClient(conn)}, nil
}

// Close закрывает соединение.
func (a *AuthClient) Close() error {
	return a.conn.Close()
}

// SignUp регистрирует пользователя с метаданными профиля.
func (a *AuthClient) SignUp(ctx context.Context, email, password string, metadata map[string]string) (*models.User, error) {
	resp, err := a.client.SignUp(ctx, &authrpc.SignUpRequest{
		Email:    email,
		Password: password,
		Metadata: metadata,
	})
	if err != nil {
		return nil, fromStatus("client.SignUp", err)
	}
	return resp.User, nil
}

// SignIn выполняет вход и возвращает сессию.
func (a *AuthClient) SignIn(ctx context.Context, email, password string) (*models.Session, error) {
	resp, err := a.client.SignIn(ctx, &authrpc.SignInRequest{
		Email:    email,
		Password: password,
	})
	if err != nil {
		return nil, fromStatus("client.SignIn", err)
	}
	return resp.Session, nil
}

// SignOut отзывает токен.
func (a *AuthClient) SignOut(ctx context.Context, token string) error {
	if _, err := a.client.SignOut(ctx, &authrpc.SignOutRequest{Token: token}); err != nil {
		return fromStatus("client.SignOut", err)
	}
	return nil
}

// Session возвращает сессию владельца токена.
func (a *AuthClient) Session(ctx context.Context, token string) (*models.Session, error) {
	resp, err := a.client.GetUser(ctx, &authrpc.GetUserRequest{Token: token})
	if err != nil {
		return nil, fromStatus("client.Session", err)
	}
	return resp.Session, nil
}

// GetUserByID административный поиск пользователя.
func (a *AuthClient) GetUserByID(ctx context.Context, userUID string) (*models.User, error) {
	resp, err := a.client.GetUserByID(ctx, &authrpc.GetUserByIDRequest{ID: userUID})
	if err != nil {
		return nil, fromStatus("client.GetUserByID", err)
	}
	return resp.User, nil
}

// UpdateUser обновляет метаданные профиля владельца токена.
func (a *AuthClient) UpdateUser(ctx context.Context, token string, metadata map[string]string) (*models.User, error) {
	resp, err := a.client.UpdateUser(ctx, &authrpc.UpdateUserRequest{Token: token, Metadata: metadata})
	if err != nil {
		return nil, fromStatus("client.UpdateUser", err)
	}
	return resp.User, nil
}

func fromStatus(op string, err error) error {
	st, ok := status.FromError(err)
	if !ok {
		return fmt.Errorf("%s: %w", op, err)
	}
	var sentinel error
	switch st.Code() {
	case codes.Unauthenticated:
		sentinel = ErrUnauthenticated
	case codes.AlreadyExists:
		sentinel = ErrAlreadyExists
	case codes.NotFound:
		sentinel = ErrNotFound
	case codes.InvalidArgument:
		sentinel = ErrInvalidArgument
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: %w: %s", op, sentinel, st.Message())
}
