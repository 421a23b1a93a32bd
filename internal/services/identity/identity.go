// Package services реализует шлюз идентификации: вход, регистрацию, выход
// и получение текущего пользователя через сервис идентификации.
// После входа и регистрации в фоне ставится запрос на уведомление.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/magabrotheeeer/evofit/internal/grpc/client"
	"github.com/magabrotheeeer/evofit/internal/lib/sl"
	"github.com/magabrotheeeer/evofit/internal/models"
)

var (
	// ErrInvalidCredentials неверный email или пароль.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrUserExists пользователь уже зарегистрирован.
	ErrUserExists = errors.New("user already exists")
	// ErrInvalidInput провайдер отклонил данные.
	ErrInvalidInput = errors.New("invalid input")
	// ErrUserNotFound пользователь не найден.
	ErrUserNotFound = errors.New("user not found")
	// ErrNoSession операция требует активной сессии.
	ErrNoSession = errors.New("no active session")
)

// Provider внешний сервис идентификации.
type Provider interface {
	SignUp(ctx context.Context, email, password string, metadata map[string]string) (*models.User, error)
	SignIn(ctx context.Context, email, password string) (*models.Session, error)
	SignOut(ctx context.Context, token string) error
	Session(ctx context.Context, token string) (*models.Session, error)
	GetUserByID(ctx context.Context, userUID string) (*models.User, error)
	UpdateUser(ctx context.Context, token string, metadata map[string]string) (*models.User, error)
}

// Notifier ставит запрос на уведомление в очередь.
type Notifier interface {
	Notify(ctx context.Context, req models.NotificationRequest) error
}

// Gateway шлюз идентификации.
type Gateway struct {
	provider      Provider
	notifier      Notifier
	notifyTimeout time.Duration
	log           *slog.Logger
	wg            sync.WaitGroup
}

// NewGateway создаёт шлюз. notifier может быть nil, тогда уведомления не отправляются.
func NewGateway(provider Provider, notifier Notifier, notifyTimeout time.Duration, log *slog.Logger) *Gateway {
	if notifyTimeout <= 0 {
		notifyTimeout = 5 * time.Second
	}
	return &Gateway{
		provider:      provider,
		notifier:      notifier,
		notifyTimeout: notifyTimeout,
		log:           log,
	}
}

// Login аутентифицирует пользователя и в фоне запрашивает уведомление о входе.
func (g *Gateway) Login(ctx context.Context, email, password string) (*models.Session, error) {
	const op = "services.identity.Login"

	session, err := g.provider.SignIn(ctx, email, password)
	if err != nil {
		return nil, mapProviderError(op, err)
	}
	g.notifyAsync(ctx, models.NotificationRequest{
		UserID: session.User.UUID,
		Email:  session.User.Email,
		Type:   models.NotificationLogin,
		Phone:  session.User.Phone(),
	})
	return session, nil
}

// Signup создаёт учётную запись с метаданными full_name и phone. Вход не выполняется.
func (g *Gateway) Signup(ctx context.Context, email, password, fullName, phone string) (*models.User, error) {
	const op = "services.identity.Signup"

	metadata := map[string]string{models.MetaFullName: strings.TrimSpace(fullName)}
	if phone = strings.TrimSpace(phone); phone != "" {
		metadata[models.MetaPhone] = phone
	}
	user, err := g.provider.SignUp(ctx, email, password, metadata)
	if err != nil {
		return nil, mapProviderError(op, err)
	}
	g.notifyAsync(ctx, models.NotificationRequest{
		UserID: user.UUID,
		Email:  user.Email,
		Type:   models.NotificationSignup,
		Phone:  user.Phone(),
	})
	return user, nil
}

// Logout завершает сессию. Без сессии ничего не делает.
func (g *Gateway) Logout(ctx context.Context, session *models.Session) error {
	const op = "services.identity.Logout"
	if session == nil || session.Token == "" {
		return nil
	}
	if err := g.provider.SignOut(ctx, session.Token); err != nil {
		return mapProviderError(op, err)
	}
	return nil
}

// CurrentSession возвращает сессию по токену или nil, если сессии нет.
// Ошибка возвращается только при сбое транспорта.
func (g *Gateway) CurrentSession(ctx context.Context, token string) (*models.Session, error) {
	const op = "services.identity.CurrentSession"
	if token == "" {
		return nil, nil
	}
	session, err := g.provider.Session(ctx, token)
	if errors.Is(err, client.ErrUnauthenticated) || errors.Is(err, client.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return session, nil
}

// CurrentUser возвращает пользователя текущей сессии или nil.
func (g *Gateway) CurrentUser(ctx context.Context, token string) (*models.User, error) {
	session, err := g.CurrentSession(ctx, token)
	if err != nil || session == nil {
		return nil, err
	}
	return session.User, nil
}

// UpdateProfile меняет имя и/или телефон владельца сессии. nil значит "не менять".
func (g *Gateway) UpdateProfile(ctx context.Context, session *models.Session, fullName, phone *string) (*models.User, error) {
	const op = "services.identity.UpdateProfile"
	if session == nil {
		return nil, ErrNoSession
	}
	metadata := make(map[string]string, 2)
	if fullName != nil {
		metadata[models.MetaFullName] = *fullName
	}
	if phone != nil {
		metadata[models.MetaPhone] = *phone
	}
	user, err := g.provider.UpdateUser(ctx, session.Token, metadata)
	if err != nil {
		return nil, mapProviderError(op, err)
	}
	return user, nil
}

// UserByID административный поиск пользователя.
func (g *Gateway) UserByID(ctx context.Context, userUID string) (*models.User, error) {
	const op = "services.identity.UserByID"
	user, err := g.provider.GetUserByID(ctx, userUID)
	if err != nil {
		return nil, mapProviderError(op, err)
	}
	return user, nil
}

// Wait дожидается фоновых уведомлений.
func (g *Gateway) Wait() {
	g.wg.Wait()
}

func (g *Gateway) notifyAsync(ctx context.Context, req models.NotificationRequest) {
	if g.notifier == nil {
		return
	}
	g.wg.Add(1)
	go func() {
		defer g.wg.Done()
		nctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), g.notifyTimeout)
		defer cancel()
		if err := g.notifier.Notify(nctx, req); err != nil {
			g.log.Warn("failed to request notification",
				slog.String("type", req.Type), slog.String("user_id", req.UserID), sl.Err(err))
		}
	}()
}

func mapProviderError(op string, err error) error {
	switch {
	case errors.Is(err, client.ErrUnauthenticated):
		return ErrInvalidCredentials
	case errors.Is(err, client.ErrAlreadyExists):
		return ErrUserExists
	case errors.Is(err, client.ErrInvalidArgument):
		return fmt.Errorf("%w: %s", ErrInvalidInput, invalidReason(err))
	case errors.Is(err, client.ErrNotFound):
		return ErrUserNotFound
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}

// invalidReason текст причины от провайдера без префиксов операций.
func invalidReason(err error) string {
	msg := err.Error()
	if i := strings.LastIndex(msg, client.ErrInvalidArgument.Error()+": "); i >= 0 {
		return msg[i+len(client.ErrInvalidArgument.Error())+2:]
	}
	return msg
}
