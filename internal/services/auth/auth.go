// Package services содержит логику сервиса идентификации: регистрацию, вход,
// выход с отзывом токена и работу с профилем пользователя.
package services

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/magabrotheeeer/evofit/internal/lib/jwt"
	"github.com/magabrotheeeer/evofit/internal/lib/password"
	"github.com/magabrotheeeer/evofit/internal/models"
	"github.com/magabrotheeeer/evofit/internal/storage"
)

const minPasswordLen = 6

var (
	// ErrInvalidCredentials неверный email или пароль.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidToken токен отсутствует, просрочен, подделан или отозван.
	ErrInvalidToken = errors.New("invalid token")
	// ErrInvalidInput некорректные данные регистрации или профиля.
	ErrInvalidInput = errors.New("invalid input")
)

// UserRepository описывает контракт для работы с пользователями в базе данных.
type UserRepository interface {
	CreateUser(ctx context.Context, user models.User) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUser(ctx context.Context, userUID string) (*models.User, error)
	UpdateUserMetadata(ctx context.Context, userUID string, metadata map[string]string) (*models.User, error)
	UpdateUserRole(ctx context.Context, userUID, role string) error
}

// TokenBlacklist хранит идентификаторы отозванных токенов.
type TokenBlacklist interface {
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// AuthService отвечает за регистрацию, вход, выход и проверку сессий.
type AuthService struct {
	users    UserRepository
	tokens   TokenBlacklist
	jwtMaker jwt.Maker
	admins   map[string]struct{}
	now      func() time.Time
}

// NewAuthService создает новый экземпляр AuthService.
// Пользователи с email из adminEmails получают роль администратора.
func NewAuthService(users UserRepository, tokens TokenBlacklist, jwtMaker jwt.Maker, adminEmails []string) *AuthService {
	admins := make(map[string]struct{}, len(adminEmails))
	for _, e := range adminEmails {
		if e = normalizeEmail(e); e != "" {
			admins[e] = struct{}{}
		}
	}
	return &AuthService{
		users:    users,
		tokens:   tokens,
		jwtMaker: jwtMaker,
		admins:   admins,
		now:      time.Now,
	}
}

// SignUp создает нового пользователя. Сессия не создаётся.
func (s *AuthService) SignUp(ctx context.Context, email, rawPassword string, metadata map[string]string) (*models.User, error) {
	const op = "services.auth.SignUp"

	email = normalizeEmail(email)
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		return nil, invalidInput("email is not valid")
	}
	if len(rawPassword) < minPasswordLen {
		return nil, invalidInput(fmt.Sprintf("password must be at least %d characters", minPasswordLen))
	}

	hashed, err := password.GetHash(rawPassword)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	user, err := s.users.CreateUser(ctx, models.User{
		Email:        email,
		PasswordHash: hashed,
		Role:         s.roleFor(email, models.RoleUser),
		Metadata:     cleanMetadata(metadata),
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return user, nil
}

// SignIn проверяет пароль и выдаёт новую сессию.
func (s *AuthService) SignIn(ctx context.Context, email, rawPassword string) (*models.Session, error) {
	const op = "services.auth.SignIn"

	user, err := s.users.GetUserByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, storage.ErrUserNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := password.CompareHash(user.PasswordHash, rawPassword); err != nil {
		if errors.Is(err, password.ErrMismatch) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if role := s.roleFor(user.Email, user.Role); role != user.Role {
		if err := s.users.UpdateUserRole(ctx, user.UUID, role); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		user.Role = role
	}

	token, claims, err := s.jwtMaker.GenerateToken(user.UUID, user.Email, user.Role)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &models.Session{
		Token:     token,
		User:      user,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// SignOut отзывает токен до истечения его срока. Невалидный токен уже не даёт сессии,
// поэтому выход с ним считается успешным.
func (s *AuthService) SignOut(ctx context.Context, token string) error {
	const op = "services.auth.SignOut"

	claims, err := s.jwtMaker.ParseToken(token)
	if err != nil {
		return nil
	}
	ttl := claims.ExpiresAt.Sub(s.now())
	if err := s.tokens.Revoke(ctx, claims.ID, ttl); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Session проверяет токен и возвращает текущую сессию с актуальными данными пользователя.
func (s *AuthService) Session(ctx context.Context, token string) (*models.Session, error) {
	const op = "services.auth.Session"

	claims, err := s.authenticate(ctx, token)
	if err != nil {
		return nil, err
	}
	user, err := s.users.GetUser(ctx, claims.UserUID())
	if errors.Is(err, storage.ErrUserNotFound) {
		return nil, ErrInvalidToken
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &models.Session{
		Token:     token,
		User:      user,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// GetUserByID административный поиск пользователя по UID.
func (s *AuthService) GetUserByID(ctx context.Context, userUID string) (*models.User, error) {
	const op = "services.auth.GetUserByID"
	user, err := s.users.GetUser(ctx, userUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return user, nil
}

// UpdateUser обновляет метаданные владельца токена.
func (s *AuthService) UpdateUser(ctx context.Context, token string, metadata map[string]string) (*models.User, error) {
	const op = "services.auth.UpdateUser"

	claims, err := s.authenticate(ctx, token)
	if err != nil {
		return nil, err
	}
	metadata, err = profilePatch(metadata)
	if err != nil {
		return nil, err
	}
	user, err := s.users.UpdateUserMetadata(ctx, claims.UserUID(), metadata)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return user, nil
}

func (s *AuthService) authenticate(ctx context.Context, token string) (*jwt.CustomClaims, error) {
	const op = "services.auth.authenticate"

	if token == "" {
		return nil, ErrInvalidToken
	}
	claims, err := s.jwtMaker.ParseToken(token)
	if err != nil {
		return nil, ErrInvalidToken
	}
	revoked, err := s.tokens.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if revoked {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (s *AuthService) roleFor(email, current string) string {
	if _, ok := s.admins[normalizeEmail(email)]; ok {
		return models.RoleAdmin
	}
	return current
}

func invalidInput(reason string) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, reason)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// cleanMetadata оставляет только известные ключи профиля с непустыми значениями.
func cleanMetadata(metadata map[string]string) map[string]string {
	out := make(map[string]string, 2)
	for _, key := range []string{models.MetaFullName, models.MetaPhone} {
		if v := strings.TrimSpace(metadata[key]); v != "" {
			out[key] = v
		}
	}
	return out
}

// profilePatch оставляет переданные ключи профиля. Пустой телефон очищает номер,
// пустое имя не допускается.
func profilePatch(metadata map[string]string) (map[string]string, error) {
	out := make(map[string]string, 2)
	for _, key := range []string{models.MetaFullName, models.MetaPhone} {
		v, ok := metadata[key]
		if !ok {
			continue
		}
		out[key] = strings.TrimSpace(v)
	}
	if len(out) == 0 {
		return nil, invalidInput("nothing to update")
	}
	if name, ok := out[models.MetaFullName]; ok && name == "" {
		return nil, invalidInput("full name must not be empty")
	}
	return out, nil
}
