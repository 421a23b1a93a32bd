package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/magabrotheeeer/evofit/internal/models"
)

const userColumns = `uid, email, password_hash, role, metadata, created_at`

func scanUser(row rowScanner) (*models.User, error) {
	var (
		u    models.User
		meta []byte
	)
	if err := row.Scan(&u.UUID, &u.Email, &u.PasswordHash, &u.Role, &meta, &u.CreatedAt); err != nil {
		return nil, err
	}
	if len(meta) > 0 {
		if err := json.Unmarshal(meta, &u.Metadata); err != nil {
			return nil, err
		}
	}
	return &u, nil
}

// CreateUser сохраняет нового пользователя и возвращает сохранённую запись.
func (s *Storage) CreateUser(ctx context.Context, user models.User) (*models.User, error) {
	const op = "storage.CreateUser"

	meta, err := json.Marshal(nonNilMeta(user.Metadata))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	query := `INSERT INTO users (email, password_hash, role, metadata)
			  VALUES ($1, $2, $3, $4::jsonb)
			  RETURNING ` + userColumns
	created, err := scanUser(s.DB.QueryRowContext(ctx, query,
		user.Email, user.PasswordHash, user.Role, string(meta)))
	if isUniqueViolation(err) {
		return nil, ErrUserExists
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return created, nil
}

// GetUserByEmail возвращает пользователя по email.
func (s *Storage) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	const op = "storage.GetUserByEmail"
	return s.getUser(ctx, op, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
}

// GetUser возвращает пользователя по его UID.
func (s *Storage) GetUser(ctx context.Context, userUID string) (*models.User, error) {
	const op = "storage.GetUser"
	return s.getUser(ctx, op, `SELECT `+userColumns+` FROM users WHERE uid = $1`, userUID)
}

func (s *Storage) getUser(ctx context.Context, op, query string, args ...any) (*models.User, error) {
	u, err := scanUser(s.DB.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// UpdateUserMetadata сливает переданные ключи с метаданными пользователя.
func (s *Storage) UpdateUserMetadata(ctx context.Context, userUID string, metadata map[string]string) (*models.User, error) {
	const op = "storage.UpdateUserMetadata"

	meta, err := json.Marshal(nonNilMeta(metadata))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	query := `UPDATE users
			  SET metadata = COALESCE(metadata, '{}'::jsonb) || $1::jsonb
			  WHERE uid = $2
			  RETURNING ` + userColumns
	return s.getUser(ctx, op, query, string(meta), userUID)
}

// UpdateUserRole меняет роль пользователя.
func (s *Storage) UpdateUserRole(ctx context.Context, userUID, role string) error {
	const op = "storage.UpdateUserRole"

	res, err := s.DB.ExecContext(ctx, `UPDATE users SET role = $1 WHERE uid = $2`, role, userUID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return ErrUserNotFound
	}
	return nil
}

func nonNilMeta(m map[string]string) map[string]string {
	if m == nil {
		return map[string]string{}
	}
	return m
}
