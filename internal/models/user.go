// Package models содержит доменные модели пользователя, сессии и подписки,
// а также типы, которыми обмениваются сервисы через брокер и HTTP.
package models

import "time"

const (
	// RoleUser роль обычного пользователя.
	RoleUser = "user"
	// RoleAdmin роль администратора.
	RoleAdmin = "admin"
)

const (
	// MetaFullName ключ метаданных с полным именем.
	MetaFullName = "full_name"
	// MetaPhone ключ метаданных с номером телефона.
	MetaPhone = "phone"
)

// User представляет учётную запись, которой владеет сервис идентификации.
type User struct {
	UUID         string            `json:"id"`
	Email        string            `json:"email"`
	PasswordHash string            `json:"-"`
	Role         string            `json:"role"`
	Metadata     map[string]string `json:"metadata,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
}

// IsAdmin сообщает, является ли пользователь администратором.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// FullName возвращает полное имя из метаданных.
func (u *User) FullName() string {
	if u == nil {
		return ""
	}
	return u.Metadata[MetaFullName]
}

// Phone возвращает номер телефона из метаданных.
func (u *User) Phone() string {
	if u == nil {
		return ""
	}
	return u.Metadata[MetaPhone]
}

// Session явный контекст сессии, который передаётся между компонентами
// вместо неявного поиска текущего пользователя.
type Session struct {
	Token     string    `json:"token"`
	User      *User     `json:"user"`
	ExpiresAt time.Time `json:"expires_at"`
}
