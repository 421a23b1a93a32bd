package authrpc

import "github.com/magabrotheeeer/evofit/internal/models"

type SignUpRequest struct {
	Email    string            `json:"email"`
	Password string            `json:"password"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type SignInResponse struct {
	Session *models.Session `json:"session"`
}

type SignOutRequest struct {
	Token string `json:"token"`
}

type SignOutResponse struct{}

type GetUserRequest struct {
	Token string `json:"token"`
}

type GetUserResponse struct {
	Session *models.Session `json:"session"`
}

type GetUserByIDRequest struct {
	ID string `json:"id"`
}

type UpdateUserRequest struct {
	Token    string            `json:"token"`
	Metadata map[string]string `json:"metadata"`
}

// UserResponse общий ответ методов, возвращающих пользователя.
type UserResponse struct {
	User *models.User `json:"user"`
}
