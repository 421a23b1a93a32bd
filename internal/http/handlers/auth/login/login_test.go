package login

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/evofit/internal/models"
	identityservices "github.com/magabrotheeeer/evofit/internal/services/identity"
)

type ServiceMock struct {
	mock.Mock
}

func (m *ServiceMock) Login(ctx context.Context, email, password string) (*models.Session, error) {
	args := m.Called(ctx, email, password)
	session, _ := args.Get(0).(*models.Session)
	return session, args.Error(1)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func TestLoginHandler_ServeHTTP(t *testing.T) {
	expires := time.Date(2025, 5, 11, 12, 0, 0, 0, time.UTC)
	session := &models.Session{
		Token:     "tok",
		ExpiresAt: expires,
		User:      &models.User{UUID: "u1", Email: "ana@evofit.app", Role: models.RoleUser},
	}

	tests := []struct {
		name           string
		requestBody    any
		mockResp       *models.Session
		mockErr        error
		wantStatusCode int
		wantError      string
	}{
		{
			name:           "valid login",
			requestBody:    Request{Email: "ana@evofit.app", Password: "password123"},
			mockResp:       session,
			wantStatusCode: http.StatusOK,
		},
		{
			name:           "invalid json body",
			requestBody:    "not a json",
			wantStatusCode: http.StatusBadRequest,
			wantError:      "invalid request body",
		},
		{
			name:           "validation error - missing password",
			requestBody:    Request{Email: "ana@evofit.app"},
			wantStatusCode: http.StatusUnprocessableEntity,
			wantError:      "field Password is a required field",
		},
		{
			name:           "invalid credentials",
			requestBody:    Request{Email: "ana@evofit.app", Password: "wrong-password"},
			mockErr:        identityservices.ErrInvalidCredentials,
			wantStatusCode: http.StatusUnauthorized,
			wantError:      "invalid email or password",
		},
		{
			name:           "provider unavailable",
			requestBody:    Request{Email: "ana@evofit.app", Password: "password123"},
			mockErr:        assert.AnError,
			wantStatusCode: http.StatusInternalServerError,
			wantError:      "internal error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(ServiceMock)
			if tt.mockResp != nil || tt.mockErr != nil {
				body := tt.requestBody.(Request)
				svc.On("Login", mock.Anything, body.Email, body.Password).Return(tt.mockResp, tt.mockErr).Once()
			}

			var bodyBytes []byte
			switch v := tt.requestBody.(type) {
			case string:
				bodyBytes = []byte(v)
			default:
				var err error
				bodyBytes, err = json.Marshal(tt.requestBody)
				require.NoError(t, err)
			}

			req := httptest.NewRequest(http.MethodPost, "/login", bytes.NewReader(bodyBytes))
			req = req.WithContext(context.WithValue(req.Context(), middleware.RequestIDKey, "reqid123"))
			rec := httptest.NewRecorder()

			New(newNoopLogger(), svc).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatusCode, rec.Code)

			var got map[string]any
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
			if tt.wantError != "" {
				assert.Equal(t, "Error", got["status"])
				assert.Equal(t, tt.wantError, got["error"])
				assert.Nil(t, got["data"])
			} else {
				assert.Equal(t, "OK", got["status"])
				data, ok := got["data"].(map[string]any)
				require.True(t, ok)
				assert.Equal(t, "tok", data["token"])
				assert.Equal(t, expires.Format(time.RFC3339), data["expires_at"])
				assert.Equal(t, "ana@evofit.app", data["user"].(map[string]any)["email"])
			}
			svc.AssertExpectations(t)
		})
	}
}
