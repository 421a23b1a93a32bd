package profile

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/evofit/internal/http/middlewarectx"
	"github.com/magabrotheeeer/evofit/internal/models"
	identityservices "github.com/magabrotheeeer/evofit/internal/services/identity"
)

type ServiceMock struct {
	mock.Mock
}

func (m *ServiceMock) UpdateProfile(ctx context.Context, session *models.Session, fullName, phone *string) (*models.User, error) {
	args := m.Called(ctx, session, fullName, phone)
	user, _ := args.Get(0).(*models.User)
	return user, args.Error(1)
}

func strPtr(s string) *string { return &s }

func TestProfileHandler_ServeHTTP(t *testing.T) {
	session := &models.Session{Token: "tok", User: &models.User{UUID: "u1"}}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	tests := []struct {
		name           string
		session        *models.Session
		body           string
		wantFullName   *string
		wantPhone      *string
		mockUser       *models.User
		mockErr        error
		callService    bool
		wantStatusCode int
	}{
		{
			name:           "phone only",
			session:        session,
			body:           `{"phone":"+5511"}`,
			wantPhone:      strPtr("+5511"),
			mockUser:       &models.User{UUID: "u1", Metadata: map[string]string{models.MetaPhone: "+5511"}},
			callService:    true,
			wantStatusCode: http.StatusOK,
		},
		{
			name:           "clear phone",
			session:        session,
			body:           `{"phone":""}`,
			wantPhone:      strPtr(""),
			mockUser:       &models.User{UUID: "u1", Metadata: map[string]string{models.MetaFullName: "Ana", models.MetaPhone: ""}},
			callService:    true,
			wantStatusCode: http.StatusOK,
		},
		{name: "no session", body: `{"phone":"+5511"}`, wantStatusCode: http.StatusUnauthorized},
		{name: "empty patch", session: session, body: `{}`, wantStatusCode: http.StatusBadRequest},
		{name: "broken json", session: session, body: `{`, wantStatusCode: http.StatusBadRequest},
		{name: "empty name", session: session, body: `{"full_name":""}`, wantStatusCode: http.StatusUnprocessableEntity},
		{
			name:           "rejected by provider",
			session:        session,
			body:           `{"full_name":"Ana"}`,
			wantFullName:   strPtr("Ana"),
			mockErr:        fmt.Errorf("%w: phone too long", identityservices.ErrInvalidInput),
			callService:    true,
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name:           "token revoked meanwhile",
			session:        session,
			body:           `{"full_name":"Ana"}`,
			wantFullName:   strPtr("Ana"),
			mockErr:        identityservices.ErrInvalidCredentials,
			callService:    true,
			wantStatusCode: http.StatusUnauthorized,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(ServiceMock)
			if tt.callService {
				svc.On("UpdateProfile", mock.Anything, tt.session, tt.wantFullName, tt.wantPhone).
					Return(tt.mockUser, tt.mockErr).Once()
			}
			req := httptest.NewRequest(http.MethodPatch, "/profile", strings.NewReader(tt.body))
			if tt.session != nil {
				req = req.WithContext(middlewarectx.WithSession(req.Context(), tt.session))
			}
			rec := httptest.NewRecorder()

			New(logger, svc).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatusCode, rec.Code)
			if tt.wantStatusCode == http.StatusOK {
				var got map[string]any
				require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
				user := got["data"].(map[string]any)["user"].(map[string]any)
				assert.Equal(t, tt.mockUser.Phone(), user["metadata"].(map[string]any)["phone"])
			}
			svc.AssertExpectations(t)
		})
	}
}
