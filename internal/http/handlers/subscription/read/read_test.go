package read

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/evofit/internal/http/middlewarectx"
	"github.com/magabrotheeeer/evofit/internal/models"
)

type ServiceMock struct {
	mock.Mock
}

func (m *ServiceMock) GetUserSubscription(ctx context.Context, userUID string) (*models.Subscription, error) {
	args := m.Called(ctx, userUID)
	sub, _ := args.Get(0).(*models.Subscription)
	return sub, args.Error(1)
}

func TestReadHandler_ServeHTTP(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	session := &models.Session{User: &models.User{UUID: "u1"}}

	tests := []struct {
		name           string
		sub            *models.Subscription
		err            error
		wantStatusCode int
	}{
		{name: "found", sub: &models.Subscription{UserUID: "u1", Status: models.StatusActive, PlanType: models.PlanMonthly}, wantStatusCode: http.StatusOK},
		{name: "absent", wantStatusCode: http.StatusNotFound},
		{name: "store failure", err: assert.AnError, wantStatusCode: http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(ServiceMock)
			svc.On("GetUserSubscription", mock.Anything, "u1").Return(tt.sub, tt.err).Once()

			req := httptest.NewRequest(http.MethodGet, "/subscription", nil)
			req = req.WithContext(middlewarectx.WithSession(req.Context(), session))
			rec := httptest.NewRecorder()

			New(logger, svc).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatusCode, rec.Code)
			if tt.sub != nil {
				var got map[string]any
				require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
				assert.Equal(t, "monthly", got["data"].(map[string]any)["plan_type"])
			}
		})
	}
}
