package api

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/evofit/internal/config"
	"github.com/magabrotheeeer/evofit/internal/grpc/client"
	"github.com/magabrotheeeer/evofit/internal/http/middlewarectx"
	"github.com/magabrotheeeer/evofit/internal/models"
	adminservices "github.com/magabrotheeeer/evofit/internal/services/admin"
	gateservices "github.com/magabrotheeeer/evofit/internal/services/gate"
	identityservices "github.com/magabrotheeeer/evofit/internal/services/identity"
	notifyservices "github.com/magabrotheeeer/evofit/internal/services/notification"
	subservices "github.com/magabrotheeeer/evofit/internal/services/subscription"
	"github.com/magabrotheeeer/evofit/internal/storage"
)

var fixedNow = time.Date(2025, 5, 10, 12, 0, 0, 0, time.UTC)

const (
	adminUID   = "0b7f1d2e-3c4a-4b5c-8d6e-7f8091a2b3c4"
	memberUID  = "1c2d3e4f-5a6b-4c7d-8e9f-0a1b2c3d4e5f"
	pendingUID = "2d3e4f5a-6b7c-4d8e-9fa0-1b2c3d4e5f60"
	ghostUID   = "3e4f5a6b-7c8d-4e9f-a0b1-2c3d4e5f6071"
)

// fakeProvider сервис идентификации в памяти, users по токену.
type fakeProvider struct {
	users map[string]*models.User
}

func (f *fakeProvider) SignUp(_ context.Context, email, _ string, metadata map[string]string) (*models.User, error) {
	return &models.User{UUID: "new", Email: email, Role: models.RoleUser, Metadata: metadata}, nil
}

func (f *fakeProvider) SignIn(_ context.Context, email, password string) (*models.Session, error) {
	for token, u := range f.users {
		if u.Email == email && password == "secret123" {
			return &models.Session{Token: token, User: u, ExpiresAt: fixedNow.Add(time.Hour)}, nil
		}
	}
	return nil, client.ErrUnauthenticated
}

func (f *fakeProvider) SignOut(_ context.Context, _ string) error { return nil }

func (f *fakeProvider) Session(_ context.Context, token string) (*models.Session, error) {
	if u, ok := f.users[token]; ok {
		return &models.Session{Token: token, User: u}, nil
	}
	return nil, client.ErrUnauthenticated
}

func (f *fakeProvider) GetUserByID(_ context.Context, uid string) (*models.User, error) {
	for _, u := range f.users {
		if u.UUID == uid {
			return u, nil
		}
	}
	return nil, client.ErrNotFound
}

func (f *fakeProvider) UpdateUser(_ context.Context, token string, metadata map[string]string) (*models.User, error) {
	u := f.users[token]
	u.Metadata = metadata
	return u, nil
}

type memRepo struct {
	subs map[string]*models.Subscription
}

func (m *memRepo) GetSubscriptionByUserUID(_ context.Context, uid string) (*models.Subscription, error) {
	if s, ok := m.subs[uid]; ok {
		cp := *s
		return &cp, nil
	}
	return nil, storage.ErrSubscriptionNotFound
}

func (m *memRepo) CreateSubscription(_ context.Context, sub models.Subscription) (*models.Subscription, error) {
	m.subs[sub.UserUID] = &sub
	return &sub, nil
}

func (m *memRepo) UpdateSubscriptionStatus(_ context.Context, uid string, status models.Status, now time.Time) error {
	s, ok := m.subs[uid]
	if !ok {
		return storage.ErrSubscriptionNotFound
	}
	s.Status, s.UpdatedAt = status, now
	return nil
}

func (m *memRepo) RenewSubscription(_ context.Context, sub models.Subscription) error {
	if _, ok := m.subs[sub.UserUID]; !ok {
		return storage.ErrSubscriptionNotFound
	}
	m.subs[sub.UserUID] = &sub
	return nil
}

func (m *memRepo) ListAllSubscriptions(_ context.Context) ([]models.Subscription, error) {
	out := make([]models.Subscription, 0, len(m.subs))
	for _, s := range m.subs {
		out = append(out, *s)
	}
	return out, nil
}

func (m *memRepo) ExpireSubscriptions(_ context.Context, now time.Time) ([]string, error) {
	var uids []string
	for uid, s := range m.subs {
		if s.Status == models.StatusActive && s.ExpiryDate.Before(now) {
			s.Status = models.StatusExpired
			uids = append(uids, uid)
		}
	}
	return uids, nil
}

func newTestRouter(t *testing.T) (http.Handler, *memRepo) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	provider := &fakeProvider{users: map[string]*models.User{
		"admin":   {UUID: adminUID, Email: "boss@evofit.app", Role: models.RoleAdmin},
		"member":  {UUID: memberUID, Email: "ana@evofit.app", Role: models.RoleUser},
		"pending": {UUID: pendingUID, Email: "bia@evofit.app", Role: models.RoleUser},
	}}
	repo := &memRepo{subs: map[string]*models.Subscription{
		memberUID:  {UserUID: memberUID, Status: models.StatusActive, PlanType: models.PlanMonthly, ExpiryDate: fixedNow.AddDate(0, 0, 3), Amount: 49.9},
		pendingUID: {UserUID: pendingUID, Status: models.StatusPending, PlanType: models.PlanMonthly, ExpiryDate: fixedNow.AddDate(0, 1, 0)},
	}}

	subs := subservices.NewSubscriptionService(repo, nil, time.Minute, logger).WithClock(func() time.Time { return fixedNow })
	identity := identityservices.NewGateway(provider, nil, time.Second, logger)
	gate := gateservices.NewGate(identity, subs, gateservices.Config{ExpiryWarningDays: 7}, logger).
		WithClock(func() time.Time { return fixedNow })

	router := chi.NewRouter()
	RegisterRoutes(router, logger, Services{
		Identity:      identity,
		Subscriptions: subs,
		Gate:          gate,
		Admin:         adminservices.NewConsole(subs, identity, logger),
		Notifications: notifyservices.NewFromConfig(&config.Config{}, provider, logger),
		Limiter:       middlewarectx.NewIPLimiter(1000, 1000),
	})
	return router, repo
}

func do(t *testing.T, h http.Handler, method, path, token, body string) (int, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var got map[string]any
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	}
	return rec.Code, got
}

func TestRoutes_AccessAndWorkouts(t *testing.T) {
	h, _ := newTestRouter(t)

	tests := []struct {
		name      string
		token     string
		wantState string
		wantCode  int
	}{
		{name: "anonymous", wantState: "redirect_login", wantCode: http.StatusUnauthorized},
		{name: "active member", token: "member", wantState: "active", wantCode: http.StatusOK},
		{name: "pending member", token: "pending", wantState: "blocked", wantCode: http.StatusForbidden},
		{name: "admin without subscription", token: "admin", wantState: "active", wantCode: http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, body := do(t, h, http.MethodGet, "/api/v1/access", tt.token, "")
			require.Equal(t, http.StatusOK, code)
			data := body["data"].(map[string]any)
			assert.Equal(t, tt.wantState, data["state"])

			code, _ = do(t, h, http.MethodGet, "/api/v1/workouts", tt.token, "")
			assert.Equal(t, tt.wantCode, code)
		})
	}

	_, body := do(t, h, http.MethodGet, "/api/v1/access", "member", "")
	data := body["data"].(map[string]any)
	assert.EqualValues(t, 3, data["days_until_expiry"])
	assert.Equal(t, true, data["expiry_warning"])
}

func TestRoutes_AdminConsole(t *testing.T) {
	h, repo := newTestRouter(t)

	code, _ := do(t, h, http.MethodGet, "/api/v1/admin/subscriptions", "member", "")
	assert.Equal(t, http.StatusForbidden, code)

	code, body := do(t, h, http.MethodGet, "/api/v1/admin/subscriptions", "admin", "")
	require.Equal(t, http.StatusOK, code)
	stats := body["data"].(map[string]any)["stats"].(map[string]any)
	assert.EqualValues(t, 1, stats["active"])
	assert.InDelta(t, 49.9, stats["revenue"], 1e-9)

	code, _ = do(t, h, http.MethodPut, "/api/v1/admin/subscriptions/"+memberUID+"/status", "admin", `{"status":"inactive"}`)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, models.StatusInactive, repo.subs[memberUID].Status)

	code, _ = do(t, h, http.MethodPost, "/api/v1/admin/subscriptions/"+memberUID+"/renew", "admin", `{"plan_type":"yearly","amount":499}`)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, models.StatusActive, repo.subs[memberUID].Status)
	assert.Equal(t, fixedNow.AddDate(1, 0, 0), repo.subs[memberUID].ExpiryDate)

	code, _ = do(t, h, http.MethodPut, "/api/v1/admin/subscriptions/"+ghostUID+"/status", "admin", `{"status":"inactive"}`)
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = do(t, h, http.MethodPut, "/api/v1/admin/subscriptions/ghost/status", "admin", `{"status":"inactive"}`)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestRoutes_LoginAndNotification(t *testing.T) {
	h, _ := newTestRouter(t)

	code, body := do(t, h, http.MethodPost, "/api/v1/login", "", `{"email":"ana@evofit.app","password":"secret123"}`)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "member", body["data"].(map[string]any)["token"])

	code, _ = do(t, h, http.MethodPost, "/api/v1/login", "", `{"email":"ana@evofit.app","password":"wrong"}`)
	assert.Equal(t, http.StatusUnauthorized, code)

	code, body = do(t, h, http.MethodPost, "/api/send-notification", "", `{"userId":"`+memberUID+`","email":"ana@evofit.app","type":"login"}`)
	assert.Equal(t, http.StatusInternalServerError, code)
	assert.Equal(t, "Credenciais do Twilio não configuradas", body["error"])

	code, _ = do(t, h, http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, code)
}

func TestRoutes_LoginThenAccess(t *testing.T) {
	h, _ := newTestRouter(t)

	tests := []struct {
		name      string
		email     string
		wantState string
		wantCode  int
	}{
		{name: "pending member is blocked", email: "bia@evofit.app", wantState: "blocked", wantCode: http.StatusForbidden},
		{name: "active member gets in", email: "ana@evofit.app", wantState: "active", wantCode: http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, body := do(t, h, http.MethodPost, "/api/v1/login", "", `{"email":"`+tt.email+`","password":"secret123"}`)
			require.Equal(t, http.StatusOK, code)
			token, _ := body["data"].(map[string]any)["token"].(string)
			require.NotEmpty(t, token)

			code, body = do(t, h, http.MethodGet, "/api/v1/access", token, "")
			require.Equal(t, http.StatusOK, code)
			assert.Equal(t, tt.wantState, body["data"].(map[string]any)["state"])

			code, _ = do(t, h, http.MethodGet, "/api/v1/workouts", token, "")
			assert.Equal(t, tt.wantCode, code)
		})
	}
}
