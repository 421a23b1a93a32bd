package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/magabrotheeeer/evofit/internal/migrations"
	"github.com/magabrotheeeer/evofit/internal/models"
)

// setupTestDatabase поднимает PostgreSQL в контейнере и применяет миграции.
func setupTestDatabase(t *testing.T) *Storage {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(time.Minute),
		),
	)
	require.NoError(t, err, "failed to start container")
	t.Cleanup(func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	})

	dsn, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	storage, err := New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = storage.Close() })

	migrationsPath, err := filepath.Abs("../../migrations")
	require.NoError(t, err)
	require.NoError(t, migrations.Run(storage.DB, migrationsPath))
	require.NoError(t, storage.CheckDatabaseReady(ctx))
	return storage
}

func TestIntegration_SubscriptionLifecycle(t *testing.T) {
	s := setupTestDatabase(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	user, err := s.CreateUser(ctx, models.User{
		Email: "ana@evofit.app", PasswordHash: "hash", Role: models.RoleUser,
		Metadata: map[string]string{models.MetaFullName: "Ana"},
	})
	require.NoError(t, err)

	_, err = s.CreateUser(ctx, models.User{Email: "ana@evofit.app", PasswordHash: "hash", Role: models.RoleUser})
	assert.ErrorIs(t, err, ErrUserExists)

	_, err = s.GetSubscriptionByUserUID(ctx, user.UUID)
	assert.ErrorIs(t, err, ErrSubscriptionNotFound)

	past := now.Add(-time.Hour)
	sub, err := s.CreateSubscription(ctx, models.Subscription{
		UserUID: user.UUID, PlanType: models.PlanMonthly, Status: models.StatusActive,
		PaymentDate: &now, ExpiryDate: past, Amount: 99.9, CreatedAt: now, UpdatedAt: now,
	})
	require.NoError(t, err)
	assert.InDelta(t, 99.9, sub.Amount, 0.001)

	expired, err := s.ExpireSubscriptions(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, []string{user.UUID}, expired)

	got, err := s.GetSubscriptionByUserUID(ctx, user.UUID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusExpired, got.Status)

	renewExpiry := models.PlanYearly.ExpiryFrom(now)
	require.NoError(t, s.RenewSubscription(ctx, models.Subscription{
		UserUID: user.UUID, PlanType: models.PlanYearly, PaymentDate: &now,
		ExpiryDate: renewExpiry, Amount: 999, UpdatedAt: now,
	}))

	got, err = s.GetSubscriptionByUserUID(ctx, user.UUID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusActive, got.Status)
	assert.Equal(t, models.PlanYearly, got.PlanType)
	assert.True(t, got.IsUsable(now))

	expired, err = s.ExpireSubscriptions(ctx, now)
	require.NoError(t, err)
	assert.Empty(t, expired)
}

func TestIntegration_SweepLeavesPendingRows(t *testing.T) {
	s := setupTestDatabase(t)
	ctx := context.Background()
	now := time.Now().UTC()

	user, err := s.CreateUser(ctx, models.User{Email: "p@evofit.app", PasswordHash: "hash", Role: models.RoleUser})
	require.NoError(t, err)
	_, err = s.CreateSubscription(ctx, models.Subscription{
		UserUID: user.UUID, PlanType: models.PlanMonthly, Status: models.StatusPending,
		ExpiryDate: now.Add(-48 * time.Hour), CreatedAt: now, UpdatedAt: now,
	})
	require.NoError(t, err)

	expired, err := s.ExpireSubscriptions(ctx, now)
	require.NoError(t, err)
	assert.Empty(t, expired)

	got, err := s.GetSubscriptionByUserUID(ctx, user.UUID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, got.Status)
}

func TestIntegration_UserMetadataMerge(t *testing.T) {
	s := setupTestDatabase(t)
	ctx := context.Background()

	user, err := s.CreateUser(ctx, models.User{
		Email: "m@evofit.app", PasswordHash: "hash", Role: models.RoleUser,
		Metadata: map[string]string{models.MetaFullName: "Marta"},
	})
	require.NoError(t, err)

	updated, err := s.UpdateUserMetadata(ctx, user.UUID, map[string]string{models.MetaPhone: "+5511988887777"})
	require.NoError(t, err)
	assert.Equal(t, "Marta", updated.FullName())
	assert.Equal(t, "+5511988887777", updated.Phone())

	require.NoError(t, s.UpdateUserRole(ctx, user.UUID, models.RoleAdmin))
	byEmail, err := s.GetUserByEmail(ctx, "m@evofit.app")
	require.NoError(t, err)
	assert.True(t, byEmail.IsAdmin())
}
