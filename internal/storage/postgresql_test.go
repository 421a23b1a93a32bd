package storage

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/evofit/internal/models"
)

var subscriptionRowColumns = []string{"id", "user_uid", "plan_type", "status", "payment_date",
	"expiry_date", "amount", "created_at", "updated_at"}

var userRowColumns = []string{"uid", "email", "password_hash", "role", "metadata", "created_at"}

func newMockStorage(t *testing.T) (*Storage, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	})
	return NewWithDB(db), mock
}

func TestStorage_GetSubscriptionByUserUID(t *testing.T) {
	now := time.Date(2025, 5, 10, 12, 0, 0, 0, time.UTC)
	query := regexp.QuoteMeta("FROM subscriptions") + ".*" + regexp.QuoteMeta("ORDER BY created_at DESC")

	tests := []struct {
		name    string
		setup   func(mock sqlmock.Sqlmock)
		want    *models.Subscription
		wantErr error
	}{
		{
			name: "found",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(query).WithArgs("u1").WillReturnRows(
					sqlmock.NewRows(subscriptionRowColumns).
						AddRow("s1", "u1", "monthly", "active", now, now.AddDate(0, 1, 0), 99.9, now, now))
			},
			want: &models.Subscription{
				ID: "s1", UserUID: "u1", PlanType: models.PlanMonthly, Status: models.StatusActive,
				PaymentDate: &now, ExpiryDate: now.AddDate(0, 1, 0), Amount: 99.9, CreatedAt: now, UpdatedAt: now,
			},
		},
		{
			name: "null payment date",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(query).WithArgs("u1").WillReturnRows(
					sqlmock.NewRows(subscriptionRowColumns).
						AddRow("s1", "u1", "yearly", "pending", nil, now, 0.0, now, now))
			},
			want: &models.Subscription{
				ID: "s1", UserUID: "u1", PlanType: models.PlanYearly, Status: models.StatusPending,
				ExpiryDate: now, CreatedAt: now, UpdatedAt: now,
			},
		},
		{
			name: "no rows",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(query).WithArgs("u1").WillReturnRows(sqlmock.NewRows(subscriptionRowColumns))
			},
			wantErr: ErrSubscriptionNotFound,
		},
		{
			name: "db error",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(query).WithArgs("u1").WillReturnError(sql.ErrConnDone)
			},
			wantErr: sql.ErrConnDone,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, mock := newMockStorage(t)
			tt.setup(mock)

			got, err := s.GetSubscriptionByUserUID(context.Background(), "u1")
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStorage_CreateSubscription(t *testing.T) {
	s, mock := newMockStorage(t)
	now := time.Date(2025, 5, 10, 12, 0, 0, 0, time.UTC)
	expiry := now.AddDate(0, 1, 0)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO subscriptions")).
		WithArgs("u1", "monthly", "active", now, expiry, 99.9, now, now).
		WillReturnRows(sqlmock.NewRows(subscriptionRowColumns).
			AddRow("s1", "u1", "monthly", "active", now, expiry, 99.9, now, now))

	got, err := s.CreateSubscription(context.Background(), models.Subscription{
		UserUID: "u1", PlanType: models.PlanMonthly, Status: models.StatusActive,
		PaymentDate: &now, ExpiryDate: expiry, Amount: 99.9, CreatedAt: now, UpdatedAt: now,
	})
	require.NoError(t, err)
	assert.Equal(t, "s1", got.ID)
	assert.Equal(t, expiry, got.ExpiryDate)
}

func TestStorage_UpdateSubscriptionStatus(t *testing.T) {
	now := time.Now()
	query := regexp.QuoteMeta("UPDATE subscriptions")

	tests := []struct {
		name    string
		result  sql.Result
		execErr error
		wantErr error
	}{
		{name: "updated", result: sqlmock.NewResult(0, 1)},
		{name: "no subscription", result: sqlmock.NewResult(0, 0), wantErr: ErrSubscriptionNotFound},
		{name: "db error", execErr: sql.ErrConnDone, wantErr: sql.ErrConnDone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, mock := newMockStorage(t)
			exp := mock.ExpectExec(query).WithArgs("expired", now, "u1")
			if tt.execErr != nil {
				exp.WillReturnError(tt.execErr)
			} else {
				exp.WillReturnResult(tt.result)
			}

			err := s.UpdateSubscriptionStatus(context.Background(), "u1", models.StatusExpired, now)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestStorage_RenewSubscription_ForcesActive(t *testing.T) {
	s, mock := newMockStorage(t)
	now := time.Date(2025, 5, 10, 12, 0, 0, 0, time.UTC)
	expiry := now.AddDate(1, 0, 0)

	mock.ExpectExec(regexp.QuoteMeta("SET plan_type = $1, status = $2")).
		WithArgs("yearly", "active", now, expiry, 999.0, now, "u1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := s.RenewSubscription(context.Background(), models.Subscription{
		UserUID: "u1", PlanType: models.PlanYearly, Status: models.StatusExpired,
		PaymentDate: &now, ExpiryDate: expiry, Amount: 999, UpdatedAt: now,
	})
	assert.NoError(t, err)
}

func TestStorage_ListAllSubscriptions(t *testing.T) {
	s, mock := newMockStorage(t)
	now := time.Now().UTC()

	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY created_at DESC")).
		WillReturnRows(sqlmock.NewRows(subscriptionRowColumns).
			AddRow("s2", "u2", "yearly", "active", now, now, 10.0, now, now).
			AddRow("s1", "u1", "monthly", "expired", nil, now, 5.0, now.Add(-time.Hour), now))

	got, err := s.ListAllSubscriptions(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "s2", got[0].ID)
	assert.Nil(t, got[1].PaymentDate)
}

func TestStorage_ListAllSubscriptions_Empty(t *testing.T) {
	s, mock := newMockStorage(t)
	mock.ExpectQuery(regexp.QuoteMeta("FROM subscriptions")).
		WillReturnRows(sqlmock.NewRows(subscriptionRowColumns))

	got, err := s.ListAllSubscriptions(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestStorage_ExpireSubscriptions(t *testing.T) {
	s, mock := newMockStorage(t)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("WHERE status = $3 AND expiry_date < $2")).
		WithArgs("expired", now, "active").
		WillReturnRows(sqlmock.NewRows([]string{"user_uid"}).AddRow("u1").AddRow("u2"))

	got, err := s.ExpireSubscriptions(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, []string{"u1", "u2"}, got)
}

func TestStorage_CreateUser(t *testing.T) {
	now := time.Now().UTC()
	query := regexp.QuoteMeta("INSERT INTO users")

	t.Run("created", func(t *testing.T) {
		s, mock := newMockStorage(t)
		mock.ExpectQuery(query).
			WithArgs("a@b.c", "hash", "user", `{"full_name":"Ana"}`).
			WillReturnRows(sqlmock.NewRows(userRowColumns).
				AddRow("u1", "a@b.c", "hash", "user", []byte(`{"full_name":"Ana"}`), now))

		got, err := s.CreateUser(context.Background(), models.User{
			Email: "a@b.c", PasswordHash: "hash", Role: models.RoleUser,
			Metadata: map[string]string{models.MetaFullName: "Ana"},
		})
		require.NoError(t, err)
		assert.Equal(t, "u1", got.UUID)
		assert.Equal(t, "Ana", got.FullName())
	})

	t.Run("nil metadata stored as empty object", func(t *testing.T) {
		s, mock := newMockStorage(t)
		mock.ExpectQuery(query).
			WithArgs("a@b.c", "hash", "user", `{}`).
			WillReturnRows(sqlmock.NewRows(userRowColumns).
				AddRow("u1", "a@b.c", "hash", "user", []byte(`{}`), now))

		_, err := s.CreateUser(context.Background(), models.User{Email: "a@b.c", PasswordHash: "hash", Role: models.RoleUser})
		require.NoError(t, err)
	})

	t.Run("duplicate email", func(t *testing.T) {
		s, mock := newMockStorage(t)
		mock.ExpectQuery(query).WillReturnError(&pgconn.PgError{Code: uniqueViolation})

		got, err := s.CreateUser(context.Background(), models.User{Email: "a@b.c"})
		assert.ErrorIs(t, err, ErrUserExists)
		assert.Nil(t, got)
	})
}

func TestStorage_GetUserByEmail(t *testing.T) {
	query := regexp.QuoteMeta("FROM users WHERE email = $1")

	t.Run("found", func(t *testing.T) {
		s, mock := newMockStorage(t)
		mock.ExpectQuery(query).WithArgs("a@b.c").
			WillReturnRows(sqlmock.NewRows(userRowColumns).
				AddRow("u1", "a@b.c", "hash", "admin", nil, time.Now()))

		got, err := s.GetUserByEmail(context.Background(), "a@b.c")
		require.NoError(t, err)
		assert.True(t, got.IsAdmin())
		assert.Nil(t, got.Metadata)
	})

	t.Run("not found", func(t *testing.T) {
		s, mock := newMockStorage(t)
		mock.ExpectQuery(query).WithArgs("a@b.c").WillReturnRows(sqlmock.NewRows(userRowColumns))

		_, err := s.GetUserByEmail(context.Background(), "a@b.c")
		assert.ErrorIs(t, err, ErrUserNotFound)
	})
}

func TestStorage_UpdateUserMetadata(t *testing.T) {
	s, mock := newMockStorage(t)
	mock.ExpectQuery(regexp.QuoteMeta("|| $1::jsonb")).
		WithArgs(`{"phone":"+5511"}`, "u1").
		WillReturnRows(sqlmock.NewRows(userRowColumns).
			AddRow("u1", "a@b.c", "hash", "user", []byte(`{"full_name":"Ana","phone":"+5511"}`), time.Now()))

	got, err := s.UpdateUserMetadata(context.Background(), "u1", map[string]string{models.MetaPhone: "+5511"})
	require.NoError(t, err)
	assert.Equal(t, "Ana", got.FullName())
	assert.Equal(t, "+5511", got.Phone())
}

func TestStorage_UpdateUserRole(t *testing.T) {
	s, mock := newMockStorage(t)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET role")).
		WithArgs("admin", "u1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := s.UpdateUserRole(context.Background(), "u1", models.RoleAdmin)
	assert.True(t, errors.Is(err, ErrUserNotFound))
}

func TestStorage_CheckDatabaseReady(t *testing.T) {
	s, mock := newMockStorage(t)
	mock.ExpectQuery(regexp.QuoteMeta("information_schema.tables")).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	assert.Error(t, s.CheckDatabaseReady(context.Background()))
}
