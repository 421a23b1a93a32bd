package jwt

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTMaker_GenerateAndParseToken_ValidCases(t *testing.T) {
	tokenTTL := 15 * time.Minute
	maker := NewJWTMaker("test_secret_key_1234567890", tokenTTL)

	tests := []struct {
		name  string
		uid   string
		email string
		role  string
	}{
		{name: "admin user", uid: "6f1c0b9e-0000-4000-8000-000000000001", email: "admin@evofit.app", role: "admin"},
		{name: "regular user", uid: "6f1c0b9e-0000-4000-8000-000000000002", email: "aluno@evofit.app", role: "user"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, issued, err := maker.GenerateToken(tt.uid, tt.email, tt.role)
			require.NoError(t, err)
			assert.NotEmpty(t, token)
			assert.NotEmpty(t, issued.ID)

			claims, err := maker.ParseToken(token)
			require.NoError(t, err)

			assert.Equal(t, tt.uid, claims.UserUID())
			assert.Equal(t, tt.email, claims.Email)
			assert.Equal(t, tt.role, claims.Role)
			assert.Equal(t, issued.ID, claims.ID)
			assert.WithinDuration(t, time.Now(), claims.IssuedAt.Time, time.Second)
			assert.WithinDuration(t, time.Now().Add(tokenTTL), claims.ExpiresAt.Time, time.Second)
		})
	}
}

func TestJWTMaker_UniqueTokenIDs(t *testing.T) {
	maker := NewJWTMaker("secret", time.Minute)

	_, first, err := maker.GenerateToken("uid", "a@b.c", "user")
	require.NoError(t, err)
	_, second, err := maker.GenerateToken("uid", "a@b.c", "user")
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)
}

func TestJWTMaker_ParseToken_InvalidTokens(t *testing.T) {
	secretKey := "test_secret_key_1234567890"
	maker := NewJWTMaker(secretKey, 15*time.Minute)

	validToken, _, err := maker.GenerateToken("uid", "user@evofit.app", "user")
	require.NoError(t, err)

	expired, _, err := NewJWTMaker(secretKey, -time.Hour).GenerateToken("uid", "user@evofit.app", "user")
	require.NoError(t, err)

	wrongSecret, _, err := NewJWTMaker("wrong_secret_key", 15*time.Minute).GenerateToken("uid", "user@evofit.app", "user")
	require.NoError(t, err)

	noneAlg, err := jwt.NewWithClaims(jwt.SigningMethodNone, &CustomClaims{Role: "admin"}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{name: "empty token", token: ""},
		{name: "malformed token", token: "invalid.token.here"},
		{name: "expired token", token: expired},
		{name: "wrong secret key", token: wrongSecret},
		{name: "tampered token", token: validToken + "tampered"},
		{name: "none algorithm", token: noneAlg},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := maker.ParseToken(tt.token)
			assert.Error(t, err)
			assert.Nil(t, claims)
		})
	}
}
