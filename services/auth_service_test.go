package services

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"teamup/apperr"
	"teamup/models"
)

func TestRegisterLoginVerifyLogout(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	session, err := f.Auth.Register(ctx, RegisterInput{
		Email:    "  Ada@Example.com ",
		Password: "hunter22",
		FullName: "Ada Lovelace",
	})
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", session.Identity.Email)
	assert.NotEmpty(t, session.Identity.UID)
	assert.True(t, session.ExpiresAt.After(time.Now()))

	profile, err := f.Profiles.Get(ctx, session.Identity.UID)
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", profile.FullName)
	assert.False(t, profile.HasTeam())

	_, err = f.Auth.Register(ctx, RegisterInput{Email: "ada@example.com", Password: "another1"})
	assert.Equal(t, apperr.CodeEmailInUse, apperr.CodeOf(err))

	login, err := f.Auth.Login(ctx, "ADA@example.com", "hunter22")
	require.NoError(t, err)
	assert.Equal(t, session.Identity.UID, login.Identity.UID)

	id, err := f.Auth.Verify(ctx, login.Token)
	require.NoError(t, err)
	assert.Equal(t, session.Identity, id)

	require.NoError(t, f.Auth.Logout(ctx, login.Token))
	_, err = f.Auth.Verify(ctx, login.Token)
	assert.Equal(t, apperr.CodeUnauthenticated, apperr.CodeOf(err))

	// Other sessions survive.
	_, err = f.Auth.Verify(ctx, session.Token)
	assert.NoError(t, err)
}

func TestRegisterValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		input RegisterInput
		code  apperr.Code
	}{
		{"missing at", RegisterInput{Email: "ada.example.com", Password: "hunter22"}, apperr.CodeInvalidEmail},
		{"missing domain dot", RegisterInput{Email: "ada@localhost", Password: "hunter22"}, apperr.CodeInvalidEmail},
		{"display name form", RegisterInput{Email: "Ada <ada@example.com>", Password: "hunter22"}, apperr.CodeInvalidEmail},
		{"short password", RegisterInput{Email: "ada@example.com", Password: "abc"}, apperr.CodeWeakPassword},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.Auth.Register(ctx, tt.input)
			require.Error(t, err)
			assert.Equal(t, tt.code, apperr.CodeOf(err))
		})
	}
}

func TestLoginFailuresLookAlike(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.Auth.Register(ctx, RegisterInput{Email: "bob@example.com", Password: "secret1"})
	require.NoError(t, err)

	_, wrongPassword := f.Auth.Login(ctx, "bob@example.com", "secret2")
	_, unknown := f.Auth.Login(ctx, "nobody@example.com", "secret1")

	require.Error(t, wrongPassword)
	require.Error(t, unknown)
	assert.Equal(t, apperr.CodeWrongPassword, apperr.CodeOf(wrongPassword))
	assert.Equal(t, apperr.MessageOf(wrongPassword), apperr.MessageOf(unknown))
}

func TestVerifyRejectsForeignTokens(t *testing.T) {
	f := newFixture(t)

	claims := jwt.RegisteredClaims{
		ID:        "jti",
		Subject:   "u1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}
	otherKey, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("some-other-secret"))
	require.NoError(t, err)

	expiredClaims := claims
	expiredClaims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))
	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, expiredClaims).SignedString([]byte(testSecret))
	require.NoError(t, err)

	noExpiry, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{ID: "jti", Subject: "u1"}).
		SignedString([]byte(testSecret))
	require.NoError(t, err)

	for name, token := range map[string]string{
		"garbage":     "not-a-token",
		"other key":   otherKey,
		"expired":     expired,
		"no expiry":   noExpiry,
		"empty token": "",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := f.Auth.Verify(context.Background(), token)
			assert.Equal(t, apperr.CodeUnauthenticated, apperr.CodeOf(err))
		})
	}
}

func TestAuthWithoutStore(t *testing.T) {
	svc := New(Deps{}, AuthConfig{Secret: testSecret})

	_, err := svc.Auth.Register(context.Background(), RegisterInput{Email: "a@example.com", Password: "secret1"})
	assert.ErrorIs(t, err, apperr.ErrStoreUnavailable)
	_, err = svc.Auth.Login(context.Background(), "a@example.com", "secret1")
	assert.ErrorIs(t, err, apperr.ErrStoreUnavailable)
}

func TestLogoutRevokesOnEveryInstance(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	// A second server process sharing the same store.
	other := New(Deps{Store: f.store}, AuthConfig{Secret: testSecret, BcryptCost: bcrypt.MinCost})

	session, err := f.Auth.Register(ctx, RegisterInput{Email: "grace@example.com", Password: "cobol60"})
	require.NoError(t, err)
	_, err = other.Auth.Verify(ctx, session.Token)
	require.NoError(t, err)

	require.NoError(t, f.Auth.Logout(ctx, session.Token))
	_, err = other.Auth.Verify(ctx, session.Token)
	assert.Equal(t, apperr.CodeUnauthenticated, apperr.CodeOf(err))

	// Logging out twice is harmless.
	assert.NoError(t, other.Auth.Logout(ctx, session.Token))
}

func TestLogoutPurgesExpiredRevocations(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.store.Revocations().Revoke(ctx, &models.RevokedToken{
		ID: "stale", UserID: "u1", ExpiresAt: time.Now().Add(-time.Hour),
	}))

	session, err := f.Auth.Register(ctx, RegisterInput{Email: "linus@example.com", Password: "kernel1"})
	require.NoError(t, err)
	require.NoError(t, f.Auth.Logout(ctx, session.Token))

	stale, err := f.store.Revocations().IsRevoked(ctx, "stale")
	require.NoError(t, err)
	assert.False(t, stale)
	_, err = f.Auth.Verify(ctx, session.Token)
	assert.Equal(t, apperr.CodeUnauthenticated, apperr.CodeOf(err))
}

func TestLogoutWithoutStoreIsNoop(t *testing.T) {
	svc := New(Deps{}, AuthConfig{Secret: testSecret})
	session, err := svc.Auth.issue(Identity{UID: "u1", Email: "u1@example.com"})
	require.NoError(t, err)

	assert.NoError(t, svc.Auth.Logout(context.Background(), session.Token))
	_, err = svc.Auth.Verify(context.Background(), session.Token)
	assert.NoError(t, err)
}
