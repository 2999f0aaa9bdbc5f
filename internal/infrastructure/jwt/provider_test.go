package jwtinfra

import (
	"testing"
	"time"

	"github.com/go-user-api/internal/config"
	"github.com/go-user-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestProvider(t *testing.T, secret string, expiry time.Duration) *Provider {
	t.Helper()
	p, err := NewProvider(&config.Config{TokenSecret: secret, TokenExpiry: expiry})
	require.NoError(t, err)
	return p
}

func TestNewProvider_MissingSecret(t *testing.T) {
	_, err := NewProvider(&config.Config{TokenSecret: ""})
	require.Error(t, err)
}

func TestSignVerify_RoundTrip(t *testing.T) {
	p := newTestProvider(t, "test-secret", 24*time.Hour)
	u := &domain.User{
		UserID:       "u1",
		Email:        "a@x.com",
		PasswordHash: "$2a$10$should-never-leave-the-server",
		FirstName:    "A",
		LastName:     "B",
		Country:      "US",
		IsVerified:   true,
	}

	token, err := p.Sign(u)
	require.NoError(t, err)

	claims, err := p.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.User.UserID)
	assert.Equal(t, "a@x.com", claims.User.Email)
	assert.Equal(t, "u1", claims.Subject)
	// PasswordHash is json:"-" so it never survives the claims round trip.
	assert.Empty(t, claims.User.PasswordHash)
}

func TestVerify_ExpiredToken(t *testing.T) {
	p := newTestProvider(t, "test-secret", -time.Hour)
	token, err := p.Sign(&domain.User{UserID: "u1"})
	require.NoError(t, err)

	_, err = p.Verify(token)
	require.Error(t, err)
}

func TestVerify_WrongSecret(t *testing.T) {
	p1 := newTestProvider(t, "secret-one", time.Hour)
	p2 := newTestProvider(t, "secret-two", time.Hour)

	token, err := p1.Sign(&domain.User{UserID: "u1"})
	require.NoError(t, err)

	_, err = p2.Verify(token)
	require.Error(t, err)
}

func TestVerify_Garbage(t *testing.T) {
	p := newTestProvider(t, "test-secret", time.Hour)
	_, err := p.Verify("not-a-jwt")
	require.Error(t, err)
}
