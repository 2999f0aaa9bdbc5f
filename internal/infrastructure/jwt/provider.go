package jwtinfra

import (
	"errors"
	"time"

	"github.com/go-user-api/internal/config"
	"github.com/go-user-api/internal/domain"
	"github.com/golang-jwt/jwt/v5"
)

// Claims holds the JWT payload: the user record as it was at issuance.
// PasswordHash is never serialized (json:"-" on the domain type).
type Claims struct {
	User *domain.User `json:"user"`
	jwt.RegisteredClaims
}

// Provider signs and verifies HS256 JWTs with a server-held secret.
type Provider struct {
	secret []byte
	expiry time.Duration
}

func NewProvider(cfg *config.Config) (*Provider, error) {
	if cfg.TokenSecret == "" {
		return nil, errors.New("TOKEN_SECRET not configured")
	}
	return &Provider{secret: []byte(cfg.TokenSecret), expiry: cfg.TokenExpiry}, nil
}

func (p *Provider) Sign(u *domain.User) (string, error) {
	claims := Claims{
		User: u,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.UserID,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(p.expiry)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(p.secret)
}

func (p *Provider) Verify(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return p.secret, nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.User == nil {
		return nil, errors.New("invalid token claims")
	}
	return claims, nil
}
