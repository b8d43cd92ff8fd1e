// Package access resolves the identity behind every request. Transports
// verify a bearer token with Gate and bind the identity to the context;
// services read it back with Resolve.
package access

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrInvalidToken    = errors.New("invalid or expired token")
)

type identityKey struct{}

func WithIdentity(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// Resolve returns the identity bound to ctx or ErrUnauthenticated.
func Resolve(ctx context.Context) (uuid.UUID, error) {
	id, ok := ctx.Value(identityKey{}).(uuid.UUID)
	if !ok || id == uuid.Nil {
		return uuid.Nil, ErrUnauthenticated
	}
	return id, nil
}

// Gate issues and verifies HS256 access tokens whose subject is the identity.
type Gate struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewGate(secret string, ttl time.Duration) *Gate {
	return &Gate{secret: []byte(secret), ttl: ttl, now: time.Now}
}

func (g *Gate) Issue(id uuid.UUID) (string, error) {
	now := g.now()
	claims := jwt.RegisteredClaims{
		Subject:   id.String(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(g.ttl)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(g.secret)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}

func (g *Gate) Verify(tokenStr string) (uuid.UUID, error) {
	id, _, err := g.VerifyWithExpiry(tokenStr)
	return id, err
}

// VerifyWithExpiry also returns when the token stops being valid, for
// transports that keep a connection open past a single request.
func (g *Gate) VerifyWithExpiry(tokenStr string) (uuid.UUID, time.Time, error) {
	var claims jwt.RegisteredClaims
	token, err := jwt.ParseWithClaims(tokenStr, &claims, func(t *jwt.Token) (any, error) {
		return g.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(g.now),
	)
	if err != nil || !token.Valid {
		return uuid.Nil, time.Time{}, ErrInvalidToken
	}

	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, time.Time{}, ErrInvalidToken
	}
	return id, claims.ExpiresAt.Time, nil
}
