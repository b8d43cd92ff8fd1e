package access

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestResolve(t *testing.T) {
	_, err := Resolve(context.Background())
	require.ErrorIs(t, err, ErrUnauthenticated)

	_, err = Resolve(WithIdentity(context.Background(), uuid.Nil))
	require.ErrorIs(t, err, ErrUnauthenticated)

	id := uuid.New()
	got, err := Resolve(WithIdentity(context.Background(), id))
	require.NoError(t, err)
	require.Equal(t, id, got)
}

func TestGate_IssueAndVerify(t *testing.T) {
	g := NewGate("secret", time.Hour)
	id := uuid.New()

	token, err := g.Issue(id)
	require.NoError(t, err)

	got, err := g.Verify(token)
	require.NoError(t, err)
	require.Equal(t, id, got)
}

func TestGate_VerifyWithExpiry(t *testing.T) {
	issued := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	g := NewGate("secret", 90*time.Minute)
	g.now = func() time.Time { return issued }
	id := uuid.New()

	token, err := g.Issue(id)
	require.NoError(t, err)

	got, expiresAt, err := g.VerifyWithExpiry(token)
	require.NoError(t, err)
	require.Equal(t, id, got)
	require.True(t, expiresAt.Equal(issued.Add(90*time.Minute)))

	_, _, err = g.VerifyWithExpiry("garbage")
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestGate_RejectsBadTokens(t *testing.T) {
	g := NewGate("secret", time.Hour)
	id := uuid.New()

	otherSecret, err := NewGate("other", time.Hour).Issue(id)
	require.NoError(t, err)

	expired := NewGate("secret", time.Hour)
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	expiredToken, err := expired.Issue(id)
	require.NoError(t, err)

	noExpiry, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: id.String()}).
		SignedString([]byte("secret"))
	require.NoError(t, err)

	badSubject, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "not-a-uuid",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte("secret"))
	require.NoError(t, err)

	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.RegisteredClaims{
		Subject:   id.String(),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte("secret"))
	require.NoError(t, err)

	for name, token := range map[string]string{
		"garbage":      "not.a.token",
		"other secret": otherSecret,
		"expired":      expiredToken,
		"no expiry":    noExpiry,
		"bad subject":  badSubject,
		"wrong alg":    hs512,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := g.Verify(token)
			require.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}
