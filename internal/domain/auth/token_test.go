package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

func TestTokenIssuer_RoundTrip(t *testing.T) {
	issuer, err := NewTokenIssuer(testSecret, time.Hour)
	require.NoError(t, err)

	token, err := issuer.Issue(&User{ID: "u1", Email: "a@example.com", Role: RoleAdmin})
	require.NoError(t, err)

	claims, err := issuer.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, &Claims{UserID: "u1", Email: "a@example.com", Role: RoleAdmin}, claims)
}

func TestTokenIssuer_Rejects(t *testing.T) {
	issuer, err := NewTokenIssuer(testSecret, time.Hour)
	require.NoError(t, err)
	u := &User{ID: "u1", Email: "a@example.com", Role: RoleCustomer}

	t.Run("Expired", func(t *testing.T) {
		token, err := issuer.Issue(u)
		require.NoError(t, err)

		later := *issuer
		later.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
		_, err = later.Verify(token)
		require.ErrorIs(t, err, ErrInvalidToken)
	})
	t.Run("OtherSecret", func(t *testing.T) {
		other, err := NewTokenIssuer([]byte("another-secret-of-32-bytes-long!"), time.Hour)
		require.NoError(t, err)
		token, err := other.Issue(u)
		require.NoError(t, err)

		_, err = issuer.Verify(token)
		require.ErrorIs(t, err, ErrInvalidToken)
	})
	t.Run("NoneAlgorithm", func(t *testing.T) {
		token, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
			Subject:   "u1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		}).SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		_, err = issuer.Verify(token)
		require.ErrorIs(t, err, ErrInvalidToken)
	})
	t.Run("Garbage", func(t *testing.T) {
		_, err := issuer.Verify("not.a.token")
		require.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestNewTokenIssuer_ShortSecret(t *testing.T) {
	_, err := NewTokenIssuer([]byte("short"), 0)
	require.Error(t, err)

	issuer, err := NewTokenIssuer(testSecret, 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultTokenTTL, issuer.ttl)
}
