package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerifyRoundTrip(t *testing.T) {
	v := NewVerifier("secret")
	token, err := v.Issue("u1", "admin", time.Minute)
	require.NoError(t, err)

	id, err := v.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, Identity{UserID: "u1", Role: "admin"}, id)
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	token, err := NewVerifier("other").Issue("u1", "", time.Minute)
	require.NoError(t, err)

	_, err = NewVerifier("secret").Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejectsExpired(t *testing.T) {
	v := NewVerifier("secret")
	token, err := v.Issue("u1", "", -time.Minute)
	require.NoError(t, err)

	_, err = v.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyFallsBackToSubject(t *testing.T) {
	claims := jwt.RegisteredClaims{Subject: "u9", ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute))}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	require.NoError(t, err)

	id, err := NewVerifier("secret").Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "u9", id.UserID)
}

func TestVerifyMissing(t *testing.T) {
	_, err := NewVerifier("secret").Verify("")
	assert.ErrorIs(t, err, ErrMissingToken)
}

func TestBearerToken(t *testing.T) {
	assert.Equal(t, "abc", BearerToken("Bearer abc"))
	assert.Equal(t, "abc", BearerToken("bearer abc"))
	assert.Equal(t, "", BearerToken("abc"))
	assert.Equal(t, "", BearerToken(""))
}
