package utils

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionToken_RoundTrip(t *testing.T) {
	now := time.Now()
	raw, exp, err := NewSessionToken("secret", 7, "alice", "author", now)
	require.NoError(t, err)
	assert.WithinDuration(t, now.Add(SessionTTL), exp, time.Second)

	claims, err := ParseSessionToken("secret", raw)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), claims.UserID)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, "author", claims.Role)
}

func TestSessionToken_NoSecret(t *testing.T) {
	_, _, err := NewSessionToken("", 1, "a", "author", time.Now())
	assert.ErrorIs(t, err, ErrNoSecret)

	_, err = ParseSessionToken("", "whatever")
	assert.ErrorIs(t, err, ErrNoSecret)
}

func TestParseSessionToken_Rejects(t *testing.T) {
	valid, _, err := NewSessionToken("secret", 1, "alice", "author", time.Now())
	require.NoError(t, err)

	expired, _, err := NewSessionToken("secret", 1, "alice", "author", time.Now().Add(-8*24*time.Hour))
	require.NoError(t, err)

	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, SessionClaims{
		UserID:           1,
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	}).SignedString([]byte("secret"))
	require.NoError(t, err)

	other, _, err := NewSessionToken("secret", 2, "mallory", "author", time.Now())
	require.NoError(t, err)
	vp, op := strings.Split(valid, "."), strings.Split(other, ".")
	tampered := vp[0] + "." + op[1] + "." + vp[2]

	noExp, err := jwt.NewWithClaims(jwt.SigningMethodHS256, SessionClaims{UserID: 1}).SignedString([]byte("secret"))
	require.NoError(t, err)

	cases := map[string]struct {
		secret string
		raw    string
	}{
		"wrong secret":  {"other", valid},
		"expired":       {"secret", expired},
		"tampered":      {"secret", tampered},
		"other alg":     {"secret", hs512},
		"missing exp":   {"secret", noExp},
		"not a token":   {"secret", "abc.def"},
		"empty payload": {"secret", ""},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseSessionToken(tc.secret, tc.raw)
			assert.Error(t, err)
		})
	}
}

func TestPassword_HashAndVerify(t *testing.T) {
	h, err := HashPassword("hunter22", 4)
	require.NoError(t, err)
	assert.NotEqual(t, "hunter22", h)
	assert.True(t, VerifyPassword(h, "hunter22"))
	assert.False(t, VerifyPassword(h, "hunter23"))

	BurnPasswordCheck("anything")
}
