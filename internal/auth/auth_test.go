package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/cms-backend/internal/apperr"
	"github.com/iliyamo/cms-backend/internal/utils"
)

func TestBearerToken(t *testing.T) {
	cases := []struct {
		header string
		want   string
		ok     bool
	}{
		{"Bearer abc", "abc", true},
		{"bearer abc", "abc", true},
		{"BEARER   abc  ", "abc", true},
		{"Basic abc", "", false},
		{"Bearer", "", false},
		{"Bearer   ", "", false},
		{"", "", false},
		{"abc", "", false},
	}
	for _, tc := range cases {
		got, ok := BearerToken(tc.header)
		assert.Equal(t, tc.ok, ok, tc.header)
		assert.Equal(t, tc.want, got, tc.header)
	}
}

func TestTokens_IssueAndVerify(t *testing.T) {
	tok := NewTokens("secret")
	raw, err := tok.Issue(Identity{UserID: 3, Username: "bob", Role: "author"})
	require.NoError(t, err)

	id, err := tok.Verify(raw)
	require.NoError(t, err)
	assert.Equal(t, &Identity{UserID: 3, Username: "bob", Role: "author"}, id)
}

func TestTokens_ExpiredAfterSevenDays(t *testing.T) {
	tok := NewTokens("secret")
	tok.now = func() time.Time { return time.Now().Add(-utils.SessionTTL - time.Minute) }
	raw, err := tok.Issue(Identity{UserID: 3, Username: "bob", Role: "author"})
	require.NoError(t, err)

	_, err = NewTokens("secret").Verify(raw)
	assert.True(t, apperr.Is(err, apperr.InvalidSession))
}

func TestTokens_MissingSecret(t *testing.T) {
	tok := NewTokens("")
	_, err := tok.Issue(Identity{UserID: 1})
	assert.True(t, apperr.Is(err, apperr.ServerMisconfigured))

	_, err = tok.Verify("x.y.z")
	assert.True(t, apperr.Is(err, apperr.ServerMisconfigured))
}

func TestResolver_Required(t *testing.T) {
	tok := NewTokens("secret")
	raw, err := tok.Issue(Identity{UserID: 9, Username: "carol", Role: "author"})
	require.NoError(t, err)
	r := NewResolver(tok)

	id, err := r.Required("Bearer " + raw)
	require.NoError(t, err)
	assert.Equal(t, uint64(9), id.UserID)

	_, err = r.Required("")
	assert.True(t, apperr.Is(err, apperr.Unauthenticated))

	_, err = r.Required("Token " + raw)
	assert.True(t, apperr.Is(err, apperr.Unauthenticated))

	_, err = r.Required("Bearer garbage")
	assert.True(t, apperr.Is(err, apperr.InvalidSession))

	other, err := NewTokens("other").Issue(Identity{UserID: 9})
	require.NoError(t, err)
	_, err = r.Required("Bearer " + other)
	assert.True(t, apperr.Is(err, apperr.InvalidSession))

	_, err = NewResolver(NewTokens("")).Required("Bearer " + raw)
	assert.True(t, apperr.Is(err, apperr.ServerMisconfigured))
}

func TestResolver_OptionalCollapsesFailures(t *testing.T) {
	tok := NewTokens("secret")
	raw, err := tok.Issue(Identity{UserID: 9, Username: "carol", Role: "author"})
	require.NoError(t, err)

	r := NewResolver(tok)
	assert.NotNil(t, r.Optional("Bearer "+raw))
	assert.Nil(t, r.Optional(""))
	assert.Nil(t, r.Optional("Bearer garbage"))
	assert.Nil(t, NewResolver(NewTokens("")).Optional("Bearer "+raw))
}

func TestAdminGate(t *testing.T) {
	cases := []struct {
		name     string
		password string
		open     bool
		provided string
		want     bool
	}{
		{"unset fail-open", "", true, "", true},
		{"unset fail-open any value", "", true, "guess", true},
		{"unset fail-closed", "", false, "", false},
		{"unset fail-closed any value", "", false, "guess", false},
		{"set exact match", "pw", true, "pw", true},
		{"set mismatch", "pw", true, "pW", false},
		{"set empty provided", "pw", true, "", false},
		{"set prefix", "pw", true, "p", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			g := NewAdminGate(tc.password, tc.open)
			assert.Equal(t, tc.want, g.Allow(tc.provided))
		})
	}
	assert.True(t, NewAdminGate("", true).Open())
	assert.False(t, NewAdminGate("pw", true).Open())
}

func TestAdminGateOverrideNeverFailsOpen(t *testing.T) {
	assert.False(t, NewAdminGate("", true).Override(""))
	assert.False(t, NewAdminGate("", true).Override("guess"))
	assert.False(t, NewAdminGate("", false).Override(""))
	assert.True(t, NewAdminGate("pw", true).Override("pw"))
	assert.False(t, NewAdminGate("pw", true).Override("pW"))
	assert.False(t, NewAdminGate("pw", false).Override(""))
}
