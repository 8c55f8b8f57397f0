package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssuePairAndParse(t *testing.T) {
	tm := NewTokenManager("test-secret", time.Minute, time.Hour)

	pair, err := tm.IssuePair(42)
	require.NoError(t, err)
	assert.NotEqual(t, pair.Access, pair.Refresh)

	claims, err := tm.Parse(pair.Access, TokenTypeAccess)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.UserID)
	assert.NotEmpty(t, claims.ID)

	refresh, err := tm.Parse(pair.Refresh, TokenTypeRefresh)
	require.NoError(t, err)
	assert.InDelta(t, time.Hour.Seconds(), refresh.Remaining(time.Now()).Seconds(), 5)
}

func TestParseRejectsWrongType(t *testing.T) {
	tm := NewTokenManager("test-secret", time.Minute, time.Hour)
	pair, err := tm.IssuePair(1)
	require.NoError(t, err)

	_, err = tm.Parse(pair.Refresh, TokenTypeAccess)
	assert.ErrorIs(t, err, ErrWrongTokenType)
}

func TestParseRejectsForeignSignatureAndExpiry(t *testing.T) {
	issuer := NewTokenManager("secret-a", time.Minute, time.Hour)
	token, err := issuer.Issue(1, TokenTypeAccess)
	require.NoError(t, err)

	_, err = NewTokenManager("secret-b", time.Minute, time.Hour).Parse(token, TokenTypeAccess)
	assert.Error(t, err)

	issuer.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	expired, err := issuer.Issue(1, TokenTypeAccess)
	require.NoError(t, err)
	_, err = NewTokenManager("secret-a", time.Minute, time.Hour).Parse(expired, TokenTypeAccess)
	assert.Error(t, err)
}
