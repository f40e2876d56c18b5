package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olekventi/chatly/internal/apperr"
	"github.com/olekventi/chatly/internal/model"
)

func deviceN(n string) model.SessionContext {
	return model.SessionContext{IP: "10.0.0." + n, UserAgent: "tests", Fingerprint: "fp-" + n}
}

func TestIssueCapWipesAllSessions(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	const userID = 42

	for _, n := range []string{"1", "2", "3"} {
		_, err := env.tokens.Issue(ctx, userID, deviceN(n), false)
		require.NoError(t, err)
	}
	count, _ := env.sessions.Count(ctx, userID)
	require.Equal(t, env.cfg.MaxRefreshSessions, count)

	// At the cap the next issuance wipes every prior session, leaving
	// exactly the new one. Full eviction, not oldest-first.
	pair, err := env.tokens.Issue(ctx, userID, deviceN("4"), false)
	require.NoError(t, err)

	count, _ = env.sessions.Count(ctx, userID)
	assert.Equal(t, 1, count)
	row, err := env.sessions.Find(ctx, userID, deviceN("4"), pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, pair.RefreshToken, row.RefreshToken)
}

func TestIssueRememberMeExtendsSession(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	pair, err := env.tokens.Issue(ctx, 7, deviceN("1"), true)
	require.NoError(t, err)
	row, err := env.sessions.Find(ctx, 7, deviceN("1"), pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, env.cfg.LongRefreshTTL, row.ExpiresIn)
}

func TestRefreshDemandsExactTuple(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	sc := deviceN("1")

	pair, err := env.tokens.Issue(ctx, 7, sc, false)
	require.NoError(t, err)

	// Altering any single binding attribute rejects the refresh even
	// though the token itself is structurally valid.
	for name, altered := range map[string]model.SessionContext{
		"ip":          {IP: "changed", UserAgent: sc.UserAgent, Fingerprint: sc.Fingerprint},
		"user agent":  {IP: sc.IP, UserAgent: "changed", Fingerprint: sc.Fingerprint},
		"fingerprint": {IP: sc.IP, UserAgent: sc.UserAgent, Fingerprint: "changed"},
	} {
		_, err := env.tokens.Refresh(ctx, 7, pair.RefreshToken, altered)
		assert.True(t, apperr.IsKey(err, apperr.InvalidRefreshSession), "altered %s", name)
	}

	// A different token on the right device is rejected the same way.
	_, err = env.tokens.Refresh(ctx, 7, "some-other-token", sc)
	assert.True(t, apperr.IsKey(err, apperr.InvalidRefreshSession))

	// The exact tuple succeeds and mints a new pair.
	next, err := env.tokens.Refresh(ctx, 7, pair.RefreshToken, sc)
	require.NoError(t, err)
	assert.NotEqual(t, pair.RefreshToken, next.RefreshToken)
}

func TestRefreshExpiredSession(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	sc := deviceN("1")

	pair, err := env.tokens.Issue(ctx, 7, sc, false)
	require.NoError(t, err)

	env.now = env.now.Add(env.cfg.RefreshTTL + time.Second)
	_, err = env.tokens.Refresh(ctx, 7, pair.RefreshToken, sc)
	assert.True(t, apperr.IsKey(err, apperr.SessionExpired))
}

func TestRevokeIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	sc := deviceN("1")

	pair, err := env.tokens.Issue(ctx, 7, sc, false)
	require.NoError(t, err)

	require.NoError(t, env.tokens.Revoke(ctx, 7, sc, pair.RefreshToken))
	count, _ := env.sessions.Count(ctx, 7)
	assert.Zero(t, count)

	// Revoking again is not an error.
	assert.NoError(t, env.tokens.Revoke(ctx, 7, sc, pair.RefreshToken))
}

func TestClientTokenIssuance(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	clients := &memClients{}
	issuerSvc := NewClientService(env.cfg, env.tokens.issuer, clients)
	issuerSvc.now = func() time.Time { return env.now }

	clientID, token, err := issuerSvc.IssueToken(ctx, deviceN("1"))
	require.NoError(t, err)
	assert.NotEmpty(t, clientID)
	require.Len(t, clients.sessions, 1)
	assert.Equal(t, clientID, clients.sessions[0].ClientID)
	assert.Equal(t, env.now, clients.sessions[0].CreatedAt)

	claims, err := env.tokens.issuer.ParseClient(token)
	require.NoError(t, err)
	assert.Equal(t, clientID, claims.ClientID)

	// A client token never validates as a user access token.
	_, err = env.tokens.issuer.ParseAccess(token)
	assert.Error(t, err)
}
