package infra

import (
	"context"
	"testing"
	"time"

	"authgate/middleware/gate/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestJWTSessions_IssueAndResolve(t *testing.T) {
	s, err := NewJWTSessions(testSecret)
	require.NoError(t, err)

	tok, err := s.Issue(domain.Caller{
		ID:        "u1",
		SessionID: "s1",
		Requester: domain.RequesterBot,
		Flags:     domain.FlagStaff | domain.FlagVerifiedBot,
	})
	require.NoError(t, err)

	c, err := s.Resolve(context.Background(), tok)
	require.NoError(t, err)
	assert.Equal(t, "u1", c.ID)
	assert.Equal(t, "s1", c.SessionID)
	assert.True(t, c.Authenticated)
	assert.Equal(t, domain.RequesterBot, c.Requester)
	assert.Equal(t, domain.FlagStaff|domain.FlagVerifiedBot, c.Flags)
	assert.True(t, c.LoggedIn(time.Now()))
}

func TestJWTSessions_RejectsExpiredToken(t *testing.T) {
	clock := newFakeClock()
	s, err := NewJWTSessions(testSecret, WithSessionClock(clock.Now), WithSessionTTL(time.Minute))
	require.NoError(t, err)

	tok, err := s.Issue(domain.Caller{ID: "u1"})
	require.NoError(t, err)

	clock.Advance(2 * time.Minute)
	_, err = s.Resolve(context.Background(), tok)
	require.ErrorIs(t, err, domain.ErrInvalidSession)
}

func TestJWTSessions_RejectsForeignSignatureAndIssuer(t *testing.T) {
	s, err := NewJWTSessions(testSecret)
	require.NoError(t, err)

	other, err := NewJWTSessions("another-secret-with-16+bytes")
	require.NoError(t, err)
	tok, err := other.Issue(domain.Caller{ID: "u1"})
	require.NoError(t, err)

	_, err = s.Resolve(context.Background(), tok)
	require.ErrorIs(t, err, domain.ErrInvalidSession)

	foreign, err := NewJWTSessions(testSecret, WithIssuer("someone-else"))
	require.NoError(t, err)
	tok, err = foreign.Issue(domain.Caller{ID: "u1"})
	require.NoError(t, err)

	_, err = s.Resolve(context.Background(), tok)
	require.ErrorIs(t, err, domain.ErrInvalidSession)

	_, err = s.Resolve(context.Background(), "")
	require.ErrorIs(t, err, domain.ErrInvalidSession)
}

func TestNewJWTSessions_RequiresLongSecret(t *testing.T) {
	_, err := NewJWTSessions("short")
	require.Error(t, err)
}
