package memstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"teamup/apperr"
	"teamup/models"
	"teamup/store"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	s, err := New()
	require.NoError(t, err)
	return s
}

func TestAtomicRollsBackOnError(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := s.Atomic(ctx, func(tx store.Store) error {
		require.NoError(t, tx.Profiles().Create(ctx, &models.Profile{ID: "u1", FullName: "Una"}))
		_, err := tx.Profiles().Get(ctx, "u1")
		require.NoError(t, err, "writes are visible inside the transaction")
		return boom
	})
	require.ErrorIs(t, err, boom)

	_, err = s.Profiles().Get(ctx, "u1")
	assert.ErrorIs(t, err, apperr.ErrProfileNotFound)
}

func TestProfileMembershipUpdate(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	require.NoError(t, s.Profiles().Create(ctx, &models.Profile{ID: "u1", PrimaryRole: models.RoleTester}))
	require.NoError(t, s.Profiles().Create(ctx, &models.Profile{ID: "u2", PrimaryRole: models.RoleTester}))

	m := models.LeaderOf("t1")
	require.NoError(t, s.Profiles().Update(ctx, "u1", store.ProfileUpdate{Membership: &m}))

	p, err := s.Profiles().Get(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, p.TeamID)
	assert.Equal(t, "t1", *p.TeamID)
	assert.True(t, p.IsTeamLeader)

	unassigned, err := s.Profiles().List(ctx, store.ProfileFilter{Unassigned: true})
	require.NoError(t, err)
	require.Len(t, unassigned, 1)
	assert.Equal(t, "u2", unassigned[0].ID)

	// Returned values are copies.
	*p.TeamID = "mutated"
	again, err := s.Profiles().Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "t1", *again.TeamID)

	err = s.Profiles().Update(ctx, "ghost", store.ProfileUpdate{Membership: &m})
	assert.Equal(t, apperr.CodeNotFound, apperr.CodeOf(err))
}

func TestMembersRosterOrderAndUniqueness(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	team := &models.Team{Name: "Order", LeaderID: "a", MaxMembers: 3}
	require.NoError(t, s.Teams().Create(ctx, team))
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"c", "a", "b"} {
		require.NoError(t, s.Members().Add(ctx, &models.TeamMember{
			TeamID:   team.ID,
			UserID:   id,
			JoinedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	err := s.Members().Add(ctx, &models.TeamMember{TeamID: "other", UserID: "a"})
	assert.ErrorIs(t, err, apperr.ErrAlreadyInTeam)

	got, err := s.Teams().Get(ctx, team.ID)
	require.NoError(t, err)
	var order []string
	for _, m := range got.Members {
		order = append(order, m.UserID)
	}
	assert.Equal(t, []string{"c", "a", "b"}, order)
	assert.True(t, got.IsFull())

	n, err := s.Members().DeleteByTeam(ctx, team.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	count, err := s.Members().Count(ctx, team.ID)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestInvitationPendingPairIsUnique(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	first := &models.Invitation{FromUserID: "x", ToUserID: "l", TeamID: "t1", Type: models.InvitationJoinRequest}
	require.NoError(t, s.Invitations().Create(ctx, first))
	assert.Equal(t, models.InvitationPending, first.Status)
	assert.NotEmpty(t, first.ID)

	err := s.Invitations().Create(ctx, &models.Invitation{FromUserID: "x", ToUserID: "l", TeamID: "t1", Type: models.InvitationJoinRequest})
	assert.ErrorIs(t, err, apperr.ErrDuplicateRequest)

	// A different team is a different pair.
	require.NoError(t, s.Invitations().Create(ctx, &models.Invitation{FromUserID: "x", ToUserID: "m", TeamID: "t2", Type: models.InvitationJoinRequest}))

	now := time.Now().UTC()
	require.NoError(t, s.Invitations().Resolve(ctx, first.ID, models.InvitationRejected, now))
	err = s.Invitations().Resolve(ctx, first.ID, models.InvitationAccepted, now)
	assert.ErrorIs(t, err, apperr.ErrInvitationResolved)
	err = s.Invitations().Resolve(ctx, "missing", models.InvitationAccepted, now)
	assert.ErrorIs(t, err, apperr.ErrInvitationNotFound)

	// Once resolved, the pair may be requested again.
	require.NoError(t, s.Invitations().Create(ctx, &models.Invitation{FromUserID: "x", ToUserID: "l", TeamID: "t1", Type: models.InvitationJoinRequest}))

	pending, err := s.Invitations().List(ctx, store.InvitationFilter{FromUserID: "x", Status: models.InvitationPending})
	require.NoError(t, err)
	assert.Len(t, pending, 2)

	deleted, err := s.Invitations().DeleteByTeam(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, 2, deleted)
}

func TestNotificationsUnreadAndLimit(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	var ids []string
	for i := 0; i < 5; i++ {
		n := &models.Notification{ToUserID: "u1", Type: models.NotificationTeamUpdate, Read: true}
		require.NoError(t, s.Notifications().Create(ctx, n))
		assert.False(t, n.Read)
		ids = append(ids, n.ID)
	}

	require.NoError(t, s.Notifications().MarkRead(ctx, ids[0]))
	unread, err := s.Notifications().List(ctx, store.NotificationFilter{ToUserID: "u1", UnreadOnly: true})
	require.NoError(t, err)
	assert.Len(t, unread, 4)

	limited, err := s.Notifications().List(ctx, store.NotificationFilter{ToUserID: "u1", Limit: 2})
	require.NoError(t, err)
	assert.Len(t, limited, 2)

	changed, err := s.Notifications().MarkAllRead(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 4, changed)
	count, err := s.Notifications().CountUnread(ctx, "u1")
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestAccountEmailIsCaseInsensitive(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	require.NoError(t, s.Accounts().Create(ctx, &models.Account{Email: "ada@example.com", PasswordHash: "x"}))
	err := s.Accounts().Create(ctx, &models.Account{Email: "ADA@example.com", PasswordHash: "y"})
	assert.Equal(t, apperr.CodeEmailInUse, apperr.CodeOf(err))

	a, err := s.Accounts().GetByEmail(ctx, "Ada@Example.com")
	require.NoError(t, err)
	assert.Equal(t, "x", a.PasswordHash)
}

func TestRevocations(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	live := &models.RevokedToken{ID: "live", UserID: "u1", ExpiresAt: now.Add(time.Hour), RevokedAt: now}
	require.NoError(t, s.Revocations().Revoke(ctx, live))
	require.NoError(t, s.Revocations().Revoke(ctx, live), "revoking twice is idempotent")
	require.NoError(t, s.Revocations().Revoke(ctx, &models.RevokedToken{ID: "old", UserID: "u1", ExpiresAt: now.Add(-time.Hour)}))

	revoked, err := s.Revocations().IsRevoked(ctx, "live")
	require.NoError(t, err)
	assert.True(t, revoked)
	revoked, err = s.Revocations().IsRevoked(ctx, "never")
	require.NoError(t, err)
	assert.False(t, revoked)

	n, err := s.Revocations().PurgeExpired(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	revoked, err = s.Revocations().IsRevoked(ctx, "old")
	require.NoError(t, err)
	assert.False(t, revoked)
	revoked, err = s.Revocations().IsRevoked(ctx, "live")
	require.NoError(t, err)
	assert.True(t, revoked)
}
