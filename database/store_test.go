package database

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"teamup/apperr"
	"teamup/config"
	"teamup/models"
	"teamup/store"
)

// testDB connects to the database named by TEST_DATABASE_URL, migrates it
// and empties every table. Packages sharing the database run with go test -p 1.
func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("integration test. Requires PostgreSQL at TEST_DATABASE_URL")
	}

	db, err := Connect(config.DatabaseConfig{URL: url, MaxIdleConns: 5, MaxOpenConns: 20}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = Close(db) })
	require.NoError(t, RunMigrations(db, zap.NewNop()))
	require.NoError(t, Truncate(db))
	return db
}

func newTeam(t *testing.T, s *Store, leaderID string) *models.Team {
	t.Helper()
	team := &models.Team{Name: "Team " + leaderID, LeaderID: leaderID, MaxMembers: 4, RolesNeeded: []string{}}
	require.NoError(t, s.Teams().Create(context.Background(), team))
	return team
}

func TestAtomicRollsBackOnError(t *testing.T) {
	s := NewStore(testDB(t))
	ctx := context.Background()
	boom := errors.New("boom")

	err := s.Atomic(ctx, func(tx store.Store) error {
		require.NoError(t, tx.Profiles().Create(ctx, &models.Profile{ID: "u1", FullName: "Una", Skills: []models.Skill{}}))
		_, err := tx.Profiles().Get(ctx, "u1")
		require.NoError(t, err, "writes are visible inside the transaction")
		return boom
	})
	require.ErrorIs(t, err, boom)

	_, err = s.Profiles().Get(ctx, "u1")
	assert.ErrorIs(t, err, apperr.ErrProfileNotFound)
}

func TestProfileMembershipWritesNull(t *testing.T) {
	s := NewStore(testDB(t))
	ctx := context.Background()

	require.NoError(t, s.Profiles().Create(ctx, &models.Profile{ID: "u1", FullName: "Una", Skills: []models.Skill{}}))
	lead := models.LeaderOf("t1")
	require.NoError(t, s.Profiles().Update(ctx, "u1", store.ProfileUpdate{Membership: &lead}))

	name := "Una B."
	require.NoError(t, s.Profiles().Update(ctx, "u1", store.ProfileUpdate{FullName: &name}))
	p, err := s.Profiles().Get(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, p.TeamID, "a field update leaves membership alone")
	assert.Equal(t, "t1", *p.TeamID)
	assert.True(t, p.IsTeamLeader)
	assert.Equal(t, "Una B.", p.FullName)

	none := models.NoTeam()
	require.NoError(t, s.Profiles().Update(ctx, "u1", store.ProfileUpdate{Membership: &none}))
	p, err = s.Profiles().Get(ctx, "u1")
	require.NoError(t, err)
	assert.Nil(t, p.TeamID)
	assert.False(t, p.IsTeamLeader)

	unassigned, err := s.Profiles().List(ctx, store.ProfileFilter{Unassigned: true})
	require.NoError(t, err)
	require.Len(t, unassigned, 1)
	assert.Equal(t, "u1", unassigned[0].ID)

	err = s.Profiles().Update(ctx, "ghost", store.ProfileUpdate{Membership: &none})
	assert.ErrorIs(t, err, apperr.ErrProfileNotFound)
}

func TestMemberUniqueness(t *testing.T) {
	db := testDB(t)
	s := NewStore(db)
	ctx := context.Background()

	t1, t2 := newTeam(t, s, "a"), newTeam(t, s, "b")
	require.NoError(t, s.Members().Add(ctx, &models.TeamMember{TeamID: t1.ID, UserID: "u1"}))
	require.NoError(t, s.Members().Add(ctx, &models.TeamMember{TeamID: t1.ID, UserID: "u2"}))

	err := s.Members().Add(ctx, &models.TeamMember{TeamID: t2.ID, UserID: "u1"})
	assert.ErrorIs(t, err, apperr.ErrAlreadyInTeam)

	// The unique index backs the check for inserts that race past it.
	err = db.Create(&models.TeamMember{TeamID: t2.ID, UserID: "u1", JoinedAt: time.Now()}).Error
	assert.True(t, isDuplicate(err), "got %v", err)

	n, err := s.Members().Count(ctx, t1.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	got, err := s.Teams().Get(ctx, t1.ID)
	require.NoError(t, err)
	require.Len(t, got.Members, 2)
	assert.Equal(t, "u1", got.Members[0].UserID)
	assert.Equal(t, "u2", got.Members[1].UserID)

	err = s.Members().Remove(ctx, t1.ID, "nobody")
	assert.Equal(t, apperr.CodeNotFound, apperr.CodeOf(err))
}

func TestPendingPairIndex(t *testing.T) {
	db := testDB(t)
	s := NewStore(db)
	ctx := context.Background()

	pending := func() *models.Invitation {
		return &models.Invitation{
			TeamID: "t1", FromUserID: "x", ToUserID: "l", JoiningUserID: "x",
			Type: models.InvitationJoinRequest,
		}
	}
	first := pending()
	require.NoError(t, s.Invitations().Create(ctx, first))
	assert.ErrorIs(t, s.Invitations().Create(ctx, pending()), apperr.ErrDuplicateRequest)

	raw := pending()
	raw.ID, raw.Status = "raw", models.InvitationPending
	err := db.Create(raw).Error
	assert.True(t, isDuplicate(err), "got %v", err)

	now := time.Now().UTC()
	require.NoError(t, s.Invitations().Resolve(ctx, first.ID, models.InvitationRejected, now))
	require.NoError(t, s.Invitations().Create(ctx, pending()), "a resolved pair may be requested again")
}

func TestResolveIsConditional(t *testing.T) {
	s := NewStore(testDB(t))
	ctx := context.Background()
	now := time.Now().UTC()

	inv := &models.Invitation{
		TeamID: "t1", FromUserID: "l", ToUserID: "x", JoiningUserID: "x",
		Type: models.InvitationInvite,
	}
	require.NoError(t, s.Invitations().Create(ctx, inv))

	require.NoError(t, s.Invitations().Resolve(ctx, inv.ID, models.InvitationAccepted, now))
	err := s.Invitations().Resolve(ctx, inv.ID, models.InvitationRejected, now)
	assert.ErrorIs(t, err, apperr.ErrInvitationResolved)
	err = s.Invitations().Resolve(ctx, "missing", models.InvitationAccepted, now)
	assert.ErrorIs(t, err, apperr.ErrInvitationNotFound)

	got, err := s.Invitations().Get(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, models.InvitationAccepted, got.Status)
	require.NotNil(t, got.RespondedAt)
}

func TestConcurrentCreatesHitPendingPairIndex(t *testing.T) {
	s := NewStore(testDB(t))
	ctx := context.Background()

	const writers = 12
	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		errs  []error
		start = make(chan struct{})
	)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			err := s.Atomic(ctx, func(tx store.Store) error {
				return tx.Invitations().Create(ctx, &models.Invitation{
					TeamID: "t1", FromUserID: "x", ToUserID: "l", JoiningUserID: "x",
					Type: models.InvitationJoinRequest,
				})
			})
			mu.Lock()
			errs = append(errs, err)
			mu.Unlock()
		}()
	}
	close(start)
	wg.Wait()

	var created int
	for _, err := range errs {
		if err == nil {
			created++
			continue
		}
		assert.ErrorIs(t, err, apperr.ErrDuplicateRequest)
	}
	assert.Equal(t, 1, created)

	list, err := s.Invitations().List(ctx, store.InvitationFilter{FromUserID: "x", Status: models.InvitationPending})
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestTeamRowLockSerializesTransactions(t *testing.T) {
	s := NewStore(testDB(t))
	ctx := context.Background()
	team := newTeam(t, s, "a")

	locked := make(chan struct{})
	var releasedAt, acquiredAt time.Time
	done := make(chan error, 1)

	go func() {
		done <- s.Atomic(ctx, func(tx store.Store) error {
			if _, err := tx.Teams().Get(ctx, team.ID); err != nil {
				return err
			}
			close(locked)
			time.Sleep(200 * time.Millisecond)
			releasedAt = time.Now()
			return nil
		})
	}()

	<-locked
	err := s.Atomic(ctx, func(tx store.Store) error {
		_, err := tx.Teams().Get(ctx, team.ID)
		acquiredAt = time.Now()
		return err
	})
	require.NoError(t, err)
	require.NoError(t, <-done)
	assert.True(t, acquiredAt.After(releasedAt), "second transaction read the team before the first committed")
}

func TestRevocations(t *testing.T) {
	s := NewStore(testDB(t))
	ctx := context.Background()
	now := time.Now().UTC()

	live := &models.RevokedToken{ID: "live", UserID: "u1", ExpiresAt: now.Add(time.Hour), RevokedAt: now}
	require.NoError(t, s.Revocations().Revoke(ctx, live))
	require.NoError(t, s.Revocations().Revoke(ctx, live), "revoking twice is idempotent")
	require.NoError(t, s.Revocations().Revoke(ctx, &models.RevokedToken{ID: "old", UserID: "u1", ExpiresAt: now.Add(-time.Hour)}))

	n, err := s.Revocations().PurgeExpired(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	revoked, err := s.Revocations().IsRevoked(ctx, "live")
	require.NoError(t, err)
	assert.True(t, revoked)
	revoked, err = s.Revocations().IsRevoked(ctx, "old")
	require.NoError(t, err)
	assert.False(t, revoked)
}
