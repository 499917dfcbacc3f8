package services

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"teamup/apperr"
	"teamup/events"
	"teamup/models"
	"teamup/store"
)

func TestScenarioA_JoinRequestAccepted(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.profile(t, "leader", "Lena", models.RoleBackendDeveloper)
	f.profile(t, "m1", "Mo", models.RoleFrontendDeveloper)
	f.profile(t, "x", "Xavi", models.RoleUIUXDesigner)
	team := f.team(t, "leader", "Rocket", 5)
	_, err := f.Membership.AddTeamMember(ctx, team.ID, "m1", "")
	require.NoError(t, err)

	inv, err := f.Membership.SendInvitation(ctx, SendInvitation{
		FromUserID: "x",
		TeamID:     team.ID,
		Type:       models.InvitationJoinRequest,
		Message:    "let me in",
	})
	require.NoError(t, err)
	assert.Equal(t, "leader", inv.ToUserID)
	assert.Equal(t, "x", inv.JoiningUserID)

	leaderInbox, err := f.Notifications.List(ctx, "leader")
	require.NoError(t, err)
	require.Len(t, leaderInbox, 1)
	assert.Equal(t, models.NotificationJoinRequest, leaderInbox[0].Type)

	resolved, err := f.Membership.RespondToInvitation(ctx, inv.ID, models.InvitationAccepted, RespondOptions{ResponderID: "leader"})
	require.NoError(t, err)
	assert.Equal(t, models.InvitationAccepted, resolved.Status)
	assert.NotNil(t, resolved.RespondedAt)

	x := f.mustProfile(t, "x")
	require.NotNil(t, x.TeamID)
	assert.Equal(t, team.ID, *x.TeamID)
	assert.False(t, x.IsTeamLeader)

	got, err := f.Teams.Get(ctx, team.ID)
	require.NoError(t, err)
	require.Len(t, got.Members, 3)
	assert.Equal(t, "x", got.Members[2].UserID)
	assert.Equal(t, string(models.RoleUIUXDesigner), got.Members[2].Role)

	inbox, err := f.Notifications.List(ctx, "x")
	require.NoError(t, err)
	require.Len(t, inbox, 1)
	assert.Equal(t, models.NotificationAccepted, inbox[0].Type)
	assert.Equal(t, "Your request to join Rocket was accepted!", inbox[0].Message)

	posts, err := f.Feed.UserPosts(ctx, "x")
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, models.PostMemberJoined, posts[0].Type)

	f.checkInvariants(t)
}

func TestScenarioB_FullTeamRejectsAdd(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.profile(t, "leader", "Lena", models.RoleBackendDeveloper)
	team := f.team(t, "leader", "Packed", 5)
	for _, id := range []string{"a", "b", "c", "d"} {
		f.profile(t, id, id, models.RoleTester)
		_, err := f.Membership.AddTeamMember(ctx, team.ID, id, "")
		require.NoError(t, err)
	}
	f.profile(t, "late", "Late", models.RoleTester)

	_, err := f.Membership.AddTeamMember(ctx, team.ID, "late", "Tester")
	require.ErrorIs(t, err, apperr.ErrTeamFull)

	got, err := f.Teams.Get(ctx, team.ID)
	require.NoError(t, err)
	assert.Len(t, got.Members, 5)
	assert.False(t, f.mustProfile(t, "late").HasTeam())
	f.checkInvariants(t)
}

func TestScenarioC_TerminateTeam(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.profile(t, "leader", "Lena", models.RoleBackendDeveloper)
	f.profile(t, "a", "Ann", models.RoleTester)
	f.profile(t, "b", "Bo", models.RoleMLEngineer)
	f.profile(t, "c", "Cy", models.RoleDevOpsEngineer)
	team := f.team(t, "leader", "Doomed", 4)
	for _, id := range []string{"a", "b"} {
		_, err := f.Membership.AddTeamMember(ctx, team.ID, id, "")
		require.NoError(t, err)
	}
	_, err := f.Membership.SendInvitation(ctx, SendInvitation{
		FromUserID: "leader", ToUserID: "c", TeamID: team.ID, Type: models.InvitationInvite,
	})
	require.NoError(t, err)

	err = f.Membership.TerminateTeam(ctx, team.ID, "a")
	require.ErrorIs(t, err, apperr.ErrForbidden)

	require.NoError(t, f.Membership.TerminateTeam(ctx, team.ID, "leader"))

	for _, id := range []string{"leader", "a", "b"} {
		p := f.mustProfile(t, id)
		assert.Nil(t, p.TeamID, id)
		assert.False(t, p.IsTeamLeader, id)
	}
	_, err = f.Teams.Get(ctx, team.ID)
	assert.Equal(t, apperr.CodeNotFound, apperr.CodeOf(err))

	invitations, err := f.store.Invitations().List(ctx, store.InvitationFilter{TeamID: team.ID})
	require.NoError(t, err)
	assert.Empty(t, invitations)

	members, err := f.Teams.Members(ctx, team.ID)
	require.NoError(t, err)
	assert.Empty(t, members)

	inbox, err := f.Notifications.List(ctx, "a")
	require.NoError(t, err)
	require.Len(t, inbox, 1)
	assert.Equal(t, models.NotificationTeamUpdate, inbox[0].Type)
	f.checkInvariants(t)
}

func TestScenarioD_JoinRequestFromMemberOfAnotherTeam(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.profile(t, "l1", "One", models.RoleBackendDeveloper)
	f.profile(t, "l2", "Two", models.RoleBackendDeveloper)
	f.profile(t, "y", "Yara", models.RoleTester)
	t1 := f.team(t, "l1", "First", 4)
	t2 := f.team(t, "l2", "Second", 4)
	_, err := f.Membership.AddTeamMember(ctx, t1.ID, "y", "")
	require.NoError(t, err)

	_, err = f.Membership.SendInvitation(ctx, SendInvitation{
		FromUserID: "y", TeamID: t2.ID, Type: models.InvitationJoinRequest,
	})
	require.ErrorIs(t, err, apperr.ErrAlreadyInTeam)

	outgoing, err := f.Membership.Outgoing(ctx, "y")
	require.NoError(t, err)
	assert.Empty(t, outgoing)
	f.checkInvariants(t)
}

func TestScenarioE_RejectOnlyNotifies(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.profile(t, "leader", "Lena", models.RoleBackendDeveloper)
	f.profile(t, "cand", "Cam", models.RoleMobileDeveloper)
	team := f.team(t, "leader", "Picky", 4)

	inv, err := f.Membership.SendInvitation(ctx, SendInvitation{
		FromUserID: "leader", ToUserID: "cand", TeamID: team.ID, Type: models.InvitationInvite,
	})
	require.NoError(t, err)

	resolved, err := f.Membership.RespondToInvitation(ctx, inv.ID, models.InvitationRejected, RespondOptions{ResponderID: "cand"})
	require.NoError(t, err)
	assert.Equal(t, models.InvitationRejected, resolved.Status)

	assert.False(t, f.mustProfile(t, "cand").HasTeam())
	got, err := f.Teams.Get(ctx, team.ID)
	require.NoError(t, err)
	assert.Len(t, got.Members, 1)

	inbox, err := f.Notifications.List(ctx, "leader")
	require.NoError(t, err)
	require.Len(t, inbox, 1)
	assert.Equal(t, models.NotificationRejected, inbox[0].Type)
	assert.Equal(t, "Cam declined your invitation to join Picky", inbox[0].Message)
	f.checkInvariants(t)
}

func TestSecondResponseFailsWithoutSideEffects(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.profile(t, "leader", "Lena", models.RoleBackendDeveloper)
	f.profile(t, "cand", "Cam", models.RoleTester)
	team := f.team(t, "leader", "Once", 4)
	inv, err := f.Membership.SendInvitation(ctx, SendInvitation{
		FromUserID: "leader", ToUserID: "cand", TeamID: team.ID, Type: models.InvitationInvite,
	})
	require.NoError(t, err)

	_, err = f.Membership.RespondToInvitation(ctx, inv.ID, models.InvitationAccepted, RespondOptions{})
	require.NoError(t, err)
	before, err := f.Notifications.List(ctx, "leader")
	require.NoError(t, err)

	for _, status := range []models.InvitationStatus{models.InvitationAccepted, models.InvitationRejected} {
		_, err = f.Membership.RespondToInvitation(ctx, inv.ID, status, RespondOptions{})
		require.Error(t, err)
		assert.Equal(t, apperr.CodeNotFound, apperr.CodeOf(err))
	}

	after, err := f.Notifications.List(ctx, "leader")
	require.NoError(t, err)
	assert.Len(t, after, len(before))

	stored, err := f.store.Invitations().Get(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, models.InvitationAccepted, stored.Status)
	f.checkInvariants(t)
}

func TestDuplicatePendingInvitation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.profile(t, "leader", "Lena", models.RoleBackendDeveloper)
	f.profile(t, "x", "Xavi", models.RoleTester)
	team := f.team(t, "leader", "Twice", 4)

	req := SendInvitation{FromUserID: "x", TeamID: team.ID, Type: models.InvitationJoinRequest}
	_, err := f.Membership.SendInvitation(ctx, req)
	require.NoError(t, err)
	_, err = f.Membership.SendInvitation(ctx, req)
	require.ErrorIs(t, err, apperr.ErrDuplicateRequest)

	inbox, err := f.Notifications.List(ctx, "leader")
	require.NoError(t, err)
	assert.Len(t, inbox, 1)
	f.checkInvariants(t)
}

func TestConcurrentDuplicateSendsCreateOneInvitation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.profile(t, "leader", "Lena", models.RoleBackendDeveloper)
	f.profile(t, "x", "Xavi", models.RoleTester)
	team := f.team(t, "leader", "Racy", 4)

	const senders = 16
	var (
		wg         sync.WaitGroup
		mu         sync.Mutex
		ok, dupes  int
		unexpected []error
	)
	for i := 0; i < senders; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.Membership.SendInvitation(ctx, SendInvitation{
				FromUserID: "x", TeamID: team.ID, Type: models.InvitationJoinRequest,
			})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case apperr.CodeOf(err) == apperr.CodeDuplicateRequest:
				dupes++
			default:
				unexpected = append(unexpected, err)
			}
		}()
	}
	wg.Wait()

	assert.Empty(t, unexpected)
	assert.Equal(t, 1, ok)
	assert.Equal(t, senders-1, dupes)
	f.checkInvariants(t)
}

func TestConcurrentJoinsRespectCapacity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.profile(t, "leader", "Lena", models.RoleBackendDeveloper)
	team := f.team(t, "leader", "Tight", 3)

	ids := []string{"a", "b", "c", "d", "e", "f"}
	for _, id := range ids {
		f.profile(t, id, id, models.RoleTester)
	}

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		joined int
	)
	for _, id := range ids {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			_, err := f.Membership.AddTeamMember(ctx, team.ID, id, "")
			if err == nil {
				mu.Lock()
				joined++
				mu.Unlock()
				return
			}
			assert.ErrorIs(t, err, apperr.ErrTeamFull)
		}(id)
	}
	wg.Wait()

	assert.Equal(t, 2, joined)
	got, err := f.Teams.Get(ctx, team.ID)
	require.NoError(t, err)
	assert.Len(t, got.Members, 3)
	f.checkInvariants(t)
}

func TestSendInvitationPreconditions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.profile(t, "leader", "Lena", models.RoleBackendDeveloper)
	f.profile(t, "member", "Mia", models.RoleTester)
	f.profile(t, "cand", "Cam", models.RoleTester)
	team := f.team(t, "leader", "Rules", 4)
	_, err := f.Membership.AddTeamMember(ctx, team.ID, "member", "")
	require.NoError(t, err)

	tests := []struct {
		name string
		req  SendInvitation
		code apperr.Code
	}{
		{
			name: "invite from non leader",
			req:  SendInvitation{FromUserID: "member", ToUserID: "cand", TeamID: team.ID, Type: models.InvitationInvite},
			code: apperr.CodeForbidden,
		},
		{
			name: "invite already teamed user",
			req:  SendInvitation{FromUserID: "leader", ToUserID: "member", TeamID: team.ID, Type: models.InvitationInvite},
			code: apperr.CodeAlreadyInTeam,
		},
		{
			name: "unknown team",
			req:  SendInvitation{FromUserID: "cand", TeamID: "nope", Type: models.InvitationJoinRequest},
			code: apperr.CodeNotFound,
		},
		{
			name: "join request to non leader",
			req:  SendInvitation{FromUserID: "cand", ToUserID: "member", TeamID: team.ID, Type: models.InvitationJoinRequest},
			code: apperr.CodeInvalidArgument,
		},
		{
			name: "self invitation",
			req:  SendInvitation{FromUserID: "leader", ToUserID: "leader", TeamID: team.ID, Type: models.InvitationInvite},
			code: apperr.CodeInvalidArgument,
		},
		{
			name: "unknown type",
			req:  SendInvitation{FromUserID: "cand", TeamID: team.ID, Type: "poke"},
			code: apperr.CodeInvalidArgument,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.Membership.SendInvitation(ctx, tt.req)
			require.Error(t, err)
			assert.Equal(t, tt.code, apperr.CodeOf(err))
		})
	}

	all, err := f.store.Invitations().List(ctx, store.InvitationFilter{})
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestAcceptRechecksPreconditions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.profile(t, "l1", "One", models.RoleBackendDeveloper)
	f.profile(t, "l2", "Two", models.RoleBackendDeveloper)
	f.profile(t, "cand", "Cam", models.RoleTester)
	t1 := f.team(t, "l1", "First", 4)
	t2 := f.team(t, "l2", "Second", 4)

	inv1, err := f.Membership.SendInvitation(ctx, SendInvitation{
		FromUserID: "l1", ToUserID: "cand", TeamID: t1.ID, Type: models.InvitationInvite,
	})
	require.NoError(t, err)
	inv2, err := f.Membership.SendInvitation(ctx, SendInvitation{
		FromUserID: "l2", ToUserID: "cand", TeamID: t2.ID, Type: models.InvitationInvite,
	})
	require.NoError(t, err)

	_, err = f.Membership.RespondToInvitation(ctx, inv1.ID, models.InvitationAccepted, RespondOptions{ResponderID: "cand"})
	require.NoError(t, err)

	_, err = f.Membership.RespondToInvitation(ctx, inv2.ID, models.InvitationAccepted, RespondOptions{ResponderID: "cand"})
	require.ErrorIs(t, err, apperr.ErrAlreadyInTeam)

	still, err := f.store.Invitations().Get(ctx, inv2.ID)
	require.NoError(t, err)
	assert.True(t, still.IsPending())

	_, err = f.Membership.RespondToInvitation(ctx, inv2.ID, models.InvitationRejected, RespondOptions{ResponderID: "l2"})
	require.ErrorIs(t, err, apperr.ErrForbidden)
	f.checkInvariants(t)
}

func TestJoiningRolePriority(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.profile(t, "leader", "Lena", models.RoleBackendDeveloper)
	f.profile(t, "norole", "Nor", "")
	f.profile(t, "plain", "Pla", "")
	team := f.team(t, "leader", "Roles", 4)

	for _, tc := range []struct {
		user, role, want string
	}{
		{"norole", "Designer", "Designer"},
		{"plain", "", "Member"},
	} {
		inv, err := f.Membership.SendInvitation(ctx, SendInvitation{
			FromUserID: tc.user, TeamID: team.ID, Type: models.InvitationJoinRequest,
		})
		require.NoError(t, err)
		_, err = f.Membership.RespondToInvitation(ctx, inv.ID, models.InvitationAccepted, RespondOptions{Role: tc.role})
		require.NoError(t, err)
	}

	got, err := f.Teams.Get(ctx, team.ID)
	require.NoError(t, err)
	require.Len(t, got.Members, 3)
	assert.Equal(t, models.LeaderRole, got.Members[0].Role)
	assert.Equal(t, "Designer", got.Members[1].Role)
	assert.Equal(t, "Member", got.Members[2].Role)
}

func TestRemoveTeamMember(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.profile(t, "leader", "Lena", models.RoleBackendDeveloper)
	f.profile(t, "a", "Ann", models.RoleTester)
	f.profile(t, "out", "Otto", models.RoleTester)
	team := f.team(t, "leader", "Shrink", 4)
	_, err := f.Membership.AddTeamMember(ctx, team.ID, "a", "")
	require.NoError(t, err)

	err = f.Membership.RemoveTeamMember(ctx, team.ID, "leader")
	require.ErrorIs(t, err, apperr.ErrForbidden)

	err = f.Membership.RemoveTeamMember(ctx, team.ID, "out")
	assert.Equal(t, apperr.CodeNotFound, apperr.CodeOf(err))

	require.NoError(t, f.Membership.LeaveTeam(ctx, team.ID, "a"))
	assert.False(t, f.mustProfile(t, "a").HasTeam())

	got, err := f.Teams.Get(ctx, team.ID)
	require.NoError(t, err)
	assert.Len(t, got.Members, 1)

	logs, err := f.Workspace.Logs(ctx, team.ID)
	require.NoError(t, err)
	var messages []string
	for _, l := range logs {
		messages = append(messages, l.Message)
	}
	assert.Contains(t, messages, "Ann left the team")
	f.checkInvariants(t)
}

func TestMembershipTransitionsSignalMembershipCollections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.profile(t, "leader", "Lena", models.RoleBackendDeveloper)
	f.profile(t, "m", "Mo", models.RoleTester)
	team := f.team(t, "leader", "Signals", 4)

	changes, cancel := f.broker.Subscribe(events.Membership...)
	defer cancel()

	_, err := f.Membership.AddTeamMember(ctx, team.ID, "m", "")
	require.NoError(t, err)

	seen := map[events.Collection]bool{}
	for len(changes) > 0 {
		seen[<-changes] = true
	}
	for _, c := range events.Membership {
		assert.True(t, seen[c], "no change signal for %s", c)
	}
}

func TestUpdateKeepsCapacityAboveRoster(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.profile(t, "leader", "Lena", models.RoleBackendDeveloper)
	f.profile(t, "m", "Mo", models.RoleTester)
	team := f.team(t, "leader", "Shrinking", 4)
	_, err := f.Membership.AddTeamMember(ctx, team.ID, "m", "")
	require.NoError(t, err)

	_, err = f.Teams.Update(ctx, team.ID, store.TeamUpdate{MaxMembers: ptr(1)})
	assert.Equal(t, apperr.CodeInvalidArgument, apperr.CodeOf(err))
	assert.Contains(t, apperr.MessageOf(err), "(2)")

	updated, err := f.Teams.Update(ctx, team.ID, store.TeamUpdate{MaxMembers: ptr(2)})
	require.NoError(t, err)
	assert.Equal(t, 2, updated.MaxMembers)
	assert.True(t, updated.IsFull())

	_, err = f.Teams.Update(ctx, "missing", store.TeamUpdate{MaxMembers: ptr(3)})
	assert.ErrorIs(t, err, apperr.ErrTeamNotFound)
}
