// services/membership_service.go - Invitation and membership protocol
package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"teamup/apperr"
	"teamup/events"
	"teamup/models"
	"teamup/realtime"
	"teamup/store"
)

// MembershipService keeps profile.teamId, team rosters and invitation
// status consistent. Every operation runs in one store transaction and
// checks its preconditions inside it, immediately before the writes.
type MembershipService struct {
	base
}

type SendInvitation struct {
	FromUserID string                `json:"-"`
	ToUserID   string                `json:"toUserId"`
	TeamID     string                `json:"teamId"`
	Type       models.InvitationType `json:"type"`
	Message    string                `json:"message"`
}

type RespondOptions struct {
	// ResponderID, when set, must be the invitation's recipient.
	ResponderID string
	// Role is used for the joining member when their profile has no
	// primary role.
	Role string
}

const defaultMemberRole = "Member"

// ================== INVITATIONS ==================

// SendInvitation creates a pending invite (leader to candidate) or join
// request (candidate to leader) and notifies the recipient.
func (s *MembershipService) SendInvitation(ctx context.Context, req SendInvitation) (*models.Invitation, error) {
	if !req.Type.Valid() {
		return nil, apperr.Newf(apperr.CodeInvalidArgument, "unknown invitation type %q", req.Type)
	}
	if req.TeamID == "" || req.FromUserID == "" {
		return nil, apperr.New(apperr.CodeInvalidArgument, "teamId and fromUserId are required")
	}
	if req.Type == models.InvitationInvite && req.ToUserID == "" {
		return nil, apperr.New(apperr.CodeInvalidArgument, "toUserId is required for an invite")
	}
	if req.FromUserID == req.ToUserID {
		return nil, apperr.New(apperr.CodeInvalidArgument, "cannot send an invitation to yourself")
	}
	if s.degraded() {
		return nil, nil
	}

	var inv *models.Invitation
	err := s.atomic(ctx, func(tx store.Store) error {
		team, err := tx.Teams().Get(ctx, req.TeamID)
		if err != nil {
			return err
		}
		from, err := tx.Profiles().Get(ctx, req.FromUserID)
		if err != nil {
			return err
		}

		var joining *models.Profile
		switch req.Type {
		case models.InvitationInvite:
			if team.LeaderID != from.ID {
				return apperr.New(apperr.CodeForbidden, "only the team leader can send invitations")
			}
			to, err := tx.Profiles().Get(ctx, req.ToUserID)
			if err != nil {
				return err
			}
			inv = models.NewInvite(team, from, to, req.Message)
			joining = to
		case models.InvitationJoinRequest:
			if req.ToUserID != "" && req.ToUserID != team.LeaderID {
				return apperr.New(apperr.CodeInvalidArgument, "join requests are addressed to the team leader")
			}
			if from.ID == team.LeaderID {
				return apperr.New(apperr.CodeInvalidArgument, "cannot send an invitation to yourself")
			}
			leader, err := tx.Profiles().Get(ctx, team.LeaderID)
			if err != nil {
				return err
			}
			inv = models.NewJoinRequest(team, from, leader, req.Message)
			joining = from
		}

		if joining.HasTeam() {
			return apperr.ErrAlreadyInTeam
		}
		if err := tx.Invitations().Create(ctx, inv); err != nil {
			return err
		}

		kind := models.NotificationInvite
		if inv.IsJoinRequest() {
			kind = models.NotificationJoinRequest
		}
		return tx.Notifications().Create(ctx, &models.Notification{
			ToUserID:     inv.ToUserID,
			FromUserID:   inv.FromUserID,
			FromUserName: inv.FromUserName,
			Type:         kind,
			TeamID:       inv.TeamID,
			TeamName:     inv.TeamName,
			Message:      inv.Message,
		})
	})
	if err != nil {
		return nil, s.fail("send invitation", err,
			zap.String("team_id", req.TeamID), zap.String("from_user_id", req.FromUserID))
	}

	s.publish(ctx, events.Invitations, events.Notifications)
	s.metrics.InvitationSent(inv.Type)
	s.log.Info("invitation sent",
		zap.String("invitation_id", inv.ID),
		zap.String("type", string(inv.Type)),
		zap.String("team_id", inv.TeamID))
	return inv, nil
}

// RespondToInvitation resolves a pending invitation. Accepting adds the
// joining party to the team; either way the sender is notified. An
// invitation that is no longer pending fails with NOT_FOUND and nothing is
// written.
func (s *MembershipService) RespondToInvitation(ctx context.Context, invitationID string, status models.InvitationStatus, opts RespondOptions) (*models.Invitation, error) {
	if status != models.InvitationAccepted && status != models.InvitationRejected {
		return nil, apperr.Newf(apperr.CodeInvalidArgument, "status must be accepted or rejected, got %q", status)
	}
	if s.degraded() {
		return nil, nil
	}

	// The team row is locked before the invitation, so the team id is read
	// outside the transaction first. It never changes.
	peek, err := s.store.Invitations().Get(ctx, invitationID)
	if err != nil {
		return nil, s.fail("respond to invitation", err, zap.String("invitation_id", invitationID))
	}

	var resolved *models.Invitation
	err = s.atomic(ctx, func(tx store.Store) error {
		team, teamErr := lockTeam(ctx, tx, peek.TeamID)
		if teamErr != nil && apperr.CodeOf(teamErr) != apperr.CodeNotFound {
			return teamErr
		}
		inv, err := tx.Invitations().Get(ctx, invitationID)
		if err != nil {
			return err
		}
		if !inv.IsPending() {
			return apperr.ErrInvitationResolved
		}
		if opts.ResponderID != "" && opts.ResponderID != inv.ToUserID {
			return apperr.New(apperr.CodeForbidden, "only the recipient can respond to this invitation")
		}

		var joining *models.Profile
		if status == models.InvitationAccepted {
			joining, err = tx.Profiles().Get(ctx, inv.JoiningUserID)
			if err != nil {
				return err
			}
			if joining.HasTeam() {
				return apperr.ErrAlreadyInTeam
			}
			if teamErr != nil {
				return teamErr
			}
			if team.IsFull() {
				return apperr.ErrTeamFull
			}
		}

		if err := tx.Invitations().Resolve(ctx, inv.ID, status, time.Now().UTC()); err != nil {
			return err
		}

		responderName := inv.ToUserName
		if responder, err := tx.Profiles().Get(ctx, inv.ToUserID); err == nil {
			responderName = responder.DisplayName()
		}
		n := &models.Notification{
			ToUserID:     inv.FromUserID,
			FromUserID:   inv.ToUserID,
			FromUserName: responderName,
			TeamID:       inv.TeamID,
			TeamName:     inv.TeamName,
		}

		if status == models.InvitationAccepted {
			role := string(joining.PrimaryRole)
			if role == "" {
				role = opts.Role
			}
			if role == "" {
				role = defaultMemberRole
			}
			if _, err := addMember(ctx, tx, inv.TeamID, joining.ID, role); err != nil {
				return err
			}
			n.Type = models.NotificationAccepted
			if inv.IsJoinRequest() {
				n.Message = fmt.Sprintf("Your request to join %s was accepted!", inv.TeamName)
			} else {
				n.Message = fmt.Sprintf("%s accepted your invitation to join %s", joining.DisplayName(), inv.TeamName)
			}
		} else {
			n.Type = models.NotificationRejected
			if inv.IsJoinRequest() {
				n.Message = fmt.Sprintf("Your request to join %s was declined", inv.TeamName)
			} else {
				n.Message = fmt.Sprintf("%s declined your invitation to join %s", inv.ToUserName, inv.TeamName)
			}
		}
		if err := tx.Notifications().Create(ctx, n); err != nil {
			return err
		}

		resolved, err = tx.Invitations().Get(ctx, inv.ID)
		return err
	})
	if err != nil {
		return nil, s.fail("respond to invitation", err, zap.String("invitation_id", invitationID))
	}

	if status == models.InvitationAccepted {
		s.publishMembership(ctx, events.Notifications, events.Posts, events.WorkspaceLogs)
		s.metrics.MembershipChanged("join")
	} else {
		s.publish(ctx, events.Invitations, events.Notifications)
	}
	s.metrics.InvitationResolved(status)
	s.log.Info("invitation resolved",
		zap.String("invitation_id", resolved.ID),
		zap.String("status", string(status)),
		zap.String("team_id", resolved.TeamID))
	return resolved, nil
}

// ================== MEMBERSHIP ==================

// AddTeamMember puts userID on the team's roster.
func (s *MembershipService) AddTeamMember(ctx context.Context, teamID, userID, role string) (*models.Team, error) {
	if s.degraded() {
		return nil, nil
	}
	if role == "" {
		role = defaultMemberRole
	}

	var team *models.Team
	err := s.atomic(ctx, func(tx store.Store) error {
		var err error
		team, err = addMember(ctx, tx, teamID, userID, role)
		return err
	})
	if err != nil {
		return nil, s.fail("add team member", err, zap.String("team_id", teamID), zap.String("user_id", userID))
	}

	s.publishMembership(ctx, events.Posts, events.WorkspaceLogs)
	s.metrics.MembershipChanged("join")
	s.log.Info("member added", zap.String("team_id", teamID), zap.String("user_id", userID))
	return team, nil
}

// addMember re-checks both membership preconditions, appends the roster
// entry and points the profile at the team. It must run inside Atomic.
func addMember(ctx context.Context, tx store.Store, teamID, userID, role string) (*models.Team, error) {
	team, teamErr := lockTeam(ctx, tx, teamID)
	if teamErr != nil && apperr.CodeOf(teamErr) != apperr.CodeNotFound {
		return nil, teamErr
	}
	profile, err := tx.Profiles().Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if profile.HasTeam() {
		return nil, apperr.ErrAlreadyInTeam
	}
	if teamErr != nil {
		return nil, teamErr
	}
	if team.IsFull() {
		return nil, apperr.ErrTeamFull
	}

	name := profile.DisplayName()
	if err := tx.Members().Add(ctx, &models.TeamMember{
		TeamID:   teamID,
		UserID:   userID,
		Role:     role,
		UserName: name,
	}); err != nil {
		return nil, err
	}
	membership := models.MemberOf(teamID)
	if err := tx.Profiles().Update(ctx, userID, store.ProfileUpdate{Membership: &membership}); err != nil {
		return nil, err
	}

	if err := tx.Posts().Create(ctx, &models.FeedPost{
		AuthorID:     userID,
		AuthorName:   name,
		AuthorAvatar: profile.Avatar,
		AuthorRole:   profile.PrimaryRole,
		Type:         models.PostMemberJoined,
		Title:        fmt.Sprintf("🎉 Joined team: %s", team.Name),
		Description:  fmt.Sprintf("%s joined as %s", name, role),
		TeamID:       teamID,
		TeamName:     team.Name,
	}); err != nil {
		return nil, err
	}
	if err := tx.WorkspaceLogs().Create(ctx, &models.WorkspaceLog{
		TeamID:   teamID,
		UserID:   userID,
		UserName: name,
		Message:  fmt.Sprintf("%s joined the team as %s", name, role),
	}); err != nil {
		return nil, err
	}

	return tx.Teams().Get(ctx, teamID)
}

// lockTeam loads the team inside a transaction. Membership transactions
// take the team row first, then invitations, then profiles, so two of them
// touching the same team cannot deadlock.
func lockTeam(ctx context.Context, tx store.Store, teamID string) (*models.Team, error) {
	return tx.Teams().Get(ctx, teamID)
}

// RemoveTeamMember takes userID off the roster and clears their
// membership. The leader cannot be removed; the team has to be terminated
// instead.
func (s *MembershipService) RemoveTeamMember(ctx context.Context, teamID, userID string) error {
	return s.remove(ctx, "remove", teamID, userID)
}

// LeaveTeam is RemoveTeamMember initiated by the member.
func (s *MembershipService) LeaveTeam(ctx context.Context, teamID, userID string) error {
	return s.remove(ctx, "leave", teamID, userID)
}

func (s *MembershipService) remove(ctx context.Context, op, teamID, userID string) error {
	if s.degraded() {
		return nil
	}

	err := s.atomic(ctx, func(tx store.Store) error {
		team, err := tx.Teams().Get(ctx, teamID)
		if err != nil {
			return err
		}
		if team.LeaderID == userID {
			return apperr.New(apperr.CodeForbidden, "the team leader cannot be removed; terminate the team instead")
		}
		if err := tx.Members().Remove(ctx, teamID, userID); err != nil {
			return err
		}
		if err := tx.Profiles().Update(ctx, userID, store.ProfileUpdate{Membership: ptr(models.NoTeam())}); err != nil {
			return err
		}

		var name string
		for _, m := range team.Members {
			if m.UserID == userID {
				name = m.UserName
			}
		}
		msg := fmt.Sprintf("%s was removed from the team", name)
		if op == "leave" {
			msg = fmt.Sprintf("%s left the team", name)
		}
		return tx.WorkspaceLogs().Create(ctx, &models.WorkspaceLog{
			TeamID:   teamID,
			UserID:   userID,
			UserName: name,
			Message:  msg,
		})
	})
	if err != nil {
		return s.fail(op+" team member", err, zap.String("team_id", teamID), zap.String("user_id", userID))
	}

	s.publishMembership(ctx, events.WorkspaceLogs)
	s.metrics.MembershipChanged(op)
	s.log.Info("member removed", zap.String("op", op), zap.String("team_id", teamID), zap.String("user_id", userID))
	return nil
}

// TerminateTeam deletes the team, its roster and every invitation that
// references it, and clears the membership of all former members. Only the
// leader may terminate.
func (s *MembershipService) TerminateTeam(ctx context.Context, teamID, leaderID string) error {
	if s.degraded() {
		return nil
	}

	var released int
	err := s.atomic(ctx, func(tx store.Store) error {
		team, err := tx.Teams().Get(ctx, teamID)
		if err != nil {
			return err
		}
		if team.LeaderID != leaderID {
			return apperr.New(apperr.CodeForbidden, "only the team leader can terminate the team")
		}

		for _, m := range team.Members {
			err := tx.Profiles().Update(ctx, m.UserID, store.ProfileUpdate{Membership: ptr(models.NoTeam())})
			if err != nil && apperr.CodeOf(err) != apperr.CodeNotFound {
				return err
			}
			if m.UserID != leaderID {
				if err := tx.Notifications().Create(ctx, &models.Notification{
					ToUserID:     m.UserID,
					FromUserID:   leaderID,
					FromUserName: team.LeaderName,
					Type:         models.NotificationTeamUpdate,
					TeamID:       team.ID,
					TeamName:     team.Name,
					Message:      fmt.Sprintf("%s was terminated by the team leader", team.Name),
				}); err != nil {
					return err
				}
			}
		}
		released = len(team.Members)

		if _, err := tx.Invitations().DeleteByTeam(ctx, teamID); err != nil {
			return err
		}
		if _, err := tx.Members().DeleteByTeam(ctx, teamID); err != nil {
			return err
		}
		return tx.Teams().Delete(ctx, teamID)
	})
	if err != nil {
		return s.fail("terminate team", err, zap.String("team_id", teamID), zap.String("leader_id", leaderID))
	}

	s.publishMembership(ctx, events.Notifications)
	s.metrics.MembershipChanged("terminate")
	s.log.Info("team terminated", zap.String("team_id", teamID), zap.Int("members_released", released))
	return nil
}

// ================== QUERIES ==================

func (s *MembershipService) list(ctx context.Context, f store.InvitationFilter) ([]models.Invitation, error) {
	if s.degraded() {
		return empty[models.Invitation](), nil
	}
	return s.store.Invitations().List(ctx, f)
}

// Incoming returns pending invitations addressed to userID.
func (s *MembershipService) Incoming(ctx context.Context, userID string) ([]models.Invitation, error) {
	return s.list(ctx, store.InvitationFilter{ToUserID: userID, Status: models.InvitationPending})
}

// Outgoing returns every invitation userID has sent, resolved ones included.
func (s *MembershipService) Outgoing(ctx context.Context, userID string) ([]models.Invitation, error) {
	return s.list(ctx, store.InvitationFilter{FromUserID: userID})
}

// JoinRequests returns the team's pending join requests.
func (s *MembershipService) JoinRequests(ctx context.Context, teamID string) ([]models.Invitation, error) {
	return s.list(ctx, store.InvitationFilter{
		TeamID: teamID,
		Type:   models.InvitationJoinRequest,
		Status: models.InvitationPending,
	})
}

type InvitationSnapshot struct {
	Incoming []models.Invitation `json:"incoming"`
	Outgoing []models.Invitation `json:"outgoing"`
}

func (s *MembershipService) SubscribeInvitations(userID string, fn func(InvitationSnapshot)) *realtime.Subscription {
	return realtime.Watch(s.hub, func(ctx context.Context) (InvitationSnapshot, error) {
		incoming, err := s.Incoming(ctx, userID)
		if err != nil {
			return InvitationSnapshot{}, err
		}
		outgoing, err := s.Outgoing(ctx, userID)
		if err != nil {
			return InvitationSnapshot{}, err
		}
		return InvitationSnapshot{Incoming: incoming, Outgoing: outgoing}, nil
	}, fn, events.Invitations)
}

func (s *MembershipService) SubscribeJoinRequests(teamID string, fn func([]models.Invitation)) *realtime.Subscription {
	return realtime.Watch(s.hub, func(ctx context.Context) ([]models.Invitation, error) {
		return s.JoinRequests(ctx, teamID)
	}, fn, events.Invitations)
}

func ptr[T any](v T) *T {
	return &v
}
