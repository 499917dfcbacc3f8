// services/team_service.go - Team registry
package services

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"teamup/apperr"
	"teamup/events"
	"teamup/models"
	"teamup/realtime"
	"teamup/store"
)

type TeamService struct {
	base
}

type NewTeam struct {
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Hackathon   string            `json:"hackathon"`
	LeaderID    string            `json:"-"`
	MaxMembers  int               `json:"maxMembers"`
	Status      models.TeamStatus `json:"status"`
	RolesNeeded []string          `json:"rolesNeeded"`
}

// MemberProfile is a roster entry joined with the member's profile.
type MemberProfile struct {
	models.TeamMember
	Profile *models.Profile `json:"profile"`
}

// ================== TEAM CRUD OPERATIONS ==================

// Create creates a team led by nt.LeaderID. The leader must not already be
// on a team; the roster starts as the leader alone.
func (s *TeamService) Create(ctx context.Context, nt NewTeam) (*models.Team, error) {
	nt.Name = strings.TrimSpace(nt.Name)
	if nt.Name == "" {
		return nil, apperr.New(apperr.CodeInvalidArgument, "team name is required")
	}
	if nt.MaxMembers == 0 {
		nt.MaxMembers = models.DefaultMaxMembers
	}
	if nt.MaxMembers < 1 {
		return nil, apperr.New(apperr.CodeInvalidArgument, "maxMembers must be at least 1")
	}
	if nt.Status == "" {
		nt.Status = models.TeamStatusForming
	}
	if !nt.Status.Valid() {
		return nil, apperr.Newf(apperr.CodeInvalidArgument, "unknown team status %q", nt.Status)
	}
	if nt.RolesNeeded == nil {
		nt.RolesNeeded = []string{}
	}
	if s.degraded() {
		return nil, nil
	}

	var created *models.Team
	err := s.atomic(ctx, func(tx store.Store) error {
		leader, err := tx.Profiles().Get(ctx, nt.LeaderID)
		if err != nil {
			return err
		}
		if leader.HasTeam() {
			return apperr.ErrAlreadyInTeam
		}

		team := &models.Team{
			Name:        nt.Name,
			Description: nt.Description,
			Hackathon:   nt.Hackathon,
			LeaderID:    leader.ID,
			LeaderName:  leader.DisplayName(),
			MaxMembers:  nt.MaxMembers,
			Status:      nt.Status,
			RolesNeeded: nt.RolesNeeded,
		}
		if err := tx.Teams().Create(ctx, team); err != nil {
			return err
		}
		if err := tx.Members().Add(ctx, &models.TeamMember{
			TeamID:   team.ID,
			UserID:   leader.ID,
			Role:     models.LeaderRole,
			UserName: leader.DisplayName(),
		}); err != nil {
			return err
		}
		membership := models.LeaderOf(team.ID)
		if err := tx.Profiles().Update(ctx, leader.ID, store.ProfileUpdate{Membership: &membership}); err != nil {
			return err
		}

		if err := tx.Posts().Create(ctx, &models.FeedPost{
			AuthorID:     leader.ID,
			AuthorName:   leader.DisplayName(),
			AuthorAvatar: leader.Avatar,
			AuthorRole:   leader.PrimaryRole,
			Type:         models.PostTeamCreated,
			Title:        fmt.Sprintf("🚀 Created team: %s", team.Name),
			Description:  team.Description,
			TeamID:       team.ID,
			TeamName:     team.Name,
			RolesNeeded:  team.RolesNeeded,
		}); err != nil {
			return err
		}
		if err := tx.WorkspaceLogs().Create(ctx, &models.WorkspaceLog{
			TeamID:   team.ID,
			UserID:   leader.ID,
			UserName: leader.DisplayName(),
			Message:  fmt.Sprintf("%s created the team", leader.DisplayName()),
		}); err != nil {
			return err
		}

		created, err = tx.Teams().Get(ctx, team.ID)
		return err
	})
	if err != nil {
		return nil, s.fail("create team", err, zap.String("leader_id", nt.LeaderID))
	}

	s.publishMembership(ctx, events.Posts, events.WorkspaceLogs)
	s.metrics.MembershipChanged("create")
	s.log.Info("team created", zap.String("team_id", created.ID), zap.String("leader_id", created.LeaderID))
	return created, nil
}

// Get returns the team with its roster, or nil in degraded mode.
func (s *TeamService) Get(ctx context.Context, teamID string) (*models.Team, error) {
	if s.degraded() {
		return nil, nil
	}
	return s.store.Teams().Get(ctx, teamID)
}

// Update merges the set fields into the team. maxMembers may not drop
// below the current roster size.
func (s *TeamService) Update(ctx context.Context, teamID string, u store.TeamUpdate) (*models.Team, error) {
	if u.Status != nil && !u.Status.Valid() {
		return nil, apperr.Newf(apperr.CodeInvalidArgument, "unknown team status %q", *u.Status)
	}
	if u.Name != nil && strings.TrimSpace(*u.Name) == "" {
		return nil, apperr.New(apperr.CodeInvalidArgument, "team name is required")
	}
	if s.degraded() {
		return nil, nil
	}

	var updated *models.Team
	err := s.atomic(ctx, func(tx store.Store) error {
		if _, err := tx.Teams().Get(ctx, teamID); err != nil {
			return err
		}
		if u.MaxMembers != nil {
			size, err := tx.Members().Count(ctx, teamID)
			if err != nil {
				return err
			}
			if *u.MaxMembers < max(1, size) {
				return apperr.Newf(apperr.CodeInvalidArgument,
					"maxMembers cannot be below the current roster size (%d)", size)
			}
		}
		if err := tx.Teams().Update(ctx, teamID, u); err != nil {
			return err
		}
		var err error
		updated, err = tx.Teams().Get(ctx, teamID)
		return err
	})
	if err != nil {
		return nil, s.fail("update team", err, zap.String("team_id", teamID))
	}

	s.publish(ctx, events.Teams)
	return updated, nil
}

// ================== DISCOVERY ==================

// ListAvailable returns forming teams with an open slot, newest first.
// Capacity is filtered after the fetch since it depends on the roster.
func (s *TeamService) ListAvailable(ctx context.Context) ([]models.Team, error) {
	if s.degraded() {
		return empty[models.Team](), nil
	}
	teams, err := s.store.Teams().List(ctx, store.TeamFilter{Status: models.TeamStatusForming})
	if err != nil {
		return nil, err
	}
	open := empty[models.Team]()
	for _, t := range teams {
		if t.HasOpenSlot() {
			open = append(open, t)
		}
	}
	return open, nil
}

func (s *TeamService) SubscribeAvailable(fn func([]models.Team)) *realtime.Subscription {
	return realtime.Watch(s.hub, s.ListAvailable, fn, events.Teams, events.Members)
}

// UserTeams returns the user's team as a zero- or one-element list.
func (s *TeamService) UserTeams(ctx context.Context, userID string) ([]models.Team, error) {
	if s.degraded() {
		return empty[models.Team](), nil
	}
	profile, err := s.store.Profiles().Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !profile.HasTeam() {
		return empty[models.Team](), nil
	}
	team, err := s.store.Teams().Get(ctx, *profile.TeamID)
	if apperr.CodeOf(err) == apperr.CodeNotFound {
		return empty[models.Team](), nil
	}
	if err != nil {
		return nil, err
	}
	return []models.Team{*team}, nil
}

func (s *TeamService) SubscribeUserTeams(userID string, fn func([]models.Team)) *realtime.Subscription {
	return realtime.Watch(s.hub, func(ctx context.Context) ([]models.Team, error) {
		return s.UserTeams(ctx, userID)
	}, fn, events.Profiles, events.Teams, events.Members)
}

// ================== ROSTER ==================

// Members returns the roster in join order with each member's profile.
// A deleted team has an empty roster.
func (s *TeamService) Members(ctx context.Context, teamID string) ([]MemberProfile, error) {
	if s.degraded() {
		return empty[MemberProfile](), nil
	}
	roster, err := s.store.Members().List(ctx, teamID)
	if err != nil {
		return nil, err
	}

	members := make([]MemberProfile, 0, len(roster))
	for _, m := range roster {
		mp := MemberProfile{TeamMember: m}
		p, err := s.store.Profiles().Get(ctx, m.UserID)
		switch {
		case err == nil:
			mp.Profile = p
		case apperr.CodeOf(err) != apperr.CodeNotFound:
			return nil, err
		}
		members = append(members, mp)
	}
	return members, nil
}

func (s *TeamService) SubscribeMembers(teamID string, fn func([]MemberProfile)) *realtime.Subscription {
	return realtime.Watch(s.hub, func(ctx context.Context) ([]MemberProfile, error) {
		return s.Members(ctx, teamID)
	}, fn, events.Members, events.Profiles)
}

// Recommendations runs the recommendation heuristic over teamless users.
func (s *TeamService) Recommendations(ctx context.Context, teamID string) (*Recommendation, error) {
	if s.degraded() {
		return nil, nil
	}
	team, err := s.store.Teams().Get(ctx, teamID)
	if err != nil {
		return nil, err
	}
	candidates, err := s.store.Profiles().List(ctx, store.ProfileFilter{Unassigned: true})
	if err != nil {
		return nil, err
	}

	roles := make([]string, 0, len(team.Members))
	for _, m := range team.Members {
		roles = append(roles, m.Role)
	}
	rec := Recommend(team, roles, candidates)
	return &rec, nil
}
