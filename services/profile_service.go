// services/profile_service.go - Profile registry
package services

import (
	"context"
	"slices"
	"strings"

	"go.uber.org/zap"

	"teamup/apperr"
	"teamup/events"
	"teamup/models"
	"teamup/realtime"
	"teamup/store"
)

type ProfileService struct {
	base
}

// Get returns the profile, or nil in degraded mode.
func (s *ProfileService) Get(ctx context.Context, id string) (*models.Profile, error) {
	if s.degraded() {
		return nil, nil
	}
	return s.store.Profiles().Get(ctx, id)
}

// Create stores a new profile under id. Membership fields are always reset:
// a new profile is on no team and leads nothing.
func (s *ProfileService) Create(ctx context.Context, id string, p *models.Profile) (*models.Profile, error) {
	if err := validateProfile(p.PrimaryRole, p.Skills); err != nil {
		return nil, err
	}
	if s.degraded() {
		return nil, nil
	}

	p.ID = id
	p.FullName = strings.TrimSpace(p.FullName)
	p.TeamID = nil
	p.IsTeamLeader = false
	if p.Skills == nil {
		p.Skills = []models.Skill{}
	}
	if err := s.store.Profiles().Create(ctx, p); err != nil {
		return nil, err
	}

	s.publish(ctx, events.Profiles)
	s.log.Info("profile created", zap.String("user_id", id))
	return p, nil
}

// Update merges the set fields into the profile. No membership invariant is
// checked here; the membership protocol is the only caller that sets
// Membership.
func (s *ProfileService) Update(ctx context.Context, id string, u store.ProfileUpdate) (*models.Profile, error) {
	var role models.Role
	if u.PrimaryRole != nil {
		role = *u.PrimaryRole
	}
	var skills []models.Skill
	if u.Skills != nil {
		skills = *u.Skills
	}
	if err := validateProfile(role, skills); err != nil {
		return nil, err
	}
	if s.degraded() {
		return nil, nil
	}

	if err := s.store.Profiles().Update(ctx, id, u); err != nil {
		return nil, err
	}
	s.publish(ctx, events.Profiles)
	return s.store.Profiles().Get(ctx, id)
}

func validateProfile(role models.Role, skills []models.Skill) error {
	if role != "" && !role.Valid() {
		return apperr.Newf(apperr.CodeInvalidArgument, "unknown role %q", role)
	}
	for _, sk := range skills {
		if strings.TrimSpace(sk.Name) == "" {
			return apperr.New(apperr.CodeInvalidArgument, "skill name is required")
		}
		if !sk.Proficiency.Valid() {
			return apperr.Newf(apperr.CodeInvalidArgument, "unknown proficiency %q", sk.Proficiency)
		}
	}
	return nil
}

// ================== LISTINGS ==================

func (s *ProfileService) list(ctx context.Context, f store.ProfileFilter) ([]models.Profile, error) {
	if s.degraded() {
		return empty[models.Profile](), nil
	}
	return s.store.Profiles().List(ctx, f)
}

// ListAll returns every profile except excludeID, newest first.
func (s *ProfileService) ListAll(ctx context.Context, excludeID string) ([]models.Profile, error) {
	return s.list(ctx, store.ProfileFilter{ExcludeID: excludeID})
}

// ListAvailable returns profiles on no team.
func (s *ProfileService) ListAvailable(ctx context.Context, excludeID string) ([]models.Profile, error) {
	return s.list(ctx, store.ProfileFilter{Unassigned: true, ExcludeID: excludeID})
}

func (s *ProfileService) ListAvailableByRole(ctx context.Context, role models.Role, excludeID string) ([]models.Profile, error) {
	if !role.Valid() {
		return nil, apperr.Newf(apperr.CodeInvalidArgument, "unknown role %q", role)
	}
	return s.list(ctx, store.ProfileFilter{Unassigned: true, PrimaryRole: role, ExcludeID: excludeID})
}

// AvailableRoles returns the distinct primary roles in use, in role order.
func (s *ProfileService) AvailableRoles(ctx context.Context) ([]models.Role, error) {
	profiles, err := s.list(ctx, store.ProfileFilter{})
	if err != nil {
		return nil, err
	}
	roles := empty[models.Role]()
	for _, r := range models.AllRoles {
		if slices.ContainsFunc(profiles, func(p models.Profile) bool { return p.PrimaryRole == r }) {
			roles = append(roles, r)
		}
	}
	return roles, nil
}

func (s *ProfileService) SubscribeAll(excludeID string, fn func([]models.Profile)) *realtime.Subscription {
	return realtime.Watch(s.hub, func(ctx context.Context) ([]models.Profile, error) {
		return s.ListAll(ctx, excludeID)
	}, fn, events.Profiles)
}

func (s *ProfileService) SubscribeAvailable(excludeID string, fn func([]models.Profile)) *realtime.Subscription {
	return realtime.Watch(s.hub, func(ctx context.Context) ([]models.Profile, error) {
		return s.ListAvailable(ctx, excludeID)
	}, fn, events.Profiles)
}
