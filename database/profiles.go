package database

import (
	"context"

	"teamup/apperr"
	"teamup/models"
	"teamup/store"
)

type profileRepo struct{ s *Store }

func (r profileRepo) Get(ctx context.Context, id string) (*models.Profile, error) {
	var p models.Profile
	if err := first(r.s.locked(ctx).Where("id = ?", id), &p, apperr.ErrProfileNotFound, "get profile"); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r profileRepo) Create(ctx context.Context, p *models.Profile) error {
	if p.ID == "" {
		return apperr.New(apperr.CodeInvalidArgument, "profile id is required")
	}
	p.CreatedAt = r.s.clock.Now()
	err := r.s.query(ctx).Create(p).Error
	if isDuplicate(err) {
		return apperr.Newf(apperr.CodeInvalidArgument, "profile %s already exists", p.ID)
	}
	if err != nil {
		return internal("create profile", err)
	}
	return nil
}

// Update writes only the fields set in u. Struct updates with Select keep
// the json serializer on Skills and allow zero values.
func (r profileRepo) Update(ctx context.Context, id string, u store.ProfileUpdate) error {
	var (
		p    models.Profile
		cols []string
	)
	if u.FullName != nil {
		p.FullName, cols = *u.FullName, append(cols, "full_name")
	}
	if u.College != nil {
		p.College, cols = *u.College, append(cols, "college")
	}
	if u.YearOfStudy != nil {
		p.YearOfStudy, cols = *u.YearOfStudy, append(cols, "year_of_study")
	}
	if u.PrimaryRole != nil {
		p.PrimaryRole, cols = *u.PrimaryRole, append(cols, "primary_role")
	}
	if u.Skills != nil {
		p.Skills, cols = *u.Skills, append(cols, "skills")
	}
	if u.Bio != nil {
		p.Bio, cols = *u.Bio, append(cols, "bio")
	}
	if u.Avatar != nil {
		p.Avatar, cols = *u.Avatar, append(cols, "avatar")
	}
	if u.Membership != nil {
		p.TeamID = u.Membership.TeamID
		p.IsTeamLeader = u.Membership.IsTeamLeader
		cols = append(cols, "team_id", "is_team_leader")
	}

	if len(cols) == 0 {
		_, err := r.Get(ctx, id)
		return err
	}

	res := r.s.query(ctx).Model(&models.Profile{}).Where("id = ?", id).Select(cols).Updates(&p)
	if res.Error != nil {
		return internal("update profile", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.ErrProfileNotFound
	}
	return nil
}

func (r profileRepo) List(ctx context.Context, f store.ProfileFilter) ([]models.Profile, error) {
	q := r.s.query(ctx).Model(&models.Profile{})
	if f.Unassigned {
		q = q.Where("team_id IS NULL")
	}
	if f.PrimaryRole != "" {
		q = q.Where("primary_role = ?", f.PrimaryRole)
	}
	if f.ExcludeID != "" {
		q = q.Where("id <> ?", f.ExcludeID)
	}

	profiles := []models.Profile{}
	if err := q.Order("created_at DESC").Find(&profiles).Error; err != nil {
		return nil, internal("list profiles", err)
	}
	return profiles, nil
}
