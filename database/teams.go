package database

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"teamup/apperr"
	"teamup/models"
	"teamup/store"
)

type teamRepo struct{ s *Store }

func withRoster(q *gorm.DB) *gorm.DB {
	return q.Preload("Members", func(db *gorm.DB) *gorm.DB {
		return db.Order("joined_at ASC")
	})
}

func (r teamRepo) Get(ctx context.Context, id string) (*models.Team, error) {
	var t models.Team
	if err := first(withRoster(r.s.locked(ctx)).Where("id = ?", id), &t, apperr.ErrTeamNotFound, "get team"); err != nil {
		return nil, err
	}
	return &t, nil
}

// Create inserts the team row only; the roster is written through Members.
func (r teamRepo) Create(ctx context.Context, t *models.Team) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.Status == "" {
		t.Status = models.TeamStatusForming
	}
	t.CreatedAt = r.s.clock.Now()
	if err := r.s.query(ctx).Omit(clause.Associations).Create(t).Error; err != nil {
		return internal("create team", err)
	}
	return nil
}

func (r teamRepo) Update(ctx context.Context, id string, u store.TeamUpdate) error {
	var (
		t    models.Team
		cols []string
	)
	if u.Name != nil {
		t.Name, cols = *u.Name, append(cols, "name")
	}
	if u.Description != nil {
		t.Description, cols = *u.Description, append(cols, "description")
	}
	if u.Hackathon != nil {
		t.Hackathon, cols = *u.Hackathon, append(cols, "hackathon")
	}
	if u.MaxMembers != nil {
		t.MaxMembers, cols = *u.MaxMembers, append(cols, "max_members")
	}
	if u.Status != nil {
		t.Status, cols = *u.Status, append(cols, "status")
	}
	if u.RolesNeeded != nil {
		t.RolesNeeded, cols = *u.RolesNeeded, append(cols, "roles_needed")
	}

	if len(cols) == 0 {
		_, err := r.Get(ctx, id)
		return err
	}

	res := r.s.query(ctx).Model(&models.Team{}).Where("id = ?", id).Select(cols).Omit(clause.Associations).Updates(&t)
	if res.Error != nil {
		return internal("update team", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.ErrTeamNotFound
	}
	return nil
}

func (r teamRepo) Delete(ctx context.Context, id string) error {
	res := r.s.query(ctx).Where("id = ?", id).Delete(&models.Team{})
	if res.Error != nil {
		return internal("delete team", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.ErrTeamNotFound
	}
	return nil
}

func (r teamRepo) List(ctx context.Context, f store.TeamFilter) ([]models.Team, error) {
	q := withRoster(r.s.query(ctx))
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}

	teams := []models.Team{}
	if err := q.Order("created_at DESC").Find(&teams).Error; err != nil {
		return nil, internal("list teams", err)
	}
	return teams, nil
}
