package database

import (
	"context"

	"teamup/apperr"
	"teamup/models"
)

type memberRepo struct{ s *Store }

func (r memberRepo) Add(ctx context.Context, m *models.TeamMember) error {
	var existing int64
	if err := r.s.query(ctx).Model(&models.TeamMember{}).Where("user_id = ?", m.UserID).Count(&existing).Error; err != nil {
		return internal("add member", err)
	}
	if existing > 0 {
		return apperr.ErrAlreadyInTeam
	}

	if m.JoinedAt.IsZero() {
		m.JoinedAt = r.s.clock.Now()
	}
	err := r.s.query(ctx).Create(m).Error
	if isDuplicate(err) {
		return apperr.ErrAlreadyInTeam
	}
	if err != nil {
		return internal("add member", err)
	}
	return nil
}

func (r memberRepo) Remove(ctx context.Context, teamID, userID string) error {
	res := r.s.query(ctx).Where("team_id = ? AND user_id = ?", teamID, userID).Delete(&models.TeamMember{})
	if res.Error != nil {
		return internal("remove member", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.New(apperr.CodeNotFound, "user is not a member of this team")
	}
	return nil
}

func (r memberRepo) List(ctx context.Context, teamID string) ([]models.TeamMember, error) {
	members := []models.TeamMember{}
	err := r.s.query(ctx).Where("team_id = ?", teamID).Order("joined_at ASC").Find(&members).Error
	if err != nil {
		return nil, internal("list members", err)
	}
	return members, nil
}

func (r memberRepo) Count(ctx context.Context, teamID string) (int, error) {
	var n int64
	if err := r.s.query(ctx).Model(&models.TeamMember{}).Where("team_id = ?", teamID).Count(&n).Error; err != nil {
		return 0, internal("count members", err)
	}
	return int(n), nil
}

func (r memberRepo) DeleteByTeam(ctx context.Context, teamID string) (int, error) {
	res := r.s.query(ctx).Where("team_id = ?", teamID).Delete(&models.TeamMember{})
	if res.Error != nil {
		return 0, internal("delete members", res.Error)
	}
	return int(res.RowsAffected), nil
}
