package database

import (
	"context"
	"time"

	"github.com/google/uuid"

	"teamup/apperr"
	"teamup/models"
	"teamup/store"
)

type invitationRepo struct{ s *Store }

func (r invitationRepo) Get(ctx context.Context, id string) (*models.Invitation, error) {
	var inv models.Invitation
	if err := first(r.s.locked(ctx).Where("id = ?", id), &inv, apperr.ErrInvitationNotFound, "get invitation"); err != nil {
		return nil, err
	}
	return &inv, nil
}

// Create checks for a pending invitation of the same pair first; the
// partial unique index idx_invitations_pending_pair catches concurrent
// inserts that both pass the check.
func (r invitationRepo) Create(ctx context.Context, inv *models.Invitation) error {
	var pending int64
	err := r.s.query(ctx).Model(&models.Invitation{}).
		Where("from_user_id = ? AND team_id = ? AND status = ?", inv.FromUserID, inv.TeamID, models.InvitationPending).
		Count(&pending).Error
	if err != nil {
		return internal("create invitation", err)
	}
	if pending > 0 {
		return apperr.ErrDuplicateRequest
	}

	if inv.ID == "" {
		inv.ID = uuid.NewString()
	}
	if inv.Status == "" {
		inv.Status = models.InvitationPending
	}
	inv.CreatedAt = r.s.clock.Now()
	err = r.s.query(ctx).Create(inv).Error
	if isDuplicate(err) {
		return apperr.ErrDuplicateRequest
	}
	if err != nil {
		return internal("create invitation", err)
	}
	return nil
}

// Resolve is a conditional update on status = 'pending'.
func (r invitationRepo) Resolve(ctx context.Context, id string, status models.InvitationStatus, at time.Time) error {
	res := r.s.query(ctx).Model(&models.Invitation{}).
		Where("id = ? AND status = ?", id, models.InvitationPending).
		Updates(map[string]any{"status": status, "responded_at": at})
	if res.Error != nil {
		return internal("resolve invitation", res.Error)
	}
	if res.RowsAffected == 1 {
		return nil
	}

	var n int64
	if err := r.s.query(ctx).Model(&models.Invitation{}).Where("id = ?", id).Count(&n).Error; err != nil {
		return internal("resolve invitation", err)
	}
	if n == 0 {
		return apperr.ErrInvitationNotFound
	}
	return apperr.ErrInvitationResolved
}

func (r invitationRepo) List(ctx context.Context, f store.InvitationFilter) ([]models.Invitation, error) {
	q := r.s.query(ctx).Model(&models.Invitation{})
	if f.TeamID != "" {
		q = q.Where("team_id = ?", f.TeamID)
	}
	if f.FromUserID != "" {
		q = q.Where("from_user_id = ?", f.FromUserID)
	}
	if f.ToUserID != "" {
		q = q.Where("to_user_id = ?", f.ToUserID)
	}
	if f.Type != "" {
		q = q.Where("type = ?", f.Type)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}

	invitations := []models.Invitation{}
	if err := q.Order("created_at DESC").Find(&invitations).Error; err != nil {
		return nil, internal("list invitations", err)
	}
	return invitations, nil
}

func (r invitationRepo) DeleteByTeam(ctx context.Context, teamID string) (int, error) {
	res := r.s.query(ctx).Where("team_id = ?", teamID).Delete(&models.Invitation{})
	if res.Error != nil {
		return 0, internal("delete invitations", res.Error)
	}
	return int(res.RowsAffected), nil
}
