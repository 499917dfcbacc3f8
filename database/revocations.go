package database

import (
	"context"
	"time"

	"gorm.io/gorm/clause"

	"teamup/models"
)

type revocationRepo struct{ s *Store }

func (r revocationRepo) Revoke(ctx context.Context, t *models.RevokedToken) error {
	err := r.s.query(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(t).Error
	if err != nil {
		return internal("revoke token", err)
	}
	return nil
}

func (r revocationRepo) IsRevoked(ctx context.Context, id string) (bool, error) {
	var n int64
	if err := r.s.query(ctx).Model(&models.RevokedToken{}).Where("id = ?", id).Count(&n).Error; err != nil {
		return false, internal("check revocation", err)
	}
	return n > 0, nil
}

func (r revocationRepo) PurgeExpired(ctx context.Context, now time.Time) (int, error) {
	res := r.s.query(ctx).Where("expires_at < ?", now).Delete(&models.RevokedToken{})
	if res.Error != nil {
		return 0, internal("purge revocations", res.Error)
	}
	return int(res.RowsAffected), nil
}
