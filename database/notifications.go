package database

import (
	"context"

	"github.com/google/uuid"

	"teamup/apperr"
	"teamup/models"
	"teamup/store"
)

var errNotificationNotFound = apperr.New(apperr.CodeNotFound, "notification not found")

type notificationRepo struct{ s *Store }

func (r notificationRepo) Get(ctx context.Context, id string) (*models.Notification, error) {
	var n models.Notification
	if err := first(r.s.query(ctx).Where("id = ?", id), &n, errNotificationNotFound, "get notification"); err != nil {
		return nil, err
	}
	return &n, nil
}

func (r notificationRepo) Create(ctx context.Context, n *models.Notification) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	n.Read = false
	n.CreatedAt = r.s.clock.Now()
	if err := r.s.query(ctx).Create(n).Error; err != nil {
		return internal("create notification", err)
	}
	return nil
}

func (r notificationRepo) List(ctx context.Context, f store.NotificationFilter) ([]models.Notification, error) {
	q := r.s.query(ctx).Where("to_user_id = ?", f.ToUserID)
	if f.UnreadOnly {
		q = q.Where("read = ?", false)
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}

	notifications := []models.Notification{}
	if err := q.Order("created_at DESC").Find(&notifications).Error; err != nil {
		return nil, internal("list notifications", err)
	}
	return notifications, nil
}

// MarkRead only ever sets read to true.
func (r notificationRepo) MarkRead(ctx context.Context, id string) error {
	res := r.s.query(ctx).Model(&models.Notification{}).Where("id = ?", id).Update("read", true)
	if res.Error != nil {
		return internal("mark notification read", res.Error)
	}
	if res.RowsAffected == 0 {
		return errNotificationNotFound
	}
	return nil
}

func (r notificationRepo) MarkAllRead(ctx context.Context, toUserID string) (int, error) {
	res := r.s.query(ctx).Model(&models.Notification{}).
		Where("to_user_id = ? AND read = ?", toUserID, false).
		Update("read", true)
	if res.Error != nil {
		return 0, internal("mark notifications read", res.Error)
	}
	return int(res.RowsAffected), nil
}

func (r notificationRepo) CountUnread(ctx context.Context, toUserID string) (int, error) {
	var n int64
	err := r.s.query(ctx).Model(&models.Notification{}).
		Where("to_user_id = ? AND read = ?", toUserID, false).
		Count(&n).Error
	if err != nil {
		return 0, internal("count unread notifications", err)
	}
	return int(n), nil
}
