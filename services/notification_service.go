// services/notification_service.go - Notification fan-out
package services

import (
	"context"

	"teamup/apperr"
	"teamup/events"
	"teamup/models"
	"teamup/realtime"
	"teamup/store"
)

type NotificationService struct {
	base
}

// Create appends an unread notification.
func (s *NotificationService) Create(ctx context.Context, n *models.Notification) error {
	if n.ToUserID == "" {
		return apperr.New(apperr.CodeInvalidArgument, "toUserId is required")
	}
	if s.degraded() {
		return nil
	}
	if err := s.store.Notifications().Create(ctx, n); err != nil {
		return err
	}
	s.publish(ctx, events.Notifications)
	return nil
}

func (s *NotificationService) Get(ctx context.Context, id string) (*models.Notification, error) {
	if s.degraded() {
		return nil, nil
	}
	return s.store.Notifications().Get(ctx, id)
}

// List returns the newest notifications for userID.
func (s *NotificationService) List(ctx context.Context, userID string) ([]models.Notification, error) {
	if s.degraded() {
		return empty[models.Notification](), nil
	}
	return s.store.Notifications().List(ctx, store.NotificationFilter{
		ToUserID: userID,
		Limit:    store.DefaultListLimit,
	})
}

// MarkRead flips read to true. userID, when set, must own the
// notification.
func (s *NotificationService) MarkRead(ctx context.Context, id, userID string) error {
	if s.degraded() {
		return nil
	}
	if userID != "" {
		n, err := s.store.Notifications().Get(ctx, id)
		if err != nil {
			return err
		}
		if n.ToUserID != userID {
			return apperr.ErrForbidden
		}
	}
	if err := s.store.Notifications().MarkRead(ctx, id); err != nil {
		return err
	}
	s.publish(ctx, events.Notifications)
	return nil
}

// MarkAllRead marks every unread notification of userID and returns how
// many changed.
func (s *NotificationService) MarkAllRead(ctx context.Context, userID string) (int, error) {
	if s.degraded() {
		return 0, nil
	}
	n, err := s.store.Notifications().MarkAllRead(ctx, userID)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.publish(ctx, events.Notifications)
	}
	return n, nil
}

func (s *NotificationService) UnreadCount(ctx context.Context, userID string) (int, error) {
	if s.degraded() {
		return 0, nil
	}
	return s.store.Notifications().CountUnread(ctx, userID)
}

func (s *NotificationService) Subscribe(userID string, fn func([]models.Notification)) *realtime.Subscription {
	return realtime.Watch(s.hub, func(ctx context.Context) ([]models.Notification, error) {
		return s.List(ctx, userID)
	}, fn, events.Notifications)
}

// SubscribeUnreadCount delivers the live unread count; it changes whenever
// a notification for userID is created or marked read.
func (s *NotificationService) SubscribeUnreadCount(userID string, fn func(int)) *realtime.Subscription {
	return realtime.Watch(s.hub, func(ctx context.Context) (int, error) {
		return s.UnreadCount(ctx, userID)
	}, fn, events.Notifications)
}
