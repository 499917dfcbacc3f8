package memstore

import (
	"context"
	"slices"

	"github.com/google/uuid"
	"github.com/hashicorp/go-memdb"

	"teamup/apperr"
	"teamup/models"
	"teamup/store"
)

type notificationRepo struct{ s *Store }

func getNotification(txn *memdb.Txn, id string) (*models.Notification, error) {
	raw, err := txn.First(tableNotifications, PK, id)
	if err != nil {
		return nil, internal("get notification", err)
	}
	if raw == nil {
		return nil, apperr.New(apperr.CodeNotFound, "notification not found")
	}
	return raw.(*models.Notification), nil
}

func (r notificationRepo) Get(_ context.Context, id string) (*models.Notification, error) {
	var out *models.Notification
	err := r.s.read(func(txn *memdb.Txn) error {
		n, err := getNotification(txn, id)
		if err != nil {
			return err
		}
		c := *n
		out = &c
		return nil
	})
	return out, err
}

func (r notificationRepo) Create(_ context.Context, n *models.Notification) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	return r.s.write(func(txn *memdb.Txn) error {
		n.Read = false
		n.CreatedAt = r.s.clock.Now()
		c := *n
		if err := txn.Insert(tableNotifications, &c); err != nil {
			return internal("create notification", err)
		}
		return nil
	})
}

func (r notificationRepo) unread(txn *memdb.Txn, toUserID string) ([]models.Notification, error) {
	it, err := txn.Get(tableNotifications, toIndex, toUserID)
	if err != nil {
		return nil, internal("list notifications", err)
	}
	return collect(it, func(n *models.Notification) bool { return !n.Read }), nil
}

func (r notificationRepo) List(_ context.Context, f store.NotificationFilter) ([]models.Notification, error) {
	var out []models.Notification
	err := r.s.read(func(txn *memdb.Txn) error {
		it, err := txn.Get(tableNotifications, toIndex, f.ToUserID)
		if err != nil {
			return internal("list notifications", err)
		}
		out = collect(it, func(n *models.Notification) bool { return !f.UnreadOnly || !n.Read })
		return nil
	})
	if err != nil {
		return nil, err
	}
	slices.SortFunc(out, func(a, b models.Notification) int { return b.CreatedAt.Compare(a.CreatedAt) })
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (r notificationRepo) MarkRead(_ context.Context, id string) error {
	return r.s.write(func(txn *memdb.Txn) error {
		n, err := getNotification(txn, id)
		if err != nil {
			return err
		}
		if n.Read {
			return nil
		}
		c := *n
		c.Read = true
		if err := txn.Insert(tableNotifications, &c); err != nil {
			return internal("mark notification read", err)
		}
		return nil
	})
}

func (r notificationRepo) MarkAllRead(_ context.Context, toUserID string) (int, error) {
	var n int
	err := r.s.write(func(txn *memdb.Txn) error {
		unread, err := r.unread(txn, toUserID)
		if err != nil {
			return err
		}
		for i := range unread {
			c := unread[i]
			c.Read = true
			if err := txn.Insert(tableNotifications, &c); err != nil {
				return internal("mark notifications read", err)
			}
		}
		n = len(unread)
		return nil
	})
	return n, err
}

func (r notificationRepo) CountUnread(_ context.Context, toUserID string) (int, error) {
	var n int
	err := r.s.read(func(txn *memdb.Txn) error {
		unread, err := r.unread(txn, toUserID)
		n = len(unread)
		return err
	})
	return n, err
}
