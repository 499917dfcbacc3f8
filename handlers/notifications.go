// handlers/notifications.go
package handlers

import (
	"github.com/gofiber/fiber/v2"

	"teamup/utils"
)

// GET /api/notifications
func (h *Handler) ListNotifications(c *fiber.Ctx) error {
	uid, err := caller(c)
	if err != nil {
		return utils.Fail(c, err)
	}
	list, err := h.svc.Notifications.List(c.UserContext(), uid)
	return respond(c, fiber.StatusOK, fiber.Map{"notifications": list}, err)
}

// GET /api/notifications/unread-count
func (h *Handler) UnreadCount(c *fiber.Ctx) error {
	uid, err := caller(c)
	if err != nil {
		return utils.Fail(c, err)
	}
	count, err := h.svc.Notifications.UnreadCount(c.UserContext(), uid)
	return respond(c, fiber.StatusOK, fiber.Map{"count": count}, err)
}

// POST /api/notifications/:id/read
func (h *Handler) MarkRead(c *fiber.Ctx) error {
	uid, err := caller(c)
	if err != nil {
		return utils.Fail(c, err)
	}
	err = h.svc.Notifications.MarkRead(c.UserContext(), c.Params("id"), uid)
	return respond(c, fiber.StatusOK, nil, err)
}

// POST /api/notifications/read-all
func (h *Handler) MarkAllRead(c *fiber.Ctx) error {
	uid, err := caller(c)
	if err != nil {
		return utils.Fail(c, err)
	}
	n, err := h.svc.Notifications.MarkAllRead(c.UserContext(), uid)
	return respond(c, fiber.StatusOK, fiber.Map{"updated": n}, err)
}
