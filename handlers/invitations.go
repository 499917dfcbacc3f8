// handlers/invitations.go
package handlers

import (
	"github.com/gofiber/fiber/v2"

	"teamup/models"
	"teamup/services"
	"teamup/utils"
)

// SendInvitation sends an invite (leader to candidate) or a join request
// (caller to the team leader)
// POST /api/invitations
func (h *Handler) SendInvitation(c *fiber.Ctx) error {
	uid, err := caller(c)
	if err != nil {
		return utils.Fail(c, err)
	}
	var req services.SendInvitation
	if err := utils.Body(c, &req); err != nil {
		return utils.Fail(c, err)
	}
	req.FromUserID = uid

	inv, err := h.svc.Membership.SendInvitation(c.UserContext(), req)
	return respond(c, fiber.StatusCreated, fiber.Map{"invitation": inv}, err)
}

// ListInvitations returns pending incoming and all outgoing invitations
// GET /api/invitations
func (h *Handler) ListInvitations(c *fiber.Ctx) error {
	uid, err := caller(c)
	if err != nil {
		return utils.Fail(c, err)
	}
	incoming, err := h.svc.Membership.Incoming(c.UserContext(), uid)
	if err != nil {
		return utils.Fail(c, err)
	}
	outgoing, err := h.svc.Membership.Outgoing(c.UserContext(), uid)
	return respond(c, fiber.StatusOK, fiber.Map{"incoming": incoming, "outgoing": outgoing}, err)
}

// RespondToInvitation accepts or rejects. Only the recipient may respond.
// POST /api/invitations/:id/respond
func (h *Handler) RespondToInvitation(c *fiber.Ctx) error {
	uid, err := caller(c)
	if err != nil {
		return utils.Fail(c, err)
	}
	var req struct {
		Status models.InvitationStatus `json:"status"`
		Role   string                  `json:"role"`
	}
	if err := utils.Body(c, &req); err != nil {
		return utils.Fail(c, err)
	}

	inv, err := h.svc.Membership.RespondToInvitation(c.UserContext(), c.Params("id"), req.Status,
		services.RespondOptions{ResponderID: uid, Role: req.Role})
	return respond(c, fiber.StatusOK, fiber.Map{"invitation": inv}, err)
}
