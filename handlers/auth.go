// handlers/auth.go
package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"teamup/middleware"
	"teamup/services"
	"teamup/utils"
)

// Register creates an account and its profile
// POST /api/auth/register
func (h *Handler) Register(c *fiber.Ctx) error {
	var req services.RegisterInput
	if err := utils.Body(c, &req); err != nil {
		return utils.Fail(c, err)
	}

	session, err := h.svc.Auth.Register(c.UserContext(), req)
	return respond(c, fiber.StatusCreated, fiber.Map{"session": session}, err)
}

// POST /api/auth/login
func (h *Handler) Login(c *fiber.Ctx) error {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := utils.Body(c, &req); err != nil {
		return utils.Fail(c, err)
	}

	session, err := h.svc.Auth.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		h.log.Debug("login failed", zap.String("ip", c.IP()), zap.Error(err))
		return utils.Fail(c, err)
	}
	return utils.OK(c, fiber.Map{"session": session})
}

// Logout revokes the token the request was made with
// POST /api/auth/logout
func (h *Handler) Logout(c *fiber.Ctx) error {
	if err := h.svc.Auth.Logout(c.UserContext(), middleware.GetToken(c)); err != nil {
		return utils.Fail(c, err)
	}
	return utils.OK(c, fiber.Map{"message": "Logged out"})
}

// GET /api/auth/me
func (h *Handler) Me(c *fiber.Ctx) error {
	uid, err := caller(c)
	if err != nil {
		return utils.Fail(c, err)
	}
	return utils.OK(c, fiber.Map{"user": services.Identity{UID: uid, Email: middleware.GetEmail(c)}})
}
