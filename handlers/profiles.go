// handlers/profiles.go
package handlers

import (
	"github.com/gofiber/fiber/v2"

	"teamup/middleware"
	"teamup/models"
	"teamup/store"
	"teamup/utils"
)

type profileRequest struct {
	FullName    *string         `json:"fullName"`
	College     *string         `json:"college"`
	YearOfStudy *string         `json:"yearOfStudy"`
	PrimaryRole *models.Role    `json:"primaryRole"`
	Skills      *[]models.Skill `json:"skills"`
	Bio         *string         `json:"bio"`
	Avatar      *string         `json:"avatar"`
}

// update never carries membership; only the membership protocol moves it.
func (r profileRequest) update() store.ProfileUpdate {
	return store.ProfileUpdate{
		FullName:    r.FullName,
		College:     r.College,
		YearOfStudy: r.YearOfStudy,
		PrimaryRole: r.PrimaryRole,
		Skills:      r.Skills,
		Bio:         r.Bio,
		Avatar:      r.Avatar,
	}
}

// GET /api/profiles
func (h *Handler) ListProfiles(c *fiber.Ctx) error {
	uid, err := caller(c)
	if err != nil {
		return utils.Fail(c, err)
	}
	profiles, err := h.svc.Profiles.ListAll(c.UserContext(), uid)
	return respond(c, fiber.StatusOK, fiber.Map{"profiles": profiles}, err)
}

// ListAvailableProfiles returns teamless users, optionally of one role
// GET /api/profiles/available?role=
func (h *Handler) ListAvailableProfiles(c *fiber.Ctx) error {
	uid, err := caller(c)
	if err != nil {
		return utils.Fail(c, err)
	}

	var profiles []models.Profile
	if role := c.Query("role"); role != "" {
		profiles, err = h.svc.Profiles.ListAvailableByRole(c.UserContext(), models.Role(role), uid)
	} else {
		profiles, err = h.svc.Profiles.ListAvailable(c.UserContext(), uid)
	}
	return respond(c, fiber.StatusOK, fiber.Map{"profiles": profiles}, err)
}

// GET /api/profiles/roles
func (h *Handler) AvailableRoles(c *fiber.Ctx) error {
	roles, err := h.svc.Profiles.AvailableRoles(c.UserContext())
	return respond(c, fiber.StatusOK, fiber.Map{"roles": roles}, err)
}

// GET /api/profiles/me
func (h *Handler) GetMyProfile(c *fiber.Ctx) error {
	uid, err := caller(c)
	if err != nil {
		return utils.Fail(c, err)
	}
	profile, err := h.svc.Profiles.Get(c.UserContext(), uid)
	return respond(c, fiber.StatusOK, fiber.Map{"profile": profile}, err)
}

// GET /api/profiles/:id
func (h *Handler) GetProfile(c *fiber.Ctx) error {
	profile, err := h.svc.Profiles.Get(c.UserContext(), c.Params("id"))
	return respond(c, fiber.StatusOK, fiber.Map{"profile": profile}, err)
}

// CreateMyProfile creates the caller's profile when the account has none
// POST /api/profiles/me
func (h *Handler) CreateMyProfile(c *fiber.Ctx) error {
	uid, err := caller(c)
	if err != nil {
		return utils.Fail(c, err)
	}
	var req models.Profile
	if err := utils.Body(c, &req); err != nil {
		return utils.Fail(c, err)
	}
	if req.Email == "" {
		req.Email = middleware.GetEmail(c)
	}

	profile, err := h.svc.Profiles.Create(c.UserContext(), uid, &req)
	return respond(c, fiber.StatusCreated, fiber.Map{"profile": profile}, err)
}

// PUT /api/profiles/me
func (h *Handler) UpdateMyProfile(c *fiber.Ctx) error {
	uid, err := caller(c)
	if err != nil {
		return utils.Fail(c, err)
	}
	var req profileRequest
	if err := utils.Body(c, &req); err != nil {
		return utils.Fail(c, err)
	}

	profile, err := h.svc.Profiles.Update(c.UserContext(), uid, req.update())
	return respond(c, fiber.StatusOK, fiber.Map{"profile": profile}, err)
}
