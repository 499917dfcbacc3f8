// handlers/teams.go - Team HTTP Handlers
package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"teamup/models"
	"teamup/services"
	"teamup/store"
	"teamup/utils"
)

// ================== TEAM CRUD ENDPOINTS ==================

// CreateTeam creates a team led by the caller
// POST /api/teams
func (h *Handler) CreateTeam(c *fiber.Ctx) error {
	uid, err := caller(c)
	if err != nil {
		return utils.Fail(c, err)
	}
	var req services.NewTeam
	if err := utils.Body(c, &req); err != nil {
		return utils.Fail(c, err)
	}
	req.LeaderID = uid

	team, err := h.svc.Teams.Create(c.UserContext(), req)
	return respond(c, fiber.StatusCreated, fiber.Map{"team": team}, err)
}

// GET /api/teams/:id
func (h *Handler) GetTeam(c *fiber.Ctx) error {
	team, err := h.svc.Teams.Get(c.UserContext(), c.Params("id"))
	return respond(c, fiber.StatusOK, fiber.Map{"team": team}, err)
}

// UpdateTeam changes team details. Leader only.
// PUT /api/teams/:id
func (h *Handler) UpdateTeam(c *fiber.Ctx) error {
	uid, err := caller(c)
	if err != nil {
		return utils.Fail(c, err)
	}
	var req struct {
		Name        *string            `json:"name"`
		Description *string            `json:"description"`
		Hackathon   *string            `json:"hackathon"`
		MaxMembers  *int               `json:"maxMembers"`
		Status      *models.TeamStatus `json:"status"`
		RolesNeeded *[]string          `json:"rolesNeeded"`
	}
	if err := utils.Body(c, &req); err != nil {
		return utils.Fail(c, err)
	}
	teamID := c.Params("id")
	if _, err := h.requireLeader(c.UserContext(), teamID, uid); err != nil {
		return utils.Fail(c, err)
	}

	team, err := h.svc.Teams.Update(c.UserContext(), teamID, store.TeamUpdate{
		Name:        req.Name,
		Description: req.Description,
		Hackathon:   req.Hackathon,
		MaxMembers:  req.MaxMembers,
		Status:      req.Status,
		RolesNeeded: req.RolesNeeded,
	})
	return respond(c, fiber.StatusOK, fiber.Map{"team": team}, err)
}

// TerminateTeam deletes the team and releases every member
// DELETE /api/teams/:id
func (h *Handler) TerminateTeam(c *fiber.Ctx) error {
	uid, err := caller(c)
	if err != nil {
		return utils.Fail(c, err)
	}
	teamID := c.Params("id")
	if err := h.svc.Membership.TerminateTeam(c.UserContext(), teamID, uid); err != nil {
		return utils.Fail(c, err)
	}
	h.log.Info("team terminated over http", zap.String("team_id", teamID), zap.String("user_id", uid))
	return utils.OK(c, fiber.Map{"message": "Team terminated"})
}

// ================== DISCOVERY ==================

// GET /api/teams/available
func (h *Handler) ListAvailableTeams(c *fiber.Ctx) error {
	teams, err := h.svc.Teams.ListAvailable(c.UserContext())
	return respond(c, fiber.StatusOK, fiber.Map{"teams": teams}, err)
}

// GET /api/teams/mine
func (h *Handler) GetMyTeams(c *fiber.Ctx) error {
	uid, err := caller(c)
	if err != nil {
		return utils.Fail(c, err)
	}
	teams, err := h.svc.Teams.UserTeams(c.UserContext(), uid)
	return respond(c, fiber.StatusOK, fiber.Map{"teams": teams}, err)
}

// GET /api/teams/:id/recommendations
func (h *Handler) GetRecommendations(c *fiber.Ctx) error {
	rec, err := h.svc.Teams.Recommendations(c.UserContext(), c.Params("id"))
	return respond(c, fiber.StatusOK, fiber.Map{"recommendations": rec}, err)
}

// ================== MEMBER MANAGEMENT ==================

// GET /api/teams/:id/members
func (h *Handler) GetTeamMembers(c *fiber.Ctx) error {
	members, err := h.svc.Teams.Members(c.UserContext(), c.Params("id"))
	return respond(c, fiber.StatusOK, fiber.Map{"members": members}, err)
}

// AddMember puts a user straight on the roster. Leader only.
// POST /api/teams/:id/members
func (h *Handler) AddMember(c *fiber.Ctx) error {
	uid, err := caller(c)
	if err != nil {
		return utils.Fail(c, err)
	}
	var req struct {
		UserID string `json:"userId"`
		Role   string `json:"role"`
	}
	if err := utils.Body(c, &req); err != nil {
		return utils.Fail(c, err)
	}
	teamID := c.Params("id")
	if _, err := h.requireLeader(c.UserContext(), teamID, uid); err != nil {
		return utils.Fail(c, err)
	}

	team, err := h.svc.Membership.AddTeamMember(c.UserContext(), teamID, req.UserID, req.Role)
	return respond(c, fiber.StatusCreated, fiber.Map{"team": team}, err)
}

// RemoveMember takes a member off the roster. The leader may remove
// anyone but themselves; a member may remove only themselves.
// DELETE /api/teams/:id/members/:userId
func (h *Handler) RemoveMember(c *fiber.Ctx) error {
	uid, err := caller(c)
	if err != nil {
		return utils.Fail(c, err)
	}
	teamID, target := c.Params("id"), c.Params("userId")

	if target == uid {
		err = h.svc.Membership.LeaveTeam(c.UserContext(), teamID, uid)
	} else if _, err = h.requireLeader(c.UserContext(), teamID, uid); err == nil {
		err = h.svc.Membership.RemoveTeamMember(c.UserContext(), teamID, target)
	}
	return respond(c, fiber.StatusOK, fiber.Map{"message": "Member removed"}, err)
}

// POST /api/teams/:id/leave
func (h *Handler) LeaveTeam(c *fiber.Ctx) error {
	uid, err := caller(c)
	if err != nil {
		return utils.Fail(c, err)
	}
	err = h.svc.Membership.LeaveTeam(c.UserContext(), c.Params("id"), uid)
	return respond(c, fiber.StatusOK, fiber.Map{"message": "Left team"}, err)
}

// GetJoinRequests lists pending join requests. Leader only.
// GET /api/teams/:id/join-requests
func (h *Handler) GetJoinRequests(c *fiber.Ctx) error {
	uid, err := caller(c)
	if err != nil {
		return utils.Fail(c, err)
	}
	teamID := c.Params("id")
	if _, err := h.requireLeader(c.UserContext(), teamID, uid); err != nil {
		return utils.Fail(c, err)
	}
	requests, err := h.svc.Membership.JoinRequests(c.UserContext(), teamID)
	return respond(c, fiber.StatusOK, fiber.Map{"requests": requests}, err)
}

// ================== WORKSPACE ==================

// GET /api/teams/:id/workspace
func (h *Handler) GetWorkspaceLogs(c *fiber.Ctx) error {
	uid, err := caller(c)
	if err != nil {
		return utils.Fail(c, err)
	}
	teamID := c.Params("id")
	if err := h.requireMember(c.UserContext(), teamID, uid); err != nil {
		return utils.Fail(c, err)
	}
	logs, err := h.svc.Workspace.Logs(c.UserContext(), teamID)
	return respond(c, fiber.StatusOK, fiber.Map{"logs": logs}, err)
}

// POST /api/teams/:id/workspace
func (h *Handler) AddWorkspaceLog(c *fiber.Ctx) error {
	uid, err := caller(c)
	if err != nil {
		return utils.Fail(c, err)
	}
	var req struct {
		Message string `json:"message"`
	}
	if err := utils.Body(c, &req); err != nil {
		return utils.Fail(c, err)
	}
	entry, err := h.svc.Workspace.AddLog(c.UserContext(), c.Params("id"), uid, req.Message)
	return respond(c, fiber.StatusCreated, fiber.Map{"log": entry}, err)
}
