// handlers/handlers.go - HTTP handlers over the domain services
package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"teamup/middleware"
	"teamup/models"
	"teamup/services"
	"teamup/utils"
)

type Handler struct {
	svc *services.Services
	log *zap.Logger
}

func New(svc *services.Services, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{svc: svc, log: log.Named("http")}
}

func caller(c *fiber.Ctx) (string, error) {
	return middleware.GetUserID(c)
}

// requireLeader loads the team and fails FORBIDDEN unless uid leads it.
// In degraded mode there is no team to check and nil is returned.
func (h *Handler) requireLeader(ctx context.Context, teamID, uid string) (*models.Team, error) {
	team, err := h.svc.Teams.Get(ctx, teamID)
	if err != nil || team == nil {
		return team, err
	}
	if team.LeaderID != uid {
		return nil, errNotLeader
	}
	return team, nil
}

// requireMember fails FORBIDDEN unless uid is on the team's roster.
func (h *Handler) requireMember(ctx context.Context, teamID, uid string) error {
	team, err := h.svc.Teams.Get(ctx, teamID)
	if err != nil || team == nil {
		return err
	}
	if !team.HasMember(uid) {
		return errNotMember
	}
	return nil
}

func respond(c *fiber.Ctx, status int, data fiber.Map, err error) error {
	if err != nil {
		return utils.Fail(c, err)
	}
	if status == fiber.StatusCreated {
		return utils.Created(c, data)
	}
	return utils.OK(c, data)
}
