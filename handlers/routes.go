// handlers/routes.go
package handlers

import (
	"github.com/gofiber/fiber/v2"

	"teamup/apperr"
	"teamup/middleware"
)

var (
	errNotLeader = apperr.New(apperr.CodeForbidden, "only the team leader can do this")
	errNotMember = apperr.New(apperr.CodeForbidden, "only team members can do this")
)

type RouteOptions struct {
	// AuthLimiter guards the auth endpoints. Optional.
	AuthLimiter fiber.Handler
}

// Routes mounts the API and the realtime endpoint on app.
func (h *Handler) Routes(app fiber.Router, opts RouteOptions) {
	auth := middleware.Auth(h.svc.Auth)
	api := app.Group("/api")

	// Auth routes with stricter rate limiting
	authGroup := api.Group("/auth")
	if opts.AuthLimiter != nil {
		authGroup.Use(opts.AuthLimiter)
	}
	authGroup.Post("/register", h.Register)
	authGroup.Post("/login", h.Login)
	authGroup.Post("/logout", auth, h.Logout)
	authGroup.Get("/me", auth, h.Me)

	profiles := api.Group("/profiles", auth)
	profiles.Get("/", h.ListProfiles)
	profiles.Get("/available", h.ListAvailableProfiles)
	profiles.Get("/roles", h.AvailableRoles)
	profiles.Get("/me", h.GetMyProfile)
	profiles.Post("/me", h.CreateMyProfile)
	profiles.Put("/me", h.UpdateMyProfile)
	profiles.Get("/:id", h.GetProfile)

	teams := api.Group("/teams", auth)
	teams.Post("/", h.CreateTeam)
	teams.Get("/available", h.ListAvailableTeams)
	teams.Get("/mine", h.GetMyTeams)
	teams.Get("/:id", h.GetTeam)
	teams.Put("/:id", h.UpdateTeam)
	teams.Delete("/:id", h.TerminateTeam)
	teams.Get("/:id/members", h.GetTeamMembers)
	teams.Post("/:id/members", h.AddMember)
	teams.Delete("/:id/members/:userId", h.RemoveMember)
	teams.Post("/:id/leave", h.LeaveTeam)
	teams.Get("/:id/recommendations", h.GetRecommendations)
	teams.Get("/:id/join-requests", h.GetJoinRequests)
	teams.Get("/:id/workspace", h.GetWorkspaceLogs)
	teams.Post("/:id/workspace", h.AddWorkspaceLog)

	invitations := api.Group("/invitations", auth)
	invitations.Post("/", h.SendInvitation)
	invitations.Get("/", h.ListInvitations)
	invitations.Post("/:id/respond", h.RespondToInvitation)

	notifications := api.Group("/notifications", auth)
	notifications.Get("/", h.ListNotifications)
	notifications.Get("/unread-count", h.UnreadCount)
	notifications.Post("/read-all", h.MarkAllRead)
	notifications.Post("/:id/read", h.MarkRead)

	posts := api.Group("/posts", auth)
	posts.Get("/", h.GetFeed)
	posts.Get("/user/:id", h.GetUserPosts)
	posts.Post("/", h.CreatePost)
	posts.Put("/:id", h.UpdatePost)
	posts.Delete("/:id", h.DeletePost)

	app.Use("/ws", middleware.WebSocketAuth(h.svc.Auth), upgradeOnly)
	app.Get("/ws", h.Realtime())
}
