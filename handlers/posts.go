// handlers/posts.go
package handlers

import (
	"github.com/gofiber/fiber/v2"

	"teamup/services"
	"teamup/utils"
)

// GET /api/posts
func (h *Handler) GetFeed(c *fiber.Ctx) error {
	posts, err := h.svc.Feed.Feed(c.UserContext())
	return respond(c, fiber.StatusOK, fiber.Map{"posts": posts}, err)
}

// GET /api/posts/user/:id
func (h *Handler) GetUserPosts(c *fiber.Ctx) error {
	posts, err := h.svc.Feed.UserPosts(c.UserContext(), c.Params("id"))
	return respond(c, fiber.StatusOK, fiber.Map{"posts": posts}, err)
}

// POST /api/posts
func (h *Handler) CreatePost(c *fiber.Ctx) error {
	uid, err := caller(c)
	if err != nil {
		return utils.Fail(c, err)
	}
	var req services.PostInput
	if err := utils.Body(c, &req); err != nil {
		return utils.Fail(c, err)
	}
	post, err := h.svc.Feed.CreateUserPost(c.UserContext(), uid, req)
	return respond(c, fiber.StatusCreated, fiber.Map{"post": post}, err)
}

// PUT /api/posts/:id
func (h *Handler) UpdatePost(c *fiber.Ctx) error {
	uid, err := caller(c)
	if err != nil {
		return utils.Fail(c, err)
	}
	var req services.PostInput
	if err := utils.Body(c, &req); err != nil {
		return utils.Fail(c, err)
	}
	post, err := h.svc.Feed.UpdatePost(c.UserContext(), c.Params("id"), uid, req)
	return respond(c, fiber.StatusOK, fiber.Map{"post": post}, err)
}

// DELETE /api/posts/:id
func (h *Handler) DeletePost(c *fiber.Ctx) error {
	uid, err := caller(c)
	if err != nil {
		return utils.Fail(c, err)
	}
	err = h.svc.Feed.DeletePost(c.UserContext(), c.Params("id"), uid)
	return respond(c, fiber.StatusOK, fiber.Map{"message": "Post deleted"}, err)
}
