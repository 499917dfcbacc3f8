// middleware/auth.go
package middleware

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"

	"teamup/apperr"
	"teamup/services"
	"teamup/utils"
)

const (
	localUserID = "userId"
	localEmail  = "email"
	localToken  = "token"
)

// TokenVerifier resolves a bearer token to the identity it was issued to.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (services.Identity, error)
}

// Auth rejects requests without a valid bearer token and stores the
// caller's uid in c.Locals("userId").
func Auth(v TokenVerifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, err := bearer(c.Get(fiber.HeaderAuthorization))
		if err != nil {
			return utils.Fail(c, err)
		}
		return authenticate(c, v, token)
	}
}

// WebSocketAuth is Auth for upgrade requests. Browsers cannot set headers
// on a WebSocket handshake, so the token may also come from the "token"
// cookie or query parameter.
func WebSocketAuth(v TokenVerifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, err := bearer(c.Get(fiber.HeaderAuthorization))
		if err != nil {
			token = c.Cookies(localToken)
		}
		if token == "" {
			token = c.Query(localToken)
		}
		if token == "" {
			return utils.Fail(c, apperr.New(apperr.CodeUnauthenticated, "missing token"))
		}
		return authenticate(c, v, token)
	}
}

func authenticate(c *fiber.Ctx, v TokenVerifier, token string) error {
	id, err := v.Verify(c.UserContext(), token)
	if err != nil {
		return utils.Fail(c, err)
	}
	c.Locals(localUserID, id.UID)
	c.Locals(localEmail, id.Email)
	c.Locals(localToken, token)
	return c.Next()
}

func bearer(header string) (string, error) {
	if header == "" {
		return "", apperr.New(apperr.CodeUnauthenticated, "missing authorization header")
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", apperr.New(apperr.CodeUnauthenticated, "invalid authorization header format")
	}
	return strings.TrimSpace(token), nil
}

// GetUserID returns the authenticated caller's uid.
func GetUserID(c *fiber.Ctx) (string, error) {
	if id, ok := c.Locals(localUserID).(string); ok && id != "" {
		return id, nil
	}
	return "", apperr.New(apperr.CodeUnauthenticated, "user not authenticated")
}

func GetEmail(c *fiber.Ctx) string {
	email, _ := c.Locals(localEmail).(string)
	return email
}

// GetToken returns the bearer token the request was authenticated with.
func GetToken(c *fiber.Ctx) string {
	token, _ := c.Locals(localToken).(string)
	return token
}
