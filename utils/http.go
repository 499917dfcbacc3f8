// utils/http.go - JSON envelope helpers for fiber handlers
package utils

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"teamup/apperr"
)

// OK sends {"success": true, ...data}.
func OK(c *fiber.Ctx, data fiber.Map) error {
	return send(c, fiber.StatusOK, data)
}

func Created(c *fiber.Ctx, data fiber.Map) error {
	return send(c, fiber.StatusCreated, data)
}

func send(c *fiber.Ctx, status int, data fiber.Map) error {
	response := fiber.Map{"success": true}
	for k, v := range data {
		response[k] = v
	}
	return c.Status(status).JSON(response)
}

// Fail sends the error envelope with the status its code maps to.
// Internal errors never leak their message.
func Fail(c *fiber.Ctx, err error) error {
	code := apperr.CodeOf(err)
	return c.Status(apperr.HTTPStatus(code)).JSON(fiber.Map{
		"success": false,
		"error":   apperr.MessageOf(err),
		"code":    code,
	})
}

// ErrorHandler renders errors returned from handlers, including fiber's own
// routing errors, in the same envelope.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return c.Status(fe.Code).JSON(fiber.Map{
			"success": false,
			"error":   fe.Message,
		})
	}
	return Fail(c, err)
}

// Body parses the request body into v, reporting malformed input as
// INVALID_ARGUMENT.
func Body(c *fiber.Ctx, v any) error {
	if err := c.BodyParser(v); err != nil {
		return apperr.New(apperr.CodeInvalidArgument, "invalid request body")
	}
	return nil
}
