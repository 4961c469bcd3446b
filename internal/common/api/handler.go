package api

import "github.com/gofiber/fiber/v2"

// Route is an interface for any feature that wants to register endpoints
type Route interface {
	Setup(app *fiber.App)
}

// Success renders the positive request/response envelope.
func Success(c *fiber.Ctx, result interface{}) error {
	return c.JSON(fiber.Map{
		"success": true,
		"result":  result,
	})
}

// Fail renders the negative envelope with the given HTTP status.
func Fail(c *fiber.Ctx, status int, err error) error {
	return c.Status(status).JSON(fiber.Map{
		"success": false,
		"reason":  err.Error(),
	})
}
