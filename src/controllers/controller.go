package controllers

import (
	"context"
	"time"

	"Backend-Forms-Builder/src/utils"

	"github.com/gofiber/fiber/v2"
)

const requestTimeout = 5 * time.Second

// requestContext bounds the storage work of a single handler.
func requestContext(c *fiber.Ctx) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.UserContext(), requestTimeout)
}

func parseBody(c *fiber.Ctx, out any) error {
	if err := c.BodyParser(out); err != nil {
		return utils.NewValidationError("Invalid input", err.Error())
	}
	return nil
}
