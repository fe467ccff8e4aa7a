package routes

import (
	"github.com/gofiber/fiber/v2"
)

func tagRoutes(app *fiber.App, h *Handlers) {
	app.Get("/tags", h.Tags.GetAllTags)
	app.Patch("/templates/:templateId/tags", h.Auth.Required, h.Tags.UpdateTags)
}
