package routes

import (
	"github.com/gofiber/fiber/v2"
)

func formRoutes(app *fiber.App, h *Handlers) {
	app.Get("/templates/most-answered", h.Auth.Optional, h.Forms.GetMostAnswered)
	app.Post("/template/:templateId/submit-answers", h.Auth.Required, h.Forms.SubmitAnswers)

	// Group middleware would match by prefix and also catch /templates/tag/:tagId.
	app.Get("/templates/:templateId/form-responses", h.Auth.Required, h.Forms.GetFormResponses)
	app.Get("/templates/:templateId/user-form-responses", h.Auth.Required, h.Forms.GetUserFormResponse)
	app.Put("/templates/:templateId/update-form-response", h.Auth.Required, h.Forms.UpdateFormResponse)
	app.Delete("/templates/:templateId/form-response", h.Auth.Required, h.Forms.DeleteFormResponse)
}
