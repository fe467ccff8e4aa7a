package routes

import (
	"github.com/gofiber/fiber/v2"
)

func templateRoutes(app *fiber.App, h *Handlers) {
	app.Post("/new-template", h.Auth.Required, h.Templates.CreateTemplate)
	app.Put("/update-template/:templateId", h.Auth.Required, h.Templates.UpdateTemplate)
	app.Get("/template/:templateId", h.Auth.Optional, h.Templates.GetTemplate)
	app.Get("/all-templates", h.Auth.Optional, h.Templates.GetAllTemplates)
	app.Get("/latest-templates", h.Auth.Optional, h.Templates.GetLatestTemplates)
	app.Delete("/delete-template/:templateId", h.Auth.Required, h.Templates.DeleteTemplate)
	app.Get("/templates/tag/:tagId", h.Auth.Optional, h.Templates.GetTemplatesByTag)

	app.Post("/template/:templateId/add-question", h.Auth.Required, h.Templates.AddQuestion)
	app.Post("/template/:templateId/update-question/:questionId", h.Auth.Required, h.Templates.UpdateQuestion)
	app.Delete("/template/:templateId/delete-question/:questionId", h.Auth.Required, h.Templates.DeleteQuestion)
}
