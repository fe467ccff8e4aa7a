package routes

import (
	"Backend-Forms-Builder/src/controllers"
	"Backend-Forms-Builder/src/middleware"

	"github.com/gofiber/fiber/v2"
)

// Handlers is everything the route table binds to.
type Handlers struct {
	Auth      *middleware.Auth
	Accounts  *controllers.AuthController
	Users     *controllers.UserController
	Templates *controllers.TemplateController
	Tags      *controllers.TagController
	Forms     *controllers.FormController
}

func InitRoutes(app *fiber.App, h *Handlers) {
	authRoutes(app, h)
	userRoutes(app, h)
	// most-answered must be registered ahead of the /templates/:templateId routes
	formRoutes(app, h)
	templateRoutes(app, h)
	tagRoutes(app, h)

	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString("API is running...")
	})
}
