package routes

import (
	"github.com/gofiber/fiber/v2"
)

func authRoutes(app *fiber.App, h *Handlers) {
	app.Post("/sign-up", h.Accounts.SignUp)
	app.Post("/sign-in", h.Accounts.SignIn)
	app.Post("/sign-out", h.Auth.Optional, h.Accounts.SignOut)
	app.Get("/verify", h.Auth.Optional, h.Accounts.Verify)
	app.Get("/account", h.Auth.Required, h.Accounts.Account)
}
