package routes

import (
	"github.com/gofiber/fiber/v2"
)

// userRoutes are the admin account operations. The gate re-reads the
// caller's role for each of them.
func userRoutes(app *fiber.App, h *Handlers) {
	app.Get("/all-users", h.Auth.Required, h.Users.GetUsers)
	app.Put("/block-users", h.Auth.Required, h.Users.BlockUsers)
	app.Put("/unblock-users", h.Auth.Required, h.Users.UnblockUsers)
	app.Delete("/delete-users", h.Auth.Required, h.Users.DeleteUsers)
	app.Put("/add-admins", h.Auth.Required, h.Users.AddAdmins)
	app.Put("/remove-admins", h.Auth.Required, h.Users.RemoveAdmins)
	app.Patch("/users/:userId/role", h.Auth.Required, h.Users.SetRole)
}
