package controllers

import (
	"context"
	"log/slog"

	"Backend-Forms-Builder/src/middleware"
	"Backend-Forms-Builder/src/models"
	"Backend-Forms-Builder/src/services"
	"Backend-Forms-Builder/src/utils"

	"github.com/gofiber/fiber/v2"
)

type UserController struct {
	users  *services.UserService
	logger *slog.Logger
}

func NewUserController(users *services.UserService, logger *slog.Logger) *UserController {
	return &UserController{users: users, logger: logger}
}

// GetUsers godoc
// @Summary      List users
// @Description  Admin only. Returns the restricted user view.
// @Tags         admin
// @Produce      json
// @Success      200  {array}   models.UserSummary
// @Failure      401  {object}  models.ErrorResponse
// @Failure      403  {object}  models.ErrorResponse
// @Router       /all-users [get]
func (h *UserController) GetUsers(c *fiber.Ctx) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	users, err := h.users.List(ctx, middleware.PrincipalFrom(c))
	if err != nil {
		return utils.RespondError(c, h.logger, err)
	}
	return c.JSON(fiber.Map{
		"message": "Users retrieved successfully",
		"data":    users,
	})
}

type bulkFunc func(ctx context.Context, p *models.Principal, req *models.UserIDsRequest) (models.BulkResult, error)

func (h *UserController) bulk(c *fiber.Ctx, apply bulkFunc, message string) error {
	var req models.UserIDsRequest
	if err := parseBody(c, &req); err != nil {
		return utils.RespondError(c, h.logger, err)
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	res, err := apply(ctx, middleware.PrincipalFrom(c), &req)
	if err != nil {
		return utils.RespondError(c, h.logger, err)
	}
	return c.JSON(fiber.Map{"message": message, "data": res})
}

// BlockUsers godoc
// @Summary      Block users
// @Tags         admin
// @Accept       json
// @Produce      json
// @Param        body body models.UserIDsRequest true "User ids"
// @Success      200  {object}  models.BulkResult
// @Failure      400  {object}  models.ErrorResponse
// @Failure      403  {object}  models.ErrorResponse
// @Failure      404  {object}  models.ErrorResponse
// @Router       /block-users [put]
func (h *UserController) BlockUsers(c *fiber.Ctx) error {
	return h.bulk(c, h.users.Block, "Users blocked successfully!")
}

// UnblockUsers godoc
// @Summary      Unblock users
// @Tags         admin
// @Accept       json
// @Produce      json
// @Param        body body models.UserIDsRequest true "User ids"
// @Success      200  {object}  models.BulkResult
// @Failure      400  {object}  models.ErrorResponse
// @Failure      403  {object}  models.ErrorResponse
// @Failure      404  {object}  models.ErrorResponse
// @Router       /unblock-users [put]
func (h *UserController) UnblockUsers(c *fiber.Ctx) error {
	return h.bulk(c, h.users.Unblock, "Users unblocked successfully!")
}

// AddAdmins godoc
// @Summary      Grant admin
// @Tags         admin
// @Accept       json
// @Produce      json
// @Param        body body models.UserIDsRequest true "User ids"
// @Success      200  {object}  models.BulkResult
// @Failure      400  {object}  models.ErrorResponse
// @Failure      403  {object}  models.ErrorResponse
// @Failure      404  {object}  models.ErrorResponse
// @Router       /add-admins [put]
func (h *UserController) AddAdmins(c *fiber.Ctx) error {
	return h.bulk(c, h.users.AddAdmins, "New admins added successfully!")
}

// RemoveAdmins godoc
// @Summary      Revoke admin
// @Tags         admin
// @Accept       json
// @Produce      json
// @Param        body body models.UserIDsRequest true "User ids"
// @Success      200  {object}  models.BulkResult
// @Failure      400  {object}  models.ErrorResponse
// @Failure      403  {object}  models.ErrorResponse
// @Failure      404  {object}  models.ErrorResponse
// @Router       /remove-admins [put]
func (h *UserController) RemoveAdmins(c *fiber.Ctx) error {
	return h.bulk(c, h.users.RemoveAdmins, "Admins removed successfully!")
}

// DeleteUsers godoc
// @Summary      Delete users
// @Description  Removes the accounts; their templates and responses are kept
// @Tags         admin
// @Accept       json
// @Produce      json
// @Param        body body models.UserIDsRequest true "User ids"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  models.ErrorResponse
// @Failure      403  {object}  models.ErrorResponse
// @Failure      404  {object}  models.ErrorResponse
// @Router       /delete-users [delete]
func (h *UserController) DeleteUsers(c *fiber.Ctx) error {
	var req models.UserIDsRequest
	if err := parseBody(c, &req); err != nil {
		return utils.RespondError(c, h.logger, err)
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	n, err := h.users.Delete(ctx, middleware.PrincipalFrom(c), &req)
	if err != nil {
		return utils.RespondError(c, h.logger, err)
	}
	return c.JSON(fiber.Map{
		"message": "Users deleted successfully!",
		"data":    fiber.Map{"deletedCount": n},
	})
}

// SetRole godoc
// @Summary      Grant or revoke admin on one user
// @Tags         admin
// @Accept       json
// @Produce      json
// @Param        userId path string true "User ID"
// @Param        body body models.RoleRequest true "Role"
// @Success      200  {object}  models.BulkResult
// @Failure      400  {object}  models.ErrorResponse
// @Failure      403  {object}  models.ErrorResponse
// @Failure      404  {object}  models.ErrorResponse
// @Router       /users/{userId}/role [patch]
func (h *UserController) SetRole(c *fiber.Ctx) error {
	var req models.RoleRequest
	if err := parseBody(c, &req); err != nil {
		return utils.RespondError(c, h.logger, err)
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	res, err := h.users.SetRole(ctx, middleware.PrincipalFrom(c), c.Params("userId"), &req)
	if err != nil {
		return utils.RespondError(c, h.logger, err)
	}
	return c.JSON(fiber.Map{"message": "Role updated successfully", "data": res})
}
