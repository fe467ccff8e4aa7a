package controllers

import (
	"log/slog"

	"Backend-Forms-Builder/src/middleware"
	"Backend-Forms-Builder/src/models"
	"Backend-Forms-Builder/src/services"
	"Backend-Forms-Builder/src/utils"

	"github.com/gofiber/fiber/v2"
)

type TagController struct {
	tags   *services.TagService
	logger *slog.Logger
}

func NewTagController(tags *services.TagService, logger *slog.Logger) *TagController {
	return &TagController{tags: tags, logger: logger}
}

// UpdateTags godoc
// @Summary      Add tags to a template
// @Description  Unknown tag names are created; tags already on the template are kept once
// @Tags         tags
// @Accept       json
// @Produce      json
// @Param        templateId path string true "Template ID"
// @Param        body body models.UpdateTagsRequest true "Tag names"
// @Success      200  {object}  models.Template
// @Failure      400  {object}  models.ErrorResponse
// @Failure      403  {object}  models.ErrorResponse
// @Failure      404  {object}  models.ErrorResponse
// @Router       /templates/{templateId}/tags [patch]
func (h *TagController) UpdateTags(c *fiber.Ctx) error {
	var req models.UpdateTagsRequest
	if err := parseBody(c, &req); err != nil {
		return utils.RespondError(c, h.logger, err)
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	template, err := h.tags.AddToTemplate(ctx, middleware.PrincipalFrom(c), c.Params("templateId"), &req)
	if err != nil {
		return utils.RespondError(c, h.logger, err)
	}
	return c.JSON(fiber.Map{"message": "Tags added successfully", "data": template})
}

// GetAllTags godoc
// @Summary      List tags
// @Tags         tags
// @Produce      json
// @Success      200  {array}  models.Tag
// @Router       /tags [get]
func (h *TagController) GetAllTags(c *fiber.Ctx) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	tags, err := h.tags.List(ctx)
	if err != nil {
		return utils.RespondError(c, h.logger, err)
	}
	return c.JSON(tags)
}
