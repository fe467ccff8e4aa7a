package controllers

import (
	"log/slog"

	"Backend-Forms-Builder/src/middleware"
	"Backend-Forms-Builder/src/models"
	"Backend-Forms-Builder/src/services"
	"Backend-Forms-Builder/src/utils"

	"github.com/gofiber/fiber/v2"
)

type TemplateController struct {
	templates *services.TemplateService
	logger    *slog.Logger
}

func NewTemplateController(templates *services.TemplateService, logger *slog.Logger) *TemplateController {
	return &TemplateController{templates: templates, logger: logger}
}

// CreateTemplate godoc
// @Summary      Create a template
// @Description  Needs at least one question and one tag, a topic from the fixed list, and allowed users when private
// @Tags         templates
// @Accept       json
// @Produce      json
// @Param        body body models.CreateTemplateRequest true "Template"
// @Success      201  {object}  models.Template
// @Failure      400  {object}  models.ErrorResponse
// @Failure      401  {object}  models.ErrorResponse
// @Failure      500  {object}  models.ErrorResponse
// @Router       /new-template [post]
func (h *TemplateController) CreateTemplate(c *fiber.Ctx) error {
	var req models.CreateTemplateRequest
	if err := parseBody(c, &req); err != nil {
		return utils.RespondError(c, h.logger, err)
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	template, err := h.templates.Create(ctx, middleware.PrincipalFrom(c), &req)
	if err != nil {
		return utils.RespondError(c, h.logger, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Template created successfully",
		"data":    template,
	})
}

// UpdateTemplate godoc
// @Summary      Update a template
// @Description  Only the fields present in the body are changed
// @Tags         templates
// @Accept       json
// @Produce      json
// @Param        templateId path string true "Template ID"
// @Param        body body models.CreateTemplateRequest false "Fields to change"
// @Success      200  {object}  models.Template
// @Failure      400  {object}  models.ErrorResponse
// @Failure      403  {object}  models.ErrorResponse
// @Failure      404  {object}  models.ErrorResponse
// @Router       /update-template/{templateId} [put]
func (h *TemplateController) UpdateTemplate(c *fiber.Ctx) error {
	var patch models.TemplatePatch
	if err := parseBody(c, &patch); err != nil {
		return utils.RespondError(c, h.logger, err)
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	template, err := h.templates.Update(ctx, middleware.PrincipalFrom(c), c.Params("templateId"), &patch)
	if err != nil {
		return utils.RespondError(c, h.logger, err)
	}
	return c.JSON(fiber.Map{
		"message": "Template updated successfully",
		"data":    template,
	})
}

// GetTemplate godoc
// @Summary      Get a template
// @Description  Public templates are readable by anyone; readOnly tells the client whether it may edit
// @Tags         templates
// @Produce      json
// @Param        templateId path string true "Template ID"
// @Success      200  {object}  models.TemplateView
// @Failure      403  {object}  models.ErrorResponse
// @Failure      404  {object}  models.ErrorResponse
// @Router       /template/{templateId} [get]
func (h *TemplateController) GetTemplate(c *fiber.Ctx) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	view, err := h.templates.Get(ctx, middleware.PrincipalFrom(c), c.Params("templateId"))
	if err != nil {
		return utils.RespondError(c, h.logger, err)
	}
	return c.JSON(view)
}

// GetAllTemplates godoc
// @Summary      List templates
// @Description  Every template the caller may read, newest first
// @Tags         templates
// @Produce      json
// @Success      200  {array}  models.TemplateView
// @Router       /all-templates [get]
func (h *TemplateController) GetAllTemplates(c *fiber.Ctx) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	views, err := h.templates.List(ctx, middleware.PrincipalFrom(c))
	if err != nil {
		return utils.RespondError(c, h.logger, err)
	}
	return c.JSON(views)
}

// GetLatestTemplates godoc
// @Summary      Latest templates
// @Tags         templates
// @Produce      json
// @Param        limit query int false "Maximum number of templates"
// @Success      200  {array}   models.TemplateView
// @Failure      400  {object}  models.ErrorResponse
// @Router       /latest-templates [get]
func (h *TemplateController) GetLatestTemplates(c *fiber.Ctx) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	views, err := h.templates.Latest(ctx, middleware.PrincipalFrom(c), c.QueryInt("limit", 0))
	if err != nil {
		return utils.RespondError(c, h.logger, err)
	}
	return c.JSON(views)
}

// GetTemplatesByTag godoc
// @Summary      Templates with a tag
// @Tags         templates
// @Produce      json
// @Param        tagId path string true "Tag ID"
// @Success      200  {array}   models.TemplateView
// @Failure      400  {object}  models.ErrorResponse
// @Router       /templates/tag/{tagId} [get]
func (h *TemplateController) GetTemplatesByTag(c *fiber.Ctx) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	views, err := h.templates.ListByTag(ctx, middleware.PrincipalFrom(c), c.Params("tagId"))
	if err != nil {
		return utils.RespondError(c, h.logger, err)
	}
	return c.JSON(views)
}

// DeleteTemplate godoc
// @Summary      Delete a template
// @Description  Responses to the template are kept
// @Tags         templates
// @Produce      json
// @Param        templateId path string true "Template ID"
// @Success      200  {object}  map[string]string
// @Failure      403  {object}  models.ErrorResponse
// @Failure      404  {object}  models.ErrorResponse
// @Router       /delete-template/{templateId} [delete]
func (h *TemplateController) DeleteTemplate(c *fiber.Ctx) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	if err := h.templates.Delete(ctx, middleware.PrincipalFrom(c), c.Params("templateId")); err != nil {
		return utils.RespondError(c, h.logger, err)
	}
	return c.JSON(fiber.Map{"message": "Template deleted successfully"})
}

// AddQuestion godoc
// @Summary      Add a question
// @Tags         questions
// @Accept       json
// @Produce      json
// @Param        templateId path string true "Template ID"
// @Param        body body models.QuestionInput true "Question"
// @Success      200  {object}  models.Question
// @Failure      400  {object}  models.ErrorResponse
// @Failure      403  {object}  models.ErrorResponse
// @Failure      404  {object}  models.ErrorResponse
// @Router       /template/{templateId}/add-question [post]
func (h *TemplateController) AddQuestion(c *fiber.Ctx) error {
	var req models.QuestionInput
	if err := parseBody(c, &req); err != nil {
		return utils.RespondError(c, h.logger, err)
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	question, err := h.templates.AddQuestion(ctx, middleware.PrincipalFrom(c), c.Params("templateId"), &req)
	if err != nil {
		return utils.RespondError(c, h.logger, err)
	}
	return c.JSON(fiber.Map{"message": "Question added successfully", "data": question})
}

// UpdateQuestion godoc
// @Summary      Update a question
// @Description  Only the fields present in the body are changed
// @Tags         questions
// @Accept       json
// @Produce      json
// @Param        templateId path string true "Template ID"
// @Param        questionId path string true "Question ID"
// @Param        body body models.QuestionInput false "Fields to change"
// @Success      200  {object}  models.Question
// @Failure      400  {object}  models.ErrorResponse
// @Failure      403  {object}  models.ErrorResponse
// @Failure      404  {object}  models.ErrorResponse
// @Router       /template/{templateId}/update-question/{questionId} [post]
func (h *TemplateController) UpdateQuestion(c *fiber.Ctx) error {
	var patch models.QuestionPatch
	if err := parseBody(c, &patch); err != nil {
		return utils.RespondError(c, h.logger, err)
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	question, err := h.templates.UpdateQuestion(ctx, middleware.PrincipalFrom(c), c.Params("templateId"), c.Params("questionId"), &patch)
	if err != nil {
		return utils.RespondError(c, h.logger, err)
	}
	return c.JSON(fiber.Map{"message": "Question updated successfully", "data": question})
}

// DeleteQuestion godoc
// @Summary      Delete a question
// @Tags         questions
// @Produce      json
// @Param        templateId path string true "Template ID"
// @Param        questionId path string true "Question ID"
// @Success      200  {object}  map[string]string
// @Failure      403  {object}  models.ErrorResponse
// @Failure      404  {object}  models.ErrorResponse
// @Router       /template/{templateId}/delete-question/{questionId} [delete]
func (h *TemplateController) DeleteQuestion(c *fiber.Ctx) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	if err := h.templates.DeleteQuestion(ctx, middleware.PrincipalFrom(c), c.Params("templateId"), c.Params("questionId")); err != nil {
		return utils.RespondError(c, h.logger, err)
	}
	return c.JSON(fiber.Map{"message": "Question deleted successfully"})
}
