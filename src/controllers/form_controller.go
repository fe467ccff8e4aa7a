package controllers

import (
	"log/slog"

	"Backend-Forms-Builder/src/middleware"
	"Backend-Forms-Builder/src/models"
	"Backend-Forms-Builder/src/services"
	"Backend-Forms-Builder/src/utils"

	"github.com/gofiber/fiber/v2"
)

type FormController struct {
	forms  *services.FormService
	logger *slog.Logger
}

func NewFormController(forms *services.FormService, logger *slog.Logger) *FormController {
	return &FormController{forms: forms, logger: logger}
}

// SubmitAnswers godoc
// @Summary      Answer a template
// @Description  One response per user and template
// @Tags         forms
// @Accept       json
// @Produce      json
// @Param        templateId path string true "Template ID"
// @Param        body body models.AnswersRequest true "Answers"
// @Success      200  {object}  models.FormResponse
// @Failure      400  {object}  models.ErrorResponse
// @Failure      403  {object}  models.ErrorResponse
// @Failure      404  {object}  models.ErrorResponse
// @Router       /template/{templateId}/submit-answers [post]
func (h *FormController) SubmitAnswers(c *fiber.Ctx) error {
	var req models.AnswersRequest
	if err := parseBody(c, &req); err != nil {
		return utils.RespondError(c, h.logger, err)
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	response, err := h.forms.Submit(ctx, middleware.PrincipalFrom(c), c.Params("templateId"), &req)
	if err != nil {
		return utils.RespondError(c, h.logger, err)
	}
	return c.JSON(fiber.Map{"message": "Answers sent successfully", "data": response})
}

// GetFormResponses godoc
// @Summary      All responses to a template
// @Description  Template creator or admin only
// @Tags         forms
// @Produce      json
// @Param        templateId path string true "Template ID"
// @Success      200  {array}   models.FormResponse
// @Failure      403  {object}  models.ErrorResponse
// @Failure      404  {object}  models.ErrorResponse
// @Router       /templates/{templateId}/form-responses [get]
func (h *FormController) GetFormResponses(c *fiber.Ctx) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	responses, err := h.forms.ListForTemplate(ctx, middleware.PrincipalFrom(c), c.Params("templateId"))
	if err != nil {
		return utils.RespondError(c, h.logger, err)
	}
	return c.JSON(responses)
}

// GetUserFormResponse godoc
// @Summary      A user's response to a template
// @Description  Defaults to the caller; userId selects another user and needs admin
// @Tags         forms
// @Produce      json
// @Param        templateId path string true "Template ID"
// @Param        userId query string false "User ID"
// @Success      200  {object}  models.FormResponse
// @Failure      403  {object}  models.ErrorResponse
// @Failure      404  {object}  models.ErrorResponse
// @Router       /templates/{templateId}/user-form-responses [get]
func (h *FormController) GetUserFormResponse(c *fiber.Ctx) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	response, err := h.forms.GetResponse(ctx, middleware.PrincipalFrom(c), c.Params("templateId"), c.Query("userId"))
	if err != nil {
		return utils.RespondError(c, h.logger, err)
	}
	return c.JSON(response)
}

// UpdateFormResponse godoc
// @Summary      Replace a response's answers
// @Tags         forms
// @Accept       json
// @Produce      json
// @Param        templateId path string true "Template ID"
// @Param        userId query string false "User ID"
// @Param        body body models.AnswersRequest true "Answers"
// @Success      200  {object}  models.FormResponse
// @Failure      400  {object}  models.ErrorResponse
// @Failure      403  {object}  models.ErrorResponse
// @Failure      404  {object}  models.ErrorResponse
// @Router       /templates/{templateId}/update-form-response [put]
func (h *FormController) UpdateFormResponse(c *fiber.Ctx) error {
	var req models.AnswersRequest
	if err := parseBody(c, &req); err != nil {
		return utils.RespondError(c, h.logger, err)
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	response, err := h.forms.UpdateResponse(ctx, middleware.PrincipalFrom(c), c.Params("templateId"), c.Query("userId"), &req)
	if err != nil {
		return utils.RespondError(c, h.logger, err)
	}
	return c.JSON(fiber.Map{"message": "Form response updated successfully", "data": response})
}

// DeleteFormResponse godoc
// @Summary      Delete a response
// @Tags         forms
// @Produce      json
// @Param        templateId path string true "Template ID"
// @Param        userId query string false "User ID"
// @Success      200  {object}  map[string]string
// @Failure      403  {object}  models.ErrorResponse
// @Failure      404  {object}  models.ErrorResponse
// @Router       /templates/{templateId}/form-response [delete]
func (h *FormController) DeleteFormResponse(c *fiber.Ctx) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	if err := h.forms.DeleteResponse(ctx, middleware.PrincipalFrom(c), c.Params("templateId"), c.Query("userId")); err != nil {
		return utils.RespondError(c, h.logger, err)
	}
	return c.JSON(fiber.Map{"message": "Form response deleted successfully"})
}

// GetMostAnswered godoc
// @Summary      Most answered templates
// @Tags         forms
// @Produce      json
// @Param        limit query int false "Maximum number of templates (default 5)"
// @Success      200  {array}   models.TemplateResponseCount
// @Failure      400  {object}  models.ErrorResponse
// @Router       /templates/most-answered [get]
func (h *FormController) GetMostAnswered(c *fiber.Ctx) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	ranked, err := h.forms.MostAnswered(ctx, middleware.PrincipalFrom(c), c.QueryInt("limit", 0))
	if err != nil {
		return utils.RespondError(c, h.logger, err)
	}
	return c.JSON(ranked)
}
