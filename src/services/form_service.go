package services

import (
	"context"
	"fmt"
	"time"

	"Backend-Forms-Builder/src/authz"
	"Backend-Forms-Builder/src/models"
	"Backend-Forms-Builder/src/repository"
	"Backend-Forms-Builder/src/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const DefaultMostAnsweredLimit = 5

type FormService struct {
	forms     repository.FormResponseRepository
	templates repository.TemplateRepository
	gate      *authz.Gate
	validate  *utils.Validator
	now       func() time.Time
}

// answersFor checks every answer against the template's questions.
func answersFor(template *models.Template, inputs []models.AnswerInput) ([]models.Answer, error) {
	answers := make([]models.Answer, len(inputs))
	var fields []string
	for i, in := range inputs {
		id, err := primitive.ObjectIDFromHex(in.QuestionID)
		if err != nil || !template.HasQuestion(id) {
			fields = append(fields, fmt.Sprintf("answers[%d].questionId does not match a question of this template", i))
			continue
		}
		answers[i] = models.Answer{QuestionID: id, AnswerText: in.AnswerText}
	}
	if len(fields) > 0 {
		return nil, utils.NewValidationError("Validation failed", fields...)
	}
	return answers, nil
}

// Submit records the caller's answers. The template must be readable by the
// caller and a user answers a template at most once.
func (s *FormService) Submit(ctx context.Context, p *models.Principal, rawTemplateID string, req *models.AnswersRequest) (*models.FormResponse, error) {
	if err := requireAuth(p); err != nil {
		return nil, err
	}
	templateID, err := parseID(rawTemplateID, "template")
	if err != nil {
		return nil, err
	}
	template, err := findTemplate(ctx, s.templates, templateID)
	if err != nil {
		return nil, err
	}
	if _, err := s.gate.Caller(p).CanReadTemplate(ctx, template); err != nil {
		return nil, err
	}
	if err := s.validate.Struct(req); err != nil {
		return nil, err
	}
	answers, err := answersFor(template, req.Answers)
	if err != nil {
		return nil, err
	}

	// best effort: two concurrent first submissions can both pass this check
	_, err = s.forms.FindByTemplateAndUser(ctx, templateID, p.ID)
	if err == nil {
		return nil, utils.NewConflictError("You have already answered this template")
	}
	if !isNotFound(err) {
		return nil, utils.NewInternalError("Error sending answers", err)
	}

	now := s.now()
	response := &models.FormResponse{
		TemplateID: templateID,
		UserID:     p.ID,
		Answers:    answers,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.forms.Create(ctx, response); err != nil {
		return nil, utils.NewInternalError("Error sending answers", err)
	}
	return response, nil
}

// ListForTemplate returns every response to a template; only the template's
// creator or an admin may see them.
func (s *FormService) ListForTemplate(ctx context.Context, p *models.Principal, rawTemplateID string) ([]models.FormResponse, error) {
	if err := requireAuth(p); err != nil {
		return nil, err
	}
	templateID, err := parseID(rawTemplateID, "template")
	if err != nil {
		return nil, err
	}
	template, err := findTemplate(ctx, s.templates, templateID)
	if err != nil {
		return nil, err
	}
	if err := s.gate.Caller(p).CanMutateTemplate(ctx, template); err != nil {
		return nil, err
	}

	responses, err := s.forms.ListByTemplate(ctx, templateID)
	if err != nil {
		return nil, utils.NewInternalError("Error fetching form responses", err)
	}
	if responses == nil {
		responses = []models.FormResponse{}
	}
	return responses, nil
}

// loadResponse finds the response of the target user (the caller when
// rawUserID is empty) and applies the owner-or-admin rule to it.
func (s *FormService) loadResponse(ctx context.Context, p *models.Principal, rawTemplateID, rawUserID string) (*models.FormResponse, error) {
	if err := requireAuth(p); err != nil {
		return nil, err
	}
	templateID, err := parseID(rawTemplateID, "template")
	if err != nil {
		return nil, err
	}
	userID := p.ID
	if rawUserID != "" {
		if userID, err = parseID(rawUserID, "user"); err != nil {
			return nil, err
		}
	}

	response, err := s.forms.FindByTemplateAndUser(ctx, templateID, userID)
	if err != nil && !isNotFound(err) {
		return nil, utils.NewInternalError("Error fetching form response", err)
	}
	if err := s.gate.Caller(p).CanMutateForm(ctx, response); err != nil {
		return nil, err
	}
	return response, nil
}

func (s *FormService) GetResponse(ctx context.Context, p *models.Principal, rawTemplateID, rawUserID string) (*models.FormResponse, error) {
	return s.loadResponse(ctx, p, rawTemplateID, rawUserID)
}

// UpdateResponse replaces the whole answers sequence of an existing response.
func (s *FormService) UpdateResponse(ctx context.Context, p *models.Principal, rawTemplateID, rawUserID string, req *models.AnswersRequest) (*models.FormResponse, error) {
	response, err := s.loadResponse(ctx, p, rawTemplateID, rawUserID)
	if err != nil {
		return nil, err
	}
	if err := s.validate.Struct(req); err != nil {
		return nil, err
	}
	template, err := findTemplate(ctx, s.templates, response.TemplateID)
	if err != nil {
		return nil, err
	}
	if template == nil {
		return nil, utils.NewNotFoundError("Template not found")
	}
	answers, err := answersFor(template, req.Answers)
	if err != nil {
		return nil, err
	}

	updated, err := s.forms.ReplaceAnswers(ctx, response.ID, answers, s.now())
	if err != nil {
		return nil, storageError(err, "Form response not found", "Error updating form response")
	}
	return updated, nil
}

func (s *FormService) DeleteResponse(ctx context.Context, p *models.Principal, rawTemplateID, rawUserID string) error {
	response, err := s.loadResponse(ctx, p, rawTemplateID, rawUserID)
	if err != nil {
		return err
	}
	if err := s.forms.Delete(ctx, response.ID); err != nil {
		return storageError(err, "Form response not found", "Error deleting form response")
	}
	return nil
}

// MostAnswered ranks the templates the caller may read by response count.
// Responses whose template was deleted are not counted.
func (s *FormService) MostAnswered(ctx context.Context, p *models.Principal, limit int) ([]models.TemplateResponseCount, error) {
	if limit < 0 {
		return nil, utils.NewValidationError("Validation failed", "limit must be a positive number")
	}
	if limit == 0 {
		limit = DefaultMostAnsweredLimit
	}

	counts, err := s.forms.CountByTemplate(ctx)
	if err != nil {
		return nil, utils.NewInternalError("Error ranking templates", err)
	}
	ids := make([]primitive.ObjectID, len(counts))
	for i, c := range counts {
		ids[i] = c.TemplateID
	}
	templates, err := s.templates.FindByIDs(ctx, ids)
	if err != nil {
		return nil, utils.NewInternalError("Error ranking templates", err)
	}
	byID := make(map[primitive.ObjectID]*models.Template, len(templates))
	for i := range templates {
		byID[templates[i].ID] = &templates[i]
	}

	caller := s.gate.Caller(p)
	ranked := []models.TemplateResponseCount{}
	for _, c := range counts {
		template, ok := byID[c.TemplateID]
		if !ok {
			continue
		}
		if _, err := caller.CanReadTemplate(ctx, template); err != nil {
			if utils.IsKind(err, utils.KindForbidden) {
				continue
			}
			return nil, err
		}
		ranked = append(ranked, models.TemplateResponseCount{Template: *template, ResponseCount: c.Count})
		if len(ranked) == limit {
			break
		}
	}
	return ranked, nil
}
