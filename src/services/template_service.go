package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"Backend-Forms-Builder/src/authz"
	"Backend-Forms-Builder/src/jobs"
	"Backend-Forms-Builder/src/models"
	"Backend-Forms-Builder/src/repository"
	"Backend-Forms-Builder/src/utils"

	"github.com/hibiken/asynq"
)

type TemplateService struct {
	templates  repository.TemplateRepository
	tags       *TagService
	gate       *authz.Gate
	validate   *utils.Validator
	enqueuer   TaskEnqueuer
	pruneGrace time.Duration
	logger     *slog.Logger
	now        func() time.Time
}

var (
	errPrivateNeedsUsers = utils.NewValidationError("Validation failed", "allowedUsers must contain at least 1 item(s) when isPublic is false")
	errTagsRequired      = utils.NewValidationError("Validation failed", "tags must contain at least 1 item(s)")
)

func (s *TemplateService) Create(ctx context.Context, p *models.Principal, req *models.CreateTemplateRequest) (*models.Template, error) {
	if err := requireAuth(p); err != nil {
		return nil, err
	}
	if err := s.validate.Struct(req); err != nil {
		return nil, err
	}
	if !req.Public() && len(req.AllowedUsers) == 0 {
		return nil, errPrivateNeedsUsers
	}
	allowed, err := parseIDs(req.AllowedUsers, "allowedUsers")
	if err != nil {
		return nil, err
	}

	tagIDs, err := s.tags.Resolve(ctx, req.Tags)
	if err != nil {
		return nil, err
	}
	if len(tagIDs) == 0 {
		return nil, errTagsRequired
	}

	now := s.now()
	template := &models.Template{
		Title:        strings.TrimSpace(req.Title),
		Description:  req.Description,
		Questions:    buildQuestions(req.Questions),
		Topic:        req.Topic,
		Tags:         tagIDs,
		Image:        req.Image,
		IsPublic:     req.Public(),
		AllowedUsers: allowed,
		CreatedBy:    p.ID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.templates.Create(ctx, template); err != nil {
		// tags resolved above may now be orphans
		s.schedulePrune(ctx)
		return nil, utils.NewInternalError("Error creating template", err)
	}
	return template, nil
}

func buildQuestions(inputs []models.QuestionInput) []models.Question {
	questions := make([]models.Question, len(inputs))
	for i, in := range inputs {
		questions[i] = in.NewQuestion(i + 1)
	}
	return questions
}

// Update merges the fields present in patch into the stored template and
// re-checks the template invariants on the result.
func (s *TemplateService) Update(ctx context.Context, p *models.Principal, rawID string, patch *models.TemplatePatch) (*models.Template, error) {
	template, err := s.loadForMutation(ctx, p, rawID)
	if err != nil {
		return nil, err
	}
	if err := s.validatePatch(patch); err != nil {
		return nil, err
	}

	patch.Title.ApplyTo(&template.Title)
	patch.Description.ApplyTo(&template.Description)
	patch.Topic.ApplyTo(&template.Topic)
	patch.Image.ApplyTo(&template.Image)
	patch.IsPublic.ApplyTo(&template.IsPublic)
	if patch.Questions.Set {
		template.Questions = buildQuestions(patch.Questions.Value)
	}
	if patch.AllowedUsers.Set {
		allowed, err := parseIDs(patch.AllowedUsers.Value, "allowedUsers")
		if err != nil {
			return nil, err
		}
		template.AllowedUsers = allowed
	}
	if !template.IsPublic && len(template.AllowedUsers) == 0 {
		return nil, errPrivateNeedsUsers
	}
	if patch.Tags.Set {
		ids, err := s.tags.Resolve(ctx, patch.Tags.Value)
		if err != nil {
			return nil, err
		}
		if len(ids) == 0 {
			return nil, errTagsRequired
		}
		template.Tags = ids
	}

	template.UpdatedAt = s.now()
	if err := s.templates.Save(ctx, template); err != nil {
		return nil, storageError(err, "Template not found", "Error updating template")
	}
	return template, nil
}

func (s *TemplateService) validatePatch(patch *models.TemplatePatch) error {
	var errs []error
	if patch.Title.Set {
		errs = append(errs, s.validate.Var("title", patch.Title.Value, "required,max=200"))
	}
	if patch.Description.Set {
		errs = append(errs, s.validate.Var("description", patch.Description.Value, "max=2000"))
	}
	if patch.Topic.Set {
		errs = append(errs, s.validate.Var("topic", patch.Topic.Value, "required,topic"))
	}
	if patch.Image.Set {
		errs = append(errs, s.validate.Var("image", patch.Image.Value, "omitempty,url"))
	}
	if patch.Questions.Set {
		errs = append(errs, s.validate.Struct(struct {
			Questions []models.QuestionInput `json:"questions" validate:"required,min=1,dive"`
		}{patch.Questions.Value}))
	}
	if patch.Tags.Set {
		errs = append(errs, s.validate.Struct(&models.UpdateTagsRequest{Tags: patch.Tags.Value}))
	}
	if patch.AllowedUsers.Set {
		errs = append(errs, s.validate.Var("allowedUsers", patch.AllowedUsers.Value, "dive,mongodb"))
	}
	return mergeValidation(errs...)
}

// loadForMutation fetches the template and applies the mutate-own rule.
func (s *TemplateService) loadForMutation(ctx context.Context, p *models.Principal, rawID string) (*models.Template, error) {
	if err := requireAuth(p); err != nil {
		return nil, err
	}
	id, err := parseID(rawID, "template")
	if err != nil {
		return nil, err
	}
	template, err := findTemplate(ctx, s.templates, id)
	if err != nil {
		return nil, err
	}
	if err := s.gate.Caller(p).CanMutateTemplate(ctx, template); err != nil {
		return nil, err
	}
	return template, nil
}

func (s *TemplateService) Get(ctx context.Context, p *models.Principal, rawID string) (*models.TemplateView, error) {
	id, err := parseID(rawID, "template")
	if err != nil {
		return nil, err
	}
	template, err := findTemplate(ctx, s.templates, id)
	if err != nil {
		return nil, err
	}
	readOnly, err := s.gate.Caller(p).CanReadTemplate(ctx, template)
	if err != nil {
		return nil, err
	}
	return &models.TemplateView{Template: *template, ReadOnly: readOnly}, nil
}

// readable keeps the templates the caller may read, in order, and stops once
// limit views are collected (limit <= 0 keeps all).
func (s *TemplateService) readable(ctx context.Context, caller *authz.Caller, templates []models.Template, limit int) ([]models.TemplateView, error) {
	views := []models.TemplateView{}
	for i := range templates {
		readOnly, err := caller.CanReadTemplate(ctx, &templates[i])
		if utils.IsKind(err, utils.KindForbidden) {
			continue
		}
		if err != nil {
			return nil, err
		}
		views = append(views, models.TemplateView{Template: templates[i], ReadOnly: readOnly})
		if limit > 0 && len(views) == limit {
			break
		}
	}
	return views, nil
}

// List returns every template the caller may read, newest first.
func (s *TemplateService) List(ctx context.Context, p *models.Principal) ([]models.TemplateView, error) {
	return s.Latest(ctx, p, 0)
}

func (s *TemplateService) Latest(ctx context.Context, p *models.Principal, limit int) ([]models.TemplateView, error) {
	if limit < 0 {
		return nil, utils.NewValidationError("Validation failed", "limit must be a positive number")
	}
	templates, err := s.templates.List(ctx, 0)
	if err != nil {
		return nil, utils.NewInternalError("Error fetching templates", err)
	}
	return s.readable(ctx, s.gate.Caller(p), templates, limit)
}

func (s *TemplateService) ListByTag(ctx context.Context, p *models.Principal, rawTagID string) ([]models.TemplateView, error) {
	tagID, err := parseID(rawTagID, "tag")
	if err != nil {
		return nil, err
	}
	templates, err := s.templates.ListByTag(ctx, tagID)
	if err != nil {
		return nil, utils.NewInternalError("Error fetching templates", err)
	}
	return s.readable(ctx, s.gate.Caller(p), templates, 0)
}

// Delete removes the template only; its responses are kept.
func (s *TemplateService) Delete(ctx context.Context, p *models.Principal, rawID string) error {
	template, err := s.loadForMutation(ctx, p, rawID)
	if err != nil {
		return err
	}
	if err := s.templates.Delete(ctx, template.ID); err != nil {
		return storageError(err, "Template not found", "Error deleting template")
	}
	s.schedulePrune(ctx)
	return nil
}

func (s *TemplateService) AddQuestion(ctx context.Context, p *models.Principal, rawID string, in *models.QuestionInput) (*models.Question, error) {
	template, err := s.loadForMutation(ctx, p, rawID)
	if err != nil {
		return nil, err
	}
	if err := s.validate.Struct(in); err != nil {
		return nil, err
	}

	question := in.NewQuestion(len(template.Questions) + 1)
	if err := s.templates.PushQuestion(ctx, template.ID, question); err != nil {
		return nil, storageError(err, "Template not found", "Error adding question")
	}
	return &question, nil
}

func (s *TemplateService) UpdateQuestion(ctx context.Context, p *models.Principal, rawID, rawQuestionID string, patch *models.QuestionPatch) (*models.Question, error) {
	template, err := s.loadForMutation(ctx, p, rawID)
	if err != nil {
		return nil, err
	}
	questionID, err := parseID(rawQuestionID, "question")
	if err != nil {
		return nil, err
	}
	idx := template.QuestionIndex(questionID)
	if idx < 0 {
		return nil, utils.NewNotFoundError("Question not found")
	}

	var errs []error
	if patch.Title.Set {
		errs = append(errs, s.validate.Var("title", patch.Title.Value, "required,max=200"))
	}
	if patch.Type.Set {
		errs = append(errs, s.validate.Var("type", patch.Type.Value, "required"))
	}
	if patch.Order.Set {
		errs = append(errs, s.validate.Var("order", patch.Order.Value, "min=0"))
	}
	if err := mergeValidation(errs...); err != nil {
		return nil, err
	}

	patch.Apply(&template.Questions[idx])
	if template.Questions[idx].Options == nil {
		template.Questions[idx].Options = []string{}
	}
	template.UpdatedAt = s.now()
	if err := s.templates.Save(ctx, template); err != nil {
		return nil, storageError(err, "Template not found", "Error updating question")
	}
	question := template.Questions[idx]
	return &question, nil
}

func (s *TemplateService) DeleteQuestion(ctx context.Context, p *models.Principal, rawID, rawQuestionID string) error {
	template, err := s.loadForMutation(ctx, p, rawID)
	if err != nil {
		return err
	}
	questionID, err := parseID(rawQuestionID, "question")
	if err != nil {
		return err
	}
	if err := s.templates.PullQuestion(ctx, template.ID, questionID); err != nil {
		return storageError(err, "Question not found", "Error deleting question")
	}
	return nil
}

// schedulePrune queues an orphan-tag sweep. Failing to queue it never fails
// the request that triggered it.
func (s *TemplateService) schedulePrune(ctx context.Context) {
	if s.enqueuer == nil {
		return
	}
	now := s.now()
	task, err := jobs.NewPruneOrphanTagsTask(now)
	if err != nil {
		s.logger.WarnContext(ctx, "build prune task", "error", err)
		return
	}
	runAt := now.Add(s.pruneGrace)
	_, err = s.enqueuer.Enqueue(task, asynq.ProcessAt(runAt), asynq.TaskID(jobs.PruneTaskID(runAt)))
	if err != nil && !errors.Is(err, asynq.ErrTaskIDConflict) {
		s.logger.WarnContext(ctx, "enqueue prune task", "error", err)
	}
}

