// Package services holds the operations behind every route. Each service
// takes the caller as a *models.Principal (nil when anonymous) and returns
// *utils.AppError values the controllers can render directly.
package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"Backend-Forms-Builder/src/authz"
	"Backend-Forms-Builder/src/models"
	"Backend-Forms-Builder/src/repository"
	"Backend-Forms-Builder/src/utils"

	"github.com/hibiken/asynq"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TaskEnqueuer is satisfied by *asynq.Client.
type TaskEnqueuer interface {
	Enqueue(task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

type TokenRevoker interface {
	Revoke(ctx context.Context, jti string, expiresIn time.Duration) error
}

type Options struct {
	Store     *repository.Store
	Tokens    *utils.TokenManager
	Revoker   TokenRevoker
	Validator *utils.Validator
	// Enqueuer may be nil; background tag pruning is then skipped.
	Enqueuer   TaskEnqueuer
	PruneGrace time.Duration
	Logger     *slog.Logger
}

type Services struct {
	Auth      *AuthService
	Users     *UserService
	Templates *TemplateService
	Tags      *TagService
	Forms     *FormService
}

func New(opts Options) *Services {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Validator == nil {
		opts.Validator = utils.NewValidator()
	}
	gate := authz.NewGate(opts.Store.Users)
	tags := &TagService{
		tags:      opts.Store.Tags,
		templates: opts.Store.Templates,
		gate:      gate,
		validate:  opts.Validator,
	}
	templates := &TemplateService{
		templates:  opts.Store.Templates,
		tags:       tags,
		gate:       gate,
		validate:   opts.Validator,
		enqueuer:   opts.Enqueuer,
		pruneGrace: opts.PruneGrace,
		logger:     opts.Logger,
		now:        time.Now,
	}
	return &Services{
		Auth: &AuthService{
			users:    opts.Store.Users,
			tokens:   opts.Tokens,
			revoker:  opts.Revoker,
			validate: opts.Validator,
			logger:   opts.Logger,
			now:      time.Now,
		},
		Users: &UserService{
			users:    opts.Store.Users,
			gate:     gate,
			validate: opts.Validator,
		},
		Templates: templates,
		Tags:      tags,
		Forms: &FormService{
			forms:     opts.Store.Forms,
			templates: opts.Store.Templates,
			gate:      gate,
			validate:  opts.Validator,
			now:       time.Now,
		},
	}
}

func parseID(raw, what string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		return primitive.NilObjectID, utils.NewValidationError("Invalid "+what+" id", what+"Id must be a valid id")
	}
	return id, nil
}

func parseIDs(raw []string, field string) ([]primitive.ObjectID, error) {
	ids := make([]primitive.ObjectID, 0, len(raw))
	seen := make(map[primitive.ObjectID]bool, len(raw))
	for _, s := range raw {
		id, err := primitive.ObjectIDFromHex(s)
		if err != nil {
			return nil, utils.NewValidationError("Validation failed", field+" must contain valid ids")
		}
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// storageError maps a repository error to the error a caller sees.
func storageError(err error, notFound, failure string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return utils.NewNotFoundError(notFound)
	}
	return utils.NewInternalError(failure, err)
}

// mergeValidation folds several validation results into one error.
func mergeValidation(errs ...error) error {
	var fields []string
	for _, err := range errs {
		if err == nil {
			continue
		}
		var appErr *utils.AppError
		if !errors.As(err, &appErr) || appErr.Kind != utils.KindValidation {
			return err
		}
		fields = append(fields, appErr.Fields...)
	}
	if len(fields) == 0 {
		return nil
	}
	return utils.NewValidationError("Validation failed", fields...)
}

func requireAuth(p *models.Principal) error {
	if p == nil {
		return utils.NewUnauthenticatedError("Unauthorized")
	}
	return nil
}

func isNotFound(err error) bool {
	return errors.Is(err, repository.ErrNotFound)
}

// findTemplate returns nil without error when the template does not exist
// so the gate can rank not found ahead of forbidden.
func findTemplate(ctx context.Context, templates repository.TemplateRepository, id primitive.ObjectID) (*models.Template, error) {
	template, err := templates.FindByID(ctx, id)
	if isNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, utils.NewInternalError("Error loading template", err)
	}
	return template, nil
}
