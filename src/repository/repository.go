// Package repository declares the storage contracts the services depend on.
// Implementations live in the mongo and memory subpackages.
package repository

import (
	"context"
	"errors"
	"time"

	"Backend-Forms-Builder/src/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("duplicate key")
)

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	TouchLastLogin(ctx context.Context, id primitive.ObjectID, at time.Time) error
	List(ctx context.Context) ([]models.UserSummary, error)
	SetStatus(ctx context.Context, ids []primitive.ObjectID, status string) (models.BulkResult, error)
	SetRole(ctx context.Context, ids []primitive.ObjectID, role string) (models.BulkResult, error)
	Delete(ctx context.Context, ids []primitive.ObjectID) (int64, error)
}

type TemplateRepository interface {
	Create(ctx context.Context, template *models.Template) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Template, error)
	// Save replaces the stored document with template.
	Save(ctx context.Context, template *models.Template) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	// List returns all templates, newest first; limit <= 0 means no limit.
	List(ctx context.Context, limit int64) ([]models.Template, error)
	ListByTag(ctx context.Context, tagID primitive.ObjectID) ([]models.Template, error)
	FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Template, error)
	PushQuestion(ctx context.Context, id primitive.ObjectID, question models.Question) error
	// PullQuestion removes a question by id and returns ErrNotFound if the
	// template had no such question.
	PullQuestion(ctx context.Context, id, questionID primitive.ObjectID) error
	// AddTags merges tagIDs into the template's tag set and returns the result.
	AddTags(ctx context.Context, id primitive.ObjectID, tagIDs []primitive.ObjectID) (*models.Template, error)
	// ReferencedTagIDs returns every tag id used by at least one template.
	ReferencedTagIDs(ctx context.Context) ([]primitive.ObjectID, error)
}

type TagRepository interface {
	// GetOrCreate returns the tag called name, inserting it atomically if it
	// does not exist yet. Either way the tag's lastUsedAt is set to now.
	GetOrCreate(ctx context.Context, name string) (*models.Tag, error)
	List(ctx context.Context) ([]models.Tag, error)
	// DeleteUnreferenced removes tags not in keep that were last used before
	// the cut-off.
	DeleteUnreferenced(ctx context.Context, keep []primitive.ObjectID, usedBefore time.Time) (int64, error)
}

type FormResponseRepository interface {
	Create(ctx context.Context, response *models.FormResponse) error
	FindByTemplateAndUser(ctx context.Context, templateID, userID primitive.ObjectID) (*models.FormResponse, error)
	ListByTemplate(ctx context.Context, templateID primitive.ObjectID) ([]models.FormResponse, error)
	ReplaceAnswers(ctx context.Context, id primitive.ObjectID, answers []models.Answer, at time.Time) (*models.FormResponse, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	// CountByTemplate returns response counts per template, highest first.
	CountByTemplate(ctx context.Context) ([]TemplateCount, error)
}

type TemplateCount struct {
	TemplateID primitive.ObjectID `bson:"_id"`
	Count      int64              `bson:"count"`
}

// Store bundles the repositories a running server needs.
type Store struct {
	Users     UserRepository
	Templates TemplateRepository
	Tags      TagRepository
	Forms     FormResponseRepository
}
