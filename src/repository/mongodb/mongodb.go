// Package mongodb implements the repository interfaces on MongoDB.
package mongodb

import (
	"context"
	"errors"
	"fmt"

	"Backend-Forms-Builder/src/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	UsersCollection         = "users"
	TemplatesCollection     = "templates"
	TagsCollection          = "tags"
	FormResponsesCollection = "formResponses"
)

// NewStore wires every repository to its collection in db.
func NewStore(db *mongo.Database) *repository.Store {
	return &repository.Store{
		Users:     NewUserRepository(db.Collection(UsersCollection)),
		Templates: NewTemplateRepository(db.Collection(TemplatesCollection)),
		Tags:      NewTagRepository(db.Collection(TagsCollection)),
		Forms:     NewFormResponseRepository(db.Collection(FormResponsesCollection)),
	}
}

// EnsureIndexes creates the indexes the repositories rely on. The unique
// indexes on users.email and tags.name back the Conflict and get-or-create
// paths.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	specs := map[string][]mongo.IndexModel{
		UsersCollection: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		TagsCollection: {
			{Keys: bson.D{{Key: "name", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		TemplatesCollection: {
			{Keys: bson.D{{Key: "createdAt", Value: -1}}},
			{Keys: bson.D{{Key: "tags", Value: 1}}},
		},
		FormResponsesCollection: {
			{Keys: bson.D{{Key: "templateId", Value: 1}, {Key: "userId", Value: 1}}},
		},
	}
	for name, models := range specs {
		if _, err := db.Collection(name).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("create indexes on %s: %w", name, err)
		}
	}
	return nil
}

// translate maps driver errors onto the repository sentinels.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return repository.ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return fmt.Errorf("%w: %v", repository.ErrDuplicate, err)
	default:
		return err
	}
}
