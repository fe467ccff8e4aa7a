package mongodb

import (
	"context"
	"errors"
	"time"

	"Backend-Forms-Builder/src/models"
	"Backend-Forms-Builder/src/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type tagRepository struct {
	col *mongo.Collection
}

func NewTagRepository(col *mongo.Collection) repository.TagRepository {
	return &tagRepository{col: col}
}

// GetOrCreate upserts by name. Two concurrent upserts of a new name can both
// miss and both try to insert; the unique index rejects the loser, which then
// finds the winner's document.
func (r *tagRepository) GetOrCreate(ctx context.Context, name string) (*models.Tag, error) {
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)
	now := time.Now()
	update := bson.M{
		"$setOnInsert": bson.M{"name": name, "createdAt": now},
		"$set":         bson.M{"lastUsedAt": now},
	}

	var tag models.Tag
	err := r.col.FindOneAndUpdate(ctx, bson.M{"name": name}, update, opts).Decode(&tag)
	if err == nil {
		return &tag, nil
	}
	if !mongo.IsDuplicateKeyError(err) {
		return nil, translate(err)
	}

	if err := r.col.FindOne(ctx, bson.M{"name": name}).Decode(&tag); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrDuplicate
		}
		return nil, err
	}
	return &tag, nil
}

func (r *tagRepository) List(ctx context.Context) ([]models.Tag, error) {
	cursor, err := r.col.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	tags := []models.Tag{}
	if err := cursor.All(ctx, &tags); err != nil {
		return nil, err
	}
	return tags, nil
}

// DeleteUnreferenced falls back to createdAt for tags written before
// lastUsedAt existed.
func (r *tagRepository) DeleteUnreferenced(ctx context.Context, keep []primitive.ObjectID, usedBefore time.Time) (int64, error) {
	if keep == nil {
		keep = []primitive.ObjectID{}
	}
	res, err := r.col.DeleteMany(ctx, bson.M{
		"_id": bson.M{"$nin": keep},
		"$or": bson.A{
			bson.M{"lastUsedAt": bson.M{"$lt": usedBefore}},
			bson.M{"lastUsedAt": bson.M{"$exists": false}, "createdAt": bson.M{"$lt": usedBefore}},
		},
	})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
