package mongodb

import (
	"context"
	"time"

	"Backend-Forms-Builder/src/models"
	"Backend-Forms-Builder/src/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var newestFirst = bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}

type templateRepository struct {
	col *mongo.Collection
}

func NewTemplateRepository(col *mongo.Collection) repository.TemplateRepository {
	return &templateRepository{col: col}
}

func (r *templateRepository) Create(ctx context.Context, template *models.Template) error {
	if template.ID.IsZero() {
		template.ID = primitive.NewObjectID()
	}
	_, err := r.col.InsertOne(ctx, template)
	return translate(err)
}

func (r *templateRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Template, error) {
	var template models.Template
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&template); err != nil {
		return nil, translate(err)
	}
	return &template, nil
}

func (r *templateRepository) Save(ctx context.Context, template *models.Template) error {
	res, err := r.col.ReplaceOne(ctx, bson.M{"_id": template.ID}, template)
	if err != nil {
		return translate(err)
	}
	if res.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *templateRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *templateRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]models.Template, error) {
	cursor, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	templates := []models.Template{}
	if err := cursor.All(ctx, &templates); err != nil {
		return nil, err
	}
	return templates, nil
}

func (r *templateRepository) List(ctx context.Context, limit int64) ([]models.Template, error) {
	opts := options.Find().SetSort(newestFirst)
	if limit > 0 {
		opts.SetLimit(limit)
	}
	return r.find(ctx, bson.M{}, opts)
}

func (r *templateRepository) ListByTag(ctx context.Context, tagID primitive.ObjectID) ([]models.Template, error) {
	return r.find(ctx, bson.M{"tags": tagID}, options.Find().SetSort(newestFirst))
}

func (r *templateRepository) FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Template, error) {
	if len(ids) == 0 {
		return []models.Template{}, nil
	}
	return r.find(ctx, bson.M{"_id": bson.M{"$in": ids}}, options.Find().SetSort(newestFirst))
}

func (r *templateRepository) PushQuestion(ctx context.Context, id primitive.ObjectID, question models.Question) error {
	res, err := r.col.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{
			"$push": bson.M{"questions": question},
			"$set":  bson.M{"updatedAt": time.Now()},
		},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *templateRepository) PullQuestion(ctx context.Context, id, questionID primitive.ObjectID) error {
	// Matching on questions._id makes a missing question a zero-match update.
	res, err := r.col.UpdateOne(ctx,
		bson.M{"_id": id, "questions._id": questionID},
		bson.M{
			"$pull": bson.M{"questions": bson.M{"_id": questionID}},
			"$set":  bson.M{"updatedAt": time.Now()},
		},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *templateRepository) AddTags(ctx context.Context, id primitive.ObjectID, tagIDs []primitive.ObjectID) (*models.Template, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var template models.Template
	err := r.col.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{
			"$addToSet": bson.M{"tags": bson.M{"$each": tagIDs}},
			"$set":      bson.M{"updatedAt": time.Now()},
		},
		opts,
	).Decode(&template)
	if err != nil {
		return nil, translate(err)
	}
	return &template, nil
}

func (r *templateRepository) ReferencedTagIDs(ctx context.Context) ([]primitive.ObjectID, error) {
	values, err := r.col.Distinct(ctx, "tags", bson.M{})
	if err != nil {
		return nil, err
	}
	ids := make([]primitive.ObjectID, 0, len(values))
	for _, v := range values {
		if id, ok := v.(primitive.ObjectID); ok {
			ids = append(ids, id)
		}
	}
	return ids, nil
}
