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

type formResponseRepository struct {
	col *mongo.Collection
}

func NewFormResponseRepository(col *mongo.Collection) repository.FormResponseRepository {
	return &formResponseRepository{col: col}
}

func (r *formResponseRepository) Create(ctx context.Context, response *models.FormResponse) error {
	if response.ID.IsZero() {
		response.ID = primitive.NewObjectID()
	}
	_, err := r.col.InsertOne(ctx, response)
	return translate(err)
}

func (r *formResponseRepository) FindByTemplateAndUser(ctx context.Context, templateID, userID primitive.ObjectID) (*models.FormResponse, error) {
	var response models.FormResponse
	err := r.col.FindOne(ctx, bson.M{"templateId": templateID, "userId": userID}).Decode(&response)
	if err != nil {
		return nil, translate(err)
	}
	return &response, nil
}

func (r *formResponseRepository) ListByTemplate(ctx context.Context, templateID primitive.ObjectID) ([]models.FormResponse, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}})
	cursor, err := r.col.Find(ctx, bson.M{"templateId": templateID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	responses := []models.FormResponse{}
	if err := cursor.All(ctx, &responses); err != nil {
		return nil, err
	}
	return responses, nil
}

func (r *formResponseRepository) ReplaceAnswers(ctx context.Context, id primitive.ObjectID, answers []models.Answer, at time.Time) (*models.FormResponse, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var response models.FormResponse
	err := r.col.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"answers": answers, "updatedAt": at}},
		opts,
	).Decode(&response)
	if err != nil {
		return nil, translate(err)
	}
	return &response, nil
}

func (r *formResponseRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *formResponseRepository) CountByTemplate(ctx context.Context) ([]repository.TemplateCount, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$templateId"},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "count", Value: -1}, {Key: "_id", Value: 1}}}},
	}

	cursor, err := r.col.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	counts := []repository.TemplateCount{}
	if err := cursor.All(ctx, &counts); err != nil {
		return nil, err
	}
	return counts, nil
}
