package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Tag struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name       string             `bson:"name" json:"name"`
	CreatedAt  time.Time          `bson:"createdAt" json:"createdAt"`
	LastUsedAt time.Time          `bson:"lastUsedAt" json:"-"` // refreshed on every resolve
}

type UpdateTagsRequest struct {
	Tags []string `json:"tags" validate:"required,min=1,dive,notblank,max=50"`
}
