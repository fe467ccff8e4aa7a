package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// FormResponse is one user's answers to one template. At most one exists per
// (TemplateID, UserID); the store does not enforce it.
type FormResponse struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	TemplateID primitive.ObjectID `bson:"templateId" json:"templateId"`
	UserID     primitive.ObjectID `bson:"userId" json:"userId"`
	Answers    []Answer           `bson:"answers" json:"answers"`
	CreatedAt  time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt  time.Time          `bson:"updatedAt" json:"updatedAt"`
}

type Answer struct {
	QuestionID primitive.ObjectID `bson:"questionId" json:"questionId"`
	AnswerText string             `bson:"answerText" json:"answerText"`
}

type AnswerInput struct {
	QuestionID string `json:"questionId" validate:"required,mongodb"`
	AnswerText string `json:"answerText" validate:"required"`
}

// AnswersRequest is used both for submission and for the full replacement on
// update; partial answer patches are not supported.
type AnswersRequest struct {
	Answers []AnswerInput `json:"answers" validate:"required,min=1,dive"`
}

// TemplateResponseCount is one row of the most-answered ranking.
type TemplateResponseCount struct {
	Template      Template `json:"template"`
	ResponseCount int64    `json:"responseCount"`
}
