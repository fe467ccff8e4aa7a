package utils

import (
	"testing"

	"Backend-Forms-Builder/src/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validTemplateRequest() models.CreateTemplateRequest {
	return models.CreateTemplateRequest{
		Title:     "Survey",
		Questions: []models.QuestionInput{{Title: "Name?", Type: "text"}},
		Topic:     "Work",
		Tags:      []string{"hr"},
	}
}

func TestValidatorStruct(t *testing.T) {
	v := NewValidator()

	require.NoError(t, v.Struct(validTemplateRequest()))

	tests := []struct {
		name   string
		mutate func(r *models.CreateTemplateRequest)
		want   string
	}{
		{"missing questions", func(r *models.CreateTemplateRequest) { r.Questions = nil }, "questions is required"},
		{"empty questions", func(r *models.CreateTemplateRequest) { r.Questions = []models.QuestionInput{} }, "questions must contain at least 1 item(s)"},
		{"bad topic", func(r *models.CreateTemplateRequest) { r.Topic = "Cooking" }, "topic must be one of"},
		{"empty tags", func(r *models.CreateTemplateRequest) { r.Tags = []string{} }, "tags must contain at least 1 item(s)"},
		{"blank tag name", func(r *models.CreateTemplateRequest) { r.Tags = []string{"  "} }, "tags[0] must not be blank"},
		{"nested question title", func(r *models.CreateTemplateRequest) { r.Questions[0].Title = "" }, "questions[0].title is required"},
		{"bad allowed user id", func(r *models.CreateTemplateRequest) { r.AllowedUsers = []string{"nope"} }, "allowedUsers[0] must be a valid id"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validTemplateRequest()
			tt.mutate(&req)

			err := v.Struct(req)
			require.Error(t, err)
			assert.True(t, IsKind(err, KindValidation))

			appErr := err.(*AppError)
			require.NotEmpty(t, appErr.Fields)
			assert.Contains(t, appErr.Fields[0], tt.want)
		})
	}
}

func TestValidatorVar(t *testing.T) {
	v := NewValidator()
	assert.NoError(t, v.Var("topic", "Quiz", "topic"))

	err := v.Var("topic", "Nope", "topic")
	require.Error(t, err)
	assert.Contains(t, err.(*AppError).Fields[0], "topic must be one of")
}
