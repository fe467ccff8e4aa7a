package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTemplatePatchPresence(t *testing.T) {
	var patch TemplatePatch
	require.NoError(t, json.Unmarshal([]byte(`{"title":"B","isPublic":false,"description":null}`), &patch))

	assert.True(t, patch.Title.Set)
	assert.Equal(t, "B", patch.Title.Value)
	assert.True(t, patch.IsPublic.Set)
	assert.False(t, patch.IsPublic.Value)
	assert.True(t, patch.Description.Set, "explicit null is present")
	assert.Equal(t, "", patch.Description.Value)
	assert.False(t, patch.Topic.Set)
	assert.False(t, patch.Questions.Set)
}

func TestOptionalApplyTo(t *testing.T) {
	topic := "Work"
	Optional[string]{}.ApplyTo(&topic)
	assert.Equal(t, "Work", topic)

	Some("Quiz").ApplyTo(&topic)
	assert.Equal(t, "Quiz", topic)
}

func TestQuestionPatchApply(t *testing.T) {
	q := Question{Title: "Name", Type: "text", Options: []string{"a"}, Order: 3}
	var patch QuestionPatch
	require.NoError(t, json.Unmarshal([]byte(`{"order":1,"options":[]}`), &patch))

	patch.Apply(&q)
	assert.Equal(t, "Name", q.Title)
	assert.Equal(t, "text", q.Type)
	assert.Equal(t, 1, q.Order)
	assert.Empty(t, q.Options)
}

func TestQuestionInputNewQuestion(t *testing.T) {
	order := 7
	withOrder := QuestionInput{Title: "a", Type: "text", Order: &order}.NewQuestion(1)
	assert.Equal(t, 7, withOrder.Order)
	assert.False(t, withOrder.ID.IsZero())

	fallback := QuestionInput{Title: "b", Type: "text"}.NewQuestion(4)
	assert.Equal(t, 4, fallback.Order)
	assert.NotNil(t, fallback.Options)
}

func TestIsTopic(t *testing.T) {
	assert.True(t, IsTopic("Work"))
	assert.False(t, IsTopic("work"))
	assert.False(t, IsTopic(""))
}
