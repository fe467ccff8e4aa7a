package services

import (
	"context"
	"encoding/json"
	"testing"

	"Backend-Forms-Builder/src/jobs"
	"Backend-Forms-Builder/src/models"
	"Backend-Forms-Builder/src/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestCreateTemplateValidation(t *testing.T) {
	e := newTestEnv(t)
	owner := e.user(t, "owner@example.com", models.RoleUser)
	private := false

	tests := []struct {
		name   string
		mutate func(*models.CreateTemplateRequest)
	}{
		{"no questions", func(r *models.CreateTemplateRequest) { r.Questions = nil }},
		{"topic outside the fixed set", func(r *models.CreateTemplateRequest) { r.Topic = "Sports" }},
		{"no tags", func(r *models.CreateTemplateRequest) { r.Tags = []string{} }},
		{"only blank tag names", func(r *models.CreateTemplateRequest) { r.Tags = []string{"   ", "\t"} }},
		{"private without allowed users", func(r *models.CreateTemplateRequest) { r.IsPublic = &private }},
		{"question without title", func(r *models.CreateTemplateRequest) { r.Questions[0].Title = "" }},
		{"bad allowed user id", func(r *models.CreateTemplateRequest) { r.AllowedUsers = []string{"nope"} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validCreate()
			tt.mutate(req)
			_, err := e.svc.Templates.Create(context.Background(), owner, req)
			assertKind(t, utils.KindValidation, err)
		})
	}

	tags, err := e.svc.Tags.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, tags, "a rejected template writes nothing")
}

func TestCreateTemplate(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	owner := e.user(t, "owner@example.com", models.RoleUser)
	reader := e.user(t, "reader@example.com", models.RoleUser)
	private := false

	tpl := e.template(t, owner, func(r *models.CreateTemplateRequest) {
		r.Tags = []string{"hr", " hr ", "onboarding"}
		r.Questions = append(r.Questions, models.QuestionInput{Title: "Team", Type: "select", Options: []string{"a", "b"}})
		r.IsPublic = &private
		r.AllowedUsers = []string{reader.ID.Hex()}
	})

	assert.Equal(t, owner.ID, tpl.CreatedBy)
	assert.False(t, tpl.IsPublic)
	assert.Len(t, tpl.Tags, 2)
	require.Len(t, tpl.Questions, 2)
	assert.Equal(t, 1, tpl.Questions[0].Order)
	assert.Equal(t, 2, tpl.Questions[1].Order)
	assert.NotEqual(t, tpl.Questions[0].ID, tpl.Questions[1].ID)
	assert.Equal(t, []primitive.ObjectID{reader.ID}, tpl.AllowedUsers)

	public := e.template(t, owner, nil)
	assert.True(t, public.IsPublic, "templates are public by default")

	_, err := e.svc.Templates.Create(ctx, nil, validCreate())
	assertKind(t, utils.KindUnauthenticated, err)
}

func TestUpdateTemplatePartialMerge(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	owner := e.user(t, "owner@example.com", models.RoleUser)
	tpl := e.template(t, owner, func(r *models.CreateTemplateRequest) { r.Title = "A" })

	var patch models.TemplatePatch
	require.NoError(t, json.Unmarshal([]byte(`{"title":"B"}`), &patch))
	updated, err := e.svc.Templates.Update(ctx, owner, tpl.ID.Hex(), &patch)
	require.NoError(t, err)
	assert.Equal(t, "B", updated.Title)
	assert.Equal(t, "Work", updated.Topic)
	assert.Equal(t, tpl.Questions, updated.Questions)
	assert.Equal(t, tpl.Tags, updated.Tags)

	stored, err := e.store.Templates.FindByID(ctx, tpl.ID)
	require.NoError(t, err)
	assert.Equal(t, "B", stored.Title)
	assert.Equal(t, "Work", stored.Topic)
}

func TestUpdateTemplateRules(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	owner := e.user(t, "owner@example.com", models.RoleUser)
	stranger := e.user(t, "stranger@example.com", models.RoleUser)
	admin := e.user(t, "admin@example.com", models.RoleAdmin)
	tpl := e.template(t, owner, nil)

	patch := func(body string) *models.TemplatePatch {
		var p models.TemplatePatch
		require.NoError(t, json.Unmarshal([]byte(body), &p))
		return &p
	}

	_, err := e.svc.Templates.Update(ctx, stranger, tpl.ID.Hex(), patch(`{"title":"x"}`))
	assertKind(t, utils.KindForbidden, err)

	_, err = e.svc.Templates.Update(ctx, stranger, primitive.NewObjectID().Hex(), patch(`{"title":"x"}`))
	assertKind(t, utils.KindNotFound, err)

	_, err = e.svc.Templates.Update(ctx, owner, tpl.ID.Hex(), patch(`{"isPublic":false}`))
	assertKind(t, utils.KindValidation, err)

	_, err = e.svc.Templates.Update(ctx, owner, tpl.ID.Hex(), patch(`{"tags":[" "]}`))
	assertKind(t, utils.KindValidation, err)
	stored, err := e.store.Templates.FindByID(ctx, tpl.ID)
	require.NoError(t, err)
	assert.Equal(t, tpl.Tags, stored.Tags, "blank tag names never replace the tag set")

	_, err = e.svc.Templates.Update(ctx, owner, tpl.ID.Hex(), patch(`{"topic":"Sports","questions":[]}`))
	assertKind(t, utils.KindValidation, err)
	assert.Len(t, err.(*utils.AppError).Fields, 2)

	updated, err := e.svc.Templates.Update(ctx, admin, tpl.ID.Hex(),
		patch(`{"isPublic":false,"allowedUsers":["`+stranger.ID.Hex()+`"],"tags":["new"]}`))
	require.NoError(t, err)
	assert.False(t, updated.IsPublic)
	assert.Len(t, updated.Tags, 1)
	assert.NotEqual(t, tpl.Tags, updated.Tags)
}

func TestGetTemplateVisibility(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	owner := e.user(t, "owner@example.com", models.RoleUser)
	allowed := e.user(t, "allowed@example.com", models.RoleUser)
	stranger := e.user(t, "stranger@example.com", models.RoleUser)
	admin := e.user(t, "admin@example.com", models.RoleAdmin)
	private := false

	public := e.template(t, owner, nil)
	hidden := e.template(t, owner, func(r *models.CreateTemplateRequest) {
		r.IsPublic = &private
		r.AllowedUsers = []string{allowed.ID.Hex()}
	})

	view, err := e.svc.Templates.Get(ctx, nil, public.ID.Hex())
	require.NoError(t, err)
	assert.True(t, view.ReadOnly)

	view, err = e.svc.Templates.Get(ctx, owner, public.ID.Hex())
	require.NoError(t, err)
	assert.False(t, view.ReadOnly)

	_, err = e.svc.Templates.Get(ctx, nil, hidden.ID.Hex())
	assertKind(t, utils.KindForbidden, err)
	_, err = e.svc.Templates.Get(ctx, stranger, hidden.ID.Hex())
	assertKind(t, utils.KindForbidden, err)

	view, err = e.svc.Templates.Get(ctx, allowed, hidden.ID.Hex())
	require.NoError(t, err)
	assert.True(t, view.ReadOnly)

	view, err = e.svc.Templates.Get(ctx, admin, hidden.ID.Hex())
	require.NoError(t, err)
	assert.False(t, view.ReadOnly)

	_, err = e.svc.Templates.Get(ctx, nil, primitive.NewObjectID().Hex())
	assertKind(t, utils.KindNotFound, err)
	_, err = e.svc.Templates.Get(ctx, nil, "zzz")
	assertKind(t, utils.KindValidation, err)
}

func TestListTemplatesFiltersUnreadable(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	owner := e.user(t, "owner@example.com", models.RoleUser)
	allowed := e.user(t, "allowed@example.com", models.RoleUser)
	private := false

	first := e.template(t, owner, func(r *models.CreateTemplateRequest) { r.Title = "first" })
	e.template(t, owner, func(r *models.CreateTemplateRequest) {
		r.Title = "hidden"
		r.IsPublic = &private
		r.AllowedUsers = []string{allowed.ID.Hex()}
	})
	e.template(t, owner, func(r *models.CreateTemplateRequest) { r.Title = "third" })

	all, err := e.svc.Templates.List(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	all, err = e.svc.Templates.List(ctx, allowed)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	latest, err := e.svc.Templates.Latest(ctx, nil, 1)
	require.NoError(t, err)
	require.Len(t, latest, 1)
	assert.Equal(t, "third", latest[0].Title)

	byTag, err := e.svc.Templates.ListByTag(ctx, nil, first.Tags[0].Hex())
	require.NoError(t, err)
	assert.Len(t, byTag, 2)

	_, err = e.svc.Templates.Latest(ctx, nil, -1)
	assertKind(t, utils.KindValidation, err)
}

func TestDeleteTemplate(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	owner := e.user(t, "owner@example.com", models.RoleUser)
	answerer := e.user(t, "answerer@example.com", models.RoleUser)
	tpl := e.template(t, owner, nil)

	_, err := e.svc.Forms.Submit(ctx, answerer, tpl.ID.Hex(), &models.AnswersRequest{
		Answers: []models.AnswerInput{{QuestionID: tpl.Questions[0].ID.Hex(), AnswerText: "Ana"}},
	})
	require.NoError(t, err)

	assertKind(t, utils.KindForbidden, e.svc.Templates.Delete(ctx, answerer, tpl.ID.Hex()))
	require.NoError(t, e.svc.Templates.Delete(ctx, owner, tpl.ID.Hex()))
	assertKind(t, utils.KindNotFound, e.svc.Templates.Delete(ctx, owner, tpl.ID.Hex()))

	resp, err := e.store.Forms.FindByTemplateAndUser(ctx, tpl.ID, answerer.ID)
	require.NoError(t, err, "responses survive their template")
	assert.Equal(t, tpl.ID, resp.TemplateID)

	require.Equal(t, 1, e.enqueuer.count())
	assert.Equal(t, jobs.TypePruneOrphanTags, e.enqueuer.tasks[0].Type())
}

func TestQuestions(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	owner := e.user(t, "owner@example.com", models.RoleUser)
	stranger := e.user(t, "stranger@example.com", models.RoleUser)
	tpl := e.template(t, owner, nil)

	q, err := e.svc.Templates.AddQuestion(ctx, owner, tpl.ID.Hex(), &models.QuestionInput{Title: "Age", Type: "number"})
	require.NoError(t, err)
	assert.Equal(t, 2, q.Order)

	_, err = e.svc.Templates.AddQuestion(ctx, stranger, tpl.ID.Hex(), &models.QuestionInput{Title: "x", Type: "text"})
	assertKind(t, utils.KindForbidden, err)
	_, err = e.svc.Templates.AddQuestion(ctx, owner, tpl.ID.Hex(), &models.QuestionInput{Type: "text"})
	assertKind(t, utils.KindValidation, err)

	var patch models.QuestionPatch
	require.NoError(t, json.Unmarshal([]byte(`{"description":"in years"}`), &patch))
	updated, err := e.svc.Templates.UpdateQuestion(ctx, owner, tpl.ID.Hex(), q.ID.Hex(), &patch)
	require.NoError(t, err)
	assert.Equal(t, "Age", updated.Title)
	assert.Equal(t, "in years", updated.Description)

	_, err = e.svc.Templates.UpdateQuestion(ctx, owner, tpl.ID.Hex(), primitive.NewObjectID().Hex(), &patch)
	assertKind(t, utils.KindNotFound, err)

	require.NoError(t, e.svc.Templates.DeleteQuestion(ctx, owner, tpl.ID.Hex(), q.ID.Hex()))
	assertKind(t, utils.KindNotFound, e.svc.Templates.DeleteQuestion(ctx, owner, tpl.ID.Hex(), q.ID.Hex()))

	stored, err := e.store.Templates.FindByID(ctx, tpl.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Questions, 1)
}
