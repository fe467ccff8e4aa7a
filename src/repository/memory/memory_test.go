package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"Backend-Forms-Builder/src/models"
	"Backend-Forms-Builder/src/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestTagGetOrCreateIsIdempotent(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	ids := make([]primitive.ObjectID, 8)
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tag, err := store.Tags.GetOrCreate(ctx, "survey")
			if assert.NoError(t, err) {
				ids[i] = tag.ID
			}
		}(i)
	}
	wg.Wait()

	for _, id := range ids {
		assert.Equal(t, ids[0], id)
	}
	tags, err := store.Tags.List(ctx)
	require.NoError(t, err)
	assert.Len(t, tags, 1)
}

func TestTemplateAddTagsIsSetUnion(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	a, b := primitive.NewObjectID(), primitive.NewObjectID()
	tpl := &models.Template{Title: "t", Tags: []primitive.ObjectID{a}}
	require.NoError(t, store.Templates.Create(ctx, tpl))

	got, err := store.Templates.AddTags(ctx, tpl.ID, []primitive.ObjectID{a, b, b})
	require.NoError(t, err)
	assert.Equal(t, []primitive.ObjectID{a, b}, got.Tags)

	_, err = store.Templates.AddTags(ctx, primitive.NewObjectID(), []primitive.ObjectID{a})
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestTemplateReadsAreCopies(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	tpl := &models.Template{Title: "t", Questions: []models.Question{{ID: primitive.NewObjectID(), Title: "q"}}}
	require.NoError(t, store.Templates.Create(ctx, tpl))

	got, err := store.Templates.FindByID(ctx, tpl.ID)
	require.NoError(t, err)
	got.Questions[0].Title = "changed"

	again, err := store.Templates.FindByID(ctx, tpl.ID)
	require.NoError(t, err)
	assert.Equal(t, "q", again.Questions[0].Title)
}

func TestTemplatePullQuestion(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	q1, q2 := primitive.NewObjectID(), primitive.NewObjectID()
	tpl := &models.Template{Questions: []models.Question{{ID: q1}, {ID: q2}}}
	require.NoError(t, store.Templates.Create(ctx, tpl))

	require.NoError(t, store.Templates.PullQuestion(ctx, tpl.ID, q1))
	assert.ErrorIs(t, store.Templates.PullQuestion(ctx, tpl.ID, q1), repository.ErrNotFound)

	got, err := store.Templates.FindByID(ctx, tpl.ID)
	require.NoError(t, err)
	require.Len(t, got.Questions, 1)
	assert.Equal(t, q2, got.Questions[0].ID)
}

func TestTemplateListNewestFirst(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	base := time.Now()

	for i := 0; i < 3; i++ {
		require.NoError(t, store.Templates.Create(ctx, &models.Template{
			Title:     string(rune('a' + i)),
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	all, err := store.Templates.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "c", all[0].Title)

	latest, err := store.Templates.List(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, latest, 2)
}

func TestTagDeleteUnreferenced(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	used, err := store.Tags.GetOrCreate(ctx, "used")
	require.NoError(t, err)
	_, err = store.Tags.GetOrCreate(ctx, "orphan")
	require.NoError(t, err)

	n, err := store.Tags.DeleteUnreferenced(ctx, []primitive.ObjectID{used.ID}, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.Zero(t, n, "fresh tags are kept")

	n, err = store.Tags.DeleteUnreferenced(ctx, []primitive.ObjectID{used.ID}, time.Now().Add(time.Second))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	tags, err := store.Tags.List(ctx)
	require.NoError(t, err)
	require.Len(t, tags, 1)
	assert.Equal(t, "used", tags[0].Name)
}

func TestTagDeleteUnreferencedKeepsRecentlyResolved(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	old, err := store.Tags.GetOrCreate(ctx, "old")
	require.NoError(t, err)
	time.Sleep(2 * time.Millisecond)
	cutoff := time.Now()

	again, err := store.Tags.GetOrCreate(ctx, "old")
	require.NoError(t, err)
	assert.Equal(t, old.ID, again.ID)
	assert.True(t, again.CreatedAt.Before(cutoff))
	assert.False(t, again.LastUsedAt.Before(cutoff))

	n, err := store.Tags.DeleteUnreferenced(ctx, nil, cutoff)
	require.NoError(t, err)
	assert.Zero(t, n, "a tag resolved after the cut-off may belong to a template being inserted")

	n, err = store.Tags.DeleteUnreferenced(ctx, nil, time.Now().Add(time.Second))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestUserBulkUpdates(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	u := &models.User{Email: "a@example.com", Role: models.RoleUser, Status: models.StatusActive}
	require.NoError(t, store.Users.Create(ctx, u))
	assert.ErrorIs(t, store.Users.Create(ctx, &models.User{Email: "a@example.com"}), repository.ErrDuplicate)

	res, err := store.Users.SetStatus(ctx, []primitive.ObjectID{u.ID, primitive.NewObjectID()}, models.StatusBlocked)
	require.NoError(t, err)
	assert.Equal(t, models.BulkResult{Matched: 1, Modified: 1}, res)

	res, err = store.Users.SetStatus(ctx, []primitive.ObjectID{u.ID}, models.StatusBlocked)
	require.NoError(t, err)
	assert.Equal(t, models.BulkResult{Matched: 1, Modified: 0}, res)

	n, err := store.Users.Delete(ctx, []primitive.ObjectID{u.ID, u.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestFormCountByTemplate(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	a, b := primitive.NewObjectID(), primitive.NewObjectID()
	for _, tplID := range []primitive.ObjectID{a, b, b} {
		require.NoError(t, store.Forms.Create(ctx, &models.FormResponse{TemplateID: tplID, UserID: primitive.NewObjectID()}))
	}

	counts, err := store.Forms.CountByTemplate(ctx)
	require.NoError(t, err)
	require.Len(t, counts, 2)
	assert.Equal(t, repository.TemplateCount{TemplateID: b, Count: 2}, counts[0])
}
