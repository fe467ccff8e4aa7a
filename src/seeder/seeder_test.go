package seeder

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"Backend-Forms-Builder/src/models"
	"Backend-Forms-Builder/src/repository/memory"
	"Backend-Forms-Builder/src/services"
	"Backend-Forms-Builder/src/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func TestEnsureAdminCreatesAccount(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()

	admin, err := EnsureAdmin(ctx, store.Users, " Root@Example.com ", "changeme", discard)
	require.NoError(t, err)
	assert.Equal(t, "root@example.com", admin.Email)
	assert.True(t, admin.IsAdmin())

	stored, err := store.Users.FindByEmail(ctx, "root@example.com")
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.Password), []byte("changeme")))

	again, err := EnsureAdmin(ctx, store.Users, "root@example.com", "other", discard)
	require.NoError(t, err)
	assert.Equal(t, admin.ID, again.ID)
}

func TestEnsureAdminPromotesExisting(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	user := &models.User{Email: "ops@example.com", Role: models.RoleUser, Status: models.StatusBlocked}
	require.NoError(t, store.Users.Create(ctx, user))

	admin, err := EnsureAdmin(ctx, store.Users, "ops@example.com", "ignored", discard)
	require.NoError(t, err)
	assert.Equal(t, user.ID, admin.ID)

	stored, err := store.Users.FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsAdmin())
	assert.False(t, stored.IsBlocked())
}

func TestSeedSampleTemplates(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	svc := services.New(services.Options{
		Store:     store,
		Tokens:    utils.NewTokenManager("seed-secret", time.Hour),
		Validator: utils.NewValidator(),
		Logger:    discard,
	})

	admin, err := EnsureAdmin(ctx, store.Users, "root@example.com", "changeme", discard)
	require.NoError(t, err)

	require.NoError(t, SeedSampleTemplates(ctx, svc.Templates, admin, discard))
	p := &models.Principal{ID: admin.ID, Role: admin.Role}
	views, err := svc.Templates.List(ctx, p)
	require.NoError(t, err)
	assert.Len(t, views, len(sampleTemplates()))

	anonymous, err := svc.Templates.List(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, anonymous, len(sampleTemplates())-1)

	// a second run leaves the store alone
	require.NoError(t, SeedSampleTemplates(ctx, svc.Templates, admin, discard))
	views, err = svc.Templates.List(ctx, p)
	require.NoError(t, err)
	assert.Len(t, views, len(sampleTemplates()))
}
