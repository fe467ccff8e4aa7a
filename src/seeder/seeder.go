// Package seeder prepares a fresh deployment: the first admin account and,
// for local development, a few sample templates.
package seeder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"Backend-Forms-Builder/src/models"
	"Backend-Forms-Builder/src/repository"
	"Backend-Forms-Builder/src/services"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

func hashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

// EnsureAdmin makes sure an active admin with the given email exists. An
// existing account is promoted and unblocked; its password is left alone.
func EnsureAdmin(ctx context.Context, users repository.UserRepository, email, password string, logger *slog.Logger) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	existing, err := users.FindByEmail(ctx, email)
	switch {
	case err == nil:
		ids := []primitive.ObjectID{existing.ID}
		if !existing.IsAdmin() {
			if _, err := users.SetRole(ctx, ids, models.RoleAdmin); err != nil {
				return nil, fmt.Errorf("promote %s: %w", email, err)
			}
			existing.Role = models.RoleAdmin
		}
		if existing.IsBlocked() {
			if _, err := users.SetStatus(ctx, ids, models.StatusActive); err != nil {
				return nil, fmt.Errorf("unblock %s: %w", email, err)
			}
			existing.Status = models.StatusActive
		}
		logger.Info("Admin account already exists", "email", email)
		return existing, nil
	case !errors.Is(err, repository.ErrNotFound):
		return nil, fmt.Errorf("look up %s: %w", email, err)
	}

	hash, err := hashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	now := time.Now()
	admin := &models.User{
		FirstName: "Admin",
		LastName:  "User",
		Email:     email,
		Password:  hash,
		Role:      models.RoleAdmin,
		Status:    models.StatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := users.Create(ctx, admin); err != nil {
		return nil, fmt.Errorf("create admin %s: %w", email, err)
	}
	logger.Info("Admin account created", "email", email)
	return admin, nil
}

func sampleTemplates() []*models.CreateTemplateRequest {
	private := false
	return []*models.CreateTemplateRequest{
		{
			Title:       "Course Feedback",
			Description: "Tell us how the course went",
			Topic:       "Education",
			Tags:        []string{"feedback", "course"},
			Questions: []models.QuestionInput{
				{Title: "What did you like most?", Type: "paragraph"},
				{Title: "How difficult was it?", Type: "multiple-choice", Options: []string{"Easy", "Moderate", "Hard"}},
				{Title: "Which materials helped?", Type: "checkbox", Options: []string{"Lectures", "Assignments", "Textbook"}},
			},
		},
		{
			Title:       "Conference Registration",
			Description: "Register for the annual meetup",
			Topic:       "Work",
			Tags:        []string{"event"},
			Questions: []models.QuestionInput{
				{Title: "Full name", Type: "short-answer"},
				{Title: "Workshop", Type: "dropdown", Options: []string{"Go", "Databases", "Frontend"}},
			},
		},
		{
			Title:        "Admin Checklist",
			Description:  "Only visible to the admin who seeded it",
			Topic:        "Other",
			Tags:         []string{"internal"},
			IsPublic:     &private,
			AllowedUsers: []string{},
			Questions: []models.QuestionInput{
				{Title: "Anything to review?", Type: "paragraph"},
			},
		},
	}
}

// SeedSampleTemplates creates the sample templates as owner unless the owner
// can already read at least one template.
func SeedSampleTemplates(ctx context.Context, templates *services.TemplateService, owner *models.User, logger *slog.Logger) error {
	p := &models.Principal{ID: owner.ID, Role: owner.Role}

	existing, err := templates.List(ctx, p)
	if err != nil {
		return fmt.Errorf("list templates: %w", err)
	}
	if len(existing) > 0 {
		logger.Info("Templates already present, skipping samples", "count", len(existing))
		return nil
	}

	for _, req := range sampleTemplates() {
		if req.IsPublic != nil && !*req.IsPublic {
			req.AllowedUsers = []string{owner.ID.Hex()}
		}
		created, err := templates.Create(ctx, p, req)
		if err != nil {
			return fmt.Errorf("seed %q: %w", req.Title, err)
		}
		logger.Info("Sample template created", "title", created.Title, "id", created.ID.Hex())
	}
	return nil
}
