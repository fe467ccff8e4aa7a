package services

import (
	"context"
	"strings"

	"Backend-Forms-Builder/src/authz"
	"Backend-Forms-Builder/src/models"
	"Backend-Forms-Builder/src/repository"
	"Backend-Forms-Builder/src/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type TagService struct {
	tags      repository.TagRepository
	templates repository.TemplateRepository
	gate      *authz.Gate
	validate  *utils.Validator
}

// Resolve turns tag names into ids, creating missing tags. Names are trimmed
// and repeated names collapse to one id.
func (s *TagService) Resolve(ctx context.Context, names []string) ([]primitive.ObjectID, error) {
	ids := make([]primitive.ObjectID, 0, len(names))
	seen := make(map[string]bool, len(names))
	for _, raw := range names {
		name := strings.TrimSpace(raw)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true

		tag, err := s.tags.GetOrCreate(ctx, name)
		if err != nil {
			return nil, utils.NewInternalError("Error resolving tags", err)
		}
		ids = append(ids, tag.ID)
	}
	return ids, nil
}

// AddToTemplate merges the named tags into the template's tag set.
func (s *TagService) AddToTemplate(ctx context.Context, p *models.Principal, rawTemplateID string, req *models.UpdateTagsRequest) (*models.Template, error) {
	if err := requireAuth(p); err != nil {
		return nil, err
	}
	templateID, err := parseID(rawTemplateID, "template")
	if err != nil {
		return nil, err
	}
	template, err := findTemplate(ctx, s.templates, templateID)
	if err != nil {
		return nil, err
	}
	if err := s.gate.Caller(p).CanMutateTemplate(ctx, template); err != nil {
		return nil, err
	}
	if err := s.validate.Struct(req); err != nil {
		return nil, err
	}

	ids, err := s.Resolve(ctx, req.Tags)
	if err != nil {
		return nil, err
	}
	updated, err := s.templates.AddTags(ctx, templateID, ids)
	if err != nil {
		return nil, storageError(err, "Template not found", "Error updating template")
	}
	return updated, nil
}

// List returns every tag sorted by name; an empty store yields an empty list.
func (s *TagService) List(ctx context.Context) ([]models.Tag, error) {
	tags, err := s.tags.List(ctx)
	if err != nil {
		return nil, utils.NewInternalError("Error fetching tags", err)
	}
	if tags == nil {
		tags = []models.Tag{}
	}
	return tags, nil
}
