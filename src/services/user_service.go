package services

import (
	"context"

	"Backend-Forms-Builder/src/authz"
	"Backend-Forms-Builder/src/models"
	"Backend-Forms-Builder/src/repository"
	"Backend-Forms-Builder/src/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserService is the account administration surface. Every method checks
// the caller's live role first.
type UserService struct {
	users    repository.UserRepository
	gate     *authz.Gate
	validate *utils.Validator
}

func (s *UserService) List(ctx context.Context, p *models.Principal) ([]models.UserSummary, error) {
	if err := s.gate.Caller(p).RequireAdmin(ctx); err != nil {
		return nil, err
	}
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, utils.NewInternalError("Error retrieving users", err)
	}
	if users == nil {
		users = []models.UserSummary{}
	}
	return users, nil
}

func (s *UserService) bulk(ctx context.Context, p *models.Principal, req *models.UserIDsRequest,
	apply func(ctx context.Context, ids []primitive.ObjectID) (models.BulkResult, error), failure string,
) (models.BulkResult, error) {
	if err := s.gate.Caller(p).RequireAdmin(ctx); err != nil {
		return models.BulkResult{}, err
	}
	if err := s.validate.Struct(req); err != nil {
		return models.BulkResult{}, err
	}
	ids, err := parseIDs(req.UserIDs, "userIds")
	if err != nil {
		return models.BulkResult{}, err
	}

	res, err := apply(ctx, ids)
	if err != nil {
		return models.BulkResult{}, utils.NewInternalError(failure, err)
	}
	if res.Matched == 0 {
		return res, utils.NewNotFoundError("No users found")
	}
	return res, nil
}

func (s *UserService) Block(ctx context.Context, p *models.Principal, req *models.UserIDsRequest) (models.BulkResult, error) {
	return s.bulk(ctx, p, req, func(ctx context.Context, ids []primitive.ObjectID) (models.BulkResult, error) {
		return s.users.SetStatus(ctx, ids, models.StatusBlocked)
	}, "Error blocking users")
}

func (s *UserService) Unblock(ctx context.Context, p *models.Principal, req *models.UserIDsRequest) (models.BulkResult, error) {
	return s.bulk(ctx, p, req, func(ctx context.Context, ids []primitive.ObjectID) (models.BulkResult, error) {
		return s.users.SetStatus(ctx, ids, models.StatusActive)
	}, "Error unblocking users")
}

func (s *UserService) AddAdmins(ctx context.Context, p *models.Principal, req *models.UserIDsRequest) (models.BulkResult, error) {
	return s.bulk(ctx, p, req, func(ctx context.Context, ids []primitive.ObjectID) (models.BulkResult, error) {
		return s.users.SetRole(ctx, ids, models.RoleAdmin)
	}, "Error adding new admins")
}

func (s *UserService) RemoveAdmins(ctx context.Context, p *models.Principal, req *models.UserIDsRequest) (models.BulkResult, error) {
	return s.bulk(ctx, p, req, func(ctx context.Context, ids []primitive.ObjectID) (models.BulkResult, error) {
		return s.users.SetRole(ctx, ids, models.RoleUser)
	}, "Error removing admins")
}

// Delete removes the accounts. Their templates and responses stay.
func (s *UserService) Delete(ctx context.Context, p *models.Principal, req *models.UserIDsRequest) (int64, error) {
	res, err := s.bulk(ctx, p, req, func(ctx context.Context, ids []primitive.ObjectID) (models.BulkResult, error) {
		n, err := s.users.Delete(ctx, ids)
		return models.BulkResult{Matched: n, Modified: n}, err
	}, "Error deleting users")
	return res.Modified, err
}

// SetRole grants or revokes admin on a single account.
func (s *UserService) SetRole(ctx context.Context, p *models.Principal, rawID string, req *models.RoleRequest) (models.BulkResult, error) {
	if err := s.gate.Caller(p).RequireAdmin(ctx); err != nil {
		return models.BulkResult{}, err
	}
	if err := s.validate.Struct(req); err != nil {
		return models.BulkResult{}, err
	}
	id, err := parseID(rawID, "user")
	if err != nil {
		return models.BulkResult{}, err
	}

	res, err := s.users.SetRole(ctx, []primitive.ObjectID{id}, req.Role)
	if err != nil {
		return models.BulkResult{}, utils.NewInternalError("Error updating role", err)
	}
	if res.Matched == 0 {
		return res, utils.NewNotFoundError("User not found")
	}
	return res, nil
}
