package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"Backend-Forms-Builder/src/authz"
	"Backend-Forms-Builder/src/models"
	"Backend-Forms-Builder/src/repository"
	"Backend-Forms-Builder/src/utils"

	"golang.org/x/crypto/bcrypt"
)

// AuthResult is a freshly issued session.
type AuthResult struct {
	Account   models.Account
	Token     string
	ExpiresAt time.Time
}

type AuthService struct {
	users    repository.UserRepository
	tokens   *utils.TokenManager
	revoker  TokenRevoker
	validate *utils.Validator
	logger   *slog.Logger
	now      func() time.Time
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *AuthService) issue(user *models.User) (*AuthResult, error) {
	token, claims, err := s.tokens.GenerateJWT(user.ID.Hex(), user.Role)
	if err != nil {
		return nil, utils.NewInternalError("Token generation failed", err)
	}
	return &AuthResult{Account: user.Account(), Token: token, ExpiresAt: claims.ExpiresAt.Time}, nil
}

func (s *AuthService) SignUp(ctx context.Context, req *models.SignUpRequest) (*AuthResult, error) {
	req.Email = normalizeEmail(req.Email)
	if err := s.validate.Struct(req); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, utils.NewInternalError("Error creating user", err)
	}

	now := s.now()
	user := &models.User{
		FirstName: strings.TrimSpace(req.FirstName),
		LastName:  strings.TrimSpace(req.LastName),
		Email:     req.Email,
		Password:  string(hash),
		Role:      models.RoleUser,
		Status:    models.StatusActive,
		LastLogin: now,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, utils.NewConflictError("This email already exists")
		}
		return nil, utils.NewInternalError("Error creating user", err)
	}

	s.logger.Info("user signed up", "userId", user.ID.Hex())
	return s.issue(user)
}

// SignIn checks the credentials before the account status so a blocked
// account is only revealed to someone who knows its password.
func (s *AuthService) SignIn(ctx context.Context, req *models.SignInRequest) (*AuthResult, error) {
	req.Email = normalizeEmail(req.Email)
	if err := s.validate.Struct(req); err != nil {
		return nil, err
	}

	user, err := s.users.FindByEmail(ctx, req.Email)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, utils.NewValidationError("Invalid email or password")
	}
	if err != nil {
		return nil, utils.NewInternalError("Error to Sign In", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, utils.NewValidationError("Invalid email or password")
	}
	if user.IsBlocked() {
		return nil, utils.NewBlockedError("User account is blocked")
	}

	if err := s.users.TouchLastLogin(ctx, user.ID, s.now()); err != nil {
		return nil, storageError(err, "User not found", "Error to Sign In")
	}
	return s.issue(user)
}

// SignOut revokes the presented token for the rest of its lifetime. A
// request without a valid session has nothing to revoke.
func (s *AuthService) SignOut(ctx context.Context, session *authz.Session) error {
	if session == nil || s.revoker == nil {
		return nil
	}
	remaining := session.ExpiresAt.Sub(s.now())
	if err := s.revoker.Revoke(ctx, session.TokenID, remaining); err != nil {
		return utils.NewInternalError("Error signing out", err)
	}
	return nil
}

// Verify reports the account behind a session, or Unauthenticated when there
// is none or the account has been deleted since the token was issued.
func (s *AuthService) Verify(ctx context.Context, p *models.Principal) (*models.Account, error) {
	if err := requireAuth(p); err != nil {
		return nil, err
	}
	user, err := s.users.FindByID(ctx, p.ID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, utils.NewUnauthenticatedError("Unauthorized user not found")
	}
	if err != nil {
		return nil, utils.NewInternalError("Error verifying session", err)
	}
	account := user.Account()
	return &account, nil
}

func (s *AuthService) Account(ctx context.Context, p *models.Principal) (*models.Account, error) {
	if err := requireAuth(p); err != nil {
		return nil, err
	}
	user, err := s.users.FindByID(ctx, p.ID)
	if err != nil {
		return nil, storageError(err, "User not found", "Error loading account")
	}
	account := user.Account()
	return &account, nil
}
