package middleware

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"Backend-Forms-Builder/src/authz"
	"Backend-Forms-Builder/src/models"
	"Backend-Forms-Builder/src/utils"

	"github.com/gofiber/fiber/v2"
)

// TokenCookie is the cookie the session token travels in.
const TokenCookie = "token"

const (
	localsPrincipal = "principal"
	localsSession   = "session"
)

type SessionVerifier interface {
	Verify(ctx context.Context, token string) (*authz.Session, error)
}

// Auth resolves the session token on a request into a principal stored in
// c.Locals. The cookie wins over an Authorization: Bearer header.
type Auth struct {
	verifier SessionVerifier
	logger   *slog.Logger
}

func NewAuth(verifier SessionVerifier, logger *slog.Logger) *Auth {
	if logger == nil {
		logger = slog.Default()
	}
	return &Auth{verifier: verifier, logger: logger}
}

func tokenFrom(c *fiber.Ctx) string {
	if token := c.Cookies(TokenCookie); token != "" {
		return token
	}
	authHeader := c.Get(fiber.HeaderAuthorization)
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	}
	return ""
}

// Required rejects a request without a token with 401 and one with a bad,
// expired or revoked token with 403.
func (a *Auth) Required(c *fiber.Ctx) error {
	session, err := a.verifier.Verify(c.UserContext(), tokenFrom(c))
	if errors.Is(err, authz.ErrNoToken) {
		return utils.HandleError(c, fiber.StatusUnauthorized, "Unauthorized")
	}
	if err != nil {
		a.logger.Debug("rejected session token", "path", c.Path(), "error", err)
		return utils.HandleError(c, fiber.StatusForbidden, "Invalid or expired token")
	}

	setSession(c, session)
	return c.Next()
}

// Optional attaches a principal when the token verifies and otherwise
// continues anonymously. It never fails the request.
func (a *Auth) Optional(c *fiber.Ctx) error {
	if session, err := a.verifier.Verify(c.UserContext(), tokenFrom(c)); err == nil {
		setSession(c, session)
	}
	return c.Next()
}

func setSession(c *fiber.Ctx, session *authz.Session) {
	principal := session.Principal
	c.Locals(localsSession, session)
	c.Locals(localsPrincipal, &principal)
}

// PrincipalFrom returns the caller, or nil for an anonymous request.
func PrincipalFrom(c *fiber.Ctx) *models.Principal {
	p, _ := c.Locals(localsPrincipal).(*models.Principal)
	return p
}

func SessionFrom(c *fiber.Ctx) *authz.Session {
	s, _ := c.Locals(localsSession).(*authz.Session)
	return s
}
