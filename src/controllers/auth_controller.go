package controllers

import (
	"log/slog"
	"time"

	"Backend-Forms-Builder/src/middleware"
	"Backend-Forms-Builder/src/models"
	"Backend-Forms-Builder/src/services"
	"Backend-Forms-Builder/src/utils"

	"github.com/gofiber/fiber/v2"
)

type AuthController struct {
	auth         *services.AuthService
	secureCookie bool
	logger       *slog.Logger
}

func NewAuthController(auth *services.AuthService, secureCookie bool, logger *slog.Logger) *AuthController {
	return &AuthController{auth: auth, secureCookie: secureCookie, logger: logger}
}

func (h *AuthController) setTokenCookie(c *fiber.Ctx, token string, expires time.Time) {
	c.Cookie(&fiber.Cookie{
		Name:     middleware.TokenCookie,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HTTPOnly: true,
		Secure:   h.secureCookie,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

// SignUp godoc
// @Summary      Create an account
// @Description  Registers a user and starts a session; the token is also set as a cookie
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body body models.SignUpRequest true "Account"
// @Success      200  {object}  models.Account
// @Failure      400  {object}  models.ErrorResponse
// @Failure      500  {object}  models.ErrorResponse
// @Router       /sign-up [post]
func (h *AuthController) SignUp(c *fiber.Ctx) error {
	var req models.SignUpRequest
	if err := parseBody(c, &req); err != nil {
		return utils.RespondError(c, h.logger, err)
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	res, err := h.auth.SignUp(ctx, &req)
	if err != nil {
		return utils.RespondError(c, h.logger, err)
	}
	h.setTokenCookie(c, res.Token, res.ExpiresAt)
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message": "User created successfully",
		"data":    res.Account,
		"token":   res.Token,
	})
}

// SignIn godoc
// @Summary      Sign in
// @Description  Checks credentials and starts a session. Blocked accounts are refused with 403.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body body models.SignInRequest true "Credentials"
// @Success      200  {object}  models.Account
// @Failure      400  {object}  models.ErrorResponse
// @Failure      403  {object}  models.ErrorResponse
// @Failure      500  {object}  models.ErrorResponse
// @Router       /sign-in [post]
func (h *AuthController) SignIn(c *fiber.Ctx) error {
	var req models.SignInRequest
	if err := parseBody(c, &req); err != nil {
		return utils.RespondError(c, h.logger, err)
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	res, err := h.auth.SignIn(ctx, &req)
	if err != nil {
		return utils.RespondError(c, h.logger, err)
	}
	h.setTokenCookie(c, res.Token, res.ExpiresAt)
	return c.JSON(fiber.Map{
		"message": "Sign In successfully",
		"data":    res.Account,
		"token":   res.Token,
	})
}

// SignOut godoc
// @Summary      Sign out
// @Description  Clears the session cookie and revokes the presented token
// @Tags         auth
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /sign-out [post]
func (h *AuthController) SignOut(c *fiber.Ctx) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	if err := h.auth.SignOut(ctx, middleware.SessionFrom(c)); err != nil {
		return utils.RespondError(c, h.logger, err)
	}
	h.setTokenCookie(c, "", time.Unix(0, 0))
	return c.JSON(fiber.Map{"message": "Signed out"})
}

// Verify godoc
// @Summary      Verify the session
// @Tags         auth
// @Produce      json
// @Success      200  {object}  models.Account
// @Failure      401  {object}  models.ErrorResponse
// @Router       /verify [get]
func (h *AuthController) Verify(c *fiber.Ctx) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	account, err := h.auth.Verify(ctx, middleware.PrincipalFrom(c))
	if err != nil {
		return utils.RespondError(c, h.logger, err)
	}
	return c.JSON(account)
}

// Account godoc
// @Summary      Current account
// @Tags         auth
// @Produce      json
// @Success      200  {object}  models.Account
// @Failure      401  {object}  models.ErrorResponse
// @Failure      403  {object}  models.ErrorResponse
// @Failure      404  {object}  models.ErrorResponse
// @Router       /account [get]
func (h *AuthController) Account(c *fiber.Ctx) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	account, err := h.auth.Account(ctx, middleware.PrincipalFrom(c))
	if err != nil {
		return utils.RespondError(c, h.logger, err)
	}
	return c.JSON(account)
}
