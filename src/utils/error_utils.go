package utils

import (
	"errors"
	"log/slog"

	"Backend-Forms-Builder/src/models"

	"github.com/gofiber/fiber/v2"
)

type ErrorKind int

const (
	KindInternal ErrorKind = iota
	KindValidation
	KindUnauthenticated
	KindForbidden
	KindBlocked
	KindNotFound
	KindConflict
)

// Status maps an error kind to its HTTP status. Conflicts surface as 400.
func (k ErrorKind) Status() int {
	switch k {
	case KindValidation, KindConflict:
		return fiber.StatusBadRequest
	case KindUnauthenticated:
		return fiber.StatusUnauthorized
	case KindForbidden, KindBlocked:
		return fiber.StatusForbidden
	case KindNotFound:
		return fiber.StatusNotFound
	default:
		return fiber.StatusInternalServerError
	}
}

// AppError is the error every service returns to its controller.
type AppError struct {
	Kind    ErrorKind
	Message string
	Fields  []string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error { return e.Err }

func NewValidationError(message string, fields ...string) *AppError {
	return &AppError{Kind: KindValidation, Message: message, Fields: fields}
}

func NewUnauthenticatedError(message string) *AppError {
	return &AppError{Kind: KindUnauthenticated, Message: message}
}

func NewForbiddenError(message string) *AppError {
	return &AppError{Kind: KindForbidden, Message: message}
}

func NewBlockedError(message string) *AppError {
	return &AppError{Kind: KindBlocked, Message: message}
}

func NewNotFoundError(message string) *AppError {
	return &AppError{Kind: KindNotFound, Message: message}
}

func NewConflictError(message string) *AppError {
	return &AppError{Kind: KindConflict, Message: message}
}

func NewInternalError(message string, err error) *AppError {
	return &AppError{Kind: KindInternal, Message: message, Err: err}
}

// KindOf returns the kind of err; anything that is not an AppError is internal.
func KindOf(err error) ErrorKind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

func IsKind(err error, kind ErrorKind) bool {
	return err != nil && KindOf(err) == kind
}

func HandleError(c *fiber.Ctx, status int, message string, fields ...string) error {
	return c.Status(status).JSON(models.ErrorResponse{
		Status:  status,
		Message: message,
		Errors:  fields,
	})
}

// RespondError writes err as an ErrorResponse. Internal failures are logged
// with the request context and answered with the generic message only.
func RespondError(c *fiber.Ctx, logger *slog.Logger, err error) error {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		appErr = NewInternalError("Unexpected error", err)
	}

	status := appErr.Kind.Status()
	if appErr.Kind == KindInternal && logger != nil {
		logger.Error(appErr.Message,
			"error", appErr.Err,
			"method", c.Method(),
			"path", c.Path(),
			"requestId", c.GetRespHeader(fiber.HeaderXRequestID),
		)
	}
	return HandleError(c, status, appErr.Message, appErr.Fields...)
}
