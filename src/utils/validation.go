package utils

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"Backend-Forms-Builder/src/models"

	"github.com/go-playground/validator/v10"
)

// Validator wraps go-playground/validator with the project's custom rules and
// turns failures into a ValidationError carrying one message per field.
type Validator struct {
	validate *validator.Validate
}

func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("topic", func(fl validator.FieldLevel) bool {
		return models.IsTopic(fl.Field().String())
	})
	return &Validator{validate: v}
}

// Struct validates s and returns nil or a *AppError of kind validation.
func (v *Validator) Struct(s any) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return NewValidationError("Invalid request", err.Error())
	}
	messages := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		messages = append(messages, fieldMessage(fe))
	}
	return NewValidationError("Validation failed", messages...)
}

// Var validates a single value against tag; field names the value in the
// resulting message.
func (v *Validator) Var(field string, value any, tag string) error {
	err := v.validate.Var(value, tag)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		return NewValidationError("Validation failed", fieldMessageNamed(field, fieldErrs[0]))
	}
	return NewValidationError("Validation failed", field+" is invalid")
}

func fieldMessage(fe validator.FieldError) string {
	// Namespace is Struct.field[0].sub; drop the struct name.
	name := fe.Namespace()
	if i := strings.Index(name, "."); i >= 0 {
		name = name[i+1:]
	}
	return fieldMessageNamed(name, fe)
}

func fieldMessageNamed(name string, fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", name)
	case "notblank":
		return fmt.Sprintf("%s must not be blank", name)
	case "email":
		return fmt.Sprintf("%s must be a valid email", name)
	case "min":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("%s must contain at least %s item(s)", name, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s characters", name, fe.Param())
	case "max":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("%s must contain at most %s item(s)", name, fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s characters", name, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", name, fe.Param())
	case "topic":
		return fmt.Sprintf("%s must be one of [%s]", name, strings.Join(models.Topics, " "))
	case "mongodb":
		return fmt.Sprintf("%s must be a valid id", name)
	case "url":
		return fmt.Sprintf("%s must be a valid URL", name)
	default:
		return fmt.Sprintf("%s is invalid", name)
	}
}
