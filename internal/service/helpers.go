package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	appErrors "github.com/sparc-center/sparc-api/pkg/errors"
)

// validationError converts validator output into a 400 carrying one entry per
// offending field, so clients can surface every problem at once.
func validationError(err error, message string) *appErrors.Error {
	return appErrors.Validation(message, collectFieldErrors(err))
}

// collectFieldErrors extracts per-field entries from validator output so
// callers can merge in checks of their own before failing once.
func collectFieldErrors(err error) []appErrors.FieldError {
	if err == nil {
		return nil
	}
	var invalid validator.ValidationErrors
	if !errors.As(err, &invalid) {
		return []appErrors.FieldError{{Field: "request", Message: "is malformed"}}
	}
	fields := make([]appErrors.FieldError, 0, len(invalid))
	for _, fe := range invalid {
		fields = append(fields, appErrors.FieldError{
			Field:   lowerFirst(fe.Field()),
			Message: fieldMessage(fe),
		})
	}
	return fields
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return fmt.Sprintf("must have at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must have at most %s", fe.Param())
	case "len":
		return fmt.Sprintf("must be exactly %s characters", fe.Param())
	case "numeric":
		return "must contain only digits"
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}

// internalError wraps unexpected repository failures with a 500.
func internalError(err error, message string) *appErrors.Error {
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, message)
}
