package task

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ErrValidation wraps all input validation failures so transport layers
// can map them to a 400 response without inspecting messages.
var ErrValidation = errors.New("validation failed")

// validate is the shared validator instance for task inputs.
var validate = validator.New(validator.WithRequiredStructEnabled())

// CreateInput is the client-supplied payload for creating a task.
// CreatedBy is deliberately absent: it is forced to the requesting
// actor server-side regardless of the request body.
type CreateInput struct {
	Title       string `json:"title" validate:"required,max=100"`
	Description string `json:"description" validate:"required,max=500"`
	Status      Status `json:"status" validate:"omitempty,oneof=pending completed"`
}

// Validate trims whitespace and checks field constraints.
// Returns an error wrapping ErrValidation on failure.
func (in *CreateInput) Validate() error {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	if err := validate.Struct(in); err != nil {
		return formatValidationErrors(err)
	}
	return nil
}

// UpdateInput is the client-supplied payload for a partial update.
// Nil fields are left unchanged. Present fields are validated
// individually; a present-but-empty title or description is rejected.
type UpdateInput struct {
	Title       *string `json:"title" validate:"omitempty,min=1,max=100"`
	Description *string `json:"description" validate:"omitempty,min=1,max=500"`
	Status      *Status `json:"status" validate:"omitempty,oneof=pending completed"`
}

// Validate trims whitespace on present fields and checks constraints.
// Returns an error wrapping ErrValidation on failure.
func (in *UpdateInput) Validate() error {
	if in.Title != nil {
		trimmed := strings.TrimSpace(*in.Title)
		in.Title = &trimmed
	}
	if in.Description != nil {
		trimmed := strings.TrimSpace(*in.Description)
		in.Description = &trimmed
	}
	if err := validate.Struct(in); err != nil {
		return formatValidationErrors(err)
	}
	return nil
}

// Patch converts a validated UpdateInput into a store patch.
func (in *UpdateInput) Patch() Patch {
	return Patch{
		Title:       in.Title,
		Description: in.Description,
		Status:      in.Status,
	}
}

// formatValidationErrors converts validator.ValidationErrors to a single
// user-facing error wrapping ErrValidation.
func formatValidationErrors(err error) error {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		messages := make([]string, 0, len(validationErrors))
		for _, e := range validationErrors {
			messages = append(messages, formatSingleValidationError(e))
		}
		return fmt.Errorf("%w: %s", ErrValidation, strings.Join(messages, "; "))
	}
	return fmt.Errorf("%w: %v", ErrValidation, err)
}

// formatSingleValidationError creates a user-friendly message for one field error.
func formatSingleValidationError(e validator.FieldError) string {
	field := strings.ToLower(e.Field())

	switch e.Tag() {
	case "required", "min":
		return fmt.Sprintf("%s cannot be empty", field)
	case "max":
		return fmt.Sprintf("%s cannot exceed %s characters", field, e.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, e.Param())
	default:
		return fmt.Sprintf("%s failed validation: %s", field, e.Tag())
	}
}
