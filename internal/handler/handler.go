package handler

import (
	"errors"
	"log"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/podcastr/api/internal/apperr"
	"github.com/podcastr/api/internal/draft"
	"github.com/podcastr/api/internal/middleware"
	"github.com/podcastr/api/pkg/response"
)

// NewValidator returns a validator that reports fields by their JSON names.
func NewValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// formatValidationErrors formats validator errors for response
func formatValidationErrors(err error) interface{} {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		fields := make(map[string]string, len(validationErrors))
		for _, e := range validationErrors {
			fields[e.Field()] = e.Tag()
		}
		return fields
	}
	return nil
}

// writeError renders a service error by its kind
func writeError(c *fiber.Ctx, err error) error {
	var appErr *apperr.Error
	if !errors.As(err, &appErr) {
		log.Printf("[API] %s %s: %v", c.Method(), c.Path(), err)
		return response.ServiceError(c, "Internal server error")
	}

	switch appErr.Kind {
	case apperr.KindValidation:
		return response.ValidationError(c, appErr.Message, appErr.Details)
	case apperr.KindNotFound:
		return response.NotFound(c, appErr.Message)
	case apperr.KindConflict:
		return response.Conflict(c, appErr.Message)
	case apperr.KindGeneration:
		return response.GenerationError(c, appErr.Message)
	case apperr.KindPersistence:
		return response.PersistenceError(c, appErr.Message)
	default:
		log.Printf("[API] %s %s: %v", c.Method(), c.Path(), err)
		return response.ServiceError(c, appErr.Message)
	}
}

// ownedDraft resolves the :draftId param to a draft of the current user.
// Drafts of other users are reported as missing.
func ownedDraft(c *fiber.Ctx, drafts *draft.Manager) (*draft.Draft, error) {
	d, ok := drafts.Get(c.Params("draftId"))
	if !ok || d.OwnerID() != middleware.GetUserID(c) {
		return nil, apperr.NotFound("Draft not found")
	}
	return d, nil
}
