package handler

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/podcastr/api/internal/draft"
	"github.com/podcastr/api/internal/middleware"
	"github.com/podcastr/api/internal/model"
	"github.com/podcastr/api/internal/service"
	"github.com/podcastr/api/pkg/response"
)

type GenerationHandler struct {
	service   *service.GenerationService
	drafts    *draft.Manager
	validator *validator.Validate
}

func NewGenerationHandler(svc *service.GenerationService, drafts *draft.Manager, v *validator.Validate) *GenerationHandler {
	return &GenerationHandler{
		service:   svc,
		drafts:    drafts,
		validator: v,
	}
}

// Audio handles POST /api/drafts/:draftId/audio
func (h *GenerationHandler) Audio(c *fiber.Ctx) error {
	d, err := ownedDraft(c, h.drafts)
	if err != nil {
		return writeError(c, err)
	}

	var req model.GenerateAudioRequest
	if err := c.BodyParser(&req); err != nil {
		return response.ValidationError(c, "Invalid request body", nil)
	}
	if err := h.validator.Struct(&req); err != nil {
		return response.ValidationError(c, "Validation failed", formatValidationErrors(err))
	}

	result, err := h.service.StartAudio(c.UserContext(), d, &req)
	if err != nil {
		return writeError(c, err)
	}
	return response.Accepted(c, result)
}

// Image handles POST /api/drafts/:draftId/image
func (h *GenerationHandler) Image(c *fiber.Ctx) error {
	d, err := ownedDraft(c, h.drafts)
	if err != nil {
		return writeError(c, err)
	}

	var req model.GenerateImageRequest
	if err := c.BodyParser(&req); err != nil {
		return response.ValidationError(c, "Invalid request body", nil)
	}
	if err := h.validator.Struct(&req); err != nil {
		return response.ValidationError(c, "Validation failed", formatValidationErrors(err))
	}

	result, err := h.service.StartImage(c.UserContext(), d, &req)
	if err != nil {
		return writeError(c, err)
	}
	return response.Accepted(c, result)
}

// UploadImage handles POST /api/drafts/:draftId/image/upload
func (h *GenerationHandler) UploadImage(c *fiber.Ctx) error {
	d, err := ownedDraft(c, h.drafts)
	if err != nil {
		return writeError(c, err)
	}

	file, err := c.FormFile("file")
	if err != nil {
		return response.ValidationError(c, "File is required", nil)
	}

	if file.Size > service.MaxImageUploadSize {
		return response.ValidationError(c, "File size exceeds 10MB limit", map[string]interface{}{
			"maxSize":  service.MaxImageUploadSize,
			"fileSize": file.Size,
		})
	}

	f, err := file.Open()
	if err != nil {
		return response.ServiceError(c, "Failed to open file")
	}
	defer f.Close()

	result, err := h.service.UploadImage(c.UserContext(), d, file.Header.Get("Content-Type"), f)
	if err != nil {
		return writeError(c, err)
	}
	return response.Created(c, result)
}

// Job handles GET /api/jobs/:jobId
func (h *GenerationHandler) Job(c *fiber.Ctx) error {
	job, err := h.service.GetJob(c.UserContext(), c.Params("jobId"), middleware.GetUserID(c))
	if err != nil {
		return writeError(c, err)
	}
	return response.OK(c, job)
}
