package handler

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/podcastr/api/internal/draft"
	"github.com/podcastr/api/internal/middleware"
	"github.com/podcastr/api/internal/model"
	"github.com/podcastr/api/pkg/response"
)

type DraftHandler struct {
	drafts    *draft.Manager
	validator *validator.Validate
}

func NewDraftHandler(drafts *draft.Manager, v *validator.Validate) *DraftHandler {
	return &DraftHandler{
		drafts:    drafts,
		validator: v,
	}
}

// Voices handles GET /api/voices
func (h *DraftHandler) Voices(c *fiber.Ctx) error {
	voices := make([]model.VoiceOption, 0, len(model.ValidVoices))
	for _, v := range model.ValidVoices {
		voices = append(voices, model.VoiceOption{Voice: v, PreviewURL: "/" + string(v) + ".mp3"})
	}
	return response.OK(c, fiber.Map{"voices": voices})
}

// Create handles POST /api/drafts
func (h *DraftHandler) Create(c *fiber.Ctx) error {
	d := h.drafts.Create(middleware.GetUserID(c))
	return response.Created(c, d.Snapshot())
}

// Get handles GET /api/drafts/:draftId
func (h *DraftHandler) Get(c *fiber.Ctx) error {
	d, err := ownedDraft(c, h.drafts)
	if err != nil {
		return writeError(c, err)
	}
	return response.OK(c, d.Snapshot())
}

// Update handles PATCH /api/drafts/:draftId
func (h *DraftHandler) Update(c *fiber.Ctx) error {
	d, err := ownedDraft(c, h.drafts)
	if err != nil {
		return writeError(c, err)
	}

	var req model.DraftUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return response.ValidationError(c, "Invalid request body", nil)
	}
	if err := h.validator.Struct(&req); err != nil {
		return response.ValidationError(c, "Validation failed", formatValidationErrors(err))
	}

	if req.Title != nil {
		d.SetTitle(*req.Title)
	}
	if req.Description != nil {
		d.SetDescription(*req.Description)
	}
	if req.VoiceType != nil {
		d.SetVoice(*req.VoiceType)
	}
	if req.VoicePrompt != nil {
		d.SetVoicePrompt(*req.VoicePrompt)
	}
	if req.ImagePrompt != nil {
		d.SetImagePrompt(*req.ImagePrompt)
	}

	return response.OK(c, d.Snapshot())
}

// Delete handles DELETE /api/drafts/:draftId
func (h *DraftHandler) Delete(c *fiber.Ctx) error {
	d, err := ownedDraft(c, h.drafts)
	if err != nil {
		return writeError(c, err)
	}
	h.drafts.Discard(d.ID())
	return response.NoContent(c)
}
