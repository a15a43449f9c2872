package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/podcastr/api/internal/draft"
	"github.com/podcastr/api/internal/service"
	"github.com/podcastr/api/pkg/response"
)

type SubmissionHandler struct {
	service *service.SubmissionService
	drafts  *draft.Manager
}

func NewSubmissionHandler(svc *service.SubmissionService, drafts *draft.Manager) *SubmissionHandler {
	return &SubmissionHandler{
		service: svc,
		drafts:  drafts,
	}
}

// Submit handles POST /api/drafts/:draftId/submit
func (h *SubmissionHandler) Submit(c *fiber.Ctx) error {
	d, err := ownedDraft(c, h.drafts)
	if err != nil {
		return writeError(c, err)
	}

	result, err := h.service.Submit(c.UserContext(), d)
	if err != nil {
		return writeError(c, err)
	}
	return response.Created(c, result)
}

// Podcast handles GET /api/podcasts/:podcastId
func (h *SubmissionHandler) Podcast(c *fiber.Ctx) error {
	episode, err := h.service.GetEpisode(c.UserContext(), c.Params("podcastId"))
	if err != nil {
		return writeError(c, err)
	}
	return response.OK(c, episode)
}
