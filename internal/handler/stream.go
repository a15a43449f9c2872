package handler

import (
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/podcastr/api/internal/auth"
	"github.com/podcastr/api/internal/draft"
	"github.com/podcastr/api/internal/middleware"
	ws "github.com/podcastr/api/internal/websocket"
	"github.com/podcastr/api/pkg/response"
)

// StreamHandler serves the per-draft WebSocket channel
type StreamHandler struct {
	hub      *ws.Hub
	drafts   *draft.Manager
	verifier auth.TokenVerifier
	gateway  bool
}

func NewStreamHandler(hub *ws.Hub, drafts *draft.Manager, verifier auth.TokenVerifier, gateway bool) *StreamHandler {
	return &StreamHandler{
		hub:      hub,
		drafts:   drafts,
		verifier: verifier,
		gateway:  gateway,
	}
}

// Upgrade authenticates the connection and checks draft ownership before
// the protocol switch. Browsers cannot set headers on a WebSocket handshake,
// so outside gateway mode the token comes from the ?token= query parameter.
func (h *StreamHandler) Upgrade(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}

	var userID string
	if h.gateway {
		userID = c.Get(middleware.HeaderUserID)
	} else if token := c.Query("token"); token != "" {
		if id, err := h.verifier.Validate(token); err == nil {
			userID = id.UserID
		}
	}
	if userID == "" {
		return response.Unauthorized(c, "Invalid or missing token")
	}

	d, ok := h.drafts.Get(c.Params("draftId"))
	if !ok || d.OwnerID() != userID {
		return response.NotFound(c, "Draft not found")
	}
	return c.Next()
}

// Stream handles WS /ws/drafts/:draftId
func (h *StreamHandler) Stream() fiber.Handler {
	return websocket.New(func(c *websocket.Conn) {
		h.hub.HandleConnection(c, c.Params("draftId"))
	})
}
