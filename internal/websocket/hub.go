package websocket

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/podcastr/api/internal/model"
)

// Client represents a WebSocket client watching one draft
type Client struct {
	DraftID string
	Conn    *websocket.Conn
	Send    chan []byte

	// pong is owned by the connection, unlike Send which the hub may close
	pong chan struct{}
}

// Hub fans messages out to the connections of each draft.
// It is the notification sink and the navigator of the creation flow.
type Hub struct {
	// Clients grouped by draft ID
	clients map[string]map[*Client]bool

	register   chan *Client
	unregister chan *Client
	broadcast  chan *BroadcastMessage

	mu sync.RWMutex
}

// BroadcastMessage represents a message to broadcast
type BroadcastMessage struct {
	DraftID string
	Message []byte
}

// NewHub creates a new Hub
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *BroadcastMessage, 256),
	}
}

// Run starts the hub's main loop
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			if h.clients[client.DraftID] == nil {
				h.clients[client.DraftID] = make(map[*Client]bool)
			}
			h.clients[client.DraftID][client] = true
			h.mu.Unlock()
			log.Printf("[WS] Client registered for draft %s", client.DraftID)

		case client := <-h.unregister:
			h.mu.Lock()
			h.remove(client)
			h.mu.Unlock()
			log.Printf("[WS] Client unregistered from draft %s", client.DraftID)

		case msg := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients[msg.DraftID] {
				select {
				case client.Send <- msg.Message:
				default:
					// slow consumer
					h.remove(client)
				}
			}
			h.mu.Unlock()
		}
	}
}

// remove must be called with mu held.
func (h *Hub) remove(client *Client) {
	clients, ok := h.clients[client.DraftID]
	if !ok {
		return
	}
	if _, ok := clients[client]; !ok {
		return
	}
	delete(clients, client)
	close(client.Send)
	if len(clients) == 0 {
		delete(h.clients, client.DraftID)
	}
}

// Register adds a new client
func (h *Hub) Register(client *Client) {
	h.register <- client
}

// Unregister removes a client
func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// Subscribers returns the number of open connections for a draft
func (h *Hub) Subscribers(draftID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[draftID])
}

// Notify sends a toast to the draft's connections
func (h *Hub) Notify(draftID string, n model.Notification) {
	severity := n.Severity
	if severity == "" {
		severity = model.SeverityDefault
	}
	h.send(draftID, model.WSToastMessage{
		Type:     model.WSMessageTypeToast,
		DraftID:  draftID,
		Title:    n.Title,
		Severity: severity,
	})
}

// Navigate tells the draft's connections to move to another route
func (h *Hub) Navigate(draftID, to string) {
	h.send(draftID, model.WSNavigateMessage{
		Type:    model.WSMessageTypeNavigate,
		DraftID: draftID,
		To:      to,
	})
}

// BroadcastProgress sends a generation progress update
func (h *Hub) BroadcastProgress(draftID, jobID string, progress int, status model.JobStatus, step string) {
	h.send(draftID, model.WSProgressMessage{
		Type:        model.WSMessageTypeProgress,
		DraftID:     draftID,
		JobID:       jobID,
		Progress:    progress,
		Status:      status,
		CurrentStep: step,
	})
}

// BroadcastComplete sends a generation completion message
func (h *Hub) BroadcastComplete(draftID, jobID string, result interface{}) {
	h.send(draftID, model.WSCompleteMessage{
		Type:    model.WSMessageTypeComplete,
		DraftID: draftID,
		JobID:   jobID,
		Result:  result,
	})
}

// BroadcastError sends a generation error message
func (h *Hub) BroadcastError(draftID, jobID, code, message string) {
	h.send(draftID, model.WSErrorMessage{
		Type:    model.WSMessageTypeError,
		DraftID: draftID,
		JobID:   jobID,
		Error: model.WSError{
			Code:    code,
			Message: message,
		},
	})
}

func (h *Hub) send(draftID string, msg interface{}) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("[WS] Failed to marshal message: %v", err)
		return
	}

	h.broadcast <- &BroadcastMessage{
		DraftID: draftID,
		Message: data,
	}
}

// HandleConnection serves one WebSocket connection for a draft
func (h *Hub) HandleConnection(c *websocket.Conn, draftID string) {
	client := &Client{
		DraftID: draftID,
		Conn:    c,
		Send:    make(chan []byte, 256),
		pong:    make(chan struct{}, 1),
	}

	h.Register(client)
	defer h.Unregister(client)

	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()

		for {
			select {
			case message, ok := <-client.Send:
				if !ok {
					c.WriteMessage(websocket.CloseMessage, []byte{})
					return
				}
				if err := c.WriteMessage(websocket.TextMessage, message); err != nil {
					return
				}

			case <-client.pong:
				data, _ := json.Marshal(model.WSMessage{Type: model.WSMessageTypePong})
				if err := c.WriteMessage(websocket.TextMessage, data); err != nil {
					return
				}

			case <-ticker.C:
				if err := c.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			}
		}
	}()

	for {
		_, message, err := c.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("[WS] Read error on draft %s: %v", draftID, err)
			}
			break
		}

		var msg model.WSMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			continue
		}

		if msg.Type == model.WSMessageTypePing {
			select {
			case client.pong <- struct{}{}:
			default:
			}
		}
	}
}
