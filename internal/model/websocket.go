package model

// WebSocket message types
const (
	WSMessageTypeProgress = "progress"
	WSMessageTypeComplete = "complete"
	WSMessageTypeError    = "error"
	WSMessageTypeToast    = "toast"
	WSMessageTypeNavigate = "navigate"
	WSMessageTypePing     = "ping"
	WSMessageTypePong     = "pong"
)

// WSMessage represents a generic WebSocket message
type WSMessage struct {
	Type string `json:"type"`
}

// WSProgressMessage represents a generation progress update
type WSProgressMessage struct {
	Type        string    `json:"type"`
	DraftID     string    `json:"draftId"`
	JobID       string    `json:"jobId"`
	Progress    int       `json:"progress"`
	Status      JobStatus `json:"status"`
	CurrentStep string    `json:"currentStep,omitempty"`
}

// WSCompleteMessage represents generation completion
type WSCompleteMessage struct {
	Type    string      `json:"type"`
	DraftID string      `json:"draftId"`
	JobID   string      `json:"jobId"`
	Result  interface{} `json:"result"`
}

// WSErrorMessage represents a generation error
type WSErrorMessage struct {
	Type    string  `json:"type"`
	DraftID string  `json:"draftId"`
	JobID   string  `json:"jobId"`
	Error   WSError `json:"error"`
}

// WSError represents error details
type WSError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// WSToastMessage is a user-facing notification
type WSToastMessage struct {
	Type     string   `json:"type"`
	DraftID  string   `json:"draftId"`
	Title    string   `json:"title"`
	Severity Severity `json:"severity"`
}

// WSNavigateMessage tells the client to leave the creation surface
type WSNavigateMessage struct {
	Type    string `json:"type"`
	DraftID string `json:"draftId"`
	To      string `json:"to"`
}

// Notification is the payload handed to a notification sink
type Notification struct {
	Title    string
	Severity Severity
}
