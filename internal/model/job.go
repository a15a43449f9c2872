package model

import (
	"encoding/json"
	"time"
)

// Job represents a background generation job
type Job struct {
	ID          string          `json:"id"`
	Type        string          `json:"type"` // "audio" or "image"
	DraftID     string          `json:"draftId"`
	OwnerID     string          `json:"-"`
	Ticket      uint64          `json:"ticket"`
	Status      JobStatus       `json:"status"`
	Progress    int             `json:"progress"`
	CurrentStep string          `json:"currentStep,omitempty"`
	Error       *string         `json:"error,omitempty"`
	Result      json.RawMessage `json:"result,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
	StartedAt   *time.Time      `json:"startedAt,omitempty"`
	CompletedAt *time.Time      `json:"completedAt,omitempty"`
}

// storedJob keeps the owner on the wire to Redis, which Job hides from API responses
type storedJob struct {
	Job
	OwnerID string `json:"ownerId"`
}

// MarshalStored encodes the job including fields hidden from clients.
func (j *Job) MarshalStored() ([]byte, error) {
	return json.Marshal(storedJob{Job: *j, OwnerID: j.OwnerID})
}

// UnmarshalStoredJob decodes a job written by MarshalStored.
func UnmarshalStoredJob(data []byte) (*Job, error) {
	var s storedJob
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	job := s.Job
	job.OwnerID = s.OwnerID
	return &job, nil
}

// Job types
const (
	JobTypeAudio = "audio"
	JobTypeImage = "image"
)

// AudioJobPayload contains the data for an audio job
type AudioJobPayload struct {
	JobID     string    `json:"jobId"`
	DraftID   string    `json:"draftId"`
	Ticket    uint64    `json:"ticket"`
	VoiceType VoiceType `json:"voiceType"`
	Prompt    string    `json:"prompt"`
}

// ImageJobPayload contains the data for an image job
type ImageJobPayload struct {
	JobID   string `json:"jobId"`
	DraftID string `json:"draftId"`
	Ticket  uint64 `json:"ticket"`
	Prompt  string `json:"prompt"`
}
