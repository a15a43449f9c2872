package model

import "time"

// AudioAsset is the synthesized speech stored for a draft
type AudioAsset struct {
	StorageID       string  `json:"storageId"`
	URL             string  `json:"url"`
	DurationSeconds float64 `json:"durationSeconds"`
}

// ImageAsset is the thumbnail stored for a draft
type ImageAsset struct {
	StorageID string `json:"storageId"`
	URL       string `json:"url"`
}

// DraftSnapshot is a point-in-time copy of a draft's fields
type DraftSnapshot struct {
	ID              string          `json:"id"`
	OwnerID         string          `json:"-"`
	Title           string          `json:"title"`
	Description     string          `json:"description"`
	VoiceType       VoiceType       `json:"voiceType,omitempty"`
	Audio           *AudioAsset     `json:"audio,omitempty"`
	Image           *ImageAsset     `json:"image,omitempty"`
	VoicePrompt     string          `json:"voicePrompt"`
	ImagePrompt     string          `json:"imagePrompt"`
	SubmissionState SubmissionState `json:"submissionState"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// DraftUpdateRequest carries the fields a client wants to set; nil fields are left alone
type DraftUpdateRequest struct {
	Title       *string    `json:"title" validate:"omitempty,max=200"`
	Description *string    `json:"description" validate:"omitempty,max=2000"`
	VoiceType   *VoiceType `json:"voiceType" validate:"omitempty,oneof=alloy shimmer nova echo fable onyx"`
	VoicePrompt *string    `json:"voicePrompt" validate:"omitempty,max=4096"`
	ImagePrompt *string    `json:"imagePrompt" validate:"omitempty,max=1000"`
}

// EpisodeForm holds the text fields checked before submission
type EpisodeForm struct {
	Title       string `json:"title" validate:"min=2"`
	Description string `json:"description" validate:"min=2"`
}

// VoiceOption describes one selectable voice
type VoiceOption struct {
	Voice      VoiceType `json:"voice"`
	PreviewURL string    `json:"previewUrl"`
}
