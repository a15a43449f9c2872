package model

import "time"

// GenerateAudioRequest represents the request to synthesize the episode audio
type GenerateAudioRequest struct {
	VoiceType VoiceType `json:"voiceType" validate:"omitempty,oneof=alloy shimmer nova echo fable onyx"`
	Prompt    string    `json:"prompt" validate:"required,min=1,max=4096"`
}

// GenerateImageRequest represents the request to generate the episode thumbnail
type GenerateImageRequest struct {
	Prompt string `json:"prompt" validate:"required,min=1,max=1000"`
}

// GenerationStartResponse is returned when a generation job is queued
type GenerationStartResponse struct {
	JobID     string    `json:"jobId"`
	DraftID   string    `json:"draftId"`
	Status    JobStatus `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}

// ImageUploadResponse is returned when an uploaded file becomes the image asset
type ImageUploadResponse struct {
	DraftID string     `json:"draftId"`
	Image   ImageAsset `json:"image"`
	Applied bool       `json:"applied"`
}

// AudioResult is the terminal value of an audio job
type AudioResult struct {
	Asset   AudioAsset `json:"asset"`
	Prompt  string     `json:"prompt"`
	Applied bool       `json:"applied"`
}

// ImageResult is the terminal value of an image job
type ImageResult struct {
	Asset   ImageAsset `json:"asset"`
	Prompt  string     `json:"prompt"`
	Applied bool       `json:"applied"`
}
