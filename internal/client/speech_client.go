package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/podcastr/api/internal/config"
)

// SpeechClient turns a script into spoken audio through an
// OpenAI-compatible /audio/speech endpoint
type SpeechClient struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	model      string
}

// SpeechRequest is the body of /audio/speech
type SpeechRequest struct {
	Model          string `json:"model"`
	Input          string `json:"input"`
	Voice          string `json:"voice"`
	ResponseFormat string `json:"response_format"`
}

// NewSpeechClient creates a new speech synthesis client
func NewSpeechClient(cfg *config.OpenAIConfig) *SpeechClient {
	timeout := time.Duration(cfg.Timeout) * time.Second
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &SpeechClient{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		model:      cfg.SpeechModel,
	}
}

// Synthesize returns mp3 bytes of prompt read in the given voice
func (c *SpeechClient) Synthesize(ctx context.Context, voice, prompt string) ([]byte, error) {
	bodyBytes, err := json.Marshal(SpeechRequest{
		Model:          c.model,
		Input:          prompt,
		Voice:          voice,
		ResponseFormat: "mp3",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/audio/speech", bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	log.Printf("[Speech API] POST %s/audio/speech voice=%s chars=%d", c.baseURL, voice, len(prompt))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("speech API error (status %d): %s", resp.StatusCode, string(audio))
	}
	if len(audio) == 0 {
		return nil, fmt.Errorf("speech API returned empty audio")
	}

	return audio, nil
}

// IsConfigured returns true if the client has valid configuration
func (c *SpeechClient) IsConfigured() bool {
	return c.apiKey != ""
}
