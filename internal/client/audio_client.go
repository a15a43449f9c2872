package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/podcastr/api/internal/config"
)

// AudioClient talks to the audio processing microservice
type AudioClient struct {
	httpClient *http.Client
	baseURL    string
}

// ProbeRequest asks the service to inspect a stored file
type ProbeRequest struct {
	URL string `json:"url"`
}

// ProbeResponse describes the probed file
type ProbeResponse struct {
	Duration   float64 `json:"duration"`
	Format     string  `json:"format,omitempty"`
	SampleRate int     `json:"sample_rate,omitempty"`
}

// NewAudioClient creates a new audio processing client
func NewAudioClient(cfg *config.AudioConfig) *AudioClient {
	return &AudioClient{
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.Timeout) * time.Second,
		},
		baseURL: cfg.ServiceURL,
	}
}

// Probe returns the duration in seconds of the audio file at url
func (c *AudioClient) Probe(ctx context.Context, url string) (float64, error) {
	var result ProbeResponse
	if err := c.post(ctx, "/probe", &ProbeRequest{URL: url}, &result); err != nil {
		return 0, err
	}
	if result.Duration <= 0 {
		return 0, fmt.Errorf("audio service reported no duration")
	}
	return result.Duration, nil
}

// post sends a POST request with JSON body and parses the response
func (c *AudioClient) post(ctx context.Context, endpoint string, body interface{}, result interface{}) error {
	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("audio service error (status %d): %s", resp.StatusCode, string(respBody))
	}

	if err := json.Unmarshal(respBody, result); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}

	return nil
}

// IsConfigured returns true if the client has valid configuration
func (c *AudioClient) IsConfigured() bool {
	return c.baseURL != ""
}
