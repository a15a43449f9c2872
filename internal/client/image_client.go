package client

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/podcastr/api/internal/config"
)

// ImageClient generates thumbnails through an OpenAI-compatible
// /images/generations endpoint
type ImageClient struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	model      string
	size       string
}

// ImageGenerationRequest is the body of /images/generations
type ImageGenerationRequest struct {
	Model          string `json:"model"`
	Prompt         string `json:"prompt"`
	N              int    `json:"n"`
	Size           string `json:"size,omitempty"`
	ResponseFormat string `json:"response_format"`
}

// ImageGenerationResponse is the reply of /images/generations
type ImageGenerationResponse struct {
	Created int64 `json:"created"`
	Data    []struct {
		B64JSON       string `json:"b64_json"`
		RevisedPrompt string `json:"revised_prompt,omitempty"`
	} `json:"data"`
}

// NewImageClient creates a new image generation client
func NewImageClient(cfg *config.OpenAIConfig) *ImageClient {
	timeout := time.Duration(cfg.Timeout) * time.Second
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &ImageClient{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		model:      cfg.ImageModel,
		size:       cfg.ImageSize,
	}
}

// Generate returns the decoded PNG bytes for prompt
func (c *ImageClient) Generate(ctx context.Context, prompt string) ([]byte, error) {
	bodyBytes, err := json.Marshal(ImageGenerationRequest{
		Model:          c.model,
		Prompt:         prompt,
		N:              1,
		Size:           c.size,
		ResponseFormat: "b64_json",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/images/generations", bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	log.Printf("[Image API] POST %s/images/generations model=%s", c.baseURL, c.model)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("image API error (status %d): %s", resp.StatusCode, string(respBody))
	}

	var genResp ImageGenerationResponse
	if err := json.Unmarshal(respBody, &genResp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if len(genResp.Data) == 0 || genResp.Data[0].B64JSON == "" {
		return nil, fmt.Errorf("no image in response")
	}

	image, err := base64.StdEncoding.DecodeString(genResp.Data[0].B64JSON)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return image, nil
}

// IsConfigured returns true if the client has valid configuration
func (c *ImageClient) IsConfigured() bool {
	return c.apiKey != ""
}
