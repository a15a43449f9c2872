package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/podcastr/api/internal/client"
	"github.com/podcastr/api/internal/model"
	"github.com/podcastr/api/internal/service"
)

const (
	// mp3 bitrate assumed when no probe is available
	estimateBitrate = 128000

	ErrCodeGenerationFailed = "GENERATION_FAILED"
)

// Broadcaster pushes job events to the draft's channel
type Broadcaster interface {
	BroadcastProgress(draftID, jobID string, progress int, status model.JobStatus, step string)
	BroadcastComplete(draftID, jobID string, result interface{})
	BroadcastError(draftID, jobID, code, message string)
}

type SpeechSynthesizer interface {
	Synthesize(ctx context.Context, voice, prompt string) ([]byte, error)
	IsConfigured() bool
}

type ImageGenerator interface {
	Generate(ctx context.Context, prompt string) ([]byte, error)
	IsConfigured() bool
}

type DurationProber interface {
	Probe(ctx context.Context, url string) (float64, error)
	IsConfigured() bool
}

// GenerationWorker processes audio and image generation jobs
type GenerationWorker struct {
	generation *service.GenerationService
	speech     SpeechSynthesizer
	images     ImageGenerator
	prober     DurationProber
	storage    client.StorageClient
	hub        Broadcaster

	// pause between simulated steps when running without an API key
	mockStepDelay time.Duration
}

// NewGenerationWorker creates a new generation worker
func NewGenerationWorker(generation *service.GenerationService, speech SpeechSynthesizer, images ImageGenerator, prober DurationProber, storage client.StorageClient, hub Broadcaster) *GenerationWorker {
	return &GenerationWorker{
		generation:    generation,
		speech:        speech,
		images:        images,
		prober:        prober,
		storage:       storage,
		hub:           hub,
		mockStepDelay: 500 * time.Millisecond,
	}
}

// ProcessAudioTask handles podcast:audio tasks
func (w *GenerationWorker) ProcessAudioTask(ctx context.Context, t *asynq.Task) error {
	jobID, raw, err := decodeEnvelope(t)
	if err != nil {
		return err
	}

	var payload model.AudioJobPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		w.failJob(ctx, "", jobID, "Invalid payload")
		return fmt.Errorf("failed to unmarshal audio payload: %v: %w", err, asynq.SkipRetry)
	}
	if w.finished(ctx, jobID) {
		return nil
	}
	log.Printf("[Worker] Starting audio job %s for draft %s", jobID, payload.DraftID)

	var asset model.AudioAsset
	if w.speech == nil || !w.speech.IsConfigured() {
		asset, err = w.mockAudio(ctx, &payload)
	} else {
		asset, err = w.synthesize(ctx, &payload)
	}
	if err != nil {
		return err
	}

	result, err := w.generation.CompleteAudio(ctx, &payload, asset)
	if err != nil {
		w.failJob(ctx, payload.DraftID, jobID, "Failed to save result")
		return fmt.Errorf("failed to save result: %v: %w", err, asynq.SkipRetry)
	}

	w.hub.BroadcastComplete(payload.DraftID, jobID, result)
	log.Printf("[Worker] Audio job %s completed (applied=%v)", jobID, result.Applied)
	return nil
}

// ProcessImageTask handles podcast:image tasks
func (w *GenerationWorker) ProcessImageTask(ctx context.Context, t *asynq.Task) error {
	jobID, raw, err := decodeEnvelope(t)
	if err != nil {
		return err
	}

	var payload model.ImageJobPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		w.failJob(ctx, "", jobID, "Invalid payload")
		return fmt.Errorf("failed to unmarshal image payload: %v: %w", err, asynq.SkipRetry)
	}
	if w.finished(ctx, jobID) {
		return nil
	}
	log.Printf("[Worker] Starting image job %s for draft %s", jobID, payload.DraftID)

	var asset model.ImageAsset
	if w.images == nil || !w.images.IsConfigured() {
		asset, err = w.mockImage(ctx, &payload)
	} else {
		asset, err = w.generateImage(ctx, &payload)
	}
	if err != nil {
		return err
	}

	result, err := w.generation.CompleteImage(ctx, &payload, asset)
	if err != nil {
		w.failJob(ctx, payload.DraftID, jobID, "Failed to save result")
		return fmt.Errorf("failed to save result: %v: %w", err, asynq.SkipRetry)
	}

	w.hub.BroadcastComplete(payload.DraftID, jobID, result)
	log.Printf("[Worker] Image job %s completed (applied=%v)", jobID, result.Applied)
	return nil
}

func (w *GenerationWorker) synthesize(ctx context.Context, p *model.AudioJobPayload) (model.AudioAsset, error) {
	w.updateProgress(ctx, p.DraftID, p.JobID, 10, "Synthesizing speech...")
	audio, err := w.speech.Synthesize(ctx, string(p.VoiceType), p.Prompt)
	if err != nil {
		w.failJob(ctx, p.DraftID, p.JobID, fmt.Sprintf("Speech synthesis failed: %v", err))
		return model.AudioAsset{}, fmt.Errorf("speech synthesis failed: %v: %w", err, asynq.SkipRetry)
	}

	w.updateProgress(ctx, p.DraftID, p.JobID, 70, "Uploading audio...")
	key := fmt.Sprintf("audio/%s/%s.mp3", p.DraftID, uuid.New().String())
	url, err := w.upload(ctx, key, audio, "audio/mpeg")
	if err != nil {
		w.failJob(ctx, p.DraftID, p.JobID, fmt.Sprintf("Audio upload failed: %v", err))
		return model.AudioAsset{}, fmt.Errorf("audio upload failed: %v: %w", err, asynq.SkipRetry)
	}

	w.updateProgress(ctx, p.DraftID, p.JobID, 90, "Measuring duration...")
	duration := w.duration(ctx, url, len(audio))

	return model.AudioAsset{StorageID: key, URL: url, DurationSeconds: duration}, nil
}

func (w *GenerationWorker) generateImage(ctx context.Context, p *model.ImageJobPayload) (model.ImageAsset, error) {
	w.updateProgress(ctx, p.DraftID, p.JobID, 10, "Generating image...")
	image, err := w.images.Generate(ctx, p.Prompt)
	if err != nil {
		w.failJob(ctx, p.DraftID, p.JobID, fmt.Sprintf("Image generation failed: %v", err))
		return model.ImageAsset{}, fmt.Errorf("image generation failed: %v: %w", err, asynq.SkipRetry)
	}

	w.updateProgress(ctx, p.DraftID, p.JobID, 80, "Uploading image...")
	key := fmt.Sprintf("images/%s/%s.png", p.DraftID, uuid.New().String())
	url, err := w.upload(ctx, key, image, "image/png")
	if err != nil {
		w.failJob(ctx, p.DraftID, p.JobID, fmt.Sprintf("Image upload failed: %v", err))
		return model.ImageAsset{}, fmt.Errorf("image upload failed: %v: %w", err, asynq.SkipRetry)
	}

	return model.ImageAsset{StorageID: key, URL: url}, nil
}

// mockAudio simulates synthesis for development without an API key
func (w *GenerationWorker) mockAudio(ctx context.Context, p *model.AudioJobPayload) (model.AudioAsset, error) {
	steps := []mockStep{
		{20, "Synthesizing speech..."},
		{60, "Encoding mp3..."},
		{90, "Uploading audio..."},
	}
	if err := w.runMockSteps(ctx, p.DraftID, p.JobID, steps); err != nil {
		return model.AudioAsset{}, err
	}

	key := fmt.Sprintf("audio/%s/%s.mp3", p.DraftID, uuid.New().String())
	words := len(strings.Fields(p.Prompt))
	return model.AudioAsset{
		StorageID:       key,
		URL:             service.MockAssetURL(key),
		DurationSeconds: math.Max(1, roundSeconds(float64(words)/2.5)),
	}, nil
}

// mockImage simulates thumbnail generation for development without an API key
func (w *GenerationWorker) mockImage(ctx context.Context, p *model.ImageJobPayload) (model.ImageAsset, error) {
	steps := []mockStep{
		{30, "Generating image..."},
		{90, "Uploading image..."},
	}
	if err := w.runMockSteps(ctx, p.DraftID, p.JobID, steps); err != nil {
		return model.ImageAsset{}, err
	}

	key := fmt.Sprintf("images/%s/%s.png", p.DraftID, uuid.New().String())
	return model.ImageAsset{StorageID: key, URL: service.MockAssetURL(key)}, nil
}

type mockStep struct {
	progress int
	step     string
}

func (w *GenerationWorker) runMockSteps(ctx context.Context, draftID, jobID string, steps []mockStep) error {
	for _, step := range steps {
		select {
		case <-ctx.Done():
			log.Printf("[Worker] Job %s cancelled", jobID)
			return ctx.Err()
		default:
		}

		w.updateProgress(ctx, draftID, jobID, step.progress, step.step)
		if w.mockStepDelay > 0 {
			time.Sleep(w.mockStepDelay)
		}
	}
	return nil
}

func (w *GenerationWorker) upload(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	if w.storage == nil {
		return service.MockAssetURL(key), nil
	}
	return w.storage.Upload(ctx, key, bytes.NewReader(data), contentType)
}

// duration asks the audio service when available and falls back to a
// bitrate estimate from the encoded size.
func (w *GenerationWorker) duration(ctx context.Context, url string, size int) float64 {
	if w.prober != nil && w.prober.IsConfigured() {
		d, err := w.prober.Probe(ctx, url)
		if err == nil {
			return d
		}
		log.Printf("[Worker] Probe failed for %s, estimating duration: %v", url, err)
	}
	return estimateDuration(size)
}

func estimateDuration(size int) float64 {
	return roundSeconds(float64(size*8) / estimateBitrate)
}

func roundSeconds(s float64) float64 {
	return math.Round(s*100) / 100
}

func (w *GenerationWorker) updateProgress(ctx context.Context, draftID, jobID string, progress int, step string) {
	if err := w.generation.UpdateProgress(ctx, jobID, progress, step); err != nil {
		log.Printf("[Worker] Failed to update progress: %v", err)
	}
	w.hub.BroadcastProgress(draftID, jobID, progress, model.JobStatusRunning, step)
}

func (w *GenerationWorker) failJob(ctx context.Context, draftID, jobID, errMsg string) {
	if err := w.generation.FailJob(ctx, jobID, errMsg); err != nil {
		log.Printf("[Worker] Failed to mark job as failed: %v", err)
	}
	if draftID != "" {
		w.hub.BroadcastError(draftID, jobID, ErrCodeGenerationFailed, errMsg)
	}
}

// finished reports whether a redelivered task belongs to a job that already
// reached a terminal state. Failed jobs stay failed.
func (w *GenerationWorker) finished(ctx context.Context, jobID string) bool {
	job, err := w.generation.Job(ctx, jobID)
	if err != nil || !job.Status.IsTerminal() {
		return false
	}
	log.Printf("[Worker] Job %s already %s, skipping", jobID, job.Status)
	return true
}

func decodeEnvelope(t *asynq.Task) (string, json.RawMessage, error) {
	var env service.TaskEnvelope
	if err := json.Unmarshal(t.Payload(), &env); err != nil {
		return "", nil, fmt.Errorf("failed to unmarshal task payload: %v: %w", err, asynq.SkipRetry)
	}
	return env.JobID, env.Payload, nil
}
