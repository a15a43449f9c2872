package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/podcastr/api/internal/apperr"
	"github.com/podcastr/api/internal/client"
	"github.com/podcastr/api/internal/draft"
	"github.com/podcastr/api/internal/model"
)

const mockCDNBase = "https://cdn.podcastr.app"

// MaxImageUploadSize is the largest accepted thumbnail upload
const MaxImageUploadSize = 10 * 1024 * 1024

var uploadExtensions = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/webp": ".webp",
}

// TaskEnqueuer is satisfied by *asynq.Client
type TaskEnqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// GenerationService queues asset generation and applies finished assets to drafts
type GenerationService struct {
	jobs    JobStore
	queue   TaskEnqueuer
	drafts  *draft.Manager
	storage client.StorageClient
}

func NewGenerationService(jobs JobStore, queue TaskEnqueuer, drafts *draft.Manager, storage client.StorageClient) *GenerationService {
	return &GenerationService{
		jobs:    jobs,
		queue:   queue,
		drafts:  drafts,
		storage: storage,
	}
}

// MockAssetURL is the URL handed out for assets when no storage is configured
func MockAssetURL(key string) string {
	return fmt.Sprintf("%s/%s", mockCDNBase, key)
}

// StartAudio queues speech synthesis for d. The voice comes from the request
// or, when absent, from the draft's current selection.
func (s *GenerationService) StartAudio(ctx context.Context, d *draft.Draft, req *model.GenerateAudioRequest) (*model.GenerationStartResponse, error) {
	voice := req.VoiceType
	if voice == "" {
		voice = d.Voice()
	}
	if !voice.IsValid() {
		return nil, apperr.Validation("Voice type is required", map[string]string{"voiceType": "required"})
	}
	if strings.TrimSpace(req.Prompt) == "" {
		return nil, apperr.Validation("Prompt is required", map[string]string{"prompt": "required"})
	}

	jobID := uuid.New().String()
	ticket := d.BeginAudio()
	payload := &model.AudioJobPayload{
		JobID:     jobID,
		DraftID:   d.ID(),
		Ticket:    ticket,
		VoiceType: voice,
		Prompt:    req.Prompt,
	}

	return s.start(ctx, jobID, model.JobTypeAudio, d, ticket, TaskTypeAudio, QueueAudio, payload)
}

// StartImage queues thumbnail generation for d
func (s *GenerationService) StartImage(ctx context.Context, d *draft.Draft, req *model.GenerateImageRequest) (*model.GenerationStartResponse, error) {
	if strings.TrimSpace(req.Prompt) == "" {
		return nil, apperr.Validation("Prompt is required", map[string]string{"prompt": "required"})
	}

	jobID := uuid.New().String()
	ticket := d.BeginImage()
	payload := &model.ImageJobPayload{
		JobID:   jobID,
		DraftID: d.ID(),
		Ticket:  ticket,
		Prompt:  req.Prompt,
	}

	return s.start(ctx, jobID, model.JobTypeImage, d, ticket, TaskTypeImage, QueueImage, payload)
}

func (s *GenerationService) start(ctx context.Context, jobID, jobType string, d *draft.Draft, ticket uint64, taskType, queue string, payload interface{}) (*model.GenerationStartResponse, error) {
	now := time.Now()
	job := &model.Job{
		ID:        jobID,
		Type:      jobType,
		DraftID:   d.ID(),
		OwnerID:   d.OwnerID(),
		Ticket:    ticket,
		Status:    model.JobStatusQueued,
		CreatedAt: now,
	}

	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}

	if err := s.jobs.Save(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to save job: %w", err)
	}

	task, err := newGenerationTask(taskType, jobID, payloadBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	_, err = s.queue.EnqueueContext(ctx, task,
		asynq.Queue(queue),
		asynq.MaxRetry(3),
		asynq.Retention(24*time.Hour),
	)
	if err != nil {
		if failErr := s.FailJob(ctx, jobID, "Failed to queue generation"); failErr != nil {
			log.Printf("[Generation] Failed to mark job %s as failed: %v", jobID, failErr)
		}
		return nil, fmt.Errorf("failed to enqueue task: %w", err)
	}

	return &model.GenerationStartResponse{
		JobID:     jobID,
		DraftID:   d.ID(),
		Status:    model.JobStatusQueued,
		CreatedAt: now,
	}, nil
}

// UploadImage stores a user-supplied file as d's image asset
func (s *GenerationService) UploadImage(ctx context.Context, d *draft.Draft, contentType string, body io.Reader) (*model.ImageUploadResponse, error) {
	ext, ok := uploadExtensions[contentType]
	if !ok {
		return nil, apperr.Validation("Unsupported image type", map[string]string{"file": "must be png, jpeg or webp"})
	}

	key := fmt.Sprintf("images/%s/%s%s", d.ID(), uuid.New().String(), ext)

	url := MockAssetURL(key)
	if s.storage != nil {
		uploaded, err := s.storage.Upload(ctx, key, body, contentType)
		if err != nil {
			return nil, apperr.Generation("Failed to upload image", err)
		}
		url = uploaded
	}

	// The ticket is only taken once the file is stored, so a failed upload
	// leaves any in-flight generation in place.
	asset := model.ImageAsset{StorageID: key, URL: url}
	d.ReplaceImage(asset)

	return &model.ImageUploadResponse{
		DraftID: d.ID(),
		Image:   asset,
		Applied: true,
	}, nil
}

// GetJob returns a job owned by ownerID
func (s *GenerationService) GetJob(ctx context.Context, jobID, ownerID string) (*model.Job, error) {
	job, err := s.jobs.Get(ctx, jobID)
	if errors.Is(err, ErrJobNotFound) {
		return nil, apperr.NotFound("Job not found")
	}
	if err != nil {
		return nil, err
	}
	if job.OwnerID != ownerID {
		return nil, apperr.NotFound("Job not found")
	}
	return job, nil
}

// Job returns a job record regardless of owner (called by worker)
func (s *GenerationService) Job(ctx context.Context, jobID string) (*model.Job, error) {
	return s.jobs.Get(ctx, jobID)
}

// UpdateProgress records worker progress (called by worker)
func (s *GenerationService) UpdateProgress(ctx context.Context, jobID string, progress int, step string) error {
	job, err := s.jobs.Get(ctx, jobID)
	if err != nil {
		return err
	}

	job.Progress = progress
	job.CurrentStep = step

	if job.Status == model.JobStatusQueued {
		job.Status = model.JobStatusRunning
		now := time.Now()
		job.StartedAt = &now
	}

	return s.jobs.Save(ctx, job)
}

// CompleteAudio applies a synthesized asset to its draft and finishes the job.
// A superseded or orphaned result is recorded with Applied=false and its
// stored object is removed.
func (s *GenerationService) CompleteAudio(ctx context.Context, payload *model.AudioJobPayload, asset model.AudioAsset) (*model.AudioResult, error) {
	applied := false
	if d, ok := s.drafts.Get(payload.DraftID); ok {
		applied = d.ApplyAudio(payload.Ticket, asset, payload.Prompt)
	}
	if !applied {
		log.Printf("[Generation] Audio job %s superseded, discarding %s", payload.JobID, asset.StorageID)
		s.discardAsset(ctx, asset.StorageID)
	}

	result := &model.AudioResult{Asset: asset, Prompt: payload.Prompt, Applied: applied}
	return result, s.completeJob(ctx, payload.JobID, result)
}

// CompleteImage is CompleteAudio for the image slot
func (s *GenerationService) CompleteImage(ctx context.Context, payload *model.ImageJobPayload, asset model.ImageAsset) (*model.ImageResult, error) {
	applied := false
	if d, ok := s.drafts.Get(payload.DraftID); ok {
		applied = d.ApplyImage(payload.Ticket, asset, payload.Prompt)
	}
	if !applied {
		log.Printf("[Generation] Image job %s superseded, discarding %s", payload.JobID, asset.StorageID)
		s.discardAsset(ctx, asset.StorageID)
	}

	result := &model.ImageResult{Asset: asset, Prompt: payload.Prompt, Applied: applied}
	return result, s.completeJob(ctx, payload.JobID, result)
}

// FailJob marks job as failed (called by worker)
func (s *GenerationService) FailJob(ctx context.Context, jobID string, errMsg string) error {
	job, err := s.jobs.Get(ctx, jobID)
	if err != nil {
		return err
	}

	job.Status = model.JobStatusFailed
	job.Error = &errMsg
	now := time.Now()
	job.CompletedAt = &now

	return s.jobs.Save(ctx, job)
}

func (s *GenerationService) completeJob(ctx context.Context, jobID string, result interface{}) error {
	job, err := s.jobs.Get(ctx, jobID)
	if err != nil {
		return err
	}

	resultBytes, err := json.Marshal(result)
	if err != nil {
		return err
	}

	job.Status = model.JobStatusSucceeded
	job.Error = nil
	job.Progress = 100
	job.Result = resultBytes
	now := time.Now()
	job.CompletedAt = &now

	return s.jobs.Save(ctx, job)
}

func (s *GenerationService) discardAsset(ctx context.Context, key string) {
	if s.storage == nil || key == "" {
		return
	}
	if err := s.storage.Delete(ctx, key); err != nil {
		log.Printf("[Generation] Failed to delete superseded asset %s: %v", key, err)
	}
}
