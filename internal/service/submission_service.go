package service

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/podcastr/api/internal/apperr"
	"github.com/podcastr/api/internal/draft"
	"github.com/podcastr/api/internal/model"
	"github.com/podcastr/api/internal/store"
)

const (
	MsgPodcastCreated = "Podcast created successfully"
	MsgSubmitFailed   = "Error submitting form"
	MsgSubmitInFlight = "Submission already in progress"
	HomeRoute         = "/"
)

// Notifier shows a transient message to the user of a draft
type Notifier interface {
	Notify(draftID string, n model.Notification)
}

// Navigator moves the user of a draft to another route
type Navigator interface {
	Navigate(draftID, to string)
}

// DraftDiscarder destroys a draft once it has been published
type DraftDiscarder interface {
	Discard(id string)
}

// SubmissionService turns a ready draft into a persisted episode
type SubmissionService struct {
	store     store.EpisodeStore
	notifier  Notifier
	navigator Navigator
	drafts    DraftDiscarder
	validate  *validator.Validate
}

func NewSubmissionService(episodes store.EpisodeStore, notifier Notifier, navigator Navigator, drafts DraftDiscarder, validate *validator.Validate) *SubmissionService {
	return &SubmissionService{
		store:     episodes,
		notifier:  notifier,
		navigator: navigator,
		drafts:    drafts,
		validate:  validate,
	}
}

// Submit runs validate, persist, notify, navigate for d.
//
// Only one submission per draft runs at a time; a second call while one is in
// flight fails with a conflict and touches nothing. On any failure the draft
// is returned to idle with its fields intact.
func (s *SubmissionService) Submit(ctx context.Context, d *draft.Draft) (*model.SubmitResponse, error) {
	if !d.BeginSubmit() {
		return nil, apperr.Conflict(MsgSubmitInFlight)
	}

	snap := d.Snapshot()

	if err := ValidateForm(s.validate, snap); err != nil {
		d.EndSubmit()
		return nil, err
	}

	if err := CheckReady(snap); err != nil {
		s.notifier.Notify(snap.ID, model.Notification{Title: MsgAssetsMissing, Severity: model.SeverityDestructive})
		d.EndSubmit()
		return nil, err
	}

	episode := NewEpisode(snap, time.Now())
	if err := s.store.CreateEpisode(ctx, episode); err != nil {
		log.Printf("[Submit] %s: draft=%s: %v", MsgSubmitFailed, snap.ID, err)
		s.notifier.Notify(snap.ID, model.Notification{Title: MsgSubmitFailed, Severity: model.SeverityDestructive})
		d.EndSubmit()
		return nil, apperr.Persistence(MsgSubmitFailed, err)
	}

	log.Printf("[Submit] Published episode %s from draft %s", episode.ID, snap.ID)
	s.notifier.Notify(snap.ID, model.Notification{Title: MsgPodcastCreated, Severity: model.SeverityDefault})
	s.navigator.Navigate(snap.ID, HomeRoute)
	s.drafts.Discard(snap.ID)

	return &model.SubmitResponse{
		PodcastID: episode.ID,
		Message:   MsgPodcastCreated,
		Redirect:  HomeRoute,
	}, nil
}

// GetEpisode reads back a published episode
func (s *SubmissionService) GetEpisode(ctx context.Context, id string) (*model.Episode, error) {
	episode, err := s.store.GetEpisode(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.NotFound("Podcast not found")
	}
	if err != nil {
		return nil, apperr.Persistence("Failed to load podcast", err)
	}
	return episode, nil
}

// NewEpisode builds the record persisted for a ready draft
func NewEpisode(snap model.DraftSnapshot, now time.Time) *model.Episode {
	return &model.Episode{
		ID:             uuid.New().String(),
		AuthorID:       snap.OwnerID,
		Title:          snap.Title,
		Description:    snap.Description,
		AudioStorageID: snap.Audio.StorageID,
		AudioURL:       snap.Audio.URL,
		ImageStorageID: snap.Image.StorageID,
		ImageURL:       snap.Image.URL,
		VoiceType:      snap.VoiceType,
		VoicePrompt:    snap.VoicePrompt,
		ImagePrompt:    snap.ImagePrompt,
		AudioDuration:  snap.Audio.DurationSeconds,
		Views:          0,
		CreatedAt:      now.UTC(),
	}
}
