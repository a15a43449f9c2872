package draft

import (
	"sync"
	"time"

	"github.com/podcastr/api/internal/model"
)

// Draft holds the in-progress episode for one creation session.
//
// Every setter writes exactly its own field. The audio and image slots are
// written only through ApplyAudio/ApplyImage, which discard results carrying
// a ticket older than the newest one issued for that slot.
type Draft struct {
	mu sync.Mutex

	id        string
	ownerID   string
	createdAt time.Time
	touchedAt time.Time

	title       string
	description string
	voice       model.VoiceType
	voicePrompt string
	imagePrompt string
	audio       *model.AudioAsset
	image       *model.ImageAsset
	state       model.SubmissionState

	audioTicket uint64
	imageTicket uint64
}

func newDraft(id, ownerID string, now time.Time) *Draft {
	return &Draft{
		id:        id,
		ownerID:   ownerID,
		createdAt: now,
		touchedAt: now,
		state:     model.SubmissionIdle,
	}
}

func (d *Draft) ID() string      { return d.id }
func (d *Draft) OwnerID() string { return d.ownerID }

func (d *Draft) SetTitle(title string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.title = title
	d.touch()
}

func (d *Draft) SetDescription(description string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.description = description
	d.touch()
}

func (d *Draft) SetVoice(voice model.VoiceType) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.voice = voice
	d.touch()
}

func (d *Draft) SetVoicePrompt(prompt string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.voicePrompt = prompt
	d.touch()
}

func (d *Draft) SetImagePrompt(prompt string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.imagePrompt = prompt
	d.touch()
}

// Voice returns the current voice selection, empty when unset.
func (d *Draft) Voice() model.VoiceType {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.voice
}

// BeginAudio issues the ticket for a new audio generation request.
func (d *Draft) BeginAudio() uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.audioTicket++
	d.touch()
	return d.audioTicket
}

// BeginImage issues the ticket for a new image generation or upload.
func (d *Draft) BeginImage() uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.imageTicket++
	d.touch()
	return d.imageTicket
}

// ApplyAudio stores the audio asset and the prompt that produced it.
// It reports false, leaving the draft untouched, when a newer audio request
// has been issued since ticket.
func (d *Draft) ApplyAudio(ticket uint64, asset model.AudioAsset, prompt string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if ticket != d.audioTicket {
		return false
	}
	d.audio = &asset
	d.voicePrompt = prompt
	d.touch()
	return true
}

// ApplyImage stores the image asset and its prompt. Same ticket rule as ApplyAudio.
func (d *Draft) ApplyImage(ticket uint64, asset model.ImageAsset, prompt string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if ticket != d.imageTicket {
		return false
	}
	d.image = &asset
	d.imagePrompt = prompt
	d.touch()
	return true
}

// ReplaceImage stores a user-supplied image and supersedes every image
// request issued before it. The image prompt is left as it is since no
// prompt produced the file.
func (d *Draft) ReplaceImage(asset model.ImageAsset) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.imageTicket++
	d.image = &asset
	d.touch()
}

// BeginSubmit moves Idle to Submitting. It returns false if a submission is
// already in flight.
func (d *Draft) BeginSubmit() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.state == model.SubmissionSubmitting {
		return false
	}
	d.state = model.SubmissionSubmitting
	return true
}

// EndSubmit returns the draft to Idle.
func (d *Draft) EndSubmit() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.state = model.SubmissionIdle
}

// Snapshot copies the draft. Asset pointers in the result are fresh copies.
func (d *Draft) Snapshot() model.DraftSnapshot {
	d.mu.Lock()
	defer d.mu.Unlock()

	snap := model.DraftSnapshot{
		ID:              d.id,
		OwnerID:         d.ownerID,
		Title:           d.title,
		Description:     d.description,
		VoiceType:       d.voice,
		VoicePrompt:     d.voicePrompt,
		ImagePrompt:     d.imagePrompt,
		SubmissionState: d.state,
		CreatedAt:       d.createdAt,
		UpdatedAt:       d.touchedAt,
	}
	if d.audio != nil {
		audio := *d.audio
		snap.Audio = &audio
	}
	if d.image != nil {
		image := *d.image
		snap.Image = &image
	}
	return snap
}

func (d *Draft) lastTouched() time.Time {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.touchedAt
}

// touch must be called with mu held.
func (d *Draft) touch() {
	d.touchedAt = time.Now()
}
