package worker

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/podcastr/api/internal/draft"
	"github.com/podcastr/api/internal/model"
	"github.com/podcastr/api/internal/service"
)

type memJobs struct {
	mu   sync.Mutex
	jobs map[string]model.Job
}

func (s *memJobs) Save(_ context.Context, job *model.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = *job
	return nil
}

func (s *memJobs) Get(_ context.Context, id string) (*model.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return nil, service.ErrJobNotFound
	}
	return &job, nil
}

type captureQueue struct {
	tasks []*asynq.Task
}

func (q *captureQueue) EnqueueContext(_ context.Context, task *asynq.Task, _ ...asynq.Option) (*asynq.TaskInfo, error) {
	q.tasks = append(q.tasks, task)
	return &asynq.TaskInfo{}, nil
}

type hubEvent struct {
	kind    string
	draftID string
	code    string
}

type recordingHub struct {
	mu     sync.Mutex
	events []hubEvent
}

func (h *recordingHub) BroadcastProgress(draftID, _ string, _ int, _ model.JobStatus, _ string) {
	h.add(hubEvent{kind: "progress", draftID: draftID})
}

func (h *recordingHub) BroadcastComplete(draftID, _ string, _ interface{}) {
	h.add(hubEvent{kind: "complete", draftID: draftID})
}

func (h *recordingHub) BroadcastError(draftID, _, code, _ string) {
	h.add(hubEvent{kind: "error", draftID: draftID, code: code})
}

func (h *recordingHub) add(e hubEvent) {
	h.mu.Lock()
	h.events = append(h.events, e)
	h.mu.Unlock()
}

func (h *recordingHub) last() hubEvent {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.events[len(h.events)-1]
}

type fakeSpeech struct {
	audio []byte
	err   error
	voice string
}

func (f *fakeSpeech) Synthesize(_ context.Context, voice, _ string) ([]byte, error) {
	f.voice = voice
	return f.audio, f.err
}
func (f *fakeSpeech) IsConfigured() bool { return true }

type fakeImages struct {
	image []byte
	err   error
}

func (f *fakeImages) Generate(context.Context, string) ([]byte, error) { return f.image, f.err }
func (f *fakeImages) IsConfigured() bool                               { return true }

type fakeProber struct {
	duration float64
	err      error
}

func (f *fakeProber) Probe(context.Context, string) (float64, error) { return f.duration, f.err }
func (f *fakeProber) IsConfigured() bool                             { return true }

type memStorage struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func (s *memStorage) Upload(_ context.Context, key string, body io.Reader, _ string) (string, error) {
	var buf bytes.Buffer
	io.Copy(&buf, body)
	s.mu.Lock()
	s.objects[key] = buf.Bytes()
	s.mu.Unlock()
	return "https://storage.test/" + key, nil
}

func (s *memStorage) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.objects, key)
	s.mu.Unlock()
	return nil
}

type workerFixture struct {
	drafts  *draft.Manager
	jobs    *memJobs
	queue   *captureQueue
	storage *memStorage
	hub     *recordingHub
	gen     *service.GenerationService
}

func newWorkerFixture() *workerFixture {
	f := &workerFixture{
		drafts:  draft.NewManager(0),
		jobs:    &memJobs{jobs: make(map[string]model.Job)},
		queue:   &captureQueue{},
		storage: &memStorage{objects: make(map[string][]byte)},
		hub:     &recordingHub{},
	}
	f.gen = service.NewGenerationService(f.jobs, f.queue, f.drafts, f.storage)
	return f
}

func (f *workerFixture) worker(speech SpeechSynthesizer, images ImageGenerator, prober DurationProber) *GenerationWorker {
	w := NewGenerationWorker(f.gen, speech, images, prober, f.storage, f.hub)
	w.mockStepDelay = 0
	return w
}

func (f *workerFixture) job(t *testing.T, id string) model.Job {
	t.Helper()
	job, err := f.jobs.Get(context.Background(), id)
	if err != nil {
		t.Fatalf("job %s: %v", id, err)
	}
	return *job
}

func TestProcessAudioTask_Synthesized(t *testing.T) {
	f := newWorkerFixture()
	speech := &fakeSpeech{audio: bytes.Repeat([]byte{0xff}, 32000)}
	w := f.worker(speech, nil, nil)

	d := f.drafts.Create("user-1")
	d.SetVoice(model.VoiceShimmer)
	resp, err := f.gen.StartAudio(context.Background(), d, &model.GenerateAudioRequest{Prompt: "Welcome back"})
	if err != nil {
		t.Fatal(err)
	}

	if err := w.ProcessAudioTask(context.Background(), f.queue.tasks[0]); err != nil {
		t.Fatalf("ProcessAudioTask() error: %v", err)
	}

	if speech.voice != "shimmer" {
		t.Errorf("voice = %s", speech.voice)
	}

	snap := d.Snapshot()
	if snap.Audio == nil {
		t.Fatal("audio slot not populated")
	}
	if !strings.HasPrefix(snap.Audio.StorageID, "audio/"+d.ID()+"/") || !strings.HasSuffix(snap.Audio.StorageID, ".mp3") {
		t.Errorf("storage id = %s", snap.Audio.StorageID)
	}
	if snap.Audio.DurationSeconds != 2 {
		t.Errorf("duration = %v, want 2 (32000 bytes at 128kbps)", snap.Audio.DurationSeconds)
	}
	if len(f.storage.objects[snap.Audio.StorageID]) != 32000 {
		t.Error("audio bytes not uploaded")
	}
	if snap.VoicePrompt != "Welcome back" {
		t.Errorf("voice prompt = %q", snap.VoicePrompt)
	}
	if snap.Image != nil {
		t.Error("audio job touched the image slot")
	}

	if job := f.job(t, resp.JobID); job.Status != model.JobStatusSucceeded {
		t.Errorf("job status = %s", job.Status)
	}
	if e := f.hub.last(); e.kind != "complete" || e.draftID != d.ID() {
		t.Errorf("last event = %+v", e)
	}
}

func TestProcessAudioTask_ProbedDuration(t *testing.T) {
	f := newWorkerFixture()
	w := f.worker(&fakeSpeech{audio: []byte("mp3")}, nil, &fakeProber{duration: 187.4})

	d := f.drafts.Create("user-1")
	d.SetVoice(model.VoiceAlloy)
	f.gen.StartAudio(context.Background(), d, &model.GenerateAudioRequest{Prompt: "x"})

	if err := w.ProcessAudioTask(context.Background(), f.queue.tasks[0]); err != nil {
		t.Fatal(err)
	}
	if got := d.Snapshot().Audio.DurationSeconds; got != 187.4 {
		t.Errorf("duration = %v, want probed 187.4", got)
	}
}

func TestProcessAudioTask_SynthesisFailure(t *testing.T) {
	f := newWorkerFixture()
	w := f.worker(&fakeSpeech{err: errors.New("quota exceeded")}, nil, nil)

	d := f.drafts.Create("user-1")
	d.SetVoice(model.VoiceAlloy)
	resp, _ := f.gen.StartAudio(context.Background(), d, &model.GenerateAudioRequest{Prompt: "x"})

	if err := w.ProcessAudioTask(context.Background(), f.queue.tasks[0]); !errors.Is(err, asynq.SkipRetry) {
		t.Fatalf("err = %v, want SkipRetry once the job is reported failed", err)
	}

	if d.Snapshot().Audio != nil {
		t.Error("failed generation must not touch the audio slot")
	}
	job := f.job(t, resp.JobID)
	if job.Status != model.JobStatusFailed || job.Error == nil || !strings.Contains(*job.Error, "quota exceeded") {
		t.Errorf("job = %+v", job)
	}
	if e := f.hub.last(); e.kind != "error" || e.code != ErrCodeGenerationFailed {
		t.Errorf("last event = %+v", e)
	}
}

func TestProcessAudioTask_FailedJobIsFinal(t *testing.T) {
	f := newWorkerFixture()
	speech := &fakeSpeech{err: errors.New("transient 503")}
	w := f.worker(speech, nil, nil)

	d := f.drafts.Create("user-1")
	d.SetVoice(model.VoiceAlloy)
	resp, _ := f.gen.StartAudio(context.Background(), d, &model.GenerateAudioRequest{Prompt: "x"})
	task := f.queue.tasks[0]

	w.ProcessAudioTask(context.Background(), task)

	// A redelivered task must not revive the job after clients saw it fail.
	speech.err = nil
	speech.audio = []byte("mp3")
	if err := w.ProcessAudioTask(context.Background(), task); err != nil {
		t.Fatalf("redelivery error: %v", err)
	}

	job := f.job(t, resp.JobID)
	if job.Status != model.JobStatusFailed {
		t.Errorf("job status = %s, want failed", job.Status)
	}
	if d.Snapshot().Audio != nil {
		t.Error("redelivered task wrote the audio slot")
	}
	if e := f.hub.last(); e.kind != "error" {
		t.Errorf("last event = %+v, want the failure to stand", e)
	}
}

func TestProcessImageTask_GenerationFailureSkipsRetry(t *testing.T) {
	f := newWorkerFixture()
	w := f.worker(nil, &fakeImages{err: errors.New("content policy")}, nil)

	d := f.drafts.Create("user-1")
	resp, _ := f.gen.StartImage(context.Background(), d, &model.GenerateImageRequest{Prompt: "x"})

	if err := w.ProcessImageTask(context.Background(), f.queue.tasks[0]); !errors.Is(err, asynq.SkipRetry) {
		t.Errorf("err = %v, want SkipRetry", err)
	}
	if job := f.job(t, resp.JobID); job.Status != model.JobStatusFailed {
		t.Errorf("job status = %s", job.Status)
	}
}

func TestProcessAudioTask_Mock(t *testing.T) {
	f := newWorkerFixture()
	w := f.worker(nil, nil, nil)

	d := f.drafts.Create("user-1")
	d.SetVoice(model.VoiceOnyx)
	f.gen.StartAudio(context.Background(), d, &model.GenerateAudioRequest{Prompt: "one two three four five"})

	if err := w.ProcessAudioTask(context.Background(), f.queue.tasks[0]); err != nil {
		t.Fatal(err)
	}

	audio := d.Snapshot().Audio
	if audio == nil || !strings.HasPrefix(audio.URL, "https://cdn.podcastr.app/audio/") {
		t.Fatalf("audio = %+v", audio)
	}
	if audio.DurationSeconds != 2 {
		t.Errorf("duration = %v, want 2", audio.DurationSeconds)
	}
}

func TestProcessImageTask(t *testing.T) {
	f := newWorkerFixture()
	w := f.worker(nil, &fakeImages{image: []byte("png")}, nil)

	d := f.drafts.Create("user-1")
	d.SetVoice(model.VoiceNova)
	d.ApplyAudio(d.BeginAudio(), model.AudioAsset{StorageID: "a"}, "script")
	f.gen.StartImage(context.Background(), d, &model.GenerateImageRequest{Prompt: "retro radio"})

	if err := w.ProcessImageTask(context.Background(), f.queue.tasks[0]); err != nil {
		t.Fatal(err)
	}

	snap := d.Snapshot()
	if snap.Image == nil || !strings.HasSuffix(snap.Image.StorageID, ".png") || snap.ImagePrompt != "retro radio" {
		t.Errorf("image = %+v prompt = %q", snap.Image, snap.ImagePrompt)
	}
	if snap.Audio == nil || snap.Audio.StorageID != "a" || snap.VoicePrompt != "script" {
		t.Error("image job touched the audio slot")
	}
}

func TestProcessImageTask_SupersededResultDropped(t *testing.T) {
	f := newWorkerFixture()
	w := f.worker(nil, &fakeImages{image: []byte("png")}, nil)

	d := f.drafts.Create("user-1")
	f.gen.StartImage(context.Background(), d, &model.GenerateImageRequest{Prompt: "old"})
	f.gen.StartImage(context.Background(), d, &model.GenerateImageRequest{Prompt: "new"})

	if err := w.ProcessImageTask(context.Background(), f.queue.tasks[1]); err != nil {
		t.Fatal(err)
	}
	if err := w.ProcessImageTask(context.Background(), f.queue.tasks[0]); err != nil {
		t.Fatal(err)
	}

	if got := d.Snapshot().ImagePrompt; got != "new" {
		t.Errorf("image prompt = %q, want the latest request", got)
	}
	if len(f.storage.objects) != 1 {
		t.Errorf("objects = %d, want the stale upload removed", len(f.storage.objects))
	}
}

func TestProcessTask_BadEnvelope(t *testing.T) {
	f := newWorkerFixture()
	w := f.worker(nil, nil, nil)

	err := w.ProcessAudioTask(context.Background(), asynq.NewTask(service.TaskTypeAudio, []byte("not json")))
	if !errors.Is(err, asynq.SkipRetry) {
		t.Errorf("err = %v, want SkipRetry", err)
	}
}

func TestEstimateDuration(t *testing.T) {
	tests := []struct {
		size int
		want float64
	}{
		{0, 0},
		{16000, 1},
		{24000, 1.5},
		{1_000_000, 62.5},
	}
	for _, tt := range tests {
		if got := estimateDuration(tt.size); got != tt.want {
			t.Errorf("estimateDuration(%d) = %v, want %v", tt.size, got, tt.want)
		}
	}
}
