package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"

	"github.com/hibiken/asynq"
	"github.com/podcastr/api/internal/model"
	"github.com/podcastr/api/internal/store"
)

type memJobStore struct {
	mu   sync.Mutex
	jobs map[string]model.Job
}

func newMemJobStore() *memJobStore {
	return &memJobStore{jobs: make(map[string]model.Job)}
}

func (s *memJobStore) Save(_ context.Context, job *model.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = *job
	return nil
}

func (s *memJobStore) Get(_ context.Context, jobID string) (*model.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[jobID]
	if !ok {
		return nil, ErrJobNotFound
	}
	return &job, nil
}

type enqueued struct {
	task  *asynq.Task
	queue string
}

type fakeEnqueuer struct {
	mu    sync.Mutex
	tasks []enqueued
	err   error
}

func (q *fakeEnqueuer) EnqueueContext(_ context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	if q.err != nil {
		return nil, q.err
	}
	var queue string
	for _, opt := range opts {
		if opt.Type() == asynq.QueueOpt {
			queue, _ = opt.Value().(string)
		}
	}
	q.mu.Lock()
	q.tasks = append(q.tasks, enqueued{task: task, queue: queue})
	q.mu.Unlock()
	return &asynq.TaskInfo{Queue: queue, Type: task.Type()}, nil
}

type fakeStorage struct {
	mu        sync.Mutex
	uploads   map[string][]byte
	deleted   []string
	uploadErr error
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{uploads: make(map[string][]byte)}
}

func (s *fakeStorage) Upload(_ context.Context, key string, body io.Reader, _ string) (string, error) {
	if s.uploadErr != nil {
		return "", s.uploadErr
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, body); err != nil {
		return "", err
	}
	s.mu.Lock()
	s.uploads[key] = buf.Bytes()
	s.mu.Unlock()
	return "https://storage.test/" + key, nil
}

func (s *fakeStorage) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	s.deleted = append(s.deleted, key)
	s.mu.Unlock()
	return nil
}

// eventLog records collaborator calls in order across fakes
type eventLog struct {
	mu     sync.Mutex
	events []string
}

func (l *eventLog) add(e string) {
	l.mu.Lock()
	l.events = append(l.events, e)
	l.mu.Unlock()
}

func (l *eventLog) list() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.events...)
}

type fakeEpisodeStore struct {
	log      *eventLog
	mu       sync.Mutex
	episodes []model.Episode
	err      error

	// when set, CreateEpisode signals started and waits for release
	started chan struct{}
	release chan struct{}
}

func (s *fakeEpisodeStore) CreateEpisode(_ context.Context, e *model.Episode) error {
	if s.started != nil {
		s.started <- struct{}{}
		<-s.release
	}
	s.log.add("persist")
	if s.err != nil {
		return s.err
	}
	s.mu.Lock()
	s.episodes = append(s.episodes, *e)
	s.mu.Unlock()
	return nil
}

func (s *fakeEpisodeStore) GetEpisode(_ context.Context, id string) (*model.Episode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.episodes {
		if e.ID == id {
			e := e
			return &e, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *fakeEpisodeStore) Close() error { return nil }

func (s *fakeEpisodeStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.episodes)
}

type sentNotification struct {
	draftID string
	n       model.Notification
}

type fakeChannel struct {
	log         *eventLog
	mu          sync.Mutex
	toasts      []sentNotification
	navigations []string
}

func (c *fakeChannel) Notify(draftID string, n model.Notification) {
	c.log.add("notify:" + n.Title)
	c.mu.Lock()
	c.toasts = append(c.toasts, sentNotification{draftID: draftID, n: n})
	c.mu.Unlock()
}

func (c *fakeChannel) Navigate(draftID, to string) {
	c.log.add("navigate:" + to)
	c.mu.Lock()
	c.navigations = append(c.navigations, to)
	c.mu.Unlock()
}

var errDBDown = errors.New("connection refused")
