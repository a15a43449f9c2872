package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/podcastr/api/internal/model"
	"github.com/redis/go-redis/v9"
)

// ErrJobNotFound is returned when a job record is missing or expired
var ErrJobNotFound = errors.New("job not found")

const jobTTL = 24 * time.Hour

// JobStore keeps generation job records
type JobStore interface {
	Save(ctx context.Context, job *model.Job) error
	Get(ctx context.Context, jobID string) (*model.Job, error)
}

// RedisJobStore stores jobs as JSON under job:<id> with a 24h expiry
type RedisJobStore struct {
	redis *redis.Client
}

func NewRedisJobStore(redisClient *redis.Client) *RedisJobStore {
	return &RedisJobStore{redis: redisClient}
}

func (s *RedisJobStore) Save(ctx context.Context, job *model.Job) error {
	data, err := job.MarshalStored()
	if err != nil {
		return err
	}
	return s.redis.Set(ctx, jobKey(job.ID), data, jobTTL).Err()
}

func (s *RedisJobStore) Get(ctx context.Context, jobID string) (*model.Job, error) {
	data, err := s.redis.Get(ctx, jobKey(jobID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrJobNotFound
		}
		return nil, err
	}
	return model.UnmarshalStoredJob(data)
}

func jobKey(jobID string) string {
	return fmt.Sprintf("job:%s", jobID)
}
