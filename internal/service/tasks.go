package service

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	TaskTypeAudio = "podcast:audio"
	TaskTypeImage = "podcast:image"

	QueueAudio = "audio"
	QueueImage = "image"
)

// TaskEnvelope is the asynq payload shared by both generation tasks
type TaskEnvelope struct {
	JobID   string          `json:"jobId"`
	Payload json.RawMessage `json:"payload"`
}

func newGenerationTask(taskType, jobID string, payload []byte) (*asynq.Task, error) {
	data, err := json.Marshal(TaskEnvelope{JobID: jobID, Payload: payload})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(taskType, data), nil
}
