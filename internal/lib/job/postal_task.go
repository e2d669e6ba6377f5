package job

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const TaskPostalWarm = "postal:warm"

type PostalWarmPayload struct {
	PostalCode string `json:"postal_code"`
}

// NewPostalWarmTask builds a low-priority task retried at most 3 times.
func NewPostalWarmTask(postalCode string) (*asynq.Task, error) {
	payload, err := json.Marshal(PostalWarmPayload{PostalCode: postalCode})
	if err != nil {
		return nil, err
	}

	return asynq.NewTask(
		TaskPostalWarm,
		payload,
		asynq.MaxRetry(3),
		asynq.Queue("low"),
		asynq.Timeout(30*time.Second),
	), nil
}
