// Package job runs the registry's background tasks on Asynq.
package job

import (
	"context"
	"fmt"

	"github.com/deppfellow/civil-registry/internal/config"
	"github.com/deppfellow/civil-registry/internal/lib/postal"
	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
)

// PostalWarmer primes the postal cache for a code.
type PostalWarmer interface {
	Lookup(ctx context.Context, raw string) (*postal.Result, error)
}

// JobService holds the Asynq client used to enqueue tasks and the server
// that runs their handlers.
type JobService struct {
	Client *asynq.Client
	server *asynq.Server
	logger *zerolog.Logger

	warmer PostalWarmer
}

func NewJobService(logger *zerolog.Logger, cfg *config.Config) *JobService {
	redisAddr := cfg.Redis.Address

	client := asynq.NewClient(asynq.RedisClientOpt{
		Addr: redisAddr,
	})

	server := asynq.NewServer(
		asynq.RedisClientOpt{Addr: redisAddr},
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"critical": 6,
				"default":  3,
				"low":      1,
			},
		},
	)

	return &JobService{
		Client: client,
		server: server,
		logger: logger,
	}
}

// InitHandlers sets the dependencies task handlers need. It must run before
// Start.
func (j *JobService) InitHandlers(warmer PostalWarmer) {
	j.warmer = warmer
}

// Start registers the handlers and starts the workers in the background.
func (j *JobService) Start() error {
	if j.warmer == nil {
		return fmt.Errorf("job handlers not initialized")
	}

	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskPostalWarm, j.handlePostalWarmTask)

	j.logger.Info().Msg("Starting background job server")

	if err := j.server.Start(mux); err != nil {
		return err
	}

	return nil
}

// EnqueuePostalWarm schedules a cache warm-up for the given postal code.
func (j *JobService) EnqueuePostalWarm(ctx context.Context, postalCode string) error {
	task, err := NewPostalWarmTask(postalCode)
	if err != nil {
		return err
	}

	info, err := j.Client.EnqueueContext(ctx, task)
	if err != nil {
		return fmt.Errorf("enqueue %s: %w", TaskPostalWarm, err)
	}

	j.logger.Debug().
		Str("task_id", info.ID).
		Str("postal_code", postalCode).
		Msg("enqueued postal warm-up")

	return nil
}

func (j *JobService) Stop() {
	j.logger.Info().Msg("Stopping background job server")
	j.server.Shutdown()
	j.Client.Close()
}
