package job

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/deppfellow/civil-registry/internal/errs"
	"github.com/hibiken/asynq"
)

// handlePostalWarmTask looks the code up so later requests hit the cache.
// Codes the directory rejects are not retried.
func (j *JobService) handlePostalWarmTask(ctx context.Context, t *asynq.Task) error {
	var p PostalWarmPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("failed to unmarshal postal warm payload: %w: %w", err, asynq.SkipRetry)
	}

	j.logger.Debug().
		Str("type", TaskPostalWarm).
		Str("postal_code", p.PostalCode).
		Msg("Processing postal warm-up task")

	if _, err := j.warmer.Lookup(ctx, p.PostalCode); err != nil {
		if errs.HasCode(err, errs.CodePostalCodeNotFound) || errs.HasCode(err, errs.CodePostalCodeInvalid) {
			j.logger.Info().
				Str("postal_code", p.PostalCode).
				Str("reason", err.Error()).
				Msg("Skipping postal warm-up")
			return fmt.Errorf("%w: %w", err, asynq.SkipRetry)
		}

		j.logger.Error().
			Str("type", TaskPostalWarm).
			Str("postal_code", p.PostalCode).
			Err(err).
			Msg("Failed to warm postal cache")
		return err
	}

	return nil
}
