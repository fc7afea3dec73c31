package job

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/deppfellow/lodging/internal/config"
	"github.com/deppfellow/lodging/internal/lib/email"
	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
)

// WelcomeMailer sends the welcome email for a new user.
type WelcomeMailer interface {
	SendWelcomeEmail(ctx context.Context, to, firstName string) error
}

// InitHandlers initializes dependencies required by job handlers.
func (j *JobService) InitHandlers(cfg *config.Config, logger *zerolog.Logger) {
	j.mailer = email.NewClient(cfg, logger)
}

// handleWelcomeEmailTask decodes the payload and sends the welcome email.
// Returning an error makes Asynq mark the task failed and schedule a retry;
// a malformed payload is skipped since retrying cannot fix it.
func (j *JobService) handleWelcomeEmailTask(ctx context.Context, t *asynq.Task) error {
	var p WelcomeEmailPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("failed to unmarshal welcome email payload: %v: %w", err, asynq.SkipRetry)
	}

	j.logger.Info().
		Str("type", "welcome").
		Str("user_id", p.UserID).
		Msg("Processing welcome email task")

	if err := j.mailer.SendWelcomeEmail(ctx, p.To, p.FirstName); err != nil {
		j.logger.Error().
			Str("type", "welcome").
			Str("user_id", p.UserID).
			Err(err).
			Msg("Failed to send welcome email")
		return err
	}

	j.logger.Info().
		Str("type", "welcome").
		Str("user_id", p.UserID).
		Msg("Successfully sent welcome email")

	return nil
}
