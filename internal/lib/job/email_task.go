package job

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// TaskWelcome is the job type name stored in Redis.
	// Asynq uses task type strings to route to handlers.
	TaskWelcome = "email:welcome"
)

// WelcomeEmailPayload is the JSON payload of the welcome email task.
type WelcomeEmailPayload struct {
	UserID    string `json:"user_id"`
	To        string `json:"to"`
	FirstName string `json:"first_name"`
}

// NewWelcomeEmailTask constructs an Asynq task for sending a welcome email.
//
// Task options:
//   - MaxRetry(3): retry up to 3 times on failure
//   - Queue(QueueDefault): send into the "default" queue
//   - Timeout(30s): kill the task if handler runs longer than 30 seconds
func NewWelcomeEmailTask(userID, to, firstName string) (*asynq.Task, error) {
	payload, err := json.Marshal(WelcomeEmailPayload{
		UserID:    userID,
		To:        to,
		FirstName: firstName,
	})
	if err != nil {
		return nil, err
	}

	return asynq.NewTask(
		TaskWelcome,
		payload,
		asynq.MaxRetry(3),
		asynq.Queue(QueueDefault),
		asynq.Timeout(30*time.Second),
	), nil
}
