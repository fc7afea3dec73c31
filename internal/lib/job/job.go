// Package job provides background job processing using Asynq.
//
// Producers enqueue tasks through JobService.Client; the `lodging worker`
// command runs the asynq server that executes them. Tasks live in Redis,
// so enqueueing survives worker restarts.
package job

import (
	"github.com/deppfellow/lodging/internal/config"
	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
)

// Queue names and their share of worker slots.
const (
	QueueCritical = "critical"
	QueueDefault  = "default"
	QueueLow      = "low"
)

var queueWeights = map[string]int{
	QueueCritical: 6,
	QueueDefault:  3,
	QueueLow:      1,
}

// workerConcurrency is the number of tasks processed in parallel.
const workerConcurrency = 10

// JobService holds the Asynq client (enqueue) and server (worker execution).
type JobService struct {
	Client *asynq.Client

	server *asynq.Server
	logger *zerolog.Logger

	// mailer delivers emails for the email:* handlers; set by InitHandlers.
	mailer WelcomeMailer
}

// NewJobService creates a JobService using the Redis address from cfg.
// Neither the client nor the server connects until first use.
func NewJobService(logger *zerolog.Logger, cfg *config.Config) *JobService {
	redisOpt := asynq.RedisClientOpt{Addr: cfg.Redis.Address}

	return &JobService{
		Client: asynq.NewClient(redisOpt),
		server: asynq.NewServer(redisOpt, asynq.Config{
			Concurrency: workerConcurrency,
			Queues:      queueWeights,
		}),
		logger: logger,
	}
}

// Mux routes task types to their handlers.
func (j *JobService) Mux() *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskWelcome, j.handleWelcomeEmailTask)
	return mux
}

// Start launches the worker pool in the background and returns.
func (j *JobService) Start() error {
	j.logger.Info().
		Int("concurrency", workerConcurrency).
		Msg("Starting background job server")

	return j.server.Start(j.Mux())
}

// Stop waits for in-flight tasks, stops the workers and closes the client.
func (j *JobService) Stop() {
	j.logger.Info().Msg("Stopping background job server")
	j.server.Shutdown()
	j.Client.Close()
}
