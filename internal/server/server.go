// Package server defines the core Server struct that composes the app's
// main dependencies.
//
// It owns the lifecycle of:
//   - configuration
//   - logger + optional New Relic service wrapper
//   - database pool
//   - redis client
//   - background job service (asynq client, and the worker when started)
//
// The store handle lives here and is passed explicitly to repositories;
// nothing below this package reaches for a global connection.
package server

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/deppfellow/lodging/internal/config"
	"github.com/deppfellow/lodging/internal/database"
	"github.com/deppfellow/lodging/internal/lib/job"
	"github.com/newrelic/go-agent/v3/integrations/nrredis-v9"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	loggerPkg "github.com/deppfellow/lodging/internal/logger"
)

// Server is the application container that holds shared resources.
type Server struct {
	Config *config.Config
	Logger *zerolog.Logger

	// LoggerService optionally holds the New Relic application instance.
	LoggerService *loggerPkg.LoggerService

	DB    *database.Database
	Redis *redis.Client

	// Job provides the asynq client for enqueueing; its worker only runs
	// after StartWorker.
	Job *job.JobService
}

// New constructs a Server and initializes core dependencies.
//
// Initialization performed:
//   - PostgreSQL pool + optional New Relic tracing (fails fast when unreachable)
//   - Redis client + optional New Relic hooks (logged and tolerated when unreachable)
//   - JobService (asynq client/server) with its handlers
func New(cfg *config.Config, logger *zerolog.Logger, loggerService *loggerPkg.LoggerService) (*Server, error) {
	db, err := database.New(cfg, logger, loggerService)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	// Redis connections are lazy; Ping below is the first real round trip.
	redisClient := redis.NewClient(&redis.Options{
		Addr: cfg.Redis.Address,
	})

	if loggerService.GetApplication() != nil {
		redisClient.AddHook(nrredis.NewHook(redisClient.Options()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// Redis only carries background jobs, so the store stays usable without it.
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Error().Err(err).Msg("Failed to connect to Redis, continuing without Redis")
	}

	jobService := job.NewJobService(logger, cfg)
	jobService.InitHandlers(cfg, logger)

	return &Server{
		Config:        cfg,
		Logger:        logger,
		LoggerService: loggerService,
		DB:            db,
		Redis:         redisClient,
		Job:           jobService,
	}, nil
}

// StartWorker starts processing background jobs.
func (s *Server) StartWorker() error {
	if s.Job == nil {
		return errors.New("job service not initialized")
	}

	s.Logger.Info().
		Str("env", s.Config.Primary.Env).
		Msg("starting worker")

	return s.Job.Start()
}

// Shutdown stops background jobs and closes the database pool and the
// redis client.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.Job != nil {
		s.Job.Stop()
	}

	var errList []error

	if s.DB != nil {
		if err := s.DB.Close(); err != nil {
			errList = append(errList, fmt.Errorf("failed to close database connection: %w", err))
		}
	}

	if s.Redis != nil {
		if err := s.Redis.Close(); err != nil {
			errList = append(errList, fmt.Errorf("failed to close redis client: %w", err))
		}
	}

	return errors.Join(errList...)
}
