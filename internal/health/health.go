// Package health verifies that the service's dependencies are reachable.
//
// It backs the `lodging status` command: each registered check pings one
// dependency (database, redis) under a timeout and the results are
// gathered into a Report.
package health

import (
	"context"
	"slices"
	"time"

	"github.com/deppfellow/lodging/internal/server"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/rs/zerolog"
)

const (
	StatusHealthy   = "healthy"
	StatusUnhealthy = "unhealthy"
)

// PingFunc checks one dependency.
type PingFunc func(ctx context.Context) error

// CheckResult is the outcome of a single check.
type CheckResult struct {
	Status       string `json:"status"`
	ResponseTime string `json:"response_time"`
	Error        string `json:"error,omitempty"`
}

// Report is the outcome of every check.
type Report struct {
	Status      string                 `json:"status"`
	Timestamp   time.Time              `json:"timestamp"`
	Environment string                 `json:"environment"`
	Checks      map[string]CheckResult `json:"checks"`
}

// Healthy reports whether every check passed.
func (r Report) Healthy() bool {
	return r.Status == StatusHealthy
}

type check struct {
	name string
	ping PingFunc
}

// Checker runs the registered checks in registration order.
type Checker struct {
	checks      []check
	timeout     time.Duration
	environment string
	logger      *zerolog.Logger
	nrApp       *newrelic.Application
}

func NewChecker(environment string, timeout time.Duration, logger *zerolog.Logger, nrApp *newrelic.Application) *Checker {
	return &Checker{
		timeout:     timeout,
		environment: environment,
		logger:      logger,
		nrApp:       nrApp,
	}
}

// ForServer builds a Checker for the dependencies held by s, limited to
// the checks enabled in configuration.
func ForServer(s *server.Server) *Checker {
	cfg := s.Config.Observability.HealthChecks
	c := NewChecker(s.Config.Primary.Env, cfg.Timeout, s.Logger, s.LoggerService.GetApplication())

	if slices.Contains(cfg.Checks, "database") && s.DB != nil {
		c.Register("database", s.DB.Pool.Ping)
	}
	if slices.Contains(cfg.Checks, "redis") && s.Redis != nil {
		c.Register("redis", func(ctx context.Context) error {
			return s.Redis.Ping(ctx).Err()
		})
	}

	return c
}

// Register adds a named check.
func (c *Checker) Register(name string, ping PingFunc) {
	c.checks = append(c.checks, check{name: name, ping: ping})
}

// Run executes every check and returns the combined report. Any failing
// check makes the whole report unhealthy.
func (c *Checker) Run(ctx context.Context) Report {
	start := time.Now()
	logger := c.logger.With().Str("operation", "health_check").Logger()

	report := Report{
		Status:      StatusHealthy,
		Timestamp:   time.Now().UTC(),
		Environment: c.environment,
		Checks:      make(map[string]CheckResult, len(c.checks)),
	}

	for _, chk := range c.checks {
		result := c.run(ctx, chk)
		report.Checks[chk.name] = result

		if result.Status != StatusHealthy {
			report.Status = StatusUnhealthy
			logger.Error().
				Str("check", chk.name).
				Str("error", result.Error).
				Str("response_time", result.ResponseTime).
				Msg(chk.name + " health check failed")
			continue
		}

		logger.Info().
			Str("check", chk.name).
			Str("response_time", result.ResponseTime).
			Msg(chk.name + " health check passed")
	}

	if !report.Healthy() {
		logger.Warn().
			Dur("total_duration", time.Since(start)).
			Msg("health check failed")

		c.recordEvent(map[string]any{
			"check_type":        "overall",
			"operation":         "health_check",
			"error_type":        "overall_unhealthy",
			"total_duration_ms": time.Since(start).Milliseconds(),
		})
		return report
	}

	logger.Info().
		Dur("total_duration", time.Since(start)).
		Msg("health check passed")

	return report
}

func (c *Checker) run(ctx context.Context, chk check) CheckResult {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	start := time.Now()
	err := chk.ping(ctx)
	elapsed := time.Since(start)

	if err != nil {
		c.recordEvent(map[string]any{
			"check_type":       chk.name,
			"operation":        "health_check",
			"error_type":       chk.name + "_unhealthy",
			"response_time_ms": elapsed.Milliseconds(),
			"error_message":    err.Error(),
		})

		return CheckResult{
			Status:       StatusUnhealthy,
			ResponseTime: elapsed.String(),
			Error:        err.Error(),
		}
	}

	return CheckResult{
		Status:       StatusHealthy,
		ResponseTime: elapsed.String(),
	}
}

// recordEvent sends a HealthCheckError custom event when New Relic is on.
func (c *Checker) recordEvent(params map[string]any) {
	if c.nrApp != nil {
		c.nrApp.RecordCustomEvent("HealthCheckError", params)
	}
}

// Unreachable reports a dependency that could not even be connected to,
// for when the server container itself failed to start.
func Unreachable(environment, name string, err error) Report {
	return Report{
		Status:      StatusUnhealthy,
		Timestamp:   time.Now().UTC(),
		Environment: environment,
		Checks: map[string]CheckResult{
			name: {Status: StatusUnhealthy, ResponseTime: "0s", Error: err.Error()},
		},
	}
}
