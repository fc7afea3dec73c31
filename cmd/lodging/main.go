// Command lodging runs maintenance tasks and the background worker for
// the lodging marketplace data layer.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/deppfellow/lodging/internal/config"
	"github.com/deppfellow/lodging/internal/database"
	"github.com/deppfellow/lodging/internal/health"
	"github.com/deppfellow/lodging/internal/lib/utils"
	"github.com/deppfellow/lodging/internal/logger"
	"github.com/deppfellow/lodging/internal/repository"
	"github.com/deppfellow/lodging/internal/seed"
	"github.com/deppfellow/lodging/internal/server"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 30 * time.Second

// app carries what every subcommand needs once configuration is loaded.
type app struct {
	cfg           *config.Config
	log           zerolog.Logger
	loggerService *logger.LoggerService
}

func main() {
	root, a := newRootCmd()
	err := root.Execute()

	// Flush New Relic data whether or not the command failed.
	if a.loggerService != nil {
		a.loggerService.Shutdown()
	}

	if err != nil {
		os.Exit(1)
	}
}

func newRootCmd() (*cobra.Command, *app) {
	a := &app{}

	root := &cobra.Command{
		Use:           "lodging",
		Short:         "Lodging marketplace data layer",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadConfig()
			if err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), err)
				return err
			}

			a.cfg = cfg
			a.loggerService = logger.NewLoggerService(cfg.Observability)
			a.log = logger.NewLoggerWithService(cfg.Observability, a.loggerService)
			return nil
		},
	}

	root.AddCommand(
		newMigrateCmd(a),
		newSeedCmd(a),
		newWorkerCmd(a),
		newStatusCmd(a),
	)
	root.AddCommand(newCatalogCmds(a)...)

	return root, a
}

// start builds the server container and returns it with a cleanup func.
func (a *app) start() (*server.Server, func(), error) {
	srv, err := server.New(a.cfg, &a.log, a.loggerService)
	if err != nil {
		return nil, nil, err
	}

	cleanup := func() {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			a.log.Error().Err(err).Msg("server forced to shutdown")
		}
	}

	return srv, cleanup, nil
}

func newMigrateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply embedded database migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := database.Migrate(cmd.Context(), &a.log, a.cfg); err != nil {
				a.log.Error().Err(err).Msg("failed to migrate database")
				return err
			}
			return nil
		},
	}
}

func newSeedCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Create the ISO country list where missing",
		RunE: func(cmd *cobra.Command, _ []string) error {
			srv, cleanup, err := a.start()
			if err != nil {
				a.log.Error().Err(err).Msg("failed to initialize server")
				return err
			}
			defer cleanup()

			repos := repository.NewRepositories(srv)
			result, err := seed.Countries(cmd.Context(), repos.Store, &a.log)
			if err != nil {
				a.log.Error().Err(err).Msg("failed to seed countries")
				return err
			}

			return utils.PrintJSON(cmd.OutOrStdout(), result)
		},
	}
}

func newWorkerCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "worker",
		Short: "Run the background job worker until interrupted",
		RunE: func(cmd *cobra.Command, _ []string) error {
			srv, cleanup, err := a.start()
			if err != nil {
				a.log.Error().Err(err).Msg("failed to initialize server")
				return err
			}
			defer cleanup()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if err := srv.StartWorker(); err != nil {
				a.log.Error().Err(err).Msg("failed to start worker")
				return err
			}

			<-ctx.Done()
			a.log.Info().Msg("shutting down worker")
			return nil
		},
	}
}

func newStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check database and redis connectivity",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var report health.Report

			srv, cleanup, err := a.start()
			if err != nil {
				report = health.Unreachable(a.cfg.Primary.Env, "database", err)
			} else {
				defer cleanup()
				report = health.ForServer(srv).Run(cmd.Context())
			}

			if err := utils.PrintJSON(cmd.OutOrStdout(), report); err != nil {
				return err
			}
			if !report.Healthy() {
				return fmt.Errorf("status: %s", report.Status)
			}
			return nil
		},
	}
}
