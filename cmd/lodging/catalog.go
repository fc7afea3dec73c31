package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/deppfellow/lodging/internal/lib/utils"
	"github.com/deppfellow/lodging/internal/model"
	"github.com/deppfellow/lodging/internal/repository"
	"github.com/deppfellow/lodging/internal/service"
	"github.com/spf13/cobra"
)

// newCatalogCmds exposes the catalog operations for operators. Payloads
// are JSON objects keyed by entity field names.
func newCatalogCmds(a *app) []*cobra.Command {
	list := &cobra.Command{
		Use:   "list <kind>",
		Short: "List every entity of a kind",
		Args:  cobra.ExactArgs(1),
		RunE: a.withCatalog(func(ctx context.Context, cmd *cobra.Command, catalog *service.Catalog, kind model.Kind, args []string) error {
			entities, err := catalog.List(ctx, kind)
			if err != nil {
				return err
			}

			out := make([]map[string]any, len(entities))
			for i, e := range entities {
				out[i] = model.Project(e)
			}
			return utils.PrintJSON(cmd.OutOrStdout(), out)
		}),
	}

	get := &cobra.Command{
		Use:   "get <kind> <id>",
		Short: "Show one entity",
		Args:  cobra.ExactArgs(2),
		RunE: a.withCatalog(func(ctx context.Context, cmd *cobra.Command, catalog *service.Catalog, kind model.Kind, args []string) error {
			e, err := catalog.Read(ctx, kind, args[1])
			if err != nil {
				return err
			}
			if e == nil {
				return fmt.Errorf("%s %s not found", kind, args[1])
			}
			return utils.PrintJSON(cmd.OutOrStdout(), model.Project(e))
		}),
	}

	create := &cobra.Command{
		Use:   "create <kind> <json>",
		Short: "Create an entity from a JSON payload",
		Args:  cobra.ExactArgs(2),
		RunE: a.withCatalog(func(ctx context.Context, cmd *cobra.Command, catalog *service.Catalog, kind model.Kind, args []string) error {
			payload, err := parsePayload(args[1])
			if err != nil {
				return err
			}

			e, err := catalog.Create(ctx, kind, payload)
			if err != nil {
				return err
			}
			return utils.PrintJSON(cmd.OutOrStdout(), model.Project(e))
		}),
	}

	update := &cobra.Command{
		Use:   "update <kind> <id> <json>",
		Short: "Apply a partial JSON payload to an entity",
		Args:  cobra.ExactArgs(3),
		RunE: a.withCatalog(func(ctx context.Context, cmd *cobra.Command, catalog *service.Catalog, kind model.Kind, args []string) error {
			payload, err := parsePayload(args[2])
			if err != nil {
				return err
			}

			e, err := catalog.Update(ctx, kind, args[1], payload)
			if err != nil {
				return err
			}
			return utils.PrintJSON(cmd.OutOrStdout(), model.Project(e))
		}),
	}

	del := &cobra.Command{
		Use:   "delete <kind> <id>",
		Short: "Delete an entity",
		Args:  cobra.ExactArgs(2),
		RunE: a.withCatalog(func(ctx context.Context, cmd *cobra.Command, catalog *service.Catalog, kind model.Kind, args []string) error {
			deleted, err := catalog.Delete(ctx, kind, args[1])
			if err != nil {
				return err
			}
			return utils.PrintJSON(cmd.OutOrStdout(), map[string]bool{"deleted": deleted})
		}),
	}

	return []*cobra.Command{list, get, create, update, del}
}

type catalogFunc func(ctx context.Context, cmd *cobra.Command, catalog *service.Catalog, kind model.Kind, args []string) error

// withCatalog parses the kind argument and wires a Catalog over a fresh
// server container for the duration of the command.
func (a *app) withCatalog(fn catalogFunc) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		kind, err := model.ParseKind(args[0])
		if err != nil {
			return err
		}

		srv, cleanup, err := a.start()
		if err != nil {
			a.log.Error().Err(err).Msg("failed to initialize server")
			return err
		}
		defer cleanup()

		services, err := service.NewService(srv, repository.NewRepositories(srv))
		if err != nil {
			return err
		}

		if err := fn(cmd.Context(), cmd, services.Catalog, kind, args); err != nil {
			fmt.Fprintln(cmd.ErrOrStderr(), err)
			return err
		}
		return nil
	}
}

func parsePayload(raw string) (map[string]any, error) {
	var payload map[string]any
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil, fmt.Errorf("payload must be a JSON object: %w", err)
	}
	return payload, nil
}
