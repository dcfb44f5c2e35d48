package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dataharvester/dataharvester/backend/go-services/internal/projects"
	"github.com/dataharvester/dataharvester/backend/go-services/internal/schema"
	"github.com/dataharvester/dataharvester/backend/go-services/pkg/logger"
)

type ProjectOptions struct {
	Register bool
}

// NewProjectCommand provisions the collection triple of one or more projects.
func NewProjectCommand(globalOptions *GlobalOptions) *cobra.Command {
	projectOptions := &ProjectOptions{}

	projectCmd := &cobra.Command{
		Use:   "project NAME...",
		Short: "Create the raw, cleaned and processed collections of projects",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if projectOptions.Register {
				return registerProjects(cmd, globalOptions, args)
			}
			return runInitialize(cmd.Context(), globalOptions, args, false)
		},
	}
	projectCmd.Flags().BoolVar(&projectOptions.Register, "register", false, "Also record each project in the projects collection.")
	return projectCmd
}

// registerProjects provisions and records each project. Names that are
// already registered are re-provisioned and reported, not treated as errors.
func registerProjects(cmd *cobra.Command, g *GlobalOptions, names []string) error {
	for _, n := range names {
		if err := schema.ValidateProjectName(n); err != nil {
			return err
		}
	}
	ctx := cmd.Context()
	be, err := openBackend(ctx, g.Conf)
	if err != nil {
		return fmt.Errorf("connect to MongoDB: %w", err)
	}
	defer be.close()

	// the registry relies on the unique name index of the projects collection
	ini := schema.NewInitializer(be.catalog, g.SchemaOptions())
	if _, err := ini.InitializeBaseSchema(ctx); err != nil {
		return err
	}
	svc := projects.NewService(be.projects, ini)
	for _, n := range names {
		p, _, err := svc.Register(ctx, n)
		switch {
		case errors.Is(err, projects.ErrProjectExists):
			logger.Infof("project %s already registered; collections re-applied", n)
		case err != nil:
			return fmt.Errorf("project %s: %w", n, err)
		default:
			fmt.Fprintf(cmd.OutOrStdout(), "registered %s (%s)\n", p.Name, p.ID.Hex())
		}
	}
	return nil
}
