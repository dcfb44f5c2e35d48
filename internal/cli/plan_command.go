package cli

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/dataharvester/dataharvester/backend/go-services/internal/schema"
)

// NewPlanCommand prints the declared collections and indexes without
// connecting to the database.
func NewPlanCommand(globalOptions *GlobalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "plan [NAME...]",
		Short: "Print the collections and indexes that would be created",
		RunE: func(cmd *cobra.Command, args []string) error {
			names := args
			if len(names) == 0 {
				names = globalOptions.Conf.Schema.Projects
			}
			specs, err := schema.Plan(names, globalOptions.SchemaOptions())
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(specs)
		},
	}
}
