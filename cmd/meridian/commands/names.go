package commands

import (
	"github.com/spf13/cobra"
)

func newNamesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "names",
		Short: "Report configured names missing from persisted identity",
		Long: `Report which configured names are not yet recorded in the persisted
identity of the resolving instance's replicaset.

On a fresh deployment every non-anonymous peer is missing. After a name
assignment step the report shrinks to the peers added since.`,
		Example: `  # Report missing names for an instance
  meridian names -c cluster.yaml -i storage-001`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := resolve(cmd.Context())
			if err != nil {
				reportError(err)
				return err
			}

			return printOutput(data.MissingNames())
		},
	}

	return cmd
}
