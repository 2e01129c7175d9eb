package commands

import (
	"github.com/spf13/cobra"
)

func newShardingCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sharding",
		Short: "Derive the sharding topology",
		Long: `Derive the cluster-wide sharding topology from the configuration
document, as seen by the resolving instance.

The output maps each replicaset with storage-role members to its replica
set: per-replica sharding URIs, optional UUIDs and zones, the rebalancer
assignment, and the tuning options the instance applies.`,
		Example: `  # Print the topology as YAML
  meridian sharding -c cluster.yaml -i router-001

  # Print the topology as JSON
  meridian sharding -c cluster.yaml -i router-001 --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := resolve(cmd.Context())
			if err != nil {
				reportError(err)
				return err
			}

			topology, err := data.Sharding()
			if err != nil {
				reportError(err)
				return err
			}

			return printOutput(topology)
		},
	}

	return cmd
}
