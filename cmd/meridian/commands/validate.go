package commands

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func newValidateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate the cluster configuration for an instance",
		Long: `Validate the cluster configuration document from the resolving
instance's point of view.

This command checks:
  - Document structure and name validity
  - Schema conformance of every merged option tree
  - Failover, bootstrap, and anonymous replica invariants
  - Identity consistency against bootstrap records`,
		Example: `  # Validate the document for one instance
  meridian validate -c cluster.yaml -i storage-001`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := resolve(cmd.Context())
			if err != nil {
				reportError(err)
				return err
			}

			identity := data.Identity()
			log.Info().
				Str("instance", identity.InstanceName).
				Str("replicaset", identity.ReplicasetName).
				Str("group", identity.GroupName).
				Str("failover", string(data.FailoverMode())).
				Str("bootstrap_strategy", string(data.BootstrapStrategy())).
				Int("peers", len(data.Peers())).
				Msg("Configuration is valid")

			summary := struct {
				Identity          any      `json:"identity" yaml:"identity"`
				Failover          string   `json:"failover" yaml:"failover"`
				BootstrapStrategy string   `json:"bootstrap_strategy" yaml:"bootstrap_strategy"`
				Peers             []string `json:"peers" yaml:"peers"`
			}{
				Identity:          identity,
				Failover:          string(data.FailoverMode()),
				BootstrapStrategy: string(data.BootstrapStrategy()),
				Peers:             data.Peers(),
			}
			return printOutput(summary)
		},
	}

	return cmd
}
