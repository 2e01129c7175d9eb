package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/meridiandb/meridian/pkg/catalog"
	"github.com/meridiandb/meridian/pkg/cluster"
	"github.com/meridiandb/meridian/pkg/resolver"
)

var (
	// Global flags
	configPath   string
	instanceName string
	catalogDB    string
	verbose      bool
	jsonOutput   bool
)

// Execute runs the root command
func Execute(ctx context.Context, version, commit, buildDate string) error {
	rootCmd := newRootCommand(version, commit, buildDate)
	return rootCmd.ExecuteContext(ctx)
}

func newRootCommand(version, commit, buildDate string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "meridian",
		Short: "Meridian - Cluster Configuration Resolver",
		Long: `Meridian resolves a declarative cluster configuration document into the
validated per-instance view a database instance boots from.

Features:
  - Three-level scope merge (global, group, replicaset, instance)
  - Schema defaults and template variable substitution
  - Failover, bootstrap, and anonymous replica invariant checks
  - Sharding topology derivation
  - Identity reconciliation against persisted bootstrap records`,
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildDate),
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if verbose {
				zerolog.SetGlobalLevel(zerolog.DebugLevel)
			}
		},
	}

	// Persistent flags available to all commands
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "cluster configuration file path")
	rootCmd.PersistentFlags().StringVarP(&instanceName, "instance", "i", "", "name of the resolving instance")
	rootCmd.PersistentFlags().StringVar(&catalogDB, "catalog-db", "", "path to the persisted identity database (fresh bootstrap when empty)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output in JSON format")

	// Add subcommands
	rootCmd.AddCommand(newValidateCommand())
	rootCmd.AddCommand(newShardingCommand())
	rootCmd.AddCommand(newNamesCommand())
	rootCmd.AddCommand(newWatchCommand())

	return rootCmd
}

// resolve loads the cluster document and resolves it for the instance from
// the global flags. With --catalog-db the saved identity is read from the
// persisted identity database; otherwise it comes from snapshot bootstrap
// records only.
func resolve(ctx context.Context) (*resolver.ConfigData, error) {
	if configPath == "" {
		return nil, fmt.Errorf("no configuration file given, use --config")
	}
	if instanceName == "" {
		return nil, fmt.Errorf("no instance name given, use --instance")
	}

	doc, err := cluster.LoadFile(configPath)
	if err != nil {
		return nil, err
	}

	r, err := resolver.New(resolver.Options{
		Snapshots: catalog.NewFileSnapshotReader(),
		Logger:    &log.Logger,
	})
	if err != nil {
		return nil, err
	}

	state, cleanup, err := bootstrapState(ctx)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	return r.Resolve(ctx, doc, instanceName, state)
}

// bootstrapState opens the live catalog named by --catalog-db. The returned
// cleanup closes it; resolution reads the catalog synchronously, so closing
// after Resolve returns is safe.
func bootstrapState(ctx context.Context) (catalog.State, func(), error) {
	if catalogDB == "" {
		return catalog.NotBootstrapped, func() {}, nil
	}

	cat, err := catalog.NewSQLiteCatalog(catalog.Config{Path: catalogDB})
	if err != nil {
		return catalog.State{}, nil, err
	}
	if err := cat.Init(ctx); err != nil {
		return catalog.State{}, nil, err
	}
	if err := cat.Migrate(ctx); err != nil {
		cat.Close()
		return catalog.State{}, nil, err
	}
	return catalog.Bootstrapped(cat), func() { _ = cat.Close() }, nil
}

// printOutput renders v as YAML, or JSON when --json is set.
func printOutput(v any) error {
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}

	out, err := yaml.Marshal(v)
	if err != nil {
		return err
	}
	fmt.Print(string(out))
	return nil
}

// reportError logs a resolution failure with its classification code when
// one is attached.
func reportError(err error) {
	if code := resolver.CodeOf(err); code != "" {
		log.Error().Err(err).Str("code", string(code)).Msg("Resolution failed")
		return
	}
	log.Error().Err(err).Msg("Resolution failed")
}
