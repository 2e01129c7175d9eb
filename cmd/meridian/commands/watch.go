package commands

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/meridiandb/meridian/pkg/catalog"
	"github.com/meridiandb/meridian/pkg/cluster"
	"github.com/meridiandb/meridian/pkg/resolver"
	"github.com/meridiandb/meridian/pkg/telemetry"
)

func newWatchCommand() *cobra.Command {
	var metricsAddr string

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Watch the configuration file and re-resolve on change",
		Long: `Watch the cluster configuration file and re-resolve it for the
instance on every change.

A change that fails validation is rejected: the previous resolution stays
in effect and the failure is logged with its classification code. The
watch runs until interrupted.`,
		Example: `  # Watch and re-resolve on change
  meridian watch -c cluster.yaml -i storage-001

  # Also expose reload metrics
  meridian watch -c cluster.yaml -i storage-001 --metrics-addr :9090`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if configPath == "" {
				return fmt.Errorf("no configuration file given, use --config")
			}
			if instanceName == "" {
				return fmt.Errorf("no instance name given, use --instance")
			}

			cfg := telemetry.DefaultConfig()
			if metricsAddr != "" {
				cfg.Metrics.Enabled = true
				cfg.Metrics.ListenAddress = metricsAddr
			}
			tel, err := telemetry.NewTelemetry(cfg)
			if err != nil {
				return err
			}
			defer tel.Shutdown(context.Background())

			if metricsAddr != "" {
				go func() {
					if err := tel.StartMetricsServer(); err != nil {
						log.Error().Err(err).Msg("Metrics server stopped")
					}
				}()
			}

			ctx := tel.WithContext(cmd.Context())
			return runWatch(ctx, tel)
		},
	}

	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "listen address for reload metrics (disabled when empty)")

	return cmd
}

// runWatch resolves once, then re-resolves on every write to the
// configuration file until the context is cancelled.
func runWatch(ctx context.Context, tel *telemetry.Telemetry) error {
	r, err := resolver.New(resolver.Options{
		Snapshots: catalog.NewFileSnapshotReader(),
		Logger:    &log.Logger,
	})
	if err != nil {
		return err
	}

	current, err := reload(ctx, r, tel)
	if err != nil {
		// The initial document must resolve; later failures keep the
		// previous resolution.
		return err
	}
	log.Info().Str("instance", instanceName).Msg("Initial resolution applied")

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	// Watch the directory: editors replace the file on save, which drops
	// a watch registered on the file itself.
	dir := filepath.Dir(configPath)
	if err := watcher.Add(dir); err != nil {
		return err
	}

	// Coalesce bursts of events into one reload.
	var debounce *time.Timer
	reloads := make(chan struct{}, 1)

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != filepath.Clean(configPath) {
				continue
			}
			if !event.Op.Has(fsnotify.Write) && !event.Op.Has(fsnotify.Create) {
				continue
			}
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(100*time.Millisecond, func() {
				select {
				case reloads <- struct{}{}:
				default:
				}
			})

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Error().Err(err).Msg("Watch error")

		case <-reloads:
			next, err := reload(ctx, r, tel)
			if err != nil {
				reportError(err)
				tel.Metrics.ReloadObserved("rejected")
				_ = tel.Events.PublishReloadRejected(configPath, err.Error())
				continue
			}
			current = next
			tel.Metrics.ReloadObserved("applied")
			_ = tel.Events.PublishReloadApplied(configPath)
			log.Info().
				Str("instance", instanceName).
				Int("peers", len(current.Peers())).
				Msg("Reload applied")
		}
	}
}

// reload loads and resolves the configuration file once.
func reload(ctx context.Context, r *resolver.Resolver, tel *telemetry.Telemetry) (*resolver.ConfigData, error) {
	ctx = telemetry.WithResolveContext(ctx, instanceName)

	doc, err := cluster.LoadFile(configPath)
	if err != nil {
		telemetry.EndResolveContext(ctx, instanceName, err)
		return nil, err
	}

	state, cleanup, err := bootstrapState(ctx)
	if err != nil {
		telemetry.EndResolveContext(ctx, instanceName, err)
		return nil, err
	}
	defer cleanup()

	data, err := r.Resolve(ctx, doc, instanceName, state)
	telemetry.EndResolveContext(ctx, instanceName, err)
	if err != nil {
		if code := resolver.CodeOf(err); code != "" {
			tel.Metrics.ValidationFailed(string(code))
		}
		return nil, err
	}

	tel.Metrics.SetPeersResolved(len(data.Peers()))
	return data, nil
}
