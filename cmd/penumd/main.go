package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"runtime/debug"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	pflag "github.com/spf13/pflag"

	"github.com/penum-labs/penum-ingress/internal/cliconfig"
	"github.com/penum-labs/penum-ingress/internal/server"
	logAdapter "github.com/penum-labs/penum-ingress/pkg/log"
	"github.com/penum-labs/penum-ingress/pkg/penum"
	"github.com/penum-labs/penum-ingress/plugins/relaywatcher"
)

const helpBanner = `
██████╗ ███████╗███╗   ██╗██╗   ██╗███╗   ███╗
██╔══██╗██╔════╝████╗  ██║██║   ██║████╗ ████║
██████╔╝█████╗  ██╔██╗ ██║██║   ██║██╔████╔██║
██╔═══╝ ██╔══╝  ██║╚██╗██║██║   ██║██║╚██╔╝██║
██║     ███████╗██║ ╚████║╚██████╔╝██║ ╚═╝ ██║
╚═╝     ╚══════╝╚═╝  ╚═══╝ ╚═════╝ ╚═╝     ╚═╝
`

const helpDescription = `
Privacy-preserving transaction ingress for Ethereum relays.

Highlights:
  - Accumulates transactions into batches and seals each one with an
    order-independent commitment before anything leaves the process.
  - Shuffles batch order with a seeded permutation so arrival order
    never reaches the relay.
  - Publishes commitments ahead of the reveal so third parties can
    verify every forwarded batch.
  - Configure via file, env, or flags; safe defaults for batching and
    the public relay set.

Docs: https://docs.penum-labs.io/ingress
Contact: ops@penum-labs.io
`

var longHelp = strings.TrimSpace(helpBanner) + "\n\n" + strings.TrimSpace(helpDescription)

var exampleUsage = strings.TrimSpace(`
  penumd --relays https://relay.flashbots.net --auth-key <api-key>
  penumd --config $HOME/.penum/config.toml --audit-dir /var/lib/penum/audit
`)

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

func main() {
	cfg := cliconfig.DefaultConfig()
	var cfgPath string

	log := cliconfig.Logger()

	root := &cobra.Command{
		Use:     "penumd",
		Short:   "Privacy-preserving transaction ingress for Ethereum relays",
		Long:    longHelp,
		Example: exampleUsage,
		Version: fmt.Sprintf("%s %s/%s", getVersion(), runtime.GOOS, runtime.GOARCH),
		RunE: func(cmd *cobra.Command, args []string) error {
			// Load config file first (default $HOME/.penum/config.toml), then apply flag overrides
			// Determine config path
			cfgFile := cfgPath
			if cfgFile == "" {
				cfgFile = cliconfig.DefaultConfigPath()
			}

			// Build set of changed flags
			changed := map[string]bool{}
			cmd.Flags().Visit(func(f *pflag.Flag) { changed[f.Name] = true })

			if cfgFile != "" && cliconfig.FileExists(cfgFile) {
				fc, err := cliconfig.LoadFileConfig(cfgFile)
				if err != nil {
					return fmt.Errorf("load config: %w", err)
				}
				if err := cliconfig.ApplyFileConfig(&cfg, fc, changed); err != nil {
					return err
				}
			}

			// Apply environment variables (PENUM_*)
			// These override file config but are overridden by flags (checked via changed map)
			if err := cliconfig.ApplyEnvConfig(&cfg, changed); err != nil {
				return err
			}

			// Load the auth key from its key file if needed
			if err := cliconfig.LoadAuthKey(&cfg); err != nil {
				return err
			}

			// Validate and set derived defaults
			if err := cfg.Validate(); err != nil {
				return err
			}

			// Log configuration (masking API key)
			logCfg := cfg
			if len(logCfg.AuthKey) > 0 {
				logCfg.AuthKey = "*****"
			}
			log.Info().Interface("config", logCfg).Msg("configuration")

			// Convert cliconfig.Config to penum.Config
			libCfg := penum.Config{
				MaxBatchSize:     cfg.MaxBatchSize,
				BatchTimeWindow:  cfg.BatchTimeWindow,
				PollInterval:     cfg.PollInterval,
				Relays:           cfg.Relays,
				AuthKey:          cfg.AuthKey,
				HTTPTimeout:      cfg.HTTPTimeout,
				SeedPolicy:       cfg.SeedPolicy,
				StrictValidation: cfg.StrictValidation,
				AuditDir:         cfg.AuditDir,
			}

			// Seed the relay set from the relays file before the watcher takes over
			if cfg.RelaysFile != "" && len(cfg.Relays) == 0 {
				relays, err := relaywatcher.ParseRelayFile(cfg.RelaysFile)
				if err != nil {
					return fmt.Errorf("load relays file: %w", err)
				}
				libCfg.Relays = relays
			}

			// Create zerolog adapter for the library
			zerologAdapter := logAdapter.NewZerologAdapterWithLogger(log)

			// Create penum instance with features enabled by default
			ing, err := penum.New(libCfg,
				penum.WithLogger(zerologAdapter),
				// Enable relay watcher plugin
				relaywatcher.WithRelayWatcher(relaywatcher.Config{Path: cfg.RelaysFile}),
				// Enable audit retention
				penum.WithAuditRetention(penum.DefaultAuditRetentionConfig()),
				// Enable load shedding
				penum.WithLoadShedding(penum.LoadSheddingConfig{
					Enabled:       cfg.ShedThreshold > 0,
					LoadThreshold: cfg.ShedThreshold,
				}),
			)
			if err != nil {
				return fmt.Errorf("create penum: %w", err)
			}

			// Setup signal handling for graceful shutdown
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

			// Start penum
			if err := ing.Start(ctx); err != nil {
				return fmt.Errorf("start penum: %w", err)
			}

			// Start the HTTP API
			srv := server.NewServer(server.Config{
				Host:              cfg.ListenHost,
				Port:              cfg.ListenPort,
				RequestsPerSecond: cfg.RequestsPerSecond,
				Burst:             cfg.RateBurst,
				MaxBodyBytes:      int64(cfg.MaxBodyBytes),
				Version:           getVersion(),
			}, ing, zerologAdapter)

			serverErrCh := make(chan error, 1)
			go func() {
				serverErrCh <- srv.Start(ctx)
			}()

			// Create done channel to detect completion
			doneCh := make(chan struct{})
			go func() {
				// Poll for a crash or external stop
				ticker := time.NewTicker(100 * time.Millisecond)
				defer ticker.Stop()
				for {
					select {
					case <-ctx.Done():
						return
					case <-ticker.C:
						status := ing.Status()
						if status == penum.StateStopped || status == penum.StateCrashed {
							close(doneCh)
							return
						}
					}
				}
			}()

			// Wait for signal, server failure, or completion
			serverDone := false
			select {
			case <-sigCh:
				log.Info().Msg("received signal, stopping...")
			case err := <-serverErrCh:
				serverDone = true
				if err != nil {
					log.Error().Err(err).Msg("ingress API failed")
				}
			case <-doneCh:
				if ing.Status() == penum.StateCrashed {
					log.Error().Msg("penum crashed")
				}
			}

			// Stop the listener first so no submissions arrive mid-shutdown
			cancel()
			if !serverDone {
				if err := <-serverErrCh; err != nil {
					log.Error().Err(err).Msg("ingress API failed")
				}
			}

			// Graceful shutdown
			if err := ing.Stop(); err != nil {
				return fmt.Errorf("stop penum: %w", err)
			}
			return nil
		},
	}

	// Flags
	root.Flags().StringVar(&cfgPath, "config", "", "path to config file (default: $HOME/.penum/config.toml)")
	root.Flags().StringSliceVar(&cfg.Relays, "relays", cfg.Relays, "relay endpoints sealed batches are forwarded to")
	root.Flags().StringVar(&cfg.RelaysFile, "relays-file", cfg.RelaysFile, "file with one relay URL per line, watched for updates")

	root.Flags().StringVar(&cfg.AuthKey, "auth-key", cfg.AuthKey, "API key for relay authentication")
	root.Flags().StringVar(&cfg.AuthKeyFile, "auth-key-file", cfg.AuthKeyFile, "file holding the relay API key")

	root.Flags().IntVar(&cfg.MaxBatchSize, "max-batch-size", cfg.MaxBatchSize, "transactions per sealed batch")
	root.Flags().DurationVar(&cfg.BatchTimeWindow, "batch-window", cfg.BatchTimeWindow, "maximum age of a pending batch before sealing")
	root.Flags().DurationVar(&cfg.PollInterval, "poll", cfg.PollInterval, "poll interval for the batch window")
	root.Flags().DurationVar(&cfg.HTTPTimeout, "timeout", cfg.HTTPTimeout, "HTTP timeout for relay requests")

	root.Flags().StringVar(&cfg.SeedPolicy, "seed-policy", cfg.SeedPolicy, "permutation seed policy: derived or secret")
	root.Flags().BoolVar(&cfg.StrictValidation, "strict", cfg.StrictValidation, "reject payloads that do not decode as signed transactions")
	root.Flags().StringVar(&cfg.AuditDir, "audit-dir", cfg.AuditDir, "directory for commitment audit logs (empty disables)")

	root.Flags().StringVar(&cfg.ListenHost, "listen-host", cfg.ListenHost, "HTTP API listen host")
	root.Flags().IntVar(&cfg.ListenPort, "listen-port", cfg.ListenPort, "HTTP API listen port")
	root.Flags().IntVar(&cfg.RequestsPerSecond, "rate-limit", cfg.RequestsPerSecond, "submission rate limit in requests per second (0 disables)")
	root.Flags().IntVar(&cfg.RateBurst, "rate-burst", cfg.RateBurst, "submission rate limit burst")
	root.Flags().Float64Var(&cfg.ShedThreshold, "shed-threshold", cfg.ShedThreshold, "load fraction above which submissions are shed (0 disables)")

	root.Flags().IntVar(&cfg.MaxBodyBytes, "max-body-bytes", cfg.MaxBodyBytes, "maximum request body size in bytes")
	if err := root.Flags().MarkHidden("max-body-bytes"); err != nil {
		log.Info().Err(err).Msg("failed to hide max-body-bytes flag")
	}

	if err := root.Execute(); err != nil {
		log.Error().Err(err).Msg("penumd")
		os.Exit(1)
	}
}
