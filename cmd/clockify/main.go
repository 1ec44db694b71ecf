// Package main is the entrypoint for the clockify command line client.
package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/Sternrassler/clockify-client/pkg/client"
	"github.com/Sternrassler/clockify-client/pkg/clockify"
	"github.com/Sternrassler/clockify-client/pkg/config"
	"github.com/Sternrassler/clockify-client/pkg/logging"
	"github.com/Sternrassler/clockify-client/pkg/metrics"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// Build-time variables set via ldflags.
var (
	Version = "dev"
	Commit  = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// app carries state shared by subcommands once the root command has run its
// pre-run hook.
type app struct {
	configPath  string
	url         string
	apiKey      string
	logLevel    string
	pretty      bool
	metricsAddr string

	cfg           *config.Config
	session       *clockify.Session
	logger        zerolog.Logger
	metricsServer *http.Server
}

func newRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "clockify",
		Short: "Track time with Clockify from the command line",
		Long: `clockify talks to the Clockify time tracking API on behalf of the
owner of an API key, in that user's first workspace.

The API key is read from ~/.clockify/config.yml, the CLOCKIFY_API_KEY
environment variable or the --api-key flag, in increasing priority.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if skipSession(cmd) {
				return nil
			}
			return a.setup(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.shutdown()
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "config file (default ~/.clockify/config.yml)")
	flags.StringVar(&a.url, "url", "", "Clockify API base URL")
	flags.StringVar(&a.apiKey, "api-key", "", "Clockify API key")
	flags.StringVar(&a.logLevel, "log-level", "", "log level (debug, info, warn, error, disabled)")
	flags.BoolVar(&a.pretty, "pretty", false, "human readable log output")
	flags.StringVar(&a.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address while the command runs")

	rootCmd.AddCommand(
		newVersionCmd(),
		newConfigCmd(a),
		newWhoamiCmd(a),
		newWorkspacesCmd(a),
		newProjectsCmd(a),
		newTasksCmd(a),
		newStartCmd(a),
		newStopCmd(a),
		newEntriesCmd(a),
	)

	return rootCmd
}

// skipSession reports whether cmd runs without an API session.
func skipSession(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		switch c.Name() {
		case "version", "config", "help":
			return true
		}
	}
	return false
}

// loadConfig reads the config file, then applies environment and flag
// overrides.
func (a *app) loadConfig() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if a.configPath != "" {
		cfg, err = config.Load(a.configPath)
	} else {
		cfg, err = config.LoadDefault()
	}
	if err != nil {
		return nil, err
	}

	cfg.ApplyEnv()
	if a.url != "" {
		cfg.URL = a.url
	}
	if a.apiKey != "" {
		cfg.APIKey = a.apiKey
	}
	if a.logLevel != "" {
		cfg.LogLevel = a.logLevel
	}
	return cfg, nil
}

func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := a.loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logCfg := cfg.LoggingConfig()
	logCfg.Pretty = a.pretty
	logCfg.Output = cmd.ErrOrStderr()
	logging.Setup(logCfg)
	a.logger = logging.NewLogger("clockify-cli")

	srv, err := client.NewServer(cfg.ServerConfig())
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.session = clockify.NewSession(clockify.NewClient(srv), cfg.APIKey)

	if a.metricsAddr != "" {
		if err := a.serveMetrics(); err != nil {
			return err
		}
	}
	return nil
}

// serveMetrics exposes /metrics on metricsAddr until shutdown.
func (a *app) serveMetrics() error {
	ln, err := net.Listen("tcp", a.metricsAddr)
	if err != nil {
		return fmt.Errorf("listen on metrics address: %w", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	a.metricsServer = &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := a.metricsServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error().Err(err).Msg("Metrics server failed")
		}
	}()
	a.logger.Info().Str("addr", ln.Addr().String()).Msg("Serving metrics")
	return nil
}

func (a *app) shutdown() error {
	if a.metricsServer == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return a.metricsServer.Shutdown(ctx)
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "clockify %s (commit %s, user agent %s)\n", Version, Commit, client.DefaultUserAgent)
		},
	}
}
