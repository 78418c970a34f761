// Package cli provides the command-line interface for news-cache.
package cli

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/scalewithchintan/news-cache/pkg/cache"
	"github.com/scalewithchintan/news-cache/pkg/config"
	"github.com/scalewithchintan/news-cache/pkg/logging"
	"github.com/scalewithchintan/news-cache/pkg/redisconn"
)

// Version and Commit are set via ldflags at build time.
var (
	Version = "dev"
	Commit  = "none"
)

var (
	logLevel  string
	logPretty bool
)

var rootCmd = &cobra.Command{
	Use:   "news-cache",
	Short: "Serve and store the latest technology news in Redis",
	Long: "news-cache reads the latest news articles from whichever Redis layout holds them " +
		"(envelope, sorted index, list or per-article keys) and stores ingested batches " +
		"as an envelope plus a time-sorted index.",
	SilenceUsage: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "news-cache %s (%s)\n", Version, Commit)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error (overrides LOG_LEVEL)")
	rootCmd.PersistentFlags().BoolVar(&logPretty, "pretty", false, "human-readable log output (overrides LOG_PRETTY)")
	rootCmd.AddCommand(versionCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// app bundles what every Redis-backed command needs.
type app struct {
	cfg     *config.Config
	logger  zerolog.Logger
	manager *redisconn.Manager
}

func newApp(cmd *cobra.Command) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	if logLevel != "" {
		if _, err := logging.ParseLevel(logLevel); err != nil {
			return nil, fmt.Errorf("parse --log-level: %w", err)
		}
		cfg.Log.Level = logLevel
	}
	if logPretty {
		cfg.Log.Pretty = true
	}

	logCfg := cfg.LoggingConfig()
	logCfg.Output = cmd.ErrOrStderr()
	logger := logging.Setup(logCfg)

	return &app{
		cfg:     cfg,
		logger:  logger,
		manager: redisconn.NewManager(cfg.RedisOptions(), logger),
	}, nil
}

func (a *app) reader() *cache.Reader {
	return cache.NewReader(a.manager, a.cfg.Keys, a.logger)
}

func (a *app) writer() *cache.Writer {
	return cache.NewWriter(a.manager, a.cfg.Keys, a.logger)
}

func (a *app) close() {
	if err := a.manager.Close(); err != nil {
		a.logger.Warn().Err(err).Msg("Closing Redis connection")
	}
}
