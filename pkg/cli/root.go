// Package cli implements the druidctl command-line interface.
package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"druid-connect/internal/config"
)

var (
	version = "dev"
	commit  = "none"
)

// Execute runs the CLI.
func Execute() int {
	if err := config.LoadDotEnv(".env"); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	cfg, err := config.LoadFromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	})))

	rootCmd := newRootCmd(cfg)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func newRootCmd(cfg *config.Config) *cobra.Command {
	var (
		broker   string
		timeZone string
	)

	rootCmd := &cobra.Command{
		Use:           "druidctl",
		Short:         "Druid aggregation push-down tooling",
		Long:          "Inspect datasource metadata and explain how grouping/aggregation stages translate to native Druid queries.",
		Version:       fmt.Sprintf("%s (%s)", version, commit),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	defaultBroker := cfg.BrokerURL
	if defaultBroker == "" {
		defaultBroker = "http://localhost:8082"
	}

	rootCmd.PersistentFlags().StringVar(&broker, "broker", defaultBroker, "broker base URL")
	rootCmd.PersistentFlags().StringVar(&timeZone, "timezone", cfg.TimeZone, "time zone for time-group extraction")

	rootCmd.AddCommand(newExplainCmd(cfg, &broker, &timeZone))
	rootCmd.AddCommand(newMetadataCmd(cfg, &broker))
	rootCmd.AddCommand(newCommandsCmd())

	return rootCmd
}
