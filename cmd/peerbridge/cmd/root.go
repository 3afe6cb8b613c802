package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/zeusync/peerbridge/internal/config"
	"github.com/zeusync/peerbridge/internal/core/observability/log"
)

var (
	cfgFile  string
	logLevel string

	// Set during PersistentPreRun
	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "peerbridge",
	Short: "Bidirectional TCP bridge between a host loop and a remote peer",
	Long: `peerbridge connects a polling host loop to a remote TCP peer.

"connect" runs the host side: it keeps a connection open, buffers inbound
messages and drains them once per tick. "relay" runs a minimal peer that
accepts one client and routes "topic;content" lines to sinks.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if logLevel != "" {
			level, err := log.ParseLevel(logLevel)
			if err != nil {
				return err
			}
			cfg.Log.Level = level
		}
		return nil
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// RootCmd returns the root cobra.Command for testing purposes.
func RootCmd() *cobra.Command {
	return rootCmd
}

func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "peerbridge.yaml", "config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override log level: debug, info, warn, error, silent")
}
