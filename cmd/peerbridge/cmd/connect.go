package cmd

import (
	"context"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/zeusync/peerbridge/internal/config"
	"github.com/zeusync/peerbridge/internal/console"
	"github.com/zeusync/peerbridge/internal/core/bridge"
	"github.com/zeusync/peerbridge/internal/core/observability/log"
	"github.com/zeusync/peerbridge/internal/injector"
)

var (
	connectHost string
	connectPort int
	connectTick time.Duration
)

var connectCmd = &cobra.Command{
	Use:   "connect",
	Short: "Connect to a peer, print what it sends and send console input",
	RunE: func(cmd *cobra.Command, args []string) error {
		applyConnectFlags(cmd, cfg)

		host, cleanup, err := injector.InitializeHost(cfg)
		if err != nil {
			return err
		}
		defer cleanup()

		in, err := console.New(console.Config{Prompt: "-> ", Stdin: os.Stdin, Stdout: cmd.OutOrStdout()})
		if err != nil {
			return err
		}
		defer func() { _ = in.Close() }()

		host.Router.HandleUnrouted(func(m bridge.Message) {
			in.Printf("<- %s\n", m.Raw)
		})

		ctx, cancel := signalContext(cmd.Context())
		defer cancel()

		if err := host.Bridge.Start(ctx); err != nil {
			host.Logger.Warn("Initial connect failed, will retry on send", log.Error(err))
		}

		return runHostLoop(ctx, host, in.Lines(ctx), cfg.TickInterval)
	},
}

// applyConnectFlags copies explicitly set flags over the loaded config.
func applyConnectFlags(cmd *cobra.Command, c *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("host") {
		c.Bridge.Host = connectHost
	}
	if flags.Changed("port") {
		c.Bridge.Port = connectPort
	}
	if flags.Changed("tick") {
		c.TickInterval = connectTick
	}
}

// runHostLoop drains the bridge once per tick and sends every console line.
func runHostLoop(ctx context.Context, host *injector.Host, lines <-chan string, tick time.Duration) error {
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	wasDisconnected := host.Bridge.Disconnected()
	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			if err := host.Bridge.Send(line); err != nil {
				host.Logger.Error("Send failed", log.Error(err), log.Int("code", int(bridge.GetErrorCode(err))))
			}
		case <-ticker.C:
			host.Bridge.Update()
			if d := host.Bridge.Disconnected(); d != wasDisconnected {
				if d {
					host.Logger.Warn("Peer disconnected", log.String("target", host.Bridge.Target()))
				} else {
					host.Logger.Info("Peer connected", log.String("session", host.Bridge.SessionID()))
				}
				wasDisconnected = d
			}
		}
	}
}

func init() {
	connectCmd.Flags().StringVar(&connectHost, "host", "", "peer host (overrides config)")
	connectCmd.Flags().IntVar(&connectPort, "port", 0, "peer port (overrides config)")
	connectCmd.Flags().DurationVar(&connectTick, "tick", 0, "drain interval (overrides config)")
	rootCmd.AddCommand(connectCmd)
}
