package cmd

import (
	"context"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/zeusync/peerbridge/internal/config"
	"github.com/zeusync/peerbridge/internal/console"
	"github.com/zeusync/peerbridge/internal/core/observability/log"
	"github.com/zeusync/peerbridge/internal/core/relay"
	"github.com/zeusync/peerbridge/internal/injector"
	"golang.org/x/sync/errgroup"
)

var (
	relayHost string
	relayPort int
)

var relayCmd = &cobra.Command{
	Use:   "relay",
	Short: "Run a peer that prints routed topics and publishes console input",
	Long: `relay accepts a single client at a time. Lines received as
"topic;content" are printed per topic. Console input of the form
"topic data" is published to the client as "topic;data".`,
	RunE: func(cmd *cobra.Command, args []string) error {
		applyRelayFlags(cmd, cfg)

		out := cmd.OutOrStdout()
		factory := func(string) (relay.Sink, error) {
			return relay.SinkFunc(func(topic, content string) error {
				_, err := out.Write([]byte(time.Now().Format(time.TimeOnly) + " [" + topic + "] " + content + "\n"))
				return err
			}), nil
		}

		peer, cleanup, err := injector.InitializePeer(cfg, factory)
		if err != nil {
			return err
		}
		defer cleanup()

		if err := peer.Relay.Listen(); err != nil {
			return err
		}

		ctx, cancel := signalContext(cmd.Context())
		defer cancel()

		in, err := console.New(console.Config{Prompt: "relay> ", Stdin: os.Stdin, Stdout: out})
		if err != nil {
			return err
		}
		defer func() { _ = in.Close() }()

		g, ctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			return peer.Relay.Serve(ctx)
		})
		g.Go(func() error {
			defer cancel()
			return publishLines(ctx, peer, in.Lines(ctx))
		})
		return g.Wait()
	},
}

// applyRelayFlags copies explicitly set flags over the loaded config.
func applyRelayFlags(cmd *cobra.Command, c *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("host") {
		c.Relay.Host = relayHost
	}
	if flags.Changed("port") {
		c.Relay.Port = relayPort
	}
}

// publishLines forwards "topic data" console lines until input or ctx ends.
func publishLines(ctx context.Context, peer *injector.Peer, lines <-chan string) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			topic, data, ok := console.SplitTopic(line)
			if !ok {
				continue
			}
			if err := peer.Relay.Publish(topic, data); err != nil {
				peer.Logger.Debug("Publish skipped", log.String("topic", topic), log.Error(err))
			}
		}
	}
}

func init() {
	relayCmd.Flags().StringVar(&relayHost, "host", "", "listen host (overrides config)")
	relayCmd.Flags().IntVar(&relayPort, "port", 0, "listen port (overrides config)")
	rootCmd.AddCommand(relayCmd)
}
