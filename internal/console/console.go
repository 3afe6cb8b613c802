// Package console reads operator input for the peerbridge commands.
package console

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"
)

// Config controls the readline prompt.
type Config struct {
	Prompt      string
	HistoryFile string
	Stdin       io.ReadCloser
	Stdout      io.Writer
}

// Console turns interactive input into a stream of trimmed, non-empty lines.
type Console struct {
	rl *readline.Instance
}

func New(cfg Config) (*Console, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:            cfg.Prompt,
		HistoryFile:       cfg.HistoryFile,
		HistoryLimit:      1000,
		HistorySearchFold: true,
		InterruptPrompt:   "^C",
		EOFPrompt:         "exit",
		Stdin:             cfg.Stdin,
		Stdout:            cfg.Stdout,
	})
	if err != nil {
		return nil, err
	}
	return &Console{rl: rl}, nil
}

// Lines emits input until EOF, interrupt, "exit"/"quit" or ctx is done.
// The channel is closed when input ends.
func (c *Console) Lines(ctx context.Context) <-chan string {
	out := make(chan string)
	go func() {
		defer close(out)
		for {
			raw, err := c.rl.Readline()
			if err != nil {
				return
			}
			line, stop := Filter(raw)
			if stop {
				return
			}
			if line == "" {
				continue
			}
			select {
			case out <- line:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// Printf writes above the prompt without garbling the input line.
func (c *Console) Printf(format string, args ...any) {
	_, _ = fmt.Fprintf(c.rl.Stdout(), format, args...)
}

func (c *Console) Close() error {
	err := c.rl.Close()
	if errors.Is(err, readline.ErrInterrupt) || errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

// Filter trims a raw input line and reports whether it asks to quit.
func Filter(raw string) (string, bool) {
	line := strings.TrimSpace(raw)
	switch line {
	case "exit", "quit":
		return "", true
	}
	return line, false
}

// SplitTopic separates "topic data..." into its parts.
func SplitTopic(line string) (topic, data string, ok bool) {
	topic, data, _ = strings.Cut(strings.TrimSpace(line), " ")
	if topic == "" {
		return "", "", false
	}
	return topic, strings.TrimSpace(data), true
}
