// Package config loads the YAML configuration shared by the peerbridge commands.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"time"

	"github.com/zeusync/peerbridge/internal/core/bridge"
	"github.com/zeusync/peerbridge/internal/core/observability/log"
	"github.com/zeusync/peerbridge/internal/core/relay"
	"gopkg.in/yaml.v3"
)

// Config is the file layout:
//
//	log:
//	  level: debug
//	bridge:
//	  host: 127.0.0.1
//	  port: 65432
//	  delimiter: "\n"
//	relay:
//	  port: 65432
//	tick_interval: 16ms
type Config struct {
	Log    log.Config    `yaml:"log"`
	Bridge bridge.Config `yaml:"bridge"`
	Relay  relay.Config  `yaml:"relay"`

	// TickInterval is the period of the host loop driven by the connect command.
	TickInterval time.Duration `yaml:"tick_interval"`
}

func Default() Config {
	return Config{
		Log:          log.DefaultConfig(),
		Bridge:       bridge.DefaultConfig(),
		Relay:        relay.DefaultConfig(),
		TickInterval: 16 * time.Millisecond,
	}
}

// Load reads path over the defaults. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			c := Default()
			return &c, nil
		}
		return nil, err
	}
	defer f.Close()

	c, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// Decode reads YAML from r over the defaults and validates the result.
func Decode(r io.Reader) (*Config, error) {
	c := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c Config) Validate() error {
	if c.TickInterval <= 0 {
		return errors.New("tick_interval must be positive")
	}
	if err := c.Bridge.Validate(); err != nil {
		return err
	}
	return c.Relay.Validate()
}

// Marshal renders c as YAML.
func (c Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}
