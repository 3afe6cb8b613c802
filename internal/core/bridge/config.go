package bridge

import (
	"fmt"
	"net"
	"strconv"
	"time"
)

// Config holds the connection settings of a Bridge.
type Config struct {
	// Peer address
	Host string `yaml:"host"`
	Port int    `yaml:"port"`

	// Timeouts
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
	// PollInterval is the read deadline of the reader goroutine and therefore
	// the upper bound on how long Teardown waits for it to notice cancellation.
	PollInterval time.Duration `yaml:"poll_interval"`
	JoinTimeout  time.Duration `yaml:"join_timeout"`

	// Payload settings
	ReadBufferSize  int    `yaml:"read_buffer_size"`
	Encoding        string `yaml:"encoding"`
	Delimiter       string `yaml:"delimiter"` // empty: one message per read
	AppendDelimiter bool   `yaml:"append_delimiter"`
	MaxFrameSize    int    `yaml:"max_frame_size"`

	// FieldSeparator splits payloads for the default Router.
	FieldSeparator string `yaml:"field_separator"`
}

// DefaultConfig returns the settings used by the original relay pairing.
func DefaultConfig() Config {
	return Config{
		Host:           "127.0.0.1",
		Port:           65432,
		ConnectTimeout: 3 * time.Second,
		WriteTimeout:   2 * time.Second,
		PollInterval:   50 * time.Millisecond,
		JoinTimeout:    time.Second,
		ReadBufferSize: 4096,
		Encoding:       EncodingUTF8,
		MaxFrameSize:   1024 * 1024, // 1MB
		FieldSeparator: ";",
	}
}

// Address returns host:port.
func (c Config) Address() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Validate reports the first invalid setting, wrapped in ErrInvalidConfig.
func (c Config) Validate() error {
	switch {
	case c.Host == "":
		return fmt.Errorf("%w: host is empty", ErrInvalidConfig)
	case c.Port <= 0 || c.Port > 65535:
		return fmt.Errorf("%w: port %d out of range", ErrInvalidConfig, c.Port)
	case c.ConnectTimeout <= 0:
		return fmt.Errorf("%w: connect_timeout must be positive", ErrInvalidConfig)
	case c.PollInterval <= 0:
		return fmt.Errorf("%w: poll_interval must be positive", ErrInvalidConfig)
	case c.JoinTimeout <= 0:
		return fmt.Errorf("%w: join_timeout must be positive", ErrInvalidConfig)
	case c.WriteTimeout < 0:
		return fmt.Errorf("%w: write_timeout must not be negative", ErrInvalidConfig)
	case c.ReadBufferSize <= 0:
		return fmt.Errorf("%w: read_buffer_size must be positive", ErrInvalidConfig)
	case c.Delimiter != "" && c.MaxFrameSize < c.ReadBufferSize:
		return fmt.Errorf("%w: max_frame_size %d smaller than read_buffer_size %d",
			ErrInvalidConfig, c.MaxFrameSize, c.ReadBufferSize)
	case c.FieldSeparator == "":
		return fmt.Errorf("%w: field_separator is empty", ErrInvalidConfig)
	}
	if _, err := newTextCodec(c.Encoding); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}
