// Package relay implements the peer end of a bridge: a TCP listener that
// serves one client at a time, turns "topic;content" payloads into per-topic
// publications and writes "topic;data" messages back to the client.
package relay

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/zeusync/peerbridge/internal/core/observability/log"
	"github.com/zeusync/peerbridge/pkg/generic"
	"golang.org/x/sync/errgroup"
)

var (
	ErrNoClient      = errors.New("no active client")
	ErrRelayClosed   = errors.New("relay is closed")
	ErrInvalidConfig = errors.New("invalid relay configuration")
)

// Config holds relay settings.
type Config struct {
	Host              string        `yaml:"host"`
	Port              int           `yaml:"port"`
	ReadTimeout       time.Duration `yaml:"read_timeout"`
	WriteTimeout      time.Duration `yaml:"write_timeout"`
	ReadBufferSize    int           `yaml:"read_buffer_size"`
	Separator         string        `yaml:"separator"`
	NoClientWarnEvery int           `yaml:"no_client_warn_every"`
}

func DefaultConfig() Config {
	return Config{
		Host:              "127.0.0.1",
		Port:              65432,
		ReadTimeout:       time.Second,
		WriteTimeout:      2 * time.Second,
		ReadBufferSize:    1024,
		Separator:         ";",
		NoClientWarnEvery: 60,
	}
}

func (c Config) Address() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

func (c Config) Validate() error {
	switch {
	case c.Port < 0 || c.Port > 65535:
		return fmt.Errorf("%w: port %d out of range", ErrInvalidConfig, c.Port)
	case c.ReadTimeout <= 0:
		return fmt.Errorf("%w: read_timeout must be positive", ErrInvalidConfig)
	case c.ReadBufferSize <= 0:
		return fmt.Errorf("%w: read_buffer_size must be positive", ErrInvalidConfig)
	case c.Separator == "":
		return fmt.Errorf("%w: separator is empty", ErrInvalidConfig)
	case c.NoClientWarnEvery <= 0:
		return fmt.Errorf("%w: no_client_warn_every must be positive", ErrInvalidConfig)
	}
	return nil
}

// Relay is a single-client TCP endpoint.
type Relay struct {
	config  Config
	sinks   *sinkRegistry
	buffers *generic.Pool[*[]byte]
	logger  log.Log
	closeMu sync.Mutex
	closed  bool

	listener net.Listener

	mu           sync.Mutex
	client       net.Conn
	clientID     string
	noClientHits int
}

// New creates a relay. A nil factory logs every publication.
func New(config Config, factory SinkFactory, logger log.Log) (*Relay, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.NewNop()
	}
	logger = logger.With(log.String("component", "relay"))
	if factory == nil {
		factory = LogSinkFactory(logger)
	}
	return &Relay{
		config:  config,
		sinks:   newSinkRegistry(factory),
		buffers: generic.NewBufferPool(config.ReadBufferSize),
		logger:  logger,
	}, nil
}

// Listen binds the listening socket. Serve calls it when needed.
func (r *Relay) Listen() error {
	r.closeMu.Lock()
	defer r.closeMu.Unlock()

	if r.closed {
		return ErrRelayClosed
	}
	if r.listener != nil {
		return nil
	}
	ln, err := net.Listen("tcp", r.config.Address())
	if err != nil {
		return fmt.Errorf("listen %s: %w", r.config.Address(), err)
	}
	r.listener = ln
	r.logger.Info("Server listening", log.String("addr", ln.Addr().String()))
	return nil
}

// Addr returns the bound address, or nil before Listen.
func (r *Relay) Addr() net.Addr {
	r.closeMu.Lock()
	defer r.closeMu.Unlock()
	if r.listener == nil {
		return nil
	}
	return r.listener.Addr()
}

// Serve accepts clients one after another until ctx is cancelled or Close is
// called. A second client waits in the backlog until the first disconnects.
func (r *Relay) Serve(ctx context.Context) error {
	if err := r.Listen(); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		<-ctx.Done()
		_ = r.Close()
		return nil
	})

	g.Go(func() error {
		defer cancel()
		for {
			conn, err := r.listener.Accept()
			if err != nil {
				if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
					return nil
				}
				return fmt.Errorf("accept: %w", err)
			}
			r.handleClient(ctx, conn)
		}
	})

	err := g.Wait()
	r.logger.Info("Shutting down TCP server")
	return err
}

func (r *Relay) handleClient(ctx context.Context, conn net.Conn) {
	id := uuid.NewString()
	logger := r.logger.With(
		log.String("client_id", id),
		log.String("remote_addr", conn.RemoteAddr().String()))
	logger.Info("Connected by client")

	r.mu.Lock()
	r.client = conn
	r.clientID = id
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		if r.client == conn {
			r.client = nil
			r.clientID = ""
		}
		r.mu.Unlock()
		_ = conn.Close()
		logger.Info("Closing connection with client")
	}()

	bufp := r.buffers.Get()
	defer r.buffers.Put(bufp)
	buf := *bufp
	for ctx.Err() == nil && !r.isClosed() {
		_ = conn.SetReadDeadline(time.Now().Add(r.config.ReadTimeout))
		n, err := conn.Read(buf)
		if n > 0 {
			r.process(logger, buf[:n])
		}
		if err == nil {
			continue
		}
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			continue
		}
		if !errors.Is(err, io.EOF) && !errors.Is(err, net.ErrClosed) {
			logger.Error("Error handling client", log.Error(err))
		}
		return
	}
}

// process handles one read. Each non-empty line is a "topic;content" message.
func (r *Relay) process(logger log.Log, chunk []byte) {
	text := strings.ToValidUTF8(string(chunk), "\uFFFD")
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		topic, content, ok := r.Parse(line)
		if !ok {
			logger.Error("Invalid message format. Expected 'topic_name;message_content'",
				log.String("message", line))
			continue
		}
		sink, created, err := r.sinks.get(topic)
		if err != nil {
			logger.Error("Failed to get or create a sink", log.String("topic", topic), log.Error(err))
			continue
		}
		if created {
			logger.Info("Created new sink for topic", log.String("topic", topic))
		}
		if err = sink.Publish(topic, content); err != nil {
			logger.Error("Sink rejected message", log.String("topic", topic), log.Error(err))
		}
	}
}

// Parse splits "topic;content". Content keeps any further separators.
func (r *Relay) Parse(message string) (topic, content string, ok bool) {
	parts := strings.SplitN(message, r.config.Separator, 2)
	if len(parts) < 2 {
		return "", "", false
	}
	return parts[0], parts[1], true
}

// Publish sends "topic;data" to the connected client. Without a client the
// message is dropped and ErrNoClient returned; the warning is rate limited.
func (r *Relay) Publish(topic, data string) error {
	r.mu.Lock()
	conn := r.client
	if conn == nil {
		r.noClientHits++
		warn := r.noClientHits >= r.config.NoClientWarnEvery
		if warn {
			r.noClientHits = 0
		}
		r.mu.Unlock()
		if warn {
			r.logger.Warn("No active TCP client. Message not sent.", log.String("topic", topic))
		}
		return ErrNoClient
	}
	r.noClientHits = 0
	r.mu.Unlock()

	if r.config.WriteTimeout > 0 {
		_ = conn.SetWriteDeadline(time.Now().Add(r.config.WriteTimeout))
	}
	if _, err := conn.Write([]byte(topic + r.config.Separator + data)); err != nil {
		r.logger.Error("Failed to send message over TCP", log.String("topic", topic), log.Error(err))
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	return nil
}

// HasClient reports whether a client is connected.
func (r *Relay) HasClient() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.client != nil
}

// ClientID returns the id assigned to the connected client, or "".
func (r *Relay) ClientID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.clientID
}

// Topics returns the topics that have a sink, sorted.
func (r *Relay) Topics() []string {
	topics := r.sinks.topics()
	sort.Strings(topics)
	return topics
}

func (r *Relay) isClosed() bool {
	r.closeMu.Lock()
	defer r.closeMu.Unlock()
	return r.closed
}

// Close stops accepting clients and disconnects the current one.
func (r *Relay) Close() error {
	r.closeMu.Lock()
	if r.closed {
		r.closeMu.Unlock()
		return nil
	}
	r.closed = true
	ln := r.listener
	r.closeMu.Unlock()

	r.mu.Lock()
	if r.client != nil {
		_ = r.client.SetReadDeadline(time.Now())
	}
	r.mu.Unlock()

	if ln != nil {
		return ln.Close()
	}
	return nil
}
