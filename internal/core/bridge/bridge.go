// Package bridge connects a single-threaded host loop to a peer process over
// one persistent TCP socket.
//
// A background reader goroutine decodes inbound data into an unbounded FIFO;
// the host drains it by calling Update once per tick, which runs the
// MessageHandler on the host's own goroutine. Outbound payloads are written
// synchronously by Send, which reconnects once when the link is down.
package bridge

import (
	"context"
	"net"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/zeusync/peerbridge/internal/core/observability/log"
	"github.com/zeusync/peerbridge/pkg/generic"
	"github.com/zeusync/peerbridge/pkg/sequence"
)

// MessageHandler consumes one inbound payload. It is always called from
// Update, never concurrently with itself.
type MessageHandler func(payload string)

// Bridge owns the peer connection, its reader goroutine and the inbound queue.
type Bridge struct {
	config  Config
	codec   textCodec
	dialer  net.Dialer
	handler MessageHandler
	inbox   *sequence.Queue[string]
	buffers *generic.Pool[*[]byte]
	logger  log.Log
	stats   counters

	// mu serializes connection lifecycle changes and guards the fields below.
	mu      sync.Mutex
	session *session
	host    string
	port    int

	disconnected atomic.Bool
	closed       atomic.Bool
}

// New creates a Bridge that is not yet connected. A nil handler routes
// payloads through a Router with no registered topics; a nil logger discards
// output.
func New(config Config, handler MessageHandler, logger log.Log) (*Bridge, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	codec, err := newTextCodec(config.Encoding)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.NewNop()
	}
	logger = logger.With(log.String("component", "bridge"))
	if handler == nil {
		handler = NewRouter(config.FieldSeparator, logger).Dispatch
	}

	b := &Bridge{
		config:  config,
		codec:   codec,
		dialer:  net.Dialer{Timeout: config.ConnectTimeout},
		handler: handler,
		inbox:   sequence.NewQueue[string](),
		buffers: generic.NewBufferPool(config.ReadBufferSize),
		logger:  logger,
		host:    config.Host,
		port:    config.Port,
	}
	b.disconnected.Store(true)
	return b, nil
}

// Start connects to the configured peer.
func (b *Bridge) Start(ctx context.Context) error {
	return b.Connect(ctx, b.config.Host, b.config.Port)
}

// Connect replaces any existing connection with a new one to host:port.
// On failure the bridge is left disconnected with no reader running.
func (b *Bridge) Connect(ctx context.Context, host string, port int) error {
	if b.closed.Load() {
		return ErrBridgeClosed
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	// Shutdown may have torn down while we waited for mu
	if b.closed.Load() {
		return ErrBridgeClosed
	}
	return b.connectLocked(ctx, host, port)
}

// Reconnect connects again to the last requested target.
func (b *Bridge) Reconnect(ctx context.Context) error {
	if b.closed.Load() {
		return ErrBridgeClosed
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed.Load() {
		return ErrBridgeClosed
	}
	b.stats.reconnects.Add(1)
	return b.connectLocked(ctx, b.host, b.port)
}

func (b *Bridge) connectLocked(ctx context.Context, host string, port int) error {
	b.teardownLocked()

	b.host, b.port = host, port
	addr := net.JoinHostPort(host, strconv.Itoa(port))

	dialCtx, cancel := context.WithTimeout(ctx, b.config.ConnectTimeout)
	defer cancel()

	conn, err := b.dialer.DialContext(dialCtx, "tcp", addr)
	if err != nil {
		b.disconnected.Store(true)
		b.stats.connectFailures.Add(1)
		b.logger.Warn("Could not connect to peer",
			log.String("addr", addr),
			log.Error(err))
		return newError(classifyDialError(err), "connect", addr, err)
	}

	s := newSession(conn, addr)
	b.session = s
	b.disconnected.Store(false)
	b.stats.connects.Add(1)

	b.logger.Info("Connected to peer",
		log.String("addr", addr),
		log.String("local_addr", conn.LocalAddr().String()),
		log.String("session_id", s.id))

	go b.readLoop(s)
	return nil
}

// Send writes payload to the peer. When no live connection exists it makes
// one reconnect attempt first and drops the payload if that fails. Errors
// are returned, never panicked, and always leave Disconnected() true.
func (b *Bridge) Send(payload string) error {
	if b.closed.Load() {
		return ErrBridgeClosed
	}

	s, err := b.liveSession()
	if err != nil {
		b.stats.sendFailures.Add(1)
		return err
	}

	data := b.codec.Encode(b.frame(payload))

	if b.config.WriteTimeout > 0 {
		_ = s.conn.SetWriteDeadline(time.Now().Add(b.config.WriteTimeout))
	}
	n, err := s.conn.Write(data)
	b.stats.bytesSent.Add(uint64(n))
	if err != nil {
		s.alive.Store(false)
		b.disconnected.Store(true)
		b.stats.sendFailures.Add(1)
		b.logger.Warn("Error while sending data",
			log.String("session_id", s.id),
			log.Error(err))
		return newError(ErrorCodeWriteFailed, "send", s.addr, err)
	}

	b.disconnected.Store(false)
	b.stats.messagesSent.Add(1)
	return nil
}

// liveSession returns the current session, reconnecting once if it is gone.
func (b *Bridge) liveSession() (*session, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed.Load() {
		return nil, ErrBridgeClosed
	}
	if s := b.session; s != nil && s.alive.Load() {
		return s, nil
	}

	b.logger.Warn("Connection is not established, attempting reconnect")
	b.stats.reconnects.Add(1)
	if err := b.connectLocked(context.Background(), b.host, b.port); err != nil {
		b.logger.Warn("Reconnect failed, dropping message")
		return nil, newError(ErrorCodeNotConnected, "send",
			net.JoinHostPort(b.host, strconv.Itoa(b.port)), err)
	}
	return b.session, nil
}

func (b *Bridge) frame(payload string) string {
	if b.config.AppendDelimiter && b.config.Delimiter != "" &&
		!strings.HasSuffix(payload, b.config.Delimiter) {
		return payload + b.config.Delimiter
	}
	return payload
}

// Update drains the inbound queue, calling the handler for each message in
// arrival order. It must be called from the host loop; it returns the number
// of messages dispatched.
func (b *Bridge) Update() int {
	dispatched := 0
	for {
		msg, ok := b.inbox.TryDequeue()
		if !ok {
			return dispatched
		}
		b.handler(msg)
		b.stats.messagesDispatched.Add(1)
		dispatched++
	}
}

// Teardown stops the reader and closes the socket. It is safe to call
// repeatedly and before any connection was made.
func (b *Bridge) Teardown() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.teardownLocked()
}

func (b *Bridge) teardownLocked() {
	s := b.session
	if s == nil {
		return
	}
	b.session = nil
	b.disconnected.Store(true)

	if forced := s.stop(b.config.JoinTimeout); forced {
		b.logger.Warn("Reader did not stop in time, socket closed to unblock it",
			log.String("session_id", s.id),
			log.Duration("join_timeout", b.config.JoinTimeout))
	}
	b.logger.Debug("Connection closed",
		log.String("addr", s.addr),
		log.String("session_id", s.id))
}

// Shutdown tears the connection down and rejects further use of the bridge.
// Messages still queued can be drained with Update.
func (b *Bridge) Shutdown() {
	if !b.closed.CompareAndSwap(false, true) {
		return
	}
	b.Teardown()
	b.logger.Info("Bridge shut down")
}

// Disconnected reports the last known link health.
func (b *Bridge) Disconnected() bool {
	return b.disconnected.Load()
}

// Connected reports whether a live session exists.
func (b *Bridge) Connected() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.session != nil && b.session.alive.Load()
}

// Closed reports whether Shutdown has been called.
func (b *Bridge) Closed() bool {
	return b.closed.Load()
}

// SessionID returns the id of the current socket generation, or "".
func (b *Bridge) SessionID() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.session == nil {
		return ""
	}
	return b.session.id
}

// Target returns the address used by Reconnect.
func (b *Bridge) Target() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return net.JoinHostPort(b.host, strconv.Itoa(b.port))
}

// Pending returns the number of inbound messages awaiting Update.
func (b *Bridge) Pending() int {
	return b.inbox.Len()
}

// Stats returns a snapshot of the bridge counters and the current queue depth.
func (b *Bridge) Stats() Stats {
	return b.stats.snapshot(b.inbox.Len())
}
