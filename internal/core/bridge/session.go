package bridge

import (
	"errors"
	"io"
	"net"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/zeusync/peerbridge/internal/core/observability/log"
)

// session is one socket generation together with its reader goroutine.
type session struct {
	id   string
	addr string
	conn net.Conn

	// running is cleared by stop; the reader checks it every poll interval.
	running atomic.Bool
	// alive is cleared once the socket is known to be unusable.
	alive atomic.Bool
	done  chan struct{}
}

func newSession(conn net.Conn, addr string) *session {
	s := &session{
		id:   uuid.NewString(),
		addr: addr,
		conn: conn,
		done: make(chan struct{}),
	}
	s.running.Store(true)
	s.alive.Store(true)
	return s
}

// stop cancels the reader, waits for it and closes the socket. When the reader
// does not exit within joinTimeout the socket is closed first to unblock it.
// It reports whether that forced path was taken.
func (s *session) stop(joinTimeout time.Duration) (forced bool) {
	s.running.Store(false)
	s.alive.Store(false)

	timer := time.NewTimer(joinTimeout)
	defer timer.Stop()

	select {
	case <-s.done:
	case <-timer.C:
		forced = true
		_ = s.conn.SetReadDeadline(time.Now())
		_ = s.conn.Close()
		<-s.done
	}
	_ = s.conn.Close()
	return forced
}

// readLoop is the reader goroutine of s. It never returns an error: failures
// are reported through the disconnected flag and the log.
func (b *Bridge) readLoop(s *session) {
	defer close(s.done)

	logger := b.logger.With(log.String("session_id", s.id))
	logger.Debug("Reader started")

	bufp := b.buffers.Get()
	defer b.buffers.Put(bufp)
	buf := *bufp
	frames := newFramer(b.config.Delimiter, b.config.MaxFrameSize)

	for s.running.Load() {
		_ = s.conn.SetReadDeadline(time.Now().Add(b.config.PollInterval))
		n, err := s.conn.Read(buf)
		if n > 0 {
			b.stats.bytesReceived.Add(uint64(n))
			if dropped := frames.push(buf[:n], b.deliver); dropped > 0 {
				logger.Warn("Frame exceeded max size, delivered unterminated",
					log.Int("max_frame_size", b.config.MaxFrameSize))
			}
		}
		if err == nil || isTimeout(err) {
			continue
		}
		if !s.running.Load() {
			// teardown closed the socket under us
			break
		}

		s.alive.Store(false)
		b.disconnected.Store(true)
		b.stats.disconnects.Add(1)

		if errors.Is(err, io.EOF) {
			logger.Warn("Peer closed the connection", log.String("addr", s.addr))
		} else {
			logger.Error("Error while listening for data",
				log.Error(newError(ErrorCodeReadFailed, "read", s.addr, err)))
		}
		break
	}

	if pending := frames.pending(); pending > 0 {
		b.stats.droppedFrames.Add(1)
		logger.Debug("Discarding partial frame", log.Int("bytes", pending))
		frames.reset()
	}
	logger.Debug("Reader stopped")
}

// deliver decodes one frame and hands it to the inbound queue.
func (b *Bridge) deliver(frame []byte) {
	text, clean := b.codec.Decode(frame)
	if !clean {
		b.stats.decodeFailures.Add(1)
		b.logger.Debug("Received bytes not valid in payload encoding, replaced",
			log.String("encoding", b.config.Encoding))
	}
	b.inbox.Enqueue(text)
	b.stats.messagesReceived.Add(1)
}
