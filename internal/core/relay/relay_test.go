package relay

import (
	"context"
	"errors"
	"io"
	"net"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/zeusync/peerbridge/internal/core/observability/log"
)

type recorded struct {
	topic   string
	content string
}

type recorder struct {
	mu       sync.Mutex
	messages []recorded
	created  map[string]int
}

func newRecorder() *recorder {
	return &recorder{created: make(map[string]int)}
}

func (r *recorder) factory(topic string) (Sink, error) {
	r.mu.Lock()
	r.created[topic]++
	r.mu.Unlock()
	if topic == "/forbidden" {
		return nil, errors.New("topic not allowed")
	}
	return SinkFunc(func(topic, content string) error {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.messages = append(r.messages, recorded{topic, content})
		return nil
	}), nil
}

func (r *recorder) snapshot() []recorded {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]recorded(nil), r.messages...)
}

func startRelay(t *testing.T, factory SinkFactory) (*Relay, <-chan error) {
	t.Helper()

	cfg := DefaultConfig()
	cfg.Port = 0
	cfg.ReadTimeout = 20 * time.Millisecond
	cfg.NoClientWarnEvery = 2

	r, err := New(cfg, factory, nil)
	require.NoError(t, err)
	require.NoError(t, r.Listen())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Serve(ctx) }()

	t.Cleanup(func() {
		cancel()
		select {
		case <-done:
		case <-time.After(2 * time.Second):
		}
	})
	return r, done
}

func dial(t *testing.T, r *Relay) net.Conn {
	t.Helper()
	conn, err := net.Dial("tcp", r.Addr().String())
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	require.Eventually(t, r.HasClient, 2*time.Second, 5*time.Millisecond)
	return conn
}

func TestRelayParse(t *testing.T) {
	r, err := New(DefaultConfig(), nil, nil)
	require.NoError(t, err)

	topic, content, ok := r.Parse("my_ros2_topic;a;b")
	require.True(t, ok)
	require.Equal(t, "my_ros2_topic", topic)
	require.Equal(t, "a;b", content)

	_, _, ok = r.Parse("no separator")
	require.False(t, ok)
}

func TestRelayDispatchesToTopicSinks(t *testing.T) {
	rec := newRecorder()
	r, _ := startRelay(t, rec.factory)
	conn := dial(t, r)
	require.NotEmpty(t, r.ClientID())

	_, err := conn.Write([]byte("/cmd;forward;1.5\n"))
	require.NoError(t, err)
	_, err = conn.Write([]byte("invalid\n/cmd;stop\n/forbidden;x\n/gps;1;2"))
	require.NoError(t, err)

	require.Eventually(t, func() bool { return len(rec.snapshot()) == 3 }, 2*time.Second, 5*time.Millisecond)
	require.Equal(t, []recorded{
		{"/cmd", "forward;1.5"},
		{"/cmd", "stop"},
		{"/gps", "1;2"},
	}, rec.snapshot())

	rec.mu.Lock()
	require.Equal(t, 1, rec.created["/cmd"], "sink is created once per topic")
	rec.mu.Unlock()
	require.Equal(t, []string{"/cmd", "/gps"}, r.Topics())
}

func TestRelayPublish(t *testing.T) {
	r, _ := startRelay(t, newRecorder().factory)

	for i := 0; i < 3; i++ {
		require.ErrorIs(t, r.Publish("my_ros2_topic", "dropped"), ErrNoClient)
	}

	conn := dial(t, r)
	require.NoError(t, r.Publish("my_ros2_topic", "hello"))

	want := "my_ros2_topic;hello"
	buf := make([]byte, len(want))
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, err := io.ReadFull(conn, buf)
	require.NoError(t, err)
	require.Equal(t, want, string(buf))
}

func TestRelayNoClientWarningIsThrottled(t *testing.T) {
	path := filepath.Join(t.TempDir(), "relay.log")
	logger, err := log.NewWithConfig(log.Config{Level: log.LevelInfo, OutputPaths: []string{path}})
	require.NoError(t, err)

	cfg := DefaultConfig()
	cfg.NoClientWarnEvery = 3
	r, err := New(cfg, nil, logger)
	require.NoError(t, err)

	warnings := func() int {
		require.NoError(t, logger.Sync())
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		return strings.Count(string(data), "No active TCP client")
	}

	for i := 0; i < 2; i++ {
		require.ErrorIs(t, r.Publish("t", "x"), ErrNoClient)
	}
	require.Zero(t, warnings(), "drops below the threshold are silent")

	require.ErrorIs(t, r.Publish("t", "x"), ErrNoClient)
	require.Equal(t, 1, warnings())

	for i := 0; i < 3; i++ {
		require.ErrorIs(t, r.Publish("t", "x"), ErrNoClient)
	}
	require.Equal(t, 2, warnings(), "the counter restarts after each warning")
}

func TestRelayClientDisconnectFreesSlot(t *testing.T) {
	r, _ := startRelay(t, newRecorder().factory)

	first := dial(t, r)
	require.NoError(t, first.Close())
	require.Eventually(t, func() bool { return !r.HasClient() }, 2*time.Second, 5*time.Millisecond)

	second := dial(t, r)
	require.NoError(t, r.Publish("t", "x"))
	buf := make([]byte, 3)
	require.NoError(t, second.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, err := io.ReadFull(second, buf)
	require.NoError(t, err)
	require.Equal(t, "t;x", string(buf))
}

func TestRelayServeStopsOnCancel(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Port = 0
	cfg.ReadTimeout = 20 * time.Millisecond
	r, err := New(cfg, nil, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Serve(ctx) }()

	require.Eventually(t, func() bool { return r.Addr() != nil }, 2*time.Second, 5*time.Millisecond)
	conn, err := net.Dial("tcp", r.Addr().String())
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, r.HasClient, 2*time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
	require.False(t, r.HasClient())
	require.ErrorIs(t, r.Listen(), ErrRelayClosed)
}

func TestRelayConfigValidate(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())

	cfg := DefaultConfig()
	cfg.Separator = ""
	_, err := New(cfg, nil, nil)
	require.ErrorIs(t, err, ErrInvalidConfig)

	cfg = DefaultConfig()
	cfg.NoClientWarnEvery = 0
	require.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
}
