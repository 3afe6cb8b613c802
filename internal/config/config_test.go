package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/zeusync/peerbridge/internal/core/bridge"
	"github.com/zeusync/peerbridge/internal/core/observability/log"
)

const sample = `
log:
  level: debug
  encoding: console
bridge:
  host: 10.0.0.2
  port: 7000
  poll_interval: 25ms
  delimiter: "\n"
  append_delimiter: true
  encoding: ascii
relay:
  port: 7000
  no_client_warn_every: 10
tick_interval: 20ms
`

func TestDecodeOverridesDefaults(t *testing.T) {
	c, err := Decode(strings.NewReader(sample))
	require.NoError(t, err)

	require.Equal(t, log.LevelDebug, c.Log.Level)
	require.Equal(t, "console", c.Log.Encoding)

	require.Equal(t, "10.0.0.2", c.Bridge.Host)
	require.Equal(t, 7000, c.Bridge.Port)
	require.Equal(t, 25*time.Millisecond, c.Bridge.PollInterval)
	require.Equal(t, "\n", c.Bridge.Delimiter)
	require.True(t, c.Bridge.AppendDelimiter)
	require.Equal(t, bridge.EncodingASCII, c.Bridge.Encoding)
	// untouched keys keep their defaults
	require.Equal(t, bridge.DefaultConfig().ConnectTimeout, c.Bridge.ConnectTimeout)
	require.Equal(t, 4096, c.Bridge.ReadBufferSize)

	require.Equal(t, 7000, c.Relay.Port)
	require.Equal(t, 10, c.Relay.NoClientWarnEvery)
	require.Equal(t, 20*time.Millisecond, c.TickInterval)
}

func TestDecodeEmptyIsDefault(t *testing.T) {
	c, err := Decode(strings.NewReader(""))
	require.NoError(t, err)
	require.Equal(t, Default(), *c)
}

func TestDecodeRejectsUnknownAndInvalid(t *testing.T) {
	_, err := Decode(strings.NewReader("bridge:\n  hots: x\n"))
	require.Error(t, err)

	_, err = Decode(strings.NewReader("bridge:\n  port: 0\n"))
	require.ErrorIs(t, err, bridge.ErrInvalidConfig)

	_, err = Decode(strings.NewReader("log:\n  level: chatty\n"))
	require.Error(t, err)

	_, err = Decode(strings.NewReader("tick_interval: 0s\n"))
	require.Error(t, err)
}

func TestLoad(t *testing.T) {
	c, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	require.Equal(t, Default(), *c)

	path := filepath.Join(t.TempDir(), "peerbridge.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o600))
	c, err = Load(path)
	require.NoError(t, err)
	require.Equal(t, 7000, c.Bridge.Port)
}

func TestMarshalRoundTrip(t *testing.T) {
	in := Default()
	in.Bridge.Delimiter = "\r\n"
	in.Log.Level = log.LevelWarn

	data, err := in.Marshal()
	require.NoError(t, err)

	out, err := Decode(bytes.NewReader(data))
	require.NoError(t, err)
	require.Equal(t, in, *out)
}
