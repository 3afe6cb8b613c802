package console

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFilter(t *testing.T) {
	tests := map[string]struct {
		line string
		stop bool
	}{
		"  hello  ": {line: "hello"},
		"":          {line: ""},
		"exit":      {stop: true},
		" quit\n":   {stop: true},
		"exits":     {line: "exits"},
	}
	for raw, want := range tests {
		line, stop := Filter(raw)
		require.Equal(t, want.line, line, raw)
		require.Equal(t, want.stop, stop, raw)
	}
}

func TestSplitTopic(t *testing.T) {
	topic, data, ok := SplitTopic("chat hello there")
	require.True(t, ok)
	require.Equal(t, "chat", topic)
	require.Equal(t, "hello there", data)

	topic, data, ok = SplitTopic("ping")
	require.True(t, ok)
	require.Equal(t, "ping", topic)
	require.Empty(t, data)

	_, _, ok = SplitTopic("   ")
	require.False(t, ok)
}
