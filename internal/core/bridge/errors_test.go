package bridge

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestErrorMatchesSentinel(t *testing.T) {
	cause := errors.New("broken pipe")
	err := newError(ErrorCodeWriteFailed, "send", "127.0.0.1:65432", cause)

	require.ErrorIs(t, err, ErrWriteFailed)
	require.ErrorIs(t, err, cause)
	require.NotErrorIs(t, err, ErrReadFailed)
	require.Equal(t, "bridge: send 127.0.0.1:65432: broken pipe", err.Error())

	wrapped := fmt.Errorf("publish: %w", err)
	require.Equal(t, ErrorCodeWriteFailed, GetErrorCode(wrapped))
}

func TestGetErrorCodeSentinels(t *testing.T) {
	require.Equal(t, ErrorCodeBridgeClosed, GetErrorCode(ErrBridgeClosed))
	require.Equal(t, ErrorCodeNotConnected, GetErrorCode(ErrNotConnected))
	require.Equal(t, ErrorCodeUnknown, GetErrorCode(errors.New("other")))
}

func TestClassifyDialError(t *testing.T) {
	require.Equal(t, ErrorCodeConnectionTimeout, classifyDialError(context.DeadlineExceeded))
	require.Equal(t, ErrorCodeConnectionTimeout, classifyDialError(timeoutErr{}))
	require.Equal(t, ErrorCodeConnectFailed, classifyDialError(errors.New("no route")))
}

func TestIsTemporary(t *testing.T) {
	require.True(t, newError(ErrorCodeConnectionRefused, "connect", "", nil).IsTemporary())
	require.False(t, newError(ErrorCodeBridgeClosed, "send", "", nil).IsTemporary())
}
