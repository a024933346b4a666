package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestError(t *testing.T) {
	e1 := New("cause1")
	e2 := New("cause2").Wrap(e1)
	e := New("dummy").Wrap(e2)
	e3 := e.Unwrap()
	assert.True(t, Is(e, e1))
	assert.True(t, Is(e, e2))
	assert.True(t, e3 == e2)
}

func TestWrapLeavesSentinelUntouched(t *testing.T) {
	sentinel := New("stale read")
	cause := fmt.Errorf("head moved")

	wrapped := sentinel.Wrap(cause)
	require.Nil(t, sentinel.Unwrap())
	assert.Equal(t, "stale read", sentinel.Error())
	assert.Equal(t, "stale read: head moved", wrapped.Error())

	assert.True(t, Is(wrapped, sentinel))
	assert.True(t, Is(wrapped, cause))
	assert.False(t, Is(wrapped, New("stale read")))

	again := wrapped.WrapMessage("branch %s", "master")
	assert.True(t, Is(again, sentinel))
	assert.Equal(t, "stale read: branch master", again.Error())
}

func TestWrapWithLog(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	logger := zap.New(core)

	sentinel := New("resolving error")
	err := sentinel.WrapWithLog(logger, fmt.Errorf("missing target"), zap.String("path", "/1/2"))

	assert.True(t, Is(err, sentinel))
	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "resolving error", entry.Message)
	assert.Equal(t, "/1/2", entry.ContextMap()["path"])
}

func TestAs(t *testing.T) {
	sentinel := New("outer")
	err := fmt.Errorf("context: %w", sentinel.Wrap(fmt.Errorf("inner")))

	var target *Error
	require.True(t, As(err, &target))
	assert.True(t, Is(target, sentinel))
}
