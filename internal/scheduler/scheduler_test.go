package scheduler

import (
	"bytes"
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tis24dev/savesync/internal/logging"
	"github.com/tis24dev/savesync/internal/orchestrator"
	"github.com/tis24dev/savesync/internal/types"
)

func quietLogger() (*logging.Logger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	logger := logging.New(types.LogLevelDebug, false)
	logger.SetOutput(buf)
	return logger, buf
}

func TestValidate(t *testing.T) {
	for _, spec := range []string{"0 0 */6 * * *", "*/5 * * * *", "@daily", "@every 2h"} {
		assert.NoError(t, Validate(spec), spec)
	}
	for _, spec := range []string{"", "not a schedule", "61 * * * *"} {
		assert.Error(t, Validate(spec), spec)
	}
}

func TestNewRejectsBadInput(t *testing.T) {
	logger, _ := quietLogger()
	_, err := New(logger, "@daily", nil)
	assert.Error(t, err)
	_, err = New(logger, "bogus", func(context.Context) error { return nil })
	assert.Error(t, err)
}

func TestFireCountsAndSkipsBusy(t *testing.T) {
	logger, buf := quietLogger()
	results := []error{nil, orchestrator.ErrBusy, errors.New("boom")}
	var calls int32
	s, err := New(logger, "@daily", func(context.Context) error {
		i := atomic.AddInt32(&calls, 1) - 1
		return results[i]
	})
	require.NoError(t, err)

	s.fire()
	s.fire()
	s.fire()

	fired, skipped := s.Stats()
	assert.Equal(t, 2, fired)
	assert.Equal(t, 1, skipped)
	assert.Contains(t, buf.String(), "SKIP")
	assert.Contains(t, buf.String(), "boom")
}

func TestFireIgnoresCancelledContext(t *testing.T) {
	logger, _ := quietLogger()
	var calls int32
	s, err := New(logger, "@daily", func(context.Context) error {
		atomic.AddInt32(&calls, 1)
		return nil
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s.ctx = ctx
	s.fire()
	assert.Zero(t, atomic.LoadInt32(&calls))
}

func TestStartStop(t *testing.T) {
	logger, _ := quietLogger()
	ran := make(chan struct{}, 4)
	s, err := New(logger, "@every 1s", func(ctx context.Context) error {
		ran <- struct{}{}
		return nil
	})
	require.NoError(t, err)
	assert.True(t, s.Next().IsZero())

	require.NoError(t, s.Start(context.Background()))
	assert.Error(t, s.Start(context.Background()), "second start must fail")
	assert.False(t, s.Next().IsZero())

	select {
	case <-ran:
	case <-time.After(5 * time.Second):
		t.Fatal("scheduled job never ran")
	}
	s.Stop()
	s.Stop()

	fired, _ := s.Stats()
	assert.GreaterOrEqual(t, fired, 1)
}
