package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingSweeper struct {
	calls atomic.Int32
	err   error
}

func (s *countingSweeper) SweepExpirations(context.Context, time.Time) (int, error) {
	s.calls.Add(1)
	return 1, s.err
}

func TestStartExpirySweeper_RunsUntilCancelled(t *testing.T) {
	sw := &countingSweeper{}
	ctx, cancel := context.WithCancel(context.Background())
	done := StartExpirySweeper(ctx, sw, 10*time.Millisecond)

	require.Eventually(t, func() bool { return sw.calls.Load() >= 3 }, time.Second, 5*time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("el sweeper no terminó al cancelar el contexto")
	}
}

func TestStartExpirySweeper_ErrorsDoNotStopLoop(t *testing.T) {
	sw := &countingSweeper{err: errors.New("db caída")}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	StartExpirySweeper(ctx, sw, 5*time.Millisecond)

	assert.Eventually(t, func() bool { return sw.calls.Load() >= 2 }, time.Second, 5*time.Millisecond)
}

func TestStartExpirySweeper_Disabled(t *testing.T) {
	sw := &countingSweeper{}
	done := StartExpirySweeper(context.Background(), sw, 0)

	_, open := <-done
	assert.False(t, open)
	assert.Equal(t, int32(0), sw.calls.Load())
}
