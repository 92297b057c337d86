package schedule_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/fakush/CoderHouse-Backend-EntregaFinal/pkg/schedule"
)

func TestEveryRunsUntilCancelled(t *testing.T) {
	s := schedule.New()
	var runs, failing atomic.Int32
	s.Every("count", 10*time.Millisecond, func(context.Context) error {
		runs.Add(1)
		return nil
	})
	s.Every("boom", 10*time.Millisecond, func(context.Context) error {
		failing.Add(1)
		if failing.Load() == 1 {
			panic("first run panics")
		}
		return errors.New("still failing")
	})
	assert.Equal(t, []string{"count", "boom"}, s.Names())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Start(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool { return runs.Load() >= 3 && failing.Load() >= 2 }, 2*time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop")
	}
}
