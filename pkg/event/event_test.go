package event_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fakush/CoderHouse-Backend-EntregaFinal/pkg/event"
	"github.com/fakush/CoderHouse-Backend-EntregaFinal/pkg/workerpool"
)

func TestFireRunsInOrderAndJoinsErrors(t *testing.T) {
	bus := event.NewBus(nil)
	var got []string
	bus.Listen("order.created", func(_ context.Context, p any) error {
		got = append(got, "first:"+p.(string))
		return nil
	})
	bus.Listen("order.created", func(context.Context, any) error {
		got = append(got, "second")
		return errors.New("smtp down")
	})

	err := bus.Fire(context.Background(), "order.created", "7")
	assert.EqualError(t, err, "smtp down")
	assert.Equal(t, []string{"first:7", "second"}, got)

	assert.NoError(t, bus.Fire(context.Background(), "nobody.listens", nil))
}

func TestFireAsyncSurvivesCancelledCaller(t *testing.T) {
	pool := workerpool.New(2)
	defer pool.Shutdown()
	bus := event.NewBus(pool)

	var wg sync.WaitGroup
	wg.Add(1)
	var ctxErr error
	bus.Listen("order.created", func(ctx context.Context, _ any) error {
		defer wg.Done()
		ctxErr = ctx.Err()
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	bus.FireAsync(ctx, "order.created", nil)
	wg.Wait()

	assert.NoError(t, ctxErr)
}
