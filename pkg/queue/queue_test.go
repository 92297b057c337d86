package queue_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/fakush/CoderHouse-Backend-EntregaFinal/pkg/queue"
)

type echoJob struct {
	Val  string `json:"val"`
	seen chan string
}

func (j *echoJob) Handle(context.Context) error {
	j.seen <- j.Val
	return nil
}

type failJob struct {
	attempts *atomic.Int32
}

func (j *failJob) Handle(context.Context) error {
	j.attempts.Add(1)
	return errors.New("always fails")
}

func startManager(t *testing.T, m *queue.Manager) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		m.Run(ctx, 2)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
}

func TestDispatchAndProcess(t *testing.T) {
	m := queue.NewManager(queue.NewMemoryDriver(10))
	seen := make(chan string, 1)
	m.Register(&echoJob{}, func() queue.Job { return &echoJob{seen: seen} })
	startManager(t, m)

	require.NoError(t, m.Dispatch(context.Background(), &echoJob{Val: "hello"}))

	select {
	case v := <-seen:
		assert.Equal(t, "hello", v)
	case <-time.After(2 * time.Second):
		t.Fatal("job was not processed")
	}
}

func TestFailedJobPersisted(t *testing.T) {
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&queue.FailedJobRecord{}))

	attempts := &atomic.Int32{}
	m := queue.NewManager(queue.NewMemoryDriver(10),
		queue.WithMaxRetry(3),
		queue.WithBackoff(func(int) time.Duration { return 0 }),
		queue.WithFailedStore(db),
	)
	m.Register(&failJob{}, func() queue.Job { return &failJob{attempts: attempts} })
	startManager(t, m)

	require.NoError(t, m.Dispatch(context.Background(), &failJob{}))

	assert.Eventually(t, func() bool { return len(m.Failed()) == 1 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, int32(3), attempts.Load())

	rows, err := m.ListFailed(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, queue.TypeName(&failJob{}), rows[0].JobType)
	assert.Equal(t, "always fails", rows[0].Error)
}

func TestDispatchAfterWithoutDelayedDriver(t *testing.T) {
	m := queue.NewManager(queue.NewMemoryDriver(10))
	seen := make(chan string, 1)
	m.Register(&echoJob{}, func() queue.Job { return &echoJob{seen: seen} })
	startManager(t, m)

	require.NoError(t, m.DispatchAfter(context.Background(), &echoJob{Val: "later"}, 20*time.Millisecond))

	select {
	case v := <-seen:
		assert.Equal(t, "later", v)
	case <-time.After(2 * time.Second):
		t.Fatal("delayed job was not processed")
	}
}
