// Package queue runs background jobs with retries.
//
// Jobs are JSON-encoded into an envelope carrying their type name, pushed to
// a Driver (memory or Redis) and decoded by workers through a registry of
// factories. The factory is where a job gets its dependencies back:
//
//	q.Register(&jobs.SendOrderNotification{}, func() queue.Job {
//	    return &jobs.SendOrderNotification{Mailer: mailer}
//	})
//	q.Dispatch(ctx, &jobs.SendOrderNotification{OrderID: 7})
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/fakush/CoderHouse-Backend-EntregaFinal/pkg/logger"
	"github.com/fakush/CoderHouse-Backend-EntregaFinal/pkg/metrics"
)

// Job is a unit of background work. A non-nil error triggers a retry.
type Job interface {
	Handle(ctx context.Context) error
}

// Driver stores encoded jobs.
type Driver interface {
	Push(ctx context.Context, payload []byte) error
	// Pop blocks until a payload is available. A nil payload with a nil error
	// means the wait timed out.
	Pop(ctx context.Context) ([]byte, error)
}

// DelayedDriver can hold a job until a point in time.
type DelayedDriver interface {
	PushDelayed(ctx context.Context, payload []byte, delay time.Duration) error
}

// FailedJob is an in-memory record of a job that exhausted its retries.
type FailedJob struct {
	Type     string
	Err      error
	FailedAt time.Time
	Attempts int
}

type envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Manager dispatches jobs and runs workers.
type Manager struct {
	driver   Driver
	maxRetry int
	backoff  func(attempt int) time.Duration
	db       *gorm.DB

	mu       sync.RWMutex
	registry map[string]func() Job
	failed   []FailedJob
}

// Option configures a Manager.
type Option func(*Manager)

// WithMaxRetry sets the number of attempts per job.
func WithMaxRetry(n int) Option {
	return func(m *Manager) {
		if n > 0 {
			m.maxRetry = n
		}
	}
}

// WithBackoff replaces the linear one-second-per-attempt backoff.
func WithBackoff(f func(attempt int) time.Duration) Option {
	return func(m *Manager) { m.backoff = f }
}

// WithFailedStore persists exhausted jobs into the failed_jobs table.
func WithFailedStore(db *gorm.DB) Option {
	return func(m *Manager) { m.db = db }
}

// NewManager returns a Manager over driver.
func NewManager(driver Driver, opts ...Option) *Manager {
	m := &Manager{
		driver:   driver,
		maxRetry: 3,
		backoff:  func(attempt int) time.Duration { return time.Duration(attempt) * time.Second },
		registry: map[string]func() Job{},
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// TypeName is the registry key for job.
func TypeName(job Job) string { return fmt.Sprintf("%T", job) }

// Register makes the type of prototype decodable. factory must return the
// same concrete type.
func (m *Manager) Register(prototype Job, factory func() Job) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.registry[TypeName(prototype)] = factory
}

func (m *Manager) encode(job Job) ([]byte, error) {
	typeName := TypeName(job)
	payload, err := json.Marshal(job)
	if err != nil {
		return nil, fmt.Errorf("queue: marshal job %s: %w", typeName, err)
	}
	env, err := json.Marshal(envelope{Type: typeName, Payload: payload})
	if err != nil {
		return nil, fmt.Errorf("queue: marshal envelope: %w", err)
	}
	return env, nil
}

// Dispatch queues job for immediate processing.
func (m *Manager) Dispatch(ctx context.Context, job Job) error {
	env, err := m.encode(job)
	if err != nil {
		return err
	}
	return m.driver.Push(ctx, env)
}

// DispatchAfter queues job once delay has passed.
func (m *Manager) DispatchAfter(ctx context.Context, job Job, delay time.Duration) error {
	env, err := m.encode(job)
	if err != nil {
		return err
	}
	if d, ok := m.driver.(DelayedDriver); ok {
		return d.PushDelayed(ctx, env, delay)
	}
	detached := context.WithoutCancel(ctx)
	time.AfterFunc(delay, func() {
		if err := m.driver.Push(detached, env); err != nil {
			logger.Error("queue: delayed dispatch failed", "error", err)
		}
	})
	return nil
}

// Run starts n workers and blocks until ctx is cancelled and every worker
// has finished its current job.
func (m *Manager) Run(ctx context.Context, n int) {
	if n <= 0 {
		n = 1
	}
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.work(ctx)
		}()
	}
	logger.Info("queue: workers started", "count", n)
	wg.Wait()
	logger.Info("queue: workers stopped")
}

func (m *Manager) work(ctx context.Context) {
	for ctx.Err() == nil {
		raw, err := m.driver.Pop(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.Warn("queue: pop failed", "error", err)
			sleep(ctx, 500*time.Millisecond)
			continue
		}
		if raw == nil {
			continue
		}
		m.process(ctx, raw)
	}
}

func (m *Manager) process(ctx context.Context, raw []byte) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		logger.Error("queue: bad envelope", "error", err)
		return
	}

	m.mu.RLock()
	factory, ok := m.registry[env.Type]
	m.mu.RUnlock()
	if !ok {
		logger.Warn("queue: unregistered job type", "type", env.Type)
		return
	}

	job := factory()
	if err := json.Unmarshal(env.Payload, job); err != nil {
		logger.Error("queue: unmarshal payload", "type", env.Type, "error", err)
		return
	}
	m.runWithRetry(ctx, job, env.Type, env.Payload)
}

func (m *Manager) runWithRetry(ctx context.Context, job Job, typeName string, payload []byte) {
	start := time.Now()
	var lastErr error
	for attempt := 1; attempt <= m.maxRetry; attempt++ {
		if lastErr = job.Handle(ctx); lastErr == nil {
			metrics.RecordQueueJob(typeName, "success", start)
			logger.Info("queue: job processed", "type", typeName, "attempt", attempt)
			return
		}
		logger.Warn("queue: job failed", "type", typeName, "attempt", attempt, "error", lastErr)
		if attempt < m.maxRetry && !sleep(ctx, m.backoff(attempt)) {
			break
		}
	}

	metrics.RecordQueueJob(typeName, "failed", start)
	logger.Error("queue: job exhausted retries", "type", typeName, "error", lastErr)
	m.persistFailed(context.WithoutCancel(ctx), typeName, payload, lastErr, m.maxRetry)
}

// Failed returns the jobs that exhausted their retries since start-up.
func (m *Manager) Failed() []FailedJob {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]FailedJob(nil), m.failed...)
}

// sleep waits for d or ctx, reporting false when ctx ended first.
func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
