// Package schedule runs named periodic maintenance tasks.
//
//	s := schedule.New()
//	s.Every("cache.sweep", time.Minute, func(ctx context.Context) error {
//	    store.Sweep()
//	    return nil
//	})
//	go s.Start(ctx)
package schedule

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/fakush/CoderHouse-Backend-EntregaFinal/pkg/logger"
)

// Task is one run of a scheduled job.
type Task func(ctx context.Context) error

type entry struct {
	name     string
	interval time.Duration
	task     Task
}

// Scheduler runs each registered task on its own ticker. A run never
// overlaps with the previous run of the same task.
type Scheduler struct {
	mu      sync.Mutex
	entries []entry
}

func New() *Scheduler { return &Scheduler{} }

// Every registers task to run every interval. Register before Start.
func (s *Scheduler) Every(name string, interval time.Duration, task Task) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entry{name: name, interval: interval, task: task})
}

// Names lists the registered tasks.
func (s *Scheduler) Names() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.entries))
	for i, e := range s.entries {
		out[i] = e.name
	}
	return out
}

// Start blocks until ctx is cancelled and every running task has returned.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	entries := append([]entry(nil), s.entries...)
	s.mu.Unlock()

	var wg sync.WaitGroup
	for _, e := range entries {
		if e.interval <= 0 {
			logger.Warn("schedule: skipping task with no interval", "task", e.name)
			continue
		}
		wg.Add(1)
		go func(e entry) {
			defer wg.Done()
			loop(ctx, e)
		}(e)
	}
	logger.Info("schedule: started", "tasks", len(entries))
	wg.Wait()
	logger.Info("schedule: stopped")
}

func loop(ctx context.Context, e entry) {
	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := runOnce(ctx, e); err != nil {
				logger.Error("schedule: task failed", "task", e.name, "error", err)
			}
		}
	}
}

func runOnce(ctx context.Context, e entry) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v\n%s", r, debug.Stack())
		}
	}()
	start := time.Now()
	err = e.task(ctx)
	logger.Debug("schedule: task ran", "task", e.name, "duration", time.Since(start).String())
	return err
}
