// Package migration applies and rolls back versioned schema changes and
// tracks them in the migrations table.
//
//	func init() {
//	    migration.Register("20240101000000_create_users_table", createUsers{})
//	}
//
//	shop migrate             // run all pending
//	shop migrate:rollback    // roll back the last batch
package migration

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/fakush/CoderHouse-Backend-EntregaFinal/pkg/logger"
)

// Migration is one reversible schema change.
type Migration interface {
	Up(tx *gorm.DB) error
	Down(tx *gorm.DB) error
}

// Record is a row of the tracking table.
type Record struct {
	ID    uint      `gorm:"primaryKey;autoIncrement"`
	Name  string    `gorm:"uniqueIndex;size:255;not null"`
	Batch int       `gorm:"not null"`
	RunAt time.Time `gorm:"autoCreateTime"`
}

func (Record) TableName() string { return "migrations" }

type registered struct {
	name string
	m    Migration
}

var (
	mu       sync.Mutex
	registry = map[string]Migration{}
)

// Register adds a migration. Names are applied in lexical order, so prefix
// them with a timestamp. Registering a name twice panics.
func Register(name string, m Migration) {
	mu.Lock()
	defer mu.Unlock()
	if _, dup := registry[name]; dup {
		panic("migration: duplicate name " + name)
	}
	registry[name] = m
}

func all() []registered {
	mu.Lock()
	defer mu.Unlock()
	out := make([]registered, 0, len(registry))
	for name, m := range registry {
		out = append(out, registered{name: name, m: m})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].name < out[j].name })
	return out
}

// Status is the state of one registered migration.
type Status struct {
	Name  string
	Ran   bool
	Batch int
}

// Runner executes and tracks migrations.
type Runner struct {
	db  *gorm.DB
	out io.Writer
}

// New returns a Runner. Progress lines go to out, which may be nil.
func New(db *gorm.DB, out io.Writer) *Runner {
	if out == nil {
		out = io.Discard
	}
	return &Runner{db: db, out: out}
}

func (r *Runner) ensureTable(ctx context.Context) error {
	if err := r.db.WithContext(ctx).AutoMigrate(&Record{}); err != nil {
		return fmt.Errorf("migration: ensure table: %w", err)
	}
	return nil
}

func (r *Runner) ran(ctx context.Context) (map[string]Record, error) {
	var rows []Record
	if err := r.db.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("migration: read table: %w", err)
	}
	out := make(map[string]Record, len(rows))
	for _, rec := range rows {
		out[rec.Name] = rec
	}
	return out, nil
}

func (r *Runner) lastBatch(ctx context.Context) (int, error) {
	var max struct{ Max int }
	err := r.db.WithContext(ctx).Model(&Record{}).Select("COALESCE(MAX(batch), 0) AS max").Scan(&max).Error
	return max.Max, err
}

// Run applies every pending migration as one batch and returns how many ran.
// Each migration and its tracking row commit in the same transaction.
func (r *Runner) Run(ctx context.Context) (int, error) {
	if err := r.ensureTable(ctx); err != nil {
		return 0, err
	}
	done, err := r.ran(ctx)
	if err != nil {
		return 0, err
	}
	batch, err := r.lastBatch(ctx)
	if err != nil {
		return 0, fmt.Errorf("migration: read batch: %w", err)
	}
	batch++

	count := 0
	for _, reg := range all() {
		if _, ok := done[reg.name]; ok {
			continue
		}
		err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := reg.m.Up(tx); err != nil {
				return err
			}
			return tx.Create(&Record{Name: reg.name, Batch: batch}).Error
		})
		if err != nil {
			return count, fmt.Errorf("migration: %s up: %w", reg.name, err)
		}
		count++
		logger.Info("migration: applied", "name", reg.name, "batch", batch)
		fmt.Fprintf(r.out, "Migrated: %s\n", reg.name)
	}
	if count == 0 {
		fmt.Fprintln(r.out, "Nothing to migrate.")
	}
	return count, nil
}

// Rollback reverts the most recent batch, newest first.
func (r *Runner) Rollback(ctx context.Context) (int, error) {
	if err := r.ensureTable(ctx); err != nil {
		return 0, err
	}
	batch, err := r.lastBatch(ctx)
	if err != nil {
		return 0, fmt.Errorf("migration: read batch: %w", err)
	}
	if batch == 0 {
		fmt.Fprintln(r.out, "Nothing to roll back.")
		return 0, nil
	}

	var records []Record
	if err := r.db.WithContext(ctx).Where("batch = ?", batch).Order("name desc").Find(&records).Error; err != nil {
		return 0, fmt.Errorf("migration: read batch %d: %w", batch, err)
	}

	mu.Lock()
	known := make(map[string]Migration, len(registry))
	for k, v := range registry {
		known[k] = v
	}
	mu.Unlock()

	count := 0
	for _, rec := range records {
		m, ok := known[rec.Name]
		if !ok {
			return count, fmt.Errorf("migration: cannot roll back %s: not registered", rec.Name)
		}
		err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := m.Down(tx); err != nil {
				return err
			}
			return tx.Delete(&Record{}, rec.ID).Error
		})
		if err != nil {
			return count, fmt.Errorf("migration: %s down: %w", rec.Name, err)
		}
		count++
		logger.Info("migration: rolled back", "name", rec.Name)
		fmt.Fprintf(r.out, "Rolled back: %s\n", rec.Name)
	}
	return count, nil
}

// Status lists every registered migration in apply order.
func (r *Runner) Status(ctx context.Context) ([]Status, error) {
	if err := r.ensureTable(ctx); err != nil {
		return nil, err
	}
	done, err := r.ran(ctx)
	if err != nil {
		return nil, err
	}
	regs := all()
	out := make([]Status, 0, len(regs))
	for _, reg := range regs {
		rec, ok := done[reg.name]
		out = append(out, Status{Name: reg.name, Ran: ok, Batch: rec.Batch})
	}
	return out, nil
}
