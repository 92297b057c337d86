package queue

import (
	"context"
	"encoding/json"
	"time"

	"github.com/fakush/CoderHouse-Backend-EntregaFinal/pkg/logger"
)

// FailedJobRecord is a row of the failed_jobs table.
type FailedJobRecord struct {
	ID       uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	JobType  string    `gorm:"size:255;not null;index" json:"job_type"`
	Payload  string    `gorm:"type:text;not null" json:"payload"`
	Error    string    `gorm:"type:text" json:"error"`
	Attempts int       `gorm:"not null;default:0" json:"attempts"`
	FailedAt time.Time `gorm:"autoCreateTime" json:"failed_at"`
}

func (FailedJobRecord) TableName() string { return "failed_jobs" }

func (m *Manager) persistFailed(ctx context.Context, typeName string, payload []byte, lastErr error, attempts int) {
	now := time.Now()
	m.mu.Lock()
	m.failed = append(m.failed, FailedJob{Type: typeName, Err: lastErr, FailedAt: now, Attempts: attempts})
	m.mu.Unlock()

	if m.db == nil {
		return
	}
	msg := ""
	if lastErr != nil {
		msg = lastErr.Error()
	}
	record := FailedJobRecord{
		JobType:  typeName,
		Payload:  string(payload),
		Error:    msg,
		Attempts: attempts,
		FailedAt: now,
	}
	if err := m.db.WithContext(ctx).Create(&record).Error; err != nil {
		logger.Error("queue: persist failed job", "type", typeName, "error", err)
	}
}

// ListFailed returns persisted failures, newest first.
func (m *Manager) ListFailed(ctx context.Context) ([]FailedJobRecord, error) {
	if m.db == nil {
		return nil, nil
	}
	var out []FailedJobRecord
	err := m.db.WithContext(ctx).Order("id desc").Find(&out).Error
	return out, err
}

// RetryFailed pushes a persisted failure back onto the queue and removes the row.
func (m *Manager) RetryFailed(ctx context.Context, id uint) error {
	var rec FailedJobRecord
	if err := m.db.WithContext(ctx).First(&rec, id).Error; err != nil {
		return err
	}
	env, err := json.Marshal(envelope{Type: rec.JobType, Payload: json.RawMessage(rec.Payload)})
	if err != nil {
		return err
	}
	if err := m.driver.Push(ctx, env); err != nil {
		return err
	}
	return m.db.WithContext(ctx).Delete(&rec).Error
}
