package repositories

import (
	"context"

	"gorm.io/gorm"

	"github.com/fakush/CoderHouse-Backend-EntregaFinal/app/models"
)

// ChatRepository stores the append-only support log.
type ChatRepository struct {
	db *gorm.DB
}

func NewChatRepository(db *gorm.DB) *ChatRepository {
	return &ChatRepository{db: db}
}

func (r *ChatRepository) Append(ctx context.Context, m *models.ChatMessage) error {
	return storeErr("append chat message", r.db.WithContext(ctx).Create(m).Error)
}

// Log returns the user's messages, oldest first.
func (r *ChatRepository) Log(ctx context.Context, userID uint) ([]models.ChatMessage, error) {
	return readRetry(ctx, func() ([]models.ChatMessage, error) {
		var out []models.ChatMessage
		err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("timestamp asc, id asc").Find(&out).Error
		return out, storeErr("read chat log", err)
	})
}
