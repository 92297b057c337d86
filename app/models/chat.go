package models

import "time"

// Chat message authors.
const (
	FromUser   = "user"
	FromSystem = "system"
)

// ChatMessage is one entry of a user's support log. Rows are append-only.
type ChatMessage struct {
	ID        uint      `gorm:"primaryKey"                          json:"id"`
	UserID    uint      `gorm:"not null;index:idx_chat_user_time"   json:"user_id"`
	From      string    `gorm:"column:sender;size:10;not null"      json:"from"`
	Message   string    `gorm:"type:text;not null"                  json:"message"`
	Timestamp time.Time `gorm:"not null;index:idx_chat_user_time"   json:"timestamp"`
}
