package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order statuses.
const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusShipped   = "shipped"
	StatusDelivered = "delivered"
	StatusCancelled = "cancelled"
)

var transitions = map[string][]string{
	StatusPending:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusShipped, StatusCancelled},
	StatusShipped:   {StatusDelivered},
}

// CanTransition reports whether an order may move from one status to another.
func CanTransition(from, to string) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Order is an immutable snapshot of a cart plus its status.
type Order struct {
	ID        uint            `gorm:"primaryKey"                            json:"id"`
	UserID    uint            `gorm:"not null;index"                        json:"user_id"`
	Status    string          `gorm:"size:20;not null;default:pending"      json:"status"`
	Total     decimal.Decimal `gorm:"type:decimal(12,2);not null"           json:"total"`
	Items     []OrderItem     `gorm:"foreignKey:OrderID"                    json:"items"`
	Events    []OrderEvent    `gorm:"foreignKey:OrderID"                    json:"events,omitempty"`
	CreatedAt time.Time       `gorm:"index"                                 json:"created_at"`
	UpdatedAt time.Time       `                                             json:"updated_at"`
}

// OrderItem is never updated after insert.
type OrderItem struct {
	ID        uint            `gorm:"primaryKey"                  json:"-"`
	OrderID   uint            `gorm:"not null;index"              json:"-"`
	ProductID uint            `gorm:"not null"                    json:"product_id"`
	Amount    int             `gorm:"not null"                    json:"amount"`
	UnitPrice decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"unit_price"`
}

// Subtotal is UnitPrice × Amount.
func (i OrderItem) Subtotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Amount)))
}

// OrderEvent records one status change.
type OrderEvent struct {
	ID      uint      `gorm:"primaryKey"                        json:"-"`
	OrderID uint      `gorm:"not null;index"                    json:"-"`
	From    string    `gorm:"column:from_status;size:20"        json:"from"`
	To      string    `gorm:"column:to_status;size:20;not null" json:"to"`
	At      time.Time `gorm:"not null"                          json:"at"`
}
