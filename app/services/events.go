package services

import "github.com/fakush/CoderHouse-Backend-EntregaFinal/app/models"

// Event names fired on the bus.
const (
	EventOrderCreated       = "order.created"
	EventOrderStatusChanged = "order.status_changed"
	EventChatEscalated      = "chat.escalated"
)

// OrderCreated is the payload of EventOrderCreated.
type OrderCreated struct {
	Order *models.Order
	User  *models.User
}

// OrderStatusChanged is the payload of EventOrderStatusChanged.
type OrderStatusChanged struct {
	Order *models.Order
	From  string
	To    string
}

// ChatEscalated is the payload of EventChatEscalated.
type ChatEscalated struct {
	UserID   uint
	Username string
	Email    string
	Message  string
}
