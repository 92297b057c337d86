// Package listeners wires the side effects of domain events: admin
// notifications through the queue, websocket pushes and broker publishing.
package listeners

import (
	"context"
	"fmt"

	"github.com/fakush/CoderHouse-Backend-EntregaFinal/app/jobs"
	"github.com/fakush/CoderHouse-Backend-EntregaFinal/app/models"
	"github.com/fakush/CoderHouse-Backend-EntregaFinal/app/notifications"
	"github.com/fakush/CoderHouse-Backend-EntregaFinal/app/services"
	"github.com/fakush/CoderHouse-Backend-EntregaFinal/pkg/event"
	"github.com/fakush/CoderHouse-Backend-EntregaFinal/pkg/queue"
)

// Dispatcher queues jobs.
type Dispatcher interface {
	Dispatch(ctx context.Context, job queue.Job) error
}

// Pusher delivers a JSON frame to every connection of a user.
type Pusher interface {
	Push(userID uint, v any)
}

// Publisher sends an event to a message broker.
type Publisher interface {
	PublishJSON(ctx context.Context, key string, v any) error
}

// ProductNamer resolves product names for notifications.
type ProductNamer interface {
	Get(ctx context.Context, id uint) (*models.Product, error)
}

// Deps are the collaborators of the listeners. Nil Pusher or Publisher
// disables that side effect.
type Deps struct {
	Queue     Dispatcher
	Products  ProductNamer
	Pusher    Pusher
	Publisher Publisher
	Slack     bool
}

// Register attaches the listeners to bus.
func Register(bus *event.Bus, d Deps) {
	bus.Listen(services.EventOrderCreated, notifyOrder(d))
	bus.Listen(services.EventChatEscalated, notifyEscalation(d))
	if d.Pusher != nil {
		bus.Listen(services.EventOrderCreated, pushOrder(d.Pusher))
		bus.Listen(services.EventOrderStatusChanged, pushStatus(d.Pusher))
	}
	if d.Publisher != nil {
		bus.Listen(services.EventOrderCreated, publish(d.Publisher, services.EventOrderCreated))
		bus.Listen(services.EventOrderStatusChanged, publish(d.Publisher, services.EventOrderStatusChanged))
	}
}

func notifyOrder(d Deps) event.Handler {
	return func(ctx context.Context, payload any) error {
		e, ok := payload.(services.OrderCreated)
		if !ok {
			return fmt.Errorf("listeners: unexpected payload %T", payload)
		}
		notice := notifications.OrderPlaced{
			OrderID:  e.Order.ID,
			Username: e.User.Username,
			Email:    e.User.Email,
			Total:    e.Order.Total,
			Slack:    d.Slack,
		}
		for _, it := range e.Order.Items {
			name := fmt.Sprintf("product %d", it.ProductID)
			if d.Products != nil {
				if p, err := d.Products.Get(ctx, it.ProductID); err == nil {
					name = p.Name
				}
			}
			notice.Lines = append(notice.Lines, notifications.Line{
				ProductID: it.ProductID, Name: name, Amount: it.Amount, UnitPrice: it.UnitPrice,
			})
		}
		return d.Queue.Dispatch(ctx, &jobs.SendOrderNotification{Notice: notice})
	}
}

func notifyEscalation(d Deps) event.Handler {
	return func(ctx context.Context, payload any) error {
		e, ok := payload.(services.ChatEscalated)
		if !ok {
			return fmt.Errorf("listeners: unexpected payload %T", payload)
		}
		return d.Queue.Dispatch(ctx, &jobs.EscalationMail{Notice: notifications.ChatEscalation{
			Username: e.Username, Email: e.Email, Message: e.Message,
		}})
	}
}

// OrderFrame is pushed to the owner's chat connections.
type OrderFrame struct {
	Type  string        `json:"type"`
	Order *models.Order `json:"order"`
}

func pushOrder(p Pusher) event.Handler {
	return func(_ context.Context, payload any) error {
		e, ok := payload.(services.OrderCreated)
		if !ok {
			return fmt.Errorf("listeners: unexpected payload %T", payload)
		}
		p.Push(e.Order.UserID, OrderFrame{Type: "order", Order: e.Order})
		return nil
	}
}

func pushStatus(p Pusher) event.Handler {
	return func(_ context.Context, payload any) error {
		e, ok := payload.(services.OrderStatusChanged)
		if !ok {
			return fmt.Errorf("listeners: unexpected payload %T", payload)
		}
		p.Push(e.Order.UserID, OrderFrame{Type: "order", Order: e.Order})
		return nil
	}
}

type brokerMessage struct {
	Event   string `json:"event"`
	OrderID uint   `json:"order_id"`
	UserID  uint   `json:"user_id"`
	Status  string `json:"status"`
	From    string `json:"from,omitempty"`
	Total   string `json:"total"`
}

func publish(pub Publisher, name string) event.Handler {
	return func(ctx context.Context, payload any) error {
		var msg brokerMessage
		switch e := payload.(type) {
		case services.OrderCreated:
			msg = brokerMessage{Event: name, OrderID: e.Order.ID, UserID: e.Order.UserID, Status: e.Order.Status, Total: e.Order.Total.String()}
		case services.OrderStatusChanged:
			msg = brokerMessage{Event: name, OrderID: e.Order.ID, UserID: e.Order.UserID, Status: e.To, From: e.From, Total: e.Order.Total.String()}
		default:
			return fmt.Errorf("listeners: unexpected payload %T", payload)
		}
		return pub.PublishJSON(ctx, name, msg)
	}
}
