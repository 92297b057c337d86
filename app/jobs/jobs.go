// Package jobs holds the queued background work. Exported fields travel
// through the queue; dependencies are restored by the factories in Register.
package jobs

import (
	"context"
	"errors"

	"github.com/fakush/CoderHouse-Backend-EntregaFinal/app/notifications"
	"github.com/fakush/CoderHouse-Backend-EntregaFinal/pkg/notification"
	"github.com/fakush/CoderHouse-Backend-EntregaFinal/pkg/queue"
)

// Sender delivers notifications.
type Sender interface {
	Send(ctx context.Context, address string, n notification.Notification) error
}

// SendOrderNotification tells the administrator about a new order.
type SendOrderNotification struct {
	Notice notifications.OrderPlaced `json:"notice"`

	sender     Sender
	adminEmail string
}

func (j *SendOrderNotification) Handle(ctx context.Context) error {
	if j.sender == nil {
		return errors.New("jobs: SendOrderNotification has no sender")
	}
	return j.sender.Send(ctx, j.adminEmail, &j.Notice)
}

// EscalationMail forwards a chat message to the administrator.
type EscalationMail struct {
	Notice notifications.ChatEscalation `json:"notice"`

	sender     Sender
	adminEmail string
}

func (j *EscalationMail) Handle(ctx context.Context) error {
	if j.sender == nil {
		return errors.New("jobs: EscalationMail has no sender")
	}
	return j.sender.Send(ctx, j.adminEmail, &j.Notice)
}

// Register makes every job decodable by q's workers.
func Register(q *queue.Manager, sender Sender, adminEmail string) {
	q.Register(&SendOrderNotification{}, func() queue.Job {
		return &SendOrderNotification{sender: sender, adminEmail: adminEmail}
	})
	q.Register(&EscalationMail{}, func() queue.Job {
		return &EscalationMail{sender: sender, adminEmail: adminEmail}
	})
}
