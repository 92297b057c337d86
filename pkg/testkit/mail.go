package testkit

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/fakush/CoderHouse-Backend-EntregaFinal/pkg/mail"
)

// MailRecorder is a testify mock implementing mail.Sender. By default every
// Send succeeds; add expectations with On("Send", …) to change that.
type MailRecorder struct {
	mock.Mock

	mu   sync.Mutex
	sent []mail.Message
}

// NewMailRecorder returns a recorder that accepts any message.
func NewMailRecorder() *MailRecorder {
	r := &MailRecorder{}
	r.On("Send", mock.Anything, mock.AnythingOfType("mail.Message")).Return(nil).Maybe()
	return r
}

func (r *MailRecorder) Send(ctx context.Context, msg mail.Message) error {
	args := r.Called(ctx, msg)
	if err := args.Error(0); err != nil {
		return err
	}
	r.mu.Lock()
	r.sent = append(r.sent, msg)
	r.mu.Unlock()
	return nil
}

// Sent returns a copy of the delivered messages.
func (r *MailRecorder) Sent() []mail.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]mail.Message(nil), r.sent...)
}
