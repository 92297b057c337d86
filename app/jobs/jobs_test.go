package jobs_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fakush/CoderHouse-Backend-EntregaFinal/app/jobs"
	"github.com/fakush/CoderHouse-Backend-EntregaFinal/app/notifications"
	"github.com/fakush/CoderHouse-Backend-EntregaFinal/pkg/notification"
	"github.com/fakush/CoderHouse-Backend-EntregaFinal/pkg/queue"
	"github.com/fakush/CoderHouse-Backend-EntregaFinal/pkg/testkit"
)

func TestJobsWithoutSenderFail(t *testing.T) {
	assert.Error(t, (&jobs.SendOrderNotification{}).Handle(context.Background()))
	assert.Error(t, (&jobs.EscalationMail{}).Handle(context.Background()))
}

func TestQueuedJobsReachTheAdministrator(t *testing.T) {
	mailer := testkit.NewMailRecorder()
	q := queue.NewManager(queue.NewMemoryDriver(8))
	jobs.Register(q, notification.NewDispatcher(mailer, ""), "admin@shop.test")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		q.Run(ctx, 1)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	require.NoError(t, q.Dispatch(context.Background(), &jobs.SendOrderNotification{Notice: notifications.OrderPlaced{
		OrderID:  7,
		Username: "alice",
		Email:    "alice@example.com",
		Lines:    []notifications.Line{{ProductID: 1, Name: "Yerba", Amount: 2, UnitPrice: decimal.RequireFromString("2.30")}},
		Total:    decimal.RequireFromString("4.60"),
	}}))
	require.NoError(t, q.Dispatch(context.Background(), &jobs.EscalationMail{Notice: notifications.ChatEscalation{
		Username: "alice", Email: "alice@example.com", Message: "necesito un administrador",
	}}))

	require.Eventually(t, func() bool { return len(mailer.Sent()) == 2 }, 2*time.Second, 10*time.Millisecond)

	subjects := map[string]string{}
	for _, m := range mailer.Sent() {
		assert.Equal(t, []string{"admin@shop.test"}, m.To)
		subjects[m.Subject] = m.Text
	}
	order, ok := subjects["New order from: alice - alice@example.com"]
	require.True(t, ok)
	assert.True(t, strings.Contains(order, "- Yerba (#1) x2 at 2.30"), order)
	assert.Contains(t, order, "Total: 4.60")

	escalation, ok := subjects["Support request from: alice - alice@example.com"]
	require.True(t, ok)
	assert.Equal(t, "Message from: alice@example.com; content: necesito un administrador", escalation)
}
