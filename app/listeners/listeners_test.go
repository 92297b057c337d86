package listeners_test

import (
	"context"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fakush/CoderHouse-Backend-EntregaFinal/app/jobs"
	"github.com/fakush/CoderHouse-Backend-EntregaFinal/app/listeners"
	"github.com/fakush/CoderHouse-Backend-EntregaFinal/app/models"
	"github.com/fakush/CoderHouse-Backend-EntregaFinal/app/services"
	"github.com/fakush/CoderHouse-Backend-EntregaFinal/pkg/apperr"
	"github.com/fakush/CoderHouse-Backend-EntregaFinal/pkg/event"
	"github.com/fakush/CoderHouse-Backend-EntregaFinal/pkg/queue"
)

type fakeQueue struct {
	mu   sync.Mutex
	jobs []queue.Job
}

func (q *fakeQueue) Dispatch(_ context.Context, job queue.Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.jobs = append(q.jobs, job)
	return nil
}

type pushed struct {
	userID uint
	frame  any
}

type fakePusher struct{ frames []pushed }

func (p *fakePusher) Push(userID uint, v any) { p.frames = append(p.frames, pushed{userID, v}) }

type fakePublisher struct {
	keys []string
	msgs []any
}

func (p *fakePublisher) PublishJSON(_ context.Context, key string, v any) error {
	p.keys = append(p.keys, key)
	p.msgs = append(p.msgs, v)
	return nil
}

type products map[uint]string

func (p products) Get(_ context.Context, id uint) (*models.Product, error) {
	name, ok := p[id]
	if !ok {
		return nil, apperr.New(apperr.NotFound, "product not found")
	}
	return &models.Product{ID: id, Name: name}, nil
}

func sampleOrder() *models.Order {
	return &models.Order{
		ID:     3,
		UserID: 9,
		Status: models.StatusPending,
		Total:  decimal.RequireFromString("7.00"),
		Items: []models.OrderItem{
			{ProductID: 1, Amount: 2, UnitPrice: decimal.RequireFromString("2.50")},
			{ProductID: 2, Amount: 1, UnitPrice: decimal.RequireFromString("2.00")},
		},
	}
}

func TestOrderCreated(t *testing.T) {
	bus := event.NewBus(nil)
	q := &fakeQueue{}
	pusher := &fakePusher{}
	pub := &fakePublisher{}
	listeners.Register(bus, listeners.Deps{
		Queue: q, Products: products{1: "Yerba"}, Pusher: pusher, Publisher: pub, Slack: true,
	})

	order := sampleOrder()
	require.NoError(t, bus.Fire(context.Background(), services.EventOrderCreated, services.OrderCreated{
		Order: order,
		User:  &models.User{ID: 9, Username: "alice", Email: "alice@example.com"},
	}))

	require.Len(t, q.jobs, 1)
	job, ok := q.jobs[0].(*jobs.SendOrderNotification)
	require.True(t, ok)
	assert.Equal(t, uint(3), job.Notice.OrderID)
	assert.True(t, job.Notice.Slack)
	require.Len(t, job.Notice.Lines, 2)
	assert.Equal(t, "Yerba", job.Notice.Lines[0].Name)
	assert.Equal(t, "product 2", job.Notice.Lines[1].Name, "unknown products fall back to their id")

	require.Len(t, pusher.frames, 1)
	assert.Equal(t, uint(9), pusher.frames[0].userID)
	assert.Equal(t, listeners.OrderFrame{Type: "order", Order: order}, pusher.frames[0].frame)

	assert.Equal(t, []string{services.EventOrderCreated}, pub.keys)
}

func TestOrderStatusChanged(t *testing.T) {
	bus := event.NewBus(nil)
	q := &fakeQueue{}
	pusher := &fakePusher{}
	listeners.Register(bus, listeners.Deps{Queue: q, Pusher: pusher})

	order := sampleOrder()
	order.Status = models.StatusConfirmed
	require.NoError(t, bus.Fire(context.Background(), services.EventOrderStatusChanged, services.OrderStatusChanged{
		Order: order, From: models.StatusPending, To: models.StatusConfirmed,
	}))

	assert.Empty(t, q.jobs, "status changes do not mail the administrator")
	require.Len(t, pusher.frames, 1)
}

func TestChatEscalated(t *testing.T) {
	bus := event.NewBus(nil)
	q := &fakeQueue{}
	listeners.Register(bus, listeners.Deps{Queue: q})

	require.NoError(t, bus.Fire(context.Background(), services.EventChatEscalated, services.ChatEscalated{
		UserID: 1, Username: "bob", Email: "bob@example.com", Message: "administrador por favor",
	}))

	require.Len(t, q.jobs, 1)
	job, ok := q.jobs[0].(*jobs.EscalationMail)
	require.True(t, ok)
	assert.Equal(t, "bob@example.com", job.Notice.Email)
	assert.Equal(t, "administrador por favor", job.Notice.Message)
}

func TestUnexpectedPayload(t *testing.T) {
	bus := event.NewBus(nil)
	listeners.Register(bus, listeners.Deps{Queue: &fakeQueue{}})
	assert.Error(t, bus.Fire(context.Background(), services.EventOrderCreated, "not an order"))
}
