package services

import (
	"context"

	"github.com/fakush/CoderHouse-Backend-EntregaFinal/app/models"
	"github.com/fakush/CoderHouse-Backend-EntregaFinal/app/repositories"
	"github.com/fakush/CoderHouse-Backend-EntregaFinal/pkg/apperr"
	"github.com/fakush/CoderHouse-Backend-EntregaFinal/pkg/auth"
	"github.com/fakush/CoderHouse-Backend-EntregaFinal/pkg/event"
	"github.com/fakush/CoderHouse-Backend-EntregaFinal/pkg/logger"
	"github.com/fakush/CoderHouse-Backend-EntregaFinal/pkg/metrics"
)

// StatusInput is the transition body.
type StatusInput struct {
	Status string `json:"status" validate:"required,in=confirmed shipped delivered cancelled"`
}

// OrderService turns carts into orders and moves them through their statuses.
type OrderService struct {
	orders *repositories.OrderRepository
	users  *repositories.UserRepository
	bus    *event.Bus
}

func NewOrderService(orders *repositories.OrderRepository, users *repositories.UserRepository, bus *event.Bus) *OrderService {
	return &OrderService{orders: orders, users: users, bus: bus}
}

// CreateOrder checks out the user's cart. The cart is emptied in the same
// transaction; listeners of EventOrderCreated run after the commit.
func (s *OrderService) CreateOrder(ctx context.Context, userID uint) (*models.Order, error) {
	order, err := s.orders.PlaceFromCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	metrics.OrdersCreated.Inc()
	logger.WithCtx(ctx).Info("order: created", "order_id", order.ID, "total", order.Total.String(), "lines", len(order.Items))

	user, err := s.users.FindByID(ctx, userID)
	if err != nil || user == nil {
		logger.WithCtx(ctx).Warn("order: owner lookup failed, skipping notification", "order_id", order.ID, "error", err)
		return order, nil
	}
	s.bus.FireAsync(ctx, EventOrderCreated, OrderCreated{Order: order, User: user})
	return order, nil
}

// GetOrders lists the user's orders, newest first. NotFound when there are none.
func (s *OrderService) GetOrders(ctx context.Context, userID uint) ([]models.Order, error) {
	orders, err := s.orders.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return nil, apperr.New(apperr.NotFound, "no orders found")
	}
	return orders, nil
}

// LastOrder returns the user's newest order, or nil.
func (s *OrderService) LastOrder(ctx context.Context, userID uint) (*models.Order, error) {
	return s.orders.Latest(ctx, userID)
}

func (s *OrderService) FindOrder(ctx context.Context, orderID uint) (bool, error) {
	return s.orders.Exists(ctx, orderID)
}

// GetOrder returns one order. Orders of other users look like missing ones
// unless p is an admin.
func (s *OrderService) GetOrder(ctx context.Context, p *auth.Principal, orderID uint) (*models.Order, error) {
	order, err := s.orders.Find(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil || p == nil || (!p.IsAdmin && order.UserID != p.UserID) {
		return nil, apperr.New(apperr.NotFound, "order not found")
	}
	return order, nil
}

func (s *OrderService) DeleteOrder(ctx context.Context, orderID uint) error {
	if err := s.orders.Delete(ctx, orderID); err != nil {
		return err
	}
	logger.WithCtx(ctx).Info("order: deleted", "order_id", orderID)
	return nil
}

// UpdateStatus moves an order along pending → confirmed → shipped → delivered,
// with cancellation allowed before shipping.
func (s *OrderService) UpdateStatus(ctx context.Context, orderID uint, to string) (*models.Order, error) {
	switch to {
	case models.StatusConfirmed, models.StatusShipped, models.StatusDelivered, models.StatusCancelled:
	default:
		return nil, apperr.Newf(apperr.InvalidInput, "unknown status %q", to)
	}
	order, from, err := s.orders.Transition(ctx, orderID, to, models.CanTransition)
	if err != nil {
		return nil, err
	}
	metrics.OrderTransitions.WithLabelValues(to).Inc()
	logger.WithCtx(ctx).Info("order: status changed", "order_id", orderID, "from", from, "to", to)
	s.bus.FireAsync(ctx, EventOrderStatusChanged, OrderStatusChanged{Order: order, From: from, To: to})
	return order, nil
}
