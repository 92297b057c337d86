package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/fakush/CoderHouse-Backend-EntregaFinal/app/models"
	"github.com/fakush/CoderHouse-Backend-EntregaFinal/pkg/apperr"
	"github.com/fakush/CoderHouse-Backend-EntregaFinal/pkg/database"
	"github.com/fakush/CoderHouse-Backend-EntregaFinal/pkg/logger"
)

// OrderRepository stores orders with their items and status history.
type OrderRepository struct {
	db  *gorm.DB
	now func() time.Time
	// beforeSwap runs inside write transactions right before the guarded update.
	beforeSwap func(tx *gorm.DB)
}

func NewOrderRepository(db *gorm.DB) *OrderRepository {
	return &OrderRepository{db: db, now: time.Now}
}

// PlaceFromCart turns the user's cart into a pending order and empties the
// cart in the same transaction. Prices are snapshotted from the catalog.
func (r *OrderRepository) PlaceFromCart(ctx context.Context, userID uint) (*models.Order, error) {
	var (
		order *models.Order
		err   error
	)
	for attempt := 1; attempt <= MutateAttempts; attempt++ {
		err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			_, err := mutateCart(tx, userID, func(cart *models.Cart) error {
				if len(cart.Items) == 0 {
					return apperr.New(apperr.EmptyCart, "cart is empty")
				}
				o, err := r.snapshot(tx, userID, cart.Items)
				if err != nil {
					return err
				}
				order = o
				cart.Items = cart.Items[:0]
				return nil
			}, r.beforeSwap)
			return err
		})
		if !errors.Is(err, errStale) {
			break
		}
		logger.WithCtx(ctx).Debug("order: cart version race, retrying", "user_id", userID, "attempt", attempt)
	}
	if errors.Is(err, errStale) {
		return nil, apperr.Wrap(apperr.Conflict, "cart was modified concurrently, try again", err)
	}
	if err != nil {
		return nil, storeErr("create order", err)
	}
	return order, nil
}

func (r *OrderRepository) snapshot(tx *gorm.DB, userID uint, lines []models.CartItem) (*models.Order, error) {
	ids := make([]uint, len(lines))
	for i, l := range lines {
		ids[i] = l.ProductID
	}
	var products []models.Product
	if err := tx.Where("id IN ?", ids).Find(&products).Error; err != nil {
		return nil, err
	}
	prices := make(map[uint]decimal.Decimal, len(products))
	for _, p := range products {
		prices[p.ID] = p.Price
	}

	now := r.now()
	order := &models.Order{UserID: userID, Status: models.StatusPending, Total: decimal.Zero, CreatedAt: now, UpdatedAt: now}
	for _, l := range lines {
		price, ok := prices[l.ProductID]
		if !ok {
			return nil, apperr.Newf(apperr.Conflict, "product %d is no longer available", l.ProductID)
		}
		item := models.OrderItem{ProductID: l.ProductID, Amount: l.Amount, UnitPrice: price}
		order.Items = append(order.Items, item)
		order.Total = order.Total.Add(item.Subtotal())
	}
	if err := tx.Omit(clause.Associations).Create(order).Error; err != nil {
		return nil, err
	}
	for i := range order.Items {
		order.Items[i].OrderID = order.ID
	}
	if err := tx.Create(&order.Items).Error; err != nil {
		return nil, err
	}
	event := models.OrderEvent{OrderID: order.ID, To: models.StatusPending, At: now}
	if err := tx.Create(&event).Error; err != nil {
		return nil, err
	}
	order.Events = []models.OrderEvent{event}
	return order, nil
}

// ListByUser returns the user's orders with items, newest first.
func (r *OrderRepository) ListByUser(ctx context.Context, userID uint) ([]models.Order, error) {
	return readRetry(ctx, func() ([]models.Order, error) {
		var out []models.Order
		err := r.db.WithContext(ctx).
			Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
			Where("user_id = ?", userID).
			Order("created_at desc, id desc").
			Find(&out).Error
		return out, storeErr("list orders", err)
	})
}

// Latest returns the user's newest order, or nil.
func (r *OrderRepository) Latest(ctx context.Context, userID uint) (*models.Order, error) {
	return readRetry(ctx, func() (*models.Order, error) {
		var o models.Order
		q := r.db.WithContext(ctx).
			Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
			Where("user_id = ?", userID).
			Order("created_at desc, id desc")
		ok, err := first(q, &o)
		if err != nil || !ok {
			return nil, storeErr("latest order", err)
		}
		return &o, nil
	})
}

// Find returns the order with items and history, or nil.
func (r *OrderRepository) Find(ctx context.Context, id uint) (*models.Order, error) {
	return readRetry(ctx, func() (*models.Order, error) {
		var o models.Order
		q := r.db.WithContext(ctx).
			Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
			Preload("Events", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
			Where("id = ?", id)
		ok, err := first(q, &o)
		if err != nil || !ok {
			return nil, storeErr("find order", err)
		}
		return &o, nil
	})
}

// Exists reports whether the order exists.
func (r *OrderRepository) Exists(ctx context.Context, id uint) (bool, error) {
	return readRetry(ctx, func() (bool, error) {
		var n int64
		err := r.db.WithContext(ctx).Model(&models.Order{}).Where("id = ?", id).Count(&n).Error
		return n > 0, storeErr("find order", err)
	})
}

// Transition moves the order to status to when allowed(from, to) holds and
// records the event. It returns the updated order and the previous status.
func (r *OrderRepository) Transition(ctx context.Context, id uint, to string, allowed func(from, to string) bool) (*models.Order, string, error) {
	var (
		order models.Order
		from  string
	)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		q := tx.Where("id = ?", id)
		if database.SupportsRowLocks(tx) {
			q = q.Clauses(clause.Locking{Strength: "UPDATE"})
		}
		ok, err := first(q, &order)
		if err != nil {
			return err
		}
		if !ok {
			return apperr.New(apperr.NotFound, "order not found")
		}
		from = order.Status
		if !allowed(from, to) {
			return apperr.Newf(apperr.Conflict, "cannot move order from %s to %s", from, to)
		}
		now := r.now()
		if r.beforeSwap != nil {
			r.beforeSwap(tx)
		}
		res := tx.Model(&models.Order{}).
			Where("id = ? AND status = ?", id, from).
			Updates(map[string]any{"status": to, "updated_at": now})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperr.New(apperr.Conflict, "order status changed concurrently")
		}
		order.Status, order.UpdatedAt = to, now
		return tx.Create(&models.OrderEvent{OrderID: id, From: from, To: to, At: now}).Error
	})
	if err != nil {
		return nil, "", storeErr("update order", err)
	}
	if err := r.db.WithContext(ctx).Where("order_id = ?", id).Order("id").Find(&order.Items).Error; err != nil {
		return nil, "", storeErr("update order", err)
	}
	return &order, from, nil
}

// Delete removes the order with its items and history.
func (r *OrderRepository) Delete(ctx context.Context, id uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("order_id = ?", id).Delete(&models.OrderItem{}).Error; err != nil {
			return err
		}
		if err := tx.Where("order_id = ?", id).Delete(&models.OrderEvent{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Order{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperr.New(apperr.NotFound, "order not found")
		}
		return nil
	})
	return storeErr("delete order", err)
}
