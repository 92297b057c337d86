package repositories

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/fakush/CoderHouse-Backend-EntregaFinal/app/models"
	"github.com/fakush/CoderHouse-Backend-EntregaFinal/pkg/apperr"
	"github.com/fakush/CoderHouse-Backend-EntregaFinal/pkg/database"
	"github.com/fakush/CoderHouse-Backend-EntregaFinal/pkg/logger"
)

// MutateAttempts bounds how often a mutation is retried after losing a
// version race.
const MutateAttempts = 3

var errStale = errors.New("cart version changed")

// CartRepository stores carts and serializes their mutations.
type CartRepository struct {
	db *gorm.DB
	// beforeSwap runs inside the transaction right before the version check.
	beforeSwap func(tx *gorm.DB)
}

func NewCartRepository(db *gorm.DB) *CartRepository {
	return &CartRepository{db: db}
}

// Get returns the user's cart with its lines, or nil.
func (r *CartRepository) Get(ctx context.Context, userID uint) (*models.Cart, error) {
	return readRetry(ctx, func() (*models.Cart, error) {
		cart, err := loadCart(r.db.WithContext(ctx), userID, false)
		return cart, storeErr("get cart", err)
	})
}

// Create inserts an empty cart. A second cart for the same user is AlreadyExists.
func (r *CartRepository) Create(ctx context.Context, userID uint) (*models.Cart, error) {
	cart := &models.Cart{UserID: userID}
	if err := r.db.WithContext(ctx).Create(cart).Error; err != nil {
		if database.IsUniqueViolation(err) {
			return nil, apperr.Wrap(apperr.AlreadyExists, "cart already exists", err)
		}
		return nil, storeErr("create cart", err)
	}
	cart.Items = []models.CartItem{}
	return cart, nil
}

// Mutate loads the user's cart inside a transaction, lets fn edit its Items,
// persists the difference and bumps the version. fn may run more than once and
// must not have side effects outside the cart. A missing cart is NotFound.
func (r *CartRepository) Mutate(ctx context.Context, userID uint, fn func(*models.Cart) error) (*models.Cart, error) {
	var (
		cart *models.Cart
		err  error
	)
	for attempt := 1; attempt <= MutateAttempts; attempt++ {
		err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			cart, err = mutateCart(tx, userID, fn, r.beforeSwap)
			return err
		})
		if !errors.Is(err, errStale) {
			break
		}
		logger.WithCtx(ctx).Debug("cart: version race, retrying", "user_id", userID, "attempt", attempt)
	}
	if errors.Is(err, errStale) {
		return nil, apperr.Wrap(apperr.Conflict, "cart was modified concurrently, try again", err)
	}
	if err != nil {
		return nil, storeErr("update cart", err)
	}
	return cart, nil
}

// mutateCart is one attempt of Mutate, run inside tx. It is shared with the
// order repository so checkout clears the cart under the same rules.
func mutateCart(tx *gorm.DB, userID uint, fn func(*models.Cart) error, beforeSwap func(*gorm.DB)) (*models.Cart, error) {
	cart, err := loadCart(tx, userID, database.SupportsRowLocks(tx))
	if err != nil {
		return nil, err
	}
	if cart == nil {
		return nil, apperr.New(apperr.NotFound, "cart not found")
	}

	before := make(map[uint]models.CartItem, len(cart.Items))
	for _, it := range cart.Items {
		before[it.ProductID] = it
	}
	readVersion := cart.Version

	if err := fn(cart); err != nil {
		return nil, err
	}

	seen := make(map[uint]bool, len(cart.Items))
	for i := range cart.Items {
		it := &cart.Items[i]
		seen[it.ProductID] = true
		old, existed := before[it.ProductID]
		switch {
		case !existed:
			it.ID = 0
			it.CartID = cart.ID
			if err := tx.Create(it).Error; err != nil {
				return nil, err
			}
		case old.Amount != it.Amount:
			if err := tx.Model(&models.CartItem{}).Where("id = ?", old.ID).Update("amount", it.Amount).Error; err != nil {
				return nil, err
			}
		}
	}
	var removed []uint
	for pid, old := range before {
		if !seen[pid] {
			removed = append(removed, old.ID)
		}
	}
	if len(removed) > 0 {
		if err := tx.Where("id IN ?", removed).Delete(&models.CartItem{}).Error; err != nil {
			return nil, err
		}
	}

	if beforeSwap != nil {
		beforeSwap(tx)
	}
	res := tx.Model(&models.Cart{}).
		Where("id = ? AND version = ?", cart.ID, readVersion).
		Updates(map[string]any{"version": gorm.Expr("version + 1"), "updated_at": tx.NowFunc()})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, errStale
	}
	cart.Version = readVersion + 1
	return cart, nil
}

func loadCart(db *gorm.DB, userID uint, lock bool) (*models.Cart, error) {
	q := db.Where("user_id = ?", userID)
	if lock {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var cart models.Cart
	ok, err := first(q, &cart)
	if err != nil || !ok {
		return nil, err
	}
	if err := db.Where("cart_id = ?", cart.ID).Order("id").Find(&cart.Items).Error; err != nil {
		return nil, err
	}
	if cart.Items == nil {
		cart.Items = []models.CartItem{}
	}
	return &cart, nil
}
