package services

import (
	"context"

	"github.com/fakush/CoderHouse-Backend-EntregaFinal/app/models"
	"github.com/fakush/CoderHouse-Backend-EntregaFinal/app/repositories"
	"github.com/fakush/CoderHouse-Backend-EntregaFinal/pkg/apperr"
	"github.com/fakush/CoderHouse-Backend-EntregaFinal/pkg/logger"
	"github.com/fakush/CoderHouse-Backend-EntregaFinal/pkg/metrics"
)

// Stock policies for AddItem.
const (
	StockWarn   = "warn"
	StockReject = "reject"
)

// CartLine is the add/remove body.
type CartLine struct {
	ProductID uint `json:"product_id" validate:"required"`
	Amount    int  `json:"amount"     validate:"required,min=1"`
}

// CartService applies the cart rules on top of CartRepository.Mutate.
type CartService struct {
	carts       *repositories.CartRepository
	catalog     *CatalogService
	stockPolicy string
}

// NewCartService returns a CartService. Unknown policies behave as StockWarn.
func NewCartService(carts *repositories.CartRepository, catalog *CatalogService, stockPolicy string) *CartService {
	if stockPolicy != StockReject {
		stockPolicy = StockWarn
	}
	return &CartService{carts: carts, catalog: catalog, stockPolicy: stockPolicy}
}

func (s *CartService) GetCart(ctx context.Context, userID uint) (*models.Cart, error) {
	cart, err := s.carts.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if cart == nil {
		return nil, apperr.New(apperr.NotFound, "cart not found")
	}
	return cart, nil
}

func (s *CartService) CreateCart(ctx context.Context, userID uint) (*models.Cart, error) {
	cart, err := s.carts.Create(ctx, userID)
	record("create", err)
	return cart, err
}

// AddItem adds amount of a product, summing with an existing line.
func (s *CartService) AddItem(ctx context.Context, userID, productID uint, amount int) (*models.Cart, error) {
	if amount < 1 {
		return nil, apperr.New(apperr.InvalidInput, "amount must be at least 1")
	}
	product, err := s.catalog.Get(ctx, productID)
	if err != nil {
		record("add", err)
		return nil, err
	}

	cart, err := s.carts.Mutate(ctx, userID, func(c *models.Cart) error {
		total := amount
		i := c.Line(productID)
		if i >= 0 {
			total += c.Items[i].Amount
		}
		if total > product.Stock {
			if s.stockPolicy == StockReject {
				return apperr.Newf(apperr.Conflict, "only %d units of %s in stock", product.Stock, product.Name)
			}
			logger.WithCtx(ctx).Warn("cart: amount exceeds stock",
				"user_id", userID, "product_id", productID, "amount", total, "stock", product.Stock)
		}
		if i >= 0 {
			c.Items[i].Amount = total
		} else {
			c.Items = append(c.Items, models.CartItem{CartID: c.ID, ProductID: productID, Amount: amount})
		}
		return nil
	})
	record("add", err)
	return cart, err
}

// RemoveItem removes amount of a product; the line is dropped once it
// reaches zero.
func (s *CartService) RemoveItem(ctx context.Context, userID, productID uint, amount int) (*models.Cart, error) {
	if amount < 1 {
		return nil, apperr.New(apperr.InvalidInput, "amount must be at least 1")
	}
	cart, err := s.carts.Mutate(ctx, userID, func(c *models.Cart) error {
		i := c.Line(productID)
		if i < 0 {
			return apperr.New(apperr.NotFound, "product not in cart")
		}
		if c.Items[i].Amount <= amount {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
			return nil
		}
		c.Items[i].Amount -= amount
		return nil
	})
	record("remove", err)
	return cart, err
}

// EmptyCart removes every line. Emptying an empty cart succeeds.
func (s *CartService) EmptyCart(ctx context.Context, userID uint) (*models.Cart, error) {
	cart, err := s.carts.Mutate(ctx, userID, func(c *models.Cart) error {
		c.Items = c.Items[:0]
		return nil
	})
	record("empty", err)
	return cart, err
}

func record(op string, err error) {
	result := "ok"
	if err != nil {
		result = string(apperr.KindOf(err))
	}
	metrics.CartMutations.WithLabelValues(op, result).Inc()
}
