package repositories

import (
	"context"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/fakush/CoderHouse-Backend-EntregaFinal/app/models"
	"github.com/fakush/CoderHouse-Backend-EntregaFinal/pkg/apperr"
)

// ProductQuery filters the catalog. Zero fields do not filter.
type ProductQuery struct {
	Name        string
	Description string
	Category    string
	Price       *decimal.Decimal
	PriceMin    *decimal.Decimal
	PriceMax    *decimal.Decimal
	Stock       *int
	StockMin    *int
	StockMax    *int
}

// ProductRepository stores the catalog.
type ProductRepository struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

func (q ProductQuery) apply(db *gorm.DB) *gorm.DB {
	if q.Name != "" {
		db = db.Where("LOWER(name) LIKE ?", "%"+lowerASCII(q.Name)+"%")
	}
	if q.Description != "" {
		db = db.Where("LOWER(description) LIKE ?", "%"+lowerASCII(q.Description)+"%")
	}
	if q.Category != "" {
		db = db.Where("category = ?", q.Category)
	}
	if q.Price != nil {
		db = db.Where("price = ?", *q.Price)
	}
	if q.PriceMin != nil {
		db = db.Where("price >= ?", *q.PriceMin)
	}
	if q.PriceMax != nil {
		db = db.Where("price <= ?", *q.PriceMax)
	}
	if q.Stock != nil {
		db = db.Where("stock = ?", *q.Stock)
	}
	if q.StockMin != nil {
		db = db.Where("stock >= ?", *q.StockMin)
	}
	if q.StockMax != nil {
		db = db.Where("stock <= ?", *q.StockMax)
	}
	return db
}

// Query returns the matching products ordered by id.
func (r *ProductRepository) Query(ctx context.Context, q ProductQuery) ([]models.Product, error) {
	return readRetry(ctx, func() ([]models.Product, error) {
		var out []models.Product
		err := q.apply(r.db.WithContext(ctx)).Order("id").Find(&out).Error
		return out, storeErr("query products", err)
	})
}

// Find returns the product or nil.
func (r *ProductRepository) Find(ctx context.Context, id uint) (*models.Product, error) {
	return readRetry(ctx, func() (*models.Product, error) {
		var p models.Product
		ok, err := first(r.db.WithContext(ctx).Where("id = ?", id), &p)
		if err != nil || !ok {
			return nil, storeErr("find product", err)
		}
		return &p, nil
	})
}

func (r *ProductRepository) Create(ctx context.Context, p *models.Product) error {
	if p.Images == nil {
		p.Images = []string{}
	}
	return storeErr("create product", r.db.WithContext(ctx).Create(p).Error)
}

// Update saves every field of p. NotFound when p does not exist.
func (r *ProductRepository) Update(ctx context.Context, p *models.Product) error {
	res := r.db.WithContext(ctx).Model(p).Select("name", "description", "category", "price", "stock", "images").Updates(p)
	if res.Error != nil {
		return storeErr("update product", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.New(apperr.NotFound, "product not found")
	}
	return nil
}

// Delete soft-deletes the product.
func (r *ProductRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.Product{}, id)
	if res.Error != nil {
		return storeErr("delete product", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.New(apperr.NotFound, "product not found")
	}
	return nil
}

// lowerASCII lowercases without touching multi-byte runes, matching SQL LOWER
// on every supported driver.
func lowerASCII(s string) string {
	b := []byte(s)
	for i, c := range b {
		if 'A' <= c && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}
