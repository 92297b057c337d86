package services

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tealeg/xlsx"

	"github.com/fakush/CoderHouse-Backend-EntregaFinal/app/models"
	"github.com/fakush/CoderHouse-Backend-EntregaFinal/app/repositories"
	"github.com/fakush/CoderHouse-Backend-EntregaFinal/pkg/apperr"
	"github.com/fakush/CoderHouse-Backend-EntregaFinal/pkg/cache"
	"github.com/fakush/CoderHouse-Backend-EntregaFinal/pkg/logger"
)

// ProductInput is the create/update body.
type ProductInput struct {
	Name        string          `json:"name"        validate:"required,max=255"`
	Description string          `json:"description" validate:"nullable,max=2000"`
	Category    string          `json:"category"    validate:"required"`
	Price       decimal.Decimal `json:"price"       validate:"gte=0"`
	Stock       int             `json:"stock"       validate:"gte=0"`
	Images      []string        `json:"images"`
}

func (in ProductInput) check() error {
	if strings.TrimSpace(in.Name) == "" {
		return apperr.New(apperr.InvalidInput, "name is required")
	}
	if !models.ValidCategory(in.Category) {
		return apperr.Newf(apperr.InvalidInput, "invalid category %q", in.Category)
	}
	if in.Price.IsNegative() {
		return apperr.New(apperr.InvalidInput, "price must not be negative")
	}
	if in.Stock < 0 {
		return apperr.New(apperr.InvalidInput, "stock must not be negative")
	}
	return nil
}

// CatalogService owns the product catalog and its read-through cache.
type CatalogService struct {
	products *repositories.ProductRepository
	cache    cache.Store
	ttl      time.Duration
}

// NewCatalogService returns a CatalogService. A nil store disables caching.
func NewCatalogService(products *repositories.ProductRepository, store cache.Store, ttl time.Duration) *CatalogService {
	return &CatalogService{products: products, cache: store, ttl: ttl}
}

func productKey(id uint) string { return fmt.Sprintf("catalog:product:%d", id) }

// Query lists the products matching q.
func (s *CatalogService) Query(ctx context.Context, q repositories.ProductQuery) ([]models.Product, error) {
	out, err := s.products.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []models.Product{}
	}
	return out, nil
}

// Get returns one product. NotFound when it does not exist.
func (s *CatalogService) Get(ctx context.Context, id uint) (*models.Product, error) {
	if s.cache != nil {
		var cached models.Product
		hit, err := s.cache.Get(ctx, productKey(id), &cached)
		if err != nil {
			logger.WithCtx(ctx).Warn("catalog: cache read failed", "product_id", id, "error", err)
		}
		if hit {
			return &cached, nil
		}
	}

	p, err := s.products.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, apperr.New(apperr.NotFound, "product not found")
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, productKey(id), p, s.ttl); err != nil {
			logger.WithCtx(ctx).Warn("catalog: cache write failed", "product_id", id, "error", err)
		}
	}
	return p, nil
}

// Exists reports whether the product is in the catalog.
func (s *CatalogService) Exists(ctx context.Context, id uint) (bool, error) {
	_, err := s.Get(ctx, id)
	if apperr.Is(err, apperr.NotFound) {
		return false, nil
	}
	return err == nil, err
}

func (s *CatalogService) Create(ctx context.Context, in ProductInput) (*models.Product, error) {
	if err := in.check(); err != nil {
		return nil, err
	}
	p := &models.Product{
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		Category:    in.Category,
		Price:       in.Price,
		Stock:       in.Stock,
		Images:      in.Images,
	}
	if err := s.products.Create(ctx, p); err != nil {
		return nil, err
	}
	logger.WithCtx(ctx).Info("catalog: product created", "product_id", p.ID)
	return p, nil
}

// Update replaces the product's fields. Images are kept when in.Images is nil.
func (s *CatalogService) Update(ctx context.Context, id uint, in ProductInput) (*models.Product, error) {
	if err := in.check(); err != nil {
		return nil, err
	}
	p, err := s.products.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, apperr.New(apperr.NotFound, "product not found")
	}
	p.Name = strings.TrimSpace(in.Name)
	p.Description = in.Description
	p.Category = in.Category
	p.Price = in.Price
	p.Stock = in.Stock
	if in.Images != nil {
		p.Images = in.Images
	}
	return p, s.save(ctx, p)
}

func (s *CatalogService) save(ctx context.Context, p *models.Product) error {
	if err := s.products.Update(ctx, p); err != nil {
		return err
	}
	s.invalidate(ctx, p.ID)
	return nil
}

func (s *CatalogService) Delete(ctx context.Context, id uint) error {
	if err := s.products.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx, id)
	logger.WithCtx(ctx).Info("catalog: product deleted", "product_id", id)
	return nil
}

// AddImage appends url to the product's images.
func (s *CatalogService) AddImage(ctx context.Context, id uint, url string) (*models.Product, error) {
	p, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	p.Images = append(p.Images, url)
	return p, s.save(ctx, p)
}

// RemoveImage drops url from the product's images. NotFound when absent.
func (s *CatalogService) RemoveImage(ctx context.Context, id uint, url string) (*models.Product, error) {
	p, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	kept := make([]string, 0, len(p.Images))
	for _, img := range p.Images {
		if img != url {
			kept = append(kept, img)
		}
	}
	if len(kept) == len(p.Images) {
		return nil, apperr.New(apperr.NotFound, "image not found")
	}
	p.Images = kept
	return p, s.save(ctx, p)
}

// find bypasses the cache for read-modify-write.
func (s *CatalogService) find(ctx context.Context, id uint) (*models.Product, error) {
	p, err := s.products.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, apperr.New(apperr.NotFound, "product not found")
	}
	return p, nil
}

func (s *CatalogService) invalidate(ctx context.Context, id uint) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, productKey(id)); err != nil {
		logger.WithCtx(ctx).Warn("catalog: cache invalidation failed", "product_id", id, "error", err)
	}
}

var exportHeaders = []string{"ID", "Name", "Description", "Category", "Price", "Stock", "Images", "CreatedAt", "UpdatedAt"}

// Export writes the whole catalog as an xlsx workbook.
func (s *CatalogService) Export(ctx context.Context, w io.Writer) error {
	products, err := s.products.Query(ctx, repositories.ProductQuery{})
	if err != nil {
		return err
	}

	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Products")
	if err != nil {
		return apperr.Wrap(apperr.Internal, "create sheet", err)
	}
	header := sheet.AddRow()
	for _, h := range exportHeaders {
		header.AddCell().SetValue(h)
	}
	for _, p := range products {
		row := sheet.AddRow()
		row.AddCell().SetValue(p.ID)
		row.AddCell().SetValue(p.Name)
		row.AddCell().SetValue(p.Description)
		row.AddCell().SetValue(p.Category)
		row.AddCell().SetValue(p.Price.StringFixed(2))
		row.AddCell().SetValue(p.Stock)
		row.AddCell().SetValue(strings.Join(p.Images, ","))
		row.AddCell().SetValue(p.CreatedAt.Format("2006-01-02 15:04:05"))
		row.AddCell().SetValue(p.UpdatedAt.Format("2006-01-02 15:04:05"))
	}
	if err := file.Write(w); err != nil {
		return apperr.Wrap(apperr.Internal, "write workbook", err)
	}
	return nil
}
