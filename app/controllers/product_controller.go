package controllers

import (
	"bytes"
	"net/http"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/fakush/CoderHouse-Backend-EntregaFinal/app/repositories"
	"github.com/fakush/CoderHouse-Backend-EntregaFinal/app/services"
	"github.com/fakush/CoderHouse-Backend-EntregaFinal/pkg/apperr"
	"github.com/fakush/CoderHouse-Backend-EntregaFinal/pkg/ctx"
	"github.com/fakush/CoderHouse-Backend-EntregaFinal/pkg/logger"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type ProductController struct {
	catalog *services.CatalogService
	images  *services.ImageService
}

func NewProductController(catalog *services.CatalogService, images *services.ImageService) *ProductController {
	return &ProductController{catalog: catalog, images: images}
}

// Index GET /api/products?name=&category=&price_min=…
func (c *ProductController) Index(x *ctx.Context) {
	q, err := parseProductQuery(x)
	if err != nil {
		x.Fail(err)
		return
	}
	products, err := c.catalog.Query(x.Context(), q)
	if err != nil {
		x.Fail(err)
		return
	}
	x.Success(products)
}

func parseProductQuery(x *ctx.Context) (repositories.ProductQuery, error) {
	q := repositories.ProductQuery{
		Name:        x.Query("name"),
		Description: x.Query("description"),
		Category:    x.Query("category"),
	}
	decimals := []struct {
		key  string
		dest **decimal.Decimal
	}{{"price", &q.Price}, {"price_min", &q.PriceMin}, {"price_max", &q.PriceMax}}
	for _, d := range decimals {
		raw := x.Query(d.key)
		if raw == "" {
			continue
		}
		v, err := decimal.NewFromString(raw)
		if err != nil {
			return q, apperr.Newf(apperr.InvalidInput, "%s must be a number", d.key)
		}
		*d.dest = &v
	}
	ints := []struct {
		key  string
		dest **int
	}{{"stock", &q.Stock}, {"stock_min", &q.StockMin}, {"stock_max", &q.StockMax}}
	for _, d := range ints {
		raw := x.Query(d.key)
		if raw == "" {
			continue
		}
		v, err := strconv.Atoi(raw)
		if err != nil {
			return q, apperr.Newf(apperr.InvalidInput, "%s must be an integer", d.key)
		}
		*d.dest = &v
	}
	return q, nil
}

// Show GET /api/products/{id}
func (c *ProductController) Show(x *ctx.Context) {
	id, ok := x.ParamUint("id")
	if !ok {
		return
	}
	p, err := c.catalog.Get(x.Context(), id)
	if err != nil {
		x.Fail(err)
		return
	}
	x.Success(p)
}

// Store POST /api/products
func (c *ProductController) Store(x *ctx.Context) {
	var in services.ProductInput
	if !x.BindJSON(&in) {
		return
	}
	p, err := c.catalog.Create(x.Context(), in)
	if err != nil {
		x.Fail(err)
		return
	}
	x.Created(p)
}

// Update PUT /api/products/{id}
func (c *ProductController) Update(x *ctx.Context) {
	id, ok := x.ParamUint("id")
	if !ok {
		return
	}
	var in services.ProductInput
	if !x.BindJSON(&in) {
		return
	}
	p, err := c.catalog.Update(x.Context(), id, in)
	if err != nil {
		x.Fail(err)
		return
	}
	x.Success(p)
}

// Destroy DELETE /api/products/{id}
func (c *ProductController) Destroy(x *ctx.Context) {
	id, ok := x.ParamUint("id")
	if !ok {
		return
	}
	if err := c.catalog.Delete(x.Context(), id); err != nil {
		x.Fail(err)
		return
	}
	if err := c.images.DeleteAll(x.Context(), id); err != nil {
		logger.WithCtx(x.Context()).Warn("product: image cleanup failed", "product_id", id, "error", err)
	}
	x.Message("product deleted")
}

// Export GET /api/products/export
func (c *ProductController) Export(x *ctx.Context) {
	var buf bytes.Buffer
	if err := c.catalog.Export(x.Context(), &buf); err != nil {
		x.Fail(err)
		return
	}
	x.SetHeader("Content-Type", xlsxContentType)
	x.SetHeader("Content-Disposition", "attachment; filename=products.xlsx")
	x.SetHeader("Content-Length", strconv.Itoa(buf.Len()))
	x.Status(http.StatusOK)
	x.W.Write(buf.Bytes()) //nolint:errcheck
}

// UploadImage POST /api/products/{id}/images (multipart field "image")
func (c *ProductController) UploadImage(x *ctx.Context) {
	id, ok := x.ParamUint("id")
	if !ok {
		return
	}
	x.R.Body = http.MaxBytesReader(x.W, x.R.Body, c.images.MaxBytes()+1<<20)
	file, header, err := x.R.FormFile("image")
	if err != nil {
		x.Error(http.StatusBadRequest, "image file is required")
		return
	}
	defer file.Close()

	p, err := c.images.Upload(x.Context(), id, header.Filename, file)
	if err != nil {
		x.Fail(err)
		return
	}
	x.Created(p)
}

// DeleteImage DELETE /api/products/{id}/images?url=…
func (c *ProductController) DeleteImage(x *ctx.Context) {
	id, ok := x.ParamUint("id")
	if !ok {
		return
	}
	p, err := c.images.Delete(x.Context(), id, x.Query("url"))
	if err != nil {
		x.Fail(err)
		return
	}
	x.Success(p)
}
