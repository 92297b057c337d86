package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/fakush/CoderHouse-Backend-EntregaFinal/app/models"
	"github.com/fakush/CoderHouse-Backend-EntregaFinal/pkg/apperr"
	"github.com/fakush/CoderHouse-Backend-EntregaFinal/pkg/logger"
	"github.com/fakush/CoderHouse-Backend-EntregaFinal/pkg/storage"
)

var imageExtensions = map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".webp": true, ".gif": true}

// ImageService stores product pictures on a storage disk.
type ImageService struct {
	disk     storage.Disk
	catalog  *CatalogService
	maxBytes int64
}

func NewImageService(disk storage.Disk, catalog *CatalogService, maxBytes int64) *ImageService {
	return &ImageService{disk: disk, catalog: catalog, maxBytes: maxBytes}
}

// MaxBytes is the upload size limit.
func (s *ImageService) MaxBytes() int64 { return s.maxBytes }

// Upload stores content as a new image of the product and returns the
// updated product.
func (s *ImageService) Upload(ctx context.Context, productID uint, filename string, content io.Reader) (*models.Product, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if !imageExtensions[ext] {
		return nil, apperr.Newf(apperr.InvalidInput, "unsupported image type %q", ext)
	}
	if _, err := s.catalog.find(ctx, productID); err != nil {
		return nil, err
	}

	body, err := io.ReadAll(io.LimitReader(content, s.maxBytes+1))
	if err != nil {
		return nil, apperr.Wrap(apperr.InvalidInput, "read upload", err)
	}
	if int64(len(body)) > s.maxBytes {
		return nil, apperr.Newf(apperr.InvalidInput, "image exceeds %d bytes", s.maxBytes)
	}
	if len(body) == 0 {
		return nil, apperr.New(apperr.InvalidInput, "image is empty")
	}

	contentType := mime.TypeByExtension(ext)
	if contentType == "" {
		contentType = http.DetectContentType(body)
	}
	key := fmt.Sprintf("products/%d/%s%s", productID, uuid.NewString(), ext)
	if err := s.disk.Put(ctx, key, bytes.NewReader(body), contentType); err != nil {
		return nil, apperr.Wrap(apperr.Internal, "store image", err)
	}

	p, err := s.catalog.AddImage(ctx, productID, s.disk.URL(key))
	if err != nil {
		if derr := s.disk.Delete(ctx, key); derr != nil {
			logger.WithCtx(ctx).Warn("image: cleanup after failed update", "key", key, "error", derr)
		}
		return nil, err
	}
	logger.WithCtx(ctx).Info("image: uploaded", "product_id", productID, "key", key, "bytes", len(body))
	return p, nil
}

// Delete removes url from the product and, when it lives on the disk, the
// stored file.
func (s *ImageService) Delete(ctx context.Context, productID uint, url string) (*models.Product, error) {
	if strings.TrimSpace(url) == "" {
		return nil, apperr.New(apperr.InvalidInput, "url is required")
	}
	p, err := s.catalog.RemoveImage(ctx, productID, url)
	if err != nil {
		return nil, err
	}
	if key, ok := s.disk.Key(url); ok {
		if err := s.disk.Delete(ctx, key); err != nil {
			logger.WithCtx(ctx).Warn("image: delete file failed", "key", key, "error", err)
		}
	}
	return p, nil
}

// DeleteAll removes every stored file of a product.
func (s *ImageService) DeleteAll(ctx context.Context, productID uint) error {
	return s.disk.DeletePrefix(ctx, fmt.Sprintf("products/%d", productID))
}
