// Package storage stores uploaded files on the local filesystem or an
// S3-compatible bucket (AWS S3, MinIO, R2).
//
//	disk, err := storage.New(storage.Options{Driver: "local", LocalRoot: "storage", BaseURL: "http://localhost:8080/storage"})
//	err = disk.Put(ctx, "products/3/4b1e.png", file, "image/png")
//	url := disk.URL("products/3/4b1e.png")
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrInvalidPath is returned for keys that escape the disk root.
var ErrInvalidPath = errors.New("storage: invalid path")

// Disk is a flat key/object store with public URLs.
type Disk interface {
	Put(ctx context.Context, key string, r io.Reader, contentType string) error
	Exists(ctx context.Context, key string) (bool, error)
	// Delete removes key. A missing key is not an error.
	Delete(ctx context.Context, key string) error
	// DeletePrefix removes every key under prefix.
	DeletePrefix(ctx context.Context, prefix string) error
	URL(key string) string
	// Key reverses URL. It reports false for URLs this disk did not issue.
	Key(url string) (string, bool)
}

// Options selects and configures a driver.
type Options struct {
	Driver    string
	LocalRoot string
	BaseURL   string

	S3Bucket   string
	S3Region   string
	S3Key      string
	S3Secret   string
	S3Endpoint string
}

// New builds the disk named by opts.Driver ("local" or "s3").
func New(ctx context.Context, opts Options) (Disk, error) {
	switch opts.Driver {
	case "", "local":
		return NewLocalDisk(opts.LocalRoot, opts.BaseURL)
	case "s3":
		return NewS3Disk(ctx, opts)
	}
	return nil, fmt.Errorf("storage: unknown driver %q", opts.Driver)
}

func keyFromURL(baseURL, url string) (string, bool) {
	prefix := strings.TrimRight(baseURL, "/") + "/"
	if !strings.HasPrefix(url, prefix) {
		return "", false
	}
	key := strings.TrimPrefix(url, prefix)
	return key, key != ""
}

func cleanKey(key string) (string, error) {
	key = strings.TrimLeft(key, "/")
	if key == "" || strings.Contains(key, "..") || strings.Contains(key, "\\") {
		return "", ErrInvalidPath
	}
	return key, nil
}
