package storage_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fakush/CoderHouse-Backend-EntregaFinal/pkg/storage"
)

func TestLocalDiskRoundTrip(t *testing.T) {
	ctx := context.Background()
	disk, err := storage.NewLocalDisk(t.TempDir(), "http://localhost:8080/storage/")
	require.NoError(t, err)

	require.NoError(t, disk.Put(ctx, "products/3/a.png", strings.NewReader("png"), "image/png"))

	ok, err := disk.Exists(ctx, "products/3/a.png")
	require.NoError(t, err)
	assert.True(t, ok)

	data, err := os.ReadFile(filepath.Join(disk.Root(), "products", "3", "a.png"))
	require.NoError(t, err)
	assert.Equal(t, "png", string(data))

	url := disk.URL("products/3/a.png")
	assert.Equal(t, "http://localhost:8080/storage/products/3/a.png", url)
	key, ok := disk.Key(url)
	assert.True(t, ok)
	assert.Equal(t, "products/3/a.png", key)

	_, ok = disk.Key("https://elsewhere.example.com/a.png")
	assert.False(t, ok)

	require.NoError(t, disk.DeletePrefix(ctx, "products/3"))
	ok, err = disk.Exists(ctx, "products/3/a.png")
	require.NoError(t, err)
	assert.False(t, ok)

	assert.NoError(t, disk.Delete(ctx, "products/3/a.png"))
}

func TestLocalDiskRejectsTraversal(t *testing.T) {
	disk, err := storage.NewLocalDisk(t.TempDir(), "http://x/storage")
	require.NoError(t, err)

	err = disk.Put(context.Background(), "../escape.txt", strings.NewReader("x"), "")
	assert.ErrorIs(t, err, storage.ErrInvalidPath)
}
