// Package testkit holds helpers shared by the package tests: an in-memory
// database with the full schema, a settable clock, a mail recorder and
// envelope decoding for HTTP responses.
package testkit

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	_ "github.com/fakush/CoderHouse-Backend-EntregaFinal/database/migrations"
	"github.com/fakush/CoderHouse-Backend-EntregaFinal/pkg/database"
	"github.com/fakush/CoderHouse-Backend-EntregaFinal/pkg/migration"
)

// NewDB opens a private in-memory SQLite database with every migration
// applied. It is closed when the test ends.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%s?mode=memory&cache=shared", name, uuid.NewString()[:8])

	db, err := database.Open("sqlite", dsn)
	require.NoError(t, err, "open test database")
	t.Cleanup(func() { _ = database.Close(db) })

	_, err = migration.New(db, nil).Run(context.Background())
	require.NoError(t, err, "migrate test database")
	return db
}
