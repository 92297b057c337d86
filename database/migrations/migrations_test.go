package migrations_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fakush/CoderHouse-Backend-EntregaFinal/app/models"
	"github.com/fakush/CoderHouse-Backend-EntregaFinal/pkg/migration"
	"github.com/fakush/CoderHouse-Backend-EntregaFinal/pkg/testkit"
)

func TestSchemaRoundTrip(t *testing.T) {
	db := testkit.NewDB(t)
	ctx := context.Background()
	var out bytes.Buffer
	runner := migration.New(db, &out)

	status, err := runner.Status(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, status)
	for _, s := range status {
		assert.True(t, s.Ran, s.Name)
		assert.Equal(t, 1, s.Batch, s.Name)
	}
	n, err := runner.Run(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Contains(t, out.String(), "Nothing to migrate.")

	rolled, err := runner.Rollback(ctx)
	require.NoError(t, err)
	assert.Equal(t, len(status), rolled)
	for _, table := range []any{&models.User{}, &models.Product{}, &models.Cart{}, &models.Order{}, &models.ChatMessage{}} {
		assert.False(t, db.Migrator().HasTable(table), "%T", table)
	}

	n, err = runner.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, len(status), n)
	assert.True(t, db.Migrator().HasTable(&models.OrderItem{}))

	status, err = runner.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, status[0].Batch, "a rolled back batch number is reused")
}
