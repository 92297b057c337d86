// Package migrations registers the schema. Import it for side effects.
package migrations

import (
	"gorm.io/gorm"

	"github.com/fakush/CoderHouse-Backend-EntregaFinal/app/models"
	"github.com/fakush/CoderHouse-Backend-EntregaFinal/pkg/migration"
	"github.com/fakush/CoderHouse-Backend-EntregaFinal/pkg/queue"
)

func init() {
	migration.Register("20240101000000_create_users_table", tables{&models.User{}})
	migration.Register("20240101000001_create_products_table", tables{&models.Product{}})
	migration.Register("20240101000002_create_carts_tables", tables{&models.Cart{}, &models.CartItem{}})
	migration.Register("20240101000003_create_orders_tables", tables{&models.Order{}, &models.OrderItem{}, &models.OrderEvent{}})
	migration.Register("20240101000004_create_chat_messages_table", tables{&models.ChatMessage{}})
	migration.Register("20240101000005_create_failed_jobs_table", tables{&queue.FailedJobRecord{}})
}

// tables creates its models on Up and drops them in reverse order on Down.
type tables []any

func (t tables) Up(tx *gorm.DB) error {
	return tx.AutoMigrate(t...)
}

func (t tables) Down(tx *gorm.DB) error {
	for i := len(t) - 1; i >= 0; i-- {
		if err := tx.Migrator().DropTable(t[i]); err != nil {
			return err
		}
	}
	return nil
}
