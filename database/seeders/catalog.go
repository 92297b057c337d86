package seeders

import (
	"context"
	"os"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/fakush/CoderHouse-Backend-EntregaFinal/app/models"
	"github.com/fakush/CoderHouse-Backend-EntregaFinal/pkg/auth"
)

func init() {
	Register("catalog", seedCatalog)
	Register("admin", seedAdmin)
}

var sampleProducts = []models.Product{
	{Name: "Yerba Mate 1kg", Description: "Yerba mate con palo", Category: "Almacén", Price: decimal.RequireFromString("1450.00"), Stock: 40},
	{Name: "Agua mineral 2L", Description: "Sin gas", Category: "Bebidas", Price: decimal.RequireFromString("520.50"), Stock: 120},
	{Name: "Manzana roja", Description: "Por kilo", Category: "Frescos", Price: decimal.RequireFromString("890.00"), Stock: 60},
	{Name: "Helado de dulce de leche", Description: "Pote de 1kg", Category: "Congelados", Price: decimal.RequireFromString("3200.00"), Stock: 15},
	{Name: "Detergente 750ml", Description: "Aroma limón", Category: "Limpieza", Price: decimal.RequireFromString("980.00"), Stock: 35},
	{Name: "Shampoo 400ml", Description: "Cabello normal", Category: "Perfumería", Price: decimal.RequireFromString("1750.00"), Stock: 25},
	{Name: "Papas fritas 150g", Description: "Clásicas", Category: "Snacks", Price: decimal.RequireFromString("1100.00"), Stock: 80},
	{Name: "Leche entera 1L", Description: "Sachet", Category: "Lácteos", Price: decimal.RequireFromString("640.00"), Stock: 90},
	{Name: "Jamón cocido 200g", Description: "Feteado", Category: "Fiambres", Price: decimal.RequireFromString("1980.00"), Stock: 20},
	{Name: "Pilas AA x4", Description: "Alcalinas", Category: "Varios", Price: decimal.RequireFromString("2300.00"), Stock: 50},
}

func seedCatalog(ctx context.Context, db *gorm.DB) error {
	var count int64
	if err := db.WithContext(ctx).Model(&models.Product{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	products := append([]models.Product(nil), sampleProducts...)
	return db.WithContext(ctx).Create(&products).Error
}

// seedAdmin creates the "admin" account with SEED_ADMIN_PASSWORD, if it is
// missing.
func seedAdmin(ctx context.Context, db *gorm.DB) error {
	var count int64
	if err := db.WithContext(ctx).Model(&models.User{}).Where("username = ?", "admin").Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	password := os.Getenv("SEED_ADMIN_PASSWORD")
	if password == "" {
		password = "Admin1234"
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		admin := models.User{Username: "admin", Email: "admin@shop.local", Password: hash, IsAdmin: true}
		if err := tx.Create(&admin).Error; err != nil {
			return err
		}
		return tx.Create(&models.Cart{UserID: admin.ID}).Error
	})
}
