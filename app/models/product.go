package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Categories is the closed set of product categories.
var Categories = []string{
	"Almacén", "Bebidas", "Frescos", "Congelados", "Limpieza",
	"Perfumería", "Snacks", "Lácteos", "Fiambres", "Varios",
}

// ValidCategory reports whether c is one of Categories.
func ValidCategory(c string) bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// Product is a catalog entry. Deleted products stay in the table so order
// history keeps pointing at them.
type Product struct {
	ID          uint            `gorm:"primaryKey"                       json:"id"`
	Name        string          `gorm:"size:255;not null;index"          json:"name"`
	Description string          `gorm:"type:text"                        json:"description"`
	Category    string          `gorm:"size:50;not null;index"           json:"category"`
	Price       decimal.Decimal `gorm:"type:decimal(12,2);not null"      json:"price"`
	Stock       int             `gorm:"not null;default:0"               json:"stock"`
	Images      []string        `gorm:"type:text;serializer:json"        json:"images"`
	CreatedAt   time.Time       `                                        json:"created_at"`
	UpdatedAt   time.Time       `                                        json:"updated_at"`
	DeletedAt   gorm.DeletedAt  `gorm:"index"                            json:"-"`
}
