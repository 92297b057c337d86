package models

import "time"

// Cart belongs to exactly one user. Version is bumped by every mutation.
type Cart struct {
	ID        uint       `gorm:"primaryKey"                  json:"id"`
	UserID    uint       `gorm:"uniqueIndex;not null"        json:"user_id"`
	Version   uint       `gorm:"not null;default:0"          json:"version"`
	Items     []CartItem `gorm:"foreignKey:CartID"           json:"items"`
	CreatedAt time.Time  `                                   json:"created_at"`
	UpdatedAt time.Time  `                                   json:"updated_at"`
}

// CartItem is one product line. A product appears at most once per cart.
type CartItem struct {
	ID        uint `gorm:"primaryKey"                                  json:"-"`
	CartID    uint `gorm:"not null;uniqueIndex:idx_cart_items_product" json:"-"`
	ProductID uint `gorm:"not null;uniqueIndex:idx_cart_items_product" json:"product_id"`
	Amount    int  `gorm:"not null"                                    json:"amount"`
}

// Line returns the index of productID in c.Items, or -1.
func (c *Cart) Line(productID uint) int {
	for i, it := range c.Items {
		if it.ProductID == productID {
			return i
		}
	}
	return -1
}
