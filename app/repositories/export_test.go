package repositories

import "gorm.io/gorm"

// SetBeforeSwap installs fn to run inside Mutate's transaction before the
// version check.
func (r *CartRepository) SetBeforeSwap(fn func(tx *gorm.DB)) { r.beforeSwap = fn }

// SetBeforeSwap installs fn to run inside write transactions before the
// guarded update.
func (r *OrderRepository) SetBeforeSwap(fn func(tx *gorm.DB)) { r.beforeSwap = fn }
