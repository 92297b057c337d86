package repositories

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/fakush/CoderHouse-Backend-EntregaFinal/app/models"
	"github.com/fakush/CoderHouse-Backend-EntregaFinal/pkg/apperr"
	"github.com/fakush/CoderHouse-Backend-EntregaFinal/pkg/database"
)

// UserRepository stores accounts.
type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Query finds a user whose username or email equals identity, ignoring case.
func (r *UserRepository) Query(ctx context.Context, identity string) (*models.User, error) {
	identity = strings.ToLower(strings.TrimSpace(identity))
	return readRetry(ctx, func() (*models.User, error) {
		var u models.User
		ok, err := first(r.db.WithContext(ctx).Where("LOWER(username) = ? OR LOWER(email) = ?", identity, identity).Order("id"), &u)
		if err != nil || !ok {
			return nil, storeErr("query user", err)
		}
		return &u, nil
	})
}

// FindByID returns the user or nil.
func (r *UserRepository) FindByID(ctx context.Context, id uint) (*models.User, error) {
	return readRetry(ctx, func() (*models.User, error) {
		var u models.User
		ok, err := first(r.db.WithContext(ctx).Where("id = ?", id), &u)
		if err != nil || !ok {
			return nil, storeErr("find user", err)
		}
		return &u, nil
	})
}

// Create inserts u. Duplicate usernames or emails are AlreadyExists.
func (r *UserRepository) Create(ctx context.Context, u *models.User) error {
	return createUser(r.db.WithContext(ctx), u)
}

// CreateWithCart inserts u and its empty cart in one transaction.
func (r *UserRepository) CreateWithCart(ctx context.Context, u *models.User) (*models.Cart, error) {
	var cart *models.Cart
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := createUser(tx, u); err != nil {
			return err
		}
		cart = &models.Cart{UserID: u.ID}
		return tx.Create(cart).Error
	})
	if err != nil {
		return nil, storeErr("create user", err)
	}
	cart.Items = []models.CartItem{}
	return cart, nil
}

func createUser(tx *gorm.DB, u *models.User) error {
	if err := tx.Create(u).Error; err != nil {
		if database.IsUniqueViolation(err) {
			return apperr.Wrap(apperr.AlreadyExists, "user already exists", err)
		}
		return storeErr("create user", err)
	}
	return nil
}

// SetAdmin grants or revokes admin rights by username.
func (r *UserRepository) SetAdmin(ctx context.Context, username string, admin bool) error {
	res := r.db.WithContext(ctx).Model(&models.User{}).
		Where("LOWER(username) = ?", strings.ToLower(strings.TrimSpace(username))).
		Update("is_admin", admin)
	if res.Error != nil {
		return storeErr("update user", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.New(apperr.NotFound, "user not found")
	}
	return nil
}

// Delete removes the user with their cart, orders and chat log.
func (r *UserRepository) Delete(ctx context.Context, id uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		cartIDs := tx.Model(&models.Cart{}).Select("id").Where("user_id = ?", id)
		if err := tx.Where("cart_id IN (?)", cartIDs).Delete(&models.CartItem{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", id).Delete(&models.Cart{}).Error; err != nil {
			return err
		}
		orderIDs := tx.Model(&models.Order{}).Select("id").Where("user_id = ?", id)
		if err := tx.Where("order_id IN (?)", orderIDs).Delete(&models.OrderItem{}).Error; err != nil {
			return err
		}
		if err := tx.Where("order_id IN (?)", orderIDs).Delete(&models.OrderEvent{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", id).Delete(&models.Order{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", id).Delete(&models.ChatMessage{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.User{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperr.New(apperr.NotFound, "user not found")
		}
		return nil
	})
	return storeErr("delete user", err)
}
