package models

import "time"

// User is an account. Password holds the bcrypt hash and is never serialised.
type User struct {
	ID        uint      `gorm:"primaryKey"                     json:"id"`
	Username  string    `gorm:"size:64;uniqueIndex;not null"   json:"username"`
	Email     string    `gorm:"size:255;uniqueIndex;not null"  json:"email"`
	Password  string    `gorm:"size:255;not null"              json:"-"`
	FirstName string    `gorm:"size:100"                       json:"first_name"`
	LastName  string    `gorm:"size:100"                       json:"last_name"`
	Address   string    `gorm:"size:255"                       json:"address"`
	Phone     string    `gorm:"size:50"                        json:"phone"`
	Age       int       `                                      json:"age"`
	IsAdmin   bool      `gorm:"not null;default:false"         json:"is_admin"`
	CreatedAt time.Time `                                      json:"created_at"`
	UpdatedAt time.Time `                                      json:"updated_at"`
}
