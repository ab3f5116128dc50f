package model

import (
	"time"
)

// User model. Credentials live with the external identity provider; this row
// carries what the storefront needs for display and ownership checks.
type User struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	Username  string    `gorm:"type:varchar(50);uniqueIndex;not null" json:"username"`
	Email     *string   `gorm:"type:varchar(100);uniqueIndex" json:"email,omitempty"`
	Role      string    `gorm:"type:varchar(20);not null;default:'user';index" json:"role"`
	CreatedAt time.Time `gorm:"type:timestamp;not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"type:timestamp;not null;default:CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName set name
func (User) TableName() string {
	return "users"
}

// UserRole user role const
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// IsAdmin check if user is an admin
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
