package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/mateovidal/storelane-backend/pkg/enums"
)

// User is a registered shopper or admin account.
type User struct {
	ID           uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Name         string         `gorm:"type:text;not null" json:"name"`
	Email        string         `gorm:"type:text;not null;uniqueIndex:idx_users_email" json:"email"`
	PasswordHash string         `gorm:"type:text;not null" json:"-"`
	Role         enums.UserRole `gorm:"type:text;not null;default:'customer'" json:"role"`
	CreatedAt    time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt    time.Time      `gorm:"not null;default:now()" json:"updated_at"`
}

// TableName overrides the default GORM table name.
func (User) TableName() string {
	return "users"
}

// IsAdmin reports whether the account carries the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == enums.UserRoleAdmin
}
