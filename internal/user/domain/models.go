package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Role is the closed set of hostel roles carried by the identity provider.
type Role string

const (
	RoleAdmin   Role = "ADMIN"
	RoleWarden  Role = "WARDEN"
	RoleStudent Role = "STUDENT"
)

// User is the minimal resident/staff record the billing core depends on.
// Profile management lives outside this service.
type User struct {
	ID           snowflake.ID `gorm:"primaryKey" json:"id"`
	Email        string       `gorm:"type:text;not null;uniqueIndex" json:"email"`
	FirstName    string       `gorm:"type:text;not null" json:"first_name"`
	LastName     string       `gorm:"type:text;not null" json:"last_name"`
	Role         Role         `gorm:"type:text;not null;default:'STUDENT'" json:"role"`
	PasswordHash string       `gorm:"type:text;not null" json:"-"`
	IsActive     bool         `gorm:"not null;default:true" json:"is_active"`
	CreatedAt    time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt    time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (User) TableName() string { return "users" }
