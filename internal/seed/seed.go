package seed

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/Sasidhar-2001/HMS/internal/config"
	roomdomain "github.com/Sasidhar-2001/HMS/internal/room/domain"
	userdomain "github.com/Sasidhar-2001/HMS/internal/user/domain"
)

const fallbackAdminPassword = "admin"

// EnsureDefaultAdmin seeds the bootstrap admin account when none exists.
func EnsureDefaultAdmin(db *gorm.DB, node *snowflake.Node, cfg config.Config) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	email := strings.ToLower(strings.TrimSpace(cfg.Bootstrap.AdminEmail))
	if email == "" {
		return errors.New("seed admin email is required")
	}
	password := cfg.Bootstrap.AdminPassword
	if password == "" {
		password = fallbackAdminPassword
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&userdomain.User{}).
			Where("role = ?", userdomain.RoleAdmin).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return nil
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		admin := userdomain.User{
			ID:           node.Generate(),
			Email:        email,
			FirstName:    "Hostel",
			LastName:     "Admin",
			Role:         userdomain.RoleAdmin,
			PasswordHash: string(hash),
			IsActive:     true,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		return tx.Create(&admin).Error
	})
}

// EnsureSampleRooms seeds a small block of rooms for local development.
func EnsureSampleRooms(db *gorm.DB, node *snowflake.Node) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&roomdomain.Room{}).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return nil
		}

		now := time.Now().UTC()
		samples := []roomdomain.Room{
			{RoomNumber: "A-101", Floor: 1, Block: "A", Type: roomdomain.RoomTypeSingle, Capacity: 1, MonthlyRent: 800000, SecurityDeposit: 500000},
			{RoomNumber: "A-102", Floor: 1, Block: "A", Type: roomdomain.RoomTypeDouble, Capacity: 2, MonthlyRent: 600000, SecurityDeposit: 400000},
			{RoomNumber: "B-201", Floor: 2, Block: "B", Type: roomdomain.RoomTypeTriple, Capacity: 3, MonthlyRent: 450000, SecurityDeposit: 300000},
		}
		for i := range samples {
			samples[i].ID = node.Generate()
			samples[i].Status = roomdomain.RoomStatusAvailable
			samples[i].IsActive = true
			samples[i].CreatedAt = now
			samples[i].UpdatedAt = now
			if err := tx.Create(&samples[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
