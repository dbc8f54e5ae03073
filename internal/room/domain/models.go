package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// RoomStatus is the closed set of room states. OCCUPIED and AVAILABLE are
// derived from active occupancy; MAINTENANCE and RESERVED are set manually.
type RoomStatus string

const (
	RoomStatusAvailable   RoomStatus = "AVAILABLE"
	RoomStatusOccupied    RoomStatus = "OCCUPIED"
	RoomStatusMaintenance RoomStatus = "MAINTENANCE"
	RoomStatusReserved    RoomStatus = "RESERVED"
)

// RoomType mirrors the bed count classes offered by the hostel.
type RoomType string

const (
	RoomTypeSingle RoomType = "single"
	RoomTypeDouble RoomType = "double"
	RoomTypeTriple RoomType = "triple"
)

// Room is a physical room. Occupant count is never stored on the row; it is
// derived by counting active occupancies inside the same transaction that
// mutates them.
type Room struct {
	ID              snowflake.ID   `gorm:"primaryKey" json:"id"`
	RoomNumber      string         `gorm:"type:text;not null;uniqueIndex" json:"room_number"`
	Floor           int            `gorm:"not null" json:"floor"`
	Block           string         `gorm:"type:text;not null;index" json:"block"`
	Type            RoomType       `gorm:"type:text;not null" json:"type"`
	Capacity        int            `gorm:"not null" json:"capacity"`
	Amenities       datatypes.JSON `gorm:"type:jsonb" json:"amenities"`
	MonthlyRent     int64          `gorm:"not null" json:"monthly_rent"`
	SecurityDeposit int64          `gorm:"not null" json:"security_deposit"`
	Status          RoomStatus     `gorm:"type:text;not null;default:'AVAILABLE';index" json:"status"`
	Description     string         `gorm:"type:text" json:"description,omitempty"`
	IsActive        bool           `gorm:"not null;default:true" json:"is_active"`
	CreatedAt       time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt       time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Room) TableName() string { return "rooms" }

// DeriveStatus recomputes a room's status from its active occupant count.
// Manual states are sticky while the room is not at capacity.
func DeriveStatus(current RoomStatus, activeOccupants int64, capacity int) RoomStatus {
	if capacity > 0 && activeOccupants >= int64(capacity) {
		return RoomStatusOccupied
	}
	switch current {
	case RoomStatusMaintenance, RoomStatusReserved:
		return current
	default:
		return RoomStatusAvailable
	}
}
