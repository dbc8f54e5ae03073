package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Occupancy is one student's stay in one room. Rows are never deleted;
// vacating flips is_active and stamps vacated_date. A partial unique index
// on (student_id) WHERE is_active backs the one-active-stay-per-student
// invariant at the storage layer.
type Occupancy struct {
	ID            snowflake.ID `gorm:"primaryKey" json:"id"`
	StudentID     snowflake.ID `gorm:"not null;index" json:"student_id"`
	RoomID        snowflake.ID `gorm:"not null;index" json:"room_id"`
	AllocatedDate time.Time    `gorm:"not null" json:"allocated_date"`
	VacatedDate   *time.Time   `json:"vacated_date,omitempty"`
	BedNumber     int          `gorm:"not null" json:"bed_number"`
	IsActive      bool         `gorm:"not null;default:true" json:"is_active"`
	CreatedAt     time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (Occupancy) TableName() string { return "occupancies" }
