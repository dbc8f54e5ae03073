package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

type CreateRoomRequest struct {
	RoomNumber      string   `json:"room_number"`
	Floor           int      `json:"floor"`
	Block           string   `json:"block"`
	Type            RoomType `json:"type"`
	Capacity        int      `json:"capacity"`
	Amenities       []string `json:"amenities"`
	MonthlyRent     int64    `json:"monthly_rent"`
	SecurityDeposit int64    `json:"security_deposit"`
	Description     string   `json:"description"`
}

type UpdateRoomRequest struct {
	Floor           *int      `json:"floor"`
	Block           *string   `json:"block"`
	Type            *RoomType `json:"type"`
	Capacity        *int      `json:"capacity"`
	Amenities       []string  `json:"amenities"`
	MonthlyRent     *int64    `json:"monthly_rent"`
	SecurityDeposit *int64    `json:"security_deposit"`
	Description     *string   `json:"description"`
}

type ListRoomsRequest struct {
	Block  string
	Type   RoomType
	Status RoomStatus
}

// AvailableRoomsRequest filters the snapshot of rooms open for assignment.
type AvailableRoomsRequest struct {
	Block string
	Type  RoomType
}

type Service interface {
	Create(ctx context.Context, req CreateRoomRequest) (*Room, error)
	Update(ctx context.Context, id snowflake.ID, req UpdateRoomRequest) (*Room, error)
	GetByID(ctx context.Context, id snowflake.ID) (*Room, error)
	List(ctx context.Context, req ListRoomsRequest) ([]Room, error)

	// Available returns active rooms that are not under maintenance and have
	// free capacity. The result is a finite snapshot, not a live cursor.
	Available(ctx context.Context, req AvailableRoomsRequest) ([]Room, error)

	// SetManualStatus moves a room into or out of MAINTENANCE/RESERVED.
	SetManualStatus(ctx context.Context, id snowflake.ID, status RoomStatus) (*Room, error)

	// Deactivate retires a room. It fails while any active occupancy remains.
	Deactivate(ctx context.Context, id snowflake.ID) error
}

var (
	ErrRoomNotFound      = errors.New("room_not_found")
	ErrInvalidRoomNumber = errors.New("invalid_room_number")
	ErrRoomNumberTaken   = errors.New("room_number_taken")
	ErrInvalidCapacity   = errors.New("invalid_capacity")
	ErrInvalidRent       = errors.New("invalid_rent")
	ErrInvalidStatus     = errors.New("invalid_status")
	ErrRoomHasOccupants  = errors.New("room_has_occupants")
)
