package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"

	roomdomain "github.com/Sasidhar-2001/HMS/internal/room/domain"
)

type AssignRequest struct {
	StudentID snowflake.ID
	RoomID    snowflake.ID

	// BedNumber is optional; zero means assign the next free ordinal.
	BedNumber int
}

type Service interface {
	// Assign creates an active occupancy and recomputes the room status in
	// the same transaction. It fails without side effects when the student
	// already has an active stay, the room is full, or the room is not
	// assignable.
	Assign(ctx context.Context, req AssignRequest) (*Occupancy, error)

	// Remove vacates the active occupancy for (student, room) and returns
	// the room to AVAILABLE when capacity frees up.
	Remove(ctx context.Context, studentID, roomID snowflake.ID) error

	// CurrentRoom resolves the student's single active occupancy, or nil.
	CurrentRoom(ctx context.Context, studentID snowflake.ID) (*roomdomain.Room, error)

	// History lists all occupancies for a student, newest first.
	History(ctx context.Context, studentID snowflake.ID) ([]Occupancy, error)
}

var (
	ErrStudentNotFound = errors.New("student_not_found")
	ErrRoomNotFound    = errors.New("room_not_found")
	ErrAlreadyAssigned = errors.New("already_assigned")
	ErrNotAssigned     = errors.New("not_assigned")
	ErrRoomFull        = errors.New("room_full")
	ErrRoomUnavailable = errors.New("room_unavailable")
	ErrNotAStudent     = errors.New("not_a_student")
)
