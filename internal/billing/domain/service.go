package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"

	feedomain "github.com/Sasidhar-2001/HMS/internal/fee/domain"
)

type GenerateRentRequest struct {
	RoomID    snowflake.ID
	StudentID snowflake.ID
	Month     int
	Year      int

	// WithDeposit also levies the room's security deposit, typically on the
	// first month of a new occupancy.
	WithDeposit bool
	CreatedByID *snowflake.ID
}

type BulkReminderRequest struct {
	Status  feedomain.FeeStatus
	Channel feedomain.ReminderChannel
}

// ReminderFailure records one fee the bulk run could not remind.
type ReminderFailure struct {
	FeeID  snowflake.ID `json:"fee_id"`
	Reason string       `json:"reason"`
}

// BulkReminderReport aggregates per-fee outcomes; the batch never aborts on
// a single failure.
type BulkReminderReport struct {
	Sent     int               `json:"sent"`
	Failures []ReminderFailure `json:"failures,omitempty"`
}

type Service interface {
	// GenerateMonthlyRent levies the room's rent (and optionally deposit)
	// as fees for the given period. Invoked by the caller after assignment;
	// the allocator never triggers billing itself.
	GenerateMonthlyRent(ctx context.Context, req GenerateRentRequest) ([]feedomain.Fee, error)

	// SendBulkReminders reminds every fee in the given status that still
	// carries a balance, collecting per-fee failures.
	SendBulkReminders(ctx context.Context, req BulkReminderRequest) (BulkReminderReport, error)
}

var (
	ErrInvalidPeriod   = errors.New("invalid_period")
	ErrInvalidStatus   = errors.New("invalid_status")
	ErrRoomNotFound    = errors.New("room_not_found")
	ErrDuplicateCharge = errors.New("duplicate_charge")
)
