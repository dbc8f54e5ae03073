package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

type CreateFeeRequest struct {
	StudentID   snowflake.ID
	RoomID      *snowflake.ID
	Type        FeeType
	Amount      int64
	LateFee     int64
	Discount    int64
	DueDate     time.Time
	Month       int
	Year        int
	Description string
	CreatedByID *snowflake.ID
}

type UpdateFeeRequest struct {
	Amount   *int64
	LateFee  *int64
	Discount *int64
	DueDate  *time.Time
}

type AddPaymentRequest struct {
	Amount        int64
	Method        PaymentMethod
	TransactionID string
	ReceiptNumber string
	PaidByID      snowflake.ID
}

type ListFeesRequest struct {
	StudentID snowflake.ID
	Status    FeeStatus
	Type      FeeType
	Month     int
	Year      int
}

// FeeStats summarizes a year's billing position.
type FeeStats struct {
	Year              int   `json:"year"`
	TotalFees         int64 `json:"total_fees"`
	PaidFees          int64 `json:"paid_fees"`
	PendingFees       int64 `json:"pending_fees"`
	OverdueFees       int64 `json:"overdue_fees"`
	CollectedAmount   int64 `json:"collected_amount"`
	OutstandingAmount int64 `json:"outstanding_amount"`
}

type Service interface {
	Create(ctx context.Context, req CreateFeeRequest) (*Fee, error)
	Update(ctx context.Context, feeID snowflake.ID, req UpdateFeeRequest) (*Fee, error)
	GetByID(ctx context.Context, feeID snowflake.ID) (*Fee, error)
	List(ctx context.Context, req ListFeesRequest) ([]Fee, error)

	// AddPayment appends an immutable payment and recomputes derived state.
	// Over-payment is rejected: the balance can reach exactly zero, never
	// go negative.
	AddPayment(ctx context.Context, feeID snowflake.ID, req AddPaymentRequest) (*Fee, error)

	// Waive cancels the obligation. The balance is frozen at its current
	// value for audit and only an explicit action leaves WAIVED.
	Waive(ctx context.Context, feeID snowflake.ID, reason string) (*Fee, error)

	// AddReminder appends an immutable reminder record.
	AddReminder(ctx context.Context, feeID snowflake.ID, channel ReminderChannel) (*Fee, error)

	// Defaulters returns fees with positive balance in OVERDUE or PARTIAL.
	Defaulters(ctx context.Context) ([]Fee, error)

	Stats(ctx context.Context, year int) (FeeStats, error)
}

var (
	ErrFeeNotFound            = errors.New("fee_not_found")
	ErrStudentNotFound = errors.New("student_not_found")
	ErrRoomNotFound    = errors.New("room_not_found")
	ErrInvalidAmount   = errors.New("invalid_amount")
	ErrInvalidFeeType  = errors.New("invalid_fee_type")
	ErrInvalidMethod   = errors.New("invalid_method")
	ErrInvalidPeriod   = errors.New("invalid_period")
	ErrInvalidChannel  = errors.New("invalid_channel")
	ErrAlreadySettled  = errors.New("already_settled")
	ErrNothingDue      = errors.New("nothing_due")
)
