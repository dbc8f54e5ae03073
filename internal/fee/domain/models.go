package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// FeeStatus is the closed fee state machine. Every status except WAIVED is
// recomputed from amounts; WAIVED is sticky until an explicit action.
type FeeStatus string

const (
	FeeStatusPending FeeStatus = "PENDING"
	FeeStatusPartial FeeStatus = "PARTIAL"
	FeeStatusPaid    FeeStatus = "PAID"
	FeeStatusOverdue FeeStatus = "OVERDUE"
	FeeStatusWaived  FeeStatus = "WAIVED"
)

// FeeType classifies the charge.
type FeeType string

const (
	FeeTypeRoomRent        FeeType = "room_rent"
	FeeTypeMessFee         FeeType = "mess_fee"
	FeeTypeSecurityDeposit FeeType = "security_deposit"
	FeeTypeMaintenance     FeeType = "maintenance"
	FeeTypeElectricity     FeeType = "electricity"
	FeeTypeWater           FeeType = "water"
	FeeTypeInternet        FeeType = "internet"
	FeeTypeOther           FeeType = "other"
)

// PaymentMethod is how a payment was made.
type PaymentMethod string

const (
	PaymentMethodCash         PaymentMethod = "cash"
	PaymentMethodCard         PaymentMethod = "card"
	PaymentMethodUPI          PaymentMethod = "upi"
	PaymentMethodBankTransfer PaymentMethod = "bank_transfer"
	PaymentMethodCheque       PaymentMethod = "cheque"
	PaymentMethodOnline       PaymentMethod = "online"
)

// ReminderChannel is the delivery channel for a fee reminder.
type ReminderChannel string

const (
	ReminderChannelEmail ReminderChannel = "email"
	ReminderChannelSMS   ReminderChannel = "sms"
)

// ReminderStatusSent is the only delivery status the core records; delivery
// outcomes belong to the external notification sender.
const ReminderStatusSent = "SENT"

// Fee is one billing obligation. All amounts are in minor currency units.
// FinalAmount and BalanceAmount are derived columns, rewritten by Recompute
// after every mutation and never set independently.
type Fee struct {
	ID        snowflake.ID  `gorm:"primaryKey" json:"id"`
	StudentID snowflake.ID  `gorm:"not null;index" json:"student_id"`
	RoomID    *snowflake.ID `gorm:"index" json:"room_id,omitempty"`

	Type    FeeType   `gorm:"column:fee_type;type:text;not null;index" json:"fee_type"`
	Month   int       `gorm:"not null" json:"month"`
	Year    int       `gorm:"not null;index" json:"year"`
	DueDate time.Time `gorm:"not null;index" json:"due_date"`

	Amount        int64 `gorm:"not null" json:"amount"`
	LateFee       int64 `gorm:"not null;default:0" json:"late_fee"`
	Discount      int64 `gorm:"not null;default:0" json:"discount"`
	FinalAmount   int64 `gorm:"not null" json:"final_amount"`
	PaidAmount    int64 `gorm:"not null;default:0" json:"paid_amount"`
	BalanceAmount int64 `gorm:"not null" json:"balance_amount"`

	Status        FeeStatus  `gorm:"type:text;not null;default:'PENDING';index" json:"status"`
	PaidDate      *time.Time `json:"paid_date,omitempty"`
	ReceiptNumber string     `gorm:"type:text" json:"receipt_number,omitempty"`
	WaiveReason   string     `gorm:"type:text" json:"waive_reason,omitempty"`
	Description   string     `gorm:"type:text" json:"description,omitempty"`

	CreatedByID *snowflake.ID `json:"created_by_id,omitempty"`
	CreatedAt   time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt   time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`

	Payments  []FeePayment  `gorm:"foreignKey:FeeID" json:"payments,omitempty"`
	Reminders []FeeReminder `gorm:"foreignKey:FeeID" json:"reminders,omitempty"`
}

// TableName sets the database table name.
func (Fee) TableName() string { return "fees" }

// FeePayment is one immutable entry in a fee's payment ledger.
type FeePayment struct {
	ID            snowflake.ID  `gorm:"primaryKey" json:"id"`
	FeeID         snowflake.ID  `gorm:"not null;index" json:"fee_id"`
	Amount        int64         `gorm:"not null" json:"amount"`
	PaidDate      time.Time     `gorm:"not null" json:"paid_date"`
	Method        PaymentMethod `gorm:"type:text;not null" json:"method"`
	TransactionID string        `gorm:"type:text;not null" json:"transaction_id"`
	ReceiptNumber string        `gorm:"type:text" json:"receipt_number,omitempty"`
	PaidByID      snowflake.ID  `gorm:"not null" json:"paid_by_id"`
	CreatedAt     time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (FeePayment) TableName() string { return "fee_payments" }

// FeeReminder is one immutable reminder record.
type FeeReminder struct {
	ID        snowflake.ID    `gorm:"primaryKey" json:"id"`
	FeeID     snowflake.ID    `gorm:"not null;index" json:"fee_id"`
	SentAt    time.Time       `gorm:"not null" json:"sent_at"`
	Channel   ReminderChannel `gorm:"type:text;not null" json:"channel"`
	Status    string          `gorm:"type:text;not null" json:"status"`
	CreatedAt time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (FeeReminder) TableName() string { return "fee_reminders" }
