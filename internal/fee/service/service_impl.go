package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Sasidhar-2001/HMS/internal/cache"
	"github.com/Sasidhar-2001/HMS/internal/clock"
	"github.com/Sasidhar-2001/HMS/internal/events"
	feedomain "github.com/Sasidhar-2001/HMS/internal/fee/domain"
	roomdomain "github.com/Sasidhar-2001/HMS/internal/room/domain"
	userdomain "github.com/Sasidhar-2001/HMS/internal/user/domain"
	"github.com/Sasidhar-2001/HMS/pkg/db"
)

const statsCacheTTL = time.Minute

type Params struct {
	fx.In

	DB     *gorm.DB
	Log    *zap.Logger
	GenID  *snowflake.Node
	Clock  clock.Clock
	Outbox *events.Outbox
}

type Service struct {
	db     *gorm.DB
	log    *zap.Logger
	genID  *snowflake.Node
	clock  clock.Clock
	outbox *events.Outbox
	stats  *cache.TTLCache[int, feedomain.FeeStats]
}

func NewService(p Params) feedomain.Service {
	return &Service{
		db:     p.DB,
		log:    p.Log.Named("fee.service"),
		genID:  p.GenID,
		clock:  p.Clock,
		outbox: p.Outbox,
		stats:  cache.NewTTLCache[int, feedomain.FeeStats](),
	}
}

func (s *Service) Create(ctx context.Context, req feedomain.CreateFeeRequest) (*feedomain.Fee, error) {
	if err := feedomain.ValidateCharge(req.Amount, req.LateFee, req.Discount); err != nil {
		return nil, err
	}
	if err := validateFeeType(req.Type); err != nil {
		return nil, err
	}
	if req.Month < 1 || req.Month > 12 || req.Year < 2000 {
		return nil, feedomain.ErrInvalidPeriod
	}
	if req.DueDate.IsZero() {
		return nil, feedomain.ErrInvalidPeriod
	}

	var created *feedomain.Fee
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.checkStudent(ctx, tx, req.StudentID); err != nil {
			return err
		}
		if req.RoomID != nil {
			var count int64
			if err := tx.Model(&roomdomain.Room{}).
				Where("id = ?", *req.RoomID).
				Count(&count).Error; err != nil {
				return err
			}
			if count == 0 {
				return feedomain.ErrRoomNotFound
			}
		}

		now := s.clock.Now()
		fee := &feedomain.Fee{
			ID:          s.genID.Generate(),
			StudentID:   req.StudentID,
			RoomID:      req.RoomID,
			Type:        req.Type,
			Month:       req.Month,
			Year:        req.Year,
			DueDate:     req.DueDate,
			Amount:      req.Amount,
			LateFee:     req.LateFee,
			Discount:    req.Discount,
			Description: strings.TrimSpace(req.Description),
			CreatedByID: req.CreatedByID,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		feedomain.Recompute(fee, now)

		if err := tx.Create(fee).Error; err != nil {
			return err
		}

		if err := s.outbox.PublishTx(ctx, tx, events.Event{
			Type: events.EventFeeCreated,
			Payload: events.FeePayload{
				FeeID:     fee.ID.String(),
				StudentID: fee.StudentID.String(),
				Amount:    fee.FinalAmount,
			}.ToMap(),
			DedupeKey: fmt.Sprintf("fee.created:%s", fee.ID),
		}); err != nil {
			return err
		}

		created = fee
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("fee created",
		zap.String("fee_id", created.ID.String()),
		zap.String("student_id", created.StudentID.String()),
		zap.String("fee_type", string(created.Type)),
		zap.Int64("final_amount", created.FinalAmount),
	)
	return created, nil
}

func (s *Service) Update(ctx context.Context, feeID snowflake.ID, req feedomain.UpdateFeeRequest) (*feedomain.Fee, error) {
	var updated *feedomain.Fee
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		fee, err := lockFee(ctx, tx, feeID)
		if err != nil {
			return err
		}
		if fee.Status == feedomain.FeeStatusWaived {
			return feedomain.ErrAlreadySettled
		}

		amount := fee.Amount
		lateFee := fee.LateFee
		discount := fee.Discount
		if req.Amount != nil {
			amount = *req.Amount
		}
		if req.LateFee != nil {
			lateFee = *req.LateFee
		}
		if req.Discount != nil {
			discount = *req.Discount
		}
		if err := feedomain.ValidateCharge(amount, lateFee, discount); err != nil {
			return err
		}
		// An edit may not shrink the charge below what has been collected.
		if amount+lateFee-discount < fee.PaidAmount {
			return feedomain.ErrInvalidAmount
		}

		fee.Amount = amount
		fee.LateFee = lateFee
		fee.Discount = discount
		if req.DueDate != nil {
			if req.DueDate.IsZero() {
				return feedomain.ErrInvalidPeriod
			}
			fee.DueDate = *req.DueDate
		}

		now := s.clock.Now()
		feedomain.Recompute(fee, now)
		fee.UpdatedAt = now
		if err := tx.Save(fee).Error; err != nil {
			return err
		}
		updated = fee
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *Service) GetByID(ctx context.Context, feeID snowflake.ID) (*feedomain.Fee, error) {
	var fee feedomain.Fee
	err := s.db.WithContext(ctx).
		Preload("Payments", func(db *gorm.DB) *gorm.DB { return db.Order("paid_date ASC, id ASC") }).
		Preload("Reminders", func(db *gorm.DB) *gorm.DB { return db.Order("sent_at DESC") }).
		Where("id = ?", feeID).
		First(&fee).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, feedomain.ErrFeeNotFound
	}
	if err != nil {
		return nil, err
	}
	return &fee, nil
}

func (s *Service) List(ctx context.Context, req feedomain.ListFeesRequest) ([]feedomain.Fee, error) {
	query := s.db.WithContext(ctx).Model(&feedomain.Fee{})
	if req.StudentID != 0 {
		query = query.Where("student_id = ?", req.StudentID)
	}
	if req.Status != "" {
		query = query.Where("status = ?", req.Status)
	}
	if req.Type != "" {
		query = query.Where("fee_type = ?", req.Type)
	}
	if req.Month != 0 {
		query = query.Where("month = ?", req.Month)
	}
	if req.Year != 0 {
		query = query.Where("year = ?", req.Year)
	}

	var fees []feedomain.Fee
	if err := query.Order("due_date ASC, id ASC").Find(&fees).Error; err != nil {
		return nil, err
	}
	return fees, nil
}

func (s *Service) AddPayment(ctx context.Context, feeID snowflake.ID, req feedomain.AddPaymentRequest) (*feedomain.Fee, error) {
	if req.Amount <= 0 {
		return nil, feedomain.ErrInvalidAmount
	}
	if err := validateMethod(req.Method); err != nil {
		return nil, err
	}

	var updated *feedomain.Fee
	var payment *feedomain.FeePayment
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		fee, err := lockFee(ctx, tx, feeID)
		if err != nil {
			return err
		}
		if fee.Status == feedomain.FeeStatusPaid || fee.Status == feedomain.FeeStatusWaived {
			return feedomain.ErrAlreadySettled
		}
		// Reject over-payment: the ledger never records a negative balance.
		if req.Amount > fee.BalanceAmount {
			return feedomain.ErrInvalidAmount
		}

		now := s.clock.Now()
		transactionID := strings.TrimSpace(req.TransactionID)
		if transactionID == "" {
			transactionID = uuid.NewString()
		}

		entry := &feedomain.FeePayment{
			ID:            s.genID.Generate(),
			FeeID:         fee.ID,
			Amount:        req.Amount,
			PaidDate:      now,
			Method:        req.Method,
			TransactionID: transactionID,
			ReceiptNumber: strings.TrimSpace(req.ReceiptNumber),
			PaidByID:      req.PaidByID,
			CreatedAt:     now,
		}
		if err := tx.Create(entry).Error; err != nil {
			return err
		}

		fee.PaidAmount += req.Amount
		feedomain.Recompute(fee, now)
		if fee.Status == feedomain.FeeStatusPaid && fee.ReceiptNumber == "" {
			if entry.ReceiptNumber != "" {
				fee.ReceiptNumber = entry.ReceiptNumber
			} else {
				fee.ReceiptNumber = generateReceiptNumber(now)
			}
		}
		fee.UpdatedAt = now
		if err := tx.Save(fee).Error; err != nil {
			return err
		}

		if err := s.outbox.PublishTx(ctx, tx, events.Event{
			Type: events.EventPaymentRecorded,
			Payload: events.FeePayload{
				FeeID:     fee.ID.String(),
				StudentID: fee.StudentID.String(),
				Amount:    entry.Amount,
			}.ToMap(),
			DedupeKey: fmt.Sprintf("fee.payment_recorded:%s", entry.ID),
		}); err != nil {
			return err
		}

		updated = fee
		payment = entry
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("payment recorded",
		zap.String("fee_id", updated.ID.String()),
		zap.Int64("amount", payment.Amount),
		zap.Int64("balance", updated.BalanceAmount),
		zap.String("status", string(updated.Status)),
	)
	return updated, nil
}

func (s *Service) Waive(ctx context.Context, feeID snowflake.ID, reason string) (*feedomain.Fee, error) {
	var updated *feedomain.Fee
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		fee, err := lockFee(ctx, tx, feeID)
		if err != nil {
			return err
		}

		now := s.clock.Now()
		fee.Status = feedomain.FeeStatusWaived
		fee.WaiveReason = strings.TrimSpace(reason)
		feedomain.Recompute(fee, now)
		fee.UpdatedAt = now
		if err := tx.Save(fee).Error; err != nil {
			return err
		}

		if err := s.outbox.PublishTx(ctx, tx, events.Event{
			Type: events.EventFeeWaived,
			Payload: events.FeePayload{
				FeeID:     fee.ID.String(),
				StudentID: fee.StudentID.String(),
			}.ToMap(),
			DedupeKey: fmt.Sprintf("fee.waived:%s", fee.ID),
		}); err != nil {
			return err
		}

		updated = fee
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("fee waived",
		zap.String("fee_id", updated.ID.String()),
		zap.String("reason", updated.WaiveReason),
	)
	return updated, nil
}

func (s *Service) AddReminder(ctx context.Context, feeID snowflake.ID, channel feedomain.ReminderChannel) (*feedomain.Fee, error) {
	switch channel {
	case feedomain.ReminderChannelEmail, feedomain.ReminderChannelSMS:
	default:
		return nil, feedomain.ErrInvalidChannel
	}

	var updated *feedomain.Fee
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		fee, err := lockFee(ctx, tx, feeID)
		if err != nil {
			return err
		}
		if fee.Status == feedomain.FeeStatusPaid || fee.Status == feedomain.FeeStatusWaived {
			return feedomain.ErrNothingDue
		}

		now := s.clock.Now()
		reminder := &feedomain.FeeReminder{
			ID:        s.genID.Generate(),
			FeeID:     fee.ID,
			SentAt:    now,
			Channel:   channel,
			Status:    feedomain.ReminderStatusSent,
			CreatedAt: now,
		}
		if err := tx.Create(reminder).Error; err != nil {
			return err
		}

		if err := s.outbox.PublishTx(ctx, tx, events.Event{
			Type: events.EventReminderSent,
			Payload: events.FeePayload{
				FeeID:     fee.ID.String(),
				StudentID: fee.StudentID.String(),
				Channel:   string(channel),
			}.ToMap(),
			DedupeKey: fmt.Sprintf("fee.reminder_sent:%s", reminder.ID),
		}); err != nil {
			return err
		}

		updated = fee
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *Service) Defaulters(ctx context.Context) ([]feedomain.Fee, error) {
	var fees []feedomain.Fee
	err := s.db.WithContext(ctx).
		Where("status IN ?", []feedomain.FeeStatus{feedomain.FeeStatusOverdue, feedomain.FeeStatusPartial}).
		Where("balance_amount > 0").
		Order("due_date ASC, id ASC").
		Find(&fees).Error
	if err != nil {
		return nil, err
	}
	return fees, nil
}

func (s *Service) Stats(ctx context.Context, year int) (feedomain.FeeStats, error) {
	if year == 0 {
		year = s.clock.Now().Year()
	}
	if cached, ok := s.stats.Get(year); ok {
		return cached, nil
	}

	stats := feedomain.FeeStats{Year: year}
	base := func() *gorm.DB {
		return s.db.WithContext(ctx).Model(&feedomain.Fee{}).Where("year = ?", year)
	}

	if err := base().Count(&stats.TotalFees).Error; err != nil {
		return feedomain.FeeStats{}, err
	}
	if err := base().Where("status = ?", feedomain.FeeStatusPaid).Count(&stats.PaidFees).Error; err != nil {
		return feedomain.FeeStats{}, err
	}
	if err := base().Where("status = ?", feedomain.FeeStatusPending).Count(&stats.PendingFees).Error; err != nil {
		return feedomain.FeeStats{}, err
	}
	if err := base().Where("status = ?", feedomain.FeeStatusOverdue).Count(&stats.OverdueFees).Error; err != nil {
		return feedomain.FeeStats{}, err
	}
	if err := base().
		Select("COALESCE(SUM(paid_amount), 0)").
		Scan(&stats.CollectedAmount).Error; err != nil {
		return feedomain.FeeStats{}, err
	}
	if err := base().
		Where("status <> ?", feedomain.FeeStatusWaived).
		Select("COALESCE(SUM(balance_amount), 0)").
		Scan(&stats.OutstandingAmount).Error; err != nil {
		return feedomain.FeeStats{}, err
	}

	s.stats.Set(year, stats, statsCacheTTL)
	return stats, nil
}

func (s *Service) checkStudent(ctx context.Context, tx *gorm.DB, studentID snowflake.ID) error {
	var count int64
	err := tx.WithContext(ctx).Model(&userdomain.User{}).
		Where("id = ? AND is_active", studentID).
		Count(&count).Error
	if err != nil {
		return err
	}
	if count == 0 {
		return feedomain.ErrStudentNotFound
	}
	return nil
}

func lockFee(ctx context.Context, tx *gorm.DB, feeID snowflake.ID) (*feedomain.Fee, error) {
	var fee feedomain.Fee
	err := db.LockForUpdate(tx.WithContext(ctx)).Where("id = ?", feeID).First(&fee).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, feedomain.ErrFeeNotFound
	}
	if err != nil {
		return nil, err
	}
	return &fee, nil
}

func validateFeeType(feeType feedomain.FeeType) error {
	switch feeType {
	case feedomain.FeeTypeRoomRent, feedomain.FeeTypeMessFee, feedomain.FeeTypeSecurityDeposit,
		feedomain.FeeTypeMaintenance, feedomain.FeeTypeElectricity, feedomain.FeeTypeWater,
		feedomain.FeeTypeInternet, feedomain.FeeTypeOther:
		return nil
	default:
		return feedomain.ErrInvalidFeeType
	}
}

func validateMethod(method feedomain.PaymentMethod) error {
	switch method {
	case feedomain.PaymentMethodCash, feedomain.PaymentMethodCard, feedomain.PaymentMethodUPI,
		feedomain.PaymentMethodBankTransfer, feedomain.PaymentMethodCheque, feedomain.PaymentMethodOnline:
		return nil
	default:
		return feedomain.ErrInvalidMethod
	}
}

// generateReceiptNumber follows the RCPYYYYMMXXXX scheme used on printed
// receipts.
func generateReceiptNumber(now time.Time) string {
	return fmt.Sprintf("RCP%s%04d", now.Format("200601"), rand.IntN(10000))
}
