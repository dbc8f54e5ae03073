package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	billingdomain "github.com/Sasidhar-2001/HMS/internal/billing/domain"
	feedomain "github.com/Sasidhar-2001/HMS/internal/fee/domain"
	roomdomain "github.com/Sasidhar-2001/HMS/internal/room/domain"
)

// rentDueDay is the day of the billed month the rent falls due.
const rentDueDay = 10

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	RoomSvc roomdomain.Service
	FeeSvc  feedomain.Service
}

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	roomSvc roomdomain.Service
	feeSvc  feedomain.Service
}

func NewService(p Params) billingdomain.Service {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("billing.service"),
		roomSvc: p.RoomSvc,
		feeSvc:  p.FeeSvc,
	}
}

func (s *Service) GenerateMonthlyRent(ctx context.Context, req billingdomain.GenerateRentRequest) ([]feedomain.Fee, error) {
	if req.Month < 1 || req.Month > 12 || req.Year < 2000 {
		return nil, billingdomain.ErrInvalidPeriod
	}

	room, err := s.roomSvc.GetByID(ctx, req.RoomID)
	if err != nil {
		if errors.Is(err, roomdomain.ErrRoomNotFound) {
			return nil, billingdomain.ErrRoomNotFound
		}
		return nil, err
	}

	exists, err := s.chargeExists(ctx, req, feedomain.FeeTypeRoomRent)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, billingdomain.ErrDuplicateCharge
	}

	dueDate := time.Date(req.Year, time.Month(req.Month), rentDueDay, 0, 0, 0, 0, time.UTC)
	roomID := room.ID

	rent, err := s.feeSvc.Create(ctx, feedomain.CreateFeeRequest{
		StudentID:   req.StudentID,
		RoomID:      &roomID,
		Type:        feedomain.FeeTypeRoomRent,
		Amount:      room.MonthlyRent,
		DueDate:     dueDate,
		Month:       req.Month,
		Year:        req.Year,
		Description: "Monthly room rent for room " + room.RoomNumber,
		CreatedByID: req.CreatedByID,
	})
	if err != nil {
		return nil, err
	}
	fees := []feedomain.Fee{*rent}

	if req.WithDeposit && room.SecurityDeposit > 0 {
		deposit, err := s.feeSvc.Create(ctx, feedomain.CreateFeeRequest{
			StudentID:   req.StudentID,
			RoomID:      &roomID,
			Type:        feedomain.FeeTypeSecurityDeposit,
			Amount:      room.SecurityDeposit,
			DueDate:     dueDate,
			Month:       req.Month,
			Year:        req.Year,
			Description: "Security deposit for room " + room.RoomNumber,
			CreatedByID: req.CreatedByID,
		})
		if err != nil {
			return nil, err
		}
		fees = append(fees, *deposit)
	}

	s.log.Info("rent generated",
		zap.String("student_id", req.StudentID.String()),
		zap.String("room_id", room.ID.String()),
		zap.Int("month", req.Month),
		zap.Int("year", req.Year),
		zap.Int("fees", len(fees)),
	)
	return fees, nil
}

func (s *Service) SendBulkReminders(ctx context.Context, req billingdomain.BulkReminderRequest) (billingdomain.BulkReminderReport, error) {
	switch req.Status {
	case feedomain.FeeStatusPending, feedomain.FeeStatusPartial, feedomain.FeeStatusOverdue:
	case "":
	default:
		return billingdomain.BulkReminderReport{}, billingdomain.ErrInvalidStatus
	}

	var fees []feedomain.Fee
	var err error
	if req.Status == "" {
		fees, err = s.feeSvc.Defaulters(ctx)
	} else {
		fees, err = s.feeSvc.List(ctx, feedomain.ListFeesRequest{Status: req.Status})
	}
	if err != nil {
		return billingdomain.BulkReminderReport{}, err
	}

	report := billingdomain.BulkReminderReport{}
	for _, fee := range fees {
		if fee.BalanceAmount <= 0 {
			continue
		}
		if _, err := s.feeSvc.AddReminder(ctx, fee.ID, req.Channel); err != nil {
			report.Failures = append(report.Failures, billingdomain.ReminderFailure{
				FeeID:  fee.ID,
				Reason: err.Error(),
			})
			continue
		}
		report.Sent++
	}

	if len(report.Failures) > 0 {
		s.log.Warn("bulk reminders finished with failures",
			zap.Int("sent", report.Sent),
			zap.Int("failed", len(report.Failures)),
		)
	}
	return report, nil
}

func (s *Service) chargeExists(ctx context.Context, req billingdomain.GenerateRentRequest, feeType feedomain.FeeType) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&feedomain.Fee{}).
		Where("student_id = ? AND fee_type = ? AND month = ? AND year = ?",
			req.StudentID, feeType, req.Month, req.Year).
		Where("status <> ?", feedomain.FeeStatusWaived).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
