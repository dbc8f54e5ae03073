package service

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	billingdomain "github.com/Sasidhar-2001/HMS/internal/billing/domain"
	"github.com/Sasidhar-2001/HMS/internal/clock"
	"github.com/Sasidhar-2001/HMS/internal/events"
	feedomain "github.com/Sasidhar-2001/HMS/internal/fee/domain"
	feeservice "github.com/Sasidhar-2001/HMS/internal/fee/service"
	occupancydomain "github.com/Sasidhar-2001/HMS/internal/occupancy/domain"
	roomdomain "github.com/Sasidhar-2001/HMS/internal/room/domain"
	roomservice "github.com/Sasidhar-2001/HMS/internal/room/service"
	userdomain "github.com/Sasidhar-2001/HMS/internal/user/domain"
)

var testDBSeq atomic.Int64

type fixture struct {
	db      *gorm.DB
	node    *snowflake.Node
	svc     billingdomain.Service
	feeSvc  feedomain.Service
	roomSvc roomdomain.Service
}

func setupFixture(t *testing.T, today time.Time) *fixture {
	t.Helper()
	dsn := fmt.Sprintf("file:billingsvc%d?mode=memory&cache=shared", testDBSeq.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&userdomain.User{},
		&roomdomain.Room{},
		&occupancydomain.Occupancy{},
		&feedomain.Fee{},
		&feedomain.FeePayment{},
		&feedomain.FeeReminder{},
		&events.Record{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	log := zap.NewNop()
	clk := clock.Fixed{At: today}

	roomSvc := roomservice.NewService(roomservice.Params{
		DB: db, Log: log, GenID: node, Clock: clk,
	})
	feeSvc := feeservice.NewService(feeservice.Params{
		DB: db, Log: log, GenID: node, Clock: clk, Outbox: events.NewOutbox(db, node),
	})
	svc := NewService(Params{
		DB: db, Log: log, RoomSvc: roomSvc, FeeSvc: feeSvc,
	})
	return &fixture{db: db, node: node, svc: svc, feeSvc: feeSvc, roomSvc: roomSvc}
}

func (f *fixture) newStudent(t *testing.T) snowflake.ID {
	t.Helper()
	student := userdomain.User{
		ID:           f.node.Generate(),
		Email:        fmt.Sprintf("student-%d@hostel.test", f.node.Generate()),
		FirstName:    "Meera",
		LastName:     "Nair",
		Role:         userdomain.RoleStudent,
		PasswordHash: "x",
		IsActive:     true,
	}
	require.NoError(t, f.db.Create(&student).Error)
	return student.ID
}

func (f *fixture) newRoom(t *testing.T, rent, deposit int64) *roomdomain.Room {
	t.Helper()
	room, err := f.roomSvc.Create(context.Background(), roomdomain.CreateRoomRequest{
		RoomNumber:      fmt.Sprintf("B-%d", f.node.Generate()),
		Floor:           2,
		Block:           "B",
		Type:            roomdomain.RoomTypeSingle,
		Capacity:        1,
		MonthlyRent:     rent,
		SecurityDeposit: deposit,
	})
	require.NoError(t, err)
	return room
}

func TestGenerateMonthlyRent(t *testing.T) {
	f := setupFixture(t, time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC))
	studentID := f.newStudent(t)
	room := f.newRoom(t, 650000, 1000000)

	fees, err := f.svc.GenerateMonthlyRent(context.Background(), billingdomain.GenerateRentRequest{
		RoomID:    room.ID,
		StudentID: studentID,
		Month:     3,
		Year:      2026,
	})
	require.NoError(t, err)
	require.Len(t, fees, 1)
	require.Equal(t, feedomain.FeeTypeRoomRent, fees[0].Type)
	require.Equal(t, int64(650000), fees[0].FinalAmount)
	require.Equal(t, time.Date(2026, time.March, 10, 0, 0, 0, 0, time.UTC), fees[0].DueDate)
}

func TestGenerateMonthlyRentWithDeposit(t *testing.T) {
	f := setupFixture(t, time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC))
	studentID := f.newStudent(t)
	room := f.newRoom(t, 650000, 1000000)

	fees, err := f.svc.GenerateMonthlyRent(context.Background(), billingdomain.GenerateRentRequest{
		RoomID:      room.ID,
		StudentID:   studentID,
		Month:       3,
		Year:        2026,
		WithDeposit: true,
	})
	require.NoError(t, err)
	require.Len(t, fees, 2)
	require.Equal(t, feedomain.FeeTypeSecurityDeposit, fees[1].Type)
	require.Equal(t, int64(1000000), fees[1].FinalAmount)
}

func TestGenerateMonthlyRentRejectsDuplicatePeriod(t *testing.T) {
	f := setupFixture(t, time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC))
	studentID := f.newStudent(t)
	room := f.newRoom(t, 650000, 0)
	req := billingdomain.GenerateRentRequest{
		RoomID:    room.ID,
		StudentID: studentID,
		Month:     3,
		Year:      2026,
	}

	_, err := f.svc.GenerateMonthlyRent(context.Background(), req)
	require.NoError(t, err)

	_, err = f.svc.GenerateMonthlyRent(context.Background(), req)
	require.ErrorIs(t, err, billingdomain.ErrDuplicateCharge)

	// A different month bills cleanly.
	req.Month = 4
	_, err = f.svc.GenerateMonthlyRent(context.Background(), req)
	require.NoError(t, err)
}

func TestGenerateMonthlyRentValidation(t *testing.T) {
	f := setupFixture(t, time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC))
	studentID := f.newStudent(t)
	room := f.newRoom(t, 650000, 0)

	_, err := f.svc.GenerateMonthlyRent(context.Background(), billingdomain.GenerateRentRequest{
		RoomID: room.ID, StudentID: studentID, Month: 0, Year: 2026,
	})
	require.ErrorIs(t, err, billingdomain.ErrInvalidPeriod)

	_, err = f.svc.GenerateMonthlyRent(context.Background(), billingdomain.GenerateRentRequest{
		RoomID: f.node.Generate(), StudentID: studentID, Month: 3, Year: 2026,
	})
	require.ErrorIs(t, err, billingdomain.ErrRoomNotFound)
}

func TestSendBulkRemindersToDefaulters(t *testing.T) {
	f := setupFixture(t, time.Date(2026, time.April, 1, 0, 0, 0, 0, time.UTC))
	studentID := f.newStudent(t)
	marchDue := time.Date(2026, time.March, 10, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		_, err := f.feeSvc.Create(context.Background(), feedomain.CreateFeeRequest{
			StudentID: studentID,
			Type:      feedomain.FeeTypeMessFee,
			Amount:    int64(1000 * (i + 1)),
			DueDate:   marchDue,
			Month:     i + 1,
			Year:      2026,
		})
		require.NoError(t, err)
	}

	report, err := f.svc.SendBulkReminders(context.Background(), billingdomain.BulkReminderRequest{
		Channel: feedomain.ReminderChannelEmail,
	})
	require.NoError(t, err)
	require.Equal(t, 3, report.Sent)
	require.Empty(t, report.Failures)
}

func TestSendBulkRemindersCollectsFailures(t *testing.T) {
	f := setupFixture(t, time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC))
	studentID := f.newStudent(t)
	due := time.Date(2026, time.March, 10, 0, 0, 0, 0, time.UTC)

	pending, err := f.feeSvc.Create(context.Background(), feedomain.CreateFeeRequest{
		StudentID: studentID,
		Type:      feedomain.FeeTypeMessFee,
		Amount:    1000,
		DueDate:   due,
		Month:     3,
		Year:      2026,
	})
	require.NoError(t, err)

	// An invalid channel fails each fee individually without aborting the run.
	report, err := f.svc.SendBulkReminders(context.Background(), billingdomain.BulkReminderRequest{
		Status:  feedomain.FeeStatusPending,
		Channel: "pigeon",
	})
	require.NoError(t, err)
	require.Equal(t, 0, report.Sent)
	require.Len(t, report.Failures, 1)
	require.Equal(t, pending.ID, report.Failures[0].FeeID)

	report, err = f.svc.SendBulkReminders(context.Background(), billingdomain.BulkReminderRequest{
		Status:  feedomain.FeeStatusPending,
		Channel: feedomain.ReminderChannelSMS,
	})
	require.NoError(t, err)
	require.Equal(t, 1, report.Sent)
	require.Empty(t, report.Failures)

	_, err = f.svc.SendBulkReminders(context.Background(), billingdomain.BulkReminderRequest{
		Status:  feedomain.FeeStatusPaid,
		Channel: feedomain.ReminderChannelSMS,
	})
	require.ErrorIs(t, err, billingdomain.ErrInvalidStatus)
}
