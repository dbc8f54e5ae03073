package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Sasidhar-2001/HMS/internal/clock"
	"github.com/Sasidhar-2001/HMS/internal/events"
	occupancydomain "github.com/Sasidhar-2001/HMS/internal/occupancy/domain"
	roomdomain "github.com/Sasidhar-2001/HMS/internal/room/domain"
	userdomain "github.com/Sasidhar-2001/HMS/internal/user/domain"
	"github.com/Sasidhar-2001/HMS/pkg/db"
)

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
}

func NewService(p Params) occupancydomain.Service {
	return &Service{
		db:     p.DB,
		log:    p.Log.Named("occupancy.service"),
		genID:  p.GenID,
		clock:  p.Clock,
		outbox: p.Outbox,
	}
}

func (s *Service) Assign(ctx context.Context, req occupancydomain.AssignRequest) (*occupancydomain.Occupancy, error) {
	if req.StudentID == 0 {
		return nil, occupancydomain.ErrStudentNotFound
	}
	if req.RoomID == 0 {
		return nil, occupancydomain.ErrRoomNotFound
	}

	var created *occupancydomain.Occupancy
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.checkStudent(ctx, tx, req.StudentID); err != nil {
			return err
		}

		// Lock the room row first: concurrent assigns to the same room
		// serialize here, so the capacity check below cannot race.
		room, err := lockRoom(ctx, tx, req.RoomID)
		if err != nil {
			return err
		}
		if !room.IsActive {
			return occupancydomain.ErrRoomUnavailable
		}
		switch room.Status {
		case roomdomain.RoomStatusMaintenance, roomdomain.RoomStatusReserved:
			return occupancydomain.ErrRoomUnavailable
		}

		var existing int64
		if err := tx.Model(&occupancydomain.Occupancy{}).
			Where("student_id = ? AND is_active", req.StudentID).
			Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return occupancydomain.ErrAlreadyAssigned
		}

		occupants, err := countActiveOccupants(ctx, tx, room.ID)
		if err != nil {
			return err
		}
		if occupants >= int64(room.Capacity) {
			return occupancydomain.ErrRoomFull
		}

		bed := req.BedNumber
		if bed <= 0 {
			bed = int(occupants) + 1
		}

		now := s.clock.Now()
		occupancy := &occupancydomain.Occupancy{
			ID:            s.genID.Generate(),
			StudentID:     req.StudentID,
			RoomID:        room.ID,
			AllocatedDate: now,
			BedNumber:     bed,
			IsActive:      true,
			CreatedAt:     now,
		}
		if err := tx.Create(occupancy).Error; err != nil {
			// The partial unique index on active student occupancies is the
			// storage-layer backstop for racing assigns of one student.
			if isUniqueViolation(err) {
				return occupancydomain.ErrAlreadyAssigned
			}
			return err
		}

		room.Status = roomdomain.DeriveStatus(room.Status, occupants+1, room.Capacity)
		room.UpdatedAt = now
		if err := tx.Save(room).Error; err != nil {
			return err
		}

		if err := s.outbox.PublishTx(ctx, tx, events.Event{
			Type: events.EventOccupancyAssigned,
			Payload: events.OccupancyPayload{
				OccupancyID: occupancy.ID.String(),
				StudentID:   occupancy.StudentID.String(),
				RoomID:      occupancy.RoomID.String(),
				BedNumber:   occupancy.BedNumber,
			}.ToMap(),
			DedupeKey: fmt.Sprintf("occupancy.assigned:%s", occupancy.ID),
		}); err != nil {
			return err
		}

		created = occupancy
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("student assigned to room",
		zap.String("student_id", created.StudentID.String()),
		zap.String("room_id", created.RoomID.String()),
		zap.Int("bed_number", created.BedNumber),
	)
	return created, nil
}

func (s *Service) Remove(ctx context.Context, studentID, roomID snowflake.ID) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		room, err := lockRoom(ctx, tx, roomID)
		if err != nil {
			return err
		}

		var occupancy occupancydomain.Occupancy
		err = tx.Where("student_id = ? AND room_id = ? AND is_active", studentID, roomID).
			First(&occupancy).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return occupancydomain.ErrNotAssigned
		}
		if err != nil {
			return err
		}

		now := s.clock.Now()
		occupancy.IsActive = false
		occupancy.VacatedDate = &now
		if err := tx.Save(&occupancy).Error; err != nil {
			return err
		}

		occupants, err := countActiveOccupants(ctx, tx, roomID)
		if err != nil {
			return err
		}
		room.Status = roomdomain.DeriveStatus(room.Status, occupants, room.Capacity)
		room.UpdatedAt = now
		if err := tx.Save(room).Error; err != nil {
			return err
		}

		return s.outbox.PublishTx(ctx, tx, events.Event{
			Type: events.EventOccupancyVacated,
			Payload: events.OccupancyPayload{
				OccupancyID: occupancy.ID.String(),
				StudentID:   occupancy.StudentID.String(),
				RoomID:      occupancy.RoomID.String(),
			}.ToMap(),
			DedupeKey: fmt.Sprintf("occupancy.vacated:%s", occupancy.ID),
		})
	})
	if err != nil {
		return err
	}

	s.log.Info("student vacated room",
		zap.String("student_id", studentID.String()),
		zap.String("room_id", roomID.String()),
	)
	return nil
}

func (s *Service) CurrentRoom(ctx context.Context, studentID snowflake.ID) (*roomdomain.Room, error) {
	var occupancy occupancydomain.Occupancy
	err := s.db.WithContext(ctx).
		Where("student_id = ? AND is_active", studentID).
		First(&occupancy).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var room roomdomain.Room
	err = s.db.WithContext(ctx).Where("id = ?", occupancy.RoomID).First(&room).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, occupancydomain.ErrRoomNotFound
	}
	if err != nil {
		return nil, err
	}
	return &room, nil
}

func (s *Service) History(ctx context.Context, studentID snowflake.ID) ([]occupancydomain.Occupancy, error) {
	var occupancies []occupancydomain.Occupancy
	err := s.db.WithContext(ctx).
		Where("student_id = ?", studentID).
		Order("allocated_date DESC, id DESC").
		Find(&occupancies).Error
	if err != nil {
		return nil, err
	}
	return occupancies, nil
}

func (s *Service) checkStudent(ctx context.Context, tx *gorm.DB, studentID snowflake.ID) error {
	var student userdomain.User
	err := tx.WithContext(ctx).Where("id = ? AND is_active", studentID).First(&student).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return occupancydomain.ErrStudentNotFound
	}
	if err != nil {
		return err
	}
	if student.Role != userdomain.RoleStudent {
		return occupancydomain.ErrNotAStudent
	}
	return nil
}

func lockRoom(ctx context.Context, tx *gorm.DB, roomID snowflake.ID) (*roomdomain.Room, error) {
	var room roomdomain.Room
	err := db.LockForUpdate(tx.WithContext(ctx)).Where("id = ?", roomID).First(&room).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, occupancydomain.ErrRoomNotFound
	}
	if err != nil {
		return nil, err
	}
	return &room, nil
}

func countActiveOccupants(ctx context.Context, tx *gorm.DB, roomID snowflake.ID) (int64, error) {
	var count int64
	err := tx.WithContext(ctx).Model(&occupancydomain.Occupancy{}).
		Where("room_id = ? AND is_active", roomID).
		Count(&count).Error
	return count, err
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "unique constraint")
}
