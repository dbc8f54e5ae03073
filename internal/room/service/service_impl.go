package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/Sasidhar-2001/HMS/internal/clock"
	roomdomain "github.com/Sasidhar-2001/HMS/internal/room/domain"
	"github.com/Sasidhar-2001/HMS/pkg/db"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
}

func NewService(p Params) roomdomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("room.service"),
		genID: p.GenID,
		clock: p.Clock,
	}
}

func (s *Service) Create(ctx context.Context, req roomdomain.CreateRoomRequest) (*roomdomain.Room, error) {
	number := strings.TrimSpace(req.RoomNumber)
	if number == "" {
		return nil, roomdomain.ErrInvalidRoomNumber
	}
	if req.Capacity < 1 {
		return nil, roomdomain.ErrInvalidCapacity
	}
	if req.MonthlyRent < 0 || req.SecurityDeposit < 0 {
		return nil, roomdomain.ErrInvalidRent
	}

	amenities, err := encodeAmenities(req.Amenities)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	room := &roomdomain.Room{
		ID:              s.genID.Generate(),
		RoomNumber:      number,
		Floor:           req.Floor,
		Block:           strings.TrimSpace(req.Block),
		Type:            req.Type,
		Capacity:        req.Capacity,
		Amenities:       amenities,
		MonthlyRent:     req.MonthlyRent,
		SecurityDeposit: req.SecurityDeposit,
		Status:          roomdomain.RoomStatusAvailable,
		Description:     strings.TrimSpace(req.Description),
		IsActive:        true,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&roomdomain.Room{}).
			Where("room_number = ?", number).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return roomdomain.ErrRoomNumberTaken
		}
		return tx.Create(room).Error
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("room created",
		zap.String("room_id", room.ID.String()),
		zap.String("room_number", room.RoomNumber),
		zap.Int("capacity", room.Capacity),
	)
	return room, nil
}

func (s *Service) Update(ctx context.Context, id snowflake.ID, req roomdomain.UpdateRoomRequest) (*roomdomain.Room, error) {
	var updated *roomdomain.Room
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		room, err := findRoom(ctx, db.LockForUpdate(tx), id)
		if err != nil {
			return err
		}

		if req.Capacity != nil {
			if *req.Capacity < 1 {
				return roomdomain.ErrInvalidCapacity
			}
			occupants, err := countActiveOccupants(ctx, tx, id)
			if err != nil {
				return err
			}
			if occupants > int64(*req.Capacity) {
				return roomdomain.ErrInvalidCapacity
			}
			room.Capacity = *req.Capacity
		}
		if req.Floor != nil {
			room.Floor = *req.Floor
		}
		if req.Block != nil {
			room.Block = strings.TrimSpace(*req.Block)
		}
		if req.Type != nil {
			room.Type = *req.Type
		}
		if req.Amenities != nil {
			amenities, err := encodeAmenities(req.Amenities)
			if err != nil {
				return err
			}
			room.Amenities = amenities
		}
		if req.MonthlyRent != nil {
			if *req.MonthlyRent < 0 {
				return roomdomain.ErrInvalidRent
			}
			room.MonthlyRent = *req.MonthlyRent
		}
		if req.SecurityDeposit != nil {
			if *req.SecurityDeposit < 0 {
				return roomdomain.ErrInvalidRent
			}
			room.SecurityDeposit = *req.SecurityDeposit
		}
		if req.Description != nil {
			room.Description = strings.TrimSpace(*req.Description)
		}

		occupants, err := countActiveOccupants(ctx, tx, id)
		if err != nil {
			return err
		}
		room.Status = roomdomain.DeriveStatus(room.Status, occupants, room.Capacity)
		room.UpdatedAt = s.clock.Now()

		if err := tx.Save(room).Error; err != nil {
			return err
		}
		updated = room
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *Service) GetByID(ctx context.Context, id snowflake.ID) (*roomdomain.Room, error) {
	return findRoom(ctx, s.db.WithContext(ctx), id)
}

func (s *Service) List(ctx context.Context, req roomdomain.ListRoomsRequest) ([]roomdomain.Room, error) {
	query := s.db.WithContext(ctx).Model(&roomdomain.Room{}).Where("is_active = ?", true)
	if block := strings.TrimSpace(req.Block); block != "" {
		query = query.Where("block = ?", block)
	}
	if req.Type != "" {
		query = query.Where("type = ?", req.Type)
	}
	if req.Status != "" {
		query = query.Where("status = ?", req.Status)
	}

	var rooms []roomdomain.Room
	if err := query.Order("room_number ASC").Find(&rooms).Error; err != nil {
		return nil, err
	}
	return rooms, nil
}

func (s *Service) Available(ctx context.Context, req roomdomain.AvailableRoomsRequest) ([]roomdomain.Room, error) {
	query := s.db.WithContext(ctx).Model(&roomdomain.Room{}).
		Where("is_active = ?", true).
		Where("status NOT IN ?", []roomdomain.RoomStatus{roomdomain.RoomStatusMaintenance, roomdomain.RoomStatusReserved}).
		Where("capacity > (SELECT COUNT(1) FROM occupancies o WHERE o.room_id = rooms.id AND o.is_active)")
	if block := strings.TrimSpace(req.Block); block != "" {
		query = query.Where("block = ?", block)
	}
	if req.Type != "" {
		query = query.Where("type = ?", req.Type)
	}

	var rooms []roomdomain.Room
	if err := query.Order("room_number ASC").Find(&rooms).Error; err != nil {
		return nil, err
	}
	return rooms, nil
}

func (s *Service) SetManualStatus(ctx context.Context, id snowflake.ID, status roomdomain.RoomStatus) (*roomdomain.Room, error) {
	switch status {
	case roomdomain.RoomStatusMaintenance, roomdomain.RoomStatusReserved, roomdomain.RoomStatusAvailable:
	default:
		return nil, roomdomain.ErrInvalidStatus
	}

	var updated *roomdomain.Room
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		room, err := findRoom(ctx, db.LockForUpdate(tx), id)
		if err != nil {
			return err
		}
		occupants, err := countActiveOccupants(ctx, tx, id)
		if err != nil {
			return err
		}
		room.Status = roomdomain.DeriveStatus(status, occupants, room.Capacity)
		room.UpdatedAt = s.clock.Now()
		if err := tx.Save(room).Error; err != nil {
			return err
		}
		updated = room
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *Service) Deactivate(ctx context.Context, id snowflake.ID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		room, err := findRoom(ctx, db.LockForUpdate(tx), id)
		if err != nil {
			return err
		}
		occupants, err := countActiveOccupants(ctx, tx, id)
		if err != nil {
			return err
		}
		if occupants > 0 {
			return roomdomain.ErrRoomHasOccupants
		}
		room.IsActive = false
		room.UpdatedAt = s.clock.Now()
		return tx.Save(room).Error
	})
}

func findRoom(ctx context.Context, tx *gorm.DB, id snowflake.ID) (*roomdomain.Room, error) {
	var room roomdomain.Room
	err := tx.WithContext(ctx).Where("id = ?", id).First(&room).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, roomdomain.ErrRoomNotFound
	}
	if err != nil {
		return nil, err
	}
	return &room, nil
}

func countActiveOccupants(ctx context.Context, tx *gorm.DB, roomID snowflake.ID) (int64, error) {
	var count int64
	err := tx.WithContext(ctx).Table("occupancies").
		Where("room_id = ? AND is_active", roomID).
		Count(&count).Error
	return count, err
}

func encodeAmenities(amenities []string) (datatypes.JSON, error) {
	cleaned := make([]string, 0, len(amenities))
	for _, amenity := range amenities {
		amenity = strings.TrimSpace(strings.ToLower(amenity))
		if amenity == "" {
			continue
		}
		cleaned = append(cleaned, amenity)
	}
	raw, err := json.Marshal(cleaned)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(raw), nil
}
