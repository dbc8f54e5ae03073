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

	"github.com/Sasidhar-2001/HMS/internal/clock"
	occupancydomain "github.com/Sasidhar-2001/HMS/internal/occupancy/domain"
	roomdomain "github.com/Sasidhar-2001/HMS/internal/room/domain"
)

var testDBSeq atomic.Int64

func setupTestService(t *testing.T) (roomdomain.Service, *gorm.DB, *snowflake.Node) {
	t.Helper()
	dsn := fmt.Sprintf("file:roomsvc%d?mode=memory&cache=shared", testDBSeq.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&roomdomain.Room{}, &occupancydomain.Occupancy{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	svc := NewService(Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Clock: clock.Fixed{At: time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)},
	})
	return svc, db, node
}

func occupy(t *testing.T, db *gorm.DB, node *snowflake.Node, roomID snowflake.ID) {
	t.Helper()
	require.NoError(t, db.Create(&occupancydomain.Occupancy{
		ID:            node.Generate(),
		StudentID:     node.Generate(),
		RoomID:        roomID,
		AllocatedDate: time.Date(2026, time.February, 1, 0, 0, 0, 0, time.UTC),
		BedNumber:     1,
		IsActive:      true,
	}).Error)
}

func TestCreateRoom(t *testing.T) {
	svc, _, _ := setupTestService(t)

	room, err := svc.Create(context.Background(), roomdomain.CreateRoomRequest{
		RoomNumber:  "A-101",
		Floor:       1,
		Block:       "A",
		Type:        roomdomain.RoomTypeDouble,
		Capacity:    2,
		Amenities:   []string{"WiFi", " Fan "},
		MonthlyRent: 650000,
	})
	require.NoError(t, err)
	require.Equal(t, roomdomain.RoomStatusAvailable, room.Status)
	require.JSONEq(t, `["wifi","fan"]`, string(room.Amenities))

	_, err = svc.Create(context.Background(), roomdomain.CreateRoomRequest{
		RoomNumber: "A-101", Block: "A", Type: roomdomain.RoomTypeDouble, Capacity: 2,
	})
	require.ErrorIs(t, err, roomdomain.ErrRoomNumberTaken)

	_, err = svc.Create(context.Background(), roomdomain.CreateRoomRequest{
		RoomNumber: "  ", Block: "A", Type: roomdomain.RoomTypeDouble, Capacity: 2,
	})
	require.ErrorIs(t, err, roomdomain.ErrInvalidRoomNumber)

	_, err = svc.Create(context.Background(), roomdomain.CreateRoomRequest{
		RoomNumber: "A-102", Block: "A", Type: roomdomain.RoomTypeDouble, Capacity: 0,
	})
	require.ErrorIs(t, err, roomdomain.ErrInvalidCapacity)
}

func TestUpdateCapacityBelowOccupants(t *testing.T) {
	svc, db, node := setupTestService(t)
	room, err := svc.Create(context.Background(), roomdomain.CreateRoomRequest{
		RoomNumber: "A-103", Block: "A", Type: roomdomain.RoomTypeDouble, Capacity: 2,
	})
	require.NoError(t, err)
	occupy(t, db, node, room.ID)
	occupy(t, db, node, room.ID)

	one := 1
	_, err = svc.Update(context.Background(), room.ID, roomdomain.UpdateRoomRequest{Capacity: &one})
	require.ErrorIs(t, err, roomdomain.ErrInvalidCapacity)

	three := 3
	updated, err := svc.Update(context.Background(), room.ID, roomdomain.UpdateRoomRequest{Capacity: &three})
	require.NoError(t, err)
	require.Equal(t, 3, updated.Capacity)
	// Growing capacity reopens the previously full room.
	require.Equal(t, roomdomain.RoomStatusAvailable, updated.Status)
}

func TestAvailableExcludesFullAndBlockedRooms(t *testing.T) {
	svc, db, node := setupTestService(t)

	open, err := svc.Create(context.Background(), roomdomain.CreateRoomRequest{
		RoomNumber: "A-201", Block: "A", Type: roomdomain.RoomTypeSingle, Capacity: 1,
	})
	require.NoError(t, err)

	full, err := svc.Create(context.Background(), roomdomain.CreateRoomRequest{
		RoomNumber: "A-202", Block: "A", Type: roomdomain.RoomTypeSingle, Capacity: 1,
	})
	require.NoError(t, err)
	occupy(t, db, node, full.ID)

	repairs, err := svc.Create(context.Background(), roomdomain.CreateRoomRequest{
		RoomNumber: "A-203", Block: "A", Type: roomdomain.RoomTypeSingle, Capacity: 1,
	})
	require.NoError(t, err)
	_, err = svc.SetManualStatus(context.Background(), repairs.ID, roomdomain.RoomStatusMaintenance)
	require.NoError(t, err)

	// A RESERVED room cannot be assigned, so it must not be listed either.
	reserved, err := svc.Create(context.Background(), roomdomain.CreateRoomRequest{
		RoomNumber: "A-204", Block: "A", Type: roomdomain.RoomTypeSingle, Capacity: 1,
	})
	require.NoError(t, err)
	_, err = svc.SetManualStatus(context.Background(), reserved.ID, roomdomain.RoomStatusReserved)
	require.NoError(t, err)

	available, err := svc.Available(context.Background(), roomdomain.AvailableRoomsRequest{})
	require.NoError(t, err)
	require.Len(t, available, 1)
	require.Equal(t, open.ID, available[0].ID)
}

func TestSetManualStatus(t *testing.T) {
	svc, db, node := setupTestService(t)
	room, err := svc.Create(context.Background(), roomdomain.CreateRoomRequest{
		RoomNumber: "A-301", Block: "A", Type: roomdomain.RoomTypeSingle, Capacity: 1,
	})
	require.NoError(t, err)

	updated, err := svc.SetManualStatus(context.Background(), room.ID, roomdomain.RoomStatusReserved)
	require.NoError(t, err)
	require.Equal(t, roomdomain.RoomStatusReserved, updated.Status)

	_, err = svc.SetManualStatus(context.Background(), room.ID, "BROKEN")
	require.ErrorIs(t, err, roomdomain.ErrInvalidStatus)

	// A full room stays OCCUPIED no matter what was requested.
	occupy(t, db, node, room.ID)
	updated, err = svc.SetManualStatus(context.Background(), room.ID, roomdomain.RoomStatusAvailable)
	require.NoError(t, err)
	require.Equal(t, roomdomain.RoomStatusOccupied, updated.Status)
}

func TestDeactivateGuardsActiveOccupants(t *testing.T) {
	svc, db, node := setupTestService(t)
	room, err := svc.Create(context.Background(), roomdomain.CreateRoomRequest{
		RoomNumber: "A-401", Block: "A", Type: roomdomain.RoomTypeSingle, Capacity: 1,
	})
	require.NoError(t, err)
	occupy(t, db, node, room.ID)

	err = svc.Deactivate(context.Background(), room.ID)
	require.ErrorIs(t, err, roomdomain.ErrRoomHasOccupants)

	require.NoError(t, db.Model(&occupancydomain.Occupancy{}).
		Where("room_id = ?", room.ID).
		Update("is_active", false).Error)
	require.NoError(t, svc.Deactivate(context.Background(), room.ID))

	rooms, err := svc.List(context.Background(), roomdomain.ListRoomsRequest{})
	require.NoError(t, err)
	require.Empty(t, rooms)
}
