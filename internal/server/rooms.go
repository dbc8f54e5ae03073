package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	roomdomain "github.com/Sasidhar-2001/HMS/internal/room/domain"
)

func (s *Server) CreateRoom(c *gin.Context) {
	var req roomdomain.CreateRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	if strings.TrimSpace(req.RoomNumber) == "" {
		AbortWithError(c, newValidationError("room_number", "required", "room number is required"))
		return
	}

	room, err := s.roomSvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, room)
}

func (s *Server) UpdateRoom(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req roomdomain.UpdateRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	room, err := s.roomSvc.Update(c.Request.Context(), id, req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, room)
}

func (s *Server) GetRoom(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	room, err := s.roomSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, room)
}

func (s *Server) ListRooms(c *gin.Context) {
	rooms, err := s.roomSvc.List(c.Request.Context(), roomdomain.ListRoomsRequest{
		Block:  c.Query("block"),
		Type:   roomdomain.RoomType(c.Query("type")),
		Status: roomdomain.RoomStatus(strings.ToUpper(c.Query("status"))),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"rooms": rooms})
}

func (s *Server) ListAvailableRooms(c *gin.Context) {
	rooms, err := s.roomSvc.Available(c.Request.Context(), roomdomain.AvailableRoomsRequest{
		Block: c.Query("block"),
		Type:  roomdomain.RoomType(c.Query("type")),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"rooms": rooms})
}

func (s *Server) SetRoomStatus(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req struct {
		Status string `json:"status"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	room, err := s.roomSvc.SetManualStatus(c.Request.Context(), id,
		roomdomain.RoomStatus(strings.ToUpper(strings.TrimSpace(req.Status))))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, room)
}

func (s *Server) DeactivateRoom(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if err := s.roomSvc.Deactivate(c.Request.Context(), id); err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
