package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	occupancydomain "github.com/Sasidhar-2001/HMS/internal/occupancy/domain"
)

type assignRequest struct {
	StudentID string `json:"student_id"`
	RoomID    string `json:"room_id"`
	BedNumber int    `json:"bed_number"`
}

func (s *Server) AssignStudent(c *gin.Context) {
	var req assignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	studentID, err := parseID(req.StudentID, "student_id")
	if err != nil {
		AbortWithError(c, err)
		return
	}
	roomID, err := parseID(req.RoomID, "room_id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	occupancy, err := s.occSvc.Assign(c.Request.Context(), occupancydomain.AssignRequest{
		StudentID: studentID,
		RoomID:    roomID,
		BedNumber: req.BedNumber,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, occupancy)
}

type removeRequest struct {
	StudentID string `json:"student_id"`
	RoomID    string `json:"room_id"`
}

func (s *Server) RemoveStudent(c *gin.Context) {
	var req removeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	studentID, err := parseID(req.StudentID, "student_id")
	if err != nil {
		AbortWithError(c, err)
		return
	}
	roomID, err := parseID(req.RoomID, "room_id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if err := s.occSvc.Remove(c.Request.Context(), studentID, roomID); err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) GetStudentRoom(c *gin.Context) {
	studentID, err := parseIDParam(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if err := s.requireSelfOrStaff(c, studentID); err != nil {
		AbortWithError(c, err)
		return
	}

	room, err := s.occSvc.CurrentRoom(c.Request.Context(), studentID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if room == nil {
		c.JSON(http.StatusOK, gin.H{"room": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"room": room})
}

func (s *Server) GetStudentOccupancies(c *gin.Context) {
	studentID, err := parseIDParam(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if err := s.requireSelfOrStaff(c, studentID); err != nil {
		AbortWithError(c, err)
		return
	}

	occupancies, err := s.occSvc.History(c.Request.Context(), studentID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"occupancies": occupancies})
}
