package server

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	billingdomain "github.com/Sasidhar-2001/HMS/internal/billing/domain"
	feedomain "github.com/Sasidhar-2001/HMS/internal/fee/domain"
	userdomain "github.com/Sasidhar-2001/HMS/internal/user/domain"
)

// feeResponse decorates a fee with its derived read-only metrics.
type feeResponse struct {
	feedomain.Fee
	DaysOverdue       int `json:"days_overdue"`
	PaymentPercentage int `json:"payment_percentage"`
}

func (s *Server) feeResponse(fee *feedomain.Fee) feeResponse {
	today := s.clock.Now()
	return feeResponse{
		Fee:               *fee,
		DaysOverdue:       feedomain.DaysOverdue(fee, today),
		PaymentPercentage: feedomain.PaymentPercentage(fee),
	}
}

func (s *Server) feeResponses(fees []feedomain.Fee) []feeResponse {
	out := make([]feeResponse, 0, len(fees))
	for i := range fees {
		out = append(out, s.feeResponse(&fees[i]))
	}
	return out
}

type createFeeRequest struct {
	StudentID   string `json:"student_id"`
	RoomID      string `json:"room_id"`
	FeeType     string `json:"fee_type"`
	Amount      int64  `json:"amount"`
	LateFee     int64  `json:"late_fee"`
	Discount    int64  `json:"discount"`
	DueDate     string `json:"due_date"`
	Month       int    `json:"month"`
	Year        int    `json:"year"`
	Description string `json:"description"`
}

func (s *Server) CreateFee(c *gin.Context) {
	var req createFeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	studentID, err := parseID(req.StudentID, "student_id")
	if err != nil {
		AbortWithError(c, err)
		return
	}
	dueDate, err := time.Parse("2006-01-02", strings.TrimSpace(req.DueDate))
	if err != nil {
		AbortWithError(c, newValidationError("due_date", "invalid_date", "due date must be YYYY-MM-DD"))
		return
	}

	create := feedomain.CreateFeeRequest{
		StudentID:   studentID,
		Type:        feedomain.FeeType(strings.ToLower(strings.TrimSpace(req.FeeType))),
		Amount:      req.Amount,
		LateFee:     req.LateFee,
		Discount:    req.Discount,
		DueDate:     dueDate,
		Month:       req.Month,
		Year:        req.Year,
		Description: req.Description,
	}
	if strings.TrimSpace(req.RoomID) != "" {
		roomID, err := parseID(req.RoomID, "room_id")
		if err != nil {
			AbortWithError(c, err)
			return
		}
		create.RoomID = &roomID
	}
	if actor, ok := actorFrom(c); ok {
		createdBy := actor.UserID
		create.CreatedByID = &createdBy
	}

	fee, err := s.feeSvc.Create(c.Request.Context(), create)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, s.feeResponse(fee))
}

type updateFeeRequest struct {
	Amount   *int64  `json:"amount"`
	LateFee  *int64  `json:"late_fee"`
	Discount *int64  `json:"discount"`
	DueDate  *string `json:"due_date"`
}

func (s *Server) UpdateFee(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req updateFeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	update := feedomain.UpdateFeeRequest{
		Amount:   req.Amount,
		LateFee:  req.LateFee,
		Discount: req.Discount,
	}
	if req.DueDate != nil {
		dueDate, err := time.Parse("2006-01-02", strings.TrimSpace(*req.DueDate))
		if err != nil {
			AbortWithError(c, newValidationError("due_date", "invalid_date", "due date must be YYYY-MM-DD"))
			return
		}
		update.DueDate = &dueDate
	}

	fee, err := s.feeSvc.Update(c.Request.Context(), id, update)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, s.feeResponse(fee))
}

func (s *Server) GetFee(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	fee, err := s.feeSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if actor, ok := actorFrom(c); ok && actor.Role == userdomain.RoleStudent && fee.StudentID != actor.UserID {
		AbortWithError(c, ErrForbidden)
		return
	}
	c.JSON(http.StatusOK, s.feeResponse(fee))
}

func (s *Server) ListFees(c *gin.Context) {
	req := feedomain.ListFeesRequest{
		Status: feedomain.FeeStatus(strings.ToUpper(c.Query("status"))),
		Type:   feedomain.FeeType(strings.ToLower(c.Query("fee_type"))),
	}
	if month := c.Query("month"); month != "" {
		req.Month, _ = strconv.Atoi(month)
	}
	if year := c.Query("year"); year != "" {
		req.Year, _ = strconv.Atoi(year)
	}

	actor, ok := actorFrom(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}
	if actor.Role == userdomain.RoleStudent {
		// Students only ever see their own ledger.
		req.StudentID = actor.UserID
	} else if raw := c.Query("student_id"); raw != "" {
		studentID, err := parseID(raw, "student_id")
		if err != nil {
			AbortWithError(c, err)
			return
		}
		req.StudentID = studentID
	}

	fees, err := s.feeSvc.List(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"fees": s.feeResponses(fees)})
}

type addPaymentRequest struct {
	Amount        int64  `json:"amount"`
	Method        string `json:"method"`
	TransactionID string `json:"transaction_id"`
	ReceiptNumber string `json:"receipt_number"`
}

func (s *Server) AddPayment(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req addPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	actor, ok := actorFrom(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}
	if actor.Role == userdomain.RoleStudent {
		fee, err := s.feeSvc.GetByID(c.Request.Context(), id)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		if fee.StudentID != actor.UserID {
			AbortWithError(c, ErrForbidden)
			return
		}
	}

	fee, err := s.feeSvc.AddPayment(c.Request.Context(), id, feedomain.AddPaymentRequest{
		Amount:        req.Amount,
		Method:        feedomain.PaymentMethod(strings.ToLower(strings.TrimSpace(req.Method))),
		TransactionID: req.TransactionID,
		ReceiptNumber: req.ReceiptNumber,
		PaidByID:      actor.UserID,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, s.feeResponse(fee))
}

func (s *Server) WaiveFee(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req struct {
		Reason string `json:"reason"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	fee, err := s.feeSvc.Waive(c.Request.Context(), id, req.Reason)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, s.feeResponse(fee))
}

func (s *Server) AddReminder(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req struct {
		Channel string `json:"channel"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	fee, err := s.feeSvc.AddReminder(c.Request.Context(), id,
		feedomain.ReminderChannel(strings.ToLower(strings.TrimSpace(req.Channel))))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, s.feeResponse(fee))
}

func (s *Server) ListDefaulters(c *gin.Context) {
	fees, err := s.feeSvc.Defaulters(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"defaulters": s.feeResponses(fees)})
}

func (s *Server) GetFeeStats(c *gin.Context) {
	year := 0
	if raw := c.Query("year"); raw != "" {
		year, _ = strconv.Atoi(raw)
	}

	stats, err := s.feeSvc.Stats(c.Request.Context(), year)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

type generateRentRequest struct {
	RoomID      string `json:"room_id"`
	StudentID   string `json:"student_id"`
	Month       int    `json:"month"`
	Year        int    `json:"year"`
	WithDeposit bool   `json:"with_deposit"`
}

func (s *Server) GenerateRent(c *gin.Context) {
	var req generateRentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	roomID, err := parseID(req.RoomID, "room_id")
	if err != nil {
		AbortWithError(c, err)
		return
	}
	studentID, err := parseID(req.StudentID, "student_id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	generate := billingdomain.GenerateRentRequest{
		RoomID:      roomID,
		StudentID:   studentID,
		Month:       req.Month,
		Year:        req.Year,
		WithDeposit: req.WithDeposit,
	}
	if actor, ok := actorFrom(c); ok {
		createdBy := actor.UserID
		generate.CreatedByID = &createdBy
	}

	fees, err := s.billingSvc.GenerateMonthlyRent(c.Request.Context(), generate)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"fees": s.feeResponses(fees)})
}

type bulkRemindersRequest struct {
	Status  string `json:"status"`
	Channel string `json:"channel"`
}

func (s *Server) SendBulkReminders(c *gin.Context) {
	var req bulkRemindersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	report, err := s.billingSvc.SendBulkReminders(c.Request.Context(), billingdomain.BulkReminderRequest{
		Status:  feedomain.FeeStatus(strings.ToUpper(strings.TrimSpace(req.Status))),
		Channel: feedomain.ReminderChannel(strings.ToLower(strings.TrimSpace(req.Channel))),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}
