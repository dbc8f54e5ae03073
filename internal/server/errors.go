package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	billingdomain "github.com/Sasidhar-2001/HMS/internal/billing/domain"
	feedomain "github.com/Sasidhar-2001/HMS/internal/fee/domain"
	occupancydomain "github.com/Sasidhar-2001/HMS/internal/occupancy/domain"
	roomdomain "github.com/Sasidhar-2001/HMS/internal/room/domain"
)

// APIError is the wire shape for failures.
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

func (e *APIError) Error() string { return e.Code }

var (
	ErrUnauthorized       = &APIError{Status: http.StatusUnauthorized, Code: "unauthorized", Message: "authentication required"}
	ErrForbidden          = &APIError{Status: http.StatusForbidden, Code: "forbidden", Message: "insufficient role"}
	ErrNotFound           = &APIError{Status: http.StatusNotFound, Code: "not_found", Message: "resource not found"}
	ErrTooManyRequests    = &APIError{Status: http.StatusTooManyRequests, Code: "rate_limited", Message: "too many requests"}
	ErrServiceUnavailable = &APIError{Status: http.StatusServiceUnavailable, Code: "service_unavailable", Message: "service unavailable"}
)

func invalidRequestError() *APIError {
	return &APIError{Status: http.StatusBadRequest, Code: "invalid_request", Message: "request body could not be parsed"}
}

func newValidationError(field, code, message string) *APIError {
	return &APIError{Status: http.StatusBadRequest, Code: code, Message: message, Field: field}
}

// domainStatus maps domain sentinel errors onto HTTP semantics. Precondition
// violations are 409s; malformed input is a 400; missing aggregates are 404s.
func domainStatus(err error) (int, bool) {
	switch {
	case errors.Is(err, roomdomain.ErrRoomNotFound),
		errors.Is(err, occupancydomain.ErrRoomNotFound),
		errors.Is(err, occupancydomain.ErrStudentNotFound),
		errors.Is(err, feedomain.ErrFeeNotFound),
		errors.Is(err, feedomain.ErrStudentNotFound),
		errors.Is(err, feedomain.ErrRoomNotFound),
		errors.Is(err, billingdomain.ErrRoomNotFound):
		return http.StatusNotFound, true

	case errors.Is(err, occupancydomain.ErrAlreadyAssigned),
		errors.Is(err, occupancydomain.ErrNotAssigned),
		errors.Is(err, occupancydomain.ErrRoomFull),
		errors.Is(err, occupancydomain.ErrRoomUnavailable),
		errors.Is(err, feedomain.ErrAlreadySettled),
		errors.Is(err, feedomain.ErrNothingDue),
		errors.Is(err, roomdomain.ErrRoomNumberTaken),
		errors.Is(err, roomdomain.ErrRoomHasOccupants),
		errors.Is(err, billingdomain.ErrDuplicateCharge):
		return http.StatusConflict, true

	case errors.Is(err, feedomain.ErrInvalidAmount),
		errors.Is(err, feedomain.ErrInvalidFeeType),
		errors.Is(err, feedomain.ErrInvalidMethod),
		errors.Is(err, feedomain.ErrInvalidPeriod),
		errors.Is(err, feedomain.ErrInvalidChannel),
		errors.Is(err, roomdomain.ErrInvalidRoomNumber),
		errors.Is(err, roomdomain.ErrInvalidCapacity),
		errors.Is(err, roomdomain.ErrInvalidRent),
		errors.Is(err, roomdomain.ErrInvalidStatus),
		errors.Is(err, occupancydomain.ErrNotAStudent),
		errors.Is(err, billingdomain.ErrInvalidPeriod),
		errors.Is(err, billingdomain.ErrInvalidStatus):
		return http.StatusBadRequest, true
	}
	return 0, false
}

// AbortWithError terminates the request with a structured error body.
func AbortWithError(c *gin.Context, err error) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		c.AbortWithStatusJSON(apiErr.Status, apiErr)
		return
	}
	if status, ok := domainStatus(err); ok {
		c.AbortWithStatusJSON(status, &APIError{Status: status, Code: err.Error(), Message: err.Error()})
		return
	}
	c.AbortWithStatusJSON(http.StatusInternalServerError, &APIError{
		Status:  http.StatusInternalServerError,
		Code:    "internal_error",
		Message: "internal error",
	})
}
