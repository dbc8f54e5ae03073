package events

// Hostel event types consumed by the external notification sender.
const (
	EventOccupancyAssigned = "occupancy.assigned"
	EventOccupancyVacated  = "occupancy.vacated"
	EventFeeCreated        = "fee.created"
	EventPaymentRecorded   = "fee.payment_recorded"
	EventFeeWaived         = "fee.waived"
	EventReminderSent      = "fee.reminder_sent"
)

// OccupancyPayload captures the minimal data for occupancy notifications.
type OccupancyPayload struct {
	OccupancyID string `json:"occupancy_id"`
	StudentID   string `json:"student_id"`
	RoomID      string `json:"room_id"`
	BedNumber   int    `json:"bed_number,omitempty"`
}

// ToMap converts a payload into an outbox-friendly map.
func (p OccupancyPayload) ToMap() map[string]any {
	payload := map[string]any{
		"occupancy_id": p.OccupancyID,
		"student_id":   p.StudentID,
		"room_id":      p.RoomID,
	}
	if p.BedNumber > 0 {
		payload["bed_number"] = p.BedNumber
	}
	return payload
}

// FeePayload captures the minimal data for fee notifications.
type FeePayload struct {
	FeeID     string `json:"fee_id"`
	StudentID string `json:"student_id"`
	Amount    int64  `json:"amount,omitempty"`
	Channel   string `json:"channel,omitempty"`
}

// ToMap converts a payload into an outbox-friendly map.
func (p FeePayload) ToMap() map[string]any {
	payload := map[string]any{
		"fee_id":     p.FeeID,
		"student_id": p.StudentID,
	}
	if p.Amount != 0 {
		payload["amount"] = p.Amount
	}
	if p.Channel != "" {
		payload["channel"] = p.Channel
	}
	return payload
}
