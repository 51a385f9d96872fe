package models

import "time"

// RealtimeEventType names a push event delivered over the websocket gateway.
type RealtimeEventType string

const (
	EventAppointmentBooked     RealtimeEventType = "APPOINTMENT_BOOKED"
	EventUnavailabilityAdded   RealtimeEventType = "UNAVAILABILITY_ADDED"
	EventUnavailabilityDeleted RealtimeEventType = "UNAVAILABILITY_DELETED"
)

// RealtimeEvent is the envelope pushed to subscribers.
type RealtimeEvent struct {
	Type    RealtimeEventType `json:"type"`
	Payload interface{}       `json:"payload"`
	SentAt  time.Time         `json:"sent_at"`
}

// AppointmentBookedPayload announces a newly taken slot.
type AppointmentBookedPayload struct {
	DoctorID int64     `json:"doctor_id"`
	StartAt  time.Time `json:"start_at"`
	EndAt    time.Time `json:"end_at"`
}

// UnavailabilityPayload announces a blocked interval change. Times are omitted on delete.
type UnavailabilityPayload struct {
	DoctorID int64      `json:"doctor_id"`
	ID       int64      `json:"id"`
	StartAt  *time.Time `json:"start_at,omitempty"`
	EndAt    *time.Time `json:"end_at,omitempty"`
}
