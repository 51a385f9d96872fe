package dto

import "github.com/noah-isme/doctor-booking-api/internal/models"

// AvailabilityQuery selects a doctor's bookable slots over a window of calendar days.
type AvailabilityQuery struct {
	DoctorID int64  `form:"doctor_id" validate:"required,gt=0"`
	From     string `form:"from" validate:"required"`
	Days     int    `form:"days" validate:"required,min=1,max=31"`
}

// AnyAvailabilityQuery selects the union of slots across the whole roster.
type AnyAvailabilityQuery struct {
	From string `form:"from" validate:"required"`
	Days int    `form:"days" validate:"required,min=1,max=31"`
}

// DoctorAvailabilityQuery is the dashboard variant; the doctor comes from the session.
type DoctorAvailabilityQuery struct {
	From string `form:"from" validate:"required"`
	Days int    `form:"days" validate:"required,min=1,max=31"`
}

// AvailabilityResponse lists free slots in day, rule, time order (any-doctor: start order).
type AvailabilityResponse struct {
	From  string        `json:"from"`
	Days  int           `json:"days"`
	Slots []models.Slot `json:"slots"`
}
