package models

import "time"

// Slot is a derived bookable interval. It is never persisted.
type Slot struct {
	DoctorID int64     `json:"doctor_id"`
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
}
