package models

import "time"

// Appointment is a confirmed booking of one slot. (doctor_id, start_at) is unique.
type Appointment struct {
	ID           string    `db:"id" json:"id"`
	DoctorID     int64     `db:"doctor_id" json:"doctor_id"`
	PatientName  string    `db:"patient_name" json:"patient_name"`
	PatientEmail string    `db:"patient_email" json:"patient_email"`
	PatientPhone string    `db:"patient_phone" json:"patient_phone"`
	Reason       *string   `db:"reason" json:"reason,omitempty"`
	StartAt      time.Time `db:"start_at" json:"start_at"`
	EndAt        time.Time `db:"end_at" json:"end_at"`
	CreatedIP    *string   `db:"created_ip" json:"-"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}
