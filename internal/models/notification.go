package models

import "time"

// NotificationChannel identifies a delivery channel for patient notifications.
type NotificationChannel string

const (
	ChannelEmail NotificationChannel = "email"
	ChannelSMS   NotificationChannel = "sms"
)

// BookingNotification is the queued payload describing a confirmed booking.
type BookingNotification struct {
	AppointmentID string              `json:"appointment_id"`
	Channel       NotificationChannel `json:"channel"`
	DoctorID      int64               `json:"doctor_id"`
	DoctorName    string              `json:"doctor_name"`
	PatientName   string              `json:"patient_name"`
	PatientEmail  string              `json:"patient_email"`
	PatientPhone  string              `json:"patient_phone"`
	StartAt       time.Time           `json:"start_at"`
	EndAt         time.Time           `json:"end_at"`
}
