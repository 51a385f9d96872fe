package models

// WorkingRule is a recurring weekly window during which a doctor accepts appointments.
// Weekday uses 1=Monday .. 5=Friday; times are TIME columns rendered HH:MM:SS.
type WorkingRule struct {
	ID        int64  `db:"id" json:"id"`
	DoctorID  int64  `db:"doctor_id" json:"doctor_id"`
	Weekday   int    `db:"weekday" json:"weekday"`
	StartTime string `db:"start_time" json:"start_time"`
	EndTime   string `db:"end_time" json:"end_time"`
}
