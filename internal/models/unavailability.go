package models

import "time"

// Unavailability blocks a doctor's calendar over the half-open interval [StartAt, EndAt).
type Unavailability struct {
	ID       int64     `db:"id" json:"id"`
	DoctorID int64     `db:"doctor_id" json:"doctor_id"`
	StartAt  time.Time `db:"start_at" json:"start_at"`
	EndAt    time.Time `db:"end_at" json:"end_at"`
	Reason   *string   `db:"reason" json:"reason,omitempty"`
}

// Overlaps reports whether [start, end) intersects the blocked interval.
func (u Unavailability) Overlaps(start, end time.Time) bool {
	return start.Before(u.EndAt) && end.After(u.StartAt)
}
