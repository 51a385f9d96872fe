package models

import "time"

// Doctor is a bookable practitioner and also the authenticated principal of the dashboard.
type Doctor struct {
	ID            int64     `db:"id" json:"id"`
	Name          string    `db:"name" json:"name"`
	Email         string    `db:"email" json:"email"`
	PasswordHash  string    `db:"password_hash" json:"-"`
	SpecialtyID   *int64    `db:"specialty_id" json:"specialty_id,omitempty"`
	SpecialtyName *string   `db:"specialty_name" json:"specialty,omitempty"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

// DoctorInfo is the public projection of a doctor.
type DoctorInfo struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Email       string  `json:"email"`
	SpecialtyID *int64  `json:"specialty_id,omitempty"`
	Specialty   *string `json:"specialty,omitempty"`
}

// Info strips credentials from the doctor record.
func (d Doctor) Info() DoctorInfo {
	return DoctorInfo{
		ID:          d.ID,
		Name:        d.Name,
		Email:       d.Email,
		SpecialtyID: d.SpecialtyID,
		Specialty:   d.SpecialtyName,
	}
}

// DoctorFilter narrows the public doctor directory.
type DoctorFilter struct {
	Search      string
	SpecialtyID *int64
}

// Specialty is a medical specialty doctors may be tagged with.
type Specialty struct {
	ID   int64  `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
}
