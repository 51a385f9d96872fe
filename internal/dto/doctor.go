package dto

// DoctorSearchQuery filters the public doctor directory.
type DoctorSearchQuery struct {
	Search      string `form:"search" validate:"omitempty,max=100"`
	SpecialtyID *int64 `form:"specialty_id" validate:"omitempty,gt=0"`
}
