package dto

// BookRequest is the public booking payload. CreatedIP is attached by the handler.
type BookRequest struct {
	Any          bool    `json:"any"`
	DoctorID     *int64  `json:"doctor_id,omitempty" validate:"omitempty,gt=0"`
	StartAt      string  `json:"start_at" validate:"required"`
	PatientName  string  `json:"patient_name" validate:"required,min=2,max=120"`
	PatientEmail string  `json:"patient_email" validate:"required,email,max=254"`
	PatientPhone string  `json:"patient_phone" validate:"required,e164ish"`
	Reason       *string `json:"reason,omitempty" validate:"omitempty,max=500"`
	CaptchaToken string  `json:"captcha_token,omitempty"`
	CreatedIP    string  `json:"-"`
}
