package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// LoginRequest holds credentials for authenticating a doctor.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RegisterRequest creates a doctor account.
type RegisterRequest struct {
	Name        string `json:"name" validate:"required,min=2,max=120"`
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=8,max=72"`
	SpecialtyID *int64 `json:"specialty_id,omitempty" validate:"omitempty,gt=0"`
}

// LoginResponse returns the issued access token and the doctor profile.
type LoginResponse struct {
	AccessToken string     `json:"access_token"`
	ExpiresIn   int64      `json:"expires_in"`
	Doctor      DoctorInfo `json:"doctor"`
	IssuedAt    time.Time  `json:"issued_at"`
}

// JWTClaims represents the JWT payload for doctor access tokens. Subject carries the doctor id.
type JWTClaims struct {
	DoctorID int64  `json:"doctor_id"`
	Email    string `json:"email"`
	Name     string `json:"name"`
	jwt.RegisteredClaims
}
