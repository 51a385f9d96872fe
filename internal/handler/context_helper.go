package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/doctor-booking-api/internal/dto"
	"github.com/noah-isme/doctor-booking-api/internal/middleware"
	"github.com/noah-isme/doctor-booking-api/internal/models"
	appErrors "github.com/noah-isme/doctor-booking-api/pkg/errors"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok {
		return nil
	}
	return claims
}

// doctorIDFromContext returns the authenticated doctor. Every schedule operation is scoped by it.
func doctorIDFromContext(c *gin.Context) (int64, error) {
	claims := claimsFromContext(c)
	if claims == nil || claims.DoctorID <= 0 {
		return 0, appErrors.ErrUnauthorized
	}
	return claims.DoctorID, nil
}

func validationError(err error, message string) error {
	return dto.ValidationError(err, message)
}
