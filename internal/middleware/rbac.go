package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/doctor-booking-api/internal/models"
	appErrors "github.com/noah-isme/doctor-booking-api/pkg/errors"
	"github.com/noah-isme/doctor-booking-api/pkg/response"
)

// RequireDoctor ensures JWT ran and produced claims for an actual doctor account.
func RequireDoctor() gin.HandlerFunc {
	return func(c *gin.Context) {
		value, exists := c.Get(ContextUserKey)
		if !exists {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		claims, ok := value.(*models.JWTClaims)
		if !ok || claims == nil || claims.DoctorID <= 0 {
			response.Error(c, appErrors.ErrForbidden)
			c.Abort()
			return
		}
		c.Next()
	}
}
