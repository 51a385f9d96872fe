package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/doctor-booking-api/internal/dto"
	"github.com/noah-isme/doctor-booking-api/internal/models"
	"github.com/noah-isme/doctor-booking-api/pkg/response"
)

type appointmentBooker interface {
	Book(ctx context.Context, req dto.BookRequest) (*models.Appointment, error)
}

type captchaVerifier interface {
	Verify(ctx context.Context, token, remoteIP string) error
}

// BookingHandler accepts public booking requests.
type BookingHandler struct {
	booking appointmentBooker
	captcha captchaVerifier
}

// NewBookingHandler constructs the handler. A nil captcha verifier skips the check.
func NewBookingHandler(booking appointmentBooker, captcha captchaVerifier) *BookingHandler {
	return &BookingHandler{booking: booking, captcha: captcha}
}

// Book godoc
// @Summary Book an appointment
// @Description Books start_at with doctor_id, or with the first free doctor when any is true. Rate limited per IP and captcha gated.
// @Tags Public
// @Accept json
// @Produce json
// @Param payload body dto.BookRequest true "Booking payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 429 {object} response.Envelope
// @Router /public/book [post]
func (h *BookingHandler) Book(c *gin.Context) {
	var req dto.BookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, validationError(err, "invalid booking payload"))
		return
	}
	req.CreatedIP = c.ClientIP()

	if h.captcha != nil {
		if err := h.captcha.Verify(c.Request.Context(), req.CaptchaToken, req.CreatedIP); err != nil {
			response.Error(c, err)
			return
		}
	}

	appt, err := h.booking.Book(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, appt)
}
