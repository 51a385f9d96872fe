package handler

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/doctor-booking-api/internal/dto"
	"github.com/noah-isme/doctor-booking-api/internal/models"
	"github.com/noah-isme/doctor-booking-api/pkg/response"
	"github.com/noah-isme/doctor-booking-api/pkg/timeutil"
)

type availabilityReader interface {
	ForDoctor(ctx context.Context, doctorID int64, from time.Time, days int, at time.Time) ([]models.Slot, error)
	ForAny(ctx context.Context, from time.Time, days int, at time.Time) ([]models.Slot, error)
}

// AvailabilityHandler serves bookable slots to patients and to the doctor dashboard.
type AvailabilityHandler struct {
	availability availabilityReader
	validate     *validator.Validate
	now          func() time.Time
}

// NewAvailabilityHandler constructs the handler.
func NewAvailabilityHandler(availability availabilityReader) *AvailabilityHandler {
	return &AvailabilityHandler{
		availability: availability,
		validate:     dto.NewValidator(),
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// ForDoctor godoc
// @Summary Doctor availability
// @Description Free slots of one doctor for days calendar days starting at from. Past slots, booked starts and blocked intervals are excluded.
// @Tags Public
// @Produce json
// @Param doctor_id query int true "Doctor ID"
// @Param from query string true "Start date (YYYY-MM-DD)"
// @Param days query int true "Number of days (1-31)"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /public/availability [get]
func (h *AvailabilityHandler) ForDoctor(c *gin.Context) {
	var query dto.AvailabilityQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, validationError(err, "invalid availability query"))
		return
	}
	if err := h.validate.Struct(query); err != nil {
		response.Error(c, validationError(err, "invalid availability query"))
		return
	}
	from, err := timeutil.ParseDate(query.From)
	if err != nil {
		response.Error(c, validationError(err, "invalid from date"))
		return
	}

	slots, err := h.availability.ForDoctor(c.Request.Context(), query.DoctorID, from, query.Days, h.now())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.AvailabilityResponse{From: query.From, Days: query.Days, Slots: slots},
		map[string]interface{}{"doctor_id": query.DoctorID})
}

// ForAny godoc
// @Summary Any-doctor availability
// @Description Union of every doctor's free slots, sorted by start.
// @Tags Public
// @Produce json
// @Param from query string true "Start date (YYYY-MM-DD)"
// @Param days query int true "Number of days (1-31)"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /public/availability/any [get]
func (h *AvailabilityHandler) ForAny(c *gin.Context) {
	var query dto.AnyAvailabilityQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, validationError(err, "invalid availability query"))
		return
	}
	if err := h.validate.Struct(query); err != nil {
		response.Error(c, validationError(err, "invalid availability query"))
		return
	}
	from, err := timeutil.ParseDate(query.From)
	if err != nil {
		response.Error(c, validationError(err, "invalid from date"))
		return
	}

	slots, err := h.availability.ForAny(c.Request.Context(), from, query.Days, h.now())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.AvailabilityResponse{From: query.From, Days: query.Days, Slots: slots})
}

// Mine godoc
// @Summary Own availability
// @Description Free slots of the authenticated doctor.
// @Tags Doctor
// @Produce json
// @Security BearerAuth
// @Param from query string true "Start date (YYYY-MM-DD)"
// @Param days query int true "Number of days (1-31)"
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /doctor/availability [get]
func (h *AvailabilityHandler) Mine(c *gin.Context) {
	doctorID, err := doctorIDFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var query dto.DoctorAvailabilityQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, validationError(err, "invalid availability query"))
		return
	}
	if err := h.validate.Struct(query); err != nil {
		response.Error(c, validationError(err, "invalid availability query"))
		return
	}
	from, err := timeutil.ParseDate(query.From)
	if err != nil {
		response.Error(c, validationError(err, "invalid from date"))
		return
	}

	slots, err := h.availability.ForDoctor(c.Request.Context(), doctorID, from, query.Days, h.now())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.AvailabilityResponse{From: query.From, Days: query.Days, Slots: slots})
}
