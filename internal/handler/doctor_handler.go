package handler

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/doctor-booking-api/internal/dto"
	"github.com/noah-isme/doctor-booking-api/internal/models"
	"github.com/noah-isme/doctor-booking-api/internal/service"
	appErrors "github.com/noah-isme/doctor-booking-api/pkg/errors"
	"github.com/noah-isme/doctor-booking-api/pkg/export"
	"github.com/noah-isme/doctor-booking-api/pkg/response"
	"github.com/noah-isme/doctor-booking-api/pkg/timeutil"
)

type doctorReader interface {
	Me(ctx context.Context, doctorID int64) (*models.DoctorInfo, error)
	AppointmentsToday(ctx context.Context, doctorID int64, at time.Time) ([]models.Appointment, error)
	AppointmentsRange(ctx context.Context, doctorID int64, from, to time.Time) ([]models.Appointment, error)
	Search(ctx context.Context, query dto.DoctorSearchQuery) ([]models.DoctorInfo, error)
	Specialties(ctx context.Context) ([]models.Specialty, error)
}

type appointmentExporter interface {
	ExportAppointments(ctx context.Context, doctorID int64, from, to time.Time, format export.Format) (*service.ExportFile, error)
}

// DoctorHandler serves the doctor dashboard reads and the public doctor directory.
type DoctorHandler struct {
	doctors  doctorReader
	exports  appointmentExporter
	validate *validator.Validate
	now      func() time.Time
}

// NewDoctorHandler constructs the handler.
func NewDoctorHandler(doctors doctorReader, exports appointmentExporter) *DoctorHandler {
	return &DoctorHandler{
		doctors:  doctors,
		exports:  exports,
		validate: dto.NewValidator(),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Me godoc
// @Summary Current doctor
// @Tags Doctor
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /doctor/me [get]
func (h *DoctorHandler) Me(c *gin.Context) {
	doctorID, err := doctorIDFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	doctor, err := h.doctors.Me(c.Request.Context(), doctorID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, doctor)
}

// Today godoc
// @Summary Today's appointments
// @Description Appointments of the authenticated doctor on the current UTC day.
// @Tags Doctor
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /doctor/appointments/today [get]
func (h *DoctorHandler) Today(c *gin.Context) {
	doctorID, err := doctorIDFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	items, err := h.doctors.AppointmentsToday(c.Request.Context(), doctorID, h.now())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, items)
}

// Range godoc
// @Summary Appointments in range
// @Tags Doctor
// @Produce json
// @Security BearerAuth
// @Param from query string true "Range start (date or RFC3339)"
// @Param to query string true "Range end, exclusive (date or RFC3339)"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /doctor/appointments [get]
func (h *DoctorHandler) Range(c *gin.Context) {
	doctorID, err := doctorIDFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var query dto.RangeQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, validationError(err, "invalid range query"))
		return
	}
	from, to, err := parseRange(query.From, query.To)
	if err != nil {
		response.Error(c, err)
		return
	}

	items, err := h.doctors.AppointmentsRange(c.Request.Context(), doctorID, from, to)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, items)
}

// Export godoc
// @Summary Export appointments
// @Description Downloads the doctor's appointments in [from, to) as CSV or PDF.
// @Tags Doctor
// @Produce text/csv
// @Produce application/pdf
// @Security BearerAuth
// @Param from query string true "Range start"
// @Param to query string true "Range end, exclusive"
// @Param format query string false "csv or pdf" Enums(csv, pdf)
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Router /doctor/appointments/export [get]
func (h *DoctorHandler) Export(c *gin.Context) {
	doctorID, err := doctorIDFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var query dto.ExportQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, validationError(err, "invalid export query"))
		return
	}
	if err := h.validate.Struct(query); err != nil {
		response.Error(c, validationError(err, "invalid export query"))
		return
	}
	from, to, err := parseRange(query.From, query.To)
	if err != nil {
		response.Error(c, err)
		return
	}

	file, err := h.exports.ExportAppointments(c.Request.Context(), doctorID, from, to, export.Format(query.Format))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.ContentType, file.Filename, file.Body)
}

// Search godoc
// @Summary Search doctors
// @Description Case-insensitive partial name match, optionally filtered by specialty.
// @Tags Public
// @Produce json
// @Param search query string false "Name fragment"
// @Param specialty_id query int false "Specialty ID"
// @Success 200 {object} response.Envelope
// @Router /public/doctors [get]
func (h *DoctorHandler) Search(c *gin.Context) {
	var query dto.DoctorSearchQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, validationError(err, "invalid doctor search"))
		return
	}
	doctors, err := h.doctors.Search(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, doctors)
}

// Specialties godoc
// @Summary List specialties
// @Tags Public
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /public/specialties [get]
func (h *DoctorHandler) Specialties(c *gin.Context) {
	items, err := h.doctors.Specialties(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, items)
}

// parseRange reads a [from, to) window given as dates or RFC3339 instants.
func parseRange(rawFrom, rawTo string) (time.Time, time.Time, error) {
	if rawFrom == "" || rawTo == "" {
		return time.Time{}, time.Time{}, appErrors.Clone(appErrors.ErrValidation, "from and to are required")
	}
	from, err := timeutil.ParseDateOrInstant(rawFrom)
	if err != nil {
		return time.Time{}, time.Time{}, validationError(err, "invalid from")
	}
	to, err := timeutil.ParseDateOrInstant(rawTo)
	if err != nil {
		return time.Time{}, time.Time{}, validationError(err, "invalid to")
	}
	return from, to, nil
}
