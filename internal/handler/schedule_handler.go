package handler

import (
	"context"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/doctor-booking-api/internal/dto"
	"github.com/noah-isme/doctor-booking-api/internal/models"
	appErrors "github.com/noah-isme/doctor-booking-api/pkg/errors"
	"github.com/noah-isme/doctor-booking-api/pkg/response"
)

type scheduleManager interface {
	ListWorkingRules(ctx context.Context, doctorID int64) ([]models.WorkingRule, error)
	UpsertWorkingRules(ctx context.Context, doctorID int64, req dto.UpsertWorkingRulesRequest) (*dto.UpsertWorkingRulesResult, error)
	CreateUnavailability(ctx context.Context, doctorID int64, req dto.CreateUnavailabilityRequest) (*models.Unavailability, error)
	DeleteUnavailability(ctx context.Context, doctorID, id int64) error
	ListUnavailability(ctx context.Context, doctorID int64, from, to time.Time) ([]models.Unavailability, error)
}

// ScheduleHandler lets a doctor manage their own working rules and blocked intervals.
type ScheduleHandler struct {
	schedule scheduleManager
}

// NewScheduleHandler constructs the handler.
func NewScheduleHandler(schedule scheduleManager) *ScheduleHandler {
	return &ScheduleHandler{schedule: schedule}
}

// ListWorkingRules godoc
// @Summary List working rules
// @Tags Doctor
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /doctor/working-rules [get]
func (h *ScheduleHandler) ListWorkingRules(c *gin.Context) {
	doctorID, err := doctorIDFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	rules, err := h.schedule.ListWorkingRules(c.Request.Context(), doctorID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, rules)
}

// UpsertWorkingRules godoc
// @Summary Replace working rules
// @Description Replaces every rule of each weekday present in the batch. Weekdays are 1 (Monday) to 5 (Friday).
// @Tags Doctor
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.UpsertWorkingRulesRequest true "Rules"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /doctor/working-rules [post]
func (h *ScheduleHandler) UpsertWorkingRules(c *gin.Context) {
	doctorID, err := doctorIDFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.UpsertWorkingRulesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, validationError(err, "invalid working rules payload"))
		return
	}

	result, err := h.schedule.UpsertWorkingRules(c.Request.Context(), doctorID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, result)
}

// CreateUnavailability godoc
// @Summary Block an interval
// @Tags Doctor
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.CreateUnavailabilityRequest true "Interval"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /doctor/unavailability [post]
func (h *ScheduleHandler) CreateUnavailability(c *gin.Context) {
	doctorID, err := doctorIDFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.CreateUnavailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, validationError(err, "invalid unavailability payload"))
		return
	}

	item, err := h.schedule.CreateUnavailability(c.Request.Context(), doctorID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, item)
}

// ListUnavailability godoc
// @Summary List blocked intervals
// @Tags Doctor
// @Produce json
// @Security BearerAuth
// @Param from query string true "Range start"
// @Param to query string true "Range end, exclusive"
// @Success 200 {object} response.Envelope
// @Router /doctor/unavailability [get]
func (h *ScheduleHandler) ListUnavailability(c *gin.Context) {
	doctorID, err := doctorIDFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	from, to, err := parseRange(c.Query("from"), c.Query("to"))
	if err != nil {
		response.Error(c, err)
		return
	}

	items, err := h.schedule.ListUnavailability(c.Request.Context(), doctorID, from, to)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, items)
}

// DeleteUnavailability godoc
// @Summary Remove a blocked interval
// @Tags Doctor
// @Security BearerAuth
// @Param id path int true "Unavailability ID"
// @Success 204
// @Failure 404 {object} response.Envelope
// @Router /doctor/unavailability/{id} [delete]
func (h *ScheduleHandler) DeleteUnavailability(c *gin.Context) {
	doctorID, err := doctorIDFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid unavailability id"))
		return
	}

	if err := h.schedule.DeleteUnavailability(c.Request.Context(), doctorID, id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
