package handler

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/doctor-booking-api/internal/dto"
	"github.com/noah-isme/doctor-booking-api/internal/models"
	appErrors "github.com/noah-isme/doctor-booking-api/pkg/errors"
)

type fakeSchedule struct {
	doctorID int64
	upsert   *dto.UpsertWorkingRulesRequest
	created  *dto.CreateUnavailabilityRequest
	deleted  int64
	err      error
}

func (f *fakeSchedule) ListWorkingRules(_ context.Context, doctorID int64) ([]models.WorkingRule, error) {
	f.doctorID = doctorID
	return []models.WorkingRule{}, f.err
}

func (f *fakeSchedule) UpsertWorkingRules(_ context.Context, doctorID int64, req dto.UpsertWorkingRulesRequest) (*dto.UpsertWorkingRulesResult, error) {
	f.doctorID, f.upsert = doctorID, &req
	if f.err != nil {
		return nil, f.err
	}
	return &dto.UpsertWorkingRulesResult{Weekdays: []int{1}}, nil
}

func (f *fakeSchedule) CreateUnavailability(_ context.Context, doctorID int64, req dto.CreateUnavailabilityRequest) (*models.Unavailability, error) {
	f.doctorID, f.created = doctorID, &req
	if f.err != nil {
		return nil, f.err
	}
	return &models.Unavailability{ID: 9, DoctorID: doctorID}, nil
}

func (f *fakeSchedule) DeleteUnavailability(_ context.Context, doctorID, id int64) error {
	f.doctorID, f.deleted = doctorID, id
	return f.err
}

func (f *fakeSchedule) ListUnavailability(_ context.Context, doctorID int64, from, to time.Time) ([]models.Unavailability, error) {
	f.doctorID = doctorID
	return []models.Unavailability{}, f.err
}

func TestUpsertWorkingRulesScopedToSession(t *testing.T) {
	schedule := &fakeSchedule{}
	c, rec := newContext(http.MethodPost, "/doctor/working-rules", `{"rules":[{"weekday":1,"start_time":"09:00","end_time":"17:00"}]}`)
	asDoctor(c, 4)
	NewScheduleHandler(schedule).UpsertWorkingRules(c)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, int64(4), schedule.doctorID)
	require.NotNil(t, schedule.upsert)
	assert.Equal(t, "09:00", schedule.upsert.Rules[0].StartTime)
}

func TestUpsertWorkingRulesWeekendRejected(t *testing.T) {
	schedule := &fakeSchedule{err: appErrors.ErrWeekendBlocked}
	c, rec := newContext(http.MethodPost, "/doctor/working-rules", `{"rules":[{"weekday":6,"start_time":"09:00","end_time":"12:00"}]}`)
	asDoctor(c, 4)
	NewScheduleHandler(schedule).UpsertWorkingRules(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "WEEKEND_BLOCKED", errorCodeOf(t, rec))
}

func TestScheduleRequiresDoctor(t *testing.T) {
	schedule := &fakeSchedule{}
	c, rec := newContext(http.MethodGet, "/doctor/working-rules", "")
	NewScheduleHandler(schedule).ListWorkingRules(c)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Zero(t, schedule.doctorID)
}

func TestCreateUnavailability(t *testing.T) {
	schedule := &fakeSchedule{}
	c, rec := newContext(http.MethodPost, "/doctor/unavailability", `{"start_at":"2025-10-27T12:00:00Z","end_at":"2025-10-27T13:00:00Z","reason":"lunch"}`)
	asDoctor(c, 2)
	NewScheduleHandler(schedule).CreateUnavailability(c)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	require.NotNil(t, schedule.created)
	assert.Equal(t, "lunch", *schedule.created.Reason)
}

func TestDeleteUnavailability(t *testing.T) {
	schedule := &fakeSchedule{}
	c, _ := newContext(http.MethodDelete, "/doctor/unavailability/12", "")
	c.AddParam("id", "12")
	asDoctor(c, 2)
	NewScheduleHandler(schedule).DeleteUnavailability(c)
	assert.Equal(t, http.StatusNoContent, c.Writer.Status())
	assert.Equal(t, int64(12), schedule.deleted)

	schedule = &fakeSchedule{err: appErrors.ErrNotFound}
	c, rec := newContext(http.MethodDelete, "/doctor/unavailability/13", "")
	c.AddParam("id", "13")
	asDoctor(c, 2)
	NewScheduleHandler(schedule).DeleteUnavailability(c)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	c, rec = newContext(http.MethodDelete, "/doctor/unavailability/x", "")
	c.AddParam("id", "x")
	asDoctor(c, 2)
	NewScheduleHandler(&fakeSchedule{}).DeleteUnavailability(c)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListUnavailabilityNeedsRange(t *testing.T) {
	c, rec := newContext(http.MethodGet, "/doctor/unavailability?from=2025-10-27", "")
	asDoctor(c, 2)
	NewScheduleHandler(&fakeSchedule{}).ListUnavailability(c)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	schedule := &fakeSchedule{}
	c, rec = newContext(http.MethodGet, "/doctor/unavailability?from=2025-10-27&to=2025-11-03", "")
	asDoctor(c, 2)
	NewScheduleHandler(schedule).ListUnavailability(c)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(2), schedule.doctorID)
}
