package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/doctor-booking-api/internal/dto"
	"github.com/noah-isme/doctor-booking-api/internal/models"
	appErrors "github.com/noah-isme/doctor-booking-api/pkg/errors"
)

type fakeAvailability struct {
	slots []models.Slot
	err   error
	calls []availabilityCall
}

type availabilityCall struct {
	doctorID int64
	from     time.Time
	days     int
	at       time.Time
}

func (f *fakeAvailability) ForDoctor(_ context.Context, doctorID int64, from time.Time, days int, at time.Time) ([]models.Slot, error) {
	f.calls = append(f.calls, availabilityCall{doctorID, from, days, at})
	return f.slots, f.err
}

func (f *fakeAvailability) ForAny(_ context.Context, from time.Time, days int, at time.Time) ([]models.Slot, error) {
	f.calls = append(f.calls, availabilityCall{0, from, days, at})
	return f.slots, f.err
}

var fixedNow = time.Date(2025, 10, 27, 8, 0, 0, 0, time.UTC)

func newAvailabilityHandler(fake *fakeAvailability) *AvailabilityHandler {
	h := NewAvailabilityHandler(fake)
	h.now = func() time.Time { return fixedNow }
	return h
}

func TestAvailabilityForDoctor(t *testing.T) {
	start := time.Date(2025, 10, 27, 9, 0, 0, 0, time.UTC)
	fake := &fakeAvailability{slots: []models.Slot{{DoctorID: 2, Start: start, End: start.Add(20 * time.Minute)}}}
	h := newAvailabilityHandler(fake)

	c, rec := newContext(http.MethodGet, "/public/availability?doctor_id=2&from=2025-10-27&days=5", "")
	h.ForDoctor(c)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Len(t, fake.calls, 1)
	assert.Equal(t, availabilityCall{2, time.Date(2025, 10, 27, 0, 0, 0, 0, time.UTC), 5, fixedNow}, fake.calls[0])

	envelope := decodeEnvelope(t, rec)
	var body dto.AvailabilityResponse
	require.NoError(t, json.Unmarshal(envelope.Data, &body))
	assert.Equal(t, "2025-10-27", body.From)
	require.Len(t, body.Slots, 1)
	assert.True(t, body.Slots[0].Start.Equal(start))
	assert.Equal(t, float64(2), envelope.Meta["doctor_id"])
}

func TestAvailabilityForDoctorRejectsBadQueries(t *testing.T) {
	cases := []string{
		"/public/availability?from=2025-10-27&days=5",
		"/public/availability?doctor_id=abc&from=2025-10-27&days=5",
		"/public/availability?doctor_id=1&from=27-10-2025&days=5",
		"/public/availability?doctor_id=1&from=2025-10-27&days=0",
		"/public/availability?doctor_id=1&from=2025-10-27&days=32",
	}
	for _, target := range cases {
		t.Run(target, func(t *testing.T) {
			fake := &fakeAvailability{}
			c, rec := newContext(http.MethodGet, target, "")
			newAvailabilityHandler(fake).ForDoctor(c)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, "VALIDATION_ERROR", errorCodeOf(t, rec))
			assert.Empty(t, fake.calls)
		})
	}
}

func TestAvailabilityForAny(t *testing.T) {
	fake := &fakeAvailability{}
	c, rec := newContext(http.MethodGet, "/public/availability/any?from=2025-10-27&days=14", "")
	newAvailabilityHandler(fake).ForAny(c)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, fake.calls, 1)
	assert.Equal(t, 14, fake.calls[0].days)
}

func TestAvailabilityMineUsesSessionDoctor(t *testing.T) {
	fake := &fakeAvailability{}
	h := newAvailabilityHandler(fake)

	c, rec := newContext(http.MethodGet, "/doctor/availability?from=2025-10-27&days=7", "")
	h.Mine(c)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	c, rec = newContext(http.MethodGet, "/doctor/availability?from=2025-10-27&days=7", "")
	asDoctor(c, 6)
	h.Mine(c)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, fake.calls, 1)
	assert.Equal(t, int64(6), fake.calls[0].doctorID)
}

func TestAvailabilityPropagatesServiceErrors(t *testing.T) {
	fake := &fakeAvailability{err: appErrors.Wrap(nil, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "store down")}
	c, rec := newContext(http.MethodGet, "/public/availability/any?from=2025-10-27&days=1", "")
	newAvailabilityHandler(fake).ForAny(c)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, appErrors.ErrInternal.Code, errorCodeOf(t, rec))
}

func TestAvailabilityRejectionNamesField(t *testing.T) {
	c, rec := newContext(http.MethodGet, "/public/availability?doctor_id=1&from=2025-10-27&days=40", "")
	newAvailabilityHandler(&fakeAvailability{}).ForDoctor(c)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	envelope := decodeEnvelope(t, rec)
	require.NotNil(t, envelope.Error)
	assert.Equal(t, []appErrors.FieldError{{Field: "days", Rule: "max", Param: "31"}}, envelope.Error.Details)
}
