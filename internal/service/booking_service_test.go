package service

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/noah-isme/doctor-booking-api/internal/dto"
	"github.com/noah-isme/doctor-booking-api/internal/models"
	"github.com/noah-isme/doctor-booking-api/internal/repository"
	appErrors "github.com/noah-isme/doctor-booking-api/pkg/errors"
)

var (
	overlapQuery  = regexp.QuoteMeta("SELECT EXISTS (SELECT 1 FROM unavailabilities")
	forShareQuery = regexp.QuoteMeta("FOR SHARE")
	insertAppt    = regexp.QuoteMeta("INSERT INTO appointments")
)

type recordedEvent struct {
	doctorID  int64
	eventType models.RealtimeEventType
	payload   interface{}
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []recordedEvent
	panics bool
}

func (p *recordingPublisher) PublishDoctorEvent(doctorID int64, eventType models.RealtimeEventType, payload interface{}) {
	if p.panics {
		panic("hub exploded")
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, recordedEvent{doctorID: doctorID, eventType: eventType, payload: payload})
}

type recordingNotifier struct {
	mu    sync.Mutex
	appts []models.Appointment
	err   error
}

func (n *recordingNotifier) BookingConfirmed(ctx context.Context, appt models.Appointment) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.appts = append(n.appts, appt)
	return n.err
}

type bookingFixture struct {
	svc       *BookingService
	mock      sqlmock.Sqlmock
	store     *fakeScheduleStore
	publisher *recordingPublisher
	notifier  *recordingNotifier
}

func newBookingFixture(t *testing.T) *bookingFixture {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	sqlxdb := sqlx.NewDb(db, "sqlmock")

	store := newFakeScheduleStore()
	store.weekdays(1, "09:00", "17:00")

	publisher := &recordingPublisher{}
	notifier := &recordingNotifier{}
	svc := NewBookingService(
		sqlxdb,
		newTestAvailability(store, nil),
		repository.NewUnavailabilityRepository(sqlxdb),
		repository.NewAppointmentRepository(sqlxdb),
		publisher,
		notifier,
		nil,
		nil,
		BookingConfig{AnyWindowDays: 14},
		nil,
	)
	svc.clock = func() time.Time { return monday }

	return &bookingFixture{svc: svc, mock: mock, store: store, publisher: publisher, notifier: notifier}
}

func bookRequest(doctorID int64, startAt string) dto.BookRequest {
	return dto.BookRequest{
		DoctorID:     &doctorID,
		StartAt:      startAt,
		PatientName:  "Jane Doe",
		PatientEmail: "jane@example.com",
		PatientPhone: "+6281234567890",
		CreatedIP:    "10.0.0.7",
	}
}

func expectFreeSlot(mock sqlmock.Sqlmock) {
	mock.ExpectBegin()
	mock.ExpectQuery(overlapQuery).WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectQuery(forShareQuery).WillReturnRows(sqlmock.NewRows([]string{"id"}))
}

func TestBookCommitsAppointment(t *testing.T) {
	f := newBookingFixture(t)
	expectFreeSlot(f.mock)
	f.mock.ExpectExec(insertAppt).WillReturnResult(sqlmock.NewResult(0, 1))
	f.mock.ExpectCommit()

	appt, err := f.svc.Book(context.Background(), bookRequest(1, "2025-10-27T09:20:00Z"))
	require.NoError(t, err)
	require.NotNil(t, appt)
	assert.NotEmpty(t, appt.ID)
	assert.Equal(t, int64(1), appt.DoctorID)
	assert.Equal(t, at(monday, 9, 20), appt.StartAt)
	assert.Equal(t, at(monday, 9, 40), appt.EndAt)
	require.NotNil(t, appt.CreatedIP)
	assert.Equal(t, "10.0.0.7", *appt.CreatedIP)

	require.Len(t, f.publisher.events, 1)
	assert.Equal(t, models.EventAppointmentBooked, f.publisher.events[0].eventType)
	assert.Equal(t, models.AppointmentBookedPayload{DoctorID: 1, StartAt: appt.StartAt, EndAt: appt.EndAt}, f.publisher.events[0].payload)
	require.Len(t, f.notifier.appts, 1)
	assert.Equal(t, appt.ID, f.notifier.appts[0].ID)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestBookSaturdayIsWeekendBlocked(t *testing.T) {
	f := newBookingFixture(t)

	_, err := f.svc.Book(context.Background(), bookRequest(1, "2025-11-01T09:00:00Z"))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrWeekendBlocked.Code, appErrors.FromError(err).Code)
	assert.Equal(t, 400, appErrors.FromError(err).Status)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestBookRejectsInvalidPayloads(t *testing.T) {
	cases := map[string]func(*dto.BookRequest){
		"bad start":   func(r *dto.BookRequest) { r.StartAt = "tomorrow at nine" },
		"date only":   func(r *dto.BookRequest) { r.StartAt = "2025-10-27" },
		"bad phone":   func(r *dto.BookRequest) { r.PatientPhone = "12-34" },
		"bad email":   func(r *dto.BookRequest) { r.PatientEmail = "not-an-email" },
		"short name":  func(r *dto.BookRequest) { r.PatientName = "<b>J</b>" },
		"empty start": func(r *dto.BookRequest) { r.StartAt = "  " },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			f := newBookingFixture(t)
			req := bookRequest(1, "2025-10-27T09:00:00Z")
			mutate(&req)

			_, err := f.svc.Book(context.Background(), req)
			require.Error(t, err)
			assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
		})
	}
}

func TestBookValidationNamesRejectedField(t *testing.T) {
	f := newBookingFixture(t)
	req := bookRequest(1, "2025-10-27T09:00:00Z")
	req.PatientEmail = "not-an-email"

	_, err := f.svc.Book(context.Background(), req)
	require.Error(t, err)
	raw, marshalErr := json.Marshal(appErrors.FromError(err))
	require.NoError(t, marshalErr)
	assert.JSONEq(t, `{"code":"VALIDATION_ERROR","message":"invalid booking payload","status":400,"details":[{"field":"patient_email","rule":"email"}]}`, string(raw))
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestBookWithoutDoctorRequiresDoctorID(t *testing.T) {
	f := newBookingFixture(t)
	req := bookRequest(1, "2025-10-27T09:00:00Z")
	req.DoctorID = nil

	_, err := f.svc.Book(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrDoctorRequired.Code, appErrors.FromError(err).Code)
}

func TestBookOutsideWorkingHoursIsUnavailable(t *testing.T) {
	for _, startAt := range []string{"2025-10-27T18:00:00Z", "2025-10-27T09:10:00Z", "2025-10-27T16:50:00Z"} {
		f := newBookingFixture(t)

		_, err := f.svc.Book(context.Background(), bookRequest(1, startAt))
		require.Error(t, err, startAt)
		assert.Equal(t, appErrors.ErrSlotUnavailable.Code, appErrors.FromError(err).Code, startAt)
		assert.NoError(t, f.mock.ExpectationsWereMet())
	}
}

func TestBookAnyBindsFirstDoctorWithMatchingSlot(t *testing.T) {
	f := newBookingFixture(t)
	f.store.weekdays(2, "09:00", "12:00")
	f.store.appointments[1] = []time.Time{at(monday, 9, 0)}

	expectFreeSlot(f.mock)
	f.mock.ExpectExec(insertAppt).WillReturnResult(sqlmock.NewResult(0, 1))
	f.mock.ExpectCommit()

	req := bookRequest(1, "2025-10-27T09:00:00Z")
	req.Any = true
	appt, err := f.svc.Book(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, int64(2), appt.DoctorID)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestBookAnyWithoutMatchIsNoDoctorAvailable(t *testing.T) {
	f := newBookingFixture(t)

	req := bookRequest(0, "2025-10-27T17:00:00Z")
	req.Any = true
	req.DoctorID = nil
	_, err := f.svc.Book(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNoDoctorAvailable.Code, appErrors.FromError(err).Code)
	assert.Equal(t, 409, appErrors.FromError(err).Status)
}

func TestBookAnyWindowClampedToAvailabilityLimit(t *testing.T) {
	store := newFakeScheduleStore()
	store.weekdays(1, "09:00", "17:00")
	svc := NewBookingService(nil, newTestAvailability(store, nil), nil, nil, nil, nil, nil, nil, BookingConfig{AnyWindowDays: 90}, nil)
	svc.clock = func() time.Time { return monday }
	assert.Equal(t, 31, svc.cfg.AnyWindowDays)

	req := bookRequest(0, "2025-10-27T17:00:00Z")
	req.Any = true
	req.DoctorID = nil
	_, err := svc.Book(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNoDoctorAvailable.Code, appErrors.FromError(err).Code)
}

func TestBookBlockedIntervalRollsBack(t *testing.T) {
	f := newBookingFixture(t)
	f.mock.ExpectBegin()
	f.mock.ExpectQuery(overlapQuery).WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	f.mock.ExpectRollback()

	_, err := f.svc.Book(context.Background(), bookRequest(1, "2025-10-27T10:00:00Z"))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrSlotUnavailable.Code, appErrors.FromError(err).Code)
	assert.Empty(t, f.publisher.events)
	assert.Empty(t, f.notifier.appts)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

// Two patients race for the same slot. The winner commits; the loser either sees the locked
// row on re-check or trips the unique index, and both paths report the same conflict.
func TestBookRaceOneWinsOneAlreadyBooked(t *testing.T) {
	losers := map[string]func(sqlmock.Sqlmock){
		"locked re-check": func(mock sqlmock.Sqlmock) {
			mock.ExpectBegin()
			mock.ExpectQuery(overlapQuery).WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
			mock.ExpectQuery(forShareQuery).WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("winner-id"))
			mock.ExpectRollback()
		},
		"unique violation": func(mock sqlmock.Sqlmock) {
			expectFreeSlot(mock)
			mock.ExpectExec(insertAppt).WillReturnError(&pq.Error{Code: "23505", Constraint: repository.AppointmentStartConstraint})
			mock.ExpectRollback()
		},
	}

	for name, expectLoser := range losers {
		t.Run(name, func(t *testing.T) {
			f := newBookingFixture(t)
			expectFreeSlot(f.mock)
			f.mock.ExpectExec(insertAppt).WillReturnResult(sqlmock.NewResult(0, 1))
			f.mock.ExpectCommit()
			expectLoser(f.mock)

			winner, err := f.svc.Book(context.Background(), bookRequest(1, "2025-10-27T11:00:00Z"))
			require.NoError(t, err)
			require.NotNil(t, winner)

			loser := bookRequest(1, "2025-10-27T11:00:00Z")
			loser.PatientName = "John Roe"
			_, err = f.svc.Book(context.Background(), loser)
			require.Error(t, err)
			assert.Equal(t, appErrors.ErrSlotAlreadyBooked.Code, appErrors.FromError(err).Code)
			assert.Equal(t, 409, appErrors.FromError(err).Status)

			assert.Len(t, f.publisher.events, 1)
			assert.NoError(t, f.mock.ExpectationsWereMet())
		})
	}
}

// Both patients submit at the same moment. Expectations are matched in arrival order, so either
// goroutine may win; exactly one must.
func TestBookConcurrentRaceOneWinsOneAlreadyBooked(t *testing.T) {
	freeRows := func() *sqlmock.Rows { return sqlmock.NewRows([]string{"exists"}).AddRow(false) }
	schedules := map[string]func(sqlmock.Sqlmock){
		"locked re-check": func(mock sqlmock.Sqlmock) {
			mock.ExpectBegin()
			mock.ExpectBegin()
			mock.ExpectQuery(overlapQuery).WillReturnRows(freeRows())
			mock.ExpectQuery(overlapQuery).WillReturnRows(freeRows())
			mock.ExpectQuery(forShareQuery).WillReturnRows(sqlmock.NewRows([]string{"id"}))
			mock.ExpectQuery(forShareQuery).WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("winner-id"))
			mock.ExpectExec(insertAppt).WillReturnResult(sqlmock.NewResult(0, 1))
			mock.ExpectCommit()
			mock.ExpectRollback()
		},
		"unique violation": func(mock sqlmock.Sqlmock) {
			mock.ExpectBegin()
			mock.ExpectBegin()
			mock.ExpectQuery(overlapQuery).WillReturnRows(freeRows())
			mock.ExpectQuery(overlapQuery).WillReturnRows(freeRows())
			mock.ExpectQuery(forShareQuery).WillReturnRows(sqlmock.NewRows([]string{"id"}))
			mock.ExpectQuery(forShareQuery).WillReturnRows(sqlmock.NewRows([]string{"id"}))
			mock.ExpectExec(insertAppt).WillReturnResult(sqlmock.NewResult(0, 1))
			mock.ExpectExec(insertAppt).WillReturnError(&pq.Error{Code: "23505", Constraint: repository.AppointmentStartConstraint})
			mock.ExpectCommit()
			mock.ExpectRollback()
		},
	}

	for name, expect := range schedules {
		t.Run(name, func(t *testing.T) {
			f := newBookingFixture(t)
			f.mock.MatchExpectationsInOrder(false)
			core, logs := observer.New(zap.InfoLevel)
			f.svc.logger = zap.New(core)
			expect(f.mock)

			patients := []string{"Jane Doe", "John Roe"}
			errs := make([]error, len(patients))
			ready := make(chan struct{})
			var wg sync.WaitGroup
			for i, patient := range patients {
				wg.Add(1)
				go func(i int, patient string) {
					defer wg.Done()
					req := bookRequest(1, "2025-10-27T11:00:00Z")
					req.PatientName = patient
					<-ready
					_, errs[i] = f.svc.Book(context.Background(), req)
				}(i, patient)
			}
			close(ready)
			wg.Wait()

			var booked, alreadyBooked int
			for _, err := range errs {
				switch {
				case err == nil:
					booked++
				case appErrors.FromError(err).Code == appErrors.ErrSlotAlreadyBooked.Code:
					alreadyBooked++
				default:
					t.Errorf("unexpected error: %v", err)
				}
			}
			assert.Equal(t, 1, booked)
			assert.Equal(t, 1, alreadyBooked)
			assert.Len(t, f.publisher.events, 1)
			assert.Equal(t, 1, logs.FilterMessage("booking conflict").Len())
			assert.NoError(t, f.mock.ExpectationsWereMet())
		})
	}
}

func TestBookRecordsTransactionDuration(t *testing.T) {
	f := newBookingFixture(t)
	metrics := NewMetricsService()
	f.svc.metrics = metrics
	expectFreeSlot(f.mock)
	f.mock.ExpectExec(insertAppt).WillReturnResult(sqlmock.NewResult(0, 1))
	f.mock.ExpectCommit()

	_, err := f.svc.Book(context.Background(), bookRequest(1, "2025-10-27T15:00:00Z"))
	require.NoError(t, err)
	assert.Equal(t, 1, testutil.CollectAndCount(metrics.dbQueryDuration, "db_query_duration_seconds"))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.bookings.WithLabelValues(BookingOutcomeBooked)))
}

func TestBookInsertFailureIsInternal(t *testing.T) {
	f := newBookingFixture(t)
	expectFreeSlot(f.mock)
	f.mock.ExpectExec(insertAppt).WillReturnError(errors.New("disk full"))
	f.mock.ExpectRollback()

	_, err := f.svc.Book(context.Background(), bookRequest(1, "2025-10-27T12:00:00Z"))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInternal.Code, appErrors.FromError(err).Code)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestBookSideEffectFailuresDoNotSurface(t *testing.T) {
	f := newBookingFixture(t)
	f.publisher.panics = true
	expectFreeSlot(f.mock)
	f.mock.ExpectExec(insertAppt).WillReturnResult(sqlmock.NewResult(0, 1))
	f.mock.ExpectCommit()

	appt, err := f.svc.Book(context.Background(), bookRequest(1, "2025-10-27T13:00:00Z"))
	require.NoError(t, err)
	assert.NotNil(t, appt)

	f2 := newBookingFixture(t)
	f2.notifier.err = errors.New("queue full")
	expectFreeSlot(f2.mock)
	f2.mock.ExpectExec(insertAppt).WillReturnResult(sqlmock.NewResult(0, 1))
	f2.mock.ExpectCommit()

	appt, err = f2.svc.Book(context.Background(), bookRequest(1, "2025-10-27T13:00:00Z"))
	require.NoError(t, err)
	assert.NotNil(t, appt)
	assert.Len(t, f2.publisher.events, 1)
}

func TestBookSanitisesPatientFields(t *testing.T) {
	f := newBookingFixture(t)
	expectFreeSlot(f.mock)
	f.mock.ExpectExec(insertAppt).WillReturnResult(sqlmock.NewResult(0, 1))
	f.mock.ExpectCommit()

	req := bookRequest(1, "2025-10-27T14:00:00Z")
	req.PatientName = "  <b>Jane</b> Doe\x07 "
	req.PatientEmail = " jane@example.com "
	reason := "<script>alert(1)</script>checkup"
	req.Reason = &reason

	appt, err := f.svc.Book(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", appt.PatientName)
	assert.Equal(t, "jane@example.com", appt.PatientEmail)
	require.NotNil(t, appt.Reason)
	assert.Equal(t, "alert(1)checkup", *appt.Reason)
}

func TestBookingOutcomeLabels(t *testing.T) {
	assert.Equal(t, BookingOutcomeBooked, bookingOutcome(nil))
	assert.Equal(t, BookingOutcomeAlreadyBooked, bookingOutcome(appErrors.ErrSlotAlreadyBooked))
	assert.Equal(t, BookingOutcomeUnavailable, bookingOutcome(appErrors.ErrSlotUnavailable))
	assert.Equal(t, BookingOutcomeNoDoctor, bookingOutcome(appErrors.ErrNoDoctorAvailable))
	assert.Equal(t, BookingOutcomeRejected, bookingOutcome(appErrors.ErrWeekendBlocked))
	assert.Equal(t, BookingOutcomeError, bookingOutcome(errors.New("boom")))
}
