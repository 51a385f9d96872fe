package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/noah-isme/doctor-booking-api/internal/dto"
	"github.com/noah-isme/doctor-booking-api/internal/models"
	"github.com/noah-isme/doctor-booking-api/internal/repository"
	"github.com/noah-isme/doctor-booking-api/pkg/database"
	appErrors "github.com/noah-isme/doctor-booking-api/pkg/errors"
	"github.com/noah-isme/doctor-booking-api/pkg/sanitize"
	"github.com/noah-isme/doctor-booking-api/pkg/timeutil"
)

var bookingTracer = otel.Tracer("doctor-booking.internal.service.booking")

type txProvider interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

type bookingUnavailabilityChecker interface {
	HasOverlap(ctx context.Context, exec sqlx.ExtContext, doctorID int64, start, end time.Time) (bool, error)
}

type bookingAppointmentWriter interface {
	ExistsAtForShare(ctx context.Context, exec sqlx.ExtContext, doctorID int64, start time.Time) (bool, error)
	Insert(ctx context.Context, exec sqlx.ExtContext, appt *models.Appointment) error
}

type realtimePublisher interface {
	PublishDoctorEvent(doctorID int64, eventType models.RealtimeEventType, payload interface{})
}

type bookingNotifier interface {
	BookingConfirmed(ctx context.Context, appt models.Appointment) error
}

// BookingConfig controls the any-doctor search horizon.
type BookingConfig struct {
	AnyWindowDays int
}

// BookingService commits appointments. Availability is only an estimate; the transaction
// re-checks blocked intervals, locks any existing booking at the same start and relies on the
// unique (doctor_id, start_at) index as the final arbiter.
type BookingService struct {
	tx             txProvider
	availability   *AvailabilityService
	unavailability bookingUnavailabilityChecker
	appointments   bookingAppointmentWriter
	publisher      realtimePublisher
	notifier       bookingNotifier
	metrics        *MetricsService
	validator      *validator.Validate
	logger         *zap.Logger
	cfg            BookingConfig
	clock          func() time.Time
}

// NewBookingService constructs a BookingService. publisher and notifier are optional.
func NewBookingService(tx txProvider, availability *AvailabilityService, unavailability bookingUnavailabilityChecker, appointments bookingAppointmentWriter, publisher realtimePublisher, notifier bookingNotifier, metrics *MetricsService, validate *validator.Validate, cfg BookingConfig, logger *zap.Logger) *BookingService {
	if validate == nil {
		validate = dto.NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.AnyWindowDays <= 0 {
		cfg.AnyWindowDays = 14
	}
	if limit := availability.MaxWindowDays(); cfg.AnyWindowDays > limit {
		logger.Warn("any-doctor window exceeds availability limit, clamping",
			zap.Int("configured_days", cfg.AnyWindowDays), zap.Int("max_days", limit))
		cfg.AnyWindowDays = limit
	}
	return &BookingService{
		tx:             tx,
		availability:   availability,
		unavailability: unavailability,
		appointments:   appointments,
		publisher:      publisher,
		notifier:       notifier,
		metrics:        metrics,
		validator:      validate,
		logger:         logger,
		cfg:            cfg,
		clock:          func() time.Time { return time.Now().UTC() },
	}
}

// Book validates the request, resolves the doctor and commits the appointment.
func (s *BookingService) Book(ctx context.Context, req dto.BookRequest) (appt *models.Appointment, err error) {
	started := time.Now()
	defer func() {
		s.metrics.RecordBooking(bookingOutcome(err), time.Since(started))
		if appErrors.IsConflict(err) {
			s.logger.Info("booking conflict",
				zap.String("code", appErrors.FromError(err).Code),
				zap.String("start_at", req.StartAt),
				zap.Bool("any", req.Any),
			)
		}
	}()

	req = sanitizeBookRequest(req)
	if err := s.validator.Struct(req); err != nil {
		return nil, dto.ValidationError(err, "invalid booking payload")
	}

	start, err := timeutil.ParseInstant(req.StartAt)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid start_at")
	}
	if timeutil.IsWeekendUTC(start) {
		return nil, appErrors.Clone(appErrors.ErrWeekendBlocked, "bookings are not accepted on weekends")
	}

	doctorID, err := s.resolveDoctor(ctx, req, start)
	if err != nil {
		return nil, err
	}

	appt = &models.Appointment{
		DoctorID:     doctorID,
		PatientName:  req.PatientName,
		PatientEmail: req.PatientEmail,
		PatientPhone: req.PatientPhone,
		Reason:       req.Reason,
		StartAt:      start,
		EndAt:        start.Add(s.availability.SlotLength()),
	}
	if req.CreatedIP != "" {
		ip := req.CreatedIP
		appt.CreatedIP = &ip
	}

	if err := s.commit(ctx, appt); err != nil {
		return nil, err
	}

	s.afterCommit(ctx, *appt)
	return appt, nil
}

func (s *BookingService) resolveDoctor(ctx context.Context, req dto.BookRequest, start time.Time) (int64, error) {
	if req.Any {
		slots, err := s.availability.ForAny(ctx, timeutil.MidnightUTC(start), s.cfg.AnyWindowDays, s.clock())
		if err != nil {
			return 0, err
		}
		for _, slot := range slots {
			if slot.Start.Equal(start) {
				return slot.DoctorID, nil
			}
		}
		return 0, appErrors.Clone(appErrors.ErrNoDoctorAvailable, "no doctor is available at the requested time")
	}

	if req.DoctorID == nil {
		return 0, appErrors.Clone(appErrors.ErrDoctorRequired, "doctor_id is required unless any is true")
	}
	offered, err := s.availability.OffersSlot(ctx, *req.DoctorID, start)
	if err != nil {
		return 0, err
	}
	if !offered {
		return 0, appErrors.Clone(appErrors.ErrSlotUnavailable, "requested time is outside the doctor's working hours")
	}
	return *req.DoctorID, nil
}

func (s *BookingService) commit(ctx context.Context, appt *models.Appointment) (err error) {
	ctx, span := bookingTracer.Start(ctx, "booking.commit")
	defer span.End()
	span.SetAttributes(
		attribute.Int64("booking.doctor_id", appt.DoctorID),
		attribute.String("booking.start_at", appt.StartAt.Format(time.RFC3339)),
	)

	txStarted := time.Now()
	defer func() {
		s.metrics.ObserveDBQuery("booking_tx", time.Since(txStarted))
	}()

	tx, err := s.tx.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		span.RecordError(err)
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin booking transaction")
	}
	defer func() {
		if err != nil {
			span.RecordError(err)
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				s.logger.Warn("booking rollback failed", zap.Error(rbErr))
			}
		}
	}()

	blocked, err := s.unavailability.HasOverlap(ctx, tx, appt.DoctorID, appt.StartAt, appt.EndAt)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check unavailability")
	}
	if blocked {
		return appErrors.Clone(appErrors.ErrSlotUnavailable, "doctor is unavailable at the requested time")
	}

	taken, err := s.appointments.ExistsAtForShare(ctx, tx, appt.DoctorID, appt.StartAt)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check existing appointment")
	}
	if taken {
		return appErrors.Clone(appErrors.ErrSlotAlreadyBooked, "slot already booked")
	}

	if err := s.appointments.Insert(ctx, tx, appt); err != nil {
		if database.IsUniqueViolation(err, repository.AppointmentStartConstraint) {
			return appErrors.Clone(appErrors.ErrSlotAlreadyBooked, "slot already booked")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store appointment")
	}

	if err := tx.Commit(); err != nil {
		if database.IsUniqueViolation(err, repository.AppointmentStartConstraint) {
			return appErrors.Clone(appErrors.ErrSlotAlreadyBooked, "slot already booked")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit appointment")
	}
	return nil
}

// afterCommit fans out side effects. Failures are logged; the booking already stands.
func (s *BookingService) afterCommit(ctx context.Context, appt models.Appointment) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("post-booking side effect panicked", zap.Any("panic", r), zap.String("appointment_id", appt.ID))
		}
	}()

	if s.publisher != nil {
		s.publisher.PublishDoctorEvent(appt.DoctorID, models.EventAppointmentBooked, models.AppointmentBookedPayload{
			DoctorID: appt.DoctorID,
			StartAt:  appt.StartAt,
			EndAt:    appt.EndAt,
		})
	}
	if s.notifier != nil {
		if err := s.notifier.BookingConfirmed(context.WithoutCancel(ctx), appt); err != nil {
			s.logger.Warn("booking notification not queued", zap.String("appointment_id", appt.ID), zap.Error(err))
		}
	}

	s.logger.Info("appointment booked",
		zap.String("appointment_id", appt.ID),
		zap.Int64("doctor_id", appt.DoctorID),
		zap.Time("start_at", appt.StartAt),
	)
}

func sanitizeBookRequest(req dto.BookRequest) dto.BookRequest {
	req.PatientName = sanitize.StripHTML(req.PatientName)
	req.PatientEmail = strings.TrimSpace(req.PatientEmail)
	req.PatientPhone = strings.TrimSpace(req.PatientPhone)
	req.Reason = sanitize.StripHTMLPtr(req.Reason)
	req.StartAt = strings.TrimSpace(req.StartAt)
	return req
}

func bookingOutcome(err error) string {
	if err == nil {
		return BookingOutcomeBooked
	}
	var appErr *appErrors.Error
	if !errors.As(err, &appErr) {
		return BookingOutcomeError
	}
	switch appErr.Code {
	case appErrors.ErrSlotAlreadyBooked.Code:
		return BookingOutcomeAlreadyBooked
	case appErrors.ErrSlotUnavailable.Code:
		return BookingOutcomeUnavailable
	case appErrors.ErrNoDoctorAvailable.Code:
		return BookingOutcomeNoDoctor
	case appErrors.ErrInternal.Code:
		return BookingOutcomeError
	default:
		return BookingOutcomeRejected
	}
}
