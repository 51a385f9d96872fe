package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/doctor-booking-api/internal/models"
	"github.com/noah-isme/doctor-booking-api/pkg/jobs"
	"github.com/noah-isme/doctor-booking-api/pkg/notify"
)

const notificationJobType = "booking.notification"

type doctorFinder interface {
	FindByID(ctx context.Context, id int64) (*models.Doctor, error)
}

// NotificationConfig controls which channels are used after a booking.
type NotificationConfig struct {
	Enabled    bool
	SMSEnabled bool
	Workers    int
	Retries    int
	RetryDelay time.Duration
}

// NotificationService queues booking confirmations and delivers them on background workers.
// Enqueueing never blocks the booking request.
type NotificationService struct {
	queue   *jobs.Queue
	email   notify.EmailSender
	sms     notify.SMSSender
	doctors doctorFinder
	metrics *MetricsService
	logger  *zap.Logger
	cfg     NotificationConfig
}

// NewNotificationService wires senders to a worker queue. Call Start before use.
func NewNotificationService(email notify.EmailSender, sms notify.SMSSender, doctors doctorFinder, metrics *MetricsService, cfg NotificationConfig, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if email == nil {
		email = notify.NewLogEmailSender(logger)
	}
	if sms == nil {
		sms = notify.NewLogSMSSender(logger)
	}
	s := &NotificationService{
		email:   email,
		sms:     sms,
		doctors: doctors,
		metrics: metrics,
		logger:  logger,
		cfg:     cfg,
	}
	s.queue = jobs.NewQueue("notifications", s.handle, jobs.QueueConfig{
		Workers:    cfg.Workers,
		MaxRetries: cfg.Retries,
		RetryDelay: cfg.RetryDelay,
		Logger:     logger,
		OnResult:   s.recordResult,
	})
	return s
}

// Start launches the delivery workers.
func (s *NotificationService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop halts the workers; undelivered messages are dropped.
func (s *NotificationService) Stop() {
	s.queue.Stop()
}

// BookingConfirmed queues an email and, when enabled, an SMS for the patient.
func (s *NotificationService) BookingConfirmed(ctx context.Context, appt models.Appointment) error {
	if !s.cfg.Enabled {
		return nil
	}
	base := models.BookingNotification{
		AppointmentID: appt.ID,
		DoctorID:      appt.DoctorID,
		PatientName:   appt.PatientName,
		PatientEmail:  appt.PatientEmail,
		PatientPhone:  appt.PatientPhone,
		StartAt:       appt.StartAt,
		EndAt:         appt.EndAt,
	}

	channels := []models.NotificationChannel{models.ChannelEmail}
	if s.cfg.SMSEnabled {
		channels = append(channels, models.ChannelSMS)
	}
	for _, channel := range channels {
		payload := base
		payload.Channel = channel
		if err := s.queue.Enqueue(jobs.Job{Type: notificationJobType, Payload: payload}); err != nil {
			s.metrics.RecordNotification(string(channel), "dropped")
			return fmt.Errorf("enqueue %s notification: %w", channel, err)
		}
	}
	return nil
}

func (s *NotificationService) handle(ctx context.Context, job jobs.Job) error {
	payload, ok := job.Payload.(models.BookingNotification)
	if !ok {
		return fmt.Errorf("unexpected notification payload %T", job.Payload)
	}
	if payload.DoctorName == "" {
		payload.DoctorName = s.doctorName(ctx, payload.DoctorID)
	}

	switch payload.Channel {
	case models.ChannelEmail:
		return s.email.Send(ctx, bookingEmail(payload))
	case models.ChannelSMS:
		return s.sms.Send(ctx, notify.SMSMessage{To: payload.PatientPhone, Body: bookingText(payload)})
	default:
		return fmt.Errorf("unknown notification channel %q", payload.Channel)
	}
}

func (s *NotificationService) doctorName(ctx context.Context, doctorID int64) string {
	if s.doctors == nil {
		return ""
	}
	doctor, err := s.doctors.FindByID(ctx, doctorID)
	if err != nil {
		s.logger.Debug("doctor lookup for notification failed", zap.Int64("doctor_id", doctorID), zap.Error(err))
		return ""
	}
	return doctor.Name
}

func (s *NotificationService) recordResult(job jobs.Job, err error) {
	channel := "unknown"
	if payload, ok := job.Payload.(models.BookingNotification); ok {
		channel = string(payload.Channel)
	}
	outcome := "sent"
	if err != nil {
		outcome = "failed"
		s.logger.Warn("booking notification failed", zap.String("job_id", job.ID), zap.String("channel", channel), zap.Error(err))
	}
	s.metrics.RecordNotification(channel, outcome)
}

func bookingText(n models.BookingNotification) string {
	with := "your doctor"
	if n.DoctorName != "" {
		with = n.DoctorName
	}
	return fmt.Sprintf("Hi %s, your appointment with %s is confirmed for %s UTC.", n.PatientName, with, n.StartAt.UTC().Format("Mon 02 Jan 2006 15:04"))
}

func bookingEmail(n models.BookingNotification) notify.EmailMessage {
	return notify.EmailMessage{
		To:      n.PatientEmail,
		ToName:  n.PatientName,
		Subject: "Your appointment is confirmed",
		Body: bookingText(n) + fmt.Sprintf("\n\nTime: %s - %s UTC\nReference: %s\n",
			n.StartAt.UTC().Format("15:04"), n.EndAt.UTC().Format("15:04"), n.AppointmentID),
	}
}
