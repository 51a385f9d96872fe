package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/doctor-booking-api/internal/models"
	appErrors "github.com/noah-isme/doctor-booking-api/pkg/errors"
	"github.com/noah-isme/doctor-booking-api/pkg/export"
	"github.com/noah-isme/doctor-booking-api/pkg/timeutil"
)

var appointmentExportHeaders = []string{"Start (UTC)", "End (UTC)", "Patient", "Email", "Phone", "Reason", "Booked At"}

// ExportFile is a rendered document ready to be sent as an attachment.
type ExportFile struct {
	Filename    string
	ContentType string
	Body        []byte
	Rows        int
}

// ExportService renders a doctor's appointment list as CSV or PDF.
type ExportService struct {
	appointments appointmentRangeReader
	logger       *zap.Logger
	now          func() time.Time
}

// NewExportService constructs an ExportService.
func NewExportService(appointments appointmentRangeReader, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		appointments: appointments,
		logger:       logger,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// ExportAppointments renders appointments starting in [from, to). An empty format means CSV.
func (s *ExportService) ExportAppointments(ctx context.Context, doctorID int64, from, to time.Time, format export.Format) (*ExportFile, error) {
	if !from.Before(to) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "from must be before to")
	}
	renderer, err := export.For(format)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "unsupported export format")
	}

	items, err := s.appointments.ListRange(ctx, doctorID, from, to)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list appointments")
	}

	dataset := buildAppointmentDataset(items, from, to)
	body, err := renderer.Render(dataset)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}

	s.logger.Debug("appointments exported",
		zap.Int64("doctor_id", doctorID),
		zap.String("format", renderer.Extension()),
		zap.Int("rows", len(items)),
	)
	return &ExportFile{
		Filename:    s.buildFilename(doctorID, from, to, renderer.Extension()),
		ContentType: renderer.ContentType(),
		Body:        body,
		Rows:        len(items),
	}, nil
}

func (s *ExportService) buildFilename(doctorID int64, from, to time.Time, ext string) string {
	stamp := s.now().Format("20060102_150405")
	return fmt.Sprintf("appointments_%d_%s_%s_%s.%s", doctorID, from.UTC().Format(timeutil.DateLayout), to.UTC().Format(timeutil.DateLayout), stamp, ext)
}

func buildAppointmentDataset(items []models.Appointment, from, to time.Time) export.Dataset {
	rows := make([][]string, 0, len(items))
	for _, a := range items {
		rows = append(rows, []string{
			a.StartAt.UTC().Format(time.RFC3339),
			a.EndAt.UTC().Format(time.RFC3339),
			a.PatientName,
			a.PatientEmail,
			a.PatientPhone,
			strings.TrimSpace(deref(a.Reason)),
			a.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	return export.Dataset{
		Title:   fmt.Sprintf("Appointments %s to %s", from.UTC().Format(timeutil.DateLayout), to.UTC().Format(timeutil.DateLayout)),
		Headers: appointmentExportHeaders,
		Rows:    rows,
	}
}

func deref(ptr *string) string {
	if ptr == nil {
		return ""
	}
	return *ptr
}
