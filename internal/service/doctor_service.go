package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/doctor-booking-api/internal/dto"
	"github.com/noah-isme/doctor-booking-api/internal/models"
	appErrors "github.com/noah-isme/doctor-booking-api/pkg/errors"
	"github.com/noah-isme/doctor-booking-api/pkg/timeutil"
)

type doctorDirectory interface {
	FindByID(ctx context.Context, id int64) (*models.Doctor, error)
	Search(ctx context.Context, filter models.DoctorFilter) ([]models.Doctor, error)
	ListSpecialties(ctx context.Context) ([]models.Specialty, error)
}

type appointmentRangeReader interface {
	ListRange(ctx context.Context, doctorID int64, from, to time.Time) ([]models.Appointment, error)
}

// DoctorService serves the doctor dashboard and the public directory.
type DoctorService struct {
	doctors      doctorDirectory
	appointments appointmentRangeReader
	logger       *zap.Logger
}

// NewDoctorService constructs a DoctorService.
func NewDoctorService(doctors doctorDirectory, appointments appointmentRangeReader, logger *zap.Logger) *DoctorService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DoctorService{doctors: doctors, appointments: appointments, logger: logger}
}

// Me returns the profile of the authenticated doctor.
func (s *DoctorService) Me(ctx context.Context, doctorID int64) (*models.DoctorInfo, error) {
	doctor, err := s.doctors.FindByID(ctx, doctorID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "doctor not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load doctor")
	}
	info := doctor.Info()
	return &info, nil
}

// AppointmentsToday lists the doctor's appointments on the UTC calendar day containing at.
func (s *DoctorService) AppointmentsToday(ctx context.Context, doctorID int64, at time.Time) ([]models.Appointment, error) {
	day := timeutil.MidnightUTC(at)
	return s.AppointmentsRange(ctx, doctorID, day, day.AddDate(0, 0, 1))
}

// AppointmentsRange lists the doctor's appointments starting in [from, to).
func (s *DoctorService) AppointmentsRange(ctx context.Context, doctorID int64, from, to time.Time) ([]models.Appointment, error) {
	if !from.Before(to) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "from must be before to")
	}
	items, err := s.appointments.ListRange(ctx, doctorID, from, to)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list appointments")
	}
	return items, nil
}

// Search filters the public directory by case-insensitive name fragment and specialty.
func (s *DoctorService) Search(ctx context.Context, query dto.DoctorSearchQuery) ([]models.DoctorInfo, error) {
	doctors, err := s.doctors.Search(ctx, models.DoctorFilter{
		Search:      strings.TrimSpace(query.Search),
		SpecialtyID: query.SpecialtyID,
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to search doctors")
	}
	result := make([]models.DoctorInfo, 0, len(doctors))
	for _, d := range doctors {
		result = append(result, d.Info())
	}
	return result, nil
}

// Specialties lists every specialty.
func (s *DoctorService) Specialties(ctx context.Context) ([]models.Specialty, error) {
	items, err := s.doctors.ListSpecialties(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list specialties")
	}
	return items, nil
}
