package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/doctor-booking-api/internal/dto"
	"github.com/noah-isme/doctor-booking-api/internal/models"
	appErrors "github.com/noah-isme/doctor-booking-api/pkg/errors"
)

type doctorDirectoryStub struct {
	doctors     map[int64]models.Doctor
	specialties []models.Specialty
	lastFilter  models.DoctorFilter
	err         error
}

func (s *doctorDirectoryStub) FindByID(ctx context.Context, id int64) (*models.Doctor, error) {
	if s.err != nil {
		return nil, s.err
	}
	d, ok := s.doctors[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &d, nil
}

func (s *doctorDirectoryStub) Search(ctx context.Context, filter models.DoctorFilter) ([]models.Doctor, error) {
	s.lastFilter = filter
	if s.err != nil {
		return nil, s.err
	}
	out := make([]models.Doctor, 0, len(s.doctors))
	for id := int64(1); id <= int64(len(s.doctors)); id++ {
		out = append(out, s.doctors[id])
	}
	return out, nil
}

func (s *doctorDirectoryStub) ListSpecialties(ctx context.Context) ([]models.Specialty, error) {
	return s.specialties, s.err
}

func newDoctorDirectoryStub() *doctorDirectoryStub {
	cardiology := "Cardiology"
	specialtyID := int64(2)
	return &doctorDirectoryStub{
		doctors: map[int64]models.Doctor{
			1: {ID: 1, Name: "Dr. Alice", Email: "alice@clinic.local", PasswordHash: "hash", SpecialtyID: &specialtyID, SpecialtyName: &cardiology},
			2: {ID: 2, Name: "Dr. Bob", Email: "bob@clinic.local", PasswordHash: "hash"},
		},
		specialties: []models.Specialty{{ID: 1, Name: "General"}, {ID: 2, Name: "Cardiology"}},
	}
}

func TestDoctorMe(t *testing.T) {
	svc := NewDoctorService(newDoctorDirectoryStub(), &appointmentRangeStub{}, nil)

	info, err := svc.Me(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "Dr. Alice", info.Name)
	require.NotNil(t, info.Specialty)
	assert.Equal(t, "Cardiology", *info.Specialty)

	_, err = svc.Me(context.Background(), 99)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestDoctorAppointmentsTodayUsesUTCDay(t *testing.T) {
	stub := &appointmentRangeStub{items: sampleAppointments()}
	svc := NewDoctorService(newDoctorDirectoryStub(), stub, nil)

	items, err := svc.AppointmentsToday(context.Background(), 1, at(monday, 15, 45))
	require.NoError(t, err)
	assert.Len(t, items, 2)
	assert.Equal(t, monday, stub.from)
	assert.Equal(t, monday.AddDate(0, 0, 1), stub.to)
}

func TestDoctorAppointmentsRangeValidation(t *testing.T) {
	stub := &appointmentRangeStub{}
	svc := NewDoctorService(newDoctorDirectoryStub(), stub, nil)

	_, err := svc.AppointmentsRange(context.Background(), 1, monday.Add(time.Hour), monday)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.False(t, stub.queried)

	stub.err = errors.New("timeout")
	_, err = svc.AppointmentsRange(context.Background(), 1, monday, monday.Add(time.Hour))
	assert.Equal(t, appErrors.ErrInternal.Code, appErrors.FromError(err).Code)
}

func TestDoctorSearchStripsCredentials(t *testing.T) {
	dir := newDoctorDirectoryStub()
	svc := NewDoctorService(dir, &appointmentRangeStub{}, nil)
	specialty := int64(2)

	result, err := svc.Search(context.Background(), dto.DoctorSearchQuery{Search: "  ali ", SpecialtyID: &specialty})
	require.NoError(t, err)
	assert.Equal(t, "ali", dir.lastFilter.Search)
	assert.Equal(t, &specialty, dir.lastFilter.SpecialtyID)
	require.Len(t, result, 2)
	assert.Equal(t, int64(1), result[0].ID)
	assert.Nil(t, result[1].Specialty)
}

func TestDoctorSpecialties(t *testing.T) {
	dir := newDoctorDirectoryStub()
	svc := NewDoctorService(dir, &appointmentRangeStub{}, nil)

	items, err := svc.Specialties(context.Background())
	require.NoError(t, err)
	assert.Len(t, items, 2)

	dir.err = errors.New("boom")
	_, err = svc.Specialties(context.Background())
	assert.Equal(t, appErrors.ErrInternal.Code, appErrors.FromError(err).Code)
}
