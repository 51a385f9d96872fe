package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/doctor-booking-api/internal/models"
)

// AppointmentStartConstraint is the unique index guarding (doctor_id, start_at).
const AppointmentStartConstraint = "appointments_doctor_start_uq"

const appointmentColumns = `id, doctor_id, patient_name, patient_email, patient_phone, reason, start_at, end_at, created_ip, created_at`

// AppointmentRepository persists booked appointments.
type AppointmentRepository struct {
	db *sqlx.DB
}

// NewAppointmentRepository constructs an AppointmentRepository.
func NewAppointmentRepository(db *sqlx.DB) *AppointmentRepository {
	return &AppointmentRepository{db: db}
}

func (r *AppointmentRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// ListStartsBetween returns the start instants of a doctor's appointments in [from, to).
func (r *AppointmentRepository) ListStartsBetween(ctx context.Context, doctorID int64, from, to time.Time) ([]time.Time, error) {
	const query = `SELECT start_at FROM appointments WHERE doctor_id = $1 AND start_at >= $2 AND start_at < $3 ORDER BY start_at ASC`
	starts := []time.Time{}
	if err := r.db.SelectContext(ctx, &starts, query, doctorID, from.UTC(), to.UTC()); err != nil {
		return nil, fmt.Errorf("list appointment starts: %w", err)
	}
	return starts, nil
}

// ExistsAtForShare checks for an appointment at exactly start and takes a FOR SHARE row lock on
// it. Must run inside the booking transaction.
func (r *AppointmentRepository) ExistsAtForShare(ctx context.Context, exec sqlx.ExtContext, doctorID int64, start time.Time) (bool, error) {
	const query = `SELECT id FROM appointments WHERE doctor_id = $1 AND start_at = $2 LIMIT 1 FOR SHARE`
	var id string
	if err := sqlx.GetContext(ctx, r.exec(exec), &id, query, doctorID, start.UTC()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("check appointment slot: %w", err)
	}
	return true, nil
}

// Insert stores a new appointment. A unique violation on AppointmentStartConstraint is returned
// wrapped so callers can map it to a booking conflict.
func (r *AppointmentRepository) Insert(ctx context.Context, exec sqlx.ExtContext, appt *models.Appointment) error {
	if appt.ID == "" {
		appt.ID = uuid.NewString()
	}
	if appt.CreatedAt.IsZero() {
		appt.CreatedAt = time.Now().UTC()
	}
	appt.StartAt = appt.StartAt.UTC()
	appt.EndAt = appt.EndAt.UTC()

	const query = `INSERT INTO appointments (` + appointmentColumns + `)
VALUES (:id, :doctor_id, :patient_name, :patient_email, :patient_phone, :reason, :start_at, :end_at, :created_ip, :created_at)`
	if _, err := sqlx.NamedExecContext(ctx, r.exec(exec), query, appt); err != nil {
		return fmt.Errorf("insert appointment: %w", err)
	}
	return nil
}

// ListRange returns a doctor's appointments starting in [from, to), ordered by start.
func (r *AppointmentRepository) ListRange(ctx context.Context, doctorID int64, from, to time.Time) ([]models.Appointment, error) {
	const query = `SELECT ` + appointmentColumns + ` FROM appointments
WHERE doctor_id = $1 AND start_at >= $2 AND start_at < $3 ORDER BY start_at ASC`
	items := []models.Appointment{}
	if err := r.db.SelectContext(ctx, &items, query, doctorID, from.UTC(), to.UTC()); err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	return items, nil
}
