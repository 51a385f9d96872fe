package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/doctor-booking-api/internal/models"
)

// UnavailabilityRepository stores blocked intervals on doctors' calendars.
type UnavailabilityRepository struct {
	db *sqlx.DB
}

// NewUnavailabilityRepository constructs an UnavailabilityRepository.
func NewUnavailabilityRepository(db *sqlx.DB) *UnavailabilityRepository {
	return &UnavailabilityRepository{db: db}
}

func (r *UnavailabilityRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// ListOverlapping returns intervals of a doctor intersecting [from, to), ordered by start.
func (r *UnavailabilityRepository) ListOverlapping(ctx context.Context, doctorID int64, from, to time.Time) ([]models.Unavailability, error) {
	const query = `SELECT id, doctor_id, start_at, end_at, reason FROM unavailabilities
WHERE doctor_id = $1 AND start_at < $3 AND end_at > $2 ORDER BY start_at ASC, id ASC`
	items := []models.Unavailability{}
	if err := r.db.SelectContext(ctx, &items, query, doctorID, from.UTC(), to.UTC()); err != nil {
		return nil, fmt.Errorf("list unavailability: %w", err)
	}
	return items, nil
}

// HasOverlap reports whether any interval of the doctor intersects [start, end).
func (r *UnavailabilityRepository) HasOverlap(ctx context.Context, exec sqlx.ExtContext, doctorID int64, start, end time.Time) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM unavailabilities WHERE doctor_id = $1 AND start_at < $3 AND end_at > $2)`
	var exists bool
	if err := sqlx.GetContext(ctx, r.exec(exec), &exists, query, doctorID, start.UTC(), end.UTC()); err != nil {
		return false, fmt.Errorf("check unavailability overlap: %w", err)
	}
	return exists, nil
}

// Create inserts an interval and fills in its id.
func (r *UnavailabilityRepository) Create(ctx context.Context, item *models.Unavailability) error {
	const query = `INSERT INTO unavailabilities (doctor_id, start_at, end_at, reason) VALUES ($1, $2, $3, $4) RETURNING id`
	if err := r.db.GetContext(ctx, &item.ID, query, item.DoctorID, item.StartAt.UTC(), item.EndAt.UTC(), item.Reason); err != nil {
		return fmt.Errorf("create unavailability: %w", err)
	}
	return nil
}

// Delete removes an interval owned by doctorID and reports whether a row was removed.
func (r *UnavailabilityRepository) Delete(ctx context.Context, id, doctorID int64) (bool, error) {
	const query = `DELETE FROM unavailabilities WHERE id = $1 AND doctor_id = $2`
	res, err := r.db.ExecContext(ctx, query, id, doctorID)
	if err != nil {
		return false, fmt.Errorf("delete unavailability: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete unavailability rows affected: %w", err)
	}
	return affected > 0, nil
}
