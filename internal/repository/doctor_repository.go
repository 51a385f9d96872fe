package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/doctor-booking-api/internal/models"
)

const doctorColumns = `d.id, d.name, d.email, d.password_hash, d.specialty_id, s.name AS specialty_name, d.created_at`

// DoctorRepository manages persistence for doctors and specialties.
type DoctorRepository struct {
	db *sqlx.DB
}

// NewDoctorRepository constructs a DoctorRepository.
func NewDoctorRepository(db *sqlx.DB) *DoctorRepository {
	return &DoctorRepository{db: db}
}

// FindByID fetches a doctor with its specialty name. Returns sql.ErrNoRows when absent.
func (r *DoctorRepository) FindByID(ctx context.Context, id int64) (*models.Doctor, error) {
	query := `SELECT ` + doctorColumns + ` FROM doctors d LEFT JOIN specialties s ON s.id = d.specialty_id WHERE d.id = $1`
	var doctor models.Doctor
	if err := r.db.GetContext(ctx, &doctor, query, id); err != nil {
		return nil, err
	}
	return &doctor, nil
}

// FindByEmail looks up a doctor by login email (case-insensitive).
func (r *DoctorRepository) FindByEmail(ctx context.Context, email string) (*models.Doctor, error) {
	query := `SELECT ` + doctorColumns + ` FROM doctors d LEFT JOIN specialties s ON s.id = d.specialty_id WHERE LOWER(d.email) = LOWER($1)`
	var doctor models.Doctor
	if err := r.db.GetContext(ctx, &doctor, query, email); err != nil {
		return nil, err
	}
	return &doctor, nil
}

// Create inserts a doctor and fills in the generated id and timestamp.
func (r *DoctorRepository) Create(ctx context.Context, doctor *models.Doctor) error {
	const query = `INSERT INTO doctors (name, email, password_hash, specialty_id)
VALUES ($1, $2, $3, $4) RETURNING id, created_at`
	row := r.db.QueryRowxContext(ctx, query, doctor.Name, strings.ToLower(doctor.Email), doctor.PasswordHash, doctor.SpecialtyID)
	if err := row.Scan(&doctor.ID, &doctor.CreatedAt); err != nil {
		return fmt.Errorf("create doctor: %w", err)
	}
	doctor.Email = strings.ToLower(doctor.Email)
	return nil
}

// ListIDs returns every doctor id in ascending order. This is the roster order of
// any-doctor availability.
func (r *DoctorRepository) ListIDs(ctx context.Context) ([]int64, error) {
	const query = `SELECT id FROM doctors ORDER BY id ASC`
	var ids []int64
	if err := r.db.SelectContext(ctx, &ids, query); err != nil {
		return nil, fmt.Errorf("list doctor ids: %w", err)
	}
	return ids, nil
}

// Search filters the directory by partial name and specialty, ordered by name.
func (r *DoctorRepository) Search(ctx context.Context, filter models.DoctorFilter) ([]models.Doctor, error) {
	args := []interface{}{}
	conditions := []string{"1=1"}

	if search := strings.TrimSpace(filter.Search); search != "" {
		conditions = append(conditions, fmt.Sprintf("d.name ILIKE $%d", len(args)+1))
		args = append(args, "%"+escapeLike(search)+"%")
	}
	if filter.SpecialtyID != nil {
		conditions = append(conditions, fmt.Sprintf("d.specialty_id = $%d", len(args)+1))
		args = append(args, *filter.SpecialtyID)
	}

	query := fmt.Sprintf(`SELECT %s FROM doctors d LEFT JOIN specialties s ON s.id = d.specialty_id WHERE %s ORDER BY d.name ASC, d.id ASC`,
		doctorColumns, strings.Join(conditions, " AND "))

	var doctors []models.Doctor
	if err := r.db.SelectContext(ctx, &doctors, query, args...); err != nil {
		return nil, fmt.Errorf("search doctors: %w", err)
	}
	return doctors, nil
}

// ListSpecialties returns all specialties ordered by name.
func (r *DoctorRepository) ListSpecialties(ctx context.Context) ([]models.Specialty, error) {
	const query = `SELECT id, name FROM specialties ORDER BY name ASC`
	var specialties []models.Specialty
	if err := r.db.SelectContext(ctx, &specialties, query); err != nil {
		return nil, fmt.Errorf("list specialties: %w", err)
	}
	return specialties, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
