package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/doctor-booking-api/internal/models"
)

// WorkingRuleRepository stores recurring weekly working windows.
type WorkingRuleRepository struct {
	db *sqlx.DB
}

// NewWorkingRuleRepository constructs a WorkingRuleRepository.
func NewWorkingRuleRepository(db *sqlx.DB) *WorkingRuleRepository {
	return &WorkingRuleRepository{db: db}
}

func (r *WorkingRuleRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// ListByDoctor returns all rules of a doctor ordered by weekday then rule id.
func (r *WorkingRuleRepository) ListByDoctor(ctx context.Context, doctorID int64) ([]models.WorkingRule, error) {
	const query = `SELECT id, doctor_id, weekday, to_char(start_time, 'HH24:MI:SS') AS start_time, to_char(end_time, 'HH24:MI:SS') AS end_time
FROM working_rules WHERE doctor_id = $1 ORDER BY weekday ASC, id ASC`
	rules := []models.WorkingRule{}
	if err := r.db.SelectContext(ctx, &rules, query, doctorID); err != nil {
		return nil, fmt.Errorf("list working rules: %w", err)
	}
	return rules, nil
}

// ReplaceWeekdays deletes the doctor's rules on the given weekdays and inserts the new set.
// Run it inside a transaction so readers never observe a half-replaced day.
func (r *WorkingRuleRepository) ReplaceWeekdays(ctx context.Context, exec sqlx.ExtContext, doctorID int64, weekdays []int, rules []models.WorkingRule) ([]models.WorkingRule, error) {
	target := r.exec(exec)

	const deleteQuery = `DELETE FROM working_rules WHERE doctor_id = $1 AND weekday = ANY($2)`
	days := make([]int64, len(weekdays))
	for i, d := range weekdays {
		days[i] = int64(d)
	}
	if _, err := target.ExecContext(ctx, deleteQuery, doctorID, pq.Array(days)); err != nil {
		return nil, fmt.Errorf("delete working rules: %w", err)
	}

	const insertQuery = `INSERT INTO working_rules (doctor_id, weekday, start_time, end_time)
VALUES ($1, $2, $3, $4) RETURNING id`
	stored := make([]models.WorkingRule, 0, len(rules))
	for _, rule := range rules {
		rule.DoctorID = doctorID
		if err := sqlx.GetContext(ctx, target, &rule.ID, insertQuery, doctorID, rule.Weekday, rule.StartTime, rule.EndTime); err != nil {
			return nil, fmt.Errorf("insert working rule: %w", err)
		}
		stored = append(stored, rule)
	}
	return stored, nil
}
