package service

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/doctor-booking-api/internal/dto"
	"github.com/noah-isme/doctor-booking-api/internal/models"
	appErrors "github.com/noah-isme/doctor-booking-api/pkg/errors"
	"github.com/noah-isme/doctor-booking-api/pkg/sanitize"
	"github.com/noah-isme/doctor-booking-api/pkg/timeutil"
)

type workingRuleStore interface {
	ListByDoctor(ctx context.Context, doctorID int64) ([]models.WorkingRule, error)
	ReplaceWeekdays(ctx context.Context, exec sqlx.ExtContext, doctorID int64, weekdays []int, rules []models.WorkingRule) ([]models.WorkingRule, error)
}

type unavailabilityStore interface {
	ListOverlapping(ctx context.Context, doctorID int64, from, to time.Time) ([]models.Unavailability, error)
	Create(ctx context.Context, item *models.Unavailability) error
	Delete(ctx context.Context, id, doctorID int64) (bool, error)
}

type rulesInvalidator interface {
	InvalidateRules(ctx context.Context, doctorID int64)
}

// ScheduleService manages a doctor's own working rules and blocked intervals. Every method
// takes the acting doctor explicitly; nothing is read from ambient request state.
type ScheduleService struct {
	tx             txProvider
	rules          workingRuleStore
	unavailability unavailabilityStore
	invalidator    rulesInvalidator
	publisher      realtimePublisher
	validator      *validator.Validate
	logger         *zap.Logger
}

// NewScheduleService constructs a ScheduleService. invalidator and publisher are optional.
func NewScheduleService(tx txProvider, rules workingRuleStore, unavailability unavailabilityStore, invalidator rulesInvalidator, publisher realtimePublisher, validate *validator.Validate, logger *zap.Logger) *ScheduleService {
	if validate == nil {
		validate = dto.NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScheduleService{
		tx:             tx,
		rules:          rules,
		unavailability: unavailability,
		invalidator:    invalidator,
		publisher:      publisher,
		validator:      validate,
		logger:         logger,
	}
}

// ListWorkingRules returns the doctor's rules ordered by weekday.
func (s *ScheduleService) ListWorkingRules(ctx context.Context, doctorID int64) ([]models.WorkingRule, error) {
	rules, err := s.rules.ListByDoctor(ctx, doctorID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list working rules")
	}
	return rules, nil
}

// UpsertWorkingRules replaces every rule on each weekday present in the request. Weekdays not
// mentioned keep their rules. The replacement is atomic.
func (s *ScheduleService) UpsertWorkingRules(ctx context.Context, doctorID int64, req dto.UpsertWorkingRulesRequest) (*dto.UpsertWorkingRulesResult, error) {
	for _, in := range req.Rules {
		if in.Weekday == 0 || in.Weekday == 6 {
			return nil, appErrors.Clone(appErrors.ErrWeekendBlocked, "working rules cannot be set on weekends")
		}
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, dto.ValidationError(err, "invalid working rules payload")
	}

	rules := make([]models.WorkingRule, 0, len(req.Rules))
	seen := make(map[int]struct{})
	weekdays := make([]int, 0, 5)
	for _, in := range req.Rules {
		if !timeutil.IsWeekdayIndex(in.Weekday) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "weekday must be between 1 and 5")
		}
		start, err := timeutil.ParseClock(in.StartTime)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid start_time")
		}
		end, err := timeutil.ParseClock(in.EndTime)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid end_time")
		}
		if start >= end {
			return nil, appErrors.Clone(appErrors.ErrValidation, "start_time must be before end_time")
		}
		rules = append(rules, models.WorkingRule{
			DoctorID:  doctorID,
			Weekday:   in.Weekday,
			StartTime: start.String(),
			EndTime:   end.String(),
		})
		if _, dup := seen[in.Weekday]; !dup {
			seen[in.Weekday] = struct{}{}
			weekdays = append(weekdays, in.Weekday)
		}
	}
	sort.Ints(weekdays)

	stored, err := s.replaceRules(ctx, doctorID, weekdays, rules)
	if err != nil {
		return nil, err
	}

	if s.invalidator != nil {
		s.invalidator.InvalidateRules(ctx, doctorID)
	}
	s.logger.Info("working rules replaced", zap.Int64("doctor_id", doctorID), zap.Ints("weekdays", weekdays), zap.Int("rules", len(stored)))

	return &dto.UpsertWorkingRulesResult{Weekdays: weekdays, Rules: stored}, nil
}

func (s *ScheduleService) replaceRules(ctx context.Context, doctorID int64, weekdays []int, rules []models.WorkingRule) (stored []models.WorkingRule, err error) {
	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				s.logger.Warn("working rules rollback failed", zap.Error(rbErr))
			}
		}
	}()

	stored, err = s.rules.ReplaceWeekdays(ctx, tx, doctorID, weekdays, rules)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store working rules")
	}
	if err = tx.Commit(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit working rules")
	}
	return stored, nil
}

// CreateUnavailability blocks [start_at, end_at) on the doctor's calendar.
func (s *ScheduleService) CreateUnavailability(ctx context.Context, doctorID int64, req dto.CreateUnavailabilityRequest) (*models.Unavailability, error) {
	req.Reason = sanitize.StripHTMLPtr(req.Reason)
	if err := s.validator.Struct(req); err != nil {
		return nil, dto.ValidationError(err, "invalid unavailability payload")
	}

	start, err := timeutil.ParseInstant(req.StartAt)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid start_at")
	}
	end, err := timeutil.ParseInstant(req.EndAt)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid end_at")
	}
	if !start.Before(end) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "start_at must be before end_at")
	}
	if timeutil.IsWeekendUTC(start) || timeutil.IsWeekendUTC(end) {
		return nil, appErrors.Clone(appErrors.ErrWeekendBlocked, "unavailability cannot start or end on a weekend")
	}

	item := &models.Unavailability{DoctorID: doctorID, StartAt: start, EndAt: end, Reason: req.Reason}
	if err := s.unavailability.Create(ctx, item); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create unavailability")
	}

	s.publish(doctorID, models.EventUnavailabilityAdded, models.UnavailabilityPayload{
		DoctorID: doctorID,
		ID:       item.ID,
		StartAt:  &item.StartAt,
		EndAt:    &item.EndAt,
	})
	return item, nil
}

// DeleteUnavailability removes one of the doctor's intervals. Rows owned by another doctor are
// reported exactly like missing rows.
func (s *ScheduleService) DeleteUnavailability(ctx context.Context, doctorID, id int64) error {
	if id <= 0 {
		return appErrors.Clone(appErrors.ErrNotFound, "unavailability not found")
	}
	removed, err := s.unavailability.Delete(ctx, id, doctorID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete unavailability")
	}
	if !removed {
		return appErrors.Clone(appErrors.ErrNotFound, "unavailability not found")
	}

	s.publish(doctorID, models.EventUnavailabilityDeleted, models.UnavailabilityPayload{DoctorID: doctorID, ID: id})
	return nil
}

// ListUnavailability returns the doctor's intervals intersecting [from, to).
func (s *ScheduleService) ListUnavailability(ctx context.Context, doctorID int64, from, to time.Time) ([]models.Unavailability, error) {
	if !from.Before(to) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "from must be before to")
	}
	items, err := s.unavailability.ListOverlapping(ctx, doctorID, from, to)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list unavailability")
	}
	return items, nil
}

func (s *ScheduleService) publish(doctorID int64, eventType models.RealtimeEventType, payload models.UnavailabilityPayload) {
	if s.publisher == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("realtime publish panicked", zap.Any("panic", r), zap.String("type", string(eventType)))
		}
	}()
	s.publisher.PublishDoctorEvent(doctorID, eventType, payload)
}
