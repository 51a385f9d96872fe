package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/doctor-booking-api/internal/models"
	appErrors "github.com/noah-isme/doctor-booking-api/pkg/errors"
	"github.com/noah-isme/doctor-booking-api/pkg/timeutil"
)

const anyDoctorConcurrency = 8

type workingRuleReader interface {
	ListByDoctor(ctx context.Context, doctorID int64) ([]models.WorkingRule, error)
}

type unavailabilityReader interface {
	ListOverlapping(ctx context.Context, doctorID int64, from, to time.Time) ([]models.Unavailability, error)
}

type appointmentStartReader interface {
	ListStartsBetween(ctx context.Context, doctorID int64, from, to time.Time) ([]time.Time, error)
}

type doctorRoster interface {
	ListIDs(ctx context.Context) ([]int64, error)
}

// AvailabilityConfig carries the slot grid settings.
type AvailabilityConfig struct {
	SlotLength    time.Duration
	MaxWindowDays int
	RulesTTL      time.Duration
}

// AvailabilityService computes free slots from working rules, blocked intervals and bookings.
// It only reads; every call issues its own non-transactional queries.
type AvailabilityService struct {
	rules          workingRuleReader
	unavailability unavailabilityReader
	appointments   appointmentStartReader
	roster         doctorRoster
	cache          *CacheService
	metrics        *MetricsService
	logger         *zap.Logger
	cfg            AvailabilityConfig
}

// NewAvailabilityService constructs the availability engine.
func NewAvailabilityService(rules workingRuleReader, unavailability unavailabilityReader, appointments appointmentStartReader, roster doctorRoster, cache *CacheService, metrics *MetricsService, cfg AvailabilityConfig, logger *zap.Logger) *AvailabilityService {
	if cfg.SlotLength <= 0 {
		cfg.SlotLength = 20 * time.Minute
	}
	if cfg.MaxWindowDays <= 0 {
		cfg.MaxWindowDays = 31
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AvailabilityService{
		rules:          rules,
		unavailability: unavailability,
		appointments:   appointments,
		roster:         roster,
		cache:          cache,
		metrics:        metrics,
		logger:         logger,
		cfg:            cfg,
	}
}

// SlotLength returns the fixed appointment duration.
func (s *AvailabilityService) SlotLength() time.Duration {
	return s.cfg.SlotLength
}

// MaxWindowDays is the widest window ForDoctor and ForAny accept.
func (s *AvailabilityService) MaxWindowDays() int {
	return s.cfg.MaxWindowDays
}

// ForDoctor lists the free slots of one doctor for days calendar days starting at from's UTC
// date. Slots starting before at are dropped. Output is ordered by day, then rule, then time;
// overlapping rules on the same weekday yield duplicate slots which are kept as is.
// An unknown doctor simply has no rules and yields an empty result.
func (s *AvailabilityService) ForDoctor(ctx context.Context, doctorID int64, from time.Time, days int, at time.Time) ([]models.Slot, error) {
	if err := s.validateWindow(days); err != nil {
		return nil, err
	}
	slots, err := s.forDoctor(ctx, doctorID, timeutil.MidnightUTC(from), days, at)
	if err != nil {
		return nil, err
	}
	s.metrics.ObserveSlotsGenerated("doctor", len(slots))
	return slots, nil
}

// ForAny lists the free slots of every doctor, merged and sorted by start. Doctors are visited
// in ascending id order and the sort is stable, so equal starts keep that order.
func (s *AvailabilityService) ForAny(ctx context.Context, from time.Time, days int, at time.Time) ([]models.Slot, error) {
	if err := s.validateWindow(days); err != nil {
		return nil, err
	}
	ids, err := s.roster.ListIDs(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load doctors")
	}

	day := timeutil.MidnightUTC(from)
	perDoctor := make([][]models.Slot, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(anyDoctorConcurrency)
	for i, id := range ids {
		i, id := i, id
		g.Go(func() error {
			slots, err := s.forDoctor(gctx, id, day, days, at)
			if err != nil {
				return err
			}
			perDoctor[i] = slots
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	total := 0
	for _, slots := range perDoctor {
		total += len(slots)
	}
	merged := make([]models.Slot, 0, total)
	for _, slots := range perDoctor {
		merged = append(merged, slots...)
	}
	sort.SliceStable(merged, func(a, b int) bool {
		return merged[a].Start.Before(merged[b].Start)
	})

	s.metrics.ObserveSlotsGenerated("any", len(merged))
	return merged, nil
}

// OffersSlot reports whether start lies on the doctor's rule grid with a whole slot before the
// rule ends. Bookings and blocked intervals are not consulted.
func (s *AvailabilityService) OffersSlot(ctx context.Context, doctorID int64, start time.Time) (bool, error) {
	start = start.UTC()
	if timeutil.IsWeekendUTC(start) {
		return false, nil
	}
	rules, err := s.rulesFor(ctx, doctorID)
	if err != nil {
		return false, err
	}
	day := timeutil.MidnightUTC(start)
	weekday := timeutil.WeekdayIndex(day)
	for _, rule := range rules {
		if rule.Weekday != weekday {
			continue
		}
		ruleStart, ruleEnd, err := ruleBounds(day, rule)
		if err != nil {
			return false, err
		}
		if start.Before(ruleStart) || start.Add(s.cfg.SlotLength).After(ruleEnd) {
			continue
		}
		if start.Sub(ruleStart)%s.cfg.SlotLength == 0 {
			return true, nil
		}
	}
	return false, nil
}

// InvalidateRules drops the cached rules of a doctor.
func (s *AvailabilityService) InvalidateRules(ctx context.Context, doctorID int64) {
	if err := s.cache.Invalidate(ctx, RulesCacheKey(doctorID)); err != nil {
		s.logger.Warn("rules cache invalidation failed", zap.Int64("doctor_id", doctorID), zap.Error(err))
	}
}

func (s *AvailabilityService) validateWindow(days int) error {
	if days < 1 || days > s.cfg.MaxWindowDays {
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("days must be between 1 and %d", s.cfg.MaxWindowDays))
	}
	return nil
}

func (s *AvailabilityService) forDoctor(ctx context.Context, doctorID int64, from time.Time, days int, at time.Time) ([]models.Slot, error) {
	rules, err := s.rulesFor(ctx, doctorID)
	if err != nil {
		return nil, err
	}
	slots := []models.Slot{}
	if len(rules) == 0 {
		return slots, nil
	}

	byWeekday := make(map[int][]models.WorkingRule, 5)
	for _, rule := range rules {
		byWeekday[rule.Weekday] = append(byWeekday[rule.Weekday], rule)
	}

	windowEnd := from.AddDate(0, 0, days)
	blocked, err := s.unavailability.ListOverlapping(ctx, doctorID, from, windowEnd)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load unavailability")
	}
	starts, err := s.appointments.ListStartsBetween(ctx, doctorID, from, windowEnd)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load appointments")
	}
	taken := make(map[int64]struct{}, len(starts))
	for _, st := range starts {
		taken[st.UnixNano()] = struct{}{}
	}

	for d := 0; d < days; d++ {
		day := from.AddDate(0, 0, d)
		if timeutil.IsWeekendUTC(day) {
			continue
		}
		for _, rule := range byWeekday[timeutil.WeekdayIndex(day)] {
			ruleStart, ruleEnd, err := ruleBounds(day, rule)
			if err != nil {
				return nil, err
			}
			for cursor := ruleStart; !cursor.Add(s.cfg.SlotLength).After(ruleEnd); cursor = cursor.Add(s.cfg.SlotLength) {
				slot := models.Slot{DoctorID: doctorID, Start: cursor, End: cursor.Add(s.cfg.SlotLength)}
				if slot.Start.Before(at) {
					continue
				}
				if _, ok := taken[slot.Start.UnixNano()]; ok {
					continue
				}
				if overlapsAny(blocked, slot.Start, slot.End) {
					continue
				}
				slots = append(slots, slot)
			}
		}
	}
	return slots, nil
}

func (s *AvailabilityService) rulesFor(ctx context.Context, doctorID int64) ([]models.WorkingRule, error) {
	key := RulesCacheKey(doctorID)
	var cached []models.WorkingRule
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		return cached, nil
	}

	rules, err := s.rules.ListByDoctor(ctx, doctorID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load working rules")
	}
	_ = s.cache.Set(ctx, key, rules, s.cfg.RulesTTL)
	return rules, nil
}

func ruleBounds(day time.Time, rule models.WorkingRule) (time.Time, time.Time, error) {
	startClock, err := timeutil.ParseClock(rule.StartTime)
	if err != nil {
		return time.Time{}, time.Time{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, fmt.Sprintf("working rule %d has a malformed start time", rule.ID))
	}
	endClock, err := timeutil.ParseClock(rule.EndTime)
	if err != nil {
		return time.Time{}, time.Time{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, fmt.Sprintf("working rule %d has a malformed end time", rule.ID))
	}
	return timeutil.CombineDateAndClock(day, startClock), timeutil.CombineDateAndClock(day, endClock), nil
}

func overlapsAny(blocked []models.Unavailability, start, end time.Time) bool {
	for _, u := range blocked {
		if u.Overlaps(start, end) {
			return true
		}
	}
	return false
}
