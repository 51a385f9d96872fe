// Command seed loads demo specialties, doctors and working rules. It is idempotent: doctors
// are matched by email and their rules are replaced.
package main

import (
	"context"
	"fmt"
	"log"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/doctor-booking-api/internal/models"
	"github.com/noah-isme/doctor-booking-api/internal/repository"
	"github.com/noah-isme/doctor-booking-api/internal/service"
	"github.com/noah-isme/doctor-booking-api/pkg/cache"
	"github.com/noah-isme/doctor-booking-api/pkg/config"
	"github.com/noah-isme/doctor-booking-api/pkg/database"
	"github.com/noah-isme/doctor-booking-api/pkg/logger"
)

const demoPassword = "password123"

type seedRule struct {
	weekdays []int
	start    string
	end      string
}

type seedDoctor struct {
	name      string
	email     string
	specialty string
	rules     []seedRule
}

var demoDoctors = []seedDoctor{
	{
		name: "Dr. Sarah Johnson", email: "sarah@example.com", specialty: "General Physician",
		rules: []seedRule{{weekdays: []int{1, 2, 3, 4, 5}, start: "09:00", end: "17:00"}},
	},
	{
		name: "Dr. Michael Chen", email: "michael@example.com", specialty: "Cardiologist",
		rules: []seedRule{{weekdays: []int{1, 2, 3, 4, 5}, start: "10:00", end: "18:00"}},
	},
	{
		name: "Dr. Emily Rodriguez", email: "emily@example.com", specialty: "Pediatrician",
		rules: []seedRule{
			{weekdays: []int{1, 3, 5}, start: "08:00", end: "16:00"},
			{weekdays: []int{2, 4}, start: "13:00", end: "19:00"},
		},
	},
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	ctx := context.Background()
	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Fatal("connect database", zap.Error(err))
	}
	defer db.Close()

	hash, err := bcrypt.GenerateFromPassword([]byte(demoPassword), cfg.JWT.BcryptRounds)
	if err != nil {
		logr.Fatal("hash demo password", zap.Error(err))
	}

	if err := seed(ctx, db, string(hash), demoDoctors); err != nil {
		logr.Fatal("seed failed", zap.Error(err))
	}

	redisClient, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, cached working rules left to expire", zap.Error(err))
		redisClient = nil
	}
	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	defer cacheRepo.Close() //nolint:errcheck
	rulesCache := service.NewCacheService(cacheRepo, nil, cfg.Cache.RulesTTL, logr, cacheRepo.Enabled())
	if err := flushRulesCache(ctx, rulesCache); err != nil {
		logr.Warn("flush working rules cache", zap.Error(err))
	}
	for _, d := range demoDoctors {
		logr.Info("seeded doctor", zap.String("name", d.name), zap.String("email", d.email), zap.String("specialty", d.specialty))
	}
	logr.Info("seed complete", zap.String("password", demoPassword))
}

func seed(ctx context.Context, db *sqlx.DB, passwordHash string, doctors []seedDoctor) (err error) {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin seed: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	rules := repository.NewWorkingRuleRepository(db)
	for _, d := range doctors {
		var specialtyID int64
		if err = tx.GetContext(ctx, &specialtyID, `INSERT INTO specialties (name) VALUES ($1)
ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name RETURNING id`, d.specialty); err != nil {
			return fmt.Errorf("upsert specialty %s: %w", d.specialty, err)
		}

		var doctorID int64
		if err = tx.GetContext(ctx, &doctorID, `INSERT INTO doctors (name, email, password_hash, specialty_id) VALUES ($1, $2, $3, $4)
ON CONFLICT (LOWER(email)) DO UPDATE SET name = EXCLUDED.name, password_hash = EXCLUDED.password_hash, specialty_id = EXCLUDED.specialty_id
RETURNING id`, d.name, d.email, passwordHash, specialtyID); err != nil {
			return fmt.Errorf("upsert doctor %s: %w", d.email, err)
		}

		weekdays, expanded := expandRules(d.rules)
		if _, err = rules.ReplaceWeekdays(ctx, tx, doctorID, weekdays, expanded); err != nil {
			return fmt.Errorf("replace rules for %s: %w", d.email, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit seed: %w", err)
	}
	return nil
}

type patternInvalidator interface {
	InvalidatePattern(ctx context.Context, pattern string) error
}

// flushRulesCache drops every cached rule set so the API reads the seeded rules.
func flushRulesCache(ctx context.Context, rules patternInvalidator) error {
	return rules.InvalidatePattern(ctx, service.RulesCachePattern)
}

func expandRules(in []seedRule) ([]int, []models.WorkingRule) {
	var weekdays []int
	var out []models.WorkingRule
	for _, r := range in {
		for _, wd := range r.weekdays {
			weekdays = append(weekdays, wd)
			out = append(out, models.WorkingRule{Weekday: wd, StartTime: r.start, EndTime: r.end})
		}
	}
	return weekdays, out
}
