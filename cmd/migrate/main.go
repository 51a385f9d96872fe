// Command migrate applies the embedded SQL schema.
//
//	migrate            apply every pending migration
//	migrate down       roll back one step
//	migrate force N    mark version N as clean after a failed run
package main

import (
	"context"
	"errors"
	"log"
	"os"
	"strconv"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.uber.org/zap"

	"github.com/noah-isme/doctor-booking-api/migrations"
	"github.com/noah-isme/doctor-booking-api/pkg/config"
	"github.com/noah-isme/doctor-booking-api/pkg/database"
	"github.com/noah-isme/doctor-booking-api/pkg/logger"
)

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

	db, err := database.NewPostgres(context.Background(), cfg.Database)
	if err != nil {
		logr.Fatal("connect database", zap.Error(err))
	}
	defer db.Close()

	dbDriver, err := postgres.WithInstance(db.DB, &postgres.Config{})
	if err != nil {
		logr.Fatal("db driver", zap.Error(err))
	}
	srcDriver, err := iofs.New(migrations.FS, ".")
	if err != nil {
		logr.Fatal("source driver", zap.Error(err))
	}
	m, err := migrate.NewWithInstance("iofs", srcDriver, "postgres", dbDriver)
	if err != nil {
		logr.Fatal("create migrator", zap.Error(err))
	}
	defer func() { _, _ = m.Close() }()

	args := os.Args[1:]
	switch {
	case len(args) >= 2 && args[0] == "force":
		version, err := strconv.Atoi(args[1])
		if err != nil {
			logr.Fatal("invalid version", zap.String("version", args[1]))
		}
		if err := m.Force(version); err != nil {
			logr.Fatal("force version", zap.Error(err))
		}
		logr.Info("forced migration version", zap.Int("version", version))
	case len(args) >= 1 && args[0] == "down":
		if err := m.Steps(-1); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			logr.Fatal("migrate down", zap.Error(err))
		}
		logr.Info("rolled back one migration")
	default:
		if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			logr.Fatal("migrate up", zap.Error(err))
		}
		version, dirty, _ := m.Version()
		logr.Info("migrations complete", zap.Uint("version", version), zap.Bool("dirty", dirty))
	}
}
