package db

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/BruksfildServices01/barber-booking/internal/config"
	domain "github.com/BruksfildServices01/barber-booking/internal/domain/appointment"
	"github.com/BruksfildServices01/barber-booking/internal/models"
	"github.com/BruksfildServices01/barber-booking/internal/observability"
)

func NewDB(cfg *config.Config, log *zap.Logger) (*gorm.DB, error) {
	level := gormlogger.Warn
	if !cfg.IsProduction() {
		level = gormlogger.Info
	}

	db, err := gorm.Open(postgres.Open(cfg.DBUrl), &gorm.Config{
		PrepareStmt: true,
		Logger:      observability.NewGormLogger(log, level),
		NowFunc:     func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(10)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)
	sqlDB.SetConnMaxIdleTime(10 * time.Minute)

	return db, nil
}

// Migrate creates tables and, on postgres, the constraints gorm cannot express.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.BusinessSettings{},
		&models.Service{},
		&models.Barber{},
		&models.Client{},
		&models.Appointment{},
		&models.Subscription{},
		&models.PaymentIntent{},
		&models.WebhookEvent{},
		&models.Commission{},
		&models.LedgerEntry{},
		&models.AuditLog{},
	); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	if db.Dialector.Name() != "postgres" {
		return nil
	}
	return ensurePostgresConstraints(db)
}

// ensurePostgresConstraints installs the storage level guard against
// double booking: no two blocking appointments of a barber may overlap.
func ensurePostgresConstraints(db *gorm.DB) error {
	stmts := []string{
		`CREATE EXTENSION IF NOT EXISTS btree_gist`,
		`DO $$
		BEGIN
			IF NOT EXISTS (
				SELECT 1 FROM pg_constraint WHERE conname = 'appointments_no_overlap'
			) THEN
				ALTER TABLE appointments
					ADD CONSTRAINT appointments_no_overlap
					EXCLUDE USING gist (
						barber_id WITH =,
						tstzrange(start_time, end_time, '[)') WITH &&
					)
					WHERE (status NOT IN ('cancelled', 'no_show'));
			END IF;
		END $$`,
		`DO $$
		BEGIN
			IF NOT EXISTS (
				SELECT 1 FROM pg_constraint WHERE conname = 'ledger_entries_amount_positive'
			) THEN
				ALTER TABLE ledger_entries
					ADD CONSTRAINT ledger_entries_amount_positive CHECK (amount_cents > 0);
			END IF;
		END $$`,
	}

	for _, stmt := range stmts {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("ensure constraints: %w", err)
		}
	}
	return nil
}

// SeedSettings inserts the settings row from defaults when it does not exist yet.
func SeedSettings(ctx context.Context, db *gorm.DB, d config.BusinessDefaults) error {
	settings := models.BusinessSettings{
		ID:                  models.SettingsRowID,
		OpeningTime:         d.OpeningTime,
		ClosingTime:         d.ClosingTime,
		WorkingDays:         domain.FormatWorkingDays(d.WorkingDays),
		SlotDurationMinutes: d.SlotDurationMinutes,
	}

	if _, err := domain.NewSettings(
		settings.OpeningTime,
		settings.ClosingTime,
		settings.WorkingDays,
		settings.SlotDurationMinutes,
	); err != nil {
		return fmt.Errorf("invalid business defaults: %w", err)
	}

	return db.WithContext(ctx).
		Where(models.BusinessSettings{ID: models.SettingsRowID}).
		FirstOrCreate(&settings).Error
}
