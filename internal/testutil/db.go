// Package testutil wires an in-memory store for package tests.
package testutil

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/BruksfildServices01/barber-booking/internal/config"
	dbpkg "github.com/BruksfildServices01/barber-booking/internal/db"
	"github.com/BruksfildServices01/barber-booking/internal/models"
	"github.com/BruksfildServices01/barber-booking/internal/money"
)

var dbSeq atomic.Int64

// NewDB opens a migrated, isolated in-memory database. A single connection
// makes transactions serialize the way row locks do on postgres.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:memdb_%d_%d?mode=memory&cache=shared", time.Now().UnixNano(), dbSeq.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:  gormlogger.Default.LogMode(gormlogger.Silent),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := dbpkg.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if err := dbpkg.SeedSettings(context.Background(), db, config.BusinessDefaults{
		OpeningTime:         "09:00",
		ClosingTime:         "20:00",
		WorkingDays:         []int{1, 2, 3, 4, 5, 6},
		SlotDurationMinutes: 30,
	}); err != nil {
		t.Fatalf("seed settings: %v", err)
	}

	return db
}

// Fixtures is a minimal catalog: one client, one barber at 40%, one 30 min service of 100.00.
type Fixtures struct {
	Client  models.Client
	Barber  models.Barber
	Service models.Service
}

func Seed(t *testing.T, db *gorm.DB) Fixtures {
	t.Helper()

	f := Fixtures{
		Client: models.Client{Name: "João Cliente", Phone: "+5511999990000", Email: "joao@example.com"},
		Barber: models.Barber{
			Name:                 "Carlos Barbeiro",
			CommissionPercentage: decimal.NewFromInt(40),
			Active:               true,
		},
		Service: models.Service{
			Name:            "Corte",
			PriceCents:      money.Cents(10000),
			DurationMinutes: 30,
			Active:          true,
		},
	}

	for _, v := range []any{&f.Client, &f.Barber, &f.Service} {
		if err := db.Create(v).Error; err != nil {
			t.Fatalf("seed %T: %v", v, err)
		}
	}
	return f
}

// CreateIntent inserts a payment intent in status processing with a provider ref.
func CreateIntent(t *testing.T, db *gorm.DB, clientID uuid.UUID, appointmentID *uuid.UUID, amount money.Cents, ref string) models.PaymentIntent {
	t.Helper()

	pi := models.PaymentIntent{
		ClientID:      clientID,
		AppointmentID: appointmentID,
		AmountCents:   amount,
		Type:          "one_time",
		Status:        "processing",
		Provider:      "mercadopago",
		ProviderRef:   ref,
	}
	if err := db.Create(&pi).Error; err != nil {
		t.Fatalf("create intent: %v", err)
	}
	return pi
}

func Count(t *testing.T, db *gorm.DB, model any, where string, args ...any) int64 {
	t.Helper()

	var n int64
	q := db.Model(model)
	if where != "" {
		q = q.Where(where, args...)
	}
	if err := q.Count(&n).Error; err != nil {
		t.Fatalf("count %T: %v", model, err)
	}
	return n
}
