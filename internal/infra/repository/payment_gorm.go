package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/BruksfildServices01/barber-booking/internal/domain/ledger"
	"github.com/BruksfildServices01/barber-booking/internal/domain/payment"
	"github.com/BruksfildServices01/barber-booking/internal/httperr"
	"github.com/BruksfildServices01/barber-booking/internal/models"
	"github.com/BruksfildServices01/barber-booking/internal/money"
)

type PaymentGormRepository struct {
	db *gorm.DB
}

func NewPaymentGormRepository(db *gorm.DB) *PaymentGormRepository {
	return &PaymentGormRepository{db: db}
}

func (r *PaymentGormRepository) InTx(ctx context.Context, fn func(tx payment.Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&PaymentGormRepository{db: tx})
	})
}

// --------------------------------------------------
// Payment intents
// --------------------------------------------------

func (r *PaymentGormRepository) CreateIntent(ctx context.Context, pi *models.PaymentIntent) error {
	return r.db.WithContext(ctx).Create(pi).Error
}

func (r *PaymentGormRepository) GetIntent(ctx context.Context, id uuid.UUID) (*models.PaymentIntent, error) {
	var pi models.PaymentIntent
	return firstOrNil(r.db.WithContext(ctx).Where("id = ?", id), &pi)
}

func (r *PaymentGormRepository) GetIntentForUpdate(ctx context.Context, id uuid.UUID) (*models.PaymentIntent, error) {
	var pi models.PaymentIntent
	return firstOrNil(
		r.db.WithContext(ctx).
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", id),
		&pi,
	)
}

func (r *PaymentGormRepository) FindIntentByProviderRef(ctx context.Context, provider, ref string) (*models.PaymentIntent, error) {
	var pi models.PaymentIntent
	return firstOrNil(
		r.db.WithContext(ctx).
			Where("provider = ? AND provider_ref = ?", provider, ref).
			Order("created_at DESC"),
		&pi,
	)
}

func (r *PaymentGormRepository) UpdateIntent(ctx context.Context, id uuid.UUID, changes map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.PaymentIntent{}).
		Where("id = ?", id).
		Updates(changes).Error
}

func (r *PaymentGormRepository) TransitionIntent(
	ctx context.Context,
	id uuid.UUID,
	to payment.IntentStatus,
	from []string,
	changes map[string]any,
) (bool, error) {
	return conditionalUpdate(r.db.WithContext(ctx), &models.PaymentIntent{}, "id = ?", id, string(to), from, changes)
}

// --------------------------------------------------
// Reads for commission
// --------------------------------------------------

func (r *PaymentGormRepository) GetAppointment(ctx context.Context, id uuid.UUID) (*models.Appointment, error) {
	var ap models.Appointment
	return firstOrNil(r.db.WithContext(ctx).Where("id = ?", id), &ap)
}

func (r *PaymentGormRepository) GetBarber(ctx context.Context, id uuid.UUID) (*models.Barber, error) {
	var b models.Barber
	return firstOrNil(r.db.WithContext(ctx).Where("id = ?", id), &b)
}

func (r *PaymentGormRepository) GetClient(ctx context.Context, id uuid.UUID) (*models.Client, error) {
	var c models.Client
	return firstOrNil(r.db.WithContext(ctx).Where("id = ?", id), &c)
}

// --------------------------------------------------
// Commissions
// --------------------------------------------------

// CreateCommission fails with commission_exists when the intent already has one.
func (r *PaymentGormRepository) CreateCommission(ctx context.Context, c *models.Commission) error {
	err := r.db.WithContext(ctx).Create(c).Error
	if httperr.IsUniqueViolation(err) {
		return httperr.ErrBusiness("commission_exists")
	}
	return err
}

func (r *PaymentGormRepository) FindCommissionByIntent(ctx context.Context, intentID uuid.UUID) (*models.Commission, error) {
	var c models.Commission
	return firstOrNil(r.db.WithContext(ctx).Where("payment_intent_id = ?", intentID), &c)
}

func (r *PaymentGormRepository) UpdateCommission(ctx context.Context, id uuid.UUID, changes map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.Commission{}).
		Where("id = ?", id).
		Updates(changes).Error
}

// --------------------------------------------------
// Ledger (append only)
// --------------------------------------------------

// AppendLedgerEntry stamps the informational balance_after and inserts e.
// Callers run it inside InTx so the running sum is consistent with the insert.
func (r *PaymentGormRepository) AppendLedgerEntry(ctx context.Context, e *models.LedgerEntry) error {
	bal, err := sumBalance(r.db.WithContext(ctx))
	if err != nil {
		return err
	}
	e.BalanceAfterCents = bal.BalanceCents + ledger.Kind(e.Kind).Signed(e.AmountCents)
	return r.db.WithContext(ctx).Create(e).Error
}

// --------------------------------------------------
// Subscriptions
// --------------------------------------------------

func (r *PaymentGormRepository) CreateSubscription(ctx context.Context, s *models.Subscription) error {
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *PaymentGormRepository) UpdateSubscription(ctx context.Context, id uuid.UUID, changes map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.Subscription{}).
		Where("id = ?", id).
		Updates(changes).Error
}

func (r *PaymentGormRepository) GetSubscription(ctx context.Context, id uuid.UUID) (*models.Subscription, error) {
	var s models.Subscription
	return firstOrNil(r.db.WithContext(ctx).Where("id = ?", id), &s)
}

func (r *PaymentGormRepository) TransitionSubscription(
	ctx context.Context,
	id uuid.UUID,
	to payment.SubscriptionStatus,
	from []string,
	changes map[string]any,
) (bool, error) {
	return conditionalUpdate(r.db.WithContext(ctx), &models.Subscription{}, "id = ?", id, string(to), from, changes)
}

func (r *PaymentGormRepository) TransitionSubscriptionByProviderID(
	ctx context.Context,
	providerSubscriptionID string,
	to payment.SubscriptionStatus,
	from []string,
	changes map[string]any,
) (bool, error) {
	return conditionalUpdate(
		r.db.WithContext(ctx),
		&models.Subscription{},
		"provider_subscription_id = ?", providerSubscriptionID,
		string(to), from, changes,
	)
}

// --------------------------------------------------
// helpers
// --------------------------------------------------

// conditionalUpdate sets status = to where the key matches and the current
// status is in from. It reports whether a row changed.
func conditionalUpdate(
	db *gorm.DB,
	model any,
	where string,
	key any,
	to string,
	from []string,
	changes map[string]any,
) (bool, error) {

	updates := map[string]any{"status": to}
	for k, v := range changes {
		updates[k] = v
	}

	res := db.Model(model).
		Where(where, key).
		Where("status IN ?", from).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func firstOrNil[T any](q *gorm.DB, dest *T) (*T, error) {
	if err := q.First(dest).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return dest, nil
}

func sumBalance(db *gorm.DB) (ledger.Balance, error) {
	var row struct {
		Credits int64
		Debits  int64
	}
	if err := db.Model(&models.LedgerEntry{}).
		Select(
			"COALESCE(SUM(CASE WHEN kind = ? THEN amount_cents ELSE 0 END), 0) AS credits, "+
				"COALESCE(SUM(CASE WHEN kind = ? THEN amount_cents ELSE 0 END), 0) AS debits",
			string(ledger.Credit), string(ledger.Debit),
		).
		Scan(&row).Error; err != nil {
		return ledger.Balance{}, err
	}

	return ledger.Balance{
		BalanceCents:      money.Cents(row.Credits - row.Debits),
		TotalCreditsCents: money.Cents(row.Credits),
		TotalDebitsCents:  money.Cents(row.Debits),
	}, nil
}

var _ payment.Repository = (*PaymentGormRepository)(nil)
