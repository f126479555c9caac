package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/BruksfildServices01/barber-booking/internal/domain/payment"
	"github.com/BruksfildServices01/barber-booking/internal/models"
)

type WebhookGormRepository struct {
	db *gorm.DB
}

func NewWebhookGormRepository(db *gorm.DB) *WebhookGormRepository {
	return &WebhookGormRepository{db: db}
}

// Claim is an insert-or-get on (provider, provider_event_id). The unique index
// decides which concurrent delivery wins; the stored status decides the rest.
func (r *WebhookGormRepository) Claim(ctx context.Context, ev *models.WebhookEvent) (payment.ClaimResult, error) {
	var out payment.ClaimResult

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ev.Status = string(payment.WebhookProcessing)

		res := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "provider"}, {Name: "provider_event_id"}},
			DoNothing: true,
		}).Create(ev)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 1 {
			out = payment.ClaimResult{Outcome: payment.ClaimNew, Event: ev}
			return nil
		}

		var existing models.WebhookEvent
		if err := tx.
			Where("provider = ? AND provider_event_id = ?", ev.Provider, ev.ProviderEventID).
			First(&existing).Error; err != nil {
			return err
		}

		switch payment.WebhookStatus(existing.Status) {
		case payment.WebhookProcessed, payment.WebhookIgnored:
			out = payment.ClaimResult{Outcome: payment.ClaimAlreadyProcessed, Event: &existing}
			return nil
		case payment.WebhookProcessing:
			out = payment.ClaimResult{Outcome: payment.ClaimInProgress, Event: &existing}
			return nil
		}

		// failed or received: take it back for another attempt
		upd := tx.Model(&models.WebhookEvent{}).
			Where("id = ? AND status = ?", existing.ID, existing.Status).
			Updates(map[string]any{
				"status":          string(payment.WebhookProcessing),
				"retry_count":     gorm.Expr("retry_count + 1"),
				"error_message":   "",
				"payload":         ev.Payload,
				"headers":         ev.Headers,
				"signature":       ev.Signature,
				"signature_valid": ev.SignatureValid,
			})
		if upd.Error != nil {
			return upd.Error
		}
		if upd.RowsAffected == 0 {
			out = payment.ClaimResult{Outcome: payment.ClaimInProgress, Event: &existing}
			return nil
		}

		if err := tx.First(&existing, "id = ?", existing.ID).Error; err != nil {
			return err
		}
		out = payment.ClaimResult{Outcome: payment.ClaimRetry, Event: &existing}
		return nil
	})

	return out, err
}

func (r *WebhookGormRepository) MarkProcessed(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.finish(ctx, id, payment.WebhookProcessed, "", at)
}

func (r *WebhookGormRepository) MarkFailed(ctx context.Context, id uuid.UUID, message string, at time.Time) error {
	return r.finish(ctx, id, payment.WebhookFailed, message, at)
}

func (r *WebhookGormRepository) finish(
	ctx context.Context,
	id uuid.UUID,
	status payment.WebhookStatus,
	message string,
	at time.Time,
) error {
	return r.db.WithContext(ctx).
		Model(&models.WebhookEvent{}).
		Where("id = ? AND status = ?", id, string(payment.WebhookProcessing)).
		Updates(map[string]any{
			"status":        string(status),
			"processed_at":  at.UTC(),
			"error_message": message,
		}).Error
}

func (r *WebhookGormRepository) SetArchiveKey(ctx context.Context, id uuid.UUID, key string) error {
	return r.db.WithContext(ctx).
		Model(&models.WebhookEvent{}).
		Where("id = ?", id).
		Update("archive_key", key).Error
}

func (r *WebhookGormRepository) List(ctx context.Context, status string, limit, offset int) ([]models.WebhookEvent, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.WebhookEvent{})
	if status != "" {
		q = q.Where("status = ?", status)
	}

	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if limit <= 0 || limit > 200 {
		limit = 50
	}

	var events []models.WebhookEvent
	if err := q.
		Omit("payload", "headers").
		Order("received_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&events).Error; err != nil {
		return nil, 0, err
	}
	return events, total, nil
}

var _ payment.WebhookRepository = (*WebhookGormRepository)(nil)
