package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// WebhookEvent is never deleted; it is the audit trail of provider callbacks.
type WebhookEvent struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`

	Provider        string `gorm:"size:30;not null;uniqueIndex:ux_webhook_events_provider_event,priority:1" json:"provider"`
	ProviderEventID string `gorm:"type:text;not null;uniqueIndex:ux_webhook_events_provider_event,priority:2" json:"provider_event_id"`
	EventType       string `gorm:"type:text;not null" json:"event_type"`

	Payload        datatypes.JSON `json:"payload"`
	Headers        datatypes.JSON `json:"headers"`
	Signature      string         `gorm:"type:text" json:"signature"`
	SignatureValid bool           `gorm:"not null;default:false" json:"signature_valid"`

	Status       string     `gorm:"size:20;not null;index" json:"status"`
	ProcessedAt  *time.Time `json:"processed_at"`
	ErrorMessage string     `gorm:"type:text" json:"error_message,omitempty"`
	RetryCount   int        `gorm:"not null;default:0" json:"retry_count"`
	ArchiveKey   string     `gorm:"size:300" json:"archive_key,omitempty"`

	ReceivedAt time.Time `gorm:"not null" json:"received_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
