package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ensureID fills a zero uuid before insert; ids never come from the database.
func ensureID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}

func (m *Service) BeforeCreate(*gorm.DB) error      { ensureID(&m.ID); return nil }
func (m *Barber) BeforeCreate(*gorm.DB) error       { ensureID(&m.ID); return nil }
func (m *Client) BeforeCreate(*gorm.DB) error       { ensureID(&m.ID); return nil }
func (m *Appointment) BeforeCreate(*gorm.DB) error  { ensureID(&m.ID); return nil }
func (m *Subscription) BeforeCreate(*gorm.DB) error { ensureID(&m.ID); return nil }
func (m *WebhookEvent) BeforeCreate(*gorm.DB) error { ensureID(&m.ID); return nil }
func (m *LedgerEntry) BeforeCreate(*gorm.DB) error  { ensureID(&m.ID); return nil }
func (m *Commission) BeforeCreate(*gorm.DB) error   { ensureID(&m.ID); return nil }
func (m *AuditLog) BeforeCreate(*gorm.DB) error     { ensureID(&m.ID); return nil }

func (m *PaymentIntent) BeforeCreate(*gorm.DB) error {
	ensureID(&m.ID)
	if m.IdempotencyKey == "" {
		m.IdempotencyKey = "pi_" + uuid.NewString()
	}
	return nil
}
