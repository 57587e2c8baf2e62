package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/supplier"
)

// CredentialModel is the persistence model for the supplier Credential entity.
type CredentialModel struct {
	ID                 uuid.UUID     `gorm:"type:uuid;primary_key"`
	SupplierID         uuid.UUID     `gorm:"type:uuid;not null;uniqueIndex"`
	Email              string        `gorm:"type:varchar(200);not null"`
	APIKey             string        `gorm:"type:varchar(200);not null;column:api_key"`
	AccessToken        string        `gorm:"type:text"`
	RefreshToken       string        `gorm:"type:text"`
	AccessTokenExpiry  *time.Time
	RefreshTokenExpiry *time.Time
	Tier               supplier.Tier `gorm:"type:varchar(20);not null;default:'FREE'"`
	Enabled            bool          `gorm:"not null;default:true"`
	CreatedAt          time.Time     `gorm:"not null"`
	UpdatedAt          time.Time     `gorm:"not null"`
}

// TableName returns the table name for GORM
func (CredentialModel) TableName() string {
	return "supplier_credentials"
}

// ToDomain converts the persistence model to a domain Credential entity.
func (m *CredentialModel) ToDomain() *supplier.Credential {
	return &supplier.Credential{
		ID:                 m.ID,
		SupplierID:         m.SupplierID,
		Email:              m.Email,
		APIKey:             m.APIKey,
		AccessToken:        m.AccessToken,
		RefreshToken:       m.RefreshToken,
		AccessTokenExpiry:  m.AccessTokenExpiry,
		RefreshTokenExpiry: m.RefreshTokenExpiry,
		Tier:               m.Tier,
		Enabled:            m.Enabled,
		CreatedAt:          m.CreatedAt,
		UpdatedAt:          m.UpdatedAt,
	}
}

// FromDomain populates the persistence model from a domain Credential entity.
func (m *CredentialModel) FromDomain(c *supplier.Credential) {
	m.ID = c.ID
	m.SupplierID = c.SupplierID
	m.Email = c.Email
	m.APIKey = c.APIKey
	m.AccessToken = c.AccessToken
	m.RefreshToken = c.RefreshToken
	m.AccessTokenExpiry = c.AccessTokenExpiry
	m.RefreshTokenExpiry = c.RefreshTokenExpiry
	m.Tier = c.Tier
	m.Enabled = c.Enabled
	m.CreatedAt = c.CreatedAt
	m.UpdatedAt = c.UpdatedAt
}

// CredentialModelFromDomain creates a new persistence model from a domain Credential entity.
func CredentialModelFromDomain(c *supplier.Credential) *CredentialModel {
	m := &CredentialModel{}
	m.FromDomain(c)
	return m
}

// WebhookEventModel is the persistence model for the supplier WebhookEvent entity.
type WebhookEventModel struct {
	ID         uuid.UUID            `gorm:"type:uuid;primary_key"`
	SupplierID uuid.UUID            `gorm:"type:uuid;not null;uniqueIndex:idx_webhook_supplier_message,priority:1"`
	MessageID  string               `gorm:"type:varchar(128);not null;uniqueIndex:idx_webhook_supplier_message,priority:2"`
	Type       supplier.EventType   `gorm:"type:varchar(20);not null"`
	Payload    string               `gorm:"type:text"`
	Status     supplier.EventStatus `gorm:"type:varchar(20);not null;index"`
	Error      string               `gorm:"type:text"`
	ReceivedAt time.Time            `gorm:"not null;index"`
	AppliedAt  *time.Time
}

// TableName returns the table name for GORM
func (WebhookEventModel) TableName() string {
	return "webhook_events"
}

// ToDomain converts the persistence model to a domain WebhookEvent entity.
func (m *WebhookEventModel) ToDomain() *supplier.WebhookEvent {
	return &supplier.WebhookEvent{
		ID:         m.ID,
		SupplierID: m.SupplierID,
		MessageID:  m.MessageID,
		Type:       m.Type,
		Payload:    m.Payload,
		Status:     m.Status,
		Error:      m.Error,
		ReceivedAt: m.ReceivedAt,
		AppliedAt:  m.AppliedAt,
	}
}

// FromDomain populates the persistence model from a domain WebhookEvent entity.
func (m *WebhookEventModel) FromDomain(e *supplier.WebhookEvent) {
	m.ID = e.ID
	m.SupplierID = e.SupplierID
	m.MessageID = e.MessageID
	m.Type = e.Type
	m.Payload = e.Payload
	m.Status = e.Status
	m.Error = e.Error
	m.ReceivedAt = e.ReceivedAt
	m.AppliedAt = e.AppliedAt
}

// WebhookEventModelFromDomain creates a new persistence model from a domain WebhookEvent entity.
func WebhookEventModelFromDomain(e *supplier.WebhookEvent) *WebhookEventModel {
	m := &WebhookEventModel{}
	m.FromDomain(e)
	return m
}
