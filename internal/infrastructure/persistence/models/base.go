package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/shared"
)

// BaseModel is the row-side counterpart of shared.BaseEntity.
type BaseModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// ToDomain copies the row identity into a BaseEntity.
func (m *BaseModel) ToDomain() shared.BaseEntity {
	return shared.BaseEntity{
		ID:        m.ID,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

// FromDomainBaseEntity copies a BaseEntity into the row.
func (m *BaseModel) FromDomainBaseEntity(e shared.BaseEntity) {
	m.ID = e.ID
	m.CreatedAt = e.CreatedAt
	m.UpdatedAt = e.UpdatedAt
}

// AggregateModel adds the optimistic-lock version column.
type AggregateModel struct {
	BaseModel
	Version int `gorm:"not null;default:1"`
}

// FromDomainAggregateRoot copies identity and version from the aggregate.
func (m *AggregateModel) FromDomainAggregateRoot(a shared.BaseAggregateRoot) {
	m.FromDomainBaseEntity(a.BaseEntity)
	m.Version = a.Version
}

// SupplierAggregateModel adds the supplier connection column for rows
// scoped to one supplier.
type SupplierAggregateModel struct {
	AggregateModel
	SupplierID uuid.UUID `gorm:"type:uuid;not null;index"`
}

// FromDomainSupplierAggregateRoot copies identity, version, and supplier
// scope from the aggregate.
func (m *SupplierAggregateModel) FromDomainSupplierAggregateRoot(s shared.SupplierAggregateRoot) {
	m.FromDomainAggregateRoot(s.BaseAggregateRoot)
	m.SupplierID = s.SupplierID
}

// PopulateSupplierAggregateRoot writes the row values back onto a domain
// aggregate during rehydration.
func (m *SupplierAggregateModel) PopulateSupplierAggregateRoot(s *shared.SupplierAggregateRoot) {
	s.ID = m.ID
	s.CreatedAt = m.CreatedAt
	s.UpdatedAt = m.UpdatedAt
	s.Version = m.Version
	s.SupplierID = m.SupplierID
}
