package shared

import (
	"github.com/google/uuid"
)

// BaseAggregateRoot adds optimistic-lock versioning and pending domain
// events on top of BaseEntity. The events slice never persists, it is
// drained by whoever publishes after a successful save.
type BaseAggregateRoot struct {
	BaseEntity
	Version      int           `gorm:"not null;default:1"`
	domainEvents []DomainEvent `gorm:"-"`
}

// NewBaseAggregateRoot creates an aggregate root at version 1.
func NewBaseAggregateRoot() BaseAggregateRoot {
	return BaseAggregateRoot{
		BaseEntity: NewBaseEntity(),
		Version:    1,
	}
}

// GetVersion returns the optimistic-lock version.
func (a *BaseAggregateRoot) GetVersion() int { return a.Version }

// IncrementVersion bumps the version after a state change.
func (a *BaseAggregateRoot) IncrementVersion() { a.Version++ }

// AddDomainEvent records an event to publish once the aggregate is saved.
func (a *BaseAggregateRoot) AddDomainEvent(event DomainEvent) {
	a.domainEvents = append(a.domainEvents, event)
}

// GetDomainEvents returns the pending events.
func (a *BaseAggregateRoot) GetDomainEvents() []DomainEvent {
	return a.domainEvents
}

// ClearDomainEvents drops the pending events.
func (a *BaseAggregateRoot) ClearDomainEvents() {
	a.domainEvents = nil
}

// SupplierAggregateRoot scopes an aggregate to one supplier connection.
type SupplierAggregateRoot struct {
	BaseAggregateRoot
	SupplierID uuid.UUID `gorm:"type:uuid;not null;index"`
}

// NewSupplierAggregateRoot creates an aggregate root bound to a supplier.
func NewSupplierAggregateRoot(supplierID uuid.UUID) SupplierAggregateRoot {
	return SupplierAggregateRoot{
		BaseAggregateRoot: NewBaseAggregateRoot(),
		SupplierID:        supplierID,
	}
}
