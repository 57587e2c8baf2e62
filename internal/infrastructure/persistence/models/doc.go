// Package models holds the GORM row types that back the supplier context.
// Credentials and webhook events stay ORM-free in the domain layer, so this
// package maps them to their tables; catalog aggregates carry their own
// GORM tags and persist directly.
//
// base.go defines the shared row embeds (BaseModel, AggregateModel,
// SupplierAggregateModel), supplier.go the credential and webhook event
// rows.
package models
