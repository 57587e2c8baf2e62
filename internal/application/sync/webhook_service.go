package sync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/domain/supplier"
)

// defaultDedupTTL bounds the fast-path idempotency window. The event table
// remains the durable record beyond it.
const defaultDedupTTL = 24 * time.Hour

// WebhookResult is what the ingestion endpoint learns about an event. The
// endpoint always acknowledges success toward the supplier; this result is
// for local bookkeeping only.
type WebhookResult struct {
	MessageID string
	Status    supplier.EventStatus
	Reason    string
}

// WebhookService drives a pushed supplier event through its lifecycle:
// received, validated, then applied, rejected or duplicate. Processing
// failures are recorded and logged, never surfaced to the supplier, so a
// failing handler cannot trigger a retry storm.
type WebhookService struct {
	events      supplier.WebhookEventRepository
	idempotency shared.IdempotencyStore
	catalogSync *CatalogSyncService
	mapper      *CategoryMapperService
	variants    catalog.VariantRepository
	txScope     TransactionScope
	dedupTTL    time.Duration
	logger      *zap.Logger
}

// WebhookOption customizes a WebhookService.
type WebhookOption func(*WebhookService)

// WithDedupTTL overrides how long delivered message ids are remembered in
// the fast-path idempotency store.
func WithDedupTTL(ttl time.Duration) WebhookOption {
	return func(s *WebhookService) {
		if ttl > 0 {
			s.dedupTTL = ttl
		}
	}
}

// NewWebhookService creates a webhook ingestion service
func NewWebhookService(
	events supplier.WebhookEventRepository,
	idempotency shared.IdempotencyStore,
	catalogSync *CatalogSyncService,
	mapper *CategoryMapperService,
	variants catalog.VariantRepository,
	txScope TransactionScope,
	logger *zap.Logger,
	opts ...WebhookOption,
) *WebhookService {
	s := &WebhookService{
		events:      events,
		idempotency: idempotency,
		catalogSync: catalogSync,
		mapper:      mapper,
		variants:    variants,
		txScope:     txScope,
		dedupTTL:    defaultDedupTTL,
		logger:      logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Process runs one webhook body through the event state machine. secure
// reports whether the payload arrived over a trusted transport. The
// returned result is always usable; a non-nil error means the event could
// not even be recorded and should be retried by the supplier's next
// delivery attempt.
func (s *WebhookService) Process(ctx context.Context, supplierID uuid.UUID, body []byte, secure bool) (*WebhookResult, error) {
	event, err := supplier.ParseEvent(body)
	if err != nil {
		s.logger.Warn("rejected malformed webhook payload",
			zap.String("supplier_id", supplierID.String()),
			zap.Error(err),
		)
		return &WebhookResult{Status: supplier.EventStatusRejected, Reason: "malformed payload"}, nil
	}

	// The fast-path store and the event table both only count an event
	// that reached the applied state as a duplicate; a rejected delivery
	// may be retried by the supplier.
	processed, err := s.idempotency.IsProcessed(ctx, dedupKey(supplierID, event.MessageID))
	if err != nil {
		s.logger.Warn("idempotency store unavailable", zap.Error(err))
		processed = false
	}
	prior, err := s.events.FindByMessageID(ctx, supplierID, event.MessageID)
	if err != nil {
		return nil, fmt.Errorf("look up event record: %w", err)
	}
	if processed || (prior != nil && prior.Status == supplier.EventStatusApplied) {
		s.logger.Debug("ignored duplicate webhook delivery",
			zap.String("message_id", event.MessageID),
		)
		return &WebhookResult{MessageID: event.MessageID, Status: supplier.EventStatusDuplicate}, nil
	}

	// A retried delivery reuses the recorded event so the message id
	// stays unique per supplier.
	record := prior
	if record == nil {
		record = supplier.NewWebhookEvent(supplierID, event.MessageID, event.Type, string(body))
	} else {
		record.Redeliver(event.Type, string(body))
	}

	if !secure {
		return s.reject(ctx, record, "insecure transport")
	}
	if event.Type == supplier.EventTypeUnknown {
		return s.reject(ctx, record, "unknown event type")
	}
	record.MarkValidated()

	if err := s.apply(ctx, supplierID, event); err != nil {
		s.logger.Error("webhook handler failed",
			zap.String("message_id", event.MessageID),
			zap.String("type", string(event.Type)),
			zap.Error(err),
		)
		return s.reject(ctx, record, err.Error())
	}

	record.MarkApplied()
	if err := s.events.Save(ctx, record); err != nil {
		return nil, fmt.Errorf("record applied event: %w", err)
	}
	if _, err := s.idempotency.MarkProcessed(ctx, dedupKey(supplierID, event.MessageID), s.dedupTTL); err != nil {
		// The store is an optimization; the event table stays authoritative.
		s.logger.Warn("idempotency store unavailable", zap.Error(err))
	}
	return &WebhookResult{MessageID: event.MessageID, Status: supplier.EventStatusApplied}, nil
}

// rejectedPageLimit caps how many rejected deliveries one listing returns
const rejectedPageLimit = 200

// RecentRejected returns the latest rejected deliveries, newest first, so
// operators can review what the supplier pushed that the pipeline refused.
func (s *WebhookService) RecentRejected(ctx context.Context, supplierID uuid.UUID, limit int) ([]supplier.WebhookEvent, error) {
	if limit <= 0 || limit > rejectedPageLimit {
		limit = 50
	}
	return s.events.ListByStatus(ctx, supplierID, supplier.EventStatusRejected, limit)
}

func dedupKey(supplierID uuid.UUID, messageID string) string {
	return fmt.Sprintf("webhook:%s:%s", supplierID, messageID)
}

func (s *WebhookService) reject(ctx context.Context, record *supplier.WebhookEvent, reason string) (*WebhookResult, error) {
	record.MarkRejected(reason)
	if err := s.events.Save(ctx, record); err != nil {
		return nil, fmt.Errorf("record rejected event: %w", err)
	}
	return &WebhookResult{MessageID: record.MessageID, Status: supplier.EventStatusRejected, Reason: reason}, nil
}

// ---------------------------------------------------------------------------
// Sub-Handlers
// ---------------------------------------------------------------------------

func (s *WebhookService) apply(ctx context.Context, supplierID uuid.UUID, event *supplier.Event) error {
	switch event.Type {
	case supplier.EventTypeProduct:
		return s.applyProduct(ctx, supplierID, event.Product)
	case supplier.EventTypeStock:
		return s.applyStock(ctx, event.Stock)
	case supplier.EventTypeOrder:
		s.logger.Info("recorded supplier order status push",
			zap.String("order_id", event.Order.OrderID),
			zap.String("status", event.Order.Status),
		)
		return nil
	case supplier.EventTypeLogistics:
		s.logger.Info("recorded supplier logistics push",
			zap.String("order_id", event.Logistics.OrderID),
			zap.String("tracking_number", event.Logistics.TrackingNumber),
		)
		return nil
	default:
		return fmt.Errorf("%w: %s", supplier.ErrWebhookUnknownType, event.Type)
	}
}

// applyProduct refreshes the pushed product from the supplier, then lets
// the category mapper pick up any new supplier category name it carried.
// Supplier calls happen up front; every write for the event then commits
// in one transaction, so a failure leaves no half-applied product behind.
func (s *WebhookService) applyProduct(ctx context.Context, supplierID uuid.UUID, payload *supplier.ProductEvent) error {
	external, err := s.catalogSync.FetchProductWithVariants(ctx, payload.PID)
	if err != nil {
		return fmt.Errorf("fetch product %s: %w", payload.PID, err)
	}

	return s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		stores := catalogStores{
			products: repos.ProductRepo(),
			variants: repos.VariantRepo(),
			mappings: repos.MappingRepo(),
		}
		if _, err := s.catalogSync.upsertProduct(ctx, stores, supplierID, external); err != nil {
			return fmt.Errorf("refresh product %s: %w", payload.PID, err)
		}
		if _, err := s.mapper.refreshQueue(ctx, repos, supplierID); err != nil {
			return fmt.Errorf("refresh category queue: %w", err)
		}
		return nil
	})
}

func (s *WebhookService) applyStock(ctx context.Context, payload *supplier.StockEvent) error {
	variant, err := s.variants.FindByVID(ctx, payload.VID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return fmt.Errorf("stock push for unknown variant %s", payload.VID)
		}
		return err
	}
	variant.SetStock(payload.Stock)
	return s.variants.Save(ctx, variant)
}
