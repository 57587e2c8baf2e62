package supplier

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ---------------------------------------------------------------------------
// Webhook event state machine
// ---------------------------------------------------------------------------

// EventStatus tracks a webhook event through received → validated →
// applied | rejected | duplicate.
type EventStatus string

const (
	EventStatusReceived  EventStatus = "RECEIVED"
	EventStatusValidated EventStatus = "VALIDATED"
	EventStatusApplied   EventStatus = "APPLIED"
	EventStatusRejected  EventStatus = "REJECTED"
	EventStatusDuplicate EventStatus = "DUPLICATE"
)

// EventType tags the parsed webhook payload variant.
type EventType string

const (
	EventTypeProduct   EventType = "PRODUCT"
	EventTypeStock     EventType = "STOCK"
	EventTypeOrder     EventType = "ORDER"
	EventTypeLogistics EventType = "LOGISTICS"
	EventTypeUnknown   EventType = "UNKNOWN"
)

// WebhookEvent is the persisted record of a supplier push notification.
// MessageID is the idempotency key: duplicate delivery with the same
// MessageID must not be reprocessed.
type WebhookEvent struct {
	ID         uuid.UUID
	SupplierID uuid.UUID
	MessageID  string
	Type       EventType
	Payload    string
	Status     EventStatus
	Error      string
	ReceivedAt time.Time
	AppliedAt  *time.Time
}

// NewWebhookEvent records a just-received event.
func NewWebhookEvent(supplierID uuid.UUID, messageID string, eventType EventType, payload string) *WebhookEvent {
	return &WebhookEvent{
		ID:         uuid.New(),
		SupplierID: supplierID,
		MessageID:  messageID,
		Type:       eventType,
		Payload:    payload,
		Status:     EventStatusReceived,
		ReceivedAt: time.Now(),
	}
}

// MarkValidated advances the event past transport validation.
func (e *WebhookEvent) MarkValidated() {
	e.Status = EventStatusValidated
}

// MarkApplied records a successful, fully committed application.
func (e *WebhookEvent) MarkApplied() {
	now := time.Now()
	e.Status = EventStatusApplied
	e.AppliedAt = &now
}

// MarkRejected records a validation or sub-handler failure. The supplier
// still receives a success acknowledgment; the failure surfaces to
// operators through this record.
func (e *WebhookEvent) MarkRejected(reason string) {
	e.Status = EventStatusRejected
	e.Error = reason
}

// Redeliver resets a non-applied event for another processing attempt.
// The message id is the idempotency key, so a retried delivery updates
// the existing record instead of creating a second one.
func (e *WebhookEvent) Redeliver(eventType EventType, payload string) {
	e.Type = eventType
	e.Payload = payload
	e.Status = EventStatusReceived
	e.Error = ""
	e.AppliedAt = nil
	e.ReceivedAt = time.Now()
}

// WebhookEventRepository persists webhook events.
type WebhookEventRepository interface {
	// FindByMessageID returns the event recorded for an idempotency key.
	// A nil event with nil error means no event was recorded.
	FindByMessageID(ctx context.Context, supplierID uuid.UUID, messageID string) (*WebhookEvent, error)

	// Save creates or updates an event.
	Save(ctx context.Context, event *WebhookEvent) error

	// ListByStatus returns recent events in a given status, newest first.
	ListByStatus(ctx context.Context, supplierID uuid.UUID, status EventStatus, limit int) ([]WebhookEvent, error)
}

// ---------------------------------------------------------------------------
// Payload parsing
// ---------------------------------------------------------------------------

// ProductEvent signals that a supplier product changed.
type ProductEvent struct {
	PID       string           `json:"pid"`
	Name      *string          `json:"name"`
	Category  *string          `json:"category"`
	SellPrice *decimal.Decimal `json:"sellPrice"`
}

// StockEvent signals a variant stock change.
type StockEvent struct {
	VID   string `json:"vid"`
	PID   string `json:"pid"`
	Stock int    `json:"stock"`
}

// OrderEvent signals an order status change on the supplier side.
type OrderEvent struct {
	OrderID    string  `json:"orderId"`
	CJOrderID  *string `json:"cjOrderId"`
	Status     string  `json:"status"`
	StatusNote *string `json:"statusNote"`
}

// LogisticsEvent signals a shipment/tracking update.
type LogisticsEvent struct {
	OrderID        string  `json:"orderId"`
	TrackingNumber string  `json:"trackingNumber"`
	Carrier        *string `json:"carrier"`
}

// Event is the tagged union produced at the webhook boundary. Exactly one
// of the typed payload fields is non-nil unless Type is EventTypeUnknown,
// in which case only Raw is populated and the event is parked rather than
// guessed at.
type Event struct {
	MessageID string
	Type      EventType
	Product   *ProductEvent
	Stock     *StockEvent
	Order     *OrderEvent
	Logistics *LogisticsEvent
	Raw       json.RawMessage
}

// eventHeader is the common envelope prefix of every supplier push.
type eventHeader struct {
	MessageID string          `json:"messageId"`
	Type      string          `json:"type"`
	Params    json.RawMessage `json:"params"`
}

// IsPing reports whether the body is the supplier's reachability probe: an
// empty body or a JSON object without a messageId. Pings are acknowledged
// immediately and never enter the event state machine.
func IsPing(body []byte) bool {
	if len(body) == 0 {
		return true
	}
	var hdr eventHeader
	if err := json.Unmarshal(body, &hdr); err != nil {
		return false
	}
	return hdr.MessageID == ""
}

// ParseEvent parses a webhook body into the tagged event union. Malformed
// JSON or a missing messageId yields ErrWebhookInvalidPayload. A type the
// parser does not recognize yields an EventTypeUnknown event carrying the
// raw payload.
func ParseEvent(body []byte) (*Event, error) {
	var hdr eventHeader
	if err := json.Unmarshal(body, &hdr); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrWebhookInvalidPayload, err)
	}
	if hdr.MessageID == "" {
		return nil, fmt.Errorf("%w: missing messageId", ErrWebhookInvalidPayload)
	}

	params := hdr.Params
	if len(params) == 0 {
		// Some pushes inline the payload next to the header fields.
		params = body
	}

	ev := &Event{MessageID: hdr.MessageID, Raw: body}

	switch hdr.Type {
	case "product", "productUpdate", "PRODUCT":
		var p ProductEvent
		if err := json.Unmarshal(params, &p); err != nil || p.PID == "" {
			return nil, fmt.Errorf("%w: bad product payload", ErrWebhookInvalidPayload)
		}
		ev.Type = EventTypeProduct
		ev.Product = &p
	case "stock", "stockUpdate", "STOCK":
		var s StockEvent
		if err := json.Unmarshal(params, &s); err != nil || s.VID == "" {
			return nil, fmt.Errorf("%w: bad stock payload", ErrWebhookInvalidPayload)
		}
		ev.Type = EventTypeStock
		ev.Stock = &s
	case "order", "orderStatus", "ORDER":
		var o OrderEvent
		if err := json.Unmarshal(params, &o); err != nil || o.OrderID == "" {
			return nil, fmt.Errorf("%w: bad order payload", ErrWebhookInvalidPayload)
		}
		ev.Type = EventTypeOrder
		ev.Order = &o
	case "logistics", "logisticsUpdate", "LOGISTICS":
		var l LogisticsEvent
		if err := json.Unmarshal(params, &l); err != nil || l.OrderID == "" {
			return nil, fmt.Errorf("%w: bad logistics payload", ErrWebhookInvalidPayload)
		}
		ev.Type = EventTypeLogistics
		ev.Logistics = &l
	default:
		ev.Type = EventTypeUnknown
	}

	return ev, nil
}
