package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	appsync "github.com/storefront/backend/internal/application/sync"
	"github.com/storefront/backend/internal/domain/supplier"
)

// WebhookHandler receives supplier push notifications. The supplier treats
// any non-200 response as a delivery failure and redelivers, so the handler
// acknowledges success even for events it rejects; only a storage failure
// returns an error status to request redelivery.
type WebhookHandler struct {
	BaseHandler
	service    *appsync.WebhookService
	supplierID uuid.UUID
	enabled    bool
	logger     *zap.Logger
}

// NewWebhookHandler creates a new WebhookHandler. With enabled false the
// handler refuses every delivery instead of feeding the event pipeline.
func NewWebhookHandler(service *appsync.WebhookService, supplierID uuid.UUID, enabled bool, logger *zap.Logger) *WebhookHandler {
	return &WebhookHandler{
		service:    service,
		supplierID: supplierID,
		enabled:    enabled,
		logger:     logger,
	}
}

// webhookAck is the acknowledgement envelope the supplier expects.
type webhookAck struct {
	Code    int    `json:"code"`
	Result  bool   `json:"result"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// Receive ingests one supplier push. Reachability probes are answered
// immediately without touching the event store.
func (h *WebhookHandler) Receive(c *gin.Context) {
	if !h.enabled {
		c.JSON(http.StatusNotFound, webhookAck{
			Code:    http.StatusNotFound,
			Result:  false,
			Message: "webhook ingestion disabled",
		})
		return
	}

	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, webhookAck{Code: http.StatusBadRequest, Result: false, Message: "unreadable body"})
		return
	}

	if supplier.IsPing(body) {
		c.JSON(http.StatusOK, webhookAck{
			Code:   http.StatusOK,
			Result: true,
			Data:   gin.H{"status": "ready"},
		})
		return
	}

	result, err := h.service.Process(c.Request.Context(), h.supplierID, body, isSecureTransport(c))
	if err != nil {
		// The event could not be recorded. Fail the delivery so the
		// supplier retries it.
		h.logger.Error("webhook event could not be recorded", zap.Error(err))
		c.JSON(http.StatusInternalServerError, webhookAck{
			Code:    http.StatusInternalServerError,
			Result:  false,
			Message: "event not recorded",
		})
		return
	}

	c.JSON(http.StatusOK, webhookAck{
		Code:   http.StatusOK,
		Result: true,
		Data: gin.H{
			"messageId": result.MessageID,
			"status":    string(result.Status),
		},
	})
}

// RejectedEventResponse represents one rejected delivery for operator review
type RejectedEventResponse struct {
	ID         uuid.UUID `json:"id"`
	MessageID  string    `json:"message_id"`
	Type       string    `json:"type"`
	Reason     string    `json:"reason"`
	ReceivedAt time.Time `json:"received_at"`
}

// ListRejected returns recent rejected deliveries. Rejections are
// acknowledged toward the supplier, so this listing is the only place they
// surface.
func (h *WebhookHandler) ListRejected(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil {
		h.BadRequest(c, "limit must be an integer")
		return
	}

	events, err := h.service.RecentRejected(c.Request.Context(), h.supplierID, limit)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	responses := make([]RejectedEventResponse, 0, len(events))
	for i := range events {
		e := &events[i]
		responses = append(responses, RejectedEventResponse{
			ID:         e.ID,
			MessageID:  e.MessageID,
			Type:       string(e.Type),
			Reason:     e.Error,
			ReceivedAt: e.ReceivedAt,
		})
	}
	h.Success(c, responses)
}

// isSecureTransport reports whether the request arrived over TLS, either
// directly or at a terminating proxy.
func isSecureTransport(c *gin.Context) bool {
	if c.Request.TLS != nil {
		return true
	}
	return strings.EqualFold(c.GetHeader("X-Forwarded-Proto"), "https")
}
