package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	appsync "github.com/storefront/backend/internal/application/sync"
	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/interfaces/http/dto"
)

// CategoryHandler serves the curator workflow: browse local categories,
// review supplier category names waiting for a mapping, and apply or
// decline mappings.
type CategoryHandler struct {
	BaseHandler
	categories catalog.CategoryRepository
	mapper     *appsync.CategoryMapperService
	supplierID uuid.UUID
}

// NewCategoryHandler creates a new CategoryHandler
func NewCategoryHandler(categories catalog.CategoryRepository, mapper *appsync.CategoryMapperService, supplierID uuid.UUID) *CategoryHandler {
	return &CategoryHandler{
		categories: categories,
		mapper:     mapper,
		supplierID: supplierID,
	}
}

// CategoryResponse represents a local category
type CategoryResponse struct {
	ID        uuid.UUID  `json:"id"`
	Code      string     `json:"code"`
	Name      string     `json:"name"`
	ParentID  *uuid.UUID `json:"parent_id,omitempty"`
	Path      string     `json:"path"`
	Level     int        `json:"level"`
	SortOrder int        `json:"sort_order"`
	Status    string     `json:"status"`
}

func toCategoryResponse(cat *catalog.Category) CategoryResponse {
	return CategoryResponse{
		ID:        cat.ID,
		Code:      cat.Code,
		Name:      cat.Name,
		ParentID:  cat.ParentID,
		Path:      cat.Path,
		Level:     cat.Level,
		SortOrder: cat.SortOrder,
		Status:    string(cat.Status),
	}
}

// UnmappedCategoryResponse represents a supplier category awaiting curation
type UnmappedCategoryResponse struct {
	ID           uuid.UUID `json:"id"`
	ExternalName string    `json:"external_name"`
	ProductCount int64     `json:"product_count"`
	Status       string    `json:"status"`
	FirstSeenAt  time.Time `json:"first_seen_at"`
	LastSeenAt   time.Time `json:"last_seen_at"`
}

// ApplyMappingRequest represents a curator's mapping decision
type ApplyMappingRequest struct {
	ExternalName string `json:"external_name" binding:"required"`
	CategoryID   string `json:"category_id" binding:"required,uuid"`
}

// IgnoreCategoryRequest represents a curator's decision to leave a supplier
// category unmapped
type IgnoreCategoryRequest struct {
	ExternalName string `json:"external_name" binding:"required"`
}

// ListCategories returns local categories with pagination.
func (h *CategoryHandler) ListCategories(c *gin.Context) {
	req := dto.DefaultListRequest()
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, "invalid list parameters: "+err.Error())
		return
	}

	filter := shared.Filter{
		Page:     req.Page,
		PageSize: req.PageSize,
		OrderBy:  req.OrderBy,
		OrderDir: req.OrderDir,
		Search:   req.Search,
	}

	categories, err := h.categories.FindAll(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	total, err := h.categories.Count(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	responses := make([]CategoryResponse, 0, len(categories))
	for i := range categories {
		responses = append(responses, toCategoryResponse(&categories[i]))
	}
	h.SuccessWithMeta(c, responses, total, filter.Page, filter.PageSize)
}

// ListUnmapped returns supplier category names still waiting for a curator
// decision.
func (h *CategoryHandler) ListUnmapped(c *gin.Context) {
	entries, err := h.mapper.ListPending(c.Request.Context(), h.supplierID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	responses := make([]UnmappedCategoryResponse, 0, len(entries))
	for i := range entries {
		e := &entries[i]
		responses = append(responses, UnmappedCategoryResponse{
			ID:           e.ID,
			ExternalName: e.ExternalName,
			ProductCount: e.ProductCount,
			Status:       string(e.Status),
			FirstSeenAt:  e.FirstSeenAt,
			LastSeenAt:   e.LastSeenAt,
		})
	}
	h.Success(c, responses)
}

// SyncUnmapped recounts products per unseen supplier category and refreshes
// the curation queue. Entries whose product count drops to zero are removed.
func (h *CategoryHandler) SyncUnmapped(c *gin.Context) {
	count, err := h.mapper.SyncUnmappedCategories(c.Request.Context(), h.supplierID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, CountData{Count: int64(count)})
}

// ApplyMapping maps one supplier category name to a local category and
// backfills every product carrying that name. The response count is the
// number of products backfilled.
func (h *CategoryHandler) ApplyMapping(c *gin.Context) {
	var req ApplyMappingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "external_name and category_id are required")
		return
	}
	categoryID, err := uuid.Parse(req.CategoryID)
	if err != nil {
		h.BadRequest(c, "category_id must be a valid UUID")
		return
	}

	affected, err := h.mapper.ApplyMapping(c.Request.Context(), h.supplierID, req.ExternalName, categoryID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, CountData{Count: int64(affected)})
}

// MappingResolutionResponse reports where a supplier category name routes
type MappingResolutionResponse struct {
	ExternalName string     `json:"external_name"`
	CategoryID   *uuid.UUID `json:"category_id"`
	Mapped       bool       `json:"mapped"`
}

// ResolveMapping reports the local category a supplier name currently maps
// to, if any. Curators use it to check a name before deciding on a mapping.
func (h *CategoryHandler) ResolveMapping(c *gin.Context) {
	name := c.Query("external_name")
	if name == "" {
		h.BadRequest(c, "external_name is required")
		return
	}

	categoryID, err := h.mapper.ResolveCategory(c.Request.Context(), h.supplierID, name)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, MappingResolutionResponse{
		ExternalName: name,
		CategoryID:   categoryID,
		Mapped:       categoryID != nil,
	})
}

// IgnoreUnmapped records a curator's decision to leave a supplier category
// name unmapped.
func (h *CategoryHandler) IgnoreUnmapped(c *gin.Context) {
	var req IgnoreCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "external_name is required")
		return
	}

	if err := h.mapper.IgnoreCategory(c.Request.Context(), h.supplierID, req.ExternalName); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}
