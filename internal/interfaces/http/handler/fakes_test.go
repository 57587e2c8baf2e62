package handler

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/domain/supplier"
)

// In-memory repositories backing the handler tests. They implement only the
// behavior the handlers exercise; pagination and ordering are ignored.

type memProductRepo struct {
	mu       sync.Mutex
	products map[uuid.UUID]catalog.Product
}

func newMemProductRepo() *memProductRepo {
	return &memProductRepo{products: make(map[uuid.UUID]catalog.Product)}
}

func (r *memProductRepo) add(p *catalog.Product) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.products[p.ID] = *p
}

func (r *memProductRepo) FindByID(_ context.Context, id uuid.UUID) (*catalog.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &p, nil
}

func (r *memProductRepo) FindByPID(_ context.Context, supplierID uuid.UUID, pid string) (*catalog.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.products {
		if p.SupplierID == supplierID && p.PID == pid {
			return &p, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *memProductRepo) FindAll(_ context.Context, _ shared.Filter) ([]catalog.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]catalog.Product, 0, len(r.products))
	for _, p := range r.products {
		out = append(out, p)
	}
	return out, nil
}

func (r *memProductRepo) FindByExternalCategory(_ context.Context, supplierID uuid.UUID, externalCategory string) ([]catalog.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []catalog.Product
	for _, p := range r.products {
		if p.SupplierID == supplierID && p.ExternalCategory == externalCategory {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *memProductRepo) FindUncategorized(_ context.Context, supplierID uuid.UUID, _ shared.Filter) ([]catalog.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []catalog.Product
	for _, p := range r.products {
		if p.SupplierID == supplierID && p.CategoryID == nil {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *memProductRepo) FindActive(_ context.Context, supplierID uuid.UUID, _ shared.Filter) ([]catalog.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []catalog.Product
	for _, p := range r.products {
		if p.SupplierID == supplierID && p.Status == catalog.ProductStatusActive {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *memProductRepo) Save(_ context.Context, product *catalog.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.products[product.ID] = *product
	return nil
}

func (r *memProductRepo) Count(_ context.Context, _ shared.Filter) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.products)), nil
}

func (r *memProductRepo) CountByExternalCategory(_ context.Context, supplierID uuid.UUID) (map[string]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := make(map[string]int64)
	for _, p := range r.products {
		if p.SupplierID == supplierID && p.CategoryID == nil && p.ExternalCategory != "" {
			counts[p.ExternalCategory]++
		}
	}
	return counts, nil
}

type memVariantRepo struct {
	mu       sync.Mutex
	variants map[uuid.UUID]catalog.Variant
}

func newMemVariantRepo() *memVariantRepo {
	return &memVariantRepo{variants: make(map[uuid.UUID]catalog.Variant)}
}

func (r *memVariantRepo) add(v *catalog.Variant) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.variants[v.ID] = *v
}

func (r *memVariantRepo) get(id uuid.UUID) catalog.Variant {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.variants[id]
}

func (r *memVariantRepo) FindByID(_ context.Context, id uuid.UUID) (*catalog.Variant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.variants[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &v, nil
}

func (r *memVariantRepo) FindByVID(_ context.Context, vid string) (*catalog.Variant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, v := range r.variants {
		if v.VID == vid {
			return &v, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *memVariantRepo) FindByProduct(_ context.Context, productID uuid.UUID) ([]catalog.Variant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []catalog.Variant
	for _, v := range r.variants {
		if v.ProductID == productID {
			out = append(out, v)
		}
	}
	return out, nil
}

func (r *memVariantRepo) FindAll(_ context.Context, _ shared.Filter) ([]catalog.Variant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]catalog.Variant, 0, len(r.variants))
	for _, v := range r.variants {
		out = append(out, v)
	}
	return out, nil
}

func (r *memVariantRepo) Save(_ context.Context, variant *catalog.Variant) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.variants[variant.ID] = *variant
	return nil
}

func (r *memVariantRepo) Count(_ context.Context, _ shared.Filter) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.variants)), nil
}

type memReviewRepo struct {
	mu      sync.Mutex
	reviews map[uuid.UUID]catalog.ProductReview
}

func newMemReviewRepo() *memReviewRepo {
	return &memReviewRepo{reviews: make(map[uuid.UUID]catalog.ProductReview)}
}

func (r *memReviewRepo) add(review *catalog.ProductReview) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reviews[review.ID] = *review
}

func (r *memReviewRepo) FindByExternalID(_ context.Context, productID uuid.UUID, externalID string) (*catalog.ProductReview, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rev := range r.reviews {
		if rev.ProductID == productID && rev.ExternalID == externalID {
			return &rev, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *memReviewRepo) FindByProduct(_ context.Context, productID uuid.UUID, _ shared.Filter) ([]catalog.ProductReview, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []catalog.ProductReview
	for _, rev := range r.reviews {
		if rev.ProductID == productID {
			out = append(out, rev)
		}
	}
	return out, nil
}

func (r *memReviewRepo) Save(_ context.Context, review *catalog.ProductReview) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reviews[review.ID] = *review
	return nil
}

func (r *memReviewRepo) CountByProduct(_ context.Context, productID uuid.UUID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, rev := range r.reviews {
		if rev.ProductID == productID {
			n++
		}
	}
	return n, nil
}

type memCategoryRepo struct {
	mu         sync.Mutex
	categories map[uuid.UUID]catalog.Category
}

func newMemCategoryRepo() *memCategoryRepo {
	return &memCategoryRepo{categories: make(map[uuid.UUID]catalog.Category)}
}

func (r *memCategoryRepo) add(c *catalog.Category) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.categories[c.ID] = *c
}

func (r *memCategoryRepo) FindByID(_ context.Context, id uuid.UUID) (*catalog.Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.categories[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &c, nil
}

func (r *memCategoryRepo) FindByCode(_ context.Context, code string) (*catalog.Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.categories {
		if c.Code == code {
			return &c, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *memCategoryRepo) FindAll(_ context.Context, _ shared.Filter) ([]catalog.Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]catalog.Category, 0, len(r.categories))
	for _, c := range r.categories {
		out = append(out, c)
	}
	return out, nil
}

func (r *memCategoryRepo) FindChildren(_ context.Context, parentID uuid.UUID) ([]catalog.Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []catalog.Category
	for _, c := range r.categories {
		if c.ParentID != nil && *c.ParentID == parentID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *memCategoryRepo) FindRootCategories(_ context.Context) ([]catalog.Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []catalog.Category
	for _, c := range r.categories {
		if c.ParentID == nil {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *memCategoryRepo) Save(_ context.Context, category *catalog.Category) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.categories[category.ID] = *category
	return nil
}

func (r *memCategoryRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.categories, id)
	return nil
}

func (r *memCategoryRepo) HasChildren(_ context.Context, categoryID uuid.UUID) (bool, error) {
	children, _ := r.FindChildren(context.Background(), categoryID)
	return len(children) > 0, nil
}

func (r *memCategoryRepo) Count(_ context.Context, _ shared.Filter) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.categories)), nil
}

type memMappingRepo struct {
	mu       sync.Mutex
	mappings map[uuid.UUID]catalog.CategoryMapping
}

func newMemMappingRepo() *memMappingRepo {
	return &memMappingRepo{mappings: make(map[uuid.UUID]catalog.CategoryMapping)}
}

func (r *memMappingRepo) FindByExternalName(_ context.Context, supplierID uuid.UUID, externalName string) (*catalog.CategoryMapping, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.mappings {
		if m.SupplierID == supplierID && m.ExternalName == externalName {
			return &m, nil
		}
	}
	return nil, nil
}

func (r *memMappingRepo) FindAll(_ context.Context, supplierID uuid.UUID) ([]catalog.CategoryMapping, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []catalog.CategoryMapping
	for _, m := range r.mappings {
		if m.SupplierID == supplierID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *memMappingRepo) Save(_ context.Context, mapping *catalog.CategoryMapping) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.mappings[mapping.ID] = *mapping
	return nil
}

type memUnmappedRepo struct {
	mu      sync.Mutex
	entries map[uuid.UUID]catalog.UnmappedExternalCategory
}

func newMemUnmappedRepo() *memUnmappedRepo {
	return &memUnmappedRepo{entries: make(map[uuid.UUID]catalog.UnmappedExternalCategory)}
}

func (r *memUnmappedRepo) add(e *catalog.UnmappedExternalCategory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[e.ID] = *e
}

func (r *memUnmappedRepo) FindByExternalName(_ context.Context, supplierID uuid.UUID, externalName string) (*catalog.UnmappedExternalCategory, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.entries {
		if e.SupplierID == supplierID && e.ExternalName == externalName {
			return &e, nil
		}
	}
	return nil, nil
}

func (r *memUnmappedRepo) FindPending(_ context.Context, supplierID uuid.UUID) ([]catalog.UnmappedExternalCategory, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []catalog.UnmappedExternalCategory
	for _, e := range r.entries {
		if e.SupplierID == supplierID && e.Status == catalog.UnmappedCategoryStatusPending {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *memUnmappedRepo) Save(_ context.Context, entry *catalog.UnmappedExternalCategory) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[entry.ID] = *entry
	return nil
}

func (r *memUnmappedRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, id)
	return nil
}

type memEventRepo struct {
	mu       sync.Mutex
	events   map[string]supplier.WebhookEvent
	saveErr  error
	lastSave *supplier.WebhookEvent
}

func newMemEventRepo() *memEventRepo {
	return &memEventRepo{events: make(map[string]supplier.WebhookEvent)}
}

func (r *memEventRepo) FindByMessageID(_ context.Context, _ uuid.UUID, messageID string) (*supplier.WebhookEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.events[messageID]
	if !ok {
		return nil, nil
	}
	return &e, nil
}

func (r *memEventRepo) Save(_ context.Context, event *supplier.WebhookEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saveErr != nil {
		return r.saveErr
	}
	r.events[event.MessageID] = *event
	r.lastSave = event
	return nil
}

func (r *memEventRepo) ListByStatus(_ context.Context, supplierID uuid.UUID, status supplier.EventStatus, _ int) ([]supplier.WebhookEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []supplier.WebhookEvent
	for _, e := range r.events {
		if e.SupplierID == supplierID && e.Status == status {
			out = append(out, e)
		}
	}
	return out, nil
}

type memIdempotencyStore struct {
	mu   sync.Mutex
	seen map[string]bool
}

func newMemIdempotencyStore() *memIdempotencyStore {
	return &memIdempotencyStore{seen: make(map[string]bool)}
}

func (s *memIdempotencyStore) MarkProcessed(_ context.Context, eventID string, _ time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.seen[eventID] {
		return false, nil
	}
	s.seen[eventID] = true
	return true, nil
}

func (s *memIdempotencyStore) IsProcessed(_ context.Context, eventID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seen[eventID], nil
}

func (s *memIdempotencyStore) Close() error { return nil }

// stubGateway serves canned supplier responses.
type stubGateway struct {
	mu       sync.Mutex
	products map[string]*supplier.ExternalProduct
	variants map[string]*supplier.ExternalVariant
	err      error
}

func newStubGateway() *stubGateway {
	return &stubGateway{
		products: make(map[string]*supplier.ExternalProduct),
		variants: make(map[string]*supplier.ExternalVariant),
	}
}

func (g *stubGateway) ListProducts(_ context.Context, _ supplier.ProductFilter, pageNum, pageSize int) (*supplier.ProductPage, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return nil, g.err
	}
	page := &supplier.ProductPage{PageNum: pageNum, PageSize: pageSize, Total: int64(len(g.products))}
	if pageNum == 1 {
		for _, p := range g.products {
			page.Products = append(page.Products, *p)
		}
	}
	return page, nil
}

func (g *stubGateway) GetProductDetail(_ context.Context, pid string) (*supplier.ExternalProduct, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return nil, g.err
	}
	p, ok := g.products[pid]
	if !ok {
		return nil, supplier.ErrProductNotFound
	}
	return p, nil
}

func (g *stubGateway) GetVariantsByPID(_ context.Context, pid string) ([]supplier.ExternalVariant, error) {
	p, err := g.GetProductDetail(context.Background(), pid)
	if err != nil {
		return nil, err
	}
	return p.Variants, nil
}

func (g *stubGateway) GetVariant(_ context.Context, vid string) (*supplier.ExternalVariant, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return nil, g.err
	}
	v, ok := g.variants[vid]
	if !ok {
		return nil, supplier.ErrVariantNotFound
	}
	return v, nil
}

func (g *stubGateway) GetStockByVID(_ context.Context, vid string) (int, error) {
	v, err := g.GetVariant(context.Background(), vid)
	if err != nil {
		return 0, err
	}
	if v.Stock == nil {
		return 0, nil
	}
	return *v.Stock, nil
}

func (g *stubGateway) ListReviews(_ context.Context, _ string, pageNum, pageSize int) (*supplier.ReviewPage, error) {
	return &supplier.ReviewPage{PageNum: pageNum, PageSize: pageSize}, nil
}

func (g *stubGateway) RegisterWebhook(_ context.Context, _ string) error { return nil }
