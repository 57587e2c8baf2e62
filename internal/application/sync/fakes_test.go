package sync

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/domain/supplier"
)

// ---------------------------------------------------------------------------
// In-Memory Repositories
// ---------------------------------------------------------------------------

type memProductRepo struct {
	mu       sync.Mutex
	products map[uuid.UUID]catalog.Product
}

func newMemProductRepo() *memProductRepo {
	return &memProductRepo{products: make(map[uuid.UUID]catalog.Product)}
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

func (r *memProductRepo) FindAll(_ context.Context, filter shared.Filter) ([]catalog.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return paginate(r.sorted(func(catalog.Product) bool { return true }), filter), nil
}

func (r *memProductRepo) FindByExternalCategory(_ context.Context, supplierID uuid.UUID, externalCategory string) ([]catalog.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sorted(func(p catalog.Product) bool {
		return p.SupplierID == supplierID && p.ExternalCategory == externalCategory
	}), nil
}

func (r *memProductRepo) FindUncategorized(_ context.Context, supplierID uuid.UUID, filter shared.Filter) ([]catalog.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return paginate(r.sorted(func(p catalog.Product) bool {
		return p.SupplierID == supplierID && p.CategoryID == nil
	}), filter), nil
}

func (r *memProductRepo) FindActive(_ context.Context, supplierID uuid.UUID, filter shared.Filter) ([]catalog.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return paginate(r.sorted(func(p catalog.Product) bool {
		return p.SupplierID == supplierID && p.IsActive()
	}), filter), nil
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

func (r *memProductRepo) sorted(keep func(catalog.Product) bool) []catalog.Product {
	out := make([]catalog.Product, 0, len(r.products))
	for _, p := range r.products {
		if keep(p) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.String() < out[j].ID.String() })
	return out
}

type memVariantRepo struct {
	mu       sync.Mutex
	variants map[uuid.UUID]catalog.Variant
	saves    atomic.Int64
}

func newMemVariantRepo() *memVariantRepo {
	return &memVariantRepo{variants: make(map[uuid.UUID]catalog.Variant)}
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
	return r.sorted(func(v catalog.Variant) bool { return v.ProductID == productID }), nil
}

func (r *memVariantRepo) FindAll(_ context.Context, filter shared.Filter) ([]catalog.Variant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return paginate(r.sorted(func(catalog.Variant) bool { return true }), filter), nil
}

func (r *memVariantRepo) Save(_ context.Context, variant *catalog.Variant) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saves.Add(1)
	r.variants[variant.ID] = *variant
	return nil
}

func (r *memVariantRepo) Count(_ context.Context, _ shared.Filter) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.variants)), nil
}

func (r *memVariantRepo) sorted(keep func(catalog.Variant) bool) []catalog.Variant {
	out := make([]catalog.Variant, 0, len(r.variants))
	for _, v := range r.variants {
		if keep(v) {
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.String() < out[j].ID.String() })
	return out
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
	out := make([]catalog.CategoryMapping, 0, len(r.mappings))
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
	out := make([]catalog.UnmappedExternalCategory, 0, len(r.entries))
	for _, e := range r.entries {
		if e.SupplierID == supplierID && e.IsPending() {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProductCount > out[j].ProductCount })
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

type memCategoryRepo struct {
	mu         sync.Mutex
	categories map[uuid.UUID]catalog.Category
}

func newMemCategoryRepo() *memCategoryRepo {
	return &memCategoryRepo{categories: make(map[uuid.UUID]catalog.Category)}
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
	out := make([]catalog.Category, 0)
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
	out := make([]catalog.Category, 0)
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

func (r *memCategoryRepo) HasChildren(_ context.Context, id uuid.UUID) (bool, error) {
	children, _ := r.FindChildren(context.Background(), id)
	return len(children) > 0, nil
}

func (r *memCategoryRepo) Count(_ context.Context, _ shared.Filter) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.categories)), nil
}

type memReviewRepo struct {
	mu      sync.Mutex
	reviews map[uuid.UUID]catalog.ProductReview
}

func newMemReviewRepo() *memReviewRepo {
	return &memReviewRepo{reviews: make(map[uuid.UUID]catalog.ProductReview)}
}

func (r *memReviewRepo) FindByExternalID(_ context.Context, productID uuid.UUID, externalID string) (*catalog.ProductReview, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rv := range r.reviews {
		if rv.ProductID == productID && rv.ExternalID == externalID {
			return &rv, nil
		}
	}
	return nil, nil
}

func (r *memReviewRepo) FindByProduct(_ context.Context, productID uuid.UUID, _ shared.Filter) ([]catalog.ProductReview, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]catalog.ProductReview, 0)
	for _, rv := range r.reviews {
		if rv.ProductID == productID && rv.Visible {
			out = append(out, rv)
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
	reviews, _ := r.FindByProduct(context.Background(), productID, shared.Filter{})
	return int64(len(reviews)), nil
}

type memEventRepo struct {
	mu     sync.Mutex
	events map[string]supplier.WebhookEvent
}

func newMemEventRepo() *memEventRepo {
	return &memEventRepo{events: make(map[string]supplier.WebhookEvent)}
}

func (r *memEventRepo) FindByMessageID(_ context.Context, supplierID uuid.UUID, messageID string) (*supplier.WebhookEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.events[supplierID.String()+"/"+messageID]
	if !ok {
		return nil, nil
	}
	return &e, nil
}

func (r *memEventRepo) Save(_ context.Context, event *supplier.WebhookEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events[event.SupplierID.String()+"/"+event.MessageID] = *event
	return nil
}

func (r *memEventRepo) ListByStatus(_ context.Context, supplierID uuid.UUID, status supplier.EventStatus, limit int) ([]supplier.WebhookEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]supplier.WebhookEvent, 0)
	for _, e := range r.events {
		if e.SupplierID == supplierID && e.Status == status {
			out = append(out, e)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
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

// ---------------------------------------------------------------------------
// Gateway Stub
// ---------------------------------------------------------------------------

// stubGateway serves canned catalog data and counts calls
type stubGateway struct {
	mu       sync.Mutex
	products map[string]*supplier.ExternalProduct
	stock    map[string]int
	reviews  map[string][]supplier.ExternalReview

	// emptyListForMissing makes the variant query answer an empty list
	// instead of a missing-product error, as some supplier endpoints do.
	emptyListForMissing bool

	listCalls     atomic.Int64
	variantCalls  atomic.Int64
	stockCalls    atomic.Int64
	webhookTarget string
}

func newStubGateway() *stubGateway {
	return &stubGateway{
		products: make(map[string]*supplier.ExternalProduct),
		stock:    make(map[string]int),
		reviews:  make(map[string][]supplier.ExternalReview),
	}
}

func (g *stubGateway) addProduct(p supplier.ExternalProduct) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.products[p.PID] = &p
}

func (g *stubGateway) ListProducts(_ context.Context, _ supplier.ProductFilter, pageNum, pageSize int) (*supplier.ProductPage, error) {
	g.listCalls.Add(1)
	g.mu.Lock()
	defer g.mu.Unlock()

	pids := make([]string, 0, len(g.products))
	for pid := range g.products {
		pids = append(pids, pid)
	}
	sort.Strings(pids)

	start := (pageNum - 1) * pageSize
	end := start + pageSize
	if start > len(pids) {
		start = len(pids)
	}
	if end > len(pids) {
		end = len(pids)
	}

	page := &supplier.ProductPage{PageNum: pageNum, PageSize: pageSize, Total: int64(len(pids))}
	for _, pid := range pids[start:end] {
		page.Products = append(page.Products, *g.products[pid])
	}
	return page, nil
}

func (g *stubGateway) GetProductDetail(_ context.Context, pid string) (*supplier.ExternalProduct, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	p, ok := g.products[pid]
	if !ok {
		return nil, fmt.Errorf("%w: pid %s", supplier.ErrProductNotFound, pid)
	}
	return p, nil
}

func (g *stubGateway) GetVariantsByPID(_ context.Context, pid string) ([]supplier.ExternalVariant, error) {
	g.variantCalls.Add(1)
	g.mu.Lock()
	defer g.mu.Unlock()
	p, ok := g.products[pid]
	if !ok {
		if g.emptyListForMissing {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: pid %s", supplier.ErrProductNotFound, pid)
	}
	return p.Variants, nil
}

func (g *stubGateway) GetVariant(_ context.Context, vid string) (*supplier.ExternalVariant, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, p := range g.products {
		for i := range p.Variants {
			if p.Variants[i].VID == vid {
				return &p.Variants[i], nil
			}
		}
	}
	return nil, fmt.Errorf("%w: vid %s", supplier.ErrVariantNotFound, vid)
}

func (g *stubGateway) GetStockByVID(_ context.Context, vid string) (int, error) {
	g.stockCalls.Add(1)
	g.mu.Lock()
	defer g.mu.Unlock()
	stock, ok := g.stock[vid]
	if !ok {
		return 0, fmt.Errorf("%w: vid %s", supplier.ErrVariantNotFound, vid)
	}
	return stock, nil
}

func (g *stubGateway) ListReviews(_ context.Context, pid string, pageNum, pageSize int) (*supplier.ReviewPage, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	all := g.reviews[pid]

	start := (pageNum - 1) * pageSize
	end := start + pageSize
	if start > len(all) {
		start = len(all)
	}
	if end > len(all) {
		end = len(all)
	}

	return &supplier.ReviewPage{
		Reviews:  all[start:end],
		PageNum:  pageNum,
		PageSize: pageSize,
		Total:    int64(len(all)),
	}, nil
}

func (g *stubGateway) RegisterWebhook(_ context.Context, callbackURL string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.webhookTarget = callbackURL
	return nil
}

var _ supplier.Gateway = (*stubGateway)(nil)

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func paginate[T any](items []T, filter shared.Filter) []T {
	if filter.Page < 1 || filter.PageSize < 1 {
		return items
	}
	start := (filter.Page - 1) * filter.PageSize
	end := start + filter.PageSize
	if start > len(items) {
		start = len(items)
	}
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

var (
	_ catalog.ProductRepository          = (*memProductRepo)(nil)
	_ catalog.VariantRepository          = (*memVariantRepo)(nil)
	_ catalog.CategoryMappingRepository  = (*memMappingRepo)(nil)
	_ catalog.UnmappedCategoryRepository = (*memUnmappedRepo)(nil)
	_ catalog.CategoryRepository         = (*memCategoryRepo)(nil)
	_ catalog.ProductReviewRepository    = (*memReviewRepo)(nil)
	_ supplier.WebhookEventRepository    = (*memEventRepo)(nil)
	_ shared.IdempotencyStore            = (*memIdempotencyStore)(nil)
)
