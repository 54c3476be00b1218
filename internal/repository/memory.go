package repository

import (
	"context"
	"slices"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"shop-admin/internal/model"
)

// Memory keeps the whole catalogue in process. It backs the development API
// when no database is configured. The views returned by Products,
// Categories, Locations and Orders share one lock.
type Memory struct {
	mu  sync.RWMutex
	now func() time.Time

	products   map[int]model.Product
	categories map[int]model.Category
	locations  map[int]model.StoreLocation
	orders     map[int]model.Order
	statuses   map[int][]model.OrderStatus

	seq struct {
		product, category, location, order, detail, status int
	}
}

// NewMemory creates an empty in-memory repository.
func NewMemory() *Memory {
	return &Memory{
		now:        time.Now,
		products:   make(map[int]model.Product),
		categories: make(map[int]model.Category),
		locations:  make(map[int]model.StoreLocation),
		orders:     make(map[int]model.Order),
		statuses:   make(map[int][]model.OrderStatus),
	}
}

// SetClock replaces the time source used for server-assigned timestamps.
func (m *Memory) SetClock(now func() time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = now
}

// Products returns the product view.
func (m *Memory) Products() ProductRepository { return memProducts{m} }

// Categories returns the category view.
func (m *Memory) Categories() CategoryRepository { return memCategories{m} }

// Locations returns the store location view.
func (m *Memory) Locations() LocationRepository { return memLocations{m} }

// Orders returns the order view.
func (m *Memory) Orders() OrderRepository { return memOrders{m} }

// withCategoryName fills the derived category name.
func (m *Memory) withCategoryName(p model.Product) model.Product {
	p.CategoryName = ""
	if p.CategoryID != nil {
		if c, ok := m.categories[*p.CategoryID]; ok {
			p.CategoryName = c.CategoryName
		}
	}
	return p
}

func (m *Memory) productCount(categoryID int) int {
	n := 0
	for _, p := range m.products {
		if p.CategoryID != nil && *p.CategoryID == categoryID {
			n++
		}
	}
	return n
}

// withCurrentStatus copies the latest history record onto o.
func (m *Memory) withCurrentStatus(o model.Order) model.Order {
	o.OrderDetails = slices.Clone(o.OrderDetails)
	if o.OrderDetails == nil {
		o.OrderDetails = []model.OrderDetail{}
	}
	o.CurrentStatus = 0
	o.CurrentStatusDescription = ""
	if latest, ok := Latest(m.statuses[o.OrderID]); ok {
		o.CurrentStatus = latest.Status
		o.CurrentStatusDescription = latest.Description
	}
	return o
}

// Latest returns the record with the most recent UpdatedAt. Ties go to the
// higher OrderStatusID.
func Latest(history []model.OrderStatus) (model.OrderStatus, bool) {
	if len(history) == 0 {
		return model.OrderStatus{}, false
	}
	latest := history[0]
	for _, s := range history[1:] {
		if s.UpdatedAt.After(latest.UpdatedAt) ||
			(s.UpdatedAt.Equal(latest.UpdatedAt) && s.OrderStatusID > latest.OrderStatusID) {
			latest = s
		}
	}
	return latest, true
}

func paginate[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return []T{}
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

type memProducts struct{ m *Memory }

func (r memProducts) List(ctx context.Context, q ProductQuery) ([]model.Product, int, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()

	term := strings.ToLower(strings.TrimSpace(q.SearchTerm))
	category := strings.ToLower(strings.TrimSpace(q.Category))

	matched := make([]model.Product, 0, len(r.m.products))
	for _, p := range r.m.products {
		p = r.m.withCategoryName(p)
		if term != "" &&
			!strings.Contains(strings.ToLower(p.ProductName), term) &&
			!strings.Contains(strings.ToLower(p.BriefDescription), term) {
			continue
		}
		if category != "" && !matchesCategory(p, category) {
			continue
		}
		if !q.MinPrice.IsZero() && p.Price.LessThan(q.MinPrice) {
			continue
		}
		if !q.MaxPrice.IsZero() && p.Price.GreaterThan(q.MaxPrice) {
			continue
		}
		matched = append(matched, p)
	}

	sortProducts(matched, q.SortBy, q.SortOrder)
	return paginate(matched, q.Limit, q.Offset), len(matched), nil
}

func matchesCategory(p model.Product, category string) bool {
	if p.CategoryID != nil && strconv.Itoa(*p.CategoryID) == category {
		return true
	}
	return strings.ToLower(p.CategoryName) == category
}

func sortProducts(ps []model.Product, by string, order model.SortOrder) {
	less := func(a, b model.Product) bool { return a.ProductID < b.ProductID }
	switch strings.ToLower(by) {
	case "price":
		less = func(a, b model.Product) bool {
			if a.Price.Equal(b.Price) {
				return a.ProductID < b.ProductID
			}
			return a.Price.LessThan(b.Price)
		}
	case "name", "productname":
		less = func(a, b model.Product) bool {
			an, bn := strings.ToLower(a.ProductName), strings.ToLower(b.ProductName)
			if an == bn {
				return a.ProductID < b.ProductID
			}
			return an < bn
		}
	}
	sort.Slice(ps, func(i, j int) bool {
		if order == model.SortDesc {
			return less(ps[j], ps[i])
		}
		return less(ps[i], ps[j])
	})
}

func (r memProducts) GetByID(ctx context.Context, id int) (*model.Product, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	p, ok := r.m.products[id]
	if !ok {
		return nil, nil
	}
	p = r.m.withCategoryName(p)
	return &p, nil
}

func (r memProducts) Create(ctx context.Context, p *model.Product) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if p.ProductID == 0 {
		r.m.seq.product++
		p.ProductID = r.m.seq.product
	} else if p.ProductID > r.m.seq.product {
		r.m.seq.product = p.ProductID
	}
	r.m.products[p.ProductID] = *p
	*p = r.m.withCategoryName(*p)
	return nil
}

func (r memProducts) Update(ctx context.Context, p *model.Product) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.products[p.ProductID]; !ok {
		return model.ErrNotFound
	}
	r.m.products[p.ProductID] = *p
	*p = r.m.withCategoryName(*p)
	return nil
}

func (r memProducts) Delete(ctx context.Context, id int) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.products[id]; !ok {
		return model.ErrNotFound
	}
	delete(r.m.products, id)
	return nil
}

type memCategories struct{ m *Memory }

func (r memCategories) List(ctx context.Context) ([]model.Category, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	out := make([]model.Category, 0, len(r.m.categories))
	for _, c := range r.m.categories {
		c.ProductCount = r.m.productCount(c.CategoryID)
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CategoryID < out[j].CategoryID })
	return out, nil
}

func (r memCategories) GetByID(ctx context.Context, id int) (*model.Category, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	c, ok := r.m.categories[id]
	if !ok {
		return nil, nil
	}
	c.ProductCount = r.m.productCount(id)
	return &c, nil
}

func (r memCategories) Products(ctx context.Context, categoryID int) ([]model.CategoryProduct, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	out := []model.CategoryProduct{}
	for _, p := range r.m.products {
		if p.CategoryID == nil || *p.CategoryID != categoryID {
			continue
		}
		out = append(out, model.CategoryProduct{
			ProductID:        p.ProductID,
			ProductName:      p.ProductName,
			BriefDescription: p.BriefDescription,
			Price:            p.Price,
			ImageURL:         p.ImageURL,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProductID < out[j].ProductID })
	return out, nil
}

func (r memCategories) Create(ctx context.Context, c *model.Category) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if c.CategoryID == 0 {
		r.m.seq.category++
		c.CategoryID = r.m.seq.category
	} else if c.CategoryID > r.m.seq.category {
		r.m.seq.category = c.CategoryID
	}
	c.ProductCount = r.m.productCount(c.CategoryID)
	r.m.categories[c.CategoryID] = *c
	return nil
}

func (r memCategories) Update(ctx context.Context, c *model.Category) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.categories[c.CategoryID]; !ok {
		return model.ErrNotFound
	}
	c.ProductCount = r.m.productCount(c.CategoryID)
	r.m.categories[c.CategoryID] = *c
	return nil
}

func (r memCategories) Delete(ctx context.Context, id int) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.categories[id]; !ok {
		return model.ErrNotFound
	}
	if r.m.productCount(id) > 0 {
		return model.ErrCategoryNotEmpty
	}
	delete(r.m.categories, id)
	return nil
}

type memLocations struct{ m *Memory }

func (r memLocations) List(ctx context.Context) ([]model.StoreLocation, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	out := make([]model.StoreLocation, 0, len(r.m.locations))
	for _, l := range r.m.locations {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LocationID < out[j].LocationID })
	return out, nil
}

func (r memLocations) GetByID(ctx context.Context, id int) (*model.StoreLocation, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	l, ok := r.m.locations[id]
	if !ok {
		return nil, nil
	}
	return &l, nil
}

func (r memLocations) Create(ctx context.Context, l *model.StoreLocation) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if l.LocationID == 0 {
		r.m.seq.location++
		l.LocationID = r.m.seq.location
	} else if l.LocationID > r.m.seq.location {
		r.m.seq.location = l.LocationID
	}
	r.m.locations[l.LocationID] = *l
	return nil
}

func (r memLocations) Update(ctx context.Context, l *model.StoreLocation) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.locations[l.LocationID]; !ok {
		return model.ErrNotFound
	}
	r.m.locations[l.LocationID] = *l
	return nil
}

func (r memLocations) Delete(ctx context.Context, id int) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.locations[id]; !ok {
		return model.ErrNotFound
	}
	delete(r.m.locations, id)
	return nil
}

type memOrders struct{ m *Memory }

func (r memOrders) List(ctx context.Context, q OrderQuery) ([]model.Order, int, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	matched := make([]model.Order, 0, len(r.m.orders))
	for _, o := range r.m.orders {
		o = r.m.withCurrentStatus(o)
		if q.Status != 0 && o.CurrentStatus != q.Status {
			continue
		}
		matched = append(matched, o)
	}
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].OrderDate.Equal(matched[j].OrderDate) {
			return matched[i].OrderID > matched[j].OrderID
		}
		return matched[i].OrderDate.After(matched[j].OrderDate)
	})
	return paginate(matched, q.Limit, q.Offset), len(matched), nil
}

func (r memOrders) GetByID(ctx context.Context, id int) (*model.Order, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	o, ok := r.m.orders[id]
	if !ok {
		return nil, nil
	}
	o = r.m.withCurrentStatus(o)
	return &o, nil
}

func (r memOrders) Create(ctx context.Context, o *model.Order) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if o.OrderID == 0 {
		r.m.seq.order++
		o.OrderID = r.m.seq.order
	} else if o.OrderID > r.m.seq.order {
		r.m.seq.order = o.OrderID
	}
	if o.OrderDate.IsZero() {
		o.OrderDate = r.m.now().UTC()
	}
	o.OrderDetails = slices.Clone(o.OrderDetails)
	for i := range o.OrderDetails {
		r.m.seq.detail++
		o.OrderDetails[i].OrderDetailID = r.m.seq.detail
		o.OrderDetails[i].OrderID = o.OrderID
	}
	r.m.orders[o.OrderID] = *o
	*o = r.m.withCurrentStatus(*o)
	return nil
}

func (r memOrders) Update(ctx context.Context, id int, req model.OrderUpdateRequest) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	o, ok := r.m.orders[id]
	if !ok {
		return model.ErrNotFound
	}
	o.BillingAddress = req.BillingAddress
	o.PaymentMethod = req.PaymentMethod
	r.m.orders[id] = o
	return nil
}

func (r memOrders) Delete(ctx context.Context, id int) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.orders[id]; !ok {
		return model.ErrNotFound
	}
	delete(r.m.orders, id)
	delete(r.m.statuses, id)
	return nil
}

func (r memOrders) ListStatuses(ctx context.Context, orderID int) ([]model.OrderStatus, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	if _, ok := r.m.orders[orderID]; !ok {
		return nil, model.ErrNotFound
	}
	history := slices.Clone(r.m.statuses[orderID])
	sort.SliceStable(history, func(i, j int) bool {
		if history[i].UpdatedAt.Equal(history[j].UpdatedAt) {
			return history[i].OrderStatusID < history[j].OrderStatusID
		}
		return history[i].UpdatedAt.Before(history[j].UpdatedAt)
	})
	if history == nil {
		history = []model.OrderStatus{}
	}
	return history, nil
}

func (r memOrders) AppendStatus(ctx context.Context, s *model.OrderStatus) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.orders[s.OrderID]; !ok {
		return model.ErrNotFound
	}
	if s.OrderStatusID == 0 {
		r.m.seq.status++
		s.OrderStatusID = r.m.seq.status
	} else if s.OrderStatusID > r.m.seq.status {
		r.m.seq.status = s.OrderStatusID
	}
	if s.UpdatedAt.IsZero() {
		s.UpdatedAt = r.m.now().UTC()
	}
	r.m.statuses[s.OrderID] = append(r.m.statuses[s.OrderID], *s)
	return nil
}

func (r memOrders) UpdateStatus(ctx context.Context, s *model.OrderStatus) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	history := r.m.statuses[s.OrderID]
	for i := range history {
		if history[i].OrderStatusID == s.OrderStatusID {
			history[i].Status = s.Status
			history[i].Description = s.Description
			*s = history[i]
			return nil
		}
	}
	return model.ErrNotFound
}

func (r memOrders) DeleteStatus(ctx context.Context, orderID, statusID int) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	history := r.m.statuses[orderID]
	for i := range history {
		if history[i].OrderStatusID == statusID {
			r.m.statuses[orderID] = slices.Delete(history, i, i+1)
			return nil
		}
	}
	return model.ErrNotFound
}
