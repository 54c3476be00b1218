// Package dashboard collects the summary counts shown on the admin home
// page. Each count is fetched independently; a failing source reads as 0.
package dashboard

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"shop-admin/internal/apiclient"
	"shop-admin/internal/model"
	"shop-admin/internal/store"
)

// CountFunc returns one total.
type CountFunc func(ctx context.Context) (int, error)

// Summary is the dashboard's counts.
type Summary struct {
	Products    int
	Categories  int
	Orders      int
	RefreshedAt time.Time
}

type source struct {
	name     string
	count    CountFunc
	inFlight atomic.Int32
}

// Aggregator fans the count sources out in parallel.
type Aggregator struct {
	products   *source
	categories *source
	orders     *source
	logger     zerolog.Logger
	now        func() time.Time
	group      singleflight.Group

	mu      sync.Mutex
	summary Summary
}

// New creates an aggregator over the given count sources.
func New(products, categories, orders CountFunc, logger zerolog.Logger) *Aggregator {
	return &Aggregator{
		products:   &source{name: "products", count: products},
		categories: &source{name: "categories", count: categories},
		orders:     &source{name: "orders", count: orders},
		logger:     logger.With().Str("component", "dashboard").Logger(),
		now:        time.Now,
	}
}

// NewFromAPI builds the three sources on dedicated store instances, so
// dashboard fetches never disturb the stores behind the list screens.
func NewFromAPI(api apiclient.Doer, logger zerolog.Logger) *Aggregator {
	products := store.NewProducts(api, logger)
	categories := store.NewCategories(api, logger)
	orders := store.NewOrders(api, logger)
	firstItem := model.Filter{PageNumber: 1, PageSize: 1}

	return New(
		totalOf(products, firstItem),
		totalOf(categories.Store, model.Filter{}),
		totalOf(orders, firstItem),
		logger,
	)
}

func totalOf[E any](s *store.Store[E], f model.Filter) CountFunc {
	return func(ctx context.Context) (int, error) {
		if _, err := s.Fetch(ctx, f); err != nil {
			return 0, err
		}
		return s.Snapshot().TotalCount, nil
	}
}

// Refresh re-issues all three counts and waits for them. A Refresh that
// overlaps one already running shares its result. A canceled count keeps
// its previous value.
func (a *Aggregator) Refresh(ctx context.Context) Summary {
	// The shared run must outlive any single caller.
	shared := context.WithoutCancel(ctx)
	ch := a.group.DoChan("refresh", func() (any, error) {
		return a.refresh(shared), nil
	})

	select {
	case <-ctx.Done():
		return a.Summary()
	case res := <-ch:
		return res.Val.(Summary)
	}
}

func (a *Aggregator) refresh(ctx context.Context) Summary {
	prev := a.Summary()
	products, categories, orders := prev.Products, prev.Categories, prev.Orders

	var wg sync.WaitGroup
	run := func(src *source, out *int) {
		defer wg.Done()
		src.inFlight.Add(1)
		defer src.inFlight.Add(-1)

		n, err := src.count(ctx)
		switch {
		case apiclient.IsCanceled(err):
			a.logger.Debug().Str("source", src.name).Msg("summary count canceled, keeping previous")
			return
		case err != nil:
			a.logger.Debug().Err(err).Str("source", src.name).Msg("summary count unavailable")
			n = 0
		}
		*out = n
	}

	wg.Add(3)
	go run(a.products, &products)
	go run(a.categories, &categories)
	go run(a.orders, &orders)
	wg.Wait()

	summary := Summary{
		Products:    products,
		Categories:  categories,
		Orders:      orders,
		RefreshedAt: a.now(),
	}

	a.mu.Lock()
	a.summary = summary
	a.mu.Unlock()

	a.logger.Debug().
		Int("products", products).
		Int("categories", categories).
		Int("orders", orders).
		Msg("dashboard refreshed")
	return summary
}

// Summary returns the result of the last refresh.
func (a *Aggregator) Summary() Summary {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.summary
}

// Loading reports whether any count is in flight.
func (a *Aggregator) Loading() bool {
	return a.products.inFlight.Load() > 0 || a.categories.inFlight.Load() > 0 || a.orders.inFlight.Load() > 0
}
