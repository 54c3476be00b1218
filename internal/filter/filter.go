// Package filter drives list fetches from a declarative filter. A change to
// any criterion other than the page resets the page to 1, and every change
// supersedes the fetch started by the previous one.
package filter

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"shop-admin/internal/apiclient"
	"shop-admin/internal/model"
	"shop-admin/internal/store"
)

// FetchFunc loads the list for f.
type FetchFunc func(ctx context.Context, f model.Filter) error

// Controller holds the current filter and emits it to the fetch function.
type Controller struct {
	fetch      FetchFunc
	totalPages func() int
	logger     zerolog.Logger

	mu     sync.Mutex
	filter model.Filter
	latest apiclient.Latest
}

// New creates a controller. totalPages reports the bound for SetPage; nil
// means unbounded above.
func New(initial model.Filter, fetch FetchFunc, totalPages func() int, logger zerolog.Logger) *Controller {
	if initial.PageNumber < 1 {
		initial.PageNumber = 1
	}
	return &Controller{
		fetch:      fetch,
		totalPages: totalPages,
		logger:     logger.With().Str("component", "filter").Logger(),
		filter:     initial,
	}
}

// ForStore wires a controller to a store's Fetch and TotalPages.
func ForStore[E any](initial model.Filter, s *store.Store[E], logger zerolog.Logger) *Controller {
	return New(initial, func(ctx context.Context, f model.Filter) error {
		_, err := s.Fetch(ctx, f)
		return err
	}, s.TotalPages, logger)
}

// Filter returns the current filter.
func (c *Controller) Filter() model.Filter {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.filter
}

// SetFilter merges p into the filter. Changing anything but the page resets
// the page to 1. An unchanged filter emits nothing.
func (c *Controller) SetFilter(ctx context.Context, p model.FilterPatch) error {
	c.mu.Lock()
	next := c.filter.Apply(p)
	if !next.SameCriteria(c.filter) {
		next.PageNumber = 1
	}
	if err := next.Validate(); err != nil {
		c.mu.Unlock()
		return err
	}
	if next.SameCriteria(c.filter) && next.PageNumber == c.filter.PageNumber {
		c.mu.Unlock()
		return nil
	}
	c.filter = next
	c.mu.Unlock()

	return c.emit(ctx, next)
}

// SetPage moves to page n, clamped to [1, totalPages].
func (c *Controller) SetPage(ctx context.Context, n int) error {
	upper := 0
	if c.totalPages != nil {
		upper = c.totalPages()
	}
	if upper > 0 && n > upper {
		n = upper
	}
	if n < 1 {
		n = 1
	}

	c.mu.Lock()
	if c.filter.PageNumber == n {
		c.mu.Unlock()
		return nil
	}
	c.filter.PageNumber = n
	f := c.filter
	c.mu.Unlock()

	return c.emit(ctx, f)
}

// Refresh re-emits the current filter.
func (c *Controller) Refresh(ctx context.Context) error {
	return c.emit(ctx, c.Filter())
}

func (c *Controller) emit(ctx context.Context, f model.Filter) error {
	emitCtx, ticket, cancel := c.latest.Begin(ctx)
	defer cancel()

	c.logger.Debug().
		Str("search_term", f.SearchTerm).
		Str("category", f.Category).
		Int("page", f.PageNumber).
		Int("page_size", f.PageSize).
		Msg("filter emitted")

	err := c.fetch(emitCtx, f)
	if err != nil && !ticket.Current() {
		return apiclient.ErrCanceled
	}
	return err
}
