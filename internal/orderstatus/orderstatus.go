// Package orderstatus manages the status history of the one order an
// operator has open. Every successful mutation re-fetches the history and
// then the order list, because the order's current status is derived by the
// server from the latest record.
package orderstatus

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"sync"

	"github.com/rs/zerolog"

	"shop-admin/internal/apiclient"
	"shop-admin/internal/model"
	"shop-admin/internal/store"
)

// Phase is the sub-store's state.
type Phase int

const (
	// Idle means no order is selected.
	Idle Phase = iota
	// Loaded means the selected order's history is held.
	Loaded
	// Mutating means a create, edit or delete is in flight.
	Mutating
	// Failed means the last mutation failed; the history is the one from
	// before the attempt.
	Failed
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Loaded:
		return "loaded"
	case Mutating:
		return "mutating"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("Phase(%d)", int(p))
	}
}

var (
	// ErrNotConfirmed is returned when a removal was not affirmed.
	ErrNotConfirmed = errors.New("status removal not confirmed")
	// ErrBusy is returned while another mutation is in flight.
	ErrBusy = errors.New("a status change is already in progress")
	// ErrNoOrder is returned when a mutation targets an order that is not
	// the selected one.
	ErrNoOrder = errors.New("order is not selected")
)

// OrderRefresher re-fetches the order list.
type OrderRefresher interface {
	Refresh(ctx context.Context) error
}

// Confirm is asked before a record is removed. Only true lets it proceed.
type Confirm func(orderID, statusID int) bool

// Snapshot is a copy of the sub-store state.
type Snapshot struct {
	Phase   Phase
	OrderID int
	History []model.OrderStatus
	Err     error
}

// Current returns the newest record, if any.
func (s Snapshot) Current() (model.OrderStatus, bool) {
	if len(s.History) == 0 {
		return model.OrderStatus{}, false
	}
	return s.History[0], true
}

// Substore is the order status sub-store.
type Substore struct {
	api    apiclient.Doer
	orders OrderRefresher
	logger zerolog.Logger

	mu       sync.Mutex
	phase    Phase
	orderID  int
	history  []model.OrderStatus
	err      error
	mutating bool
	latest   apiclient.Latest
	feed     apiclient.Feed[Snapshot]
}

// New creates a sub-store. orders may be nil when no order list is shown.
func New(api apiclient.Doer, orders OrderRefresher, logger zerolog.Logger) *Substore {
	return &Substore{
		api:    api,
		orders: orders,
		logger: logger.With().Str("component", "order-status").Logger(),
	}
}

// Snapshot returns a copy of the current state.
func (s *Substore) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Substore) snapshotLocked() Snapshot {
	return Snapshot{
		Phase:   s.phase,
		OrderID: s.orderID,
		History: append([]model.OrderStatus(nil), s.history...),
		Err:     s.err,
	}
}

// Current returns the newest record of the selected order.
func (s *Substore) Current() (model.OrderStatus, bool) {
	return s.Snapshot().Current()
}

// Subscribe registers fn to receive every state change.
func (s *Substore) Subscribe(fn func(Snapshot)) (unsubscribe func()) {
	return s.feed.Subscribe(fn)
}

// SelectOrder discards any held history and loads orderID's, newest first
// as the server returns it.
func (s *Substore) SelectOrder(ctx context.Context, orderID int) ([]model.OrderStatus, error) {
	s.mu.Lock()
	if s.mutating {
		s.mu.Unlock()
		return nil, ErrBusy
	}
	if s.orderID != orderID {
		s.history = nil
	}
	s.orderID = orderID
	s.err = nil
	s.mu.Unlock()

	return s.load(ctx, orderID)
}

// Deselect returns to Idle and drops the history.
func (s *Substore) Deselect() {
	s.latest.Cancel()
	s.mu.Lock()
	s.phase = Idle
	s.orderID = 0
	s.history = nil
	s.err = nil
	st := s.snapshotLocked()
	s.mu.Unlock()
	s.feed.Publish(st)
}

// Append adds a record to the selected order.
func (s *Substore) Append(ctx context.Context, orderID int, req model.OrderStatusRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}
	return s.mutate(ctx, orderID, apiclient.Request{
		Method: http.MethodPost,
		Path:   statusPath(orderID),
		Body:   model.NewAppendStatusBody(orderID, req),
	})
}

// Edit replaces the status and description of an existing record.
func (s *Substore) Edit(ctx context.Context, orderID, statusID int, req model.OrderStatusRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}
	return s.mutate(ctx, orderID, apiclient.Request{
		Method: http.MethodPut,
		Path:   recordPath(orderID, statusID),
		Body:   model.NewEditStatusBody(req),
	})
}

// Remove deletes a record once confirm affirms it.
func (s *Substore) Remove(ctx context.Context, orderID, statusID int, confirm Confirm) error {
	if confirm == nil || !confirm(orderID, statusID) {
		return ErrNotConfirmed
	}
	return s.mutate(ctx, orderID, apiclient.Request{
		Method: http.MethodDelete,
		Path:   recordPath(orderID, statusID),
	})
}

func (s *Substore) mutate(ctx context.Context, orderID int, req apiclient.Request) error {
	s.mu.Lock()
	if s.mutating {
		s.mu.Unlock()
		return ErrBusy
	}
	if s.phase == Idle || s.orderID != orderID {
		s.mu.Unlock()
		return fmt.Errorf("order %d: %w", orderID, ErrNoOrder)
	}
	s.mutating = true
	s.phase = Mutating
	st := s.snapshotLocked()
	s.mu.Unlock()
	s.feed.Publish(st)

	_, err := s.api.Do(ctx, req)
	if err != nil {
		s.fail(err)
		if !apiclient.IsCanceled(err) {
			s.logger.Warn().Err(err).Int("order_id", orderID).Str("method", req.Method).Msg("status change failed")
		}
		return err
	}

	s.logger.Info().Int("order_id", orderID).Str("method", req.Method).Msg("status change accepted")

	_, err = s.load(ctx, orderID)
	s.mu.Lock()
	s.mutating = false
	s.mu.Unlock()
	if err != nil {
		return fmt.Errorf("reload status history: %w", err)
	}
	if s.orders != nil {
		if err := s.orders.Refresh(ctx); err != nil && !apiclient.IsCanceled(err) {
			return fmt.Errorf("refresh orders: %w", err)
		}
	}
	return nil
}

func (s *Substore) fail(err error) {
	s.mu.Lock()
	s.mutating = false
	if apiclient.IsCanceled(err) {
		s.phase = Loaded
	} else {
		s.phase = Failed
		s.err = err
	}
	st := s.snapshotLocked()
	s.mu.Unlock()
	s.feed.Publish(st)
}

func (s *Substore) load(ctx context.Context, orderID int) ([]model.OrderStatus, error) {
	s.mu.Lock()
	if ctx.Err() != nil {
		if s.phase == Mutating {
			s.phase = Loaded
		}
		s.mu.Unlock()
		return nil, apiclient.ErrCanceled
	}
	loadCtx, ticket, cancel := s.latest.Begin(ctx)
	defer cancel()
	s.mu.Unlock()

	resp, err := s.api.Do(loadCtx, apiclient.Request{
		Method: http.MethodGet,
		Path:   statusPath(orderID) + "/all",
		Query:  url.Values{"sort": {"desc"}},
	})
	var history []model.OrderStatus
	if err == nil {
		var page store.Page[model.OrderStatus]
		page, err = store.DecodeList[model.OrderStatus](resp.Body, "")
		if err != nil {
			err = &apiclient.NetworkError{Message: err.Error(), Err: err}
		}
		history = page.Items
	}

	s.mu.Lock()
	if !ticket.Current() || ctx.Err() != nil || apiclient.IsCanceled(err) || s.orderID != orderID {
		if s.phase == Mutating {
			s.phase = Loaded
		}
		s.mu.Unlock()
		return nil, apiclient.ErrCanceled
	}
	if err != nil {
		s.err = err
		s.phase = Failed
		st := s.snapshotLocked()
		s.mu.Unlock()
		s.feed.Publish(st)
		return nil, err
	}
	s.history = history
	s.phase = Loaded
	s.err = nil
	st := s.snapshotLocked()
	s.mu.Unlock()
	s.feed.Publish(st)

	s.logger.Debug().Int("order_id", orderID).Int("records", len(history)).Msg("status history loaded")
	return st.History, nil
}

func statusPath(orderID int) string {
	return store.OrdersPath + "/" + strconv.Itoa(orderID) + "/status"
}

func recordPath(orderID, statusID int) string {
	return statusPath(orderID) + "/" + strconv.Itoa(statusID)
}
