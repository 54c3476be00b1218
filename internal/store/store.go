// Package store holds one entity collection's client-side state. Every
// state change is driven by a confirmed server response; a failed call
// never touches the collection.
package store

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"sync"

	"github.com/rs/zerolog"

	"shop-admin/internal/apiclient"
	"shop-admin/internal/model"
)

// Descriptor tells a Store where its entity lives and how to read it.
type Descriptor[E any] struct {
	// Name is used in logs.
	Name string
	// Path is the collection endpoint, e.g. /api/products.
	Path string
	// Field is the collection field of the list envelope. Empty means the
	// server only ever returns a bare array.
	Field string
	// EntityField optionally wraps single-entity responses.
	EntityField string
	// ID returns the entity's identity.
	ID func(E) int
	// Query builds the list query. Nil sends no query.
	Query func(model.Filter) url.Values
}

// State is a consistent snapshot of a store.
type State[E any] struct {
	Items      []E
	TotalCount int
	PageNumber int
	PageSize   int
	TotalPages int
	Loading    bool
	Err        error
}

// Error returns the recorded error message, or "".
func (s State[E]) Error() string {
	return apiclient.Message(s.Err)
}

// Store is a Resource Store for entity type E.
type Store[E any] struct {
	desc   Descriptor[E]
	api    apiclient.Doer
	logger zerolog.Logger

	mu     sync.Mutex
	state  State[E]
	filter model.Filter
	latest apiclient.Latest
	feed   apiclient.Feed[State[E]]
}

// New creates a store for desc over api.
func New[E any](desc Descriptor[E], api apiclient.Doer, logger zerolog.Logger) *Store[E] {
	return &Store[E]{
		desc:   desc,
		api:    api,
		logger: logger.With().Str("component", "store").Str("entity", desc.Name).Logger(),
		state:  State[E]{Items: []E{}, TotalPages: 1},
	}
}

// Snapshot returns a copy of the current state.
func (s *Store[E]) Snapshot() State[E] {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Store[E]) snapshotLocked() State[E] {
	out := s.state
	out.Items = append([]E(nil), s.state.Items...)
	return out
}

// Filter returns the filter of the last fetch.
func (s *Store[E]) Filter() model.Filter {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filter
}

// Loading reports whether a fetch is outstanding.
func (s *Store[E]) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Loading
}

// TotalPages returns the page count of the last applied fetch.
func (s *Store[E]) TotalPages() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.TotalPages
}

// Subscribe registers fn to receive every state change.
func (s *Store[E]) Subscribe(fn func(State[E])) (unsubscribe func()) {
	return s.feed.Subscribe(fn)
}

// publish must be called without s.mu held.
func (s *Store[E]) publish(st State[E]) {
	s.feed.Publish(st)
}

// Fetch loads the list for f and replaces the collection with it. Starting
// a fetch cancels the previous one; a superseded or canceled fetch returns
// apiclient.ErrCanceled and leaves items and error as they were.
func (s *Store[E]) Fetch(ctx context.Context, f model.Filter) ([]E, error) {
	s.mu.Lock()
	if ctx.Err() != nil {
		s.mu.Unlock()
		return nil, apiclient.ErrCanceled
	}
	fetchCtx, ticket, cancel := s.latest.Begin(ctx)
	defer cancel()
	s.filter = f
	s.state.Loading = true
	loading := s.snapshotLocked()
	s.mu.Unlock()
	s.publish(loading)

	var query url.Values
	if s.desc.Query != nil {
		query = s.desc.Query(f)
	}
	resp, err := s.api.Do(fetchCtx, apiclient.Request{Method: http.MethodGet, Path: s.desc.Path, Query: query})

	var page Page[E]
	if err == nil {
		page, err = DecodeList[E](resp.Body, s.desc.Field)
		if err != nil {
			err = &apiclient.NetworkError{Message: err.Error(), Err: err}
		}
	}

	s.mu.Lock()
	if !ticket.Current() {
		s.mu.Unlock()
		s.logger.Debug().Msg("discarding superseded fetch")
		return nil, apiclient.ErrCanceled
	}
	if ctx.Err() != nil || apiclient.IsCanceled(err) {
		s.state.Loading = false
		st := s.snapshotLocked()
		s.mu.Unlock()
		s.publish(st)
		return nil, apiclient.ErrCanceled
	}
	s.state.Loading = false
	if err != nil {
		s.state.Err = err
		st := s.snapshotLocked()
		s.mu.Unlock()
		s.publish(st)
		s.logger.Warn().Err(err).Msg("fetch failed")
		return nil, err
	}

	s.state.Items = page.Items
	s.state.TotalCount = page.TotalCount
	s.state.PageNumber = firstPositive(page.PageNumber, f.PageNumber, 1)
	s.state.PageSize = firstPositive(page.PageSize, f.PageSize, len(page.Items))
	s.state.TotalPages = page.TotalPages
	if s.state.TotalPages <= 0 {
		s.state.TotalPages = TotalPages(s.state.TotalCount, s.state.PageSize)
	}
	s.state.Err = nil
	st := s.snapshotLocked()
	s.mu.Unlock()
	s.publish(st)

	s.logger.Debug().
		Int("items", len(st.Items)).
		Int("total", st.TotalCount).
		Int("page", st.PageNumber).
		Msg("fetch applied")
	return st.Items, nil
}

// Refresh re-issues the last fetch.
func (s *Store[E]) Refresh(ctx context.Context) error {
	_, err := s.Fetch(ctx, s.Filter())
	return err
}

// Get fetches one entity without touching the collection.
func (s *Store[E]) Get(ctx context.Context, id int) (E, error) {
	var zero E
	resp, err := s.api.Do(ctx, apiclient.Request{Method: http.MethodGet, Path: s.entityPath(id)})
	if err != nil {
		return zero, err
	}
	entity, err := DecodeEntity[E](resp.Body, s.desc.EntityField)
	if err != nil {
		return zero, &apiclient.NetworkError{Message: err.Error(), Err: err}
	}
	return entity, nil
}

// Create posts body and appends the server's entity. A response without an
// entity re-fetches the collection instead.
func (s *Store[E]) Create(ctx context.Context, body any) (E, error) {
	var zero E
	entity, err := s.mutate(ctx, http.MethodPost, s.desc.Path, body)
	if err != nil {
		return zero, err
	}
	if s.desc.ID(entity) == 0 {
		if err := s.Refresh(ctx); err != nil && !apiclient.IsCanceled(err) {
			s.logger.Warn().Err(err).Msg("refresh after create failed")
		}
		return entity, nil
	}

	s.mu.Lock()
	s.state.Items = append(s.state.Items, entity)
	s.state.TotalCount++
	s.state.TotalPages = TotalPages(s.state.TotalCount, s.state.PageSize)
	s.state.Err = nil
	st := s.snapshotLocked()
	s.mu.Unlock()
	s.publish(st)
	return entity, nil
}

// Update puts body to the entity and replaces the matching item. An item
// not present in the collection is not inserted.
func (s *Store[E]) Update(ctx context.Context, id int, body any) (E, error) {
	var zero E
	entity, err := s.mutate(ctx, http.MethodPut, s.entityPath(id), body)
	if err != nil {
		return zero, err
	}

	// Servers answering 204 leave the entity empty; keep the id we asked for.
	matchID := id
	if got := s.desc.ID(entity); got != 0 {
		matchID = got
	}

	s.mu.Lock()
	for i := range s.state.Items {
		if s.desc.ID(s.state.Items[i]) == matchID {
			if s.desc.ID(entity) != 0 {
				s.state.Items[i] = entity
			}
			break
		}
	}
	s.state.Err = nil
	st := s.snapshotLocked()
	s.mu.Unlock()
	s.publish(st)
	return entity, nil
}

// Delete removes the entity and decrements the total, never below zero.
func (s *Store[E]) Delete(ctx context.Context, id int) error {
	if _, err := s.do(ctx, http.MethodDelete, s.entityPath(id), nil); err != nil {
		return err
	}

	s.mu.Lock()
	items := s.state.Items[:0:0]
	for _, item := range s.state.Items {
		if s.desc.ID(item) != id {
			items = append(items, item)
		}
	}
	s.state.Items = items
	if s.state.TotalCount > 0 {
		s.state.TotalCount--
	}
	s.state.TotalPages = TotalPages(s.state.TotalCount, s.state.PageSize)
	s.state.Err = nil
	st := s.snapshotLocked()
	s.mu.Unlock()
	s.publish(st)
	return nil
}

func (s *Store[E]) mutate(ctx context.Context, method, path string, body any) (E, error) {
	var zero E
	resp, err := s.do(ctx, method, path, body)
	if err != nil {
		return zero, err
	}
	if len(resp.Body) == 0 {
		return zero, nil
	}
	entity, err := DecodeEntity[E](resp.Body, s.desc.EntityField)
	if err != nil {
		wrapped := &apiclient.NetworkError{Message: err.Error(), Err: err}
		s.recordError(wrapped)
		return zero, wrapped
	}
	return entity, nil
}

// do issues a mutation and records its failure on the store.
func (s *Store[E]) do(ctx context.Context, method, path string, body any) (*apiclient.Response, error) {
	resp, err := s.api.Do(ctx, apiclient.Request{Method: method, Path: path, Body: body})
	if err != nil {
		if !apiclient.IsCanceled(err) {
			s.recordError(err)
			s.logger.Warn().Err(err).Str("method", method).Str("path", path).Msg("mutation failed")
		}
		return nil, err
	}
	return resp, nil
}

func (s *Store[E]) recordError(err error) {
	s.mu.Lock()
	s.state.Err = err
	st := s.snapshotLocked()
	s.mu.Unlock()
	s.publish(st)
}

func (s *Store[E]) entityPath(id int) string {
	return s.desc.Path + "/" + strconv.Itoa(id)
}

// Path returns the collection endpoint.
func (s *Store[E]) Path() string {
	return s.desc.Path
}

// Find returns the loaded item with id.
func (s *Store[E]) Find(id int) (E, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, item := range s.state.Items {
		if s.desc.ID(item) == id {
			return item, true
		}
	}
	var zero E
	return zero, false
}

func firstPositive(vals ...int) int {
	for _, v := range vals {
		if v > 0 {
			return v
		}
	}
	return 0
}
