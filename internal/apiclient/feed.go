package apiclient

import (
	"context"
	"sync"
)

// State is one observation of a call: loading, then data or error.
type State struct {
	Request Request
	Data    []byte
	Err     error
	Loading bool
}

// Feed fans values out to subscribers. Publish never blocks on a slow
// subscriber for longer than its callback takes.
type Feed[T any] struct {
	mu     sync.RWMutex
	nextID int
	subs   map[int]func(T)
}

// Subscribe registers fn and returns a func that removes it.
func (f *Feed[T]) Subscribe(fn func(T)) (unsubscribe func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.subs == nil {
		f.subs = make(map[int]func(T))
	}
	id := f.nextID
	f.nextID++
	f.subs[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			f.mu.Lock()
			delete(f.subs, id)
			f.mu.Unlock()
		})
	}
}

// Publish calls every subscriber with v.
func (f *Feed[T]) Publish(v T) {
	f.mu.RLock()
	subs := make([]func(T), 0, len(f.subs))
	for _, fn := range f.subs {
		subs = append(subs, fn)
	}
	f.mu.RUnlock()

	for _, fn := range subs {
		fn(v)
	}
}

// Len returns the number of subscribers.
func (f *Feed[T]) Len() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.subs)
}

// Observe publishes a loading state before each call and the outcome after.
// Canceled calls publish nothing further.
func Observe(feed *Feed[State]) Middleware {
	return func(next Doer) Doer {
		return DoerFunc(func(ctx context.Context, req Request) (*Response, error) {
			feed.Publish(State{Request: req, Loading: true})
			resp, err := next.Do(ctx, req)
			switch {
			case IsCanceled(err):
			case err != nil:
				feed.Publish(State{Request: req, Err: err})
			default:
				feed.Publish(State{Request: req, Data: resp.Body})
			}
			return resp, err
		})
	}
}
