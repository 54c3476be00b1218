package apiclient

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shop-admin/internal/session"
)

// countingDoer answers every call with the configured result.
type countingDoer struct {
	calls   atomic.Int32
	delay   time.Duration
	results []error
	status  int
}

func (d *countingDoer) Do(ctx context.Context, req Request) (*Response, error) {
	n := int(d.calls.Add(1))
	if d.delay > 0 {
		select {
		case <-time.After(d.delay):
		case <-ctx.Done():
			return nil, ErrCanceled
		}
	}
	if n <= len(d.results) && d.results[n-1] != nil {
		return nil, d.results[n-1]
	}
	status := d.status
	if status == 0 {
		status = http.StatusOK
	}
	return &Response{Status: status, Body: []byte(req.Key())}, nil
}

func TestCache_ServesRepeatedGetFromCache(t *testing.T) {
	upstream := &countingDoer{}
	cache := NewCache(time.Minute, 10)
	d := Chain(upstream, cache.Middleware())

	for i := 0; i < 3; i++ {
		resp, err := d.Do(context.Background(), Request{Path: "/api/categories"})
		require.NoError(t, err)
		assert.Equal(t, "GET /api/categories", string(resp.Body))
	}
	assert.EqualValues(t, 1, upstream.calls.Load())
	assert.Equal(t, 1, cache.Len())
}

func TestCache_CoalescesConcurrentGets(t *testing.T) {
	upstream := &countingDoer{delay: 50 * time.Millisecond}
	d := Chain(upstream, NewCache(time.Minute, 10).Middleware())

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := d.Do(context.Background(), Request{Path: "/api/products"})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.EqualValues(t, 1, upstream.calls.Load())
}

func TestCache_OneWaiterCancelingDoesNotFailOthers(t *testing.T) {
	upstream := &countingDoer{delay: 80 * time.Millisecond}
	d := Chain(upstream, NewCache(time.Minute, 10).Middleware())

	ctx, cancel := context.WithCancel(context.Background())
	errs := make(chan error, 2)
	go func() {
		_, err := d.Do(ctx, Request{Path: "/api/orders"})
		errs <- err
	}()
	go func() {
		_, err := d.Do(context.Background(), Request{Path: "/api/orders"})
		errs <- err
	}()
	time.Sleep(10 * time.Millisecond)
	cancel()

	var canceled, ok int
	for i := 0; i < 2; i++ {
		if err := <-errs; err == nil {
			ok++
		} else if IsCanceled(err) {
			canceled++
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, canceled)
}

func TestCache_SuccessfulMutationPurges(t *testing.T) {
	upstream := &countingDoer{}
	cache := NewCache(time.Minute, 10)
	d := Chain(upstream, cache.Middleware())

	_, err := d.Do(context.Background(), Request{Path: "/api/categories"})
	require.NoError(t, err)
	_, err = d.Do(context.Background(), Request{Method: http.MethodPost, Path: "/api/categories"})
	require.NoError(t, err)
	assert.Equal(t, 0, cache.Len())

	_, err = d.Do(context.Background(), Request{Path: "/api/categories"})
	require.NoError(t, err)
	assert.EqualValues(t, 3, upstream.calls.Load())
}

// versionDoer answers GETs with the number of mutations seen when the call
// started. GETs block on release when it is set.
type versionDoer struct {
	version atomic.Int32
	gets    atomic.Int32
	started chan struct{}
	release chan struct{}
}

func (d *versionDoer) Do(ctx context.Context, req Request) (*Response, error) {
	if req.method() != http.MethodGet {
		d.version.Add(1)
		return &Response{Status: http.StatusCreated}, nil
	}
	v := d.version.Load()
	if d.gets.Add(1) == 1 && d.release != nil {
		close(d.started)
		<-d.release
	}
	return &Response{Status: http.StatusOK, Body: []byte(strconv.Itoa(int(v)))}, nil
}

func TestCache_GetAfterMutationDoesNotJoinEarlierFlight(t *testing.T) {
	upstream := &versionDoer{started: make(chan struct{}), release: make(chan struct{})}
	cache := NewCache(time.Minute, 10)
	d := Chain(upstream, cache.Middleware())

	first := make(chan string, 1)
	go func() {
		resp, err := d.Do(context.Background(), Request{Path: "/api/Order"})
		if err != nil {
			first <- err.Error()
			return
		}
		first <- string(resp.Body)
	}()
	<-upstream.started

	_, err := d.Do(context.Background(), Request{Method: http.MethodPost, Path: "/api/OrderStatus"})
	require.NoError(t, err)

	second := make(chan string, 1)
	go func() {
		resp, err := d.Do(context.Background(), Request{Path: "/api/Order"})
		if err != nil {
			second <- err.Error()
			return
		}
		second <- string(resp.Body)
	}()

	assert.Equal(t, "1", <-second)
	close(upstream.release)
	assert.Equal(t, "0", <-first)
	assert.EqualValues(t, 2, upstream.gets.Load())

	resp, err := d.Do(context.Background(), Request{Path: "/api/Order"})
	require.NoError(t, err)
	assert.Equal(t, "1", string(resp.Body))
	assert.EqualValues(t, 2, upstream.gets.Load())
}

func TestCache_ScopedToSession(t *testing.T) {
	upstream := &countingDoer{}
	sessions := session.NewMemoryStore(session.Session{Token: "alice-token", Username: "alice"})
	cache := NewCache(time.Minute, 10, ScopedTo(sessions))
	d := Chain(upstream, cache.Middleware())

	_, err := d.Do(context.Background(), Request{Path: "/api/auth/profile"})
	require.NoError(t, err)
	_, err = d.Do(context.Background(), Request{Path: "/api/auth/profile"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, upstream.calls.Load())

	require.NoError(t, sessions.Save(session.Session{Token: "bob-token", Username: "bob"}))
	_, err = d.Do(context.Background(), Request{Path: "/api/auth/profile"})
	require.NoError(t, err)
	assert.EqualValues(t, 2, upstream.calls.Load())
	assert.Equal(t, 2, cache.Len())
}

func TestCache_FailedMutationKeepsEntries(t *testing.T) {
	upstream := &countingDoer{results: []error{nil, &HTTPError{Status: 400}}}
	cache := NewCache(time.Minute, 10)
	d := Chain(upstream, cache.Middleware())

	_, err := d.Do(context.Background(), Request{Path: "/api/categories"})
	require.NoError(t, err)
	_, err = d.Do(context.Background(), Request{Method: http.MethodPut, Path: "/api/categories/1"})
	require.Error(t, err)
	assert.Equal(t, 1, cache.Len())
}

func TestCache_ErrorsAreNotCached(t *testing.T) {
	upstream := &countingDoer{results: []error{&HTTPError{Status: 500}}}
	d := Chain(upstream, NewCache(time.Minute, 10).Middleware())

	_, err := d.Do(context.Background(), Request{Path: "/api/products"})
	require.Error(t, err)
	_, err = d.Do(context.Background(), Request{Path: "/api/products"})
	require.NoError(t, err)
	assert.EqualValues(t, 2, upstream.calls.Load())
}

func TestCache_EntriesExpire(t *testing.T) {
	upstream := &countingDoer{}
	d := Chain(upstream, NewCache(20*time.Millisecond, 10).Middleware())

	_, err := d.Do(context.Background(), Request{Path: "/api/StoreLocation"})
	require.NoError(t, err)
	time.Sleep(60 * time.Millisecond)
	_, err = d.Do(context.Background(), Request{Path: "/api/StoreLocation"})
	require.NoError(t, err)
	assert.EqualValues(t, 2, upstream.calls.Load())
}

func TestWithRetry(t *testing.T) {
	netErr := &NetworkError{Message: "connection reset"}
	tests := []struct {
		name          string
		method        string
		results       []error
		expectErr     bool
		expectedCalls int32
	}{
		{name: "Recovers from network error", method: http.MethodGet, results: []error{netErr, netErr}, expectedCalls: 3},
		{name: "Recovers from 5xx", method: http.MethodGet, results: []error{&HTTPError{Status: 503}}, expectedCalls: 2},
		{name: "4xx is permanent", method: http.MethodGet, results: []error{&HTTPError{Status: 404}}, expectErr: true, expectedCalls: 1},
		{name: "Gives up after max retries", method: http.MethodGet, results: []error{netErr, netErr, netErr, netErr}, expectErr: true, expectedCalls: 4},
		{name: "Mutations are not retried", method: http.MethodPost, results: []error{netErr}, expectErr: true, expectedCalls: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			upstream := &countingDoer{results: tt.results}
			d := Chain(upstream, WithRetry(RetryConfig{
				MaxRetries:      3,
				InitialInterval: time.Millisecond,
				MaxInterval:     2 * time.Millisecond,
				Logger:          zerolog.Nop(),
			}))

			_, err := d.Do(context.Background(), Request{Method: tt.method, Path: "/api/products"})
			if tt.expectErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.expectedCalls, upstream.calls.Load())
		})
	}
}

func TestWithRetry_CanceledStops(t *testing.T) {
	upstream := &countingDoer{results: []error{&NetworkError{Message: "down"}, &NetworkError{Message: "down"}}}
	d := Chain(upstream, WithRetry(RetryConfig{MaxRetries: 5, InitialInterval: time.Second, Logger: zerolog.Nop()}))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := d.Do(ctx, Request{Path: "/api/products"})
	assert.ErrorIs(t, err, ErrCanceled)
	assert.EqualValues(t, 1, upstream.calls.Load())
}

func TestMetrics_RecordsOutcomes(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)

	ok := Chain(&countingDoer{}, metrics.Middleware())
	failing := Chain(&countingDoer{results: []error{&HTTPError{Status: 404}}}, metrics.Middleware())
	network := Chain(&countingDoer{results: []error{&NetworkError{Message: "x"}}}, metrics.Middleware())

	_, _ = ok.Do(context.Background(), Request{Path: "/a"})
	_, _ = ok.Do(context.Background(), Request{Path: "/a"})
	_, _ = failing.Do(context.Background(), Request{Method: http.MethodDelete, Path: "/b"})
	_, _ = network.Do(context.Background(), Request{Path: "/c"})

	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.requests.WithLabelValues("GET", "2xx")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.requests.WithLabelValues("DELETE", "4xx")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.requests.WithLabelValues("GET", "network")))
	assert.Equal(t, 3, testutil.CollectAndCount(metrics.duration))
}

func TestObserve_PublishesTransitions(t *testing.T) {
	var feed Feed[State]
	var mu sync.Mutex
	var states []State
	unsubscribe := feed.Subscribe(func(s State) {
		mu.Lock()
		states = append(states, s)
		mu.Unlock()
	})

	d := Chain(&countingDoer{results: []error{nil, &HTTPError{Status: 500}, ErrCanceled}}, Observe(&feed))
	_, _ = d.Do(context.Background(), Request{Path: "/ok"})
	_, _ = d.Do(context.Background(), Request{Path: "/fail"})
	_, _ = d.Do(context.Background(), Request{Path: "/cancel"})

	mu.Lock()
	require.Len(t, states, 5)
	assert.True(t, states[0].Loading)
	assert.Equal(t, "GET /ok", string(states[1].Data))
	assert.True(t, states[2].Loading)
	assert.Error(t, states[3].Err)
	assert.True(t, states[4].Loading, "canceled call publishes only its loading state")
	mu.Unlock()

	unsubscribe()
	unsubscribe()
	assert.Equal(t, 0, feed.Len())
}

func TestLatest_SupersedesPreviousCall(t *testing.T) {
	var latest Latest

	ctx1, t1, cancel1 := latest.Begin(context.Background())
	defer cancel1()
	assert.True(t, t1.Current())

	ctx2, t2, cancel2 := latest.Begin(context.Background())
	defer cancel2()

	assert.Error(t, ctx1.Err(), "first call canceled")
	assert.False(t, t1.Current())
	assert.NoError(t, ctx2.Err())
	assert.True(t, t2.Current())

	latest.Cancel()
	assert.Error(t, ctx2.Err())
	assert.False(t, t2.Current())
	assert.False(t, Ticket{}.Current())
}
