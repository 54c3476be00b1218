package apiclient

import (
	"context"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics records request counts and latency per method and outcome.
type Metrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "shop_admin",
			Subsystem: "client",
			Name:      "requests_total",
			Help:      "API requests issued by the admin client.",
		}, []string{"method", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "shop_admin",
			Subsystem: "client",
			Name:      "request_duration_seconds",
			Help:      "API request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "outcome"}),
	}
	reg.MustRegister(m.requests, m.duration)
	return m
}

// Middleware returns the recording decorator.
func (m *Metrics) Middleware() Middleware {
	return func(next Doer) Doer {
		return DoerFunc(func(ctx context.Context, req Request) (*Response, error) {
			start := time.Now()
			resp, err := next.Do(ctx, req)
			outcome := outcomeOf(resp, err)
			method := req.method()
			m.requests.WithLabelValues(method, outcome).Inc()
			m.duration.WithLabelValues(method, outcome).Observe(time.Since(start).Seconds())
			return resp, err
		})
	}
}

// WithMetrics is shorthand for NewMetrics(reg).Middleware().
func WithMetrics(reg prometheus.Registerer) Middleware {
	return NewMetrics(reg).Middleware()
}

func outcomeOf(resp *Response, err error) string {
	switch {
	case err == nil && resp != nil:
		return strconv.Itoa(resp.Status/100) + "xx"
	case IsCanceled(err):
		return "canceled"
	case IsNetwork(err):
		return "network"
	}
	if status := StatusOf(err); status > 0 {
		return strconv.Itoa(status/100) + "xx"
	}
	return "error"
}
