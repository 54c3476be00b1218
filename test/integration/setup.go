// Package integration runs the admin client stores against a live mock API.
package integration

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"shop-admin/internal/apiclient"
	"shop-admin/internal/app"
	"shop-admin/internal/auth"
	"shop-admin/internal/config"
	"shop-admin/internal/database"
	"shop-admin/internal/repository"
	"shop-admin/internal/seed"
	"shop-admin/internal/session"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	operatorUser = "admin"
	operatorPass = "integration"
)

// backend yields a fresh, empty set of repositories.
type backend struct {
	name  string
	repos func(t *testing.T) app.Repositories
}

func memoryBackend() backend {
	return backend{
		name: "memory",
		repos: func(t *testing.T) app.Repositories {
			return app.MemoryRepositories(repository.NewMemory())
		},
	}
}

// postgresBackend starts one container and truncates it for every stack.
func postgresBackend(t *testing.T) backend {
	pool := SetupTestDB(t)
	logger := zerolog.Nop()
	return backend{
		name: "postgres",
		repos: func(t *testing.T) app.Repositories {
			CleanupDB(t, pool)
			return app.Repositories{
				Products:   repository.NewProductRepository(pool, logger),
				Categories: repository.NewCategoryRepository(pool, logger),
				Locations:  repository.NewLocationRepository(pool, logger),
				Orders:     repository.NewOrderRepository(pool, logger),
			}
		},
	}
}

func backends(t *testing.T) []backend {
	all := []backend{memoryBackend()}
	if !testing.Short() {
		all = append(all, postgresBackend(t))
	}
	return all
}

// requestLog counts requests reaching the server.
type requestLog struct {
	mu      sync.Mutex
	methods map[string]int
}

func (l *requestLog) count(method string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.methods[method]
}

// stack is a mock API plus a logged-in client chain.
type stack struct {
	api      apiclient.Doer
	sessions *session.MemoryStore
	requests *requestLog
	server   *httptest.Server
}

// newStack seeds repos with catalog (nil for empty), serves them, and logs
// in. wrap, when set, sits in front of the API handler.
func newStack(t *testing.T, b backend, catalog *seed.Catalog, wrap func(http.Handler) http.Handler) *stack {
	t.Helper()
	ctx := context.Background()
	logger := zerolog.Nop()

	repos := b.repos(t)
	if catalog != nil {
		require.NoError(t, seed.Apply(ctx, catalog, repos, logger))
	}

	var h http.Handler = app.New(repos, app.Options{
		Operator: config.OperatorConfig{
			Username: operatorUser,
			Password: operatorPass,
			Email:    "ops@example.com",
			TokenTTL: time.Hour,
		},
		Registry: prometheus.NewRegistry(),
		Logger:   logger,
	})
	if wrap != nil {
		h = wrap(h)
	}
	reqs := &requestLog{methods: map[string]int{}}
	counted := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqs.mu.Lock()
		reqs.methods[r.Method]++
		reqs.mu.Unlock()
		h.ServeHTTP(w, r)
	})

	srv := httptest.NewServer(counted)
	t.Cleanup(srv.Close)

	sessions := session.NewMemoryStore(session.Session{})
	client, err := apiclient.New(apiclient.Options{
		BaseURL: srv.URL,
		Timeout: 5 * time.Second,
		Session: sessions,
		Logger:  logger,
	})
	require.NoError(t, err)

	api := apiclient.Chain(client,
		apiclient.WithMetrics(prometheus.NewRegistry()),
		apiclient.WithRetry(apiclient.RetryConfig{MaxRetries: 2, InitialInterval: 10 * time.Millisecond, Logger: logger}),
		apiclient.NewCache(time.Minute, 64, apiclient.ScopedTo(sessions)).Middleware(),
	)

	_, err = auth.NewService(api, sessions, logger).Login(ctx, operatorUser, operatorPass)
	require.NoError(t, err)

	return &stack{api: api, sessions: sessions, requests: reqs, server: srv}
}

// SetupTestDB creates a PostgreSQL test container with the shop schema.
func SetupTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()

	ctx := context.Background()

	postgresContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	connStr, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get connection string: %v", err)
	}

	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		t.Fatalf("failed to create connection pool: %v", err)
	}
	if err := pool.Ping(ctx); err != nil {
		t.Fatalf("failed to ping database: %v", err)
	}
	if err := database.EnsureSchema(ctx, pool, zerolog.Nop()); err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}

	t.Cleanup(func() {
		pool.Close()
		if err := postgresContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	return pool
}

// CleanupDB empties every table and resets the identity sequences.
func CleanupDB(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	_, err := pool.Exec(context.Background(), `
		TRUNCATE order_statuses, order_details, orders, products, categories, store_locations
		RESTART IDENTITY CASCADE`)
	if err != nil {
		t.Fatalf("failed to clean tables: %v", err)
	}
}
