// Command admin is the operator console for the shop API.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"shop-admin/internal/apiclient"
	"shop-admin/internal/config"
	"shop-admin/internal/session"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", apiclient.Message(err))
		os.Exit(1)
	}
}

func run(args []string) error {
	_ = godotenv.Load()

	fs := flag.NewFlagSet("admin", flag.ContinueOnError)
	showMetrics := fs.Bool("metrics", false, "print client request counters after the command")
	fs.Usage = func() {
		fmt.Fprint(fs.Output(), usage)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	logger := config.NewLoggerTo(os.Stderr, cfg.Logger)

	sessions, err := session.NewSQLiteStore(cfg.SessionPath, logger)
	if err != nil {
		return err
	}
	defer sessions.Close()

	client, err := apiclient.New(apiclient.Options{
		BaseURL: cfg.API.BaseURL,
		Timeout: cfg.API.Timeout,
		Session: sessions,
		Logger:  logger,
	})
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	var feed apiclient.Feed[apiclient.State]
	unsubscribe := feed.Subscribe(func(st apiclient.State) {
		ev := logger.Debug().Str("method", st.Request.Method).Str("path", st.Request.Path)
		switch {
		case st.Loading:
			ev.Msg("request started")
		case st.Err != nil:
			ev.Err(st.Err).Msg("request failed")
		default:
			ev.Int("bytes", len(st.Data)).Msg("request finished")
		}
	})
	defer unsubscribe()

	api := apiclient.Chain(client,
		apiclient.Observe(&feed),
		apiclient.WithMetrics(reg),
		apiclient.WithRetry(apiclient.RetryConfig{MaxRetries: uint64(cfg.API.MaxRetries), Logger: logger}),
		apiclient.NewCache(cfg.API.CacheTTL, cfg.API.CacheSize, apiclient.ScopedTo(sessions)).Middleware(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c := newCLI(api, sessions, os.Stdout, os.Stdin, logger)
	c.getenv = os.Getenv
	runErr := c.run(ctx, fs.Args())

	if *showMetrics {
		printMetrics(reg)
	}
	return runErr
}

func printMetrics(reg *prometheus.Registry) {
	families, err := reg.Gather()
	if err != nil {
		fmt.Fprintf(os.Stderr, "gather metrics: %v\n", err)
		return
	}
	var lines []string
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			if m.GetCounter() == nil {
				continue
			}
			labels := ""
			for _, lp := range m.GetLabel() {
				labels += fmt.Sprintf(" %s=%s", lp.GetName(), lp.GetValue())
			}
			lines = append(lines, fmt.Sprintf("%s%s %g", mf.GetName(), labels, m.GetCounter().GetValue()))
		}
	}
	sort.Strings(lines)
	for _, l := range lines {
		fmt.Fprintln(os.Stderr, l)
	}
}
