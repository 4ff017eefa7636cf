package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/rakeweb/rake"
	"github.com/rakeweb/rake/internal/config"
	"github.com/rakeweb/rake/pkg/middleware"
	"github.com/rakeweb/rake/pkg/protocol"
	"github.com/rakeweb/rake/pkg/router"
)

func serveCmd() *cobra.Command {
	var (
		addr    string
		dir     string
		noTrace bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the current project",
		Long: `Serve the project described by rake.json in the given directory.

Static files from the configured directory are served under the
configured prefix. A /healthz route reports liveness. When a metrics
address is configured, Prometheus metrics are exposed on it at
/metrics.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(addr, dir, noTrace)
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "", "Listen address (default from rake.json)")
	cmd.Flags().StringVarP(&dir, "dir", "d", ".", "Project directory containing rake.json")
	cmd.Flags().BoolVar(&noTrace, "no-trace", false, "Disable request tracing spans")

	return cmd
}

func runServe(addr, dir string, noTrace bool) error {
	fc, err := config.Load(dir)
	if err != nil {
		return err
	}
	if addr != "" {
		fc.Addr = addr
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	cfg, err := rake.FromFile(fc.Path())
	if err != nil {
		return err
	}
	cfg.Addr = fc.Addr
	cfg.Logger = logger

	app := rake.New(cfg)
	app.Use(middleware.Prometheus(middleware.WithNamespace("rake")))
	if !noTrace {
		app.Use(middleware.OpenTelemetry())
	}

	app.Get("/healthz", func(req *protocol.Request, params router.Params) *protocol.Response {
		return protocol.Text(200, "ok")
	})

	if fc.Metrics.Addr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			logger.Info("metrics listening", "addr", fc.Metrics.Addr)
			if err := http.ListenAndServe(fc.Metrics.Addr, mux); err != nil {
				logger.Error("metrics listener failed", "error", err)
			}
		}()
	}

	errCh := make(chan error, 1)
	go func() { errCh <- app.ListenAndServe() }()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case s := <-sig:
		logger.Info("shutting down", "signal", s.String())
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return app.Shutdown(ctx)
	}
}
