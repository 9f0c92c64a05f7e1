package main

import (
	"context"
	"errors"
	"net/http"
	"path/filepath"
	"time"

	"rbx-extract/internal/assettypes"
	"rbx-extract/internal/handlers"
	"rbx-extract/internal/logging"
	"rbx-extract/internal/metrics"
	"rbx-extract/internal/middleware"
	"rbx-extract/internal/startup"

	"github.com/gorilla/mux"
)

const shutdownTimeout = 30 * time.Second

// ServeCmd runs the HTTP control server until interrupted.
type ServeCmd struct {
	Addr            string        `default:"127.0.0.1:8750" env:"RBX_EXTRACT_ADDR" help:"Listen address"`
	MetricsInterval time.Duration `default:"15s" help:"How often engine gauges are sampled"`
	NoCompression   bool          `help:"Disable gzip compression of JSON responses"`
}

func (c *ServeCmd) Run(ctx context.Context, cli *CLI) error {
	startTime := time.Now()
	startup.ConfigureMemoryLimit()

	a, err := cli.open(ctx)
	if err != nil {
		return err
	}

	metrics.InitializeMetrics()
	collector := metrics.NewCollector(a.engine, c.MetricsInterval)
	collector.Start()

	// Build the first index in the background; the API is usable meanwhile.
	a.engine.Refresh(assettypes.CategoryAll)

	handler, router, err := c.buildHandler(a)
	if err != nil {
		collector.Stop()
		a.close()
		return err
	}
	startup.LogHTTPRoutes(router)

	srv := &http.Server{
		Addr:              c.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()
	startup.LogServerStarted(startup.ServerConfig{Addr: c.Addr, StartupDuration: time.Since(startTime)})

	select {
	case <-ctx.Done():
		startup.LogShutdownInitiated("interrupt")
	case err := <-serveErr:
		if err != nil {
			logging.Error("Server error: %v", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	startup.LogShutdownStep("Shutting down HTTP server")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.Error("HTTP server shutdown error: %v", err)
	} else {
		startup.LogShutdownStepComplete("HTTP server stopped")
	}

	startup.LogShutdownStep("Stopping metrics collector")
	collector.Stop()
	startup.LogShutdownStepComplete("Metrics collector stopped")

	startup.LogShutdownStep("Closing asset sources")
	a.close()
	startup.LogShutdownStepComplete("Asset sources closed")

	startup.LogShutdownComplete()
	return nil
}

// buildHandler mounts the routes and wraps them in request metrics, logging
// and compression.
func (c *ServeCmd) buildHandler(a *app) (http.Handler, *mux.Router, error) {
	h := handlers.New(a.engine, a.settings, filepath.Join(a.engine.TempDir(), "previews"))

	router := mux.NewRouter()
	router.Use(middleware.Metrics(middleware.DefaultMetricsConfig()))
	h.RegisterRoutes(router)

	loggingConfig := middleware.DefaultLoggingConfig()
	loggingConfig.LogHealthChecks = a.cfg.LogHealthChecks
	handler := middleware.Logger(loggingConfig)(router)

	if c.NoCompression {
		return handler, router, nil
	}
	compress, err := middleware.Compression(middleware.DefaultCompressionConfig())
	if err != nil {
		return nil, nil, err
	}
	return compress(handler), router, nil
}
