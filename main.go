package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	"media-indexer/internal/app"
	"media-indexer/internal/handlers"
	"media-indexer/internal/indexer"
	"media-indexer/internal/logging"
	"media-indexer/internal/memory"
	"media-indexer/internal/metrics"
	"media-indexer/internal/middleware"
	"media-indexer/internal/startup"
)

const (
	metricsInterval = time.Minute
	shutdownTimeout = 30 * time.Second
)

func main() {
	startTime := time.Now()

	memory.ConfigureFromEnv()

	config, err := startup.LoadConfig()
	if err != nil {
		startup.LogFatal("Configuration error: %v", err)
	}

	metrics.InitializeMetrics()
	metrics.SetAppInfo(startup.Version, startup.Commit, startup.GoVersion)

	// Jobs started over HTTP or by the scheduler run under this context.
	// Cancelling it on shutdown interrupts in-flight subprocesses.
	baseCtx, cancelJobs := context.WithCancel(context.Background())
	defer cancelJobs()

	components, err := app.Build(baseCtx, config)
	if err != nil {
		startup.LogFatal("Failed to initialize: %v", err)
	}
	defer func() {
		if err := components.Close(); err != nil {
			logging.Error("Failed to close database: %v", err)
		}
	}()
	startup.LogDatabaseInit(components.DBInitDuration)
	startup.LogToolsInit(config.FFprobePath, config.FFmpegPath)

	collector := metrics.NewCollector(components.DB, metricsInterval)
	collector.Start()

	startup.LogScannerInit(len(components.Roots), config.ScanWorkers, config.ScanInterval)
	scheduler := indexer.NewScheduler(components.Scanner, config.ScanInterval)
	scheduler.Start(baseCtx)

	h := handlers.New(baseCtx, components.DB, components.Scanner, components.Backfill)
	router := setupRouter(h, config)
	startup.LogHTTPRoutes(router, config.LogHealthChecks)

	loggingConfig := middleware.DefaultLoggingConfig()
	loggingConfig.LogHealthChecks = config.LogHealthChecks

	srv := &http.Server{
		Addr:              ":" + config.Port,
		Handler:           middleware.AccessLog(loggingConfig)(router),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		handleShutdown(srv, cancelJobs, components, scheduler, collector)
	}()

	startup.LogServerStarted(startup.ServerConfig{
		Port:            config.Port,
		MetricsEnabled:  config.MetricsEnabled,
		StartupDuration: time.Since(startTime),
	})
	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		startup.LogFatal("Server error: %v", err)
	}
	<-done
}

func setupRouter(h *handlers.Handlers, config *startup.Config) *mux.Router {
	r := mux.NewRouter()
	r.Use(middleware.Metrics(middleware.DefaultMetricsConfig()))

	if config.MetricsEnabled {
		r.Handle("/metrics", h.MetricsHandler()).Methods(http.MethodGet)
	}
	h.Register(r)

	return r
}

func handleShutdown(srv *http.Server, cancelJobs context.CancelFunc, components *app.App, scheduler *indexer.Scheduler, collector *metrics.Collector) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan

	startup.LogShutdownInitiated(sig.String())

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	startup.LogShutdownStep("Shutting down HTTP server")
	if err := srv.Shutdown(ctx); err != nil {
		logging.Warn("Server shutdown error: %v", err)
	} else {
		startup.LogShutdownStepComplete("HTTP server stopped")
	}

	startup.LogShutdownStep("Stopping scheduler")
	scheduler.Stop()
	startup.LogShutdownStepComplete("Scheduler stopped")

	// Running jobs still finalize their run records after the cancel.
	startup.LogShutdownStep("Stopping jobs")
	cancelJobs()
	for name, wait := range map[string]func(context.Context) error{
		"scan":  components.Scanner.Wait,
		"phash": components.Backfill.Wait,
	} {
		if err := wait(ctx); err != nil {
			logging.Warn("Timed out waiting for %s to finish: %v", name, err)
		}
	}
	startup.LogShutdownStepComplete("Jobs stopped")

	collector.Stop()
	startup.LogShutdownComplete()
}
