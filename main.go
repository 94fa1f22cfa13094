package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	"ai-image-decoder/internal/database"
	"ai-image-decoder/internal/filesystem"
	"ai-image-decoder/internal/handlers"
	"ai-image-decoder/internal/ingest"
	"ai-image-decoder/internal/logging"
	"ai-image-decoder/internal/memory"
	"ai-image-decoder/internal/metrics"
	"ai-image-decoder/internal/middleware"
	"ai-image-decoder/internal/startup"
)

func main() {
	startTime := time.Now()

	memResult := memory.ConfigureFromEnv()

	config, err := startup.LoadConfig()
	if err != nil {
		startup.LogFatal("Configuration error: %v", err)
	}
	startup.LogMemoryConfig(memResult)

	metrics.SetAppInfo(startup.Version, startup.Commit, startup.GoVersion)
	metrics.InitializeMetrics()
	filesystem.SetObserver(metrics.NewFilesystemObserver())
	filesystem.SetDefaultVolumeResolver(filesystem.NewVolumeResolver(map[string]string{
		"scan":     config.ScanRoot,
		"database": config.DatabaseDir,
	}))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dbStart := time.Now()
	db, err := database.New(ctx, config.DatabasePath)
	if err != nil {
		startup.LogFatal("Failed to initialize database: %v", err)
	}
	startup.LogDatabaseInit(time.Since(dbStart))

	memMonitor := memory.NewMonitor(memory.DefaultConfig())
	memMonitor.Start()

	startup.LogCoordinatorInit(config)
	coordinator := ingest.New(db, ingest.Options{
		Workers:     config.ScanWorkers,
		QueueSize:   config.ScanQueueSize,
		SkipHidden:  config.SkipHidden,
		MaxFileSize: config.MaxFileSize,
		Throttle:    memMonitor,
	})

	scansDone := make(chan struct{})
	go func() {
		defer close(scansDone)
		runScans(ctx, coordinator, config)
	}()

	collector := metrics.NewCollector(db, config.DatabasePath, time.Minute)
	collector.Start()

	limiter := middleware.NewRateLimiter(config.APIRateLimit, config.APIRateBurst)
	go limiter.Run(ctx)

	h := handlers.New(db, coordinator, handlers.Options{
		DefaultRoot: config.ScanRoot,
		Recursive:   config.ScanRecursive,
	})
	router := setupRouter(h, limiter)
	startup.LogHTTPRoutes(router, config.LogHealthChecks)

	handler := middleware.Logger(middleware.LoggingConfig{
		SkipPaths:       []string{"/metrics"},
		LogHealthChecks: config.LogHealthChecks,
	})(router)

	srv := &http.Server{
		Addr:              ":" + config.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	var metricsSrv *http.Server
	if config.MetricsEnabled {
		metricsMux := http.NewServeMux()
		metricsMux.Handle("/metrics", h.MetricsHandler())
		metricsMux.HandleFunc("/health", h.LivenessCheck)
		metricsSrv = &http.Server{
			Addr:              ":" + config.MetricsPort,
			Handler:           metricsMux,
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logging.Error("Metrics server error: %v", err)
			}
		}()
	}

	serverErr := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	startup.LogServerStarted(startup.ServerConfig{
		Port:            config.Port,
		MetricsPort:     config.MetricsPort,
		MetricsEnabled:  config.MetricsEnabled,
		StartupDuration: time.Since(startTime),
	})

	signalName := "signal"
	select {
	case <-ctx.Done():
	case err := <-serverErr:
		logging.Error("Server error: %v", err)
		signalName = "server error"
		stop()
	}

	shutdown(signalName, shutdownDeps{
		srv:         srv,
		metricsSrv:  metricsSrv,
		coordinator: coordinator,
		scansDone:   scansDone,
		collector:   collector,
		memMonitor:  memMonitor,
		db:          db,
	})
}

// runScans scans SCAN_ROOT once at startup and then on every interval.
func runScans(ctx context.Context, c *ingest.Coordinator, config *startup.Config) {
	if config.ScanRoot == "" {
		return
	}
	if _, err := c.Scan(ctx, config.ScanRoot, config.ScanRecursive); err != nil {
		logging.Error("Startup scan failed: %v", err)
	}
	if config.ScanInterval > 0 {
		c.RunPeriodic(ctx, config.ScanRoot, config.ScanRecursive, config.ScanInterval)
	}
}

func setupRouter(h *handlers.Handlers, limiter *middleware.RateLimiter) *mux.Router {
	r := mux.NewRouter()
	r.Use(middleware.Metrics(middleware.DefaultMetricsConfig()))

	r.HandleFunc("/health", h.HealthCheck).Methods("GET")
	r.HandleFunc("/healthz", h.HealthCheck).Methods("GET")
	r.HandleFunc("/livez", h.LivenessCheck).Methods("GET", "HEAD")
	r.HandleFunc("/readyz", h.ReadinessCheck).Methods("GET")
	r.HandleFunc("/version", h.GetVersion).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/version", h.GetVersion).Methods("GET")
	api.HandleFunc("/scan/status", h.GetScanStatus).Methods("GET")
	api.HandleFunc("/collections", h.ListCollections).Methods("GET")
	api.HandleFunc("/images/{id:[0-9]+}", h.GetImage).Methods("GET")
	api.HandleFunc("/stats", h.GetStats).Methods("GET")
	api.HandleFunc("/scan-roots", h.ListScanRoots).Methods("GET")

	control := api.NewRoute().Subrouter()
	control.Use(limiter.Middleware)
	control.HandleFunc("/scan", h.StartScan).Methods("POST").Name("startScan")
	control.HandleFunc("/scan/stop", h.StopScan).Methods("POST").Name("stopScan")

	return r
}

type shutdownDeps struct {
	srv         *http.Server
	metricsSrv  *http.Server
	coordinator *ingest.Coordinator
	scansDone   <-chan struct{}
	collector   *metrics.Collector
	memMonitor  *memory.Monitor
	db          *database.Database
}

func shutdown(signalName string, d shutdownDeps) {
	startup.LogShutdownInitiated(signalName)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	startup.LogShutdownStep("Shutting down HTTP server")
	if err := d.srv.Shutdown(ctx); err != nil {
		logging.Warn("Server shutdown error: %v", err)
	} else {
		startup.LogShutdownStepComplete("HTTP server stopped")
	}

	startup.LogShutdownStep("Stopping scan")
	if err := d.coordinator.StopScan(); err != nil && !errors.Is(err, ingest.ErrNotScanning) {
		logging.Warn("Failed to stop scan: %v", err)
	}
	d.coordinator.Wait()
	select {
	case <-d.scansDone:
	case <-ctx.Done():
		logging.Warn("Timed out waiting for scan loop")
	}
	startup.LogShutdownStepComplete("Scan stopped")

	d.collector.Stop()
	d.memMonitor.Stop()

	if d.metricsSrv != nil {
		startup.LogShutdownStep("Shutting down metrics server")
		if err := d.metricsSrv.Shutdown(ctx); err != nil {
			logging.Warn("Metrics server shutdown error: %v", err)
		} else {
			startup.LogShutdownStepComplete("Metrics server stopped")
		}
	}

	startup.LogShutdownStep("Closing database")
	if err := d.db.Close(); err != nil {
		logging.Warn("Database close error: %v", err)
	} else {
		startup.LogShutdownStepComplete("Database closed")
	}

	startup.LogShutdownComplete()
}
