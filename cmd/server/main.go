package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rcm-webdev/insight-lens/internal/api"
	"github.com/rcm-webdev/insight-lens/internal/audit"
	"github.com/rcm-webdev/insight-lens/internal/catalog"
	"github.com/rcm-webdev/insight-lens/internal/config"
	"github.com/rcm-webdev/insight-lens/internal/metrics"
	"github.com/rcm-webdev/insight-lens/internal/storage"
	"github.com/rcm-webdev/insight-lens/internal/upload"
	"github.com/rcm-webdev/insight-lens/internal/web"
)

// Version info (set during build)
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server stopped", "err", err)
		os.Exit(1)
	}
}

func run() error {
	// Get the executable's directory for config resolution
	exePath, err := os.Executable()
	if err != nil {
		return fmt.Errorf("failed to get executable path: %w", err)
	}
	exeDir := filepath.Dir(exePath)

	// Load XML configuration
	configPath := filepath.Join(exeDir, "insightlens.config")
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel()})))

	// Ensure all data directories exist
	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}

	// Check if running in embedded mode (frontend built into binary)
	embeddedMode := web.HasEmbeddedFiles()

	// Initialize storage
	fileStore, err := storage.NewLocalStore(cfg.GetUploadDir())
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}

	// Model catalog
	provider := catalog.DefaultProvider()
	if cfg.Catalog.FixturePath != "" {
		provider, err = catalog.LoadYAMLFile(cfg.Catalog.FixturePath)
		if err != nil {
			return fmt.Errorf("failed to load model catalog: %w", err)
		}
		slog.Info("Loaded model catalog", "path", cfg.Catalog.FixturePath, "models", len(provider))
	}
	modelCatalog := catalog.New(provider)

	// Audit trail
	auditLog, err := audit.OpenDuckLog(cfg.Storage.AuditDatabase, cfg.Advanced.DuckDBThreads)
	if err != nil {
		return fmt.Errorf("failed to open audit log: %w", err)
	}
	defer auditLog.Close()

	// Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	var uploadMgr *upload.Manager
	intakeMetrics, err := metrics.NewIntakeMetrics(registry, func() int { return uploadMgr.QueuedFiles() })
	if err != nil {
		return err
	}

	// Initialize upload queue manager
	maxUpload, err := cfg.MaxUploadSize()
	if err != nil {
		return err
	}
	policy := upload.NewPolicyStore(cfg.UploadPolicy())
	policy.LimitFileSize(maxUpload)
	uploadMgr = upload.NewManager(fileStore, policy, upload.Options{
		RemoveOnSuccess: cfg.Upload.RemoveOnSuccess,
		PreviewURL:      api.PreviewURL,
		Observers:       []upload.Observer{intakeMetrics, audit.NewIntakeRecorder(auditLog)},
	})
	defer uploadMgr.Wait()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Start background queue cleanup
	go func() {
		ticker := time.NewTicker(time.Duration(cfg.Upload.CleanupIntervalMinutes) * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := uploadMgr.CleanupQueues(time.Duration(cfg.Upload.QueueTimeoutMinutes) * time.Minute); n > 0 {
					slog.Info("Removed idle upload queues", "count", n)
				}
			}
		}
	}()

	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = api.ErrorHandler

	// Configure middleware
	e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Skipper: func(c echo.Context) bool {
			// Skip logging if disabled in config
			if !cfg.Advanced.EnableRequestLogging {
				return true
			}
			path := c.Request().URL.Path
			return path == "/api/health" || path == "/metrics"
		},
	}))

	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		StackSize:         1024 * 4,
		DisablePrintStack: false,
	}))

	isStream := func(c echo.Context) bool {
		return strings.HasPrefix(c.Request().URL.Path, "/api/ws/") ||
			strings.EqualFold(c.Request().Header.Get(echo.HeaderUpgrade), "websocket")
	}

	e.Use(middleware.TimeoutWithConfig(middleware.TimeoutConfig{
		Timeout: time.Duration(cfg.Server.ReadTimeout) * time.Second,
		Skipper: func(c echo.Context) bool {
			return isStream(c) || strings.HasSuffix(c.Request().URL.Path, "/files")
		},
		ErrorMessage: "Request timeout",
	}))

	// Compression middleware
	if cfg.Server.EnableCompression {
		e.Use(middleware.GzipWithConfig(middleware.GzipConfig{
			Level: cfg.Server.CompressionLevel,
			Skipper: func(c echo.Context) bool {
				// stored images are already compressed
				return isStream(c) || strings.HasSuffix(c.Request().URL.Path, "/content")
			},
		}))
	}

	// Body limit middleware
	e.Use(middleware.BodyLimit(cfg.Server.BodyLimit))

	// CORS configuration
	if cfg.Server.EnableCORS {
		origins := strings.Split(cfg.Server.AllowOrigins, ",")
		for i := range origins {
			origins[i] = strings.TrimSpace(origins[i])
		}
		if len(origins) == 0 || (len(origins) == 1 && origins[0] == "") {
			origins = []string{"*"}
		}
		if !embeddedMode {
			// Development mode also allows the frontend dev servers
			origins = append(origins,
				"http://localhost:5173", "http://127.0.0.1:5173",
				"http://localhost:3000", "http://127.0.0.1:3000",
			)
		}
		e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins: origins,
			AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
			AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		}))
	}

	// API Routes
	api.RegisterRoutes(e, api.NewHandlers(&api.Dependencies{
		Store:   fileStore,
		Catalog: modelCatalog,
		Uploads: uploadMgr,
		Audit:   auditLog,
		Version: Version,
	}))
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	// Register embedded frontend if available
	if embeddedMode {
		if err := web.RegisterStaticRoutes(e); err != nil {
			slog.Warn("Failed to register static routes", "err", err)
		} else {
			slog.Info("Serving embedded frontend from binary")
		}
	}

	// Configure server with settings from XML config
	s := &http.Server{
		Addr:         cfg.GetServerAddr(),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	printBanner(cfg, configPath, embeddedMode)

	errCh := make(chan error, 1)
	go func() {
		errCh <- e.StartServer(s)
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

func printBanner(cfg *config.AppConfig, configPath string, embeddedMode bool) {
	mode := "Development"
	if embeddedMode {
		mode = "Embedded frontend"
	}
	auditDB := cfg.Storage.AuditDatabase
	if auditDB == "" {
		auditDB = "(in memory)"
	}

	fmt.Printf("\n")
	fmt.Printf("╔═══════════════════════════════════════════════════════════╗\n")
	fmt.Printf("║           InsightLens Server                              ║\n")
	fmt.Printf("╠═══════════════════════════════════════════════════════════╣\n")
	fmt.Printf("║  Version:    %-45s║\n", Version)
	fmt.Printf("║  Build Time: %-45s║\n", BuildTime)
	fmt.Printf("║  Mode:       %-45s║\n", mode)
	fmt.Printf("╠═══════════════════════════════════════════════════════════╣\n")
	fmt.Printf("║  Config:    %-46s║\n", configPath)
	fmt.Printf("║  Listen:    http://%-38s║\n", cfg.GetServerAddr())
	fmt.Printf("║  Data Dir:  %-46s║\n", cfg.GetDataDir())
	fmt.Printf("║  Audit DB:  %-46s║\n", auditDB)
	fmt.Printf("╚═══════════════════════════════════════════════════════════╝\n")
	fmt.Printf("\n")

	if embeddedMode {
		fmt.Printf("Open http://localhost:%d in your browser\n\n", cfg.Server.Port)
	}
}
