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

	"github.com/plc-assistant/backend/internal/api"
	"github.com/plc-assistant/backend/internal/config"
	"github.com/plc-assistant/backend/internal/gateway"
	"github.com/plc-assistant/backend/internal/importer"
	"github.com/plc-assistant/backend/internal/loader"
	"github.com/plc-assistant/backend/internal/logging"
	"github.com/plc-assistant/backend/internal/metrics"
	"github.com/plc-assistant/backend/internal/models"
	"github.com/plc-assistant/backend/internal/persist"
	"github.com/plc-assistant/backend/internal/storage"
	"github.com/plc-assistant/backend/internal/store"
)

// Version info (set during build)
var (
	Version   = "dev"
	BuildTime = "unknown"
)

const shutdownTimeout = 15 * time.Second

func main() {
	// Get the executable's directory for config resolution
	exePath, err := os.Executable()
	if err != nil {
		fmt.Printf("Failed to get executable path: %v\n", err)
		os.Exit(1)
	}
	configPath := filepath.Join(filepath.Dir(exePath), "PLCAssistant.config")
	if p := os.Getenv("PLC_ASSISTANT_CONFIG"); p != "" {
		configPath = p
	}

	// Load XML configuration
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.Advanced.LogLevel, cfg.Advanced.LogFormat)
	slog.SetDefault(logger)

	if err := run(cfg, configPath, logger); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.AppConfig, configPath string, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Ensure all data directories exist
	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}

	plcStore := store.New()
	ld := loader.New(plcStore, logger)

	if cfg.Storage.EnablePersistence && cfg.Storage.SnapshotPath != "" {
		snap := persist.NewSnapshot(cfg.Storage.SnapshotPath, persist.Options{
			Threads:     cfg.Advanced.DuckDBThreads,
			MemoryLimit: cfg.Advanced.DuckDBMemoryLimit,
		}, logger)

		restored, err := snap.Load(ctx, plcStore)
		switch {
		case err != nil:
			logger.Warn("snapshot restore failed, starting empty", "path", snap.Path(), "error", err)
		case restored:
			stats := plcStore.Stats()
			metrics.SetStoreStats(stats)
			logger.Info("snapshot restored", "path", snap.Path(),
				"comments", stats.Comments, "programs", stats.Programs, "functionBlocks", stats.FunctionBlocks)
		}

		ld.OnImport(func(ctx context.Context, report models.ImportReport) {
			if err := snap.Save(context.WithoutCancel(ctx), plcStore); err != nil {
				logger.Warn("snapshot save failed", "kind", report.Kind, "error", err)
			}
		})
	}

	// Initialize upload storage
	fileStore, err := storage.NewLocalStore(cfg.GetUploadDir())
	if err != nil {
		return fmt.Errorf("initializing storage: %w", err)
	}

	// Initialize import job manager with background cleanup
	imports := importer.NewManager(ld, fileStore, logger)
	go cleanupJobs(ctx, imports, cfg, logger)

	gw, err := gateway.New(gateway.Config{
		BaseURL:     cfg.Gateway.BaseURL,
		DefaultHost: cfg.Gateway.DefaultHost,
		DefaultPort: cfg.Gateway.DefaultPort,
		Timeout:     cfg.GatewayTimeout(),
		Transport:   cfg.Gateway.Transport,
	}, logger)
	if err != nil {
		return fmt.Errorf("initializing gateway client: %w", err)
	}

	if dir := cfg.Storage.WatchDirectory; dir != "" {
		go func() {
			if err := ld.Watch(ctx, dir, loader.DefaultDebounce); err != nil {
				logger.Error("directory watch stopped", "dir", dir, "error", err)
			}
		}()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	api.SetupMiddleware(e, api.MiddlewareConfig{
		Logger:           logger.With("component", "http"),
		RequestLogging:   cfg.Advanced.EnableRequestLogging,
		RequestTimeout:   time.Duration(cfg.Server.ReadTimeout) * time.Second,
		BodyLimit:        cfg.Server.BodyLimit,
		EnableCORS:       cfg.Server.EnableCORS,
		AllowOrigins:     splitOrigins(cfg.Server.AllowOrigins),
		ShowErrorDetails: cfg.Advanced.ShowErrorDetails,
	})
	api.RegisterRoutes(e, api.NewHandlers(&api.Dependencies{
		Store:             plcStore,
		Files:             fileStore,
		Imports:           imports,
		Gateway:           gw,
		Version:           Version,
		DefaultMaxResults: cfg.Search.DefaultMaxResults,
		ContextLines:      cfg.Search.ContextLines,
		AllowedExtensions: cfg.AllowedExtensions(),
		EnableMetrics:     cfg.Advanced.EnableMetrics,
	}))

	// Configure server with settings from XML config
	s := &http.Server{
		Addr:         cfg.GetServerAddr(),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	printBanner(cfg, configPath, gw.BaseURL())

	errCh := make(chan error, 1)
	go func() {
		if err := e.StartServer(s); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown", "error", err)
	}
	if err := imports.Shutdown(shutdownCtx); err != nil {
		logger.Warn("import shutdown", "error", err)
	}
	return nil
}

func cleanupJobs(ctx context.Context, imports *importer.Manager, cfg *config.AppConfig, logger *slog.Logger) {
	interval := time.Duration(cfg.Import.CleanupIntervalMinutes) * time.Minute
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	retention := time.Duration(cfg.Import.JobRetentionMinutes) * time.Minute

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := imports.CleanupOldJobs(retention); n > 0 {
				logger.Debug("removed finished import jobs", "count", n)
			}
		}
	}
}

func splitOrigins(raw string) []string {
	var origins []string
	for _, o := range strings.Split(raw, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

func printBanner(cfg *config.AppConfig, configPath, gatewayURL string) {
	persistence := "off"
	if cfg.Storage.EnablePersistence {
		persistence = cfg.Storage.SnapshotPath
	}

	fmt.Printf("\n")
	fmt.Printf("╔═══════════════════════════════════════════════════════════╗\n")
	fmt.Printf("║           PLC Assistant Server                            ║\n")
	fmt.Printf("╠═══════════════════════════════════════════════════════════╣\n")
	fmt.Printf("║  Version:    %-45s║\n", Version)
	fmt.Printf("║  Build Time: %-45s║\n", BuildTime)
	fmt.Printf("╠═══════════════════════════════════════════════════════════╣\n")
	fmt.Printf("║  Config:    %-46s║\n", configPath)
	fmt.Printf("║  Listen:    http://%-38s║\n", cfg.GetServerAddr())
	fmt.Printf("║  Data Dir:  %-46s║\n", cfg.GetDataDir())
	fmt.Printf("║  Snapshot:  %-46s║\n", persistence)
	fmt.Printf("║  Gateway:   %-46s║\n", gatewayURL)
	fmt.Printf("╚═══════════════════════════════════════════════════════════╝\n")
	fmt.Printf("\n")
}
