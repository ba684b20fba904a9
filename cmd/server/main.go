package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/bcnelson/firewall-ddns/internal/api"
	"github.com/bcnelson/firewall-ddns/internal/api/handler"
	"github.com/bcnelson/firewall-ddns/internal/config"
	"github.com/bcnelson/firewall-ddns/internal/logging"
	"github.com/bcnelson/firewall-ddns/internal/metrics"
	"github.com/bcnelson/firewall-ddns/internal/provider"
	"github.com/bcnelson/firewall-ddns/internal/provider/digitalocean"
	"github.com/bcnelson/firewall-ddns/internal/provider/fileshim"
	"github.com/bcnelson/firewall-ddns/internal/provider/hetzner"
	"github.com/bcnelson/firewall-ddns/internal/provider/rest"
	"github.com/bcnelson/firewall-ddns/internal/service"
	"github.com/bcnelson/firewall-ddns/internal/storage"
	"github.com/bcnelson/firewall-ddns/internal/storage/memory"
	"github.com/bcnelson/firewall-ddns/internal/storage/sql"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "firewall-ddns: %v\n", err)
		os.Exit(1)
	}
}

func run() (err error) {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := logging.NewLogger(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}
	defer logger.Sync()

	// Initialize storage
	store, err := openAuditStore(cfg.Audit)
	if err != nil {
		return fmt.Errorf("initializing audit store: %w", err)
	}
	defer func() {
		err = multierr.Append(err, store.Close())
	}()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	settings := func(baseURL string) rest.Settings {
		return rest.Settings{
			BaseURL: baseURL,
			Timeout: cfg.Provider.Timeout,
			Logger:  logger,
			Metrics: m,
		}
	}

	// Initialize providers (or file shim for testing)
	var registry *provider.Registry
	if cfg.UseFileShim() {
		logger.Warn("using file shim instead of provider APIs", zap.String("file", cfg.Provider.FileShim))
		shim := fileshim.New(cfg.Provider.FileShim, logger)
		registry = provider.NewDefaultRegistry(shim.Provider(digitalocean.Name), shim.Provider(hetzner.Name))
	} else {
		registry = provider.NewDefaultRegistry(
			digitalocean.New(settings(cfg.Provider.DigitalOceanURL)),
			hetzner.New(settings(cfg.Provider.HetznerURL)),
		)
	}

	clientIP, err := handler.NewClientIPResolver(cfg.Server.TrustedProxies)
	if err != nil {
		return fmt.Errorf("parsing TRUSTED_PROXIES: %w", err)
	}

	updateService := service.NewUpdateService(store, m, logger.Named("service"))
	updateHandler := handler.NewUpdateHandler(registry, updateService, clientIP, logger.Named("handler"))

	servers := []*http.Server{{
		Addr:         cfg.Server.Addr(),
		Handler:      api.NewPublicRouter(updateHandler, logger.Named("http")),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}}
	if cfg.Admin.Enabled {
		if cfg.Admin.APIKey == "" {
			logger.Warn("ADMIN_API_KEY is not set, the events API is disabled")
		}
		servers = append(servers, &http.Server{
			Addr:         cfg.Admin.Addr(),
			Handler:      api.NewAdminRouter(store, reg, cfg.Admin.APIKey, logger.Named("admin")),
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  120 * time.Second,
		})
	}

	serveErr := make(chan error, len(servers))
	for _, srv := range servers {
		go func(srv *http.Server) {
			logger.Info("listening", zap.String("addr", srv.Addr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				serveErr <- fmt.Errorf("serving %s: %w", srv.Addr, err)
			}
		}(srv)
	}

	// Wait for interrupt signal or a listener failure
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-quit:
		logger.Info("shutting down", zap.String("signal", sig.String()))
	case err = <-serveErr:
		logger.Error("listener failed, shutting down", zap.Error(err))
	}

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, srv := range servers {
		err = multierr.Append(err, srv.Shutdown(ctx))
	}

	logger.Info("server stopped")
	return err
}

func openAuditStore(cfg config.AuditConfig) (storage.AuditStore, error) {
	switch cfg.Driver {
	case "memory":
		return memory.New(cfg.Retention), nil
	case "sqlite3":
		// Create data directory if needed
		if dir := filepath.Dir(cfg.DSN); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("creating data directory: %w", err)
			}
		}
		return sql.New(cfg.Driver, cfg.DSN)
	default:
		return sql.New(cfg.Driver, cfg.DSN)
	}
}
