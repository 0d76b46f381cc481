package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/Schera-ole/perfcounter/internal/audit"
	"github.com/Schera-ole/perfcounter/internal/config"
	internalerrors "github.com/Schera-ole/perfcounter/internal/errors"
	"github.com/Schera-ole/perfcounter/internal/handler"
	"github.com/Schera-ole/perfcounter/internal/migration"
	models "github.com/Schera-ole/perfcounter/internal/model"
	"github.com/Schera-ole/perfcounter/internal/provider"
	"github.com/Schera-ole/perfcounter/internal/repository"
	"github.com/Schera-ole/perfcounter/internal/service"
)

func newLogger(level string) (*zap.SugaredLogger, error) {
	atomicLevel, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, err
	}
	zapConfig := zap.NewDevelopmentConfig()
	zapConfig.Level = atomicLevel
	logger, err := zapConfig.Build()
	if err != nil {
		return nil, err
	}
	return logger.Sugar(), nil
}

func newRepository(ctx context.Context, cfg *config.ServerConfig, logger *zap.SugaredLogger) (repository.Repository, error) {
	var storage repository.Repository
	if cfg.DatabaseDSN != "" {
		if err := migration.RunMigrations(ctx, cfg.DatabaseDSN, migration.DefaultSource, logger); err != nil {
			return nil, err
		}
		dbStorage, err := repository.NewDBStorage(cfg.DatabaseDSN)
		if err != nil {
			return nil, err
		}
		logger.Info("Using PostgreSQL registry")
		storage = dbStorage
	} else {
		memStorage := repository.NewMemStorage()
		if cfg.RegistryFile != "" {
			if err := memStorage.RestoreRegistrations(ctx, cfg.RegistryFile, logger); err != nil {
				return nil, err
			}
		}
		logger.Info("Using in-memory registry")
		storage = memStorage
	}

	base := cfg.Base()
	if base.FirstCounter != 0 || base.FirstHelp != 0 {
		err := storage.Register(ctx, cfg.ServiceName, base)
		switch {
		case errors.Is(err, internalerrors.ErrServiceAlreadyRegistered):
			logger.Infow("service already registered, keeping stored base", "service", cfg.ServiceName)
		case err != nil:
			storage.Close()
			return nil, fmt.Errorf("seed registry: %w", err)
		}
	}
	return storage, nil
}

// startAudit wires the configured subscribers and returns the logger handlers publish to.
// The returned stop func closes the logger; handlers still running afterwards drop
// their events.
func startAudit(ctx context.Context, cfg *config.ServerConfig, logger *zap.SugaredLogger) (audit.AuditLogger, func()) {
	var subs []chan<- models.AuditEvent

	if cfg.AuditFile != "" {
		ch := make(chan models.AuditEvent, 100)
		subs = append(subs, ch)
		go func() {
			if err := audit.FileSubscriber(ch, cfg.AuditFile, logger); err != nil {
				logger.Errorw("audit file subscriber stopped", "error", err)
			}
		}()
	}
	if cfg.AuditURL != "" {
		ch := make(chan models.AuditEvent, 100)
		subs = append(subs, ch)
		go audit.URLSubscriber(ctx, ch, http.DefaultClient, cfg.AuditURL, logger)
	}
	if len(subs) == 0 {
		return nil, func() {}
	}

	source := make(chan models.AuditEvent, 100)
	go audit.Broadcaster(logger, source, subs...)
	auditLogger := audit.NewAuditLogger(source, logger)
	return auditLogger, auditLogger.Close
}

func run(args []string) error {
	cfg, err := config.NewServerConfig(args)
	if err != nil {
		return fmt.Errorf("failed to parse configuration: %w", err)
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	storage, err := newRepository(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer storage.Close()

	var opts []provider.Option
	if cfg.CounterText != "" {
		opts = append(opts, provider.WithText(cfg.CounterText))
	}
	counterProvider := provider.New(cfg.ServiceName, storage, logger, opts...)
	exports := provider.NewExports(counterProvider, config.LookupTimeout, logger)
	if status := exports.Open(""); status != provider.StatusSuccess {
		return fmt.Errorf("open counter provider %s: %s", cfg.ServiceName, status)
	}
	defer exports.Close()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	counterService := service.NewCounterService(storage, logger, []service.Collector{exports.Collector()},
		service.WithRegisterer(registry))

	auditLogger, stopAudit := startAudit(ctx, cfg, logger)
	defer stopAudit()

	router := handler.Router(logger, cfg, counterService, auditLogger,
		promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	server := &http.Server{Addr: cfg.Address, Handler: router}

	serverErr := make(chan error, 1)
	go func() {
		logger.Infow("Starting server", "address", cfg.Address, "service", cfg.ServiceName)
		serverErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
		logger.Info("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown: %w", err)
		}
	}

	if err := counterService.SaveRegistrations(context.Background(), cfg.RegistryFile); err != nil {
		logger.Warnw("couldn't save registry", "file", cfg.RegistryFile, "error", err)
	}
	return nil
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
