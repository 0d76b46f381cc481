package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/Schera-ole/perfcounter/internal/audit"
	"github.com/Schera-ole/perfcounter/internal/config"
	middlewareinternal "github.com/Schera-ole/perfcounter/internal/middleware"
	models "github.com/Schera-ole/perfcounter/internal/model"
	"github.com/Schera-ole/perfcounter/internal/service"
)

// ObjectCountHeader carries the number of objects in a raw collection.
const ObjectCountHeader = "X-Perf-Object-Count"

// Router wires the counter endpoints. auditLogger may be nil; metricsHandler defaults
// to the global Prometheus registry.
func Router(
	logger *zap.SugaredLogger,
	config *config.ServerConfig,
	counterService *service.CounterService,
	auditLogger audit.AuditLogger,
	metricsHandler http.Handler,
) chi.Router {
	if metricsHandler == nil {
		metricsHandler = promhttp.Handler()
	}

	router := chi.NewRouter()
	router.Use(middlewareinternal.LoggingMiddleware(logger))
	router.Use(middlewareinternal.GzipMiddleware)
	router.Use(middleware.StripSlashes)
	router.Use(middleware.Timeout(15 * time.Second))

	router.Get("/collect", func(w http.ResponseWriter, r *http.Request) {
		CollectHandler(w, r, counterService, auditLogger, logger)
	})
	router.Get("/value", func(w http.ResponseWriter, r *http.Request) {
		ObjectsHandler(w, r, counterService, auditLogger, logger)
	})
	router.Get("/value/{object}/{counter}", func(w http.ResponseWriter, r *http.Request) {
		GetHandler(w, r, counterService)
	})
	router.Route("/register", func(r chi.Router) {
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			ListRegistrationsHandler(w, r, counterService)
		})
		r.Post("/", func(w http.ResponseWriter, r *http.Request) {
			RegisterHandler(w, r, counterService, config, logger)
		})
		r.Delete("/{service}", func(w http.ResponseWriter, r *http.Request) {
			UnregisterHandler(w, r, counterService, config, logger)
		})
	})
	router.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
		PingDatabaseHandler(w, r, counterService, logger)
	})
	router.Method(http.MethodGet, "/metrics", metricsHandler)
	router.Get("/", func(w http.ResponseWriter, r *http.Request) {
		GetListHandler(w, r, counterService)
	})
	return router
}

// CollectHandler returns the raw collection buffer.
func CollectHandler(
	w http.ResponseWriter,
	r *http.Request,
	counterService *service.CounterService,
	auditLogger audit.AuditLogger,
	logger *zap.SugaredLogger,
) {
	query := queryOf(r)
	snap, err := counterService.Snapshot(r.Context(), query)
	if err != nil {
		logger.Errorw("collection failed", "query", query, "error", err)
		http.Error(w, "Collection failed: "+err.Error(), StatusFor(err))
		return
	}
	if auditLogger != nil {
		auditLogger.Log(query, len(snap.Data), snap.Objects, ClientIP(r))
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Length", strconv.Itoa(len(snap.Data)))
	w.Header().Set(ObjectCountHeader, strconv.FormatUint(uint64(snap.Objects), 10))
	w.WriteHeader(http.StatusOK)
	w.Write(snap.Data)
}

// ObjectsHandler returns the decoded collection as JSON.
func ObjectsHandler(
	w http.ResponseWriter,
	r *http.Request,
	counterService *service.CounterService,
	auditLogger audit.AuditLogger,
	logger *zap.SugaredLogger,
) {
	query := queryOf(r)
	objects, err := counterService.Objects(r.Context(), query)
	if err != nil {
		logger.Errorw("collection failed", "query", query, "error", err)
		http.Error(w, "Collection failed: "+err.Error(), StatusFor(err))
		return
	}
	if auditLogger != nil {
		var size int
		for _, obj := range objects {
			size += int(obj.TotalByteLength)
		}
		auditLogger.Log(query, size, uint32(len(objects)), ClientIP(r))
	}
	writeJSON(w, http.StatusOK, objects)
}

// GetHandler returns a single counter value addressed by object and counter name index.
func GetHandler(w http.ResponseWriter, r *http.Request, counterService *service.CounterService) {
	objectIndex, err := parseIndex(chi.URLParam(r, "object"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	counterIndex, err := parseIndex(chi.URLParam(r, "counter"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	value, err := counterService.Value(r.Context(), objectIndex, counterIndex)
	if err != nil {
		http.Error(w, err.Error(), StatusFor(err))
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, "%v", value)
}

// RegisterHandler stores a service's name/help base.
func RegisterHandler(
	w http.ResponseWriter,
	r *http.Request,
	counterService *service.CounterService,
	config *config.ServerConfig,
	logger *zap.SugaredLogger,
) {
	var registration models.Registration
	if err := ReadJSON(r, &registration); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := counterService.Register(r.Context(), registration); err != nil {
		logger.Infow("registration rejected", "service", registration.Service, "error", err)
		http.Error(w, err.Error(), StatusFor(err))
		return
	}
	saveRegistrations(r, counterService, config, logger)
	writeJSON(w, http.StatusCreated, registration)
}

// UnregisterHandler removes a service from the registry.
func UnregisterHandler(
	w http.ResponseWriter,
	r *http.Request,
	counterService *service.CounterService,
	config *config.ServerConfig,
	logger *zap.SugaredLogger,
) {
	name := chi.URLParam(r, "service")
	if err := counterService.Unregister(r.Context(), name); err != nil {
		http.Error(w, err.Error(), StatusFor(err))
		return
	}
	saveRegistrations(r, counterService, config, logger)
	w.WriteHeader(http.StatusNoContent)
}

func saveRegistrations(r *http.Request, counterService *service.CounterService, config *config.ServerConfig, logger *zap.SugaredLogger) {
	if config == nil || !counterService.IsMemStorage() {
		return
	}
	if err := counterService.SaveRegistrations(r.Context(), config.RegistryFile); err != nil {
		logger.Warnw("couldn't save registry", "file", config.RegistryFile, "error", err)
	}
}

// ListRegistrationsHandler returns every registration as JSON.
func ListRegistrationsHandler(w http.ResponseWriter, r *http.Request, counterService *service.CounterService) {
	registrations, err := counterService.Registrations(r.Context())
	if err != nil {
		http.Error(w, err.Error(), StatusFor(err))
		return
	}
	if registrations == nil {
		registrations = []models.Registration{}
	}
	writeJSON(w, http.StatusOK, registrations)
}

func PingDatabaseHandler(w http.ResponseWriter, r *http.Request, counterService *service.CounterService, logger *zap.SugaredLogger) {
	if err := counterService.Ping(r.Context()); err != nil {
		logger.Errorw("registry ping failed", "error", err)
		http.Error(w, "Failed to connect to registry: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// GetListHandler lists every counter of a global collection as plain text.
func GetListHandler(w http.ResponseWriter, r *http.Request, counterService *service.CounterService) {
	objects, err := counterService.Objects(r.Context(), DefaultQuery)
	if err != nil {
		http.Error(w, err.Error(), StatusFor(err))
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	for _, obj := range objects {
		fmt.Fprintf(w, "%s (%d)\n", obj.Symbol, obj.NameIndex)
		for _, c := range obj.Counters {
			fmt.Fprintf(w, "  %s (%d): %v\n", c.Symbol, c.NameIndex, c.Value)
		}
	}
}
