package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"go.uber.org/zap"

	internalerrors "github.com/Schera-ole/perfcounter/internal/errors"
	models "github.com/Schera-ole/perfcounter/internal/model"
	"github.com/Schera-ole/perfcounter/internal/symbols"
)

// MemStorage implements the Repository interface using in-memory storage.
type MemStorage struct {
	// mu provides thread-safe access to the registrations map
	mu sync.RWMutex

	// services stores service name -> base pairs
	services map[string]symbols.Base
}

// NewMemStorage creates a new, empty in-memory registry.
func NewMemStorage() *MemStorage {

	return &MemStorage{
		services: make(map[string]symbols.Base),
	}
}

// Lookup returns the base registered for service.
func (ms *MemStorage) Lookup(ctx context.Context, service string) (symbols.Base, error) {

	ms.mu.RLock()
	defer ms.mu.RUnlock()
	base, exists := ms.services[service]
	if !exists {
		return symbols.Base{}, internalerrors.ErrServiceNotRegistered
	}
	return base, nil
}

// Register stores the base of a new service.
func (ms *MemStorage) Register(ctx context.Context, service string, base symbols.Base) error {
	if err := validate(service, base); err != nil {
		return err
	}

	ms.mu.Lock()
	defer ms.mu.Unlock()
	if _, exists := ms.services[service]; exists {
		return internalerrors.ErrServiceAlreadyRegistered
	}
	ms.services[service] = base
	return nil
}

// Unregister removes a service.
func (ms *MemStorage) Unregister(ctx context.Context, service string) error {

	ms.mu.Lock()
	defer ms.mu.Unlock()
	if _, exists := ms.services[service]; !exists {
		return internalerrors.ErrServiceNotRegistered
	}
	delete(ms.services, service)
	return nil
}

// List returns every registration ordered by service name.
func (ms *MemStorage) List(ctx context.Context) ([]models.Registration, error) {

	ms.mu.RLock()
	defer ms.mu.RUnlock()
	result := make([]models.Registration, 0, len(ms.services))
	for service, base := range ms.services {
		result = append(result, models.Registration{
			Service:      service,
			FirstCounter: base.FirstCounter,
			FirstHelp:    base.FirstHelp,
		})
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Service < result[j].Service })
	return result, nil
}

// Close releases any resources held by the memory storage.
func (ms *MemStorage) Close() error {

	return nil
}

// Ping checks the health of the memory storage.
//
// For MemStorage, this always returns nil since there are no external dependencies.
func (ms *MemStorage) Ping(ctx context.Context) error {
	return nil
}

// SaveRegistrations writes every registration to fname as JSON.
func (ms *MemStorage) SaveRegistrations(ctx context.Context, fname string) error {
	// Create directory if it doesn't exist
	dir := filepath.Dir(fname)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating directory: %w", err)
	}

	file, err := os.Create(fname)
	if err != nil {
		return fmt.Errorf("error creating file: %w", err)
	}
	defer file.Close()

	registrations, _ := ms.List(ctx)
	return json.NewEncoder(file).Encode(registrations)
}

// RestoreRegistrations loads registrations saved by SaveRegistrations. A missing file
// is not an error; entries that are already registered are kept as they are.
func (ms *MemStorage) RestoreRegistrations(ctx context.Context, fname string, logger *zap.SugaredLogger) error {
	if _, err := os.Stat(fname); os.IsNotExist(err) {
		logger.Infof("registry file not exists %s", fname)
		return nil
	}

	file, err := os.Open(fname)
	if err != nil {
		return fmt.Errorf("error while opening file to restore: %w", err)
	}
	defer file.Close()

	var registrations []models.Registration
	if err := json.NewDecoder(file).Decode(&registrations); err != nil {
		return fmt.Errorf("error while unmarshalling registry file: %w", err)
	}
	for _, r := range registrations {
		base := symbols.Base{FirstCounter: r.FirstCounter, FirstHelp: r.FirstHelp}
		if err := ms.Register(ctx, r.Service, base); err != nil {
			logger.Warnf("skipping registration %s: %v", r.Service, err)
		}
	}
	return nil
}
