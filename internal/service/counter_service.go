// Package service drives counter providers the way a monitoring host does: one buffer
// shared by every provider, grown and retried when a provider reports that it does not fit.
package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	internalerrors "github.com/Schera-ole/perfcounter/internal/errors"
	models "github.com/Schera-ole/perfcounter/internal/model"
	"github.com/Schera-ole/perfcounter/internal/perf"
	"github.com/Schera-ole/perfcounter/internal/pool"
	"github.com/Schera-ole/perfcounter/internal/repository"
	"github.com/Schera-ole/perfcounter/internal/symbols"
)

const (
	// DefaultInitialBufferSize is the first buffer size tried by Snapshot.
	DefaultInitialBufferSize = 64
	// DefaultMaxBufferSize caps buffer growth.
	DefaultMaxBufferSize = 1 << 20
)

// Collector is one provider's Collect entry point.
type Collector interface {
	Collect(query string, out *perf.Cursor) (uint32, uint32, error)
}

// scratch is a reusable collection buffer.
type scratch struct {
	buf []byte
}

func (s *scratch) Reset() { clear(s.buf) }

// take returns a zeroed buffer of n bytes.
func (s *scratch) take(n int) []byte {
	if cap(s.buf) < n {
		s.buf = make([]byte, n)
	}
	s.buf = s.buf[:n]
	return s.buf
}

var scratchPool = pool.New(func() *scratch { return &scratch{} })

// Snapshot is the result of one collection pass.
type Snapshot struct {
	Data    []byte
	Objects uint32
}

// CounterService collects from a set of providers into a single buffer.
type CounterService struct {
	// collectors are called in order, each appending to the shared buffer
	collectors []Collector

	// repository resolves symbolic names when decoding
	repository repository.Repository

	initialSize int
	maxSize     int
	metrics     *serviceMetrics
	logger      *zap.SugaredLogger
}

type serviceMetrics struct {
	collections   *prometheus.CounterVec
	grows         prometheus.Counter
	snapshotBytes prometheus.Gauge
}

func newServiceMetrics(reg prometheus.Registerer) *serviceMetrics {
	m := &serviceMetrics{
		collections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "perfcounter_collections_total",
			Help: "Collection passes by result.",
		}, []string{"result"}),
		grows: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "perfcounter_buffer_grows_total",
			Help: "Times a collection was retried with a larger buffer.",
		}),
		snapshotBytes: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "perfcounter_snapshot_bytes",
			Help: "Size of the last successful snapshot.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.collections, m.grows, m.snapshotBytes)
	}
	return m
}

// Option configures a CounterService.
type Option func(*CounterService)

// WithBufferSizes sets the initial and maximum buffer sizes.
func WithBufferSizes(initial, max int) Option {
	return func(s *CounterService) {
		s.initialSize = initial
		s.maxSize = max
	}
}

// WithRegisterer registers the service's Prometheus metrics with reg.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(s *CounterService) { s.metrics = newServiceMetrics(reg) }
}

// NewCounterService creates a service over collectors.
func NewCounterService(repo repository.Repository, logger *zap.SugaredLogger, collectors []Collector, opts ...Option) *CounterService {

	s := &CounterService{
		collectors:  collectors,
		repository:  repo,
		initialSize: DefaultInitialBufferSize,
		maxSize:     DefaultMaxBufferSize,
		logger:      logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.metrics == nil {
		s.metrics = newServiceMetrics(nil)
	}
	if s.initialSize <= 0 {
		s.initialSize = DefaultInitialBufferSize
	}
	if s.maxSize < s.initialSize {
		s.maxSize = s.initialSize
	}
	return s
}

// Snapshot runs every collector into one buffer. When a collector reports ErrMoreData
// the buffer is doubled and the whole pass restarts, up to the maximum size.
func (s *CounterService) Snapshot(ctx context.Context, query string) (Snapshot, error) {
	buf := scratchPool.Get()
	defer scratchPool.Put(buf)

	size := s.initialSize
	for {
		if err := ctx.Err(); err != nil {
			s.metrics.collections.WithLabelValues("canceled").Inc()
			return Snapshot{}, err
		}

		snap, err := s.collectOnce(query, buf.take(size))
		if err == nil {
			s.metrics.collections.WithLabelValues("ok").Inc()
			s.metrics.snapshotBytes.Set(float64(len(snap.Data)))
			return snap, nil
		}
		if !errors.Is(err, internalerrors.ErrMoreData) {
			s.metrics.collections.WithLabelValues("error").Inc()
			return Snapshot{}, err
		}
		if size >= s.maxSize {
			s.metrics.collections.WithLabelValues("too_large").Inc()
			return Snapshot{}, fmt.Errorf("%w: %d bytes", internalerrors.ErrBufferLimit, s.maxSize)
		}

		size = min(size*2, s.maxSize)
		s.metrics.grows.Inc()
		s.logger.Debugw("growing collection buffer", "size", size)
	}
}

func (s *CounterService) collectOnce(query string, buf []byte) (Snapshot, error) {
	cursor := perf.NewCursor(buf)
	var objects uint32
	for i, c := range s.collectors {
		_, n, err := c.Collect(query, cursor)
		if err != nil {
			return Snapshot{}, fmt.Errorf("collector %d: %w", i, err)
		}
		objects += n
	}
	return Snapshot{Data: bytes.Clone(cursor.Bytes()), Objects: objects}, nil
}

// Objects collects and decodes every object.
func (s *CounterService) Objects(ctx context.Context, query string) ([]models.ObjectDTO, error) {
	snap, err := s.Snapshot(ctx, query)
	if err != nil {
		return nil, err
	}
	objects, err := perf.DecodeObjects(snap.Data, int(snap.Objects))
	if err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}

	bases := s.bases(ctx)
	result := make([]models.ObjectDTO, 0, len(objects))
	for _, obj := range objects {
		dto, err := toObjectDTO(obj, bases)
		if err != nil {
			return nil, err
		}
		result = append(result, dto)
	}
	return result, nil
}

// Value returns the decoded value of one counter, addressed by object and counter
// name index.
func (s *CounterService) Value(ctx context.Context, objectIndex, counterIndex uint32) (any, error) {
	objects, err := s.Objects(ctx, "Global")
	if err != nil {
		return nil, err
	}
	for _, obj := range objects {
		if obj.NameIndex != objectIndex {
			continue
		}
		for _, c := range obj.Counters {
			if c.NameIndex == counterIndex {
				return c.Value, nil
			}
		}
	}
	return nil, ErrCounterNotFound
}

// ErrCounterNotFound is returned by Value when no counter matches.
var ErrCounterNotFound = errors.New("counter not found")

// bases lists registered bases so objects can be labelled with their symbols.
func (s *CounterService) bases(ctx context.Context) []symbols.Base {
	if s.repository == nil {
		return nil
	}
	registrations, err := s.repository.List(ctx)
	if err != nil {
		s.logger.Warnw("cannot list registrations", "error", err)
		return nil
	}
	bases := make([]symbols.Base, 0, len(registrations))
	for _, r := range registrations {
		bases = append(bases, symbols.Base{FirstCounter: r.FirstCounter, FirstHelp: r.FirstHelp})
	}
	return bases
}

func symbolOf(nameIndex uint32, bases []symbols.Base) string {
	for _, b := range bases {
		if nameIndex < b.FirstCounter || nameIndex-b.FirstCounter > symbols.LastCounterOffset {
			continue
		}
		if name, ok := symbols.Lookup(nameIndex - b.FirstCounter); ok {
			return name
		}
	}
	return ""
}

func toObjectDTO(obj perf.Object, bases []symbols.Base) (models.ObjectDTO, error) {
	dto := models.ObjectDTO{
		Symbol:          symbolOf(obj.Header.ObjectNameTitleIndex, bases),
		NameIndex:       obj.Header.ObjectNameTitleIndex,
		HelpIndex:       obj.Header.ObjectHelpTitleIndex,
		TotalByteLength: obj.Header.TotalByteLength,
		PerfTime:        obj.Header.PerfTime,
		PerfFreq:        obj.Header.PerfFreq,
		Counters:        make([]models.CounterDTO, 0, len(obj.Counters)),
	}
	for i, def := range obj.Counters {
		v, err := obj.Value(i)
		if err != nil {
			return models.ObjectDTO{}, fmt.Errorf("counter %d: %w", def.CounterNameTitleIndex, err)
		}
		dto.Counters = append(dto.Counters, models.CounterDTO{
			Symbol:    symbolOf(def.CounterNameTitleIndex, bases),
			NameIndex: def.CounterNameTitleIndex,
			HelpIndex: def.CounterHelpTitleIndex,
			Type:      uint32(def.CounterType),
			Kind:      v.Kind.String(),
			Size:      def.CounterSize,
			Value:     v.Any(),
		})
	}
	return dto, nil
}

// Ping checks the registry connection.
func (s *CounterService) Ping(ctx context.Context) error {

	return s.repository.Ping(ctx)
}

// Register adds a registration to the registry.
func (s *CounterService) Register(ctx context.Context, r models.Registration) error {

	return s.repository.Register(ctx, r.Service, symbols.Base{FirstCounter: r.FirstCounter, FirstHelp: r.FirstHelp})
}

// Unregister removes a registration.
func (s *CounterService) Unregister(ctx context.Context, service string) error {

	return s.repository.Unregister(ctx, service)
}

// Registrations lists the registry.
func (s *CounterService) Registrations(ctx context.Context) ([]models.Registration, error) {

	return s.repository.List(ctx)
}

// SaveRegistrations writes an in-memory registry to fname. It does nothing for other
// repositories.
func (s *CounterService) SaveRegistrations(ctx context.Context, fname string) error {
	memStorage, ok := s.repository.(*repository.MemStorage)
	if !ok || fname == "" {
		return nil
	}
	return memStorage.SaveRegistrations(ctx, fname)
}

// IsMemStorage checks if the underlying repository is a MemStorage implementation.
func (s *CounterService) IsMemStorage() bool {

	_, isMemStorage := s.repository.(*repository.MemStorage)
	return isMemStorage
}
