// Package provider implements an extensible performance counter provider: one counter
// object with a text counter and a random number counter, packed into the host's
// buffer on every collection.
package provider

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"

	"go.uber.org/zap"

	internalerrors "github.com/Schera-ole/perfcounter/internal/errors"
	"github.com/Schera-ole/perfcounter/internal/perf"
	"github.com/Schera-ole/perfcounter/internal/symbols"
)

// DefaultText is the value of the text counter.
const DefaultText = "Hello, World!"

// randomLimit bounds the random counter to [0, randomLimit).
const randomLimit = 10

// Registry resolves the name/help base of a service.
type Registry interface {
	Lookup(ctx context.Context, service string) (symbols.Base, error)
}

// Rand produces the random counter value.
type Rand interface {
	IntN(n int) int
}

type state int

const (
	stateUninitialized state = iota
	stateReady
	stateClosed
)

func (s state) String() string {
	switch s {
	case stateUninitialized:
		return "uninitialized"
	case stateReady:
		return "ready"
	case stateClosed:
		return "closed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Layout is the descriptor set computed by Initialize.
type Layout struct {
	Object   perf.ObjectType
	Text     perf.CounterDefinition
	Random   perf.CounterDefinition
	Block    perf.CounterBlock
	TextData []byte
}

// Provider owns the descriptors of one counter object. The zero value is not usable;
// create it with New.
type Provider struct {
	mu      sync.Mutex
	state   state
	layout  Layout
	service string
	text    string

	registry Registry
	rand     Rand
	clock    Clock
	logger   *zap.SugaredLogger
}

// Option configures a Provider.
type Option func(*Provider)

// WithText replaces the value of the text counter.
func WithText(text string) Option {
	return func(p *Provider) { p.text = text }
}

// WithRand replaces the random source.
func WithRand(r Rand) Option {
	return func(p *Provider) { p.rand = r }
}

// WithClock replaces the clock used for PerfTime/PerfFreq.
func WithClock(c Clock) Option {
	return func(p *Provider) { p.clock = c }
}

// New creates an uninitialized provider for service.
func New(service string, registry Registry, logger *zap.SugaredLogger, opts ...Option) *Provider {
	p := &Provider{
		service:  service,
		text:     DefaultText,
		registry: registry,
		rand:     rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		logger:   logger,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.clock == nil {
		p.clock = NewTickClock()
	}
	return p
}

// Service returns the registry key of the provider.
func (p *Provider) Service() string { return p.service }

// Open looks up the service's name/help base and initializes the descriptors.
// A lookup failure is returned wrapped and leaves the provider uninitialized.
func (p *Provider) Open(ctx context.Context, deviceNames []string) error {
	p.logger.Infow("opening counter provider", "service", p.service, "devices", deviceNames)

	base, err := p.registry.Lookup(ctx, p.service)
	if err != nil {
		p.logger.Errorw("registry lookup failed", "service", p.service, "error", err)
		return fmt.Errorf("lookup %s: %w", p.service, err)
	}
	return p.Initialize(base)
}

// Initialize computes every descriptor from base. It may run again while the provider
// is ready; it fails once the provider is closed.
func (p *Provider) Initialize(base symbols.Base) error {
	textData, err := perf.EncodeUnicodeText(p.text)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state == stateClosed {
		return internalerrors.ErrClosed
	}
	p.layout = buildLayout(base, textData)
	p.state = stateReady

	p.logger.Debugw("counter layout initialized",
		"service", p.service,
		"object", p.layout.Object.ObjectNameTitleIndex,
		"definition_length", p.layout.Object.DefinitionLength,
		"total_length", p.layout.Object.TotalByteLength,
	)
	return nil
}

func buildLayout(base symbols.Base, textData []byte) Layout {
	text := perf.CounterDefinition{
		ByteLength:            perf.CounterDefinitionSize,
		CounterNameTitleIndex: base.Name(symbols.TextCounterOffset),
		CounterHelpTitleIndex: base.Help(symbols.TextCounterOffset),
		DetailLevel:           perf.DetailNovice,
		CounterType:           perf.CounterTypeUnicodeText,
		CounterSize:           uint32(len(textData)),
		// the counter block header comes first
		CounterOffset: perf.CounterBlockSize,
	}
	random := perf.CounterDefinition{
		ByteLength:            perf.CounterDefinitionSize,
		CounterNameTitleIndex: base.Name(symbols.RandomCounterOffset),
		CounterHelpTitleIndex: base.Help(symbols.RandomCounterOffset),
		DetailLevel:           perf.DetailNovice,
		CounterType:           perf.CounterTypeDword,
		CounterSize:           4,
		CounterOffset:         text.CounterOffset + text.CounterSize,
	}
	block := perf.CounterBlock{ByteLength: random.CounterOffset + random.CounterSize}

	object := perf.ObjectType{
		HeaderLength:         perf.ObjectTypeSize,
		ObjectNameTitleIndex: base.Name(symbols.ObjectOffset),
		ObjectHelpTitleIndex: base.Help(symbols.ObjectOffset),
		DetailLevel:          perf.DetailNovice,
		NumCounters:          2,
		NumInstances:         perf.NoInstances,
	}
	object.DefinitionLength = object.HeaderLength + text.ByteLength + random.ByteLength
	object.TotalByteLength = perf.RoundUp8(object.DefinitionLength + block.ByteLength)

	return Layout{
		Object:   object,
		Text:     text,
		Random:   random,
		Block:    block,
		TextData: textData,
	}
}

// Layout returns a copy of the current descriptors.
func (p *Provider) Layout() Layout {
	p.mu.Lock()
	defer p.mu.Unlock()
	l := p.layout
	l.TextData = append([]byte(nil), p.layout.TextData...)
	return l
}

// Collect packs the object into out and advances it by the object's TotalByteLength.
// It returns the bytes written and the number of objects (always 1 on success).
//
// When out has less room than TotalByteLength, Collect returns ErrMoreData with zero
// counts and leaves the buffer untouched, so the host can retry with a larger one.
// The query is logged only; the object is always collected.
func (p *Provider) Collect(query string, out *perf.Cursor) (uint32, uint32, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch p.state {
	case stateUninitialized:
		return 0, 0, internalerrors.ErrNotOpen
	case stateClosed:
		return 0, 0, internalerrors.ErrClosed
	}

	if q, err := perf.ParseQuery(query); err != nil {
		p.logger.Debugw("unparsable collect query", "query", query, "error", err)
	} else {
		p.logger.Debugw("collect", "service", p.service, "query", q.String(), "available", out.Available())
	}

	l := &p.layout
	total := l.Object.TotalByteLength
	w, err := out.Reserve(int(total))
	if err != nil {
		return 0, 0, fmt.Errorf("%w: need %d bytes, have %d", internalerrors.ErrMoreData, total, out.Available())
	}

	object := l.Object
	object.PerfTime, object.PerfFreq = p.clock.Now()
	value := uint32(p.rand.IntN(randomLimit))

	if err := writeObject(w, &object, l, value); err != nil {
		return 0, 0, fmt.Errorf("pack counter object: %w", err)
	}
	if err := out.Advance(int(total)); err != nil {
		return 0, 0, err
	}
	return total, 1, nil
}

func writeObject(w *perf.Writer, object *perf.ObjectType, l *Layout, value uint32) error {
	if err := object.WriteTo(w); err != nil {
		return err
	}
	if err := l.Text.WriteTo(w); err != nil {
		return err
	}
	if err := l.Random.WriteTo(w); err != nil {
		return err
	}
	block := w.Len()
	if err := l.Block.WriteTo(w); err != nil {
		return err
	}
	if _, err := w.WriteAt(l.TextData, int64(block)+int64(l.Text.CounterOffset)); err != nil {
		return err
	}
	return w.PutUint32At(block+int(l.Random.CounterOffset), value)
}

// Close moves the provider to its terminal state. There is nothing to release.
func (p *Provider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != stateClosed {
		p.logger.Infow("closing counter provider", "service", p.service, "state", p.state.String())
	}
	p.state = stateClosed
	return nil
}
