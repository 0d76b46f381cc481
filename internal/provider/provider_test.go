package provider

import (
	"bytes"
	"context"
	"encoding/binary"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	internalerrors "github.com/Schera-ole/perfcounter/internal/errors"
	"github.com/Schera-ole/perfcounter/internal/perf"
	"github.com/Schera-ole/perfcounter/internal/symbols"
)

type stubRegistry struct {
	base symbols.Base
	err  error
}

func (s *stubRegistry) Lookup(ctx context.Context, service string) (symbols.Base, error) {
	return s.base, s.err
}

type fixedRand int

func (f fixedRand) IntN(n int) int { return int(f) % n }

type fixedClock struct{ time, freq int64 }

func (c fixedClock) Now() (int64, int64) { return c.time, c.freq }

var testBase = symbols.Base{FirstCounter: 1000, FirstHelp: 1001}

func newTestProvider(t *testing.T, opts ...Option) *Provider {
	t.Helper()
	opts = append([]Option{WithClock(fixedClock{time: 5000, freq: 1000})}, opts...)
	p := New("PerfCounter", &stubRegistry{base: testBase}, zap.NewNop().Sugar(), opts...)
	require.NoError(t, p.Open(context.Background(), nil))
	return p
}

func TestInitializeIndices(t *testing.T) {
	p := New("PerfCounter", &stubRegistry{}, zap.NewNop().Sugar(), WithClock(fixedClock{}))

	for _, base := range []symbols.Base{
		{FirstCounter: 2, FirstHelp: 3},
		{FirstCounter: 1000, FirstHelp: 1001},
		{FirstCounter: 7846, FirstHelp: 9000},
	} {
		require.NoError(t, p.Initialize(base))
		l := p.Layout()

		assert.Equal(t, base.FirstCounter+symbols.ObjectOffset, l.Object.ObjectNameTitleIndex)
		assert.Equal(t, base.FirstHelp+symbols.ObjectOffset, l.Object.ObjectHelpTitleIndex)
		assert.Equal(t, base.FirstCounter+symbols.TextCounterOffset, l.Text.CounterNameTitleIndex)
		assert.Equal(t, base.FirstHelp+symbols.TextCounterOffset, l.Text.CounterHelpTitleIndex)
		assert.Equal(t, base.FirstCounter+symbols.RandomCounterOffset, l.Random.CounterNameTitleIndex)
		assert.Equal(t, base.FirstHelp+symbols.RandomCounterOffset, l.Random.CounterHelpTitleIndex)
	}
}

func TestLayoutHelloWorld(t *testing.T) {
	l := newTestProvider(t).Layout()

	assert.Equal(t, uint32(28), l.Text.CounterSize)
	assert.Equal(t, perf.CounterTypeUnicodeText, l.Text.CounterType)
	assert.Equal(t, uint32(4), l.Random.CounterSize)
	assert.Equal(t, perf.CounterTypeDword, l.Random.CounterType)

	assert.Equal(t, uint32(0), l.Text.PayloadOffset())
	assert.Equal(t, l.Text.CounterSize, l.Random.PayloadOffset())
	assert.Equal(t, uint32(32), l.Block.PayloadLength())
	assert.Equal(t, uint32(36), l.Block.ByteLength)

	assert.Equal(t, uint32(2), l.Object.NumCounters)
	assert.Equal(t, perf.NoInstances, l.Object.NumInstances)
	assert.Equal(t, uint32(perf.ObjectTypeSize), l.Object.HeaderLength)
	assert.Equal(t, uint32(144), l.Object.DefinitionLength)
	assert.Equal(t, uint32(184), l.Object.TotalByteLength)
	assert.Zero(t, l.Object.TotalByteLength%8)
}

func TestLayoutRoundsOnlyTheTotal(t *testing.T) {
	for _, text := range []string{"", "a", "ab", "abc", "abcd", "Hello, World!"} {
		p := newTestProvider(t, WithText(text))
		l := p.Layout()

		textSize := uint32(len([]rune(text))+1) * 2
		assert.Equal(t, textSize, l.Text.CounterSize, text)
		exact := l.Object.DefinitionLength + perf.CounterBlockSize + textSize + 4
		assert.Equal(t, perf.RoundUp8(exact), l.Object.TotalByteLength, text)
		assert.Zero(t, l.Object.TotalByteLength%8, text)
	}
}

func TestCollectInsufficientBuffer(t *testing.T) {
	p := newTestProvider(t)
	total := int(p.Layout().Object.TotalByteLength)

	for _, size := range []int{0, 10, total - 1} {
		buf := bytes.Repeat([]byte{0xaa}, size)
		cursor := perf.NewCursor(buf)

		written, objects, err := p.Collect("Global", cursor)
		require.ErrorIs(t, err, internalerrors.ErrMoreData)
		assert.Zero(t, written)
		assert.Zero(t, objects)
		assert.Equal(t, 0, cursor.Offset())
		assert.Equal(t, bytes.Repeat([]byte{0xaa}, size), buf, "buffer must not be written")
	}
}

func TestCollectWritesObject(t *testing.T) {
	p := newTestProvider(t, WithRand(fixedRand(7)))
	layout := p.Layout()

	buf := bytes.Repeat([]byte{0xaa}, 256)
	cursor := perf.NewCursor(buf)

	written, objects, err := p.Collect("", cursor)
	require.NoError(t, err)
	assert.Equal(t, layout.Object.TotalByteLength, written)
	assert.Equal(t, uint32(1), objects)
	assert.Equal(t, int(written), cursor.Offset())
	assert.Equal(t, byte(0xaa), buf[written], "nothing written past the object")

	obj, rest, err := perf.DecodeObject(cursor.Bytes())
	require.NoError(t, err)
	assert.Empty(t, rest)

	want := layout.Object
	want.PerfTime, want.PerfFreq = 5000, 1000
	assert.Equal(t, want, obj.Header)
	assert.Equal(t, []perf.CounterDefinition{layout.Text, layout.Random}, obj.Counters)
	assert.Equal(t, layout.Block, obj.Block)

	text, err := obj.Value(0)
	require.NoError(t, err)
	assert.Equal(t, "Hello, World!", text.Text)

	random, err := obj.Value(1)
	require.NoError(t, err)
	assert.Equal(t, uint32(7), random.Any())

	// fixed order: object, two definitions, block header, text, dword, zero padding
	blockStart := perf.ObjectTypeSize + 2*perf.CounterDefinitionSize
	assert.Equal(t, uint32(36), binary.LittleEndian.Uint32(buf[blockStart:]))
	assert.Equal(t, layout.TextData, buf[blockStart+4:blockStart+32])
	assert.Equal(t, uint32(7), binary.LittleEndian.Uint32(buf[blockStart+32:]))
	assert.Equal(t, make([]byte, 4), buf[blockStart+36:written])
}

func TestCollectRepeated(t *testing.T) {
	p := newTestProvider(t)

	var firstText []byte
	for i := 0; i < 200; i++ {
		cursor := perf.NewCursor(make([]byte, 512))
		_, _, err := p.Collect("Global", cursor)
		require.NoError(t, err)

		obj, _, err := perf.DecodeObject(cursor.Bytes())
		require.NoError(t, err)
		v, err := obj.Value(1)
		require.NoError(t, err)
		assert.Less(t, v.Int, uint64(10))

		raw, err := obj.Raw(0)
		require.NoError(t, err)
		if firstText == nil {
			firstText = raw
		}
		assert.Equal(t, firstText, raw)
	}
}

func TestCollectAdvancesSharedCursor(t *testing.T) {
	first := newTestProvider(t)
	second := newTestProvider(t)
	total := int(first.Layout().Object.TotalByteLength)

	cursor := perf.NewCursor(make([]byte, 2*total+3))
	_, _, err := first.Collect("Global", cursor)
	require.NoError(t, err)
	_, _, err = second.Collect("Global", cursor)
	require.NoError(t, err)
	assert.Equal(t, 2*total, cursor.Offset())

	_, _, err = first.Collect("Global", cursor)
	assert.ErrorIs(t, err, internalerrors.ErrMoreData)
	assert.Equal(t, 2*total, cursor.Offset())

	objects, err := perf.DecodeObjects(cursor.Bytes(), 2)
	require.NoError(t, err)
	assert.Len(t, objects, 2)
}

func TestLifecycle(t *testing.T) {
	p := New("PerfCounter", &stubRegistry{base: testBase}, zap.NewNop().Sugar(), WithClock(fixedClock{}))
	cursor := perf.NewCursor(make([]byte, 512))

	_, _, err := p.Collect("Global", cursor)
	assert.ErrorIs(t, err, internalerrors.ErrNotOpen)

	require.NoError(t, p.Open(context.Background(), []string{"dev"}))
	_, _, err = p.Collect("Global", cursor)
	require.NoError(t, err)

	require.NoError(t, p.Close())
	require.NoError(t, p.Close())

	_, _, err = p.Collect("Global", cursor)
	assert.ErrorIs(t, err, internalerrors.ErrClosed)
	assert.ErrorIs(t, p.Initialize(testBase), internalerrors.ErrClosed)
}

func TestOpenLookupFailure(t *testing.T) {
	reg := &stubRegistry{err: internalerrors.ErrServiceNotRegistered}
	p := New("Missing", reg, zap.NewNop().Sugar(), WithClock(fixedClock{}))

	err := p.Open(context.Background(), nil)
	require.ErrorIs(t, err, internalerrors.ErrServiceNotRegistered)

	_, _, err = p.Collect("Global", perf.NewCursor(make([]byte, 512)))
	assert.ErrorIs(t, err, internalerrors.ErrNotOpen)
}

func TestConcurrentCollect(t *testing.T) {
	p := newTestProvider(t)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				cursor := perf.NewCursor(make([]byte, 256))
				_, objects, err := p.Collect("Global", cursor)
				assert.NoError(t, err)
				assert.Equal(t, uint32(1), objects)
			}
		}()
	}
	wg.Wait()
}

func TestTickClock(t *testing.T) {
	c := NewTickClock()
	now, freq := c.Now()
	assert.Equal(t, int64(1000), freq)
	assert.GreaterOrEqual(t, now, int64(0))
}
